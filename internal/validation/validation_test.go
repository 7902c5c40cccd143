package validation

import (
	"testing"
	"time"
)

func TestRequired(t *testing.T) {
	v := Violations{}
	Required("title", "  ", v)
	if v["title"] != "required" {
		t.Errorf("blank value: got %q", v["title"])
	}
	v = Violations{}
	Required("title", "hello", v)
	if !v.Empty() {
		t.Errorf("non-blank value flagged: %v", v)
	}
}

func TestMaxLen(t *testing.T) {
	v := Violations{}
	MaxLen("title", "abcdef", 5, v)
	if v["title"] != "too_long" {
		t.Errorf("over limit: got %q", v["title"])
	}
	v = Violations{}
	MaxLen("title", "abcde", 5, v)
	if !v.Empty() {
		t.Errorf("at limit flagged: %v", v)
	}
}

func TestEmail(t *testing.T) {
	v := Violations{}
	Email("email", "not-an-address", v)
	if v["email"] != "invalid_email" {
		t.Errorf("bad address: got %q", v["email"])
	}
	v = Violations{}
	Email("email", "alice@example.com", v)
	Email("other", "", v)
	if !v.Empty() {
		t.Errorf("valid or empty address flagged: %v", v)
	}
}

func TestSlug(t *testing.T) {
	v := Violations{}
	Slug("slug", "tech-news-2024", v)
	if !v.Empty() {
		t.Errorf("valid slug flagged: %v", v)
	}
	for _, bad := range []string{"Tech", "under_score", "spa ce", "sla/sh"} {
		v = Violations{}
		Slug("slug", bad, v)
		if v["slug"] != "invalid_slug" {
			t.Errorf("%q: got %q", bad, v["slug"])
		}
	}
}

func TestDatetime(t *testing.T) {
	v := Violations{}
	if _, ok := Datetime("pub_date", "", v); ok || !v.Empty() {
		t.Errorf("empty input should be no value and no violation, got %v", v)
	}

	cases := []string{
		"2024-05-01T10:30:00Z",
		"2024-05-01T10:30:00",
		"2024-05-01T10:30",
	}
	for _, raw := range cases {
		v = Violations{}
		got, ok := Datetime("pub_date", raw, v)
		if !ok || !v.Empty() {
			t.Errorf("%q rejected: %v", raw, v)
			continue
		}
		want := time.Date(2024, 5, 1, 10, 30, 0, 0, time.UTC)
		if !got.Equal(want) {
			t.Errorf("%q parsed as %v, want %v", raw, got, want)
		}
	}

	v = Violations{}
	if _, ok := Datetime("pub_date", "yesterday", v); ok || v["pub_date"] != "invalid_datetime" {
		t.Errorf("garbage input: ok=%v violations=%v", ok, v)
	}
}
