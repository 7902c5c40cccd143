package validation

import (
	"net/mail"
	"strings"
	"time"
)

// Violations maps field name to a short machine-readable reason. An empty
// map means the submission passed; handlers surface the map back to the
// submitter and mutate nothing otherwise.
type Violations map[string]string

func (v Violations) Empty() bool { return len(v) == 0 }

func Required(field, value string, v Violations) {
	if strings.TrimSpace(value) == "" {
		v[field] = "required"
	}
}

func MaxLen(field, value string, limit int, v Violations) {
	if len(value) > limit {
		v[field] = "too_long"
	}
}

func Email(field, value string, v Violations) {
	if value == "" {
		return
	}
	if _, err := mail.ParseAddress(value); err != nil {
		v[field] = "invalid_email"
	}
}

// Slug allows lowercase alphanumerics and dashes, the shape category slugs
// take in URLs.
func Slug(field, value string, v Violations) {
	for _, r := range value {
		ok := r == '-' || (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9')
		if !ok {
			v[field] = "invalid_slug"
			return
		}
	}
}

// Datetime parses a submitted publish date. Forms post the HTML
// datetime-local shape; JSON clients send RFC 3339. Empty input is not a
// violation, the caller decides the default.
func Datetime(field, value string, v Violations) (time.Time, bool) {
	if strings.TrimSpace(value) == "" {
		return time.Time{}, false
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02T15:04"} {
		if t, err := time.Parse(layout, value); err == nil {
			return t, true
		}
	}
	v[field] = "invalid_datetime"
	return time.Time{}, false
}
