package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"
)

func requestWithCookie(c *http.Cookie) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(c)
	return req
}

func TestSessionRoundTrip(t *testing.T) {
	c := SessionCookie(42)
	uid, ok := ParseSession(requestWithCookie(c))
	if !ok {
		t.Fatal("valid session rejected")
	}
	if uid != 42 {
		t.Errorf("uid = %d, want 42", uid)
	}
}

func TestTamperedSessionRejected(t *testing.T) {
	c := SessionCookie(42)
	parts := strings.SplitN(c.Value, ".", 3)
	if len(parts) != 3 {
		t.Fatalf("unexpected cookie shape %q", c.Value)
	}

	// Swap the user id but keep the original signature.
	forged := &http.Cookie{Name: c.Name, Value: "1." + parts[1] + "." + parts[2]}
	if _, ok := ParseSession(requestWithCookie(forged)); ok {
		t.Error("forged user id accepted")
	}

	// Garbage signature.
	forged = &http.Cookie{Name: c.Name, Value: parts[0] + "." + parts[1] + ".bm90YXNpZw"}
	if _, ok := ParseSession(requestWithCookie(forged)); ok {
		t.Error("bad signature accepted")
	}

	// Not even the right shape.
	forged = &http.Cookie{Name: c.Name, Value: "whatever"}
	if _, ok := ParseSession(requestWithCookie(forged)); ok {
		t.Error("malformed cookie accepted")
	}
}

func TestExpiredSessionRejected(t *testing.T) {
	// A correctly signed payload whose expiry is in the past. The signature
	// alone must not keep it alive.
	payload := "42." + strconv.FormatInt(time.Now().Add(-time.Minute).Unix(), 10)
	c := &http.Cookie{Name: "session", Value: payload + "." + sign(payload)}
	if _, ok := ParseSession(requestWithCookie(c)); ok {
		t.Error("expired session accepted")
	}
}

func TestMiddlewareAndRequireAuth(t *testing.T) {
	seen := uint(0)
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = UserIDFromContext(r.Context())
	})
	handler := Middleware(RequireAuth(inner))

	// Anonymous JSON client gets a 401.
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Accept", "application/json")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("anonymous: expected 401, got %d", w.Code)
	}

	// Anonymous browser is redirected to the login page.
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	if w.Code != http.StatusSeeOther || w.Header().Get("Location") != "/login" {
		t.Errorf("anonymous browser: got %d -> %q", w.Code, w.Header().Get("Location"))
	}

	// A signed session flows through to the handler.
	req = requestWithCookie(SessionCookie(7))
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	if seen != 7 {
		t.Errorf("context uid = %d, want 7", seen)
	}
}

func TestRequireAuthVerifier(t *testing.T) {
	SetUserVerifier(func(ctx context.Context, uid uint) bool { return false })
	t.Cleanup(func() { SetUserVerifier(nil) })

	handler := Middleware(RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})))
	req := requestWithCookie(SessionCookie(9))
	req.Header.Set("Accept", "application/json")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("stale session: expected 401, got %d", w.Code)
	}
}
