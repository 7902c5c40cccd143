package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"blogium/internal/models"
)

func TestEditProfileSelfOnly(t *testing.T) {
	conn := setupTestDB(t)
	h := NewProfileHandler(conn)
	owner := seedUser(t, conn, "alice", false)
	intruder := seedUser(t, conn, "bob", false)
	staff := seedUser(t, conn, "root", true)

	for _, viewer := range []models.User{intruder, staff} {
		req := httptest.NewRequest(http.MethodGet, "/profile/alice/edit", nil)
		req.SetPathValue("username", "alice")
		req.Header.Set("Accept", "application/json")
		req = asUser(req, viewer)
		w := httptest.NewRecorder()
		h.Edit(w, req)
		if w.Code != http.StatusForbidden {
			t.Errorf("viewer %s: expected 403, got %d", viewer.Username, w.Code)
		}
	}
	_ = owner
}

func TestEditProfileUpdatesFields(t *testing.T) {
	conn := setupTestDB(t)
	h := NewProfileHandler(conn)
	owner := seedUser(t, conn, "alice", false)

	body := `{"username":"alice2","email":"alice2@test","first_name":"Alice","last_name":"Smith"}`
	req := httptest.NewRequest(http.MethodPost, "/profile/alice/edit", strings.NewReader(body))
	req.SetPathValue("username", "alice")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req = asUser(req, owner)
	w := httptest.NewRecorder()
	h.Edit(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", w.Code, w.Body.String())
	}
	var reloaded models.User
	if err := conn.First(&reloaded, owner.ID).Error; err != nil {
		t.Fatalf("reload: %v", err)
	}
	if reloaded.Username != "alice2" || reloaded.FirstName != "Alice" {
		t.Errorf("profile not updated: %+v", reloaded)
	}
}

func TestEditProfileRejectsTakenUsername(t *testing.T) {
	conn := setupTestDB(t)
	h := NewProfileHandler(conn)
	owner := seedUser(t, conn, "alice", false)
	seedUser(t, conn, "bob", false)

	body := `{"username":"bob","email":"alice@test"}`
	req := httptest.NewRequest(http.MethodPost, "/profile/alice/edit", strings.NewReader(body))
	req.SetPathValue("username", "alice")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req = asUser(req, owner)
	w := httptest.NewRecorder()
	h.Edit(w, req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	var reloaded models.User
	conn.First(&reloaded, owner.ID)
	if reloaded.Username != "alice" {
		t.Errorf("denied edit must not mutate, username became %q", reloaded.Username)
	}
}

func TestEditProfileUnknownUsername(t *testing.T) {
	conn := setupTestDB(t)
	h := NewProfileHandler(conn)
	viewer := seedUser(t, conn, "alice", false)

	req := httptest.NewRequest(http.MethodGet, "/profile/nobody/edit", nil)
	req.SetPathValue("username", "nobody")
	req.Header.Set("Accept", "application/json")
	req = asUser(req, viewer)
	w := httptest.NewRecorder()
	h.Edit(w, req)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}
