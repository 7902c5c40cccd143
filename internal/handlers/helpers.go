package handlers

import (
	"net/http"
	"strconv"

	"gorm.io/gorm"

	"blogium/internal/auth"
	"blogium/internal/httpx"
	"blogium/internal/middleware"
	"blogium/internal/models"
	"blogium/internal/view"
)

// currentUser loads the authenticated user, nil for anonymous viewers or
// stale sessions.
func currentUser(db *gorm.DB, r *http.Request) *models.User {
	uid, ok := auth.UserIDFromContext(r.Context())
	if !ok || uid == 0 {
		return nil
	}
	var u models.User
	if err := db.First(&u, uid).Error; err != nil {
		return nil
	}
	return &u
}

// pathID parses a numeric path segment. Zero and garbage both fail.
func pathID(r *http.Request, name string) (uint, bool) {
	n, err := strconv.ParseUint(r.PathValue(name), 10, 64)
	if err != nil || n == 0 {
		return 0, false
	}
	return uint(n), true
}

func notFound(w http.ResponseWriter, r *http.Request) {
	if httpx.WantsJSON(r) {
		httpx.JSONError(w, http.StatusNotFound, "not_found", nil)
		return
	}
	http.Error(w, "page not found", http.StatusNotFound)
}

func forbidden(w http.ResponseWriter, r *http.Request) {
	if httpx.WantsJSON(r) {
		httpx.JSONError(w, http.StatusForbidden, "forbidden", nil)
		return
	}
	http.Error(w, "forbidden", http.StatusForbidden)
}

func internalError(w http.ResponseWriter, r *http.Request) {
	if httpx.WantsJSON(r) {
		httpx.JSONError(w, http.StatusInternalServerError, "internal_error", nil)
		return
	}
	http.Error(w, "internal error", http.StatusInternalServerError)
}

// baseData seeds the template data every page shares.
func baseData(db *gorm.DB, r *http.Request) map[string]any {
	return map[string]any{
		"Viewer":    currentUser(db, r),
		"CSRFToken": middleware.CSRFToken(r),
	}
}

func render(w http.ResponseWriter, r *http.Request, name string, data map[string]any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := view.Render(w, r, name, data); err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("template render error: " + err.Error()))
	}
}
