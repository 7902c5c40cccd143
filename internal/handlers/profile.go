package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"gorm.io/gorm"

	"blogium/internal/httpx"
	"blogium/internal/models"
	"blogium/internal/policy"
	"blogium/internal/validation"
)

type ProfileHandler struct {
	DB *gorm.DB
}

func NewProfileHandler(db *gorm.DB) *ProfileHandler { return &ProfileHandler{DB: db} }

type profileInput struct {
	Username  string
	Email     string
	FirstName string
	LastName  string
}

func parseProfileInput(r *http.Request) (profileInput, validation.Violations) {
	v := validation.Violations{}
	var in profileInput
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		var body struct {
			Username  string `json:"username"`
			Email     string `json:"email"`
			FirstName string `json:"first_name"`
			LastName  string `json:"last_name"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			v["body"] = "invalid_json"
			return in, v
		}
		in = profileInput{body.Username, body.Email, body.FirstName, body.LastName}
	} else {
		if err := r.ParseForm(); err != nil {
			v["body"] = "invalid_form"
			return in, v
		}
		in = profileInput{
			Username:  r.FormValue("username"),
			Email:     r.FormValue("email"),
			FirstName: r.FormValue("first_name"),
			LastName:  r.FormValue("last_name"),
		}
	}
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(in.Email)
	validation.Required("username", in.Username, v)
	validation.MaxLen("username", in.Username, 150, v)
	validation.Required("email", in.Email, v)
	validation.Email("email", in.Email, v)
	return in, v
}

// Edit lets a user change their own identity fields. Anyone else gets a
// hard deny, including staff.
func (h *ProfileHandler) Edit(w http.ResponseWriter, r *http.Request) {
	username := r.PathValue("username")
	var profile models.User
	if err := h.DB.Where("username = ?", username).First(&profile).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			notFound(w, r)
			return
		}
		internalError(w, r)
		return
	}
	viewer := currentUser(h.DB, r)
	if !policy.CanEditProfile(viewer, &profile) {
		forbidden(w, r)
		return
	}
	if r.Method == http.MethodGet {
		data := baseData(h.DB, r)
		data["Profile"] = &profile
		render(w, r, "profile_form.html", data)
		return
	}
	in, v := parseProfileInput(r)
	if v.Empty() {
		var count int64
		h.DB.Model(&models.User{}).Where("username = ? AND id <> ?", in.Username, profile.ID).Count(&count)
		if count > 0 {
			v["username"] = "taken"
		}
		h.DB.Model(&models.User{}).Where("email = ? AND id <> ?", in.Email, profile.ID).Count(&count)
		if count > 0 {
			v["email"] = "taken"
		}
	}
	if !v.Empty() {
		if httpx.WantsJSON(r) {
			httpx.JSONError(w, http.StatusBadRequest, "validation_failed", v)
			return
		}
		w.WriteHeader(http.StatusBadRequest)
		data := baseData(h.DB, r)
		data["Profile"] = &profile
		data["Errors"] = v
		render(w, r, "profile_form.html", data)
		return
	}
	profile.Username = in.Username
	profile.Email = in.Email
	profile.FirstName = in.FirstName
	profile.LastName = in.LastName
	if err := h.DB.Save(&profile).Error; err != nil {
		internalError(w, r)
		return
	}
	if httpx.WantsJSON(r) {
		httpx.JSON(w, http.StatusOK, profile)
		return
	}
	http.Redirect(w, r, "/profile/"+profile.Username, http.StatusSeeOther)
}
