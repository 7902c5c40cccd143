package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"gorm.io/gorm"

	"blogium/internal/httpx"
	"blogium/internal/listing"
	"blogium/internal/models"
	"blogium/internal/policy"
	"blogium/internal/validation"
)

type PostHandler struct {
	DB      *gorm.DB
	Listing *listing.Service
}

func NewPostHandler(db *gorm.DB) *PostHandler {
	return &PostHandler{DB: db, Listing: listing.NewService(db)}
}

// postInput is the validated shape of a post submission. The author never
// comes from the client.
type postInput struct {
	Title       string
	Text        string
	PubDate     time.Time
	CategoryID  uint
	LocationID  *uint
	IsPublished bool
}

func (h *PostHandler) parsePostInput(r *http.Request) (postInput, validation.Violations) {
	v := validation.Violations{}
	in := postInput{IsPublished: true}

	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		var body struct {
			Title       string `json:"title"`
			Text        string `json:"text"`
			PubDate     string `json:"pub_date"`
			CategoryID  uint   `json:"category_id"`
			LocationID  *uint  `json:"location_id"`
			IsPublished *bool  `json:"is_published"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			v["body"] = "invalid_json"
			return in, v
		}
		in.Title = strings.TrimSpace(body.Title)
		in.Text = body.Text
		in.CategoryID = body.CategoryID
		in.LocationID = body.LocationID
		if body.IsPublished != nil {
			in.IsPublished = *body.IsPublished
		}
		if t, ok := validation.Datetime("pub_date", body.PubDate, v); ok {
			in.PubDate = t
		}
	} else {
		if err := r.ParseForm(); err != nil {
			v["body"] = "invalid_form"
			return in, v
		}
		in.Title = strings.TrimSpace(r.FormValue("title"))
		in.Text = r.FormValue("text")
		if n, err := strconv.ParseUint(r.FormValue("category_id"), 10, 64); err == nil {
			in.CategoryID = uint(n)
		}
		if raw := r.FormValue("location_id"); raw != "" {
			if n, err := strconv.ParseUint(raw, 10, 64); err == nil && n > 0 {
				id := uint(n)
				in.LocationID = &id
			}
		}
		in.IsPublished = r.FormValue("is_published") != ""
		if t, ok := validation.Datetime("pub_date", r.FormValue("pub_date"), v); ok {
			in.PubDate = t
		}
	}

	validation.Required("title", in.Title, v)
	validation.MaxLen("title", in.Title, 256, v)
	validation.Required("text", in.Text, v)
	if in.CategoryID == 0 {
		v["category_id"] = "required"
	} else {
		var count int64
		h.DB.Model(&models.Category{}).Where("id = ?", in.CategoryID).Count(&count)
		if count == 0 {
			v["category_id"] = "unknown_category"
		}
	}
	if in.LocationID != nil {
		var count int64
		h.DB.Model(&models.Location{}).Where("id = ?", *in.LocationID).Count(&count)
		if count == 0 {
			v["location_id"] = "unknown_location"
		}
	}
	if in.PubDate.IsZero() && v["pub_date"] == "" {
		in.PubDate = time.Now()
	}
	return in, v
}

func (h *PostHandler) formReferenceData(data map[string]any) {
	var categories []models.Category
	h.DB.Where("is_published = ?", true).Order("title asc").Find(&categories)
	var locations []models.Location
	h.DB.Where("is_published = ?", true).Order("name asc").Find(&locations)
	data["Categories"] = categories
	data["Locations"] = locations
}

// Detail serves one post with its comments. Visibility is the viewer-aware
// check: a failing post is indistinguishable from a missing one.
func (h *PostHandler) Detail(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		notFound(w, r)
		return
	}
	viewer := currentUser(h.DB, r)
	post, err := h.Listing.Detail(id, viewer)
	if err != nil {
		if errors.Is(err, listing.ErrNotFound) {
			notFound(w, r)
			return
		}
		internalError(w, r)
		return
	}
	comments, err := h.Listing.Comments(post.ID)
	if err != nil {
		internalError(w, r)
		return
	}
	if httpx.WantsJSON(r) {
		httpx.JSON(w, http.StatusOK, map[string]any{"post": post, "comments": comments})
		return
	}
	data := baseData(h.DB, r)
	data["Post"] = post
	data["Comments"] = comments
	data["CanEdit"] = policy.CanEditPost(viewer, post)
	data["CanDelete"] = policy.CanDeletePost(viewer, post)
	render(w, r, "detail.html", data)
}

// Create serves the post form and handles submission. Requires auth; the
// new post's author is always the authenticated viewer.
func (h *PostHandler) Create(w http.ResponseWriter, r *http.Request) {
	viewer := currentUser(h.DB, r)
	if viewer == nil {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}
	if r.Method == http.MethodGet {
		data := baseData(h.DB, r)
		h.formReferenceData(data)
		render(w, r, "post_form.html", data)
		return
	}
	in, v := h.parsePostInput(r)
	if !v.Empty() {
		if httpx.WantsJSON(r) {
			httpx.JSONError(w, http.StatusBadRequest, "validation_failed", v)
			return
		}
		w.WriteHeader(http.StatusBadRequest)
		data := baseData(h.DB, r)
		h.formReferenceData(data)
		data["Errors"] = v
		render(w, r, "post_form.html", data)
		return
	}
	post := models.Post{
		Title:       in.Title,
		Text:        in.Text,
		PubDate:     in.PubDate,
		IsPublished: in.IsPublished,
		AuthorID:    viewer.ID,
		CategoryID:  in.CategoryID,
		LocationID:  in.LocationID,
	}
	if err := h.DB.Create(&post).Error; err != nil {
		internalError(w, r)
		return
	}
	if httpx.WantsJSON(r) {
		httpx.JSON(w, http.StatusCreated, post)
		return
	}
	http.Redirect(w, r, "/profile/"+viewer.Username, http.StatusSeeOther)
}

// Edit is owner-only with a soft deny: anyone else is redirected to the
// detail page instead of being told edit exists.
func (h *PostHandler) Edit(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		notFound(w, r)
		return
	}
	var post models.Post
	if err := h.DB.First(&post, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			notFound(w, r)
			return
		}
		internalError(w, r)
		return
	}
	viewer := currentUser(h.DB, r)
	if !policy.CanEditPost(viewer, &post) {
		http.Redirect(w, r, fmt.Sprintf("/posts/%d", post.ID), http.StatusFound)
		return
	}
	if r.Method == http.MethodGet {
		data := baseData(h.DB, r)
		h.formReferenceData(data)
		data["Post"] = &post
		render(w, r, "post_form.html", data)
		return
	}
	in, v := h.parsePostInput(r)
	if !v.Empty() {
		if httpx.WantsJSON(r) {
			httpx.JSONError(w, http.StatusBadRequest, "validation_failed", v)
			return
		}
		w.WriteHeader(http.StatusBadRequest)
		data := baseData(h.DB, r)
		h.formReferenceData(data)
		data["Post"] = &post
		data["Errors"] = v
		render(w, r, "post_form.html", data)
		return
	}
	post.Title = in.Title
	post.Text = in.Text
	post.PubDate = in.PubDate
	post.IsPublished = in.IsPublished
	post.CategoryID = in.CategoryID
	post.LocationID = in.LocationID
	if err := h.DB.Save(&post).Error; err != nil {
		internalError(w, r)
		return
	}
	if httpx.WantsJSON(r) {
		httpx.JSON(w, http.StatusOK, post)
		return
	}
	http.Redirect(w, r, fmt.Sprintf("/posts/%d", post.ID), http.StatusSeeOther)
}

// Delete is a hard deny for everyone but the owner and staff. The post's
// comments go with it in one transaction.
func (h *PostHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		notFound(w, r)
		return
	}
	var post models.Post
	if err := h.DB.First(&post, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			notFound(w, r)
			return
		}
		internalError(w, r)
		return
	}
	viewer := currentUser(h.DB, r)
	if !policy.CanDeletePost(viewer, &post) {
		forbidden(w, r)
		return
	}
	err := h.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("post_id = ?", post.ID).Delete(&models.Comment{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Post{}, post.ID).Error
	})
	if err != nil {
		internalError(w, r)
		return
	}
	if httpx.WantsJSON(r) {
		httpx.JSON(w, http.StatusOK, map[string]any{"deleted": post.ID})
		return
	}
	http.Redirect(w, r, "/profile/"+viewer.Username, http.StatusSeeOther)
}
