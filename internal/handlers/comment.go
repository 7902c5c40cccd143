package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"gorm.io/gorm"

	"blogium/internal/httpx"
	"blogium/internal/listing"
	"blogium/internal/models"
	"blogium/internal/policy"
	"blogium/internal/validation"
)

type CommentHandler struct {
	DB      *gorm.DB
	Listing *listing.Service
}

func NewCommentHandler(db *gorm.DB) *CommentHandler {
	return &CommentHandler{DB: db, Listing: listing.NewService(db)}
}

func parseCommentText(r *http.Request) (string, validation.Violations) {
	v := validation.Violations{}
	var text string
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		var body struct {
			Text string `json:"text"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			v["body"] = "invalid_json"
			return "", v
		}
		text = body.Text
	} else {
		if err := r.ParseForm(); err != nil {
			v["body"] = "invalid_form"
			return "", v
		}
		text = r.FormValue("text")
	}
	validation.Required("text", text, v)
	return text, v
}

// resolveComment loads the comment addressed by the path. A comment id
// that exists under a different post is as missing as an unknown one;
// storage failures come back as-is so callers can answer 500, not 404.
func (h *CommentHandler) resolveComment(r *http.Request) (*models.Comment, error) {
	postID, ok := pathID(r, "id")
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	commentID, ok := pathID(r, "commentID")
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	var comment models.Comment
	if err := h.DB.First(&comment, commentID).Error; err != nil {
		return nil, err
	}
	if comment.PostID != postID {
		return nil, gorm.ErrRecordNotFound
	}
	return &comment, nil
}

// Add creates a comment on a post the viewer can see. The author and the
// post binding both come from the request context and path, never the body.
func (h *CommentHandler) Add(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		notFound(w, r)
		return
	}
	viewer := currentUser(h.DB, r)
	if viewer == nil {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}
	post, err := h.Listing.Detail(id, viewer)
	if err != nil {
		if errors.Is(err, listing.ErrNotFound) {
			notFound(w, r)
			return
		}
		internalError(w, r)
		return
	}
	text, v := parseCommentText(r)
	if !v.Empty() {
		if httpx.WantsJSON(r) {
			httpx.JSONError(w, http.StatusBadRequest, "validation_failed", v)
			return
		}
		w.WriteHeader(http.StatusBadRequest)
		data := baseData(h.DB, r)
		data["Errors"] = v
		data["Comment"] = &models.Comment{PostID: post.ID}
		render(w, r, "comment_form.html", data)
		return
	}
	comment := models.Comment{Text: text, PostID: post.ID, AuthorID: viewer.ID}
	if err := h.DB.Create(&comment).Error; err != nil {
		internalError(w, r)
		return
	}
	if httpx.WantsJSON(r) {
		httpx.JSON(w, http.StatusCreated, comment)
		return
	}
	http.Redirect(w, r, fmt.Sprintf("/posts/%d", post.ID), http.StatusSeeOther)
}

// Edit is comment-author-only, hard deny otherwise.
func (h *CommentHandler) Edit(w http.ResponseWriter, r *http.Request) {
	comment, err := h.resolveComment(r)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			notFound(w, r)
			return
		}
		internalError(w, r)
		return
	}
	viewer := currentUser(h.DB, r)
	if !policy.CanModifyComment(viewer, comment) {
		forbidden(w, r)
		return
	}
	if r.Method == http.MethodGet {
		data := baseData(h.DB, r)
		data["Comment"] = comment
		render(w, r, "comment_form.html", data)
		return
	}
	text, v := parseCommentText(r)
	if !v.Empty() {
		if httpx.WantsJSON(r) {
			httpx.JSONError(w, http.StatusBadRequest, "validation_failed", v)
			return
		}
		w.WriteHeader(http.StatusBadRequest)
		data := baseData(h.DB, r)
		data["Errors"] = v
		data["Comment"] = comment
		render(w, r, "comment_form.html", data)
		return
	}
	comment.Text = text
	if err := h.DB.Save(comment).Error; err != nil {
		internalError(w, r)
		return
	}
	if httpx.WantsJSON(r) {
		httpx.JSON(w, http.StatusOK, comment)
		return
	}
	http.Redirect(w, r, fmt.Sprintf("/posts/%d", comment.PostID), http.StatusSeeOther)
}

// Delete is comment-author-only, hard deny otherwise.
func (h *CommentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	comment, err := h.resolveComment(r)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			notFound(w, r)
			return
		}
		internalError(w, r)
		return
	}
	viewer := currentUser(h.DB, r)
	if !policy.CanModifyComment(viewer, comment) {
		forbidden(w, r)
		return
	}
	if err := h.DB.Delete(&models.Comment{}, comment.ID).Error; err != nil {
		internalError(w, r)
		return
	}
	if httpx.WantsJSON(r) {
		httpx.JSON(w, http.StatusOK, map[string]any{"deleted": comment.ID})
		return
	}
	http.Redirect(w, r, fmt.Sprintf("/posts/%d", comment.PostID), http.StatusSeeOther)
}
