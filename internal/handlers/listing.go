package handlers

import (
	"errors"
	"net/http"

	"gorm.io/gorm"

	"blogium/internal/httpx"
	"blogium/internal/listing"
	"blogium/internal/validation"
)

// ListingHandler serves the three paginated surfaces: index, category and
// profile.
type ListingHandler struct {
	DB      *gorm.DB
	Listing *listing.Service
}

func NewListingHandler(db *gorm.DB) *ListingHandler {
	return &ListingHandler{DB: db, Listing: listing.NewService(db)}
}

func (h *ListingHandler) Index(w http.ResponseWriter, r *http.Request) {
	page, err := h.Listing.Index(listing.ParsePage(r.URL.Query().Get("page")))
	if err != nil {
		internalError(w, r)
		return
	}
	if httpx.WantsJSON(r) {
		httpx.JSON(w, http.StatusOK, page)
		return
	}
	data := baseData(h.DB, r)
	data["Page"] = page
	render(w, r, "index.html", data)
}

func (h *ListingHandler) Category(w http.ResponseWriter, r *http.Request) {
	slug := r.PathValue("slug")
	// Slugs are lowercase alphanumerics and dashes; anything else cannot
	// name a category, skip the lookup.
	v := validation.Violations{}
	validation.Slug("slug", slug, v)
	if !v.Empty() {
		notFound(w, r)
		return
	}
	category, page, err := h.Listing.Category(slug, listing.ParsePage(r.URL.Query().Get("page")))
	if err != nil {
		if errors.Is(err, listing.ErrNotFound) {
			notFound(w, r)
			return
		}
		internalError(w, r)
		return
	}
	if httpx.WantsJSON(r) {
		httpx.JSON(w, http.StatusOK, map[string]any{"category": category, "items": page.Items,
			"page": page.Number, "total_pages": page.TotalPages, "total": page.TotalItems})
		return
	}
	data := baseData(h.DB, r)
	data["Category"] = category
	data["Page"] = page
	render(w, r, "category.html", data)
}

func (h *ListingHandler) Profile(w http.ResponseWriter, r *http.Request) {
	username := r.PathValue("username")
	profile, page, err := h.Listing.Profile(username, listing.ParsePage(r.URL.Query().Get("page")))
	if err != nil {
		if errors.Is(err, listing.ErrNotFound) {
			notFound(w, r)
			return
		}
		internalError(w, r)
		return
	}
	if httpx.WantsJSON(r) {
		httpx.JSON(w, http.StatusOK, map[string]any{"profile": profile, "items": page.Items,
			"page": page.Number, "total_pages": page.TotalPages, "total": page.TotalItems})
		return
	}
	viewer := currentUser(h.DB, r)
	data := baseData(h.DB, r)
	data["Profile"] = profile
	data["Page"] = page
	data["CanEdit"] = viewer != nil && viewer.ID == profile.ID
	render(w, r, "profile.html", data)
}
