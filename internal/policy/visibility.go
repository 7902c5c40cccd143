package policy

import (
	"time"

	"blogium/internal/models"
)

// Visibility of a post to a viewer. The same predicate backs direct fetch
// everywhere; listings use PubliclyVisible's SQL twin in the listing
// package and never consult the viewer.

// PubliclyVisible reports whether an ordinary viewer may see the post.
// The category must be loaded on the post. All three conditions have to
// hold: a published post in an unpublished category is invisible.
func PubliclyVisible(p *models.Post, now time.Time) bool {
	return p.IsPublished && p.Category.IsPublished && !p.PubDate.After(now)
}

// CanViewPost decides visibility for a direct fetch. The post's author and
// staff see it regardless of flags or date; everyone else gets the public
// predicate. viewer may be nil (anonymous).
func CanViewPost(p *models.Post, viewer *models.User, now time.Time) bool {
	if viewer != nil && (viewer.IsStaff || viewer.ID == p.AuthorID) {
		return true
	}
	return PubliclyVisible(p, now)
}
