package policy

import "blogium/internal/models"

// Ownable is implemented by resources that have an owning user.
type Ownable interface {
	GetUserID() uint
}

// Owns reports whether the viewer is the resource's owner. A nil viewer
// never owns anything.
func Owns(viewer *models.User, resource Ownable) bool {
	return viewer != nil && resource.GetUserID() == viewer.ID
}

// OwnsOrStaff extends Owns with the staff bypass.
func OwnsOrStaff(viewer *models.User, resource Ownable) bool {
	if viewer != nil && viewer.IsStaff {
		return true
	}
	return Owns(viewer, resource)
}

// Per-action gates. Edit-post is deliberately owner-only (staff edit posts
// through the admin console, not these handlers); delete-post grants the
// staff bypass; comments and profiles are strictly self-service.

func CanEditPost(viewer *models.User, p *models.Post) bool { return Owns(viewer, p) }

func CanDeletePost(viewer *models.User, p *models.Post) bool { return OwnsOrStaff(viewer, p) }

func CanModifyComment(viewer *models.User, c *models.Comment) bool { return Owns(viewer, c) }

func CanEditProfile(viewer *models.User, profile *models.User) bool {
	return viewer != nil && viewer.ID == profile.ID
}
