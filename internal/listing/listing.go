package listing

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"blogium/internal/models"
	"blogium/internal/policy"
)

// ErrNotFound covers unknown slugs, usernames and ids as well as failed
// visibility checks; the two cases are deliberately indistinguishable so a
// guessed primary key leaks nothing.
var ErrNotFound = errors.New("listing: not found")

// PostSummary is one row of a listing surface: the post columns joined
// with author and category labels plus the comment count, all produced by
// a single query.
type PostSummary struct {
	ID             uint      `json:"id"`
	Title          string    `json:"title"`
	Text           string    `json:"text"`
	PubDate        time.Time `json:"pub_date"`
	IsPublished    bool      `json:"is_published"`
	AuthorID       uint      `json:"author_id"`
	AuthorUsername string    `json:"author_username"`
	CategoryID     uint      `json:"category_id"`
	CategoryTitle  string    `json:"category_title"`
	CategorySlug   string    `json:"category_slug"`
	LocationID     *uint     `json:"location_id,omitempty"`
	CommentCount   int64     `json:"comment_count"`
}

// The comment count rides along as a correlated subquery so listing a page
// costs one round trip, not one per row.
const summaryColumns = "posts.id, posts.title, posts.text, posts.pub_date, posts.is_published, " +
	"posts.author_id, posts.category_id, posts.location_id, " +
	"users.username AS author_username, categories.title AS category_title, categories.slug AS category_slug, " +
	"(SELECT COUNT(*) FROM comments WHERE comments.post_id = posts.id) AS comment_count"

// Service builds the filtered, ordered, paginated result sets behind the
// four listing surfaces. now is swappable for tests.
type Service struct {
	db  *gorm.DB
	now func() time.Time
}

func NewService(db *gorm.DB) *Service { return &Service{db: db, now: time.Now} }

func (s *Service) base() *gorm.DB {
	return s.db.Model(&models.Post{}).
		Joins("JOIN categories ON categories.id = posts.category_id").
		Joins("JOIN users ON users.id = posts.author_id")
}

// visible narrows base to what an anonymous viewer may see. Listings always
// take the anonymous perspective; even an author never sees their own
// unpublished posts on Index or Category.
func (s *Service) visible(q *gorm.DB) *gorm.DB {
	return q.Where("posts.is_published = ? AND categories.is_published = ? AND posts.pub_date <= ?",
		true, true, s.now())
}

func (s *Service) paginate(build func() *gorm.DB, requested int) (Page, error) {
	var total int64
	if err := build().Count(&total).Error; err != nil {
		return Page{}, err
	}
	page, totalPages := clampPage(requested, total)
	items := []PostSummary{}
	err := build().
		Select(summaryColumns).
		Order("posts.pub_date DESC").
		Limit(PageSize).
		Offset((page - 1) * PageSize).
		Scan(&items).Error
	if err != nil {
		return Page{}, err
	}
	return Page{Items: items, Number: page, TotalPages: totalPages, TotalItems: total, PageSize: PageSize}, nil
}

// Index lists every publicly visible post, newest first.
func (s *Service) Index(page int) (Page, error) {
	return s.paginate(func() *gorm.DB { return s.visible(s.base()) }, page)
}

// Category lists the publicly visible posts of one category resolved by
// slug. An unknown slug and an unpublished category are both ErrNotFound.
func (s *Service) Category(slug string, page int) (*models.Category, Page, error) {
	var category models.Category
	if err := s.db.Where("slug = ?", slug).First(&category).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, Page{}, ErrNotFound
		}
		return nil, Page{}, err
	}
	if !category.IsPublished {
		return nil, Page{}, ErrNotFound
	}
	p, err := s.paginate(func() *gorm.DB {
		return s.visible(s.base()).Where("posts.category_id = ?", category.ID)
	}, page)
	return &category, p, err
}

// Profile lists every post authored by the named user, with no visibility
// filter: the profile surface is author-scoped, and unpublished or future
// posts show there to any viewer.
func (s *Service) Profile(username string, page int) (*models.User, Page, error) {
	var user models.User
	if err := s.db.Where("username = ?", username).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, Page{}, ErrNotFound
		}
		return nil, Page{}, err
	}
	p, err := s.paginate(func() *gorm.DB {
		return s.base().Where("posts.author_id = ?", user.ID)
	}, page)
	return &user, p, err
}

// Detail resolves one post by id with the viewer-aware visibility check.
// A post the viewer may not see is ErrNotFound, never a permission error.
func (s *Service) Detail(id uint, viewer *models.User) (*models.Post, error) {
	var post models.Post
	err := s.db.Preload("Category").Preload("Location").Preload("Author").First(&post, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if !policy.CanViewPost(&post, viewer, s.now()) {
		return nil, ErrNotFound
	}
	return &post, nil
}

// Comments returns a post's comments oldest first for the detail page.
func (s *Service) Comments(postID uint) ([]models.Comment, error) {
	var comments []models.Comment
	err := s.db.Where("post_id = ?", postID).
		Preload("Author").
		Order("created_at ASC").
		Find(&comments).Error
	return comments, err
}
