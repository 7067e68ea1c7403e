package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/airwaves-fm/airwaves-api/internal/models"
	appErrors "github.com/airwaves-fm/airwaves-api/pkg/errors"
	"github.com/airwaves-fm/airwaves-api/pkg/slug"
)

type postRepository interface {
	List(ctx context.Context, filter models.PostFilter) ([]models.Post, int, error)
	FindByID(ctx context.Context, id string) (*models.Post, error)
	FindBySlug(ctx context.Context, slug string) (*models.Post, error)
	ExistsSlug(ctx context.Context, slug, excludeID string) (bool, error)
	Create(ctx context.Context, post *models.Post) error
	Update(ctx context.Context, post *models.Post) error
	Delete(ctx context.Context, id string) error
}

type markdownRenderer interface {
	Render(source string) (string, error)
}

// PostRequest is the create and update payload for blog posts.
type PostRequest struct {
	StationID *string `json:"stationId" validate:"omitempty,uuid"`
	Title     string  `json:"title" validate:"required,max=200"`
	Excerpt   string  `json:"excerpt" validate:"max=500"`
	Body      string  `json:"body" validate:"required"`
	CoverURL  string  `json:"coverUrl" validate:"max=512"`
	Published bool    `json:"published"`
}

// PostService manages the blog.
type PostService struct {
	repo      postRepository
	markdown  markdownRenderer
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewPostService creates a new blog service.
func NewPostService(repo postRepository, markdown markdownRenderer, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *PostService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PostService{repo: repo, markdown: markdown, cache: cache, validator: validate, logger: logger, now: time.Now}
}

// List returns paginated posts without rendered bodies.
func (s *PostService) List(ctx context.Context, filter models.PostFilter) ([]models.Post, *models.Pagination, error) {
	posts, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list posts")
	}
	return posts, models.NewPagination(filter.Page, filter.PageSize, total), nil
}

// GetBySlug returns a post with its body rendered to HTML. Drafts are hidden unless
// includeDrafts is set.
func (s *PostService) GetBySlug(ctx context.Context, key string, includeDrafts bool) (*models.Post, error) {
	post, err := s.repo.FindBySlug(ctx, key)
	if err != nil {
		return nil, s.lookupError(err)
	}
	if !post.Published && !includeDrafts {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "post not found")
	}
	if err := s.render(post); err != nil {
		return nil, err
	}
	return post, nil
}

// Create stores a post written by authorID. Duplicate titles get a numeric slug suffix.
func (s *PostService) Create(ctx context.Context, authorID string, req PostRequest) (*models.Post, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid post payload")
	}
	key, err := s.uniqueSlug(ctx, req.Title)
	if err != nil {
		return nil, err
	}

	post := &models.Post{AuthorID: authorID, Slug: key}
	s.apply(post, req)
	if err := s.repo.Create(ctx, post); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create post")
	}
	s.purge(ctx)
	return post, nil
}

// Update edits a post. The slug stays fixed.
func (s *PostService) Update(ctx context.Context, id string, req PostRequest) (*models.Post, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid post payload")
	}
	post, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, s.lookupError(err)
	}
	s.apply(post, req)
	if err := s.repo.Update(ctx, post); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update post")
	}
	s.purge(ctx)
	return post, nil
}

// Delete removes a post.
func (s *PostService) Delete(ctx context.Context, id string) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return s.lookupError(err)
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete post")
	}
	s.purge(ctx)
	return nil
}

func (s *PostService) apply(post *models.Post, req PostRequest) {
	post.StationID = req.StationID
	post.Title = strings.TrimSpace(req.Title)
	post.Excerpt = req.Excerpt
	post.Body = req.Body
	post.CoverURL = req.CoverURL
	if req.Published && post.PublishedAt == nil {
		ts := s.now().UTC()
		post.PublishedAt = &ts
	}
	post.Published = req.Published
}

// uniqueSlug derives a URL key from title and suffixes it until no other post holds it.
func (s *PostService) uniqueSlug(ctx context.Context, title string) (string, error) {
	base := slug.Make(title)
	if base == "" {
		base = "post"
	}
	key, err := slug.Unique(ctx, base, func(ctx context.Context, candidate string) (bool, error) {
		return s.repo.ExistsSlug(ctx, candidate, "")
	})
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check post slug")
	}
	return key, nil
}

func (s *PostService) render(post *models.Post) error {
	if s.markdown == nil {
		return nil
	}
	html, err := s.markdown.Render(post.Body)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render post")
	}
	post.HTML = html
	return nil
}

func (s *PostService) lookupError(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return appErrors.Clone(appErrors.ErrNotFound, "post not found")
	}
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load post")
}

func (s *PostService) purge(ctx context.Context) {
	if err := s.cache.Invalidate(ctx, ResponseCachePrefix+"*"); err != nil {
		s.logger.Warn("failed to purge response cache", zap.Error(err))
	}
}
