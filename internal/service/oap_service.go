package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/airwaves-fm/airwaves-api/internal/models"
	appErrors "github.com/airwaves-fm/airwaves-api/pkg/errors"
	"github.com/airwaves-fm/airwaves-api/pkg/slug"
)

type oapRepository interface {
	List(ctx context.Context, filter models.OAPFilter) ([]models.OAP, int, error)
	FindByID(ctx context.Context, idOrSlug string) (*models.OAP, error)
	Create(ctx context.Context, oap *models.OAP) error
	Update(ctx context.Context, oap *models.OAP) error
	Delete(ctx context.Context, id string) error
}

// OAPRequest is the create and update payload for presenter profiles.
type OAPRequest struct {
	StationID *string `json:"stationId" validate:"omitempty,uuid"`
	Name      string  `json:"name" validate:"required,max=120"`
	Bio       string  `json:"bio" validate:"max=5000"`
	PhotoURL  string  `json:"photoUrl" validate:"max=512"`
	Instagram string  `json:"instagram" validate:"max=64"`
	Twitter   string  `json:"twitter" validate:"max=64"`
}

// OAPService manages on-air personality profiles.
type OAPService struct {
	repo      oapRepository
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewOAPService creates a new presenter service.
func NewOAPService(repo oapRepository, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *OAPService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OAPService{repo: repo, cache: cache, validator: validate, logger: logger}
}

// List returns paginated presenters.
func (s *OAPService) List(ctx context.Context, filter models.OAPFilter) ([]models.OAP, *models.Pagination, error) {
	oaps, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list presenters")
	}
	return oaps, models.NewPagination(filter.Page, filter.PageSize, total), nil
}

// Get returns a presenter by id or slug.
func (s *OAPService) Get(ctx context.Context, idOrSlug string) (*models.OAP, error) {
	oap, err := s.repo.FindByID(ctx, idOrSlug)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "presenter not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load presenter")
	}
	return oap, nil
}

// Create adds a presenter; the slug comes from the name.
func (s *OAPService) Create(ctx context.Context, req OAPRequest) (*models.OAP, error) {
	oap := &models.OAP{}
	if err := s.apply(ctx, oap, req); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, oap); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create presenter")
	}
	s.purge(ctx)
	return oap, nil
}

// Update edits a presenter.
func (s *OAPService) Update(ctx context.Context, id string, req OAPRequest) (*models.OAP, error) {
	oap, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.apply(ctx, oap, req); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, oap); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update presenter")
	}
	s.purge(ctx)
	return oap, nil
}

// Delete removes a presenter.
func (s *OAPService) Delete(ctx context.Context, id string) error {
	oap, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, oap.ID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete presenter")
	}
	s.purge(ctx)
	return nil
}

func (s *OAPService) apply(ctx context.Context, oap *models.OAP, req OAPRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid presenter payload")
	}
	key := slug.Make(req.Name)
	if key == "" {
		return appErrors.Clone(appErrors.ErrValidation, "presenter name must contain letters or digits")
	}
	existing, err := s.repo.FindByID(ctx, key)
	switch {
	case err == nil && existing.ID != oap.ID:
		return appErrors.Clone(appErrors.ErrConflict, "presenter slug already exists")
	case err != nil && !errors.Is(err, sql.ErrNoRows):
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check presenter slug")
	}

	oap.StationID = req.StationID
	oap.Name = strings.TrimSpace(req.Name)
	oap.Slug = key
	oap.Bio = req.Bio
	oap.PhotoURL = req.PhotoURL
	oap.Instagram = strings.TrimPrefix(req.Instagram, "@")
	oap.Twitter = strings.TrimPrefix(req.Twitter, "@")
	return nil
}

func (s *OAPService) purge(ctx context.Context) {
	if err := s.cache.Invalidate(ctx, ResponseCachePrefix+"*"); err != nil {
		s.logger.Warn("failed to purge response cache", zap.Error(err))
	}
}
