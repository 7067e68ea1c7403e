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

type stationRepository interface {
	List(ctx context.Context, filter models.StationFilter) ([]models.Station, int, error)
	FindByID(ctx context.Context, id string) (*models.Station, error)
	FindBySlug(ctx context.Context, slug string) (*models.Station, error)
	ExistsSlug(ctx context.Context, slug, excludeID string) (bool, error)
	Create(ctx context.Context, station *models.Station) error
	Update(ctx context.Context, station *models.Station) error
	Delete(ctx context.Context, id string) error
}

// StationRequest is the create and update payload for stations. Slug defaults to the
// slugified name.
type StationRequest struct {
	Name      string `json:"name" validate:"required,max=120"`
	Slug      string `json:"slug" validate:"max=120"`
	Frequency string `json:"frequency" validate:"max=32"`
	Tagline   string `json:"tagline" validate:"max=255"`
	StreamURL string `json:"streamUrl" validate:"omitempty,url,max=512"`
	LogoURL   string `json:"logoUrl" validate:"max=512"`
	Timezone  string `json:"timezone" validate:"required,max=64"`
	Active    *bool  `json:"active"`
}

// StationService manages the station directory.
type StationService struct {
	repo      stationRepository
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewStationService creates a new station service.
func NewStationService(repo stationRepository, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *StationService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StationService{repo: repo, cache: cache, validator: validate, logger: logger}
}

// List returns paginated stations.
func (s *StationService) List(ctx context.Context, filter models.StationFilter) ([]models.Station, *models.Pagination, error) {
	stations, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list stations")
	}
	return stations, models.NewPagination(filter.Page, filter.PageSize, total), nil
}

// Get returns a station by id.
func (s *StationService) Get(ctx context.Context, id string) (*models.Station, error) {
	return s.find(ctx, s.repo.FindByID, id)
}

// GetBySlug returns a station by its public slug.
func (s *StationService) GetBySlug(ctx context.Context, key string) (*models.Station, error) {
	return s.find(ctx, s.repo.FindBySlug, strings.ToLower(key))
}

// Create adds a station.
func (s *StationService) Create(ctx context.Context, req StationRequest) (*models.Station, error) {
	station := &models.Station{Active: true}
	if err := s.apply(ctx, station, req, ""); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, station); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create station")
	}
	s.purge(ctx)
	return station, nil
}

// Update replaces the mutable fields of a station.
func (s *StationService) Update(ctx context.Context, id string, req StationRequest) (*models.Station, error) {
	station, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.apply(ctx, station, req, id); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, station); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update station")
	}
	s.purge(ctx)
	return station, nil
}

// Delete removes a station together with its schedule.
func (s *StationService) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete station")
	}
	_ = s.cache.Delete(ctx, ScheduleSnapshotKey(id))
	s.purge(ctx)
	return nil
}

func (s *StationService) apply(ctx context.Context, station *models.Station, req StationRequest, excludeID string) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid station payload")
	}
	if _, err := time.LoadLocation(req.Timezone); err != nil {
		return appErrors.Clone(appErrors.ErrValidation, "unknown timezone "+req.Timezone)
	}

	key := slug.Make(req.Slug)
	if key == "" {
		key = slug.Make(req.Name)
	}
	if key == "" {
		return appErrors.Clone(appErrors.ErrValidation, "station slug must contain letters or digits")
	}
	exists, err := s.repo.ExistsSlug(ctx, key, excludeID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check station slug")
	}
	if exists {
		return appErrors.Clone(appErrors.ErrConflict, "station slug already exists")
	}

	station.Name = strings.TrimSpace(req.Name)
	station.Slug = key
	station.Frequency = strings.TrimSpace(req.Frequency)
	station.Tagline = req.Tagline
	station.StreamURL = req.StreamURL
	station.LogoURL = req.LogoURL
	station.Timezone = req.Timezone
	if req.Active != nil {
		station.Active = *req.Active
	}
	return nil
}

func (s *StationService) find(ctx context.Context, lookup func(context.Context, string) (*models.Station, error), key string) (*models.Station, error) {
	station, err := lookup(ctx, key)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "station not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load station")
	}
	return station, nil
}

// purge drops cached public listings after a write.
func (s *StationService) purge(ctx context.Context) {
	if err := s.cache.Invalidate(ctx, ResponseCachePrefix+"*"); err != nil {
		s.logger.Warn("failed to purge response cache", zap.Error(err))
	}
}
