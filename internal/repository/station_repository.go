package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/airwaves-fm/airwaves-api/internal/models"
)

const stationColumns = "id, name, slug, frequency, tagline, stream_url, logo_url, timezone, active, created_at, updated_at"

// StationRepository provides database access for stations.
type StationRepository struct {
	db *sqlx.DB
}

// NewStationRepository creates a new station repository.
func NewStationRepository(db *sqlx.DB) *StationRepository {
	return &StationRepository{db: db}
}

// List returns stations with optional search and pagination.
func (r *StationRepository) List(ctx context.Context, filter models.StationFilter) ([]models.Station, int, error) {
	base := "FROM stations WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.ActiveOnly {
		conditions = append(conditions, "active = TRUE")
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(LOWER(name) LIKE $%d OR LOWER(frequency) LIKE $%d)", len(args)+1, len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}
	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	sortBy := filter.SortBy
	allowedSorts := map[string]bool{"name": true, "created_at": true, "frequency": true}
	if !allowedSorts[sortBy] {
		sortBy = "name"
	}
	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "ASC"
	}

	p := models.NewPagination(filter.Page, filter.PageSize, 0)
	offset := (p.Page - 1) * p.PageSize

	query := fmt.Sprintf("SELECT %s %s ORDER BY %s %s LIMIT %d OFFSET %d", stationColumns, base, sortBy, order, p.PageSize, offset)
	stations := make([]models.Station, 0)
	if err := r.db.SelectContext(ctx, &stations, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list stations: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) "+base, args...); err != nil {
		return nil, 0, fmt.Errorf("count stations: %w", err)
	}
	return stations, total, nil
}

// FindByID loads a station by id.
func (r *StationRepository) FindByID(ctx context.Context, id string) (*models.Station, error) {
	return r.findOne(ctx, "id", id)
}

// FindBySlug loads a station by slug.
func (r *StationRepository) FindBySlug(ctx context.Context, slug string) (*models.Station, error) {
	return r.findOne(ctx, "slug", slug)
}

func (r *StationRepository) findOne(ctx context.Context, column, value string) (*models.Station, error) {
	query := fmt.Sprintf("SELECT %s FROM stations WHERE %s = $1 LIMIT 1", stationColumns, column)
	var station models.Station
	if err := r.db.GetContext(ctx, &station, query, value); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find station by %s: %w", column, err)
	}
	return &station, nil
}

// ExistsSlug reports whether another station already uses slug.
func (r *StationRepository) ExistsSlug(ctx context.Context, slug, excludeID string) (bool, error) {
	const query = `SELECT EXISTS(SELECT 1 FROM stations WHERE slug = $1 AND id <> $2)`
	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, slug, excludeID); err != nil {
		return false, fmt.Errorf("check station slug: %w", err)
	}
	return exists, nil
}

// Create inserts a station.
func (r *StationRepository) Create(ctx context.Context, station *models.Station) error {
	if station.ID == "" {
		station.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if station.CreatedAt.IsZero() {
		station.CreatedAt = now
	}
	station.UpdatedAt = now

	const query = `INSERT INTO stations (id, name, slug, frequency, tagline, stream_url, logo_url, timezone, active, created_at, updated_at) VALUES (:id, :name, :slug, :frequency, :tagline, :stream_url, :logo_url, :timezone, :active, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, station); err != nil {
		return fmt.Errorf("create station: %w", err)
	}
	return nil
}

// Update stores mutable station fields.
func (r *StationRepository) Update(ctx context.Context, station *models.Station) error {
	station.UpdatedAt = time.Now().UTC()
	const query = `UPDATE stations SET name = :name, slug = :slug, frequency = :frequency, tagline = :tagline, stream_url = :stream_url, logo_url = :logo_url, timezone = :timezone, active = :active, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, station); err != nil {
		return fmt.Errorf("update station: %w", err)
	}
	return nil
}

// Delete removes a station; its slots go with it through ON DELETE CASCADE.
func (r *StationRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM stations WHERE id = $1", id); err != nil {
		return fmt.Errorf("delete station: %w", err)
	}
	return nil
}
