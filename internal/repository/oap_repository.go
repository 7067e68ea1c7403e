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

const oapColumns = "id, station_id, name, slug, bio, photo_url, instagram, twitter, created_at, updated_at"

// OAPRepository stores presenter profiles.
type OAPRepository struct {
	db *sqlx.DB
}

// NewOAPRepository creates a new presenter repository.
func NewOAPRepository(db *sqlx.DB) *OAPRepository {
	return &OAPRepository{db: db}
}

// List returns presenters ordered by name.
func (r *OAPRepository) List(ctx context.Context, filter models.OAPFilter) ([]models.OAP, int, error) {
	base := "FROM oaps WHERE 1=1"
	var args []interface{}
	if filter.StationID != "" {
		args = append(args, filter.StationID)
		base += fmt.Sprintf(" AND station_id = $%d", len(args))
	}
	if filter.Search != "" {
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
		base += fmt.Sprintf(" AND LOWER(name) LIKE $%d", len(args))
	}

	p := models.NewPagination(filter.Page, filter.PageSize, 0)
	query := fmt.Sprintf("SELECT %s %s ORDER BY name ASC LIMIT %d OFFSET %d", oapColumns, base, p.PageSize, (p.Page-1)*p.PageSize)
	oaps := make([]models.OAP, 0)
	if err := r.db.SelectContext(ctx, &oaps, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list oaps: %w", err)
	}
	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) "+base, args...); err != nil {
		return nil, 0, fmt.Errorf("count oaps: %w", err)
	}
	return oaps, total, nil
}

// FindByID loads a presenter by id or slug.
func (r *OAPRepository) FindByID(ctx context.Context, idOrSlug string) (*models.OAP, error) {
	query := "SELECT " + oapColumns + " FROM oaps WHERE id::text = $1 OR slug = $1 LIMIT 1"
	var oap models.OAP
	if err := r.db.GetContext(ctx, &oap, query, idOrSlug); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find oap: %w", err)
	}
	return &oap, nil
}

// Create inserts a presenter.
func (r *OAPRepository) Create(ctx context.Context, oap *models.OAP) error {
	if oap.ID == "" {
		oap.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	oap.CreatedAt, oap.UpdatedAt = now, now
	const query = `INSERT INTO oaps (id, station_id, name, slug, bio, photo_url, instagram, twitter, created_at, updated_at) VALUES (:id, :station_id, :name, :slug, :bio, :photo_url, :instagram, :twitter, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, oap); err != nil {
		return fmt.Errorf("create oap: %w", err)
	}
	return nil
}

// Update stores presenter changes.
func (r *OAPRepository) Update(ctx context.Context, oap *models.OAP) error {
	oap.UpdatedAt = time.Now().UTC()
	const query = `UPDATE oaps SET station_id = :station_id, name = :name, slug = :slug, bio = :bio, photo_url = :photo_url, instagram = :instagram, twitter = :twitter, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, oap); err != nil {
		return fmt.Errorf("update oap: %w", err)
	}
	return nil
}

// Delete removes a presenter. Slots referencing it keep airing with oap_id cleared by the schema.
func (r *OAPRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM oaps WHERE id = $1", id); err != nil {
		return fmt.Errorf("delete oap: %w", err)
	}
	return nil
}
