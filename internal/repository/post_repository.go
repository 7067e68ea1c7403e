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

const postColumns = "id, station_id, author_id, title, slug, excerpt, body, cover_url, published, published_at, created_at, updated_at"

// PostRepository stores blog posts.
type PostRepository struct {
	db *sqlx.DB
}

// NewPostRepository creates a new post repository.
func NewPostRepository(db *sqlx.DB) *PostRepository {
	return &PostRepository{db: db}
}

// List returns posts newest first.
func (r *PostRepository) List(ctx context.Context, filter models.PostFilter) ([]models.Post, int, error) {
	base := "FROM posts WHERE 1=1"
	var conditions []string
	var args []interface{}
	if filter.PublishedOnly {
		conditions = append(conditions, "published = TRUE")
	}
	if filter.StationID != "" {
		conditions = append(conditions, fmt.Sprintf("station_id = $%d", len(args)+1))
		args = append(args, filter.StationID)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(LOWER(title) LIKE $%d OR LOWER(excerpt) LIKE $%d)", len(args)+1, len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}
	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	p := models.NewPagination(filter.Page, filter.PageSize, 0)
	query := fmt.Sprintf("SELECT %s %s ORDER BY COALESCE(published_at, created_at) DESC LIMIT %d OFFSET %d", postColumns, base, p.PageSize, (p.Page-1)*p.PageSize)
	posts := make([]models.Post, 0)
	if err := r.db.SelectContext(ctx, &posts, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list posts: %w", err)
	}
	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) "+base, args...); err != nil {
		return nil, 0, fmt.Errorf("count posts: %w", err)
	}
	return posts, total, nil
}

// FindByID loads a post by id.
func (r *PostRepository) FindByID(ctx context.Context, id string) (*models.Post, error) {
	return r.findOne(ctx, "id", id)
}

// FindBySlug loads a post by slug.
func (r *PostRepository) FindBySlug(ctx context.Context, slug string) (*models.Post, error) {
	return r.findOne(ctx, "slug", slug)
}

func (r *PostRepository) findOne(ctx context.Context, column, value string) (*models.Post, error) {
	query := fmt.Sprintf("SELECT %s FROM posts WHERE %s = $1 LIMIT 1", postColumns, column)
	var post models.Post
	if err := r.db.GetContext(ctx, &post, query, value); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find post by %s: %w", column, err)
	}
	return &post, nil
}

// ExistsSlug reports whether a post other than excludeID already uses slug.
func (r *PostRepository) ExistsSlug(ctx context.Context, slug, excludeID string) (bool, error) {
	const query = `SELECT EXISTS(SELECT 1 FROM posts WHERE slug = $1 AND id::text <> $2)`
	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, slug, excludeID); err != nil {
		return false, fmt.Errorf("check post slug: %w", err)
	}
	return exists, nil
}

// Create inserts a post.
func (r *PostRepository) Create(ctx context.Context, post *models.Post) error {
	if post.ID == "" {
		post.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	post.CreatedAt, post.UpdatedAt = now, now
	const query = `INSERT INTO posts (id, station_id, author_id, title, slug, excerpt, body, cover_url, published, published_at, created_at, updated_at) VALUES (:id, :station_id, :author_id, :title, :slug, :excerpt, :body, :cover_url, :published, :published_at, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, post); err != nil {
		return fmt.Errorf("create post: %w", err)
	}
	return nil
}

// Update stores post changes. The slug is fixed at creation so shared links survive edits.
func (r *PostRepository) Update(ctx context.Context, post *models.Post) error {
	post.UpdatedAt = time.Now().UTC()
	const query = `UPDATE posts SET station_id = :station_id, title = :title, excerpt = :excerpt, body = :body, cover_url = :cover_url, published = :published, published_at = :published_at, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, post); err != nil {
		return fmt.Errorf("update post: %w", err)
	}
	return nil
}

// Delete removes a post.
func (r *PostRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM posts WHERE id = $1", id); err != nil {
		return fmt.Errorf("delete post: %w", err)
	}
	return nil
}
