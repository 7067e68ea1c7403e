package models

import "time"

// Post is a blog article. Body holds markdown; HTML is rendered on read.
type Post struct {
	ID          string     `db:"id" json:"id"`
	StationID   *string    `db:"station_id" json:"stationId,omitempty"`
	AuthorID    string     `db:"author_id" json:"authorId"`
	Title       string     `db:"title" json:"title"`
	Slug        string     `db:"slug" json:"slug"`
	Excerpt     string     `db:"excerpt" json:"excerpt"`
	Body        string     `db:"body" json:"body"`
	HTML        string     `db:"-" json:"html,omitempty"`
	CoverURL    string     `db:"cover_url" json:"coverUrl"`
	Published   bool       `db:"published" json:"published"`
	PublishedAt *time.Time `db:"published_at" json:"publishedAt,omitempty"`
	CreatedAt   time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time  `db:"updated_at" json:"updatedAt"`
}

// PostFilter narrows blog listings.
type PostFilter struct {
	StationID     string
	Search        string
	PublishedOnly bool
	Page          int
	PageSize      int
}
