package models

import "time"

// Station is a radio station in the network directory.
type Station struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Slug      string    `db:"slug" json:"slug"`
	Frequency string    `db:"frequency" json:"frequency"`
	Tagline   string    `db:"tagline" json:"tagline"`
	StreamURL string    `db:"stream_url" json:"streamUrl"`
	LogoURL   string    `db:"logo_url" json:"logoUrl"`
	Timezone  string    `db:"timezone" json:"timezone"`
	Active    bool      `db:"active" json:"active"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// StationFilter captures query params for listing stations.
type StationFilter struct {
	Search     string
	ActiveOnly bool
	Page       int
	PageSize   int
	SortBy     string
	SortOrder  string
}
