package models

import "time"

// OAP is an on-air personality (presenter) profile.
type OAP struct {
	ID        string    `db:"id" json:"id"`
	StationID *string   `db:"station_id" json:"stationId,omitempty"`
	Name      string    `db:"name" json:"name"`
	Slug      string    `db:"slug" json:"slug"`
	Bio       string    `db:"bio" json:"bio"`
	PhotoURL  string    `db:"photo_url" json:"photoUrl"`
	Instagram string    `db:"instagram" json:"instagram,omitempty"`
	Twitter   string    `db:"twitter" json:"twitter,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// OAPFilter narrows presenter listings.
type OAPFilter struct {
	StationID string
	Search    string
	Page      int
	PageSize  int
}
