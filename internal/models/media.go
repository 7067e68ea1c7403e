package models

import "time"

// MediaUpload describes a stored upload returned to the admin UI.
type MediaUpload struct {
	Key         string    `json:"key"`
	URL         string    `json:"url"`
	ContentType string    `json:"contentType"`
	Size        int64     `json:"size"`
	UploadedAt  time.Time `json:"uploadedAt"`
}
