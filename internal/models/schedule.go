package models

import "time"

// ScheduleSlot is one recurring weekly programming block as stored in schedule_slots.
// StartTime and EndTime are "HH:MM" wall-clock strings in the owning station's timezone.
// Position keeps the order the editor submitted, which decides ties between overlapping slots.
type ScheduleSlot struct {
	ID           string    `db:"id" json:"id"`
	StationID    string    `db:"station_id" json:"stationId"`
	OAPID        *string   `db:"oap_id" json:"oapId,omitempty"`
	ShowTitle    string    `db:"show_title" json:"showTitle"`
	StartTime    string    `db:"start_time" json:"startTime"`
	EndTime      string    `db:"end_time" json:"endTime"`
	Weekday      int       `db:"weekday" json:"weekday"`
	Description  string    `db:"description" json:"description"`
	ThumbnailURL string    `db:"thumbnail_url" json:"thumbnailUrl"`
	Position     int       `db:"position" json:"-"`
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time `db:"updated_at" json:"updatedAt"`
}

// ScheduleOverlap describes two slots on the same weekday whose airtime intersects.
type ScheduleOverlap struct {
	Weekday     int    `json:"weekday"`
	FirstID     string `json:"firstId"`
	FirstTitle  string `json:"firstTitle"`
	SecondID    string `json:"secondId"`
	SecondTitle string `json:"secondTitle"`
}

// ScheduleConflictError is returned when a submitted schedule contains overlapping slots.
type ScheduleConflictError struct {
	StationID string            `json:"stationId"`
	Message   string            `json:"message"`
	Overlaps  []ScheduleOverlap `json:"overlaps"`
}

// Error implements the error interface for conflict errors.
func (e *ScheduleConflictError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return e.Message
}
