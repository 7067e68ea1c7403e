package schedule

import (
	"fmt"
	"strconv"

	"github.com/airwaves-fm/airwaves-api/internal/models"
)

// Slot is a schedule record whose times and weekday have been validated.
type Slot struct {
	models.ScheduleSlot
	Start TimeOfDay `json:"-"`
	End   TimeOfDay `json:"-"`
}

// Day returns the slot's weekday.
func (s Slot) Day() Weekday { return Weekday(s.Weekday) }

// Degenerate reports a zero-length slot, which is never live.
func (s Slot) Degenerate() bool { return s.Start == s.End }

// Wraps reports whether the slot runs past midnight.
func (s Slot) Wraps() bool { return s.End < s.Start }

// Contains applies half-open containment, wrap-aware: [start,end) or [start,1440) ∪ [0,end).
func (s Slot) Contains(minute TimeOfDay) bool {
	switch {
	case s.Degenerate():
		return false
	case s.Wraps():
		return minute >= s.Start || minute < s.End
	default:
		return minute >= s.Start && minute < s.End
	}
}

// Duration returns the slot's airtime in minutes.
func (s Slot) Duration() int {
	total := 0
	for _, span := range s.Spans() {
		total += int(span.To - span.From)
	}
	return total
}

// ValidationError reports one malformed field of a schedule record.
type ValidationError struct {
	SlotID string `json:"slotId"`
	Field  string `json:"field"`
	Value  string `json:"value"`
	Reason string `json:"reason"`
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("slot %s: invalid %s %q: %s", e.SlotID, e.Field, e.Value, e.Reason)
}

// Parse converts raw records into typed slots. A record with any malformed field is
// left out of the result and reported; the remaining records keep their input order.
func Parse(records []models.ScheduleSlot) ([]Slot, []ValidationError) {
	slots := make([]Slot, 0, len(records))
	var issues []ValidationError
	for _, record := range records {
		slot, errs := parseRecord(record)
		if len(errs) > 0 {
			issues = append(issues, errs...)
			continue
		}
		slots = append(slots, slot)
	}
	return slots, issues
}

func parseRecord(record models.ScheduleSlot) (Slot, []ValidationError) {
	var errs []ValidationError
	start, err := ParseTimeOfDay(record.StartTime)
	if err != nil {
		errs = append(errs, ValidationError{SlotID: record.ID, Field: "startTime", Value: record.StartTime, Reason: err.Error()})
	}
	end, err := ParseTimeOfDay(record.EndTime)
	if err != nil {
		errs = append(errs, ValidationError{SlotID: record.ID, Field: "endTime", Value: record.EndTime, Reason: err.Error()})
	}
	if !Weekday(record.Weekday).Valid() {
		errs = append(errs, ValidationError{
			SlotID: record.ID,
			Field:  "weekday",
			Value:  strconv.Itoa(record.Weekday),
			Reason: "weekday out of range [0,6]",
		})
	}
	if len(errs) > 0 {
		return Slot{}, errs
	}
	return Slot{ScheduleSlot: record, Start: start, End: end}, nil
}

// DuplicateIDs reports every record that repeats an id already used earlier in records.
// Records without an id are ignored.
func DuplicateIDs(records []models.ScheduleSlot) []ValidationError {
	seen := make(map[string]struct{}, len(records))
	var issues []ValidationError
	for _, record := range records {
		if record.ID == "" {
			continue
		}
		if _, dup := seen[record.ID]; dup {
			issues = append(issues, ValidationError{SlotID: record.ID, Field: "id", Value: record.ID, Reason: "duplicate slot id"})
			continue
		}
		seen[record.ID] = struct{}{}
	}
	return issues
}
