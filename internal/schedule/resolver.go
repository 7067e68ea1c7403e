// Package schedule resolves a station's recurring weekly slots: which slot is on air at an
// instant, how slots group by weekday, and which starts next. Everything here is pure and
// safe for concurrent use; callers own fetching and caching the slot snapshot.
package schedule

import (
	"sort"
	"time"

	"github.com/airwaves-fm/airwaves-api/internal/models"
)

// Week maps every weekday to the slots airing on it.
type Week map[Weekday][]Slot

// Resolution bundles the answers most callers need for one snapshot.
type Resolution struct {
	Live   *Slot             `json:"live"`
	Week   Week              `json:"week"`
	Issues []ValidationError `json:"issues,omitempty"`
}

// Resolve parses records, then partitions them and finds the live slot at now.
func Resolve(records []models.ScheduleSlot, now time.Time) Resolution {
	slots, issues := Parse(records)
	res := Resolution{Week: PartitionByWeekday(slots), Issues: issues}
	if live, ok := FindLiveSlot(slots, now); ok {
		res.Live = &live
	}
	return res
}

// PartitionByWeekday groups slots by weekday. All seven buckets are present, each keeps the
// relative input order, and slots with an out-of-range weekday are dropped.
func PartitionByWeekday(slots []Slot) Week {
	week := make(Week, len(Weekdays))
	for _, day := range Weekdays {
		week[day] = []Slot{}
	}
	for _, slot := range slots {
		day := slot.Day()
		if !day.Valid() {
			continue
		}
		week[day] = append(week[day], slot)
	}
	return week
}

// FindLiveSlot returns the slot on air at now, judged in now's location at minute
// resolution. When overlapping slots both match, the earliest in input order wins.
func FindLiveSlot(slots []Slot, now time.Time) (Slot, bool) {
	today := WeekdayOf(now)
	minute := MinuteOf(now)
	for _, slot := range slots {
		if slot.Day() != today {
			continue
		}
		if slot.Contains(minute) {
			return slot, true
		}
	}
	return Slot{}, false
}

// NextSlot returns the next slot to start strictly after now, looking one week ahead, and the
// time until it starts. Degenerate slots never air so they are skipped.
func NextSlot(slots []Slot, now time.Time) (Slot, time.Duration, bool) {
	current := int(WeekdayOf(now))*MinutesPerDay + int(MinuteOf(now))
	best, bestDelta := -1, 0
	for i, slot := range slots {
		if slot.Degenerate() || !slot.Day().Valid() {
			continue
		}
		start := int(slot.Day())*MinutesPerDay + int(slot.Start)
		delta := (start - current + minutesPerWeek) % minutesPerWeek
		if delta == 0 {
			delta = minutesPerWeek
		}
		if best < 0 || delta < bestDelta {
			best, bestDelta = i, delta
		}
	}
	if best < 0 {
		return Slot{}, 0, false
	}
	wait := time.Duration(bestDelta)*time.Minute -
		time.Duration(now.Second())*time.Second -
		time.Duration(now.Nanosecond())
	return slots[best], wait, true
}

// SortByStart returns a copy of slots ordered by start time. Equal starts keep input order.
func SortByStart(slots []Slot) []Slot {
	sorted := make([]Slot, len(slots))
	copy(sorted, slots)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Start < sorted[j].Start
	})
	return sorted
}

// Overlaps lists pairs of same-weekday slots whose airtime intersects. A wrapping slot
// covers [start,24:00) and [00:00,end) of its own weekday; slots that only touch at a
// boundary do not overlap.
func Overlaps(slots []Slot) []models.ScheduleOverlap {
	var out []models.ScheduleOverlap
	for i := 0; i < len(slots); i++ {
		for j := i + 1; j < len(slots); j++ {
			a, b := slots[i], slots[j]
			if a.Weekday != b.Weekday || !intersects(a, b) {
				continue
			}
			out = append(out, models.ScheduleOverlap{
				Weekday:     a.Weekday,
				FirstID:     a.ID,
				FirstTitle:  a.ShowTitle,
				SecondID:    b.ID,
				SecondTitle: b.ShowTitle,
			})
		}
	}
	return out
}

// Span is a half-open run of minutes [From,To) on the slot's own weekday. To may be
// MinutesPerDay for a run that lasts until midnight.
type Span struct {
	From TimeOfDay
	To   TimeOfDay
}

// Spans returns the airtime of s on its weekday: none for a degenerate slot, one span
// for a same-day slot, and [start,24:00) plus [00:00,end) for a wrapping slot.
func (s Slot) Spans() []Span {
	switch {
	case s.Degenerate():
		return nil
	case s.Wraps():
		spans := []Span{{s.Start, MinutesPerDay}}
		if s.End > 0 {
			spans = append(spans, Span{0, s.End})
		}
		return spans
	default:
		return []Span{{s.Start, s.End}}
	}
}

func intersects(a, b Slot) bool {
	for _, x := range a.Spans() {
		for _, y := range b.Spans() {
			if x.From < y.To && y.From < x.To {
				return true
			}
		}
	}
	return false
}
