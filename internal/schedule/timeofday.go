package schedule

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
)

// MinutesPerDay bounds TimeOfDay.
const MinutesPerDay = 24 * 60

const minutesPerWeek = 7 * MinutesPerDay

// Weekday indexes the days of the week, 0 = Sunday through 6 = Saturday.
type Weekday int

const (
	Sunday Weekday = iota
	Monday
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
)

// Weekdays lists every valid weekday in index order.
var Weekdays = []Weekday{Sunday, Monday, Tuesday, Wednesday, Thursday, Friday, Saturday}

// Valid reports whether d lies in [0,6].
func (d Weekday) Valid() bool {
	return d >= Sunday && d <= Saturday
}

func (d Weekday) String() string {
	if !d.Valid() {
		return "Weekday(" + strconv.Itoa(int(d)) + ")"
	}
	return time.Weekday(d).String()
}

// WeekdayOf returns the weekday of t in t's own location.
func WeekdayOf(t time.Time) Weekday {
	return Weekday(t.Weekday())
}

// TimeOfDay is a wall-clock time as minutes since midnight, in [0,1439].
type TimeOfDay int

var clockPattern = regexp.MustCompile(`^(\d{2}):(\d{2})$`)

// ParseTimeOfDay parses a zero-padded 24-hour "HH:MM" string.
func ParseTimeOfDay(raw string) (TimeOfDay, error) {
	m := clockPattern.FindStringSubmatch(raw)
	if m == nil {
		return 0, fmt.Errorf("%q is not in HH:MM format", raw)
	}
	hour, _ := strconv.Atoi(m[1])
	minute, _ := strconv.Atoi(m[2])
	if hour > 23 {
		return 0, fmt.Errorf("hour %d out of range [0,23]", hour)
	}
	if minute > 59 {
		return 0, fmt.Errorf("minute %d out of range [0,59]", minute)
	}
	return TimeOfDay(hour*60 + minute), nil
}

// MinuteOf returns the minute of day of t in t's own location. Seconds are discarded.
func MinuteOf(t time.Time) TimeOfDay {
	return TimeOfDay(t.Hour()*60 + t.Minute())
}

// Hour returns the hour component.
func (t TimeOfDay) Hour() int { return int(t) / 60 }

// Minute returns the minute component.
func (t TimeOfDay) Minute() int { return int(t) % 60 }

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour(), t.Minute())
}
