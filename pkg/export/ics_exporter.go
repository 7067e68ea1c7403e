package export

import (
	"fmt"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"
)

// CalendarEvent is one weekly recurring programme in an iCalendar feed.
type CalendarEvent struct {
	UID         string
	Summary     string
	Description string
	URL         string
	Start       time.Time
	End         time.Time
}

// ICSExporter renders weekly recurring events as an iCalendar document.
type ICSExporter struct {
	productID string
	now       func() time.Time
}

// NewICSExporter constructs an ICS exporter.
func NewICSExporter(productID string) *ICSExporter {
	if productID == "" {
		productID = "-//Airwaves//Schedule//EN"
	}
	return &ICSExporter{productID: productID, now: time.Now}
}

// Render builds a PUBLISH calendar named name with one weekly RRULE per event. With a
// timezone other than UTC, times are written as local wall-clock times under TZID and a
// VTIMEZONE covering the events' year is included, so the weekly rule follows the zone's
// daylight saving changes.
func (e *ICSExporter) Render(name, timezone string, events []CalendarEvent) ([]byte, error) {
	loc := time.UTC
	if timezone != "" && timezone != "UTC" {
		var err error
		if loc, err = time.LoadLocation(timezone); err != nil {
			return nil, fmt.Errorf("calendar timezone: %w", err)
		}
	}

	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId(e.productID)
	if name != "" {
		cal.SetName(name)
		cal.SetXWRCalName(name)
	}
	if timezone != "" {
		cal.SetXWRTimezone(timezone)
	}

	stamp := e.now().UTC()
	if loc != time.UTC {
		year := stamp.In(loc).Year()
		if len(events) > 0 {
			year = events[0].Start.In(loc).Year()
		}
		cal.AddVTimezone(vtimezone(timezone, loc, year))
	}

	for _, evt := range events {
		if evt.UID == "" {
			return nil, fmt.Errorf("calendar event without uid")
		}
		if !evt.End.After(evt.Start) {
			return nil, fmt.Errorf("calendar event %s ends before it starts", evt.UID)
		}
		start := evt.Start.In(loc)
		vevent := cal.AddEvent(evt.UID)
		vevent.SetDtStampTime(stamp)
		if loc == time.UTC {
			vevent.SetStartAt(start)
			vevent.SetEndAt(evt.End)
		} else {
			tzid := &ics.KeyValues{Key: string(ics.ParameterTzid), Value: []string{timezone}}
			vevent.SetProperty(ics.ComponentPropertyDtStart, start.Format(icsLocalFormat), tzid)
			vevent.SetProperty(ics.ComponentPropertyDtEnd, evt.End.In(loc).Format(icsLocalFormat), tzid)
		}
		vevent.SetSummary(evt.Summary)
		if evt.Description != "" {
			vevent.SetDescription(evt.Description)
		}
		if evt.URL != "" {
			vevent.SetURL(evt.URL)
		}
		vevent.AddProperty(ics.ComponentPropertyRrule, "FREQ=WEEKLY;BYDAY="+byDay(start))
	}
	return []byte(cal.Serialize()), nil
}

const icsLocalFormat = "20060102T150405"

// byDay is the RRULE weekday of t in the location DTSTART is written in.
func byDay(t time.Time) string {
	return strings.ToUpper(t.Weekday().String()[:2])
}

// vtimezone describes loc for one year: one observance per offset change, or a single
// STANDARD observance for a zone without daylight saving.
func vtimezone(tzid string, loc *time.Location, year int) *ics.VTimezone {
	tz := ics.NewTimezone(tzid)
	from := time.Date(year, time.January, 1, 0, 0, 0, 0, loc)
	until := from.AddDate(1, 0, 0)

	_, prev := from.Zone()
	for t := from.Add(time.Hour); t.Before(until); t = t.Add(time.Hour) {
		_, offset := t.Zone()
		if offset == prev {
			continue
		}
		at := t
		for {
			_, earlier := at.Add(-time.Minute).Zone()
			if earlier != offset {
				break
			}
			at = at.Add(-time.Minute)
		}
		tz.Components = append(tz.Components, observance(at, prev))
		prev = offset
	}
	if len(tz.Components) == 0 {
		tz.Components = append(tz.Components, observance(from, prev))
	}
	return tz
}

// observance is the STANDARD or DAYLIGHT block for the offset in effect from at onward.
func observance(at time.Time, previous int) ics.Component {
	name, offset := at.Zone()
	base := ics.ComponentBase{}
	base.AddProperty(ics.ComponentPropertyDtStart, at.In(time.FixedZone(name, previous)).Format(icsLocalFormat))
	base.AddProperty(ics.ComponentProperty(ics.PropertyTzoffsetfrom), utcOffset(previous))
	base.AddProperty(ics.ComponentProperty(ics.PropertyTzoffsetto), utcOffset(offset))
	base.AddProperty(ics.ComponentProperty(ics.PropertyTzname), name)
	if at.IsDST() {
		return &ics.Daylight{ComponentBase: base}
	}
	return &ics.Standard{ComponentBase: base}
}

func utcOffset(seconds int) string {
	sign := '+'
	if seconds < 0 {
		sign = '-'
		seconds = -seconds
	}
	return fmt.Sprintf("%c%02d%02d", sign, seconds/3600, seconds%3600/60)
}
