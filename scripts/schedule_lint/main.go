package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/airwaves-fm/airwaves-api/internal/models"
	"github.com/airwaves-fm/airwaves-api/internal/schedule"
)

type report struct {
	At       time.Time
	Slots    int
	Issues   []schedule.ValidationError
	Overlaps []models.ScheduleOverlap
	Live     *schedule.Slot
	Next     *schedule.Slot
	StartsIn time.Duration
}

func (r report) failed() bool {
	return len(r.Issues) > 0 || len(r.Overlaps) > 0
}

func main() {
	var (
		file      string
		apiBase   string
		stationID string
		at        string
		zone      string
		timeout   time.Duration
	)

	flag.StringVar(&file, "file", "-", "Path to a JSON slot array or /schedule response; - reads stdin")
	flag.StringVar(&apiBase, "api", "", "API base URL such as http://localhost:8080/api/v1; overrides -file")
	flag.StringVar(&stationID, "station", "", "Station ID to fetch when -api is set")
	flag.StringVar(&at, "at", "", "Instant to resolve, RFC3339; defaults to now")
	flag.StringVar(&zone, "tz", "UTC", "IANA zone the schedule's wall-clock times are in")
	flag.DurationVar(&timeout, "timeout", 5*time.Second, "HTTP client timeout")
	flag.Parse()

	loc, err := time.LoadLocation(zone)
	if err != nil {
		log.Fatalf("unknown zone %q: %v", zone, err)
	}
	now := time.Now()
	if at != "" {
		if now, err = time.Parse(time.RFC3339, at); err != nil {
			log.Fatalf("invalid -at: %v", err)
		}
	}

	var raw []byte
	switch {
	case apiBase != "":
		raw, err = fetchSlots(&http.Client{Timeout: timeout}, apiBase, stationID)
	case file == "-":
		raw, err = io.ReadAll(os.Stdin)
	default:
		raw, err = os.ReadFile(file)
	}
	if err != nil {
		log.Fatalf("failed to read slots: %v", err)
	}

	records, err := decodeSlots(raw)
	if err != nil {
		log.Fatalf("failed to decode slots: %v", err)
	}

	rep := lint(records, now.In(loc))
	printReport(os.Stdout, rep)
	if rep.failed() {
		os.Exit(1)
	}
}

func fetchSlots(client *http.Client, base, stationID string) ([]byte, error) {
	if stationID == "" {
		return nil, errors.New("-station is required with -api")
	}
	endpoint := strings.TrimRight(base, "/") + "/schedule?stationId=" + url.QueryEscape(stationID)
	resp, err := client.Get(endpoint)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("GET %s: status %d", endpoint, resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

// decodeSlots accepts either a bare array or the API envelope {"data": [...]}.
func decodeSlots(raw []byte) ([]models.ScheduleSlot, error) {
	raw = bytes.TrimSpace(raw)
	var records []models.ScheduleSlot
	if len(raw) > 0 && raw[0] == '[' {
		if err := json.Unmarshal(raw, &records); err != nil {
			return nil, err
		}
		return records, nil
	}
	var envelope struct {
		Data []models.ScheduleSlot `json:"data"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, err
	}
	return envelope.Data, nil
}

func lint(records []models.ScheduleSlot, now time.Time) report {
	slots, issues := schedule.Parse(records)
	rep := report{At: now, Slots: len(records), Issues: issues, Overlaps: schedule.Overlaps(slots)}
	if live, ok := schedule.FindLiveSlot(slots, now); ok {
		rep.Live = &live
	}
	if next, in, ok := schedule.NextSlot(slots, now); ok {
		rep.Next = &next
		rep.StartsIn = in
	}
	return rep
}

func printReport(w io.Writer, rep report) {
	fmt.Fprintln(w, "Schedule Lint Report")
	fmt.Fprintln(w, "====================")
	fmt.Fprintf(w, "At: %s (%s)\n", rep.At.Format(time.RFC3339), schedule.WeekdayOf(rep.At))
	fmt.Fprintf(w, "Slots: %d | Issues: %d | Overlaps: %d\n", rep.Slots, len(rep.Issues), len(rep.Overlaps))
	for _, issue := range rep.Issues {
		fmt.Fprintf(w, "  [ISSUE] %s\n", issue.Error())
	}
	for _, o := range rep.Overlaps {
		fmt.Fprintf(w, "  [OVERLAP] %s: %q (%s) and %q (%s)\n", schedule.Weekday(o.Weekday), o.FirstTitle, o.FirstID, o.SecondTitle, o.SecondID)
	}
	if rep.Live != nil {
		fmt.Fprintf(w, "Live: %s %s-%s\n", rep.Live.ShowTitle, rep.Live.Start, rep.Live.End)
	} else {
		fmt.Fprintln(w, "Live: off air")
	}
	if rep.Next != nil {
		fmt.Fprintf(w, "Up next: %s at %s on %s (in %s)\n", rep.Next.ShowTitle, rep.Next.Start, rep.Next.Day(), rep.StartsIn)
	}
}
