package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/airwaves-fm/airwaves-api/internal/models"
	"github.com/airwaves-fm/airwaves-api/internal/schedule"
	appErrors "github.com/airwaves-fm/airwaves-api/pkg/errors"
	"github.com/airwaves-fm/airwaves-api/pkg/export"
	"github.com/airwaves-fm/airwaves-api/pkg/jobs"
	"github.com/airwaves-fm/airwaves-api/pkg/logger"
)

// JobScheduleRewarm reloads a station's slot snapshot into the cache after a write.
const JobScheduleRewarm = "schedule.rewarm"

type scheduleSlotRepository interface {
	ListByStation(ctx context.Context, stationID string) ([]models.ScheduleSlot, error)
	FindByID(ctx context.Context, id string) (*models.ScheduleSlot, error)
	ForeignIDs(ctx context.Context, stationID string, ids []string) ([]string, error)
	ReplaceForStation(ctx context.Context, stationID string, slots []models.ScheduleSlot) error
	Delete(ctx context.Context, id string) error
}

type stationFinder interface {
	FindByID(ctx context.Context, id string) (*models.Station, error)
}

type scheduleExporter interface {
	Generate(ctx context.Context, station *models.Station, slots []schedule.Slot, format ExportFormat) (*ExportResult, error)
}

type icsRenderer interface {
	Render(name, timezone string, events []export.CalendarEvent) ([]byte, error)
}

type jobEnqueuer interface {
	Enqueue(job jobs.Job) error
}

// ScheduleSlotInput is one slot of an editor save. Times and weekday are checked by the
// resolver's parser so every bad field is reported per slot.
type ScheduleSlotInput struct {
	ID           string  `json:"id" validate:"omitempty,uuid"`
	OAPID        *string `json:"oapId" validate:"omitempty,uuid"`
	ShowTitle    string  `json:"showTitle" validate:"required,max=160"`
	StartTime    string  `json:"startTime"`
	EndTime      string  `json:"endTime"`
	Weekday      int     `json:"weekday"`
	Description  string  `json:"description" validate:"max=2000"`
	ThumbnailURL string  `json:"thumbnailUrl" validate:"omitempty,max=512"`
}

// ReplaceScheduleRequest is the full slot set of a station. An empty list clears the schedule.
type ReplaceScheduleRequest struct {
	Slots []ScheduleSlotInput `json:"slots" validate:"max=500,dive"`
}

// WeekSlot is a slot as shown on the public grid.
type WeekSlot struct {
	models.ScheduleSlot
	Slug   string `json:"slug"`
	IsLive bool   `json:"isLive"`
}

// ScheduleDay is one weekday column of the grid.
type ScheduleDay struct {
	Weekday int        `json:"weekday"`
	Name    string     `json:"name"`
	Slots   []WeekSlot `json:"slots"`
}

// ScheduleWeek is the seven-day grid of a station.
type ScheduleWeek struct {
	StationID string                     `json:"stationId"`
	Timezone  string                     `json:"timezone"`
	At        time.Time                  `json:"at"`
	Days      []ScheduleDay              `json:"days"`
	Issues    []schedule.ValidationError `json:"issues,omitempty"`
}

// NowPlaying answers what is on air and what follows.
type NowPlaying struct {
	StationID       string    `json:"stationId"`
	Timezone        string    `json:"timezone"`
	At              time.Time `json:"at"`
	Live            *WeekSlot `json:"live"`
	UpNext          *WeekSlot `json:"upNext"`
	StartsInSeconds int64     `json:"startsIn"`
}

// ScheduleValidation is the result of a dry-run save.
type ScheduleValidation struct {
	Valid    bool                       `json:"valid"`
	Issues   []schedule.ValidationError `json:"issues"`
	Overlaps []models.ScheduleOverlap   `json:"overlaps"`
}

// ScheduleServiceConfig tunes timezone fallback and snapshot caching.
type ScheduleServiceConfig struct {
	DefaultTimezone string
	SnapshotTTL     time.Duration
	Clock           schedule.Clock
}

// ScheduleService answers every schedule question through the resolver and owns the
// replace-all save path.
type ScheduleService struct {
	repo      scheduleSlotRepository
	stations  stationFinder
	cache     *CacheService
	metrics   *MetricsService
	exporter  scheduleExporter
	ics       icsRenderer
	queue     jobEnqueuer
	validator *validator.Validate
	logger    *zap.Logger
	cfg       ScheduleServiceConfig
}

// NewScheduleService constructs the schedule service. cache, metrics, exporter and queue may be nil.
func NewScheduleService(repo scheduleSlotRepository, stations stationFinder, cache *CacheService, metrics *MetricsService, exporter scheduleExporter, ics icsRenderer, queue jobEnqueuer, validate *validator.Validate, logger *zap.Logger, cfg ScheduleServiceConfig) *ScheduleService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if ics == nil {
		ics = export.NewICSExporter("")
	}
	if cfg.Clock == nil {
		cfg.Clock = schedule.SystemClock{}
	}
	if cfg.DefaultTimezone == "" {
		cfg.DefaultTimezone = "UTC"
	}
	if cfg.SnapshotTTL <= 0 {
		cfg.SnapshotTTL = 10 * time.Minute
	}
	return &ScheduleService{
		repo:      repo,
		stations:  stations,
		cache:     cache,
		metrics:   metrics,
		exporter:  exporter,
		ics:       ics,
		queue:     queue,
		validator: validate,
		logger:    logger,
		cfg:       cfg,
	}
}

// List returns the raw slot records of a station in saved order.
func (s *ScheduleService) List(ctx context.Context, stationID string) ([]models.ScheduleSlot, error) {
	if _, err := s.station(ctx, stationID); err != nil {
		return nil, err
	}
	return s.snapshot(ctx, stationID)
}

// Week returns the seven-day grid, each day in start order, with the live slot flagged.
// Issues are only attached when withIssues is set, which handlers reserve for editors.
func (s *ScheduleService) Week(ctx context.Context, stationID string, withIssues bool) (*ScheduleWeek, error) {
	station, err := s.station(ctx, stationID)
	if err != nil {
		return nil, err
	}
	records, err := s.snapshot(ctx, stationID)
	if err != nil {
		return nil, err
	}

	loc := s.location(station)
	now := s.cfg.Clock.Now().In(loc)
	res := schedule.Resolve(records, now)

	week := &ScheduleWeek{
		StationID: station.ID,
		Timezone:  loc.String(),
		At:        now,
		Days:      make([]ScheduleDay, 0, len(schedule.Weekdays)),
	}
	for _, day := range schedule.Weekdays {
		sorted := schedule.SortByStart(res.Week[day])
		slots := make([]WeekSlot, 0, len(sorted))
		for _, slot := range sorted {
			slots = append(slots, toWeekSlot(slot, res.Live != nil && res.Live.ID == slot.ID))
		}
		week.Days = append(week.Days, ScheduleDay{Weekday: int(day), Name: day.String(), Slots: slots})
	}
	if withIssues {
		week.Issues = res.Issues
	}
	if len(res.Issues) > 0 {
		s.logger.Warn("stored schedule has invalid slots",
			zap.String("station_id", station.ID),
			zap.Int("issues", len(res.Issues)),
		)
	}
	return week, nil
}

// NowPlaying resolves the live slot in the station's timezone and looks one week ahead for
// the next start.
func (s *ScheduleService) NowPlaying(ctx context.Context, stationID string) (*NowPlaying, error) {
	station, err := s.station(ctx, stationID)
	if err != nil {
		return nil, err
	}
	records, err := s.snapshot(ctx, stationID)
	if err != nil {
		return nil, err
	}

	loc := s.location(station)
	now := s.cfg.Clock.Now().In(loc)
	slots, _ := schedule.Parse(records)

	out := &NowPlaying{StationID: station.ID, Timezone: loc.String(), At: now}
	live, ok := schedule.FindLiveSlot(slots, now)
	if ok {
		ws := toWeekSlot(live, true)
		out.Live = &ws
	}
	s.metrics.RecordScheduleResolve(ok)

	if next, wait, found := schedule.NextSlot(slots, now); found {
		ws := toWeekSlot(next, false)
		out.UpNext = &ws
		out.StartsInSeconds = int64(wait / time.Second)
	}
	return out, nil
}

// Validate runs the save checks without persisting anything.
func (s *ScheduleService) Validate(ctx context.Context, stationID string, req ReplaceScheduleRequest) (*ScheduleValidation, error) {
	if _, err := s.station(ctx, stationID); err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid schedule payload")
	}
	records := toRecords(stationID, req.Slots)
	slots, issues := schedule.Parse(records)
	idIssues, err := s.checkIDs(ctx, stationID, records)
	if err != nil {
		return nil, err
	}
	issues = append(issues, idIssues...)
	overlaps := schedule.Overlaps(slots)
	if issues == nil {
		issues = []schedule.ValidationError{}
	}
	if overlaps == nil {
		overlaps = []models.ScheduleOverlap{}
	}
	return &ScheduleValidation{Valid: len(issues) == 0 && len(overlaps) == 0, Issues: issues, Overlaps: overlaps}, nil
}

// Replace swaps the whole schedule of a station. Malformed slots are rejected with the
// per-slot issues; overlapping slots are rejected with the conflicting pairs.
func (s *ScheduleService) Replace(ctx context.Context, stationID string, req ReplaceScheduleRequest) ([]models.ScheduleSlot, error) {
	if _, err := s.station(ctx, stationID); err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid schedule payload")
	}

	records := toRecords(stationID, req.Slots)
	slots, issues := schedule.Parse(records)
	idIssues, err := s.checkIDs(ctx, stationID, records)
	if err != nil {
		return nil, err
	}
	issues = append(issues, idIssues...)
	if len(issues) > 0 {
		return nil, appErrors.WithDetails(appErrors.Clone(appErrors.ErrValidation, "schedule contains invalid slots"), issues)
	}
	if overlaps := schedule.Overlaps(slots); len(overlaps) > 0 {
		conflict := &models.ScheduleConflictError{
			StationID: stationID,
			Message:   fmt.Sprintf("schedule has %d overlapping slot pair(s)", len(overlaps)),
			Overlaps:  overlaps,
		}
		return nil, appErrors.WithDetails(appErrors.Wrap(conflict, appErrors.ErrConflict.Code, appErrors.ErrConflict.Status, conflict.Message), overlaps)
	}

	if err := s.repo.ReplaceForStation(ctx, stationID, records); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save schedule")
	}
	s.invalidate(ctx, stationID)
	logger.WithContext(ctx, s.logger).Info("schedule replaced", zap.String("station_id", stationID), zap.Int("slots", len(records)))
	return records, nil
}

// Delete removes one slot.
func (s *ScheduleService) Delete(ctx context.Context, slotID string) error {
	slot, err := s.repo.FindByID(ctx, slotID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "schedule slot not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load schedule slot")
	}
	if err := s.repo.Delete(ctx, slotID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete schedule slot")
	}
	s.invalidate(ctx, slot.StationID)
	return nil
}

// ICS renders the weekly schedule as an iCalendar feed. Each airtime span of a slot
// becomes an event in the current week that repeats weekly, so a wrapping slot yields two
// events on its own weekday, the same minutes FindLiveSlot treats as live.
func (s *ScheduleService) ICS(ctx context.Context, stationID string) ([]byte, error) {
	station, err := s.station(ctx, stationID)
	if err != nil {
		return nil, err
	}
	records, err := s.snapshot(ctx, stationID)
	if err != nil {
		return nil, err
	}

	loc := s.location(station)
	slots, _ := schedule.Parse(records)
	events := calendarEvents(slots, s.cfg.Clock.Now().In(loc))

	payload, err := s.ics.Render(station.Name, loc.String(), events)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render calendar")
	}
	return payload, nil
}

// Export renders the schedule to a downloadable CSV or PDF.
func (s *ScheduleService) Export(ctx context.Context, stationID string, format ExportFormat) (*ExportResult, error) {
	if !format.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf")
	}
	if s.exporter == nil {
		return nil, appErrors.Clone(appErrors.ErrInternal, "exports are not configured")
	}
	station, err := s.station(ctx, stationID)
	if err != nil {
		return nil, err
	}
	records, err := s.snapshot(ctx, stationID)
	if err != nil {
		return nil, err
	}
	slots, _ := schedule.Parse(records)
	result, err := s.exporter.Generate(ctx, station, slots, format)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to export schedule")
	}
	return result, nil
}

// HandleRewarm is the job handler for JobScheduleRewarm.
func (s *ScheduleService) HandleRewarm(ctx context.Context, job jobs.Job) error {
	stationID, ok := job.Payload.(string)
	if !ok || stationID == "" {
		return fmt.Errorf("rewarm job %s: payload is not a station id", job.ID)
	}
	records, err := s.load(ctx, stationID)
	if err != nil {
		return err
	}
	return s.cache.Set(ctx, ScheduleSnapshotKey(stationID), records, s.cfg.SnapshotTTL)
}

// checkIDs reports ids repeated within the save and ids owned by another station. Either
// would otherwise surface as a primary key violation inside the replace transaction.
func (s *ScheduleService) checkIDs(ctx context.Context, stationID string, records []models.ScheduleSlot) ([]schedule.ValidationError, error) {
	issues := schedule.DuplicateIDs(records)
	ids := make([]string, 0, len(records))
	for _, record := range records {
		ids = append(ids, record.ID)
	}
	taken, err := s.repo.ForeignIDs(ctx, stationID, ids)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check schedule slot ids")
	}
	for _, id := range taken {
		issues = append(issues, schedule.ValidationError{SlotID: id, Field: "id", Value: id, Reason: "slot id belongs to another station"})
	}
	return issues, nil
}

func (s *ScheduleService) station(ctx context.Context, id string) (*models.Station, error) {
	station, err := s.stations.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "station not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load station")
	}
	return station, nil
}

// snapshot reads the slot list from cache, falling back to the database.
func (s *ScheduleService) snapshot(ctx context.Context, stationID string) ([]models.ScheduleSlot, error) {
	key := ScheduleSnapshotKey(stationID)
	var cached []models.ScheduleSlot
	if hit, err := s.cache.Get(ctx, key, &cached); err == nil && hit {
		return cached, nil
	}

	records, err := s.load(ctx, stationID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load schedule")
	}
	_ = s.cache.Set(ctx, key, records, s.cfg.SnapshotTTL)
	return records, nil
}

func (s *ScheduleService) load(ctx context.Context, stationID string) ([]models.ScheduleSlot, error) {
	start := time.Now()
	records, err := s.repo.ListByStation(ctx, stationID)
	s.metrics.ObserveDBQuery("schedule_list_by_station", time.Since(start))
	return records, err
}

func (s *ScheduleService) invalidate(ctx context.Context, stationID string) {
	if err := s.cache.Delete(ctx, ScheduleSnapshotKey(stationID)); err != nil {
		logger.WithContext(ctx, s.logger).Warn("failed to drop schedule snapshot", zap.String("station_id", stationID), zap.Error(err))
	}
	if s.queue == nil {
		return
	}
	job := jobs.Job{ID: uuid.NewString(), Type: JobScheduleRewarm, Payload: stationID}
	if err := s.queue.Enqueue(job); err != nil {
		logger.WithContext(ctx, s.logger).Warn("failed to enqueue schedule rewarm", zap.String("station_id", stationID), zap.Error(err))
	}
}

func (s *ScheduleService) location(station *models.Station) *time.Location {
	for _, name := range []string{station.Timezone, s.cfg.DefaultTimezone} {
		if name == "" {
			continue
		}
		if loc, err := time.LoadLocation(name); err == nil {
			return loc
		}
	}
	return time.UTC
}

// toRecords keeps submitted ids and mints the rest so issues can point at a slot.
func toRecords(stationID string, inputs []ScheduleSlotInput) []models.ScheduleSlot {
	records := make([]models.ScheduleSlot, 0, len(inputs))
	for i, in := range inputs {
		id := in.ID
		if id == "" {
			id = uuid.NewString()
		}
		records = append(records, models.ScheduleSlot{
			ID:           id,
			StationID:    stationID,
			OAPID:        in.OAPID,
			ShowTitle:    in.ShowTitle,
			StartTime:    in.StartTime,
			EndTime:      in.EndTime,
			Weekday:      in.Weekday,
			Description:  in.Description,
			ThumbnailURL: in.ThumbnailURL,
			Position:     i,
		})
	}
	return records
}

// calendarEvents anchors every span of slots in the week containing now, in now's location.
func calendarEvents(slots []schedule.Slot, now time.Time) []export.CalendarEvent {
	loc := now.Location()
	year, month, day := now.Date()
	sunday := day - int(now.Weekday())

	events := make([]export.CalendarEvent, 0, len(slots))
	for _, slot := range slots {
		for i, span := range slot.Spans() {
			uid := slot.ID + "@airwaves"
			if i > 0 {
				uid = fmt.Sprintf("%s-%d@airwaves", slot.ID, i+1)
			}
			events = append(events, export.CalendarEvent{
				UID:         uid,
				Summary:     slot.ShowTitle,
				Description: slot.Description,
				Start:       time.Date(year, month, sunday+slot.Weekday, 0, int(span.From), 0, 0, loc),
				End:         time.Date(year, month, sunday+slot.Weekday, 0, int(span.To), 0, 0, loc),
			})
		}
	}
	return events
}

func toWeekSlot(slot schedule.Slot, live bool) WeekSlot {
	return WeekSlot{ScheduleSlot: slot.ScheduleSlot, Slug: schedule.Slugify(slot.ShowTitle), IsLive: live}
}
