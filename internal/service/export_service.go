package service

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/airwaves-fm/airwaves-api/internal/models"
	"github.com/airwaves-fm/airwaves-api/internal/schedule"
	"github.com/airwaves-fm/airwaves-api/pkg/export"
	"github.com/airwaves-fm/airwaves-api/pkg/jobs"
	"github.com/airwaves-fm/airwaves-api/pkg/storage"
)

// ExportFormat selects the rendered schedule document type.
type ExportFormat string

const (
	ExportFormatCSV ExportFormat = "csv"
	ExportFormatPDF ExportFormat = "pdf"
)

// JobExportCleanup sweeps expired export files.
const JobExportCleanup = "export.cleanup"

// Valid reports whether the format can be rendered.
func (f ExportFormat) Valid() bool {
	return f == ExportFormatCSV || f == ExportFormatPDF
}

type fileStorage interface {
	Save(filename string, data []byte) (string, error)
	Open(filename string) (*os.File, error)
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

// ExportConfig tunes export behaviour.
type ExportConfig struct {
	APIPrefix string
	ResultTTL time.Duration
}

// ExportResult captures successful generation metadata.
type ExportResult struct {
	RelativePath string       `json:"-"`
	Token        string       `json:"token"`
	URL          string       `json:"url"`
	Format       ExportFormat `json:"format"`
	ExpiresAt    time.Time    `json:"expiresAt"`
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

// ExportService renders a station's weekly schedule to CSV or PDF and hands out signed
// download links for the stored file.
type ExportService struct {
	storage fileStorage
	csv     csvRenderer
	pdf     pdfRenderer
	signer  *storage.SignedURLSigner
	logger  *zap.Logger
	cfg     ExportConfig
	now     func() time.Time
}

// NewExportService constructs an ExportService.
func NewExportService(storage fileStorage, signer *storage.SignedURLSigner, cfg ExportConfig, logger *zap.Logger, csv csvRenderer, pdf pdfRenderer) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = 24 * time.Hour
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ExportService{
		storage: storage,
		csv:     csv,
		pdf:     pdf,
		signer:  signer,
		logger:  logger,
		cfg:     cfg,
		now:     time.Now,
	}
}

var scheduleExportHeaders = []string{"Day", "Start", "End", "Show", "Slug", "Description"}

// Generate renders slots, which the caller has already validated, and stores the file.
func (s *ExportService) Generate(_ context.Context, station *models.Station, slots []schedule.Slot, format ExportFormat) (*ExportResult, error) {
	if station == nil {
		return nil, fmt.Errorf("station nil")
	}

	dataset := buildScheduleDataset(slots)
	var (
		payload []byte
		err     error
	)
	switch format {
	case ExportFormatCSV:
		payload, err = s.csv.Render(dataset)
	case ExportFormatPDF:
		title := fmt.Sprintf("%s Weekly Schedule", station.Name)
		if station.Timezone != "" {
			title += " (" + station.Timezone + ")"
		}
		payload, err = s.pdf.Render(dataset, title)
	default:
		err = fmt.Errorf("unsupported format %s", format)
	}
	if err != nil {
		return nil, err
	}

	relPath, err := s.storage.Save(s.buildFilename(station, format), payload)
	if err != nil {
		return nil, err
	}

	token, expiresAt, err := s.signer.Generate(station.ID, relPath)
	if err != nil {
		return nil, err
	}
	prefix := strings.TrimRight(s.cfg.APIPrefix, "/")
	if prefix == "" {
		prefix = "/api/v1"
	}

	s.logger.Info("schedule export generated",
		zap.String("station_id", station.ID),
		zap.String("format", string(format)),
		zap.Int("slots", len(slots)),
	)

	return &ExportResult{
		RelativePath: relPath,
		Token:        token,
		URL:          fmt.Sprintf("%s/export/%s", prefix, token),
		Format:       format,
		ExpiresAt:    expiresAt,
	}, nil
}

// ParseToken validates download token metadata.
func (s *ExportService) ParseToken(token string, allowExpired bool) (stationID, relPath string, expiresAt time.Time, err error) {
	return s.signer.Parse(token, allowExpired)
}

// Open returns a handle to the stored file.
func (s *ExportService) Open(relPath string) (*os.File, error) {
	return s.storage.Open(relPath)
}

// Cleanup removes files older than ttl (defaults to configured ResultTTL when ttl <= 0).
func (s *ExportService) Cleanup(ttl time.Duration) ([]string, error) {
	if ttl <= 0 {
		ttl = s.cfg.ResultTTL
	}
	return s.storage.CleanupOlderThan(ttl)
}

// HandleCleanup is the job handler for JobExportCleanup.
func (s *ExportService) HandleCleanup(_ context.Context, _ jobs.Job) error {
	removed, err := s.Cleanup(0)
	if err != nil {
		return err
	}
	if len(removed) > 0 {
		s.logger.Info("expired exports removed", zap.Int("count", len(removed)))
	}
	return nil
}

func (s *ExportService) buildFilename(station *models.Station, format ExportFormat) string {
	timestamp := s.now().UTC().Format("20060102_150405")
	name := station.Slug
	if name == "" {
		name = station.ID
	}
	return fmt.Sprintf("%s_schedule_%s.%s", sanitizeFilename(name), timestamp, format)
}

func sanitizeFilename(raw string) string {
	if raw == "" {
		return "na"
	}
	replacer := strings.NewReplacer(" ", "_", "/", "-", "\\", "-", ":", "-", "..", ".", "__", "_")
	result := replacer.Replace(raw)
	if len(result) > 100 {
		return result[:100]
	}
	return result
}

// buildScheduleDataset lays slots out Sunday first, each day in start order.
func buildScheduleDataset(slots []schedule.Slot) export.Dataset {
	week := schedule.PartitionByWeekday(slots)
	rows := make([]map[string]string, 0, len(slots))
	for _, day := range schedule.Weekdays {
		for _, slot := range schedule.SortByStart(week[day]) {
			rows = append(rows, map[string]string{
				"Day":         day.String(),
				"Start":       slot.Start.String(),
				"End":         slot.End.String(),
				"Show":        slot.ShowTitle,
				"Slug":        schedule.Slugify(slot.ShowTitle),
				"Description": slot.Description,
			})
		}
	}
	return export.Dataset{
		Headers: scheduleExportHeaders,
		Rows:    rows,
		GroupBy: "Day",
		Widths:  map[string]float64{"Start": 0.6, "End": 0.6, "Show": 2, "Slug": 1.5, "Description": 3},
	}
}
