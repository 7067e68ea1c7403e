package service

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/airwaves-fm/airwaves-api/internal/models"
	"github.com/airwaves-fm/airwaves-api/internal/schedule"
	"github.com/airwaves-fm/airwaves-api/pkg/export"
	"github.com/airwaves-fm/airwaves-api/pkg/jobs"
	"github.com/airwaves-fm/airwaves-api/pkg/storage"
)

func newExportServiceForTest(t *testing.T) (*ExportService, *storage.LocalStorage) {
	t.Helper()
	dir := t.TempDir()
	store, err := storage.NewLocalStorage(dir)
	require.NoError(t, err)
	signer := storage.NewSignedURLSigner("secret", time.Hour)
	cfg := ExportConfig{APIPrefix: "/api/v1", ResultTTL: time.Hour}
	svc := NewExportService(store, signer, cfg, zap.NewNop(), export.NewCSVExporter(), export.NewPDFExporter())
	return svc, store
}

func exportFixture(t *testing.T) (*models.Station, []schedule.Slot) {
	t.Helper()
	slots, issues := schedule.Parse([]models.ScheduleSlot{
		{ID: "s3", ShowTitle: "Night  Lounge", StartTime: "20:00", EndTime: "00:00", Weekday: 4},
		{ID: "s2", ShowTitle: "Midday Mix", StartTime: "11:00", EndTime: "14:00", Weekday: 1},
		{ID: "s1", ShowTitle: "Breakfast Show", StartTime: "06:00", EndTime: "11:00", Weekday: 1},
	})
	require.Empty(t, issues)
	station := &models.Station{ID: "2b7c1a8e-0000-4000-8000-000000000001", Name: "Airwaves FM", Slug: "airwaves-fm", Timezone: "Africa/Lagos"}
	return station, slots
}

func TestExportServiceGenerateCSV(t *testing.T) {
	svc, store := newExportServiceForTest(t)
	station, slots := exportFixture(t)

	result, err := svc.Generate(context.Background(), station, slots, ExportFormatCSV)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(result.RelativePath, "airwaves-fm_schedule_"))
	require.Contains(t, result.URL, "/api/v1/export/")

	raw, err := os.ReadFile(store.Path(result.RelativePath))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "Day,Start,End,Show,Slug,Description", lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "Monday,06:00,11:00,Breakfast Show,breakfast-show"))
	assert.True(t, strings.HasPrefix(lines[2], "Monday,11:00,14:00"))
	assert.True(t, strings.HasPrefix(lines[3], "Thursday,20:00,00:00,Night  Lounge,night-lounge"))

	stationID, relPath, _, err := svc.ParseToken(result.Token, false)
	require.NoError(t, err)
	assert.Equal(t, station.ID, stationID)
	assert.Equal(t, result.RelativePath, relPath)
}

func TestExportServiceGeneratePDF(t *testing.T) {
	svc, store := newExportServiceForTest(t)
	station, slots := exportFixture(t)

	result, err := svc.Generate(context.Background(), station, slots, ExportFormatPDF)
	require.NoError(t, err)
	require.Equal(t, ExportFormatPDF, result.Format)

	path := filepath.Clean(store.Path(result.RelativePath))
	info, err := os.Stat(path)
	require.NoError(t, err)
	require.Greater(t, info.Size(), int64(0))
}

func TestExportServiceRejectsUnknownFormat(t *testing.T) {
	svc, _ := newExportServiceForTest(t)
	station, slots := exportFixture(t)

	_, err := svc.Generate(context.Background(), station, slots, ExportFormat("xlsx"))
	require.Error(t, err)
	assert.False(t, ExportFormat("xlsx").Valid())
}

func TestExportServiceCleanup(t *testing.T) {
	svc, store := newExportServiceForTest(t)
	station, slots := exportFixture(t)

	result, err := svc.Generate(context.Background(), station, slots, ExportFormatCSV)
	require.NoError(t, err)

	old := time.Now().Add(-2 * time.Hour)
	require.NoError(t, os.Chtimes(store.Path(result.RelativePath), old, old))

	removed, err := svc.Cleanup(0)
	require.NoError(t, err)
	assert.Len(t, removed, 1)
}

func TestExportServiceHandleCleanupJob(t *testing.T) {
	svc, store := newExportServiceForTest(t)
	station, slots := exportFixture(t)

	result, err := svc.Generate(context.Background(), station, slots, ExportFormatPDF)
	require.NoError(t, err)
	old := time.Now().Add(-48 * time.Hour)
	require.NoError(t, os.Chtimes(store.Path(result.RelativePath), old, old))

	require.NoError(t, svc.HandleCleanup(context.Background(), jobs.Job{Type: JobExportCleanup}))
	_, err = os.Stat(store.Path(result.RelativePath))
	assert.True(t, os.IsNotExist(err))
}
