package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/airwaves-fm/airwaves-api/internal/models"
)

var stationRowColumns = []string{"id", "name", "slug", "frequency", "tagline", "stream_url", "logo_url", "timezone", "active", "created_at", "updated_at"}

func TestStationRepositoryList(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewStationRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows(stationRowColumns).
		AddRow("st-1", "Airwaves FM", "airwaves-fm", "99.9", "", "https://stream", "", "Africa/Lagos", true, now, now)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT " + stationColumns + " FROM stations WHERE 1=1 AND active = TRUE AND (LOWER(name) LIKE $1 OR LOWER(frequency) LIKE $1) ORDER BY name ASC LIMIT 20 OFFSET 0")).
		WithArgs("%air%").
		WillReturnRows(rows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM stations WHERE 1=1 AND active = TRUE")).
		WithArgs("%air%").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	stations, total, err := repo.List(context.Background(), models.StationFilter{Search: "Air", ActiveOnly: true})
	require.NoError(t, err)
	assert.Len(t, stations, 1)
	assert.Equal(t, 1, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStationRepositoryFindBySlugNotFound(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewStationRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM stations WHERE slug = $1 LIMIT 1")).
		WithArgs("nope").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindBySlug(context.Background(), "nope")
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestStationRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewStationRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO stations")).
		WithArgs(sqlmock.AnyArg(), "Airwaves FM", "airwaves-fm", "99.9", "", "", "", "Africa/Lagos", true, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	station := &models.Station{Name: "Airwaves FM", Slug: "airwaves-fm", Frequency: "99.9", Timezone: "Africa/Lagos", Active: true}
	require.NoError(t, repo.Create(context.Background(), station))
	assert.NotEmpty(t, station.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStationRepositoryExistsSlug(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewStationRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS(SELECT 1 FROM stations WHERE slug = $1 AND id <> $2)")).
		WithArgs("airwaves-fm", "st-1").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	exists, err := repo.ExistsSlug(context.Background(), "airwaves-fm", "st-1")
	require.NoError(t, err)
	assert.True(t, exists)
}
