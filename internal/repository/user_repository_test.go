package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/airwaves-fm/airwaves-api/internal/models"
)

func newMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	sqlxdb := sqlx.NewDb(db, "sqlmock")
	return sqlxdb, mock, func() {
		db.Close()
	}
}

func TestFindByEmail(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "email", "password_hash", "full_name", "role", "active", "last_login", "created_at", "updated_at"}).
		AddRow("1", "user@example.com", "hash", "User", string(models.RoleAdmin), true, now, now, now)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, email, password_hash, full_name, role, active, last_login, created_at, updated_at FROM users WHERE email = $1 LIMIT 1")).
		WithArgs("user@example.com").
		WillReturnRows(rows)

	user, err := repo.FindByEmail(context.Background(), "user@example.com")
	require.NoError(t, err)
	assert.Equal(t, "user@example.com", user.Email)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateRefreshToken(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	mock.ExpectExec("INSERT INTO refresh_tokens").WillReturnResult(sqlmock.NewResult(1, 1))

	err := repo.CreateRefreshToken(context.Background(), &models.RefreshToken{ID: "1", UserID: "u1", Token: "token", ExpiresAt: time.Now(), CreatedAt: time.Now()})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRevokeUserRefreshTokens(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE refresh_tokens SET revoked = TRUE, revoked_at = $2 WHERE user_id = $1 AND revoked = FALSE")).
		WithArgs("u1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 2))

	require.NoError(t, repo.RevokeUserRefreshTokens(context.Background(), "u1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateAuditLog(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	stationID := "st-1"
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO audit_logs")).
		WithArgs(sqlmock.AnyArg(), nil, models.AuditActionScheduleReplace, "schedule", &stationID, sqlmock.AnyArg(), "127.0.0.1", "test", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := repo.CreateAuditLog(context.Background(), &models.AuditLog{
		Action:     models.AuditActionScheduleReplace,
		Resource:   "schedule",
		ResourceID: &stationID,
		IPAddress:  "127.0.0.1",
		UserAgent:  "test",
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepositoryListFiltersByRoleAndSearch(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	now := time.Now()
	role := models.RoleEditor
	rows := sqlmock.NewRows([]string{"id", "email", "password_hash", "full_name", "role", "active", "last_login", "created_at", "updated_at"}).
		AddRow("u2", "ed@airwaves.fm", "hash", "Ed Itor", string(models.RoleEditor), true, nil, now, now)
	mock.ExpectQuery(`SELECT id, email, .* FROM users WHERE 1=1 AND role = \$1 AND \(LOWER\(email\) LIKE \$2 OR LOWER\(full_name\) LIKE \$2\) ORDER BY created_at DESC LIMIT 20 OFFSET 0`).
		WithArgs(role, "%ed%").
		WillReturnRows(rows)
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM users WHERE 1=1 AND role = \$1`).
		WithArgs(role, "%ed%").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	users, total, err := repo.List(context.Background(), models.UserFilter{Role: &role, Search: "Ed"})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, users, 1)
	assert.Nil(t, users[0].LastLogin)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepositoryDeactivate(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE users SET active = FALSE, updated_at = $2 WHERE id = $1")).
		WithArgs("u2", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Deactivate(context.Background(), "u2"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListAuditLogsNewestFirst(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "user_id", "action", "resource", "resource_id", "new_values", "ip_address", "user_agent", "created_at"}).
		AddRow("a1", "u1", models.AuditActionScheduleReplace, "schedule", "st-1", nil, "10.0.0.1", "curl", now)
	mock.ExpectQuery(`FROM audit_logs WHERE 1=1 AND resource = \$1 AND action = \$2 ORDER BY created_at DESC LIMIT 10 OFFSET 10`).
		WithArgs("schedule", models.AuditActionScheduleReplace).
		WillReturnRows(rows)
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM audit_logs`).
		WithArgs("schedule", models.AuditActionScheduleReplace).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(11))

	logs, total, err := repo.ListAuditLogs(context.Background(), models.AuditFilter{Resource: "schedule", Action: "schedule_replace", Page: 2, PageSize: 10})
	require.NoError(t, err)
	assert.Equal(t, 11, total)
	require.Len(t, logs, 1)
	assert.Equal(t, "st-1", *logs[0].ResourceID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
