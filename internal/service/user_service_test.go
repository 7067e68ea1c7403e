package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/airwaves-fm/airwaves-api/internal/models"
	appErrors "github.com/airwaves-fm/airwaves-api/pkg/errors"
)

type mockUserRepo struct {
	users     map[string]*models.User
	listUsers []models.User
	listCount int
	listErr   error
	revoked   []string
	auditLogs []models.AuditLog
	auditArgs models.AuditFilter
}

func (m *mockUserRepo) List(ctx context.Context, filter models.UserFilter) ([]models.User, int, error) {
	if m.listErr != nil {
		return nil, 0, m.listErr
	}
	return m.listUsers, m.listCount, nil
}

func (m *mockUserRepo) FindByID(ctx context.Context, id string) (*models.User, error) {
	if user, ok := m.users[id]; ok {
		clone := *user
		return &clone, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockUserRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			clone := *u
			return &clone, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockUserRepo) Create(ctx context.Context, user *models.User) error {
	if m.users == nil {
		m.users = make(map[string]*models.User)
	}
	clone := *user
	m.users[user.ID] = &clone
	return nil
}

func (m *mockUserRepo) Update(ctx context.Context, user *models.User) error {
	clone := *user
	m.users[user.ID] = &clone
	return nil
}

func (m *mockUserRepo) Deactivate(ctx context.Context, id string) error {
	m.users[id].Active = false
	return nil
}

func (m *mockUserRepo) RevokeUserRefreshTokens(ctx context.Context, userID string) error {
	m.revoked = append(m.revoked, userID)
	return nil
}

func (m *mockUserRepo) ListAuditLogs(ctx context.Context, filter models.AuditFilter) ([]models.AuditLog, int, error) {
	m.auditArgs = filter
	return m.auditLogs, len(m.auditLogs), nil
}

func newUserServiceForTest(repo *mockUserRepo) *UserService {
	return NewUserService(repo, validator.New(), zap.NewNop())
}

func TestUserServiceList(t *testing.T) {
	repo := &mockUserRepo{listUsers: []models.User{{ID: "1", Email: "a@airwaves.fm"}}, listCount: 1}
	users, pagination, err := newUserServiceForTest(repo).List(context.Background(), models.UserFilter{Page: 1, PageSize: 10})
	require.NoError(t, err)
	assert.Len(t, users, 1)
	assert.Equal(t, 1, pagination.TotalCount)
	assert.Equal(t, 10, pagination.PageSize)
}

func TestUserServiceCreateHashesPassword(t *testing.T) {
	repo := &mockUserRepo{users: make(map[string]*models.User)}
	user, err := newUserServiceForTest(repo).Create(context.Background(), CreateUserRequest{
		Email:    "Editor@Airwaves.FM",
		FullName: "Night Editor",
		Role:     models.RoleEditor,
		Password: "supersecret",
	})
	require.NoError(t, err)
	assert.Equal(t, "editor@airwaves.fm", user.Email)
	assert.True(t, user.Active)
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(repo.users[user.ID].PasswordHash), []byte("supersecret")))
}

func TestUserServiceCreateRejectsDuplicateEmailAndUnknownRole(t *testing.T) {
	repo := &mockUserRepo{users: map[string]*models.User{"1": {ID: "1", Email: "ed@airwaves.fm"}}}
	svc := newUserServiceForTest(repo)

	_, err := svc.Create(context.Background(), CreateUserRequest{Email: "ed@airwaves.fm", FullName: "Ed", Role: models.RoleEditor, Password: "supersecret"})
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrConflict.Code, appErr.Code)

	_, err = svc.Create(context.Background(), CreateUserRequest{Email: "dj@airwaves.fm", FullName: "DJ", Role: "DJ", Password: "supersecret"})
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}

func TestUserServiceUpdateDeactivationRevokesSessions(t *testing.T) {
	repo := &mockUserRepo{users: map[string]*models.User{"2": {ID: "2", Email: "ed@airwaves.fm", FullName: "Old", Role: models.RoleEditor, Active: true}}}
	inactive := false
	user, err := newUserServiceForTest(repo).Update(context.Background(), "1", "2", UpdateUserRequest{FullName: "New", Role: models.RoleEditor, Active: &inactive})
	require.NoError(t, err)
	assert.Equal(t, "New", user.FullName)
	assert.False(t, user.Active)
	assert.Equal(t, []string{"2"}, repo.revoked)
}

func TestUserServiceGuardsOwnAccount(t *testing.T) {
	repo := &mockUserRepo{users: map[string]*models.User{"1": {ID: "1", Email: "admin@airwaves.fm", Role: models.RoleAdmin, Active: true}}}
	svc := newUserServiceForTest(repo)

	_, err := svc.Update(context.Background(), "1", "1", UpdateUserRequest{FullName: "Me", Role: models.RoleEditor})
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrForbidden.Code, appErr.Code)

	err = svc.Delete(context.Background(), "1", "1")
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrForbidden.Code, appErr.Code)

	renamed, err := svc.Update(context.Background(), "1", "1", UpdateUserRequest{FullName: "Station Admin", Role: models.RoleAdmin})
	require.NoError(t, err)
	assert.Equal(t, "Station Admin", renamed.FullName)
}

func TestUserServiceDelete(t *testing.T) {
	repo := &mockUserRepo{users: map[string]*models.User{"2": {ID: "2", Role: models.RoleEditor, Active: true}}}
	svc := newUserServiceForTest(repo)

	require.NoError(t, svc.Delete(context.Background(), "1", "2"))
	assert.False(t, repo.users["2"].Active)
	assert.Equal(t, []string{"2"}, repo.revoked)

	err := svc.Delete(context.Background(), "1", "missing")
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}

func TestUserServiceAuditTrail(t *testing.T) {
	repo := &mockUserRepo{auditLogs: []models.AuditLog{{ID: "a1", Action: models.AuditActionScheduleReplace}}}
	logs, pagination, err := newUserServiceForTest(repo).AuditTrail(context.Background(), models.AuditFilter{Resource: "schedule", Page: 1, PageSize: 50})
	require.NoError(t, err)
	assert.Len(t, logs, 1)
	assert.Equal(t, "schedule", repo.auditArgs.Resource)
	assert.Equal(t, 50, pagination.PageSize)
}
