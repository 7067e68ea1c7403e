package handler

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/airwaves-fm/airwaves-api/internal/models"
	"github.com/airwaves-fm/airwaves-api/internal/service"
	appErrors "github.com/airwaves-fm/airwaves-api/pkg/errors"
)

type scheduleServiceStub struct {
	withIssues bool
	replaced   service.ReplaceScheduleRequest
	replaceErr error
	format     service.ExportFormat
	deleted    string
}

func (s *scheduleServiceStub) List(ctx context.Context, stationID string) ([]models.ScheduleSlot, error) {
	if stationID != "st-1" {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "station not found")
	}
	return []models.ScheduleSlot{{ID: "slot-1", StationID: stationID, ShowTitle: "Breakfast Show", StartTime: "06:00", EndTime: "11:00", Weekday: 1}}, nil
}

func (s *scheduleServiceStub) Week(ctx context.Context, stationID string, withIssues bool) (*service.ScheduleWeek, error) {
	s.withIssues = withIssues
	return &service.ScheduleWeek{StationID: stationID, Timezone: "UTC"}, nil
}

func (s *scheduleServiceStub) NowPlaying(ctx context.Context, stationID string) (*service.NowPlaying, error) {
	return &service.NowPlaying{StationID: stationID, Timezone: "UTC", StartsInSeconds: 90}, nil
}

func (s *scheduleServiceStub) Validate(ctx context.Context, stationID string, req service.ReplaceScheduleRequest) (*service.ScheduleValidation, error) {
	return &service.ScheduleValidation{Valid: true}, nil
}

func (s *scheduleServiceStub) Replace(ctx context.Context, stationID string, req service.ReplaceScheduleRequest) ([]models.ScheduleSlot, error) {
	s.replaced = req
	if s.replaceErr != nil {
		return nil, s.replaceErr
	}
	return []models.ScheduleSlot{}, nil
}

func (s *scheduleServiceStub) Delete(ctx context.Context, slotID string) error {
	s.deleted = slotID
	return nil
}

func (s *scheduleServiceStub) ICS(ctx context.Context, stationID string) ([]byte, error) {
	return []byte("BEGIN:VCALENDAR\r\nEND:VCALENDAR\r\n"), nil
}

func (s *scheduleServiceStub) Export(ctx context.Context, stationID string, format service.ExportFormat) (*service.ExportResult, error) {
	s.format = format
	return &service.ExportResult{Token: "tok", URL: "/api/v1/export/tok", Format: format}, nil
}

type stationServiceStub struct {
	created service.StationRequest
}

func (s *stationServiceStub) List(ctx context.Context, filter models.StationFilter) ([]models.Station, *models.Pagination, error) {
	return []models.Station{{ID: "st-1", Slug: "airwaves-fm"}}, models.NewPagination(filter.Page, filter.PageSize, 1), nil
}

func (s *stationServiceStub) Get(ctx context.Context, id string) (*models.Station, error) {
	if id != "st-1" {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "station not found")
	}
	return &models.Station{ID: id, Slug: "airwaves-fm"}, nil
}

func (s *stationServiceStub) GetBySlug(ctx context.Context, slug string) (*models.Station, error) {
	return &models.Station{ID: "st-1", Slug: slug}, nil
}

func (s *stationServiceStub) Create(ctx context.Context, req service.StationRequest) (*models.Station, error) {
	s.created = req
	return &models.Station{ID: "st-2", Name: req.Name}, nil
}

func (s *stationServiceStub) Update(ctx context.Context, id string, req service.StationRequest) (*models.Station, error) {
	return &models.Station{ID: id, Name: req.Name}, nil
}

func (s *stationServiceStub) Delete(ctx context.Context, id string) error { return nil }

type oapServiceStub struct{}

func (oapServiceStub) List(ctx context.Context, filter models.OAPFilter) ([]models.OAP, *models.Pagination, error) {
	return []models.OAP{}, models.NewPagination(1, 20, 0), nil
}

func (oapServiceStub) Get(ctx context.Context, idOrSlug string) (*models.OAP, error) {
	return &models.OAP{ID: "oap-1", Slug: idOrSlug}, nil
}

func (oapServiceStub) Create(ctx context.Context, req service.OAPRequest) (*models.OAP, error) {
	return &models.OAP{ID: "oap-1", Name: req.Name}, nil
}

func (oapServiceStub) Update(ctx context.Context, id string, req service.OAPRequest) (*models.OAP, error) {
	return &models.OAP{ID: id, Name: req.Name}, nil
}

func (oapServiceStub) Delete(ctx context.Context, id string) error { return nil }

type postServiceStub struct {
	filter        models.PostFilter
	includeDrafts bool
	authorID      string
}

func (s *postServiceStub) List(ctx context.Context, filter models.PostFilter) ([]models.Post, *models.Pagination, error) {
	s.filter = filter
	return []models.Post{}, models.NewPagination(filter.Page, filter.PageSize, 0), nil
}

func (s *postServiceStub) GetBySlug(ctx context.Context, slug string, includeDrafts bool) (*models.Post, error) {
	s.includeDrafts = includeDrafts
	return &models.Post{ID: "p1", Slug: slug, HTML: "<p>hi</p>"}, nil
}

func (s *postServiceStub) Create(ctx context.Context, authorID string, req service.PostRequest) (*models.Post, error) {
	s.authorID = authorID
	return &models.Post{ID: "p1", AuthorID: authorID, Title: req.Title}, nil
}

func (s *postServiceStub) Update(ctx context.Context, id string, req service.PostRequest) (*models.Post, error) {
	return &models.Post{ID: id, Title: req.Title}, nil
}

func (s *postServiceStub) Delete(ctx context.Context, id string) error { return nil }

type mediaUploaderStub struct {
	filename string
	body     []byte
}

func (m *mediaUploaderStub) Upload(ctx context.Context, filename string, size int64, body io.ReadSeeker) (*models.MediaUpload, error) {
	raw, err := io.ReadAll(body)
	if err != nil {
		return nil, err
	}
	m.filename, m.body = filename, raw
	return &models.MediaUpload{Key: "uploads/2024/01/" + filename, URL: "/media/uploads/2024/01/" + filename, Size: size}, nil
}

type exportDownloaderStub struct {
	dir string
}

func (e exportDownloaderStub) ParseToken(token string, allowExpired bool) (string, string, time.Time, error) {
	if token != "good" {
		return "", "", time.Time{}, appErrors.Clone(appErrors.ErrUnauthorized, "bad token")
	}
	return "st-1", "airwaves-fm_schedule.csv", time.Now().Add(time.Hour), nil
}

func (e exportDownloaderStub) Open(relPath string) (*os.File, error) {
	return os.Open(filepath.Join(e.dir, relPath))
}

type authServiceStub struct {
	loggedOut string
}

func (a *authServiceStub) Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error) {
	if req.Password != "secret123" {
		return nil, appErrors.ErrInvalidCredentials
	}
	return &models.LoginResponse{AccessToken: "access", RefreshToken: "refresh"}, nil
}

func (a *authServiceStub) RefreshToken(ctx context.Context, req models.RefreshTokenRequest) (*models.RefreshTokenResponse, error) {
	return &models.RefreshTokenResponse{AccessToken: "access-2", RefreshToken: "refresh-2"}, nil
}

func (a *authServiceStub) Logout(ctx context.Context, refreshToken, userID, ip, userAgent string) error {
	a.loggedOut = refreshToken
	return nil
}

func (a *authServiceStub) Me(ctx context.Context, userID string) (*models.UserInfo, error) {
	return &models.UserInfo{ID: userID, Role: models.RoleAdmin}, nil
}

func (a *authServiceStub) ChangePassword(ctx context.Context, userID string, req models.ChangePasswordRequest) error {
	return nil
}

type tokenStub struct{}

func (tokenStub) ValidateToken(token string) (*models.JWTClaims, error) {
	switch token {
	case "admin":
		return &models.JWTClaims{UserID: "u-admin", Role: models.RoleAdmin}, nil
	case "editor":
		return &models.JWTClaims{UserID: "u-editor", Role: models.RoleEditor}, nil
	}
	return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token")
}

type auditStub struct {
	actions []string
}

func (a *auditStub) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	a.actions = append(a.actions, log.Action+":"+log.Resource)
	return nil
}

type userServiceStub struct {
	actorID  string
	targetID string
	filter   models.AuditFilter
}

func (u *userServiceStub) List(ctx context.Context, filter models.UserFilter) ([]models.User, *models.Pagination, error) {
	return []models.User{{ID: "u-editor", Role: models.RoleEditor}}, models.NewPagination(filter.Page, filter.PageSize, 1), nil
}

func (u *userServiceStub) Get(ctx context.Context, id string) (*models.User, error) {
	return &models.User{ID: id}, nil
}

func (u *userServiceStub) Create(ctx context.Context, req service.CreateUserRequest) (*models.User, error) {
	return &models.User{ID: "u-new", Email: req.Email, Role: req.Role}, nil
}

func (u *userServiceStub) Update(ctx context.Context, actorID, id string, req service.UpdateUserRequest) (*models.User, error) {
	u.actorID, u.targetID = actorID, id
	return &models.User{ID: id, Role: req.Role}, nil
}

func (u *userServiceStub) Delete(ctx context.Context, actorID, id string) error {
	u.actorID, u.targetID = actorID, id
	return nil
}

func (u *userServiceStub) AuditTrail(ctx context.Context, filter models.AuditFilter) ([]models.AuditLog, *models.Pagination, error) {
	u.filter = filter
	return []models.AuditLog{}, models.NewPagination(filter.Page, filter.PageSize, 0), nil
}
