package handler

import (
	"bytes"
	"context"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/airwaves-fm/airwaves-api/internal/service"
)

type routeHarness struct {
	router   *gin.Engine
	schedule *scheduleServiceStub
	stations *stationServiceStub
	posts    *postServiceStub
	media    *mediaUploaderStub
	auth     *authServiceStub
	users    *userServiceStub
	audit    *auditStub
}

func newRouteHarness(t *testing.T) *routeHarness {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "airwaves-fm_schedule.csv"), []byte("Day,Start\n"), 0o644))

	h := &routeHarness{
		schedule: &scheduleServiceStub{},
		stations: &stationServiceStub{},
		posts:    &postServiceStub{},
		media:    &mediaUploaderStub{},
		auth:     &authServiceStub{},
		users:    &userServiceStub{},
		audit:    &auditStub{},
	}
	handlers := Handlers{
		Auth:     &AuthHandler{service: h.auth},
		Stations: &StationHandler{service: h.stations},
		Schedule: &ScheduleHandler{service: h.schedule},
		OAPs:     &OAPHandler{service: oapServiceStub{}},
		Posts:    &PostHandler{service: h.posts},
		Media:    &MediaHandler{service: h.media},
		Exports:  &ExportHandler{exports: exportDownloaderStub{dir: dir}},
		Users:    &UserHandler{service: h.users},
		Metrics:  NewMetricsHandler(service.NewMetricsService(), nil),
	}

	h.router = gin.New()
	Register(h.router.Group("/api/v1"), handlers, RouteOptions{Tokens: tokenStub{}, Audit: h.audit})
	return h
}

func (h *routeHarness) do(method, path, token string, body []byte) *httptest.ResponseRecorder {
	req, _ := http.NewRequest(method, path, bytes.NewReader(body))
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	h.router.ServeHTTP(w, req)
	return w
}

func TestRoutesPublicEndpoints(t *testing.T) {
	h := newRouteHarness(t)

	cases := []struct {
		path string
		want int
	}{
		{"/api/v1/stations?page=1&limit=5", http.StatusOK},
		{"/api/v1/stations/st-1", http.StatusOK},
		{"/api/v1/stations/missing", http.StatusNotFound},
		{"/api/v1/stations/slug/airwaves-fm", http.StatusOK},
		{"/api/v1/stations/st-1/schedule/week", http.StatusOK},
		{"/api/v1/stations/st-1/now-playing", http.StatusOK},
		{"/api/v1/stations/st-1/schedule.ics", http.StatusOK},
		{"/api/v1/schedule?stationId=st-1", http.StatusOK},
		{"/api/v1/oaps", http.StatusOK},
		{"/api/v1/oaps/dj-kemi", http.StatusOK},
		{"/api/v1/posts", http.StatusOK},
		{"/api/v1/posts/festival-recap", http.StatusOK},
		{"/api/v1/export/good", http.StatusOK},
		{"/api/v1/export/forged", http.StatusUnauthorized},
	}
	for _, tc := range cases {
		w := h.do(http.MethodGet, tc.path, "", nil)
		assert.Equal(t, tc.want, w.Code, tc.path)
	}
	assert.True(t, h.posts.filter.PublishedOnly)
	assert.False(t, h.posts.includeDrafts)
}

func TestRoutesStaffEndpointsRequireToken(t *testing.T) {
	h := newRouteHarness(t)
	body := []byte(`{"name":"Airwaves FM","timezone":"UTC"}`)

	assert.Equal(t, http.StatusUnauthorized, h.do(http.MethodPost, "/api/v1/stations", "", body).Code)
	assert.Equal(t, http.StatusUnauthorized, h.do(http.MethodPost, "/api/v1/stations", "bogus", body).Code)

	w := h.do(http.MethodPost, "/api/v1/stations", "editor", body)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "Airwaves FM", h.stations.created.Name)
	assert.Equal(t, []string{"CREATE:station"}, h.audit.actions)
}

func TestRoutesStationDeleteIsAdminOnly(t *testing.T) {
	h := newRouteHarness(t)

	assert.Equal(t, http.StatusForbidden, h.do(http.MethodDelete, "/api/v1/stations/st-1", "editor", nil).Code)
	assert.Equal(t, http.StatusNoContent, h.do(http.MethodDelete, "/api/v1/stations/st-1", "admin", nil).Code)
}

func TestRoutesScheduleReplaceIsAudited(t *testing.T) {
	h := newRouteHarness(t)

	w := h.do(http.MethodPut, "/api/v1/stations/st-1/schedule", "editor", []byte(`{"slots":[]}`))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"SCHEDULE_REPLACE:schedule"}, h.audit.actions)

	w = h.do(http.MethodDelete, "/api/v1/schedule/slot-9", "editor", nil)
	require.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "slot-9", h.schedule.deleted)
}

func TestRoutesStaffSeeDrafts(t *testing.T) {
	h := newRouteHarness(t)

	h.do(http.MethodGet, "/api/v1/posts/draft", "editor", nil)
	assert.True(t, h.posts.includeDrafts)

	w := h.do(http.MethodPost, "/api/v1/posts", "editor", []byte(`{"title":"Hi","body":"x"}`))
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "u-editor", h.posts.authorID)
}

func TestRoutesAuthFlow(t *testing.T) {
	h := newRouteHarness(t)

	w := h.do(http.MethodPost, "/api/v1/auth/login", "", []byte(`{"email":"admin@airwaves.fm","password":"secret123"}`))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"accessToken":"access"`)

	w = h.do(http.MethodPost, "/api/v1/auth/login", "", []byte(`{"email":"admin@airwaves.fm","password":"nope"}`))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = h.do(http.MethodGet, "/api/v1/auth/me", "admin", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"id":"u-admin"`)

	w = h.do(http.MethodPost, "/api/v1/auth/logout", "admin", []byte(`{"refreshToken":"refresh"}`))
	require.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "refresh", h.auth.loggedOut)

	w = h.do(http.MethodPost, "/api/v1/auth/logout", "admin", []byte(`{}`))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRoutesUpload(t *testing.T) {
	h := newRouteHarness(t)

	var buf bytes.Buffer
	form := multipart.NewWriter(&buf)
	part, err := form.CreateFormFile("file", "show-art.png")
	require.NoError(t, err)
	_, _ = part.Write([]byte("\x89PNG\r\n\x1a\n"))
	require.NoError(t, form.Close())

	req, _ := http.NewRequest(http.MethodPost, "/api/v1/uploads", &buf)
	req.Header.Set("Content-Type", form.FormDataContentType())
	req.Header.Set("Authorization", "Bearer editor")
	w := httptest.NewRecorder()
	h.router.ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "show-art.png", h.media.filename)
	assert.Contains(t, w.Body.String(), "/media/uploads/2024/01/show-art.png")
	assert.Equal(t, []string{"UPLOAD:media"}, h.audit.actions)
}

func TestMetricsReady(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewMetricsHandler(nil, map[string]ReadinessCheck{
		"postgres": func(ctx context.Context) error { return nil },
		"redis":    func(ctx context.Context) error { return errors.New("connection refused") },
	})
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodGet, "/ready", nil)

	handler.Ready(c)

	require.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), `"redis":"connection refused"`)
	assert.Contains(t, w.Body.String(), `"postgres":"ok"`)
}

func TestRoutesUserManagementIsAdminOnly(t *testing.T) {
	h := newRouteHarness(t)

	assert.Equal(t, http.StatusForbidden, h.do(http.MethodGet, "/api/v1/users", "editor", nil).Code)
	assert.Equal(t, http.StatusForbidden, h.do(http.MethodGet, "/api/v1/audit-logs", "editor", nil).Code)
	assert.Equal(t, http.StatusOK, h.do(http.MethodGet, "/api/v1/users?role=EDITOR", "admin", nil).Code)

	w := h.do(http.MethodPost, "/api/v1/users", "admin", []byte(`{"email":"ed@airwaves.fm","fullName":"Ed","role":"EDITOR","password":"supersecret"}`))
	require.Equal(t, http.StatusCreated, w.Code)

	w = h.do(http.MethodPut, "/api/v1/users/u-editor", "admin", []byte(`{"fullName":"Ed","role":"ADMIN"}`))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "u-admin", h.users.actorID)
	assert.Equal(t, "u-editor", h.users.targetID)

	assert.Equal(t, http.StatusNoContent, h.do(http.MethodDelete, "/api/v1/users/u-editor", "admin", nil).Code)
	assert.Equal(t, []string{"CREATE:user", "UPDATE:user", "DELETE:user"}, h.audit.actions)

	w = h.do(http.MethodGet, "/api/v1/audit-logs?resource=schedule&action=SCHEDULE_REPLACE&page=2", "admin", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "schedule", h.users.filter.Resource)
	assert.Equal(t, 2, h.users.filter.Page)
}
