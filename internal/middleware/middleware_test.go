package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/airwaves-fm/airwaves-api/internal/models"
	"github.com/airwaves-fm/airwaves-api/internal/service"
	appErrors "github.com/airwaves-fm/airwaves-api/pkg/errors"
)

type validatorStub struct{}

func (validatorStub) ValidateToken(token string) (*models.JWTClaims, error) {
	switch token {
	case "admin":
		return &models.JWTClaims{UserID: "u-admin", Role: models.RoleAdmin}, nil
	case "editor":
		return &models.JWTClaims{UserID: "u-editor", Role: models.RoleEditor}, nil
	case "listener":
		return &models.JWTClaims{UserID: "u-listener", Role: models.UserRole("LISTENER")}, nil
	}
	return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token")
}

func serve(router *gin.Engine, method, path, token string) *httptest.ResponseRecorder {
	req, _ := http.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestJWTAndRBAC(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.POST("/stations", JWT(validatorStub{}), RequireRoles(models.RoleAdmin, models.RoleEditor), func(c *gin.Context) {
		c.Status(http.StatusCreated)
	})

	assert.Equal(t, http.StatusUnauthorized, serve(router, http.MethodPost, "/stations", "").Code)
	assert.Equal(t, http.StatusUnauthorized, serve(router, http.MethodPost, "/stations", "bogus").Code)
	assert.Equal(t, http.StatusForbidden, serve(router, http.MethodPost, "/stations", "listener").Code)
	assert.Equal(t, http.StatusCreated, serve(router, http.MethodPost, "/stations", "editor").Code)
}

func TestOptionalJWTNeverBlocks(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/week", OptionalJWT(validatorStub{}), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"staff": IsStaff(c)})
	})

	w := serve(router, http.MethodGet, "/week", "bogus")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"staff":false}`, w.Body.String())

	w = serve(router, http.MethodGet, "/week", "admin")
	assert.JSONEq(t, `{"staff":true}`, w.Body.String())
}

type auditRecorder struct {
	logs []*models.AuditLog
	err  error
}

func (a *auditRecorder) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	a.logs = append(a.logs, log)
	return a.err
}

func TestAuditRecordsSuccessfulMutations(t *testing.T) {
	gin.SetMode(gin.TestMode)
	audit := &auditRecorder{}
	router := gin.New()
	router.PUT("/stations/:id/schedule", JWT(validatorStub{}), Audit(audit, nil, models.AuditActionScheduleReplace, "schedule"), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	router.DELETE("/stations/:id", JWT(validatorStub{}), Audit(audit, nil, models.AuditActionDelete, "station"), func(c *gin.Context) {
		c.Status(http.StatusNotFound)
	})

	serve(router, http.MethodPut, "/stations/st-1/schedule", "editor")
	serve(router, http.MethodDelete, "/stations/st-9", "admin")

	require.Len(t, audit.logs, 1)
	log := audit.logs[0]
	assert.Equal(t, models.AuditActionScheduleReplace, log.Action)
	require.NotNil(t, log.UserID)
	assert.Equal(t, "u-editor", *log.UserID)
	require.NotNil(t, log.ResourceID)
	assert.Equal(t, "st-1", *log.ResourceID)
}

func TestAuditWriteFailureDoesNotChangeResponse(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.POST("/oaps", Audit(&auditRecorder{err: errors.New("db down")}, nil, models.AuditActionCreate, "oap"), func(c *gin.Context) {
		c.Status(http.StatusCreated)
	})

	assert.Equal(t, http.StatusCreated, serve(router, http.MethodPost, "/oaps", "").Code)
}

type responseCacheStub struct {
	items map[string][]byte
	ttl   time.Duration
}

func (r *responseCacheStub) Enabled() bool { return true }

func (r *responseCacheStub) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	raw, ok := r.items[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(raw, dest)
}

func (r *responseCacheStub) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	r.items[key] = raw
	r.ttl = ttl
	return nil
}

func TestCacheGETServesSecondRequestFromCache(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cache := &responseCacheStub{items: map[string][]byte{}}
	calls := 0
	router := gin.New()
	router.GET("/stations", CacheGET(cache, "cache:", time.Minute), func(c *gin.Context) {
		calls++
		c.JSON(http.StatusOK, gin.H{"calls": calls})
	})

	first := serve(router, http.MethodGet, "/stations?page=1", "")
	assert.Equal(t, "MISS", first.Header().Get(CacheHeader))
	second := serve(router, http.MethodGet, "/stations?page=1", "")
	assert.Equal(t, "HIT", second.Header().Get(CacheHeader))
	assert.JSONEq(t, `{"calls":1}`, second.Body.String())
	assert.Equal(t, 1, calls)
	assert.Contains(t, cache.items, "cache:/stations?page=1")
	assert.Equal(t, time.Minute, cache.ttl)

	serve(router, http.MethodGet, "/stations?page=1", "admin")
	assert.Equal(t, 2, calls)
}

func TestCacheGETSkipsErrors(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cache := &responseCacheStub{items: map[string][]byte{}}
	router := gin.New()
	router.GET("/stations/:id", CacheGET(cache, "cache:", time.Minute), func(c *gin.Context) {
		c.Status(http.StatusNotFound)
	})

	serve(router, http.MethodGet, "/stations/missing", "")
	assert.Empty(t, cache.items)
}

func TestMetricsSkipsScrapeAndLabelsUnmatched(t *testing.T) {
	gin.SetMode(gin.TestMode)
	metrics := service.NewMetricsService()
	router := gin.New()
	router.Use(Metrics(metrics, "/metrics"))
	router.GET("/metrics", func(c *gin.Context) { c.Status(http.StatusOK) })
	router.GET("/stations/:id", func(c *gin.Context) { c.Status(http.StatusOK) })

	serve(router, http.MethodGet, "/metrics", "")
	assert.Equal(t, uint64(0), metrics.Snapshot().RequestsTotal)

	serve(router, http.MethodGet, "/stations/st-1", "")
	serve(router, http.MethodGet, "/wp-login.php", "")
	assert.Equal(t, uint64(2), metrics.Snapshot().RequestsTotal)
}
