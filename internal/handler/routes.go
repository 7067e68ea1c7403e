package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/airwaves-fm/airwaves-api/internal/middleware"
	"github.com/airwaves-fm/airwaves-api/internal/models"
	"github.com/airwaves-fm/airwaves-api/internal/service"
)

// Handlers bundles every API handler mounted under the API prefix.
type Handlers struct {
	Auth     *AuthHandler
	Stations *StationHandler
	Schedule *ScheduleHandler
	OAPs     *OAPHandler
	Posts    *PostHandler
	Media    *MediaHandler
	Exports  *ExportHandler
	Users    *UserHandler
	Metrics  *MetricsHandler
}

// RouteOptions carries the collaborators shared by the route middleware.
type RouteOptions struct {
	Tokens   middleware.TokenValidator
	Audit    middleware.AuditWriter
	Cache    middleware.ResponseCache
	CacheTTL time.Duration
	Logger   *zap.Logger
}

// Register mounts public and staff routes on api.
func Register(api *gin.RouterGroup, h Handlers, opts RouteOptions) {
	optional := middleware.OptionalJWT(opts.Tokens)
	cached := middleware.CacheGET(opts.Cache, service.ResponseCachePrefix, opts.CacheTTL)
	audit := func(action, resource string) gin.HandlerFunc {
		return middleware.Audit(opts.Audit, opts.Logger, action, resource)
	}

	auth := api.Group("/auth")
	auth.POST("/login", h.Auth.Login)
	auth.POST("/refresh", h.Auth.Refresh)

	api.GET("/stations", cached, h.Stations.List)
	api.GET("/stations/slug/:slug", cached, h.Stations.GetBySlug)
	api.GET("/stations/:id", cached, h.Stations.Get)
	api.GET("/stations/:id/schedule/week", optional, h.Schedule.Week)
	api.GET("/stations/:id/now-playing", h.Schedule.NowPlaying)
	api.GET("/stations/:id/schedule.ics", h.Schedule.ICS)
	api.GET("/schedule", h.Schedule.List)
	api.GET("/oaps", cached, h.OAPs.List)
	api.GET("/oaps/:id", cached, h.OAPs.Get)
	api.GET("/posts", cached, optional, h.Posts.List)
	api.GET("/posts/:slug", cached, optional, h.Posts.Get)
	api.GET("/export/:token", h.Exports.Download)

	secured := api.Group("")
	secured.Use(middleware.JWT(opts.Tokens))
	secured.GET("/auth/me", h.Auth.Me)
	secured.POST("/auth/logout", h.Auth.Logout)
	secured.POST("/auth/change-password", h.Auth.ChangePassword)

	staff := secured.Group("")
	staff.Use(middleware.RequireRoles(models.RoleAdmin, models.RoleEditor))

	staff.POST("/stations", audit(models.AuditActionCreate, "station"), h.Stations.Create)
	staff.PUT("/stations/:id", audit(models.AuditActionUpdate, "station"), h.Stations.Update)
	staff.DELETE("/stations/:id", middleware.RequireRoles(models.RoleAdmin), audit(models.AuditActionDelete, "station"), h.Stations.Delete)

	staff.PUT("/stations/:id/schedule", audit(models.AuditActionScheduleReplace, "schedule"), h.Schedule.Replace)
	staff.POST("/stations/:id/schedule/validate", h.Schedule.Validate)
	staff.POST("/stations/:id/schedule/export", h.Schedule.Export)
	staff.DELETE("/schedule/:id", audit(models.AuditActionDelete, "schedule_slot"), h.Schedule.Delete)

	staff.POST("/oaps", audit(models.AuditActionCreate, "oap"), h.OAPs.Create)
	staff.PUT("/oaps/:id", audit(models.AuditActionUpdate, "oap"), h.OAPs.Update)
	staff.DELETE("/oaps/:id", audit(models.AuditActionDelete, "oap"), h.OAPs.Delete)

	staff.POST("/posts", audit(models.AuditActionCreate, "post"), h.Posts.Create)
	staff.PUT("/posts/:id", audit(models.AuditActionUpdate, "post"), h.Posts.Update)
	staff.DELETE("/posts/:id", audit(models.AuditActionDelete, "post"), h.Posts.Delete)

	staff.POST("/uploads", audit(models.AuditActionUpload, "media"), h.Media.Upload)

	admin := secured.Group("")
	admin.Use(middleware.RequireRoles(models.RoleAdmin))
	admin.GET("/metrics/summary", h.Metrics.Snapshot)
	admin.GET("/audit-logs", h.Users.AuditLogs)
	admin.GET("/users", h.Users.List)
	admin.GET("/users/:id", h.Users.Get)
	admin.POST("/users", audit(models.AuditActionCreate, "user"), h.Users.Create)
	admin.PUT("/users/:id", audit(models.AuditActionUpdate, "user"), h.Users.Update)
	admin.DELETE("/users/:id", audit(models.AuditActionDelete, "user"), h.Users.Delete)
}
