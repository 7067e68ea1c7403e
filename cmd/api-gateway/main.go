package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/airwaves-fm/airwaves-api/api/swagger"
	"github.com/airwaves-fm/airwaves-api/internal/handler"
	internalmiddleware "github.com/airwaves-fm/airwaves-api/internal/middleware"
	"github.com/airwaves-fm/airwaves-api/internal/repository"
	"github.com/airwaves-fm/airwaves-api/internal/service"
	"github.com/airwaves-fm/airwaves-api/pkg/cache"
	"github.com/airwaves-fm/airwaves-api/pkg/config"
	"github.com/airwaves-fm/airwaves-api/pkg/database"
	"github.com/airwaves-fm/airwaves-api/pkg/export"
	"github.com/airwaves-fm/airwaves-api/pkg/jobs"
	"github.com/airwaves-fm/airwaves-api/pkg/logger"
	"github.com/airwaves-fm/airwaves-api/pkg/markdown"
	corsmiddleware "github.com/airwaves-fm/airwaves-api/pkg/middleware/cors"
	reqidmiddleware "github.com/airwaves-fm/airwaves-api/pkg/middleware/requestid"
	"github.com/airwaves-fm/airwaves-api/pkg/storage"
)

// @title Airwaves API
// @version 1.0.0
// @description Multi-station radio CMS backend
// @BasePath /api/v1
// @schemes http https
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Warn("redis unavailable, caching disabled", zap.Error(err))
	} else {
		defer redisClient.Close()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	metrics := service.NewMetricsService()
	validate := validator.New()

	userRepo := repository.NewUserRepository(db)
	stationRepo := repository.NewStationRepository(db)
	scheduleRepo := repository.NewScheduleRepository(db)
	oapRepo := repository.NewOAPRepository(db)
	postRepo := repository.NewPostRepository(db)
	cacheSvc := service.NewCacheService(repository.NewCacheRepository(redisClient, logr), metrics, cfg.Schedule.SnapshotTTL, logr, redisClient != nil)

	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
	})
	if created, err := authSvc.EnsureAdmin(ctx, cfg.Admin.Email, cfg.Admin.Password, cfg.Admin.FullName); err != nil {
		logr.Fatal("failed to bootstrap admin", zap.Error(err))
	} else if created {
		logr.Info("admin account created", zap.String("email", cfg.Admin.Email))
	}

	exportFiles, err := storage.NewLocalStorage(cfg.Exports.StorageDir)
	if err != nil {
		logr.Fatal("failed to prepare export storage", zap.Error(err))
	}
	exportSvc := service.NewExportService(
		exportFiles,
		storage.NewSignedURLSigner(cfg.Exports.SignedURLSecret, cfg.Exports.SignedURLTTL),
		service.ExportConfig{APIPrefix: cfg.APIPrefix, ResultTTL: cfg.Exports.SignedURLTTL},
		logr, nil, nil,
	)

	mediaStore, err := newMediaStore(cfg.Storage)
	if err != nil {
		logr.Fatal("failed to prepare media storage", zap.Error(err))
	}

	jobRouter := jobs.NewRouter()
	queue := jobs.NewQueue("background", jobRouter.Dispatch, jobs.QueueConfig{
		Workers:    cfg.Workers.Concurrency,
		BufferSize: cfg.Workers.QueueSize,
		MaxRetries: cfg.Workers.Retries,
		Logger:     logr,
		OnResult:   metrics.RecordJob,
	})

	stationSvc := service.NewStationService(stationRepo, cacheSvc, validate, logr)
	scheduleSvc := service.NewScheduleService(
		scheduleRepo, stationRepo, cacheSvc, metrics, exportSvc,
		export.NewICSExporter("-//Airwaves//Weekly Schedule//EN"),
		queue, validate, logr,
		service.ScheduleServiceConfig{DefaultTimezone: cfg.Schedule.DefaultTimezone, SnapshotTTL: cfg.Schedule.SnapshotTTL},
	)
	oapSvc := service.NewOAPService(oapRepo, cacheSvc, validate, logr)
	userSvc := service.NewUserService(userRepo, validate, logr)
	postSvc := service.NewPostService(postRepo, markdown.NewRenderer(), cacheSvc, validate, logr)
	mediaSvc := service.NewMediaService(mediaStore, service.MediaConfig{MaxSize: cfg.Storage.MaxUploadSize, AllowedTypes: cfg.Storage.AllowedMIMEs}, logr)

	jobRouter.Handle(service.JobScheduleRewarm, scheduleSvc.HandleRewarm)
	jobRouter.Handle(service.JobExportCleanup, exportSvc.HandleCleanup)
	queue.Start(ctx)
	defer queue.Stop()
	go scheduleCleanup(ctx, queue, cfg.Exports.CleanupInterval, logr)

	metricsHandler := handler.NewMetricsHandler(metrics, readinessChecks(db, redisClient))

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(internalmiddleware.Metrics(metrics, "/metrics", "/health", "/ready"))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}
	if cfg.Storage.Driver != config.StorageDriverS3 && strings.HasPrefix(cfg.Storage.PublicBaseURL, "/") {
		r.Static(cfg.Storage.PublicBaseURL, cfg.Storage.LocalDir)
	}

	var responseCache internalmiddleware.ResponseCache
	if cfg.Cache.Enabled {
		responseCache = cacheSvc
	}
	handler.Register(r.Group(cfg.APIPrefix), handler.Handlers{
		Auth:     handler.NewAuthHandler(authSvc),
		Stations: handler.NewStationHandler(stationSvc),
		Schedule: handler.NewScheduleHandler(scheduleSvc),
		OAPs:     handler.NewOAPHandler(oapSvc),
		Posts:    handler.NewPostHandler(postSvc),
		Media:    handler.NewMediaHandler(mediaSvc),
		Exports:  handler.NewExportHandler(exportSvc),
		Users:    handler.NewUserHandler(userSvc),
		Metrics:  metricsHandler,
	}, handler.RouteOptions{
		Tokens:   authSvc,
		Audit:    userRepo,
		Cache:    responseCache,
		CacheTTL: cfg.Cache.DefaultTTL,
		Logger:   logr,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
}

func newMediaStore(cfg config.StorageConfig) (storage.MediaStore, error) {
	if cfg.Driver == config.StorageDriverS3 {
		return storage.NewS3Store(storage.S3Options{
			Bucket:    cfg.S3.Bucket,
			Region:    cfg.S3.Region,
			Endpoint:  cfg.S3.Endpoint,
			AccessKey: cfg.S3.AccessKey,
			SecretKey: cfg.S3.SecretKey,
			CDNURL:    cfg.S3.CDNURL,
		})
	}
	files, err := storage.NewLocalStorage(cfg.LocalDir)
	if err != nil {
		return nil, err
	}
	return storage.NewLocalMediaStore(files, cfg.PublicBaseURL), nil
}

func readinessChecks(db *sqlx.DB, client *redis.Client) map[string]handler.ReadinessCheck {
	checks := map[string]handler.ReadinessCheck{
		"postgres": db.PingContext,
	}
	if client != nil {
		checks["redis"] = func(ctx context.Context) error { return client.Ping(ctx).Err() }
	}
	return checks
}

// scheduleCleanup enqueues an export sweep every interval until ctx ends.
func scheduleCleanup(ctx context.Context, queue *jobs.Queue, interval time.Duration, logr *zap.Logger) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			job := jobs.Job{ID: fmt.Sprintf("cleanup-%d", now.Unix()), Type: service.JobExportCleanup, Enqueued: now}
			if err := queue.Enqueue(job); err != nil {
				logr.Warn("failed to enqueue export cleanup", zap.Error(err))
			}
		}
	}
}
