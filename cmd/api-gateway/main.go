package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/campushq/mentor-portal-api/api/swagger"
	"github.com/campushq/mentor-portal-api/internal/handler"
	"github.com/campushq/mentor-portal-api/internal/middleware"
	"github.com/campushq/mentor-portal-api/internal/repository"
	"github.com/campushq/mentor-portal-api/internal/service"
	"github.com/campushq/mentor-portal-api/pkg/cache"
	"github.com/campushq/mentor-portal-api/pkg/config"
	"github.com/campushq/mentor-portal-api/pkg/database"
	"github.com/campushq/mentor-portal-api/pkg/jobs"
	"github.com/campushq/mentor-portal-api/pkg/logger"
	corsmiddleware "github.com/campushq/mentor-portal-api/pkg/middleware/cors"
	reqidmiddleware "github.com/campushq/mentor-portal-api/pkg/middleware/requestid"
)

// @title Mentor Portal API
// @version 1.0.0
// @description Request lifecycle engine for the college mentoring portal
// @BasePath /api/v1
// @schemes http

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

	metrics := service.NewMetricsService()

	var cacheSvc *service.CacheService
	if cfg.Cache.Enabled {
		redisClient, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Warn("redis unavailable, caching disabled", zap.Error(err))
		} else {
			cacheRepo := repository.NewCacheRepository(redisClient, logr)
			defer cacheRepo.Close()
			cacheSvc = service.NewCacheService(cacheRepo, metrics, cfg.Cache.TTL, logr, true)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var notifier *service.NotificationService
	if cfg.Notifications.Enabled {
		notifier = service.NewNotificationService(jobs.QueueConfig{
			Workers:    cfg.Notifications.Workers,
			MaxRetries: cfg.Notifications.MaxRetries,
			RetryDelay: cfg.Notifications.RetryDelay,
			Logger:     logr,
		}, logr)
		notifier.Start(ctx)
		defer notifier.Stop()
	}

	users := repository.NewUserRepository(db)
	requests := repository.NewRequestRepository(db)
	mentorships := repository.NewMentorshipRepository(db)
	meetings := repository.NewMeetingRepository(db)
	artifacts := repository.NewArtifactRepository(db)

	authSvc := service.NewAuthService(users, validator.New(), logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             "mentor-portal-api",
	})

	resolvers := service.NewResolverSet(mentorships, meetings, artifacts, metrics, logr)
	requestSvc := service.NewRequestService(requests, users, logr,
		service.WithResolvers(resolvers),
		service.WithRequestCache(cacheSvc),
		service.WithRequestMetrics(metrics),
		service.WithRequestNotifier(notifier),
	)
	meetingSvc := service.NewMeetingService(meetings, users, logr,
		service.WithMeetingCache(cacheSvc),
		service.WithMeetingMetrics(metrics),
		service.WithMeetingNotifier(notifier),
	)
	mentorshipSvc := service.NewMentorshipService(mentorships, logr)
	artifactSvc := service.NewArtifactService(artifacts, logr)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metrics))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	registry := &handler.Registry{
		Auth:        handler.NewAuthHandler(authSvc),
		Requests:    handler.NewRequestHandler(requestSvc),
		Meetings:    handler.NewMeetingHandler(meetingSvc),
		Mentorships: handler.NewMentorshipHandler(mentorshipSvc),
		Artifacts:   handler.NewArtifactHandler(artifactSvc),
		AuthService: authSvc,
		Users:       users,
		Logger:      logr,
	}
	registry.RegisterRoutes(r.Group(cfg.APIPrefix))

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: r,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Warn("graceful shutdown incomplete", zap.Error(err))
	}
}
