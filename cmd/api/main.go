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

	_ "github.com/rosterly/staffing-api/api/swagger"
	"github.com/rosterly/staffing-api/internal/handler"
	"github.com/rosterly/staffing-api/internal/middleware"
	"github.com/rosterly/staffing-api/internal/repository"
	"github.com/rosterly/staffing-api/internal/service"
	"github.com/rosterly/staffing-api/pkg/cache"
	"github.com/rosterly/staffing-api/pkg/config"
	"github.com/rosterly/staffing-api/pkg/database"
	"github.com/rosterly/staffing-api/pkg/jobs"
	"github.com/rosterly/staffing-api/pkg/logger"
	"github.com/rosterly/staffing-api/pkg/mailer"
	corsmiddleware "github.com/rosterly/staffing-api/pkg/middleware/cors"
	reqidmiddleware "github.com/rosterly/staffing-api/pkg/middleware/requestid"
)

// @title Staffing API
// @version 1.0.0
// @description Teaching staff scheduling, substitution and workload service
// @BasePath /api/v1
// @schemes http
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

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer db.Close()

	metricsSvc := service.NewMetricsService()

	var cacheSvc *service.CacheService
	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Warn("redis unavailable, stats caching disabled", zap.Error(err))
	} else {
		defer redisClient.Close()
		cacheRepo := repository.NewCacheRepository(redisClient, logr)
		cacheSvc = service.NewCacheService(cacheRepo, metricsSvc, cfg.Stats.CacheTTL, logr, cfg.Stats.CacheEnabled)
	}

	validate := validator.New()

	userRepo := repository.NewUserRepository(db)
	teacherRepo := repository.NewTeacherRepository(db)
	teacherLevelRepo := repository.NewTeacherLevelRepository(db)
	subjectRepo := repository.NewSubjectRepository(db)
	scheduleRepo := repository.NewFixedScheduleRepository(db)
	classRepo := repository.NewAdHocClassRepository(db)
	workShiftRepo := repository.NewWorkShiftRepository(db)

	var outbound mailer.Mailer = mailer.Noop{}
	if cfg.Notify.Enabled && cfg.Notify.SendgridAPIKey != "" {
		outbound = mailer.NewSendgrid(cfg.Notify.SendgridAPIKey, cfg.Notify.FromName, cfg.Notify.FromEmail)
	}
	notifications := service.NewNotificationService(outbound, jobs.QueueConfig{
		Workers:    cfg.Notify.WorkerConcurrency,
		MaxRetries: cfg.Notify.WorkerRetries,
		Logger:     logr,
	}, logr)
	notifications.Start(context.Background())
	defer notifications.Stop()

	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             "staffing-api",
	})
	userSvc := service.NewUserService(userRepo, validate, logr)
	teacherSvc := service.NewTeacherService(teacherRepo, teacherLevelRepo, validate, logr)
	subjectSvc := service.NewSubjectService(subjectRepo, validate, logr)
	availabilitySvc := service.NewAvailabilityService(scheduleRepo, classRepo, cfg.Availability.DayStart, cfg.Availability.DayEnd, logr)
	workloadSvc := service.NewWorkloadService(teacherRepo, scheduleRepo, classRepo, cacheSvc, cfg.Stats.CacheTTL, logr)
	scheduleSvc := service.NewFixedScheduleService(scheduleRepo, teacherRepo, availabilitySvc, workloadSvc, notifications, validate, logr)
	classSvc := service.NewAdHocClassService(classRepo, workloadSvc, validate, logr)
	allocationSvc := service.NewAllocationService(teacherRepo, teacherLevelRepo, classRepo, availabilitySvc, workloadSvc, notifications, logr)
	importSvc := service.NewImportService(classSvc, logr)
	exportSvc := service.NewReportExportService(workloadSvc, nil, nil, logr)
	workShiftSvc := service.NewWorkShiftService(workShiftRepo, validate, logr)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.WithResponseMeta())
	r.Use(middleware.Metrics(metricsSvc))

	handler.RegisterRoutes(r, cfg.APIPrefix, handler.Handlers{
		Auth:       handler.NewAuthHandler(authSvc),
		Users:      handler.NewUserHandler(userSvc),
		Teachers:   handler.NewTeacherHandler(teacherSvc, availabilitySvc),
		Subjects:   handler.NewSubjectHandler(subjectSvc),
		Schedules:  handler.NewScheduleHandler(scheduleSvc),
		Classes:    handler.NewClassHandler(classSvc, allocationSvc, importSvc),
		Stats:      handler.NewStatsHandler(workloadSvc, exportSvc),
		WorkShifts: handler.NewWorkShiftHandler(workShiftSvc),
		Metrics:    handler.NewMetricsHandler(metricsSvc),
	}, authSvc)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: r,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logr.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.Env))
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
