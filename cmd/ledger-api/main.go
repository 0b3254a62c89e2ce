package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/hadirq/ledger-api/api/swagger"
	"github.com/hadirq/ledger-api/internal/handler"
	"github.com/hadirq/ledger-api/internal/middleware"
	"github.com/hadirq/ledger-api/internal/notify"
	"github.com/hadirq/ledger-api/internal/repository"
	"github.com/hadirq/ledger-api/internal/service"
	"github.com/hadirq/ledger-api/internal/store"
	"github.com/hadirq/ledger-api/pkg/cache"
	"github.com/hadirq/ledger-api/pkg/config"
	"github.com/hadirq/ledger-api/pkg/database"
	"github.com/hadirq/ledger-api/pkg/logger"
	corsmiddleware "github.com/hadirq/ledger-api/pkg/middleware/cors"
	reqidmiddleware "github.com/hadirq/ledger-api/pkg/middleware/requestid"
)

// @title Attendance Ledger API
// @version 1.0.0
// @description Append-oriented school attendance ledger
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

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		logr.Sugar().Fatalw("invalid timezone", "timezone", cfg.Timezone, "error", err)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	tables := store.NewPostgresStore(db)
	if err := tables.Migrate(context.Background()); err != nil {
		logr.Sugar().Fatalw("failed to migrate store", "error", err)
	}

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to redis", "error", err)
	}
	defer redisClient.Close()

	validate := validator.New()
	metrics := service.NewMetricsService()

	cacheSvc := service.NewCacheService(
		repository.NewCacheRepository(redisClient),
		metrics, cfg.Cache.RosterTTL, logr, cfg.Cache.Enabled)

	rosterRepo := repository.NewRosterRepository(tables)
	ledgerRepo := repository.NewLedgerRepository(tables)
	settingsRepo := repository.NewSettingsRepository(tables)

	rosterSvc := service.NewRosterService(rosterRepo, cacheSvc, cfg.Cache.RosterTTL, validate, logr)
	scheduleSvc := service.NewScheduleService(settingsRepo, cacheSvc, cfg.Cache.ScheduleTTL, loc, validate, logr)
	authSvc := service.NewAuthService(cfg.Auth, logr)

	gatewayClient := notify.NewClient(cfg.Notification, logr)
	dispatcher := notify.NewDispatcher(gatewayClient, rosterSvc, cfg.Notification, loc, logr)
	notificationSvc := service.NewNotificationService(service.NotificationServiceParams{
		Queue:      repository.NewQueueRepository(redisClient, cfg.Notification.QueueCap),
		Dispatcher: dispatcher,
		Metrics:    metrics,
		FlushDelay: cfg.Notification.FlushDelay,
		Enabled:    cfg.Notification.Enabled,
		Logger:     logr,
	})

	attendanceSvc := service.NewAttendanceService(service.AttendanceServiceParams{
		Ledger:     ledgerRepo,
		Roster:     rosterSvc,
		Schedule:   scheduleSvc,
		Notifier:   notificationSvc,
		Metrics:    metrics,
		ScanWindow: cfg.Ledger.DuplicateScanRows,
		Location:   loc,
		Validator:  validate,
		Logger:     logr,
	})

	reportSvc := service.NewReportService(service.ReportServiceParams{
		Ledger:        ledgerRepo,
		Roster:        rosterSvc,
		Cache:         cacheSvc,
		Metrics:       metrics,
		ReportTTL:     cfg.Cache.ReportTTL,
		ReportScanCap: cfg.Ledger.ReportScanRows,
		TodayScanCap:  cfg.Ledger.TodayScanRows,
		Location:      loc,
		Logger:        logr,
	})

	archiveSvc := service.NewArchiveService(service.ArchiveServiceParams{
		Ledger:   ledgerRepo,
		Cache:    cacheSvc,
		Metrics:  metrics,
		Location: loc,
		Hour:     cfg.Archive.Hour,
		Logger:   logr,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if cfg.Archive.Enabled {
		archiveSvc.Start(ctx)
	}

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

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
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "store unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", gin.WrapH(metrics.Handler()))
	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	attendanceHandler := handler.NewAttendanceHandler(attendanceSvc, reportSvc)
	reportHandler := handler.NewReportHandler(reportSvc, loc)
	studentHandler := handler.NewStudentHandler(rosterSvc)
	scheduleHandler := handler.NewScheduleHandler(scheduleSvc)
	archiveHandler := handler.NewArchiveHandler(archiveSvc)
	notificationHandler := handler.NewNotificationHandler(notificationSvc)
	authHandler := handler.NewAuthHandler(authSvc)

	api := r.Group(cfg.APIPrefix)
	{
		api.POST("/auth/token", authHandler.Token)

		api.POST("/attendance/scan", attendanceHandler.Scan)
		api.GET("/attendance/today", attendanceHandler.Today)
		api.GET("/attendance/absent", attendanceHandler.Absent)

		api.GET("/reports/recap", reportHandler.Recap)

		api.GET("/students", studentHandler.List)
		api.GET("/students/cohorts", studentHandler.Cohorts)

		api.GET("/schedule", scheduleHandler.Week)
		api.GET("/schedule/today", scheduleHandler.Today)

		admin := api.Group("", middleware.JWT(authSvc))
		{
			admin.POST("/students", studentHandler.Create)
			admin.PUT("/students/:nis", studentHandler.Update)
			admin.PUT("/schedule", scheduleHandler.Save)
			admin.POST("/archive/run", archiveHandler.Run)
			admin.GET("/archive/status", archiveHandler.Status)
			admin.POST("/notifications/test", notificationHandler.TestSend)
			admin.POST("/notifications/flush", notificationHandler.Flush)
		}
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env, "timezone", cfg.Timezone)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
