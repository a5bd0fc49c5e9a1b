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

	_ "github.com/noah-isme/school-vax-api/api/swagger"
	"github.com/noah-isme/school-vax-api/internal/handler"
	"github.com/noah-isme/school-vax-api/internal/middleware"
	"github.com/noah-isme/school-vax-api/internal/repository"
	"github.com/noah-isme/school-vax-api/internal/service"
	"github.com/noah-isme/school-vax-api/pkg/cache"
	"github.com/noah-isme/school-vax-api/pkg/config"
	"github.com/noah-isme/school-vax-api/pkg/database"
	"github.com/noah-isme/school-vax-api/pkg/jobs"
	"github.com/noah-isme/school-vax-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/school-vax-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/school-vax-api/pkg/middleware/requestid"
	"github.com/noah-isme/school-vax-api/pkg/storage"
)

// @title School Vaccination Portal API
// @version 1.0.0
// @description Administration API for school vaccination drives
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

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	validate := validator.New()
	metricsSvc := service.NewMetricsService()

	// Redis is optional; without it the dashboard is computed per request.
	var cacheSvc *service.CacheService
	if cfg.Dashboard.CacheEnabled {
		redisClient, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Sugar().Warnw("redis unavailable, dashboard cache disabled", "error", err)
		} else {
			defer redisClient.Close()
			cacheRepo := repository.NewCacheRepository(redisClient, logr)
			cacheSvc = service.NewCacheService(cacheRepo, metricsSvc, cfg.Dashboard.CacheTTL, logr, true)
		}
	}

	studentRepo := repository.NewStudentRepository(db)
	driveRepo := repository.NewDriveRepository(db)
	vaccinationRepo := repository.NewVaccinationRepository(db)
	reportRepo := repository.NewReportRepository(db)
	exportRepo := repository.NewExportRepository(db)

	authSvc := service.NewAuthService(validate, logr, service.AuthConfig{
		AdminUsername:     cfg.Auth.AdminUsername,
		AdminPasswordHash: cfg.Auth.AdminPasswordHash,
		JWTSecret:         cfg.Auth.JWTSecret,
		TokenExpiry:       cfg.Auth.TokenExpiry,
	})
	studentSvc := service.NewStudentService(studentRepo, cacheSvc, validate, logr)
	driveSvc := service.NewDriveService(driveRepo, vaccinationRepo, cacheSvc, validate, logr)
	vaccinationSvc := service.NewVaccinationService(vaccinationRepo, studentRepo, driveRepo, cacheSvc, validate, logr)
	reportSvc := service.NewReportService(reportRepo, logr)
	dashboardSvc := service.NewDashboardService(reportRepo, cacheSvc, metricsSvc, cfg.Dashboard.CacheTTL, logr)

	fileStore, err := storage.NewLocalStorage(cfg.Exports.StorageDir)
	if err != nil {
		logr.Sugar().Fatalw("failed to init export storage", "error", err)
	}
	signer := storage.NewSignedURLSigner(cfg.Exports.SignedURLSecret, cfg.Exports.SignedURLTTL)
	exportSvc := service.NewExportService(reportRepo, fileStore, signer, service.ExportConfig{
		APIPrefix: cfg.APIPrefix,
		ResultTTL: cfg.Exports.SignedURLTTL,
	}, logr, nil, nil)
	exportWorker := service.NewExportWorker(exportRepo, exportSvc, cfg.Exports.WorkerRetries, logr)
	exportQueue := jobs.NewQueue("exports", exportWorker.Handle, jobs.QueueConfig{
		Workers:    cfg.Exports.WorkerConcurrency,
		MaxRetries: cfg.Exports.WorkerRetries,
		Logger:     logr,
	})
	exportQueue.Start(ctx)
	defer exportQueue.Stop()
	exportJobSvc := service.NewExportJobService(exportRepo, exportQueue, exportSvc, logr, service.ExportJobServiceConfig{
		ResultTTL:       cfg.Exports.SignedURLTTL,
		CleanupInterval: cfg.Exports.CleanupInterval,
		MaxRetries:      cfg.Exports.WorkerRetries,
	})
	exportJobSvc.RecoverPendingJobs(ctx)
	exportJobSvc.StartCleanup(ctx)

	authHandler := handler.NewAuthHandler(authSvc)
	studentHandler := handler.NewStudentHandler(studentSvc, vaccinationSvc, cfg.Import.MaxFileSizeBytes)
	driveHandler := handler.NewDriveHandler(driveSvc)
	reportHandler := handler.NewReportHandler(reportSvc)
	dashboardHandler := handler.NewDashboardHandler(dashboardSvc)
	exportHandler := handler.NewExportHandler(exportJobSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.POST("/auth/login", authHandler.Login)
	api.GET("/export/:token", exportHandler.Download)

	protected := api.Group("")
	protected.Use(middleware.JWT(authSvc))
	{
		protected.GET("/students", studentHandler.List)
		protected.POST("/students", studentHandler.Create)
		protected.POST("/students/import", studentHandler.Import)
		protected.GET("/students/:id", studentHandler.Get)
		protected.PUT("/students/:id", studentHandler.Update)
		protected.DELETE("/students/:id", studentHandler.Delete)
		protected.POST("/students/:id/vaccinations", studentHandler.Vaccinate)

		protected.GET("/drives", driveHandler.List)
		protected.POST("/drives", driveHandler.Create)
		protected.GET("/drives/:id", driveHandler.Get)
		protected.PUT("/drives/:id", driveHandler.Update)
		protected.DELETE("/drives/:id", driveHandler.Delete)
		protected.POST("/drives/:id/cancel", driveHandler.Cancel)
		protected.POST("/drives/:id/complete", driveHandler.Complete)
		protected.GET("/drives/:id/students", driveHandler.ListStudents)

		protected.GET("/dashboard", dashboardHandler.Stats)

		protected.GET("/reports/vaccinations", reportHandler.Vaccinations)
		protected.GET("/reports/vaccines", reportHandler.Vaccines)
		protected.GET("/reports/classes", reportHandler.Classes)
		protected.GET("/reports/available-vaccines", reportHandler.AvailableVaccines)

		protected.POST("/reports/exports", exportHandler.CreateJob)
		protected.GET("/reports/exports/:id", exportHandler.Status)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{Addr: addr, Handler: r}

	go func() {
		logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Sugar().Infow("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Warnw("shutdown incomplete", "error", err)
	}
}
