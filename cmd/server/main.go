package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kpierre24/studio-sub001/internal/analytics"
	"github.com/kpierre24/studio-sub001/internal/cache"
	"github.com/kpierre24/studio-sub001/internal/config"
	"github.com/kpierre24/studio-sub001/internal/dashboard"
	"github.com/kpierre24/studio-sub001/internal/events"
	"github.com/kpierre24/studio-sub001/internal/exports"
	"github.com/kpierre24/studio-sub001/internal/handlers"
	"github.com/kpierre24/studio-sub001/internal/integration"
	"github.com/kpierre24/studio-sub001/internal/models"
	"github.com/kpierre24/studio-sub001/internal/realtime"
	"github.com/kpierre24/studio-sub001/internal/reports"
	"github.com/kpierre24/studio-sub001/internal/repositories/postgres"
	"github.com/kpierre24/studio-sub001/internal/utils"
	"github.com/kpierre24/studio-sub001/pkg"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		os.Exit(1)
	}

	var appLogger utils.Logger
	if cfg.Environment == "development" {
		appLogger = utils.NewDevelopmentLogger()
	} else {
		appLogger = utils.NewDefaultLogger()
	}
	slogLogger := utils.ToSlogLogger(appLogger)

	db, err := pkg.InitDatabase(cfg)
	if err != nil {
		appLogger.LogError(err, "failed to initialize database")
		os.Exit(1)
	}
	datasets := postgres.NewDatasetPostgreSQL(db)

	// Redis backs the realtime payload cache; a standalone deployment
	// falls back to the in-process cache.
	var cacheService cache.Service
	if redisClient, redisErr := pkg.NewRedisClient(cfg); redisErr != nil {
		appLogger.Warn("redis unavailable, using in-memory cache", "error", redisErr)
		cacheService = cache.NewMemoryCache()
	} else {
		cacheService = cache.NewRedisCache(redisClient, slogLogger)
	}

	publisher, err := cfg.Events.CreateEventPublisher(slogLogger)
	if err != nil {
		appLogger.LogError(err, "failed to create event publisher, using mock")
		publisher = events.NewMockEventPublisher(slogLogger)
	}
	defer func() {
		if closeErr := publisher.Close(); closeErr != nil {
			appLogger.LogError(closeErr, "failed to close event publisher")
		}
	}()

	engine := analytics.NewEngine(nil, slogLogger)
	generator := reports.NewGenerator(engine, publisher, slogLogger)
	dashboards := dashboard.NewManager(utils.NewValidator(), slogLogger)

	realtimeManager := realtime.NewManager(realtime.NewHTTPFetcher(nil), cacheService, publisher, slogLogger)
	realtimeManager.SetCacheTTL(cfg.RealtimeCacheTTL)

	exportManager := exports.NewManager(exports.NewMemoryStore(), publisher, slogLogger)
	exportManager.SetChunking(cfg.ExportChunkSize, cfg.ExportChunkDelay)

	// Scheduled exports fire against reports regenerated on demand, so
	// the runner only records the trigger here.
	scheduleRunner := exports.NewScheduleRunner(func(ctx context.Context, schedule models.ExportSchedule) error {
		appLogger.Info("scheduled export triggered", "schedule_id", schedule.ID, "report_id", schedule.ReportID)
		return nil
	}, slogLogger)
	scheduleRunner.Start()
	defer scheduleRunner.Stop()

	integrationManager := integration.NewManager(nil, slogLogger)

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(utils.LoggerMiddleware(appLogger))
	router.Use(utils.ContextLogger(appLogger))

	handlerManager := handlers.NewHandlerManager(
		generator,
		datasets,
		dashboards,
		realtimeManager,
		exportManager,
		integrationManager,
		appLogger,
	)
	handlerManager.SetupRoutes(router)

	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		appLogger.Info("starting analytics engine", "port", cfg.Port, "environment", cfg.Environment)
		if serveErr := server.ListenAndServe(); serveErr != nil && serveErr != http.ErrServerClosed {
			appLogger.LogError(serveErr, "server stopped")
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	appLogger.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if shutdownErr := server.Shutdown(ctx); shutdownErr != nil {
		appLogger.LogError(shutdownErr, "forced shutdown")
	}
}
