package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"

	"github.com/learner-analytics/backend/internal/api/handlers"
	"github.com/learner-analytics/backend/internal/cache"
	rediscache "github.com/learner-analytics/backend/internal/cache/redis"
	"github.com/learner-analytics/backend/internal/metrics"
	"github.com/learner-analytics/backend/internal/middleware/ratelimit"
	"github.com/learner-analytics/backend/internal/middleware/security"
	"github.com/learner-analytics/backend/internal/middleware/validation"
	"github.com/learner-analytics/backend/pkg/config"
	appLogger "github.com/learner-analytics/backend/pkg/logger"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	cfg, err := config.LoadFrom(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	err = appLogger.Init(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.OutputPath)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer appLogger.Sync()

	appLogger.Info("Starting Learner Analytics API Server")

	metrics.Init()

	snapshotPath := filepath.Join(cfg.Data.Dir, cfg.Data.SnapshotFile)
	store := cache.NewService(snapshotPath,
		time.Duration(cfg.Cache.RefreshIntervalSec)*time.Second,
		cfg.Cache.MaxListRows,
	)
	defer store.Close()

	var responses *rediscache.Client
	if cfg.Redis.Enabled {
		responses, err = rediscache.NewClient(cfg.Redis.Host, cfg.Redis.Port, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			appLogger.Warn("Redis unavailable, serving without response cache", zap.Error(err))
		} else {
			defer responses.Close()
			store.OnReload(func() {
				if err := responses.InvalidateAll(context.Background()); err != nil {
					appLogger.Warn("Failed to invalidate response cache", zap.Error(err))
				}
			})
		}
	}

	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    cfg.Server.BodyLimit,
	})

	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, X-API-Key",
		AllowMethods: "GET, POST, OPTIONS",
	}))
	app.Use(security.HeadersMiddleware(security.HeadersConfig{}))
	app.Use(validation.Middleware(validation.Config{}))
	app.Use(func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		metrics.RequestDuration.WithLabelValues(c.Route().Path).Observe(time.Since(start).Seconds())
		metrics.RequestTotal.WithLabelValues(c.Route().Path, strconv.Itoa(c.Response().StatusCode())).Inc()
		return err
	})

	limiter := ratelimit.New(ratelimit.Config{
		MaxRequestsPerMinute: cfg.Server.MaxRequestsPerMinute,
	})
	defer limiter.Stop()
	app.Use(limiter.Middleware())

	responseTTL := time.Duration(cfg.Cache.ResponseTTLSec) * time.Second
	learnerHandler := handlers.NewLearnerHandler(store, responses, responseTTL)
	statsHandler := handlers.NewStatsHandler(store, responses, responseTTL)
	adminHandler := handlers.NewAdminHandler(store, cfg.Data)

	api := app.Group("/api/v1")

	api.Get("/learners", learnerHandler.ListLearners)
	api.Get("/learners/search", learnerHandler.SearchLearners)
	api.Get("/learners/email/:email", learnerHandler.GetLearnerByEmail)
	api.Get("/learners/:id", learnerHandler.GetLearner)

	api.Get("/stats/overview", statsHandler.Overview)
	api.Get("/stats/by-region", statsHandler.ByRegion)
	api.Get("/stats/by-status", statsHandler.ByStatus)
	api.Get("/stats/by-company", statsHandler.ByCompany)
	api.Get("/stats/top", statsHandler.TopLearners)
	api.Get("/stats/roi", statsHandler.ROI)

	api.Post("/admin/query", adminHandler.RawQuery)
	api.Get("/admin/sync-status", adminHandler.SyncStatus)
	api.Get("/admin/quality-report", adminHandler.QualityReport)
	api.Post("/admin/cache/refresh", adminHandler.RefreshCache)

	app.Get("/metrics", metrics.MetricsHandler())

	api.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now().Unix(),
		})
	})

	api.Get("/ready", func(c *fiber.Ctx) error {
		if !store.Available() {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"status": "not ready",
				"reason": "analytics data not loaded",
			})
		}
		return c.JSON(fiber.Map{
			"status": "ready",
		})
	})

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	appLogger.Info("Server starting", zap.String("address", addr))

	go func() {
		if err := app.Listen(addr); err != nil {
			appLogger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	appLogger.Info("Server shutting down gracefully...")
	app.Shutdown()
	appLogger.Info("Server stopped")
}
