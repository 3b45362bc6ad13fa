package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/learner-analytics/backend/internal/metrics"
	"github.com/learner-analytics/backend/internal/pipeline"
	"github.com/learner-analytics/backend/pkg/config"
	appLogger "github.com/learner-analytics/backend/pkg/logger"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	full := flag.Bool("full", false, "refresh every source, even unchanged ones")
	dryRun := flag.Bool("dry-run", false, "run the pipeline without writing anything")
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

	metrics.Init()

	runner, err := pipeline.New(cfg)
	if err != nil {
		appLogger.Fatal("Failed to build sync pipeline", zap.Error(err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-quit
		appLogger.Info("Interrupt received, cancelling sync")
		cancel()
	}()

	result, err := runner.Run(ctx, pipeline.Options{Full: *full, DryRun: *dryRun})
	if err != nil {
		appLogger.Error("Sync failed", zap.Error(err))
		os.Exit(1)
	}

	for _, src := range result.Status.Sources {
		if src.Error != "" {
			appLogger.Warn("Source did not contribute",
				zap.String("source", src.Source),
				zap.String("reason", src.Error),
			)
		}
	}

	appLogger.Info("Sync finished",
		zap.String("run_id", result.Status.RunID),
		zap.Int("learners", result.Status.TotalRows),
		zap.Bool("dry_run", *dryRun),
	)
}
