// Command aggregator runs one pass of the daily broker-summary pipeline:
// it discovers transaction day files under the input prefix, aggregates
// them per broker and per stock for every trade type, and writes one CSV
// artifact per pivot entity.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"google.golang.org/api/option"

	"brokersum/internal/blobstore"
	"brokersum/internal/cache"
	"brokersum/internal/config"
	"brokersum/internal/infrastructure"
	"brokersum/internal/pipeline"
)

func main() {
	configFile := flag.String("config", "", "path to optional YAML config file")
	tracing := flag.Bool("tracing", false, "emit trace spans to stdout")
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := infrastructure.InitLogger(cfg.Logging)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if *tracing {
		shutdown, err := infrastructure.InitTracing(ctx, os.Stdout)
		if err != nil {
			logger.Error("Failed to initialize tracing", slog.String("error", err.Error()))
			os.Exit(1)
		}
		defer func() {
			if err := shutdown(context.Background()); err != nil {
				logger.Warn("Trace shutdown failed", slog.String("error", err.Error()))
			}
		}()
	}

	store, err := buildStore(ctx, cfg.Storage, logger)
	if err != nil {
		logger.Error("Failed to initialize storage backend",
			slog.String("backend", cfg.Storage.Backend),
			slog.String("error", err.Error()))
		os.Exit(1)
	}

	metrics := infrastructure.NewMetrics(prometheus.DefaultRegisterer)
	contentCache := cache.New(store, cfg.Cache, logger, metrics)
	orchestrator := pipeline.New(store, contentCache, nil, logger, metrics,
		pipeline.ConfigFromApp(cfg.Pipeline))

	// First signal requests an advisory stop; the run finishes the current
	// batch. A second signal aborts outright.
	sigs := make(chan os.Signal, 2)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigs
		logger.Info("Stop requested, finishing current batch")
		orchestrator.Stop()
		<-sigs
		logger.Error("Second signal received, aborting")
		cancel()
	}()

	result, err := orchestrator.Run(ctx)
	if err != nil {
		logger.Error("Run failed during setup",
			slog.String("run_id", result.RunID),
			slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger.Info("Run finished",
		slog.String("run_id", result.RunID),
		slog.Int("processed", result.ProcessedCount),
		slog.Int("skipped", result.SkippedCount),
		slog.Int("errors", result.ErrorCount),
		slog.Int("files_created", result.FilesCreated),
		slog.Duration("elapsed", result.Elapsed))

	if result.ErrorCount > 0 {
		os.Exit(1)
	}
}

func buildStore(ctx context.Context, cfg config.StorageConfig, logger *slog.Logger) (blobstore.Store, error) {
	switch cfg.Backend {
	case "filesystem":
		return blobstore.NewFSStore(cfg.BaseDir, logger), nil
	case "memory":
		return blobstore.NewMemStore(), nil
	case "gcs":
		var opts []option.ClientOption
		if cfg.CredentialsFile != "" {
			opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
		}
		return blobstore.NewGCSStore(ctx, cfg.Bucket, opts...)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}
