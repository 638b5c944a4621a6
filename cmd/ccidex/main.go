package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/climkit/ccidex/internal/catalogue"
	"github.com/climkit/ccidex/internal/config"
	"github.com/climkit/ccidex/internal/dap"
	"github.com/climkit/ccidex/internal/descxml"
	logpkg "github.com/climkit/ccidex/internal/logger"
	"github.com/climkit/ccidex/internal/metrics"
	"github.com/climkit/ccidex/internal/odd"
	"github.com/climkit/ccidex/internal/opensearch"
	"github.com/climkit/ccidex/internal/subset"
	"github.com/climkit/ccidex/internal/transport/rest"
	"github.com/climkit/ccidex/internal/version"
)

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.New(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting ccidex API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("portal_endpoint", cfg.Portal.Endpoint),
		zap.String("parent", cfg.Portal.Parent),
	)

	// Register portal-client metrics explicitly (no init())
	metrics.RegisterCoreMetrics()

	var excluded map[string]struct{}
	if cfg.Catalogue.ExclusionFile != "" {
		excluded, err = catalogue.LoadExclusions(cfg.Catalogue.ExclusionFile)
		if err != nil {
			logger.Fatal("Failed to load exclusion list", zap.Error(err))
		}
		logger.Info("Loaded exclusion list", zap.Int("entries", len(excluded)))
	}

	// Composition root: one HTTP client shared by every outbound call.
	httpc := &http.Client{}
	search := opensearch.New(cfg.Portal.Endpoint,
		opensearch.WithHTTPClient(httpc),
		opensearch.WithPageSize(cfg.Portal.PageSize),
		opensearch.WithErrorPolicy(opensearch.ErrorPolicy(cfg.Portal.ErrorPolicy)),
		opensearch.WithLogger(logger),
	)
	data := dap.NewClient(httpc)
	assembler := catalogue.NewAssembler(
		search,
		odd.NewFetcher(httpc, logger),
		descxml.NewFetcher(httpc, logger),
		data,
		cfg.Portal.Parent,
		logger,
	)
	builder := catalogue.NewBuilder(search, assembler, cfg.Portal.Parent,
		catalogue.WithExclusions(excluded),
		catalogue.WithConcurrency(cfg.Catalogue.Concurrency),
		catalogue.WithLogger(logger),
	)
	engine := subset.NewEngine(search, data, logger)

	server := rest.NewServer(builder, assembler, engine, logger)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      server.Router(),
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}
