// bomd is the extraction service daemon: it stores construction documents,
// runs extraction passes over them, and serves facts, rollups, and XLSX
// exports over HTTP.
package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/stroydoc/bom-tracker/internal/common"
	"github.com/stroydoc/bom-tracker/internal/export"
	"github.com/stroydoc/bom-tracker/internal/extraction"
	"github.com/stroydoc/bom-tracker/internal/llm"
	"github.com/stroydoc/bom-tracker/internal/llm/openai"
	"github.com/stroydoc/bom-tracker/internal/parser"
	"github.com/stroydoc/bom-tracker/internal/pipeline"
	"github.com/stroydoc/bom-tracker/internal/repository"
	"github.com/stroydoc/bom-tracker/internal/server"
)

func main() {
	configPath := flag.String("config", "", "optional YAML config file overlaying env vars")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg, err := loadConfig(*configPath)
	if err != nil {
		logger.Error("config load failed", "error", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		logger.Error("config invalid", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := repository.Open(ctx, repository.Config{
		Driver:           cfg.Database.Driver,
		DSN:              cfg.Database.DSN,
		MaxConns:         cfg.Database.MaxConns,
		MinConns:         cfg.Database.MinConns,
		MaxConnLifetime:  cfg.Database.MaxConnLifetime,
		MaxConnIdleTime:  cfg.Database.MaxConnIdleTime,
		DialTimeout:      cfg.Database.DialTimeout,
		StatementTimeout: cfg.Database.StatementTimeout,
	}, logger)
	if err != nil {
		logger.Error("database open failed", "error", err)
		os.Exit(1)
	}
	defer func() { _ = db.Close() }()

	docs := repository.NewDocumentRepository(db, logger)
	facts := repository.NewFactRepository(db, logger)
	runs := repository.NewRunRepository(db, logger)

	client := openai.NewClient(openai.Config{
		BaseURL:      cfg.LLM.BaseURL,
		APIKey:       cfg.LLM.APIKey,
		Model:        cfg.LLM.Model,
		Temperature:  cfg.LLM.Temperature,
		Timeout:      cfg.LLM.Timeout,
		RetryBackoff: cfg.LLM.RetryBackoff,
	}, logger)
	gateway := llm.NewGateway(client, logger)
	processor := pipeline.NewProcessor(gateway, logger)

	extractionSvc := extraction.NewService(docs, facts, runs, processor, logger)
	exportSvc := export.NewService(docs, facts, logger)

	srv := server.New(cfg.Server.Addr, server.Deps{
		Parser:     parser.New(logger),
		Documents:  docs,
		Facts:      facts,
		Runs:       runs,
		Extraction: extractionSvc,
		Export:     exportSvc,
		Health: func(ctx context.Context) error {
			return db.HealthCheck(ctx, 2*time.Second)
		},
	}, logger)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-errCh:
		logger.Error("http server failed", "error", err)
		os.Exit(1)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
		os.Exit(1)
	}
	logger.Info("server stopped")
}

func loadConfig(path string) (*common.Config, error) {
	if path == "" {
		return common.LoadConfig(), nil
	}
	return common.LoadConfigFile(path)
}
