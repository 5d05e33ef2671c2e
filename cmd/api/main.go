package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/daisuketominaga/shinsei/internal/config"
	apphttp "github.com/daisuketominaga/shinsei/internal/http"
	"github.com/daisuketominaga/shinsei/internal/llm"
	"github.com/daisuketominaga/shinsei/internal/logging"
	"github.com/daisuketominaga/shinsei/internal/sheets"
	"github.com/daisuketominaga/shinsei/internal/store"
)

func main() {
	logging.Init(slog.LevelInfo)

	if err := run(); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg := config.Load()

	// Load prompt templates.
	prompts, err := llm.LoadPrompts(cfg.PromptsPath)
	if err != nil {
		return fmt.Errorf("load prompts: %w", err)
	}
	slog.Info("prompts loaded", "path", cfg.PromptsPath)

	// Initialize the AI gateway. A missing key is reported per-request so
	// the history endpoints stay usable without upstream credentials.
	var gateway llm.Gateway
	if cfg.PerplexityAPIKey != "" {
		gateway = llm.NewPerplexityClient(
			cfg.PerplexityAPIKey,
			cfg.PerplexityAPIURL,
			cfg.PerplexityModel,
			cfg.UpstreamTimeout,
			prompts,
		)
	} else {
		slog.Warn("PERPLEXITY_API_KEY not set, search is disabled")
	}

	// Open the history store.
	historyStore, err := store.NewSQLiteStore(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open history store: %w", err)
	}
	defer historyStore.Close()
	slog.Info("history store opened", "path", cfg.DBPath)

	// Initialize the spreadsheet exporter when configured.
	var exporter sheets.Exporter
	sheetsCfg := sheets.Config{
		SpreadsheetID: cfg.SheetsSpreadsheetID,
		ClientEmail:   cfg.SheetsClientEmail,
		PrivateKey:    cfg.SheetsPrivateKey,
	}
	if sheetsCfg.Complete() {
		exp, err := sheets.NewExporter(ctx, sheetsCfg)
		if err != nil {
			return fmt.Errorf("init sheets exporter: %w", err)
		}
		exporter = exp
	} else {
		slog.Warn("Google Sheets credentials not set, export is disabled")
	}

	// Build handler and server.
	handler := apphttp.NewHandler(gateway, historyStore, exporter, apphttp.Config{
		HistoryLimit: cfg.HistoryLimit,
	})
	e := apphttp.NewServer(handler, apphttp.ServerConfig{
		AllowOrigin:    cfg.AllowOrigin,
		RateLimitRPS:   cfg.RateLimitRPS,
		RateLimitBurst: cfg.RateLimitBurst,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      e,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	// Graceful shutdown.
	errCh := make(chan error, 1)
	go func() {
		slog.Info("server starting", "port", cfg.Port)
		errCh <- srv.ListenAndServe()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		slog.Info("shutdown signal received", "signal", sig.String())
	case err := <-errCh:
		if err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(ctx, 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	slog.Info("server stopped gracefully")
	return nil
}
