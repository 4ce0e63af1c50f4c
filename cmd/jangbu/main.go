package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"jangbu/internal/amqp"
	"jangbu/internal/analysis"
	"jangbu/internal/backend"
	"jangbu/internal/config"
	"jangbu/internal/export"
	apphttp "jangbu/internal/http"
	"jangbu/internal/images"
	"jangbu/internal/ingest"
	"jangbu/internal/ledger"
	applog "jangbu/internal/log"
)

func main() {
	_ = godotenv.Load()

	logger := applog.New(applog.DefaultConfig())
	applog.SetDefault(logger)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", applog.FieldError, err)
		os.Exit(1)
	}

	store, err := backend.Open(cfg, logger)
	if err != nil {
		logger.Error("backend init failed", applog.FieldError, err)
		os.Exit(1)
	}
	defer store.Close()

	// The event queue is optional; without it cleanup and mirroring are off
	// but the ledger works normally.
	var pub ledger.Publisher
	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("event queue unavailable, continuing without it",
				applog.FieldError, err)
		} else {
			defer client.Close()
			pub = client
			logger.Info("event queue connected",
				applog.FieldQueue, cfg.AMQPQueue)
		}
	}

	imageStore, err := images.NewDiskStore(cfg.ImageDir, cfg.ImageBaseURL, logger)
	if err != nil {
		logger.Error("image store init failed", applog.FieldError, err)
		os.Exit(1)
	}

	expenses := ledger.NewExpenseBook(store, pub, nil, logger, cfg.OwnerID)
	incomes := ledger.NewIncomeBook(store, pub, nil, logger, cfg.OwnerID)
	settings := ledger.NewSettingsBook(store, logger, cfg.OwnerID)

	// The analyzer is always wired: without a configured key it still works
	// with the key the user stores in settings.
	analyzer := analysis.New(cfg.GeminiBaseURL, cfg.GeminiModel, cfg.GeminiAPIKey, cfg.GeminiTimeout, logger)
	ingestor := ingest.New(analyzer, imageStore, expenses, settings, logger)
	if !cfg.AnalysisEnabled() {
		logger.Warn("no analysis API key configured; receipt analysis needs a key saved in settings")
	}

	srv := apphttp.NewServer(apphttp.Options{
		Addr:     ":" + cfg.Port,
		Expenses: expenses,
		Incomes:  incomes,
		Settings: settings,
		Ingestor: ingestor,
		PDF:      export.NewBuilder(imageStore, cfg.PDFFontPath, logger),
		ImageDir: imageStore.Dir(),
		Logger:   logger,
	})
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 60 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("server shutdown error", applog.FieldError, err)
		}
		cancel()
	}()

	logger.Info("starting server",
		"port", cfg.Port,
		applog.FieldBackend, cfg.DataBackend,
		"analysis_enabled", cfg.AnalysisEnabled())
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server error", applog.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("server stopped gracefully")
}
