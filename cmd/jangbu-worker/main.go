// The worker drains the ledger event queue: it deletes orphaned receipt
// images and mirrors new records to the configured spreadsheet.
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"jangbu/internal/amqp"
	"jangbu/internal/backend"
	"jangbu/internal/config"
	"jangbu/internal/images"
	applog "jangbu/internal/log"
	"jangbu/internal/mirror"
	"jangbu/internal/worker"
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
	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required for the worker")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	store, err := backend.Open(cfg, logger)
	if err != nil {
		logger.Error("backend init failed", applog.FieldError, err)
		os.Exit(1)
	}
	defer store.Close()

	imageStore, err := images.NewDiskStore(cfg.ImageDir, cfg.ImageBaseURL, logger)
	if err != nil {
		logger.Error("image store init failed", applog.FieldError, err)
		os.Exit(1)
	}

	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("event queue connect failed", applog.FieldError, err)
		os.Exit(1)
	}
	defer client.Close()

	var sheets worker.RecordMirror
	if cfg.MirrorEnabled() {
		m, err := mirror.New(ctx, mirror.Config{
			SpreadsheetID:   cfg.GoogleSpreadsheetID,
			ExpenseSheet:    cfg.GoogleExpenseSheetName,
			IncomeSheet:     cfg.GoogleIncomeSheetName,
			CredentialsFile: cfg.GoogleCredentialsFile,
			CredentialsJSON: cfg.GoogleCredentialsJSON,
		}, logger)
		if err != nil {
			logger.Error("sheets mirror init failed", applog.FieldError, err)
			os.Exit(1)
		}
		sheets = m
		logger.Info("sheets mirror enabled", "spreadsheet_id", cfg.GoogleSpreadsheetID)
	} else {
		logger.Info("sheets mirror disabled: no spreadsheet configured")
	}

	w := worker.NewEventWorker(client, store, imageStore, sheets, logger)

	logger.Info("worker starting", applog.FieldQueue, cfg.AMQPQueue)
	if err := w.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("worker stopped with error", applog.FieldError, err)
		os.Exit(1)
	}
	logger.Info("worker stopped gracefully")
}
