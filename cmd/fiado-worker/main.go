package main

import (
	"context"
	"errors"
	"os"

	"golang.org/x/sync/errgroup"

	"fiado/internal/amqp"
	"fiado/internal/cli"
	"fiado/internal/config"
	applog "fiado/internal/log"
	gsheet "fiado/internal/sheets/google"
	"fiado/internal/worker"
)

func main() {
	cli.LoadEnvFile()

	cfg := config.Load()
	logger := cli.SetupLogger(cfg, applog.ComponentWorker, os.Stdout)

	logger.Info("Starting fiado-worker")

	if err := errors.Join(cfg.ValidateStore(), cfg.ValidateSheets()); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}
	if !cfg.AMQPEnabled() {
		logger.Error("AMQP_URL is required for the worker")
		os.Exit(1)
	}
	if cfg.DataBackend == config.BackendSheets {
		logger.Error("DATA_BACKEND is already sheets, nothing to mirror")
		os.Exit(1)
	}

	ctx, stop := cli.SignalContext()
	defer stop()

	sheetsClient, err := gsheet.New(ctx, gsheet.Config{
		SpreadsheetID:   cfg.GoogleSpreadsheetID,
		SheetName:       cfg.GoogleSheetName,
		CredentialsJSON: cfg.GoogleServiceAccountJSON,
		CredentialsFile: cfg.GoogleServiceAccountFile,
	})
	if err != nil {
		logger.Error("Failed to initialize Google Sheets client", "error", err)
		os.Exit(1)
	}
	if err := sheetsClient.EnsureHeader(ctx); err != nil {
		logger.Error("Failed to prepare sheet", "error", err, "spreadsheet_id", cfg.GoogleSpreadsheetID)
		os.Exit(1)
	}
	logger.Info("Google Sheets client initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID)

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", "error", err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	// Catch up on anything appended while the worker was down, before the
	// queue starts delivering new events.
	cfg.AMQPURL = ""
	primary, err := cli.OpenStore(ctx, cfg, logger)
	if err != nil {
		logger.Error("Failed to open primary store", "error", err, "backend", cfg.DataBackend)
		os.Exit(1)
	}
	added, err := worker.Backfill(ctx, primary.Store, sheetsClient, logger.WithComponent(applog.ComponentSheets).Logger)
	if cerr := primary.Cleanup(); cerr != nil {
		logger.Warn("Failed to close primary store", "error", cerr)
	}
	if err != nil {
		logger.Error("Startup backfill failed", "error", err, "added", added)
		// Don't exit - the queue still carries new records
	}

	mirror := worker.NewMirrorWorker(sheetsClient, logger.WithComponent(applog.ComponentWorker).Logger)
	primed, err := mirror.Prime(ctx, sheetsClient)
	if err != nil {
		logger.Error("Failed to read mirrored records", "error", err)
		os.Exit(1)
	}
	logger.Info("Mirror primed", "records", primed)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Consuming record events", "queue", cfg.AMQPQueue)
		return amqpClient.ConsumeRecordAppended(gctx, mirror.HandleRecordAppended)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Message consumption failed", "error", err)
		os.Exit(1)
	}
	logger.Info("Worker shutdown complete")
}
