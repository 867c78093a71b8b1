package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"fiado/internal/cache"
	"fiado/internal/cli"
	"fiado/internal/config"
	apphttp "fiado/internal/http"
	applog "fiado/internal/log"
)

func main() {
	cli.LoadEnvFile()

	cfg := config.Load()
	logger := cli.SetupLogger(cfg, applog.ComponentApp, os.Stdout)

	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	ctx, stop := cli.SignalContext()
	defer stop()

	backendRes, err := cli.OpenStore(ctx, cfg, logger)
	if err != nil {
		logger.Error("Failed to initialize record store", "error", err, "backend", cfg.DataBackend)
		os.Exit(1)
	}
	defer func() {
		if err := backendRes.Cleanup(); err != nil {
			logger.Error("Cleanup failed", "error", err)
		}
	}()

	classifier, err := cli.NewClassifier(ctx, cfg, logger)
	if err != nil {
		logger.Error("Failed to initialize classifier", "error", err, "provider", cfg.ClassifierProvider)
		os.Exit(1)
	}

	notifier, err := cli.NewNotifier(cfg, logger)
	if err != nil {
		logger.Error("Failed to initialize notifier", "error", err, "notifier", cfg.Notifier)
		os.Exit(1)
	}

	dispatcher, seen := cli.NewDispatcher(cfg, classifier, backendRes.Store, notifier, logger)

	caches := cache.NewManager(logger.WithComponent(applog.ComponentCache).Logger)
	if seen != nil {
		caches.Register(seen)
	}

	srv := apphttp.NewServer(apphttp.Config{
		Addr:           ":" + cfg.Port,
		VerifyToken:    cfg.VerifyToken,
		AppSecret:      cfg.WhatsAppAppSecret,
		ProcessTimeout: cfg.ProcessTimeout,
		Handler:        dispatcher,
		Ready:          backendRes.Store.Ping,
		Logger:         logger,
	})

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("Starting fiado server",
			"port", cfg.Port,
			"backend", cfg.DataBackend,
			"classifier", cfg.ClassifierProvider,
			"notifier", cfg.Notifier,
			"signature_check", cfg.WhatsAppAppSecret != "")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		return caches.Run(gctx, cli.CacheSweepInterval(cfg.DedupeTTL))
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down server...")

		// In-flight messages get the processing budget on top of the drain.
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ProcessTimeout+5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}
