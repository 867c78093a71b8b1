// Package cli holds the start-up wiring shared by cmd/fiado,
// cmd/fiado-worker and cmd/fiadoctl.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"fiado/internal/backend"
	"fiado/internal/cache"
	"fiado/internal/classifier"
	"fiado/internal/classifier/gemini"
	"fiado/internal/classifier/openai"
	"fiado/internal/config"
	applog "fiado/internal/log"
	"fiado/internal/notify"
	"fiado/internal/services"
	"fiado/internal/store"
	"fiado/internal/whatsapp"
)

// dedupeCacheSize bounds how many message IDs are remembered.
const dedupeCacheSize = 10_000

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// SetupLogger builds the root logger from LOG_LEVEL and LOG_FORMAT and
// installs it as the slog default.
func SetupLogger(cfg *config.Config, component string, out io.Writer) *applog.Logger {
	if out == nil {
		out = os.Stdout
	}
	logger := applog.New(applog.Config{
		Level:     applog.ParseLevel(cfg.LogLevel),
		Format:    cfg.LogFormat,
		Component: component,
		Output:    out,
	})
	applog.SetDefault(logger)
	return logger
}

// SignalContext is cancelled on SIGINT or SIGTERM.
func SignalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

// OpenStore creates the configured record store.
func OpenStore(ctx context.Context, cfg *config.Config, logger *applog.Logger) (*backend.BackendResult, error) {
	bc, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, err
	}
	return backend.NewFactory(logger.WithComponent(applog.ComponentBackend).Logger).CreateBackend(ctx, bc)
}

// NewClassifier builds the classifier for CLASSIFIER_PROVIDER.
func NewClassifier(ctx context.Context, cfg *config.Config, logger *applog.Logger) (*classifier.Classifier, error) {
	var (
		provider classifier.Provider
		err      error
	)
	switch cfg.ClassifierProvider {
	case "gemini":
		provider, err = gemini.New(ctx, gemini.Config{APIKey: cfg.GeminiAPIKey, Model: cfg.GeminiModel})
	case "openai":
		provider, err = openai.New(openai.Config{APIKey: cfg.OpenAIAPIKey, Model: cfg.OpenAIModel, BaseURL: cfg.OpenAIBaseURL})
	default:
		err = fmt.Errorf("unknown classifier provider %q", cfg.ClassifierProvider)
	}
	if err != nil {
		return nil, err
	}
	return classifier.New(provider,
		classifier.WithTimeout(cfg.ClassifierTimeout),
		classifier.WithLogger(logger.WithComponent(applog.ComponentClassifier).Logger),
	), nil
}

// NewNotifier returns the WhatsApp sender, or a logging stand-in when
// NOTIFIER=log.
func NewNotifier(cfg *config.Config, logger *applog.Logger) (services.Notifier, error) {
	if cfg.Notifier == "log" {
		return notify.NewLogNotifier(logger.Logger), nil
	}
	return whatsapp.NewClient(whatsapp.Config{
		Token:         cfg.WhatsAppToken,
		PhoneNumberID: cfg.PhoneNumberID,
		BaseURL:       cfg.WhatsAppBaseURL,
		APIVersion:    cfg.WhatsAppAPIVersion,
	})
}

// NewDispatcher wires the dispatcher and returns the dedupe cache so the
// caller can register it for periodic cleanup. The cache is nil when
// DEDUPE_TTL is zero.
func NewDispatcher(cfg *config.Config, c services.Classifier, s store.Store, n services.Notifier, logger *applog.Logger) (*services.Dispatcher, *cache.LRUCache[struct{}]) {
	opts := []services.DispatcherOption{
		services.WithLocation(cfg.Location()),
		services.WithDispatcherLogger(logger.WithComponent(applog.ComponentDispatcher).Logger),
	}

	var seen *cache.LRUCache[struct{}]
	if cfg.DedupeTTL > 0 {
		seen = cache.NewLRUCache[struct{}](dedupeCacheSize, cfg.DedupeTTL)
		opts = append(opts, services.WithDedupe(seen))
	}
	return services.NewDispatcher(c, s, n, opts...), seen
}

// CacheSweepInterval is how often expired dedupe entries are dropped.
func CacheSweepInterval(ttl time.Duration) time.Duration {
	if ttl <= 0 || ttl > 10*time.Minute {
		return 10 * time.Minute
	}
	return ttl
}
