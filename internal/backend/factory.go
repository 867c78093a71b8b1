package backend

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"fiado/internal/amqp"
	"fiado/internal/services"
	gsheet "fiado/internal/sheets/google"
	"fiado/internal/storage"
	"fiado/internal/store"
	"fiado/internal/store/file"
	"fiado/internal/store/memory"
	mongostore "fiado/internal/store/mongo"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *slog.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *slog.Logger) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{logger: logger}
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

// CreateBackend opens the configured store and, when AMQP is configured,
// attaches a record event publisher. A broker that cannot be reached is
// logged and skipped: records are still saved.
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	s, closers, err := f.createStore(ctx, config)
	if err != nil {
		return nil, err
	}

	var publisher services.Publisher
	if config.AMQPURL != "" {
		amqpClient, err := amqp.NewClient(config.AMQPURL, config.AMQPExchange, config.AMQPQueue)
		if err != nil {
			f.logger.Warn("Failed to initialize AMQP client, continuing without record events", "error", err)
		} else {
			f.logger.Info("Initialized AMQP client",
				"exchange", config.AMQPExchange,
				"queue", config.AMQPQueue)
			publisher = amqpClient
			closers = append(closers, amqpClient)
		}
	}

	svc := services.NewRecordService(s, publisher, closers...)
	f.logger.Info("Initialized record store",
		"backend", config.Type,
		"events_enabled", publisher != nil)

	return &BackendResult{Store: svc, Cleanup: svc.Close}, nil
}

func (f *DefaultFactory) createStore(ctx context.Context, config Config) (store.Store, []io.Closer, error) {
	switch config.Type {
	case MemoryBackend:
		return memory.New(), nil, nil

	case FileBackend:
		return file.New(config.DataFile), nil, nil

	case SQLiteBackend:
		repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
		}
		return repo, []io.Closer{repo}, nil

	case MongoBackend:
		client, err := mongostore.Connect(mongostore.Config{URI: config.MongoURI, Database: config.MongoDBName})
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize mongo client: %w", err)
		}
		ms := mongostore.NewStore(client.Database())
		if err := ms.EnsureIndexes(ctx); err != nil {
			f.logger.Warn("Failed to ensure mongo indexes", "error", err)
		}
		disconnect := closerFunc(func() error {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return client.Close(ctx)
		})
		return ms, []io.Closer{disconnect}, nil

	case SheetsBackend:
		cli, err := gsheet.New(ctx, gsheet.Config{
			SpreadsheetID:   config.GoogleSpreadsheetID,
			SheetName:       config.GoogleSheetName,
			CredentialsJSON: config.GoogleServiceAccountJSON,
			CredentialsFile: config.GoogleServiceAccountFile,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize Google Sheets client: %w", err)
		}
		if err := cli.EnsureHeader(ctx); err != nil {
			f.logger.Warn("Failed to ensure sheet header", "error", err)
		}
		return cli, nil, nil

	default:
		return nil, nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}
