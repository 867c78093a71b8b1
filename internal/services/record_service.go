package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"fiado/internal/core"
	"fiado/internal/store"
)

// Publisher announces records after they are persisted.
type Publisher interface {
	PublishRecordAppended(ctx context.Context, r core.Record) error
}

// RecordService saves records to the primary store and publishes an event
// for each successful append. It implements store.Store.
type RecordService struct {
	store     store.Store
	publisher Publisher
	closers   []io.Closer
}

var _ store.Store = (*RecordService)(nil)

// NewRecordService wraps s. publisher may be nil when AMQP is not configured;
// closers are released by Close in reverse order.
func NewRecordService(s store.Store, publisher Publisher, closers ...io.Closer) *RecordService {
	return &RecordService{store: s, publisher: publisher, closers: closers}
}

// Append saves the record first, then publishes. A publish failure is logged
// and does not fail the append: the record is already durable.
func (s *RecordService) Append(ctx context.Context, r core.Record) error {
	if err := s.store.Append(ctx, r); err != nil {
		return fmt.Errorf("save record: %w", err)
	}

	if s.publisher == nil {
		return nil
	}
	if err := s.publisher.PublishRecordAppended(ctx, r); err != nil {
		slog.ErrorContext(ctx, "Failed to publish record event",
			"record_id", r.ID,
			"error", err)
	}
	return nil
}

func (s *RecordService) All(ctx context.Context) ([]core.Record, error) {
	return s.store.All(ctx)
}

// Ping checks the underlying store when it supports it.
func (s *RecordService) Ping(ctx context.Context) error {
	if p, ok := s.store.(interface{ Ping(context.Context) error }); ok {
		return p.Ping(ctx)
	}
	return nil
}

func (s *RecordService) Close() error {
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if s.closers[i] == nil {
			continue
		}
		if err := s.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("close record service: %w", errors.Join(errs...))
	}
	return nil
}
