// Package worker holds background consumers of record events.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"fiado/internal/amqp"
	"fiado/internal/store"
)

// MirrorWorker copies every appended record into a secondary store,
// typically the Google Sheets mirror. Records whose ID was already mirrored
// or primed are skipped, so queued events that a backfill already covered
// do not produce duplicate rows.
type MirrorWorker struct {
	target store.Appender
	logger *slog.Logger

	mu   sync.Mutex
	seen map[string]struct{}
}

func NewMirrorWorker(target store.Appender, logger *slog.Logger) *MirrorWorker {
	if logger == nil {
		logger = slog.Default()
	}
	return &MirrorWorker{target: target, logger: logger, seen: make(map[string]struct{})}
}

// Prime marks every record already present in existing as mirrored.
func (w *MirrorWorker) Prime(ctx context.Context, existing store.Reader) (int, error) {
	records, err := existing.All(ctx)
	if err != nil {
		return 0, fmt.Errorf("read mirror: %w", err)
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, r := range records {
		w.seen[r.ID] = struct{}{}
	}
	return len(w.seen), nil
}

// HandleRecordAppended is an amqp.RecordHandler. Returning an error makes
// the consumer requeue the message.
func (w *MirrorWorker) HandleRecordAppended(ctx context.Context, msg *amqp.RecordAppendedMessage) error {
	r := msg.Record

	// Held across the append so two deliveries of one ID cannot both write.
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, ok := w.seen[r.ID]; ok {
		w.logger.DebugContext(ctx, "Record already mirrored, skipping", "record_id", r.ID)
		return nil
	}
	if err := w.target.Append(ctx, r); err != nil {
		return fmt.Errorf("mirror record %s: %w", r.ID, err)
	}
	w.seen[r.ID] = struct{}{}

	w.logger.InfoContext(ctx, "Record mirrored",
		"record_id", r.ID,
		"kind", r.Kind,
		"date", r.Date.String(),
		"published_at", msg.Timestamp)
	return nil
}

// Backfill appends every record from source that target does not have yet,
// matched by ID. It recovers events lost while the worker was down.
func Backfill(ctx context.Context, source store.Reader, target store.Store, logger *slog.Logger) (int, error) {
	if logger == nil {
		logger = slog.Default()
	}
	want, err := source.All(ctx)
	if err != nil {
		return 0, fmt.Errorf("read source: %w", err)
	}
	have, err := target.All(ctx)
	if err != nil {
		return 0, fmt.Errorf("read target: %w", err)
	}

	seen := make(map[string]struct{}, len(have))
	for _, r := range have {
		seen[r.ID] = struct{}{}
	}

	added := 0
	for _, r := range want {
		if _, ok := seen[r.ID]; ok {
			continue
		}
		if err := target.Append(ctx, r); err != nil {
			return added, fmt.Errorf("append %s: %w", r.ID, err)
		}
		added++
	}

	logger.InfoContext(ctx, "Backfill completed",
		"source", len(want),
		"target", len(have),
		"added", added)
	return added, nil
}
