package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"fiado/internal/amqp"
	"fiado/internal/core"
	"fiado/internal/store/memory"
)

type failingAppender struct{ err error }

func (f failingAppender) Append(context.Context, core.Record) error { return f.err }

func rec(id string) core.Record {
	return core.Record{ID: id, Date: core.NewDate(2024, time.March, 1), Kind: core.KindExpense, Sender: "s"}
}

func TestMirrorWorkerAppends(t *testing.T) {
	target := memory.New()
	w := NewMirrorWorker(target, nil)

	if err := w.HandleRecordAppended(context.Background(), amqp.NewRecordAppendedMessage(rec("a"))); err != nil {
		t.Fatalf("handle: %v", err)
	}
	all, _ := target.All(context.Background())
	if len(all) != 1 || all[0].ID != "a" {
		t.Fatalf("record not mirrored: %+v", all)
	}
}

func TestMirrorWorkerPropagatesErrors(t *testing.T) {
	boom := errors.New("sheets quota")
	w := NewMirrorWorker(failingAppender{err: boom}, nil)
	err := w.HandleRecordAppended(context.Background(), amqp.NewRecordAppendedMessage(rec("a")))
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped error, got %v", err)
	}
}

func TestBackfillAddsMissingOnly(t *testing.T) {
	ctx := context.Background()
	source := memory.New(rec("a"), rec("b"), rec("c"))
	target := memory.New(rec("b"))

	added, err := Backfill(ctx, source, target, nil)
	if err != nil {
		t.Fatalf("backfill: %v", err)
	}
	if added != 2 {
		t.Fatalf("added = %d, want 2", added)
	}
	all, _ := target.All(ctx)
	if len(all) != 3 || all[1].ID != "a" || all[2].ID != "c" {
		t.Fatalf("unexpected target: %+v", all)
	}

	again, _ := Backfill(ctx, source, target, nil)
	if again != 0 {
		t.Fatalf("second backfill should be a no-op, added %d", again)
	}
}

func TestMirrorWorkerSkipsRecordsCoveredByBackfill(t *testing.T) {
	ctx := context.Background()
	primary := memory.New(rec("r1"))
	sheet := memory.New()

	if _, err := Backfill(ctx, primary, sheet, nil); err != nil {
		t.Fatalf("backfill: %v", err)
	}
	w := NewMirrorWorker(sheet, nil)
	if n, err := w.Prime(ctx, sheet); err != nil || n != 1 {
		t.Fatalf("prime: n=%d err=%v", n, err)
	}

	// The queue still holds the event appended while the worker was down.
	if err := w.HandleRecordAppended(ctx, amqp.NewRecordAppendedMessage(rec("r1"))); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if err := w.HandleRecordAppended(ctx, amqp.NewRecordAppendedMessage(rec("r2"))); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if sheet.Len() != 2 {
		t.Fatalf("expected 2 mirror rows, got %d", sheet.Len())
	}
}

func TestMirrorWorkerDropsRedelivery(t *testing.T) {
	ctx := context.Background()
	sheet := memory.New()
	w := NewMirrorWorker(sheet, nil)
	msg := amqp.NewRecordAppendedMessage(rec("a"))
	for i := 0; i < 3; i++ {
		if err := w.HandleRecordAppended(ctx, msg); err != nil {
			t.Fatalf("handle %d: %v", i, err)
		}
	}
	if sheet.Len() != 1 {
		t.Fatalf("expected 1 mirror row, got %d", sheet.Len())
	}
}

func TestMirrorWorkerRetriesAfterFailure(t *testing.T) {
	ctx := context.Background()
	w := NewMirrorWorker(failingAppender{err: errors.New("quota")}, nil)
	msg := amqp.NewRecordAppendedMessage(rec("a"))
	if err := w.HandleRecordAppended(ctx, msg); err == nil {
		t.Fatalf("expected error")
	}
	sheet := memory.New()
	w.target = sheet
	if err := w.HandleRecordAppended(ctx, msg); err != nil {
		t.Fatalf("retry: %v", err)
	}
	if sheet.Len() != 1 {
		t.Fatalf("failed append must not mark the record mirrored")
	}
}
