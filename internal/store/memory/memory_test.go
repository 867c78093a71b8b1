package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"fiado/internal/core"
)

func record(id string) core.Record {
	return core.Record{ID: id, Date: core.NewDate(2024, time.March, 1), Kind: core.KindExpense, Sender: "s"}
}

func TestMemoryStoreAppendAndAll(t *testing.T) {
	s := New()
	ctx := context.Background()

	for _, id := range []string{"a", "b", "c"} {
		if err := s.Append(ctx, record(id)); err != nil {
			t.Fatalf("append %s: %v", id, err)
		}
	}

	all, err := s.All(ctx)
	if err != nil || len(all) != 3 {
		t.Fatalf("unexpected all: %v err=%v", all, err)
	}
	if all[0].ID != "a" || all[2].ID != "c" {
		t.Fatalf("insertion order lost: %v", all)
	}

	// Mutating the snapshot must not leak into the store.
	all[0].ID = "zzz"
	again, _ := s.All(ctx)
	if again[0].ID != "a" {
		t.Fatalf("snapshot aliased the store")
	}
}

func TestMemoryStoreRejectsInvalid(t *testing.T) {
	s := New()
	r := record("x")
	r.Kind = core.KindBalance
	if err := s.Append(context.Background(), r); !errors.Is(err, core.ErrInvalidKind) {
		t.Fatalf("expected ErrInvalidKind, got %v", err)
	}
	if s.Len() != 0 {
		t.Fatalf("invalid record was stored")
	}
}

func TestMemoryStoreConcurrentAppends(t *testing.T) {
	s := New()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = s.Append(context.Background(), record(fmt.Sprintf("r%d", i)))
		}(i)
	}
	wg.Wait()
	if s.Len() != 50 {
		t.Fatalf("expected 50 records, got %d", s.Len())
	}
}
