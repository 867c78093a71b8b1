package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"fiado/internal/core"
	"fiado/internal/store/memory"
)

type fakePublisher struct {
	published []core.Record
	err       error
}

func (f *fakePublisher) PublishRecordAppended(_ context.Context, r core.Record) error {
	f.published = append(f.published, r)
	return f.err
}

type closeFunc func() error

func (f closeFunc) Close() error { return f() }

func sample(id string) core.Record {
	return core.Record{ID: id, Date: core.NewDate(2024, time.March, 1), Kind: core.KindExpense, Sender: "s"}
}

func TestRecordServicePublishesAfterAppend(t *testing.T) {
	st := memory.New()
	pub := &fakePublisher{}
	svc := NewRecordService(st, pub)

	if err := svc.Append(context.Background(), sample("a")); err != nil {
		t.Fatalf("append: %v", err)
	}
	if st.Len() != 1 || len(pub.published) != 1 || pub.published[0].ID != "a" {
		t.Fatalf("records=%d published=%v", st.Len(), pub.published)
	}
}

func TestRecordServicePublishFailureDoesNotFailAppend(t *testing.T) {
	st := memory.New()
	svc := NewRecordService(st, &fakePublisher{err: errors.New("broker down")})
	if err := svc.Append(context.Background(), sample("a")); err != nil {
		t.Fatalf("append should succeed, got %v", err)
	}
	if st.Len() != 1 {
		t.Fatalf("record missing")
	}
}

func TestRecordServiceSkipsPublishOnStoreError(t *testing.T) {
	pub := &fakePublisher{}
	svc := NewRecordService(brokenStore{err: errors.New("down")}, pub)
	if err := svc.Append(context.Background(), sample("a")); err == nil {
		t.Fatalf("expected error")
	}
	if len(pub.published) != 0 {
		t.Fatalf("nothing should be published for a failed append")
	}
}

func TestRecordServiceNilPublisher(t *testing.T) {
	svc := NewRecordService(memory.New(), nil)
	if err := svc.Append(context.Background(), sample("a")); err != nil {
		t.Fatalf("append: %v", err)
	}
	all, err := svc.All(context.Background())
	if err != nil || len(all) != 1 {
		t.Fatalf("all = %v err=%v", all, err)
	}
	if err := svc.Ping(context.Background()); err != nil {
		t.Fatalf("ping on memory store: %v", err)
	}
}

func TestRecordServiceClose(t *testing.T) {
	t.Run("nil components", func(t *testing.T) {
		svc := NewRecordService(memory.New(), nil, nil)
		if err := svc.Close(); err != nil {
			t.Fatalf("Close should not return error with nil components: %v", err)
		}
	})

	t.Run("closes in reverse order and joins errors", func(t *testing.T) {
		var order []string
		first := closeFunc(func() error { order = append(order, "first"); return errors.New("a") })
		second := closeFunc(func() error { order = append(order, "second"); return nil })
		svc := NewRecordService(memory.New(), nil, first, second)

		if err := svc.Close(); err == nil {
			t.Fatalf("expected joined error")
		}
		if len(order) != 2 || order[0] != "second" || order[1] != "first" {
			t.Fatalf("unexpected close order %v", order)
		}
	})
}
