package cache

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.t
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	f.t = f.t.Add(d)
	f.mu.Unlock()
}

func TestLRUCacheGetSetExpire(t *testing.T) {
	clock := &fakeClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	c := NewLRUCache[string](10, time.Minute).WithClock(clock.Now)

	c.Set("a", "1")
	if v, ok := c.Get("a"); !ok || v != "1" {
		t.Fatalf("expected hit, got %q %v", v, ok)
	}

	clock.Advance(2 * time.Minute)
	if _, ok := c.Get("a"); ok {
		t.Fatalf("expected expiry")
	}
	if c.Size() != 0 {
		t.Fatalf("expired entry not removed on read")
	}
}

func TestLRUCacheEvictsLeastRecentlyUsed(t *testing.T) {
	c := NewLRUCache[int](2, time.Hour)
	c.Set("a", 1)
	c.Set("b", 2)
	c.Get("a") // b is now the oldest
	c.Set("c", 3)

	if _, ok := c.Get("b"); ok {
		t.Fatalf("b should have been evicted")
	}
	if _, ok := c.Get("a"); !ok {
		t.Fatalf("a should still be cached")
	}
	if c.Size() != 2 {
		t.Fatalf("size = %d, want 2", c.Size())
	}
}

func TestLRUCacheSetIfAbsent(t *testing.T) {
	clock := &fakeClock{t: time.Now()}
	c := NewLRUCache[struct{}](10, time.Minute).WithClock(clock.Now)

	if !c.SetIfAbsent("m1", struct{}{}) {
		t.Fatalf("first insert should succeed")
	}
	if c.SetIfAbsent("m1", struct{}{}) {
		t.Fatalf("second insert should be rejected")
	}
	clock.Advance(time.Hour)
	if !c.SetIfAbsent("m1", struct{}{}) {
		t.Fatalf("insert after expiry should succeed")
	}
}

func TestLRUCacheSetIfAbsentConcurrent(t *testing.T) {
	c := NewLRUCache[struct{}](100, time.Minute)
	var wins atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if c.SetIfAbsent("same", struct{}{}) {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()
	if wins.Load() != 1 {
		t.Fatalf("expected exactly one winner, got %d", wins.Load())
	}
}

func TestCleanExpiredAndManager(t *testing.T) {
	clock := &fakeClock{t: time.Now()}
	c := NewLRUCache[int](10, time.Minute).WithClock(clock.Now)
	for i := 0; i < 5; i++ {
		c.Set(fmt.Sprint(i), i)
	}
	clock.Advance(30 * time.Second)
	c.Set("fresh", 9)
	clock.Advance(45 * time.Second)

	m := NewManager(nil)
	m.Register(c)
	if n := m.Sweep(); n != 5 {
		t.Fatalf("expected 5 removed, got %d", n)
	}
	if c.Size() != 1 {
		t.Fatalf("size = %d, want 1", c.Size())
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- m.Run(ctx, time.Millisecond) }()
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("run: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatalf("manager did not stop")
	}
}
