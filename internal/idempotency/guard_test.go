package idempotency

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestMemory_WindowAndRelease(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	m := NewMemory()
	m.now = func() time.Time { return now }

	ok, _ := m.Acquire(ctx, "award:1", time.Minute)
	if !ok {
		t.Fatal("first acquire must succeed")
	}
	if ok, _ := m.Acquire(ctx, "award:1", time.Minute); ok {
		t.Fatal("second acquire within window must fail")
	}

	now = now.Add(2 * time.Minute)
	if ok, _ := m.Acquire(ctx, "award:1", time.Minute); !ok {
		t.Fatal("acquire after window must succeed")
	}

	_ = m.Release(ctx, "award:1")
	if ok, _ := m.Acquire(ctx, "award:1", time.Minute); !ok {
		t.Fatal("acquire after release must succeed")
	}
}

func TestMemory_ConcurrentAcquireSingleWinner(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	var wins int32
	wg := sync.WaitGroup{}
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if ok, _ := m.Acquire(ctx, "k", time.Minute); ok {
				atomic.AddInt32(&wins, 1)
			}
		}()
	}
	wg.Wait()
	if wins != 1 {
		t.Fatalf("wins = %d", wins)
	}
}
