package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestGetMissAndHit(t *testing.T) {
	c := New(time.Minute, 10)

	if _, ok := c.Get("news:005930"); ok {
		t.Error("expected miss on empty cache")
	}

	c.Set("news:005930", "samsung")
	v, ok := c.Get("news:005930")
	if !ok || v != "samsung" {
		t.Errorf("expected hit with samsung, got %v ok=%v", v, ok)
	}
}

func TestGetExpiredEntry(t *testing.T) {
	c := New(10*time.Millisecond, 10)
	c.Set("k", "v")

	time.Sleep(20 * time.Millisecond)

	if _, ok := c.Get("k"); ok {
		t.Error("expected expired entry to miss")
	}
	if c.Len() != 0 {
		t.Errorf("expected lazy removal of expired entry, Len=%d", c.Len())
	}
}

func TestGetOrFetchCachesWithinTTL(t *testing.T) {
	c := New(time.Minute, 10)
	var calls atomic.Int32
	fetch := func(context.Context) (interface{}, error) {
		calls.Add(1)
		return "fresh", nil
	}

	for i := 0; i < 3; i++ {
		v, err := c.GetOrFetch(context.Background(), "k", fetch)
		if err != nil {
			t.Fatalf("GetOrFetch %d failed: %v", i, err)
		}
		if v != "fresh" {
			t.Errorf("expected fresh, got %v", v)
		}
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("expected a single fetch within TTL, got %d", got)
	}
}

func TestGetOrFetchCoalescesConcurrentCallers(t *testing.T) {
	c := New(time.Minute, 10)
	var calls atomic.Int32
	release := make(chan struct{})
	fetch := func(context.Context) (interface{}, error) {
		calls.Add(1)
		<-release
		return 42, nil
	}

	const workers = 8
	var wg sync.WaitGroup
	results := make([]interface{}, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			v, err := c.GetOrFetch(context.Background(), "k", fetch)
			if err != nil {
				t.Errorf("worker %d: %v", i, err)
				return
			}
			results[i] = v
		}(i)
	}

	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	if got := calls.Load(); got != 1 {
		t.Errorf("expected one underlying fetch, got %d", got)
	}
	for i, v := range results {
		if v != 42 {
			t.Errorf("worker %d got %v, want 42", i, v)
		}
	}
}

func TestJoinerSurvivesOriginatorCancel(t *testing.T) {
	c := New(time.Minute, 10)
	started := make(chan struct{})
	release := make(chan struct{})
	fetch := func(ctx context.Context) (interface{}, error) {
		close(started)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-release:
			return "payload", nil
		}
	}

	ctxA, cancelA := context.WithCancel(context.Background())
	errA := make(chan error, 1)
	go func() {
		_, err := c.GetOrFetch(ctxA, "k", fetch)
		errA <- err
	}()
	<-started

	resB := make(chan interface{}, 1)
	errB := make(chan error, 1)
	go func() {
		v, err := c.GetOrFetch(context.Background(), "k", fetch)
		resB <- v
		errB <- err
	}()

	// Give B time to join the flight, then drop A's request.
	time.Sleep(20 * time.Millisecond)
	cancelA()
	time.Sleep(20 * time.Millisecond)
	close(release)

	if err := <-errB; err != nil {
		t.Fatalf("joiner failed after originator cancel: %v", err)
	}
	if v := <-resB; v != "payload" {
		t.Errorf("joiner got %v, want payload", v)
	}
	<-errA

	if v, ok := c.Get("k"); !ok || v != "payload" {
		t.Errorf("flight result not cached: %v ok=%v", v, ok)
	}
}

func TestRefreshDetachedFromCallerCancel(t *testing.T) {
	c := New(time.Minute, 10)
	c.Set("k", "stale")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	v, err := c.Refresh(ctx, "k", func(ctx context.Context) (interface{}, error) {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
			return "fresh", nil
		}
	})
	if err != nil {
		t.Fatalf("Refresh failed under canceled caller context: %v", err)
	}
	if v != "fresh" {
		t.Errorf("got %v, want fresh", v)
	}
}

func TestFetchErrorNotCached(t *testing.T) {
	c := New(time.Minute, 10)
	var calls atomic.Int32
	boom := errors.New("backend down")
	fetch := func(context.Context) (interface{}, error) {
		if calls.Add(1) == 1 {
			return nil, boom
		}
		return "recovered", nil
	}

	if _, err := c.GetOrFetch(context.Background(), "k", fetch); !errors.Is(err, boom) {
		t.Fatalf("expected fetch error, got %v", err)
	}
	if c.Len() != 0 {
		t.Error("failed fetch must leave no cache entry")
	}

	v, err := c.GetOrFetch(context.Background(), "k", fetch)
	if err != nil {
		t.Fatalf("retry failed: %v", err)
	}
	if v != "recovered" {
		t.Errorf("expected recovered, got %v", v)
	}
}

func TestRefreshBypassesLiveEntry(t *testing.T) {
	c := New(time.Minute, 10)
	c.Set("k", "stale")

	v, err := c.Refresh(context.Background(), "k", func(context.Context) (interface{}, error) {
		return "fresh", nil
	})
	if err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}
	if v != "fresh" {
		t.Errorf("expected fresh, got %v", v)
	}
	if got, _ := c.Get("k"); got != "fresh" {
		t.Errorf("expected fresh cached, got %v", got)
	}
}

func TestEvictOldestAtCapacity(t *testing.T) {
	c := New(time.Minute, 2)
	c.Set("a", 1)
	c.Set("b", 2)
	c.Set("c", 3)

	if c.Len() != 2 {
		t.Fatalf("expected capacity held at 2, got %d", c.Len())
	}
	if _, ok := c.Get("a"); ok {
		t.Error("oldest entry should have been evicted")
	}
	if _, ok := c.Get("c"); !ok {
		t.Error("newest entry missing")
	}
}

func TestSetUpdatesInPlace(t *testing.T) {
	c := New(time.Minute, 2)
	c.Set("a", 1)
	c.Set("b", 2)
	c.Set("a", 10) // update, not insert

	if c.Len() != 2 {
		t.Errorf("in-place update changed entry count: %d", c.Len())
	}
	if v, _ := c.Get("a"); v != 10 {
		t.Errorf("expected updated value 10, got %v", v)
	}
	if _, ok := c.Get("b"); !ok {
		t.Error("update must not evict other entries")
	}
}

func TestInvalidatePrefix(t *testing.T) {
	c := New(time.Minute, 10)
	c.Set(MakeKey("news", "u1:005930"), 1)
	c.Set(MakeKey("news", "u1:000660"), 2)
	c.Set(MakeKey("schedule", "2026-03"), 3)

	c.InvalidatePrefix("news:")

	if c.Len() != 1 {
		t.Errorf("expected only the schedule entry left, Len=%d", c.Len())
	}
	if _, ok := c.Get(MakeKey("schedule", "2026-03")); !ok {
		t.Error("unrelated entry was invalidated")
	}
}

func TestClear(t *testing.T) {
	c := New(time.Minute, 10)
	c.Set("a", 1)
	c.Set("b", 2)
	c.Clear()
	if c.Len() != 0 {
		t.Errorf("expected empty cache, Len=%d", c.Len())
	}
}

func TestMakeKey(t *testing.T) {
	if got := MakeKey("news", "005930"); got != "news:005930" {
		t.Errorf("MakeKey = %q", got)
	}
}
