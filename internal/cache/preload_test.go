package cache

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

// countingWarm records warm calls and can fail specific URLs.
type countingWarm struct {
	mu    sync.Mutex
	calls map[string]int
	fail  map[string]bool
	done  chan string
}

func newCountingWarm() *countingWarm {
	return &countingWarm{
		calls: make(map[string]int),
		fail:  make(map[string]bool),
		done:  make(chan string, 32),
	}
}

func (c *countingWarm) warm(_ context.Context, url string) error {
	c.mu.Lock()
	c.calls[url]++
	failed := c.fail[url]
	c.mu.Unlock()
	c.done <- url
	if failed {
		return errors.New("warm failed")
	}
	return nil
}

func (c *countingWarm) count(url string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls[url]
}

func (c *countingWarm) wait(t *testing.T, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		select {
		case <-c.done:
		case <-time.After(time.Second):
			t.Fatalf("timed out waiting for warm call %d of %d", i+1, n)
		}
	}
}

func TestPreloadWarmsEachURLOnce(t *testing.T) {
	w := newCountingWarm()
	p := NewPreloader(w.warm, 10)

	urls := []string{"http://img/a.png", "http://img/b.png"}
	p.Preload(context.Background(), urls)
	w.wait(t, 2)

	// Second pass skips both.
	p.Preload(context.Background(), urls)
	time.Sleep(20 * time.Millisecond)

	for _, u := range urls {
		if got := w.count(u); got != 1 {
			t.Errorf("%s warmed %d times, want 1", u, got)
		}
		if !p.Seen(u) {
			t.Errorf("%s should be marked seen", u)
		}
	}
}

func TestPreloadFailureAllowsRetry(t *testing.T) {
	w := newCountingWarm()
	w.fail["http://img/a.png"] = true
	p := NewPreloader(w.warm, 10)

	p.Preload(context.Background(), []string{"http://img/a.png"})
	w.wait(t, 1)

	// forget runs after the warm call returns; give the goroutine a beat.
	deadline := time.After(time.Second)
	for p.Seen("http://img/a.png") {
		select {
		case <-deadline:
			t.Fatal("failed URL never forgotten")
		case <-time.After(5 * time.Millisecond):
		}
	}

	w.mu.Lock()
	w.fail["http://img/a.png"] = false
	w.mu.Unlock()

	p.Preload(context.Background(), []string{"http://img/a.png"})
	w.wait(t, 1)

	if got := w.count("http://img/a.png"); got != 2 {
		t.Errorf("expected retry after failure, calls=%d", got)
	}
}

func TestPreloadSkipsEmptyURL(t *testing.T) {
	w := newCountingWarm()
	p := NewPreloader(w.warm, 10)

	p.Preload(context.Background(), []string{"", "http://img/a.png"})
	w.wait(t, 1)

	if got := w.count(""); got != 0 {
		t.Errorf("empty URL warmed %d times", got)
	}
}

func TestPreloadBoundedSeenSet(t *testing.T) {
	w := newCountingWarm()
	p := NewPreloader(w.warm, 2)

	p.Preload(context.Background(), []string{"u1", "u2", "u3"})
	w.wait(t, 2)

	if p.Seen("u3") {
		t.Error("set at capacity should not admit new URLs")
	}

	p.Reset()
	p.Preload(context.Background(), []string{"u3"})
	w.wait(t, 1)
	if !p.Seen("u3") {
		t.Error("after Reset the URL should be admitted")
	}
}
