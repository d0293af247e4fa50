package cache

import (
	"context"
	"sync"
)

// WarmFunc performs the actual fetch for a preloaded URL. The result is
// discarded; warming only matters for the HTTP-level cache downstream.
type WarmFunc func(ctx context.Context, url string) error

// Preloader warms image URLs fire-and-forget. It keeps a "seen" set rather
// than a value cache: a URL is warmed at most once unless the warm failed,
// in which case it is forgotten so a later view can retry.
type Preloader struct {
	mu      sync.Mutex
	seen    map[string]struct{}
	maxSeen int
	warm    WarmFunc
}

// NewPreloader creates a Preloader with a bounded seen set.
func NewPreloader(warm WarmFunc, maxSeen int) *Preloader {
	if maxSeen <= 0 {
		maxSeen = 1000
	}
	return &Preloader{
		seen:    make(map[string]struct{}),
		maxSeen: maxSeen,
		warm:    warm,
	}
}

// Preload warms the given URLs in the background, skipping ones already seen.
func (p *Preloader) Preload(ctx context.Context, urls []string) {
	for _, u := range urls {
		if u == "" || !p.mark(u) {
			continue
		}
		go func(url string) {
			if err := p.warm(ctx, url); err != nil {
				p.forget(url)
			}
		}(u)
	}
}

// Seen reports whether a URL has been warmed (or is being warmed).
func (p *Preloader) Seen(url string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.seen[url]
	return ok
}

// Reset clears the seen set.
func (p *Preloader) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.seen = make(map[string]struct{})
}

// mark records a URL; returns false if it was already seen or the set is full.
func (p *Preloader) mark(url string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.seen[url]; ok {
		return false
	}
	if len(p.seen) >= p.maxSeen {
		return false
	}
	p.seen[url] = struct{}{}
	return true
}

func (p *Preloader) forget(url string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.seen, url)
}
