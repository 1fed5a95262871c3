// Package ratelimit implements an in-memory sliding-window request limiter.
//
// State lives in process memory and is lost on restart; several server
// instances do not share windows.
package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

var ErrInvalidPolicy = errors.New("ratelimit: limit and window must be positive")

// Limiter allows at most limit events per key within any trailing window.
type Limiter struct {
	mu     sync.Mutex
	limit  int
	window time.Duration
	now    func() time.Time
	hits   map[string][]time.Time
}

type Option func(*Limiter)

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(l *Limiter) { l.now = now }
}

// New returns a limiter admitting limit events per window. Both must be
// positive.
func New(limit int, window time.Duration, opts ...Option) (*Limiter, error) {
	if limit <= 0 || window <= 0 {
		return nil, fmt.Errorf("%w: got %d per %s", ErrInvalidPolicy, limit, window)
	}
	l := &Limiter{
		limit:  limit,
		window: window,
		now:    time.Now,
		hits:   make(map[string][]time.Time),
	}
	for _, o := range opts {
		o(l)
	}
	return l, nil
}

func (l *Limiter) Limit() int            { return l.limit }
func (l *Limiter) Window() time.Duration { return l.window }

// Allow records an event for key and reports whether it fits in the window.
// A rejected event is not recorded; retryAfter is then the time until the
// oldest recorded event leaves the window.
func (l *Limiter) Allow(key string) (ok bool, retryAfter time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	hits := trim(l.hits[key], now.Add(-l.window))

	if len(hits) >= l.limit {
		l.hits[key] = hits
		return false, hits[0].Add(l.window).Sub(now)
	}

	l.hits[key] = append(hits, now)
	return true, 0
}

// Remaining returns how many events key may still record right now.
func (l *Limiter) Remaining(key string) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	n := l.limit - len(trim(l.hits[key], l.now().Add(-l.window)))
	if n < 0 {
		return 0
	}
	return n
}

// Prune drops keys whose windows have emptied and returns how many remain.
func (l *Limiter) Prune() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := l.now().Add(-l.window)
	for key, hits := range l.hits {
		hits = trim(hits, cutoff)
		if len(hits) == 0 {
			delete(l.hits, key)
			continue
		}
		l.hits[key] = hits
	}
	return len(l.hits)
}

// Run prunes every interval until ctx is done.
func (l *Limiter) Run(ctx context.Context, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.Prune()
		}
	}
}

// trim drops entries at or before cutoff. hits is ordered oldest first.
func trim(hits []time.Time, cutoff time.Time) []time.Time {
	i := 0
	for i < len(hits) && !hits[i].After(cutoff) {
		i++
	}
	if i == 0 {
		return hits
	}
	return append(hits[:0], hits[i:]...)
}
