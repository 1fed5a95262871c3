package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func newLimiter(t *testing.T, limit int, window time.Duration) (*Limiter, *fakeClock) {
	t.Helper()
	c := &fakeClock{t: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	l, err := New(limit, window, WithClock(c.now))
	require.NoError(t, err)
	return l, c
}

func TestNew_RejectsNonPositivePolicy(t *testing.T) {
	tests := []struct {
		name   string
		limit  int
		window time.Duration
	}{
		{"zero limit", 0, time.Minute},
		{"negative limit", -1, time.Minute},
		{"zero window", 10, 0},
		{"negative window", 10, -time.Second},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, err := New(tt.limit, tt.window)
			assert.ErrorIs(t, err, ErrInvalidPolicy)
			assert.Nil(t, l)
		})
	}
}

func TestAllow_LoginPolicy(t *testing.T) {
	l, c := newLimiter(t, 10, 15*time.Minute)

	for i := 0; i < 10; i++ {
		ok, _ := l.Allow("10.0.0.1")
		require.True(t, ok, "attempt %d", i+1)
		c.advance(time.Second)
	}

	ok, retry := l.Allow("10.0.0.1")
	assert.False(t, ok, "11th attempt inside the window")
	assert.Equal(t, 15*time.Minute-10*time.Second, retry)

	c.advance(15 * time.Minute)
	ok, _ = l.Allow("10.0.0.1")
	assert.True(t, ok, "allowed again after the window elapsed")
}

func TestAllow_WindowSlides(t *testing.T) {
	l, c := newLimiter(t, 2, time.Minute)

	ok, _ := l.Allow("k")
	require.True(t, ok)
	c.advance(40 * time.Second)
	ok, _ = l.Allow("k")
	require.True(t, ok)

	ok, retry := l.Allow("k")
	require.False(t, ok)
	assert.Equal(t, 20*time.Second, retry)

	// the first event leaves the window, the second stays
	c.advance(20 * time.Second)
	ok, _ = l.Allow("k")
	assert.True(t, ok)
	ok, _ = l.Allow("k")
	assert.False(t, ok)
}

func TestAllow_RejectedEventsAreNotRecorded(t *testing.T) {
	l, c := newLimiter(t, 1, time.Minute)

	ok, _ := l.Allow("k")
	require.True(t, ok)
	for i := 0; i < 5; i++ {
		ok, _ = l.Allow("k")
		require.False(t, ok)
	}

	c.advance(time.Minute)
	ok, _ = l.Allow("k")
	assert.True(t, ok, "rejections must not extend the window")
}

func TestAllow_KeysAreIndependent(t *testing.T) {
	l, _ := newLimiter(t, 1, time.Minute)

	ok, _ := l.Allow("100200300400")
	assert.True(t, ok)
	ok, _ = l.Allow("100200300401")
	assert.True(t, ok)
	ok, _ = l.Allow("100200300400")
	assert.False(t, ok)
}

func TestRemaining(t *testing.T) {
	l, c := newLimiter(t, 5, 5*time.Minute)
	assert.Equal(t, 5, l.Remaining("k"))

	l.Allow("k")
	l.Allow("k")
	assert.Equal(t, 3, l.Remaining("k"))

	c.advance(5 * time.Minute)
	assert.Equal(t, 5, l.Remaining("k"))
}

func TestPrune(t *testing.T) {
	l, c := newLimiter(t, 5, time.Minute)
	l.Allow("a")
	c.advance(30 * time.Second)
	l.Allow("b")

	assert.Equal(t, 2, l.Prune())

	c.advance(31 * time.Second)
	assert.Equal(t, 1, l.Prune())

	c.advance(time.Minute)
	assert.Equal(t, 0, l.Prune())
}

func TestAllow_Concurrent(t *testing.T) {
	l, err := New(50, time.Hour)
	require.NoError(t, err)

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		allowed int
	)
	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if ok, _ := l.Allow("shared"); ok {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, allowed)
}

func TestRun_StopsOnCancel(t *testing.T) {
	l, err := New(1, time.Millisecond)
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		l.Allow(fmt.Sprintf("k%d", i))
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		l.Run(ctx, time.Millisecond)
		close(done)
	}()

	require.Eventually(t, func() bool { return l.Prune() == 0 }, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
