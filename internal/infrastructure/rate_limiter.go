package infrastructure

import (
	"sync"
	"time"
)

// WindowRateLimiter allows a fixed number of hits per key inside each window.
// Keys are client addresses for the public widget API.
type WindowRateLimiter struct {
	mu          sync.Mutex
	windows     map[string]*window
	limit       int
	length      time.Duration
	cleanupTick time.Duration
	now         func() time.Time
	stop        chan struct{}
	stopOnce    sync.Once
}

type window struct {
	start time.Time
	hits  int
}

func NewWindowRateLimiter(limit int, length time.Duration) *WindowRateLimiter {
	rl := &WindowRateLimiter{
		windows:     make(map[string]*window),
		limit:       limit,
		length:      length,
		cleanupTick: 5 * time.Minute,
		now:         time.Now,
		stop:        make(chan struct{}),
	}

	go rl.cleanup()

	return rl
}

// Allow records a hit for key and reports whether it fits in the current window.
// The second value is the time left until the window resets.
func (rl *WindowRateLimiter) Allow(key string) (bool, time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	w, exists := rl.windows[key]
	if !exists || now.Sub(w.start) >= rl.length {
		w = &window{start: now}
		rl.windows[key] = w
	}

	reset := rl.length - now.Sub(w.start)
	if w.hits >= rl.limit {
		return false, reset
	}
	w.hits++
	return true, reset
}

// Remaining returns how many hits key has left in its current window.
func (rl *WindowRateLimiter) Remaining(key string) int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	w, exists := rl.windows[key]
	if !exists || rl.now().Sub(w.start) >= rl.length {
		return rl.limit
	}
	return rl.limit - w.hits
}

func (rl *WindowRateLimiter) Limit() int {
	return rl.limit
}

// cleanup drops expired windows periodically
func (rl *WindowRateLimiter) cleanup() {
	ticker := time.NewTicker(rl.cleanupTick)
	defer ticker.Stop()
	for {
		select {
		case <-rl.stop:
			return
		case <-ticker.C:
			rl.mu.Lock()
			now := rl.now()
			for key, w := range rl.windows {
				if now.Sub(w.start) >= rl.length {
					delete(rl.windows, key)
				}
			}
			rl.mu.Unlock()
		}
	}
}

func (rl *WindowRateLimiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.stop) })
}
