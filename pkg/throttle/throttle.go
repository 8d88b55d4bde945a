// Package throttle holds the named latency bands an operator can switch
// between at runtime and the middleware that applies the active one.
package throttle

import (
	"context"
	"math/rand"
	"net/http"
	"sync"
	"time"
)

// Band is a named latency range in milliseconds: Values is [min, max].
type Band struct {
	Name   string `json:"name"`
	Values [2]int `json:"values"`
}

// Bounds returns the band's range as durations, ordered and clamped at zero.
func (b Band) Bounds() (time.Duration, time.Duration) {
	lo, hi := max(b.Values[0], 0), max(b.Values[1], 0)
	if lo > hi {
		lo, hi = hi, lo
	}
	return time.Duration(lo) * time.Millisecond, time.Duration(hi) * time.Millisecond
}

// Option configures a Controller.
type Option func(*Controller)

// WithRand sets the random source used by Delay.
func WithRand(rng *rand.Rand) Option {
	return func(c *Controller) { c.rng = rng }
}

// WithObserver calls fn with every delay Wait is about to sleep for.
func WithObserver(fn func(time.Duration)) Option {
	return func(c *Controller) { c.observe = fn }
}

// Controller holds the configured bands and at most one active band.
// It is safe for concurrent use.
type Controller struct {
	mu      sync.RWMutex
	bands   []Band
	current *Band

	rngMu sync.Mutex
	rng   *rand.Rand

	observe func(time.Duration)
}

// New creates a controller with no active band.
func New(bands []Band, opts ...Option) *Controller {
	c := &Controller{
		bands: append([]Band(nil), bands...),
		rng:   rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Bands returns the configured bands in order.
func (c *Controller) Bands() []Band {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]Band(nil), c.bands...)
}

// Current returns the active band, if any.
func (c *Controller) Current() (Band, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.current == nil {
		return Band{}, false
	}
	return *c.current, true
}

// ToggleByName activates the first band whose name equals name exactly.
// Any other name, including the empty one, turns throttling off.
// It returns the band now active.
func (c *Controller) ToggleByName(name string) (Band, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.current = nil
	for i := range c.bands {
		if c.bands[i].Name == name {
			b := c.bands[i]
			c.current = &b
			return b, true
		}
	}
	return Band{}, false
}

// Delay returns a uniform random duration within the active band,
// or zero when throttling is off.
func (c *Controller) Delay() time.Duration {
	b, ok := c.Current()
	if !ok {
		return 0
	}
	lo, hi := b.Bounds()
	if hi == lo {
		return lo
	}
	ms := int64((hi - lo) / time.Millisecond)

	c.rngMu.Lock()
	n := c.rng.Int63n(ms + 1)
	c.rngMu.Unlock()

	return lo + time.Duration(n)*time.Millisecond
}

// Wait sleeps for Delay, returning early with ctx's error if it is done.
func (c *Controller) Wait(ctx context.Context) error {
	d := c.Delay()
	if d <= 0 {
		return ctx.Err()
	}
	if c.observe != nil {
		c.observe(d)
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Middleware delays every request by the active band before calling next.
// A request cancelled while waiting is dropped.
func (c *Controller) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := c.Wait(r.Context()); err != nil {
			return
		}
		next.ServeHTTP(w, r)
	})
}
