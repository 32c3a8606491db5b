package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// ErrBudgetExhausted is returned once the per-run call budget is spent.
var ErrBudgetExhausted = errors.New("model call budget exhausted")

// Limiter paces model calls and caps how many a single run may make.
type Limiter struct {
	mu      sync.Mutex
	pacer   *rate.Limiter
	max     int
	count   int
	started time.Time
}

// New builds a limiter. perMinute <= 0 disables pacing, maxCalls <= 0 disables the budget.
func New(perMinute, maxCalls int) *Limiter {
	limit := rate.Inf
	if perMinute > 0 {
		limit = rate.Every(time.Minute / time.Duration(perMinute))
	}
	return &Limiter{
		pacer:   rate.NewLimiter(limit, 1),
		max:     maxCalls,
		started: time.Now(),
	}
}

// Wait reserves one call, blocking until the pacer allows it.
func (l *Limiter) Wait(ctx context.Context) error {
	if l == nil {
		return nil
	}

	l.mu.Lock()
	if l.max > 0 && l.count >= l.max {
		l.mu.Unlock()
		return fmt.Errorf("%w (%d/%d)", ErrBudgetExhausted, l.count, l.max)
	}
	l.count++
	l.mu.Unlock()

	return l.pacer.Wait(ctx)
}

// Reset starts a new run's budget.
func (l *Limiter) Reset() {
	if l == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.count = 0
	l.started = time.Now()
}

// Stats returns the calls reserved since the last reset.
func (l *Limiter) Stats() (calls, max int, since time.Time) {
	if l == nil {
		return 0, 0, time.Time{}
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.count, l.max, l.started
}
