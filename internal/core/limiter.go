package core

// limiter.go implements concurrency control for upload and combine
// processing.
//
// The limiter uses a semaphore pattern to restrict parallel operations to a
// configurable maximum, preventing resource exhaustion under load. When all
// slots are occupied, new requests wait up to maxWait before failing with
// ErrTooManyOps.
//
// The limiter also supports graceful shutdown via WaitForDrain, which
// blocks until all active operations complete.

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrTooManyOps is returned when all operation slots are occupied and the
// wait timeout expires. Clients should retry after a short delay.
var ErrTooManyOps = errors.New("too many concurrent operations, please try again later")

// DefaultMaxConcurrentOps is the default limit for parallel operations.
const DefaultMaxConcurrentOps = 5

// DefaultMaxWaitTime is how long to wait for a slot before rejecting.
const DefaultMaxWaitTime = 30 * time.Second

// OpLimiter controls concurrent upload and combine processing using a
// semaphore pattern.
type OpLimiter struct {
	semaphore chan struct{}
	maxWait   time.Duration

	mu     sync.RWMutex
	active int
}

// NewOpLimiter creates a limiter that allows at most maxConcurrent
// simultaneous operations. Requests that cannot acquire a slot within
// maxWait receive ErrTooManyOps.
func NewOpLimiter(maxConcurrent int, maxWait time.Duration) *OpLimiter {
	if maxConcurrent <= 0 {
		maxConcurrent = DefaultMaxConcurrentOps
	}
	if maxWait <= 0 {
		maxWait = DefaultMaxWaitTime
	}

	return &OpLimiter{
		semaphore: make(chan struct{}, maxConcurrent),
		maxWait:   maxWait,
	}
}

// Acquire attempts to acquire an operation slot.
// Returns nil on success, ErrTooManyOps if the timeout expires.
// The caller MUST call Release() when the operation completes (use defer).
func (l *OpLimiter) Acquire(ctx context.Context) error {
	waitCtx, cancel := context.WithTimeout(ctx, l.maxWait)
	defer cancel()

	select {
	case l.semaphore <- struct{}{}:
		l.mu.Lock()
		l.active++
		l.mu.Unlock()
		return nil

	case <-waitCtx.Done():
		// Distinguish caller cancellation from slot-wait timeout.
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return ErrTooManyOps

	case <-ctx.Done():
		return ctx.Err()
	}
}

// TryAcquire attempts to acquire a slot without blocking.
// Returns true if a slot was acquired, false otherwise.
func (l *OpLimiter) TryAcquire() bool {
	select {
	case l.semaphore <- struct{}{}:
		l.mu.Lock()
		l.active++
		l.mu.Unlock()
		return true
	default:
		return false
	}
}

// Release releases a previously acquired slot.
// Must be called exactly once for each successful Acquire/TryAcquire.
func (l *OpLimiter) Release() {
	l.mu.Lock()
	l.active--
	l.mu.Unlock()

	<-l.semaphore
}

// ActiveCount returns the number of currently active operations.
func (l *OpLimiter) ActiveCount() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.active
}

// MaxConcurrent returns the maximum allowed concurrent operations.
func (l *OpLimiter) MaxConcurrent() int {
	return cap(l.semaphore)
}

// Available returns the number of available slots.
func (l *OpLimiter) Available() int {
	return cap(l.semaphore) - len(l.semaphore)
}

// WaitForDrain blocks until all active operations complete or the context
// is cancelled. Used for graceful shutdown so in-flight uploads and
// combines finish before termination.
func (l *OpLimiter) WaitForDrain(ctx context.Context) error {
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if l.ActiveCount() == 0 {
				return nil
			}
		}
	}
}

// OpLimiterStatus is a snapshot of the limiter's current state.
type OpLimiterStatus struct {
	Active        int `json:"active"`
	Available     int `json:"available"`
	MaxConcurrent int `json:"max_concurrent"`
}

// Status returns the current limiter state for monitoring/debugging.
func (l *OpLimiter) Status() OpLimiterStatus {
	l.mu.RLock()
	active := l.active
	l.mu.RUnlock()

	return OpLimiterStatus{
		Active:        active,
		Available:     cap(l.semaphore) - len(l.semaphore),
		MaxConcurrent: cap(l.semaphore),
	}
}
