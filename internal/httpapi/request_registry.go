package httpapi

import (
	"context"
	"sync"
	"sync/atomic"
)

// RequestRegistry tracks in-flight processing requests and supports graceful
// draining. When draining is enabled, new requests are rejected while
// in-flight ones finish.
//
// The mutex makes the draining check and wg.Add atomic in Add, so no request
// can slip in between StartDraining and Wait.
type RequestRegistry struct {
	mu       sync.Mutex
	draining bool
	wg       sync.WaitGroup
	count    atomic.Int64
}

// NewRequestRegistry creates a new RequestRegistry.
func NewRequestRegistry() *RequestRegistry {
	return &RequestRegistry{}
}

// Add registers a new request. Returns false if the registry is draining.
func (rr *RequestRegistry) Add() bool {
	rr.mu.Lock()
	defer rr.mu.Unlock()
	if rr.draining {
		return false
	}
	rr.wg.Add(1)
	rr.count.Add(1)
	return true
}

// Done marks a request as completed. Must be called exactly once per successful Add.
func (rr *RequestRegistry) Done() {
	rr.count.Add(-1)
	rr.wg.Done()
}

// StartDraining makes future Add calls return false.
func (rr *RequestRegistry) StartDraining() {
	rr.mu.Lock()
	defer rr.mu.Unlock()
	rr.draining = true
}

// IsDraining reports whether the registry is in draining mode.
func (rr *RequestRegistry) IsDraining() bool {
	rr.mu.Lock()
	defer rr.mu.Unlock()
	return rr.draining
}

// ActiveCount returns the number of in-flight requests.
func (rr *RequestRegistry) ActiveCount() int64 {
	return rr.count.Load()
}

// Wait blocks until all in-flight requests have completed or ctx is done.
func (rr *RequestRegistry) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		rr.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
