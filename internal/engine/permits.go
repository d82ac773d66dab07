package engine

import (
	"context"
	"sync"
)

// Permits is a counting semaphore whose capacity can be resized while
// permits are held. Lowering the capacity never revokes a held permit; it
// only throttles future acquisitions.
//
// golang.org/x/sync/semaphore has no resize operation, so this is the one
// concurrency primitive the repo hand-rolls.
type Permits struct {
	mu       sync.Mutex
	capacity int
	inUse    int
	wake     chan struct{}
}

// NewPermits creates a pool with the given initial capacity (minimum 1).
func NewPermits(capacity int) *Permits {
	if capacity < 1 {
		capacity = 1
	}
	return &Permits{
		capacity: capacity,
		wake:     make(chan struct{}),
	}
}

// Acquire blocks until a permit is available or ctx is done.
func (p *Permits) Acquire(ctx context.Context) error {
	for {
		p.mu.Lock()
		if p.inUse < p.capacity {
			p.inUse++
			p.mu.Unlock()
			return nil
		}
		wake := p.wake
		p.mu.Unlock()

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-wake:
		}
	}
}

// TryAcquire takes a permit without blocking.
func (p *Permits) TryAcquire() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.inUse < p.capacity {
		p.inUse++
		return true
	}
	return false
}

// Release returns a permit and wakes waiters.
func (p *Permits) Release() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.inUse > 0 {
		p.inUse--
	}
	p.wakeLocked()
}

// Resize replaces the capacity for subsequent acquisitions.
func (p *Permits) Resize(capacity int) {
	if capacity < 1 {
		capacity = 1
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.capacity = capacity
	p.wakeLocked()
}

// Capacity returns the current ceiling.
func (p *Permits) Capacity() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.capacity
}

// InUse returns the number of held permits. May exceed Capacity after a
// downward resize until holders release.
func (p *Permits) InUse() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.inUse
}

// wakeLocked broadcasts to all waiters; they re-check capacity themselves.
func (p *Permits) wakeLocked() {
	close(p.wake)
	p.wake = make(chan struct{})
}
