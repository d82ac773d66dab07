package engine

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// registry tracks the cancel function for every in-flight download so that
// CancelJob and Shutdown can stop the subprocess behind a job.
type registry struct {
	mu      sync.Mutex
	cancels map[uuid.UUID]context.CancelFunc
}

func newRegistry() *registry {
	return &registry{cancels: make(map[uuid.UUID]context.CancelFunc)}
}

func (r *registry) add(id uuid.UUID, cancel context.CancelFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cancels[id] = cancel
}

func (r *registry) remove(id uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.cancels, id)
}

// cancel stops the job if registered. Unknown IDs are a no-op.
func (r *registry) cancel(id uuid.UUID) bool {
	r.mu.Lock()
	cancel, ok := r.cancels[id]
	r.mu.Unlock()
	if ok {
		cancel()
	}
	return ok
}

func (r *registry) cancelAll() {
	r.mu.Lock()
	cancels := make([]context.CancelFunc, 0, len(r.cancels))
	for _, cancel := range r.cancels {
		cancels = append(cancels, cancel)
	}
	r.mu.Unlock()
	for _, cancel := range cancels {
		cancel()
	}
}

func (r *registry) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.cancels)
}
