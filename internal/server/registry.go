package server

import (
	"context"
	"sync"
	"time"

	"github.com/lachlanreyloyola/Deadlock-Detection-Simulation/pkg/errors"
	"github.com/lachlanreyloyola/Deadlock-Detection-Simulation/pkg/sim"
)

// simEntry pairs one live controller with its bookkeeping. The mutex
// serializes all controller access; the controller itself is
// single-writer by design.
type simEntry struct {
	mu        sync.Mutex
	id        string
	ctrl      *sim.Controller
	createdAt time.Time
	lastUsed  time.Time
}

// registry holds the live simulations by id. Entries idle past the TTL
// are removed by the sweep loop so abandoned simulations do not pile up.
type registry struct {
	mu   sync.RWMutex
	sims map[string]*simEntry
	ttl  time.Duration
}

func newRegistry(ttl time.Duration) *registry {
	return &registry{
		sims: make(map[string]*simEntry),
		ttl:  ttl,
	}
}

func (r *registry) add(e *simEntry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sims[e.id] = e
}

// get returns the entry and refreshes its idle clock.
func (r *registry) get(id string) (*simEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.sims[id]
	if !ok {
		return nil, errors.New(errors.ErrCodeSimulationNotFound, "simulation %s not found", id)
	}
	e.lastUsed = time.Now()
	return e, nil
}

func (r *registry) remove(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sims[id]; !ok {
		return errors.New(errors.ErrCodeSimulationNotFound, "simulation %s not found", id)
	}
	delete(r.sims, id)
	return nil
}

func (r *registry) count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sims)
}

// sweep removes entries idle longer than the TTL and reports how many
// were dropped. A TTL of 0 disables expiry.
func (r *registry) sweep(now time.Time) int {
	if r.ttl <= 0 {
		return 0
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	for id, e := range r.sims {
		if now.Sub(e.lastUsed) > r.ttl {
			delete(r.sims, id)
			removed++
		}
	}
	return removed
}

// runSweeper sweeps on the given interval until the context ends.
func (r *registry) runSweeper(ctx context.Context, interval time.Duration, onSweep func(removed int)) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if removed := r.sweep(now); removed > 0 && onSweep != nil {
				onSweep(removed)
			}
		}
	}
}
