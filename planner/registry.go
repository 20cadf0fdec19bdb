package planner

import (
	"sync"
	"time"

	"github.com/flowcortex/agentcore/plan"
)

// Registry holds created plans keyed by ID and retires them after
// maxAge, mirroring the scheduler's own retention policy. Lookups and
// the atomic replan swap are serialized behind a single mutex; the lock
// is never held across a planning call.
type Registry struct {
	mu     sync.RWMutex
	plans  map[string]*plan.Plan
	maxAge time.Duration
}

// NewRegistry builds an empty Registry. maxAge <= 0 disables retirement.
func NewRegistry(maxAge time.Duration) *Registry {
	return &Registry{plans: make(map[string]*plan.Plan), maxAge: maxAge}
}

// Put registers p, overwriting any existing plan with the same ID.
func (r *Registry) Put(p *plan.Plan) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.plans[p.ID] = p
}

// Get returns the plan with the given ID, or nil.
func (r *Registry) Get(id string) *plan.Plan {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.plans[id]
}

// Replace atomically swaps oldID's entry for successor, used by Replan
// to hand the scheduler a new active plan without a window where neither
// plan is registered.
func (r *Registry) Replace(oldID string, successor *plan.Plan) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.plans, oldID)
	r.plans[successor.ID] = successor
}

// Remove deletes the plan with the given ID, if present.
func (r *Registry) Remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.plans, id)
}

// Sweep retires plans older than maxAge, returning the number removed.
// A no-op when maxAge <= 0.
func (r *Registry) Sweep(now time.Time) int {
	if r.maxAge <= 0 {
		return 0
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	for id, p := range r.plans {
		if now.Sub(p.CreatedAt) > r.maxAge {
			delete(r.plans, id)
			removed++
		}
	}
	return removed
}

// Len returns the number of registered plans.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.plans)
}
