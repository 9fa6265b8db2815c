// Package registry keeps the operator-configured capture agents.
package registry

import (
	"sync"

	"github.com/samber/lo"

	"github.com/Capitan-Parrot/distributed-video-system/console/internal/models"
)

// Registry holds agents in insertion order, unique by ID.
type Registry struct {
	mu     sync.RWMutex
	agents []models.CaptureAgent
}

func New() *Registry {
	return &Registry{}
}

// Add appends agent, or replaces the entry with the same ID in place.
func (r *Registry) Add(agent models.CaptureAgent) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, idx, ok := lo.FindIndexOf(r.agents, func(a models.CaptureAgent) bool { return a.ID == agent.ID }); ok {
		r.agents[idx] = agent
		return
	}
	r.agents = append(r.agents, agent)
}

// Remove drops the agent with id. Unknown ids are ignored.
func (r *Registry) Remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.agents = lo.Reject(r.agents, func(a models.CaptureAgent, _ int) bool { return a.ID == id })
}

// Get returns the agent with id.
func (r *Registry) Get(id string) (models.CaptureAgent, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return lo.Find(r.agents, func(a models.CaptureAgent) bool { return a.ID == id })
}

// List returns a copy of the agents in insertion order.
func (r *Registry) List() []models.CaptureAgent {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]models.CaptureAgent, len(r.agents))
	copy(out, r.agents)
	return out
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.agents)
}
