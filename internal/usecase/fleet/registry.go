// Package fleet holds the live mapping from agent name to its supervisor.
// Entries are inserted during startup only; stopped agents stay registered
// so an operator can resume them later.
package fleet

import (
	"log/slog"
	"sort"
	"sync"

	"fleetd/internal/domain"
	"fleetd/internal/usecase/supervisor"
)

// Registry maps agent names to supervisors.
type Registry struct {
	mu     sync.RWMutex
	agents map[string]*supervisor.Supervisor
	logger *slog.Logger
}

// NewRegistry creates an empty fleet registry.
func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{
		agents: make(map[string]*supervisor.Supervisor),
		logger: logger,
	}
}

// Register adds an agent. Returns ErrDuplicate if the name is taken.
func (r *Registry) Register(name string, sup *supervisor.Supervisor) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.agents[name]; exists {
		return domain.NewError("Fleet.Register", domain.ErrDuplicate, name)
	}
	r.agents[name] = sup
	r.logger.Info("agent registered", "agent", name, "ordinal", sup.Descriptor().Ordinal)
	return nil
}

// Get returns the supervisor for name, or ErrNotFound.
func (r *Registry) Get(name string) (*supervisor.Supervisor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sup, ok := r.agents[name]
	if !ok {
		return nil, domain.NewError("Fleet.Get", domain.ErrNotFound, name)
	}
	return sup, nil
}

// Names returns all agent names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.agents))
	for name := range r.agents {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// List returns a status snapshot for every agent, sorted by name.
func (r *Registry) List() []domain.SpawnStatus {
	r.mu.RLock()
	defer r.mu.RUnlock()

	statuses := make([]domain.SpawnStatus, 0, len(r.agents))
	for _, sup := range r.agents {
		statuses = append(statuses, sup.Status())
	}
	sort.Slice(statuses, func(i, j int) bool {
		return statuses[i].Name < statuses[j].Name
	})
	return statuses
}

// Len returns the number of registered agents.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.agents)
}

// StopAll stops every running agent. Used by the shutdown sweep.
func (r *Registry) StopAll() {
	for _, st := range r.List() {
		if st.State != domain.AgentRunning {
			continue
		}
		if sup, err := r.Get(st.Name); err == nil {
			sup.Stop()
		}
	}
}
