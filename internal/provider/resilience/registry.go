package resilience

import (
	"sort"
	"sync"
	"time"

	"github.com/sony/gobreaker/v2"
)

// Provider status values.
const (
	StatusHealthy   = "healthy"
	StatusDegraded  = "degraded"
	StatusUnhealthy = "unhealthy"
)

// ProviderHealth represents the health status of a provider. Trips counts
// transitions into the open state.
type ProviderHealth struct {
	Name           string           `json:"name"`
	CircuitState   gobreaker.State  `json:"-"`
	Counts         gobreaker.Counts `json:"-"`
	LastSuccessAt  *time.Time       `json:"lastSuccessAt,omitempty"`
	LastFailureAt  *time.Time       `json:"lastFailureAt,omitempty"`
	LastError      string           `json:"lastError,omitempty"`
	StateChangedAt *time.Time       `json:"stateChangedAt,omitempty"`
	Trips          int              `json:"trips"`
}

// Status maps the circuit state to healthy, degraded (half-open) or unhealthy (open).
func (h *ProviderHealth) Status() string {
	switch h.CircuitState {
	case gobreaker.StateClosed:
		return StatusHealthy
	case gobreaker.StateHalfOpen:
		return StatusDegraded
	default:
		return StatusUnhealthy
	}
}

// Registry tracks provider clients and the outcome of their calls.
type Registry struct {
	mu        sync.RWMutex
	providers map[string]*registeredProvider
	now       func() time.Time
}

type registeredProvider struct {
	client         *Client
	lastSuccessAt  *time.Time
	lastFailureAt  *time.Time
	lastError      string
	stateChangedAt *time.Time
	trips          int
}

// NewRegistry creates a new provider registry.
func NewRegistry() *Registry {
	return &Registry{
		providers: make(map[string]*registeredProvider),
		now:       time.Now,
	}
}

// Register adds a provider client to the registry, replacing any client
// registered under the same name.
func (r *Registry) Register(name string, client *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[name] = &registeredProvider{client: client}
}

// Unregister removes a provider from the registry.
func (r *Registry) Unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.providers, name)
}

// RecordSuccess records a successful request for a provider.
func (r *Registry) RecordSuccess(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.providers[name]; ok {
		now := r.now()
		p.lastSuccessAt = &now
	}
}

// RecordFailure records a failed request for a provider.
func (r *Registry) RecordFailure(name string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.providers[name]; ok {
		now := r.now()
		p.lastFailureAt = &now
		if err != nil {
			p.lastError = err.Error()
		}
	}
}

// RecordStateChange records a circuit breaker transition. It matches
// StateChangeFunc so clients can report into the registry directly.
func (r *Registry) RecordStateChange(name string, _, to gobreaker.State) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.providers[name]; ok {
		now := r.now()
		p.stateChangedAt = &now
		if to == gobreaker.StateOpen {
			p.trips++
		}
	}
}

// GetHealth returns the health of a provider, or nil if it is not registered.
func (r *Registry) GetHealth(name string) *ProviderHealth {
	r.mu.RLock()
	p, ok := r.providers[name]
	if !ok {
		r.mu.RUnlock()
		return nil
	}
	h := p.snapshot(name)
	r.mu.RUnlock()

	h.fillCircuit(p.client)
	return h
}

// GetAllHealth returns the health of every provider, sorted by name.
func (r *Registry) GetAllHealth() []*ProviderHealth {
	r.mu.RLock()
	health := make([]*ProviderHealth, 0, len(r.providers))
	clients := make(map[string]*Client, len(r.providers))
	for name, p := range r.providers {
		health = append(health, p.snapshot(name))
		clients[name] = p.client
	}
	r.mu.RUnlock()

	for _, h := range health {
		h.fillCircuit(clients[h.Name])
	}
	sort.Slice(health, func(i, j int) bool { return health[i].Name < health[j].Name })
	return health
}

// Overall returns the worst status across providers; healthy when none are registered.
func (r *Registry) Overall() string {
	status := StatusHealthy
	for _, h := range r.GetAllHealth() {
		switch h.Status() {
		case StatusUnhealthy:
			return StatusUnhealthy
		case StatusDegraded:
			status = StatusDegraded
		}
	}
	return status
}

// ProviderCount returns the number of registered providers.
func (r *Registry) ProviderCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.providers)
}

// snapshot copies the recorded outcomes. It runs under the registry lock.
func (p *registeredProvider) snapshot(name string) *ProviderHealth {
	return &ProviderHealth{
		Name:           name,
		LastSuccessAt:  p.lastSuccessAt,
		LastFailureAt:  p.lastFailureAt,
		LastError:      p.lastError,
		StateChangedAt: p.stateChangedAt,
		Trips:          p.trips,
	}
}

// fillCircuit reads the breaker state. It must run without the registry
// lock: the breaker calls RecordStateChange while holding its own lock.
func (h *ProviderHealth) fillCircuit(c *Client) {
	h.CircuitState = c.CircuitBreakerState()
	h.Counts = c.CircuitBreakerCounts()
}
