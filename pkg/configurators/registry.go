package configurators

import (
	"fmt"
	"sort"
	"sync"

	"github.com/droidseed/droidseed/pkg/engine"
	"github.com/droidseed/droidseed/pkg/sample"
	"github.com/droidseed/droidseed/pkg/spec"
)

// Registry holds the configurators for each domain. It implements
// engine.Registry.
type Registry struct {
	mu       sync.RWMutex
	byDomain map[spec.Domain]engine.Configurator
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{byDomain: make(map[spec.Domain]engine.Configurator)}
}

// Register adds or replaces the configurator for its domain.
func (r *Registry) Register(c engine.Configurator) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byDomain[c.Domain()] = c
}

// Resolve returns the configurator for the domain.
func (r *Registry) Resolve(d spec.Domain) (engine.Configurator, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.byDomain[d]
	if !ok {
		return nil, fmt.Errorf("no configurator registered for domain %s", d)
	}
	return c, nil
}

// Domains lists the registered domains in lexical order.
func (r *Registry) Domains() []spec.Domain {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]spec.Domain, 0, len(r.byDomain))
	for d := range r.byDomain {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Default builds a registry with every supported domain wired in. Random
// content for the add_random_* directives is drawn from rng.
func Default(rng *sample.Provider) *Registry {
	if rng == nil {
		rng = sample.NewTimeSeeded()
	}
	r := NewRegistry()
	r.Register(&Datetime{rng: rng})
	r.Register(&System{})
	r.Register(&Contacts{})
	r.Register(&SMS{rng: rng})
	r.Register(&Calendar{rng: rng})
	r.Register(&Recipe{rng: rng})
	r.Register(&Tasks{rng: rng})
	r.Register(&Expense{rng: rng})
	r.Register(&Music{})
	r.Register(&Joplin{rng: rng})
	r.Register(&Osmand{})
	r.Register(&AudioRecorder{})
	r.Register(&Markor{rng: rng})
	r.Register(&Files{rng: rng})
	r.Register(&OpenTracks{rng: rng})
	r.Register(&Gallery{})
	return r
}
