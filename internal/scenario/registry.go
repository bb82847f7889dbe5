package scenario

import (
	"fmt"
	"sort"
	"sync"
)

// Registry is the process-wide scenario catalogue. Callers always receive
// copies; sessions keep the copy taken at call start.
type Registry struct {
	mu   sync.RWMutex
	defs map[string]Definition
}

// NewRegistry seeds the registry with the built-in scenarios.
func NewRegistry() *Registry {
	r := &Registry{defs: map[string]Definition{}}
	for _, d := range Builtins() {
		r.defs[d.ID] = d
	}
	return r
}

func (r *Registry) Get(id string) (Definition, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.defs[id]
	if !ok {
		return Definition{}, fmt.Errorf("%w: unknown scenario %q", ErrConfiguration, id)
	}
	return d.Clone(), nil
}

// Put validates and stores d, replacing any definition with the same id.
func (r *Registry) Put(d Definition) error {
	if err := d.Validate(); err != nil {
		return err
	}
	r.mu.Lock()
	r.defs[d.ID] = d.Clone()
	r.mu.Unlock()
	return nil
}

// Remove drops id. A built-in id reverts to its stock definition.
func (r *Registry) Remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, b := range Builtins() {
		if b.ID == id {
			r.defs[id] = b
			return
		}
	}
	delete(r.defs, id)
}

// List returns all definitions sorted by id.
func (r *Registry) List() []Definition {
	r.mu.RLock()
	out := make([]Definition, 0, len(r.defs))
	for _, d := range r.defs {
		out = append(out, d.Clone())
	}
	r.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
