package collector

import (
	"fmt"
	"sort"
	"sync"
)

// Registry holds the available collectors by name
type Registry struct {
	mu         sync.RWMutex
	collectors map[string]Collector
}

// NewRegistry creates a new collector registry
func NewRegistry(cs ...Collector) *Registry {
	r := &Registry{
		collectors: make(map[string]Collector),
	}
	for _, c := range cs {
		r.Register(c)
	}
	return r
}

// Register adds a collector, replacing any with the same name
func (r *Registry) Register(c Collector) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.collectors[c.Name()] = c
}

// Get retrieves a collector by name
func (r *Registry) Get(name string) (Collector, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.collectors[name]
	return c, ok
}

// Lookup is Get with an error naming the known providers
func (r *Registry) Lookup(name string) (Collector, error) {
	if c, ok := r.Get(name); ok {
		return c, nil
	}
	return nil, fmt.Errorf("unknown collector %q (available: %v)", name, r.Names())
}

// Names returns registered collector names in sorted order
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.collectors))
	for name := range r.collectors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
