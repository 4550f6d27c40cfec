package sampler

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

var (
	// ErrSamplerNotFound is returned when no sampler is registered under a name.
	ErrSamplerNotFound = errors.New("sampler not found")

	// ErrSamplerExists is returned when a name is registered twice.
	ErrSamplerExists = errors.New("sampler already registered")
)

// Registry maps names to samplers. It is safe for concurrent use.
type Registry struct {
	mu       sync.RWMutex
	samplers map[string]Sampler
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{samplers: make(map[string]Sampler)}
}

// Register adds s under name.
func (r *Registry) Register(name string, s Sampler) error {
	if name == "" {
		return errors.New("sampler name is required")
	}
	if s == nil {
		return fmt.Errorf("sampler %q is nil", name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.samplers[name]; exists {
		return fmt.Errorf("%w: %s", ErrSamplerExists, name)
	}
	r.samplers[name] = s
	return nil
}

// Get returns the sampler registered under name.
func (r *Registry) Get(name string) (Sampler, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.samplers[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSamplerNotFound, name)
	}
	return s, nil
}

// Names returns the registered names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.samplers))
	for name := range r.samplers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of registered samplers.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.samplers)
}
