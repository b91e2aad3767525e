package framework

import (
	"fmt"
	"sync"

	"github.com/Strob0t/HumanCheck/internal/domain"
)

// Registry maps framework names to adapter instances. Frameworks are wired
// once at process start and read many times afterwards; the registry is an
// explicit object passed to the layers that need adapter lookup rather than
// a hidden package singleton.
type Registry struct {
	mu       sync.RWMutex
	adapters map[string]Adapter
}

// NewRegistry creates an empty adapter registry.
func NewRegistry() *Registry {
	return &Registry{adapters: make(map[string]Adapter)}
}

// Register adds an adapter under its framework name. Registration is
// intentionally not idempotent: a second registration for the same name fails
// with domain.ErrDuplicateFramework to catch accidental double-initialization.
func (r *Registry) Register(a Adapter) error {
	name := a.Name()

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.adapters[name]; exists {
		return fmt.Errorf("%w: %q", domain.ErrDuplicateFramework, name)
	}
	r.adapters[name] = a
	return nil
}

// Get returns the adapter for the given framework name.
func (r *Registry) Get(name string) (Adapter, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.adapters[name]
	return a, ok
}

// Unregister removes the adapter for the given framework name. Removing an
// unknown name is a no-op.
func (r *Registry) Unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.adapters, name)
}

// Names returns the registered framework names.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.adapters))
	for name := range r.adapters {
		names = append(names, name)
	}
	return names
}
