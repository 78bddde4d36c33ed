package provider

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/modelgate/modelgate/pkg/api"
)

// Registry maps provider names to registered instances. It is an explicit
// object handed to the dispatcher, never ambient global state, so tests can
// build isolated registries with fake providers.
//
// Registration happens at startup; after that the registry is read-only and
// supports unbounded concurrent lookups.
type Registry struct {
	mu        sync.RWMutex
	providers map[string]Provider
	order     []string
}

// NewRegistry constructs an empty provider registry.
func NewRegistry() *Registry {
	return &Registry{
		providers: make(map[string]Provider),
	}
}

// Register adds p under its Name. A duplicate name is a wiring mistake and
// fails loudly rather than overwriting the earlier registration.
func (r *Registry) Register(p Provider) error {
	if p == nil {
		return errors.New("provider must not be nil")
	}
	name := p.Name()
	if name == "" {
		return errors.New("provider name must not be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.providers[name]; exists {
		return fmt.Errorf("provider %q already registered", name)
	}
	r.providers[name] = p
	r.order = append(r.order, name)
	return nil
}

// Lookup returns the provider registered under name, or an
// api.ProviderNotFoundError carrying the requested name and the sorted set
// of known names.
func (r *Registry) Lookup(name string) (Provider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.providers[name]
	if !ok {
		return nil, &api.ProviderNotFoundError{Provider: name, Known: r.knownLocked()}
	}
	return p, nil
}

// Names returns the registered provider names in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, len(r.order))
	copy(names, r.order)
	return names
}

// Close closes every registered provider and joins their errors.
func (r *Registry) Close() error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var errs []error
	for _, name := range r.order {
		if err := r.providers[name].Close(); err != nil {
			errs = append(errs, fmt.Errorf("closing provider %q: %w", name, err))
		}
	}
	return errors.Join(errs...)
}

func (r *Registry) knownLocked() []string {
	known := make([]string, len(r.order))
	copy(known, r.order)
	sort.Strings(known)
	return known
}
