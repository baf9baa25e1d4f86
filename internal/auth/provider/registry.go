package provider

import (
	"errors"
	"fmt"
)

// ErrUnknownProvider is returned by Get for names that were not registered.
var ErrUnknownProvider = errors.New("unknown link provider")

// Registry holds all configured link providers and allows lookup by name.
// It performs no auth logic itself.
type Registry struct {
	providers map[string]LinkProvider
}

// NewRegistry registers the given providers by name. A later provider with
// the same name replaces an earlier one.
func NewRegistry(list ...LinkProvider) *Registry {
	m := make(map[string]LinkProvider)
	for _, p := range list {
		m[p.Name()] = p
	}
	return &Registry{providers: m}
}

// Get returns the provider by name or ErrUnknownProvider.
func (r *Registry) Get(name string) (LinkProvider, error) {
	p, ok := r.providers[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownProvider, name)
	}
	return p, nil
}
