package provider

import (
	"fmt"

	"github.com/amoria-global/faxon-sub002/internal/domain/entity"
	errs "github.com/amoria-global/faxon-sub002/internal/domain/error"
)

// Registry resolves the adapter for a payment rail. It is populated once at
// startup; provider branching happens here, nowhere else.
type Registry struct {
	adapters map[entity.Provider]Adapter
}

// NewRegistry builds a registry over the configured adapters
func NewRegistry(adapters ...Adapter) *Registry {
	m := make(map[entity.Provider]Adapter, len(adapters))
	for _, a := range adapters {
		m[a.Name()] = a
	}
	return &Registry{adapters: m}
}

// Resolve returns the adapter for a provider
func (r *Registry) Resolve(p entity.Provider) (Adapter, error) {
	a, ok := r.adapters[p]
	if !ok {
		return nil, fmt.Errorf("%w: %s", errs.ErrInvalidProvider, p)
	}
	return a, nil
}
