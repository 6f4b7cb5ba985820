package embedding

import (
	"fmt"
	"sort"
)

// Registry resolves provider tags. Callers pass the tag explicitly; there is
// no process-wide "current" provider.
type Registry struct {
	providers   map[string]Provider
	defaultName string
}

func NewRegistry(defaultName string, providers ...Provider) *Registry {
	r := &Registry{providers: make(map[string]Provider, len(providers)), defaultName: defaultName}
	for _, p := range providers {
		r.providers[p.Name()] = p
	}
	if r.defaultName == "" && len(providers) > 0 {
		r.defaultName = providers[0].Name()
	}
	return r
}

// Get returns the provider for tag, or the default provider when tag is empty.
func (r *Registry) Get(tag string) (Provider, error) {
	if tag == "" {
		tag = r.defaultName
	}
	p, ok := r.providers[tag]
	if !ok {
		return nil, fmt.Errorf("%q: %w", tag, ErrUnknownProvider)
	}
	return p, nil
}

func (r *Registry) Default() string {
	return r.defaultName
}

func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
