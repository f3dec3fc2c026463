package guard

import "sort"

// Registry maps guard names to guards. Registration happens during startup;
// after Seal the registry is read-only and lookups need no locking.
type Registry struct {
	guards map[string]*Guard
	sealed bool
}

func NewRegistry() *Registry {
	return &Registry{guards: make(map[string]*Guard)}
}

func (r *Registry) Register(g *Guard) error {
	if r.sealed {
		return ErrRegistrySealed
	}
	if _, exists := r.guards[g.Name()]; exists {
		return &DuplicateGuardError{Name: g.Name()}
	}
	r.guards[g.Name()] = g
	return nil
}

// Seal ends the registration phase.
func (r *Registry) Seal() {
	r.sealed = true
}

func (r *Registry) Get(name string) (*Guard, error) {
	g, ok := r.guards[name]
	if !ok {
		return nil, &UnknownGuardError{Name: name}
	}
	return g, nil
}

func (r *Registry) ListNames() []string {
	names := make([]string, 0, len(r.guards))
	for name := range r.guards {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
