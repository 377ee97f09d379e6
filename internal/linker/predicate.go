package linker

import (
	"context"
	"fmt"
)

// PredicateFunc answers whether a route's action can be performed with the
// given resolved parameters. An error counts as "no".
type PredicateFunc func(ctx context.Context, args map[string]any) (bool, error)

// Predicate is an access predicate registered alongside a route descriptor
// at startup. Params declares the parameter names the predicate needs; each
// is resolved, in order of preference, from the current route parameters,
// the request's ambient values, then the Resolver's service registry. A
// parameter that resolves nowhere makes the predicate unevaluable and hides
// the link.
type Predicate struct {
	Params []string
	Func   PredicateFunc
}

// PredicateRegistry maps predicate names (as referenced by descriptors) to
// registered predicates. Populate it during startup; it is read-only at
// request time.
type PredicateRegistry struct {
	predicates map[string]Predicate
}

// NewPredicateRegistry creates an empty registry.
func NewPredicateRegistry() *PredicateRegistry {
	return &PredicateRegistry{predicates: make(map[string]Predicate)}
}

// Register adds a predicate under name. Registering the same name twice is
// a wiring bug and returns an error.
func (r *PredicateRegistry) Register(name string, p Predicate) error {
	if name == "" {
		return fmt.Errorf("predicate name must not be empty")
	}
	if p.Func == nil {
		return fmt.Errorf("predicate %q has no function", name)
	}
	if _, dup := r.predicates[name]; dup {
		return fmt.Errorf("predicate %q already registered", name)
	}
	r.predicates[name] = p
	return nil
}

func (r *PredicateRegistry) lookup(name string) (Predicate, bool) {
	if r == nil {
		return Predicate{}, false
	}
	p, ok := r.predicates[name]
	return p, ok
}
