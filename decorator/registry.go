package decorator

import (
	"fmt"
	"reflect"
	"slices"
	"sort"
)

// Registry maps each contract to its chain, innermost first.
//
// RecordBind and LoadChain are configuration-time operations and must not
// run concurrently with each other or with Lookup. The owning container
// calls Freeze before its first resolve; from then on the registry is read
// only and Lookup is safe from any goroutine.
type Registry struct {
	chains map[reflect.Type][]reflect.Type
	frozen bool
}

// NewRegistry returns an empty, writable registry.
func NewRegistry() *Registry {
	return &Registry{chains: make(map[reflect.Type][]reflect.Type)}
}

// RecordBind folds one bind into the chain of contract. Binds arrive
// outermost first, so every new implementation goes in front of the ones
// already recorded. Non-interface contracts are ignored.
func (r *Registry) RecordBind(contract, impl reflect.Type) error {
	if r.frozen {
		return fmt.Errorf("%w: %s", ErrRegistryFrozen, contract)
	}
	if contract == nil || contract.Kind() != reflect.Interface {
		return nil
	}
	chain := r.chains[contract]
	if slices.Contains(chain, impl) {
		return nil
	}
	r.chains[contract] = append([]reflect.Type{impl}, chain...)
	return nil
}

// LoadChain merges an innermost-first chain into contract's chain. Elements
// already present keep their position; the rest are appended in order.
func (r *Registry) LoadChain(contract reflect.Type, chain []reflect.Type) error {
	if r.frozen {
		return fmt.Errorf("%w: %s", ErrRegistryFrozen, contract)
	}
	if contract == nil || contract.Kind() != reflect.Interface {
		return fmt.Errorf("%w: %v", ErrNotInterface, contract)
	}
	existing := r.chains[contract]
	for _, impl := range chain {
		if !slices.Contains(existing, impl) {
			existing = append(existing, impl)
		}
	}
	r.chains[contract] = existing
	return nil
}

// Lookup returns a copy of contract's chain; false when there is none.
func (r *Registry) Lookup(contract reflect.Type) ([]reflect.Type, bool) {
	chain := r.chains[contract]
	if len(chain) == 0 {
		return nil, false
	}
	return slices.Clone(chain), true
}

// Contains reports whether impl is part of contract's chain.
func (r *Registry) Contains(contract, impl reflect.Type) bool {
	return slices.Contains(r.chains[contract], impl)
}

// Contracts lists every contract with a chain, sorted by name.
func (r *Registry) Contracts() []reflect.Type {
	out := make([]reflect.Type, 0, len(r.chains))
	for c, chain := range r.chains {
		if len(chain) > 0 {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].String() < out[j].String() })
	return out
}

// Restore replaces contract's chain with chain, dropping it when chain is
// empty. It undoes binds whose registration failed after being recorded.
func (r *Registry) Restore(contract reflect.Type, chain []reflect.Type) error {
	if r.frozen {
		return fmt.Errorf("%w: %s", ErrRegistryFrozen, contract)
	}
	if len(chain) == 0 {
		delete(r.chains, contract)
		return nil
	}
	r.chains[contract] = slices.Clone(chain)
	return nil
}

// Freeze makes the registry read only.
func (r *Registry) Freeze() { r.frozen = true }

// Frozen reports whether Freeze has been called.
func (r *Registry) Frozen() bool { return r.frozen }
