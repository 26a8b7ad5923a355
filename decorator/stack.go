// Package decorator resolves chains of implementations that wrap one another
// behind a shared interface contract.
//
// A chain is stored innermost first. Resolving the contract builds the
// innermost implementation normally, then builds each outer implementation
// with the contract overridden to the instance built just before it, and
// hands back the outermost one.
package decorator

import (
	"errors"
	"fmt"
	"reflect"
	"slices"
)

// Errors reported by stacks and registries.
var (
	ErrNotInterface       = errors.New("decorator contract must be an interface type")
	ErrInvalidConstructor = errors.New("decorator constructor must be a func returning one implementation, optionally followed by an error")
	ErrRegistryFrozen     = errors.New("decorator registry is frozen after the first resolution")
)

var errorType = reflect.TypeOf((*error)(nil)).Elem()

// Stack collects the implementations of contract T, innermost first.
//
//	stack := decorator.NewStack[Service]().
//		Push(NewService).
//		Push(NewLoggingService).
//		Push(NewCachingService)
type Stack[T any] struct {
	contract reflect.Type
	types    []reflect.Type
	ctors    []any
	err      error
}

// NewStack starts an empty stack for contract T. A non-interface T is
// reported by Err.
func NewStack[T any]() *Stack[T] {
	s := &Stack[T]{contract: reflect.TypeOf((*T)(nil)).Elem()}
	if s.contract.Kind() != reflect.Interface {
		s.err = fmt.Errorf("%w: %s", ErrNotInterface, s.contract)
	}
	return s
}

// Push appends the implementation built by ctor. Pushing an implementation
// type that is already on the stack does nothing.
func (s *Stack[T]) Push(ctor any) *Stack[T] {
	impl, err := ImplementationOf(ctor, s.contract)
	if err != nil {
		if s.err == nil {
			s.err = err
		}
		return s
	}
	if slices.Contains(s.types, impl) {
		return s
	}
	s.types = append(s.types, impl)
	s.ctors = append(s.ctors, ctor)
	return s
}

// Contract returns the interface type T.
func (s *Stack[T]) Contract() reflect.Type { return s.contract }

// Types returns the implementation types, innermost first.
func (s *Stack[T]) Types() []reflect.Type { return slices.Clone(s.types) }

// Constructors returns the constructors in the same order as Types.
func (s *Stack[T]) Constructors() []any { return slices.Clone(s.ctors) }

// Len reports the number of implementations pushed.
func (s *Stack[T]) Len() int { return len(s.types) }

// Err reports the first invalid contract or constructor seen by the stack.
func (s *Stack[T]) Err() error { return s.err }

// ImplementationOf returns the concrete type ctor builds, checking that it
// satisfies contract. ctor must return exactly one value, or a value and an
// error.
func ImplementationOf(ctor any, contract reflect.Type) (reflect.Type, error) {
	if ctor == nil {
		return nil, ErrInvalidConstructor
	}
	ct := reflect.TypeOf(ctor)
	if ct.Kind() != reflect.Func {
		return nil, fmt.Errorf("%w: got %s", ErrInvalidConstructor, ct)
	}
	switch {
	case ct.NumOut() == 1:
	case ct.NumOut() == 2 && ct.Out(1) == errorType:
	default:
		return nil, fmt.Errorf("%w: got %s", ErrInvalidConstructor, ct)
	}
	impl := ct.Out(0)
	if impl.Kind() == reflect.Interface {
		return nil, fmt.Errorf("%w: %s returns an interface", ErrInvalidConstructor, ct)
	}
	if contract != nil && contract.Kind() == reflect.Interface && !impl.Implements(contract) {
		return nil, fmt.Errorf("%w: %s does not implement %s", ErrInvalidConstructor, impl, contract)
	}
	return impl, nil
}
