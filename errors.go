package gofac

import (
	"errors"
	"fmt"
	"reflect"
)

// Framework core error definitions
var (
	ErrNotFunc                   = errors.New("registration must be a constructor function (function type)")
	ErrNoReturn                  = errors.New("constructor must return one value, optionally followed by an error")
	ErrRegisterDuplicate         = errors.New("service type already registered, duplicate registration prohibited")
	ErrServiceNotRegistered      = errors.New("service not registered, cannot resolve")
	ErrCreateInstanceFailed      = errors.New("failed to create service instance")
	ErrNotConcreteType           = errors.New("constructor return value must be concrete type (not interface)")
	ErrResolveCircularDependency = errors.New("circular dependency detected during resolution")
	ErrInvalidInterfaceType      = errors.New("interfaceType must be a nil pointer to interface, e.g. (*IInterface)(nil)")
	ErrInvalidOutPtr             = errors.New("out must be a non-nil pointer type")
	ErrTypeConvertFailed         = errors.New("instance cannot be converted to target type")
	ErrNilInstance               = errors.New("registered instance cannot be nil")
	ErrContainerSealed           = errors.New("container is sealed after the first resolution, register services before resolving")
	ErrScopeClosed               = errors.New("scope is closed")
	ErrContainerClosed           = errors.New("container is closed")
	ErrNotInterfaceContract      = errors.New("decorators can only be registered for interface contracts")
)

// ConstructionError carries the failure of one constructor call. It matches
// ErrCreateInstanceFailed under errors.Is and unwraps to the constructor's
// own error.
type ConstructionError struct {
	Service        reflect.Type // requested type
	Implementation reflect.Type // concrete type whose constructor failed
	Cause          error
}

func (e *ConstructionError) Error() string {
	if e.Service != nil && e.Service != e.Implementation {
		return fmt.Sprintf("%v: %s (as %s): %v", ErrCreateInstanceFailed, e.Implementation, e.Service, e.Cause)
	}
	return fmt.Sprintf("%v: %s: %v", ErrCreateInstanceFailed, e.Implementation, e.Cause)
}

func (e *ConstructionError) Unwrap() error { return e.Cause }

func (e *ConstructionError) Is(target error) bool { return target == ErrCreateInstanceFailed }
