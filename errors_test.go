package gofac

import (
	"errors"
	"fmt"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestErrorMessages tests that error messages are not empty and distinct
func TestErrorMessages(t *testing.T) {
	errorTests := []error{
		ErrNotFunc,
		ErrNoReturn,
		ErrRegisterDuplicate,
		ErrServiceNotRegistered,
		ErrCreateInstanceFailed,
		ErrNotConcreteType,
		ErrResolveCircularDependency,
		ErrInvalidInterfaceType,
		ErrInvalidOutPtr,
		ErrTypeConvertFailed,
		ErrNilInstance,
		ErrContainerSealed,
		ErrScopeClosed,
		ErrContainerClosed,
		ErrNotInterfaceContract,
	}

	seen := make(map[string]bool)
	for _, err := range errorTests {
		msg := err.Error()
		assert.NotEmpty(t, msg)
		assert.False(t, seen[msg], "duplicate message %q", msg)
		seen[msg] = true
	}
}

func TestConstructionError(t *testing.T) {
	cause := errors.New("disk full")
	impl := reflect.TypeOf(&TestImpl{})
	iface := reflect.TypeOf((*ITestInterface)(nil)).Elem()

	err := &ConstructionError{Service: iface, Implementation: impl, Cause: cause}
	assert.ErrorIs(t, err, ErrCreateInstanceFailed)
	assert.ErrorIs(t, err, cause)
	assert.Same(t, cause, errors.Unwrap(err))
	assert.Contains(t, err.Error(), "*gofac.TestImpl")
	assert.Contains(t, err.Error(), "gofac.ITestInterface")
	assert.Contains(t, err.Error(), "disk full")

	self := &ConstructionError{Service: impl, Implementation: impl, Cause: cause}
	assert.NotContains(t, self.Error(), "(as ")

	wrapped := fmt.Errorf("resolve dependency: %w", err)
	var ce *ConstructionError
	assert.ErrorAs(t, wrapped, &ce)
	assert.False(t, errors.Is(err, ErrServiceNotRegistered))
}
