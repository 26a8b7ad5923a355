package gofac

import (
	"fmt"
	"reflect"

	"go.uber.org/zap"

	"github.com/Ngone6325/gofac-patterns/decorator"
	"github.com/Ngone6325/gofac-patterns/lifetime"
)

// EnableDecorators installs the decorator registry and its construction
// strategy. From then on, repeated RegisterAs calls for one interface declare
// a chain, outermost implementation first:
//
//	c.EnableDecorators()
//	c.RegisterAs(NewCachingService, (*Service)(nil), gofac.Session)
//	c.RegisterAs(NewLoggingService, (*Service)(nil), gofac.Session)
//	c.RegisterAs(NewService, (*Service)(nil), gofac.Session)
//
// Binds made before EnableDecorators and named binds are not part of any
// chain. Calling it again is a no-op.
func (c *Container) EnableDecorators() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sealed.Load() {
		return ErrContainerSealed
	}
	c.enableDecorators()
	return nil
}

func (c *Container) enableDecorators() {
	if c.decorators != nil {
		return
	}
	c.decorators = decorator.NewRegistry()
	c.strategy = decorator.NewStrategy(c.decorators,
		decorator.WithLogger(c.logger),
		decorator.WithChainObserver(func(contract reflect.Type) { c.metrics.observeChain(contract) }))
	c.hooks = append(c.hooks, func(ev RegistrationEvent) error {
		// named binds are alternatives, not layers
		if ev.Name != "" {
			return nil
		}
		return c.decorators.RecordBind(ev.Contract, ev.Implementation)
	})
	c.logger.Debug("decorators enabled")
}

// Decorators returns the decorator registry, or nil when decorators are off.
func (c *Container) Decorators() *decorator.Registry {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.decorators
}

// RegisterDecorators registers the stack's implementations as one chain for
// contract T, innermost first, enabling decorators if needed. Each
// implementation's lifetime comes from policy; a nil policy means the
// container's own.
//
//	gofac.RegisterDecorators(c, decorator.NewStack[Service]().
//		Push(NewService).
//		Push(NewLoggingService).
//		Push(NewCachingService), nil)
func RegisterDecorators[T any](c *Container, stack *decorator.Stack[T], policy lifetime.Policy) error {
	if err := stack.Err(); err != nil {
		return err
	}
	contract := stack.Contract()
	if contract.Kind() != reflect.Interface {
		return fmt.Errorf("%w：%s", ErrNotInterfaceContract, contract)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sealed.Load() {
		return ErrContainerSealed
	}
	c.enableDecorators()
	if policy == nil {
		policy = c.policy
	}

	// Load the canonical order first; the bind events fired below find each
	// element already present and leave the chain as is. A failed element
	// takes the whole stack back out.
	restore := c.snapshot(contract)
	if err := c.decorators.LoadChain(contract, stack.Types()); err != nil {
		return err
	}
	iface := reflect.New(contract).Interface()
	for _, ctor := range stack.Constructors() {
		if err := c.register(ctor, iface, "", policy); err != nil {
			restore()
			return err
		}
	}

	c.logger.Debug("decorator chain loaded",
		zap.Stringer("contract", contract),
		zap.Stringers("chain", stack.Types()))
	return nil
}
