package gofac

import (
	"fmt"
	"io"
	"reflect"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/Ngone6325/gofac-patterns/lifetime"
)

// Scope 作用域树的节点：同一个Scope内Session实例唯一，不同Scope相互隔离
//
// A scope sees its own instance registrations, those of its ancestors and
// the container's registrations. Singletons are shared with the whole tree
// through the root container; Session instances belong to the scope that
// resolved them and are never inherited by children.
type Scope struct {
	id        uuid.UUID
	container *Container
	parent    *Scope
	sessions  *lifetime.Store            // 本作用域 Session 实例缓存
	locals    map[serviceKey]*ServiceDef // 本作用域注册的实例
	mu        sync.RWMutex
	closed    atomic.Bool
}

func newScope(c *Container, parent *Scope) *Scope {
	s := &Scope{
		id:        uuid.New(),
		container: c,
		parent:    parent,
		sessions:  lifetime.NewStore(),
		locals:    make(map[serviceKey]*ServiceDef),
	}
	fields := []zap.Field{zap.Stringer("scope", s.id)}
	if parent != nil {
		fields = append(fields, zap.Stringer("parent", parent.id))
	}
	c.logger.Debug("scope opened", fields...)
	return s
}

// ID identifies the scope in logs.
func (s *Scope) ID() uuid.UUID { return s.id }

// Parent returns nil for the root scope.
func (s *Scope) Parent() *Scope { return s.parent }

// Container returns the container the scope tree belongs to.
func (s *Scope) Container() *Container { return s.container }

// NewScope creates a child. Children are closed independently of their parent.
func (s *Scope) NewScope() *Scope {
	return newScope(s.container, s)
}

// RegisterInstance registers an instance visible to this scope and its descendants only.
func (s *Scope) RegisterInstance(instance any) error {
	return s.RegisterInstanceAs(instance, nil)
}

// RegisterInstanceAs is RegisterInstance under a given service type. For a
// decorated contract the instance stands in for the whole chain within this
// scope and its descendants.
func (s *Scope) RegisterInstanceAs(instance any, interfaceType any) error {
	if s.closed.Load() {
		return ErrScopeClosed
	}
	def, err := instanceDef(instance, interfaceType)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.locals[def.key]; exists {
		return fmt.Errorf("%w，类型：%s", ErrRegisterDuplicate, def.key.typ)
	}
	s.locals[def.key] = def
	return nil
}

// Resolve 作用域解析：通过指针接收实例
func (s *Scope) Resolve(out any) error {
	return s.ResolveNamed("", out)
}

// ResolveNamed 命名解析
func (s *Scope) ResolveNamed(name string, out any) error {
	outVal := reflect.ValueOf(out)
	if outVal.Kind() != reflect.Ptr || outVal.IsNil() {
		return ErrInvalidOutPtr
	}
	instance, err := s.resolve(serviceKey{outVal.Elem().Type(), name})
	if err != nil {
		return err
	}
	outVal.Elem().Set(instance)
	return nil
}

// MustResolve 作用域便捷解析：出错直接Panic
func (s *Scope) MustResolve(out any) {
	if err := s.Resolve(out); err != nil {
		panic(fmt.Sprintf("【DI作用域解析失败】%v", err))
	}
}

func (s *Scope) resolve(key serviceKey) (reflect.Value, error) {
	if s.container.closed.Load() {
		return reflect.Value{}, ErrContainerClosed
	}
	if s.closed.Load() {
		return reflect.Value{}, ErrScopeClosed
	}
	s.container.seal()
	return newBuildContext(s).resolve(key, nil)
}

// lookup walks the scope chain, then the container's table.
func (s *Scope) lookup(key serviceKey) (*ServiceDef, bool) {
	if def, ok := s.local(key); ok {
		return def, true
	}
	return s.container.lookup(key)
}

// local finds an instance registered on s or one of its ancestors.
func (s *Scope) local(key serviceKey) (*ServiceDef, bool) {
	for n := s; n != nil; n = n.parent {
		n.mu.RLock()
		def, ok := n.locals[key]
		n.mu.RUnlock()
		if ok {
			return def, true
		}
	}
	return nil, false
}

// SessionCount reports how many Session instances the scope currently holds.
func (s *Scope) SessionCount() int { return s.sessions.Len() }

// Close releases the scope's Session instances, closing those that
// implement io.Closer, most recent first. Singletons are untouched.
// Resolving from a closed scope fails with ErrScopeClosed.
func (s *Scope) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	released := s.sessions.Release()
	s.container.logger.Debug("scope closed",
		zap.Stringer("scope", s.id),
		zap.Int("released", len(released)))
	return closeAll(released)
}

func closeAll(values []reflect.Value) error {
	var errs error
	for _, v := range values {
		if !v.IsValid() || (v.Kind() == reflect.Ptr && v.IsNil()) || !v.CanInterface() {
			continue
		}
		if closer, ok := v.Interface().(io.Closer); ok {
			errs = multierr.Append(errs, closer.Close())
		}
	}
	return errs
}
