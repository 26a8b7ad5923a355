package gofac

import (
	"fmt"
	"maps"
	"reflect"

	"go.uber.org/zap"

	"github.com/Ngone6325/gofac-patterns/decorator"
	"github.com/Ngone6325/gofac-patterns/lifetime"
)

// buildContext carries one top-level resolve: the scope it runs in and the
// services currently under construction, for cycle detection. It is used by
// one goroutine only.
type buildContext struct {
	scope *Scope
	track map[serviceKey]bool
}

func newBuildContext(s *Scope) *buildContext {
	return &buildContext{scope: s, track: make(map[serviceKey]bool)}
}

// in moves the build to another scope of the same tree, keeping the cycle tracker.
func (b *buildContext) in(s *Scope) *buildContext {
	if s == b.scope {
		return b
	}
	return &buildContext{scope: s, track: b.track}
}

func (b *buildContext) enter(key serviceKey) error {
	if b.track[key] {
		return fmt.Errorf("%w，循环依赖链包含：%s", ErrResolveCircularDependency, key.typ)
	}
	b.track[key] = true
	return nil
}

func (b *buildContext) leave(key serviceKey) { delete(b.track, key) }

// resolve 解析服务类型：覆盖值 → 作用域实例 → 装饰器链 → 注册表
func (b *buildContext) resolve(key serviceKey, overrides decorator.Overrides) (reflect.Value, error) {
	if v, ok := overrides.Lookup(key.typ); ok {
		return v, nil
	}
	if def, ok := b.scope.local(key); ok {
		return def.instance, nil
	}
	if err := b.enter(key); err != nil {
		return reflect.Value{}, err
	}
	defer b.leave(key)

	c := b.scope.container
	if c.strategy != nil && key.name == "" {
		req := decorator.Request{Type: key.typ, Name: key.name, Overrides: overrides}
		if v, handled, err := c.strategy.PreBuild(b, req); handled {
			return v, err
		}
	}

	def, ok := b.scope.lookup(key)
	if !ok {
		return reflect.Value{}, fmt.Errorf("%w，类型：%s", ErrServiceNotRegistered, key.typ)
	}
	return b.instantiate(def, decorator.Request{Type: key.typ, Overrides: overrides})
}

// Build constructs one concrete decorator chain element.
func (b *buildContext) Build(req decorator.Request) (reflect.Value, error) {
	def, ok := b.scope.container.lookupImpl(chainKey{req.Contract, req.Type})
	if !ok {
		return reflect.Value{}, fmt.Errorf("%w，实现类型：%s", ErrServiceNotRegistered, req.Type)
	}
	key := serviceKey{req.Type, req.Name}
	if err := b.enter(key); err != nil {
		return reflect.Value{}, err
	}
	defer b.leave(key)
	return b.instantiate(def, req)
}

// instantiate runs def's constructor under its lifetime manager. Singletons
// are built against the root scope so they never hold on to Session
// instances of the requesting scope; a Singleton chain element rebuilds the
// elements it wraps there as well.
func (b *buildContext) instantiate(def *ServiceDef, req decorator.Request) (reflect.Value, error) {
	if def.isInstance {
		return def.instance, nil
	}

	c := b.scope.container
	svc := req.Type
	builder := b
	if def.scope == Singleton {
		builder = b.in(c.root)
	}
	mgr := lifetime.NewManager(def.scope, b.scope.sessions, c.singletons, def)
	v, created, err := mgr.GetOrCreate(func() (reflect.Value, error) {
		overrides := req.Overrides
		if def.scope == Singleton && len(req.Inner) > 0 {
			var err error
			if overrides, err = builder.wrapped(req); err != nil {
				return reflect.Value{}, err
			}
		}
		return builder.construct(def, svc, overrides)
	})
	if err != nil {
		return reflect.Value{}, err
	}

	c.metrics.observe(def.scope, created)
	if created {
		c.logger.Debug("instance created",
			zap.Stringer("service", svc),
			zap.Stringer("implementation", def.implType),
			zap.Stringer("lifetime", def.scope),
			zap.Stringer("scope", b.scope.id))
	}
	return v, nil
}

// wrapped builds the chain elements below req in b's scope and returns
// req's overrides with the contract bound to the outermost of them.
func (b *buildContext) wrapped(req decorator.Request) (decorator.Overrides, error) {
	base := maps.Clone(req.Overrides)
	delete(base, req.Contract)

	var inner reflect.Value
	for i, impl := range req.Inner {
		overrides := base
		if i > 0 {
			overrides = base.With(req.Contract, inner)
		}
		v, err := b.Build(decorator.Request{
			Type:      impl,
			Name:      req.Name,
			Contract:  req.Contract,
			Inner:     req.Inner[:i:i],
			Overrides: overrides,
		})
		if err != nil {
			return nil, err
		}
		inner = v
	}
	return base.With(req.Contract, inner), nil
}

// construct 递归解析所有依赖参数并调用构造函数
func (b *buildContext) construct(def *ServiceDef, svc reflect.Type, overrides decorator.Overrides) (reflect.Value, error) {
	params := make([]reflect.Value, len(def.paramTypes))
	for i, pType := range def.paramTypes {
		pInstance, err := b.resolve(serviceKey{pType, ""}, overrides)
		if err != nil {
			return reflect.Value{}, fmt.Errorf("解析依赖%s失败：%w", pType, err)
		}
		params[i] = pInstance
	}
	return invoke(def, svc, params)
}

// invoke 调用构造函数；构造函数返回的 error 或 panic 都转换为 ConstructionError
func invoke(def *ServiceDef, svc reflect.Type, params []reflect.Value) (instance reflect.Value, err error) {
	defer func() {
		if r := recover(); r != nil {
			instance = reflect.Value{}
			err = &ConstructionError{Service: svc, Implementation: def.implType, Cause: fmt.Errorf("panic: %v", r)}
		}
	}()

	results := def.ctor.Call(params)
	if def.returnsErr && !results[1].IsNil() {
		return reflect.Value{}, &ConstructionError{
			Service:        svc,
			Implementation: def.implType,
			Cause:          results[1].Interface().(error),
		}
	}
	return results[0], nil
}
