package gofac

import (
	"fmt"
	"maps"
	"reflect"
	"sync"
	"sync/atomic"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/Ngone6325/gofac-patterns/decorator"
	"github.com/Ngone6325/gofac-patterns/lifetime"
)

var errorType = reflect.TypeOf((*error)(nil)).Elem()

type serviceKey struct {
	typ  reflect.Type
	name string
}

// chainKey identifies one implementation bound to one interface contract.
type chainKey struct {
	contract reflect.Type
	impl     reflect.Type
}

func chainKeyOf(def *ServiceDef) (chainKey, bool) {
	if def.key.name != "" || def.key.typ.Kind() != reflect.Interface {
		return chainKey{}, false
	}
	return chainKey{def.key.typ, def.implType}, true
}

// ServiceDef 服务定义：存储注册元信息和缓存的参数类型
type ServiceDef struct {
	key        serviceKey     // 注册的服务类型（接口或实现类型）与名称
	implType   reflect.Type   // 服务实现类型（构造函数返回值或实例类型）
	scope      LifetimeScope  // 生命周期
	instance   reflect.Value  // 预注册实例
	ctor       reflect.Value  // 构造函数反射值（实例注册时为空）
	paramTypes []reflect.Type // 构造函数参数类型，注册时解析一次
	returnsErr bool           // 构造函数第二个返回值为 error
	isInstance bool           // 是否为实例注册（true时直接使用instance，不调用ctor）
}

// Lifetime reports the registration's lifetime.
func (d *ServiceDef) Lifetime() LifetimeScope { return d.scope }

// Implementation reports the concrete type the registration builds.
func (d *ServiceDef) Implementation() reflect.Type { return d.implType }

// RegistrationEvent is delivered synchronously to every hook on each bind.
type RegistrationEvent struct {
	Contract       reflect.Type // service type the binding is resolved by
	Implementation reflect.Type // concrete type built for it
	Name           string
}

// RegisterHook observes binds. Hooks run while the container's registration
// lock is held and must not call back into the container.
type RegisterHook func(RegistrationEvent) error

// Container DI容器核心：保存注册表，作为作用域树的根
//
// Registration is configuration-time work: finish every Register* call
// before the first resolve. The first resolve seals the container, its
// decorator registry and its lifetime policy; later registrations fail with
// ErrContainerSealed. Resolution is safe from any number of goroutines.
type Container struct {
	services map[serviceKey]*ServiceDef // 按服务类型（接口/实现）索引
	impls    map[chainKey]*ServiceDef   // 按（接口，实现类型）索引，装饰器链逐个构造时使用
	hooks    []RegisterHook

	decorators *decorator.Registry
	strategy   *decorator.Strategy
	policy     lifetime.Policy

	singletons *lifetime.Store
	root       *Scope

	logger         *zap.Logger
	metrics        *Metrics
	withDecorators bool

	sealed   atomic.Bool
	closed   atomic.Bool
	sealOnce sync.Once
	mu       sync.RWMutex
}

// NewContainer 创建新的DI容器
func NewContainer(opts ...Option) *Container {
	c := &Container{
		services:   make(map[serviceKey]*ServiceDef),
		impls:      make(map[chainKey]*ServiceDef),
		policy:     lifetime.NewPolicyMap(),
		singletons: lifetime.NewStore(),
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.withDecorators {
		c.enableDecorators()
	}
	c.root = newScope(c, nil)
	return c
}

// OnRegister adds a hook that sees every later bind.
func (c *Container) OnRegister(hook RegisterHook) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sealed.Load() {
		return ErrContainerSealed
	}
	c.hooks = append(c.hooks, hook)
	return nil
}

// Register 基础注册：按构造函数返回值类型注册
func (c *Container) Register(ctor any, scope LifetimeScope) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.register(ctor, nil, "", lifetime.Fixed(scope))
}

// RegisterAs 接口注册：将实现类型注册为指定接口类型。
// With decorators enabled, repeated RegisterAs calls for one interface
// declare a decorator chain, outermost first.
func (c *Container) RegisterAs(ctor any, interfaceType any, scope LifetimeScope) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.register(ctor, interfaceType, "", lifetime.Fixed(scope))
}

// RegisterAsNamed 命名接口注册：同一接口可注册多个命名实现
func (c *Container) RegisterAsNamed(name string, ctor any, interfaceType any, scope LifetimeScope) error {
	if name == "" {
		return fmt.Errorf("命名注册的名称不能为空")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.register(ctor, interfaceType, name, lifetime.Fixed(scope))
}

// RegisterByPolicy registers ctor with the lifetime the container's policy
// assigns to its concrete type. interfaceType may be nil.
func (c *Container) RegisterByPolicy(ctor any, interfaceType any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.register(ctor, interfaceType, "", c.policy)
}

// register 内部通用注册逻辑
func (c *Container) register(ctor any, interfaceType any, name string, policy lifetime.Policy) error {
	if c.sealed.Load() {
		return ErrContainerSealed
	}
	if ctor == nil {
		return ErrNotFunc
	}

	// 解析构造函数反射信息
	ctorVal := reflect.ValueOf(ctor)
	ctorType := ctorVal.Type()
	if ctorType.Kind() != reflect.Func {
		return ErrNotFunc
	}

	// 校验构造函数返回值：一个具体类型，可选第二个 error 返回值
	numOut := ctorType.NumOut()
	returnsErr := numOut == 2 && ctorType.Out(1) == errorType
	if numOut != 1 && !returnsErr {
		return fmt.Errorf("%w，当前返回值：%s", ErrNoReturn, ctorType)
	}
	implType := ctorType.Out(0)
	if implType.Kind() == reflect.Interface {
		return fmt.Errorf("%w，返回值为接口：%s", ErrNotConcreteType, implType)
	}

	svcType, err := serviceTypeOf(implType, interfaceType)
	if err != nil {
		return err
	}

	params := make([]reflect.Type, ctorType.NumIn())
	for i := range params {
		params[i] = ctorType.In(i)
	}

	def := &ServiceDef{
		key:        serviceKey{svcType, name},
		implType:   implType,
		scope:      policy.Entry(implType),
		ctor:       ctorVal,
		paramTypes: params,
		returnsErr: returnsErr,
	}
	return c.add(def)
}

// RegisterInstance 实例注册：直接注册已创建的实例，按实例类型注册
func (c *Container) RegisterInstance(instance any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sealed.Load() {
		return ErrContainerSealed
	}
	def, err := instanceDef(instance, nil)
	if err != nil {
		return err
	}
	return c.add(def)
}

// RegisterInstanceAs 实例接口注册：将已创建的实例注册为指定接口类型
func (c *Container) RegisterInstanceAs(instance any, interfaceType any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sealed.Load() {
		return ErrContainerSealed
	}
	def, err := instanceDef(instance, interfaceType)
	if err != nil {
		return err
	}
	return c.add(def)
}

// add stores def and notifies the hooks. If any hook fails the container is
// left as it was before the call. Callers hold c.mu.
func (c *Container) add(def *ServiceDef) error {
	decorating := c.decorators != nil && def.key.typ.Kind() == reflect.Interface
	if _, exists := c.services[def.key]; exists && !decorating {
		return fmt.Errorf("%w，类型：%s", ErrRegisterDuplicate, def.key.typ)
	}

	undo := c.store(def)
	ev := RegistrationEvent{Contract: def.key.typ, Implementation: def.implType, Name: def.key.name}
	var errs error
	for _, hook := range c.hooks {
		errs = multierr.Append(errs, hook(ev))
	}
	if errs != nil {
		undo()
		return errs
	}

	c.logger.Debug("service registered",
		zap.Stringer("service", def.key.typ),
		zap.Stringer("implementation", def.implType),
		zap.String("name", def.key.name),
		zap.Stringer("lifetime", def.scope))
	return nil
}

// store writes def into the tables and returns a func putting back what it
// replaced, including the contract's decorator chain.
func (c *Container) store(def *ServiceDef) (undo func()) {
	prev, hadPrev := c.services[def.key]
	c.services[def.key] = def

	ck, chained := chainKeyOf(def)
	var prevImpl *ServiceDef
	var hadImpl bool
	var chain []reflect.Type
	if chained {
		prevImpl, hadImpl = c.impls[ck]
		c.impls[ck] = def
		if c.decorators != nil {
			chain, _ = c.decorators.Lookup(ck.contract)
		}
	}

	return func() {
		if hadPrev {
			c.services[def.key] = prev
		} else {
			delete(c.services, def.key)
		}
		if !chained {
			return
		}
		if hadImpl {
			c.impls[ck] = prevImpl
		} else {
			delete(c.impls, ck)
		}
		if c.decorators != nil {
			_ = c.decorators.Restore(ck.contract, chain)
		}
	}
}

// snapshot copies the tables and one contract's chain; the returned func
// restores them. Callers hold c.mu.
func (c *Container) snapshot(contract reflect.Type) (restore func()) {
	services, impls := maps.Clone(c.services), maps.Clone(c.impls)
	var chain []reflect.Type
	if c.decorators != nil {
		chain, _ = c.decorators.Lookup(contract)
	}
	return func() {
		c.services, c.impls = services, impls
		if c.decorators != nil {
			_ = c.decorators.Restore(contract, chain)
		}
	}
}

func instanceDef(instance any, interfaceType any) (*ServiceDef, error) {
	// 校验实例不为 nil
	if instance == nil {
		return nil, ErrNilInstance
	}
	instVal := reflect.ValueOf(instance)
	implType := instVal.Type()
	svcType, err := serviceTypeOf(implType, interfaceType)
	if err != nil {
		return nil, err
	}
	return &ServiceDef{
		key:        serviceKey{svcType, ""},
		implType:   implType,
		scope:      Singleton,
		instance:   instVal,
		isInstance: true,
	}, nil
}

// serviceTypeOf 确定最终注册的服务类型（接口/实现类型）
func serviceTypeOf(implType reflect.Type, interfaceType any) (reflect.Type, error) {
	if interfaceType == nil {
		return implType, nil
	}
	targetType := reflect.TypeOf(interfaceType)
	// 必须是指针类型，如 (*IService)(nil)
	if targetType.Kind() != reflect.Ptr {
		return nil, ErrInvalidInterfaceType
	}
	elemType := targetType.Elem()
	if elemType.Kind() == reflect.Interface {
		if !implType.Implements(elemType) {
			return nil, fmt.Errorf("%w：类型%s未实现接口%s", ErrInvalidInterfaceType, implType, elemType)
		}
		return elemType, nil
	}
	// 具体类型：(*UserService)(nil) -> 注册为 *UserService 类型
	if !implType.AssignableTo(targetType) {
		return nil, fmt.Errorf("%w：类型%s无法转换为目标类型%s", ErrInvalidInterfaceType, implType, targetType)
	}
	return targetType, nil
}

// seal freezes configuration on the first resolve.
func (c *Container) seal() {
	c.sealOnce.Do(func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		c.sealed.Store(true)
		if c.decorators != nil {
			c.decorators.Freeze()
		}
		if pm, ok := c.policy.(*lifetime.PolicyMap); ok {
			pm.Freeze()
		}
		c.logger.Debug("container sealed", zap.Int("services", len(c.services)))
	})
}

// Sealed reports whether the container has started resolving.
func (c *Container) Sealed() bool { return c.sealed.Load() }

func (c *Container) lookup(key serviceKey) (*ServiceDef, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	def, ok := c.services[key]
	return def, ok
}

func (c *Container) lookupImpl(key chainKey) (*ServiceDef, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	def, ok := c.impls[key]
	return def, ok
}

// Policy returns the lifetime policy used by RegisterByPolicy and RegisterDecorators.
func (c *Container) Policy() lifetime.Policy { return c.policy }

// Root returns the root scope. Session instances resolved through the
// container itself live there.
func (c *Container) Root() *Scope { return c.root }

// NewScope 创建根作用域的子作用域
func (c *Container) NewScope() *Scope { return c.root.NewScope() }

// Resolve 原始解析：通过指针接收实例
func (c *Container) Resolve(out any) error { return c.root.Resolve(out) }

// ResolveNamed 命名解析：通过名称解析特定的服务实例
func (c *Container) ResolveNamed(name string, out any) error { return c.root.ResolveNamed(name, out) }

// Closed reports whether Close has been called.
func (c *Container) Closed() bool { return c.closed.Load() }

// Close closes the root scope, then releases the singletons and closes
// those that implement io.Closer. Every scope of the tree fails to resolve
// afterwards with ErrContainerClosed. Closing twice does nothing.
func (c *Container) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}
	err := c.root.Close()
	released := c.singletons.Release()
	c.logger.Debug("container closed", zap.Int("singletons", len(released)))
	return multierr.Append(err, closeAll(released))
}

// MustRegister ---------------------- 便捷Must系列方法（出错Panic） ----------------------
func (c *Container) MustRegister(ctor any, scope LifetimeScope) {
	if err := c.Register(ctor, scope); err != nil {
		panic(fmt.Sprintf("【DI注册失败】%v", err))
	}
}

// MustRegisterAs 便捷接口注册：出错直接Panic
func (c *Container) MustRegisterAs(ctor any, interfaceType any, scope LifetimeScope) {
	if err := c.RegisterAs(ctor, interfaceType, scope); err != nil {
		panic(fmt.Sprintf("【DI接口注册失败】%v", err))
	}
}

// MustRegisterInstance 便捷实例注册：出错直接Panic
func (c *Container) MustRegisterInstance(instance any) {
	if err := c.RegisterInstance(instance); err != nil {
		panic(fmt.Sprintf("【DI实例注册失败】%v", err))
	}
}

// MustResolve 便捷原始解析：出错直接Panic
func (c *Container) MustResolve(out any) {
	if err := c.Resolve(out); err != nil {
		panic(fmt.Sprintf("【DI解析失败】%v", err))
	}
}

// Get 泛型解析：直接返回实例，带错误处理
func Get[T any](c *Container) (T, error) {
	return ScopeGet[T](c.root)
}

// MustGet 泛型便捷解析：出错Panic
func MustGet[T any](c *Container) T {
	inst, err := Get[T](c)
	if err != nil {
		panic(err)
	}
	return inst
}

// ScopeGet 作用域版泛型Get
func ScopeGet[T any](s *Scope) (T, error) {
	var zero T
	svcType := reflect.TypeOf((*T)(nil)).Elem()
	instance, err := s.resolve(serviceKey{svcType, ""})
	if err != nil {
		return zero, fmt.Errorf("【DI作用域获取失败】%w", err)
	}
	return getTyped[T](svcType, instance)
}

// ScopeMustGet 作用域版泛型MustGet
func ScopeMustGet[T any](s *Scope) T {
	inst, err := ScopeGet[T](s)
	if err != nil {
		panic(err)
	}
	return inst
}

// getTyped 内部泛型解析：将反射获取的实例转换为目标类型T
func getTyped[T any](svcType reflect.Type, instance reflect.Value) (T, error) {
	var zero T
	it := instance.Type()
	if it.AssignableTo(svcType) {
		return instance.Interface().(T), nil
	}
	if svcType.Kind() != reflect.Interface && it.ConvertibleTo(svcType) {
		return instance.Convert(svcType).Interface().(T), nil
	}
	return zero, fmt.Errorf("【%w】实例%s无法转换为目标类型%s", ErrTypeConvertFailed, it, svcType)
}
