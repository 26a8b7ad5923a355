package gofac_test

import (
	"fmt"
	"strings"

	gofac "github.com/Ngone6325/gofac-patterns"
	"github.com/Ngone6325/gofac-patterns/decorator"
	"github.com/Ngone6325/gofac-patterns/lifetime"
	"github.com/Ngone6325/gofac-patterns/model"
)

// ==================== 示例1：显式装饰器栈 ====================

func ExampleRegisterDecorators() {
	container := gofac.NewContainer()

	// 从最内层开始，逐层向外
	stack := decorator.NewStack[model.IMyService]().
		Push(model.NewMyService).
		Push(model.NewMyServiceDecorator1).
		Push(model.NewMyServiceDecorator2)
	if err := gofac.RegisterDecorators(container, stack, nil); err != nil {
		panic(err)
	}

	svc := gofac.MustGet[model.IMyService](container)
	fmt.Println(svc.Describe())
	// Output:
	// Decorator2(Decorator1(MyService))
}

// ==================== 示例2：重复注册同一接口 ====================

func ExampleContainer_EnableDecorators() {
	container := gofac.NewContainer(gofac.WithDecorators())

	// 从最外层开始，逐层向内
	container.MustRegisterAs(model.NewMyServiceDecorator2, (*model.IMyService)(nil), gofac.Session)
	container.MustRegisterAs(model.NewMyServiceDecorator1, (*model.IMyService)(nil), gofac.Session)
	container.MustRegisterAs(model.NewMyService, (*model.IMyService)(nil), gofac.Session)

	svc := gofac.MustGet[model.IMyService](container)
	fmt.Println(svc.Describe())
	// Output:
	// Decorator2(Decorator1(MyService))
}

// ==================== 示例3：按生命周期策略注册 ====================

func ExampleContainer_RegisterByPolicy() {
	policy, err := lifetime.LoadPolicy(strings.NewReader(`
lifetimes:
  "*model.MySingleton": singleton
  "*model.MyTransientService": transient
`))
	if err != nil {
		panic(err)
	}

	container := gofac.NewContainer(gofac.WithLifetimePolicy(policy))
	container.RegisterByPolicy(model.NewMySingleton, (*model.IMySingleton)(nil))
	container.RegisterByPolicy(model.NewMyTransientService, (*model.IMyTransientService)(nil))
	container.RegisterByPolicy(model.NewMySessionService, (*model.IMySessionService)(nil))

	child1, child2 := container.NewScope(), container.NewScope()
	defer child1.Close()
	defer child2.Close()

	fmt.Println("singleton shared:",
		gofac.ScopeMustGet[model.IMySingleton](child1) == gofac.ScopeMustGet[model.IMySingleton](child2))
	fmt.Println("transient shared:",
		gofac.ScopeMustGet[model.IMyTransientService](child1) == gofac.ScopeMustGet[model.IMyTransientService](child1))
	fmt.Println("session shared in scope:",
		gofac.ScopeMustGet[model.IMySessionService](child1) == gofac.ScopeMustGet[model.IMySessionService](child1))
	fmt.Println("session shared across scopes:",
		gofac.ScopeMustGet[model.IMySessionService](child1) == gofac.ScopeMustGet[model.IMySessionService](child2))
	// Output:
	// singleton shared: true
	// transient shared: false
	// session shared in scope: true
	// session shared across scopes: false
}
