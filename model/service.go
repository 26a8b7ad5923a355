// Package model holds small services used by the examples and tests.
package model

import (
	"errors"
	"fmt"
)

// IMyService 被装饰的服务接口
type IMyService interface {
	Describe() string
}

// MyService 最内层实现，没有被包装的依赖
type MyService struct{}

func NewMyService() *MyService { return &MyService{} }

func (s *MyService) Describe() string { return "MyService" }

// MyServiceDecorator1 包装一个 IMyService
type MyServiceDecorator1 struct {
	Inner IMyService
}

func NewMyServiceDecorator1(inner IMyService) *MyServiceDecorator1 {
	return &MyServiceDecorator1{Inner: inner}
}

func (d *MyServiceDecorator1) Describe() string { return "Decorator1(" + d.Inner.Describe() + ")" }

// MyServiceDecorator2 包装一个 IMyService
type MyServiceDecorator2 struct {
	Inner IMyService
}

func NewMyServiceDecorator2(inner IMyService) *MyServiceDecorator2 {
	return &MyServiceDecorator2{Inner: inner}
}

func (d *MyServiceDecorator2) Describe() string { return "Decorator2(" + d.Inner.Describe() + ")" }

// ErrDecoratorUnavailable is returned by NewFailingDecorator.
var ErrDecoratorUnavailable = errors.New("decorator unavailable")

// FailingDecorator never gets built.
type FailingDecorator struct {
	Inner IMyService
}

func NewFailingDecorator(inner IMyService) (*FailingDecorator, error) {
	return nil, ErrDecoratorUnavailable
}

func (d *FailingDecorator) Describe() string { return "Failing" }

// IMySingleton Singleton 服务接口
type IMySingleton interface {
	GetUUID() string
}

// MySingleton 记录自身实例的指针地址
type MySingleton struct {
	UUID string
}

func NewMySingleton() *MySingleton {
	s := &MySingleton{}
	s.UUID = fmt.Sprintf("%p", s)
	return s
}

func (s *MySingleton) GetUUID() string { return s.UUID }

// IMyTransientService Transient 服务接口
type IMyTransientService interface {
	GetUUID() string
}

type MyTransientService struct {
	UUID string
}

func NewMyTransientService() *MyTransientService {
	s := &MyTransientService{}
	s.UUID = fmt.Sprintf("%p", s)
	return s
}

func (s *MyTransientService) GetUUID() string { return s.UUID }

// IMySessionService Session 服务接口
type IMySessionService interface {
	GetUUID() string
	Singleton() IMySingleton
}

type MySessionService struct {
	UUID      string
	singleton IMySingleton
}

func NewMySessionService(singleton IMySingleton) *MySessionService {
	s := &MySessionService{singleton: singleton}
	s.UUID = fmt.Sprintf("%p", s)
	return s
}

func (s *MySessionService) GetUUID() string         { return s.UUID }
func (s *MySessionService) Singleton() IMySingleton { return s.singleton }

// MyInstance 预先创建后以实例方式注册
type MyInstance struct {
	Data string
}

func NewMyInstance(data string) *MyInstance { return &MyInstance{Data: data} }
