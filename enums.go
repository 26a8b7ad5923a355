package gofac

import "github.com/Ngone6325/gofac-patterns/lifetime"

type LifetimeScope = lifetime.Kind

const (
	Transient = lifetime.Transient // Transient: creates new instance on each retrieval
	Singleton = lifetime.Singleton // Singleton: globally unique, cached in root container
	Session   = lifetime.Session   // Session: unique within scope, isolated between different scopes
)
