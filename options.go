package gofac

import (
	"go.uber.org/zap"

	"github.com/Ngone6325/gofac-patterns/lifetime"
)

// Option configures a Container.
type Option func(*Container)

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(c *Container) {
		if l != nil {
			c.logger = l.Named("gofac")
		}
	}
}

// WithLifetimePolicy sets the policy used by RegisterByPolicy and
// RegisterDecorators. The default is a PolicyMap with no entries, which
// answers Session for every type.
func WithLifetimePolicy(p lifetime.Policy) Option {
	return func(c *Container) {
		if p != nil {
			c.policy = p
		}
	}
}

// WithMetrics records construction counters.
func WithMetrics(m *Metrics) Option {
	return func(c *Container) { c.metrics = m }
}

// WithDecorators turns on decorator chains, see EnableDecorators.
func WithDecorators() Option {
	return func(c *Container) { c.withDecorators = true }
}
