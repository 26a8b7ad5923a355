package decorator

import (
	"maps"
	"reflect"

	"go.uber.org/zap"
)

// Overrides binds types to ready instances for the duration of one build
// call. Constructor parameters of an overridden type receive the instance
// instead of being resolved.
type Overrides map[reflect.Type]reflect.Value

// With returns a copy of o that also binds t to v.
func (o Overrides) With(t reflect.Type, v reflect.Value) Overrides {
	out := make(Overrides, len(o)+1)
	maps.Copy(out, o)
	out[t] = v
	return out
}

// Lookup returns the instance bound to t, if any.
func (o Overrides) Lookup(t reflect.Type) (reflect.Value, bool) {
	v, ok := o[t]
	return v, ok
}

// Request asks for one instance of Type. For a chain element, Contract is
// the chain's interface and Inner lists the elements below Type, innermost
// first; Overrides then binds Contract to the instance built from Inner.
type Request struct {
	Type      reflect.Type
	Name      string
	Contract  reflect.Type
	Inner     []reflect.Type
	Overrides Overrides
}

// Builder constructs the concrete type of a request, consulting its
// overrides ahead of normal parameter resolution.
type Builder interface {
	Build(req Request) (reflect.Value, error)
}

// Strategy is the pre-construction hook that turns a contract request into
// a chain build.
type Strategy struct {
	registry *Registry
	logger   *zap.Logger
	onChain  func(contract reflect.Type)
}

// StrategyOption configures a Strategy.
type StrategyOption func(*Strategy)

// WithLogger sets the logger used for aborted chain builds.
func WithLogger(l *zap.Logger) StrategyOption {
	return func(s *Strategy) { s.logger = l }
}

// WithChainObserver is called after every completed chain build.
func WithChainObserver(fn func(contract reflect.Type)) StrategyOption {
	return func(s *Strategy) { s.onChain = fn }
}

// NewStrategy returns a strategy reading chains from registry.
func NewStrategy(registry *Registry, opts ...StrategyOption) *Strategy {
	s := &Strategy{registry: registry, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Registry returns the registry the strategy reads.
func (s *Strategy) Registry() *Registry { return s.registry }

// PreBuild builds req.Type's chain and reports handled=true, or declines
// with handled=false so the caller resolves req normally. It declines for
// non-interface types, types without a chain, and types the caller already
// overrides.
//
// A failing element aborts the build; its error is returned as is.
func (s *Strategy) PreBuild(b Builder, req Request) (reflect.Value, bool, error) {
	if req.Type == nil || req.Type.Kind() != reflect.Interface {
		return reflect.Value{}, false, nil
	}
	if _, ok := req.Overrides.Lookup(req.Type); ok {
		return reflect.Value{}, false, nil
	}
	chain, ok := s.registry.Lookup(req.Type)
	if !ok {
		return reflect.Value{}, false, nil
	}

	var value reflect.Value
	for i, impl := range chain {
		overrides := req.Overrides
		if i > 0 {
			overrides = overrides.With(req.Type, value)
		}
		v, err := b.Build(Request{
			Type:      impl,
			Name:      req.Name,
			Contract:  req.Type,
			Inner:     chain[:i:i],
			Overrides: overrides,
		})
		if err != nil {
			s.logger.Debug("decorator chain aborted",
				zap.Stringer("contract", req.Type),
				zap.Stringer("element", impl),
				zap.Int("depth", i),
				zap.Error(err))
			return reflect.Value{}, true, err
		}
		value = v
	}

	if s.onChain != nil {
		s.onChain(req.Type)
	}
	return value, true, nil
}
