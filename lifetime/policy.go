package lifetime

import (
	"fmt"
	"io"
	"os"
	"reflect"

	"gopkg.in/yaml.v3"
)

// Policy picks the lifetime of a concrete type at registration time.
type Policy interface {
	Entry(t reflect.Type) Kind
}

// Fixed is a Policy that answers the same kind for every type.
type Fixed Kind

func (f Fixed) Entry(reflect.Type) Kind { return Kind(f) }

// PolicyMap maps concrete types to lifetimes and falls back to a map-wide default.
//
// Entries are configuration-time only: the map is not safe for concurrent
// mutation, and once Freeze is called (the container does so on its first
// resolve) further Set calls are dropped and reported by Err.
type PolicyMap struct {
	def    Kind
	byType map[reflect.Type]Kind
	byName map[string]Kind
	frozen bool
	err    error
}

type PolicyOption func(*PolicyMap)

// WithDefault replaces the Session default.
func WithDefault(k Kind) PolicyOption {
	return func(m *PolicyMap) { m.def = k }
}

func NewPolicyMap(opts ...PolicyOption) *PolicyMap {
	m := &PolicyMap{
		def:    Session,
		byType: make(map[reflect.Type]Kind),
		byName: make(map[string]Kind),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Set assigns a lifetime to t and returns the map for chaining.
func (m *PolicyMap) Set(t reflect.Type, k Kind) *PolicyMap {
	if m.frozen {
		m.fail(fmt.Errorf("%w: %s", ErrPolicyFrozen, t))
		return m
	}
	m.byType[t] = k
	return m
}

// SetName assigns a lifetime by the type's printed name, e.g. "*model.UserRepo".
func (m *PolicyMap) SetName(typeName string, k Kind) *PolicyMap {
	if m.frozen {
		m.fail(fmt.Errorf("%w: %s", ErrPolicyFrozen, typeName))
		return m
	}
	m.byName[typeName] = k
	return m
}

// Add assigns a lifetime to T.
func Add[T any](m *PolicyMap, k Kind) *PolicyMap {
	return m.Set(reflect.TypeOf((*T)(nil)).Elem(), k)
}

func (m *PolicyMap) Entry(t reflect.Type) Kind {
	if k, ok := m.byType[t]; ok {
		return k
	}
	if t != nil {
		if k, ok := m.byName[t.String()]; ok {
			return k
		}
	}
	return m.def
}

func (m *PolicyMap) Default() Kind { return m.def }

func (m *PolicyMap) Len() int { return len(m.byType) + len(m.byName) }

func (m *PolicyMap) Freeze() { m.frozen = true }

func (m *PolicyMap) Frozen() bool { return m.frozen }

// Err reports the first entry rejected after Freeze.
func (m *PolicyMap) Err() error { return m.err }

func (m *PolicyMap) fail(err error) {
	if m.err == nil {
		m.err = err
	}
}

type policyFile struct {
	Default   *Kind           `yaml:"default"`
	Lifetimes map[string]Kind `yaml:"lifetimes"`
}

// LoadPolicy reads a YAML policy document:
//
//	default: session
//	lifetimes:
//	  "*model.UserRepo": singleton
//	  "*model.RequestLog": transient
func LoadPolicy(r io.Reader) (*PolicyMap, error) {
	var file policyFile
	if err := yaml.NewDecoder(r).Decode(&file); err != nil && err != io.EOF {
		return nil, fmt.Errorf("decode lifetime policy: %w", err)
	}
	m := NewPolicyMap()
	if file.Default != nil {
		m.def = *file.Default
	}
	for name, k := range file.Lifetimes {
		m.SetName(name, k)
	}
	return m, nil
}

func LoadPolicyFile(path string) (*PolicyMap, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return LoadPolicy(f)
}
