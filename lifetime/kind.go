// Package lifetime decides how long a constructed instance lives: per call,
// per container tree or per scope.
package lifetime

import (
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

var (
	ErrUnknownKind  = errors.New("unknown lifetime kind")
	ErrPolicyFrozen = errors.New("lifetime policy is frozen after the first resolution")
)

type Kind int

const (
	Transient Kind = iota // Transient: creates new instance on each retrieval
	Singleton             // Singleton: one instance for the whole container tree, cached in the root
	Session               // Session: one instance per scope, isolated between sibling scopes
)

var kindNames = map[string]Kind{
	"transient":    Transient,
	"singleton":    Singleton,
	"container":    Singleton,
	"session":      Session,
	"scoped":       Session,
	"hierarchical": Session,
}

func (k Kind) String() string {
	switch k {
	case Transient:
		return "transient"
	case Singleton:
		return "singleton"
	case Session:
		return "session"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// ParseKind accepts the canonical names plus the aliases scoped, hierarchical and container.
func ParseKind(s string) (Kind, error) {
	k, ok := kindNames[strings.ToLower(strings.TrimSpace(s))]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownKind, s)
	}
	return k, nil
}

func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *Kind) UnmarshalText(text []byte) error {
	parsed, err := ParseKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

func (k *Kind) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	return k.UnmarshalText([]byte(s))
}
