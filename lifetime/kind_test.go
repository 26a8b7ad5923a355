package lifetime

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestKindConstants(t *testing.T) {
	tests := []struct {
		name     string
		kind     Kind
		expected int
	}{
		{"Transient", Transient, 0},
		{"Singleton", Singleton, 1},
		{"Session", Session, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, int(tt.kind))
		})
	}
}

func TestParseKind(t *testing.T) {
	tests := []struct {
		in   string
		want Kind
	}{
		{"transient", Transient},
		{"Singleton", Singleton},
		{"container", Singleton},
		{" session ", Session},
		{"scoped", Session},
		{"hierarchical", Session},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseKind(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := ParseKind("forever")
	assert.ErrorIs(t, err, ErrUnknownKind)
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "transient", Transient.String())
	assert.Equal(t, "singleton", Singleton.String())
	assert.Equal(t, "session", Session.String())
	assert.Equal(t, "kind(9)", Kind(9).String())
}

func TestKindYAML(t *testing.T) {
	var doc struct {
		Kind Kind `yaml:"kind"`
	}
	require.NoError(t, yaml.Unmarshal([]byte("kind: singleton\n"), &doc))
	assert.Equal(t, Singleton, doc.Kind)

	err := yaml.Unmarshal([]byte("kind: forever\n"), &doc)
	assert.ErrorIs(t, err, ErrUnknownKind)

	out, err := Session.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "session", string(out))
}
