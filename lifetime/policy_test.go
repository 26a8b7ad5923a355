package lifetime

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type cache struct{ n int }
type clock struct{ n int }
type request struct{ n int }

func TestPolicyMapDefault(t *testing.T) {
	m := NewPolicyMap()
	assert.Equal(t, Session, m.Default())
	assert.Equal(t, Session, m.Entry(reflect.TypeOf(&cache{})))

	m = NewPolicyMap(WithDefault(Transient))
	assert.Equal(t, Transient, m.Entry(reflect.TypeOf(&cache{})))
}

func TestPolicyMapEntries(t *testing.T) {
	m := NewPolicyMap()
	Add[*cache](m, Singleton)
	m.Set(reflect.TypeOf(&clock{}), Transient).
		SetName("*lifetime.request", Singleton)

	assert.Equal(t, Singleton, m.Entry(reflect.TypeOf(&cache{})))
	assert.Equal(t, Transient, m.Entry(reflect.TypeOf(&clock{})))
	assert.Equal(t, Singleton, m.Entry(reflect.TypeOf(&request{})))
	assert.Equal(t, Session, m.Entry(reflect.TypeOf(request{})), "value type is a different type")
	assert.Equal(t, 3, m.Len())
}

func TestPolicyMapTypeEntryBeatsName(t *testing.T) {
	m := NewPolicyMap().
		SetName("*lifetime.cache", Transient).
		Set(reflect.TypeOf(&cache{}), Singleton)
	assert.Equal(t, Singleton, m.Entry(reflect.TypeOf(&cache{})))
}

func TestPolicyMapFreeze(t *testing.T) {
	m := NewPolicyMap()
	Add[*cache](m, Singleton)
	m.Freeze()
	assert.True(t, m.Frozen())

	Add[*clock](m, Transient)
	m.SetName("*lifetime.request", Transient)

	assert.ErrorIs(t, m.Err(), ErrPolicyFrozen)
	assert.Equal(t, Session, m.Entry(reflect.TypeOf(&clock{})))
	assert.Equal(t, Singleton, m.Entry(reflect.TypeOf(&cache{})))
}

func TestFixedPolicy(t *testing.T) {
	p := Fixed(Transient)
	assert.Equal(t, Transient, p.Entry(reflect.TypeOf(&cache{})))
	assert.Equal(t, Transient, p.Entry(nil))
}

func TestLoadPolicy(t *testing.T) {
	doc := `
default: transient
lifetimes:
  "*lifetime.cache": singleton
  "*lifetime.request": hierarchical
`
	m, err := LoadPolicy(strings.NewReader(doc))
	require.NoError(t, err)

	assert.Equal(t, Transient, m.Default())
	assert.Equal(t, Singleton, m.Entry(reflect.TypeOf(&cache{})))
	assert.Equal(t, Session, m.Entry(reflect.TypeOf(&request{})))
	assert.Equal(t, Transient, m.Entry(reflect.TypeOf(&clock{})))
}

func TestLoadPolicyEmpty(t *testing.T) {
	m, err := LoadPolicy(strings.NewReader(""))
	require.NoError(t, err)
	assert.Equal(t, Session, m.Default())
	assert.Zero(t, m.Len())
}

func TestLoadPolicyInvalid(t *testing.T) {
	_, err := LoadPolicy(strings.NewReader("lifetimes:\n  \"*lifetime.cache\": forever\n"))
	assert.ErrorIs(t, err, ErrUnknownKind)

	_, err = LoadPolicy(strings.NewReader("lifetimes: [1, 2"))
	assert.Error(t, err)
}

func TestLoadPolicyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lifetimes.yaml")
	require.NoError(t, os.WriteFile(path, []byte("lifetimes:\n  \"*lifetime.clock\": singleton\n"), 0o600))

	m, err := LoadPolicyFile(path)
	require.NoError(t, err)
	assert.Equal(t, Singleton, m.Entry(reflect.TypeOf(&clock{})))

	_, err = LoadPolicyFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
