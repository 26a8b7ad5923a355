package lifetime

import (
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransientManagerNeverCaches(t *testing.T) {
	var built atomic.Int64
	sessions, singletons := NewStore(), NewStore()
	m := NewManager(Transient, sessions, singletons, "svc")
	assert.Equal(t, Transient, m.Kind())

	a, created, err := m.GetOrCreate(widgetFactory(&built))
	require.NoError(t, err)
	assert.True(t, created)
	b, _, err := m.GetOrCreate(widgetFactory(&built))
	require.NoError(t, err)

	assert.NotSame(t, a.Interface(), b.Interface())
	assert.Zero(t, sessions.Len())
	assert.Zero(t, singletons.Len())
}

func TestSingletonManagerUsesRootStore(t *testing.T) {
	var built atomic.Int64
	root := NewStore()
	scopeA, scopeB := NewStore(), NewStore()

	a, _, err := NewManager(Singleton, scopeA, root, "svc").GetOrCreate(widgetFactory(&built))
	require.NoError(t, err)
	b, created, err := NewManager(Singleton, scopeB, root, "svc").GetOrCreate(widgetFactory(&built))
	require.NoError(t, err)

	assert.False(t, created)
	assert.Same(t, a.Interface(), b.Interface())
	assert.Equal(t, 1, root.Len())
	assert.Zero(t, scopeA.Len())
}

func TestSessionManagerUsesScopeStore(t *testing.T) {
	var built atomic.Int64
	root := NewStore()
	scopeA, scopeB := NewStore(), NewStore()

	a1, _, err := NewManager(Session, scopeA, root, "svc").GetOrCreate(widgetFactory(&built))
	require.NoError(t, err)
	a2, _, err := NewManager(Session, scopeA, root, "svc").GetOrCreate(widgetFactory(&built))
	require.NoError(t, err)
	b, _, err := NewManager(Session, scopeB, root, "svc").GetOrCreate(widgetFactory(&built))
	require.NoError(t, err)

	assert.Same(t, a1.Interface(), a2.Interface())
	assert.NotSame(t, a1.Interface(), b.Interface())
	assert.Zero(t, root.Len())
	assert.EqualValues(t, 2, built.Load())
}
