package lifetime

import (
	"reflect"
	"sync"

	"golang.org/x/sync/singleflight"
)

// Factory constructs one instance.
type Factory func() (reflect.Value, error)

// Cell owns at most one instance. It is either empty or holding.
//
// Concurrent first callers share a single construction: every one of them
// gets the same instance, or the same error. Errors are not cached, so the
// cell stays empty and a later call retries.
type Cell struct {
	mu    sync.RWMutex
	value reflect.Value
	held  bool
	group singleflight.Group
	store *Store
}

// Load returns the held instance, if any.
func (c *Cell) Load() (reflect.Value, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.value, c.held
}

// GetOrCreate returns the held instance or builds one with factory. created
// reports whether this call ran the factory.
func (c *Cell) GetOrCreate(factory Factory) (value reflect.Value, created bool, err error) {
	if v, ok := c.Load(); ok {
		return v, false, nil
	}

	res, err, _ := c.group.Do("", func() (any, error) {
		// double-check: a previous flight may have finished between Load and Do
		if v, ok := c.Load(); ok {
			return v, nil
		}
		v, err := factory()
		if err != nil {
			return nil, err
		}
		created = true
		c.hold(v)
		return v, nil
	})
	if err != nil {
		return reflect.Value{}, false, err
	}
	return res.(reflect.Value), created, nil
}

func (c *Cell) hold(v reflect.Value) {
	c.mu.Lock()
	c.value = v
	c.held = true
	c.mu.Unlock()
	if c.store != nil {
		c.store.track(v)
	}
}

// Store is the set of cells owned by one scope (or by the root, for singletons).
type Store struct {
	mu    sync.Mutex
	cells map[any]*Cell
	held  []reflect.Value
}

func NewStore() *Store {
	return &Store{cells: make(map[any]*Cell)}
}

// Cell returns the cell for key, adding an empty one on first use.
func (s *Store) Cell(key any) *Cell {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.cells[key]
	if !ok {
		c = &Cell{store: s}
		s.cells[key] = c
	}
	return c
}

// Len counts holding cells.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.held)
}

// Release drops every cell and returns the instances they held, most recently
// created first.
func (s *Store) Release() []reflect.Value {
	s.mu.Lock()
	held := s.held
	s.cells = make(map[any]*Cell)
	s.held = nil
	s.mu.Unlock()

	out := make([]reflect.Value, len(held))
	for i, v := range held {
		out[len(held)-1-i] = v
	}
	return out
}

func (s *Store) track(v reflect.Value) {
	s.mu.Lock()
	s.held = append(s.held, v)
	s.mu.Unlock()
}
