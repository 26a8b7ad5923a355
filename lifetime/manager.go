package lifetime

import "reflect"

// Manager is the per-registration, per-scope get-or-create policy consulted
// around every construction.
type Manager interface {
	GetOrCreate(factory Factory) (value reflect.Value, created bool, err error)
	Kind() Kind
}

// NewManager picks the cell for key according to k: Singleton cells live in
// the root store, Session cells in the requesting scope's store, and
// Transient owns no cell at all.
func NewManager(k Kind, session, singleton *Store, key any) Manager {
	switch k {
	case Singleton:
		return cellManager{kind: k, cell: singleton.Cell(key)}
	case Session:
		return cellManager{kind: k, cell: session.Cell(key)}
	default:
		return transientManager{}
	}
}

type transientManager struct{}

func (transientManager) GetOrCreate(factory Factory) (reflect.Value, bool, error) {
	v, err := factory()
	if err != nil {
		return reflect.Value{}, false, err
	}
	return v, true, nil
}

func (transientManager) Kind() Kind { return Transient }

type cellManager struct {
	kind Kind
	cell *Cell
}

func (m cellManager) GetOrCreate(factory Factory) (reflect.Value, bool, error) {
	return m.cell.GetOrCreate(factory)
}

func (m cellManager) Kind() Kind { return m.kind }
