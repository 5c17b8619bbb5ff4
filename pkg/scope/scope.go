// Package scope implements lexical scopes as an arena of records addressed by
// index. Each record holds its bindings, a parent index and an optional owner
// naming the enclosing function.
package scope

import (
	"sort"

	"github.com/pkg/errors"
)

var (
	ErrDuplicate  = errors.New("name already declared at this scope")
	ErrUndeclared = errors.New("name not declared")
)

// Binding is anything that can be bound to a name in a scope
type Binding interface {
	BindingName() string
}

// ID addresses a scope record in a Table
type ID int

const none ID = -1

type record struct {
	bindings map[string]Binding
	parent   ID
	owner    Binding
	live     bool
}

// Table is the arena of scope records. The zero value is not usable; call New.
type Table struct {
	records []record
}

// New creates a table holding only the global scope
func New() *Table {
	t := &Table{}
	t.records = append(t.records, record{
		bindings: make(map[string]Binding),
		parent:   none,
		live:     true,
	})
	return t
}

// Root returns the global scope. It has no parent and no owner.
func (t *Table) Root() ID {
	return 0
}

// Push opens a child of parent sharing its owner
func (t *Table) Push(parent ID) ID {
	return t.PushOwned(parent, t.get(parent).owner)
}

// PushOwned opens a child of parent owned by owner
func (t *Table) PushOwned(parent ID, owner Binding) ID {
	t.get(parent)
	t.records = append(t.records, record{
		bindings: make(map[string]Binding),
		parent:   parent,
		owner:    owner,
		live:     true,
	})
	return ID(len(t.records) - 1)
}

// Pop closes the scope and returns its parent. Scopes close in strict nesting
// order; popping the root panics.
func (t *Table) Pop(id ID) ID {
	r := t.get(id)
	if r.parent == none {
		panic("scope: pop of root scope")
	}
	r.live = false
	r.bindings = nil
	return r.parent
}

// Add binds b at the level id. A name may be bound once per level.
func (t *Table) Add(id ID, b Binding) error {
	r := t.get(id)
	name := b.BindingName()
	if _, ok := r.bindings[name]; ok {
		return errors.Wrap(ErrDuplicate, name)
	}
	r.bindings[name] = b
	return nil
}

// Find resolves name from id outward to the root
func (t *Table) Find(id ID, name string) (Binding, error) {
	if b, ok := t.Lookup(id, name); ok {
		return b, nil
	}
	return nil, errors.Wrap(ErrUndeclared, name)
}

// Lookup is Find without the error
func (t *Table) Lookup(id ID, name string) (Binding, bool) {
	for cur := id; cur != none; cur = t.get(cur).parent {
		if b, ok := t.get(cur).bindings[name]; ok {
			return b, true
		}
	}
	return nil, false
}

// LookupLocal resolves name at the level id only
func (t *Table) LookupLocal(id ID, name string) (Binding, bool) {
	b, ok := t.get(id).bindings[name]
	return b, ok
}

// Owner returns the function owning the scope, or nil for the global scope
func (t *Table) Owner(id ID) Binding {
	return t.get(id).owner
}

// Parent returns the enclosing scope
func (t *Table) Parent(id ID) (ID, bool) {
	p := t.get(id).parent
	return p, p != none
}

// Bindings returns the bindings at level id sorted by name
func (t *Table) Bindings(id ID) []Binding {
	r := t.get(id)
	out := make([]Binding, 0, len(r.bindings))
	for _, b := range r.bindings {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].BindingName() < out[j].BindingName()
	})
	return out
}

func (t *Table) get(id ID) *record {
	if id < 0 || int(id) >= len(t.records) {
		panic(errors.Errorf("scope: unknown scope %d", id))
	}
	r := &t.records[id]
	if !r.live {
		panic(errors.Errorf("scope: use of closed scope %d", id))
	}
	return r
}
