package lower

import "kaleidoscope-compiler/internal/ast"

// PrototypeTable maps a function name to its latest Prototype. A single
// flat map, no scoping: a later declaration of the same name replaces
// the previous mapping.
type PrototypeTable struct {
	m map[string]ast.Prototype
}

// NewPrototypeTable returns an empty table.
func NewPrototypeTable() *PrototypeTable {
	return &PrototypeTable{m: map[string]ast.Prototype{}}
}

// Put installs proto, replacing any existing prototype for the same name.
func (t *PrototypeTable) Put(proto ast.Prototype) {
	t.m[proto.Name] = proto
}

// Get returns the latest prototype for name, if any.
func (t *PrototypeTable) Get(name string) (ast.Prototype, bool) {
	p, ok := t.m[name]
	return p, ok
}
