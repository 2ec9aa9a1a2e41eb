// Package precedence holds the operator-precedence table shared by the
// Parser (which reads it to decide what counts as an infix operator) and
// the Lowerer (which mutates it when lowering a user binary-operator
// definition). Keeping it its own tiny package lets both sides hold the
// same *Table without the parser depending on the lowerer or vice versa.
package precedence

// Table maps an ASCII operator byte to its binding power. A byte absent
// from the table, or mapped to a non-positive value, is not an operator.
type Table struct {
	m map[byte]int
}

// New returns a table seeded with the built-in operators:
// = 2, < 10, > 10, - 20, + 20, * 40, / 40.
func New() *Table {
	return &Table{m: map[byte]int{
		'=': 2,
		'<': 10,
		'>': 10,
		'-': 20,
		'+': 20,
		'*': 40,
		'/': 40,
	}}
}

// Lookup returns the precedence of op and whether it is a known operator
// with positive precedence.
func (t *Table) Lookup(op byte) (int, bool) {
	p, ok := t.m[op]
	return p, ok && p > 0
}

// Set installs or replaces op's precedence.
func (t *Table) Set(op byte, prec int) {
	t.m[op] = prec
}

// Remove deletes op from the table, restoring it to "not an operator".
// Used to roll back a failed operator definition.
func (t *Table) Remove(op byte) {
	delete(t.m, op)
}

// Has reports whether op is currently a known operator.
func (t *Table) Has(op byte) bool {
	_, ok := t.Lookup(op)
	return ok
}
