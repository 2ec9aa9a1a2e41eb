// Package ir is the target-agnostic SSA intermediate representation the
// Lowerer emits and hands off to an external code generator through the
// "IRBuilder collaborator interface". It models double arithmetic,
// comparison widened to double, alloca/load/store slots, call,
// conditional/unconditional branch, phi, and return — generalized from
// the teacher's stack-bytecode opcode enum (internal/pkg/ast/bytecode/op.go)
// into an in-memory SSA three-address form.
package ir

import "fmt"

// Op tags what an instruction computes.
type Op int

const (
	OpConst Op = iota
	OpParam
	OpAlloca
	OpLoad
	OpStore
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpFCmpULT // unordered-less-than; NaN compares false
	OpFCmpUNE // unordered-not-equal; used to widen if/for conditions to a branch test
	OpWiden   // bool (0/1) -> double 0.0/1.0
	OpCall
	OpPhi
	OpBr
	OpCondBr
	OpRet
)

func (o Op) String() string {
	switch o {
	case OpConst:
		return "const"
	case OpParam:
		return "param"
	case OpAlloca:
		return "alloca"
	case OpLoad:
		return "load"
	case OpStore:
		return "store"
	case OpAdd:
		return "fadd"
	case OpSub:
		return "fsub"
	case OpMul:
		return "fmul"
	case OpDiv:
		return "fdiv"
	case OpFCmpULT:
		return "fcmp_ult"
	case OpFCmpUNE:
		return "fcmp_une"
	case OpWiden:
		return "uitofp"
	case OpCall:
		return "call"
	case OpPhi:
		return "phi"
	case OpBr:
		return "br"
	case OpCondBr:
		return "condbr"
	case OpRet:
		return "ret"
	default:
		return "?"
	}
}

// Type is the minimal type system the IR needs: every user-visible value
// is a double; main's synthesized return is i32.
type Type int

const (
	TypeDouble Type = iota
	TypeI32
)

func (t Type) String() string {
	if t == TypeI32 {
		return "i32"
	}
	return "double"
}

// PhiEdge is one incoming (predecessor block, value) pair of a phi.
type PhiEdge struct {
	Block *Block
	Value *Value
}

// Value is both an SSA instruction and (when it produces a result) an
// operand other instructions may reference. Branch/store instructions
// have no meaningful result but are still represented as Values so a
// Block's instruction list is homogeneous.
type Value struct {
	ID       int
	Op       Op
	Type     Type
	Args     []*Value
	Const    float64
	Name     string    // debug name: slot/param name, or "" for temporaries
	Callee   *Function // set iff Op == OpCall
	Then     *Block    // set iff Op == OpBr/OpCondBr
	Else     *Block    // set iff Op == OpCondBr
	Incoming []PhiEdge // set iff Op == OpPhi
}

func (v *Value) String() string {
	if v.Name != "" {
		return fmt.Sprintf("%%%s", v.Name)
	}
	return fmt.Sprintf("%%t%d", v.ID)
}

// Block is a basic block: an ordered instruction list within a Function.
type Block struct {
	Name   string
	Instrs []*Value
	Func   *Function
}

func (b *Block) append(v *Value) *Value {
	b.Instrs = append(b.Instrs, v)
	return v
}

// Terminator returns the block's last instruction if it is a control-flow
// terminator (br/condbr/ret), else nil.
func (b *Block) Terminator() *Value {
	if len(b.Instrs) == 0 {
		return nil
	}
	last := b.Instrs[len(b.Instrs)-1]
	switch last.Op {
	case OpBr, OpCondBr, OpRet:
		return last
	default:
		return nil
	}
}

// Function is one IR function: a name, parameter names, a return type,
// and its basic blocks in emission order. A Function with no blocks is a
// declaration only (e.g. an `extern`).
type Function struct {
	Name    string
	Params  []string
	RetType Type
	Blocks  []*Block
}

func (f *Function) Empty() bool { return len(f.Blocks) == 0 }

// Module is an ordered collection of IR functions.
type Module struct {
	Name       string
	Functions  []*Function
	funcByName map[string]*Function
}

// NewModule creates an empty module.
func NewModule(name string) *Module {
	return &Module{Name: name, funcByName: map[string]*Function{}}
}

// GetFunction returns the module's function named name, if any.
func (m *Module) GetFunction(name string) (*Function, bool) {
	f, ok := m.funcByName[name]
	return f, ok
}

// DeclareFunction returns the existing function named name if present
// (reused, so a later call sees the same declaration a prior `extern`
// or `def` registered), else creates and registers a new
// declaration-only function with the given parameter names.
func (m *Module) DeclareFunction(name string, params []string, ret Type) *Function {
	if f, ok := m.funcByName[name]; ok {
		return f
	}
	f := &Function{Name: name, Params: append([]string(nil), params...), RetType: ret}
	m.funcByName[name] = f
	m.Functions = append(m.Functions, f)
	return f
}

// EraseFunction removes fn from the module entirely, used to roll back a
// failed Function lowering.
func (m *Module) EraseFunction(fn *Function) {
	delete(m.funcByName, fn.Name)
	for i, f := range m.Functions {
		if f == fn {
			m.Functions = append(m.Functions[:i], m.Functions[i+1:]...)
			return
		}
	}
}
