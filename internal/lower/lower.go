// Package lower walks the AST, drives an ir.Builder, and maintains the
// SymbolTable, PrototypeTable, and operator-precedence table that
// together give lowering its state. It produces one ir.Module per
// compilation unit.
package lower

import (
	"fmt"

	"golang.org/x/exp/slices"

	"kaleidoscope-compiler/internal/ast"
	"kaleidoscope-compiler/internal/diag"
	"kaleidoscope-compiler/internal/ir"
	"kaleidoscope-compiler/internal/precedence"
)

// Lowerer lowers AST nodes to SSA IR via a Builder. One Lowerer lives for
// the whole compilation unit; its SymbolTable is reset between Function
// bodies, since a SymbolTable's lifetime is tied to lowering one Function
// body.
type Lowerer struct {
	Module   *ir.Module
	Builder  ir.Builder
	Prec     *precedence.Table
	Protos   *PrototypeTable
	Syms     *SymbolTable
	Optimize bool

	blockSeq int
}

// New constructs a Lowerer over an empty module named name. Optimize
// controls whether each successfully lowered Function is passed through
// Builder.OptimizeFunction before being returned.
func New(name string, builder ir.Builder, optimize bool) *Lowerer {
	return &Lowerer{
		Module:   ir.NewModule(name),
		Builder:  builder,
		Prec:     precedence.New(),
		Protos:   NewPrototypeTable(),
		Syms:     NewSymbolTable(),
		Optimize: optimize,
	}
}

func hasDuplicateParams(params []string) bool {
	var seen []string
	for _, p := range params {
		if slices.Contains(seen, p) {
			return true
		}
		seen = append(seen, p)
	}
	return false
}

func (l *Lowerer) freshBlockName(prefix string) string {
	l.blockSeq++
	return fmt.Sprintf("%s%d", prefix, l.blockSeq)
}

// getFunction resolves name to an IR function: reusing one already in the
// module, or lowering (declaring) a pending Prototype on demand (spec
// §4.3 "getFunction" — enables forward references).
func (l *Lowerer) getFunction(name string) (*ir.Function, bool) {
	if f, ok := l.Module.GetFunction(name); ok {
		return f, true
	}
	if proto, ok := l.Protos.Get(name); ok {
		return l.declare(proto), true
	}
	return nil, false
}

func (l *Lowerer) declare(proto ast.Prototype) *ir.Function {
	return l.Module.DeclareFunction(proto.Name, proto.Params, ir.TypeDouble)
}

// LowerExtern lowers an `extern` top-level form: declares the function
// (reusing an existing declaration of the same name) and records the
// prototype as authoritative for later lookups.
func (l *Lowerer) LowerExtern(proto ast.Prototype) error {
	if hasDuplicateParams(proto.Params) {
		return diag.NewError(diag.KindVerifyFailure, proto.Loc, "duplicate parameter name in prototype %q", proto.Name)
	}
	l.declare(proto)
	l.Protos.Put(proto)
	return nil
}

// LowerFunction lowers a `def` top-level form: installs the prototype
// (and, for a binary operator, its precedence) before lowering the body
// so recursive/self-referential uses inside the body resolve; rolls back
// both the IR function and any installed precedence if lowering fails.
func (l *Lowerer) LowerFunction(fn ast.Function) (*ir.Function, error) {
	if hasDuplicateParams(fn.Proto.Params) {
		return nil, diag.NewError(diag.KindVerifyFailure, fn.Proto.Loc, "duplicate parameter name in prototype %q", fn.Proto.Name)
	}

	l.Protos.Put(fn.Proto)

	op := fn.Proto.OperatorChar()
	prevPrec, hadPrec := l.Prec.Lookup(op)
	installedPrecedence := fn.Proto.Kind == ast.KindBinaryOp
	if installedPrecedence {
		l.Prec.Set(op, fn.Proto.Precedence)
	}
	rollbackPrecedence := func() {
		if installedPrecedence && hadPrec {
			l.Prec.Set(op, prevPrec)
		} else if installedPrecedence {
			l.Prec.Remove(op)
		}
	}

	irFn, ok := l.getFunction(fn.Proto.Name)
	if !ok {
		irFn = l.declare(fn.Proto)
	}
	if !irFn.Empty() {
		rollbackPrecedence()
		return nil, diag.NewError(diag.KindVerifyFailure, fn.Proto.Loc, "function %q is already defined", fn.Proto.Name)
	}

	l.Syms.Reset()
	l.blockSeq = 0
	entry := l.Builder.NewBlock(irFn, "entry")
	l.Builder.SetInsertBlock(entry)

	for _, param := range fn.Proto.Params {
		slot := l.Builder.Alloca(param)
		argVal := &ir.Value{Op: ir.OpParam, Type: ir.TypeDouble, Name: param}
		l.Builder.Store(slot, argVal)
		l.Syms.Push(param, slot)
	}

	result, err := l.LowerExpr(fn.Body)
	if err != nil {
		l.Module.EraseFunction(irFn)
		rollbackPrecedence()
		return nil, err
	}
	l.Builder.Ret(result)

	if verr := l.Builder.VerifyFunction(irFn); verr != nil {
		l.Module.EraseFunction(irFn)
		rollbackPrecedence()
		return nil, diag.NewError(diag.KindVerifyFailure, fn.Proto.Loc, "%v", verr)
	}
	if l.Optimize {
		l.Builder.OptimizeFunction(irFn)
	}
	return irFn, nil
}

// LowerExpr lowers e to exactly one SSA value.
func (l *Lowerer) LowerExpr(e ast.Expr) (*ir.Value, error) {
	switch n := e.(type) {
	case ast.Number:
		return l.Builder.ConstFloat(n.Value), nil
	case ast.Variable:
		return l.lowerVariable(n)
	case ast.Unary:
		return l.lowerUnary(n)
	case ast.Binary:
		return l.lowerBinary(n)
	case ast.Call:
		return l.lowerCall(n)
	case ast.If:
		return l.lowerIf(n)
	case ast.For:
		return l.lowerFor(n)
	case ast.VarIn:
		return l.lowerVarIn(n)
	default:
		return nil, diag.NewError(diag.KindUnknownName, e.Location(), "unsupported expression node %T", e)
	}
}

func (l *Lowerer) lowerVariable(v ast.Variable) (*ir.Value, error) {
	slot, ok := l.Syms.Lookup(v.Name)
	if !ok {
		return nil, diag.NewError(diag.KindUnknownName, v.Loc, "unknown variable name %q", v.Name)
	}
	return l.Builder.Load(slot), nil
}

func (l *Lowerer) lowerUnary(u ast.Unary) (*ir.Value, error) {
	operand, err := l.LowerExpr(u.Operand)
	if err != nil {
		return nil, err
	}
	fn, ok := l.getFunction("unary" + string(u.Op))
	if !ok {
		return nil, diag.NewError(diag.KindUnknownOperator, u.Loc, "unknown unary operator %q", string(u.Op))
	}
	return l.Builder.Call(fn, []*ir.Value{operand}), nil
}

func (l *Lowerer) lowerBinary(b ast.Binary) (*ir.Value, error) {
	if b.Op == '=' {
		target, ok := b.LHS.(ast.Variable)
		if !ok {
			return nil, diag.NewError(diag.KindInvalidAssignTarget, b.Loc, "assignment target must be a variable")
		}
		rhs, err := l.LowerExpr(b.RHS)
		if err != nil {
			return nil, err
		}
		slot, ok := l.Syms.Lookup(target.Name)
		if !ok {
			return nil, diag.NewError(diag.KindUnknownName, target.Loc, "unknown variable name %q", target.Name)
		}
		l.Builder.Store(slot, rhs)
		return rhs, nil
	}

	lhs, err := l.LowerExpr(b.LHS)
	if err != nil {
		return nil, err
	}
	rhs, err := l.LowerExpr(b.RHS)
	if err != nil {
		return nil, err
	}

	switch b.Op {
	case '+':
		return l.Builder.BinOp(ir.OpAdd, lhs, rhs), nil
	case '-':
		return l.Builder.BinOp(ir.OpSub, lhs, rhs), nil
	case '*':
		return l.Builder.BinOp(ir.OpMul, lhs, rhs), nil
	case '/':
		return l.Builder.BinOp(ir.OpDiv, lhs, rhs), nil
	case '<':
		cmp := l.Builder.FCmpULT(lhs, rhs)
		return l.Builder.Widen(cmp), nil
	}

	fn, ok := l.getFunction("binary" + string(b.Op))
	if !ok {
		return nil, diag.NewError(diag.KindUnknownOperator, b.Loc, "unknown binary operator %q", string(b.Op))
	}
	return l.Builder.Call(fn, []*ir.Value{lhs, rhs}), nil
}

func (l *Lowerer) lowerCall(c ast.Call) (*ir.Value, error) {
	fn, ok := l.getFunction(c.Callee)
	if !ok {
		return nil, diag.NewError(diag.KindUnknownName, c.Loc, "unknown function referenced: %q", c.Callee)
	}
	if len(fn.Params) != len(c.Args) {
		return nil, diag.NewError(diag.KindArgCountMismatch, c.Loc,
			"incorrect number of arguments: %q expects %d, got %d", c.Callee, len(fn.Params), len(c.Args))
	}
	args := make([]*ir.Value, len(c.Args))
	for i, a := range c.Args {
		v, err := l.LowerExpr(a)
		if err != nil {
			return nil, err
		}
		args[i] = v
	}
	return l.Builder.Call(fn, args), nil
}

// lowerIf emits three basic blocks (then/else/merge) and a two-predecessor
// phi selecting between the arms' final values.
func (l *Lowerer) lowerIf(n ast.If) (*ir.Value, error) {
	cond, err := l.LowerExpr(n.Cond)
	if err != nil {
		return nil, err
	}
	zero := l.Builder.ConstFloat(0.0)
	test := l.Builder.FCmpUNE(cond, zero)

	fn := l.currentFunctionOf(test)
	thenBB := l.Builder.NewBlock(fn, l.freshBlockName("then"))
	elseBB := l.Builder.NewBlock(fn, l.freshBlockName("else"))
	mergeBB := l.Builder.NewBlock(fn, l.freshBlockName("ifcont"))

	l.Builder.CondBr(test, thenBB, elseBB)

	l.Builder.SetInsertBlock(thenBB)
	thenVal, err := l.LowerExpr(n.Then)
	if err != nil {
		return nil, err
	}
	l.Builder.Br(mergeBB)
	thenEndBB := l.Builder.InsertBlock()

	l.Builder.SetInsertBlock(elseBB)
	elseVal, err := l.LowerExpr(n.Else)
	if err != nil {
		return nil, err
	}
	l.Builder.Br(mergeBB)
	elseEndBB := l.Builder.InsertBlock()

	l.Builder.SetInsertBlock(mergeBB)
	phi := l.Builder.Phi([]ir.PhiEdge{
		{Block: thenEndBB, Value: thenVal},
		{Block: elseEndBB, Value: elseVal},
	})
	return phi, nil
}

// lowerFor lowers a for-loop: a slot for the induction variable, a
// pre-test free entry into the loop block, a shadowed binding for the
// duration of the body and step, and a final result of 0.0 regardless of
// the body.
func (l *Lowerer) lowerFor(n ast.For) (*ir.Value, error) {
	start, err := l.LowerExpr(n.Start)
	if err != nil {
		return nil, err
	}
	fn := l.currentFunctionOf(start)
	slot := l.Builder.Alloca(n.Var)
	l.Builder.Store(slot, start)

	loopBB := l.Builder.NewBlock(fn, l.freshBlockName("loop"))
	l.Builder.Br(loopBB)
	l.Builder.SetInsertBlock(loopBB)

	l.Syms.Push(n.Var, slot)

	if _, err := l.LowerExpr(n.Body); err != nil {
		l.Syms.Pop(n.Var)
		return nil, err
	}

	var step *ir.Value
	if n.Step != nil {
		step, err = l.LowerExpr(n.Step)
	} else {
		step = l.Builder.ConstFloat(1.0)
	}
	if err != nil {
		l.Syms.Pop(n.Var)
		return nil, err
	}

	endCond, err := l.LowerExpr(n.End)
	if err != nil {
		l.Syms.Pop(n.Var)
		return nil, err
	}

	cur := l.Builder.Load(slot)
	next := l.Builder.BinOp(ir.OpAdd, cur, step)
	l.Builder.Store(slot, next)

	zero := l.Builder.ConstFloat(0.0)
	test := l.Builder.FCmpUNE(endCond, zero)

	afterBB := l.Builder.NewBlock(fn, l.freshBlockName("afterloop"))
	l.Builder.CondBr(test, loopBB, afterBB)

	l.Builder.SetInsertBlock(afterBB)
	l.Syms.Pop(n.Var)

	return l.Builder.ConstFloat(0.0), nil
}

// lowerVarIn evaluates each initializer against the pre-existing
// environment before installing its binding, so `var a = a in ...`
// resolves the right-hand `a` to the outer binding.
func (l *Lowerer) lowerVarIn(n ast.VarIn) (*ir.Value, error) {
	var pushed []string
	for _, b := range n.Bindings {
		var initVal *ir.Value
		var err error
		if b.Init != nil {
			initVal, err = l.LowerExpr(b.Init)
		} else {
			initVal = l.Builder.ConstFloat(0.0)
		}
		if err != nil {
			l.popAll(pushed)
			return nil, err
		}
		slot := l.Builder.Alloca(b.Name)
		l.Builder.Store(slot, initVal)
		l.Syms.Push(b.Name, slot)
		pushed = append(pushed, b.Name)
	}

	result, err := l.LowerExpr(n.Body)
	l.popAll(pushed)
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (l *Lowerer) popAll(names []string) {
	for i := len(names) - 1; i >= 0; i-- {
		l.Syms.Pop(names[i])
	}
}

// currentFunctionOf recovers the Function a just-emitted Value belongs to
// by way of the builder's current insertion block, since ir.Value itself
// does not back-reference its block.
func (l *Lowerer) currentFunctionOf(*ir.Value) *ir.Function {
	return l.Builder.InsertBlock().Func
}
