package ir

import (
	"strings"
	"testing"
)

func buildSimpleFunction(b *InMemoryBuilder) *Function {
	fn := &Function{Name: "f", Params: []string{"x"}, RetType: TypeDouble}
	entry := b.NewBlock(fn, "entry")
	b.SetInsertBlock(entry)
	c := b.ConstFloat(2.0)
	x := &Value{Op: OpParam, Type: TypeDouble, Name: "x"}
	sum := b.BinOp(OpAdd, x, c)
	b.Ret(sum)
	return fn
}

func TestVerifyFunctionAcceptsWellFormedFunction(t *testing.T) {
	b := NewInMemoryBuilder()
	fn := buildSimpleFunction(b)
	if err := b.VerifyFunction(fn); err != nil {
		t.Fatalf("unexpected verify error: %v", err)
	}
}

func TestVerifyFunctionRejectsMissingTerminator(t *testing.T) {
	b := NewInMemoryBuilder()
	fn := &Function{Name: "f"}
	entry := b.NewBlock(fn, "entry")
	b.SetInsertBlock(entry)
	b.ConstFloat(1.0)
	if err := b.VerifyFunction(fn); err == nil {
		t.Fatal("expected an error for a block with no terminator")
	}
}

func TestVerifyFunctionRejectsPhiArityMismatch(t *testing.T) {
	b := NewInMemoryBuilder()
	fn := &Function{Name: "f"}
	entry := b.NewBlock(fn, "entry")
	merge := b.NewBlock(fn, "merge")

	b.SetInsertBlock(entry)
	b.Br(merge)

	b.SetInsertBlock(merge)
	// Only one predecessor actually branches here, but the phi claims two.
	b.block.append(&Value{Op: OpPhi, Incoming: []PhiEdge{
		{Block: entry, Value: b.ConstFloat(1.0)},
		{Block: entry, Value: b.ConstFloat(2.0)},
	}})
	b.Ret(nil)

	if err := b.VerifyFunction(fn); err == nil {
		t.Fatal("expected a phi arity mismatch error")
	}
}

func TestOptimizeFunctionFoldsConstants(t *testing.T) {
	b := NewInMemoryBuilder()
	fn := &Function{Name: "f"}
	entry := b.NewBlock(fn, "entry")
	b.SetInsertBlock(entry)
	l := b.ConstFloat(2.0)
	r := b.ConstFloat(3.0)
	sum := b.BinOp(OpAdd, l, r)
	b.Ret(sum)

	b.OptimizeFunction(fn)

	if sum.Op != OpConst || sum.Const != 5.0 {
		t.Fatalf("sum after fold = %+v, want const 5", sum)
	}
}

func TestOptimizeFunctionRemovesUnreachableBlocks(t *testing.T) {
	b := NewInMemoryBuilder()
	fn := &Function{Name: "f"}
	entry := b.NewBlock(fn, "entry")
	dead := b.NewBlock(fn, "dead")
	_ = dead

	b.SetInsertBlock(entry)
	b.Ret(nil)

	if len(fn.Blocks) != 2 {
		t.Fatalf("setup: expected 2 blocks before optimize, got %d", len(fn.Blocks))
	}
	b.OptimizeFunction(fn)
	if len(fn.Blocks) != 1 {
		t.Fatalf("expected the unreachable block to be dropped, got %d blocks", len(fn.Blocks))
	}
}

func TestPrintProducesTextualDump(t *testing.T) {
	b := NewInMemoryBuilder()
	fn := buildSimpleFunction(b)
	m := NewModule("m")
	m.Functions = append(m.Functions, fn)
	m.funcByName = map[string]*Function{"f": fn}

	var sb strings.Builder
	Print(m, &sb)
	out := sb.String()
	if !strings.Contains(out, "define double @f(x)") {
		t.Fatalf("Print output missing function signature: %q", out)
	}
	if !strings.Contains(out, "ret") {
		t.Fatalf("Print output missing ret instruction: %q", out)
	}
}

func TestModuleDeclareFunctionReusesExisting(t *testing.T) {
	m := NewModule("m")
	f1 := m.DeclareFunction("foo", []string{"a"}, TypeDouble)
	f2 := m.DeclareFunction("foo", []string{"a", "b"}, TypeDouble)
	if f1 != f2 {
		t.Fatal("DeclareFunction should reuse an existing declaration of the same name")
	}
}

func TestModuleEraseFunctionRemovesFromLookupAndOrder(t *testing.T) {
	m := NewModule("m")
	m.DeclareFunction("a", nil, TypeDouble)
	b := m.DeclareFunction("b", nil, TypeDouble)
	m.DeclareFunction("c", nil, TypeDouble)

	m.EraseFunction(b)

	if _, ok := m.GetFunction("b"); ok {
		t.Fatal("erased function still resolvable by name")
	}
	if len(m.Functions) != 2 {
		t.Fatalf("Functions has %d entries, want 2", len(m.Functions))
	}
}
