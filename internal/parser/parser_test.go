package parser

import (
	"testing"

	"kaleidoscope-compiler/internal/ast"
	"kaleidoscope-compiler/internal/lexer"
	"kaleidoscope-compiler/internal/precedence"
	"kaleidoscope-compiler/internal/source"
)

func newParser(text string) *Parser {
	lx := lexer.New(source.New("test", []byte(text)))
	return New(lx, precedence.New())
}

func parseOneForm(t *testing.T, text string) ast.TopLevel {
	t.Helper()
	p := newParser(text)
	form, ok, err := p.ParseTopLevel()
	if err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}
	if !ok {
		t.Fatalf("expected a top-level form, got none")
	}
	return form
}

func TestParseBareExpressionWrapsAsTopExpr(t *testing.T) {
	form := parseOneForm(t, "1 + 2")
	expr, ok := form.(ast.TopExpr)
	if !ok {
		t.Fatalf("form is %T, want ast.TopExpr", form)
	}
	bin, ok := expr.Fn.Body.(ast.Binary)
	if !ok || bin.Op != '+' {
		t.Fatalf("body = %v, want Binary(+)", expr.Fn.Body)
	}
}

func TestParsePrecedenceClimbing(t *testing.T) {
	// 1 + 2 * 3 should parse as 1 + (2 * 3), not (1 + 2) * 3.
	form := parseOneForm(t, "1 + 2 * 3")
	top := form.(ast.TopExpr)
	outer, ok := top.Fn.Body.(ast.Binary)
	if !ok || outer.Op != '+' {
		t.Fatalf("outer op = %v, want +", top.Fn.Body)
	}
	inner, ok := outer.RHS.(ast.Binary)
	if !ok || inner.Op != '*' {
		t.Fatalf("RHS = %v, want Binary(*)", outer.RHS)
	}
}

func TestParseDefinitionWithPrototype(t *testing.T) {
	form := parseOneForm(t, "def foo(x y) x + y")
	def, ok := form.(ast.TopDefinition)
	if !ok {
		t.Fatalf("form = %T, want ast.TopDefinition", form)
	}
	if def.Fn.Proto.Name != "foo" {
		t.Fatalf("proto name = %q, want foo", def.Fn.Proto.Name)
	}
	if len(def.Fn.Proto.Params) != 2 || def.Fn.Proto.Params[0] != "x" || def.Fn.Proto.Params[1] != "y" {
		t.Fatalf("params = %v, want [x y]", def.Fn.Proto.Params)
	}
}

func TestParseBinaryOperatorPrototypeWithPrecedence(t *testing.T) {
	form := parseOneForm(t, "def binary| 5 (a b) a")
	def := form.(ast.TopDefinition)
	if def.Fn.Proto.Kind != ast.KindBinaryOp {
		t.Fatalf("kind = %v, want KindBinaryOp", def.Fn.Proto.Kind)
	}
	if def.Fn.Proto.Precedence != 5 {
		t.Fatalf("precedence = %d, want 5", def.Fn.Proto.Precedence)
	}
	if def.Fn.Proto.OperatorChar() != '|' {
		t.Fatalf("operator char = %c, want |", def.Fn.Proto.OperatorChar())
	}
}

func TestParseUnaryOperatorWrongArityIsError(t *testing.T) {
	p := newParser("def unary!(a b) a")
	if _, _, err := p.ParseTopLevel(); err == nil {
		t.Fatal("expected an error for a two-parameter unary operator")
	}
}

func TestParseInvalidPrecedenceRange(t *testing.T) {
	p := newParser("def binary| 200 (a b) a")
	if _, _, err := p.ParseTopLevel(); err == nil {
		t.Fatal("expected an error for precedence out of [1, 100]")
	}
}

func TestParseExternHasNoBody(t *testing.T) {
	form := parseOneForm(t, "extern sin(x)")
	ext, ok := form.(ast.TopExtern)
	if !ok {
		t.Fatalf("form = %T, want ast.TopExtern", form)
	}
	if ext.Proto.Name != "sin" {
		t.Fatalf("proto name = %q, want sin", ext.Proto.Name)
	}
}

func TestParseCallWithArguments(t *testing.T) {
	form := parseOneForm(t, "foo(1, 2 + 3)")
	call := form.(ast.TopExpr).Fn.Body.(ast.Call)
	if call.Callee != "foo" || len(call.Args) != 2 {
		t.Fatalf("call = %+v", call)
	}
}

func TestParseIfThenElse(t *testing.T) {
	form := parseOneForm(t, "if x then 1 else 2")
	ifExpr := form.(ast.TopExpr).Fn.Body.(ast.If)
	if _, ok := ifExpr.Cond.(ast.Variable); !ok {
		t.Fatalf("cond = %T, want ast.Variable", ifExpr.Cond)
	}
}

func TestParseForLoopOptionalStep(t *testing.T) {
	form := parseOneForm(t, "for i = 1, i < 10 in i")
	forExpr := form.(ast.TopExpr).Fn.Body.(ast.For)
	if forExpr.Var != "i" {
		t.Fatalf("var = %q, want i", forExpr.Var)
	}
	if forExpr.Step != nil {
		t.Fatal("step should be nil when omitted")
	}
}

func TestParseVarInMultipleBindings(t *testing.T) {
	form := parseOneForm(t, "var a = 1, b = a in a + b")
	v := form.(ast.TopExpr).Fn.Body.(ast.VarIn)
	if len(v.Bindings) != 2 || v.Bindings[0].Name != "a" || v.Bindings[1].Name != "b" {
		t.Fatalf("bindings = %+v", v.Bindings)
	}
}

func TestParseUnaryIsRecursive(t *testing.T) {
	// grammar: unary := primary | op unary, so "!!x" is Unary(!, Unary(!, x)).
	p := newParser("!!x")
	expr, err := p.parseExpression()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	outer, ok := expr.(ast.Unary)
	if !ok {
		t.Fatalf("expr = %T, want ast.Unary", expr)
	}
	if _, ok := outer.Operand.(ast.Unary); !ok {
		t.Fatalf("operand = %T, want nested ast.Unary", outer.Operand)
	}
}

func TestSynchronizeAdvancesPastBadToken(t *testing.T) {
	p := newParser("@ def foo() 1")
	_, _, err := p.ParseTopLevel()
	if err == nil {
		t.Fatal("expected a parse error on '@'")
	}
	p.Synchronize()
	form, ok, err := p.ParseTopLevel()
	if err != nil || !ok {
		t.Fatalf("after Synchronize, ParseTopLevel = (%v, %v, %v)", form, ok, err)
	}
}

func TestAtEOFOnEmptyInput(t *testing.T) {
	p := newParser("")
	if !p.AtEOF() {
		t.Fatal("AtEOF() = false on empty input")
	}
	_, ok, err := p.ParseTopLevel()
	if ok || err != nil {
		t.Fatalf("ParseTopLevel on empty input = (%v, %v, %v), want (nil, false, nil)", nil, ok, err)
	}
}

func TestParseSemicolonsAreSkipped(t *testing.T) {
	p := newParser(";;; 1 + 1")
	form, ok, err := p.ParseTopLevel()
	if err != nil || !ok {
		t.Fatalf("ParseTopLevel = (%v, %v, %v)", form, ok, err)
	}
}
