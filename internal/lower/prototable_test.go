package lower

import (
	"testing"

	"kaleidoscope-compiler/internal/ast"
)

func TestPrototypeTablePutReplaces(t *testing.T) {
	tbl := NewPrototypeTable()
	tbl.Put(ast.Prototype{Name: "f", Params: []string{"x"}})
	tbl.Put(ast.Prototype{Name: "f", Params: []string{"x", "y"}})

	got, ok := tbl.Get("f")
	if !ok {
		t.Fatal("Get(f) not found")
	}
	if len(got.Params) != 2 {
		t.Fatalf("params = %v, want the later definition's 2 params", got.Params)
	}
}

func TestPrototypeTableGetMissing(t *testing.T) {
	tbl := NewPrototypeTable()
	if _, ok := tbl.Get("missing"); ok {
		t.Fatal("Get should report false for an unknown name")
	}
}
