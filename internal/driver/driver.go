// Package driver iterates top-level forms, stitches lowered top-level
// expressions into a synthetic entry point, and hands the finished
// module to the code-generator collaborator. It is the one place that
// sequences Parser and Lowerer together, so it is also where a JIT/REPL
// driver would plug in per-form instead of whole-file.
package driver

import (
	"kaleidoscope-compiler/internal/ast"
	"kaleidoscope-compiler/internal/diag"
	"kaleidoscope-compiler/internal/ir"
	"kaleidoscope-compiler/internal/lower"
	"kaleidoscope-compiler/internal/parser"
)

// Driver sequences lowering of top-level forms and assembles the
// synthetic `main` entry point that calls them.
type Driver struct {
	Lower             *lower.Lowerer
	Sink              *diag.Sink
	TopLevelFunctions []*ir.Function
}

// New constructs a Driver over lowerer, recording diagnostics into sink.
func New(lowerer *lower.Lowerer, sink *diag.Sink) *Driver {
	return &Driver{Lower: lowerer, Sink: sink}
}

// Run drives p to exhaustion, handling every top-level form and
// synchronizing past parse errors instead of aborting the whole run.
func (d *Driver) Run(p *parser.Parser) {
	for !p.AtEOF() {
		form, ok, err := p.ParseTopLevel()
		if err != nil {
			d.Sink.Err(err)
			p.Synchronize()
			continue
		}
		if !ok {
			break
		}
		d.HandleTopLevel(form)
	}
}

// HandleTopLevel lowers one top-level form. Lowering failures are
// recorded into the sink and abort only the current form; they never
// propagate out of HandleTopLevel, so a caller driving forms one at a
// time (e.g. a REPL) can always proceed to the next.
func (d *Driver) HandleTopLevel(form ast.TopLevel) {
	switch f := form.(type) {
	case ast.TopDefinition:
		fn, err := d.Lower.LowerFunction(f.Fn)
		if err != nil {
			d.Sink.Err(err)
			return
		}
		d.Sink.Trace("defined function %s", fn.Name)

	case ast.TopExtern:
		if err := d.Lower.LowerExtern(f.Proto); err != nil {
			d.Sink.Err(err)
			return
		}
		d.Sink.Trace("declared extern %s", f.Proto.Name)

	case ast.TopExpr:
		fn, err := d.Lower.LowerFunction(f.Fn)
		if err != nil {
			d.Sink.Err(err)
			return
		}
		d.TopLevelFunctions = append(d.TopLevelFunctions, fn)
	}
}

// Finish synthesizes the `main` entry point calling every remembered
// top-level-expression wrapper in insertion order and returning 0. If no
// top-level expression was ever lowered, it warns and returns nil rather
// than fabricating an empty entry point.
func (d *Driver) Finish() *ir.Function {
	if len(d.TopLevelFunctions) == 0 {
		d.Sink.Warn("no top-level expressions; module has no entry point")
		return nil
	}

	main := d.Lower.Module.DeclareFunction("main", nil, ir.TypeI32)
	entry := d.Lower.Builder.NewBlock(main, "entry")
	d.Lower.Builder.SetInsertBlock(entry)
	for _, fn := range d.TopLevelFunctions {
		d.Lower.Builder.Call(fn, nil)
	}
	d.Lower.Builder.Ret(d.Lower.Builder.ConstI32(0))
	return main
}
