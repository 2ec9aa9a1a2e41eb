// Command kalc is the batch compiler entry point: it reads a Kaleidoscope
// source file, lowers every top-level form to SSA IR, and prints the
// result, the way cmd/nar/nar.go drives the teacher's compiler pipeline
// from a flat block of flags down to a single log.Flush at the end.
package main

import (
	"fmt"
	"io"
	"os"

	"kaleidoscope-compiler/internal/config"
	"kaleidoscope-compiler/internal/diag"
	"kaleidoscope-compiler/internal/driver"
	"kaleidoscope-compiler/internal/ir"
	"kaleidoscope-compiler/internal/lexer"
	"kaleidoscope-compiler/internal/lower"
	"kaleidoscope-compiler/internal/lspdiag"
	"kaleidoscope-compiler/internal/parser"
	"kaleidoscope-compiler/internal/source"
)

func main() {
	cfg, err := config.FromArgs(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	sink := &diag.Sink{}
	ok := run(cfg, sink)
	if !cfg.LSP {
		sink.Flush(os.Stdout)
	}
	if !ok {
		os.Exit(1)
	}
}

func run(cfg config.Config, sink *diag.Sink) bool {
	text, name, err := readInput(cfg.Input)
	if err != nil {
		sink.Err(diag.NewSystemError(err))
		return false
	}

	lx := lexer.New(source.New(name, text))
	lw := lower.New(name, ir.NewInMemoryBuilder(), cfg.Optimize)
	p := parser.New(lx, lw.Prec)
	drv := driver.New(lw, sink)
	drv.Run(p)

	if cfg.LSP {
		publishDiagnostics(sink, name)
	}
	if sink.HasErrors() {
		return false
	}

	drv.Finish()

	if cfg.EmitIR {
		out, closeFn, err := openOutput(cfg.Output)
		if err != nil {
			sink.Err(diag.NewSystemError(err))
			return false
		}
		defer closeFn()
		ir.Print(lw.Module, out)
	}
	return true
}

func publishDiagnostics(sink *diag.Sink, name string) {
	uri := lspdiag.PathToURI(name)
	pub := lspdiag.NewPublisher(os.Stdout)
	diagnostics := lspdiag.FromSink(sink, uri)
	if err := pub.Publish(uri, diagnostics); err != nil {
		sink.Err(diag.NewSystemError(err))
	}
}

func readInput(path string) ([]byte, string, error) {
	if path == "-" {
		text, err := io.ReadAll(os.Stdin)
		return text, "<stdin>", err
	}
	text, err := os.ReadFile(path)
	return text, path, err
}

func openOutput(path string) (io.Writer, func(), error) {
	if path == "-" {
		return os.Stdout, func() {}, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, err
	}
	return f, func() { f.Close() }, nil
}
