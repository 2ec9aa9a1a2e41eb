// Package config parses command-line flags into a Config, the way
// cmd/nar/nar.go's flat block of flag.String/flag.Bool calls does for the
// teacher's compiler entry point.
package config

import (
	"flag"
	"fmt"
)

// Config holds everything cmd/kalc needs to run one compilation.
type Config struct {
	Input    string // input file path, or "-" for stdin
	Output   string // IR dump destination, or "-" for stdout
	EmitIR   bool   // print the textual IR dump
	Optimize bool   // run ir.OptimizeFunction over each lowered function
	LSP      bool   // emit LSP publishDiagnostics notifications to stdout
}

// FromArgs parses args (excluding the program name, i.e. os.Args[1:])
// into a Config. The first non-flag argument is the input path.
func FromArgs(args []string) (Config, error) {
	fs := flag.NewFlagSet("kalc", flag.ContinueOnError)

	output := fs.String("o", "-", "IR output destination (\"-\" for stdout)")
	emitIR := fs.Bool("emit-ir", true, "print the textual IR dump")
	optimize := fs.Bool("opt", true, "run constant folding and dead-block elimination")
	lsp := fs.Bool("lsp", false, "emit LSP publishDiagnostics notifications instead of plain text")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	rest := fs.Args()
	input := "-"
	if len(rest) > 0 {
		input = rest[0]
	}
	if len(rest) > 1 {
		return Config{}, fmt.Errorf("unexpected extra arguments: %v", rest[1:])
	}

	return Config{
		Input:    input,
		Output:   *output,
		EmitIR:   *emitIR,
		Optimize: *optimize,
		LSP:      *lsp,
	}, nil
}
