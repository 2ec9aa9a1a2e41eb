package config

import "testing"

func TestFromArgsDefaults(t *testing.T) {
	cfg, err := FromArgs([]string{"prog.ks"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Input != "prog.ks" {
		t.Fatalf("Input = %q, want prog.ks", cfg.Input)
	}
	if !cfg.EmitIR || !cfg.Optimize || cfg.LSP {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.Output != "-" {
		t.Fatalf("Output = %q, want -", cfg.Output)
	}
}

func TestFromArgsNoInputDefaultsToStdin(t *testing.T) {
	cfg, err := FromArgs(nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Input != "-" {
		t.Fatalf("Input = %q, want - (stdin)", cfg.Input)
	}
}

func TestFromArgsFlagsOverrideDefaults(t *testing.T) {
	cfg, err := FromArgs([]string{"-opt=false", "-emit-ir=false", "-lsp", "-o", "out.ir", "prog.ks"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Optimize || cfg.EmitIR || !cfg.LSP || cfg.Output != "out.ir" {
		t.Fatalf("flags not applied: %+v", cfg)
	}
}

func TestFromArgsRejectsExtraPositional(t *testing.T) {
	if _, err := FromArgs([]string{"a.ks", "b.ks"}); err == nil {
		t.Fatal("expected an error for more than one positional argument")
	}
}
