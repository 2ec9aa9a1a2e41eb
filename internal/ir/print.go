package ir

import (
	"fmt"
	"io"
	"strings"
)

// Print writes a textual dump of m to w.
func Print(m *Module, w io.Writer) {
	fmt.Fprintf(w, "; module %s\n", m.Name)
	for _, fn := range m.Functions {
		printFunction(w, fn)
	}
}

func printFunction(w io.Writer, fn *Function) {
	params := strings.Join(fn.Params, ", ")
	if fn.Empty() {
		fmt.Fprintf(w, "declare %s @%s(%s)\n", fn.RetType, fn.Name, params)
		return
	}
	fmt.Fprintf(w, "define %s @%s(%s) {\n", fn.RetType, fn.Name, params)
	for _, blk := range fn.Blocks {
		fmt.Fprintf(w, "%s:\n", blk.Name)
		for _, instr := range blk.Instrs {
			fmt.Fprintf(w, "  %s\n", printInstr(instr))
		}
	}
	fmt.Fprintln(w, "}")
}

func printInstr(v *Value) string {
	switch v.Op {
	case OpConst:
		return fmt.Sprintf("%s = const %v", v, v.Const)
	case OpParam:
		return fmt.Sprintf("%s = param", v)
	case OpAlloca:
		return fmt.Sprintf("%s = alloca double", v)
	case OpLoad:
		return fmt.Sprintf("%s = load %s", v, v.Args[0])
	case OpStore:
		return fmt.Sprintf("store %s -> %s", v.Args[1], v.Args[0])
	case OpAdd, OpSub, OpMul, OpDiv, OpFCmpULT, OpFCmpUNE:
		return fmt.Sprintf("%s = %s %s, %s", v, v.Op, v.Args[0], v.Args[1])
	case OpWiden:
		return fmt.Sprintf("%s = uitofp %s", v, v.Args[0])
	case OpCall:
		args := make([]string, len(v.Args))
		for i, a := range v.Args {
			args[i] = a.String()
		}
		return fmt.Sprintf("%s = call @%s(%s)", v, v.Callee.Name, strings.Join(args, ", "))
	case OpBr:
		return fmt.Sprintf("br %s", v.Then.Name)
	case OpCondBr:
		return fmt.Sprintf("condbr %s, %s, %s", v.Args[0], v.Then.Name, v.Else.Name)
	case OpPhi:
		parts := make([]string, len(v.Incoming))
		for i, e := range v.Incoming {
			parts[i] = fmt.Sprintf("[%s, %s]", e.Value, e.Block.Name)
		}
		return fmt.Sprintf("%s = phi %s", v, strings.Join(parts, ", "))
	case OpRet:
		if len(v.Args) == 0 {
			return "ret"
		}
		return fmt.Sprintf("ret %s", v.Args[0])
	default:
		return "?"
	}
}
