package ir

// OptimizeFunction runs a fixed pipeline opaquely to the core:
// "instruction combining, reassociation, value-number GVN, CFG
// simplify". This in-memory backend implements two of those passes
// concretely — constant folding (instruction combining over arithmetic
// with two constant operands) and unreachable-block elimination (CFG
// simplify) — since a full GVN/reassociation pipeline belongs to the
// external code generator the module is handed to, not to the front
// end.
func (b *InMemoryBuilder) OptimizeFunction(fn *Function) {
	constantFold(fn)
	simplifyCFG(fn)
}

func constantFold(fn *Function) {
	for _, blk := range fn.Blocks {
		for _, instr := range blk.Instrs {
			foldInstr(instr)
		}
	}
}

func foldInstr(instr *Value) {
	switch instr.Op {
	case OpAdd, OpSub, OpMul, OpDiv, OpFCmpULT, OpFCmpUNE:
		if len(instr.Args) != 2 || instr.Args[0].Op != OpConst || instr.Args[1].Op != OpConst {
			return
		}
		l, r := instr.Args[0].Const, instr.Args[1].Const
		var v float64
		switch instr.Op {
		case OpAdd:
			v = l + r
		case OpSub:
			v = l - r
		case OpMul:
			v = l * r
		case OpDiv:
			v = l / r
		case OpFCmpULT:
			if l < r && !isNaN(l) && !isNaN(r) {
				v = 1
			} else {
				v = 0
			}
		case OpFCmpUNE:
			if l != r || isNaN(l) || isNaN(r) {
				v = 1
			} else {
				v = 0
			}
		}
		instr.Op = OpConst
		instr.Const = v
		instr.Args = nil
	case OpWiden:
		if len(instr.Args) != 1 || instr.Args[0].Op != OpConst {
			return
		}
		instr.Op = OpConst
		instr.Const = instr.Args[0].Const
		instr.Args = nil
	}
}

func isNaN(f float64) bool { return f != f }

// simplifyCFG removes blocks unreachable from the entry block, the way a
// CFG-simplify pass would drop dead blocks left behind by folding a
// branch condition to a constant.
func simplifyCFG(fn *Function) {
	if len(fn.Blocks) == 0 {
		return
	}
	reachable := map[*Block]bool{fn.Blocks[0]: true}
	queue := []*Block{fn.Blocks[0]}
	for len(queue) > 0 {
		blk := queue[0]
		queue = queue[1:]
		term := blk.Terminator()
		if term == nil {
			continue
		}
		for _, next := range []*Block{term.Then, term.Else} {
			if next != nil && !reachable[next] {
				reachable[next] = true
				queue = append(queue, next)
			}
		}
	}

	kept := fn.Blocks[:0]
	for _, blk := range fn.Blocks {
		if reachable[blk] {
			kept = append(kept, blk)
		}
	}
	fn.Blocks = kept
}
