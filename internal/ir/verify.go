package ir

import "fmt"

// VerifyFunction runs a structural validity check over fn, mirroring
// LLVM's verifyFunction as exposed to the core: every block must end in
// exactly one terminator, and a phi must have as many incoming edges as
// its block has predecessors (only the counts are compared). Verification failures are non-fatal to
// the core: they are logged and only the current form is aborted.
func (b *InMemoryBuilder) VerifyFunction(fn *Function) error {
	if fn.Empty() {
		return fmt.Errorf("function %q has no body", fn.Name)
	}

	preds := predecessors(fn)

	for _, blk := range fn.Blocks {
		if len(blk.Instrs) == 0 {
			return fmt.Errorf("block %q in %q has no instructions", blk.Name, fn.Name)
		}
		for i, instr := range blk.Instrs {
			isTerm := instr.Op == OpBr || instr.Op == OpCondBr || instr.Op == OpRet
			if isTerm && i != len(blk.Instrs)-1 {
				return fmt.Errorf("block %q in %q has a terminator before its end", blk.Name, fn.Name)
			}
			if instr.Op == OpPhi {
				want := preds[blk]
				if len(instr.Incoming) != len(want) {
					return fmt.Errorf("phi in block %q of %q has %d incoming edges, want %d",
						blk.Name, fn.Name, len(instr.Incoming), len(want))
				}
			}
		}
		if term := blk.Terminator(); term == nil {
			return fmt.Errorf("block %q in %q is missing a terminator", blk.Name, fn.Name)
		}
	}
	return nil
}

func predecessors(fn *Function) map[*Block][]*Block {
	preds := map[*Block][]*Block{}
	for _, blk := range fn.Blocks {
		term := blk.Terminator()
		if term == nil {
			continue
		}
		switch term.Op {
		case OpBr:
			preds[term.Then] = append(preds[term.Then], blk)
		case OpCondBr:
			preds[term.Then] = append(preds[term.Then], blk)
			preds[term.Else] = append(preds[term.Else], blk)
		}
	}
	return preds
}
