package opt

import (
	"github.com/gogpu/nir/ir"
)

// DeadCode removes instructions whose results are never used and that
// have no side effects.
func DeadCode(p *ir.Program) bool {
	progress := false
	for _, impl := range p.Impls() {
		if DeadCodeImpl(impl) {
			progress = true
		}
	}
	return progress
}

// DeadCodeImpl runs dead code elimination on one implementation. Live
// instructions are marked from side-effecting intrinsics and branch
// conditions, so unused phi cycles are removed as well.
func DeadCodeImpl(impl *ir.Impl) bool {
	live := make([]bool, impl.NumInstrs())
	var worklist []ir.InstrHandle
	mark := func(h ir.InstrHandle) {
		if !live[h] {
			live[h] = true
			worklist = append(worklist, h)
		}
	}

	for _, block := range impl.Blocks {
		block.ForEach(func(h ir.InstrHandle, instr *ir.Instr) {
			if hasSideEffects(instr.Kind) {
				mark(h)
			}
		})
		if block.Cond != nil {
			mark(block.Cond.Def)
		}
	}
	for len(worklist) > 0 {
		h := worklist[len(worklist)-1]
		worklist = worklist[:len(worklist)-1]
		for _, src := range impl.Instr(h).Kind.Srcs() {
			mark(src.Def)
		}
	}

	progress := false
	for _, block := range impl.Blocks {
		block.ForEach(func(h ir.InstrHandle, _ *ir.Instr) {
			if !live[h] {
				impl.Remove(h)
				progress = true
			}
		})
	}

	if progress {
		impl.Preserve(ir.MetadataBlockIndex | ir.MetadataDominance)
	} else {
		impl.Preserve(ir.MetadataAll)
	}
	return progress
}

func hasSideEffects(kind ir.InstrKind) bool {
	in, ok := kind.(*ir.Intrinsic)
	return ok && in.Op.Info().SideEffects
}
