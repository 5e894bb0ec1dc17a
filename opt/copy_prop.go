package opt

import (
	"github.com/gogpu/nir/ir"
)

// isMove reports whether alu is a plain mov: no saturate and no source
// modifiers.
func isMove(alu *ir.ALU) bool {
	if alu.Op != ir.OpMov || alu.Saturate {
		return false
	}
	return !alu.Src[0].Abs && !alu.Src[0].Negate
}

// isVec reports whether alu is a vecN without saturate or source modifiers.
func isVec(alu *ir.ALU) bool {
	if !alu.Op.IsVec() || alu.Saturate {
		return false
	}
	for _, src := range alu.Src {
		if src.Abs || src.Negate {
			return false
		}
	}
	return true
}

// isSwizzlelessMove reports whether alu only renames its source: a move
// whose swizzle is the identity over its write mask, or a vecN whose
// sources are lanes 0..N-1 of one def in order.
func isSwizzlelessMove(alu *ir.ALU) bool {
	switch {
	case isMove(alu):
		return alu.Src[0].Swizzle.IsIdentity(alu.WriteMask)
	case isVec(alu):
		def := alu.Src[0].Def
		for i, src := range alu.Src {
			if int(src.Swizzle[0]) != i || src.Def != def {
				return false
			}
		}
		return true
	}
	return false
}

func producerALU(impl *ir.Impl, h ir.InstrHandle) *ir.ALU {
	alu, _ := impl.Instr(h).Kind.(*ir.ALU)
	return alu
}

// copyPropALUSrc looks through one mov or vec feeding ALU source i of
// user, composing swizzles. It fails when a vec would feed the used lanes
// from different defs.
func copyPropALUSrc(impl *ir.Impl, user ir.InstrHandle, alu *ir.ALU, i int) bool {
	src := &alu.Src[i]
	prod := producerALU(impl, src.Def)
	if prod == nil || (!isMove(prod) && !isVec(prod)) {
		return false
	}

	var swz ir.Swizzle
	def := ir.NoInstr
	if prod.Op == ir.OpMov {
		for c := range swz {
			swz[c] = prod.Src[0].Swizzle[src.Swizzle[c]]
		}
		def = prod.Src[0].Def
	} else {
		for c := range swz {
			if !alu.ChannelUsed(i, c) {
				continue
			}
			in := prod.Src[src.Swizzle[c]]
			if def == ir.NoInstr {
				def = in.Def
			} else if in.Def != def {
				return false
			}
			swz[c] = in.Swizzle[0]
		}
		if def == ir.NoInstr {
			return false
		}
	}

	src.Swizzle = swz
	impl.SetSrc(user, i, def)
	return true
}

// copyPropSrc replaces a non-ALU source fed by a swizzleless move of a
// def with the same width.
func copyPropSrc(impl *ir.Impl, u ir.Use) bool {
	src := impl.SrcAt(u)
	prod := producerALU(impl, src.Def)
	if prod == nil || !isSwizzlelessMove(prod) {
		return false
	}
	orig := prod.Src[0].Def
	if impl.Def(orig).NumComponents != impl.Def(src.Def).NumComponents {
		return false
	}
	impl.Rewrite(u, orig)
	return true
}

func copyPropInstr(impl *ir.Impl, h ir.InstrHandle, instr *ir.Instr) bool {
	progress := false
	if alu, ok := instr.Kind.(*ir.ALU); ok {
		for i := range alu.Src {
			for copyPropALUSrc(impl, h, alu, i) {
				progress = true
			}
		}
		return progress
	}

	for slot := range instr.Kind.Srcs() {
		for copyPropSrc(impl, ir.Use{User: h, Slot: slot}) {
			progress = true
		}
	}
	return progress
}

// CopyProp rewrites uses of movs and vecs to read their sources directly.
// The copies themselves are left for dead code elimination.
func CopyProp(p *ir.Program) bool {
	progress := false
	for _, impl := range p.Impls() {
		if CopyPropImpl(impl) {
			progress = true
		}
	}
	return progress
}

// CopyPropImpl runs copy propagation on one implementation.
func CopyPropImpl(impl *ir.Impl) bool {
	progress := false
	for _, block := range impl.Blocks {
		block.ForEach(func(h ir.InstrHandle, instr *ir.Instr) {
			if copyPropInstr(impl, h, instr) {
				progress = true
			}
		})
		if block.Cond != nil {
			for copyPropSrc(impl, ir.Use{User: ir.NoInstr, Block: block}) {
				progress = true
			}
		}
	}

	if progress {
		impl.Preserve(ir.MetadataBlockIndex | ir.MetadataDominance)
	} else {
		impl.Preserve(ir.MetadataAll)
	}
	return progress
}
