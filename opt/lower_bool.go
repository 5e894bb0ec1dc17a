package opt

import (
	"fmt"

	"github.com/gogpu/nir/ir"
)

// floatOne is the 32-bit IEEE encoding of 1.0.
const floatOne = 0x3f800000

// boolAction is what the boolean lowering does to one ALU opcode.
type boolAction uint8

const (
	// boolKeep leaves the op alone; it must not touch 1-bit values.
	boolKeep boolAction = iota
	// boolWiden keeps the op and only widens a 1-bit dest.
	boolWiden
	// boolRename swaps in a float op producing 1.0/0.0.
	boolRename
	// boolZeroCompare replaces the instruction by op(src0, 0.0).
	boolZeroCompare
)

// boolRewrite is the lowering decision for one opcode.
type boolRewrite struct {
	action boolAction
	op     ir.Op
}

// boolRewriteFor maps an opcode to its lowering. Integer bitwise ops are
// logical only when they operate on 1-bit values, so onBools selects
// between their boolean rewrite and leaving them alone.
//
// Every opcode has an explicit case. A new opcode without one panics on
// first use and fails TestBoolRewriteFor_CoversEveryOp.
//
//nolint:gocyclo,cyclop,funlen // one case per opcode
func boolRewriteFor(op ir.Op, onBools bool) boolRewrite {
	keep := boolRewrite{action: boolKeep}
	rename := func(to ir.Op) boolRewrite { return boolRewrite{action: boolRename, op: to} }

	switch op {
	case ir.OpMov, ir.OpVec2, ir.OpVec3, ir.OpVec4:
		return boolRewrite{action: boolWiden}

	case ir.OpB2F32, ir.OpB2I32:
		return rename(ir.OpMov)
	case ir.OpF2B1, ir.OpI2B1:
		return boolRewrite{action: boolZeroCompare, op: ir.OpSNe}

	case ir.OpFLt, ir.OpILt, ir.OpULt:
		return rename(ir.OpSLt)
	case ir.OpFGe, ir.OpIGe, ir.OpUGe:
		return rename(ir.OpSGe)
	case ir.OpFEq, ir.OpIEq:
		return rename(ir.OpSEq)
	case ir.OpFNeu, ir.OpINe:
		return rename(ir.OpSNe)

	case ir.OpBAllFEqual2, ir.OpBAllIEqual2:
		return rename(ir.OpFAllEqual2)
	case ir.OpBAllFEqual3, ir.OpBAllIEqual3:
		return rename(ir.OpFAllEqual3)
	case ir.OpBAllFEqual4, ir.OpBAllIEqual4:
		return rename(ir.OpFAllEqual4)
	case ir.OpBAnyFNEqual2, ir.OpBAnyINEqual2:
		return rename(ir.OpFAnyNEqual2)
	case ir.OpBAnyFNEqual3, ir.OpBAnyINEqual3:
		return rename(ir.OpFAnyNEqual3)
	case ir.OpBAnyFNEqual4, ir.OpBAnyINEqual4:
		return rename(ir.OpFAnyNEqual4)

	case ir.OpBCsel:
		return rename(ir.OpFCsel)

	case ir.OpIAnd:
		if onBools {
			return rename(ir.OpFMul)
		}
		return keep
	case ir.OpIOr:
		if onBools {
			return rename(ir.OpFMax)
		}
		return keep
	case ir.OpIXor:
		if onBools {
			return rename(ir.OpSNe)
		}
		return keep
	case ir.OpINot:
		if onBools {
			return boolRewrite{action: boolZeroCompare, op: ir.OpSEq}
		}
		return keep

	case ir.OpFNeg, ir.OpFAbs, ir.OpFSat, ir.OpFAdd, ir.OpFSub, ir.OpFMul,
		ir.OpFMin, ir.OpFMax, ir.OpFFma, ir.OpFRcp, ir.OpFSqrt,
		ir.OpINeg, ir.OpIAdd, ir.OpISub, ir.OpIMul, ir.OpIShl, ir.OpIShr, ir.OpUShr,
		ir.OpSLt, ir.OpSGe, ir.OpSEq, ir.OpSNe,
		ir.OpF2I32, ir.OpF2U32, ir.OpI2F32, ir.OpU2F32,
		ir.OpFCsel,
		ir.OpFDot2, ir.OpFDot3, ir.OpFDot4,
		ir.OpFAllEqual2, ir.OpFAllEqual3, ir.OpFAllEqual4,
		ir.OpFAnyNEqual2, ir.OpFAnyNEqual3, ir.OpFAnyNEqual4:
		return keep
	}
	panic(fmt.Sprintf("opt: no boolean lowering rule for %s", op))
}

// LowerBoolToFloat rewrites every 1-bit boolean in p into 32-bit floats
// holding 1.0 or 0.0, for hardware without native booleans.
func LowerBoolToFloat(p *ir.Program) bool {
	progress := false
	for _, impl := range p.Impls() {
		if LowerBoolToFloatImpl(impl) {
			progress = true
		}
	}
	return progress
}

// LowerBoolToFloatImpl lowers booleans in one implementation. It panics if
// a 1-bit value reaches an op that has no float equivalent.
func LowerBoolToFloatImpl(impl *ir.Impl) bool {
	b := ir.NewBuilder(impl)
	progress := false
	for _, block := range impl.Blocks {
		block.ForEach(func(h ir.InstrHandle, instr *ir.Instr) {
			if lowerBoolInstr(b, h, instr) {
				progress = true
			}
		})
	}
	assertNoBools(impl)

	if progress {
		impl.Preserve(ir.MetadataBlockIndex | ir.MetadataDominance)
	} else {
		impl.Preserve(ir.MetadataAll)
	}
	return progress
}

func lowerBoolInstr(b *ir.Builder, h ir.InstrHandle, instr *ir.Instr) bool {
	switch k := instr.Kind.(type) {
	case *ir.ALU:
		return lowerBoolALU(b, h, k)

	case *ir.LoadConst:
		if !k.Dest.IsBool() {
			return false
		}
		k.Dest.BitSize = 32
		for i := 0; i < int(k.Dest.NumComponents); i++ {
			if k.Values[i] != 0 {
				k.Values[i] = floatOne
			}
		}
		return true

	case *ir.Undef, *ir.Phi, *ir.Tex, *ir.Intrinsic:
		return widenBool(k.DestDef())

	default:
		if d := k.DestDef(); d != nil && d.IsBool() {
			panic(fmt.Sprintf("opt: 1-bit %T result %%%d cannot be lowered", k, h))
		}
		return false
	}
}

func widenBool(d *ir.Def) bool {
	if d == nil || !d.IsBool() {
		return false
	}
	d.BitSize = 32
	return true
}

func lowerBoolALU(b *ir.Builder, h ir.InstrHandle, alu *ir.ALU) bool {
	impl := b.Impl
	onBools := alu.Dest.IsBool()
	for _, src := range alu.Src {
		if impl.Def(src.Def).IsBool() {
			onBools = true
		}
	}

	rw := boolRewriteFor(alu.Op, onBools)
	switch rw.action {
	case boolKeep:
		if onBools {
			panic(fmt.Sprintf("opt: %s on 1-bit values at %%%d has no float lowering", alu.Op, h))
		}
		return false

	case boolZeroCompare:
		b.At(ir.Before(impl, h))
		src := b.ForALUSrc(alu, 0)
		if src != alu.Src[0].Def {
			// A fresh mov of a not yet lowered bool is lowered here.
			widenBool(impl.Def(src))
		}
		rep := b.ALU(rw.op, src, b.ImmFloat(32, 0))
		impl.RewriteUses(h, rep)
		impl.Remove(h)
		return true

	case boolRename:
		alu.Op = rw.op
		widenBool(&alu.Dest)
		return true
	}
	return widenBool(&alu.Dest)
}

// assertNoBools panics if any def in impl is still 1-bit.
func assertNoBools(impl *ir.Impl) {
	impl.ForEachInstr(func(h ir.InstrHandle, instr *ir.Instr) {
		if d := instr.Kind.DestDef(); d != nil && d.IsBool() {
			panic(fmt.Sprintf("opt: 1-bit def %%%d survived boolean lowering", h))
		}
	})
}
