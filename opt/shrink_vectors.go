package opt

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/nir/ir"
)

// ShrinkOptions configures ShrinkVectors.
type ShrinkOptions struct {
	// ShrinkImageStore narrows image stores to the component count of the
	// image format. Image stores are otherwise left untouched; they are
	// never narrowed by write mask or read mask.
	ShrinkImageStore bool
}

// shrinkDestToReadMask drops trailing lanes of h's def that no use reads.
// Unused defs are left for dead code elimination.
func shrinkDestToReadMask(impl *ir.Impl, h ir.InstrHandle) bool {
	def := impl.Def(h)
	if def.NumComponents == 1 {
		return false
	}
	mask := impl.ComponentsRead(h)
	if mask == 0 {
		return false
	}
	if last := mask.LastBit(); int(def.NumComponents) > last {
		def.NumComponents = uint8(last)
		return true
	}
	return false
}

func shrinkALU(b *ir.Builder, h ir.InstrHandle, alu *ir.ALU) bool {
	impl := b.Impl
	info := alu.Op.Info()
	if info.PerComponent() {
		if shrinkDestToReadMask(impl, h) {
			alu.WriteMask &= ir.FullMask(int(alu.Dest.NumComponents))
			return true
		}
		return false
	}

	if !alu.Op.IsVec() {
		return false
	}
	mask := impl.ComponentsRead(h)
	if mask == 0 {
		return false
	}
	last := mask.LastBit()
	if last >= int(alu.Dest.NumComponents) {
		return false
	}
	// vecN encodes its width in the opcode, so build a narrower one.
	b.At(ir.Before(impl, h))
	srcs := make([]ir.ALUSrc, last)
	copy(srcs, alu.Src[:last])
	narrow := b.Vec(srcs)
	impl.Instr(narrow).Kind.(*ir.ALU).Saturate = alu.Saturate
	impl.RewriteUses(h, narrow)
	impl.Remove(h)
	return true
}

func isShrinkableLoad(op ir.IntrinsicOp) bool {
	switch op {
	case ir.IntrinsicLoadUniform,
		ir.IntrinsicLoadUBO,
		ir.IntrinsicLoadInput,
		ir.IntrinsicLoadSSBO,
		ir.IntrinsicLoadPushConstant,
		ir.IntrinsicLoadShared:
		return true
	}
	return false
}

func isShrinkableStore(op ir.IntrinsicOp) bool {
	switch op {
	case ir.IntrinsicStoreOutput,
		ir.IntrinsicStoreSSBO,
		ir.IntrinsicStoreShared:
		return true
	}
	return false
}

func shrinkIntrinsic(b *ir.Builder, h ir.InstrHandle, in *ir.Intrinsic, opts ShrinkOptions) bool {
	impl := b.Impl
	switch {
	case in.Op == ir.IntrinsicImageDerefStore || in.Op == ir.IntrinsicImageStore:
		return opts.ShrinkImageStore && shrinkImageStore(b, h, in)
	case isShrinkableLoad(in.Op), isShrinkableStore(in.Op):
	default:
		return false
	}

	info := in.Op.Info()
	if !info.IsVariableWidth() || in.NumComponents == 0 {
		panic(fmt.Sprintf("opt: %s at %%%d is not vectorized", in.Op, h))
	}

	if info.HasDest {
		if shrinkDestToReadMask(impl, h) {
			in.NumComponents = in.Dest.NumComponents
			return true
		}
		return false
	}

	last := in.WriteMask.LastBit()
	if last == 0 || last >= int(in.NumComponents) {
		return false
	}
	b.At(ir.Before(impl, h))
	data := b.Channels(in.Src[0].Def, ir.FullMask(last))
	impl.SetSrc(h, 0, data)
	in.NumComponents = uint8(last)
	return true
}

// imageStoreData is the source slot of the value an image store writes.
const imageStoreData = 3

func shrinkImageStore(b *ir.Builder, h ir.InstrHandle, in *ir.Intrinsic) bool {
	impl := b.Impl
	var format gputypes.TextureFormat
	if in.Op == ir.IntrinsicImageDerefStore {
		if v := impl.DerefVariable(in.Src[0].Def); v != nil {
			format = v.Format
		}
	} else {
		format = in.Format
	}

	components := ir.FormatComponents(format)
	if components == 0 || components >= int(in.NumComponents) {
		return false
	}
	b.At(ir.Before(impl, h))
	data := b.Channels(in.Src[imageStoreData].Def, ir.FullMask(components))
	impl.SetSrc(h, imageStoreData, data)
	in.NumComponents = uint8(components)
	return true
}

func shrinkLoadConst(impl *ir.Impl, h ir.InstrHandle, c *ir.LoadConst) bool {
	if !shrinkDestToReadMask(impl, h) {
		return false
	}
	for i := int(c.Dest.NumComponents); i < ir.MaxComponents; i++ {
		c.Values[i] = 0
	}
	return true
}

func shrinkInstr(b *ir.Builder, h ir.InstrHandle, instr *ir.Instr, opts ShrinkOptions) bool {
	switch k := instr.Kind.(type) {
	case *ir.ALU:
		return shrinkALU(b, h, k)
	case *ir.Intrinsic:
		return shrinkIntrinsic(b, h, k, opts)
	case *ir.LoadConst:
		return shrinkLoadConst(b.Impl, h, k)
	case *ir.Undef:
		return shrinkDestToReadMask(b.Impl, h)
	default:
		return false
	}
}

// ShrinkVectors narrows vector defs, loads and stores to the lanes that
// are actually read or written.
func ShrinkVectors(p *ir.Program, opts ShrinkOptions) bool {
	progress := false
	for _, impl := range p.Impls() {
		if ShrinkVectorsImpl(impl, opts) {
			progress = true
		}
	}
	return progress
}

// ShrinkVectorsImpl shrinks one implementation. Blocks and instructions
// are visited last to first so that narrowing a user is seen by the
// producers it reads.
func ShrinkVectorsImpl(impl *ir.Impl, opts ShrinkOptions) bool {
	b := ir.NewBuilder(impl)
	progress := false
	for i := len(impl.Blocks) - 1; i >= 0; i-- {
		impl.Blocks[i].ForEachReverse(func(h ir.InstrHandle, instr *ir.Instr) {
			if shrinkInstr(b, h, instr, opts) {
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
