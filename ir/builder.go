package ir

import (
	"math"
)

// cursorKind says where a cursor points relative to its anchor.
type cursorKind uint8

const (
	cursorBeforeInstr cursorKind = iota
	cursorAfterInstr
	cursorBlockStart
	cursorBlockEnd
)

// Cursor is an insertion point.
type Cursor struct {
	kind  cursorKind
	block *Block
	instr InstrHandle
}

// Before returns a cursor in front of instruction h.
func Before(impl *Impl, h InstrHandle) Cursor {
	return Cursor{kind: cursorBeforeInstr, block: impl.instrs[h].block, instr: h}
}

// After returns a cursor behind instruction h.
func After(impl *Impl, h InstrHandle) Cursor {
	return Cursor{kind: cursorAfterInstr, block: impl.instrs[h].block, instr: h}
}

// BlockStart returns a cursor at the start of b, after any phis.
func BlockStart(b *Block) Cursor {
	return Cursor{kind: cursorBlockStart, block: b, instr: NoInstr}
}

// BlockEnd returns a cursor at the end of b.
func BlockEnd(b *Block) Cursor {
	return Cursor{kind: cursorBlockEnd, block: b, instr: NoInstr}
}

// Block returns the block the cursor inserts into.
func (c Cursor) Block() *Block {
	return c.block
}

// position returns the index in the block's handle list to insert at.
func (c Cursor) position() int {
	b := c.block
	switch c.kind {
	case cursorBlockStart:
		i := 0
		for i < len(b.instrs) {
			if _, ok := b.impl.instrs[b.instrs[i]].Kind.(*Phi); !ok {
				break
			}
			i++
		}
		return i
	case cursorBlockEnd:
		return len(b.instrs)
	}
	for i, h := range b.instrs {
		if h == c.instr {
			if c.kind == cursorAfterInstr {
				return i + 1
			}
			return i
		}
	}
	panic("ir: cursor anchor is not in its block")
}

// Insert places kind at the cursor and returns its handle.
func (impl *Impl) Insert(c Cursor, kind InstrKind) InstrHandle {
	if len(impl.instrs) >= math.MaxUint32 {
		panic("ir: instruction arena exhausted")
	}
	h := InstrHandle(len(impl.instrs))
	impl.instrs = append(impl.instrs, Instr{Kind: kind, block: c.block})

	b := c.block
	pos := c.position()
	b.instrs = append(b.instrs, NoInstr)
	copy(b.instrs[pos+1:], b.instrs[pos:])
	b.instrs[pos] = h

	if impl.uses != nil {
		impl.growUses()
		for slot, src := range kind.Srcs() {
			impl.addUse(src.Def, Use{User: h, Slot: slot})
		}
	}
	impl.valid &^= MetadataLiveness
	return h
}

// Append adds kind at the end of b.
func (impl *Impl) Append(b *Block, kind InstrKind) InstrHandle {
	return impl.Insert(BlockEnd(b), kind)
}

// Remove takes h out of its block. Its arena slot stays allocated so
// handles held by callers iterating a snapshot remain valid; the def must
// no longer be used.
func (impl *Impl) Remove(h InstrHandle) {
	instr := &impl.instrs[h]
	if instr.removed {
		return
	}
	b := instr.block
	for i, x := range b.instrs {
		if x == h {
			b.instrs = append(b.instrs[:i], b.instrs[i+1:]...)
			break
		}
	}
	if impl.uses != nil {
		for slot, src := range instr.Kind.Srcs() {
			impl.dropUse(src.Def, Use{User: h, Slot: slot})
		}
	}
	instr.removed = true
	impl.valid &^= MetadataLiveness
}

// Builder emits instructions at a cursor. After each insertion the cursor
// moves behind the new instruction, so consecutive calls emit in order.
type Builder struct {
	Impl   *Impl
	Cursor Cursor
}

// NewBuilder returns a builder positioned at the end of the entry block.
func NewBuilder(impl *Impl) *Builder {
	return &Builder{Impl: impl, Cursor: BlockEnd(impl.Entry())}
}

// At repositions the builder and returns it.
func (b *Builder) At(c Cursor) *Builder {
	b.Cursor = c
	return b
}

// Insert emits kind at the cursor.
func (b *Builder) Insert(kind InstrKind) InstrHandle {
	h := b.Impl.Insert(b.Cursor, kind)
	b.Cursor = After(b.Impl, h)
	return h
}

func (b *Builder) def(h InstrHandle) Def {
	return *b.Impl.Def(h)
}

// ALU emits op over whole-value sources. Narrower sources of a
// per-component op are broadcast by replicating their last lane.
func (b *Builder) ALU(op Op, srcs ...InstrHandle) InstrHandle {
	info := op.Info()
	if len(srcs) != info.NumInputs {
		panic("ir: wrong source count for " + op.String())
	}
	alu := make([]ALUSrc, len(srcs))
	width := int(info.OutputSize)
	for i, s := range srcs {
		n := int(b.def(s).NumComponents)
		alu[i] = ALUSrc{Src: Src{Def: s}, Swizzle: ReplicateSwizzle(n)}
		if info.OutputSize == 0 && info.InputSizes[i] == 0 {
			width = max(width, n)
		}
	}
	return b.ALUWith(op, alu, width)
}

// ALUWith emits op with explicit operands and destination width.
func (b *Builder) ALUWith(op Op, srcs []ALUSrc, numComponents int) InstrHandle {
	info := op.Info()
	bitSize := info.OutputType.Size
	if bitSize == 0 {
		bitSize = b.unsizedBitSize(info, srcs)
	}
	alu := &ALU{
		Op:        op,
		Dest:      Def{NumComponents: uint8(numComponents), BitSize: bitSize},
		WriteMask: FullMask(numComponents),
		Src:       srcs,
	}
	return b.Insert(alu)
}

// unsizedBitSize infers the result size of an unsized op from its first
// unsized operand, falling back to 32.
func (b *Builder) unsizedBitSize(info *OpInfo, srcs []ALUSrc) uint8 {
	for i, s := range srcs {
		if info.InputTypes[i].Size == 0 {
			return b.def(s.Def).BitSize
		}
	}
	return 32
}

// Mov emits a move of src narrowed or permuted to numComponents lanes.
func (b *Builder) Mov(src ALUSrc, numComponents int) InstrHandle {
	return b.ALUWith(OpMov, []ALUSrc{src}, numComponents)
}

// Vec emits a vector construction from scalar operands, or a mov for one.
func (b *Builder) Vec(srcs []ALUSrc) InstrHandle {
	return b.ALUWith(VecOp(len(srcs)), srcs, len(srcs))
}

// Channels emits a move selecting the lanes in mask, packed from lane 0.
func (b *Builder) Channels(def InstrHandle, mask WriteMask) InstrHandle {
	var swz Swizzle
	n := 0
	for i := 0; i < MaxComponents; i++ {
		if mask.Has(i) {
			swz[n] = uint8(i)
			n++
		}
	}
	for i := n; i < MaxComponents; i++ {
		swz[i] = swz[max(n-1, 0)]
	}
	return b.Mov(ALUSrc{Src: Src{Def: def}, Swizzle: swz}, n)
}

// ForALUSrc returns a def holding exactly the value ALU source i reads.
// The source def is reused when no lane remapping or modifier applies;
// otherwise a mov is emitted.
func (b *Builder) ForALUSrc(alu *ALU, i int) InstrHandle {
	src := alu.Src[i]
	n := alu.SrcComponents(i)
	def := b.def(src.Def)
	if int(def.NumComponents) == n && !src.Abs && !src.Negate && src.Swizzle.IsIdentity(FullMask(n)) {
		return src.Def
	}
	return b.Mov(src, n)
}

// LoadConst emits a constant vector of raw bit patterns.
func (b *Builder) LoadConst(bitSize uint8, values ...uint64) InstrHandle {
	c := &LoadConst{Dest: Def{NumComponents: uint8(len(values)), BitSize: bitSize}}
	copy(c.Values[:], values)
	return b.Insert(c)
}

// Imm emits a scalar constant with the given bit pattern.
func (b *Builder) Imm(bitSize uint8, bits uint64) InstrHandle {
	return b.LoadConst(bitSize, bits)
}

// ImmFloat emits a scalar float constant of the given size.
func (b *Builder) ImmFloat(bitSize uint8, v float64) InstrHandle {
	return b.Imm(bitSize, FloatBits(bitSize, v))
}

// Undef emits an undefined value.
func (b *Builder) Undef(numComponents, bitSize uint8) InstrHandle {
	return b.Insert(&Undef{Dest: Def{NumComponents: numComponents, BitSize: bitSize}})
}

// Intrinsic emits an intrinsic; dest is ignored when it has none.
func (b *Builder) Intrinsic(op IntrinsicOp, dest Def, numComponents uint8, srcs ...InstrHandle) InstrHandle {
	in := &Intrinsic{Op: op, Dest: dest, NumComponents: numComponents, Src: make([]Src, len(srcs))}
	for i, s := range srcs {
		in.Src[i] = Src{Def: s}
	}
	return b.Insert(in)
}

// FloatBits encodes v as an IEEE float of bitSize bits.
func FloatBits(bitSize uint8, v float64) uint64 {
	switch bitSize {
	case 64:
		return math.Float64bits(v)
	case 32:
		return uint64(math.Float32bits(float32(v)))
	case 16:
		return uint64(float32ToHalf(float32(v)))
	}
	panic("ir: no float encoding for bit size")
}

// float32ToHalf converts to IEEE binary16, truncating the mantissa.
func float32ToHalf(f float32) uint16 {
	x := math.Float32bits(f)
	sign := uint16(x>>16) & 0x8000
	exp := int32(x>>23&0xff) - 127 + 15
	mant := uint16(x>>13) & 0x3ff
	switch {
	case x&0x7fffffff == 0:
		return sign
	case exp >= 31:
		return sign | 0x7c00
	case exp <= 0:
		return sign
	}
	return sign | uint16(exp)<<10 | mant
}
