package ir

import (
	"math"
	"math/bits"

	"github.com/gogpu/gputypes"
)

// InstrHandle addresses an instruction in its implementation's arena.
// It is also the identity of the SSA def the instruction produces.
type InstrHandle uint32

// NoInstr is the invalid handle.
const NoInstr InstrHandle = math.MaxUint32

// Instr is an arena slot holding one instruction.
type Instr struct {
	Kind InstrKind

	block   *Block
	removed bool
}

// Block returns the block containing the instruction.
func (i *Instr) Block() *Block {
	return i.block
}

// Removed reports whether the instruction was removed from its block.
func (i *Instr) Removed() bool {
	return i.removed
}

// InstrKind is the closed set of instruction variants.
type InstrKind interface {
	// DestDef returns the SSA def produced by the instruction, or nil.
	DestDef() *Def
	// Srcs returns pointers to every SSA source in a stable slot order.
	Srcs() []*Src

	instrKind()
}

// Def is the SSA value an instruction produces.
type Def struct {
	NumComponents uint8
	BitSize       uint8
}

// IsBool reports whether the def holds 1-bit booleans.
func (d Def) IsBool() bool {
	return d.BitSize == 1
}

// Mask returns the write mask covering all components of the def.
func (d Def) Mask() WriteMask {
	return FullMask(int(d.NumComponents))
}

// Src references the def produced by another instruction.
type Src struct {
	Def InstrHandle
}

// MaxComponents is the widest vector the IR supports.
const MaxComponents = 4

// Swizzle selects, for each destination lane, the source lane feeding it.
type Swizzle [MaxComponents]uint8

// IdentitySwizzle maps every lane to itself.
var IdentitySwizzle = Swizzle{0, 1, 2, 3}

// IsIdentity reports whether every lane selected by mask reads its own index.
func (s Swizzle) IsIdentity(mask WriteMask) bool {
	for i := 0; i < MaxComponents; i++ {
		if mask.Has(i) && int(s[i]) != i {
			return false
		}
	}
	return true
}

// ReplicateSwizzle returns a swizzle that clamps lanes past n-1 to n-1,
// which is how a narrower source is broadcast into a wider operation.
func ReplicateSwizzle(n int) Swizzle {
	var s Swizzle
	for i := range s {
		s[i] = uint8(min(i, n-1))
	}
	return s
}

const laneNames = "xyzw"

// LaneName returns the letter for a lane index.
func LaneName(i uint8) byte {
	return laneNames[i&3]
}

// LaneIndex returns the lane for a letter, or -1.
func LaneIndex(c byte) int {
	switch c {
	case 'x':
		return 0
	case 'y':
		return 1
	case 'z':
		return 2
	case 'w':
		return 3
	}
	return -1
}

// WriteMask is a bitset of vector lanes.
type WriteMask uint8

// FullMask returns the mask with the low n lanes set.
func FullMask(n int) WriteMask {
	return WriteMask(1<<uint(n) - 1)
}

// Has reports whether lane i is set.
func (m WriteMask) Has(i int) bool {
	return m>>uint(i)&1 != 0
}

// LastBit returns one past the highest set lane, or 0 for an empty mask.
func (m WriteMask) LastBit() int {
	return bits.Len8(uint8(m))
}

// Count returns the number of set lanes.
func (m WriteMask) Count() int {
	return bits.OnesCount8(uint8(m))
}

func (m WriteMask) String() string {
	b := make([]byte, 0, MaxComponents)
	for i := 0; i < MaxComponents; i++ {
		if m.Has(i) {
			b = append(b, laneNames[i])
		}
	}
	return string(b)
}

// ALUSrc is an ALU operand: a source plus lane selection and modifiers.
type ALUSrc struct {
	Src
	Swizzle Swizzle
	Abs     bool
	Negate  bool
}

// ALU is an arithmetic or logic operation.
type ALU struct {
	Op        Op
	Dest      Def
	WriteMask WriteMask
	Saturate  bool
	Src       []ALUSrc
}

// ChannelUsed reports whether lane c of source i is consumed.
func (a *ALU) ChannelUsed(i, c int) bool {
	info := a.Op.Info()
	if size := info.InputSizes[i]; size != 0 {
		return c < int(size)
	}
	return a.WriteMask.Has(c)
}

// SrcComponents returns how many lanes of source i the operation reads.
func (a *ALU) SrcComponents(i int) int {
	info := a.Op.Info()
	if size := info.InputSizes[i]; size != 0 {
		return int(size)
	}
	return int(a.Dest.NumComponents)
}

// SrcReadMask returns the lanes of source i's def that are read.
func (a *ALU) SrcReadMask(i int) WriteMask {
	var mask WriteMask
	for c := 0; c < MaxComponents; c++ {
		if a.ChannelUsed(i, c) {
			mask |= 1 << a.Src[i].Swizzle[c]
		}
	}
	return mask
}

// LoadConst materializes a constant vector. Values hold raw bit patterns
// of Dest.BitSize bits each; 1-bit values are 0 or 1.
type LoadConst struct {
	Dest   Def
	Values [MaxComponents]uint64
}

// Undef is an explicitly uninitialized value.
type Undef struct {
	Dest Def
}

// PhiSrc is the incoming value of a phi along one predecessor edge.
type PhiSrc struct {
	Src
	Pred *Block
}

// Phi selects a value by the predecessor control arrived from.
type Phi struct {
	Dest Def
	Src  []PhiSrc
}

// DerefKind is the step a deref instruction performs.
type DerefKind uint8

const (
	DerefVar DerefKind = iota
	DerefStruct
	DerefArray
)

// Deref computes a memory location without accessing memory.
type Deref struct {
	Kind DerefKind
	Dest Def

	// Var is the root variable, set for DerefVar.
	Var *Variable
	// Parent is the deref this step applies to (struct and array).
	Parent Src
	// Field is the struct member index.
	Field uint32
	// Index is the array index (array only).
	Index Src
}

// Tex is a texture operation with keyed sources.
type Tex struct {
	Op   TexOp
	Dest Def
	Src  []TexSrc
}

// TexSrc is a keyed texture operand.
type TexSrc struct {
	Src
	Kind TexSrcKind
}

// Intrinsic is an opaque operation from the intrinsic registry.
type Intrinsic struct {
	Op   IntrinsicOp
	Dest Def

	// NumComponents is the vector width of variable-width intrinsics:
	// the dest width for loads, the stored value width for stores.
	NumComponents uint8

	Src []Src

	// Base is the base offset or location index.
	Base int32
	// WriteMask selects the lanes a store writes.
	WriteMask WriteMask
	// Format is the pixel format of an image_store.
	Format gputypes.TextureFormat
}

func (*ALU) instrKind()       {}
func (*LoadConst) instrKind() {}
func (*Undef) instrKind()     {}
func (*Phi) instrKind()       {}
func (*Deref) instrKind()     {}
func (*Tex) instrKind()       {}
func (*Intrinsic) instrKind() {}

func (a *ALU) DestDef() *Def       { return &a.Dest }
func (c *LoadConst) DestDef() *Def { return &c.Dest }
func (u *Undef) DestDef() *Def     { return &u.Dest }
func (p *Phi) DestDef() *Def       { return &p.Dest }
func (d *Deref) DestDef() *Def     { return &d.Dest }
func (t *Tex) DestDef() *Def       { return &t.Dest }

func (in *Intrinsic) DestDef() *Def {
	if !in.Op.Info().HasDest {
		return nil
	}
	return &in.Dest
}

func (a *ALU) Srcs() []*Src {
	out := make([]*Src, len(a.Src))
	for i := range a.Src {
		out[i] = &a.Src[i].Src
	}
	return out
}

func (*LoadConst) Srcs() []*Src { return nil }
func (*Undef) Srcs() []*Src     { return nil }

func (p *Phi) Srcs() []*Src {
	out := make([]*Src, len(p.Src))
	for i := range p.Src {
		out[i] = &p.Src[i].Src
	}
	return out
}

func (d *Deref) Srcs() []*Src {
	switch d.Kind {
	case DerefStruct:
		return []*Src{&d.Parent}
	case DerefArray:
		return []*Src{&d.Parent, &d.Index}
	default:
		return nil
	}
}

func (t *Tex) Srcs() []*Src {
	out := make([]*Src, len(t.Src))
	for i := range t.Src {
		out[i] = &t.Src[i].Src
	}
	return out
}

func (in *Intrinsic) Srcs() []*Src {
	out := make([]*Src, len(in.Src))
	for i := range in.Src {
		out[i] = &in.Src[i]
	}
	return out
}

// TexOp is the texture operation.
type TexOp uint8

const (
	TexSample TexOp = iota // tex
	TexBias                // txb
	TexLod                 // txl
	TexFetch               // txf
	TexSize                // txs
	TexGather              // tg4
)

var texOpNames = [...]string{"tex", "txb", "txl", "txf", "txs", "tg4"}

func (op TexOp) String() string {
	if int(op) < len(texOpNames) {
		return texOpNames[op]
	}
	return "tex?"
}

// ParseTexOp maps a name back to a TexOp.
func ParseTexOp(name string) (TexOp, bool) {
	for i, n := range texOpNames {
		if n == name {
			return TexOp(i), true
		}
	}
	return 0, false
}

// TexSrcKind tags a texture operand.
type TexSrcKind uint8

const (
	TexSrcCoord TexSrcKind = iota
	TexSrcBias
	TexSrcLod
	TexSrcComparator
	TexSrcOffset
	TexSrcTextureDeref
	TexSrcSamplerDeref
)

var texSrcNames = [...]string{"coord", "bias", "lod", "comparator", "offset", "texture_deref", "sampler_deref"}

func (k TexSrcKind) String() string {
	if int(k) < len(texSrcNames) {
		return texSrcNames[k]
	}
	return "src?"
}

// ParseTexSrcKind maps a name back to a TexSrcKind.
func ParseTexSrcKind(name string) (TexSrcKind, bool) {
	for i, n := range texSrcNames {
		if n == name {
			return TexSrcKind(i), true
		}
	}
	return 0, false
}
