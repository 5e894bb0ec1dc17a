package ir

import (
	"math"
	"testing"

	"github.com/gogpu/gputypes"
)

func newTestImpl(t *testing.T) (*Program, *Impl, *Builder) {
	t.Helper()
	p := NewProgram(gputypes.ShaderStageFragment)
	impl := p.AddFunction("main").NewImpl()
	return p, impl, NewBuilder(impl)
}

func aluOf(t *testing.T, impl *Impl, h InstrHandle) *ALU {
	t.Helper()
	alu, ok := impl.Instr(h).Kind.(*ALU)
	if !ok {
		t.Fatalf("%%%d is %T, want *ALU", h, impl.Instr(h).Kind)
	}
	return alu
}

func TestBuilder_InsertsInOrder(t *testing.T) {
	_, impl, b := newTestImpl(t)

	x := b.ImmFloat(32, 1)
	y := b.ImmFloat(32, 2)
	sum := b.ALU(OpFAdd, x, y)

	got := impl.Entry().Instrs()
	want := []InstrHandle{x, y, sum}
	if len(got) != len(want) {
		t.Fatalf("block has %d instructions, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("instruction %d = %%%d, want %%%d", i, got[i], want[i])
		}
	}
}

func TestBuilder_CursorBefore(t *testing.T) {
	_, impl, b := newTestImpl(t)

	x := b.ImmFloat(32, 1)
	y := b.ImmFloat(32, 2)
	b.At(Before(impl, y))
	z := b.ImmFloat(32, 3)

	got := impl.Entry().Instrs()
	if got[0] != x || got[1] != z || got[2] != y {
		t.Errorf("order = %v, want [%d %d %d]", got, x, z, y)
	}
}

func TestBuilder_BlockStartSkipsPhis(t *testing.T) {
	_, impl, b := newTestImpl(t)
	entry := impl.Entry()
	loop := impl.AddBlock()
	entry.Jump(loop)

	start := b.ImmFloat(32, 0)
	b.At(BlockEnd(loop))
	phi := b.Insert(&Phi{Dest: Def{NumComponents: 1, BitSize: 32}, Src: []PhiSrc{{Src: Src{Def: start}, Pred: entry}}})
	b.At(BlockStart(loop))
	c := b.ImmFloat(32, 1)

	got := loop.Instrs()
	if got[0] != phi || got[1] != c {
		t.Errorf("order = %v, want phi first", got)
	}
}

func TestBuilder_ALUWidths(t *testing.T) {
	_, impl, b := newTestImpl(t)

	v := b.LoadConst(32, 0, 0, 0, 0)
	s := b.ImmFloat(32, 2)
	mul := aluOf(t, impl, b.ALU(OpFMul, v, s))

	if mul.Dest.NumComponents != 4 || mul.Dest.BitSize != 32 {
		t.Errorf("dest = %+v, want 32x4", mul.Dest)
	}
	if mul.WriteMask != FullMask(4) {
		t.Errorf("write mask = %s", mul.WriteMask)
	}
	if mul.Src[1].Swizzle != (Swizzle{0, 0, 0, 0}) {
		t.Errorf("scalar operand swizzle = %v, want broadcast", mul.Src[1].Swizzle)
	}

	cmp := aluOf(t, impl, b.ALU(OpFLt, s, s))
	if !cmp.Dest.IsBool() {
		t.Errorf("flt dest bit size = %d, want 1", cmp.Dest.BitSize)
	}

	dot := aluOf(t, impl, b.ALU(OpFDot4, v, v))
	if dot.Dest.NumComponents != 1 {
		t.Errorf("fdot4 dest has %d components", dot.Dest.NumComponents)
	}
}

func TestBuilder_Channels(t *testing.T) {
	_, impl, b := newTestImpl(t)

	v := b.LoadConst(32, 1, 2, 3, 4)
	mov := aluOf(t, impl, b.Channels(v, WriteMask(0b1010)))

	if mov.Op != OpMov {
		t.Fatalf("op = %s", mov.Op)
	}
	if mov.Dest.NumComponents != 2 {
		t.Errorf("dest has %d components, want 2", mov.Dest.NumComponents)
	}
	if mov.Src[0].Swizzle[0] != 1 || mov.Src[0].Swizzle[1] != 3 {
		t.Errorf("swizzle = %v, want yw", mov.Src[0].Swizzle)
	}
}

func TestBuilder_ForALUSrc(t *testing.T) {
	_, impl, b := newTestImpl(t)

	v := b.LoadConst(32, 1, 2)
	plain := aluOf(t, impl, b.ALU(OpFNeg, v))
	if got := b.ForALUSrc(plain, 0); got != v {
		t.Errorf("identity operand produced %%%d, want %%%d", got, v)
	}

	swapped := aluOf(t, impl, b.ALUWith(OpFNeg, []ALUSrc{{Src: Src{Def: v}, Swizzle: Swizzle{1, 0}}}, 2))
	if got := b.ForALUSrc(swapped, 0); got == v {
		t.Error("swizzled operand reused the source def")
	}

	negated := aluOf(t, impl, b.ALUWith(OpFAbs, []ALUSrc{{Src: Src{Def: v}, Swizzle: IdentitySwizzle, Negate: true}}, 2))
	h := b.ForALUSrc(negated, 0)
	mov := aluOf(t, impl, h)
	if mov.Op != OpMov || !mov.Src[0].Negate {
		t.Errorf("negated operand = %s negate=%v", mov.Op, mov.Src[0].Negate)
	}
}

func TestBuilder_Vec(t *testing.T) {
	_, impl, b := newTestImpl(t)

	x := b.ImmFloat(32, 1)
	y := b.ImmFloat(32, 2)
	vec := aluOf(t, impl, b.Vec([]ALUSrc{{Src: Src{Def: x}}, {Src: Src{Def: y}}}))
	if vec.Op != OpVec2 || vec.Dest.NumComponents != 2 {
		t.Errorf("vec = %s %d", vec.Op, vec.Dest.NumComponents)
	}

	one := aluOf(t, impl, b.Vec([]ALUSrc{{Src: Src{Def: x}}}))
	if one.Op != OpMov {
		t.Errorf("single-source vec = %s, want mov", one.Op)
	}
}

func TestFloatBits(t *testing.T) {
	tests := []struct {
		size uint8
		v    float64
		want uint64
	}{
		{32, 1, 0x3f800000},
		{32, 0, 0},
		{32, -2, 0xc0000000},
		{64, 1, math.Float64bits(1)},
		{16, 1, 0x3c00},
		{16, -2, 0xc000},
		{16, 0.5, 0x3800},
	}

	for _, tt := range tests {
		if got := FloatBits(tt.size, tt.v); got != tt.want {
			t.Errorf("FloatBits(%d, %v) = %#x, want %#x", tt.size, tt.v, got, tt.want)
		}
	}
}

func TestRemove_SkipsDuringIteration(t *testing.T) {
	_, impl, b := newTestImpl(t)

	x := b.ImmFloat(32, 1)
	y := b.ImmFloat(32, 2)
	z := b.ImmFloat(32, 3)

	var visited []InstrHandle
	impl.Entry().ForEach(func(h InstrHandle, _ *Instr) {
		visited = append(visited, h)
		if h == x {
			impl.Remove(y)
		}
	})

	if len(visited) != 2 || visited[0] != x || visited[1] != z {
		t.Errorf("visited %v, want [%d %d]", visited, x, z)
	}
	if !impl.Instr(y).Removed() {
		t.Error("removed instruction not marked")
	}
	if impl.Entry().Len() != 2 {
		t.Errorf("block has %d instructions, want 2", impl.Entry().Len())
	}
}
