package ir

import (
	"testing"
)

func TestUses_TrackMutations(t *testing.T) {
	_, impl, b := newTestImpl(t)

	x := b.ImmFloat(32, 1)
	y := b.ImmFloat(32, 2)
	sum := b.ALU(OpFAdd, x, x)

	if n := len(impl.Uses(x)); n != 2 {
		t.Fatalf("x has %d uses, want 2", n)
	}

	// Insertion after the index exists.
	neg := b.ALU(OpFNeg, y)
	if !impl.HasUses(y) {
		t.Error("use from inserted instruction not recorded")
	}

	impl.SetSrc(sum, 1, y)
	if n := len(impl.Uses(x)); n != 1 {
		t.Errorf("x has %d uses after SetSrc, want 1", n)
	}
	if n := len(impl.Uses(y)); n != 2 {
		t.Errorf("y has %d uses after SetSrc, want 2", n)
	}

	impl.Remove(neg)
	if n := len(impl.Uses(y)); n != 1 {
		t.Errorf("y has %d uses after Remove, want 1", n)
	}
}

func TestUses_RewriteUsesIncludesCondition(t *testing.T) {
	_, impl, b := newTestImpl(t)
	entry := impl.Entry()
	then, els := impl.AddBlock(), impl.AddBlock()

	x := b.ImmFloat(32, 1)
	y := b.ImmFloat(32, 0)
	b.ALU(OpFNeg, x)
	entry.Branch(x, then, els)

	uses := impl.Uses(x)
	if len(uses) != 2 {
		t.Fatalf("x has %d uses, want 2", len(uses))
	}

	impl.RewriteUses(x, y)
	if impl.HasUses(x) {
		t.Errorf("x still has %d uses", len(impl.Uses(x)))
	}
	if entry.Cond.Def != y {
		t.Errorf("condition = %%%d, want %%%d", entry.Cond.Def, y)
	}
	conds := 0
	for _, u := range impl.Uses(y) {
		if u.IsCondition() {
			conds++
		}
	}
	if conds != 1 {
		t.Errorf("y has %d condition uses, want 1", conds)
	}
}

func TestComponentsRead(t *testing.T) {
	tests := []struct {
		name  string
		build func(b *Builder, v InstrHandle)
		want  WriteMask
	}{
		{
			name:  "no uses",
			build: func(*Builder, InstrHandle) {},
			want:  0,
		},
		{
			name: "swizzled alu",
			build: func(b *Builder, v InstrHandle) {
				b.Mov(ALUSrc{Src: Src{Def: v}, Swizzle: Swizzle{2, 0}}, 2)
			},
			want: 0b0101,
		},
		{
			name: "write mask limits channels",
			build: func(b *Builder, v InstrHandle) {
				h := b.ALU(OpFNeg, v)
				b.Impl.Instr(h).Kind.(*ALU).WriteMask = 0b0001
			},
			want: 0b0001,
		},
		{
			name: "fixed-size input",
			build: func(b *Builder, v InstrHandle) {
				b.ALU(OpFDot2, v, v)
			},
			want: 0b0011,
		},
		{
			name: "non-alu use reads everything",
			build: func(b *Builder, v InstrHandle) {
				b.Mov(ALUSrc{Src: Src{Def: v}}, 1)
				b.Intrinsic(IntrinsicStoreOutput, Def{}, 4, v, b.Imm(32, 0))
			},
			want: 0b1111,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, impl, b := newTestImpl(t)
			v := b.LoadConst(32, 1, 2, 3, 4)
			tt.build(b, v)
			if got := impl.ComponentsRead(v); got != tt.want {
				t.Errorf("ComponentsRead = %04b, want %04b", got, tt.want)
			}
		})
	}
}

func TestComponentsRead_Condition(t *testing.T) {
	_, impl, b := newTestImpl(t)
	c := b.ImmFloat(32, 1)
	impl.Entry().Branch(c, impl.AddBlock(), impl.AddBlock())
	if got := impl.ComponentsRead(c); got != 1 {
		t.Errorf("ComponentsRead = %04b, want 0001", got)
	}
}
