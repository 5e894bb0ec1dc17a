package ir

import (
	"strings"
	"testing"

	"github.com/gogpu/gputypes"
)

func expectValid(t *testing.T, p *Program) {
	t.Helper()
	errors, err := Validate(p)
	if err != nil {
		t.Fatalf("Validate returned error: %v", err)
	}
	if len(errors) > 0 {
		t.Errorf("Valid program has validation errors:")
		for _, e := range errors {
			t.Errorf("  - %s", e.Error())
		}
	}
}

func expectInvalid(t *testing.T, p *Program, substr string) {
	t.Helper()
	errors, err := Validate(p)
	if err != nil {
		t.Fatalf("Validate returned error: %v", err)
	}
	for _, e := range errors {
		if strings.Contains(e.Error(), substr) {
			return
		}
	}
	t.Errorf("expected an error containing %q, got %v", substr, errors)
}

func TestValidate_ValidProgram(t *testing.T) {
	p, impl, b := newTestImpl(t)
	then, join := impl.AddBlock(), impl.AddBlock()

	x := b.LoadConst(32, 0x3f800000, 0, 0, 0x3f800000)
	s := b.ImmFloat(32, 2)
	c := b.ALU(OpFLt, s, s)
	impl.Entry().Branch(c, then, join)
	y := b.At(BlockEnd(then)).ALU(OpFNeg, x)
	then.Jump(join)
	phi := b.At(BlockEnd(join)).Insert(&Phi{
		Dest: Def{NumComponents: 4, BitSize: 32},
		Src:  []PhiSrc{{Src: Src{Def: x}, Pred: impl.Entry()}, {Src: Src{Def: y}, Pred: then}},
	})
	idx := b.Imm(32, 0)
	b.Intrinsic(IntrinsicStoreOutput, Def{}, 4, phi, idx)
	p.AddFunction("external")

	expectValid(t, p)
}

func TestValidate_NilProgram(t *testing.T) {
	_, err := Validate(nil)
	if err == nil {
		t.Error("Expected error for nil program, got nil")
	}
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name  string
		build func(p *Program, impl *Impl, b *Builder)
		want  string
	}{
		{
			name: "dangling source",
			build: func(_ *Program, impl *Impl, b *Builder) {
				x := b.ImmFloat(32, 1)
				neg := b.ALU(OpFNeg, x)
				impl.Instr(neg).Kind.(*ALU).Src[0].Def = 99
			},
			want: "not a live def",
		},
		{
			name: "source of removed instruction",
			build: func(_ *Program, impl *Impl, b *Builder) {
				x := b.ImmFloat(32, 1)
				b.ALU(OpFNeg, x)
				impl.Remove(x)
			},
			want: "not a live def",
		},
		{
			name: "swizzle out of range",
			build: func(_ *Program, _ *Impl, b *Builder) {
				x := b.LoadConst(32, 1, 2)
				b.Mov(ALUSrc{Src: Src{Def: x}, Swizzle: Swizzle{3}}, 1)
			},
			want: "reads lane w of a 2-component def",
		},
		{
			name: "bad bit size",
			build: func(_ *Program, _ *Impl, b *Builder) {
				b.Undef(1, 7)
			},
			want: "bit size 7",
		},
		{
			name: "write mask wider than dest",
			build: func(_ *Program, impl *Impl, b *Builder) {
				x := b.ImmFloat(32, 1)
				neg := b.ALU(OpFNeg, x)
				impl.Instr(neg).Kind.(*ALU).WriteMask = 0b11
			},
			want: "write mask",
		},
		{
			name: "use before def",
			build: func(_ *Program, impl *Impl, b *Builder) {
				x := b.ImmFloat(32, 1)
				neg := b.ALU(OpFNeg, x)
				b.At(Before(impl, x)).ALU(OpFAbs, neg)
			},
			want: "does not dominate",
		},
		{
			name: "phi source count",
			build: func(_ *Program, impl *Impl, b *Builder) {
				next := impl.AddBlock()
				impl.Entry().Jump(next)
				x := b.ImmFloat(32, 1)
				b.At(BlockEnd(next)).Insert(&Phi{
					Dest: Def{NumComponents: 1, BitSize: 32},
					Src:  []PhiSrc{{Src: Src{Def: x}, Pred: impl.Entry()}, {Src: Src{Def: x}, Pred: next}},
				})
			},
			want: "phi has 2 sources for 1 predecessors",
		},
		{
			name: "intrinsic source width",
			build: func(_ *Program, _ *Impl, b *Builder) {
				v := b.LoadConst(32, 1, 2)
				idx := b.Imm(32, 0)
				b.Intrinsic(IntrinsicStoreOutput, Def{}, 4, v, idx)
			},
			want: "source 0 has 2 components, want 4",
		},
		{
			name: "store to read-only image",
			build: func(p *Program, _ *Impl, b *Builder) {
				img := p.AddVariable("img", VarImage)
				img.Format = gputypes.TextureFormatRGBA8Unorm
				img.Access = gputypes.StorageTextureAccessReadOnly
				d := b.Insert(&Deref{Kind: DerefVar, Dest: Def{NumComponents: 1, BitSize: 32}, Var: img})
				coord := b.LoadConst(32, 0, 0, 0, 0)
				sample := b.Imm(32, 0)
				data := b.LoadConst(32, 0, 0, 0, 0)
				b.Intrinsic(IntrinsicImageDerefStore, Def{}, 4, d, coord, sample, data)
			},
			want: `read-only image "img"`,
		},
		{
			name: "branch without condition",
			build: func(_ *Program, impl *Impl, _ *Builder) {
				a, c := impl.AddBlock(), impl.AddBlock()
				impl.Entry().Succs = []*Block{a, c}
				a.Preds = []*Block{impl.Entry()}
				c.Preds = []*Block{impl.Entry()}
			},
			want: "exactly two successors",
		},
		{
			name: "duplicate function",
			build: func(p *Program, _ *Impl, _ *Builder) {
				p.AddFunction("main")
			},
			want: `duplicate function name "main"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, impl, b := newTestImpl(t)
			tt.build(p, impl, b)
			expectInvalid(t, p, tt.want)
		})
	}
}

func TestValidationError_Error(t *testing.T) {
	h := InstrHandle(3)
	tests := []struct {
		err  ValidationError
		want string
	}{
		{ValidationError{Message: "m", Block: -1}, "m"},
		{ValidationError{Message: "m", Function: "f", Block: -1}, "in function f: m"},
		{ValidationError{Message: "m", Function: "f", Block: 2}, "in function f, block b2: m"},
		{ValidationError{Message: "m", Function: "f", Block: -1, Instr: &h}, "in function f, instruction %3: m"},
	}
	for _, tt := range tests {
		if got := tt.err.Error(); got != tt.want {
			t.Errorf("Error() = %q, want %q", got, tt.want)
		}
	}
}
