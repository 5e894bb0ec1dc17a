package irtext

import (
	"strings"
	"testing"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/nir/ir"
)

func TestRoundTrip(t *testing.T) {
	tests := []struct {
		name   string
		source string
	}{
		{"sample", sampleProgram},
		{"loop", `shader compute

func @loop {
b0:
  %0 = load_const 32x1 (0x0)
  jmp b1
b1:
  %1 = phi 32x1 b0:%0, b2:%3
  %2 = flt 1x1 %1, %0
  br %2, b2, b3
b2:
  %3 = fadd 32x1 %1, %0
  jmp b1
b3:
  ret
}
`},
		{"derefs and masks", `shader vertex
var ssbo @buf
var image @dst r32float read_write

func @main {
b0:
  %0 = deref_var 32x1 @buf
  %1 = load_const 32x1 (0x2)
  %2 = deref_array 32x1 %0, %1
  %3 = deref_struct 32x1 %2, 1
  %4 = @load_deref 32x3 %3
  %5 = undef 32x4
  @store_deref %3, %4 wrmask=0
  %6 = deref_var 32x1 @dst
  @image_store %6, %5, %1, %5 format=r32float
  %7 = @load_front_face 1x1
  @discard_if %7
  @barrier
  %8 = bcsel 32x3 %7.xxx, |%4.zyx|, %4
  ret
}
`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := mustParse(t, tt.source)
			got := String(p)
			if got != tt.source {
				t.Errorf("round trip mismatch\n--- got ---\n%s\n--- want ---\n%s", got, tt.source)
			}
		})
	}
}

func TestCanonicalForm(t *testing.T) {
	source := `shader compute   // header
func @f {
entry:
  %10 = load_const 32x2 (1, 2)
  %3 = mov 32x1 %10.y
  %4 = fneg 32x2 %10.xy
  %5 = fadd 32x2 %10.xyyy, %4
  jmp exit
exit:
  ret
}
`
	want := `shader compute

func @f {
b0:
  %0 = load_const 32x2 (0x1, 0x2)
  %1 = mov 32x1 %0.y
  %2 = fneg 32x2 %0
  %3 = fadd 32x2 %0, %2
  jmp b1
b1:
  ret
}
`
	if got := String(mustParse(t, source)); got != want {
		t.Errorf("canonical form mismatch\n--- got ---\n%s\n--- want ---\n%s", got, want)
	}
}

func TestWriterSwizzles(t *testing.T) {
	tests := []struct {
		name    string
		swizzle ir.Swizzle
		negate  bool
		abs     bool
		dest    uint8
		want    string
	}{
		{"identity", ir.IdentitySwizzle, false, false, 4, "%0"},
		{"narrow read", ir.IdentitySwizzle, false, false, 2, "%0.xy"},
		{"reversed", ir.Swizzle{3, 2, 1, 0}, false, false, 4, "%0.wzyx"},
		{"negate abs", ir.Swizzle{1, 1, 1, 1}, true, true, 1, "-|%0.y|"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := ir.NewProgram(gputypes.ShaderStageFragment)
			impl := p.AddFunction("main").NewImpl()
			b := ir.NewBuilder(impl)

			v := b.Undef(4, 32)
			alu := &ir.ALU{
				Op:        ir.OpFNeg,
				Dest:      ir.Def{NumComponents: tt.dest, BitSize: 32},
				WriteMask: ir.FullMask(int(tt.dest)),
				Src: []ir.ALUSrc{{
					Src:     ir.Src{Def: v},
					Swizzle: tt.swizzle,
					Negate:  tt.negate,
					Abs:     tt.abs,
				}},
			}
			b.Insert(alu)

			var w Writer
			w.number(impl)
			w.writeALUSrc(impl, alu, 0)
			if got := w.out.String(); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestPrintImpl(t *testing.T) {
	p := mustParse(t, sampleProgram)

	var sb strings.Builder
	if err := PrintImpl(&sb, p.Functions[1].Impl); err != nil {
		t.Fatalf("PrintImpl: %v", err)
	}
	out := sb.String()
	if !strings.HasPrefix(out, "func @main {\nb0:\n") || !strings.HasSuffix(out, "  ret\n}\n") {
		t.Errorf("unexpected output:\n%s", out)
	}
	if strings.Contains(out, "shader") {
		t.Error("PrintImpl should not print the program header")
	}
}

func TestPrint(t *testing.T) {
	p := mustParse(t, sampleProgram)

	var sb strings.Builder
	if err := Print(&sb, p); err != nil {
		t.Fatalf("Print: %v", err)
	}
	if sb.String() != sampleProgram {
		t.Errorf("Print output differs from String")
	}
}
