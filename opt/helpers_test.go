package opt

import (
	"math"
	"testing"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/nir/ir"
)

func newImpl(t *testing.T) (*ir.Program, *ir.Impl, *ir.Builder) {
	t.Helper()
	p := ir.NewProgram(gputypes.ShaderStageFragment)
	impl := p.AddFunction("main").NewImpl()
	return p, impl, ir.NewBuilder(impl)
}

func alu(t *testing.T, impl *ir.Impl, h ir.InstrHandle) *ir.ALU {
	t.Helper()
	a, ok := impl.Instr(h).Kind.(*ir.ALU)
	if !ok {
		t.Fatalf("%%%d is %T, want *ir.ALU", h, impl.Instr(h).Kind)
	}
	return a
}

func src(h ir.InstrHandle, swz ...uint8) ir.ALUSrc {
	s := ir.ALUSrc{Src: ir.Src{Def: h}, Swizzle: ir.IdentitySwizzle}
	copy(s.Swizzle[:], swz)
	return s
}

func f32(v float32) uint64 {
	return uint64(math.Float32bits(v))
}

func storeOutput(b *ir.Builder, value ir.InstrHandle) ir.InstrHandle {
	n := b.Impl.Def(value).NumComponents
	h := b.Intrinsic(ir.IntrinsicStoreOutput, ir.Def{}, n, value, b.Imm(32, 0))
	b.Impl.Instr(h).Kind.(*ir.Intrinsic).WriteMask = ir.FullMask(int(n))
	return h
}

func mustValidate(t *testing.T, p *ir.Program) {
	t.Helper()
	errs, err := ir.Validate(p)
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range errs {
		t.Errorf("validation: %s", e.Error())
	}
}

// eval interprets the straight-line entry block of impl and returns the
// lanes of every def. 1-bit lanes hold 0 or 1; 32-bit lanes hold float
// bits.
func eval(t *testing.T, impl *ir.Impl) map[ir.InstrHandle][ir.MaxComponents]uint64 {
	t.Helper()
	vals := make(map[ir.InstrHandle][ir.MaxComponents]uint64)
	impl.Entry().ForEach(func(h ir.InstrHandle, instr *ir.Instr) {
		switch k := instr.Kind.(type) {
		case *ir.LoadConst:
			vals[h] = k.Values
		case *ir.ALU:
			var out [ir.MaxComponents]uint64
			for c := 0; c < int(k.Dest.NumComponents); c++ {
				lanes := make([]uint64, len(k.Src))
				for i, s := range k.Src {
					lane := s.Swizzle[c]
					if size := k.Op.Info().InputSizes[i]; size == 1 {
						lane = s.Swizzle[0]
					}
					if k.Op.IsVec() {
						lane = s.Swizzle[0]
					}
					lanes[i] = vals[s.Def][lane]
				}
				if k.Op.IsVec() {
					out[c] = lanes[c]
					continue
				}
				out[c] = evalLane(t, k.Op, lanes)
			}
			vals[h] = out
		}
	})
	return vals
}

func evalLane(t *testing.T, op ir.Op, in []uint64) uint64 {
	t.Helper()
	f := func(i int) float32 { return math.Float32frombits(uint32(in[i])) }
	b := func(v bool) uint64 {
		if v {
			return 1
		}
		return 0
	}
	s := func(v bool) uint64 {
		if v {
			return f32(1)
		}
		return f32(0)
	}

	switch op {
	case ir.OpMov:
		return in[0]
	case ir.OpFAdd:
		return f32(f(0) + f(1))
	case ir.OpFMul:
		return f32(f(0) * f(1))
	case ir.OpFMax:
		return f32(max(f(0), f(1)))
	case ir.OpFLt:
		return b(f(0) < f(1))
	case ir.OpFEq:
		return b(f(0) == f(1))
	case ir.OpSLt:
		return s(f(0) < f(1))
	case ir.OpSEq:
		return s(f(0) == f(1))
	case ir.OpSNe:
		return s(f(0) != f(1))
	case ir.OpIAnd:
		return in[0] & in[1]
	case ir.OpIOr:
		return in[0] | in[1]
	case ir.OpIXor:
		return in[0] ^ in[1]
	case ir.OpINot:
		return in[0] ^ 1
	case ir.OpF2B1:
		return b(f(0) != 0)
	case ir.OpB2F32:
		return s(in[0] != 0)
	case ir.OpBCsel:
		if in[0] != 0 {
			return in[1]
		}
		return in[2]
	case ir.OpFCsel:
		if f(0) != 0 {
			return in[1]
		}
		return in[2]
	}
	t.Fatalf("eval: unsupported op %s", op)
	return 0
}
