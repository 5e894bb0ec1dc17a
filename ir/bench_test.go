package ir

import (
	"runtime"
	"testing"

	"github.com/gogpu/gputypes"
)

// benchProgram builds a straight-line function of n dependent fadds.
func benchProgram(n int) (*Program, *Impl) {
	p := NewProgram(gputypes.ShaderStageFragment)
	impl := p.AddFunction("main").NewImpl()
	b := NewBuilder(impl)
	acc := b.LoadConst(32, 0x3f800000, 0x40000000, 0x40400000, 0x40800000)
	one := b.ImmFloat(32, 1)
	for i := 0; i < n; i++ {
		acc = b.ALU(OpFAdd, acc, one)
	}
	b.Intrinsic(IntrinsicStoreOutput, Def{}, 4, acc, b.Imm(32, 0))
	return p, impl
}

// ---------------------------------------------------------------------------
// Construction benchmarks
// ---------------------------------------------------------------------------

// BenchmarkBuilder benchmarks emitting a chain of ALU instructions.
func BenchmarkBuilder(b *testing.B) {
	b.ReportAllocs()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		_, impl := benchProgram(256)
		runtime.KeepAlive(impl)
	}
}

// BenchmarkUses benchmarks building use lists from scratch.
func BenchmarkUses(b *testing.B) {
	_, impl := benchProgram(256)
	b.ReportAllocs()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		impl.InvalidateUses()
		runtime.KeepAlive(impl.Uses(0))
	}
}

// ---------------------------------------------------------------------------
// Analysis benchmarks
// ---------------------------------------------------------------------------

// BenchmarkRequireAll benchmarks recomputing every metadata kind.
func BenchmarkRequireAll(b *testing.B) {
	_, impl := benchProgram(256)
	b.ReportAllocs()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		impl.Preserve(MetadataNone)
		impl.Require(MetadataAll)
	}
}

// BenchmarkValidateProgram benchmarks validating a function.
func BenchmarkValidateProgram(b *testing.B) {
	p, _ := benchProgram(256)
	b.ReportAllocs()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		errs, err := Validate(p)
		if err != nil || len(errs) > 0 {
			b.Fatalf("validation failed: %v %v", err, errs)
		}
	}
}
