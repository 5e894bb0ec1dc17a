package ir

import (
	"strings"
	"testing"
)

func TestOpRegistry_NamesRoundTrip(t *testing.T) {
	seen := make(map[string]Op)
	for op := Op(0); int(op) < NumOps(); op++ {
		name := op.String()
		if name == "" {
			t.Fatalf("op %d has no name", op)
		}
		if prev, dup := seen[name]; dup {
			t.Errorf("name %q used by op %d and op %d", name, prev, op)
		}
		seen[name] = op

		got, ok := LookupOp(name)
		if !ok || got != op {
			t.Errorf("LookupOp(%q) = %d, %v; want %d", name, got, ok, op)
		}
	}
}

func TestOpRegistry_InputCounts(t *testing.T) {
	for op := Op(0); int(op) < NumOps(); op++ {
		info := op.Info()
		if info.NumInputs < 1 || info.NumInputs > MaxComponents {
			t.Errorf("%s: %d inputs", op, info.NumInputs)
		}
		for i := info.NumInputs; i < MaxComponents; i++ {
			if info.InputSizes[i] != 0 {
				t.Errorf("%s: unused input %d has size %d", op, i, info.InputSizes[i])
			}
		}
	}
}

func TestOpRegistry_Reductions(t *testing.T) {
	tests := []struct {
		op   Op
		size uint8
		out  BaseType
	}{
		{OpFDot3, 3, TypeFloat},
		{OpBAllFEqual2, 2, TypeBool},
		{OpBAnyFNEqual4, 4, TypeBool},
		{OpBAllIEqual3, 3, TypeBool},
		{OpBAnyINEqual2, 2, TypeBool},
		{OpFAllEqual4, 4, TypeFloat},
		{OpFAnyNEqual3, 3, TypeFloat},
	}

	for _, tt := range tests {
		t.Run(tt.op.String(), func(t *testing.T) {
			info := tt.op.Info()
			if info.PerComponent() {
				t.Error("reduction reported as per-component")
			}
			if info.OutputSize != 1 {
				t.Errorf("OutputSize = %d, want 1", info.OutputSize)
			}
			if info.InputSizes[0] != tt.size || info.InputSizes[1] != tt.size {
				t.Errorf("InputSizes = %v, want %d", info.InputSizes, tt.size)
			}
			if info.OutputType.Base != tt.out {
				t.Errorf("OutputType.Base = %d, want %d", info.OutputType.Base, tt.out)
			}
			if !strings.HasSuffix(tt.op.String(), string('0'+rune(tt.size))) {
				t.Errorf("name %q does not end in its width", tt.op)
			}
		})
	}
}

func TestOpRegistry_VecOp(t *testing.T) {
	want := map[int]Op{1: OpMov, 2: OpVec2, 3: OpVec3, 4: OpVec4}
	for n, op := range want {
		if got := VecOp(n); got != op {
			t.Errorf("VecOp(%d) = %s, want %s", n, got, op)
		}
		if n > 1 {
			if !op.IsVec() {
				t.Errorf("%s.IsVec() = false", op)
			}
			if got := op.Info().NumInputs; got != n {
				t.Errorf("%s has %d inputs, want %d", op, got, n)
			}
		}
	}
	if OpMov.IsVec() {
		t.Error("mov reported as vec")
	}
}

func TestOpRegistry_InfoOutOfRange(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic for out-of-range opcode")
		}
	}()
	Op(NumOps()).Info()
}

func TestIntrinsicRegistry(t *testing.T) {
	tests := []struct {
		name     string
		srcs     int
		hasDest  bool
		variable bool
		effects  bool
	}{
		{"load_uniform", 1, true, true, false},
		{"load_ubo", 2, true, true, false},
		{"load_front_face", 0, true, false, false},
		{"store_output", 2, false, true, true},
		{"store_ssbo", 3, false, true, true},
		{"image_deref_store", 4, false, true, true},
		{"image_store", 4, false, true, true},
		{"discard_if", 1, false, false, true},
		{"barrier", 0, false, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			op, ok := LookupIntrinsic(tt.name)
			if !ok {
				t.Fatalf("LookupIntrinsic(%q) failed", tt.name)
			}
			if op.String() != tt.name {
				t.Errorf("String() = %q", op.String())
			}
			info := op.Info()
			if info.NumSrcs() != tt.srcs {
				t.Errorf("NumSrcs() = %d, want %d", info.NumSrcs(), tt.srcs)
			}
			if info.HasDest != tt.hasDest {
				t.Errorf("HasDest = %v, want %v", info.HasDest, tt.hasDest)
			}
			if info.IsVariableWidth() != tt.variable {
				t.Errorf("IsVariableWidth() = %v, want %v", info.IsVariableWidth(), tt.variable)
			}
			if info.SideEffects != tt.effects {
				t.Errorf("SideEffects = %v, want %v", info.SideEffects, tt.effects)
			}
		})
	}
}

func TestIntrinsic_SrcNumComponents(t *testing.T) {
	in := &Intrinsic{Op: IntrinsicImageDerefStore, NumComponents: 3}
	want := []int{1, 4, 1, 3}
	for i, w := range want {
		if got := in.SrcNumComponents(i); got != w {
			t.Errorf("SrcNumComponents(%d) = %d, want %d", i, got, w)
		}
	}
}

func TestIntrinsic_DestDef(t *testing.T) {
	load := &Intrinsic{Op: IntrinsicLoadUniform, Dest: Def{NumComponents: 4, BitSize: 32}}
	if load.DestDef() == nil {
		t.Error("load_uniform has no dest")
	}
	store := &Intrinsic{Op: IntrinsicStoreOutput}
	if store.DestDef() != nil {
		t.Error("store_output has a dest")
	}
}
