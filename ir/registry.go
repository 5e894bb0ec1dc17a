package ir

// Op is an ALU opcode.
type Op uint8

// BaseType is the value class an ALU operand or result is interpreted as.
type BaseType uint8

const (
	TypeAny BaseType = iota // bit pattern, moved without interpretation
	TypeFloat
	TypeInt
	TypeUint
	TypeBool
)

// ALUType is a base type with an optional fixed bit size (0 = unsized,
// taking the bit size of the operands).
type ALUType struct {
	Base BaseType
	Size uint8
}

var (
	tAny     = ALUType{Base: TypeAny}
	tFloat   = ALUType{Base: TypeFloat}
	tInt     = ALUType{Base: TypeInt}
	tUint    = ALUType{Base: TypeUint}
	tBool1   = ALUType{Base: TypeBool, Size: 1}
	tFloat32 = ALUType{Base: TypeFloat, Size: 32}
	tInt32   = ALUType{Base: TypeInt, Size: 32}
	tUint32  = ALUType{Base: TypeUint, Size: 32}
)

// OpInfo describes an opcode.
type OpInfo struct {
	Name      string
	NumInputs int

	// OutputSize is the fixed result width, or 0 when the op works
	// per component and the result is as wide as the destination.
	OutputSize uint8
	// InputSizes is the fixed width of each input, 0 for per-component.
	InputSizes [MaxComponents]uint8

	OutputType ALUType
	InputTypes [MaxComponents]ALUType
}

// PerComponent reports whether each result lane depends only on the
// matching lanes of the inputs.
func (info *OpInfo) PerComponent() bool {
	return info.OutputSize == 0
}

const (
	OpMov Op = iota

	// Float arithmetic
	OpFNeg
	OpFAbs
	OpFSat
	OpFAdd
	OpFSub
	OpFMul
	OpFMin
	OpFMax
	OpFFma
	OpFRcp
	OpFSqrt

	// Integer arithmetic and bitwise logic
	OpINeg
	OpIAdd
	OpISub
	OpIMul
	OpIAnd
	OpIOr
	OpIXor
	OpINot
	OpIShl
	OpIShr
	OpUShr

	// Comparisons producing 1-bit booleans
	OpFLt
	OpFGe
	OpFEq
	OpFNeu
	OpILt
	OpIGe
	OpIEq
	OpINe
	OpULt
	OpUGe

	// Comparisons producing 1.0 / 0.0
	OpSLt
	OpSGe
	OpSEq
	OpSNe

	// Conversions
	OpB2F32
	OpB2I32
	OpF2B1
	OpI2B1
	OpF2I32
	OpF2U32
	OpI2F32
	OpU2F32

	// Selects
	OpBCsel
	OpFCsel

	// Vector reductions
	OpFDot2
	OpFDot3
	OpFDot4
	OpBAllFEqual2
	OpBAllFEqual3
	OpBAllFEqual4
	OpBAnyFNEqual2
	OpBAnyFNEqual3
	OpBAnyFNEqual4
	OpBAllIEqual2
	OpBAllIEqual3
	OpBAllIEqual4
	OpBAnyINEqual2
	OpBAnyINEqual3
	OpBAnyINEqual4
	OpFAllEqual2
	OpFAllEqual3
	OpFAllEqual4
	OpFAnyNEqual2
	OpFAnyNEqual3
	OpFAnyNEqual4

	// Vector construction
	OpVec2
	OpVec3
	OpVec4

	numOps
)

func unop(name string, out, in ALUType) OpInfo {
	return OpInfo{Name: name, NumInputs: 1, OutputType: out, InputTypes: [MaxComponents]ALUType{in}}
}

func binop(name string, out, in ALUType) OpInfo {
	return OpInfo{Name: name, NumInputs: 2, OutputType: out, InputTypes: [MaxComponents]ALUType{in, in}}
}

func triop(name string, out ALUType, in0, in1, in2 ALUType) OpInfo {
	return OpInfo{Name: name, NumInputs: 3, OutputType: out, InputTypes: [MaxComponents]ALUType{in0, in1, in2}}
}

// reduction builds an op that folds two n-wide vectors into one scalar.
func reduction(name string, n uint8, out, in ALUType) OpInfo {
	return OpInfo{
		Name:       name,
		NumInputs:  2,
		OutputSize: 1,
		InputSizes: [MaxComponents]uint8{n, n},
		OutputType: out,
		InputTypes: [MaxComponents]ALUType{in, in},
	}
}

func vec(name string, n int) OpInfo {
	info := OpInfo{Name: name, NumInputs: n, OutputSize: uint8(n), OutputType: tAny}
	for i := 0; i < n; i++ {
		info.InputSizes[i] = 1
		info.InputTypes[i] = tAny
	}
	return info
}

var opInfos = [numOps]OpInfo{
	OpMov: unop("mov", tAny, tAny),

	OpFNeg:  unop("fneg", tFloat, tFloat),
	OpFAbs:  unop("fabs", tFloat, tFloat),
	OpFSat:  unop("fsat", tFloat, tFloat),
	OpFAdd:  binop("fadd", tFloat, tFloat),
	OpFSub:  binop("fsub", tFloat, tFloat),
	OpFMul:  binop("fmul", tFloat, tFloat),
	OpFMin:  binop("fmin", tFloat, tFloat),
	OpFMax:  binop("fmax", tFloat, tFloat),
	OpFFma:  triop("ffma", tFloat, tFloat, tFloat, tFloat),
	OpFRcp:  unop("frcp", tFloat, tFloat),
	OpFSqrt: unop("fsqrt", tFloat, tFloat),

	OpINeg: unop("ineg", tInt, tInt),
	OpIAdd: binop("iadd", tInt, tInt),
	OpISub: binop("isub", tInt, tInt),
	OpIMul: binop("imul", tInt, tInt),
	OpIAnd: binop("iand", tUint, tUint),
	OpIOr:  binop("ior", tUint, tUint),
	OpIXor: binop("ixor", tUint, tUint),
	OpINot: unop("inot", tInt, tInt),
	OpIShl: binop("ishl", tInt, tInt),
	OpIShr: binop("ishr", tInt, tInt),
	OpUShr: binop("ushr", tUint, tUint),

	OpFLt:  binop("flt", tBool1, tFloat),
	OpFGe:  binop("fge", tBool1, tFloat),
	OpFEq:  binop("feq", tBool1, tFloat),
	OpFNeu: binop("fneu", tBool1, tFloat),
	OpILt:  binop("ilt", tBool1, tInt),
	OpIGe:  binop("ige", tBool1, tInt),
	OpIEq:  binop("ieq", tBool1, tInt),
	OpINe:  binop("ine", tBool1, tInt),
	OpULt:  binop("ult", tBool1, tUint),
	OpUGe:  binop("uge", tBool1, tUint),

	OpSLt: binop("slt", tFloat, tFloat),
	OpSGe: binop("sge", tFloat, tFloat),
	OpSEq: binop("seq", tFloat, tFloat),
	OpSNe: binop("sne", tFloat, tFloat),

	OpB2F32: unop("b2f32", tFloat32, tBool1),
	OpB2I32: unop("b2i32", tInt32, tBool1),
	OpF2B1:  unop("f2b1", tBool1, tFloat),
	OpI2B1:  unop("i2b1", tBool1, tInt),
	OpF2I32: unop("f2i32", tInt32, tFloat),
	OpF2U32: unop("f2u32", tUint32, tFloat),
	OpI2F32: unop("i2f32", tFloat32, tInt),
	OpU2F32: unop("u2f32", tFloat32, tUint),

	OpBCsel: triop("bcsel", tAny, tBool1, tAny, tAny),
	OpFCsel: triop("fcsel", tFloat, tFloat, tFloat, tFloat),

	OpFDot2:        reduction("fdot2", 2, tFloat, tFloat),
	OpFDot3:        reduction("fdot3", 3, tFloat, tFloat),
	OpFDot4:        reduction("fdot4", 4, tFloat, tFloat),
	OpBAllFEqual2:  reduction("ball_fequal2", 2, tBool1, tFloat),
	OpBAllFEqual3:  reduction("ball_fequal3", 3, tBool1, tFloat),
	OpBAllFEqual4:  reduction("ball_fequal4", 4, tBool1, tFloat),
	OpBAnyFNEqual2: reduction("bany_fnequal2", 2, tBool1, tFloat),
	OpBAnyFNEqual3: reduction("bany_fnequal3", 3, tBool1, tFloat),
	OpBAnyFNEqual4: reduction("bany_fnequal4", 4, tBool1, tFloat),
	OpBAllIEqual2:  reduction("ball_iequal2", 2, tBool1, tInt),
	OpBAllIEqual3:  reduction("ball_iequal3", 3, tBool1, tInt),
	OpBAllIEqual4:  reduction("ball_iequal4", 4, tBool1, tInt),
	OpBAnyINEqual2: reduction("bany_inequal2", 2, tBool1, tInt),
	OpBAnyINEqual3: reduction("bany_inequal3", 3, tBool1, tInt),
	OpBAnyINEqual4: reduction("bany_inequal4", 4, tBool1, tInt),
	OpFAllEqual2:   reduction("fall_equal2", 2, tFloat, tFloat),
	OpFAllEqual3:   reduction("fall_equal3", 3, tFloat, tFloat),
	OpFAllEqual4:   reduction("fall_equal4", 4, tFloat, tFloat),
	OpFAnyNEqual2:  reduction("fany_nequal2", 2, tFloat, tFloat),
	OpFAnyNEqual3:  reduction("fany_nequal3", 3, tFloat, tFloat),
	OpFAnyNEqual4:  reduction("fany_nequal4", 4, tFloat, tFloat),

	OpVec2: vec("vec2", 2),
	OpVec3: vec("vec3", 3),
	OpVec4: vec("vec4", 4),
}

var opsByName = func() map[string]Op {
	m := make(map[string]Op, numOps)
	for op := Op(0); op < numOps; op++ {
		m[opInfos[op].Name] = op
	}
	return m
}()

// Info returns the registry entry for op.
func (op Op) Info() *OpInfo {
	if op >= numOps {
		panic("ir: opcode out of range")
	}
	return &opInfos[op]
}

func (op Op) String() string {
	if op >= numOps {
		return "op?"
	}
	return opInfos[op].Name
}

// LookupOp finds an opcode by name.
func LookupOp(name string) (Op, bool) {
	op, ok := opsByName[name]
	return op, ok
}

// NumOps returns the size of the opcode registry.
func NumOps() int {
	return int(numOps)
}

// VecOp returns the vector construction op for n components.
// n == 1 yields a mov.
func VecOp(n int) Op {
	switch n {
	case 1:
		return OpMov
	case 2:
		return OpVec2
	case 3:
		return OpVec3
	case 4:
		return OpVec4
	}
	panic("ir: no vector construction op for width")
}

// IsVec reports whether op builds a vector from scalars.
func (op Op) IsVec() bool {
	return op == OpVec2 || op == OpVec3 || op == OpVec4
}

// IntrinsicOp names an intrinsic.
type IntrinsicOp uint8

const (
	IntrinsicLoadUniform IntrinsicOp = iota
	IntrinsicLoadUBO
	IntrinsicLoadInput
	IntrinsicLoadSSBO
	IntrinsicLoadPushConstant
	IntrinsicLoadShared
	IntrinsicLoadDeref
	IntrinsicLoadFrontFace
	IntrinsicStoreOutput
	IntrinsicStoreSSBO
	IntrinsicStoreShared
	IntrinsicStoreDeref
	IntrinsicImageDerefLoad
	IntrinsicImageDerefStore
	IntrinsicImageStore
	IntrinsicDiscardIf
	IntrinsicBarrier

	numIntrinsics
)

// IntrinsicInfo describes an intrinsic.
type IntrinsicInfo struct {
	Name string

	// SrcComponents has one entry per source; 0 means the source is
	// as wide as the instruction's NumComponents.
	SrcComponents []uint8

	HasDest bool
	// DestComponents is the fixed dest width, 0 for NumComponents.
	DestComponents uint8

	// HasBase and HasWriteMask report which indices the intrinsic carries.
	HasBase      bool
	HasWriteMask bool
	HasFormat    bool

	// SideEffects marks intrinsics that must survive dead code removal.
	SideEffects bool
}

// NumSrcs returns the number of sources.
func (info *IntrinsicInfo) NumSrcs() int {
	return len(info.SrcComponents)
}

// IsVariableWidth reports whether the intrinsic is vectorized by NumComponents.
func (info *IntrinsicInfo) IsVariableWidth() bool {
	if info.HasDest && info.DestComponents == 0 {
		return true
	}
	for _, c := range info.SrcComponents {
		if c == 0 {
			return true
		}
	}
	return false
}

func load(name string, srcs ...uint8) IntrinsicInfo {
	return IntrinsicInfo{Name: name, SrcComponents: srcs, HasDest: true, HasBase: true}
}

func store(name string, srcs ...uint8) IntrinsicInfo {
	return IntrinsicInfo{Name: name, SrcComponents: srcs, HasBase: true, HasWriteMask: true, SideEffects: true}
}

var intrinsicInfos = [numIntrinsics]IntrinsicInfo{
	IntrinsicLoadUniform:      load("load_uniform", 1),
	IntrinsicLoadUBO:          load("load_ubo", 1, 1),
	IntrinsicLoadInput:        load("load_input", 1),
	IntrinsicLoadSSBO:         load("load_ssbo", 1, 1),
	IntrinsicLoadPushConstant: load("load_push_constant", 1),
	IntrinsicLoadShared:       load("load_shared", 1),
	IntrinsicLoadDeref:        {Name: "load_deref", SrcComponents: []uint8{1}, HasDest: true},
	IntrinsicLoadFrontFace:    {Name: "load_front_face", HasDest: true, DestComponents: 1},

	IntrinsicStoreOutput: store("store_output", 0, 1),
	IntrinsicStoreSSBO:   store("store_ssbo", 0, 1, 1),
	IntrinsicStoreShared: store("store_shared", 0, 1),
	IntrinsicStoreDeref:  {Name: "store_deref", SrcComponents: []uint8{1, 0}, HasWriteMask: true, SideEffects: true},

	IntrinsicImageDerefLoad:  {Name: "image_deref_load", SrcComponents: []uint8{1, 4, 1}, HasDest: true},
	IntrinsicImageDerefStore: {Name: "image_deref_store", SrcComponents: []uint8{1, 4, 1, 0}, SideEffects: true},
	IntrinsicImageStore:      {Name: "image_store", SrcComponents: []uint8{1, 4, 1, 0}, HasFormat: true, SideEffects: true},

	IntrinsicDiscardIf: {Name: "discard_if", SrcComponents: []uint8{1}, SideEffects: true},
	IntrinsicBarrier:   {Name: "barrier", SideEffects: true},
}

var intrinsicsByName = func() map[string]IntrinsicOp {
	m := make(map[string]IntrinsicOp, numIntrinsics)
	for op := IntrinsicOp(0); op < numIntrinsics; op++ {
		m[intrinsicInfos[op].Name] = op
	}
	return m
}()

// Info returns the registry entry for op.
func (op IntrinsicOp) Info() *IntrinsicInfo {
	if op >= numIntrinsics {
		panic("ir: intrinsic out of range")
	}
	return &intrinsicInfos[op]
}

func (op IntrinsicOp) String() string {
	if op >= numIntrinsics {
		return "intrinsic?"
	}
	return intrinsicInfos[op].Name
}

// LookupIntrinsic finds an intrinsic by name.
func LookupIntrinsic(name string) (IntrinsicOp, bool) {
	op, ok := intrinsicsByName[name]
	return op, ok
}

// NumIntrinsics returns the size of the intrinsic registry.
func NumIntrinsics() int {
	return int(numIntrinsics)
}

// SrcNumComponents returns the width source i must have.
func (in *Intrinsic) SrcNumComponents(i int) int {
	if c := in.Op.Info().SrcComponents[i]; c != 0 {
		return int(c)
	}
	return int(in.NumComponents)
}
