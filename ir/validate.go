package ir

import (
	"fmt"

	"github.com/gogpu/gputypes"
)

// ValidationError represents a validation error.
type ValidationError struct {
	Message string
	// Optional context
	Function string
	Block    int
	Instr    *InstrHandle
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	if e.Function != "" {
		if e.Instr != nil {
			return fmt.Sprintf("in function %s, instruction %%%d: %s", e.Function, *e.Instr, e.Message)
		}
		if e.Block >= 0 {
			return fmt.Sprintf("in function %s, block b%d: %s", e.Function, e.Block, e.Message)
		}
		return fmt.Sprintf("in function %s: %s", e.Function, e.Message)
	}
	return e.Message
}

// Validator validates programs.
type Validator struct {
	program *Program
	errors  []ValidationError
	context validationContext
}

// validationContext holds current validation context.
type validationContext struct {
	impl         *Impl
	functionName string
	variables    map[*Variable]bool
}

// Validate checks the program for structural correctness.
// Returns validation errors if any, or nil if the program is valid.
func Validate(program *Program) ([]ValidationError, error) {
	if program == nil {
		return nil, fmt.Errorf("program is nil")
	}

	v := &Validator{
		program: program,
		errors:  make([]ValidationError, 0),
	}

	v.ValidateProgram()

	if len(v.errors) > 0 {
		return v.errors, nil
	}
	return nil, nil
}

// ValidateProgram validates the complete program.
func (v *Validator) ValidateProgram() {
	variables := make(map[*Variable]bool, len(v.program.Variables))
	varNames := make(map[string]bool)
	for _, vr := range v.program.Variables {
		if varNames[vr.Name] {
			v.addError(fmt.Sprintf("duplicate variable name %q", vr.Name))
		}
		varNames[vr.Name] = true
		variables[vr] = true
		if vr.Mode != VarImage && vr.Format != gputypes.TextureFormatUndefined {
			v.addError(fmt.Sprintf("variable %q: format on non-image variable", vr.Name))
		}
	}

	names := make(map[string]bool)
	for _, fn := range v.program.Functions {
		if names[fn.Name] {
			v.addError(fmt.Sprintf("duplicate function name %q", fn.Name))
		}
		names[fn.Name] = true

		if fn.Impl == nil {
			continue
		}
		v.context = validationContext{
			impl:         fn.Impl,
			functionName: fn.Name,
			variables:    variables,
		}
		v.validateImpl(fn.Impl)
	}
}

// validateImpl validates a single implementation.
func (v *Validator) validateImpl(impl *Impl) {
	if len(impl.Blocks) == 0 {
		v.addErrorInFunction("implementation has no blocks")
		return
	}
	impl.Require(MetadataBlockIndex)

	before := len(v.errors)
	for _, b := range impl.Blocks {
		v.validateEdges(b)
	}
	if len(v.errors) > before {
		// Dominance over a broken CFG is meaningless.
		return
	}
	impl.Require(MetadataDominance)

	for _, b := range impl.Blocks {
		phis := true
		for _, h := range b.instrs {
			if int(h) >= len(impl.instrs) {
				v.addErrorInBlock(b, fmt.Sprintf("handle %d is out of range", h))
				continue
			}
			instr := &impl.instrs[h]
			if instr.removed {
				v.addErrorInInstr(h, "removed instruction is still in a block")
				continue
			}
			if instr.block != b {
				v.addErrorInInstr(h, fmt.Sprintf("instruction claims block b%d but is listed in b%d", instr.block.Index, b.Index))
			}
			if _, ok := instr.Kind.(*Phi); ok {
				if !phis {
					v.addErrorInInstr(h, "phi after a non-phi instruction")
				}
			} else {
				phis = false
			}
			v.validateInstr(h, instr.Kind)
		}
		if b.Cond != nil {
			v.validateCondition(b)
		}
	}
}

// validateEdges checks terminator shape and pred/succ symmetry.
func (v *Validator) validateEdges(b *Block) {
	if len(b.Succs) > 2 {
		v.addErrorInBlock(b, fmt.Sprintf("%d successors", len(b.Succs)))
	}
	if (b.Cond != nil) != (len(b.Succs) == 2) {
		v.addErrorInBlock(b, "branch condition requires exactly two successors")
	}
	for _, s := range b.Succs {
		if s.impl != b.impl {
			v.addErrorInBlock(b, "successor belongs to another implementation")
			continue
		}
		if count(s.Preds, b) != count(b.Succs, s) {
			v.addErrorInBlock(b, fmt.Sprintf("b%d does not list b%d as predecessor", s.Index, b.Index))
		}
	}
	for _, p := range b.Preds {
		if count(p.Succs, b) == 0 {
			v.addErrorInBlock(b, fmt.Sprintf("predecessor b%d does not branch here", p.Index))
		}
	}
}

func count(blocks []*Block, b *Block) int {
	n := 0
	for _, x := range blocks {
		if x == b {
			n++
		}
	}
	return n
}

func (v *Validator) validateCondition(b *Block) {
	impl := v.context.impl
	h := b.Cond.Def
	if !v.isValidDef(h) {
		v.addErrorInBlock(b, fmt.Sprintf("condition %%%d is not a live def", h))
		return
	}
	if impl.Def(h).NumComponents != 1 {
		v.addErrorInBlock(b, "condition is not a scalar")
	}
	if !impl.DefDominates(h, Use{User: NoInstr, Block: b}) {
		v.addErrorInBlock(b, fmt.Sprintf("condition %%%d does not dominate the branch", h))
	}
}

func (v *Validator) validateDef(h InstrHandle, d *Def) {
	if d.NumComponents < 1 || d.NumComponents > MaxComponents {
		v.addErrorInInstr(h, fmt.Sprintf("def has %d components", d.NumComponents))
	}
	switch d.BitSize {
	case 1, 8, 16, 32, 64:
	default:
		v.addErrorInInstr(h, fmt.Sprintf("def has bit size %d", d.BitSize))
	}
}

// validateInstr validates a single instruction.
//
//nolint:gocognit,gocyclo,cyclop,funlen // Instruction validation requires checking every kind
func (v *Validator) validateInstr(h InstrHandle, kind InstrKind) {
	impl := v.context.impl
	if d := kind.DestDef(); d != nil {
		v.validateDef(h, d)
	}

	srcsOK := true
	for slot, src := range kind.Srcs() {
		if !v.isValidDef(src.Def) {
			v.addErrorInInstr(h, fmt.Sprintf("source %d references %%%d, which is not a live def", slot, src.Def))
			srcsOK = false
			continue
		}
		if !impl.DefDominates(src.Def, Use{User: h, Slot: slot}) {
			v.addErrorInInstr(h, fmt.Sprintf("source %d: %%%d does not dominate its use", slot, src.Def))
		}
	}
	if !srcsOK {
		return
	}

	switch k := kind.(type) {
	case *ALU:
		v.validateALU(h, k)

	case *LoadConst:
		for c := int(k.Dest.NumComponents); c < MaxComponents; c++ {
			if k.Values[c] != 0 {
				v.addErrorInInstr(h, fmt.Sprintf("constant lane %d is past the def width", c))
			}
		}

	case *Undef:
		// Always valid

	case *Phi:
		b := impl.instrs[h].block
		if len(k.Src) != len(b.Preds) {
			v.addErrorInInstr(h, fmt.Sprintf("phi has %d sources for %d predecessors", len(k.Src), len(b.Preds)))
		}
		for i, ps := range k.Src {
			if count(b.Preds, ps.Pred) == 0 {
				v.addErrorInInstr(h, fmt.Sprintf("phi source %d names a block that is not a predecessor", i))
			}
			if *impl.Def(ps.Def) != k.Dest {
				v.addErrorInInstr(h, fmt.Sprintf("phi source %d has a different size", i))
			}
		}

	case *Deref:
		switch k.Kind {
		case DerefVar:
			if k.Var == nil || !v.context.variables[k.Var] {
				v.addErrorInInstr(h, "deref_var of an unknown variable")
			}
		case DerefStruct, DerefArray:
			if _, ok := impl.instrs[k.Parent.Def].Kind.(*Deref); !ok {
				v.addErrorInInstr(h, "deref parent is not a deref")
			}
		default:
			v.addErrorInInstr(h, fmt.Sprintf("unknown deref kind %d", k.Kind))
		}

	case *Tex:
		if k.Op > TexGather {
			v.addErrorInInstr(h, fmt.Sprintf("unknown texture op %d", k.Op))
		}

	case *Intrinsic:
		v.validateIntrinsic(h, k)

	default:
		v.addErrorInInstr(h, fmt.Sprintf("unknown instruction kind %T", kind))
	}
}

func (v *Validator) validateALU(h InstrHandle, alu *ALU) {
	impl := v.context.impl
	if int(alu.Op) >= NumOps() {
		v.addErrorInInstr(h, fmt.Sprintf("unknown opcode %d", alu.Op))
		return
	}
	info := alu.Op.Info()
	if len(alu.Src) != info.NumInputs {
		v.addErrorInInstr(h, fmt.Sprintf("%s takes %d sources, has %d", info.Name, info.NumInputs, len(alu.Src)))
		return
	}
	if info.OutputSize != 0 && alu.Dest.NumComponents != info.OutputSize {
		v.addErrorInInstr(h, fmt.Sprintf("%s produces %d components, dest has %d", info.Name, info.OutputSize, alu.Dest.NumComponents))
	}
	if alu.WriteMask == 0 || alu.WriteMask&^alu.Dest.Mask() != 0 {
		v.addErrorInInstr(h, fmt.Sprintf("write mask %q does not fit a %d-component dest", alu.WriteMask, alu.Dest.NumComponents))
	}
	if size := info.OutputType.Size; size != 0 && alu.Dest.BitSize != size {
		v.addErrorInInstr(h, fmt.Sprintf("%s produces %d-bit values, dest is %d-bit", info.Name, size, alu.Dest.BitSize))
	}
	for i, src := range alu.Src {
		width := impl.Def(src.Def).NumComponents
		for c := 0; c < MaxComponents; c++ {
			if alu.ChannelUsed(i, c) && src.Swizzle[c] >= width {
				v.addErrorInInstr(h, fmt.Sprintf("source %d lane %c reads lane %c of a %d-component def", i, LaneName(uint8(c)), LaneName(src.Swizzle[c]), width))
			}
		}
	}
}

func (v *Validator) validateIntrinsic(h InstrHandle, in *Intrinsic) {
	impl := v.context.impl
	if int(in.Op) >= NumIntrinsics() {
		v.addErrorInInstr(h, fmt.Sprintf("unknown intrinsic %d", in.Op))
		return
	}
	info := in.Op.Info()
	if len(in.Src) != info.NumSrcs() {
		v.addErrorInInstr(h, fmt.Sprintf("%s takes %d sources, has %d", info.Name, info.NumSrcs(), len(in.Src)))
		return
	}
	if info.IsVariableWidth() && (in.NumComponents < 1 || in.NumComponents > MaxComponents) {
		v.addErrorInInstr(h, fmt.Sprintf("%s has %d components", info.Name, in.NumComponents))
		return
	}
	for i := range in.Src {
		want := in.SrcNumComponents(i)
		if got := int(impl.Def(in.Src[i].Def).NumComponents); got != want {
			v.addErrorInInstr(h, fmt.Sprintf("%s source %d has %d components, want %d", info.Name, i, got, want))
		}
	}
	if info.HasDest {
		want := info.DestComponents
		if want == 0 {
			want = in.NumComponents
		}
		if in.Dest.NumComponents != want {
			v.addErrorInInstr(h, fmt.Sprintf("%s dest has %d components, want %d", info.Name, in.Dest.NumComponents, want))
		}
	}
	if info.HasWriteMask && in.WriteMask&^FullMask(int(in.NumComponents)) != 0 {
		v.addErrorInInstr(h, fmt.Sprintf("%s write mask %q is wider than its %d components", info.Name, in.WriteMask, in.NumComponents))
	}
	if in.Op == IntrinsicImageDerefStore {
		vr := impl.DerefVariable(in.Src[0].Def)
		switch {
		case vr == nil:
			v.addErrorInInstr(h, "image store through a non-deref source")
		case vr.Mode != VarImage:
			v.addErrorInInstr(h, fmt.Sprintf("image store to non-image variable %q", vr.Name))
		case vr.Access == gputypes.StorageTextureAccessReadOnly:
			v.addErrorInInstr(h, fmt.Sprintf("image store to read-only image %q", vr.Name))
		}
	}
}

func (v *Validator) isValidDef(h InstrHandle) bool {
	impl := v.context.impl
	if int(h) >= len(impl.instrs) {
		return false
	}
	instr := &impl.instrs[h]
	return !instr.removed && instr.Kind.DestDef() != nil
}

func (v *Validator) addError(msg string) {
	v.errors = append(v.errors, ValidationError{
		Message: msg,
		Block:   -1,
	})
}

func (v *Validator) addErrorInFunction(msg string) {
	v.errors = append(v.errors, ValidationError{
		Message:  msg,
		Function: v.context.functionName,
		Block:    -1,
	})
}

func (v *Validator) addErrorInBlock(b *Block, msg string) {
	v.errors = append(v.errors, ValidationError{
		Message:  msg,
		Function: v.context.functionName,
		Block:    b.Index,
	})
}

func (v *Validator) addErrorInInstr(h InstrHandle, msg string) {
	v.errors = append(v.errors, ValidationError{
		Message:  msg,
		Function: v.context.functionName,
		Block:    -1,
		Instr:    &h,
	})
}
