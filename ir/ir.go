package ir

import (
	"github.com/gogpu/gputypes"
)

// Program is a shader program in SSA form.
type Program struct {
	// Stage is the pipeline stage the program runs in.
	Stage gputypes.ShaderStage

	// Variables holds program-scope variables referenced by deref roots.
	Variables []*Variable

	// Functions holds all functions, with or without an implementation.
	Functions []*Function
}

// NewProgram creates an empty program for the given stage.
func NewProgram(stage gputypes.ShaderStage) *Program {
	return &Program{Stage: stage}
}

// AddVariable appends a variable and returns it.
func (p *Program) AddVariable(name string, mode VarMode) *Variable {
	v := &Variable{Name: name, Mode: mode}
	p.Variables = append(p.Variables, v)
	return v
}

// AddFunction appends a function declaration without an implementation.
func (p *Program) AddFunction(name string) *Function {
	fn := &Function{Name: name}
	p.Functions = append(p.Functions, fn)
	return fn
}

// Variable looks up a variable by name.
func (p *Program) Variable(name string) *Variable {
	for _, v := range p.Variables {
		if v.Name == name {
			return v
		}
	}
	return nil
}

// Impls returns the implementations of all functions that have one.
func (p *Program) Impls() []*Impl {
	impls := make([]*Impl, 0, len(p.Functions))
	for _, fn := range p.Functions {
		if fn.Impl != nil {
			impls = append(impls, fn.Impl)
		}
	}
	return impls
}

// VarMode is the storage class of a variable.
type VarMode uint8

const (
	VarLocal VarMode = iota
	VarUniform
	VarUBO
	VarSSBO
	VarInput
	VarOutput
	VarShared
	VarImage
)

var varModeNames = [...]string{
	VarLocal:   "local",
	VarUniform: "uniform",
	VarUBO:     "ubo",
	VarSSBO:    "ssbo",
	VarInput:   "input",
	VarOutput:  "output",
	VarShared:  "shared",
	VarImage:   "image",
}

func (m VarMode) String() string {
	if int(m) < len(varModeNames) {
		return varModeNames[m]
	}
	return "unknown"
}

// ParseVarMode maps a mode name back to its VarMode.
func ParseVarMode(name string) (VarMode, bool) {
	for m, n := range varModeNames {
		if n == name {
			return VarMode(m), true
		}
	}
	return 0, false
}

// Variable is a program-scope variable.
type Variable struct {
	Name string
	Mode VarMode

	// Format is the pixel format of an image variable.
	// TextureFormatUndefined means the format is not known at compile time.
	Format gputypes.TextureFormat

	// Access is the access mode of an image variable.
	Access gputypes.StorageTextureAccess
}

// Function is a function declaration, optionally with an implementation.
type Function struct {
	Name string

	// Impl is nil for external declarations.
	Impl *Impl
}

// NewImpl attaches a fresh implementation with a single entry block.
func (f *Function) NewImpl() *Impl {
	impl := &Impl{Function: f}
	impl.AddBlock()
	f.Impl = impl
	return impl
}

// Impl is the control-flow graph of a function.
type Impl struct {
	Function *Function

	// Blocks in program order; Blocks[0] is the entry.
	Blocks []*Block

	instrs []Instr

	// uses is indexed by InstrHandle; nil until first requested.
	uses [][]Use

	valid Metadata
	live  liveness
}

// Entry returns the entry block.
func (impl *Impl) Entry() *Block {
	return impl.Blocks[0]
}

// AddBlock appends an empty block.
func (impl *Impl) AddBlock() *Block {
	b := &Block{impl: impl, Index: len(impl.Blocks)}
	impl.Blocks = append(impl.Blocks, b)
	impl.valid = MetadataNone
	return b
}

// NumInstrs returns the arena size, including removed slots.
func (impl *Impl) NumInstrs() int {
	return len(impl.instrs)
}

// Instr returns the instruction for a handle.
func (impl *Impl) Instr(h InstrHandle) *Instr {
	return &impl.instrs[h]
}

// Def returns the destination of the instruction h, or nil if it has none.
func (impl *Impl) Def(h InstrHandle) *Def {
	return impl.instrs[h].Kind.DestDef()
}

// ForEachInstr visits every live instruction in block order.
// The visitor may insert or remove instructions.
func (impl *Impl) ForEachInstr(fn func(h InstrHandle, instr *Instr)) {
	for _, b := range impl.Blocks {
		b.ForEach(fn)
	}
}

// Block is a basic block.
type Block struct {
	// Index is the position of the block in Impl.Blocks.
	// Valid while MetadataBlockIndex is.
	Index int

	// Succs holds zero (return), one (jump) or two (branch) successors.
	Succs []*Block
	Preds []*Block

	// Cond is the branch condition; non-nil iff len(Succs) == 2.
	// Succs[0] is taken when the condition is true.
	Cond *Src

	impl   *Impl
	instrs []InstrHandle
	dom    domInfo
}

// Impl returns the implementation that owns the block.
func (b *Block) Impl() *Impl {
	return b.impl
}

// Instrs returns a snapshot of the block's instruction handles.
func (b *Block) Instrs() []InstrHandle {
	out := make([]InstrHandle, len(b.instrs))
	copy(out, b.instrs)
	return out
}

// Len returns the number of instructions in the block.
func (b *Block) Len() int {
	return len(b.instrs)
}

// ForEach visits live instructions in order over a snapshot of the block,
// so fn may remove the visited instruction or insert new ones.
func (b *Block) ForEach(fn func(h InstrHandle, instr *Instr)) {
	for _, h := range b.Instrs() {
		instr := b.impl.Instr(h)
		if instr.Removed() {
			continue
		}
		fn(h, instr)
	}
}

// ForEachReverse is ForEach in reverse order.
func (b *Block) ForEachReverse(fn func(h InstrHandle, instr *Instr)) {
	snapshot := b.Instrs()
	for i := len(snapshot) - 1; i >= 0; i-- {
		instr := b.impl.Instr(snapshot[i])
		if instr.Removed() {
			continue
		}
		fn(snapshot[i], instr)
	}
}

// Jump ends b with an unconditional jump to to.
func (b *Block) Jump(to *Block) {
	b.unlinkSuccs()
	b.Succs = []*Block{to}
	to.Preds = append(to.Preds, b)
	b.impl.valid = MetadataNone
}

// Branch ends b with a two-way conditional on cond.
func (b *Block) Branch(cond InstrHandle, then, els *Block) {
	b.unlinkSuccs()
	b.Succs = []*Block{then, els}
	then.Preds = append(then.Preds, b)
	els.Preds = append(els.Preds, b)
	b.Cond = &Src{Def: cond}
	if b.impl.uses != nil {
		b.impl.addUse(cond, Use{User: NoInstr, Block: b})
	}
	b.impl.valid = MetadataNone
}

// Return ends b with no successors.
func (b *Block) Return() {
	b.unlinkSuccs()
	b.impl.valid = MetadataNone
}

func (b *Block) unlinkSuccs() {
	for _, s := range b.Succs {
		for i, p := range s.Preds {
			if p == b {
				s.Preds = append(s.Preds[:i], s.Preds[i+1:]...)
				break
			}
		}
	}
	if b.Cond != nil && b.impl.uses != nil {
		b.impl.dropUse(b.Cond.Def, Use{User: NoInstr, Block: b})
	}
	b.Succs = nil
	b.Cond = nil
}

// DerefVariable follows a deref chain from h to its root variable.
// It returns nil when h is not a deref.
func (impl *Impl) DerefVariable(h InstrHandle) *Variable {
	for {
		d, ok := impl.instrs[h].Kind.(*Deref)
		if !ok {
			return nil
		}
		if d.Kind == DerefVar {
			return d.Var
		}
		h = d.Parent.Def
	}
}
