package irtext

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/nir/ir"
)

// Parser parses textual IR tokens into a program.
type Parser struct {
	tokens  []Token
	current int
	source  string
	errors  SourceErrors
	program *ir.Program
	fn      string // function being parsed, for error messages
}

// Parse parses textual IR. Errors are returned as SourceErrors.
func Parse(source string) (*ir.Program, error) {
	p := NewParser(NewLexer(source).Tokenize(), source)
	return p.Parse()
}

// NewParser creates a new parser for the given tokens. source is only used
// for error context.
func NewParser(tokens []Token, source string) *Parser {
	return &Parser{tokens: tokens, source: source}
}

// Parse parses the tokens and returns the program.
func (p *Parser) Parse() (*ir.Program, error) {
	if err := p.header(); err != nil {
		p.errors = append(p.errors, err)
		return nil, p.errors
	}

	for !p.isAtEnd() {
		if err := p.declaration(); err != nil {
			p.errors = append(p.errors, err)
			p.synchronize()
		}
	}

	if len(p.errors) > 0 {
		return nil, p.errors
	}
	return p.program, nil
}

func (p *Parser) header() *SourceError {
	if err := p.expectKeyword("shader"); err != nil {
		return err
	}
	tok, err := p.expectErr(TokenIdent)
	if err != nil {
		return err
	}
	stage, ok := ir.ParseStage(tok.Lexeme)
	if !ok {
		return p.errorAt(tok, "unknown shader stage %q", tok.Lexeme)
	}
	p.program = ir.NewProgram(stage)
	return nil
}

// declaration parses a top-level var, decl or func.
func (p *Parser) declaration() *SourceError {
	tok := p.peek()
	if tok.Kind == TokenIdent {
		switch tok.Lexeme {
		case "var":
			return p.varDecl()
		case "decl":
			p.advance()
			name, err := p.expectErr(TokenGlobal)
			if err != nil {
				return err
			}
			p.program.AddFunction(name.Lexeme[1:])
			return nil
		case "func":
			return p.funcDecl()
		}
	}
	return p.errorAt(tok, "unexpected %s, expected var, decl or func", describe(tok))
}

func (p *Parser) varDecl() *SourceError {
	p.advance() // consume var
	modeTok, err := p.expectErr(TokenIdent)
	if err != nil {
		return err
	}
	mode, ok := ir.ParseVarMode(modeTok.Lexeme)
	if !ok {
		return p.errorAt(modeTok, "unknown variable mode %q", modeTok.Lexeme)
	}
	name, err := p.expectErr(TokenGlobal)
	if err != nil {
		return err
	}
	if p.program.Variable(name.Lexeme[1:]) != nil {
		return p.errorAt(name, "variable %s redeclared", name.Lexeme)
	}
	v := p.program.AddVariable(name.Lexeme[1:], mode)
	if mode != ir.VarImage {
		return nil
	}

	formatTok, err := p.expectErr(TokenIdent)
	if err != nil {
		return err
	}
	if v.Format, ok = ir.ParseFormat(formatTok.Lexeme); !ok {
		return p.errorAt(formatTok, "unknown image format %q", formatTok.Lexeme)
	}
	accessTok, err := p.expectErr(TokenIdent)
	if err != nil {
		return err
	}
	if v.Access, ok = ir.ParseAccess(accessTok.Lexeme); !ok {
		return p.errorAt(accessTok, "unknown image access %q", accessTok.Lexeme)
	}
	return nil
}

// valueRef is a source whose def is named before it is known.
type valueRef struct {
	src *ir.Src
	tok Token
}

// aluRef is an ALU source whose swizzle depends on the width of its def.
type aluRef struct {
	src     *ir.ALUSrc
	swizzle string
}

// predRef is a phi source edge named by block label.
type predRef struct {
	src *ir.PhiSrc
	tok Token
}

// terminator ends a block; cond is set for branches.
type terminator struct {
	block  *ir.Block
	cond   *Token
	labels []Token
}

// funcState collects forward references while a function body is parsed.
// They are resolved once every def and label is known.
type funcState struct {
	impl   *ir.Impl
	values map[string]ir.InstrHandle
	blocks map[string]*ir.Block
	block  *ir.Block

	refs       []valueRef
	alus       []aluRef
	preds      []predRef
	terms      []terminator
	intrinsics []*ir.Intrinsic
	masks      map[*ir.Intrinsic]bool
}

func (p *Parser) funcDecl() *SourceError {
	p.advance() // consume func
	name, err := p.expectErr(TokenGlobal)
	if err != nil {
		return err
	}
	if _, err := p.expectErr(TokenLeftBrace); err != nil {
		return err
	}

	p.fn = name.Lexeme
	defer func() { p.fn = "" }()

	fn := p.program.AddFunction(name.Lexeme[1:])
	fs := &funcState{
		impl:   fn.NewImpl(),
		values: make(map[string]ir.InstrHandle),
		blocks: make(map[string]*ir.Block),
		masks:  make(map[*ir.Intrinsic]bool),
	}

	for !p.check(TokenRightBrace) {
		if err := p.block(fs); err != nil {
			return err
		}
	}
	p.advance() // consume }

	if len(fs.blocks) == 0 {
		return p.errorAt(name, "function %s has no blocks", name.Lexeme)
	}
	return p.resolve(fs)
}

// block parses a label, the instructions after it and its terminator.
func (p *Parser) block(fs *funcState) *SourceError {
	label, err := p.expectErr(TokenIdent)
	if err != nil {
		return err
	}
	if _, err := p.expectErr(TokenColon); err != nil {
		return err
	}
	if _, dup := fs.blocks[label.Lexeme]; dup {
		return p.errorAt(label, "block %s redefined", label.Lexeme)
	}
	if len(fs.blocks) == 0 {
		fs.block = fs.impl.Entry()
	} else {
		fs.block = fs.impl.AddBlock()
	}
	fs.blocks[label.Lexeme] = fs.block

	for {
		tok := p.peek()
		switch tok.Kind {
		case TokenValue:
			if err := p.defInstr(fs); err != nil {
				return err
			}
		case TokenGlobal:
			if err := p.intrinsic(fs, nil); err != nil {
				return err
			}
		case TokenIdent:
			switch tok.Lexeme {
			case "br", "jmp", "ret":
				return p.terminator(fs)
			}
			return p.errorAt(tok, "unexpected %q, expected an instruction or terminator", tok.Lexeme)
		default:
			return p.errorAt(tok, "unexpected %s, expected an instruction or terminator", describe(tok))
		}
	}
}

func (p *Parser) terminator(fs *funcState) *SourceError {
	tok := p.advance()
	t := terminator{block: fs.block}
	switch tok.Lexeme {
	case "br":
		cond, err := p.expectErr(TokenValue)
		if err != nil {
			return err
		}
		t.cond = &cond
		for i := 0; i < 2; i++ {
			if _, err := p.expectErr(TokenComma); err != nil {
				return err
			}
			label, err := p.expectErr(TokenIdent)
			if err != nil {
				return err
			}
			t.labels = append(t.labels, label)
		}
	case "jmp":
		label, err := p.expectErr(TokenIdent)
		if err != nil {
			return err
		}
		t.labels = []Token{label}
	}
	fs.terms = append(fs.terms, t)
	return nil
}

// defInstr parses "%N = body".
func (p *Parser) defInstr(fs *funcState) *SourceError {
	name := p.advance()
	if _, dup := fs.values[name.Lexeme]; dup {
		return p.errorAt(name, "value %s redefined", name.Lexeme)
	}
	if _, err := p.expectErr(TokenEqual); err != nil {
		return err
	}

	if p.check(TokenGlobal) {
		return p.intrinsic(fs, &name)
	}
	opTok, err := p.expectErr(TokenIdent)
	if err != nil {
		return err
	}

	var kind ir.InstrKind
	switch opTok.Lexeme {
	case "load_const":
		kind, err = p.loadConst()
	case "undef":
		var dest ir.Def
		dest, err = p.size()
		kind = &ir.Undef{Dest: dest}
	case "phi":
		kind, err = p.phi(fs)
	case "deref_var", "deref_struct", "deref_array":
		kind, err = p.deref(fs, opTok)
	case "tex":
		kind, err = p.tex(fs)
	default:
		kind, err = p.alu(fs, opTok)
	}
	if err != nil {
		return err
	}
	fs.values[name.Lexeme] = fs.impl.Append(fs.block, kind)
	return nil
}

func (p *Parser) loadConst() (*ir.LoadConst, *SourceError) {
	sizeTok := p.peek()
	dest, err := p.size()
	if err != nil {
		return nil, err
	}
	c := &ir.LoadConst{Dest: dest}
	if _, err := p.expectErr(TokenLeftParen); err != nil {
		return nil, err
	}
	n := 0
	for {
		tok, err := p.expectErr(TokenInt)
		if err != nil {
			return nil, err
		}
		v, perr := strconv.ParseUint(tok.Lexeme, 0, 64)
		if perr != nil {
			return nil, p.errorAt(tok, "invalid constant %s", tok.Lexeme)
		}
		if n < ir.MaxComponents {
			c.Values[n] = v
		}
		n++
		if !p.match(TokenComma) {
			break
		}
	}
	if _, err := p.expectErr(TokenRightParen); err != nil {
		return nil, err
	}
	if n != int(dest.NumComponents) {
		return nil, p.errorAt(sizeTok, "load_const of %d components has %d values", dest.NumComponents, n)
	}
	return c, nil
}

func (p *Parser) phi(fs *funcState) (*ir.Phi, *SourceError) {
	dest, err := p.size()
	if err != nil {
		return nil, err
	}
	phi := &ir.Phi{Dest: dest}
	var labels, values []Token
	for p.check(TokenIdent) && p.peekNext().Kind == TokenColon {
		labels = append(labels, p.advance())
		p.advance() // consume :
		v, err := p.expectErr(TokenValue)
		if err != nil {
			return nil, err
		}
		values = append(values, v)
		if !p.match(TokenComma) {
			break
		}
	}

	phi.Src = make([]ir.PhiSrc, len(labels))
	for i := range phi.Src {
		fs.preds = append(fs.preds, predRef{src: &phi.Src[i], tok: labels[i]})
		fs.refs = append(fs.refs, valueRef{src: &phi.Src[i].Src, tok: values[i]})
	}
	return phi, nil
}

func (p *Parser) deref(fs *funcState, opTok Token) (*ir.Deref, *SourceError) {
	dest, err := p.size()
	if err != nil {
		return nil, err
	}
	d := &ir.Deref{Dest: dest}
	switch opTok.Lexeme {
	case "deref_var":
		d.Kind = ir.DerefVar
		name, err := p.expectErr(TokenGlobal)
		if err != nil {
			return nil, err
		}
		if d.Var = p.program.Variable(name.Lexeme[1:]); d.Var == nil {
			return nil, p.errorAt(name, "undefined variable %s", name.Lexeme)
		}
		return d, nil

	case "deref_struct":
		d.Kind = ir.DerefStruct
		if err := p.ref(fs, &d.Parent); err != nil {
			return nil, err
		}
		if _, err := p.expectErr(TokenComma); err != nil {
			return nil, err
		}
		tok, err := p.expectErr(TokenInt)
		if err != nil {
			return nil, err
		}
		field, perr := strconv.ParseUint(tok.Lexeme, 0, 32)
		if perr != nil {
			return nil, p.errorAt(tok, "invalid field index %s", tok.Lexeme)
		}
		d.Field = uint32(field)
		return d, nil
	}

	d.Kind = ir.DerefArray
	if err := p.ref(fs, &d.Parent); err != nil {
		return nil, err
	}
	if _, err := p.expectErr(TokenComma); err != nil {
		return nil, err
	}
	if err := p.ref(fs, &d.Index); err != nil {
		return nil, err
	}
	return d, nil
}

func (p *Parser) tex(fs *funcState) (*ir.Tex, *SourceError) {
	if _, err := p.expectErr(TokenDot); err != nil {
		return nil, err
	}
	opTok, err := p.expectErr(TokenIdent)
	if err != nil {
		return nil, err
	}
	op, ok := ir.ParseTexOp(opTok.Lexeme)
	if !ok {
		return nil, p.errorAt(opTok, "unknown texture op %q", opTok.Lexeme)
	}
	dest, err := p.size()
	if err != nil {
		return nil, err
	}

	var kinds []ir.TexSrcKind
	var values []Token
	for p.check(TokenIdent) && p.peekNext().Kind == TokenColon {
		kindTok := p.advance()
		kind, ok := ir.ParseTexSrcKind(kindTok.Lexeme)
		if !ok {
			return nil, p.errorAt(kindTok, "unknown texture source %q", kindTok.Lexeme)
		}
		if _, err := p.expectErr(TokenColon); err != nil {
			return nil, err
		}
		v, err := p.expectErr(TokenValue)
		if err != nil {
			return nil, err
		}
		kinds = append(kinds, kind)
		values = append(values, v)
		if !p.match(TokenComma) {
			break
		}
	}

	t := &ir.Tex{Op: op, Dest: dest, Src: make([]ir.TexSrc, len(kinds))}
	for i := range t.Src {
		t.Src[i].Kind = kinds[i]
		fs.refs = append(fs.refs, valueRef{src: &t.Src[i].Src, tok: values[i]})
	}
	return t, nil
}

// alu parses "op[.sat] BxC [wrmask=M] src, ...".
func (p *Parser) alu(fs *funcState, opTok Token) (*ir.ALU, *SourceError) {
	op, ok := ir.LookupOp(opTok.Lexeme)
	if !ok {
		return nil, p.errorAt(opTok, "unknown opcode %q", opTok.Lexeme)
	}
	a := &ir.ALU{Op: op}
	if p.match(TokenDot) {
		mod, err := p.expectErr(TokenIdent)
		if err != nil {
			return nil, err
		}
		if mod.Lexeme != "sat" {
			return nil, p.errorAt(mod, "unknown modifier %q", mod.Lexeme)
		}
		a.Saturate = true
	}
	dest, err := p.size()
	if err != nil {
		return nil, err
	}
	a.Dest = dest
	a.WriteMask = dest.Mask()
	if p.checkIndex("wrmask") {
		if a.WriteMask, err = p.writeMask(); err != nil {
			return nil, err
		}
	}

	n := op.Info().NumInputs
	a.Src = make([]ir.ALUSrc, n)
	for i := 0; i < n; i++ {
		if i > 0 {
			if _, err := p.expectErr(TokenComma); err != nil {
				return nil, err
			}
		}
		if err := p.aluSrc(fs, &a.Src[i]); err != nil {
			return nil, err
		}
	}
	return a, nil
}

// aluSrc parses "[-][|]%N[.swizzle][|]".
func (p *Parser) aluSrc(fs *funcState, src *ir.ALUSrc) *SourceError {
	src.Negate = p.match(TokenMinus)
	src.Abs = p.match(TokenPipe)
	if err := p.ref(fs, &src.Src); err != nil {
		return err
	}
	ref := aluRef{src: src}
	if p.match(TokenDot) {
		tok, err := p.expectErr(TokenIdent)
		if err != nil {
			return err
		}
		if len(tok.Lexeme) > ir.MaxComponents {
			return p.errorAt(tok, "swizzle %q is too long", tok.Lexeme)
		}
		for i := 0; i < len(tok.Lexeme); i++ {
			if ir.LaneIndex(tok.Lexeme[i]) < 0 {
				return p.errorAt(tok, "invalid swizzle %q", tok.Lexeme)
			}
		}
		ref.swizzle = tok.Lexeme
	}
	if src.Abs {
		if _, err := p.expectErr(TokenPipe); err != nil {
			return err
		}
	}
	fs.alus = append(fs.alus, ref)
	return nil
}

// intrinsic parses "@name [BxC] src, ... [base=N] [wrmask=M] [format=F]".
// name is the dest value, nil for intrinsics without one.
func (p *Parser) intrinsic(fs *funcState, name *Token) *SourceError {
	opTok := p.advance()
	op, ok := ir.LookupIntrinsic(opTok.Lexeme[1:])
	if !ok {
		return p.errorAt(opTok, "unknown intrinsic %s", opTok.Lexeme)
	}
	info := op.Info()
	in := &ir.Intrinsic{Op: op, Src: make([]ir.Src, info.NumSrcs())}

	switch {
	case info.HasDest && name == nil:
		return p.errorAt(opTok, "%s produces a value", opTok.Lexeme)
	case !info.HasDest && name != nil:
		return p.errorAt(*name, "%s does not produce a value", opTok.Lexeme)
	case info.HasDest:
		dest, err := p.size()
		if err != nil {
			return err
		}
		in.Dest = dest
	}

	for i := range in.Src {
		if i > 0 {
			if _, err := p.expectErr(TokenComma); err != nil {
				return err
			}
		}
		if err := p.ref(fs, &in.Src[i]); err != nil {
			return err
		}
	}

	for p.check(TokenIdent) && p.peekNext().Kind == TokenEqual {
		idx := p.advance()
		p.advance() // consume =
		var err *SourceError
		switch {
		case idx.Lexeme == "base" && info.HasBase:
			in.Base, err = p.base()
		case idx.Lexeme == "wrmask" && info.HasWriteMask:
			in.WriteMask, err = p.writeMask()
			fs.masks[in] = true
		case idx.Lexeme == "format" && info.HasFormat:
			in.Format, err = p.format()
		default:
			return p.errorAt(idx, "%s has no %s index", opTok.Lexeme, idx.Lexeme)
		}
		if err != nil {
			return err
		}
	}

	h := fs.impl.Append(fs.block, in)
	if name != nil {
		fs.values[name.Lexeme] = h
	}
	fs.intrinsics = append(fs.intrinsics, in)
	return nil
}

func (p *Parser) base() (int32, *SourceError) {
	neg := p.match(TokenMinus)
	tok, err := p.expectErr(TokenInt)
	if err != nil {
		return 0, err
	}
	v, perr := strconv.ParseInt(tok.Lexeme, 0, 32)
	if perr != nil {
		return 0, p.errorAt(tok, "invalid base %s", tok.Lexeme)
	}
	if neg {
		v = -v
	}
	return int32(v), nil
}

func (p *Parser) format() (gputypes.TextureFormat, *SourceError) {
	tok, err := p.expectErr(TokenIdent)
	if err != nil {
		return 0, err
	}
	f, ok := ir.ParseFormat(tok.Lexeme)
	if !ok {
		return 0, p.errorAt(tok, "unknown image format %q", tok.Lexeme)
	}
	return f, nil
}

// writeMask parses the value of a wrmask index: lane letters or 0.
func (p *Parser) writeMask() (ir.WriteMask, *SourceError) {
	if p.check(TokenInt) {
		tok := p.advance()
		if tok.Lexeme != "0" {
			return 0, p.errorAt(tok, "invalid write mask %s", tok.Lexeme)
		}
		return 0, nil
	}
	tok, err := p.expectErr(TokenIdent)
	if err != nil {
		return 0, err
	}
	var mask ir.WriteMask
	for i := 0; i < len(tok.Lexeme); i++ {
		lane := ir.LaneIndex(tok.Lexeme[i])
		if lane < 0 || mask.Has(lane) {
			return 0, p.errorAt(tok, "invalid write mask %q", tok.Lexeme)
		}
		mask |= 1 << uint(lane)
	}
	return mask, nil
}

// size parses a BITSxCOMPONENTS def size.
func (p *Parser) size() (ir.Def, *SourceError) {
	tok, err := p.expectErr(TokenSize)
	if err != nil {
		return ir.Def{}, err
	}
	bitsText, compsText, _ := strings.Cut(tok.Lexeme, "x")
	bits, berr := strconv.Atoi(bitsText)
	comps, cerr := strconv.Atoi(compsText)
	if berr != nil || cerr != nil {
		return ir.Def{}, p.errorAt(tok, "invalid size %s", tok.Lexeme)
	}
	switch bits {
	case 1, 8, 16, 32, 64:
	default:
		return ir.Def{}, p.errorAt(tok, "invalid bit size %d", bits)
	}
	if comps < 1 || comps > ir.MaxComponents {
		return ir.Def{}, p.errorAt(tok, "invalid component count %d", comps)
	}
	return ir.Def{NumComponents: uint8(comps), BitSize: uint8(bits)}, nil
}

// ref parses a value reference into src, resolved later.
func (p *Parser) ref(fs *funcState, src *ir.Src) *SourceError {
	tok, err := p.expectErr(TokenValue)
	if err != nil {
		return err
	}
	src.Def = ir.NoInstr
	fs.refs = append(fs.refs, valueRef{src: src, tok: tok})
	return nil
}

// resolve binds value names and labels, then fills in everything that
// depends on def widths: swizzle defaults, intrinsic component counts and
// default write masks. Terminators are applied last, in block order.
func (p *Parser) resolve(fs *funcState) *SourceError {
	var errs []*SourceError
	lookupBlock := func(tok Token) *ir.Block {
		b, ok := fs.blocks[tok.Lexeme]
		if !ok {
			errs = append(errs, p.errorAt(tok, "undefined block %s", tok.Lexeme))
		}
		return b
	}
	lookupValue := func(tok Token) ir.InstrHandle {
		h, ok := fs.values[tok.Lexeme]
		if !ok {
			errs = append(errs, p.errorAt(tok, "undefined value %s", tok.Lexeme))
			return ir.NoInstr
		}
		return h
	}

	for _, r := range fs.refs {
		r.src.Def = lookupValue(r.tok)
	}
	for _, r := range fs.preds {
		r.src.Pred = lookupBlock(r.tok)
	}
	succs := make([][]*ir.Block, len(fs.terms))
	conds := make([]ir.InstrHandle, len(fs.terms))
	for i, t := range fs.terms {
		for _, tok := range t.labels {
			succs[i] = append(succs[i], lookupBlock(tok))
		}
		if t.cond != nil {
			conds[i] = lookupValue(*t.cond)
		}
	}
	if len(errs) > 0 {
		// The last error is reported by the caller.
		p.errors = append(p.errors, errs[:len(errs)-1]...)
		return errs[len(errs)-1]
	}

	impl := fs.impl
	for _, r := range fs.alus {
		width := int(impl.Def(r.src.Def).NumComponents)
		if r.swizzle == "" {
			r.src.Swizzle = ir.ReplicateSwizzle(width)
			continue
		}
		for c := 0; c < ir.MaxComponents; c++ {
			lane := r.swizzle[min(c, len(r.swizzle)-1)]
			r.src.Swizzle[c] = uint8(ir.LaneIndex(lane))
		}
	}

	for _, in := range fs.intrinsics {
		info := in.Op.Info()
		if info.HasDest && info.DestComponents == 0 {
			in.NumComponents = in.Dest.NumComponents
		} else {
			for i, c := range info.SrcComponents {
				if c == 0 {
					in.NumComponents = impl.Def(in.Src[i].Def).NumComponents
					break
				}
			}
		}
		if info.HasWriteMask && !fs.masks[in] {
			in.WriteMask = ir.FullMask(int(in.NumComponents))
		}
	}

	for i, t := range fs.terms {
		switch len(succs[i]) {
		case 0:
			t.block.Return()
		case 1:
			t.block.Jump(succs[i][0])
		default:
			t.block.Branch(conds[i], succs[i][0], succs[i][1])
		}
	}
	return nil
}

// Helper methods

func (p *Parser) advance() Token {
	if !p.isAtEnd() {
		p.current++
	}
	return p.previous()
}

func (p *Parser) peek() Token {
	return p.tokens[p.current]
}

func (p *Parser) peekNext() Token {
	if p.current+1 >= len(p.tokens) {
		return p.tokens[len(p.tokens)-1]
	}
	return p.tokens[p.current+1]
}

func (p *Parser) previous() Token {
	return p.tokens[p.current-1]
}

func (p *Parser) isAtEnd() bool {
	return p.peek().Kind == TokenEOF
}

func (p *Parser) check(kind TokenKind) bool {
	return p.peek().Kind == kind
}

func (p *Parser) checkIndex(name string) bool {
	return p.check(TokenIdent) && p.peek().Lexeme == name && p.peekNext().Kind == TokenEqual
}

func (p *Parser) match(kind TokenKind) bool {
	if p.check(kind) && !p.isAtEnd() {
		p.advance()
		return true
	}
	return false
}

func (p *Parser) expectErr(kind TokenKind) (Token, *SourceError) {
	tok := p.peek()
	if tok.Kind == kind && kind != TokenEOF {
		p.advance()
		return tok, nil
	}
	return tok, p.errorAt(tok, "expected %s, got %s", kind, describe(tok))
}

func (p *Parser) expectKeyword(word string) *SourceError {
	tok := p.peek()
	if tok.Kind != TokenIdent || tok.Lexeme != word {
		return p.errorAt(tok, "expected %q, got %s", word, describe(tok))
	}
	p.advance()
	return nil
}

// synchronize skips to the next top-level declaration.
func (p *Parser) synchronize() {
	for !p.isAtEnd() {
		if tok := p.peek(); tok.Kind == TokenIdent {
			switch tok.Lexeme {
			case "var", "decl", "func":
				return
			}
		}
		p.advance()
	}
}

func (p *Parser) errorAt(tok Token, format string, args ...any) *SourceError {
	return &SourceError{
		Message: fmt.Sprintf(format, args...),
		Span:    tok.span(),
		Func:    p.fn,
		Token:   tok.Lexeme,
		Source:  p.source,
	}
}

func describe(tok Token) string {
	switch tok.Kind {
	case TokenEOF:
		return tok.Kind.String()
	case TokenError:
		return fmt.Sprintf("invalid character %q", tok.Lexeme)
	}
	return fmt.Sprintf("%s %q", tok.Kind, tok.Lexeme)
}
