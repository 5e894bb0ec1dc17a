package irtext

import (
	"fmt"
	"io"
	"strings"

	"github.com/gogpu/nir/ir"
)

// Writer prints programs in canonical text form. Defs and blocks are
// numbered in program order, so printing a parsed canonical text yields
// the same text.
type Writer struct {
	out strings.Builder

	// Per-function numbering
	values map[ir.InstrHandle]int
	blocks map[*ir.Block]int
}

// String returns the canonical text of p.
func String(p *ir.Program) string {
	var w Writer
	w.writeProgram(p)
	return w.out.String()
}

// Print writes the canonical text of p to out.
func Print(out io.Writer, p *ir.Program) error {
	_, err := io.WriteString(out, String(p))
	return err
}

// PrintImpl writes one function in canonical text form.
func PrintImpl(out io.Writer, impl *ir.Impl) error {
	var w Writer
	w.writeImpl(impl)
	_, err := io.WriteString(out, w.out.String())
	return err
}

func (w *Writer) writeProgram(p *ir.Program) {
	w.writeLine("shader %s", ir.StageName(p.Stage))
	for _, v := range p.Variables {
		if v.Mode == ir.VarImage {
			w.writeLine("var %s @%s %s %s", v.Mode, v.Name, ir.FormatName(v.Format), ir.AccessName(v.Access))
			continue
		}
		w.writeLine("var %s @%s", v.Mode, v.Name)
	}
	for _, fn := range p.Functions {
		if fn.Impl == nil {
			w.writeLine("decl @%s", fn.Name)
			continue
		}
		w.writeLine("")
		w.writeImpl(fn.Impl)
	}
}

func (w *Writer) number(impl *ir.Impl) {
	w.values = make(map[ir.InstrHandle]int)
	w.blocks = make(map[*ir.Block]int, len(impl.Blocks))
	for i, b := range impl.Blocks {
		w.blocks[b] = i
		b.ForEach(func(h ir.InstrHandle, instr *ir.Instr) {
			if instr.Kind.DestDef() != nil {
				w.values[h] = len(w.values)
			}
		})
	}
}

func (w *Writer) writeImpl(impl *ir.Impl) {
	w.number(impl)
	w.writeLine("func @%s {", impl.Function.Name)
	for _, b := range impl.Blocks {
		w.writeLine("%s:", w.label(b))
		b.ForEach(func(h ir.InstrHandle, instr *ir.Instr) {
			w.write("  ")
			w.writeInstr(impl, h, instr.Kind)
			w.write("\n")
		})
		switch len(b.Succs) {
		case 0:
			w.writeLine("  ret")
		case 1:
			w.writeLine("  jmp %s", w.label(b.Succs[0]))
		default:
			w.writeLine("  br %s, %s, %s", w.value(b.Cond.Def), w.label(b.Succs[0]), w.label(b.Succs[1]))
		}
	}
	w.writeLine("}")
}

//nolint:gocyclo,cyclop,funlen // one case per instruction kind
func (w *Writer) writeInstr(impl *ir.Impl, h ir.InstrHandle, kind ir.InstrKind) {
	if d := kind.DestDef(); d != nil {
		w.write("%s = ", w.value(h))
	}

	switch k := kind.(type) {
	case *ir.ALU:
		w.write("%s", k.Op)
		if k.Saturate {
			w.write(".sat")
		}
		w.write(" %s", size(k.Dest))
		if k.WriteMask != k.Dest.Mask() {
			w.write(" wrmask=%s", mask(k.WriteMask))
		}
		for i := range k.Src {
			if i == 0 {
				w.write(" ")
			} else {
				w.write(", ")
			}
			w.writeALUSrc(impl, k, i)
		}

	case *ir.LoadConst:
		w.write("load_const %s (", size(k.Dest))
		for i := 0; i < int(k.Dest.NumComponents); i++ {
			if i > 0 {
				w.write(", ")
			}
			w.write("%#x", k.Values[i])
		}
		w.write(")")

	case *ir.Undef:
		w.write("undef %s", size(k.Dest))

	case *ir.Phi:
		w.write("phi %s", size(k.Dest))
		for i, src := range k.Src {
			if i == 0 {
				w.write(" ")
			} else {
				w.write(", ")
			}
			w.write("%s:%s", w.label(src.Pred), w.value(src.Def))
		}

	case *ir.Deref:
		switch k.Kind {
		case ir.DerefVar:
			name := "?"
			if k.Var != nil {
				name = k.Var.Name
			}
			w.write("deref_var %s @%s", size(k.Dest), name)
		case ir.DerefStruct:
			w.write("deref_struct %s %s, %d", size(k.Dest), w.value(k.Parent.Def), k.Field)
		default:
			w.write("deref_array %s %s, %s", size(k.Dest), w.value(k.Parent.Def), w.value(k.Index.Def))
		}

	case *ir.Tex:
		w.write("tex.%s %s", k.Op, size(k.Dest))
		for i, src := range k.Src {
			if i == 0 {
				w.write(" ")
			} else {
				w.write(", ")
			}
			w.write("%s:%s", src.Kind, w.value(src.Def))
		}

	case *ir.Intrinsic:
		info := k.Op.Info()
		w.write("@%s", info.Name)
		if info.HasDest {
			w.write(" %s", size(k.Dest))
		}
		for i, src := range k.Src {
			if i == 0 {
				w.write(" ")
			} else {
				w.write(", ")
			}
			w.write("%s", w.value(src.Def))
		}
		if info.HasBase {
			w.write(" base=%d", k.Base)
		}
		if info.HasWriteMask {
			w.write(" wrmask=%s", mask(k.WriteMask))
		}
		if info.HasFormat {
			w.write(" format=%s", ir.FormatName(k.Format))
		}
	}
}

// writeALUSrc prints an operand. The swizzle covers the lanes the op reads
// and is omitted when it is the identity over the whole def.
func (w *Writer) writeALUSrc(impl *ir.Impl, alu *ir.ALU, i int) {
	src := alu.Src[i]
	if src.Negate {
		w.write("-")
	}
	if src.Abs {
		w.write("|")
	}
	w.write("%s", w.value(src.Def))

	n := alu.SrcComponents(i)
	width := n
	if int(src.Def) < impl.NumInstrs() {
		if d := impl.Def(src.Def); d != nil {
			width = int(d.NumComponents)
		}
	}
	if n != width || !src.Swizzle.IsIdentity(ir.FullMask(n)) {
		w.write(".")
		for c := 0; c < n; c++ {
			w.out.WriteByte(ir.LaneName(src.Swizzle[c]))
		}
	}
	if src.Abs {
		w.write("|")
	}
}

func (w *Writer) value(h ir.InstrHandle) string {
	if n, ok := w.values[h]; ok {
		return fmt.Sprintf("%%%d", n)
	}
	// Dangling references only show up when printing invalid programs.
	return fmt.Sprintf("%%?%d", h)
}

func (w *Writer) label(b *ir.Block) string {
	if i, ok := w.blocks[b]; ok {
		return fmt.Sprintf("b%d", i)
	}
	return "b?"
}

func size(d ir.Def) string {
	return fmt.Sprintf("%dx%d", d.BitSize, d.NumComponents)
}

func mask(m ir.WriteMask) string {
	if m == 0 {
		return "0"
	}
	return m.String()
}

// Output helpers

// write writes text to the output. If args are provided, uses fmt.Fprintf.
//
//nolint:goprintffuncname
func (w *Writer) write(format string, args ...any) {
	if len(args) == 0 {
		w.out.WriteString(format)
	} else {
		fmt.Fprintf(&w.out, format, args...)
	}
}

// writeLine writes a line with optional format args and a newline.
//
//nolint:goprintffuncname
func (w *Writer) writeLine(format string, args ...any) {
	w.write(format, args...)
	w.out.WriteByte('\n')
}
