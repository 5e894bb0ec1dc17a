package irtext

import (
	"fmt"
	"strings"
)

// SourceError is a syntax or reference error in textual IR.
type SourceError struct {
	Message string
	Span    Span

	// Func is the enclosing function, such as "@main". Empty for the
	// header and variable declarations.
	Func string

	// Token is the offending lexeme: a value like "%5", a label, an opcode.
	Token string

	Source string // full input, for FormatWithContext
}

// Error formats the error as "line:col: [in @func: ]message".
func (e *SourceError) Error() string {
	msg := e.Message
	if e.Func != "" {
		msg = "in " + e.Func + ": " + msg
	}
	if e.Span.Start.Line == 0 {
		return msg
	}
	return fmt.Sprintf("%d:%d: %s", e.Span.Start.Line, e.Span.Start.Column, msg)
}

// FormatWithContext prints the message, the offending line and a marker
// under the token.
func (e *SourceError) FormatWithContext() string {
	line, ok := e.sourceLine()
	if !ok {
		return e.Error()
	}
	col := min(max(e.Span.Start.Column, 1), len(line)+1)
	width := max(len(e.Token), 1)
	width = min(width, len(line)+2-col)

	var sb strings.Builder
	fmt.Fprintf(&sb, "error: %s\n", e.Message)
	sb.WriteString("  --> ")
	if e.Func != "" {
		sb.WriteString(e.Func + ", ")
	}
	fmt.Fprintf(&sb, "line %d:%d\n", e.Span.Start.Line, col)
	fmt.Fprintf(&sb, "%3d| %s\n", e.Span.Start.Line, line)
	fmt.Fprintf(&sb, "   | %s%s\n", strings.Repeat(" ", col-1), strings.Repeat("^", width))
	return sb.String()
}

func (e *SourceError) sourceLine() (string, bool) {
	n := e.Span.Start.Line
	if e.Source == "" || n == 0 {
		return "", false
	}
	lines := strings.Split(e.Source, "\n")
	if n < 1 || n > len(lines) {
		return "", false
	}
	return lines[n-1], true
}

// SourceErrors collects every error found in one parse.
type SourceErrors []*SourceError

func (el SourceErrors) Error() string {
	switch len(el) {
	case 0:
		return "irtext: no errors"
	case 1:
		return el[0].Error()
	}
	return fmt.Sprintf("%s (and %d more errors)", el[0].Error(), len(el)-1)
}

// FormatAll formats every error with its source line.
func (el SourceErrors) FormatAll() string {
	parts := make([]string, len(el))
	for i, e := range el {
		parts[i] = e.FormatWithContext()
	}
	return strings.Join(parts, "\n")
}
