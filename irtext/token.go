package irtext

// TokenKind represents the type of token.
type TokenKind uint8

const (
	TokenEOF TokenKind = iota
	TokenError

	// Literals and names
	TokenIdent  // fadd, b0, xyzw
	TokenInt    // 42, 0x3f800000
	TokenSize   // 32x4
	TokenValue  // %7
	TokenGlobal // @main

	// Punctuation
	TokenEqual      // =
	TokenComma      // ,
	TokenColon      // :
	TokenDot        // .
	TokenMinus      // -
	TokenPipe       // |
	TokenLeftParen  // (
	TokenRightParen // )
	TokenLeftBrace  // {
	TokenRightBrace // }
)

var tokenNames = [...]string{
	TokenEOF:        "end of input",
	TokenError:      "invalid character",
	TokenIdent:      "identifier",
	TokenInt:        "integer",
	TokenSize:       "size",
	TokenValue:      "value",
	TokenGlobal:     "global name",
	TokenEqual:      "'='",
	TokenComma:      "','",
	TokenColon:      "':'",
	TokenDot:        "'.'",
	TokenMinus:      "'-'",
	TokenPipe:       "'|'",
	TokenLeftParen:  "'('",
	TokenRightParen: "')'",
	TokenLeftBrace:  "'{'",
	TokenRightBrace: "'}'",
}

// String returns the string representation of the token kind.
func (k TokenKind) String() string {
	if int(k) < len(tokenNames) {
		return tokenNames[k]
	}
	return "Unknown"
}

// Token represents a lexical token.
type Token struct {
	Kind   TokenKind
	Lexeme string
	Line   int
	Column int
}

// Span represents a source code location span.
type Span struct {
	Start Position
	End   Position
}

// Position represents a position in source code.
type Position struct {
	Line   int
	Column int
}

func (t Token) span() Span {
	start := Position{Line: t.Line, Column: t.Column}
	return Span{Start: start, End: Position{Line: t.Line, Column: t.Column + len(t.Lexeme)}}
}
