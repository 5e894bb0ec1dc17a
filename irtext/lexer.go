package irtext

// Lexer tokenizes textual IR.
type Lexer struct {
	source string
	pos    int
	line   int
	column int
	start  int
	tokens []Token
}

// NewLexer creates a new lexer for the given source.
func NewLexer(source string) *Lexer {
	// Estimate ~1 token per 4 characters of source.
	estTokens := len(source) / 4
	if estTokens < 16 {
		estTokens = 16
	}
	return &Lexer{
		source: source,
		line:   1,
		column: 1,
		tokens: make([]Token, 0, estTokens),
	}
}

// Tokenize returns all tokens from the source. Invalid characters become
// TokenError tokens and are reported by the parser.
func (l *Lexer) Tokenize() []Token {
	for !l.isAtEnd() {
		l.start = l.pos
		l.scanToken()
	}

	l.tokens = append(l.tokens, Token{
		Kind:   TokenEOF,
		Line:   l.line,
		Column: l.column,
	})
	return l.tokens
}

func (l *Lexer) scanToken() {
	c := l.advance()

	switch c {
	case '=':
		l.addToken(TokenEqual)
	case ',':
		l.addToken(TokenComma)
	case ':':
		l.addToken(TokenColon)
	case '.':
		l.addToken(TokenDot)
	case '-':
		l.addToken(TokenMinus)
	case '|':
		l.addToken(TokenPipe)
	case '(':
		l.addToken(TokenLeftParen)
	case ')':
		l.addToken(TokenRightParen)
	case '{':
		l.addToken(TokenLeftBrace)
	case '}':
		l.addToken(TokenRightBrace)

	case '%':
		if !isDigit(l.peek()) {
			l.addToken(TokenError)
			return
		}
		for isDigit(l.peek()) {
			l.advance()
		}
		l.addToken(TokenValue)
	case '@':
		if !isIdentStart(l.peek()) {
			l.addToken(TokenError)
			return
		}
		for isIdentPart(l.peek()) {
			l.advance()
		}
		l.addToken(TokenGlobal)

	case '/':
		if l.peek() != '/' {
			l.addToken(TokenError)
			return
		}
		// Line comment
		for l.peek() != '\n' && !l.isAtEnd() {
			l.advance()
		}

	// Whitespace
	case ' ', '\r', '\t':
	case '\n':
		l.line++
		l.column = 1

	default:
		switch {
		case isDigit(c):
			l.number()
		case isIdentStart(c):
			for isIdentPart(l.peek()) {
				l.advance()
			}
			l.addToken(TokenIdent)
		default:
			l.addToken(TokenError)
		}
	}
}

// number scans a decimal or hex integer, or a BITSxCOMPONENTS size.
// Sizes never start with 0, so 0x always introduces hex.
func (l *Lexer) number() {
	if l.source[l.start] == '0' && (l.peek() == 'x' || l.peek() == 'X') {
		l.advance()
		for isHexDigit(l.peek()) {
			l.advance()
		}
		l.addToken(TokenInt)
		return
	}

	for isDigit(l.peek()) {
		l.advance()
	}
	if l.peek() == 'x' && isDigit(l.peekNext()) {
		l.advance()
		for isDigit(l.peek()) {
			l.advance()
		}
		l.addToken(TokenSize)
		return
	}
	l.addToken(TokenInt)
}

func (l *Lexer) addToken(kind TokenKind) {
	l.tokens = append(l.tokens, Token{
		Kind:   kind,
		Lexeme: l.source[l.start:l.pos],
		Line:   l.line,
		Column: l.column - (l.pos - l.start),
	})
}

func (l *Lexer) advance() byte {
	c := l.source[l.pos]
	l.pos++
	l.column++
	return c
}

func (l *Lexer) peek() byte {
	if l.isAtEnd() {
		return 0
	}
	return l.source[l.pos]
}

func (l *Lexer) peekNext() byte {
	if l.pos+1 >= len(l.source) {
		return 0
	}
	return l.source[l.pos+1]
}

func (l *Lexer) isAtEnd() bool {
	return l.pos >= len(l.source)
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isHexDigit(c byte) bool {
	return isDigit(c) || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

func isIdentStart(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || c == '_'
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || isDigit(c)
}
