package parser

import (
	"strconv"
	"strings"
	"unicode/utf8"
)

// Lexer tokenizes script source code
type Lexer struct {
	input        string
	position     int  // current position in input (points to current char)
	readPosition int  // current reading position in input (after current char)
	ch           byte // current char under examination
	line         int
	column       int
	newline      bool // a line terminator was skipped before the current token
}

// NewLexer creates a new Lexer instance
func NewLexer(input string) *Lexer {
	l := &Lexer{
		input:  input,
		line:   1,
		column: 0,
	}
	l.readChar()
	return l
}

// readChar reads the next character and advances position
func (l *Lexer) readChar() {
	if l.ch == '\n' {
		l.line++
		l.column = 0
	}
	if l.readPosition >= len(l.input) {
		l.ch = 0 // ASCII NUL
	} else {
		l.ch = l.input[l.readPosition]
	}
	l.position = l.readPosition
	l.readPosition++
	l.column++
}

// peekChar returns the next character without advancing
func (l *Lexer) peekChar() byte {
	if l.readPosition >= len(l.input) {
		return 0
	}
	return l.input[l.readPosition]
}

// atEOF reports whether the whole input has been consumed
func (l *Lexer) atEOF() bool {
	return l.position >= len(l.input)
}

// skipWhitespace skips whitespace and comments, noting line terminators
func (l *Lexer) skipWhitespace() *Token {
	for {
		switch {
		case l.ch == '\n':
			l.newline = true
			l.readChar()
		case l.ch == ' ' || l.ch == '\t' || l.ch == '\r' || l.ch == '\f' || l.ch == '\v':
			l.readChar()
		case l.ch == '/' && l.peekChar() == '/':
			for l.ch != '\n' && !l.atEOF() {
				l.readChar()
			}
		case l.ch == '/' && l.peekChar() == '*':
			start := l.pos()
			l.readChar()
			l.readChar()
			for !(l.ch == '*' && l.peekChar() == '/') {
				if l.atEOF() {
					return &Token{Type: TOKEN_ILLEGAL, Value: "unterminated comment", Position: start}
				}
				if l.ch == '\n' {
					l.newline = true
				}
				l.readChar()
			}
			l.readChar()
			l.readChar()
		default:
			return nil
		}
	}
}

func (l *Lexer) pos() Position {
	return Position{Line: l.line, Column: l.column, Offset: l.position}
}

// NextToken returns the next token from the input
func (l *Lexer) NextToken() Token {
	l.newline = false
	if bad := l.skipWhitespace(); bad != nil {
		return *bad
	}

	tok := Token{Position: l.pos(), NewlineBefore: l.newline}

	if l.atEOF() {
		tok.Type = TOKEN_EOF
		return tok
	}

	switch l.ch {
	case '"', '\'':
		return l.readString(tok)
	case '(':
		tok.Type = TOKEN_LPAREN
	case ')':
		tok.Type = TOKEN_RPAREN
	case '{':
		tok.Type = TOKEN_LBRACE
	case '}':
		tok.Type = TOKEN_RBRACE
	case '[':
		tok.Type = TOKEN_LBRACKET
	case ']':
		tok.Type = TOKEN_RBRACKET
	case ';':
		tok.Type = TOKEN_SEMICOLON
	case ',':
		tok.Type = TOKEN_COMMA
	case ':':
		tok.Type = TOKEN_COLON
	case '~':
		tok.Type = TOKEN_BITNOT
	case '.':
		if isDigit(l.peekChar()) {
			return l.readNumber(tok)
		}
		tok.Type = TOKEN_DOT
	case '?':
		tok.Type = l.either('?', TOKEN_NULLISH, TOKEN_QUESTION)
	case '+':
		tok.Type = l.pick(TOKEN_PLUS, '+', TOKEN_INC, '=', TOKEN_PLUS_ASSIGN)
	case '-':
		tok.Type = l.pick(TOKEN_MINUS, '-', TOKEN_DEC, '=', TOKEN_MINUS_ASSIGN)
	case '*':
		tok.Type = l.pick(TOKEN_STAR, '*', TOKEN_POWER, '=', TOKEN_STAR_ASSIGN)
	case '/':
		tok.Type = l.either('=', TOKEN_SLASH_ASSIGN, TOKEN_SLASH)
	case '%':
		tok.Type = l.either('=', TOKEN_PERCENT_ASSIGN, TOKEN_PERCENT)
	case '^':
		tok.Type = TOKEN_BITXOR
	case '&':
		tok.Type = l.either('&', TOKEN_AND, TOKEN_BITAND)
	case '|':
		tok.Type = l.either('|', TOKEN_OR, TOKEN_BITOR)
	case '=':
		switch {
		case l.peekChar() == '>':
			l.readChar()
			tok.Type = TOKEN_ARROW
		case l.peekChar() == '=':
			l.readChar()
			tok.Type = l.either('=', TOKEN_STRICT_EQ, TOKEN_EQ)
		default:
			tok.Type = TOKEN_ASSIGN
		}
	case '!':
		if l.peekChar() == '=' {
			l.readChar()
			tok.Type = l.either('=', TOKEN_STRICT_NE, TOKEN_NE)
		} else {
			tok.Type = TOKEN_NOT
		}
	case '<':
		tok.Type = l.pick(TOKEN_LT, '<', TOKEN_LSHIFT, '=', TOKEN_LE)
	case '>':
		switch l.peekChar() {
		case '=':
			l.readChar()
			tok.Type = TOKEN_GE
		case '>':
			l.readChar()
			tok.Type = l.either('>', TOKEN_URSHIFT, TOKEN_RSHIFT)
		default:
			tok.Type = TOKEN_GT
		}
	default:
		if isDigit(l.ch) {
			return l.readNumber(tok)
		}
		if isIdentStart(l.ch) {
			tok.Value = l.readIdentifier()
			tok.Type = LookupIdent(tok.Value)
			return tok
		}
		r, _ := utf8.DecodeRuneInString(l.input[l.position:])
		tok.Type = TOKEN_ILLEGAL
		tok.Value = "unexpected character " + strconv.QuoteRune(r)
		l.readChar()
		return tok
	}

	tok.Value = tok.Type.String()
	l.readChar()
	return tok
}

// either consumes next if it matches and returns yes, otherwise no
func (l *Lexer) either(next byte, yes, no TokenType) TokenType {
	if l.peekChar() == next {
		l.readChar()
		return yes
	}
	return no
}

// pick chooses between a single-char token and two two-char spellings
func (l *Lexer) pick(single TokenType, c1 byte, t1 TokenType, c2 byte, t2 TokenType) TokenType {
	switch l.peekChar() {
	case c1:
		l.readChar()
		return t1
	case c2:
		l.readChar()
		return t2
	}
	return single
}

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}

func isIdentStart(ch byte) bool {
	return ch == '_' || ch == '$' || (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') || ch >= 0x80
}

func isIdentPart(ch byte) bool {
	return isIdentStart(ch) || isDigit(ch)
}

// readIdentifier reads an identifier or keyword
func (l *Lexer) readIdentifier() string {
	start := l.position
	for isIdentPart(l.ch) && !l.atEOF() {
		l.readChar()
	}
	return l.input[start:l.position]
}

// readNumber reads decimal, hex, octal and binary literals. The token value
// is the decimal text of the parsed number.
func (l *Lexer) readNumber(tok Token) Token {
	start := l.position
	tok.Type = TOKEN_NUMBER

	if l.ch == '0' {
		base := 0
		switch l.peekChar() {
		case 'x', 'X':
			base = 16
		case 'o', 'O':
			base = 8
		case 'b', 'B':
			base = 2
		}
		if base != 0 {
			l.readChar()
			l.readChar()
			digits := l.position
			for isHexDigit(l.ch) {
				l.readChar()
			}
			n, err := strconv.ParseUint(l.input[digits:l.position], base, 64)
			if err != nil {
				tok.Type = TOKEN_ILLEGAL
				tok.Value = "invalid number literal " + l.input[start:l.position]
				return tok
			}
			tok.Value = strconv.FormatUint(n, 10)
			return tok
		}
	}

	for isDigit(l.ch) {
		l.readChar()
	}
	if l.ch == '.' {
		l.readChar()
		for isDigit(l.ch) {
			l.readChar()
		}
	}
	if l.ch == 'e' || l.ch == 'E' {
		next := l.peekChar()
		if isDigit(next) || next == '+' || next == '-' {
			l.readChar()
			if l.ch == '+' || l.ch == '-' {
				l.readChar()
			}
			for isDigit(l.ch) {
				l.readChar()
			}
		}
	}
	if isIdentStart(l.ch) {
		tok.Type = TOKEN_ILLEGAL
		tok.Value = "invalid number literal " + l.input[start:l.position+1]
		return tok
	}
	tok.Value = l.input[start:l.position]
	return tok
}

func isHexDigit(ch byte) bool {
	return isDigit(ch) || (ch >= 'a' && ch <= 'f') || (ch >= 'A' && ch <= 'F')
}

// readString reads a quoted string literal, decoding escapes
func (l *Lexer) readString(tok Token) Token {
	quote := l.ch
	l.readChar()

	var b strings.Builder
	for l.ch != quote {
		if l.atEOF() || l.ch == '\n' {
			tok.Type = TOKEN_ILLEGAL
			tok.Value = "unterminated string literal"
			return tok
		}
		if l.ch != '\\' {
			b.WriteByte(l.ch)
			l.readChar()
			continue
		}

		l.readChar()
		switch l.ch {
		case 'n':
			b.WriteByte('\n')
		case 't':
			b.WriteByte('\t')
		case 'r':
			b.WriteByte('\r')
		case 'b':
			b.WriteByte('\b')
		case 'f':
			b.WriteByte('\f')
		case 'v':
			b.WriteByte('\v')
		case '0':
			b.WriteByte(0)
		case '\n':
			// line continuation
		case 'x', 'u':
			n := 2
			if l.ch == 'u' {
				n = 4
			}
			if l.readPosition+n > len(l.input) {
				tok.Type = TOKEN_ILLEGAL
				tok.Value = "invalid escape sequence"
				return tok
			}
			code, err := strconv.ParseUint(l.input[l.readPosition:l.readPosition+n], 16, 32)
			if err != nil {
				tok.Type = TOKEN_ILLEGAL
				tok.Value = "invalid escape sequence"
				return tok
			}
			for i := 0; i < n; i++ {
				l.readChar()
			}
			b.WriteRune(rune(code))
		default:
			b.WriteByte(l.ch)
		}
		l.readChar()
	}
	l.readChar() // closing quote

	tok.Type = TOKEN_STRING
	tok.Value = b.String()
	return tok
}

// Tokenize returns every token of input, ending with TOKEN_EOF or the first
// TOKEN_ILLEGAL
func Tokenize(input string) []Token {
	l := NewLexer(input)
	var toks []Token
	for {
		tok := l.NextToken()
		toks = append(toks, tok)
		if tok.Type == TOKEN_EOF || tok.Type == TOKEN_ILLEGAL {
			return toks
		}
	}
}
