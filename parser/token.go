package parser

// TokenType represents different types of lexical tokens
type TokenType int

const (
	// Special tokens
	TOKEN_EOF TokenType = iota
	TOKEN_ILLEGAL

	// Literals
	TOKEN_NUMBER // 42, 3.14, 0xff
	TOKEN_STRING // "hello", 'hello'
	TOKEN_IDENTIFIER

	// Keywords
	TOKEN_VAR
	TOKEN_LET
	TOKEN_CONST
	TOKEN_FUNCTION
	TOKEN_RETURN
	TOKEN_IF
	TOKEN_ELSE
	TOKEN_WHILE
	TOKEN_DO
	TOKEN_FOR
	TOKEN_IN
	TOKEN_BREAK
	TOKEN_CONTINUE
	TOKEN_THROW
	TOKEN_TRY
	TOKEN_CATCH
	TOKEN_FINALLY
	TOKEN_NEW
	TOKEN_DELETE
	TOKEN_TYPEOF
	TOKEN_VOID
	TOKEN_INSTANCEOF
	TOKEN_THIS
	TOKEN_NULL
	TOKEN_TRUE
	TOKEN_FALSE
	TOKEN_IMPORT
	TOKEN_EXPORT
	TOKEN_DEFAULT

	// Punctuation
	TOKEN_LPAREN    // (
	TOKEN_RPAREN    // )
	TOKEN_LBRACE    // {
	TOKEN_RBRACE    // }
	TOKEN_LBRACKET  // [
	TOKEN_RBRACKET  // ]
	TOKEN_SEMICOLON // ;
	TOKEN_COMMA     // ,
	TOKEN_DOT       // .
	TOKEN_COLON     // :
	TOKEN_QUESTION  // ?
	TOKEN_ARROW     // =>

	// Operators
	TOKEN_PLUS    // +
	TOKEN_MINUS   // -
	TOKEN_STAR    // *
	TOKEN_SLASH   // /
	TOKEN_PERCENT // %
	TOKEN_POWER   // **
	TOKEN_INC     // ++
	TOKEN_DEC     // --

	TOKEN_EQ        // ==
	TOKEN_NE        // !=
	TOKEN_STRICT_EQ // ===
	TOKEN_STRICT_NE // !==
	TOKEN_LT        // <
	TOKEN_GT        // >
	TOKEN_LE        // <=
	TOKEN_GE        // >=

	TOKEN_AND     // &&
	TOKEN_OR      // ||
	TOKEN_NULLISH // ??
	TOKEN_NOT     // !

	TOKEN_BITAND // &
	TOKEN_BITOR  // |
	TOKEN_BITXOR // ^
	TOKEN_BITNOT // ~
	TOKEN_LSHIFT // <<
	TOKEN_RSHIFT // >>
	TOKEN_URSHIFT // >>>

	TOKEN_ASSIGN         // =
	TOKEN_PLUS_ASSIGN    // +=
	TOKEN_MINUS_ASSIGN   // -=
	TOKEN_STAR_ASSIGN    // *=
	TOKEN_SLASH_ASSIGN   // /=
	TOKEN_PERCENT_ASSIGN // %=
)

var tokenNames = map[TokenType]string{
	TOKEN_EOF:        "EOF",
	TOKEN_ILLEGAL:    "ILLEGAL",
	TOKEN_NUMBER:     "NUMBER",
	TOKEN_STRING:     "STRING",
	TOKEN_IDENTIFIER: "IDENTIFIER",

	TOKEN_VAR:        "var",
	TOKEN_LET:        "let",
	TOKEN_CONST:      "const",
	TOKEN_FUNCTION:   "function",
	TOKEN_RETURN:     "return",
	TOKEN_IF:         "if",
	TOKEN_ELSE:       "else",
	TOKEN_WHILE:      "while",
	TOKEN_DO:         "do",
	TOKEN_FOR:        "for",
	TOKEN_IN:         "in",
	TOKEN_BREAK:      "break",
	TOKEN_CONTINUE:   "continue",
	TOKEN_THROW:      "throw",
	TOKEN_TRY:        "try",
	TOKEN_CATCH:      "catch",
	TOKEN_FINALLY:    "finally",
	TOKEN_NEW:        "new",
	TOKEN_DELETE:     "delete",
	TOKEN_TYPEOF:     "typeof",
	TOKEN_VOID:       "void",
	TOKEN_INSTANCEOF: "instanceof",
	TOKEN_THIS:       "this",
	TOKEN_NULL:       "null",
	TOKEN_TRUE:       "true",
	TOKEN_FALSE:      "false",
	TOKEN_IMPORT:     "import",
	TOKEN_EXPORT:     "export",
	TOKEN_DEFAULT:    "default",

	TOKEN_LPAREN:    "(",
	TOKEN_RPAREN:    ")",
	TOKEN_LBRACE:    "{",
	TOKEN_RBRACE:    "}",
	TOKEN_LBRACKET:  "[",
	TOKEN_RBRACKET:  "]",
	TOKEN_SEMICOLON: ";",
	TOKEN_COMMA:     ",",
	TOKEN_DOT:       ".",
	TOKEN_COLON:     ":",
	TOKEN_QUESTION:  "?",
	TOKEN_ARROW:     "=>",

	TOKEN_PLUS:    "+",
	TOKEN_MINUS:   "-",
	TOKEN_STAR:    "*",
	TOKEN_SLASH:   "/",
	TOKEN_PERCENT: "%",
	TOKEN_POWER:   "**",
	TOKEN_INC:     "++",
	TOKEN_DEC:     "--",

	TOKEN_EQ:        "==",
	TOKEN_NE:        "!=",
	TOKEN_STRICT_EQ: "===",
	TOKEN_STRICT_NE: "!==",
	TOKEN_LT:        "<",
	TOKEN_GT:        ">",
	TOKEN_LE:        "<=",
	TOKEN_GE:        ">=",

	TOKEN_AND:     "&&",
	TOKEN_OR:      "||",
	TOKEN_NULLISH: "??",
	TOKEN_NOT:     "!",

	TOKEN_BITAND:  "&",
	TOKEN_BITOR:   "|",
	TOKEN_BITXOR:  "^",
	TOKEN_BITNOT:  "~",
	TOKEN_LSHIFT:  "<<",
	TOKEN_RSHIFT:  ">>",
	TOKEN_URSHIFT: ">>>",

	TOKEN_ASSIGN:         "=",
	TOKEN_PLUS_ASSIGN:    "+=",
	TOKEN_MINUS_ASSIGN:   "-=",
	TOKEN_STAR_ASSIGN:    "*=",
	TOKEN_SLASH_ASSIGN:   "/=",
	TOKEN_PERCENT_ASSIGN: "%=",
}

// String returns the source spelling of the token type
func (t TokenType) String() string {
	if s, ok := tokenNames[t]; ok {
		return s
	}
	return "UNKNOWN"
}

// keywords maps reserved words to their token types
var keywords = map[string]TokenType{
	"var":        TOKEN_VAR,
	"let":        TOKEN_LET,
	"const":      TOKEN_CONST,
	"function":   TOKEN_FUNCTION,
	"return":     TOKEN_RETURN,
	"if":         TOKEN_IF,
	"else":       TOKEN_ELSE,
	"while":      TOKEN_WHILE,
	"do":         TOKEN_DO,
	"for":        TOKEN_FOR,
	"in":         TOKEN_IN,
	"break":      TOKEN_BREAK,
	"continue":   TOKEN_CONTINUE,
	"throw":      TOKEN_THROW,
	"try":        TOKEN_TRY,
	"catch":      TOKEN_CATCH,
	"finally":    TOKEN_FINALLY,
	"new":        TOKEN_NEW,
	"delete":     TOKEN_DELETE,
	"typeof":     TOKEN_TYPEOF,
	"void":       TOKEN_VOID,
	"instanceof": TOKEN_INSTANCEOF,
	"this":       TOKEN_THIS,
	"null":       TOKEN_NULL,
	"true":       TOKEN_TRUE,
	"false":      TOKEN_FALSE,
	"import":     TOKEN_IMPORT,
	"export":     TOKEN_EXPORT,
	"default":    TOKEN_DEFAULT,
}

// LookupIdent returns the keyword token type for ident, or TOKEN_IDENTIFIER
func LookupIdent(ident string) TokenType {
	if tok, ok := keywords[ident]; ok {
		return tok
	}
	return TOKEN_IDENTIFIER
}

// Position represents a location in source code
type Position struct {
	Line   int // 1-based line number
	Column int // 1-based column number
	Offset int // 0-based byte offset
}

// Token represents a lexical token
type Token struct {
	Type          TokenType
	Value         string // identifier name, decoded string, number literal text
	Position      Position
	NewlineBefore bool // a line terminator precedes the token
}
