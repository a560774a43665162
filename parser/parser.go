package parser

// Parser parses script source into an AST
type Parser struct {
	tokens  []Token
	pos     int
	current Token
	peek    Token
	file    string
	mode    Mode

	funcDepth int      // nesting of function bodies
	loopDepth int      // loops enclosing the current statement in this function
	labels    []string // labels enclosing the current statement in this function
	noIn      bool     // the in operator is disabled (for-statement heads)
}

// NewParser creates a new Parser instance
func NewParser(input string) *Parser {
	p := &Parser{
		tokens: Tokenize(input),
		pos:    -1,
	}
	p.nextToken()
	return p
}

// Parse parses a complete compilation unit
func Parse(input, file string, mode Mode) (*Program, error) {
	p := NewParser(input)
	p.file = file
	p.mode = mode
	return p.ParseProgram()
}

// nextToken advances to the next token
func (p *Parser) nextToken() {
	if p.pos < len(p.tokens)-1 {
		p.pos++
	}
	p.current = p.tokens[p.pos]
	p.peek = p.tokenAt(p.pos + 1)
}

// tokenAt returns the token at index i, clamped to the final token
func (p *Parser) tokenAt(i int) Token {
	if i >= len(p.tokens) {
		return p.tokens[len(p.tokens)-1]
	}
	return p.tokens[i]
}

// expect consumes a token of type t or fails
func (p *Parser) expect(t TokenType) error {
	if p.current.Type != t {
		return p.unexpected()
	}
	p.nextToken()
	return nil
}

// expectIdent consumes an identifier and returns its name
func (p *Parser) expectIdent() (string, error) {
	if p.current.Type != TOKEN_IDENTIFIER {
		return "", p.unexpected()
	}
	name := p.current.Value
	p.nextToken()
	return name, nil
}

// isContextual reports whether the current token is the identifier word
func (p *Parser) isContextual(word string) bool {
	return p.current.Type == TOKEN_IDENTIFIER && p.current.Value == word
}

// isPropertyName reports whether the current token can name a property
// after a dot: identifiers and reserved words both qualify
func (p *Parser) isPropertyName() bool {
	if p.current.Type == TOKEN_IDENTIFIER {
		return true
	}
	_, reserved := keywords[p.current.Value]
	return reserved && p.current.Type == keywords[p.current.Value]
}

// consumeSemicolon applies automatic semicolon insertion
func (p *Parser) consumeSemicolon() error {
	switch {
	case p.current.Type == TOKEN_SEMICOLON:
		p.nextToken()
		return nil
	case p.current.Type == TOKEN_RBRACE, p.current.Type == TOKEN_EOF, p.current.NewlineBefore:
		return nil
	}
	return p.unexpected()
}

// ParseProgram parses a complete program (sequence of statements)
func (p *Parser) ParseProgram() (*Program, error) {
	prog := &Program{Mode: p.mode}

	for p.current.Type != TOKEN_EOF {
		var stmt Stmt
		var err error
		switch p.current.Type {
		case TOKEN_IMPORT:
			stmt, err = p.parseImportStatement()
		case TOKEN_EXPORT:
			stmt, err = p.parseExportStatement()
		default:
			stmt, err = p.parseStatement()
		}
		if err != nil {
			return nil, err
		}
		prog.Body = append(prog.Body, stmt)
	}

	return prog, nil
}
