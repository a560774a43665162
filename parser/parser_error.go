package parser

import "fmt"

// SyntaxError is returned for source that cannot be compiled
type SyntaxError struct {
	Message string
	File    string
	Pos     Position
}

func (e *SyntaxError) Error() string {
	file := e.File
	if file == "" {
		file = "main"
	}
	return fmt.Sprintf("SyntaxError: %s in %s:%d", e.Message, file, e.Pos.Line)
}

// errorf builds a SyntaxError at the current token
func (p *Parser) errorf(format string, args ...interface{}) error {
	return &SyntaxError{
		Message: fmt.Sprintf(format, args...),
		File:    p.file,
		Pos:     p.current.Position,
	}
}

// unexpected reports the current token as unexpected
func (p *Parser) unexpected() error {
	switch p.current.Type {
	case TOKEN_EOF:
		return p.errorf("Unexpected end of input")
	case TOKEN_ILLEGAL:
		return p.errorf("%s", p.current.Value)
	case TOKEN_IDENTIFIER, TOKEN_NUMBER:
		return p.errorf("Unexpected token \"%s\"", p.current.Value)
	case TOKEN_STRING:
		return p.errorf("Unexpected string")
	}
	return p.errorf("Unexpected token \"%s\"", p.current.Type)
}
