package parser

import "testing"

func TestLexerTokens(t *testing.T) {
	tests := []struct {
		input string
		want  []TokenType
	}{
		{"42", []TokenType{TOKEN_NUMBER, TOKEN_EOF}},
		{"a === b", []TokenType{TOKEN_IDENTIFIER, TOKEN_STRICT_EQ, TOKEN_IDENTIFIER, TOKEN_EOF}},
		{"x !== y != z", []TokenType{TOKEN_IDENTIFIER, TOKEN_STRICT_NE, TOKEN_IDENTIFIER, TOKEN_NE, TOKEN_IDENTIFIER, TOKEN_EOF}},
		{"a ?? b ? c : d", []TokenType{TOKEN_IDENTIFIER, TOKEN_NULLISH, TOKEN_IDENTIFIER, TOKEN_QUESTION, TOKEN_IDENTIFIER, TOKEN_COLON, TOKEN_IDENTIFIER, TOKEN_EOF}},
		{"(x) => x ** 2", []TokenType{TOKEN_LPAREN, TOKEN_IDENTIFIER, TOKEN_RPAREN, TOKEN_ARROW, TOKEN_IDENTIFIER, TOKEN_POWER, TOKEN_NUMBER, TOKEN_EOF}},
		{"i++ + --j", []TokenType{TOKEN_IDENTIFIER, TOKEN_INC, TOKEN_PLUS, TOKEN_DEC, TOKEN_IDENTIFIER, TOKEN_EOF}},
		{"a >>> 1 >> 2 << 3", []TokenType{TOKEN_IDENTIFIER, TOKEN_URSHIFT, TOKEN_NUMBER, TOKEN_RSHIFT, TOKEN_NUMBER, TOKEN_LSHIFT, TOKEN_NUMBER, TOKEN_EOF}},
		{"x += 1; y %= 2", []TokenType{TOKEN_IDENTIFIER, TOKEN_PLUS_ASSIGN, TOKEN_NUMBER, TOKEN_SEMICOLON, TOKEN_IDENTIFIER, TOKEN_PERCENT_ASSIGN, TOKEN_NUMBER, TOKEN_EOF}},
		{"typeof x instanceof Y", []TokenType{TOKEN_TYPEOF, TOKEN_IDENTIFIER, TOKEN_INSTANCEOF, TOKEN_IDENTIFIER, TOKEN_EOF}},
		{"a /* c */ // tail\n b", []TokenType{TOKEN_IDENTIFIER, TOKEN_IDENTIFIER, TOKEN_EOF}},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			toks := Tokenize(tt.input)
			if len(toks) != len(tt.want) {
				t.Fatalf("got %d tokens, want %d: %v", len(toks), len(tt.want), toks)
			}
			for i, tok := range toks {
				if tok.Type != tt.want[i] {
					t.Errorf("token %d: got %s, want %s", i, tok.Type, tt.want[i])
				}
			}
		})
	}
}

func TestLexerNumbers(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"0", "0"},
		{"3.25", "3.25"},
		{".5", ".5"},
		{"1e3", "1e3"},
		{"0xff", "255"},
		{"0b101", "5"},
		{"0o17", "15"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			tok := NewLexer(tt.input).NextToken()
			if tok.Type != TOKEN_NUMBER || tok.Value != tt.want {
				t.Errorf("got %s %q, want NUMBER %q", tok.Type, tok.Value, tt.want)
			}
		})
	}
}

func TestLexerStrings(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{`"hello"`, "hello"},
		{`'single'`, "single"},
		{`"a\nb"`, "a\nb"},
		{`"q\"q"`, `q"q`},
		{`"\x41é"`, "Aé"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			tok := NewLexer(tt.input).NextToken()
			if tok.Type != TOKEN_STRING || tok.Value != tt.want {
				t.Errorf("got %s %q, want STRING %q", tok.Type, tok.Value, tt.want)
			}
		})
	}
}

func TestLexerPositions(t *testing.T) {
	toks := Tokenize("a\n  bb")
	if toks[0].Position.Line != 1 || toks[0].Position.Column != 1 {
		t.Errorf("first token at %+v", toks[0].Position)
	}
	if toks[1].Position.Line != 2 || toks[1].Position.Column != 3 {
		t.Errorf("second token at %+v, want line 2 column 3", toks[1].Position)
	}
	if !toks[1].NewlineBefore {
		t.Error("NewlineBefore not set after line break")
	}
}

func TestLexerErrors(t *testing.T) {
	for _, input := range []string{`"open`, "/* open", "@", "12abc"} {
		t.Run(input, func(t *testing.T) {
			toks := Tokenize(input)
			last := toks[len(toks)-1]
			if last.Type != TOKEN_ILLEGAL {
				t.Errorf("expected ILLEGAL, got %s", last.Type)
			}
		})
	}
}
