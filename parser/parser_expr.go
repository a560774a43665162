package parser

import "strconv"

// Operator precedence levels (higher = tighter binding)
const (
	PREC_LOWEST     = iota
	PREC_ASSIGN     // = += -=
	PREC_TERNARY    // ? :
	PREC_NULLISH    // ??
	PREC_OR         // ||
	PREC_AND        // &&
	PREC_BITOR      // |
	PREC_BITXOR     // ^
	PREC_BITAND     // &
	PREC_EQUALITY   // == != === !==
	PREC_COMPARISON // < <= > >= in instanceof
	PREC_SHIFT      // << >> >>>
	PREC_ADDITIVE   // + -
	PREC_MULTIPLY   // * / %
	PREC_EXPONENT   // **
	PREC_UNARY      // - ! ~ typeof
)

// infixPrecedence returns the binding power of an infix operator, or
// PREC_LOWEST when t does not continue an expression
func (p *Parser) infixPrecedence(t TokenType) int {
	switch t {
	case TOKEN_ASSIGN, TOKEN_PLUS_ASSIGN, TOKEN_MINUS_ASSIGN, TOKEN_STAR_ASSIGN,
		TOKEN_SLASH_ASSIGN, TOKEN_PERCENT_ASSIGN:
		return PREC_ASSIGN
	case TOKEN_QUESTION:
		return PREC_TERNARY
	case TOKEN_NULLISH:
		return PREC_NULLISH
	case TOKEN_OR:
		return PREC_OR
	case TOKEN_AND:
		return PREC_AND
	case TOKEN_BITOR:
		return PREC_BITOR
	case TOKEN_BITXOR:
		return PREC_BITXOR
	case TOKEN_BITAND:
		return PREC_BITAND
	case TOKEN_EQ, TOKEN_NE, TOKEN_STRICT_EQ, TOKEN_STRICT_NE:
		return PREC_EQUALITY
	case TOKEN_LT, TOKEN_GT, TOKEN_LE, TOKEN_GE, TOKEN_INSTANCEOF:
		return PREC_COMPARISON
	case TOKEN_IN:
		if p.noIn {
			return PREC_LOWEST
		}
		return PREC_COMPARISON
	case TOKEN_LSHIFT, TOKEN_RSHIFT, TOKEN_URSHIFT:
		return PREC_SHIFT
	case TOKEN_PLUS, TOKEN_MINUS:
		return PREC_ADDITIVE
	case TOKEN_STAR, TOKEN_SLASH, TOKEN_PERCENT:
		return PREC_MULTIPLY
	case TOKEN_POWER:
		return PREC_EXPONENT
	}
	return PREC_LOWEST
}

// parseSequence parses comma-separated expressions
func (p *Parser) parseSequence() (Expr, error) {
	pos := p.current.Position
	first, err := p.ParseExpression(PREC_LOWEST)
	if err != nil {
		return nil, err
	}
	if p.current.Type != TOKEN_COMMA {
		return first, nil
	}

	seq := &SequenceExpr{Pos: pos, Exprs: []Expr{first}}
	for p.current.Type == TOKEN_COMMA {
		p.nextToken()
		next, err := p.ParseExpression(PREC_LOWEST)
		if err != nil {
			return nil, err
		}
		seq.Exprs = append(seq.Exprs, next)
	}
	return seq, nil
}

// ParseExpression parses an expression whose operators bind tighter than prec
func (p *Parser) ParseExpression(prec int) (Expr, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}

	for {
		op := p.current.Type
		opPrec := p.infixPrecedence(op)
		if opPrec <= prec {
			return left, nil
		}
		pos := p.current.Position

		switch {
		case opPrec == PREC_ASSIGN:
			switch left.(type) {
			case *IdentifierExpr, *MemberExpr, *IndexExpr:
			default:
				return nil, p.errorf("Invalid left-hand side in assignment")
			}
			p.nextToken()
			value, err := p.ParseExpression(PREC_LOWEST)
			if err != nil {
				return nil, err
			}
			left = &AssignExpr{Pos: pos, Operator: op, Target: left, Value: value}

		case op == TOKEN_QUESTION:
			p.nextToken()
			noIn := p.noIn
			p.noIn = false
			then, err := p.ParseExpression(PREC_LOWEST)
			p.noIn = noIn
			if err != nil {
				return nil, err
			}
			if err := p.expect(TOKEN_COLON); err != nil {
				return nil, err
			}
			els, err := p.ParseExpression(PREC_LOWEST)
			if err != nil {
				return nil, err
			}
			left = &TernaryExpr{Pos: pos, Condition: left, ThenExpr: then, ElseExpr: els}

		case op == TOKEN_AND || op == TOKEN_OR || op == TOKEN_NULLISH:
			p.nextToken()
			right, err := p.ParseExpression(opPrec)
			if err != nil {
				return nil, err
			}
			left = &LogicalExpr{Pos: pos, Left: left, Operator: op, Right: right}

		case op == TOKEN_POWER:
			p.nextToken()
			right, err := p.ParseExpression(opPrec - 1) // right associative
			if err != nil {
				return nil, err
			}
			left = &BinaryExpr{Pos: pos, Left: left, Operator: op, Right: right}

		default:
			p.nextToken()
			right, err := p.ParseExpression(opPrec)
			if err != nil {
				return nil, err
			}
			left = &BinaryExpr{Pos: pos, Left: left, Operator: op, Right: right}
		}
	}
}

// parseUnary parses prefix operators
func (p *Parser) parseUnary() (Expr, error) {
	pos := p.current.Position
	op := p.current.Type

	switch op {
	case TOKEN_MINUS, TOKEN_PLUS, TOKEN_NOT, TOKEN_BITNOT, TOKEN_TYPEOF, TOKEN_VOID, TOKEN_DELETE:
		p.nextToken()
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		if op == TOKEN_DELETE {
			switch operand.(type) {
			case *MemberExpr, *IndexExpr, *IdentifierExpr:
			default:
				return nil, p.errorf("Invalid delete operand")
			}
		}
		return &UnaryExpr{Pos: pos, Operator: op, Operand: operand}, nil

	case TOKEN_INC, TOKEN_DEC:
		p.nextToken()
		target, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		if !isAssignable(target) {
			return nil, p.errorf("Invalid left-hand side in prefix operation")
		}
		return &UpdateExpr{Pos: pos, Operator: op, Prefix: true, Target: target}, nil
	}

	expr, err := p.parsePostfix()
	if err != nil {
		return nil, err
	}
	if (p.current.Type == TOKEN_INC || p.current.Type == TOKEN_DEC) && !p.current.NewlineBefore {
		if !isAssignable(expr) {
			return nil, p.errorf("Invalid left-hand side in postfix operation")
		}
		op := p.current.Type
		p.nextToken()
		return &UpdateExpr{Pos: pos, Operator: op, Target: expr}, nil
	}
	return expr, nil
}

func isAssignable(e Expr) bool {
	switch e.(type) {
	case *IdentifierExpr, *MemberExpr, *IndexExpr:
		return true
	}
	return false
}

// parsePostfix parses member access, indexing and calls
func (p *Parser) parsePostfix() (Expr, error) {
	var expr Expr
	var err error
	if p.current.Type == TOKEN_NEW {
		expr, err = p.parseNew()
	} else {
		expr, err = p.parsePrimary()
	}
	if err != nil {
		return nil, err
	}

	for {
		pos := p.current.Position
		switch p.current.Type {
		case TOKEN_DOT, TOKEN_LBRACKET:
			expr, err = p.parseMember(expr)
			if err != nil {
				return nil, err
			}
		case TOKEN_LPAREN:
			args, err := p.parseArguments()
			if err != nil {
				return nil, err
			}
			expr = &CallExpr{Pos: pos, Callee: expr, Args: args}
		default:
			return expr, nil
		}
	}
}

// parseMember parses one .name or [expr] suffix
func (p *Parser) parseMember(obj Expr) (Expr, error) {
	pos := p.current.Position
	if p.current.Type == TOKEN_DOT {
		p.nextToken()
		if !p.isPropertyName() {
			return nil, p.unexpected()
		}
		name := p.current.Value
		p.nextToken()
		return &MemberExpr{Pos: pos, Object: obj, Name: name}, nil
	}

	p.nextToken() // consume '['
	noIn := p.noIn
	p.noIn = false
	index, err := p.parseSequence()
	p.noIn = noIn
	if err != nil {
		return nil, err
	}
	if err := p.expect(TOKEN_RBRACKET); err != nil {
		return nil, err
	}
	return &IndexExpr{Pos: pos, Object: obj, Index: index}, nil
}

// parseNew parses new Callee[(args)]
func (p *Parser) parseNew() (Expr, error) {
	pos := p.current.Position
	p.nextToken() // consume 'new'

	var callee Expr
	var err error
	if p.current.Type == TOKEN_NEW {
		callee, err = p.parseNew()
	} else {
		callee, err = p.parsePrimary()
	}
	if err != nil {
		return nil, err
	}
	for p.current.Type == TOKEN_DOT || p.current.Type == TOKEN_LBRACKET {
		callee, err = p.parseMember(callee)
		if err != nil {
			return nil, err
		}
	}

	var args []Expr
	if p.current.Type == TOKEN_LPAREN {
		args, err = p.parseArguments()
		if err != nil {
			return nil, err
		}
	}
	return &NewExpr{Pos: pos, Callee: callee, Args: args}, nil
}

// parseArguments parses (a, b, c)
func (p *Parser) parseArguments() ([]Expr, error) {
	p.nextToken() // consume '('
	noIn := p.noIn
	p.noIn = false
	defer func() { p.noIn = noIn }()

	args := []Expr{}
	for p.current.Type != TOKEN_RPAREN {
		arg, err := p.ParseExpression(PREC_LOWEST)
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
		if p.current.Type != TOKEN_COMMA {
			break
		}
		p.nextToken()
	}
	if err := p.expect(TOKEN_RPAREN); err != nil {
		return nil, err
	}
	return args, nil
}

// parsePrimary parses literals, identifiers, grouping and function literals
func (p *Parser) parsePrimary() (Expr, error) {
	pos := p.current.Position

	switch p.current.Type {
	case TOKEN_NUMBER:
		f, err := strconv.ParseFloat(p.current.Value, 64)
		if err != nil {
			return nil, p.errorf("invalid number literal %s", p.current.Value)
		}
		p.nextToken()
		return &NumberLiteral{Pos: pos, Value: f}, nil

	case TOKEN_STRING:
		s := p.current.Value
		p.nextToken()
		return &StringLiteral{Pos: pos, Value: s}, nil

	case TOKEN_TRUE, TOKEN_FALSE:
		b := p.current.Type == TOKEN_TRUE
		p.nextToken()
		return &BoolLiteral{Pos: pos, Value: b}, nil

	case TOKEN_NULL:
		p.nextToken()
		return &NullLiteral{Pos: pos}, nil

	case TOKEN_THIS:
		p.nextToken()
		return &ThisExpr{Pos: pos}, nil

	case TOKEN_IDENTIFIER:
		if p.peek.Type == TOKEN_ARROW && !p.peek.NewlineBefore {
			param := p.current.Value
			p.nextToken() // param
			p.nextToken() // =>
			return p.parseArrowBody(pos, []string{param})
		}
		name := p.current.Value
		p.nextToken()
		return &IdentifierExpr{Pos: pos, Name: name}, nil

	case TOKEN_LPAREN:
		if p.isArrowHead() {
			params, err := p.parseParams()
			if err != nil {
				return nil, err
			}
			if err := p.expect(TOKEN_ARROW); err != nil {
				return nil, err
			}
			return p.parseArrowBody(pos, params)
		}
		p.nextToken()
		noIn := p.noIn
		p.noIn = false
		expr, err := p.parseSequence()
		p.noIn = noIn
		if err != nil {
			return nil, err
		}
		if err := p.expect(TOKEN_RPAREN); err != nil {
			return nil, err
		}
		return expr, nil

	case TOKEN_LBRACKET:
		return p.parseArrayLiteral()

	case TOKEN_LBRACE:
		return p.parseObjectLiteral()

	case TOKEN_FUNCTION:
		return p.parseFunction()
	}

	return nil, p.unexpected()
}

// isArrowHead scans from the current '(' to its matching ')' and reports
// whether an arrow follows
func (p *Parser) isArrowHead() bool {
	depth := 0
	for i := p.pos; i < len(p.tokens); i++ {
		switch p.tokens[i].Type {
		case TOKEN_LPAREN:
			depth++
		case TOKEN_RPAREN:
			depth--
			if depth == 0 {
				next := p.tokenAt(i + 1)
				return next.Type == TOKEN_ARROW && !next.NewlineBefore
			}
		case TOKEN_EOF, TOKEN_ILLEGAL:
			return false
		}
	}
	return false
}

// parseParams parses (a, b, c) as a parameter list
func (p *Parser) parseParams() ([]string, error) {
	if err := p.expect(TOKEN_LPAREN); err != nil {
		return nil, err
	}
	params := []string{}
	for p.current.Type != TOKEN_RPAREN {
		name, err := p.expectIdent()
		if err != nil {
			return nil, err
		}
		for _, seen := range params {
			if seen == name {
				return nil, p.errorf("Duplicate parameter name \"%s\"", name)
			}
		}
		params = append(params, name)
		if p.current.Type != TOKEN_COMMA {
			break
		}
		p.nextToken()
	}
	if err := p.expect(TOKEN_RPAREN); err != nil {
		return nil, err
	}
	return params, nil
}

// parseFunctionBody parses { body } with fresh loop and label state
func (p *Parser) parseFunctionBody() ([]Stmt, error) {
	loopDepth, labels, noIn := p.loopDepth, p.labels, p.noIn
	p.funcDepth++
	p.loopDepth, p.labels, p.noIn = 0, nil, false
	defer func() {
		p.funcDepth--
		p.loopDepth, p.labels, p.noIn = loopDepth, labels, noIn
	}()
	return p.parseBlock()
}

// parseFunction parses function [name](params) { body }
func (p *Parser) parseFunction() (*FunctionExpr, error) {
	fn := &FunctionExpr{Pos: p.current.Position}
	p.nextToken() // consume 'function'

	if p.current.Type == TOKEN_IDENTIFIER {
		fn.Name = p.current.Value
		p.nextToken()
	}

	var err error
	fn.Params, err = p.parseParams()
	if err != nil {
		return nil, err
	}
	fn.Body, err = p.parseFunctionBody()
	if err != nil {
		return nil, err
	}
	return fn, nil
}

// parseArrowBody parses the body after =>
func (p *Parser) parseArrowBody(pos Position, params []string) (Expr, error) {
	fn := &FunctionExpr{Pos: pos, Params: params, Arrow: true}

	if p.current.Type == TOKEN_LBRACE {
		body, err := p.parseFunctionBody()
		if err != nil {
			return nil, err
		}
		fn.Body = body
		return fn, nil
	}

	bodyPos := p.current.Position
	p.funcDepth++
	value, err := p.ParseExpression(PREC_LOWEST)
	p.funcDepth--
	if err != nil {
		return nil, err
	}
	fn.Body = []Stmt{&ReturnStmt{Pos: bodyPos, Value: value}}
	return fn, nil
}

// parseArrayLiteral parses [a, b, c]
func (p *Parser) parseArrayLiteral() (Expr, error) {
	arr := &ArrayExpr{Pos: p.current.Position, Elements: []Expr{}}
	p.nextToken() // consume '['
	noIn := p.noIn
	p.noIn = false
	defer func() { p.noIn = noIn }()

	for p.current.Type != TOKEN_RBRACKET {
		if p.current.Type == TOKEN_COMMA {
			// hole
			arr.Elements = append(arr.Elements, nil)
			p.nextToken()
			continue
		}
		elem, err := p.ParseExpression(PREC_LOWEST)
		if err != nil {
			return nil, err
		}
		arr.Elements = append(arr.Elements, elem)
		if p.current.Type != TOKEN_COMMA {
			break
		}
		p.nextToken()
	}
	if err := p.expect(TOKEN_RBRACKET); err != nil {
		return nil, err
	}
	return arr, nil
}

// parseObjectLiteral parses { key: value, shorthand, method() {} }
func (p *Parser) parseObjectLiteral() (Expr, error) {
	obj := &ObjectExpr{Pos: p.current.Position}
	p.nextToken() // consume '{'
	noIn := p.noIn
	p.noIn = false
	defer func() { p.noIn = noIn }()

	for p.current.Type != TOKEN_RBRACE {
		var prop ObjectProperty
		keyTok := p.current

		switch {
		case keyTok.Type == TOKEN_LBRACKET:
			p.nextToken()
			key, err := p.ParseExpression(PREC_LOWEST)
			if err != nil {
				return nil, err
			}
			if err := p.expect(TOKEN_RBRACKET); err != nil {
				return nil, err
			}
			prop.Computed = key
		case keyTok.Type == TOKEN_STRING:
			prop.Key = keyTok.Value
			p.nextToken()
		case keyTok.Type == TOKEN_NUMBER:
			f, err := strconv.ParseFloat(keyTok.Value, 64)
			if err != nil {
				return nil, p.unexpected()
			}
			prop.Key = strconv.FormatFloat(f, 'f', -1, 64)
			p.nextToken()
		case p.isPropertyName():
			prop.Key = keyTok.Value
			p.nextToken()
		default:
			return nil, p.unexpected()
		}

		switch p.current.Type {
		case TOKEN_COLON:
			p.nextToken()
			value, err := p.ParseExpression(PREC_LOWEST)
			if err != nil {
				return nil, err
			}
			prop.Value = value
		case TOKEN_LPAREN:
			fn := &FunctionExpr{Pos: keyTok.Position, Name: prop.Key}
			params, err := p.parseParams()
			if err != nil {
				return nil, err
			}
			fn.Params = params
			fn.Body, err = p.parseFunctionBody()
			if err != nil {
				return nil, err
			}
			prop.Value = fn
		default:
			if keyTok.Type != TOKEN_IDENTIFIER {
				return nil, p.unexpected()
			}
			prop.Value = &IdentifierExpr{Pos: keyTok.Position, Name: keyTok.Value}
		}

		obj.Properties = append(obj.Properties, prop)
		if p.current.Type != TOKEN_COMMA {
			break
		}
		p.nextToken()
	}
	if err := p.expect(TOKEN_RBRACE); err != nil {
		return nil, err
	}
	return obj, nil
}
