package parser

// parseStatement parses a single statement
func (p *Parser) parseStatement() (Stmt, error) {
	switch p.current.Type {
	case TOKEN_VAR, TOKEN_LET, TOKEN_CONST:
		stmt, err := p.parseVarStatement()
		if err != nil {
			return nil, err
		}
		return stmt, p.consumeSemicolon()
	case TOKEN_FUNCTION:
		return p.parseFunctionDeclaration()
	case TOKEN_IF:
		return p.parseIfStatement()
	case TOKEN_WHILE:
		return p.parseWhileStatement("")
	case TOKEN_DO:
		return p.parseDoWhileStatement("")
	case TOKEN_FOR:
		return p.parseForStatement("")
	case TOKEN_RETURN:
		return p.parseReturnStatement()
	case TOKEN_BREAK:
		return p.parseBreakStatement()
	case TOKEN_CONTINUE:
		return p.parseContinueStatement()
	case TOKEN_THROW:
		return p.parseThrowStatement()
	case TOKEN_TRY:
		return p.parseTryStatement()
	case TOKEN_LBRACE:
		return p.parseBlockStatement()
	case TOKEN_IMPORT, TOKEN_EXPORT:
		return nil, p.errorf("Illegal %s statement", p.current.Type)
	case TOKEN_SEMICOLON:
		pos := p.current.Position
		p.nextToken()
		return &EmptyStmt{Pos: pos}, nil
	case TOKEN_IDENTIFIER:
		if p.peek.Type == TOKEN_COLON {
			return p.parseLabeledStatement()
		}
	}
	return p.parseExpressionStatement()
}

// parseBlock parses { statements } and returns the statements
func (p *Parser) parseBlock() ([]Stmt, error) {
	if err := p.expect(TOKEN_LBRACE); err != nil {
		return nil, err
	}
	body := []Stmt{}
	for p.current.Type != TOKEN_RBRACE {
		if p.current.Type == TOKEN_EOF {
			return nil, p.unexpected()
		}
		stmt, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		body = append(body, stmt)
	}
	p.nextToken() // consume '}'
	return body, nil
}

func (p *Parser) parseBlockStatement() (Stmt, error) {
	pos := p.current.Position
	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	return &BlockStmt{Pos: pos, Body: body}, nil
}

// parseVarStatement parses var/let/const declarations without the
// terminating semicolon
func (p *Parser) parseVarStatement() (*VarStmt, error) {
	stmt := &VarStmt{Pos: p.current.Position, Kind: p.current.Type}
	p.nextToken()

	for {
		name, err := p.expectIdent()
		if err != nil {
			return nil, err
		}
		decl := VarDecl{Name: name}
		if p.current.Type == TOKEN_ASSIGN {
			p.nextToken()
			decl.Init, err = p.ParseExpression(PREC_LOWEST)
			if err != nil {
				return nil, err
			}
		} else if stmt.Kind == TOKEN_CONST {
			return nil, p.errorf("missing initializer in const declaration")
		}
		stmt.Decls = append(stmt.Decls, decl)

		if p.current.Type != TOKEN_COMMA {
			return stmt, nil
		}
		p.nextToken()
	}
}

// parseFunctionDeclaration parses function name(params) { body }
func (p *Parser) parseFunctionDeclaration() (Stmt, error) {
	pos := p.current.Position
	if p.peek.Type != TOKEN_IDENTIFIER {
		p.nextToken()
		return nil, p.unexpected()
	}
	fn, err := p.parseFunction()
	if err != nil {
		return nil, err
	}
	return &FunctionDecl{Pos: pos, Func: fn}, nil
}

// parseIfStatement parses if (cond) stmt [else stmt]
func (p *Parser) parseIfStatement() (Stmt, error) {
	pos := p.current.Position
	p.nextToken() // consume 'if'

	cond, err := p.parseParenCondition()
	if err != nil {
		return nil, err
	}
	then, err := p.parseStatement()
	if err != nil {
		return nil, err
	}

	stmt := &IfStmt{Pos: pos, Condition: cond, Then: then}
	if p.current.Type == TOKEN_ELSE {
		p.nextToken()
		stmt.Else, err = p.parseStatement()
		if err != nil {
			return nil, err
		}
	}
	return stmt, nil
}

func (p *Parser) parseParenCondition() (Expr, error) {
	if err := p.expect(TOKEN_LPAREN); err != nil {
		return nil, err
	}
	cond, err := p.parseSequence()
	if err != nil {
		return nil, err
	}
	if err := p.expect(TOKEN_RPAREN); err != nil {
		return nil, err
	}
	return cond, nil
}

// parseLoopBody parses a loop body with the loop depth raised
func (p *Parser) parseLoopBody() (Stmt, error) {
	p.loopDepth++
	defer func() { p.loopDepth-- }()
	return p.parseStatement()
}

// parseWhileStatement parses while (cond) stmt
func (p *Parser) parseWhileStatement(label string) (Stmt, error) {
	pos := p.current.Position
	p.nextToken() // consume 'while'

	cond, err := p.parseParenCondition()
	if err != nil {
		return nil, err
	}
	body, err := p.parseLoopBody()
	if err != nil {
		return nil, err
	}
	return &WhileStmt{Pos: pos, Label: label, Condition: cond, Body: body}, nil
}

// parseDoWhileStatement parses do stmt while (cond)
func (p *Parser) parseDoWhileStatement(label string) (Stmt, error) {
	pos := p.current.Position
	p.nextToken() // consume 'do'

	body, err := p.parseLoopBody()
	if err != nil {
		return nil, err
	}
	if err := p.expect(TOKEN_WHILE); err != nil {
		return nil, err
	}
	cond, err := p.parseParenCondition()
	if err != nil {
		return nil, err
	}
	if p.current.Type == TOKEN_SEMICOLON {
		p.nextToken()
	}
	return &WhileStmt{Pos: pos, Label: label, Condition: cond, Body: body, DoWhile: true}, nil
}

// parseForStatement parses the three-clause, for-in and for-of loops
func (p *Parser) parseForStatement(label string) (Stmt, error) {
	pos := p.current.Position
	p.nextToken() // consume 'for'
	if err := p.expect(TOKEN_LPAREN); err != nil {
		return nil, err
	}

	// for ([var] name in|of expr)
	declare := p.current.Type == TOKEN_VAR || p.current.Type == TOKEN_LET || p.current.Type == TOKEN_CONST
	nameTok, after := p.current, p.peek
	if declare {
		nameTok, after = p.peek, p.tokenAt(p.pos+2)
	}
	if nameTok.Type == TOKEN_IDENTIFIER &&
		(after.Type == TOKEN_IN || (after.Type == TOKEN_IDENTIFIER && after.Value == "of")) {
		if declare {
			p.nextToken()
		}
		p.nextToken() // name
		of := p.current.Type != TOKEN_IN
		p.nextToken() // in / of

		obj, err := p.ParseExpression(PREC_LOWEST)
		if err != nil {
			return nil, err
		}
		if err := p.expect(TOKEN_RPAREN); err != nil {
			return nil, err
		}
		body, err := p.parseLoopBody()
		if err != nil {
			return nil, err
		}
		return &ForInStmt{
			Pos: pos, Label: label, Declare: declare, Name: nameTok.Value,
			Of: of, Object: obj, Body: body,
		}, nil
	}

	stmt := &ForStmt{Pos: pos, Label: label}

	p.noIn = true
	switch {
	case p.current.Type == TOKEN_SEMICOLON:
	case declare:
		init, err := p.parseVarStatement()
		if err != nil {
			p.noIn = false
			return nil, err
		}
		stmt.Init = init
	default:
		initPos := p.current.Position
		expr, err := p.parseSequence()
		if err != nil {
			p.noIn = false
			return nil, err
		}
		stmt.Init = &ExprStmt{Pos: initPos, Expr: expr}
	}
	p.noIn = false

	if err := p.expect(TOKEN_SEMICOLON); err != nil {
		return nil, err
	}
	if p.current.Type != TOKEN_SEMICOLON {
		cond, err := p.parseSequence()
		if err != nil {
			return nil, err
		}
		stmt.Condition = cond
	}
	if err := p.expect(TOKEN_SEMICOLON); err != nil {
		return nil, err
	}
	if p.current.Type != TOKEN_RPAREN {
		update, err := p.parseSequence()
		if err != nil {
			return nil, err
		}
		stmt.Update = update
	}
	if err := p.expect(TOKEN_RPAREN); err != nil {
		return nil, err
	}

	body, err := p.parseLoopBody()
	if err != nil {
		return nil, err
	}
	stmt.Body = body
	return stmt, nil
}

// parseLabeledStatement parses label: loop
func (p *Parser) parseLabeledStatement() (Stmt, error) {
	label := p.current.Value
	p.nextToken() // label
	p.nextToken() // ':'

	p.labels = append(p.labels, label)
	defer func() { p.labels = p.labels[:len(p.labels)-1] }()

	switch p.current.Type {
	case TOKEN_WHILE:
		return p.parseWhileStatement(label)
	case TOKEN_DO:
		return p.parseDoWhileStatement(label)
	case TOKEN_FOR:
		return p.parseForStatement(label)
	}
	return nil, p.errorf("label \"%s\" must precede a loop", label)
}

// parseReturnStatement parses return [expr]
func (p *Parser) parseReturnStatement() (Stmt, error) {
	pos := p.current.Position
	if p.funcDepth == 0 {
		return nil, p.errorf("Illegal return statement")
	}
	p.nextToken() // consume 'return'

	stmt := &ReturnStmt{Pos: pos}
	if p.current.Type != TOKEN_SEMICOLON && p.current.Type != TOKEN_RBRACE &&
		p.current.Type != TOKEN_EOF && !p.current.NewlineBefore {
		value, err := p.parseSequence()
		if err != nil {
			return nil, err
		}
		stmt.Value = value
	}
	return stmt, p.consumeSemicolon()
}

// parseJumpLabel reads the optional label of break/continue
func (p *Parser) parseJumpLabel(keyword string) (string, error) {
	if p.current.Type != TOKEN_IDENTIFIER || p.current.NewlineBefore {
		if p.loopDepth == 0 {
			return "", p.errorf("Illegal %s statement", keyword)
		}
		return "", nil
	}
	label := p.current.Value
	for _, l := range p.labels {
		if l == label {
			p.nextToken()
			return label, nil
		}
	}
	return "", p.errorf("Undefined label \"%s\"", label)
}

// parseBreakStatement parses break [label]
func (p *Parser) parseBreakStatement() (Stmt, error) {
	pos := p.current.Position
	p.nextToken()
	label, err := p.parseJumpLabel("break")
	if err != nil {
		return nil, err
	}
	return &BreakStmt{Pos: pos, Label: label}, p.consumeSemicolon()
}

// parseContinueStatement parses continue [label]
func (p *Parser) parseContinueStatement() (Stmt, error) {
	pos := p.current.Position
	p.nextToken()
	label, err := p.parseJumpLabel("continue")
	if err != nil {
		return nil, err
	}
	return &ContinueStmt{Pos: pos, Label: label}, p.consumeSemicolon()
}

// parseThrowStatement parses throw expr
func (p *Parser) parseThrowStatement() (Stmt, error) {
	pos := p.current.Position
	p.nextToken()
	if p.current.NewlineBefore {
		return nil, p.errorf("Illegal newline after throw")
	}
	value, err := p.parseSequence()
	if err != nil {
		return nil, err
	}
	return &ThrowStmt{Pos: pos, Value: value}, p.consumeSemicolon()
}

// parseTryStatement parses try/catch/finally
func (p *Parser) parseTryStatement() (Stmt, error) {
	pos := p.current.Position
	p.nextToken() // consume 'try'

	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	stmt := &TryStmt{Pos: pos, Body: body}

	if p.current.Type == TOKEN_CATCH {
		p.nextToken()
		stmt.HasCatch = true
		if p.current.Type == TOKEN_LPAREN {
			p.nextToken()
			stmt.CatchParam, err = p.expectIdent()
			if err != nil {
				return nil, err
			}
			if err := p.expect(TOKEN_RPAREN); err != nil {
				return nil, err
			}
		}
		stmt.Catch, err = p.parseBlock()
		if err != nil {
			return nil, err
		}
	}

	if p.current.Type == TOKEN_FINALLY {
		p.nextToken()
		stmt.Finally, err = p.parseBlock()
		if err != nil {
			return nil, err
		}
	}

	if !stmt.HasCatch && stmt.Finally == nil {
		return nil, p.errorf("Missing catch or finally after try")
	}
	return stmt, nil
}

// parseExpressionStatement parses an expression followed by a semicolon
func (p *Parser) parseExpressionStatement() (Stmt, error) {
	pos := p.current.Position
	expr, err := p.parseSequence()
	if err != nil {
		return nil, err
	}
	return &ExprStmt{Pos: pos, Expr: expr}, p.consumeSemicolon()
}

// parseImportStatement parses import name from "module"
func (p *Parser) parseImportStatement() (Stmt, error) {
	pos := p.current.Position
	p.nextToken() // consume 'import'

	name, err := p.expectIdent()
	if err != nil {
		return nil, err
	}
	if !p.isContextual("from") {
		return nil, p.unexpected()
	}
	p.nextToken()
	if p.current.Type != TOKEN_STRING {
		return nil, p.unexpected()
	}
	module := p.current.Value
	p.nextToken()
	return &ImportStmt{Pos: pos, Name: name, Module: module}, p.consumeSemicolon()
}

// parseExportStatement parses export default expr
func (p *Parser) parseExportStatement() (Stmt, error) {
	pos := p.current.Position
	if p.mode != ModeModule {
		return nil, p.errorf("Illegal export statement")
	}
	p.nextToken() // consume 'export'
	if err := p.expect(TOKEN_DEFAULT); err != nil {
		return nil, err
	}
	value, err := p.ParseExpression(PREC_LOWEST)
	if err != nil {
		return nil, err
	}
	return &ExportDefaultStmt{Pos: pos, Value: value}, p.consumeSemicolon()
}
