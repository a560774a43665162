package vm

import (
	"ember/parser"
	"ember/types"
)

// binaryOps maps binary operator tokens to opcodes
var binaryOps = map[parser.TokenType]OpCode{
	parser.TOKEN_PLUS:       OP_ADD,
	parser.TOKEN_MINUS:      OP_SUB,
	parser.TOKEN_STAR:       OP_MUL,
	parser.TOKEN_SLASH:      OP_DIV,
	parser.TOKEN_PERCENT:    OP_MOD,
	parser.TOKEN_POWER:      OP_POW,
	parser.TOKEN_EQ:         OP_EQ,
	parser.TOKEN_NE:         OP_NE,
	parser.TOKEN_STRICT_EQ:  OP_STRICT_EQ,
	parser.TOKEN_STRICT_NE:  OP_STRICT_NE,
	parser.TOKEN_LT:         OP_LT,
	parser.TOKEN_LE:         OP_LE,
	parser.TOKEN_GT:         OP_GT,
	parser.TOKEN_GE:         OP_GE,
	parser.TOKEN_IN:         OP_IN,
	parser.TOKEN_INSTANCEOF: OP_INSTANCEOF,
	parser.TOKEN_BITAND:     OP_BITAND,
	parser.TOKEN_BITOR:      OP_BITOR,
	parser.TOKEN_BITXOR:     OP_BITXOR,
	parser.TOKEN_LSHIFT:     OP_SHL,
	parser.TOKEN_RSHIFT:     OP_SHR,
	parser.TOKEN_URSHIFT:    OP_USHR,
}

// compoundOps maps compound assignment tokens to their arithmetic opcode
var compoundOps = map[parser.TokenType]OpCode{
	parser.TOKEN_PLUS_ASSIGN:    OP_ADD,
	parser.TOKEN_MINUS_ASSIGN:   OP_SUB,
	parser.TOKEN_STAR_ASSIGN:    OP_MUL,
	parser.TOKEN_SLASH_ASSIGN:   OP_DIV,
	parser.TOKEN_PERCENT_ASSIGN: OP_MOD,
}

// unaryOps maps prefix operator tokens to opcodes
var unaryOps = map[parser.TokenType]OpCode{
	parser.TOKEN_MINUS:  OP_NEG,
	parser.TOKEN_PLUS:   OP_PLUS,
	parser.TOKEN_NOT:    OP_NOT,
	parser.TOKEN_BITNOT: OP_BITNOT,
	parser.TOKEN_TYPEOF: OP_TYPEOF,
	parser.TOKEN_VOID:   OP_VOID,
}

// compileExpr compiles an expression, leaving its value on the stack
func (c *Compiler) compileExpr(expr parser.Expr) error {
	switch e := expr.(type) {
	case *parser.NumberLiteral:
		c.emit(OP_CONST, c.addConstant(types.NewNum(e.Value)))
	case *parser.StringLiteral:
		c.emit(OP_CONST, c.addConstant(types.NewStr(e.Value)))
	case *parser.BoolLiteral:
		if e.Value {
			c.emit(OP_TRUE)
		} else {
			c.emit(OP_FALSE)
		}
	case *parser.NullLiteral:
		c.emit(OP_NULL)
	case *parser.ThisExpr:
		c.emit(OP_THIS)
	case *parser.IdentifierExpr:
		c.emitGet(c.resolve(e.Name))
	case *parser.ArrayExpr:
		for _, el := range e.Elements {
			if el == nil {
				c.emit(OP_UNDEF)
				continue
			}
			if err := c.compileExpr(el); err != nil {
				return err
			}
		}
		c.emit(OP_ARRAY, len(e.Elements))
	case *parser.ObjectExpr:
		return c.compileObject(e)
	case *parser.FunctionExpr:
		idx, err := c.compileFunction(e, e.Name, false)
		if err != nil {
			return err
		}
		c.emit(OP_CLOSURE, idx)
	case *parser.UnaryExpr:
		return c.compileUnary(e)
	case *parser.UpdateExpr:
		return c.compileUpdate(e)
	case *parser.BinaryExpr:
		op, ok := binaryOps[e.Operator]
		if !ok {
			return c.errorf(e.Pos, "Unsupported operator %s", e.Operator)
		}
		if err := c.compileExpr(e.Left); err != nil {
			return err
		}
		if err := c.compileExpr(e.Right); err != nil {
			return err
		}
		c.emit(op)
	case *parser.LogicalExpr:
		return c.compileLogical(e)
	case *parser.TernaryExpr:
		if err := c.compileExpr(e.Condition); err != nil {
			return err
		}
		elseJump := c.emitJump(OP_JUMP_IF_FALSE)
		if err := c.compileExpr(e.ThenExpr); err != nil {
			return err
		}
		endJump := c.emitJump(OP_JUMP)
		c.patchJump(elseJump)
		if err := c.compileExpr(e.ElseExpr); err != nil {
			return err
		}
		c.patchJump(endJump)
	case *parser.AssignExpr:
		return c.compileAssign(e)
	case *parser.MemberExpr:
		if err := c.compileExpr(e.Object); err != nil {
			return err
		}
		c.emit(OP_GET_PROP, c.nameConstant(e.Name))
	case *parser.IndexExpr:
		if err := c.compileExpr(e.Object); err != nil {
			return err
		}
		if err := c.compileExpr(e.Index); err != nil {
			return err
		}
		c.emit(OP_GET_INDEX)
	case *parser.CallExpr:
		return c.compileCall(e)
	case *parser.NewExpr:
		if err := c.compileExpr(e.Callee); err != nil {
			return err
		}
		if err := c.compileArgs(e.Args); err != nil {
			return err
		}
		c.emit(OP_NEW, len(e.Args))
	case *parser.SequenceExpr:
		for i, sub := range e.Exprs {
			if err := c.compileExpr(sub); err != nil {
				return err
			}
			if i < len(e.Exprs)-1 {
				c.emit(OP_POP)
			}
		}
	default:
		return c.errorf(expr.Position(), "Unsupported expression %T", expr)
	}
	return nil
}

// compileObject compiles an object literal
func (c *Compiler) compileObject(e *parser.ObjectExpr) error {
	c.emit(OP_OBJECT)
	for _, prop := range e.Properties {
		if prop.Computed != nil {
			if err := c.compileExpr(prop.Computed); err != nil {
				return err
			}
			if err := c.compileExpr(prop.Value); err != nil {
				return err
			}
			c.emit(OP_INIT_INDEX)
			continue
		}
		if err := c.compileNamed(prop.Value, prop.Key); err != nil {
			return err
		}
		c.emit(OP_INIT_PROP, c.nameConstant(prop.Key))
	}
	return nil
}

// compileArgs compiles call arguments left to right
func (c *Compiler) compileArgs(args []parser.Expr) error {
	for _, arg := range args {
		if err := c.compileExpr(arg); err != nil {
			return err
		}
	}
	return nil
}

// compileCall compiles a call. Method calls pass the object as this.
func (c *Compiler) compileCall(e *parser.CallExpr) error {
	switch callee := e.Callee.(type) {
	case *parser.MemberExpr:
		if err := c.compileExpr(callee.Object); err != nil {
			return err
		}
		c.emit(OP_DUP)
		c.emit(OP_GET_PROP, c.nameConstant(callee.Name))
		c.emit(OP_SWAP)
	case *parser.IndexExpr:
		if err := c.compileExpr(callee.Object); err != nil {
			return err
		}
		c.emit(OP_DUP)
		if err := c.compileExpr(callee.Index); err != nil {
			return err
		}
		c.emit(OP_GET_INDEX)
		c.emit(OP_SWAP)
	default:
		if err := c.compileExpr(e.Callee); err != nil {
			return err
		}
		c.emit(OP_UNDEF)
	}

	if err := c.compileArgs(e.Args); err != nil {
		return err
	}
	c.trackLine(e.Pos)
	c.emit(OP_CALL, len(e.Args))
	return nil
}

// compileLogical compiles &&, || and ?? with short-circuit jumps
func (c *Compiler) compileLogical(e *parser.LogicalExpr) error {
	if err := c.compileExpr(e.Left); err != nil {
		return err
	}
	var op OpCode
	switch e.Operator {
	case parser.TOKEN_AND:
		op = OP_JUMP_IF_FALSE_KEEP
	case parser.TOKEN_OR:
		op = OP_JUMP_IF_TRUE_KEEP
	default:
		op = OP_JUMP_IF_DEFINED
	}
	end := c.emitJump(op)
	if err := c.compileExpr(e.Right); err != nil {
		return err
	}
	c.patchJump(end)
	return nil
}

// compileUnary compiles prefix operators
func (c *Compiler) compileUnary(e *parser.UnaryExpr) error {
	switch e.Operator {
	case parser.TOKEN_DELETE:
		return c.compileDelete(e)
	case parser.TOKEN_TYPEOF:
		// typeof of an undeclared name is not an error
		if id, ok := e.Operand.(*parser.IdentifierExpr); ok {
			if r := c.resolve(id.Name); r.kind == refName {
				c.emit(OP_TYPEOF_NAME, c.nameConstant(id.Name))
				return nil
			}
		}
	}

	op, ok := unaryOps[e.Operator]
	if !ok {
		return c.errorf(e.Pos, "Unsupported operator %s", e.Operator)
	}
	if err := c.compileExpr(e.Operand); err != nil {
		return err
	}
	c.emit(op)
	return nil
}

// compileDelete compiles delete obj.name, delete obj[key] and delete name
func (c *Compiler) compileDelete(e *parser.UnaryExpr) error {
	switch target := e.Operand.(type) {
	case *parser.MemberExpr:
		if err := c.compileExpr(target.Object); err != nil {
			return err
		}
		c.emit(OP_DELETE_PROP, c.nameConstant(target.Name))
	case *parser.IndexExpr:
		if err := c.compileExpr(target.Object); err != nil {
			return err
		}
		if err := c.compileExpr(target.Index); err != nil {
			return err
		}
		c.emit(OP_DELETE_INDEX)
	case *parser.IdentifierExpr:
		// declared bindings cannot be deleted; global object properties can
		if r := c.resolve(target.Name); r.kind != refName {
			c.emit(OP_FALSE)
			return nil
		}
		c.emit(OP_GET_GLOBAL, slotGlobalThis)
		c.emit(OP_DELETE_PROP, c.nameConstant(target.Name))
	default:
		if err := c.compileExpr(e.Operand); err != nil {
			return err
		}
		c.emit(OP_POP)
		c.emit(OP_TRUE)
	}
	return nil
}

// compileAssign compiles plain and compound assignment
func (c *Compiler) compileAssign(e *parser.AssignExpr) error {
	op, compound := compoundOps[e.Operator]

	switch target := e.Target.(type) {
	case *parser.IdentifierExpr:
		r := c.resolve(target.Name)
		if compound {
			c.emitGet(r)
			if err := c.compileExpr(e.Value); err != nil {
				return err
			}
			c.emit(op)
		} else if err := c.compileNamed(e.Value, target.Name); err != nil {
			return err
		}
		c.emitSet(r)

	case *parser.MemberExpr:
		if err := c.compileExpr(target.Object); err != nil {
			return err
		}
		name := c.nameConstant(target.Name)
		if compound {
			c.emit(OP_DUP)
			c.emit(OP_GET_PROP, name)
			if err := c.compileExpr(e.Value); err != nil {
				return err
			}
			c.emit(op)
		} else if err := c.compileNamed(e.Value, target.Name); err != nil {
			return err
		}
		c.emit(OP_SET_PROP, name)

	case *parser.IndexExpr:
		if err := c.compileExpr(target.Object); err != nil {
			return err
		}
		if err := c.compileExpr(target.Index); err != nil {
			return err
		}
		if compound {
			c.emit(OP_DUP2)
			c.emit(OP_GET_INDEX)
		}
		if err := c.compileExpr(e.Value); err != nil {
			return err
		}
		if compound {
			c.emit(op)
		}
		c.emit(OP_SET_INDEX)

	default:
		return c.errorf(e.Pos, "Invalid left-hand side in assignment")
	}
	return nil
}

// compileUpdate compiles ++ and --. Postfix forms leave the old value,
// converted to a number, beneath the store and return it.
func (c *Compiler) compileUpdate(e *parser.UpdateExpr) error {
	step := OP_INC
	if e.Operator == parser.TOKEN_DEC {
		step = OP_DEC
	}

	switch target := e.Target.(type) {
	case *parser.IdentifierExpr:
		r := c.resolve(target.Name)
		c.emitGet(r)
		if e.Prefix {
			c.emit(step)
			c.emitSet(r)
			return nil
		}
		c.emit(OP_PLUS)
		c.emit(OP_DUP)
		c.emit(step)
		c.emitSet(r)
		c.emit(OP_POP)

	case *parser.MemberExpr:
		if err := c.compileExpr(target.Object); err != nil {
			return err
		}
		name := c.nameConstant(target.Name)
		c.emit(OP_DUP)
		c.emit(OP_GET_PROP, name)
		if e.Prefix {
			c.emit(step)
			c.emit(OP_SET_PROP, name)
			return nil
		}
		c.emit(OP_PLUS)
		c.emit(OP_DUP)
		c.emit(OP_ROT3)
		c.emit(step)
		c.emit(OP_SET_PROP, name)
		c.emit(OP_POP)

	case *parser.IndexExpr:
		if err := c.compileExpr(target.Object); err != nil {
			return err
		}
		if err := c.compileExpr(target.Index); err != nil {
			return err
		}
		c.emit(OP_DUP2)
		c.emit(OP_GET_INDEX)
		if e.Prefix {
			c.emit(step)
			c.emit(OP_SET_INDEX)
			return nil
		}
		c.emit(OP_PLUS)
		c.emit(OP_DUP)
		c.emit(OP_ROT4)
		c.emit(step)
		c.emit(OP_SET_INDEX)
		c.emit(OP_POP)

	default:
		return c.errorf(e.Pos, "Invalid left-hand side in update operation")
	}
	return nil
}
