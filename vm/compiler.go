package vm

import (
	"fmt"

	"ember/parser"
	"ember/types"
)

// LoopContext tracks loop compilation state
type LoopContext struct {
	Label         string
	BreakJumps    []int // Patch locations for break jumps (forward jumps past loop end)
	ContinueJumps []int // Patch locations for continue jumps (forward jumps to the update)
	ContinueIP    int   // Target IP for continue (-1 = use ContinueJumps for forward patching)
	Iterator      bool  // A for-in/for-of iterator sits on the operand stack
}

// block is an entry of the statement nesting stack that break, continue
// and return unwind: either a loop or an active try handler
type block struct {
	loop    *LoopContext
	try     bool
	finally []parser.Stmt // inlined on every exit through the handler
}

type constKey struct {
	kind types.TypeCode
	text string
}

// funcState is the compilation state of one function body
type funcState struct {
	parent    *funcState
	lambda    *Lambda
	locals    map[string]int
	consts    map[string]bool
	blocks    []*block
	constants map[constKey]int
	lastLine  int
	script    bool // script top level: declarations live in the global scope
}

// Compiler compiles AST nodes to bytecode
type Compiler struct {
	fn      *funcState
	scope   *Scope
	file    string
	modules func(name string) bool // reports whether a module can be imported
}

// refKind says where a name resolves
type refKind int

const (
	refLocal  refKind = iota // env slot of an enclosing function
	refGlobal                // global scope slot
	refName                  // property of the global object
)

type ref struct {
	kind     refKind
	depth    int
	index    int
	name     string
	constant bool
}

// generate compiles a parsed program into the lambda of its entry point.
// Script entries ("main") declare their top-level bindings in scope;
// module entries ("module") keep them local.
func generate(scope *Scope, prog *parser.Program, entry, name, file string, modules func(string) bool) (*Lambda, error) {
	c := &Compiler{scope: scope, file: file, modules: modules}
	c.fn = newFuncState(nil, &Lambda{Name: name, Entry: entry, File: file})
	c.fn.script = entry == "main"

	if err := c.compileBody(prog.Body); err != nil {
		return nil, err
	}

	if c.fn.script {
		c.emit(OP_LOAD_RESULT)
	} else {
		c.emit(OP_UNDEF)
	}
	c.emit(OP_RETURN)
	return c.finish(), nil
}

func newFuncState(parent *funcState, lam *Lambda) *funcState {
	return &funcState{
		parent:    parent,
		lambda:    lam,
		locals:    make(map[string]int),
		consts:    make(map[string]bool),
		constants: make(map[constKey]int),
	}
}

// finish seals the current function's lambda
func (c *Compiler) finish() *Lambda {
	lam := c.fn.lambda
	lam.NumLocals = len(lam.LocalNames)
	return lam
}

// errorf builds a SyntaxError at pos
func (c *Compiler) errorf(pos parser.Position, format string, args ...interface{}) error {
	return &parser.SyntaxError{Message: fmt.Sprintf(format, args...), File: c.file, Pos: pos}
}

// ---- Emission ----

// emit appends an instruction and returns its index
func (c *Compiler) emit(op OpCode, operands ...int) int {
	in := Instr{Op: op}
	if len(operands) > 0 {
		in.A = operands[0]
	}
	if len(operands) > 1 {
		in.B = operands[1]
	}
	c.fn.lambda.Code = append(c.fn.lambda.Code, in)
	return len(c.fn.lambda.Code) - 1
}

// emitJump emits a jump with a placeholder target
func (c *Compiler) emitJump(op OpCode) int {
	return c.emit(op, -1)
}

// patchJump points the jump at index to the current end of code
func (c *Compiler) patchJump(index int) {
	c.fn.lambda.Code[index].A = len(c.fn.lambda.Code)
}

// patchJumpTo points the jump at index to target
func (c *Compiler) patchJumpTo(index, target int) {
	c.fn.lambda.Code[index].A = target
}

// here returns the index of the next instruction
func (c *Compiler) here() int {
	return len(c.fn.lambda.Code)
}

// trackLine records a line number change for error reporting
func (c *Compiler) trackLine(pos parser.Position) {
	if pos.Line == 0 || pos.Line == c.fn.lastLine {
		return
	}
	c.fn.lastLine = pos.Line
	c.fn.lambda.LineInfo = append(c.fn.lambda.LineInfo, LineEntry{StartIP: c.here(), Line: pos.Line})
}

// addConstant adds a value to the constant pool, reusing equal entries
func (c *Compiler) addConstant(v types.Value) int {
	key := constKey{kind: v.Type(), text: v.String()}
	if idx, ok := c.fn.constants[key]; ok {
		return idx
	}
	lam := c.fn.lambda
	lam.Constants = append(lam.Constants, v)
	idx := len(lam.Constants) - 1
	c.fn.constants[key] = idx
	return idx
}

// nameConstant adds a string constant holding name
func (c *Compiler) nameConstant(name string) int {
	return c.addConstant(types.NewStr(name))
}

// ---- Bindings ----

// addLocal allocates a new env slot in the current function
func (c *Compiler) addLocal(name string) int {
	lam := c.fn.lambda
	lam.LocalNames = append(lam.LocalNames, name)
	return len(lam.LocalNames) - 1
}

// hiddenLocal allocates an unnamed slot for compiler temporaries
func (c *Compiler) hiddenLocal() int {
	return c.addLocal("")
}

// declare binds name in the current function, or in the global scope at
// script top level. Redeclaration reuses the existing slot.
func (c *Compiler) declare(name string, constant bool) {
	if c.fn.script {
		c.scope.declare(name, constant)
		return
	}
	if _, ok := c.fn.locals[name]; !ok {
		c.fn.locals[name] = c.addLocal(name)
	}
	if constant {
		c.fn.consts[name] = true
	}
}

// resolve finds the binding a name refers to
func (c *Compiler) resolve(name string) ref {
	depth := 0
	for fs := c.fn; fs != nil; fs = fs.parent {
		if idx, ok := fs.locals[name]; ok {
			return ref{kind: refLocal, depth: depth, index: idx, name: name, constant: fs.consts[name]}
		}
		depth++
	}
	if slot, ok := c.scope.Lookup(name); ok {
		return ref{kind: refGlobal, index: slot, name: name, constant: c.scope.isConst(name)}
	}
	return ref{kind: refName, name: name}
}

// emitGet pushes the value of a binding
func (c *Compiler) emitGet(r ref) {
	switch r.kind {
	case refLocal:
		c.emit(OP_GET_LOCAL, r.depth, r.index)
	case refGlobal:
		c.emit(OP_GET_GLOBAL, r.index)
	default:
		c.emit(OP_GET_NAME, c.nameConstant(r.name))
	}
}

// emitSet stores the top of stack into a binding, leaving it on the stack
func (c *Compiler) emitSet(r ref) {
	if r.constant {
		c.emit(OP_THROW_CONST, c.nameConstant(r.name))
		return
	}
	c.emitInit(r)
}

// emitInit is emitSet without the const check, used by declarations
func (c *Compiler) emitInit(r ref) {
	switch r.kind {
	case refLocal:
		c.emit(OP_SET_LOCAL, r.depth, r.index)
	case refGlobal:
		c.emit(OP_SET_GLOBAL, r.index)
	default:
		c.emit(OP_SET_NAME, c.nameConstant(r.name))
	}
}

// ---- Bodies ----

// declaration is one hoisted name
type declaration struct {
	name     string
	constant bool
}

// hoist collects the declarations of a body, descending into nested
// statements but not into nested functions
func hoist(body []parser.Stmt) ([]declaration, []*parser.FunctionExpr) {
	var decls []declaration
	var funcs []*parser.FunctionExpr
	seen := make(map[string]int)

	add := func(name string, constant bool) {
		if i, ok := seen[name]; ok {
			decls[i].constant = decls[i].constant || constant
			return
		}
		seen[name] = len(decls)
		decls = append(decls, declaration{name: name, constant: constant})
	}

	var walk func(stmts []parser.Stmt)
	var walkOne func(stmt parser.Stmt)
	walkOne = func(stmt parser.Stmt) {
		switch s := stmt.(type) {
		case *parser.VarStmt:
			for _, d := range s.Decls {
				add(d.Name, s.Kind == parser.TOKEN_CONST)
			}
		case *parser.FunctionDecl:
			add(s.Func.Name, false)
			funcs = append(funcs, s.Func)
		case *parser.ImportStmt:
			add(s.Name, true)
		case *parser.BlockStmt:
			walk(s.Body)
		case *parser.IfStmt:
			walkOne(s.Then)
			if s.Else != nil {
				walkOne(s.Else)
			}
		case *parser.WhileStmt:
			walkOne(s.Body)
		case *parser.ForStmt:
			if s.Init != nil {
				walkOne(s.Init)
			}
			walkOne(s.Body)
		case *parser.ForInStmt:
			if s.Declare {
				add(s.Name, false)
			}
			walkOne(s.Body)
		case *parser.TryStmt:
			walk(s.Body)
			walk(s.Catch)
			walk(s.Finally)
		}
	}
	walk = func(stmts []parser.Stmt) {
		for _, stmt := range stmts {
			walkOne(stmt)
		}
	}
	walk(body)
	return decls, funcs
}

// compileBody declares the hoisted names of a body, creates its function
// declarations up front and compiles the statements
func (c *Compiler) compileBody(body []parser.Stmt) error {
	decls, funcs := hoist(body)
	for _, d := range decls {
		c.declare(d.name, d.constant)
	}
	for _, fn := range funcs {
		c.trackLine(fn.Pos)
		idx, err := c.compileFunction(fn, fn.Name, true)
		if err != nil {
			return err
		}
		c.emit(OP_CLOSURE, idx)
		c.emitInit(c.resolve(fn.Name))
		c.emit(OP_POP)
	}
	return c.compileStmts(body)
}

// compileFunction compiles a function literal into a child lambda of the
// current function and returns its index
func (c *Compiler) compileFunction(fn *parser.FunctionExpr, name string, decl bool) (int, error) {
	parent := c.fn
	lam := &Lambda{
		Name:      name,
		Entry:     "function",
		File:      c.file,
		NumParams: len(fn.Params),
		Arrow:     fn.Arrow,
	}
	c.fn = newFuncState(parent, lam)
	defer func() { c.fn = parent }()

	for _, p := range fn.Params {
		c.fn.locals[p] = c.addLocal(p)
	}

	// a named function expression sees its own name
	if !decl && fn.Name != "" {
		if _, isParam := c.fn.locals[fn.Name]; !isParam {
			slot := c.addLocal(fn.Name)
			c.fn.locals[fn.Name] = slot
			c.emit(OP_CALLEE)
			c.emit(OP_SET_LOCAL, 0, slot)
			c.emit(OP_POP)
		}
	}

	if err := c.compileBody(fn.Body); err != nil {
		return 0, err
	}
	c.emit(OP_UNDEF)
	c.emit(OP_RETURN)

	child := c.finish()
	parent.lambda.Funcs = append(parent.lambda.Funcs, child)
	return len(parent.lambda.Funcs) - 1, nil
}

// compileNamed compiles a value expression, naming anonymous functions
// after the binding or property they are assigned to
func (c *Compiler) compileNamed(expr parser.Expr, name string) error {
	if fn, ok := expr.(*parser.FunctionExpr); ok && fn.Name == "" {
		idx, err := c.compileFunction(fn, name, false)
		if err != nil {
			return err
		}
		c.emit(OP_CLOSURE, idx)
		return nil
	}
	return c.compileExpr(expr)
}

// ---- Statements ----

// compileStmts compiles a statement list
func (c *Compiler) compileStmts(stmts []parser.Stmt) error {
	for _, stmt := range stmts {
		if err := c.compileStmt(stmt); err != nil {
			return err
		}
	}
	return nil
}

// compileStmt compiles a single statement
func (c *Compiler) compileStmt(stmt parser.Stmt) error {
	c.trackLine(stmt.Position())

	switch s := stmt.(type) {
	case *parser.ExprStmt:
		if err := c.compileExpr(s.Expr); err != nil {
			return err
		}
		if c.fn.script {
			c.emit(OP_STORE_RESULT)
		} else {
			c.emit(OP_POP)
		}
		return nil
	case *parser.EmptyStmt, *parser.FunctionDecl:
		return nil
	case *parser.VarStmt:
		return c.compileVar(s)
	case *parser.BlockStmt:
		return c.compileStmts(s.Body)
	case *parser.IfStmt:
		return c.compileIf(s)
	case *parser.WhileStmt:
		if s.DoWhile {
			return c.compileDoWhile(s)
		}
		return c.compileWhile(s)
	case *parser.ForStmt:
		return c.compileFor(s)
	case *parser.ForInStmt:
		return c.compileForIn(s)
	case *parser.ReturnStmt:
		return c.compileReturn(s)
	case *parser.BreakStmt:
		return c.compileBreak(s.Pos, s.Label, false)
	case *parser.ContinueStmt:
		return c.compileBreak(s.Pos, s.Label, true)
	case *parser.ThrowStmt:
		if err := c.compileExpr(s.Value); err != nil {
			return err
		}
		c.emit(OP_THROW)
		return nil
	case *parser.TryStmt:
		return c.compileTry(s)
	case *parser.ImportStmt:
		if c.modules == nil || !c.modules(s.Module) {
			return c.errorf(s.Pos, "Cannot find module \"%s\"", s.Module)
		}
		c.emit(OP_IMPORT, c.nameConstant(s.Module))
		c.emitInit(c.resolve(s.Name))
		c.emit(OP_POP)
		return nil
	case *parser.ExportDefaultStmt:
		if c.fn.script || c.fn.parent != nil {
			return c.errorf(s.Pos, "Illegal export statement")
		}
		if err := c.compileNamed(s.Value, "default"); err != nil {
			return err
		}
		c.emit(OP_EXPORT)
		return nil
	}
	return c.errorf(stmt.Position(), "Unsupported statement %T", stmt)
}

// compileVar compiles var/let/const declarations
func (c *Compiler) compileVar(s *parser.VarStmt) error {
	for _, d := range s.Decls {
		if d.Init == nil {
			if s.Kind != parser.TOKEN_LET {
				continue
			}
			// let without initializer resets on every execution
			c.emit(OP_UNDEF)
		} else if err := c.compileNamed(d.Init, d.Name); err != nil {
			return err
		}
		c.emitInit(c.resolve(d.Name))
		c.emit(OP_POP)
	}
	return nil
}

// compileIf compiles if/else
func (c *Compiler) compileIf(s *parser.IfStmt) error {
	if err := c.compileExpr(s.Condition); err != nil {
		return err
	}
	elseJump := c.emitJump(OP_JUMP_IF_FALSE)
	if err := c.compileStmt(s.Then); err != nil {
		return err
	}
	if s.Else == nil {
		c.patchJump(elseJump)
		return nil
	}
	endJump := c.emitJump(OP_JUMP)
	c.patchJump(elseJump)
	if err := c.compileStmt(s.Else); err != nil {
		return err
	}
	c.patchJump(endJump)
	return nil
}

// pushLoop opens a loop context
func (c *Compiler) pushLoop(label string, continueIP int, iterator bool) *LoopContext {
	loop := &LoopContext{Label: label, ContinueIP: continueIP, Iterator: iterator}
	c.fn.blocks = append(c.fn.blocks, &block{loop: loop})
	return loop
}

// popLoop closes the innermost loop context, patching pending break jumps
// to breakIP and continue jumps to continueIP
func (c *Compiler) popLoop(breakIP, continueIP int) {
	b := c.fn.blocks[len(c.fn.blocks)-1]
	c.fn.blocks = c.fn.blocks[:len(c.fn.blocks)-1]
	for _, j := range b.loop.BreakJumps {
		c.patchJumpTo(j, breakIP)
	}
	for _, j := range b.loop.ContinueJumps {
		c.patchJumpTo(j, continueIP)
	}
}

// compileWhile compiles while (cond) body
func (c *Compiler) compileWhile(s *parser.WhileStmt) error {
	start := c.here()
	if err := c.compileExpr(s.Condition); err != nil {
		return err
	}
	exit := c.emitJump(OP_JUMP_IF_FALSE)

	c.pushLoop(s.Label, start, false)
	if err := c.compileStmt(s.Body); err != nil {
		return err
	}
	c.emit(OP_JUMP, start)
	c.patchJump(exit)
	c.popLoop(c.here(), start)
	return nil
}

// compileDoWhile compiles do body while (cond)
func (c *Compiler) compileDoWhile(s *parser.WhileStmt) error {
	start := c.here()
	c.pushLoop(s.Label, -1, false)
	if err := c.compileStmt(s.Body); err != nil {
		return err
	}
	cond := c.here()
	if err := c.compileExpr(s.Condition); err != nil {
		return err
	}
	c.emit(OP_JUMP_IF_TRUE, start)
	c.popLoop(c.here(), cond)
	return nil
}

// compileFor compiles for (init; cond; update) body
func (c *Compiler) compileFor(s *parser.ForStmt) error {
	switch init := s.Init.(type) {
	case nil:
	case *parser.ExprStmt:
		if err := c.compileExpr(init.Expr); err != nil {
			return err
		}
		c.emit(OP_POP)
	default:
		if err := c.compileStmt(init); err != nil {
			return err
		}
	}

	start := c.here()
	exit := -1
	if s.Condition != nil {
		if err := c.compileExpr(s.Condition); err != nil {
			return err
		}
		exit = c.emitJump(OP_JUMP_IF_FALSE)
	}

	c.pushLoop(s.Label, -1, false)
	if err := c.compileStmt(s.Body); err != nil {
		return err
	}
	update := c.here()
	if s.Update != nil {
		if err := c.compileExpr(s.Update); err != nil {
			return err
		}
		c.emit(OP_POP)
	}
	c.emit(OP_JUMP, start)
	if exit >= 0 {
		c.patchJump(exit)
	}
	c.popLoop(c.here(), update)
	return nil
}

// compileForIn compiles for (x in obj) and for (x of obj). The iterator
// stays on the operand stack for the duration of the loop.
func (c *Compiler) compileForIn(s *parser.ForInStmt) error {
	if err := c.compileExpr(s.Object); err != nil {
		return err
	}
	if s.Of {
		c.emit(OP_ITER_VALUES)
	} else {
		c.emit(OP_ITER_KEYS)
	}

	next := c.here()
	done := c.emitJump(OP_ITER_NEXT)
	target := c.resolve(s.Name)
	if s.Declare {
		c.emitInit(target)
	} else {
		c.emitSet(target)
	}
	c.emit(OP_POP)

	c.pushLoop(s.Label, next, true)
	if err := c.compileStmt(s.Body); err != nil {
		return err
	}
	c.emit(OP_JUMP, next)

	// break leaves through here and drops the iterator
	breakIP := c.here()
	c.emit(OP_POP)
	c.patchJump(done)
	c.popLoop(breakIP, next)
	return nil
}

// unwind emits the exits from every block above depth: handlers are
// popped and their finally bodies inlined, and iterators are dropped when
// dropIterators is set
func (c *Compiler) unwind(depth int, dropIterators bool) error {
	blocks := c.fn.blocks
	defer func() { c.fn.blocks = blocks }()

	for i := len(blocks) - 1; i >= depth; i-- {
		b := blocks[i]
		switch {
		case b.try:
			c.emit(OP_END_TRY)
			if b.finally != nil {
				c.fn.blocks = append([]*block(nil), blocks[:i]...)
				if err := c.compileStmts(b.finally); err != nil {
					return err
				}
			}
		case b.loop.Iterator && dropIterators:
			c.emit(OP_POP)
		}
	}
	return nil
}

// compileBreak compiles break and continue
func (c *Compiler) compileBreak(pos parser.Position, label string, cont bool) error {
	target := -1
	for i := len(c.fn.blocks) - 1; i >= 0; i-- {
		b := c.fn.blocks[i]
		if b.loop != nil && (label == "" || b.loop.Label == label) {
			target = i
			break
		}
	}
	if target < 0 {
		keyword := "break"
		if cont {
			keyword = "continue"
		}
		return c.errorf(pos, "Illegal %s statement", keyword)
	}

	if err := c.unwind(target+1, true); err != nil {
		return err
	}

	loop := c.fn.blocks[target].loop
	switch {
	case !cont:
		loop.BreakJumps = append(loop.BreakJumps, c.emitJump(OP_JUMP))
	case loop.ContinueIP >= 0:
		c.emit(OP_JUMP, loop.ContinueIP)
	default:
		loop.ContinueJumps = append(loop.ContinueJumps, c.emitJump(OP_JUMP))
	}
	return nil
}

// compileReturn compiles return [expr]. Inside try blocks the value is
// parked in a hidden slot while finally bodies run.
func (c *Compiler) compileReturn(s *parser.ReturnStmt) error {
	if s.Value != nil {
		if err := c.compileExpr(s.Value); err != nil {
			return err
		}
	} else {
		c.emit(OP_UNDEF)
	}

	inTry := false
	for _, b := range c.fn.blocks {
		if b.try {
			inTry = true
			break
		}
	}
	if !inTry {
		c.emit(OP_RETURN)
		return nil
	}

	slot := c.hiddenLocal()
	c.emit(OP_SET_LOCAL, 0, slot)
	c.emit(OP_POP)
	if err := c.unwind(0, false); err != nil {
		return err
	}
	c.emit(OP_GET_LOCAL, 0, slot)
	c.emit(OP_RETURN)
	return nil
}

// compileTry compiles try/catch/finally. A finally clause installs an
// outer handler that saves the exception, runs the finally body and
// rethrows; the normal path runs the body inline.
func (c *Compiler) compileTry(s *parser.TryStmt) error {
	finJump := -1
	if s.Finally != nil {
		finJump = c.emitJump(OP_TRY)
		c.fn.blocks = append(c.fn.blocks, &block{try: true, finally: s.Finally})
	}

	if s.HasCatch {
		catchJump := c.emitJump(OP_TRY)
		c.fn.blocks = append(c.fn.blocks, &block{try: true})
		if err := c.compileStmts(s.Body); err != nil {
			return err
		}
		c.fn.blocks = c.fn.blocks[:len(c.fn.blocks)-1]
		c.emit(OP_END_TRY)
		skip := c.emitJump(OP_JUMP)

		c.patchJump(catchJump)
		if err := c.compileCatch(s); err != nil {
			return err
		}
		c.patchJump(skip)
	} else if err := c.compileStmts(s.Body); err != nil {
		return err
	}

	if s.Finally == nil {
		return nil
	}

	c.fn.blocks = c.fn.blocks[:len(c.fn.blocks)-1]
	c.emit(OP_END_TRY)
	if err := c.compileStmts(s.Finally); err != nil {
		return err
	}
	end := c.emitJump(OP_JUMP)

	c.patchJump(finJump)
	slot := c.hiddenLocal()
	c.emit(OP_SET_LOCAL, 0, slot)
	c.emit(OP_POP)
	if err := c.compileStmts(s.Finally); err != nil {
		return err
	}
	c.emit(OP_GET_LOCAL, 0, slot)
	c.emit(OP_THROW)
	c.patchJump(end)
	return nil
}

// compileCatch binds the exception on the stack and compiles the catch
// body. The parameter shadows any outer binding of the same name.
func (c *Compiler) compileCatch(s *parser.TryStmt) error {
	if s.CatchParam == "" {
		c.emit(OP_POP)
		return c.compileStmts(s.Catch)
	}

	name := s.CatchParam
	prev, hadPrev := c.fn.locals[name]
	prevConst := c.fn.consts[name]

	slot := c.addLocal(name)
	c.fn.locals[name] = slot
	delete(c.fn.consts, name)
	c.emit(OP_SET_LOCAL, 0, slot)
	c.emit(OP_POP)

	err := c.compileStmts(s.Catch)

	if hadPrev {
		c.fn.locals[name] = prev
	} else {
		delete(c.fn.locals, name)
	}
	if prevConst {
		c.fn.consts[name] = true
	}
	return err
}
