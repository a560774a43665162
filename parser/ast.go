package parser

// Node is the base interface for all AST nodes
type Node interface {
	Position() Position
}

// Expr represents an expression node
type Expr interface {
	Node
	exprNode()
}

// Stmt represents a statement node
type Stmt interface {
	Node
	stmtNode()
}

// Mode selects script or module grammar
type Mode int

const (
	ModeScript Mode = iota
	ModeModule
)

// Program is the root of a parsed compilation unit
type Program struct {
	Mode Mode
	Body []Stmt
}

// ---- Expressions ----

// NumberLiteral is a numeric literal
type NumberLiteral struct {
	Pos   Position
	Value float64
}

func (e *NumberLiteral) Position() Position { return e.Pos }
func (e *NumberLiteral) exprNode()          {}

// StringLiteral is a string literal
type StringLiteral struct {
	Pos   Position
	Value string
}

func (e *StringLiteral) Position() Position { return e.Pos }
func (e *StringLiteral) exprNode()          {}

// BoolLiteral is true or false
type BoolLiteral struct {
	Pos   Position
	Value bool
}

func (e *BoolLiteral) Position() Position { return e.Pos }
func (e *BoolLiteral) exprNode()          {}

// NullLiteral is null
type NullLiteral struct {
	Pos Position
}

func (e *NullLiteral) Position() Position { return e.Pos }
func (e *NullLiteral) exprNode()          {}

// ThisExpr is the this keyword
type ThisExpr struct {
	Pos Position
}

func (e *ThisExpr) Position() Position { return e.Pos }
func (e *ThisExpr) exprNode()          {}

// IdentifierExpr represents a variable reference
type IdentifierExpr struct {
	Pos  Position
	Name string
}

func (e *IdentifierExpr) Position() Position { return e.Pos }
func (e *IdentifierExpr) exprNode()          {}

// ArrayExpr is an array literal
type ArrayExpr struct {
	Pos      Position
	Elements []Expr
}

func (e *ArrayExpr) Position() Position { return e.Pos }
func (e *ArrayExpr) exprNode()          {}

// ObjectProperty is one key: value entry of an object literal
type ObjectProperty struct {
	Key      string
	Computed Expr // non-nil for [expr]: value
	Value    Expr
}

// ObjectExpr is an object literal
type ObjectExpr struct {
	Pos        Position
	Properties []ObjectProperty
}

func (e *ObjectExpr) Position() Position { return e.Pos }
func (e *ObjectExpr) exprNode()          {}

// FunctionExpr is a function or arrow function literal
type FunctionExpr struct {
	Pos    Position
	Name   string
	Params []string
	Body   []Stmt
	Arrow  bool
}

func (e *FunctionExpr) Position() Position { return e.Pos }
func (e *FunctionExpr) exprNode()          {}

// UnaryExpr represents a prefix operation (-x, !x, typeof x, ...)
type UnaryExpr struct {
	Pos      Position
	Operator TokenType
	Operand  Expr
}

func (e *UnaryExpr) Position() Position { return e.Pos }
func (e *UnaryExpr) exprNode()          {}

// UpdateExpr represents ++ and --
type UpdateExpr struct {
	Pos      Position
	Operator TokenType // TOKEN_INC or TOKEN_DEC
	Prefix   bool
	Target   Expr
}

func (e *UpdateExpr) Position() Position { return e.Pos }
func (e *UpdateExpr) exprNode()          {}

// BinaryExpr represents a binary operation
type BinaryExpr struct {
	Pos      Position
	Left     Expr
	Operator TokenType
	Right    Expr
}

func (e *BinaryExpr) Position() Position { return e.Pos }
func (e *BinaryExpr) exprNode()          {}

// LogicalExpr represents the short-circuit operators &&, || and ??
type LogicalExpr struct {
	Pos      Position
	Left     Expr
	Operator TokenType
	Right    Expr
}

func (e *LogicalExpr) Position() Position { return e.Pos }
func (e *LogicalExpr) exprNode()          {}

// TernaryExpr represents cond ? a : b
type TernaryExpr struct {
	Pos       Position
	Condition Expr
	ThenExpr  Expr
	ElseExpr  Expr
}

func (e *TernaryExpr) Position() Position { return e.Pos }
func (e *TernaryExpr) exprNode()          {}

// AssignExpr represents plain and compound assignment
type AssignExpr struct {
	Pos      Position
	Operator TokenType // TOKEN_ASSIGN or a compound operator
	Target   Expr      // IdentifierExpr, MemberExpr or IndexExpr
	Value    Expr
}

func (e *AssignExpr) Position() Position { return e.Pos }
func (e *AssignExpr) exprNode()          {}

// MemberExpr represents obj.name
type MemberExpr struct {
	Pos    Position
	Object Expr
	Name   string
}

func (e *MemberExpr) Position() Position { return e.Pos }
func (e *MemberExpr) exprNode()          {}

// IndexExpr represents obj[key]
type IndexExpr struct {
	Pos    Position
	Object Expr
	Index  Expr
}

func (e *IndexExpr) Position() Position { return e.Pos }
func (e *IndexExpr) exprNode()          {}

// CallExpr represents a function call
type CallExpr struct {
	Pos    Position
	Callee Expr
	Args   []Expr
}

func (e *CallExpr) Position() Position { return e.Pos }
func (e *CallExpr) exprNode()          {}

// NewExpr represents new Callee(args)
type NewExpr struct {
	Pos    Position
	Callee Expr
	Args   []Expr
}

func (e *NewExpr) Position() Position { return e.Pos }
func (e *NewExpr) exprNode()          {}

// SequenceExpr represents a, b, c
type SequenceExpr struct {
	Pos   Position
	Exprs []Expr
}

func (e *SequenceExpr) Position() Position { return e.Pos }
func (e *SequenceExpr) exprNode()          {}

// ---- Statements ----

// ExprStmt represents an expression statement
type ExprStmt struct {
	Pos  Position
	Expr Expr
}

func (s *ExprStmt) Position() Position { return s.Pos }
func (s *ExprStmt) stmtNode()          {}

// EmptyStmt is a lone semicolon
type EmptyStmt struct {
	Pos Position
}

func (s *EmptyStmt) Position() Position { return s.Pos }
func (s *EmptyStmt) stmtNode()          {}

// VarDecl is one name = init pair
type VarDecl struct {
	Name string
	Init Expr // may be nil
}

// VarStmt represents var/let/const declarations
type VarStmt struct {
	Pos   Position
	Kind  TokenType // TOKEN_VAR, TOKEN_LET, TOKEN_CONST
	Decls []VarDecl
}

func (s *VarStmt) Position() Position { return s.Pos }
func (s *VarStmt) stmtNode()          {}

// FunctionDecl represents a hoisted function declaration
type FunctionDecl struct {
	Pos  Position
	Func *FunctionExpr
}

func (s *FunctionDecl) Position() Position { return s.Pos }
func (s *FunctionDecl) stmtNode()          {}

// BlockStmt represents { ... }
type BlockStmt struct {
	Pos  Position
	Body []Stmt
}

func (s *BlockStmt) Position() Position { return s.Pos }
func (s *BlockStmt) stmtNode()          {}

// IfStmt represents if/else
type IfStmt struct {
	Pos       Position
	Condition Expr
	Then      Stmt
	Else      Stmt // may be nil
}

func (s *IfStmt) Position() Position { return s.Pos }
func (s *IfStmt) stmtNode()          {}

// WhileStmt represents while and do-while loops
type WhileStmt struct {
	Pos       Position
	Label     string
	Condition Expr
	Body      Stmt
	DoWhile   bool
}

func (s *WhileStmt) Position() Position { return s.Pos }
func (s *WhileStmt) stmtNode()          {}

// ForStmt represents for (init; cond; update)
type ForStmt struct {
	Pos       Position
	Label     string
	Init      Stmt // VarStmt or ExprStmt, may be nil
	Condition Expr // may be nil
	Update    Expr // may be nil
	Body      Stmt
}

func (s *ForStmt) Position() Position { return s.Pos }
func (s *ForStmt) stmtNode()          {}

// ForInStmt represents for (x in obj) and for (x of arr)
type ForInStmt struct {
	Pos     Position
	Label   string
	Declare bool   // the loop variable is declared by the statement
	Name    string // loop variable
	Of      bool   // for-of iterates values instead of keys
	Object  Expr
	Body    Stmt
}

func (s *ForInStmt) Position() Position { return s.Pos }
func (s *ForInStmt) stmtNode()          {}

// ReturnStmt represents return [expr]
type ReturnStmt struct {
	Pos   Position
	Value Expr // may be nil
}

func (s *ReturnStmt) Position() Position { return s.Pos }
func (s *ReturnStmt) stmtNode()          {}

// BreakStmt represents break [label]
type BreakStmt struct {
	Pos   Position
	Label string
}

func (s *BreakStmt) Position() Position { return s.Pos }
func (s *BreakStmt) stmtNode()          {}

// ContinueStmt represents continue [label]
type ContinueStmt struct {
	Pos   Position
	Label string
}

func (s *ContinueStmt) Position() Position { return s.Pos }
func (s *ContinueStmt) stmtNode()          {}

// ThrowStmt represents throw expr
type ThrowStmt struct {
	Pos   Position
	Value Expr
}

func (s *ThrowStmt) Position() Position { return s.Pos }
func (s *ThrowStmt) stmtNode()          {}

// TryStmt represents try/catch/finally
type TryStmt struct {
	Pos        Position
	Body       []Stmt
	CatchParam string // empty when the catch binding is omitted
	Catch      []Stmt // nil when there is no catch clause
	HasCatch   bool
	Finally    []Stmt // nil when there is no finally clause
}

func (s *TryStmt) Position() Position { return s.Pos }
func (s *TryStmt) stmtNode()          {}

// ImportStmt represents import name from "module"
type ImportStmt struct {
	Pos    Position
	Name   string
	Module string
}

func (s *ImportStmt) Position() Position { return s.Pos }
func (s *ImportStmt) stmtNode()          {}

// ExportDefaultStmt represents export default expr
type ExportDefaultStmt struct {
	Pos   Position
	Value Expr
}

func (s *ExportDefaultStmt) Position() Position { return s.Pos }
func (s *ExportDefaultStmt) stmtNode()          {}
