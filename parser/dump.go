package parser

import (
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Dump writes an indented tree of the program to w
func Dump(w io.Writer, prog *Program) error {
	d := &dumper{}
	mode := "script"
	if prog.Mode == ModeModule {
		mode = "module"
	}
	d.line(0, "Program (%s)", mode)
	for _, s := range prog.Body {
		d.stmt(1, s)
	}
	_, err := io.WriteString(w, d.b.String())
	return err
}

type dumper struct {
	b strings.Builder
}

func (d *dumper) line(indent int, format string, args ...interface{}) {
	d.b.WriteString(strings.Repeat("  ", indent))
	fmt.Fprintf(&d.b, format, args...)
	d.b.WriteByte('\n')
}

func (d *dumper) stmts(indent int, label string, body []Stmt) {
	d.line(indent, "%s", label)
	for _, s := range body {
		d.stmt(indent+1, s)
	}
}

func (d *dumper) stmt(indent int, stmt Stmt) {
	switch s := stmt.(type) {
	case *ExprStmt:
		d.line(indent, "ExprStmt")
		d.expr(indent+1, s.Expr)
	case *EmptyStmt:
		d.line(indent, "Empty")
	case *VarStmt:
		d.line(indent, "%s", s.Kind)
		for _, decl := range s.Decls {
			d.line(indent+1, "%s", decl.Name)
			if decl.Init != nil {
				d.expr(indent+2, decl.Init)
			}
		}
	case *FunctionDecl:
		d.expr(indent, s.Func)
	case *BlockStmt:
		d.stmts(indent, "Block", s.Body)
	case *IfStmt:
		d.line(indent, "If")
		d.expr(indent+1, s.Condition)
		d.stmt(indent+1, s.Then)
		if s.Else != nil {
			d.line(indent, "Else")
			d.stmt(indent+1, s.Else)
		}
	case *WhileStmt:
		kind := "While"
		if s.DoWhile {
			kind = "DoWhile"
		}
		d.line(indent, "%s%s", kind, labelSuffix(s.Label))
		d.expr(indent+1, s.Condition)
		d.stmt(indent+1, s.Body)
	case *ForStmt:
		d.line(indent, "For%s", labelSuffix(s.Label))
		if s.Init != nil {
			d.stmt(indent+1, s.Init)
		}
		if s.Condition != nil {
			d.expr(indent+1, s.Condition)
		}
		if s.Update != nil {
			d.expr(indent+1, s.Update)
		}
		d.stmt(indent+1, s.Body)
	case *ForInStmt:
		kind := "ForIn"
		if s.Of {
			kind = "ForOf"
		}
		d.line(indent, "%s %s%s", kind, s.Name, labelSuffix(s.Label))
		d.expr(indent+1, s.Object)
		d.stmt(indent+1, s.Body)
	case *ReturnStmt:
		d.line(indent, "Return")
		if s.Value != nil {
			d.expr(indent+1, s.Value)
		}
	case *BreakStmt:
		d.line(indent, "Break%s", labelSuffix(s.Label))
	case *ContinueStmt:
		d.line(indent, "Continue%s", labelSuffix(s.Label))
	case *ThrowStmt:
		d.line(indent, "Throw")
		d.expr(indent+1, s.Value)
	case *TryStmt:
		d.stmts(indent, "Try", s.Body)
		if s.HasCatch {
			d.stmts(indent, "Catch "+s.CatchParam, s.Catch)
		}
		if s.Finally != nil {
			d.stmts(indent, "Finally", s.Finally)
		}
	case *ImportStmt:
		d.line(indent, "Import %s from %s", s.Name, strconv.Quote(s.Module))
	case *ExportDefaultStmt:
		d.line(indent, "ExportDefault")
		d.expr(indent+1, s.Value)
	default:
		d.line(indent, "%T", stmt)
	}
}

func labelSuffix(label string) string {
	if label == "" {
		return ""
	}
	return " :" + label
}

func (d *dumper) expr(indent int, expr Expr) {
	switch e := expr.(type) {
	case nil:
		d.line(indent, "Hole")
	case *NumberLiteral:
		d.line(indent, "Number %s", strconv.FormatFloat(e.Value, 'g', -1, 64))
	case *StringLiteral:
		d.line(indent, "String %s", strconv.Quote(e.Value))
	case *BoolLiteral:
		d.line(indent, "Bool %t", e.Value)
	case *NullLiteral:
		d.line(indent, "Null")
	case *ThisExpr:
		d.line(indent, "This")
	case *IdentifierExpr:
		d.line(indent, "Name %s", e.Name)
	case *ArrayExpr:
		d.line(indent, "Array")
		for _, el := range e.Elements {
			d.expr(indent+1, el)
		}
	case *ObjectExpr:
		d.line(indent, "Object")
		for _, prop := range e.Properties {
			if prop.Computed != nil {
				d.line(indent+1, "[computed]")
				d.expr(indent+2, prop.Computed)
			} else {
				d.line(indent+1, "%s:", prop.Key)
			}
			d.expr(indent+2, prop.Value)
		}
	case *FunctionExpr:
		kind := "Function"
		if e.Arrow {
			kind = "Arrow"
		}
		d.stmts(indent, fmt.Sprintf("%s %s(%s)", kind, e.Name, strings.Join(e.Params, ", ")), e.Body)
	case *UnaryExpr:
		d.line(indent, "Unary %s", e.Operator)
		d.expr(indent+1, e.Operand)
	case *UpdateExpr:
		form := "postfix"
		if e.Prefix {
			form = "prefix"
		}
		d.line(indent, "Update %s %s", e.Operator, form)
		d.expr(indent+1, e.Target)
	case *BinaryExpr:
		d.line(indent, "Binary %s", e.Operator)
		d.expr(indent+1, e.Left)
		d.expr(indent+1, e.Right)
	case *LogicalExpr:
		d.line(indent, "Logical %s", e.Operator)
		d.expr(indent+1, e.Left)
		d.expr(indent+1, e.Right)
	case *TernaryExpr:
		d.line(indent, "Ternary")
		d.expr(indent+1, e.Condition)
		d.expr(indent+1, e.ThenExpr)
		d.expr(indent+1, e.ElseExpr)
	case *AssignExpr:
		d.line(indent, "Assign %s", e.Operator)
		d.expr(indent+1, e.Target)
		d.expr(indent+1, e.Value)
	case *MemberExpr:
		d.line(indent, "Member .%s", e.Name)
		d.expr(indent+1, e.Object)
	case *IndexExpr:
		d.line(indent, "Index")
		d.expr(indent+1, e.Object)
		d.expr(indent+1, e.Index)
	case *CallExpr:
		d.line(indent, "Call")
		d.expr(indent+1, e.Callee)
		for _, a := range e.Args {
			d.expr(indent+2, a)
		}
	case *NewExpr:
		d.line(indent, "New")
		d.expr(indent+1, e.Callee)
		for _, a := range e.Args {
			d.expr(indent+2, a)
		}
	case *SequenceExpr:
		d.line(indent, "Sequence")
		for _, x := range e.Exprs {
			d.expr(indent+1, x)
		}
	default:
		d.line(indent, "%T", expr)
	}
}
