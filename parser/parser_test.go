package parser

import (
	"errors"
	"strings"
	"testing"
)

func parseScript(t *testing.T, src string) *Program {
	t.Helper()
	prog, err := Parse(src, "test.js", ModeScript)
	if err != nil {
		t.Fatalf("Parse(%q) failed: %v", src, err)
	}
	return prog
}

func TestParseExpressionPrecedence(t *testing.T) {
	tests := []struct {
		input string
		check func(t *testing.T, e Expr)
	}{
		{"1 + 2 * 3", func(t *testing.T, e Expr) {
			bin := e.(*BinaryExpr)
			if bin.Operator != TOKEN_PLUS {
				t.Fatalf("top operator = %s, want +", bin.Operator)
			}
			if r := bin.Right.(*BinaryExpr); r.Operator != TOKEN_STAR {
				t.Errorf("right operator = %s, want *", r.Operator)
			}
		}},
		{"2 ** 3 ** 2", func(t *testing.T, e Expr) {
			bin := e.(*BinaryExpr)
			if _, ok := bin.Right.(*BinaryExpr); !ok {
				t.Errorf("** should be right associative, right = %T", bin.Right)
			}
		}},
		{"a || b && c", func(t *testing.T, e Expr) {
			l := e.(*LogicalExpr)
			if l.Operator != TOKEN_OR {
				t.Fatalf("top operator = %s, want ||", l.Operator)
			}
			if r := l.Right.(*LogicalExpr); r.Operator != TOKEN_AND {
				t.Errorf("right operator = %s, want &&", r.Operator)
			}
		}},
		{"a = b = 3", func(t *testing.T, e Expr) {
			a := e.(*AssignExpr)
			if _, ok := a.Value.(*AssignExpr); !ok {
				t.Errorf("assignment should be right associative, value = %T", a.Value)
			}
		}},
		{"c ? 1 : d ? 2 : 3", func(t *testing.T, e Expr) {
			tern := e.(*TernaryExpr)
			if _, ok := tern.ElseExpr.(*TernaryExpr); !ok {
				t.Errorf("nested ternary should bind in the else branch, got %T", tern.ElseExpr)
			}
		}},
		{"-x.y", func(t *testing.T, e Expr) {
			u := e.(*UnaryExpr)
			if _, ok := u.Operand.(*MemberExpr); !ok {
				t.Errorf("unary operand = %T, want *MemberExpr", u.Operand)
			}
		}},
		{"new Foo(1).bar()", func(t *testing.T, e Expr) {
			call := e.(*CallExpr)
			m := call.Callee.(*MemberExpr)
			if _, ok := m.Object.(*NewExpr); !ok {
				t.Errorf("member object = %T, want *NewExpr", m.Object)
			}
		}},
		{"x++", func(t *testing.T, e Expr) {
			u := e.(*UpdateExpr)
			if u.Prefix || u.Operator != TOKEN_INC {
				t.Errorf("got %+v, want postfix ++", u)
			}
		}},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			p := NewParser(tt.input)
			expr, err := p.ParseExpression(PREC_LOWEST)
			if err != nil {
				t.Fatalf("failed to parse: %v", err)
			}
			tt.check(t, expr)
		})
	}
}

func TestParseArrowFunctions(t *testing.T) {
	tests := []struct {
		input  string
		params int
	}{
		{"x => x + 1", 1},
		{"(a, b) => a * b", 2},
		{"() => { return 1; }", 0},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			expr, err := NewParser(tt.input).ParseExpression(PREC_LOWEST)
			if err != nil {
				t.Fatalf("failed to parse: %v", err)
			}
			fn, ok := expr.(*FunctionExpr)
			if !ok || !fn.Arrow {
				t.Fatalf("got %T, want arrow function", expr)
			}
			if len(fn.Params) != tt.params {
				t.Errorf("params = %v, want %d", fn.Params, tt.params)
			}
		})
	}
}

func TestParseObjectLiteral(t *testing.T) {
	expr, err := NewParser(`({a: 1, "b": 2, c, m(x) { return x; }, [k]: 3, default: 4})`).ParseExpression(PREC_LOWEST)
	if err != nil {
		t.Fatalf("failed to parse: %v", err)
	}
	obj := expr.(*ObjectExpr)
	if len(obj.Properties) != 6 {
		t.Fatalf("got %d properties, want 6", len(obj.Properties))
	}
	if _, ok := obj.Properties[2].Value.(*IdentifierExpr); !ok {
		t.Errorf("shorthand property value = %T", obj.Properties[2].Value)
	}
	if _, ok := obj.Properties[3].Value.(*FunctionExpr); !ok {
		t.Errorf("method property value = %T", obj.Properties[3].Value)
	}
	if obj.Properties[4].Computed == nil {
		t.Error("computed key not recorded")
	}
	if obj.Properties[5].Key != "default" {
		t.Errorf("reserved word key = %q", obj.Properties[5].Key)
	}
}

func TestParseStatements(t *testing.T) {
	src := `
var a = 1, b;
let c = a
const d = 2;
function f(x, y) {
  if (x) { return y; } else return 0;
}
for (var i = 0; i < 3; i++) { continue; }
for (k in o) {}
for (const v of arr) { break; }
outer: while (true) { do { break outer; } while (false) }
try { throw new Error("x"); } catch (e) { } finally { }
try {} catch {}
`
	prog := parseScript(t, src)

	want := []string{
		"*parser.VarStmt", "*parser.VarStmt", "*parser.VarStmt", "*parser.FunctionDecl",
		"*parser.ForStmt", "*parser.ForInStmt", "*parser.ForInStmt", "*parser.WhileStmt",
		"*parser.TryStmt", "*parser.TryStmt",
	}
	if len(prog.Body) != len(want) {
		t.Fatalf("got %d statements, want %d", len(prog.Body), len(want))
	}
	for i, s := range prog.Body {
		if got := typeName(s); got != want[i] {
			t.Errorf("statement %d: got %s, want %s", i, got, want[i])
		}
	}

	forOf := prog.Body[6].(*ForInStmt)
	if !forOf.Of || !forOf.Declare || forOf.Name != "v" {
		t.Errorf("for-of parsed as %+v", forOf)
	}
	loop := prog.Body[7].(*WhileStmt)
	if loop.Label != "outer" {
		t.Errorf("label = %q, want outer", loop.Label)
	}
}

func typeName(v interface{}) string {
	switch v.(type) {
	case *VarStmt:
		return "*parser.VarStmt"
	case *FunctionDecl:
		return "*parser.FunctionDecl"
	case *ForStmt:
		return "*parser.ForStmt"
	case *ForInStmt:
		return "*parser.ForInStmt"
	case *WhileStmt:
		return "*parser.WhileStmt"
	case *TryStmt:
		return "*parser.TryStmt"
	}
	return "other"
}

func TestParseModules(t *testing.T) {
	prog, err := Parse(`import lib from "lib"; export default lib.x + 1;`, "m.js", ModeModule)
	if err != nil {
		t.Fatalf("module parse failed: %v", err)
	}
	if _, ok := prog.Body[0].(*ImportStmt); !ok {
		t.Errorf("first statement = %T, want *ImportStmt", prog.Body[0])
	}
	if _, ok := prog.Body[1].(*ExportDefaultStmt); !ok {
		t.Errorf("second statement = %T, want *ExportDefaultStmt", prog.Body[1])
	}

	if _, err := Parse(`export default 1;`, "s.js", ModeScript); err == nil {
		t.Error("export accepted in script mode")
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		input string
		msg   string
	}{
		{"var = 1;", "Unexpected token"},
		{"return 1;", "Illegal return statement"},
		{"break;", "Illegal break statement"},
		{"1 = 2;", "Invalid left-hand side"},
		{"a b", "Unexpected token"},
		{"const x;", "missing initializer"},
		{"try {}", "Missing catch or finally"},
		{"f(", "Unexpected end of input"},
		{"x = \"open", "unterminated string"},
		{"while (1) { continue nope; }", "Undefined label"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			_, err := Parse(tt.input, "bad.js", ModeScript)
			if err == nil {
				t.Fatal("expected a syntax error")
			}
			var se *SyntaxError
			if !errors.As(err, &se) {
				t.Fatalf("error %T is not *SyntaxError", err)
			}
			if !strings.Contains(se.Message, tt.msg) {
				t.Errorf("message %q does not contain %q", se.Message, tt.msg)
			}
			if se.File != "bad.js" || se.Pos.Line != 1 {
				t.Errorf("error located at %s:%d", se.File, se.Pos.Line)
			}
		})
	}
}

func TestASI(t *testing.T) {
	prog := parseScript(t, "a = 1\nb = 2\nfunction g() { return\n1 }")
	if len(prog.Body) != 3 {
		t.Fatalf("got %d statements, want 3", len(prog.Body))
	}
	g := prog.Body[2].(*FunctionDecl)
	ret := g.Func.Body[0].(*ReturnStmt)
	if ret.Value != nil {
		t.Error("return followed by a newline should not take a value")
	}
}

func TestDump(t *testing.T) {
	prog := parseScript(t, "var x = 1 + y;")
	var b strings.Builder
	if err := Dump(&b, prog); err != nil {
		t.Fatal(err)
	}
	out := b.String()
	for _, want := range []string{"Program (script)", "var", "Binary +", "Number 1", "Name y"} {
		if !strings.Contains(out, want) {
			t.Errorf("dump missing %q:\n%s", want, out)
		}
	}
}
