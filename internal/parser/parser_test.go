package parser

import (
	"strings"
	"testing"
)

func parse(t *testing.T, src string) *Program {
	t.Helper()
	p := New(src, "test.lox")
	prog := p.Parse()
	if p.HasErrors() {
		for _, err := range p.Errors() {
			t.Errorf("parser error: %v", err)
		}
		t.FailNow()
	}
	return prog
}

// sexpr 以前缀形式打印表达式，便于断言结合性
func sexpr(e Expr) string {
	switch e := e.(type) {
	case *Literal:
		if e.Value == nil {
			return "nil"
		}
		return e.Token.Literal
	case *Grouping:
		return "(group " + sexpr(e.Inner) + ")"
	case *Unary:
		return "(" + e.Op.Literal + " " + sexpr(e.Right) + ")"
	case *Binary:
		return "(" + e.Op.Literal + " " + sexpr(e.Left) + " " + sexpr(e.Right) + ")"
	case *Logical:
		return "(" + e.Op.Literal + " " + sexpr(e.Left) + " " + sexpr(e.Right) + ")"
	case *Variable:
		return e.Name.Literal
	case *Assign:
		return "(= " + e.Name.Literal + " " + sexpr(e.Value) + ")"
	case *Call:
		parts := []string{"call", sexpr(e.Callee)}
		for _, a := range e.Args {
			parts = append(parts, sexpr(a))
		}
		return "(" + strings.Join(parts, " ") + ")"
	case *Get:
		return "(. " + sexpr(e.Object) + " " + e.Name.Literal + ")"
	case *Set:
		return "(.= " + sexpr(e.Object) + " " + e.Name.Literal + " " + sexpr(e.Value) + ")"
	case *This:
		return "this"
	case *Super:
		return "(super " + e.Method.Literal + ")"
	}
	return "?"
}

func TestParseExpressions(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"1 + 2 * 3;", "(+ 1 (* 2 3))"},
		{"1 - 2 - 3;", "(- (- 1 2) 3)"},
		{"2 ** 3 ** 2;", "(** (** 2 3) 2)"},
		{"-2 ** 2;", "(** (- 2) 2)"},
		{"2 * 3 ** 2;", "(* 2 (** 3 2))"},
		{"(1 + 2) * 3;", "(* (group (+ 1 2)) 3)"},
		{"!true and false or nil;", "(or (and (! true) false) nil)"},
		{"a = b = 3;", "(= a (= b 3))"},
		{"a < b == c >= d;", "(== (< a b) (>= c d))"},
		{"f(1, x)(2);", "(call (call f 1 x) 2)"},
		{"obj.field.inner = 1;", "(.= (. obj field) inner 1)"},
		{"this.x;", "(. this x)"},
		{"super.init;", "(super init)"},
		{`"a" + "b";`, `(+ "a" "b")`},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			prog := parse(t, tt.input)
			if len(prog.Stmts) != 1 {
				t.Fatalf("expected 1 statement, got %d", len(prog.Stmts))
			}
			stmt, ok := prog.Stmts[0].(*ExpressionStmt)
			if !ok {
				t.Fatalf("expected ExpressionStmt, got %T", prog.Stmts[0])
			}
			if got := sexpr(stmt.Expr); got != tt.expected {
				t.Errorf("got %s, want %s", got, tt.expected)
			}
		})
	}
}

func TestParseLiteralValues(t *testing.T) {
	prog := parse(t, `var a = 10; var b = "hi"; var c = true; var d;`)
	want := []interface{}{10.0, "hi", true}
	for i, w := range want {
		v := prog.Stmts[i].(*VarStmt)
		lit, ok := v.Init.(*Literal)
		if !ok || lit.Value != w {
			t.Errorf("stmt %d init = %#v, want %#v", i, v.Init, w)
		}
	}
	if d := prog.Stmts[3].(*VarStmt); d.Init != nil {
		t.Errorf("var d has initializer %v", d.Init)
	}
}

func TestParseStatements(t *testing.T) {
	src := `
var x = 1;
{
  var y = x;
}
if (x) print x; else { x = 2; }
while (x) x = x - 1;
for (var i = 0; i; i = i + 1) print i;
for (;;) {}
fun add(a, b) { return a + b; }
class Point < Base {
  init(x) { this.x = x; }
  norm() { return; }
}
return x;
`
	prog := parse(t, src)

	want := []string{
		"*parser.VarStmt",
		"*parser.BlockStmt",
		"*parser.IfStmt",
		"*parser.WhileStmt",
		"*parser.ForStmt",
		"*parser.ForStmt",
		"*parser.FunctionStmt",
		"*parser.ClassStmt",
		"*parser.ReturnStmt",
	}
	if len(prog.Stmts) != len(want) {
		t.Fatalf("got %d statements, want %d", len(prog.Stmts), len(want))
	}
	for i, s := range prog.Stmts {
		if got := typeName(s); got != want[i] {
			t.Errorf("stmt %d: got %s, want %s", i, got, want[i])
		}
	}

	ifs := prog.Stmts[2].(*IfStmt)
	if _, ok := ifs.Then.(*PrintStmt); !ok {
		t.Errorf("then branch is %T", ifs.Then)
	}
	if _, ok := ifs.Else.(*BlockStmt); !ok {
		t.Errorf("else branch is %T", ifs.Else)
	}

	empty := prog.Stmts[5].(*ForStmt)
	if empty.Init != nil || empty.Cond != nil || empty.Incr != nil {
		t.Error("for(;;) should have empty clauses")
	}

	fn := prog.Stmts[6].(*FunctionStmt)
	if fn.Name.Literal != "add" || len(fn.Params) != 2 || len(fn.Body) != 1 {
		t.Errorf("function = %+v", fn)
	}

	class := prog.Stmts[7].(*ClassStmt)
	if class.Superclass == nil || class.Superclass.Name.Literal != "Base" || len(class.Methods) != 2 {
		t.Errorf("class = %+v", class)
	}
	if ret := class.Methods[1].Body[0].(*ReturnStmt); ret.Value != nil {
		t.Error("bare return should have no value")
	}
}

func typeName(v interface{}) string {
	switch v.(type) {
	case *VarStmt:
		return "*parser.VarStmt"
	case *BlockStmt:
		return "*parser.BlockStmt"
	case *IfStmt:
		return "*parser.IfStmt"
	case *WhileStmt:
		return "*parser.WhileStmt"
	case *ForStmt:
		return "*parser.ForStmt"
	case *FunctionStmt:
		return "*parser.FunctionStmt"
	case *ClassStmt:
		return "*parser.ClassStmt"
	case *ReturnStmt:
		return "*parser.ReturnStmt"
	case *PrintStmt:
		return "*parser.PrintStmt"
	case *ExpressionStmt:
		return "*parser.ExpressionStmt"
	}
	return "?"
}

func TestParsePositions(t *testing.T) {
	prog := parse(t, "var a = 1;\n  a = a + 2;")
	assign := prog.Stmts[1].(*ExpressionStmt).Expr.(*Assign)
	if pos := assign.Pos(); pos.Line != 2 || pos.Column != 3 {
		t.Errorf("assign at %s, want 2:3", pos)
	}
	bin := assign.Value.(*Binary)
	if pos := bin.Pos(); pos.Line != 2 || pos.Column != 9 {
		t.Errorf("binary at %s, want 2:9", pos)
	}
	if pos := bin.Pos(); pos.Filename != "test.lox" {
		t.Errorf("filename = %q", pos.Filename)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		message string
		line    int
	}{
		{"missing semicolon", "var a = 1", "expected ';'", 1},
		{"invalid target", "1 + 2 = 3;", "invalid assignment target", 1},
		{"missing expression", "var a = ;", "expected expression", 1},
		{"unclosed paren", "print (1 + 2;", "expected ')'", 1},
		{"lexer error", "var a = 1;\nvar b = @;", "unexpected character", 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := New(tt.input, "test.lox")
			p.Parse()
			if !p.HasErrors() {
				t.Fatal("expected errors")
			}
			first := p.Errors()[0]
			if !strings.Contains(first.Message, tt.message) {
				t.Errorf("message %q does not contain %q", first.Message, tt.message)
			}
			if first.Pos.Line != tt.line {
				t.Errorf("line = %d, want %d", first.Pos.Line, tt.line)
			}
			if p.Err() == nil {
				t.Error("Err() returned nil")
			}
		})
	}
}

func TestParseRecovers(t *testing.T) {
	p := New("var = 1;\nvar b = 2;\nprint;\nvar c = 3;", "test.lox")
	prog := p.Parse()

	if len(p.Errors()) != 2 {
		t.Errorf("got %d errors, want 2: %v", len(p.Errors()), p.Errors())
	}
	var names []string
	for _, s := range prog.Stmts {
		if v, ok := s.(*VarStmt); ok {
			names = append(names, v.Name.Literal)
		}
	}
	if strings.Join(names, ",") != "b,c" {
		t.Errorf("recovered declarations = %v, want [b c]", names)
	}
}

func TestNoErrorsMeansNilErr(t *testing.T) {
	p := New("var a = 1;", "test.lox")
	p.Parse()
	if err := p.Err(); err != nil {
		t.Errorf("Err() = %v", err)
	}
}
