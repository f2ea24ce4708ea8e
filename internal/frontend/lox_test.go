package frontend

import (
	stderrors "errors"
	"strings"
	"testing"

	"go.uber.org/multierr"

	"github.com/tangzhangming/lye/internal/ast"
	"github.com/tangzhangming/lye/internal/compiler"
	"github.com/tangzhangming/lye/internal/errors"
)

func adapt(t *testing.T, src string) *ast.Block {
	t.Helper()
	root, err := FromSource(src, "test.lox")
	if err != nil {
		t.Fatalf("FromSource: %v", err)
	}
	return root
}

func TestAdaptStatements(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"var a = 1;", "var a = 1.0;"},
		{"var a;", "var a;"},
		{"var a = (1 + 2) * 3;", "var a = ((1.0 + 2.0) * 3.0);"},
		{"var a = 2 ** 3;", "var a = (2.0 ** 3.0);"},
		{"var a = !true and false or true;", "var a = ((!true and false) or true);"},
		{"var a = -1;", "var a = -1.0;"},
		{`var s = "x" + "y";`, `var s = ("x" + "y");`},
		{"var a = 1; a = 2;", "(a = 2.0);"},
		{"return 1;", "return 1.0;"},
		{"return;", "return nil;"},
		{"fun f() {}", "fun f() {...}"},
		{"class C {}", "class C {...}"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			root := adapt(t, tt.input)
			last := root.Stmts[len(root.Stmts)-1]
			if got := last.String(); got != tt.expected {
				t.Errorf("got %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestAdaptIfWrapsBranches(t *testing.T) {
	root := adapt(t, "if (true) return 1; else { return 2; }")
	s, ok := root.Stmts[0].(*ast.If)
	if !ok {
		t.Fatalf("got %T", root.Stmts[0])
	}
	then, ok := s.Then.(*ast.Block)
	if !ok || len(then.Stmts) != 1 {
		t.Errorf("then = %#v", s.Then)
	}
	if _, ok := s.Else.(*ast.Block); !ok {
		t.Errorf("else = %#v", s.Else)
	}

	root = adapt(t, "if (true) {}")
	if root.Stmts[0].(*ast.If).Else != nil {
		t.Error("missing else should stay nil")
	}
}

func TestAnnotations(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  ast.Kind
	}{
		{"number", "var a = 1; return a;", ast.Number},
		{"string", `var a = "s"; return a;`, ast.String},
		{"boolean", "var a = true; return a;", ast.Boolean},
		{"uninitialized", "var a; return a;", ast.Nil},
		{"undeclared", "return a;", ast.Nil},
		{"refined by assignment", `var a; a = "s"; return a;`, ast.String},
		{"through another variable", "var a = 1; var b = a; return b;", ast.Number},
		{"function", "fun f() {} return f;", ast.Callable},
		{"inner shadows", `var a = 1; { var a = "s"; } return a;`, ast.Number},
		{"assignment reaches outer", `var a = 1; { a = "s"; } return a;`, ast.String},
		{"both branches agree", `var c = true; var a = 1; if (c) { a = "s"; } else { a = "t"; } return a;`, ast.String},
		{"returning branch does not reach", `var c = true; var a = 1; if (c) { a = "s"; return a; } return a;`, ast.Number},
		{"returning else does not reach", `var c = true; var a = 1; if (c) a = "s"; else return a; return a;`, ast.String},
		{"branch-local shadow", `var c = true; var a = 1; if (c) { var a = "s"; } return a;`, ast.Number},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := adapt(t, tt.input)
			ret := root.Stmts[len(root.Stmts)-1].(*ast.ExprStmt)
			v, ok := ret.X.(*ast.Variable)
			if !ok {
				t.Fatalf("return value is %T", ret.X)
			}
			if v.Annot != tt.want {
				t.Errorf("annotation = %s, want %s", v.Annot, tt.want)
			}
		})
	}
}

func TestBranchKindConflict(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"then only", `var c = false; var x = "s"; var y = 7; if (c) { x = 1; } return x;`},
		{"both branches differ", `var c = false; var x = "s"; if (c) { x = 1; } else { x = true; } return x;`},
		{"nested", `var c = false; var x = "s"; if (c) { if (c) { x = 1; } } return x;`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root, err := FromSource(tt.input, "test.lox")
			if root != nil {
				t.Error("expected no tree")
			}
			var ue *UnsupportedError
			if !stderrors.As(err, &ue) {
				t.Fatalf("got %v, want *UnsupportedError", err)
			}
			if ue.Construct != "variable 'x' kind differs across branches" {
				t.Errorf("construct = %q", ue.Construct)
			}
		})
	}
}

func TestAdaptPositions(t *testing.T) {
	root := adapt(t, "var a = 1;\nreturn a + 2;")
	if pos := root.Stmts[0].Pos(); pos.Line != 1 || pos.Column != 5 {
		t.Errorf("def at %s, want 1:5", pos)
	}
	ret := root.Stmts[1].(*ast.ExprStmt)
	bin := ret.X.(*ast.Binary)
	if pos := bin.Pos(); pos.Line != 2 || pos.Column != 10 || pos.Filename != "test.lox" {
		t.Errorf("binary at %s, want test.lox:2:10", pos)
	}
}

func TestUnsupportedConstructs(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		construct string
	}{
		{"comparison", "var a = 1 < 2;", "operator '<'"},
		{"equality", "var a = 1 == 2;", "operator '=='"},
		{"call", "f();", "call"},
		{"print", "print 1;", "print statement"},
		{"while", "while (true) {}", "while loop"},
		{"for", "for (;;) {}", "for loop"},
		{"property", "var a = b.c;", "property access"},
		{"property assignment", "b.c = 1;", "property assignment"},
		{"super", "var a = super.m;", "super"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root, err := FromSource(tt.input, "test.lox")
			if root != nil {
				t.Error("expected no tree")
			}
			var ue *UnsupportedError
			if !stderrors.As(err, &ue) {
				t.Fatalf("got %v, want *UnsupportedError", err)
			}
			if ue.Construct != tt.construct {
				t.Errorf("construct = %q, want %q", ue.Construct, tt.construct)
			}
			if ue.ErrorCode() != errors.E0801 {
				t.Errorf("code = %s", ue.ErrorCode())
			}
		})
	}
}

func TestUnsupportedAreCollected(t *testing.T) {
	src := "print 1;\nvar a = 1 < 2;\nwhile (a) {}\nvar b = 3;"
	_, err := FromSource(src, "test.lox")
	errs := multierr.Errors(err)
	if len(errs) != 3 {
		t.Fatalf("got %d errors, want 3: %v", len(errs), err)
	}
	for i, line := range []int{1, 2, 3} {
		var ue *UnsupportedError
		if !stderrors.As(errs[i], &ue) || ue.Pos.Line != line {
			t.Errorf("error %d = %v, want line %d", i, errs[i], line)
		}
	}

	diags := errors.FromErrors(err, "test.lox")
	if len(diags) != 3 || diags[0].Code != errors.E0801 || diags[0].Line != 1 {
		t.Errorf("diagnostics = %+v", diags[0])
	}
	if strings.HasPrefix(diags[0].Message, "test.lox") {
		t.Errorf("message keeps the position prefix: %q", diags[0].Message)
	}
}

func TestSyntaxErrorsComeFirst(t *testing.T) {
	_, err := FromSource("print 1", "test.lox")
	if err == nil {
		t.Fatal("expected a syntax error")
	}
	var ue *UnsupportedError
	if stderrors.As(err, &ue) {
		t.Error("adaptation ran despite syntax errors")
	}
}

func TestCompileAdapted(t *testing.T) {
	src := `
var a = 10;
var b = (a - 2) * a + 2;
if (true and !false) {
  var s = "lye" + "!";
}
return b / 2 ** 1;
`
	root := adapt(t, src)
	u, err := compiler.Compile("script", root, compiler.DefaultConfig())
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if u.Descriptor() != "()D" {
		t.Errorf("descriptor = %s", u.Descriptor())
	}
	if u.SlotCount != 5 {
		t.Errorf("SlotCount = %d, want 5", u.SlotCount)
	}

	root = adapt(t, "fun f() {}")
	_, err = compiler.Compile("script", root, compiler.DefaultConfig())
	var unsupported *errors.UnsupportedOperationError
	if !stderrors.As(err, &unsupported) {
		t.Errorf("got %v, want UnsupportedOperationError", err)
	}
}
