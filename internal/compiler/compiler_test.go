package compiler

import (
	stderrors "errors"
	"math"
	"reflect"
	"strings"
	"testing"

	"github.com/tangzhangming/lye/internal/ast"
	"github.com/tangzhangming/lye/internal/bytecode"
	"github.com/tangzhangming/lye/internal/errors"
)

func listing(u *bytecode.Unit) []string {
	out := make([]string, len(u.Code))
	for i, in := range u.Code {
		out[i] = in.String()
	}
	return out
}

func opNames(u *bytecode.Unit) []string {
	out := make([]string, len(u.Code))
	for i, in := range u.Code {
		out[i] = in.Op.String()
	}
	return out
}

func mustCompile(t *testing.T, root *ast.Block) *bytecode.Unit {
	t.Helper()
	u, err := Compile("test", root, nil)
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}
	return u
}

func expectCode(t *testing.T, u *bytecode.Unit, want []string) {
	t.Helper()
	if got := listing(u); !reflect.DeepEqual(got, want) {
		t.Errorf("code mismatch\ngot:\n%s\nwant:\n  %s", bytecode.FormatCode(u.Code), strings.Join(want, "\n  "))
	}
}

// var tempvar = (10*(20-10)+20+30)/2; return tempvar;
func tempvarProgram() *ast.Block {
	expr := ast.Bin(ast.Divide,
		ast.Bin(ast.Add,
			ast.Bin(ast.Add,
				ast.Bin(ast.Multiply, ast.Num(10), ast.Bin(ast.Subtract, ast.Num(20), ast.Num(10))),
				ast.Num(20)),
			ast.Num(30)),
		ast.Num(2))
	return ast.NewBlock(
		ast.Var("tempvar", expr),
		ast.Ret(ast.Get("tempvar", ast.Number)),
	)
}

func TestCompileTempvar(t *testing.T) {
	u := mustCompile(t, tempvarProgram())

	expectCode(t, u, []string{
		"ldc2_w #1",
		"ldc2_w #3",
		"ldc2_w #1",
		"dsub",
		"dmul",
		"ldc2_w #3",
		"dadd",
		"ldc2_w #5",
		"dadd",
		"ldc2_w #7",
		"ddiv",
		"dstore 0",
		"dload 0",
		"dreturn",
	})

	if u.MaxStack != 6 {
		t.Errorf("MaxStack = %d, want 6", u.MaxStack)
	}
	if u.SlotCount != 2 {
		t.Errorf("SlotCount = %d, want 2", u.SlotCount)
	}
	if u.Descriptor() != "()D" {
		t.Errorf("Descriptor = %s, want ()D", u.Descriptor())
	}
	if len(u.Slots) != 1 || u.Slots[0].Name != "tempvar" || u.Slots[0].Kind != ast.Number {
		t.Errorf("Slots = %+v", u.Slots)
	}
}

func TestCompileDeterministic(t *testing.T) {
	a := mustCompile(t, tempvarProgram())
	b := mustCompile(t, tempvarProgram())

	if bytecode.FormatCode(a.Code) != bytecode.FormatCode(b.Code) {
		t.Error("code differs between runs")
	}
	if a.MaxStack != b.MaxStack || a.SlotCount != b.SlotCount || !reflect.DeepEqual(a.Slots, b.Slots) {
		t.Error("metadata differs between runs")
	}
	fa, err := bytecode.Fingerprint(a)
	if err != nil {
		t.Fatal(err)
	}
	fb, _ := bytecode.Fingerprint(b)
	if fa != fb {
		t.Error("fingerprints differ between runs")
	}
}

func TestCompileEmpty(t *testing.T) {
	for _, root := range []*ast.Block{nil, ast.NewBlock()} {
		u := mustCompile(t, root)
		expectCode(t, u, []string{"return"})
		if !u.Result.Void || u.Descriptor() != "()V" {
			t.Errorf("Result = %s", u.Result)
		}
	}
}

func TestCompileExpressions(t *testing.T) {
	tests := []struct {
		name   string
		root   *ast.Block
		ops    []string
		result string
		stack  int
	}{
		{
			"boolean literal",
			ast.NewBlock(ast.Ret(ast.Bool(true))),
			[]string{"iconst_1", "ireturn"}, "Boolean", 1,
		},
		{
			"zero and one",
			ast.NewBlock(ast.Eval(ast.Num(0)), ast.Ret(ast.Num(1))),
			[]string{"dconst_0", "pop2", "dconst_1", "dreturn"}, "Number", 2,
		},
		{
			"negative zero uses the pool",
			ast.NewBlock(ast.Ret(ast.Num(math.Copysign(0, -1)))),
			[]string{"ldc2_w", "dreturn"}, "Number", 2,
		},
		{
			"nil literal",
			ast.NewBlock(ast.Ret(ast.NilLit())),
			[]string{"aconst_null", "areturn"}, "Nil", 1,
		},
		{
			"string literal",
			ast.NewBlock(ast.Ret(ast.Str("hi"))),
			[]string{"ldc", "areturn"}, "String", 1,
		},
		{
			"string concat",
			ast.NewBlock(ast.Ret(ast.Bin(ast.Add, ast.Str("a"), ast.Str("b")))),
			[]string{"ldc", "ldc", "invokevirtual", "areturn"}, "String", 2,
		},
		{
			"power",
			ast.NewBlock(ast.Ret(ast.Bin(ast.Power, ast.Num(2), ast.Num(3)))),
			[]string{"ldc2_w", "ldc2_w", "invokestatic", "dreturn"}, "Number", 4,
		},
		{
			"and",
			ast.NewBlock(ast.Ret(ast.Bin(ast.And, ast.Bool(true), ast.Bool(false)))),
			[]string{"iconst_1", "iconst_0", "iand", "ireturn"}, "Boolean", 2,
		},
		{
			"or",
			ast.NewBlock(ast.Ret(ast.Bin(ast.Or, ast.Bool(false), ast.Bool(true)))),
			[]string{"iconst_0", "iconst_1", "ior", "ireturn"}, "Boolean", 2,
		},
		{
			"not",
			ast.NewBlock(ast.Ret(ast.Inv(ast.Bool(false)))),
			[]string{"iconst_0", "iconst_1", "ixor", "ireturn"}, "Boolean", 2,
		},
		{
			"negate",
			ast.NewBlock(ast.Ret(ast.Neg(ast.Num(1)))),
			[]string{"dconst_1", "dneg", "dreturn"}, "Number", 2,
		},
		{
			"discard boolean",
			ast.NewBlock(ast.Eval(ast.Bool(true))),
			[]string{"iconst_1", "pop", "return"}, "void", 1,
		},
		{
			"discard string",
			ast.NewBlock(ast.Eval(ast.Str("x"))),
			[]string{"ldc", "pop", "return"}, "void", 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u := mustCompile(t, tt.root)
			if got := opNames(u); !reflect.DeepEqual(got, tt.ops) {
				t.Errorf("ops = %v, want %v", got, tt.ops)
			}
			if u.Result.String() != tt.result {
				t.Errorf("result = %s, want %s", u.Result, tt.result)
			}
			if u.MaxStack != tt.stack {
				t.Errorf("MaxStack = %d, want %d", u.MaxStack, tt.stack)
			}
		})
	}
}

func TestRuntimeMethodRefs(t *testing.T) {
	u := mustCompile(t, ast.NewBlock(
		ast.Var("s", ast.Bin(ast.Add, ast.Str("a"), ast.Str("b"))),
		ast.Ret(ast.Bin(ast.Power, ast.Num(2), ast.Num(8))),
	))

	var methods []string
	for _, in := range u.Code {
		if in.Op.Operand() != bytecode.OperandMethod {
			continue
		}
		m, err := u.Pool.MethodAt(uint16(in.Arg))
		if err != nil {
			t.Fatal(err)
		}
		methods = append(methods, m.String())
	}

	want := []string{
		"java/lang/String.concat:(Ljava/lang/String;)Ljava/lang/String;",
		"java/lang/Math.pow:(DD)D",
	}
	if !reflect.DeepEqual(methods, want) {
		t.Errorf("methods = %v, want %v", methods, want)
	}
}

func TestStringConstantsInterned(t *testing.T) {
	u := mustCompile(t, ast.NewBlock(
		ast.Var("a", ast.Str("same")),
		ast.Var("b", ast.Str("same")),
	))
	if u.Code[0].Arg != u.Code[2].Arg {
		t.Errorf("same string loaded from #%d and #%d", u.Code[0].Arg, u.Code[2].Arg)
	}
}

func TestAssign(t *testing.T) {
	t.Run("for effect leaves nothing", func(t *testing.T) {
		u := mustCompile(t, ast.NewBlock(
			ast.Var("x", ast.Num(1)),
			ast.Eval(ast.Set("x", ast.Num(2))),
		))
		expectCode(t, u, []string{"dconst_1", "dstore 0", "ldc2_w #1", "dstore 0", "return"})
	})

	t.Run("as value duplicates", func(t *testing.T) {
		u := mustCompile(t, ast.NewBlock(
			ast.Var("x", ast.Num(1)),
			ast.Ret(ast.Set("x", ast.Num(5))),
		))
		expectCode(t, u, []string{"dconst_1", "dstore 0", "ldc2_w #1", "dup2", "dstore 0", "dreturn"})
		if u.MaxStack != 4 {
			t.Errorf("MaxStack = %d, want 4", u.MaxStack)
		}
	})

	t.Run("boolean uses dup", func(t *testing.T) {
		u := mustCompile(t, ast.NewBlock(
			ast.Var("f", ast.Bool(false)),
			ast.Var("g", ast.Set("f", ast.Bool(true))),
		))
		expectCode(t, u, []string{"iconst_0", "istore 0", "iconst_1", "dup", "istore 0", "istore 1", "return"})
	})

	t.Run("undefined target", func(t *testing.T) {
		_, err := Compile("test", ast.NewBlock(ast.Eval(ast.Set("ghost", ast.Num(1)))), nil)
		var undef *errors.UndefinedVariableError
		if !stderrors.As(err, &undef) || undef.Name != "ghost" {
			t.Errorf("err = %v, want UndefinedVariableError(ghost)", err)
		}
	})
}

func TestStrictAssign(t *testing.T) {
	root := func() *ast.Block {
		return ast.NewBlock(
			ast.Var("x", ast.Num(1)),
			ast.Eval(ast.Set("x", ast.Str("s"))),
		)
	}

	if _, err := Compile("test", root(), nil); err != nil {
		t.Fatalf("permissive mode rejected kind change: %v", err)
	}

	_, err := Compile("test", root(), &Config{StrictAssign: true})
	var unsupported *errors.UnsupportedOperationError
	if !stderrors.As(err, &unsupported) || unsupported.Op != "=" {
		t.Errorf("err = %v, want UnsupportedOperationError(=)", err)
	}
}

func TestAssignWiderKind(t *testing.T) {
	// var b = true; var n = 5; b = 2; return n;
	root := func() *ast.Block {
		return ast.NewBlock(
			ast.Var("b", ast.Bool(true)),
			ast.Var("n", ast.Num(5)),
			ast.Eval(ast.Set("b", ast.Num(2))),
			ast.Ret(ast.Get("n", ast.Number)),
		)
	}

	for _, cfg := range []*Config{nil, {StrictAssign: true}} {
		u, err := Compile("test", root(), cfg)
		if u != nil {
			t.Errorf("a double-width store into a one-slot binding compiled:\n%s", bytecode.FormatCode(u.Code))
		}
		var unsupported *errors.UnsupportedOperationError
		if !stderrors.As(err, &unsupported) || unsupported.Op != "=" {
			t.Errorf("err = %v, want UnsupportedOperationError(=)", err)
		}
	}

	// 收窄不越界，宽松模式下照常编译
	u := mustCompile(t, ast.NewBlock(
		ast.Var("n", ast.Num(1)),
		ast.Var("s", ast.Str("s")),
		ast.Eval(ast.Set("n", ast.Bool(true))),
		ast.Ret(ast.Get("s", ast.String)),
	))
	expectCode(t, u, []string{
		"dconst_1", "dstore 0",
		"ldc #2", "astore 2",
		"iconst_1", "istore 0",
		"aload 2", "areturn",
	})
}

func TestSelfReferenceInInitializer(t *testing.T) {
	tests := []struct {
		name string
		root *ast.Block
	}{
		{
			"top level",
			ast.NewBlock(ast.Var("x", ast.Get("x", ast.Number))),
		},
		{
			"shadowing an outer binding",
			ast.NewBlock(
				ast.Var("x", ast.Num(1)),
				ast.NewBlock(ast.Var("x", ast.Bin(ast.Add, ast.Get("x", ast.Number), ast.Num(1)))),
			),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Compile("test", tt.root, nil)
			var undef *errors.UndefinedVariableError
			if !stderrors.As(err, &undef) || undef.Name != "x" {
				t.Errorf("err = %v, want UndefinedVariableError(x)", err)
			}
		})
	}

	t.Run("redeclare reported first", func(t *testing.T) {
		_, err := Compile("test", ast.NewBlock(
			ast.Var("x", ast.Num(1)),
			ast.Var("x", ast.Get("x", ast.Number)),
		), nil)
		var redeclare *errors.RedeclareError
		if !stderrors.As(err, &redeclare) {
			t.Errorf("err = %v, want RedeclareError", err)
		}
	})

	t.Run("resolvable after the store", func(t *testing.T) {
		u := mustCompile(t, ast.NewBlock(
			ast.Var("x", ast.Num(1)),
			ast.Var("y", ast.Get("x", ast.Number)),
			ast.Ret(ast.Get("y", ast.Number)),
		))
		expectCode(t, u, []string{"dconst_1", "dstore 0", "dload 0", "dstore 2", "dload 2", "dreturn"})
	})
}

func TestKindsSelectDistinctInstructions(t *testing.T) {
	u := mustCompile(t, ast.NewBlock(
		ast.Var("b", ast.Bool(true)),
		ast.Var("n", ast.Num(1)),
		ast.Var("s", ast.Str("x")),
		ast.Eval(ast.Get("b", ast.Boolean)),
		ast.Eval(ast.Get("n", ast.Number)),
		ast.Eval(ast.Get("s", ast.String)),
	))

	expectCode(t, u, []string{
		"iconst_1", "istore 0",
		"dconst_1", "dstore 1",
		"ldc #2", "astore 3",
		"iload 0", "pop",
		"dload 1", "pop2",
		"aload 3", "pop",
		"return",
	})
	if u.SlotCount != 4 {
		t.Errorf("SlotCount = %d, want 4", u.SlotCount)
	}
}

func TestSlotsNeverOverlap(t *testing.T) {
	u := mustCompile(t, ast.NewBlock(
		ast.Var("a", ast.Num(1)),
		ast.NewBlock(ast.Var("b", ast.Bool(true)), ast.Var("c", ast.Num(2))),
		ast.NewBlock(ast.Var("d", ast.Num(3))),
		ast.Var("e", ast.Str("e")),
	))

	used := make(map[int]string)
	for _, s := range u.Slots {
		width := s.Kind.Width()
		for i := s.Index; i < s.Index+width; i++ {
			if other, ok := used[i]; ok {
				t.Errorf("slot %d shared by %s and %s", i, other, s.Name)
			}
			used[i] = s.Name
		}
	}
	if u.SlotCount != 8 {
		t.Errorf("SlotCount = %d, want 8", u.SlotCount)
	}
}

func TestFrameBase(t *testing.T) {
	u, err := Compile("test", ast.NewBlock(ast.Var("x", ast.Num(1))), &Config{FrameBase: 1})
	if err != nil {
		t.Fatal(err)
	}
	expectCode(t, u, []string{"dconst_1", "dstore 1", "return"})
	if u.SlotCount != 3 {
		t.Errorf("SlotCount = %d, want 3", u.SlotCount)
	}
}

func TestRedeclare(t *testing.T) {
	_, err := Compile("test", ast.NewBlock(
		ast.Var("a", ast.Num(1)),
		ast.Var("a", ast.Num(2)),
	), nil)

	var redeclare *errors.RedeclareError
	if !stderrors.As(err, &redeclare) {
		t.Fatalf("err = %v, want RedeclareError", err)
	}
	if redeclare.Name != "a" {
		t.Errorf("Name = %q, want a", redeclare.Name)
	}

	// 内层块可以遮蔽外层名字
	u := mustCompile(t, ast.NewBlock(
		ast.Var("a", ast.Num(1)),
		ast.NewBlock(ast.Var("a", ast.Bool(true)), ast.Eval(ast.Get("a", ast.Boolean))),
		ast.Ret(ast.Get("a", ast.Number)),
	))
	expectCode(t, u, []string{
		"dconst_1", "dstore 0",
		"iconst_1", "istore 2",
		"iload 2", "pop",
		"dload 0", "dreturn",
	})
}

func TestUndefinedVariable(t *testing.T) {
	tests := []struct {
		name    string
		root    *ast.Block
		missing string
		similar string
	}{
		{
			"never declared",
			ast.NewBlock(ast.Ret(ast.Get("nope", ast.Number))),
			"nope", "",
		},
		{
			"suggests a close name",
			ast.NewBlock(ast.Var("counter", ast.Num(0)), ast.Ret(ast.Get("count", ast.Number))),
			"count", "counter",
		},
		{
			"inner binding is gone after the block",
			ast.NewBlock(
				ast.NewBlock(ast.Var("inner", ast.Num(1))),
				ast.Ret(ast.Get("inner", ast.Number)),
			),
			"inner", "",
		},
		{
			"sibling branch binding",
			ast.NewBlock(
				ast.NewIf(ast.Bool(true), ast.NewBlock(ast.Var("t", ast.Num(1))), nil),
				ast.Eval(ast.Get("t", ast.Number)),
			),
			"t", "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Compile("test", tt.root, nil)
			var undef *errors.UndefinedVariableError
			if !stderrors.As(err, &undef) {
				t.Fatalf("err = %v, want UndefinedVariableError", err)
			}
			if undef.Name != tt.missing || undef.Similar != tt.similar {
				t.Errorf("got %q (similar %q), want %q (similar %q)",
					undef.Name, undef.Similar, tt.missing, tt.similar)
			}
		})
	}
}

func TestDeadCodeTruncation(t *testing.T) {
	t.Run("after return", func(t *testing.T) {
		u := mustCompile(t, ast.NewBlock(
			ast.Var("a", ast.Num(1)),
			ast.Ret(ast.Get("a", ast.Number)),
			ast.Var("a", ast.Num(2)),
			ast.Eval(ast.Get("nope", ast.Number)),
		))
		expectCode(t, u, []string{"dconst_1", "dstore 0", "dload 0", "dreturn"})
		if u.SlotCount != 2 {
			t.Errorf("SlotCount = %d, want 2", u.SlotCount)
		}
	})

	t.Run("return in nested block", func(t *testing.T) {
		u := mustCompile(t, ast.NewBlock(
			ast.NewBlock(ast.Ret(ast.Bool(true))),
			ast.Var("z", ast.Num(5)),
		))
		expectCode(t, u, []string{"iconst_1", "ireturn"})
		if u.SlotCount != 0 {
			t.Errorf("SlotCount = %d, want 0", u.SlotCount)
		}
	})

	t.Run("after if whose branches both return", func(t *testing.T) {
		u := mustCompile(t, ast.NewBlock(
			ast.NewIf(ast.Bool(true), ast.Ret(ast.Num(1)), ast.Ret(ast.Num(0))),
			ast.Eval(ast.Get("missing", ast.Number)),
		))
		expectCode(t, u, []string{
			"iconst_1",
			"ifeq ->4",
			"dconst_1",
			"dreturn",
			"dconst_0",
			"dreturn",
		})
	})
}

func TestIfLowering(t *testing.T) {
	t.Run("then and else", func(t *testing.T) {
		u := mustCompile(t, ast.NewBlock(
			ast.Var("flag", ast.Bool(true)),
			ast.NewIf(ast.Get("flag", ast.Boolean),
				ast.NewBlock(ast.Var("x", ast.Num(1))),
				ast.NewBlock(ast.Var("y", ast.Num(2)))),
			ast.Ret(ast.Get("flag", ast.Boolean)),
		))
		expectCode(t, u, []string{
			"iconst_1",
			"istore 0",
			"iload 0",
			"ifeq ->7",
			"dconst_1",
			"dstore 1",
			"goto ->9",
			"ldc2_w #1",
			"dstore 3",
			"iload 0",
			"ireturn",
		})
		if u.SlotCount != 5 {
			t.Errorf("SlotCount = %d, want 5", u.SlotCount)
		}
	})

	t.Run("then without else", func(t *testing.T) {
		u := mustCompile(t, ast.NewBlock(
			ast.Var("flag", ast.Bool(true)),
			ast.NewIf(ast.Get("flag", ast.Boolean), ast.NewBlock(ast.Var("x", ast.Num(1))), nil),
			ast.Ret(ast.Get("flag", ast.Boolean)),
		))
		// 省略的 else 不产生跳到下一条指令的 goto
		expectCode(t, u, []string{
			"iconst_1",
			"istore 0",
			"iload 0",
			"ifeq ->6",
			"dconst_1",
			"dstore 1",
			"iload 0",
			"ireturn",
		})
	})

	t.Run("then returns without else", func(t *testing.T) {
		u := mustCompile(t, ast.NewBlock(
			ast.Var("f", ast.Bool(false)),
			ast.NewIf(ast.Get("f", ast.Boolean), ast.Ret(ast.Num(1)), nil),
		))
		expectCode(t, u, []string{
			"iconst_0",
			"istore 0",
			"iload 0",
			"ifeq ->6",
			"dconst_1",
			"dreturn",
			"dconst_0",
			"dreturn",
		})
		if u.Descriptor() != "()D" {
			t.Errorf("Descriptor = %s", u.Descriptor())
		}
	})

	t.Run("only else returns", func(t *testing.T) {
		u := mustCompile(t, ast.NewBlock(
			ast.NewIf(ast.Bool(false), ast.NewBlock(), ast.Ret(ast.Str("no"))),
		))
		expectCode(t, u, []string{
			"iconst_0",
			"ifeq ->3",
			"goto ->5",
			"ldc #2",
			"areturn",
			"aconst_null",
			"areturn",
		})
	})

	t.Run("nested", func(t *testing.T) {
		u := mustCompile(t, ast.NewBlock(
			ast.NewIf(ast.Bool(true),
				ast.NewIf(ast.Bool(false), ast.Ret(ast.Num(1)), nil),
				nil),
			ast.Ret(ast.Num(0)),
		))
		if _, err := bytecode.Verify(u.Code, u.Pool, u.SlotCount); err != nil {
			t.Fatalf("nested if does not verify: %v\n%s", err, bytecode.FormatCode(u.Code))
		}
		if last := u.Code[len(u.Code)-1]; last.Op != bytecode.OpDreturn {
			t.Errorf("last instruction = %s", last)
		}
	})
}

func TestUnsupported(t *testing.T) {
	tests := []struct {
		name string
		root *ast.Block
		op   string
	}{
		{"number plus string", ast.NewBlock(ast.Eval(ast.Bin(ast.Add, ast.Num(1), ast.Str("s")))), "+"},
		{"string plus number", ast.NewBlock(ast.Eval(ast.Bin(ast.Add, ast.Str("s"), ast.Num(1)))), "+"},
		{"string minus string", ast.NewBlock(ast.Eval(ast.Bin(ast.Subtract, ast.Str("a"), ast.Str("b")))), "-"},
		{"and on numbers", ast.NewBlock(ast.Eval(ast.Bin(ast.And, ast.Num(1), ast.Num(0)))), "and"},
		{"power on booleans", ast.NewBlock(ast.Eval(ast.Bin(ast.Power, ast.Bool(true), ast.Bool(true)))), "**"},
		{"negate boolean", ast.NewBlock(ast.Eval(ast.Neg(ast.Bool(true)))), "-"},
		{"not number", ast.NewBlock(ast.Eval(ast.Inv(ast.Num(1)))), "!"},
		{"this", ast.NewBlock(ast.Ret(&ast.This{Annot: ast.Callable})), "this"},
		{"function def", ast.NewBlock(&ast.Def{Name: "f", Kind: ast.DefFunction}), "fun"},
		{"class def", ast.NewBlock(&ast.Def{Name: "C", Kind: ast.DefClass}), "class"},
		{"number condition", ast.NewBlock(ast.NewIf(ast.Num(1), ast.NewBlock(), nil)), "if"},
		{"foreign literal", ast.NewBlock(ast.Eval(&ast.Literal{Value: 3})), "literal"},
		{
			"mixed return categories",
			ast.NewBlock(
				ast.NewIf(ast.Bool(true), ast.Ret(ast.Num(1)), nil),
				ast.Ret(ast.Bool(false)),
			),
			"return",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u, err := Compile("test", tt.root, nil)
			if u != nil {
				t.Error("a failed compile produced a unit")
			}
			var unsupported *errors.UnsupportedOperationError
			if !stderrors.As(err, &unsupported) {
				t.Fatalf("err = %v, want UnsupportedOperationError", err)
			}
			if unsupported.Op != tt.op {
				t.Errorf("Op = %q, want %q", unsupported.Op, tt.op)
			}
		})
	}
}

func TestReferenceReturnsMerge(t *testing.T) {
	u := mustCompile(t, ast.NewBlock(
		ast.NewIf(ast.Bool(true), ast.Ret(ast.NilLit()), nil),
		ast.Ret(ast.Str("s")),
	))
	if u.Descriptor() != "()Ljava/lang/String;" {
		t.Errorf("Descriptor = %s", u.Descriptor())
	}
}

func TestMaxStackLimit(t *testing.T) {
	_, err := Compile("test", tempvarProgram(), &Config{MaxStack: 4})
	var limit *errors.LimitError
	if !stderrors.As(err, &limit) {
		t.Fatalf("err = %v, want LimitError", err)
	}
	if limit.Code != errors.E0700 || limit.Value != 6 || limit.Limit != 4 {
		t.Errorf("limit = %+v", limit)
	}
}

func TestCompilerReuse(t *testing.T) {
	c := New(nil)
	first, err := c.Compile("first", tempvarProgram())
	if err != nil {
		t.Fatal(err)
	}
	second, err := c.Compile("second", tempvarProgram())
	if err != nil {
		t.Fatal(err)
	}
	if bytecode.FormatCode(first.Code) != bytecode.FormatCode(second.Code) {
		t.Error("state leaked between compiles")
	}
	if len(first.Pool.Entries) != len(second.Pool.Entries) {
		t.Error("constant pool shared between units")
	}
}
