package repl

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func session(t *testing.T, input string) (*REPL, string) {
	t.Helper()
	var out bytes.Buffer
	cfg := DefaultConfig()
	cfg.In = strings.NewReader(input)
	cfg.Out = &out
	r := New(cfg)
	r.Run()
	return r, out.String()
}

func TestSession(t *testing.T) {
	r, out := session(t, strings.Join([]string{
		"var x = 10;",
		"x * 2",
		`var s = "a";`,
		`s + "b"`,
		"y",
		"if (true) {",
		"  x = 3;",
		"}",
		"x",
		"return x + 1;",
		":quit",
	}, "\n")+"\n")

	for _, want := range []string{
		"20.0\n",
		"\"ab\"\n",
		"Error: undefined variable 'y'\n",
		"3.0\n",
		"4.0\n",
		"Bye!\n",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}

	// 出错的输入和含 return 的输入不进入脚本
	script := r.Script()
	if strings.Contains(script, "y;") || strings.Contains(script, "return") {
		t.Errorf("script = %q", script)
	}
	if !strings.Contains(script, "x = 3;") {
		t.Errorf("multi-line input not accepted: %q", script)
	}
	if len(r.history) != 8 {
		t.Errorf("history has %d entries, want 8", len(r.history))
	}
}

func TestCommands(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lib.lox")
	if err := os.WriteFile(path, []byte("var loaded = true;\nvar n = 1;\n"), 0644); err != nil {
		t.Fatal(err)
	}

	r, out := session(t, strings.Join([]string{
		":load " + path,
		":env",
		":bytecode",
		":reset",
		":env",
		":nope",
	}, "\n")+"\n")

	for _, want := range []string{
		"loaded       Boolean  slot 0",
		"n            Number   slot 1",
		"istore 0",
		"Environment reset.",
		"(no variables)",
		"Unknown command: :nope",
		"Bye!",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if r.Script() != "" {
		t.Errorf("script after reset = %q", r.Script())
	}
}

func TestNeedsMoreInput(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"var x = 1;", false},
		{"if (x) {", true},
		{"if (x) { x = 1; }", false},
		{"(1 +", true},
		{`var s = "{";`, false},
		{`var s = "abc`, true},
	}
	for _, tt := range tests {
		if got := needsMoreInput(tt.input); got != tt.want {
			t.Errorf("needsMoreInput(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}
