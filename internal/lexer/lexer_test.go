package lexer

import (
	"testing"

	"github.com/tangzhangming/lye/internal/token"
)

func TestLexerBasicTokens(t *testing.T) {
	input := `+ - * / ** ! = == != < <= > >= ( ) { } , . ;`

	expected := []token.TokenType{
		token.PLUS, token.MINUS, token.STAR, token.SLASH, token.POWER,
		token.BANG, token.ASSIGN, token.EQ, token.NE,
		token.LT, token.LE, token.GT, token.GE,
		token.LPAREN, token.RPAREN, token.LBRACE, token.RBRACE,
		token.COMMA, token.DOT, token.SEMICOLON,
		token.EOF,
	}

	l := New(input, "test.lox")
	tokens := l.ScanTokens()

	if len(tokens) != len(expected) {
		t.Fatalf("token count mismatch: got %d, want %d", len(tokens), len(expected))
	}

	for i, tok := range tokens {
		if tok.Type != expected[i] {
			t.Errorf("token[%d] type mismatch: got %s, want %s", i, tok.Type, expected[i])
		}
	}
}

func TestLexerKeywords(t *testing.T) {
	input := `and class else false fun for if nil or print return super this true var while`

	expected := []token.TokenType{
		token.AND, token.CLASS, token.ELSE, token.FALSE, token.FUN, token.FOR,
		token.IF, token.NIL, token.OR, token.PRINT, token.RETURN, token.SUPER,
		token.THIS, token.TRUE, token.VAR, token.WHILE,
		token.EOF,
	}

	tokens := New(input, "test.lox").ScanTokens()
	if len(tokens) != len(expected) {
		t.Fatalf("token count mismatch: got %d, want %d", len(tokens), len(expected))
	}
	for i, tok := range tokens {
		if tok.Type != expected[i] {
			t.Errorf("token[%d] type mismatch: got %s, want %s (literal: %s)",
				i, tok.Type, expected[i], tok.Literal)
		}
	}
}

func TestLexerLiterals(t *testing.T) {
	tests := []struct {
		input string
		typ   token.TokenType
		value interface{}
	}{
		{`42`, token.NUMBER, 42.0},
		{`3.25`, token.NUMBER, 3.25},
		{`0`, token.NUMBER, 0.0},
		{`"hello"`, token.STRING, "hello"},
		{`"a\tb\n"`, token.STRING, "a\tb\n"},
		{`"say \"hi\""`, token.STRING, `say "hi"`},
		{`tempvar`, token.IDENT, nil},
		{`_x1`, token.IDENT, nil},
		{`变量`, token.IDENT, nil},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			l := New(tt.input, "test.lox")
			tokens := l.ScanTokens()
			if l.HasErrors() {
				t.Fatalf("unexpected errors: %v", l.Errors())
			}
			if len(tokens) != 2 {
				t.Fatalf("got %d tokens, want 2", len(tokens))
			}
			if tokens[0].Type != tt.typ {
				t.Errorf("type = %s, want %s", tokens[0].Type, tt.typ)
			}
			if tokens[0].Value != tt.value {
				t.Errorf("value = %#v, want %#v", tokens[0].Value, tt.value)
			}
		})
	}
}

func TestLexerNumberFollowedByDot(t *testing.T) {
	tokens := New(`1.foo`, "test.lox").ScanTokens()

	want := []token.TokenType{token.NUMBER, token.DOT, token.IDENT, token.EOF}
	if len(tokens) != len(want) {
		t.Fatalf("got %d tokens, want %d", len(tokens), len(want))
	}
	for i, tok := range tokens {
		if tok.Type != want[i] {
			t.Errorf("token[%d] = %s, want %s", i, tok.Type, want[i])
		}
	}
}

func TestLexerComments(t *testing.T) {
	input := `var a = 1; // trailing
/* block /* nested */ still comment */
var b = 2;`

	l := New(input, "test.lox")
	tokens := l.ScanTokens()
	if l.HasErrors() {
		t.Fatalf("unexpected errors: %v", l.Errors())
	}

	// var a = 1 ; var b = 2 ; EOF
	if len(tokens) != 11 {
		t.Fatalf("got %d tokens, want 11", len(tokens))
	}
	if tokens[5].Type != token.VAR || tokens[5].Pos.Line != 3 {
		t.Errorf("second var at %s, want line 3", tokens[5].Pos)
	}
}

func TestLexerPositions(t *testing.T) {
	input := "var x = 1;\n  x = x ** 2;"
	tokens := New(input, "pos.lox").ScanTokens()

	tests := []struct {
		index  int
		line   int
		column int
	}{
		{0, 1, 1},  // var
		{1, 1, 5},  // x
		{5, 2, 3},  // x
		{8, 2, 9},  // **
		{9, 2, 12}, // 2
	}

	for _, tt := range tests {
		tok := tokens[tt.index]
		if tok.Pos.Line != tt.line || tok.Pos.Column != tt.column {
			t.Errorf("token[%d] %s at %d:%d, want %d:%d",
				tt.index, tok.Type, tok.Pos.Line, tok.Pos.Column, tt.line, tt.column)
		}
		if tok.Pos.Filename != "pos.lox" {
			t.Errorf("token[%d] filename = %q", tt.index, tok.Pos.Filename)
		}
	}
}

func TestLexerErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"unexpected char", `var a = 1 @ 2;`},
		{"unterminated string", `var s = "abc`},
		{"unterminated comment", `/* never closed`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := New(tt.input, "test.lox")
			l.ScanTokens()
			if !l.HasErrors() {
				t.Fatal("expected a lexer error")
			}
			if l.Errors()[0].Pos.Line != 1 {
				t.Errorf("error line = %d, want 1", l.Errors()[0].Pos.Line)
			}
		})
	}
}
