package ast

import (
	"math"
	"strconv"
	"strings"
)

// ============================================================================
// AST 打印
// ============================================================================
//
// 把规范 AST 还原为 Lox 风格的源码，二元表达式总是带括号，
// 方便在调试时一眼看出结合顺序。
//
// ============================================================================

// Format 返回语句的多行源码形式，缩进两个空格
func Format(s Stmt) string {
	p := &printer{}
	p.stmt(s)
	return p.sb.String()
}

type printer struct {
	sb    strings.Builder
	depth int
}

func (p *printer) line(s string) {
	for i := 0; i < p.depth; i++ {
		p.sb.WriteString("  ")
	}
	p.sb.WriteString(s)
	p.sb.WriteByte('\n')
}

func (p *printer) stmt(s Stmt) {
	switch s := s.(type) {
	case *Block:
		p.line("{")
		p.depth++
		for _, inner := range s.Stmts {
			p.stmt(inner)
		}
		p.depth--
		p.line("}")
	case *Def:
		p.line(s.String())
	case *ExprStmt:
		p.line(s.String())
	case *If:
		p.line("if (" + exprString(s.Cond) + ")")
		p.branch(s.Then)
		if s.Else != nil {
			p.line("else")
			p.branch(s.Else)
		}
	case nil:
		p.line("<nil>")
	}
}

func (p *printer) branch(s Stmt) {
	if _, ok := s.(*Block); ok {
		p.stmt(s)
		return
	}
	p.depth++
	p.stmt(s)
	p.depth--
}

func exprString(e Expr) string {
	if e == nil {
		return "nil"
	}
	return e.String()
}

// FormatNumber 按 "10.0"、"0.5"、"1e+300" 的形式打印数字
func FormatNumber(v float64) string {
	if v == math.Trunc(v) && math.Abs(v) < 1e15 {
		return strconv.FormatFloat(v, 'f', 1, 64)
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func (e *Literal) String() string {
	switch v := e.Value.(type) {
	case bool:
		return strconv.FormatBool(v)
	case float64:
		return FormatNumber(v)
	case string:
		return strconv.Quote(v)
	case nil:
		return "nil"
	}
	return "<?>"
}

func (e *Binary) String() string {
	return "(" + exprString(e.Left) + " " + e.Op.String() + " " + exprString(e.Right) + ")"
}

func (e *Variable) String() string { return e.Name }

func (e *Assign) String() string {
	return "(" + e.Name + " = " + exprString(e.Value) + ")"
}

func (e *This) String() string { return "this" }

func (e *Unary) String() string {
	return e.Op.String() + exprString(e.Operand)
}

func (s *Block) String() string { return Format(s) }

func (s *Def) String() string {
	var sb strings.Builder
	if s.Static {
		sb.WriteString("static ")
	}
	if s.Final {
		sb.WriteString("final ")
	}
	switch s.Kind {
	case DefFunction:
		sb.WriteString("fun " + s.Name + "() {...}")
		return sb.String()
	case DefClass:
		sb.WriteString("class " + s.Name + " {...}")
		return sb.String()
	}
	sb.WriteString("var " + s.Name)
	if s.Init != nil {
		sb.WriteString(" = " + s.Init.String())
	}
	sb.WriteString(";")
	return sb.String()
}

func (s *ExprStmt) String() string {
	if s.Mode == Return {
		return "return " + exprString(s.X) + ";"
	}
	return exprString(s.X) + ";"
}

func (s *If) String() string { return Format(s) }
