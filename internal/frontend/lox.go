package frontend

import (
	"sort"

	"go.uber.org/multierr"

	"github.com/tangzhangming/lye/internal/ast"
	"github.com/tangzhangming/lye/internal/parser"
	"github.com/tangzhangming/lye/internal/token"
)

// ============================================================================
// Lox 前端
// ============================================================================
//
// 变量读取需要类别标注，Lox 源码里没有类型，所以适配器维护自己的
// 声明表：声明时记录初始化表达式的类别，赋值时用新值的类别更新。
// 声明表按代码块分层，离开代码块时丢弃该层。if 的两条路径分别在
// 声明表的副本上转换，之后再合并。
//
// 不支持的构造不会中断转换，全部收集后一起返回。
//
// ============================================================================

// Lox Lox 语法树适配器
type Lox struct {
	prog   *parser.Program
	decls  []map[string]ast.Kind
	errors error
}

// NewLox 创建适配器
func NewLox(prog *parser.Program) *Lox {
	return &Lox{prog: prog}
}

// Adapt 转换整个程序，有任何不支持的构造时返回 nil 和聚合错误
func (l *Lox) Adapt() (*ast.Block, error) {
	l.decls = nil
	l.errors = nil

	root := &ast.Block{Start: token.Position{Filename: l.prog.Filename, Line: 1, Column: 1}}
	l.push()
	root.Stmts = l.stmts(l.prog.Stmts)
	l.pop()

	if l.errors != nil {
		return nil, l.errors
	}
	return root, nil
}

// ----------------------------------------------------------------------------
// 声明表
// ----------------------------------------------------------------------------

func (l *Lox) push() { l.decls = append(l.decls, map[string]ast.Kind{}) }
func (l *Lox) pop()  { l.decls = l.decls[:len(l.decls)-1] }

func (l *Lox) declare(name string, kind ast.Kind) {
	l.decls[len(l.decls)-1][name] = kind
}

// lookup 未声明的名字标注为 Nil，由编译器报告未定义
func (l *Lox) lookup(name string) ast.Kind {
	for i := len(l.decls) - 1; i >= 0; i-- {
		if k, ok := l.decls[i][name]; ok {
			return k
		}
	}
	return ast.Nil
}

// refine 赋值后更新最近一层声明的类别
func (l *Lox) refine(name string, kind ast.Kind) {
	for i := len(l.decls) - 1; i >= 0; i-- {
		if _, ok := l.decls[i][name]; ok {
			l.decls[i][name] = kind
			return
		}
	}
}

// snapshot 复制当前声明表
func (l *Lox) snapshot() []map[string]ast.Kind {
	out := make([]map[string]ast.Kind, len(l.decls))
	for i, layer := range l.decls {
		out[i] = make(map[string]ast.Kind, len(layer))
		for name, kind := range layer {
			out[i][name] = kind
		}
	}
	return out
}

func (l *Lox) restore(decls []map[string]ast.Kind) {
	l.decls = decls
}

// join 合并 if 两条路径上的声明表
//
// 以 return 结束的路径不会到达 if 之后，只取另一条路径；两条路径都可达时
// 同一变量必须具有相同的类别，否则之后的读取无法选出正确的 load 指令。
func (l *Lox) join(pos token.Position, then []map[string]ast.Kind, thenExits bool, els []map[string]ast.Kind, elseExits bool) {
	switch {
	case thenExits:
		l.restore(els)
		return
	case elseExits:
		l.restore(then)
		return
	}

	l.restore(then)
	var conflicts []string
	for i, layer := range then {
		for _, name := range sortedNames(layer) {
			if els[i][name] != layer[name] {
				conflicts = append(conflicts, name)
			}
		}
	}
	for _, name := range conflicts {
		l.unsupported("variable '"+name+"' kind differs across branches", pos)
	}
}

// terminates 语句的每条路径都以 return 结束
func terminates(s parser.Stmt) bool {
	switch s := s.(type) {
	case *parser.ReturnStmt:
		return true
	case *parser.BlockStmt:
		for _, st := range s.Stmts {
			if terminates(st) {
				return true
			}
		}
	case *parser.IfStmt:
		return s.Else != nil && terminates(s.Then) && terminates(s.Else)
	}
	return false
}

func sortedNames(layer map[string]ast.Kind) []string {
	names := make([]string, 0, len(layer))
	for name := range layer {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (l *Lox) unsupported(construct string, pos token.Position) {
	l.errors = multierr.Append(l.errors, &UnsupportedError{Construct: construct, Pos: pos})
}

// ----------------------------------------------------------------------------
// 语句
// ----------------------------------------------------------------------------

func (l *Lox) stmts(list []parser.Stmt) []ast.Stmt {
	out := make([]ast.Stmt, 0, len(list))
	for _, s := range list {
		if st := l.stmt(s); st != nil {
			out = append(out, st)
		}
	}
	return out
}

func (l *Lox) stmt(s parser.Stmt) ast.Stmt {
	switch s := s.(type) {
	case *parser.VarStmt:
		var init ast.Expr
		kind := ast.Nil
		if s.Init != nil {
			init = l.expr(s.Init)
			if init != nil {
				kind = init.Kind()
			}
		}
		l.declare(s.Name.Literal, kind)
		return &ast.Def{Start: s.Name.Pos, Name: s.Name.Literal, Kind: ast.DefVariable, Init: init}

	case *parser.ExpressionStmt:
		x := l.expr(s.Expr)
		if x == nil {
			return nil
		}
		return &ast.ExprStmt{Start: s.Pos(), Mode: ast.Evaluate, X: x}

	case *parser.ReturnStmt:
		var x ast.Expr = &ast.Literal{Start: s.Keyword.Pos}
		if s.Value != nil {
			x = l.expr(s.Value)
			if x == nil {
				return nil
			}
		}
		return &ast.ExprStmt{Start: s.Keyword.Pos, Mode: ast.Return, X: x}

	case *parser.BlockStmt:
		return l.block(s.LBrace.Pos, s.Stmts)

	case *parser.IfStmt:
		cond := l.expr(s.Cond)

		before := l.snapshot()
		then := l.branch(s.Then)
		afterThen := l.snapshot()

		l.restore(before)
		var els ast.Stmt
		if s.Else != nil {
			els = l.branch(s.Else)
		}
		afterElse := l.snapshot()
		l.join(s.Keyword.Pos, afterThen, terminates(s.Then), afterElse, s.Else != nil && terminates(s.Else))

		if cond == nil || then == nil {
			return nil
		}
		return &ast.If{Start: s.Keyword.Pos, Cond: cond, Then: then, Else: els}

	case *parser.FunctionStmt:
		l.declare(s.Name.Literal, ast.Callable)
		return &ast.Def{Start: s.Name.Pos, Name: s.Name.Literal, Kind: ast.DefFunction}

	case *parser.ClassStmt:
		l.declare(s.Name.Literal, ast.Callable)
		return &ast.Def{Start: s.Name.Pos, Name: s.Name.Literal, Kind: ast.DefClass}

	case *parser.PrintStmt:
		l.unsupported("print statement", s.Pos())
	case *parser.WhileStmt:
		l.unsupported("while loop", s.Pos())
	case *parser.ForStmt:
		l.unsupported("for loop", s.Pos())
	default:
		l.unsupported("statement", s.Pos())
	}
	return nil
}

func (l *Lox) block(pos token.Position, list []parser.Stmt) *ast.Block {
	l.push()
	defer l.pop()
	return &ast.Block{Start: pos, Stmts: l.stmts(list)}
}

// branch if 的分支总是包成代码块，单条语句的分支也有自己的作用域
func (l *Lox) branch(s parser.Stmt) ast.Stmt {
	if b, ok := s.(*parser.BlockStmt); ok {
		return l.block(b.LBrace.Pos, b.Stmts)
	}
	return l.block(s.Pos(), []parser.Stmt{s})
}

// ----------------------------------------------------------------------------
// 表达式
// ----------------------------------------------------------------------------

var binaryOps = map[token.TokenType]ast.BinaryOp{
	token.PLUS:  ast.Add,
	token.MINUS: ast.Subtract,
	token.STAR:  ast.Multiply,
	token.SLASH: ast.Divide,
	token.POWER: ast.Power,
	token.AND:   ast.And,
	token.OR:    ast.Or,
}

// expr 返回 nil 表示子树里有不支持的构造，错误已记录
func (l *Lox) expr(e parser.Expr) ast.Expr {
	switch e := e.(type) {
	case *parser.Literal:
		return &ast.Literal{Start: e.Pos(), Value: e.Value}

	case *parser.Grouping:
		return l.expr(e.Inner)

	case *parser.Variable:
		return &ast.Variable{Start: e.Pos(), Name: e.Name.Literal, Annot: l.lookup(e.Name.Literal)}

	case *parser.Assign:
		value := l.expr(e.Value)
		if value == nil {
			return nil
		}
		l.refine(e.Name.Literal, value.Kind())
		return &ast.Assign{Start: e.Pos(), Name: e.Name.Literal, Value: value}

	case *parser.This:
		return &ast.This{Start: e.Pos(), Annot: ast.Callable}

	case *parser.Unary:
		operand := l.expr(e.Right)
		if operand == nil {
			return nil
		}
		op := ast.Negate
		if e.Op.Type == token.BANG {
			op = ast.Not
		}
		return &ast.Unary{Start: e.Pos(), Op: op, Operand: operand}

	case *parser.Binary:
		return l.binary(e.Left, e.Op, e.Right)

	case *parser.Logical:
		return l.binary(e.Left, e.Op, e.Right)

	case *parser.Call:
		l.unsupported("call", e.Pos())
	case *parser.Get:
		l.unsupported("property access", e.Pos())
	case *parser.Set:
		l.unsupported("property assignment", e.Pos())
	case *parser.Super:
		l.unsupported("super", e.Pos())
	default:
		l.unsupported("expression", e.Pos())
	}
	return nil
}

func (l *Lox) binary(left parser.Expr, op token.Token, right parser.Expr) ast.Expr {
	lhs := l.expr(left)
	rhs := l.expr(right)

	bop, ok := binaryOps[op.Type]
	if !ok {
		l.unsupported("operator '"+op.Literal+"'", op.Pos)
		return nil
	}
	if lhs == nil || rhs == nil {
		return nil
	}
	return &ast.Binary{Start: op.Pos, Op: bop, Left: lhs, Right: rhs}
}
