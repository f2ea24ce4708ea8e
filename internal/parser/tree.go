package parser

import "github.com/tangzhangming/lye/internal/token"

// ============================================================================
// Lox 语法树
// ============================================================================
//
// 这是 Lox 源码的直接语法树，保留全部语法构造（调用、循环、类等），
// 由 frontend 包负责把编译器支持的部分转换为规范 AST。
//
// ============================================================================

// Node 语法树节点
type Node interface {
	Pos() token.Position
}

// Expr 表达式节点
type Expr interface {
	Node
	expr()
}

// Stmt 语句节点
type Stmt interface {
	Node
	stmt()
}

// Program 一个源文件
type Program struct {
	Filename string
	Stmts    []Stmt
}

// ----------------------------------------------------------------------------
// 表达式
// ----------------------------------------------------------------------------

// Literal 数字、字符串、true/false、nil
type Literal struct {
	Token token.Token
	Value interface{} // float64 | string | bool | nil
}

// Grouping 括号表达式
type Grouping struct {
	LParen token.Token
	Inner  Expr
}

// Unary 前缀运算 (! -)
type Unary struct {
	Op    token.Token
	Right Expr
}

// Binary 算术与比较运算
type Binary struct {
	Left  Expr
	Op    token.Token
	Right Expr
}

// Logical and / or
type Logical struct {
	Left  Expr
	Op    token.Token
	Right Expr
}

// Variable 变量引用
type Variable struct {
	Name token.Token
}

// Assign 变量赋值
type Assign struct {
	Name  token.Token
	Value Expr
}

// Call 函数调用
type Call struct {
	Callee Expr
	Paren  token.Token
	Args   []Expr
}

// Get 属性读取 obj.name
type Get struct {
	Object Expr
	Name   token.Token
}

// Set 属性赋值 obj.name = value
type Set struct {
	Object Expr
	Name   token.Token
	Value  Expr
}

// This this
type This struct {
	Keyword token.Token
}

// Super super.method
type Super struct {
	Keyword token.Token
	Method  token.Token
}

func (e *Literal) Pos() token.Position  { return e.Token.Pos }
func (e *Grouping) Pos() token.Position { return e.LParen.Pos }
func (e *Unary) Pos() token.Position    { return e.Op.Pos }
func (e *Binary) Pos() token.Position   { return e.Op.Pos }
func (e *Logical) Pos() token.Position  { return e.Op.Pos }
func (e *Variable) Pos() token.Position { return e.Name.Pos }
func (e *Assign) Pos() token.Position   { return e.Name.Pos }
func (e *Call) Pos() token.Position     { return e.Paren.Pos }
func (e *Get) Pos() token.Position      { return e.Name.Pos }
func (e *Set) Pos() token.Position      { return e.Name.Pos }
func (e *This) Pos() token.Position     { return e.Keyword.Pos }
func (e *Super) Pos() token.Position    { return e.Keyword.Pos }

func (e *Literal) expr()  {}
func (e *Grouping) expr() {}
func (e *Unary) expr()    {}
func (e *Binary) expr()   {}
func (e *Logical) expr()  {}
func (e *Variable) expr() {}
func (e *Assign) expr()   {}
func (e *Call) expr()     {}
func (e *Get) expr()      {}
func (e *Set) expr()      {}
func (e *This) expr()     {}
func (e *Super) expr()    {}

// ----------------------------------------------------------------------------
// 语句
// ----------------------------------------------------------------------------

// ExpressionStmt 表达式语句
type ExpressionStmt struct {
	Expr Expr
}

// PrintStmt print 语句
type PrintStmt struct {
	Keyword token.Token
	Expr    Expr
}

// VarStmt 变量声明，Init 可以为 nil
type VarStmt struct {
	Keyword token.Token
	Name    token.Token
	Init    Expr
}

// BlockStmt 代码块
type BlockStmt struct {
	LBrace token.Token
	Stmts  []Stmt
}

// IfStmt 条件语句，Else 可以为 nil
type IfStmt struct {
	Keyword token.Token
	Cond    Expr
	Then    Stmt
	Else    Stmt
}

// WhileStmt while 循环
type WhileStmt struct {
	Keyword token.Token
	Cond    Expr
	Body    Stmt
}

// ForStmt for 循环，三个子句都可以为 nil
type ForStmt struct {
	Keyword token.Token
	Init    Stmt
	Cond    Expr
	Incr    Expr
	Body    Stmt
}

// FunctionStmt 函数声明（也用于类方法）
type FunctionStmt struct {
	Keyword token.Token
	Name    token.Token
	Params  []token.Token
	Body    []Stmt
}

// ClassStmt 类声明
type ClassStmt struct {
	Keyword    token.Token
	Name       token.Token
	Superclass *Variable
	Methods    []*FunctionStmt
}

// ReturnStmt return 语句，Value 可以为 nil
type ReturnStmt struct {
	Keyword token.Token
	Value   Expr
}

func (s *ExpressionStmt) Pos() token.Position { return s.Expr.Pos() }
func (s *PrintStmt) Pos() token.Position      { return s.Keyword.Pos }
func (s *VarStmt) Pos() token.Position        { return s.Name.Pos }
func (s *BlockStmt) Pos() token.Position      { return s.LBrace.Pos }
func (s *IfStmt) Pos() token.Position         { return s.Keyword.Pos }
func (s *WhileStmt) Pos() token.Position      { return s.Keyword.Pos }
func (s *ForStmt) Pos() token.Position        { return s.Keyword.Pos }
func (s *FunctionStmt) Pos() token.Position   { return s.Name.Pos }
func (s *ClassStmt) Pos() token.Position      { return s.Name.Pos }
func (s *ReturnStmt) Pos() token.Position     { return s.Keyword.Pos }

func (s *ExpressionStmt) stmt() {}
func (s *PrintStmt) stmt()      {}
func (s *VarStmt) stmt()        {}
func (s *BlockStmt) stmt()      {}
func (s *IfStmt) stmt()         {}
func (s *WhileStmt) stmt()      {}
func (s *ForStmt) stmt()        {}
func (s *FunctionStmt) stmt()   {}
func (s *ClassStmt) stmt()      {}
func (s *ReturnStmt) stmt()     {}
