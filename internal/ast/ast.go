package ast

import (
	"github.com/tangzhangming/lye/internal/token"
)

// ============================================================================
// 规范 AST
// ============================================================================
//
// 编译器只消费这一套与具体语法无关的节点。Expr 和 Stmt 都是封闭的和类型：
// 变体通过未导出的标记方法限定在本包内，编译器用穷尽的 type switch 分派，
// 未处理的变体落入 default 分支并报错，不会被静默忽略。
//
// 节点由前端一次性构建，编译期间只读遍历；每个节点只有一个所有者，不共享、无环。
//
// ============================================================================

// Node 是所有 AST 节点的基接口
type Node interface {
	Pos() token.Position // 节点在源代码中的位置，手工构建时为零值
	String() string      // 节点的源码形式（用于调试）
}

// Expr 表示一个表达式节点
type Expr interface {
	Node
	// Kind 按结构推导值类别，从不求值
	Kind() Kind
	exprNode()
}

// Stmt 表示一个语句节点
type Stmt interface {
	Node
	stmtNode()
}

// ============================================================================
// 运算符与模式
// ============================================================================

// BinaryOp 二元运算符
type BinaryOp int

const (
	Add BinaryOp = iota
	Subtract
	Multiply
	Divide
	Power
	And
	Or
)

var binaryOpNames = [...]string{
	Add:      "+",
	Subtract: "-",
	Multiply: "*",
	Divide:   "/",
	Power:    "**",
	And:      "and",
	Or:       "or",
}

func (op BinaryOp) String() string {
	if op >= 0 && int(op) < len(binaryOpNames) {
		return binaryOpNames[op]
	}
	return "?"
}

// UnaryOp 一元运算符
type UnaryOp int

const (
	Negate UnaryOp = iota
	Not
)

func (op UnaryOp) String() string {
	switch op {
	case Negate:
		return "-"
	case Not:
		return "!"
	}
	return "?"
}

// DefKind 定义语句的种类
type DefKind int

const (
	DefVariable DefKind = iota
	DefFunction
	DefClass
)

func (k DefKind) String() string {
	switch k {
	case DefVariable:
		return "var"
	case DefFunction:
		return "fun"
	case DefClass:
		return "class"
	}
	return "?"
}

// ExprMode 表达式语句的模式
type ExprMode int

const (
	Evaluate ExprMode = iota // 求值后丢弃
	Return                   // 求值后返回
)

// ============================================================================
// 表达式
// ============================================================================

// Literal 常量字面量
//
// Value 只能是 bool、float64、string 或 nil。
type Literal struct {
	Start token.Position
	Value interface{}
}

// Binary 二元表达式
type Binary struct {
	Start token.Position // 运算符位置
	Op    BinaryOp
	Left  Expr
	Right Expr
}

// Variable 读取变量（Var.Get）
//
// Annot 是前端提供的值类别标注，编译器按它选择 load 指令。
type Variable struct {
	Start token.Position
	Name  string
	Annot Kind
}

// Assign 给已声明的变量赋值（Var.Set）
type Assign struct {
	Start token.Position
	Name  string
	Value Expr
}

// This 读取接收者（Var.GetThis）
type This struct {
	Start token.Position
	Annot Kind
}

// Unary 一元表达式
type Unary struct {
	Start   token.Position
	Op      UnaryOp
	Operand Expr
}

func (e *Literal) Pos() token.Position  { return e.Start }
func (e *Binary) Pos() token.Position   { return e.Start }
func (e *Variable) Pos() token.Position { return e.Start }
func (e *Assign) Pos() token.Position   { return e.Start }
func (e *This) Pos() token.Position     { return e.Start }
func (e *Unary) Pos() token.Position    { return e.Start }

func (e *Literal) exprNode()  {}
func (e *Binary) exprNode()   {}
func (e *Variable) exprNode() {}
func (e *Assign) exprNode()   {}
func (e *This) exprNode()     {}
func (e *Unary) exprNode()    {}

// ============================================================================
// 语句
// ============================================================================

// Block 语句块，对应一个词法作用域
type Block struct {
	Start token.Position
	Stmts []Stmt
}

// Def 定义语句
//
// Final 和 Static 只被携带，编译器目前不检查它们。
// Init 为 nil 时视为 nil 字面量。
type Def struct {
	Start  token.Position
	Name   string
	Kind   DefKind
	Final  bool
	Static bool
	Init   Expr
}

// ExprStmt 表达式语句
type ExprStmt struct {
	Start token.Position
	Mode  ExprMode
	X     Expr
}

// If 条件语句
//
// Else 可以为 nil，等价于空块。
type If struct {
	Start token.Position
	Cond  Expr
	Then  Stmt
	Else  Stmt
}

func (s *Block) Pos() token.Position    { return s.Start }
func (s *Def) Pos() token.Position      { return s.Start }
func (s *ExprStmt) Pos() token.Position { return s.Start }
func (s *If) Pos() token.Position       { return s.Start }

func (s *Block) stmtNode()    {}
func (s *Def) stmtNode()      {}
func (s *ExprStmt) stmtNode() {}
func (s *If) stmtNode()       {}
