package ast

// ============================================================================
// 节点构造辅助函数
// ============================================================================
//
// 手工构建 AST（测试、宿主程序直接调用编译器）时使用，节点不带位置信息。
//
//   prog := ast.NewBlock(
//       ast.Var("x", ast.Num(10)),
//       ast.Ret(ast.Get("x", ast.Number)),
//   )
//
// ============================================================================

// Num 数字字面量
func Num(v float64) *Literal { return &Literal{Value: v} }

// Str 字符串字面量
func Str(v string) *Literal { return &Literal{Value: v} }

// Bool 布尔字面量
func Bool(v bool) *Literal { return &Literal{Value: v} }

// NilLit nil 字面量
func NilLit() *Literal { return &Literal{} }

// Bin 二元表达式
func Bin(op BinaryOp, left, right Expr) *Binary {
	return &Binary{Op: op, Left: left, Right: right}
}

// Get 带类别标注的变量读取
func Get(name string, annot Kind) *Variable {
	return &Variable{Name: name, Annot: annot}
}

// Set 变量赋值
func Set(name string, value Expr) *Assign {
	return &Assign{Name: name, Value: value}
}

// Neg 取负
func Neg(operand Expr) *Unary { return &Unary{Op: Negate, Operand: operand} }

// Inv 逻辑非
func Inv(operand Expr) *Unary { return &Unary{Op: Not, Operand: operand} }

// NewBlock 语句块
func NewBlock(stmts ...Stmt) *Block { return &Block{Stmts: stmts} }

// Var 变量定义
func Var(name string, init Expr) *Def {
	return &Def{Name: name, Kind: DefVariable, Init: init}
}

// Eval 求值语句
func Eval(x Expr) *ExprStmt { return &ExprStmt{Mode: Evaluate, X: x} }

// Ret 返回语句
func Ret(x Expr) *ExprStmt { return &ExprStmt{Mode: Return, X: x} }

// NewIf 条件语句，els 可以为 nil
func NewIf(cond Expr, then, els Stmt) *If {
	return &If{Cond: cond, Then: then, Else: els}
}
