// Package compiler 把规范 AST 降级为栈式字节码单元
package compiler

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/tangzhangming/lye/internal/ast"
	"github.com/tangzhangming/lye/internal/bytecode"
	"github.com/tangzhangming/lye/internal/errors"
	"github.com/tangzhangming/lye/internal/scope"
)

// Config 编译选项
type Config struct {
	Logger *zap.Logger

	// StrictAssign 拒绝与声明类别不同的赋值，默认只记警告
	StrictAssign bool

	// FrameBase 第一个可用槽位，静态入口为 0
	FrameBase int

	// MaxStack 操作数栈深度上限（字），0 表示只受 JVM 限制
	MaxStack int
}

// DefaultConfig 返回默认配置
func DefaultConfig() *Config {
	return &Config{Logger: zap.NewNop()}
}

// Compiler 编译器
//
// 一个 Compiler 可以依次编译多个单元，但不能并发使用。
type Compiler struct {
	cfg *Config
	log *zap.Logger

	pool   *bytecode.Pool
	scopes *scope.Arena
	graph  *CFG
	cur    *BasicBlock // nil 表示当前位置不可达
	line   int

	result    *ast.Kind // 已见返回值的合并类别
	truncated int       // 被截断的不可达语句数
}

// New 创建编译器，cfg 为 nil 时使用默认配置
func New(cfg *Config) *Compiler {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Compiler{cfg: cfg, log: log}
}

// Compile 用给定配置编译一个单元
func Compile(name string, root *ast.Block, cfg *Config) (*bytecode.Unit, error) {
	return New(cfg).Compile(name, root)
}

// Compile 编译根块，第一个错误即中止，不产生单元
func (c *Compiler) Compile(name string, root *ast.Block) (*bytecode.Unit, error) {
	if root == nil {
		root = &ast.Block{}
	}

	c.pool = bytecode.NewPool()
	c.scopes = scope.New(c.cfg.FrameBase)
	c.graph = NewCFG()
	c.cur = c.graph.Entry()
	c.line = root.Start.Line
	c.result = nil
	c.truncated = 0

	// 根块直接使用根作用域
	if err := c.compileStmts(root.Stmts); err != nil {
		return nil, err
	}
	c.finish()

	code, err := c.graph.Flatten()
	if err != nil {
		return nil, err
	}

	slotCount := c.scopes.SlotCount()
	if slotCount > bytecode.MaxFrameSlots {
		return nil, &errors.LimitError{Code: errors.E0103, Value: slotCount, Limit: bytecode.MaxFrameSlots}
	}

	unit, err := bytecode.Assemble(name, code, c.pool, c.slotTable(), slotCount, c.resultType())
	if err != nil {
		return nil, err
	}
	if c.cfg.MaxStack > 0 && unit.MaxStack > c.cfg.MaxStack {
		return nil, &errors.LimitError{Code: errors.E0700, Value: unit.MaxStack, Limit: c.cfg.MaxStack}
	}

	c.log.Debug("compiled unit",
		zap.String("unit", name),
		zap.Int("instructions", len(unit.Code)),
		zap.Int("max_stack", unit.MaxStack),
		zap.Int("slots", unit.SlotCount),
		zap.Int("constants", len(unit.Pool.Entries)),
		zap.Int("truncated", c.truncated),
		zap.Stringer("result", unit.Result))
	return unit, nil
}

// finish 根块末尾可达时补上返回
func (c *Compiler) finish() {
	if c.cur == nil {
		return
	}
	if c.result == nil {
		c.cur.Return(bytecode.OpReturn, c.line)
	} else {
		c.pushDefault(*c.result)
		c.cur.Return(bytecode.ReturnOpFor(*c.result), c.line)
	}
	c.cur = nil
}

func (c *Compiler) resultType() bytecode.Result {
	if c.result == nil {
		return bytecode.VoidResult
	}
	return bytecode.Returns(*c.result)
}

func (c *Compiler) slotTable() []bytecode.Slot {
	bindings := c.scopes.Bindings()
	slots := make([]bytecode.Slot, 0, len(bindings))
	for _, b := range bindings {
		slots = append(slots, bytecode.Slot{
			Index: b.Slot,
			Name:  b.Name,
			Kind:  b.Kind,
			Line:  b.Pos.Line,
		})
	}
	return slots
}

// ============================================================================
// 语句
// ============================================================================

// compileStmts 依次编译语句，遇到不可达位置时丢弃剩余语句
func (c *Compiler) compileStmts(stmts []ast.Stmt) error {
	for i, s := range stmts {
		if c.cur == nil {
			c.truncated += len(stmts) - i
			return nil
		}
		if err := c.compileStmt(s); err != nil {
			return err
		}
	}
	return nil
}

func (c *Compiler) compileStmt(stmt ast.Stmt) error {
	if stmt == nil {
		return nil
	}
	c.at(stmt)

	switch s := stmt.(type) {
	case *ast.Block:
		c.scopes.Enter()
		err := c.compileStmts(s.Stmts)
		c.scopes.Leave()
		return err
	case *ast.Def:
		return c.compileDef(s)
	case *ast.ExprStmt:
		return c.compileExprStmt(s)
	case *ast.If:
		return c.compileIf(s)
	default:
		return &errors.UnsupportedOperationError{Op: fmt.Sprintf("%T", stmt), Pos: stmt.Pos()}
	}
}

// compileDef 先声明再编译初值，存储之前名字不可解析，初值中引用自身报告未定义
func (c *Compiler) compileDef(d *ast.Def) error {
	if d.Kind != ast.DefVariable {
		return &errors.UnsupportedOperationError{Op: d.Kind.String(), Detail: d.Name, Pos: d.Start}
	}

	init := d.Init
	if init == nil {
		init = &ast.Literal{Start: d.Start}
	}
	kind := init.Kind()

	b, err := c.scopes.DeclarePending(d.Name, kind, d.Start)
	if err != nil {
		return err
	}
	if err := c.compileExpr(init); err != nil {
		return err
	}
	c.scopes.Complete(d.Name)
	c.at(d)
	c.emitArg(storeOp(kind), b.Slot)
	return nil
}

func (c *Compiler) compileExprStmt(s *ast.ExprStmt) error {
	switch s.Mode {
	case ast.Evaluate:
		// 只为副作用编译的赋值不在栈上留值
		if a, ok := s.X.(*ast.Assign); ok {
			return c.compileAssign(a, false)
		}
		if err := c.compileExpr(s.X); err != nil {
			return err
		}
		c.at(s)
		c.discard(s.X.Kind())
		return nil

	case ast.Return:
		if err := c.compileExpr(s.X); err != nil {
			return err
		}
		kind := s.X.Kind()
		if err := c.noteResult(kind, s); err != nil {
			return err
		}
		c.at(s)
		c.cur.Return(bytecode.ReturnOpFor(kind), c.line)
		c.cur = nil
		return nil
	}
	return &errors.UnsupportedOperationError{Op: fmt.Sprintf("mode %d", s.Mode), Pos: s.Start}
}

// compileIf 条件为假时跳到 else 块，then 块结束后跳过 else
func (c *Compiler) compileIf(s *ast.If) error {
	if err := c.compileExpr(s.Cond); err != nil {
		return err
	}
	if k := s.Cond.Kind(); k != ast.Boolean {
		return &errors.UnsupportedOperationError{
			Op:      "if",
			Operand: k.String(),
			Detail:  "condition must be Boolean",
			Pos:     s.Cond.Pos(),
		}
	}

	thenB := c.graph.NewBlock()
	elseB := c.graph.NewBlock()
	join := c.graph.NewBlock()
	c.at(s)
	c.cur.Ifeq(thenB, elseB, c.line)

	joined := false

	c.cur = thenB
	if err := c.compileBranch(s.Then); err != nil {
		return err
	}
	if c.cur != nil {
		c.cur.Goto(join, c.line)
		joined = true
	}

	c.cur = elseB
	if err := c.compileBranch(s.Else); err != nil {
		return err
	}
	if c.cur != nil {
		c.cur.Fallthrough(join, c.line)
		joined = true
	}

	c.cur = nil
	if joined {
		c.cur = join
	}
	return nil
}

// compileBranch 分支总是在自己的作用域里编译
func (c *Compiler) compileBranch(s ast.Stmt) error {
	if s == nil {
		return nil
	}
	if _, ok := s.(*ast.Block); ok {
		return c.compileStmt(s)
	}
	c.scopes.Enter()
	err := c.compileStmt(s)
	c.scopes.Leave()
	return err
}

// noteResult 合并返回类别，JVM 类别（int/double/reference）不同的返回无法共用一个描述符
func (c *Compiler) noteResult(kind ast.Kind, at ast.Node) error {
	if c.result == nil {
		k := kind
		c.result = &k
		return nil
	}

	prev := *c.result
	if category(prev) != category(kind) {
		return &errors.UnsupportedOperationError{
			Op:      "return",
			Operand: fmt.Sprintf("%s, %s", prev, kind),
			Detail:  "returns of different categories",
			Pos:     at.Pos(),
		}
	}

	switch {
	case prev == kind, kind == ast.Nil:
	case prev == ast.Nil:
		*c.result = kind
	default:
		*c.result = ast.Callable
	}
	return nil
}

// ============================================================================
// 发射
// ============================================================================

func (c *Compiler) at(n ast.Node) {
	if p := n.Pos(); p.IsValid() {
		c.line = p.Line
	}
}

func (c *Compiler) emit(op bytecode.Opcode) {
	c.emitArg(op, 0)
}

func (c *Compiler) emitArg(op bytecode.Opcode, arg int) {
	c.cur.emit(bytecode.Instruction{Op: op, Arg: arg, Line: c.line})
}

func (c *Compiler) discard(kind ast.Kind) {
	if kind.Width() == 2 {
		c.emit(bytecode.OpPop2)
	} else {
		c.emit(bytecode.OpPop)
	}
}

func (c *Compiler) pushDefault(kind ast.Kind) {
	switch category(kind) {
	case 'I':
		c.emit(bytecode.OpIconst0)
	case 'D':
		c.emit(bytecode.OpDconst0)
	default:
		c.emit(bytecode.OpAconstNull)
	}
}
