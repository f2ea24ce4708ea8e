package compiler

import (
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/tangzhangming/lye/internal/ast"
	"github.com/tangzhangming/lye/internal/bytecode"
	"github.com/tangzhangming/lye/internal/errors"
)

// ============================================================================
// 指令选择
// ============================================================================
//
// 指令族由操作数的类别决定：
//   Boolean  -> int 指令（iload/istore/ireturn，iand/ior/ixor）
//   Number   -> double 指令（dload/dstore/dreturn，dadd...），占两个字
//   其余     -> 引用指令（aload/astore/areturn）
//
// 表达式编译后恰好在栈顶留下一个值。
//
// ============================================================================

// 运行时方法
const (
	mathClass   = "java/lang/Math"
	powName     = "pow"
	powDesc     = "(DD)D"
	stringClass = "java/lang/String"
	concatName  = "concat"
	concatDesc  = "(Ljava/lang/String;)Ljava/lang/String;"
)

// category 返回类别对应的 JVM 计算类型
func category(k ast.Kind) byte {
	switch k {
	case ast.Boolean:
		return 'I'
	case ast.Number:
		return 'D'
	}
	return 'A'
}

func loadOp(k ast.Kind) bytecode.Opcode {
	switch category(k) {
	case 'I':
		return bytecode.OpIload
	case 'D':
		return bytecode.OpDload
	}
	return bytecode.OpAload
}

func storeOp(k ast.Kind) bytecode.Opcode {
	switch category(k) {
	case 'I':
		return bytecode.OpIstore
	case 'D':
		return bytecode.OpDstore
	}
	return bytecode.OpAstore
}

func (c *Compiler) compileExpr(expr ast.Expr) error {
	if expr == nil {
		return fmt.Errorf("compiler: missing expression at line %d", c.line)
	}
	c.at(expr)

	switch e := expr.(type) {
	case *ast.Literal:
		return c.compileLiteral(e)
	case *ast.Binary:
		return c.compileBinary(e)
	case *ast.Unary:
		return c.compileUnary(e)
	case *ast.Variable:
		return c.compileVariable(e)
	case *ast.Assign:
		return c.compileAssign(e, true)
	case *ast.This:
		return &errors.UnsupportedOperationError{
			Op:     "this",
			Detail: "the entry method is static",
			Pos:    e.Start,
		}
	default:
		return &errors.UnsupportedOperationError{Op: fmt.Sprintf("%T", expr), Pos: expr.Pos()}
	}
}

func (c *Compiler) compileLiteral(e *ast.Literal) error {
	switch v := e.Value.(type) {
	case nil:
		c.emit(bytecode.OpAconstNull)
	case bool:
		if v {
			c.emit(bytecode.OpIconst1)
		} else {
			c.emit(bytecode.OpIconst0)
		}
	case float64:
		switch {
		case v == 0 && !math.Signbit(v):
			c.emit(bytecode.OpDconst0)
		case v == 1:
			c.emit(bytecode.OpDconst1)
		default:
			c.emitArg(bytecode.OpLdc2W, int(c.pool.Double(v)))
		}
	case string:
		c.emitArg(bytecode.OpLdc, int(c.pool.InternString(v)))
	default:
		return &errors.UnsupportedOperationError{
			Op:     "literal",
			Detail: fmt.Sprintf("payload of type %T", e.Value),
			Pos:    e.Start,
		}
	}
	return nil
}

func (c *Compiler) compileBinary(e *ast.Binary) error {
	if err := c.compileExpr(e.Left); err != nil {
		return err
	}
	if err := c.compileExpr(e.Right); err != nil {
		return err
	}
	c.at(e)

	lk, rk := e.Left.Kind(), e.Right.Kind()
	numeric := lk == ast.Number && rk == ast.Number

	switch e.Op {
	case ast.Add:
		switch {
		case numeric:
			c.emit(bytecode.OpDadd)
			return nil
		case lk == ast.String && rk == ast.String:
			c.emitArg(bytecode.OpInvokevirtual, int(c.pool.Methodref(stringClass, concatName, concatDesc)))
			return nil
		}
	case ast.Subtract:
		if numeric {
			c.emit(bytecode.OpDsub)
			return nil
		}
	case ast.Multiply:
		if numeric {
			c.emit(bytecode.OpDmul)
			return nil
		}
	case ast.Divide:
		if numeric {
			c.emit(bytecode.OpDdiv)
			return nil
		}
	case ast.Power:
		if numeric {
			c.emitArg(bytecode.OpInvokestatic, int(c.pool.Methodref(mathClass, powName, powDesc)))
			return nil
		}
	case ast.And, ast.Or:
		if lk == ast.Boolean && rk == ast.Boolean {
			if e.Op == ast.And {
				c.emit(bytecode.OpIand)
			} else {
				c.emit(bytecode.OpIor)
			}
			return nil
		}
	}

	return &errors.UnsupportedOperationError{
		Op:      e.Op.String(),
		Operand: fmt.Sprintf("%s, %s", lk, rk),
		Pos:     e.Start,
	}
}

func (c *Compiler) compileUnary(e *ast.Unary) error {
	if err := c.compileExpr(e.Operand); err != nil {
		return err
	}
	c.at(e)

	k := e.Operand.Kind()
	switch {
	case e.Op == ast.Negate && k == ast.Number:
		c.emit(bytecode.OpDneg)
		return nil
	case e.Op == ast.Not && k == ast.Boolean:
		c.emit(bytecode.OpIconst1)
		c.emit(bytecode.OpIxor)
		return nil
	}

	return &errors.UnsupportedOperationError{
		Op:      e.Op.String(),
		Operand: k.String(),
		Pos:     e.Start,
	}
}

// compileVariable 按节点上的类别注解选择 load 指令
func (c *Compiler) compileVariable(e *ast.Variable) error {
	b, ok := c.scopes.Resolve(e.Name)
	if !ok {
		return c.undefined(e.Name, e)
	}
	if b.Kind != e.Annot {
		c.log.Debug("variable annotation differs from declaration",
			zap.String("name", e.Name),
			zap.Stringer("declared", b.Kind),
			zap.Stringer("annotated", e.Annot))
	}
	c.emitArg(loadOp(e.Annot), b.Slot)
	return nil
}

// compileAssign 按值的类别存储；keep 为真时复制一份作为表达式的值
func (c *Compiler) compileAssign(e *ast.Assign, keep bool) error {
	if err := c.compileExpr(e.Value); err != nil {
		return err
	}
	c.at(e)

	b, ok := c.scopes.Resolve(e.Name)
	if !ok {
		return c.undefined(e.Name, e)
	}

	kind := e.Value.Kind()
	if kind.Width() > b.Width() {
		// 双宽的值会写进下一个绑定的槽位
		return &errors.UnsupportedOperationError{
			Op:      "=",
			Operand: fmt.Sprintf("%s, %s", b.Kind, kind),
			Detail:  fmt.Sprintf("'%s' holds %d slot, %s needs %d", e.Name, b.Width(), kind, kind.Width()),
			Pos:     e.Start,
		}
	}
	if kind != b.Kind {
		if c.cfg.StrictAssign {
			return &errors.UnsupportedOperationError{
				Op:      "=",
				Operand: fmt.Sprintf("%s, %s", b.Kind, kind),
				Detail:  fmt.Sprintf("'%s' was declared %s", e.Name, b.Kind),
				Pos:     e.Start,
			}
		}
		c.log.Warn("assignment changes variable kind",
			zap.String("name", e.Name),
			zap.Stringer("declared", b.Kind),
			zap.Stringer("assigned", kind),
			zap.Int("line", c.line))
	}

	if keep {
		if kind.Width() == 2 {
			c.emit(bytecode.OpDup2)
		} else {
			c.emit(bytecode.OpDup)
		}
	}
	c.emitArg(storeOp(kind), b.Slot)
	return nil
}

func (c *Compiler) undefined(name string, at ast.Node) error {
	return &errors.UndefinedVariableError{
		Name:    name,
		Pos:     at.Pos(),
		Similar: errors.FindSimilar(name, c.scopes.Visible(), 2),
	}
}
