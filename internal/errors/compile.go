package errors

import (
	stderrors "errors"
	"fmt"

	"go.uber.org/multierr"

	"github.com/tangzhangming/lye/internal/i18n"
	"github.com/tangzhangming/lye/internal/token"
)

// ============================================================================
// 编译期错误
// ============================================================================
//
// 三类错误都会立即中止编译，不产生任何单元。调用方用 errors.As 区分。
//
// ============================================================================

// RedeclareError 同一作用域内重复声明
type RedeclareError struct {
	Name string
	Pos  token.Position
}

func (e *RedeclareError) Error() string {
	return withPos(e.Pos, i18n.T(i18n.ErrVariableRedeclared, e.Name))
}

// Position 返回出错位置
func (e *RedeclareError) Position() token.Position { return e.Pos }

// UndefinedVariableError 名字在任何外层作用域中都找不到
type UndefinedVariableError struct {
	Name    string
	Pos     token.Position
	Similar string // 可见范围内最相近的名字，可能为空
}

func (e *UndefinedVariableError) Error() string {
	return withPos(e.Pos, i18n.T(i18n.ErrUndefinedVariable, e.Name))
}

// Position 返回出错位置
func (e *UndefinedVariableError) Position() token.Position { return e.Pos }

// UnsupportedOperationError 没有定义降级方式的运算符/类别组合或构造
type UnsupportedOperationError struct {
	Op      string // 运算或构造，如 "+"、"fun"、"this"
	Operand string // 操作数类别，如 "Boolean, Number"，可为空
	Detail  string // 补充说明，可为空
	Pos     token.Position
}

func (e *UnsupportedOperationError) Error() string {
	var msg string
	if e.Operand != "" {
		msg = i18n.T(i18n.ErrUnsupportedOpKind, e.Op, e.Operand)
	} else {
		msg = i18n.T(i18n.ErrUnsupportedOp, e.Op)
	}
	if e.Detail != "" {
		msg += " (" + e.Detail + ")"
	}
	return withPos(e.Pos, msg)
}

// Position 返回出错位置
func (e *UnsupportedOperationError) Position() token.Position { return e.Pos }

// LimitError 单元超出帧槽位或操作数栈上限
type LimitError struct {
	Code  string // E0103 或 E0700
	Value int
	Limit int
}

func (e *LimitError) Error() string {
	if e.Code == E0103 {
		return i18n.T(i18n.ErrTooManyLocals, e.Value, e.Limit)
	}
	return i18n.T(i18n.ErrStackTooDeep, e.Value, e.Limit)
}

// Coded 自带错误码的错误（如字节码校验错误）
type Coded interface {
	error
	ErrorCode() string
}

// Positioned 带源码位置的错误，词法和语法错误都实现它
type Positioned interface {
	error
	Position() token.Position
}

func withPos(pos token.Position, msg string) string {
	if !pos.IsValid() {
		return msg
	}
	return fmt.Sprintf("%s: %s", pos, msg)
}

// ============================================================================
// 转换为诊断
// ============================================================================

// FromError 把编译流程中的错误转换为带错误码的 CompileError
//
// file 在错误本身没有位置信息时作为文件名。
func FromError(err error, file string) *CompileError {
	if err == nil {
		return nil
	}

	var ce *CompileError
	if stderrors.As(err, &ce) {
		return ce
	}

	out := &CompileError{
		Code:    E0001,
		Level:   LevelError,
		Message: err.Error(),
		File:    file,
	}

	var (
		redeclare   *RedeclareError
		undefined   *UndefinedVariableError
		unsupported *UnsupportedOperationError
		limit       *LimitError
		coded       Coded
		positioned  Positioned
	)
	switch {
	case stderrors.As(err, &redeclare):
		out.Code = E0101
		out.Message = i18n.T(i18n.ErrVariableRedeclared, redeclare.Name)
		out.Hints = append(out.Hints, i18n.T(i18n.HintRenameOrReuse))
		out.setPos(redeclare.Pos, len(redeclare.Name))
	case stderrors.As(err, &undefined):
		out.Code = E0100
		out.Message = i18n.T(i18n.ErrUndefinedVariable, undefined.Name)
		if undefined.Similar != "" {
			out.Hints = append(out.Hints, i18n.T(i18n.HintDidYouMean, undefined.Similar))
		}
		out.Hints = append(out.Hints, i18n.T(i18n.HintDeclareFirst, undefined.Name))
		out.setPos(undefined.Pos, len(undefined.Name))
	case stderrors.As(err, &unsupported):
		out.Code = E0800
		out.Message = stripPos(unsupported.Pos, unsupported.Error())
		out.setPos(unsupported.Pos, len(unsupported.Op))
	case stderrors.As(err, &limit):
		out.Code = limit.Code
	case stderrors.As(err, &coded):
		// 未登记的错误码按语法错误处理
		if IsCompilerError(coded.ErrorCode()) {
			out.Code = coded.ErrorCode()
		}
		if stderrors.As(err, &positioned) {
			out.Message = stripPos(positioned.Position(), positioned.Error())
			out.setPos(positioned.Position(), 1)
		}
	case stderrors.As(err, &positioned):
		out.Message = stripPos(positioned.Position(), positioned.Error())
		out.setPos(positioned.Position(), 1)
	}

	if info, ok := GetCompilerErrorInfo(out.Code); ok {
		out.Level = info.Level
		out.Category = info.Category
	}
	return out
}

// FromErrors 展开 multierr 聚合的错误，逐个转换
func FromErrors(err error, file string) []*CompileError {
	errs := multierr.Errors(err)
	out := make([]*CompileError, 0, len(errs))
	for _, e := range errs {
		out = append(out, FromError(e, file))
	}
	return out
}

func (e *CompileError) setPos(pos token.Position, length int) {
	if !pos.IsValid() {
		return
	}
	if pos.Filename != "" {
		e.File = pos.Filename
	}
	e.Line = pos.Line
	e.Column = pos.Column
	if length < 1 {
		length = 1
	}
	e.EndColumn = pos.Column + length
}

func stripPos(pos token.Position, msg string) string {
	if !pos.IsValid() {
		return msg
	}
	prefix := pos.String() + ": "
	if len(msg) >= len(prefix) && msg[:len(prefix)] == prefix {
		return msg[len(prefix):]
	}
	return msg
}
