// Package errors 提供 lye 编译器的错误类型、错误码与诊断格式化
package errors

import "github.com/tangzhangming/lye/internal/i18n"

// ============================================================================
// 错误级别
// ============================================================================

// Level 错误级别
type Level int

const (
	LevelError   Level = iota // 错误
	LevelWarning              // 警告
	LevelNote                 // 提示
	LevelHelp                 // 帮助
)

func (l Level) String() string {
	switch l {
	case LevelError:
		return "error"
	case LevelWarning:
		return "warning"
	case LevelNote:
		return "note"
	case LevelHelp:
		return "help"
	default:
		return "unknown"
	}
}

// ============================================================================
// 编译器错误码
// ============================================================================

const (
	// E0001-E0099: 语法错误
	E0001 = "E0001" // 语法错误
	E0002 = "E0002" // 意外的字符
	E0003 = "E0003" // 未闭合的字符串
	E0004 = "E0004" // 未闭合的注释
	E0005 = "E0005" // 无效的数字
	E0006 = "E0006" // 期望的 token

	// E0100-E0199: 变量错误
	E0100 = "E0100" // 未定义的变量
	E0101 = "E0101" // 变量重复声明
	E0103 = "E0103" // 局部变量槽过多

	// E0700-E0799: 单元组装
	E0700 = "E0700" // 操作数栈过深
	E0701 = "E0701" // 字节码校验失败

	// E0800-E0899: 未实现的降级
	E0800 = "E0800" // 不支持的操作
	E0801 = "E0801" // 前端不支持的语法
)

// ErrorInfo 错误码信息
type ErrorInfo struct {
	Code      string // 错误码
	Level     Level  // 错误级别
	MessageID string // i18n 消息 ID
	Category  string // 错误分类
}

var compilerErrors = map[string]ErrorInfo{
	E0001: {E0001, LevelError, i18n.ErrExpectedExpression, "syntax"},
	E0002: {E0002, LevelError, i18n.ErrUnexpectedChar, "syntax"},
	E0003: {E0003, LevelError, i18n.ErrUnterminatedString, "syntax"},
	E0004: {E0004, LevelError, i18n.ErrUnterminatedComment, "syntax"},
	E0005: {E0005, LevelError, i18n.ErrInvalidNumber, "syntax"},
	E0006: {E0006, LevelError, i18n.ErrExpectedToken, "syntax"},

	E0100: {E0100, LevelError, i18n.ErrUndefinedVariable, "variable"},
	E0101: {E0101, LevelError, i18n.ErrVariableRedeclared, "variable"},
	E0103: {E0103, LevelError, i18n.ErrTooManyLocals, "variable"},

	E0700: {E0700, LevelError, i18n.ErrStackTooDeep, "assembly"},
	E0701: {E0701, LevelError, "", "assembly"},

	E0800: {E0800, LevelError, i18n.ErrUnsupportedOp, "lowering"},
	E0801: {E0801, LevelError, i18n.ErrFrontendUnsupported, "lowering"},
}

// GetCompilerErrorInfo 获取编译器错误信息，FromError 用它确定级别和分类
func GetCompilerErrorInfo(code string) (ErrorInfo, bool) {
	info, ok := compilerErrors[code]
	return info, ok
}

// IsCompilerError 检查是否为编译器错误码
func IsCompilerError(code string) bool {
	_, ok := compilerErrors[code]
	return ok
}
