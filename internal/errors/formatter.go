package errors

import (
	"fmt"
	"strings"

	"github.com/tangzhangming/lye/internal/i18n"
)

// ============================================================================
// 编译错误
// ============================================================================

// Label 代码标签（用于标注错误位置）
type Label struct {
	Line    int    // 行号（1-based）
	Column  int    // 列号（1-based）
	Length  int    // 标注长度
	Message string // 标签消息
	Primary bool   // 是否为主要标签
}

// CompileError 编译错误
type CompileError struct {
	Code      string   `json:"code"`
	Level     Level    `json:"level"`
	Message   string   `json:"message"`
	File      string   `json:"file"`
	Line      int      `json:"line"`
	Column    int      `json:"column"`
	EndColumn int      `json:"endColumn,omitempty"`
	Category  string   `json:"category,omitempty"`
	Labels    []Label  `json:"-"`
	Hints     []string `json:"hints,omitempty"`
}

// Error 实现 error 接口
func (e *CompileError) Error() string {
	if e.Line == 0 {
		return fmt.Sprintf("%s: %s", e.File, e.Message)
	}
	return fmt.Sprintf("%s:%d:%d: %s", e.File, e.Line, e.Column, e.Message)
}

// ============================================================================
// 格式化器
// ============================================================================

// Formatter 错误格式化器
type Formatter struct {
	Colors     bool // 是否使用颜色
	ShowSource bool // 是否显示源代码
	ShowHints  bool // 是否显示修复建议
	TabWidth   int  // Tab 宽度
}

// NewFormatter 创建默认格式化器
func NewFormatter() *Formatter {
	return &Formatter{
		Colors:     ColorsEnabled(),
		ShowSource: true,
		ShowHints:  true,
		TabWidth:   4,
	}
}

// FormatCompileError 格式化编译错误
//
//	error[E0100]: undefined variable 'y'
//	 --> main.lox:2:8
//	  |
//	2 | return y;
//	  |        ^
//	 = help: declare it with 'var y = ...' before use
func (f *Formatter) FormatCompileError(err *CompileError, sourceLines []string) string {
	var sb strings.Builder

	levelStr := f.colorize(err.Level.String(), f.levelColor(err.Level))
	codeStr := f.colorize(fmt.Sprintf("[%s]", err.Code), f.levelColor(err.Level))
	sb.WriteString(fmt.Sprintf("%s%s: %s\n", levelStr, codeStr, err.Message))

	arrow := f.colorize("-->", ColorCyan)
	location := err.File
	if err.Line > 0 {
		location = fmt.Sprintf("%s:%d:%d", err.File, err.Line, err.Column)
	}
	sb.WriteString(fmt.Sprintf(" %s %s\n", arrow, f.colorize(location, ColorCyan)))

	if f.ShowSource && err.Line > 0 && err.Line <= len(sourceLines) {
		sb.WriteString(f.formatSourceContext(sourceLines, err.Line, err.Column, err.EndColumn, err.Labels))
	}

	if f.ShowHints {
		for _, hint := range err.Hints {
			sb.WriteString(fmt.Sprintf("%s %s\n", f.colorize(" = help:", ColorCyan), hint))
		}
	}

	return sb.String()
}

// FormatCompileErrors 格式化多个编译错误并附上错误计数
func (f *Formatter) FormatCompileErrors(errs []*CompileError, sourceCache map[string][]string) string {
	var sb strings.Builder

	for i, err := range errs {
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(f.FormatCompileError(err, sourceCache[err.File]))
	}

	if len(errs) > 0 {
		sb.WriteString("\n")
		sb.WriteString(f.colorize(i18n.T(i18n.CLIErrorCount, len(errs)), ColorRed) + "\n")
	}

	return sb.String()
}

func (f *Formatter) formatSourceContext(lines []string, errorLine, startCol, endCol int, labels []Label) string {
	var sb strings.Builder

	lineNumWidth := len(fmt.Sprintf("%d", errorLine))
	for _, label := range labels {
		if w := len(fmt.Sprintf("%d", label.Line)); w > lineNumWidth {
			lineNumWidth = w
		}
	}

	separator := f.colorize(strings.Repeat(" ", lineNumWidth)+" |", ColorBlue)
	sb.WriteString(separator + "\n")

	line := lines[errorLine-1]
	lineNum := f.colorize(fmt.Sprintf("%*d", lineNumWidth, errorLine), ColorBlue)
	pipe := f.colorize(" |", ColorBlue)
	sb.WriteString(fmt.Sprintf("%s%s %s\n", lineNum, pipe, f.expandTabs(line)))

	if endCol == 0 {
		endCol = startCol + 1
	}
	length := endCol - startCol
	if length < 1 {
		length = 1
	}
	actualCol := f.calculateActualColumn(line, startCol)
	sb.WriteString(separator + " " + strings.Repeat(" ", actualCol) +
		f.colorize(strings.Repeat("^", length), ColorRed) + "\n")

	for _, label := range labels {
		if label.Line == errorLine || label.Line <= 0 || label.Line > len(lines) {
			continue
		}
		other := lines[label.Line-1]
		num := f.colorize(fmt.Sprintf("%*d", lineNumWidth, label.Line), ColorBlue)
		sb.WriteString(fmt.Sprintf("%s%s %s\n", num, pipe, f.expandTabs(other)))
		if label.Message != "" {
			col := f.calculateActualColumn(other, label.Column)
			n := label.Length
			if n < 1 {
				n = 1
			}
			sb.WriteString(separator + " " + strings.Repeat(" ", col) +
				f.colorize(strings.Repeat("-", n)+" "+label.Message, f.labelColor(label.Primary)) + "\n")
		}
	}

	return sb.String()
}

func (f *Formatter) expandTabs(s string) string {
	return strings.ReplaceAll(s, "\t", strings.Repeat(" ", f.TabWidth))
}

// calculateActualColumn 计算标注前需要的空格数（考虑 Tab）
func (f *Formatter) calculateActualColumn(line string, col int) int {
	if col <= 0 {
		return 0
	}
	actual := 0
	for i := 0; i < col-1 && i < len(line); i++ {
		if line[i] == '\t' {
			actual += f.TabWidth
		} else {
			actual++
		}
	}
	return actual
}

func (f *Formatter) levelColor(level Level) Color {
	switch level {
	case LevelError:
		return ColorRed
	case LevelWarning:
		return ColorYellow
	case LevelNote:
		return ColorCyan
	case LevelHelp:
		return ColorGreen
	default:
		return ColorWhite
	}
}

func (f *Formatter) labelColor(primary bool) Color {
	if primary {
		return ColorRed
	}
	return ColorYellow
}

func (f *Formatter) colorize(s string, color Color) string {
	if !f.Colors {
		return s
	}
	return Colorize(s, color)
}
