package errors

import (
	"fmt"
	"io"
	"os"
	"strings"
)

// ============================================================================
// 错误报告器
// ============================================================================

// Reporter 收集编译错误并按源码上下文输出
type Reporter struct {
	out         io.Writer
	formatter   *Formatter
	sourceCache map[string][]string
	errors      []*CompileError
}

// NewReporter 创建错误报告器，输出到 out
func NewReporter(out io.Writer) *Reporter {
	return &Reporter{
		out:         out,
		formatter:   NewFormatter(),
		sourceCache: make(map[string][]string),
	}
}

// SetFormatter 设置格式化器
func (r *Reporter) SetFormatter(f *Formatter) {
	r.formatter = f
}

// SetSource 设置源代码（内存中的源码）
func (r *Reporter) SetSource(filename, content string) {
	r.sourceCache[filename] = strings.Split(content, "\n")
}

// LoadSource 从磁盘加载源文件，已加载则跳过
func (r *Reporter) LoadSource(filename string) error {
	if _, ok := r.sourceCache[filename]; ok {
		return nil
	}
	data, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("load source: %w", err)
	}
	r.SetSource(filename, string(data))
	return nil
}

// Report 转换并记录一个错误（可以是 multierr 聚合的错误），Summary 时统一输出
func (r *Reporter) Report(err error, file string) {
	for _, ce := range FromErrors(err, file) {
		_ = r.LoadSource(ce.File)
		r.errors = append(r.errors, ce)
	}
}

// Summary 按源码上下文输出全部错误和错误计数
func (r *Reporter) Summary() {
	if len(r.errors) == 0 {
		return
	}
	fmt.Fprint(r.out, r.formatter.FormatCompileErrors(r.errors, r.sourceCache))
}

// HasErrors 是否报告过错误
func (r *Reporter) HasErrors() bool {
	return len(r.errors) > 0
}

// Errors 返回已报告的错误
func (r *Reporter) Errors() []*CompileError {
	return r.errors
}
