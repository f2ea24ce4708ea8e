package lsp

import (
	"go.lsp.dev/protocol"
	"go.lsp.dev/uri"

	"github.com/tangzhangming/lye/internal/errors"
)

// Source 诊断来源
const Source = "lye"

// Diagnostics 把编译流程返回的错误转换为 LSP 诊断
//
// err 可以是 multierr 聚合的多个错误；nil 得到空列表（用于清除诊断）。
func Diagnostics(file string, err error) []protocol.Diagnostic {
	diagnostics := []protocol.Diagnostic{}
	if err == nil {
		return diagnostics
	}
	for _, ce := range errors.FromErrors(err, file) {
		diagnostics = append(diagnostics, toDiagnostic(ce))
	}
	return diagnostics
}

// Publish 构造 publishDiagnostics 通知的参数
func Publish(file string, version int32, err error) protocol.PublishDiagnosticsParams {
	return protocol.PublishDiagnosticsParams{
		URI:         protocol.DocumentURI(uri.File(file)),
		Version:     uint32(version),
		Diagnostics: Diagnostics(file, err),
	}
}

func toDiagnostic(ce *errors.CompileError) protocol.Diagnostic {
	// LSP 行列从 0 开始，没有位置的错误挂在文件开头
	line, col := zeroBased(ce.Line), zeroBased(ce.Column)
	end := col + 1
	if ce.EndColumn > ce.Column {
		end = zeroBased(ce.EndColumn)
	}

	return protocol.Diagnostic{
		Range: protocol.Range{
			Start: protocol.Position{Line: line, Character: col},
			End:   protocol.Position{Line: line, Character: end},
		},
		Severity: severity(ce.Level),
		Code:     ce.Code,
		Source:   Source,
		Message:  ce.Message,
	}
}

func zeroBased(n int) uint32 {
	if n < 1 {
		return 0
	}
	return uint32(n - 1)
}

func severity(l errors.Level) protocol.DiagnosticSeverity {
	switch l {
	case errors.LevelWarning:
		return protocol.DiagnosticSeverityWarning
	case errors.LevelNote:
		return protocol.DiagnosticSeverityInformation
	case errors.LevelHelp:
		return protocol.DiagnosticSeverityHint
	}
	return protocol.DiagnosticSeverityError
}
