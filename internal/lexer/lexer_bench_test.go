package lexer

import (
	"strings"
	"testing"
)

// ============================================================================
// Lexer 基准测试
// ============================================================================
//
//   go test -bench=. -benchmem ./internal/lexer/...
//
// ============================================================================

var benchSource = `
// 模拟一个典型脚本
var principal = 1000;
var rate = 0.05;
var years = 10;
var growth = (1 + rate) ** years;
var total = principal * growth;
var label = "total: ";
if (total > 0 and years > 0) {
    var bonus = total / 100;
    total = total + bonus;
} else {
    total = -total;
}
/* 结果 */
return total;
`

func BenchmarkScanTokens(b *testing.B) {
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		New(benchSource, "bench.lox").ScanTokens()
	}
}

func BenchmarkScanTokensLarge(b *testing.B) {
	src := strings.Repeat(benchSource, 200)
	b.SetBytes(int64(len(src)))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		New(src, "bench.lox").ScanTokens()
	}
}
