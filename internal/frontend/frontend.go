// Package frontend 把具体语法的语法树转换为编译器消费的规范 AST
package frontend

import (
	"fmt"

	"github.com/tangzhangming/lye/internal/ast"
	"github.com/tangzhangming/lye/internal/errors"
	"github.com/tangzhangming/lye/internal/i18n"
	"github.com/tangzhangming/lye/internal/parser"
	"github.com/tangzhangming/lye/internal/token"
)

// Adapter 产生规范 AST 的前端
type Adapter interface {
	Adapt() (*ast.Block, error)
}

// UnsupportedError 规范 AST 无法表达的语法构造
type UnsupportedError struct {
	Construct string
	Pos       token.Position
}

func (e *UnsupportedError) Error() string {
	msg := i18n.T(i18n.ErrFrontendUnsupported, e.Construct)
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s: %s", e.Pos, msg)
	}
	return msg
}

// Position 返回构造所在位置
func (e *UnsupportedError) Position() token.Position { return e.Pos }

// ErrorCode 返回错误码
func (e *UnsupportedError) ErrorCode() string { return errors.E0801 }

// FromSource 解析 Lox 源码并转换为规范 AST
//
// 语法错误优先返回，此时不做转换。
func FromSource(source, filename string) (*ast.Block, error) {
	p := parser.New(source, filename)
	prog := p.Parse()
	if err := p.Err(); err != nil {
		return nil, err
	}
	return NewLox(prog).Adapt()
}
