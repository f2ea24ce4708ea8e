// Package parser 把 Lox 源码解析成语法树
package parser

import (
	"fmt"

	"go.uber.org/multierr"

	"github.com/tangzhangming/lye/internal/i18n"
	"github.com/tangzhangming/lye/internal/lexer"
	"github.com/tangzhangming/lye/internal/token"
)

// Parser 语法分析器
type Parser struct {
	tokens    []token.Token
	current   int
	errors    []Error
	filename  string
	panicMode bool // 错误恢复模式标志，用于避免级联报错
	exprDepth int  // 表达式解析深度，防止栈溢出
}

// maxExprDepth 最大表达式嵌套深度，防止栈溢出
const maxExprDepth = 200

// maxArgs 调用与函数参数个数上限
const maxArgs = 255

// Error 语法分析错误
type Error struct {
	Pos     token.Position
	Message string
}

func (e Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Pos, e.Message)
}

// Position 返回错误位置
func (e Error) Position() token.Position { return e.Pos }

// New 创建一个新的语法分析器，词法错误会并入语法错误
func New(source, filename string) *Parser {
	l := lexer.New(source, filename)
	tokens := l.ScanTokens()

	p := &Parser{
		tokens:   tokens,
		filename: filename,
	}
	for _, e := range l.Errors() {
		p.errors = append(p.errors, Error{Pos: e.Pos, Message: e.Message})
	}
	return p
}

// Parse 解析源文件
func (p *Parser) Parse() *Program {
	prog := &Program{Filename: p.filename}

	for !p.isAtEnd() {
		p.panicMode = false
		stmt := p.parseDeclaration()
		if p.panicMode {
			p.synchronize()
			continue
		}
		if stmt != nil {
			prog.Stmts = append(prog.Stmts, stmt)
		}
	}
	return prog
}

// Errors 返回所有错误
func (p *Parser) Errors() []Error {
	return p.errors
}

// HasErrors 检查是否有错误
func (p *Parser) HasErrors() bool {
	return len(p.errors) > 0
}

// Err 把所有错误合并为一个 error，没有错误时返回 nil
func (p *Parser) Err() error {
	var err error
	for _, e := range p.errors {
		err = multierr.Append(err, e)
	}
	return err
}

// ============================================================================
// 辅助方法
// ============================================================================

func (p *Parser) isAtEnd() bool {
	return p.peek().Type == token.EOF
}

func (p *Parser) peek() token.Token {
	return p.tokens[p.current]
}

func (p *Parser) previous() token.Token {
	return p.tokens[p.current-1]
}

func (p *Parser) advance() token.Token {
	if !p.isAtEnd() {
		p.current++
	}
	return p.previous()
}

func (p *Parser) check(t token.TokenType) bool {
	if p.isAtEnd() {
		return false
	}
	return p.peek().Type == t
}

func (p *Parser) match(types ...token.TokenType) bool {
	for _, t := range types {
		if p.check(t) {
			p.advance()
			return true
		}
	}
	return false
}

func (p *Parser) consume(t token.TokenType, what string) token.Token {
	if p.panicMode {
		return token.Token{}
	}
	if p.check(t) {
		return p.advance()
	}
	p.error(i18n.T(i18n.ErrExpectedToken, what))
	p.panicMode = true
	return token.Token{} // 返回零值，调用方应检查 panicMode
}

// maxParseErrors 最大错误数量限制，防止错误爆炸
const maxParseErrors = 50

func (p *Parser) error(message string) {
	p.errorAt(p.peek().Pos, message)
}

func (p *Parser) errorAt(pos token.Position, message string) {
	// panicMode 下跳过后续错误，避免级联报错
	if p.panicMode {
		return
	}

	// 避免在同一位置重复报错
	if len(p.errors) > 0 {
		last := p.errors[len(p.errors)-1]
		if last.Pos.Line == pos.Line && last.Pos.Column == pos.Column {
			return
		}
	}

	if len(p.errors) >= maxParseErrors {
		p.errors = append(p.errors, Error{Pos: pos, Message: i18n.T(i18n.ErrTooManyErrors)})
		p.panicMode = true
		return
	}

	p.errors = append(p.errors, Error{Pos: pos, Message: message})
}

func (p *Parser) synchronize() {
	p.advance()

	for !p.isAtEnd() {
		// 分号后是安全点
		if p.previous().Type == token.SEMICOLON {
			return
		}

		switch p.peek().Type {
		case token.CLASS, token.FUN, token.VAR, token.FOR, token.IF,
			token.WHILE, token.PRINT, token.RETURN:
			return
		}

		p.advance()
	}
}

// ============================================================================
// 声明与语句
// ============================================================================

func (p *Parser) parseDeclaration() Stmt {
	switch {
	case p.match(token.CLASS):
		return p.parseClass()
	case p.match(token.FUN):
		return p.parseFunction("function")
	case p.match(token.VAR):
		return p.parseVar()
	}
	return p.parseStatement()
}

func (p *Parser) parseClass() Stmt {
	kw := p.previous()
	name := p.consume(token.IDENT, "class name")
	if p.panicMode {
		return nil
	}

	var super *Variable
	if p.match(token.LT) {
		superName := p.consume(token.IDENT, "superclass name")
		if p.panicMode {
			return nil
		}
		super = &Variable{Name: superName}
	}

	p.consume(token.LBRACE, "'{' before class body")
	var methods []*FunctionStmt
	for !p.check(token.RBRACE) && !p.isAtEnd() && !p.panicMode {
		if fn := p.parseFunction("method"); fn != nil {
			methods = append(methods, fn)
		}
	}
	p.consume(token.RBRACE, "'}' after class body")
	if p.panicMode {
		return nil
	}
	return &ClassStmt{Keyword: kw, Name: name, Superclass: super, Methods: methods}
}

func (p *Parser) parseFunction(kind string) *FunctionStmt {
	kw := p.previous()
	name := p.consume(token.IDENT, kind+" name")
	p.consume(token.LPAREN, "'(' after "+kind+" name")
	if p.panicMode {
		return nil
	}

	var params []token.Token
	if !p.check(token.RPAREN) {
		for {
			if len(params) >= maxArgs {
				p.error(fmt.Sprintf("more than %d parameters", maxArgs))
			}
			params = append(params, p.consume(token.IDENT, "parameter name"))
			if p.panicMode || !p.match(token.COMMA) {
				break
			}
		}
	}
	p.consume(token.RPAREN, "')' after parameters")
	p.consume(token.LBRACE, "'{' before "+kind+" body")
	if p.panicMode {
		return nil
	}
	body := p.parseBlockBody()
	if p.panicMode {
		return nil
	}
	return &FunctionStmt{Keyword: kw, Name: name, Params: params, Body: body}
}

func (p *Parser) parseVar() Stmt {
	kw := p.previous()
	name := p.consume(token.IDENT, "variable name")
	if p.panicMode {
		return nil
	}

	var init Expr
	if p.match(token.ASSIGN) {
		init = p.parseExpression()
	}
	p.consume(token.SEMICOLON, "';' after variable declaration")
	if p.panicMode {
		return nil
	}
	return &VarStmt{Keyword: kw, Name: name, Init: init}
}

func (p *Parser) parseStatement() Stmt {
	switch {
	case p.match(token.FOR):
		return p.parseFor()
	case p.match(token.IF):
		return p.parseIf()
	case p.match(token.PRINT):
		kw := p.previous()
		value := p.parseExpression()
		p.consume(token.SEMICOLON, "';' after value")
		if p.panicMode {
			return nil
		}
		return &PrintStmt{Keyword: kw, Expr: value}
	case p.match(token.RETURN):
		return p.parseReturn()
	case p.match(token.WHILE):
		return p.parseWhile()
	case p.match(token.LBRACE):
		lbrace := p.previous()
		stmts := p.parseBlockBody()
		if p.panicMode {
			return nil
		}
		return &BlockStmt{LBrace: lbrace, Stmts: stmts}
	}

	expr := p.parseExpression()
	p.consume(token.SEMICOLON, "';' after expression")
	if p.panicMode || expr == nil {
		return nil
	}
	return &ExpressionStmt{Expr: expr}
}

// parseBlockBody 解析 '{' 之后到 '}' 为止的语句
func (p *Parser) parseBlockBody() []Stmt {
	var stmts []Stmt
	for !p.check(token.RBRACE) && !p.isAtEnd() {
		stmt := p.parseDeclaration()
		if p.panicMode {
			return nil
		}
		if stmt != nil {
			stmts = append(stmts, stmt)
		}
	}
	p.consume(token.RBRACE, "'}' after block")
	return stmts
}

func (p *Parser) parseIf() Stmt {
	kw := p.previous()
	p.consume(token.LPAREN, "'(' after 'if'")
	cond := p.parseExpression()
	p.consume(token.RPAREN, "')' after if condition")
	if p.panicMode {
		return nil
	}

	then := p.parseStatement()
	var els Stmt
	if !p.panicMode && p.match(token.ELSE) {
		els = p.parseStatement()
	}
	if p.panicMode {
		return nil
	}
	return &IfStmt{Keyword: kw, Cond: cond, Then: then, Else: els}
}

func (p *Parser) parseWhile() Stmt {
	kw := p.previous()
	p.consume(token.LPAREN, "'(' after 'while'")
	cond := p.parseExpression()
	p.consume(token.RPAREN, "')' after condition")
	if p.panicMode {
		return nil
	}
	body := p.parseStatement()
	if p.panicMode {
		return nil
	}
	return &WhileStmt{Keyword: kw, Cond: cond, Body: body}
}

func (p *Parser) parseFor() Stmt {
	kw := p.previous()
	p.consume(token.LPAREN, "'(' after 'for'")
	if p.panicMode {
		return nil
	}

	var init Stmt
	switch {
	case p.match(token.SEMICOLON):
	case p.match(token.VAR):
		init = p.parseVar()
	default:
		expr := p.parseExpression()
		p.consume(token.SEMICOLON, "';' after loop initializer")
		if expr != nil {
			init = &ExpressionStmt{Expr: expr}
		}
	}

	var cond Expr
	if !p.panicMode && !p.check(token.SEMICOLON) {
		cond = p.parseExpression()
	}
	p.consume(token.SEMICOLON, "';' after loop condition")

	var incr Expr
	if !p.panicMode && !p.check(token.RPAREN) {
		incr = p.parseExpression()
	}
	p.consume(token.RPAREN, "')' after for clauses")
	if p.panicMode {
		return nil
	}

	body := p.parseStatement()
	if p.panicMode {
		return nil
	}
	return &ForStmt{Keyword: kw, Init: init, Cond: cond, Incr: incr, Body: body}
}

func (p *Parser) parseReturn() Stmt {
	kw := p.previous()
	var value Expr
	if !p.check(token.SEMICOLON) {
		value = p.parseExpression()
	}
	p.consume(token.SEMICOLON, "';' after return value")
	if p.panicMode {
		return nil
	}
	return &ReturnStmt{Keyword: kw, Value: value}
}

// ============================================================================
// 表达式解析 (Pratt Parser / 优先级攀升)
// ============================================================================

// 运算符优先级
const (
	PREC_NONE       = iota
	PREC_ASSIGNMENT // =
	PREC_OR         // or
	PREC_AND        // and
	PREC_EQUALITY   // == !=
	PREC_COMPARISON // < > <= >=
	PREC_TERM       // + -
	PREC_FACTOR     // * /
	PREC_EXPONENT   // **
	PREC_UNARY      // ! -
	PREC_CALL       // . ()
	PREC_PRIMARY
)

func (p *Parser) getPrecedence(t token.TokenType) int {
	switch t {
	case token.ASSIGN:
		return PREC_ASSIGNMENT
	case token.OR:
		return PREC_OR
	case token.AND:
		return PREC_AND
	case token.EQ, token.NE:
		return PREC_EQUALITY
	case token.LT, token.LE, token.GT, token.GE:
		return PREC_COMPARISON
	case token.PLUS, token.MINUS:
		return PREC_TERM
	case token.STAR, token.SLASH:
		return PREC_FACTOR
	case token.POWER:
		return PREC_EXPONENT
	case token.LPAREN, token.DOT:
		return PREC_CALL
	default:
		return PREC_NONE
	}
}

func (p *Parser) parseExpression() Expr {
	p.exprDepth++
	defer func() { p.exprDepth-- }()
	if p.exprDepth > maxExprDepth {
		p.error("expression too deeply nested")
		p.panicMode = true
		return nil
	}
	return p.parsePrecedence(PREC_ASSIGNMENT)
}

func (p *Parser) parsePrecedence(precedence int) Expr {
	left := p.parsePrefixExpr()
	if left == nil {
		return nil
	}

	for precedence <= p.getPrecedence(p.peek().Type) && !p.panicMode {
		left = p.parseInfixExpr(left)
		if left == nil {
			return nil
		}
	}
	return left
}

func (p *Parser) parsePrefixExpr() Expr {
	switch p.peek().Type {
	case token.NUMBER, token.STRING:
		tok := p.advance()
		return &Literal{Token: tok, Value: tok.Value}
	case token.TRUE:
		return &Literal{Token: p.advance(), Value: true}
	case token.FALSE:
		return &Literal{Token: p.advance(), Value: false}
	case token.NIL:
		return &Literal{Token: p.advance()}
	case token.IDENT:
		return &Variable{Name: p.advance()}
	case token.THIS:
		return &This{Keyword: p.advance()}
	case token.SUPER:
		kw := p.advance()
		p.consume(token.DOT, "'.' after 'super'")
		method := p.consume(token.IDENT, "superclass method name")
		if p.panicMode {
			return nil
		}
		return &Super{Keyword: kw, Method: method}
	case token.LPAREN:
		lparen := p.advance()
		inner := p.parseExpression()
		p.consume(token.RPAREN, "')' after expression")
		if p.panicMode || inner == nil {
			return nil
		}
		return &Grouping{LParen: lparen, Inner: inner}
	case token.BANG, token.MINUS:
		op := p.advance()
		right := p.parsePrecedence(PREC_UNARY)
		if right == nil {
			return nil
		}
		return &Unary{Op: op, Right: right}
	case token.ILLEGAL:
		// 词法阶段已经报过错
		p.advance()
		p.panicMode = true
		return nil
	default:
		p.error(i18n.T(i18n.ErrExpectedExpression))
		p.panicMode = true
		return nil
	}
}

func (p *Parser) parseInfixExpr(left Expr) Expr {
	op := p.peek()
	switch op.Type {
	case token.ASSIGN:
		return p.parseAssign(left)
	case token.AND, token.OR:
		p.advance()
		right := p.parsePrecedence(p.getPrecedence(op.Type) + 1)
		if right == nil {
			return nil
		}
		return &Logical{Left: left, Op: op, Right: right}
	case token.LPAREN:
		return p.parseCall(left)
	case token.DOT:
		p.advance()
		name := p.consume(token.IDENT, "property name after '.'")
		if p.panicMode {
			return nil
		}
		return &Get{Object: left, Name: name}
	default:
		p.advance()
		right := p.parsePrecedence(p.getPrecedence(op.Type) + 1)
		if right == nil {
			return nil
		}
		return &Binary{Left: left, Op: op, Right: right}
	}
}

// parseAssign 赋值是右结合的，只有变量和属性可以作为目标
func (p *Parser) parseAssign(left Expr) Expr {
	eq := p.advance()
	value := p.parsePrecedence(PREC_ASSIGNMENT)
	if value == nil {
		return nil
	}

	switch target := left.(type) {
	case *Variable:
		return &Assign{Name: target.Name, Value: value}
	case *Get:
		return &Set{Object: target.Object, Name: target.Name, Value: value}
	}
	p.errorAt(eq.Pos, i18n.T(i18n.ErrInvalidAssignTarget))
	p.panicMode = true
	return nil
}

func (p *Parser) parseCall(callee Expr) Expr {
	p.advance() // (
	var args []Expr
	if !p.check(token.RPAREN) {
		for {
			if len(args) >= maxArgs {
				p.error(fmt.Sprintf("more than %d arguments", maxArgs))
			}
			arg := p.parseExpression()
			if arg == nil {
				return nil
			}
			args = append(args, arg)
			if !p.match(token.COMMA) {
				break
			}
		}
	}
	paren := p.consume(token.RPAREN, "')' after arguments")
	if p.panicMode {
		return nil
	}
	return &Call{Callee: callee, Paren: paren, Args: args}
}
