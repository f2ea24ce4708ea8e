package lexer

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/tangzhangming/lye/internal/i18n"
	"github.com/tangzhangming/lye/internal/token"
)

// ============================================================================
// Lexer - 词法分析器
// ============================================================================
//
// 将 Lox 脚本源码转换为 Token 序列。
//
// 支持的内容：
//   - 标识符与关键字（and class else false fun for if nil or print return
//     super this true var while）
//   - 数字字面量，统一解析为 float64
//   - 双引号字符串，支持 \n \t \r \\ \" 转义
//   - // 行注释与 /* */ 块注释（可嵌套）
//   - 运算符 + - * / ** ! = == != < <= > >=
//
// 词法错误不会中断扫描，而是被收集起来并生成 ILLEGAL token。
//
// ============================================================================

// Lexer 词法分析器结构体
type Lexer struct {
	source   string        // 源代码字符串
	filename string        // 源文件名（用于错误报告）
	tokens   []token.Token // 已扫描的 Token 列表

	start     int // 当前 Token 的起始位置（字节偏移）
	current   int // 当前扫描位置（字节偏移）
	line      int // 当前行号（从1开始）
	column    int // 当前列号（从1开始）
	startLine int // 当前 Token 起始行
	startCol  int // 当前 Token 起始列

	errors []Error // 词法错误列表
}

// Error 表示词法分析错误
type Error struct {
	Pos     token.Position // 错误位置
	Message string         // 错误信息
}

func (e Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Pos, e.Message)
}

// Position 返回错误位置
func (e Error) Position() token.Position { return e.Pos }

// New 创建一个新的词法分析器
func New(source, filename string) *Lexer {
	// 经验值：平均每 5 个字符产生一个 token
	estimatedTokens := len(source) / 5
	if estimatedTokens < 16 {
		estimatedTokens = 16
	}

	return &Lexer{
		source:   source,
		filename: filename,
		tokens:   make([]token.Token, 0, estimatedTokens),
		line:     1,
		column:   1,
	}
}

// ScanTokens 扫描所有 tokens，最后一个总是 EOF
func (l *Lexer) ScanTokens() []token.Token {
	for {
		l.skipTrivia()
		if l.isAtEnd() {
			break
		}
		l.start = l.current
		l.startLine = l.line
		l.startCol = l.column
		l.scanToken()
	}

	l.start = l.current
	l.startLine = l.line
	l.startCol = l.column
	l.tokens = append(l.tokens, token.Token{
		Type: token.EOF,
		Pos:  l.tokenPos(),
	})

	return l.tokens
}

// Errors 返回所有词法错误
func (l *Lexer) Errors() []Error {
	return l.errors
}

// HasErrors 检查是否有错误
func (l *Lexer) HasErrors() bool {
	return len(l.errors) > 0
}

// ============================================================================
// 核心扫描逻辑
// ============================================================================

func (l *Lexer) scanToken() {
	ch := l.advance()

	switch ch {
	case '(':
		l.addToken(token.LPAREN)
	case ')':
		l.addToken(token.RPAREN)
	case '{':
		l.addToken(token.LBRACE)
	case '}':
		l.addToken(token.RBRACE)
	case ',':
		l.addToken(token.COMMA)
	case '.':
		l.addToken(token.DOT)
	case ';':
		l.addToken(token.SEMICOLON)
	case '+':
		l.addToken(token.PLUS)
	case '-':
		l.addToken(token.MINUS)
	case '/':
		l.addToken(token.SLASH)

	case '*':
		if l.match('*') {
			l.addToken(token.POWER)
		} else {
			l.addToken(token.STAR)
		}
	case '!':
		if l.match('=') {
			l.addToken(token.NE)
		} else {
			l.addToken(token.BANG)
		}
	case '=':
		if l.match('=') {
			l.addToken(token.EQ)
		} else {
			l.addToken(token.ASSIGN)
		}
	case '<':
		if l.match('=') {
			l.addToken(token.LE)
		} else {
			l.addToken(token.LT)
		}
	case '>':
		if l.match('=') {
			l.addToken(token.GE)
		} else {
			l.addToken(token.GT)
		}

	case '"':
		l.string()

	default:
		if isDigit(ch) {
			l.number()
		} else if isAlpha(ch) {
			l.identifier()
		} else {
			l.error(i18n.T(i18n.ErrUnexpectedChar, ch))
		}
	}
}

// skipTrivia 跳过空白和注释
func (l *Lexer) skipTrivia() {
	for !l.isAtEnd() {
		switch l.peek() {
		case ' ', '\t', '\r':
			l.advance()
		case '\n':
			l.advance()
			l.newLine()
		case '/':
			switch l.peekNext() {
			case '/':
				for !l.isAtEnd() && l.peek() != '\n' {
					l.advance()
				}
			case '*':
				l.start = l.current
				l.startLine = l.line
				l.startCol = l.column
				l.advance()
				l.advance()
				l.blockComment()
			default:
				return
			}
		default:
			return
		}
	}
}

func (l *Lexer) blockComment() {
	depth := 1 // 支持嵌套

	for depth > 0 && !l.isAtEnd() {
		switch {
		case l.peek() == '/' && l.peekNext() == '*':
			l.advance()
			l.advance()
			depth++
		case l.peek() == '*' && l.peekNext() == '/':
			l.advance()
			l.advance()
			depth--
		case l.peek() == '\n':
			l.advance()
			l.newLine()
		default:
			l.advance()
		}
	}

	if depth > 0 {
		l.errors = append(l.errors, Error{
			Pos:     l.tokenPos(),
			Message: i18n.T(i18n.ErrUnterminatedComment),
		})
	}
}

func (l *Lexer) string() {
	var sb strings.Builder

	for !l.isAtEnd() && l.peek() != '"' {
		ch := l.advance()
		switch ch {
		case '\n':
			// Lox 允许多行字符串
			l.newLine()
			sb.WriteRune(ch)
		case '\\':
			if l.isAtEnd() {
				break
			}
			switch esc := l.advance(); esc {
			case 'n':
				sb.WriteByte('\n')
			case 'r':
				sb.WriteByte('\r')
			case 't':
				sb.WriteByte('\t')
			case '\\':
				sb.WriteByte('\\')
			case '"':
				sb.WriteByte('"')
			default:
				sb.WriteByte('\\')
				sb.WriteRune(esc)
			}
		default:
			sb.WriteRune(ch)
		}
	}

	if l.isAtEnd() {
		l.error(i18n.T(i18n.ErrUnterminatedString))
		return
	}

	l.advance() // 结束引号
	l.addTokenWithValue(token.STRING, sb.String())
}

func (l *Lexer) number() {
	for isDigit(l.peek()) {
		l.advance()
	}

	// 小数部分：'.' 后必须紧跟数字，否则 '.' 属于下一个 token
	if l.peek() == '.' && isDigit(l.peekNext()) {
		l.advance()
		for isDigit(l.peek()) {
			l.advance()
		}
	}

	literal := l.source[l.start:l.current]
	value, err := strconv.ParseFloat(literal, 64)
	if err != nil {
		l.error(i18n.T(i18n.ErrInvalidNumber, literal))
		return
	}
	l.addTokenWithValue(token.NUMBER, value)
}

func (l *Lexer) identifier() {
	for isAlphaNumeric(l.peek()) {
		l.advance()
	}
	l.addToken(token.LookupIdent(l.source[l.start:l.current]))
}

// ============================================================================
// 字符读取
// ============================================================================

func (l *Lexer) isAtEnd() bool {
	return l.current >= len(l.source)
}

// advance 前进一个字符并返回它
func (l *Lexer) advance() rune {
	if l.current >= len(l.source) {
		return 0
	}

	b := l.source[l.current]
	if b < utf8.RuneSelf {
		l.current++
		l.column++
		return rune(b)
	}

	r, size := utf8.DecodeRuneInString(l.source[l.current:])
	l.current += size
	l.column++
	return r
}

func (l *Lexer) peek() rune {
	if l.current >= len(l.source) {
		return 0
	}
	b := l.source[l.current]
	if b < utf8.RuneSelf {
		return rune(b)
	}
	r, _ := utf8.DecodeRuneInString(l.source[l.current:])
	return r
}

func (l *Lexer) peekNext() rune {
	if l.current >= len(l.source) {
		return 0
	}
	_, size := utf8.DecodeRuneInString(l.source[l.current:])
	if l.current+size >= len(l.source) {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(l.source[l.current+size:])
	return r
}

// match 如果当前字符匹配则前进
func (l *Lexer) match(expected rune) bool {
	if l.peek() != expected || l.isAtEnd() {
		return false
	}
	l.advance()
	return true
}

// ============================================================================
// 位置与 Token 生成
// ============================================================================

func (l *Lexer) newLine() {
	l.line++
	l.column = 1
}

func (l *Lexer) tokenPos() token.Position {
	return token.Position{
		Filename: l.filename,
		Line:     l.startLine,
		Column:   l.startCol,
		Offset:   l.start,
	}
}

func (l *Lexer) addToken(tokenType token.TokenType) {
	l.tokens = append(l.tokens, token.Token{
		Type:    tokenType,
		Literal: l.source[l.start:l.current],
		Pos:     l.tokenPos(),
	})
}

// addTokenWithValue 添加一个带值的 Token（数字和字符串）
func (l *Lexer) addTokenWithValue(tokenType token.TokenType, value interface{}) {
	l.tokens = append(l.tokens, token.Token{
		Type:    tokenType,
		Literal: l.source[l.start:l.current],
		Value:   value,
		Pos:     l.tokenPos(),
	})
}

// error 记录一个词法错误并生成 ILLEGAL token
func (l *Lexer) error(message string) {
	l.errors = append(l.errors, Error{
		Pos:     l.tokenPos(),
		Message: message,
	})
	l.addToken(token.ILLEGAL)
}

// ============================================================================
// 字符分类
// ============================================================================

func isDigit(ch rune) bool {
	return ch >= '0' && ch <= '9'
}

// isAlpha 判断是否为字母或下划线，允许 Unicode 字母
func isAlpha(ch rune) bool {
	return (ch >= 'a' && ch <= 'z') ||
		(ch >= 'A' && ch <= 'Z') ||
		ch == '_' ||
		(ch >= utf8.RuneSelf && unicode.IsLetter(ch))
}

func isAlphaNumeric(ch rune) bool {
	return isAlpha(ch) || isDigit(ch)
}
