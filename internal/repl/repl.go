// Package repl 交互式解释器
//
// 每次输入都与之前接受的语句拼成一个完整脚本重新编译执行：
// 编译通过的语句追加到脚本中，表达式语句额外以 return 求值并打印结果，
// 含 return 的输入只求值不保留。
package repl

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/tangzhangming/lye/internal/bytecode"
	"github.com/tangzhangming/lye/internal/compiler"
	"github.com/tangzhangming/lye/internal/errors"
	"github.com/tangzhangming/lye/internal/frontend"
	"github.com/tangzhangming/lye/internal/lexer"
	"github.com/tangzhangming/lye/internal/token"
	"github.com/tangzhangming/lye/internal/vm"
)

// scriptName 编译单元名
const scriptName = "repl"

// maxHistory 历史记录上限
const maxHistory = 1000

// REPL 交互式解释器
type REPL struct {
	compiler *compiler.Config
	reader   *bufio.Reader
	writer   io.Writer

	history   []string
	multiline bool
	buffer    strings.Builder
	script    strings.Builder // 已接受的语句

	promptPrimary  string
	promptContinue string
}

// Config REPL 配置
type Config struct {
	Compiler       *compiler.Config
	PromptPrimary  string
	PromptContinue string
	In             io.Reader
	Out            io.Writer
}

// DefaultConfig 默认配置
func DefaultConfig() Config {
	return Config{
		Compiler:       compiler.DefaultConfig(),
		PromptPrimary:  ">>> ",
		PromptContinue: "... ",
		In:             os.Stdin,
		Out:            os.Stdout,
	}
}

// New 创建 REPL
func New(config Config) *REPL {
	if config.Compiler == nil {
		config.Compiler = compiler.DefaultConfig()
	}
	return &REPL{
		compiler:       config.Compiler,
		reader:         bufio.NewReader(config.In),
		writer:         config.Out,
		promptPrimary:  config.PromptPrimary,
		promptContinue: config.PromptContinue,
	}
}

// Run 运行 REPL，读到 EOF 或 :quit 时返回
func (r *REPL) Run() {
	r.printWelcome()

	for {
		prompt := r.promptPrimary
		if r.multiline {
			prompt = r.promptContinue
		}
		fmt.Fprint(r.writer, prompt)

		line, err := r.reader.ReadString('\n')
		if err != nil && line == "" {
			if err == io.EOF {
				fmt.Fprintln(r.writer, "\nBye!")
				return
			}
			fmt.Fprintf(r.writer, "Error reading input: %v\n", err)
			return
		}
		line = strings.TrimRight(line, "\r\n")

		// 处理特殊命令
		if !r.multiline && strings.HasPrefix(line, ":") {
			if !r.handleCommand(line) {
				return
			}
			continue
		}

		if r.multiline {
			r.buffer.WriteString("\n")
		}
		r.buffer.WriteString(line)

		if needsMoreInput(r.buffer.String()) {
			r.multiline = true
			continue
		}

		input := r.buffer.String()
		r.buffer.Reset()
		r.multiline = false

		if strings.TrimSpace(input) == "" {
			continue
		}
		r.addHistory(input)
		r.Eval(input)
	}
}

func (r *REPL) printWelcome() {
	fmt.Fprintln(r.writer, "Lye REPL")
	fmt.Fprintln(r.writer, "Type :help for help, :quit to exit")
	fmt.Fprintln(r.writer)
}

// handleCommand 处理特殊命令，返回 false 表示退出
func (r *REPL) handleCommand(line string) bool {
	parts := strings.Fields(line)
	if len(parts) == 0 {
		return true
	}

	cmd := strings.ToLower(parts[0])
	args := parts[1:]

	switch cmd {
	case ":help", ":h", ":?":
		r.printHelp()
	case ":quit", ":q", ":exit":
		fmt.Fprintln(r.writer, "Bye!")
		return false
	case ":reset", ":clear":
		r.Reset()
		fmt.Fprintln(r.writer, "Environment reset.")
	case ":load", ":l":
		if len(args) < 1 {
			fmt.Fprintln(r.writer, "Usage: :load <filename>")
			break
		}
		r.loadFile(args[0])
	case ":history", ":hist":
		for i, h := range r.history {
			fmt.Fprintf(r.writer, "%4d  %s\n", i+1, h)
		}
	case ":env":
		r.printEnv()
	case ":bytecode", ":bc":
		if u, err := r.compile(r.script.String()); err != nil {
			r.printError(err)
		} else {
			fmt.Fprint(r.writer, u.Disassemble())
		}
	default:
		fmt.Fprintf(r.writer, "Unknown command: %s\n", cmd)
		fmt.Fprintln(r.writer, "Type :help for available commands.")
	}
	return true
}

func (r *REPL) printHelp() {
	fmt.Fprintln(r.writer, "Available commands:")
	fmt.Fprintln(r.writer, "  :help, :h, :?     Show this help message")
	fmt.Fprintln(r.writer, "  :quit, :q, :exit  Exit the REPL")
	fmt.Fprintln(r.writer, "  :reset, :clear    Forget all declarations")
	fmt.Fprintln(r.writer, "  :load <file>      Append a file to the session")
	fmt.Fprintln(r.writer, "  :history, :hist   Show input history")
	fmt.Fprintln(r.writer, "  :env              Show declared variables and their slots")
	fmt.Fprintln(r.writer, "  :bytecode, :bc    Disassemble the session")
	fmt.Fprintln(r.writer)
	fmt.Fprintln(r.writer, "Examples:")
	fmt.Fprintln(r.writer, "  >>> var x = 10;")
	fmt.Fprintln(r.writer, "  >>> x * 2")
	fmt.Fprintln(r.writer, "  20.0")
}

// Reset 清空已接受的语句
func (r *REPL) Reset() {
	r.script.Reset()
	r.buffer.Reset()
	r.multiline = false
}

// Script 返回已接受的语句
func (r *REPL) Script() string {
	return r.script.String()
}

func (r *REPL) loadFile(filename string) {
	source, err := os.ReadFile(filename)
	if err != nil {
		fmt.Fprintf(r.writer, "Error loading file: %v\n", err)
		return
	}
	r.eval(string(source), false)
}

func (r *REPL) printEnv() {
	u, err := r.compile(r.script.String())
	if err != nil {
		r.printError(err)
		return
	}
	if len(u.Slots) == 0 {
		fmt.Fprintln(r.writer, "(no variables)")
		return
	}
	for _, s := range u.Slots {
		fmt.Fprintf(r.writer, "  %-12s %-8s slot %d\n", s.Name, s.Kind, s.Index)
	}
}

func (r *REPL) addHistory(input string) {
	if len(r.history) > 0 && r.history[len(r.history)-1] == input {
		return
	}
	r.history = append(r.history, input)
	if len(r.history) > maxHistory {
		r.history = r.history[len(r.history)-maxHistory:]
	}
}

// ============================================================================
// 求值
// ============================================================================

// Eval 求值一段输入，缺少结尾分号时自动补上
func (r *REPL) Eval(input string) {
	r.eval(input, true)
}

func (r *REPL) eval(input string, echo bool) {
	input = strings.TrimSpace(input)
	if !strings.HasSuffix(input, ";") && !strings.HasSuffix(input, "}") {
		input += ";"
	}
	prefix := r.script.String()

	if hasReturn(input) {
		r.run(prefix + input + "\n")
		return
	}

	if _, err := r.compile(prefix + input + "\n"); err != nil {
		r.printError(err)
		return
	}
	r.script.WriteString(input)
	r.script.WriteString("\n")

	if echo && isExpression(input) {
		r.run(prefix + "return " + input + "\n")
	}
}

func hasReturn(input string) bool {
	for _, tok := range lexer.New(input, "<repl>").ScanTokens() {
		if tok.Type == token.RETURN {
			return true
		}
	}
	return false
}

// isExpression 粗略判断输入是否为表达式语句
func isExpression(input string) bool {
	for _, kw := range []string{"var ", "if ", "if(", "{", "fun ", "class "} {
		if strings.HasPrefix(input, kw) {
			return false
		}
	}
	return true
}

func (r *REPL) compile(source string) (*bytecode.Unit, error) {
	root, err := frontend.FromSource(source, "<repl>")
	if err != nil {
		return nil, err
	}
	return compiler.Compile(scriptName, root, r.compiler)
}

func (r *REPL) run(source string) {
	u, err := r.compile(source)
	if err != nil {
		r.printError(err)
		return
	}
	res, err := vm.Run(u)
	if err != nil {
		fmt.Fprintf(r.writer, "Error: %v\n", err)
		return
	}
	if !res.Void {
		fmt.Fprintln(r.writer, res)
	}
}

// printError 只打印消息，行号指向拼接后的脚本没有意义
func (r *REPL) printError(err error) {
	for _, ce := range errors.FromErrors(err, "<repl>") {
		fmt.Fprintf(r.writer, "Error: %s\n", ce.Message)
	}
}

// needsMoreInput 括号未闭合或字符串未结束时继续读入
func needsMoreInput(input string) bool {
	braceDepth := 0
	parenDepth := 0
	inString := false

	for i := 0; i < len(input); i++ {
		c := input[i]
		if inString {
			if c == '"' {
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			braceDepth++
		case '}':
			braceDepth--
		case '(':
			parenDepth++
		case ')':
			parenDepth--
		}
	}
	return braceDepth > 0 || parenDepth > 0 || inString
}
