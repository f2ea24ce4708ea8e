package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/tangzhangming/lye/internal/errors"
	"github.com/tangzhangming/lye/internal/i18n"
)

const (
	Version = "0.1.0"

	// SourceFileExtension 源文件后缀
	SourceFileExtension = ".lox"
)

// 全局语言参数
var globalLang string

func main() {
	// 预扫描全局参数 --lang 或 -lang
	args := preprocessArgs(os.Args[1:])
	InitLanguage(globalLang)

	if len(args) < 1 {
		printUsage()
		os.Exit(0)
	}

	command := args[0]
	switch command {
	case "run":
		cmdRun(args[1:])
	case "build":
		cmdBuild(args[1:])
	case "check":
		cmdCheck(args[1:])
	case "disasm":
		cmdDisasm(args[1:])
	case "ast":
		cmdAST(args[1:])
	case "inspect":
		cmdInspect(args[1:])
	case "init":
		cmdInit(args[1:])
	case "lsp":
		cmdLsp(args[1:])
	case "repl":
		cmdRepl(args[1:])
	case "cache":
		cmdCache(args[1:])
	case "version", "-v", "--version":
		cmdVersion()
	case "help", "-h", "--help":
		printUsage()
	default:
		// 直接给出源文件时按 run 处理
		if strings.HasSuffix(command, SourceFileExtension) {
			cmdRun(args)
			return
		}
		fmt.Fprintln(os.Stderr, i18n.T(i18n.CLIUnknownCommand, command))
		fmt.Fprintln(os.Stderr)
		printUsage()
		os.Exit(1)
	}
}

// preprocessArgs 预处理参数，提取全局 --lang 和 --no-color 参数
func preprocessArgs(args []string) []string {
	var result []string
	for i := 0; i < len(args); i++ {
		arg := args[i]
		switch {
		case arg == "--lang" || arg == "-lang":
			if i+1 < len(args) {
				globalLang = args[i+1]
				i++
				continue
			}
		case strings.HasPrefix(arg, "--lang="):
			globalLang = strings.TrimPrefix(arg, "--lang=")
			continue
		case strings.HasPrefix(arg, "-lang="):
			globalLang = strings.TrimPrefix(arg, "-lang=")
			continue
		case arg == "--no-color" || arg == "-no-color":
			errors.SetColorsEnabled(false)
			continue
		}
		result = append(result, arg)
	}
	return result
}

func printUsage() {
	fmt.Println(i18n.T(i18n.CLIUsage))
}

// cmdVersion 显示版本信息
func cmdVersion() {
	fmt.Printf("lye %s\n", Version)
}
