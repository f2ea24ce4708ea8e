package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/segmentio/encoding/json"
	"go.uber.org/zap"

	"github.com/tangzhangming/lye/internal/ast"
	"github.com/tangzhangming/lye/internal/bytecode"
	"github.com/tangzhangming/lye/internal/config"
	"github.com/tangzhangming/lye/internal/errors"
	"github.com/tangzhangming/lye/internal/i18n"
	"github.com/tangzhangming/lye/internal/jvmgen"
	"github.com/tangzhangming/lye/internal/lsp"
	"github.com/tangzhangming/lye/internal/profiler"
	"github.com/tangzhangming/lye/internal/repl"
	"github.com/tangzhangming/lye/internal/typeindex"
	"github.com/tangzhangming/lye/internal/vm"
)

// parseFileArgs 解析子命令参数，要求给出一个文件
func parseFileArgs(fs *flag.FlagSet, args []string) string {
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "lye %s [flags] <file%s>\n", fs.Name(), SourceFileExtension)
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	if fs.NArg() < 1 {
		fs.Usage()
		fmt.Fprintln(os.Stderr, i18n.T(i18n.CLIMissingFile))
		os.Exit(1)
	}
	return fs.Arg(0)
}

// ============================================================================
// run
// ============================================================================

// cmdRun 编译并在参考虚拟机上执行
func cmdRun(args []string) {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	showAST := fs.Bool("ast", false, "print the canonical syntax tree before running")
	showBytecode := fs.Bool("bytecode", false, "print the compiled instructions before running")
	stats := fs.Bool("stats", false, "print execution statistics")
	maxSteps := fs.Int("max-steps", vm.DefaultMaxSteps, "instruction limit")
	profile := fs.Bool("profile", false, "print an instruction profile after running")
	profileFormat := fs.String("profile-format", "text", "profile format (text/json)")
	profileTop := fs.Int("profile-top", 10, "number of hot sites to report")
	file := parseFileArgs(fs, args)

	format, err := profiler.ParseFormat(*profileFormat)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	s := openSession(file)
	defer s.close()

	if *showAST {
		root, err := s.parse()
		if err != nil {
			s.fail(err)
		}
		fmt.Print(ast.Format(root))
	}

	u := s.mustCompile()
	if *showBytecode {
		fmt.Print(u.Disassemble())
	}

	opts := []vm.Option{vm.WithLogger(s.log), vm.WithMaxSteps(*maxSteps)}
	var prof *profiler.Profiler
	if *profile {
		prof = profiler.New()
		opts = append(opts, vm.WithTracer(prof))
		prof.Start()
	}

	machine := vm.New(opts...)
	res, err := machine.Run(u)
	if prof != nil {
		prof.Stop()
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, errors.Red(err.Error()))
		s.close()
		os.Exit(1)
	}
	fmt.Println(i18n.T(i18n.CLIResult, res))

	if *stats {
		st := machine.Stats()
		fmt.Printf("instructions=%d native_calls=%d max_depth=%d\n",
			st.InstructionsExecuted, st.NativeCalls, st.MaxDepth)
	}
	if prof != nil {
		if err := prof.Profile(*profileTop).WriteProfile(os.Stdout, format); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	}
}

// ============================================================================
// build
// ============================================================================

// cmdBuild 编译为 .class 文件，可选写出单元产物
func cmdBuild(args []string) {
	fs := flag.NewFlagSet("build", flag.ExitOnError)
	output := fs.String("o", "", "output directory")
	artifact := fs.Bool("artifact", false, "also write the CBOR unit ("+bytecode.ArtifactExtension+")")
	file := parseFileArgs(fs, args)

	s := openSession(file)
	defer s.close()

	u := s.mustCompile()
	dir := s.outputDir(*output)
	if err := os.MkdirAll(dir, 0755); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	class := s.className()
	data, err := jvmgen.Generate(u, class)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	classPath := filepath.Join(dir, class+".class")
	writeOutput(classPath, data)

	if *artifact || s.cfg.Output.Artifact {
		unitData, err := bytecode.MarshalUnit(u)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		writeOutput(filepath.Join(dir, u.Name+bytecode.ArtifactExtension), unitData)
	}

	if id, err := bytecode.ID(u); err == nil {
		s.log.Info("built unit",
			zap.String("unit", u.Name),
			zap.String("class", class),
			zap.Stringer("id", id),
			zap.Int("class_bytes", len(data)))
	}
}

func writeOutput(path string, data []byte) {
	if err := os.WriteFile(path, data, 0644); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	fmt.Println(errors.Cyan(i18n.T(i18n.CLIWroteFile, path)))
}

// ============================================================================
// check
// ============================================================================

// cmdCheck 只编译，报告诊断
func cmdCheck(args []string) {
	fs := flag.NewFlagSet("check", flag.ExitOnError)
	asJSON := fs.Bool("json", false, "print diagnostics as JSON")
	file := parseFileArgs(fs, args)

	s := openSession(file)
	defer s.close()

	u, err := s.compile()
	if *asJSON {
		diags := []*errors.CompileError{}
		if err != nil {
			diags = errors.FromErrors(err, file)
		}
		out, jerr := json.MarshalIndent(diags, "", "  ")
		if jerr != nil {
			fmt.Fprintln(os.Stderr, jerr)
			os.Exit(1)
		}
		fmt.Println(string(out))
		if err != nil {
			s.close()
			os.Exit(1)
		}
		return
	}

	if err != nil {
		s.fail(err)
	}
	fmt.Println(errors.Green(i18n.T(i18n.CLICheckOK, file, u.MaxStack, u.SlotCount)))
}

// ============================================================================
// disasm / ast
// ============================================================================

// cmdDisasm 打印指令；也接受 build 写出的单元产物
func cmdDisasm(args []string) {
	fs := flag.NewFlagSet("disasm", flag.ExitOnError)
	file := parseFileArgs(fs, args)

	if strings.HasSuffix(file, bytecode.ArtifactExtension) {
		data, err := os.ReadFile(file)
		if err != nil {
			fmt.Fprintln(os.Stderr, i18n.T(i18n.CLIReadFailed, file, err))
			os.Exit(1)
		}
		u, err := bytecode.UnmarshalUnit(data)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		fmt.Print(u.Disassemble())
		return
	}

	s := openSession(file)
	defer s.close()
	fmt.Print(s.mustCompile().Disassemble())
}

// cmdAST 打印规范语法树
func cmdAST(args []string) {
	fs := flag.NewFlagSet("ast", flag.ExitOnError)
	file := parseFileArgs(fs, args)

	s := openSession(file)
	defer s.close()

	root, err := s.parse()
	if err != nil {
		s.fail(err)
	}
	fmt.Print(ast.Format(root))
}

// ============================================================================
// inspect
// ============================================================================

// hostTypes 向脚本侧公开的宿主类型
func hostTypes() *typeindex.Index {
	ix := typeindex.New()
	ix.Register("Unit", reflect.TypeOf(bytecode.Unit{}))
	ix.Register("Pool", reflect.TypeOf(bytecode.Pool{}))
	ix.Register("VM", reflect.TypeOf(&vm.VM{}))
	ix.Register("Value", reflect.TypeOf(vm.Value{}))
	ix.Register("Result", reflect.TypeOf(vm.Result{}))
	ix.Register("Config", reflect.TypeOf(config.Config{}))
	return ix
}

// cmdInspect 不带参数时列出宿主类型，否则描述指定类型
func cmdInspect(args []string) {
	ix := hostTypes()
	if len(args) == 0 {
		for _, name := range ix.Names() {
			fmt.Println(name)
		}
		return
	}

	for _, name := range args {
		d, err := ix.Describe(name)
		if err != nil {
			fmt.Fprintln(os.Stderr, i18n.T(i18n.CLIUnknownType, name))
			os.Exit(1)
		}
		fmt.Print(d)
		if !strings.HasSuffix(d.String(), "\n") {
			fmt.Println()
		}
	}
}

// ============================================================================
// lsp / repl / cache
// ============================================================================

// cmdLsp 在标准输入输出上运行语言服务器
func cmdLsp(args []string) {
	fs := flag.NewFlagSet("lsp", flag.ExitOnError)
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	wd, err := os.Getwd()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	s := newSession(wd)
	defer s.close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	server := lsp.NewServer(os.Stdin, os.Stdout, s.cfg.CompilerOptions(s.log), s.log)
	if err := server.Run(ctx); err != nil && err != context.Canceled {
		s.log.Error("language server stopped", zap.Error(err))
		s.close()
		os.Exit(1)
	}
}

// cmdRepl 交互式解释器
func cmdRepl(args []string) {
	fs := flag.NewFlagSet("repl", flag.ExitOnError)
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	wd, err := os.Getwd()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	s := newSession(wd)
	defer s.close()

	cfg := repl.DefaultConfig()
	cfg.Compiler = s.cfg.CompilerOptions(s.log)
	repl.New(cfg).Run()
}

// cmdCache 查看或清空单元缓存
func cmdCache(args []string) {
	action := "stats"
	if len(args) > 0 {
		action = args[0]
	}

	wd, err := os.Getwd()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	s := newSession(wd)
	defer s.close()
	if s.cache == nil {
		fmt.Println(errors.Yellow("cache disabled"))
		return
	}

	switch action {
	case "stats":
		st := s.cache.Stats()
		fmt.Printf("dir=%s entries=%d size=%d\n", st.Dir, st.TotalEntries, st.TotalSize)
	case "clear":
		if err := s.cache.Clear(); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	default:
		fmt.Fprintln(os.Stderr, i18n.T(i18n.CLIUnknownCommand, "cache "+action))
		os.Exit(1)
	}
}
