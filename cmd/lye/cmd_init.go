package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tangzhangming/lye/internal/config"
	"github.com/tangzhangming/lye/internal/i18n"
)

// mainTemplate src/main.lox 模板
const mainTemplate = `// 程序入口
var greeting = "Hello";
greeting = greeting + ", Lye!";
return greeting;
`

// cmdInit 初始化新项目
func cmdInit(args []string) {
	fs := flag.NewFlagSet("init", flag.ExitOnError)
	class := fs.String("class", "", "generated class name")
	lang := fs.String("project-lang", "", "project language (en/zh)")
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	dir := "."
	if fs.NArg() > 0 {
		dir = fs.Arg(0)
	}
	if err := initProject(dir, *class, *lang); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// initProject 在 dir 下写出 lye.toml 和 src/main.lox，已有的文件保留
func initProject(dir, class, lang string) error {
	configPath := filepath.Join(dir, config.ConfigFileName)
	if _, err := os.Stat(configPath); err == nil {
		return fmt.Errorf("%s already exists", configPath)
	}

	cfg := config.Default()
	cfg.Compiler.Class = class
	cfg.Lang = lang
	cfg.Output.Dir = "build"
	if err := cfg.Validate(); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Join(dir, "src"), 0755); err != nil {
		return fmt.Errorf("failed to create src directory: %w", err)
	}
	if err := cfg.Save(configPath); err != nil {
		return err
	}
	fmt.Println(i18n.T(i18n.CLIWroteFile, configPath))

	mainPath := filepath.Join(dir, "src", "main"+SourceFileExtension)
	if _, err := os.Stat(mainPath); os.IsNotExist(err) {
		if err := os.WriteFile(mainPath, []byte(mainTemplate), 0644); err != nil {
			return fmt.Errorf("failed to write %s: %w", mainPath, err)
		}
		fmt.Println(i18n.T(i18n.CLIWroteFile, mainPath))
	}
	return nil
}
