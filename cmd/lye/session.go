package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"go.uber.org/zap"

	"github.com/tangzhangming/lye/internal/ast"
	"github.com/tangzhangming/lye/internal/bytecode"
	"github.com/tangzhangming/lye/internal/cache"
	"github.com/tangzhangming/lye/internal/compiler"
	"github.com/tangzhangming/lye/internal/config"
	"github.com/tangzhangming/lye/internal/errors"
	"github.com/tangzhangming/lye/internal/frontend"
	"github.com/tangzhangming/lye/internal/i18n"
	"github.com/tangzhangming/lye/internal/logging"
)

// session 一次命令的上下文：源文件、项目配置、日志和缓存
type session struct {
	file    string
	source  string
	cfg     *config.Config
	cfgPath string
	log     *zap.Logger
	cache   *cache.Manager // 缓存关闭时为 nil
}

// openSession 读取源文件和它所在项目的配置，失败时直接退出
func openSession(file string) *session {
	source, err := os.ReadFile(file)
	if err != nil {
		fmt.Fprintln(os.Stderr, i18n.T(i18n.CLIReadFailed, file, err))
		os.Exit(1)
	}

	s := newSession(file)
	s.source = string(source)
	return s
}

// newSession 只加载配置，start 用于查找 lye.toml
func newSession(start string) *session {
	cfg, cfgPath, err := config.Resolve(start)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	applyConfigLanguage(cfg.Lang)

	log, err := logging.New(cfg.Log.Level)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if cfgPath != "" {
		log.Debug("loaded config", zap.String("path", cfgPath))
	}

	s := &session{file: start, cfg: cfg, cfgPath: cfgPath, log: log}
	if cfg.Cache.Enabled {
		m, err := cache.New(cfg.Cache.Dir)
		if err != nil {
			// 缓存不可用不影响编译
			log.Warn("cache disabled", zap.Error(err))
		} else {
			s.cache = m
		}
	}
	return s
}

func (s *session) close() {
	_ = s.log.Sync()
}

// parse 把源码转换为规范 AST
func (s *session) parse() (*ast.Block, error) {
	return frontend.FromSource(s.source, s.file)
}

// compile 编译源文件，命中缓存时跳过前端和编译器
func (s *session) compile() (*bytecode.Unit, error) {
	name := unitName(s.file)
	key := cache.Key([]byte(s.source), s.cfg.OptionsKey()+";unit="+name)

	if s.cache != nil {
		if u, ok := s.cache.Get(key); ok {
			s.log.Debug(i18n.T(i18n.CLICacheHit, s.file), zap.String("key", key[:16]))
			return u, nil
		}
	}

	root, err := s.parse()
	if err != nil {
		return nil, err
	}
	u, err := compiler.Compile(name, root, s.cfg.CompilerOptions(s.log))
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Put(key, s.file, u); err != nil {
			s.log.Warn("cache write failed", zap.Error(err))
		}
	}
	return u, nil
}

// mustCompile 编译失败时输出诊断并退出
func (s *session) mustCompile() *bytecode.Unit {
	u, err := s.compile()
	if err != nil {
		s.fail(err)
	}
	return u
}

// fail 按源码上下文输出错误后退出
func (s *session) fail(err error) {
	r := errors.NewReporter(os.Stderr)
	r.SetSource(s.file, s.source)
	r.Report(err, s.file)
	r.Summary()
	s.close()
	os.Exit(1)
}

// outputDir 命令行指定优先，否则取配置
func (s *session) outputDir(flagDir string) string {
	if flagDir != "" {
		return flagDir
	}
	if s.cfg.Output.Dir != "" {
		return s.cfg.Output.Dir
	}
	return "."
}

// className 配置指定优先，否则由文件名生成合法的类名
func (s *session) className() string {
	if s.cfg.Compiler.Class != "" {
		return s.cfg.Compiler.Class
	}
	return javaIdentifier(unitName(s.file))
}

// unitName 以不带扩展名的文件名作为单元名
func unitName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// javaIdentifier 把任意名字转换为 Java 标识符，首字母大写
func javaIdentifier(name string) string {
	var sb strings.Builder
	upper := true
	for _, r := range name {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_' && r != '$' {
			upper = true
			continue
		}
		if upper {
			r = unicode.ToUpper(r)
			upper = false
		}
		sb.WriteRune(r)
	}

	id := sb.String()
	if id == "" {
		return "Script"
	}
	if unicode.IsDigit([]rune(id)[0]) {
		id = "_" + id
	}
	return id
}
