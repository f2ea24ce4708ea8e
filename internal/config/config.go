// Package config 读写项目配置文件 lye.toml
package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/tangzhangming/lye/internal/bytecode"
	"github.com/tangzhangming/lye/internal/cache"
	"github.com/tangzhangming/lye/internal/compiler"
)

// 常量定义
const (
	ConfigFileName = "lye.toml" // 配置文件名
)

// Config 项目配置
type Config struct {
	// Lang 界面语言，en 或 zh，空表示自动检测
	Lang string `toml:"lang"`

	Compiler CompilerConfig `toml:"compiler"`
	Output   OutputConfig   `toml:"output"`
	Cache    CacheConfig    `toml:"cache"`
	Log      LogConfig      `toml:"log"`
}

// CompilerConfig 编译选项
type CompilerConfig struct {
	// Class 生成的类名，空时使用源文件名
	Class string `toml:"class"`

	// FrameBase 第一个可用槽位
	FrameBase int `toml:"frame_base"`

	// MaxStack 操作数栈上限（字），0 表示不限制
	MaxStack int `toml:"max_stack"`

	// StrictAssign 拒绝改变类别的赋值
	StrictAssign bool `toml:"strict_assign"`
}

// OutputConfig 构建输出
type OutputConfig struct {
	Dir string `toml:"dir"`

	// Artifact 额外写出 CBOR 编码的单元（.lyeu）
	Artifact bool `toml:"artifact"`
}

// CacheConfig 编译缓存
type CacheConfig struct {
	Enabled bool   `toml:"enabled"`
	Dir     string `toml:"dir"`
}

// LogConfig 日志
type LogConfig struct {
	Level string `toml:"level"`
}

// Default 返回默认配置
func Default() *Config {
	return &Config{
		Output: OutputConfig{Dir: "."},
		Cache:  CacheConfig{Enabled: true, Dir: cache.DefaultDir},
		Log:    LogConfig{Level: "warn"},
	}
}

// Load 从文件加载配置，未出现的键保留默认值
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", path, err)
	}
	return cfg, nil
}

// Save 保存配置到文件
func (c *Config) Save(path string) error {
	if err := os.WriteFile(path, []byte(generateConfigWithComments(c)), 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// generateConfigWithComments 生成带注释的配置文件内容
func generateConfigWithComments(c *Config) string {
	var sb strings.Builder

	sb.WriteString("# 界面语言：en、zh，留空自动检测\n")
	fmt.Fprintf(&sb, "lang = %q\n\n", c.Lang)

	sb.WriteString("[compiler]\n")
	sb.WriteString("# 生成的类名，留空使用源文件名\n")
	fmt.Fprintf(&sb, "class = %q\n", c.Compiler.Class)
	sb.WriteString("# 第一个可用的局部变量槽位\n")
	fmt.Fprintf(&sb, "frame_base = %d\n", c.Compiler.FrameBase)
	sb.WriteString("# 操作数栈上限，0 表示不限制\n")
	fmt.Fprintf(&sb, "max_stack = %d\n", c.Compiler.MaxStack)
	sb.WriteString("# 拒绝改变变量类别的赋值\n")
	fmt.Fprintf(&sb, "strict_assign = %t\n\n", c.Compiler.StrictAssign)

	sb.WriteString("[output]\n")
	fmt.Fprintf(&sb, "dir = %q\n", c.Output.Dir)
	sb.WriteString("# 同时写出 .lyeu 单元文件\n")
	fmt.Fprintf(&sb, "artifact = %t\n\n", c.Output.Artifact)

	sb.WriteString("[cache]\n")
	fmt.Fprintf(&sb, "enabled = %t\n", c.Cache.Enabled)
	fmt.Fprintf(&sb, "dir = %q\n\n", c.Cache.Dir)

	sb.WriteString("[log]\n")
	sb.WriteString("# debug、info、warn、error\n")
	fmt.Fprintf(&sb, "level = %q\n", c.Log.Level)

	return sb.String()
}

// Validate 检查取值范围，返回所有问题
func (c *Config) Validate() error {
	var err error
	switch c.Lang {
	case "", "en", "zh":
	default:
		err = multierr.Append(err, fmt.Errorf("lang: unknown language %q", c.Lang))
	}
	if c.Compiler.FrameBase < 0 || c.Compiler.FrameBase >= bytecode.MaxFrameSlots {
		err = multierr.Append(err, fmt.Errorf("compiler.frame_base: %d out of range", c.Compiler.FrameBase))
	}
	if c.Compiler.MaxStack < 0 || c.Compiler.MaxStack > bytecode.MaxFrameSlots {
		err = multierr.Append(err, fmt.Errorf("compiler.max_stack: %d out of range", c.Compiler.MaxStack))
	}
	if _, lerr := zap.ParseAtomicLevel(c.Log.Level); lerr != nil {
		err = multierr.Append(err, fmt.Errorf("log.level: %w", lerr))
	}
	return err
}

// CompilerOptions 转换为编译器配置
func (c *Config) CompilerOptions(log *zap.Logger) *compiler.Config {
	if log == nil {
		log = zap.NewNop()
	}
	return &compiler.Config{
		Logger:       log,
		StrictAssign: c.Compiler.StrictAssign,
		FrameBase:    c.Compiler.FrameBase,
		MaxStack:     c.Compiler.MaxStack,
	}
}

// OptionsKey 参与缓存键计算的编译选项描述
func (c *Config) OptionsKey() string {
	return fmt.Sprintf("frame_base=%d;max_stack=%d;strict_assign=%t",
		c.Compiler.FrameBase, c.Compiler.MaxStack, c.Compiler.StrictAssign)
}

// FindConfigFile 从指定路径向上查找配置文件
// 返回配置文件的完整路径，如果找不到则返回空字符串
func FindConfigFile(startPath string) string {
	info, err := os.Stat(startPath)
	if err != nil {
		return ""
	}

	dir := startPath
	if !info.IsDir() {
		dir = filepath.Dir(startPath)
	}
	dir, err = filepath.Abs(dir)
	if err != nil {
		return ""
	}

	for {
		configPath := filepath.Join(dir, ConfigFileName)
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// Resolve 查找并加载 startPath 所在项目的配置，没有配置文件时返回默认值
//
// 相对路径（输出目录、缓存目录）按配置文件所在目录解析。
func Resolve(startPath string) (*Config, string, error) {
	path := FindConfigFile(startPath)
	if path == "" {
		return Default(), "", nil
	}
	cfg, err := Load(path)
	if err != nil {
		return nil, path, err
	}
	root := filepath.Dir(path)
	if cfg.Output.Dir != "" && !filepath.IsAbs(cfg.Output.Dir) {
		cfg.Output.Dir = filepath.Join(root, cfg.Output.Dir)
	}
	if cfg.Cache.Dir != "" && !filepath.IsAbs(cfg.Cache.Dir) {
		cfg.Cache.Dir = filepath.Join(root, cfg.Cache.Dir)
	}
	return cfg, path, nil
}
