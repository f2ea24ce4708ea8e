package errors

import (
	"os"
	"runtime"

	"go.uber.org/atomic"
)

// Color 终端颜色
type Color int

const (
	ColorReset Color = iota
	ColorRed
	ColorGreen
	ColorYellow
	ColorBlue
	ColorCyan
	ColorWhite
	ColorBoldRed
	ColorBoldGreen
)

// ANSI 颜色代码
var ansiCodes = map[Color]string{
	ColorReset:     "\033[0m",
	ColorRed:       "\033[31m",
	ColorGreen:     "\033[32m",
	ColorYellow:    "\033[33m",
	ColorBlue:      "\033[34m",
	ColorCyan:      "\033[36m",
	ColorWhite:     "\033[37m",
	ColorBoldRed:   "\033[1;31m",
	ColorBoldGreen: "\033[1;32m",
}

var colorsEnabled = atomic.NewBool(detectColorSupport())

// detectColorSupport 检测终端是否支持颜色
func detectColorSupport() bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}

	term := os.Getenv("TERM")
	if term == "dumb" {
		return false
	}

	// Windows Terminal、ConEmu 和 ANSICON 都支持 ANSI
	if runtime.GOOS == "windows" {
		return term != "" || os.Getenv("WT_SESSION") != "" ||
			os.Getenv("ConEmuANSI") == "ON" || os.Getenv("ANSICON") != ""
	}

	if fi, err := os.Stderr.Stat(); err == nil && fi.Mode()&os.ModeCharDevice != 0 {
		return true
	}
	return os.Getenv("COLORTERM") != ""
}

// ColorsEnabled 检查颜色是否启用
func ColorsEnabled() bool {
	return colorsEnabled.Load()
}

// SetColorsEnabled 设置颜色启用状态
func SetColorsEnabled(enabled bool) {
	colorsEnabled.Store(enabled)
}

// Colorize 着色字符串
func Colorize(s string, color Color) string {
	if !colorsEnabled.Load() {
		return s
	}
	code, ok := ansiCodes[color]
	if !ok {
		return s
	}
	return code + s + ansiCodes[ColorReset]
}

// Red 红色
func Red(s string) string { return Colorize(s, ColorRed) }

// Green 绿色
func Green(s string) string { return Colorize(s, ColorGreen) }

// Yellow 黄色
func Yellow(s string) string { return Colorize(s, ColorYellow) }

// Cyan 青色
func Cyan(s string) string { return Colorize(s, ColorCyan) }
