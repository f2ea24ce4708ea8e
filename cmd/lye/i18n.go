package main

import (
	"os"
	"runtime"
	"strings"

	"github.com/tangzhangming/lye/internal/i18n"
)

// languageExplicit 语言来自命令行或环境变量，配置文件不再覆盖
var languageExplicit bool

// InitLanguage 初始化语言设置
// 优先级: 命令行参数 > 环境变量 LYE_LANG > 配置文件 > 操作系统语言 > 默认英文
func InitLanguage(langOverride string) {
	if langOverride != "" {
		languageExplicit = true
		i18n.SetLanguageFromString(langOverride)
		return
	}

	if envLang := os.Getenv("LYE_LANG"); envLang != "" {
		languageExplicit = true
		i18n.SetLanguageFromString(envLang)
		return
	}

	if detectChineseOS() {
		i18n.SetLanguage(i18n.LangChinese)
		return
	}
	i18n.SetLanguage(i18n.LangEnglish)
}

// applyConfigLanguage 应用 lye.toml 中的 lang
func applyConfigLanguage(lang string) {
	if languageExplicit || lang == "" {
		return
	}
	i18n.SetLanguageFromString(lang)
}

// detectChineseOS 检测操作系统是否为中文环境
func detectChineseOS() bool {
	if runtime.GOOS == "windows" && detectWindowsChinese() {
		return true
	}

	// Unix/Linux/Mac: 检查环境变量
	for _, v := range []string{"LC_ALL", "LC_MESSAGES", "LANGUAGE", "LANG"} {
		if isChineseLocale(os.Getenv(v)) {
			return true
		}
	}
	return false
}

func isChineseLocale(locale string) bool {
	lower := strings.ToLower(locale)
	return strings.HasPrefix(lower, "zh") || strings.Contains(lower, "chinese")
}
