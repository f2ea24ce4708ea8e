package i18n

import (
	"fmt"
	"strings"
	"sync"
)

// Language 语言类型
type Language string

const (
	LangEnglish Language = "en"
	LangChinese Language = "zh"
)

// 全局语言设置
var (
	currentLang Language = LangEnglish
	mu          sync.RWMutex
)

// SetLanguage 设置当前语言
func SetLanguage(lang Language) {
	mu.Lock()
	defer mu.Unlock()
	currentLang = lang
}

// SetLanguageFromString 从字符串设置语言
//
// 接受 "zh"、"zh-CN"、"zh_TW.UTF-8" 这类写法，其余一律回退到英文。
func SetLanguageFromString(lang string) {
	lang = strings.ToLower(strings.TrimSpace(lang))
	if strings.HasPrefix(lang, "zh") || lang == "chinese" {
		SetLanguage(LangChinese)
		return
	}
	SetLanguage(LangEnglish)
}

// GetLanguage 获取当前语言
func GetLanguage() Language {
	mu.RLock()
	defer mu.RUnlock()
	return currentLang
}

// T 翻译消息（支持格式化参数）
//
// 当前语言缺少条目时回退到英文，英文也没有则返回消息 ID 本身。
func T(msgID string, args ...interface{}) string {
	msg, ok := table(GetLanguage())[msgID]
	if !ok {
		msg, ok = messagesEN[msgID]
	}
	if !ok {
		return msgID
	}
	if len(args) > 0 {
		return fmt.Sprintf(msg, args...)
	}
	return msg
}

func table(lang Language) map[string]string {
	switch lang {
	case LangChinese:
		return messagesZH
	default:
		return messagesEN
	}
}
