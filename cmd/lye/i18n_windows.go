//go:build windows

package main

import (
	"golang.org/x/sys/windows"
)

// detectWindowsChinese 检查用户首选的界面语言
func detectWindowsChinese() bool {
	langs, err := windows.GetUserPreferredUILanguages(windows.MUI_LANGUAGE_NAME)
	if err != nil || len(langs) == 0 {
		return false
	}
	return isChineseLocale(langs[0])
}
