package i18n

import "testing"

func TestTranslate(t *testing.T) {
	defer SetLanguage(LangEnglish)

	tests := []struct {
		lang string
		want string
	}{
		{"en", "undefined variable 'x'"},
		{"zh", "未定义的变量 'x'"},
		{"zh_CN.UTF-8", "未定义的变量 'x'"},
		{"fr", "undefined variable 'x'"},
	}

	for _, tt := range tests {
		t.Run(tt.lang, func(t *testing.T) {
			SetLanguageFromString(tt.lang)
			if got := T(ErrUndefinedVariable, "x"); got != tt.want {
				t.Errorf("T() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestTranslateUnknownID(t *testing.T) {
	if got := T("no.such.id"); got != "no.such.id" {
		t.Errorf("T() = %q, want the id back", got)
	}
}

func TestCatalogsInSync(t *testing.T) {
	for id := range messagesEN {
		if _, ok := messagesZH[id]; !ok {
			t.Errorf("zh catalog missing %q", id)
		}
	}
	for id := range messagesZH {
		if _, ok := messagesEN[id]; !ok {
			t.Errorf("en catalog missing %q", id)
		}
	}
}
