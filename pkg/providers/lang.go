package providers

import (
	"strings"

	"golang.org/x/text/language"
)

// languageNames 常见语言英文名到代码的映射
var languageNames = map[string]string{
	"CHINESE":    "ZH",
	"ENGLISH":    "EN",
	"SPANISH":    "ES",
	"FRENCH":     "FR",
	"GERMAN":     "DE",
	"JAPANESE":   "JA",
	"KOREAN":     "KO",
	"PORTUGUESE": "PT",
	"RUSSIAN":    "RU",
	"ITALIAN":    "IT",
}

// NormalizeCode 将语言名或 BCP 47 标签统一为大写代码，如 "en_us" -> "EN-US"
func NormalizeCode(lang string) string {
	trimmed := strings.TrimSpace(lang)
	if trimmed == "" {
		return ""
	}
	upper := strings.ToUpper(trimmed)
	if code, ok := languageNames[upper]; ok {
		return code
	}

	tag, err := language.Parse(strings.ReplaceAll(trimmed, "_", "-"))
	if err != nil {
		return strings.ReplaceAll(upper, "_", "-")
	}

	base, _ := tag.Base()
	code := strings.ToUpper(base.String())
	if region, conf := tag.Region(); conf == language.Exact {
		code += "-" + region.String()
	}
	return code
}

// BaseCode 返回不含地区的大写语言代码，如 "EN-GB" -> "EN"
func BaseCode(lang string) string {
	code := NormalizeCode(lang)
	if i := strings.Index(code, "-"); i > 0 {
		return code[:i]
	}
	return code
}
