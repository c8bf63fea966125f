package translation

import "github.com/nerdneilsfield/go-transflow/pkg/providers"

// NormalizeLang 统一语言代码，如 "en_us" -> "EN-US"、"Korean" -> "KO"；空串保持为空
func NormalizeLang(lang string) string {
	return providers.NormalizeCode(lang)
}
