package transflow

import (
	"time"

	"github.com/nerdneilsfield/go-transflow/internal/translator"
)

// DirectHTMLURL 直接提交 HTML 时结果中的 OriginalURL
const DirectHTMLURL = "direct-html"

// PageRequest 抓取并翻译一个页面
type PageRequest struct {
	URL        string
	SourceLang string
	TargetLang string // 为空或 NONE 时只抓取
	GlossaryID string // 为空时按语言对查找
	OnProgress translator.ProgressCallback
}

// HTMLRequest 翻译调用方提供的 HTML
type HTMLRequest struct {
	HTML       string
	SourceLang string
	TargetLang string
	GlossaryID string
	OnProgress translator.ProgressCallback
}

// Result 一次请求的完整结果，失败时 Success 为 false 且 ErrorMessage 非空。
// 未请求翻译时 TranslatedHTML 与 TranslatedText 为 nil
type Result struct {
	RunID          string           `json:"run_id"`
	OriginalURL    string           `json:"original_url"`
	FinalURL       string           `json:"final_url,omitempty"`
	OriginalHTML   string           `json:"original_html"`
	TranslatedHTML *string          `json:"translated_html"`
	CSS            string           `json:"css"`
	OriginalText   string           `json:"original_text"`
	TranslatedText *string          `json:"translated_text"`
	SourceLang     string           `json:"source_lang"`
	TargetLang     string           `json:"target_lang"`
	GlossaryID     string           `json:"glossary_id,omitempty"`
	Challenged     bool             `json:"challenged"`
	Success        bool             `json:"success"`
	ErrorMessage   string           `json:"error_message,omitempty"`
	Stats          translator.Stats `json:"stats"`
	Duration       time.Duration    `json:"duration"`
}

// Translated 是否产生了译文
func (r *Result) Translated() bool {
	return r.TranslatedHTML != nil
}
