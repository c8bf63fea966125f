package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/nerdneilsfield/go-transflow/internal/document"
	"github.com/nerdneilsfield/go-transflow/internal/transflow"
)

// 输出格式
const (
	formatJSON     = "json"
	formatHTML     = "html"
	formatMarkdown = "markdown"
)

// 输出目录中的文件名
const (
	resultFile         = "result.json"
	originalHTMLFile   = "original.html"
	translatedHTMLFile = "translated.html"
	styleFile          = "style.css"
	originalMDFile     = "original.md"
	translatedMDFile   = "translated.md"
)

func validateFormat(format string) error {
	switch format {
	case "", formatJSON, formatHTML, formatMarkdown:
		return nil
	default:
		return fmt.Errorf("unsupported output format: %q (json, html, markdown)", format)
	}
}

// writeResult 按 --format 输出结果；指定 --out 时写入目录，否则写到 w
func writeResult(w io.Writer, flags *runFlags, result *transflow.Result) error {
	if flags.out != "" {
		return writeResultDir(flags.out, flags.format, result)
	}

	switch flags.format {
	case formatHTML:
		if !result.Success {
			return nil
		}
		_, err := io.WriteString(w, preferTranslated(result.TranslatedHTML, result.OriginalHTML))
		return err
	case formatMarkdown:
		if !result.Success {
			return nil
		}
		md, err := document.Markdown(preferTranslated(result.TranslatedHTML, result.OriginalHTML), pageBaseURL(result))
		if err != nil {
			return err
		}
		_, err = io.WriteString(w, md)
		return err
	default:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		enc.SetEscapeHTML(false)
		return enc.Encode(result)
	}
}

// writeResultDir 在目录中写入 result.json 以及所选格式的页面文件
func writeResultDir(dir, format string, result *transflow.Result) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}
	files := map[string]string{resultFile: string(data)}

	if result.Success {
		switch format {
		case formatHTML:
			files[originalHTMLFile] = result.OriginalHTML
			if result.TranslatedHTML != nil {
				files[translatedHTMLFile] = *result.TranslatedHTML
			}
			if result.CSS != "" {
				files[styleFile] = result.CSS
			}
		case formatMarkdown:
			base := pageBaseURL(result)
			md, err := document.Markdown(result.OriginalHTML, base)
			if err != nil {
				return err
			}
			files[originalMDFile] = md
			if result.TranslatedHTML != nil {
				if md, err = document.Markdown(*result.TranslatedHTML, base); err != nil {
					return err
				}
				files[translatedMDFile] = md
			}
		}
	}

	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			return fmt.Errorf("failed to write %s: %w", name, err)
		}
	}
	return nil
}

func preferTranslated(translated *string, original string) string {
	if translated != nil {
		return *translated
	}
	return original
}

// pageBaseURL 用于补全 Markdown 中的相对链接
func pageBaseURL(result *transflow.Result) string {
	if result.FinalURL != "" {
		return result.FinalURL
	}
	if result.OriginalURL == transflow.DirectHTMLURL {
		return ""
	}
	return result.OriginalURL
}
