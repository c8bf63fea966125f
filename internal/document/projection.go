package document

import (
	"fmt"
	"strings"
	"sync"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
	"github.com/PuerkitoBio/goquery"
	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/net/html"
)

var (
	textPolicyOnce sync.Once
	textPolicy     *bluemonday.Policy
)

func plainTextPolicy() *bluemonday.Policy {
	textPolicyOnce.Do(func() {
		textPolicy = bluemonday.StrictPolicy()
		textPolicy.AddSpaceWhenStrippingTag(true)
	})
	return textPolicy
}

// PlainText 提取 body 的纯文本，去掉 script/style 并折叠空白
func PlainText(doc *goquery.Document) string {
	var b strings.Builder
	if err := html.Render(&b, Body(doc)); err != nil {
		return ""
	}
	return PlainTextFromHTML(b.String())
}

// PlainTextFromHTML 将 HTML 片段转换为纯文本
func PlainTextFromHTML(fragment string) string {
	stripped := plainTextPolicy().Sanitize(fragment)
	return strings.Join(strings.Fields(html.UnescapeString(stripped)), " ")
}

// Markdown 将 HTML 转换为 Markdown，baseURL 用于补全相对链接
func Markdown(content, baseURL string) (string, error) {
	conv := converter.NewConverter(
		converter.WithPlugins(
			base.NewBasePlugin(),
			commonmark.NewCommonmarkPlugin(),
			table.NewTablePlugin(),
		),
	)

	var (
		md  string
		err error
	)
	if baseURL != "" {
		md, err = conv.ConvertString(content, converter.WithDomain(baseURL))
	} else {
		md, err = conv.ConvertString(content)
	}
	if err != nil {
		return "", fmt.Errorf("failed to convert HTML to markdown: %w", err)
	}
	return md, nil
}
