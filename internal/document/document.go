// Package document 提供保持 HTML 结构的文本抽取、分组与回填
package document

import (
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Parse 解析 HTML 文档
func Parse(r io.Reader) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}
	return doc, nil
}

// ParseString 解析 HTML 字符串
func ParseString(content string) (*goquery.Document, error) {
	return Parse(strings.NewReader(content))
}

// Render 序列化整个文档（包括 doctype）
func Render(doc *goquery.Document) (string, error) {
	out, err := goquery.OuterHtml(doc.Selection)
	if err != nil {
		return "", fmt.Errorf("failed to render HTML: %w", err)
	}
	return out, nil
}

// Body 返回文档的 body 节点，没有 body 时返回文档根节点
func Body(doc *goquery.Document) *html.Node {
	if body := doc.Find("body").First(); body.Length() > 0 {
		return body.Get(0)
	}
	return doc.Get(0)
}

func isElement(n *html.Node, a atom.Atom) bool {
	return n != nil && n.Type == html.ElementNode && n.DataAtom == a
}
