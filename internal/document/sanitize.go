package document

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// reactAttrs 渲染后无意义的 React 标记属性
var reactAttrs = map[string]struct{}{
	"data-reactroot":    {},
	"data-react-helmet": {},
}

// Sanitize 就地移除页面中的脚本与事件处理器，重复调用结果不变
func Sanitize(doc *goquery.Document) {
	doc.Find("script, noscript").Remove()

	doc.Find("link").FilterFunction(func(_ int, s *goquery.Selection) bool {
		switch {
		case HasRelToken(s, "preload"):
			as, _ := s.Attr("as")
			return strings.EqualFold(strings.TrimSpace(as), "script")
		case HasRelToken(s, "modulepreload"), HasRelToken(s, "manifest"):
			return true
		}
		return false
	}).Remove()

	doc.Find("*").Each(func(_ int, s *goquery.Selection) {
		for _, n := range s.Nodes {
			n.Attr = filterAttrs(n.Attr)
		}
	})

	doc.Find("iframe[src]").Each(func(_ int, s *goquery.Selection) {
		s.RemoveAttr("src")
		s.SetAttr("data-disabled", "true")
	})
}

// filterAttrs 去掉 on* 事件属性与 React 标记属性
func filterAttrs(attrs []html.Attribute) []html.Attribute {
	kept := attrs[:0]
	for _, a := range attrs {
		name := strings.ToLower(a.Key)
		if strings.HasPrefix(name, "on") {
			continue
		}
		if _, ok := reactAttrs[name]; ok {
			continue
		}
		kept = append(kept, a)
	}
	return kept
}

// HasRelToken 判断 rel 属性是否包含指定 token（不区分大小写）
func HasRelToken(s *goquery.Selection, token string) bool {
	rel, ok := s.Attr("rel")
	if !ok {
		return false
	}
	for _, t := range strings.Fields(rel) {
		if strings.EqualFold(t, token) {
			return true
		}
	}
	return false
}
