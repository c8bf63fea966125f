package document

import (
	"iter"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// minTextRunes 短于该长度的文本不翻译
const minTextRunes = 2

// skipParentTags 父元素为这些标签时文本原样保留
var skipParentTags = map[string]struct{}{
	"script":   {},
	"style":    {},
	"noscript": {},
	"code":     {},
	"pre":      {},
}

// skipPatterns 匹配 URL、邮箱、纯数字、纯标点
var skipPatterns = []*regexp.Regexp{
	regexp.MustCompile(`^https?://.*`),
	regexp.MustCompile(`^[\w\-.]+@([\w-]+\.)+[\w-]{2,4}$`),
	regexp.MustCompile(`^\d+$`),
	regexp.MustCompile(`^[\s[:punct:]]+$`),
}

// TextNode 指向实时 DOM 中一个可翻译文本节点
type TextNode struct {
	Node     *html.Node
	Original string // 收集时去除首尾空白的文本
	Index    int    // 文档顺序中的位置
}

// Text 返回节点当前文本
func (t *TextNode) Text() string {
	return t.Node.Data
}

// SetText 替换节点文本
func (t *TextNode) SetText(text string) {
	t.Node.Data = text
}

// Changed 判断节点文本是否已不同于原文
func (t *TextNode) Changed() bool {
	return strings.TrimSpace(t.Node.Data) != t.Original
}

// ShouldSkipText 判断去除空白后的文本是否不需要翻译
func ShouldSkipText(text string) bool {
	for _, re := range skipPatterns {
		if re.MatchString(text) {
			return true
		}
	}
	return false
}

// WalkTextNodes 按文档顺序深度优先遍历 root 下的可翻译文本节点，可重复 range
func WalkTextNodes(root *html.Node) iter.Seq[*TextNode] {
	return func(yield func(*TextNode) bool) {
		if root == nil {
			return
		}
		index := 0
		stack := []*html.Node{root}
		for len(stack) > 0 {
			n := stack[len(stack)-1]
			stack = stack[:len(stack)-1]

			if n.Type == html.TextNode {
				if tn, ok := selectText(n); ok {
					tn.Index = index
					index++
					if !yield(tn) {
						return
					}
				}
				continue
			}

			// 子节点逆序入栈，保证出栈顺序与文档顺序一致
			for c := n.LastChild; c != nil; c = c.PrevSibling {
				stack = append(stack, c)
			}
		}
	}
}

// CollectTextNodes 收集整个文档中的可翻译文本节点
func CollectTextNodes(doc *goquery.Document) []*TextNode {
	var nodes []*TextNode
	for tn := range WalkTextNodes(doc.Get(0)) {
		nodes = append(nodes, tn)
	}
	return nodes
}

func selectText(n *html.Node) (*TextNode, bool) {
	text := strings.TrimSpace(n.Data)
	if utf8.RuneCountInString(text) < minTextRunes {
		return nil, false
	}
	if p := n.Parent; p != nil && p.Type == html.ElementNode {
		if _, skip := skipParentTags[strings.ToLower(p.Data)]; skip {
			return nil, false
		}
	}
	if ShouldSkipText(text) {
		return nil, false
	}
	return &TextNode{Node: n, Original: text}, true
}
