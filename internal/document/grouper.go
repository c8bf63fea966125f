package document

import (
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// blockTags 作为翻译上下文单元的元素
var blockTags = map[atom.Atom]struct{}{
	atom.P:          {},
	atom.H1:         {},
	atom.H2:         {},
	atom.H3:         {},
	atom.H4:         {},
	atom.H5:         {},
	atom.H6:         {},
	atom.Li:         {},
	atom.Td:         {},
	atom.Th:         {},
	atom.Blockquote: {},
	atom.Article:    {},
	atom.Section:    {},
	atom.Div:        {},
	atom.Span:       {},
}

// ContextGroup 共享同一上下文元素的连续文本节点
type ContextGroup struct {
	Key   *html.Node
	Nodes []*TextNode
}

// Originals 返回成员原文
func (g *ContextGroup) Originals() []string {
	texts := make([]string, len(g.Nodes))
	for i, n := range g.Nodes {
		texts[i] = n.Original
	}
	return texts
}

// GroupByContext 将相邻且上下文元素相同的节点分为一组，保持文档顺序
func GroupByContext(nodes []*TextNode) []*ContextGroup {
	var groups []*ContextGroup
	var current *ContextGroup

	for _, n := range nodes {
		key := ContextKey(n.Node)
		if current == nil || current.Key != key {
			current = &ContextGroup{Key: key}
			groups = append(groups, current)
		}
		current.Nodes = append(current.Nodes, n)
	}
	return groups
}

// ContextKey 返回最近的块级祖先，找不到时返回 body 或文档根
func ContextKey(n *html.Node) *html.Node {
	var top *html.Node
	for p := n.Parent; p != nil; p = p.Parent {
		top = p
		if p.Type != html.ElementNode {
			continue
		}
		if _, ok := blockTags[p.DataAtom]; ok {
			return p
		}
		if p.DataAtom == atom.Body {
			return p
		}
	}
	return top
}
