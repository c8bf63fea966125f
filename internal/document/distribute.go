package document

import (
	"strings"
)

// JoinGroupText 拼接组内原文，相邻文本之间补一个空格
func JoinGroupText(texts []string) string {
	var b strings.Builder
	for i, text := range texts {
		if i > 0 && !strings.HasPrefix(text, " ") && !strings.HasSuffix(b.String(), " ") {
			b.WriteByte(' ')
		}
		b.WriteString(text)
	}
	return strings.TrimSpace(b.String())
}

// SplitProportional 按原文长度比例切分译文，长度按 rune 计算。
// 返回的切片与 originals 等长；joined 为空时返回 nil
func SplitProportional(originals []string, joined, translated string) []string {
	if len(originals) == 0 {
		return nil
	}
	if len(originals) == 1 {
		return []string{SlotText(translated)}
	}

	total := len([]rune(joined))
	if total == 0 {
		return nil
	}

	runes := []rune(translated)
	translatedLen := len(runes)
	segments := make([]string, len(originals))
	pos := 0

	for i, orig := range originals {
		if i == len(originals)-1 {
			segments[i] = SlotText(string(runes[pos:]))
			break
		}

		ratio := float64(len([]rune(orig))) / float64(total)
		end := min(pos+int(float64(translatedLen)*ratio), translatedLen)
		segments[i] = SlotText(string(runes[pos:end]))
		pos = end
	}
	return segments
}

// SlotText 去除首尾空白，结果为空时返回单个空格，避免内联标签被折叠成空元素
func SlotText(segment string) string {
	if trimmed := strings.TrimSpace(segment); trimmed != "" {
		return trimmed
	}
	return " "
}

// Distribute 将译文回填到组内各节点，返回是否写入
func Distribute(nodes []*TextNode, joined, translated string) bool {
	originals := make([]string, len(nodes))
	for i, n := range nodes {
		originals[i] = n.Original
	}

	segments := SplitProportional(originals, joined, translated)
	if segments == nil {
		return false
	}
	for i, n := range nodes {
		n.SetText(segments[i])
	}
	return true
}
