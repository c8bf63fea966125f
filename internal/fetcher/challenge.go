package fetcher

import "strings"

// challengeMarkers 反爬验证页的特征文本（小写）
var challengeMarkers = []string{
	"verify you are human",
	"enable javascript and cookies",
	"just a moment",
	"checking your browser",
	"ray id:",
}

// IsChallengePage 判断页面内容是否仍是验证页
func IsChallengePage(content string) bool {
	lower := strings.ToLower(content)
	for _, marker := range challengeMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}
