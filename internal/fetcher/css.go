package fetcher

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/nerdneilsfield/go-transflow/internal/document"
	"github.com/nerdneilsfield/go-transflow/internal/logger"
)

// CSSCollector 汇总页面内联样式与外部样式表
type CSSCollector struct {
	client    *http.Client
	maxBytes  int64
	userAgent string
	logger    *zap.Logger
}

// NewCSSCollector 创建样式收集器，timeout 和 maxBytes 约束每个外部样式表
func NewCSSCollector(timeout time.Duration, maxBytes int64, userAgent string, log *zap.Logger) *CSSCollector {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if maxBytes <= 0 {
		maxBytes = 10 << 20
	}
	return &CSSCollector{
		client:    &http.Client{Timeout: timeout},
		maxBytes:  maxBytes,
		userAgent: userAgent,
		logger:    logger.OrNop(log),
	}
}

// Collect 按文档顺序拼接所有 <style> 内容，再逐个下载 <link rel="stylesheet">。
// 单个样式表失败只记录日志，不会重试
func (c *CSSCollector) Collect(ctx context.Context, pageHTML, baseURL string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(pageHTML))
	if err != nil {
		c.logger.Warn("failed to parse page for css", zap.Error(err))
		return ""
	}

	var b strings.Builder
	doc.Find("style").Each(func(_ int, s *goquery.Selection) {
		b.WriteString(s.Text())
		b.WriteString("\n")
	})

	doc.Find("link").Each(func(_ int, s *goquery.Selection) {
		if !document.HasRelToken(s, "stylesheet") {
			return
		}
		href := strings.TrimSpace(s.AttrOr("href", ""))
		if href == "" {
			return
		}

		cssURL := ResolveURL(baseURL, href)
		body, err := c.fetch(ctx, cssURL)
		if err != nil {
			c.logger.Warn("failed to download stylesheet", zap.String("url", cssURL), zap.Error(err))
			return
		}
		if body == "" {
			return
		}
		b.WriteString("\n/* External CSS from: " + cssURL + " */\n")
		b.WriteString(body)
		b.WriteString("\n")
	})

	return b.String()
}

func (c *CSSCollector) fetch(ctx context.Context, cssURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, cssURL, nil)
	if err != nil {
		return "", err
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	req.Header.Set("Accept", "text/css,*/*;q=0.1")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("unexpected status: %s", resp.Status)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBytes))
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// ResolveURL 将样式表地址解析为绝对地址。
// 协议相对地址沿用页面协议（默认 https），无法解析时原样返回
func ResolveURL(baseURL, href string) string {
	if strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://") {
		return href
	}

	base, baseErr := url.Parse(baseURL)
	if strings.HasPrefix(href, "//") {
		scheme := "https"
		if baseErr == nil && (base.Scheme == "http" || base.Scheme == "https") {
			scheme = base.Scheme
		}
		return scheme + ":" + href
	}

	ref, err := url.Parse(href)
	if baseErr != nil || err != nil || !base.IsAbs() {
		return href
	}
	return base.ResolveReference(ref).String()
}
