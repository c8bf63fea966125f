// Package fetcher 使用无头浏览器抓取页面，处理反爬验证页并收集样式表。
package fetcher

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/nerdneilsfield/go-transflow/internal/config"
)

// Engine 浏览器自动化引擎
type Engine interface {
	// Launch 启动（或连接）一个浏览器会话，调用方负责 Close
	Launch(ctx context.Context) (Session, error)
	// Name 引擎名称
	Name() string
}

// Session 一次抓取独占的浏览器会话
type Session interface {
	NewPage(ctx context.Context, opts PageOptions) (Page, error)
	Close() error
}

// Page 浏览器标签页
type Page interface {
	Navigate(ctx context.Context, url string) error
	Content(ctx context.Context) (string, error)
	URL(ctx context.Context) (string, error)
}

// PageOptions 新标签页的伪装参数
type PageOptions struct {
	UserAgent      string
	ViewportWidth  int
	ViewportHeight int
	Locale         string
	Timezone       string
	AcceptLanguage string
	Headers        map[string]string
	InitScript     string
}

// PageOptionsFromConfig 由浏览器配置生成标签页参数
func PageOptionsFromConfig(cfg config.BrowserConfig) PageOptions {
	return PageOptions{
		UserAgent:      cfg.UserAgent,
		ViewportWidth:  cfg.ViewportWidth,
		ViewportHeight: cfg.ViewportHeight,
		Locale:         cfg.Locale,
		Timezone:       cfg.Timezone,
		AcceptLanguage: cfg.AcceptLanguage,
		Headers:        navigationHeaders(cfg.AcceptLanguage),
		InitScript:     stealthScript,
	}
}

// NewEngine 根据 browser.engine 创建引擎
func NewEngine(cfg config.BrowserConfig, log *zap.Logger) (Engine, error) {
	switch strings.ToLower(cfg.Engine) {
	case "", "rod":
		return NewRodEngine(cfg, log), nil
	case "chromedp":
		return NewChromedpEngine(cfg, log), nil
	default:
		return nil, fmt.Errorf("unknown browser engine: %s", cfg.Engine)
	}
}
