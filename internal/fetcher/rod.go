package fetcher

import (
	"context"
	"fmt"
	"sync"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
	"go.uber.org/zap"

	"github.com/nerdneilsfield/go-transflow/internal/config"
	"github.com/nerdneilsfield/go-transflow/internal/logger"
)

// RodEngine 基于 go-rod 的引擎，支持本地启动或连接远程浏览器
type RodEngine struct {
	cfg    config.BrowserConfig
	logger *zap.Logger
}

var _ Engine = (*RodEngine)(nil)

// NewRodEngine 创建 rod 引擎
func NewRodEngine(cfg config.BrowserConfig, log *zap.Logger) *RodEngine {
	return &RodEngine{cfg: cfg, logger: logger.OrNop(log)}
}

// Name 引擎名称
func (e *RodEngine) Name() string {
	return "rod"
}

// Launch 启动本地 Chrome，配置了 remote_url 时改为连接远程实例
func (e *RodEngine) Launch(ctx context.Context) (Session, error) {
	var (
		wsURL string
		lnch  *launcher.Launcher
	)

	if e.cfg.RemoteURL != "" {
		u, err := launcher.ResolveURL(e.cfg.RemoteURL)
		if err != nil {
			return nil, fmt.Errorf("rod: resolve remote url: %w", err)
		}
		wsURL = u
		e.logger.Debug("connecting to remote browser", zap.String("url", wsURL))
	} else {
		lnch = launcher.New().
			Context(ctx).
			Headless(e.cfg.Headless).
			NoSandbox(true).
			Set("disable-blink-features", "AutomationControlled").
			Set("disable-dev-shm-usage").
			Set("disable-setuid-sandbox")
		if e.cfg.BinPath != "" {
			lnch = lnch.Bin(e.cfg.BinPath)
		}

		u, err := lnch.Launch()
		if err != nil {
			return nil, fmt.Errorf("rod: launch: %w", err)
		}
		wsURL = u
		e.logger.Debug("launched local browser", zap.String("url", wsURL), zap.Bool("headless", e.cfg.Headless))
	}

	browser := rod.New().ControlURL(wsURL)
	if err := browser.Connect(); err != nil {
		if lnch != nil {
			lnch.Kill()
			lnch.Cleanup()
		}
		return nil, fmt.Errorf("rod: connect: %w", err)
	}

	return &rodSession{
		browser: browser,
		lnch:    lnch,
		logger:  e.logger,
	}, nil
}

// rodSession 本地启动时关闭整个浏览器，远程连接时只关闭自己打开的标签页
type rodSession struct {
	browser *rod.Browser
	lnch    *launcher.Launcher
	logger  *zap.Logger

	mu    sync.Mutex
	pages []*rod.Page
}

func (s *rodSession) NewPage(ctx context.Context, opts PageOptions) (Page, error) {
	page, err := stealth.Page(s.browser)
	if err != nil {
		return nil, fmt.Errorf("rod: create page: %w", err)
	}

	s.mu.Lock()
	s.pages = append(s.pages, page)
	s.mu.Unlock()

	if err := applyRodOptions(page, opts); err != nil {
		return nil, err
	}
	return &rodPage{page: page}, nil
}

func applyRodOptions(page *rod.Page, opts PageOptions) error {
	if opts.InitScript != "" {
		if _, err := page.EvalOnNewDocument(opts.InitScript); err != nil {
			return fmt.Errorf("rod: init script: %w", err)
		}
	}

	if opts.UserAgent != "" || opts.AcceptLanguage != "" {
		if err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{
			UserAgent:      opts.UserAgent,
			AcceptLanguage: opts.AcceptLanguage,
		}); err != nil {
			return fmt.Errorf("rod: user agent: %w", err)
		}
	}

	if opts.ViewportWidth > 0 && opts.ViewportHeight > 0 {
		if err := page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
			Width:             opts.ViewportWidth,
			Height:            opts.ViewportHeight,
			DeviceScaleFactor: 1,
		}); err != nil {
			return fmt.Errorf("rod: viewport: %w", err)
		}
	}

	if opts.Timezone != "" {
		if err := (proto.EmulationSetTimezoneOverride{TimezoneID: opts.Timezone}).Call(page); err != nil {
			return fmt.Errorf("rod: timezone: %w", err)
		}
	}

	if opts.Locale != "" {
		if err := (proto.EmulationSetLocaleOverride{Locale: opts.Locale}).Call(page); err != nil {
			return fmt.Errorf("rod: locale: %w", err)
		}
	}

	if len(opts.Headers) > 0 {
		dict := make([]string, 0, len(opts.Headers)*2)
		for k, v := range opts.Headers {
			dict = append(dict, k, v)
		}
		if _, err := page.SetExtraHeaders(dict); err != nil {
			return fmt.Errorf("rod: extra headers: %w", err)
		}
	}
	return nil
}

func (s *rodSession) Close() error {
	s.mu.Lock()
	pages := s.pages
	s.pages = nil
	s.mu.Unlock()

	if s.lnch == nil {
		var firstErr error
		for _, p := range pages {
			if err := p.Close(); err != nil && firstErr == nil {
				firstErr = err
			}
		}
		return firstErr
	}

	// 浏览器没能正常退出时 Cleanup 会一直等待进程结束，先强制结束
	err := s.browser.Close()
	if err != nil {
		s.logger.Warn("browser close failed, killing process", zap.Error(err))
		s.lnch.Kill()
	}
	s.lnch.Cleanup()
	return err
}

type rodPage struct {
	page *rod.Page
}

func (p *rodPage) Navigate(ctx context.Context, url string) error {
	page := p.page.Context(ctx)
	if err := page.Navigate(url); err != nil {
		return err
	}
	return page.WaitLoad()
}

func (p *rodPage) Content(ctx context.Context) (string, error) {
	return p.page.Context(ctx).HTML()
}

func (p *rodPage) URL(ctx context.Context) (string, error) {
	info, err := p.page.Context(ctx).Info()
	if err != nil {
		return "", err
	}
	return info.URL, nil
}
