package fetcher

import (
	"context"
	"fmt"
	"sync"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/nerdneilsfield/go-transflow/internal/config"
	"github.com/nerdneilsfield/go-transflow/internal/logger"
)

// ChromedpEngine 基于 chromedp 的引擎，总是启动本地 Chrome
type ChromedpEngine struct {
	cfg    config.BrowserConfig
	logger *zap.Logger
}

var _ Engine = (*ChromedpEngine)(nil)

// NewChromedpEngine 创建 chromedp 引擎
func NewChromedpEngine(cfg config.BrowserConfig, log *zap.Logger) *ChromedpEngine {
	return &ChromedpEngine{cfg: cfg, logger: logger.OrNop(log)}
}

// Name 引擎名称
func (e *ChromedpEngine) Name() string {
	return "chromedp"
}

// Launch 创建进程分配器。Chrome 在第一个标签页运行时才真正启动
func (e *ChromedpEngine) Launch(ctx context.Context) (Session, error) {
	allocOpts := []chromedp.ExecAllocatorOption{
		chromedp.NoDefaultBrowserCheck,
		chromedp.NoFirstRun,
		chromedp.NoSandbox,
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.Flag("exclude-switches", "enable-automation"),
		chromedp.Flag("disable-infobars", true),
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-setuid-sandbox", true),
		chromedp.Flag("password-store", "basic"),
		chromedp.Flag("use-mock-keychain", true),
	}
	if e.cfg.Headless {
		allocOpts = append(allocOpts, chromedp.Flag("headless", "new"))
	}
	if e.cfg.UserAgent != "" {
		allocOpts = append(allocOpts, chromedp.UserAgent(e.cfg.UserAgent))
	}
	if e.cfg.ViewportWidth > 0 && e.cfg.ViewportHeight > 0 {
		allocOpts = append(allocOpts, chromedp.WindowSize(e.cfg.ViewportWidth, e.cfg.ViewportHeight))
	}
	if e.cfg.BinPath != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(e.cfg.BinPath))
	}

	// 分配器与调用方上下文脱钩，由 Close 统一释放
	allocCtx, allocCancel := chromedp.NewExecAllocator(context.WithoutCancel(ctx), allocOpts...)
	e.logger.Debug("chromedp allocator ready", zap.Bool("headless", e.cfg.Headless))

	return &chromedpSession{
		allocCtx:    allocCtx,
		allocCancel: allocCancel,
	}, nil
}

type chromedpSession struct {
	allocCtx    context.Context
	allocCancel context.CancelFunc

	mu      sync.Mutex
	cancels []context.CancelFunc
}

func (s *chromedpSession) NewPage(ctx context.Context, opts PageOptions) (Page, error) {
	tabCtx, tabCancel := chromedp.NewContext(s.allocCtx)

	s.mu.Lock()
	s.cancels = append(s.cancels, tabCancel)
	s.mu.Unlock()

	// 首次 Run 必须使用标签页上下文本身，派生上下文的取消会连带关闭浏览器
	stop := context.AfterFunc(ctx, tabCancel)
	err := chromedp.Run(tabCtx)
	stop()
	if err != nil {
		return nil, fmt.Errorf("chromedp: start browser: %w", err)
	}

	p := &chromedpPage{ctx: tabCtx}
	if err := p.run(ctx, chromedpSetup(opts)...); err != nil {
		return nil, fmt.Errorf("chromedp: page setup: %w", err)
	}
	return p, nil
}

func chromedpSetup(opts PageOptions) []chromedp.Action {
	actions := []chromedp.Action{network.Enable()}

	if opts.InitScript != "" {
		actions = append(actions, chromedp.ActionFunc(func(ctx context.Context) error {
			_, err := page.AddScriptToEvaluateOnNewDocument(opts.InitScript).Do(ctx)
			return err
		}))
	}
	if opts.UserAgent != "" {
		override := emulation.SetUserAgentOverride(opts.UserAgent)
		if opts.AcceptLanguage != "" {
			override = override.WithAcceptLanguage(opts.AcceptLanguage)
		}
		actions = append(actions, override)
	}
	if opts.ViewportWidth > 0 && opts.ViewportHeight > 0 {
		actions = append(actions, emulation.SetDeviceMetricsOverride(int64(opts.ViewportWidth), int64(opts.ViewportHeight), 1, false))
	}
	if opts.Timezone != "" {
		actions = append(actions, emulation.SetTimezoneOverride(opts.Timezone))
	}
	if opts.Locale != "" {
		actions = append(actions, emulation.SetLocaleOverride().WithLocale(opts.Locale))
	}
	if len(opts.Headers) > 0 {
		headers := make(network.Headers, len(opts.Headers))
		for k, v := range opts.Headers {
			headers[k] = v
		}
		actions = append(actions, network.SetExtraHTTPHeaders(headers))
	}
	return actions
}

func (s *chromedpSession) Close() error {
	s.mu.Lock()
	cancels := s.cancels
	s.cancels = nil
	s.mu.Unlock()

	for _, cancel := range cancels {
		cancel()
	}
	s.allocCancel()
	return nil
}

type chromedpPage struct {
	ctx context.Context
}

// run 在标签页上下文中执行动作，同时遵守调用方的取消与超时
func (p *chromedpPage) run(ctx context.Context, actions ...chromedp.Action) error {
	runCtx, cancel := context.WithCancel(p.ctx)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	if err := chromedp.Run(runCtx, actions...); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return err
	}
	return nil
}

func (p *chromedpPage) Navigate(ctx context.Context, url string) error {
	return p.run(ctx, chromedp.Navigate(url))
}

func (p *chromedpPage) Content(ctx context.Context) (string, error) {
	var html string
	err := p.run(ctx, chromedp.OuterHTML("html", &html, chromedp.ByQuery))
	return html, err
}

func (p *chromedpPage) URL(ctx context.Context) (string, error) {
	var location string
	err := p.run(ctx, chromedp.Location(&location))
	return location, err
}
