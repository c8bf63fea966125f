package fetcher

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/nerdneilsfield/go-transflow/internal/config"
	"github.com/nerdneilsfield/go-transflow/internal/logger"
)

// PageCapture 一次抓取的结果，创建后不再修改
type PageCapture struct {
	HTML       string
	CSS        string
	FinalURL   string
	Challenged bool // 所有轮询结束后仍停留在验证页
	Attempts   int
	Duration   time.Duration
}

// Fetcher 每次 Fetch 独占一个浏览器会话，不在请求之间共享
type Fetcher struct {
	engine  Engine
	cfg     config.FetchConfig
	pageOpt PageOptions
	css     *CSSCollector
	logger  *zap.Logger
}

// NewFetcher 创建抓取器
func NewFetcher(engine Engine, browser config.BrowserConfig, cfg config.FetchConfig, log *zap.Logger) *Fetcher {
	log = logger.OrNop(log)
	if cfg.ChallengeAttempts <= 0 {
		cfg.ChallengeAttempts = 6
	}
	return &Fetcher{
		engine:  engine,
		cfg:     cfg,
		pageOpt: PageOptionsFromConfig(browser),
		css:     NewCSSCollector(cfg.CSSTimeout, cfg.CSSMaxBytes, browser.UserAgent, log),
		logger:  log,
	}
}

// Fetch 打开页面，等待验证页消失，返回 HTML 与聚合后的 CSS。
// 仅在浏览器无法启动或页面无法打开时返回 *FetchError
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*PageCapture, error) {
	start := time.Now()
	log := f.logger.With(zap.String("url", rawURL), zap.String("engine", f.engine.Name()))
	log.Info("fetching page")

	session, err := f.engine.Launch(ctx)
	if err != nil {
		return nil, &FetchError{URL: rawURL, Op: "launch", Err: err}
	}
	defer func() {
		if err := session.Close(); err != nil {
			log.Warn("failed to close browser session", zap.Error(err))
		}
	}()

	page, err := session.NewPage(ctx, f.pageOpt)
	if err != nil {
		return nil, &FetchError{URL: rawURL, Op: "new_page", Err: err}
	}

	f.navigate(ctx, page, rawURL, log)

	html, challenged, attempts, err := f.waitForChallenge(ctx, page, log)
	if err != nil {
		return nil, &FetchError{URL: rawURL, Op: "content", Err: err}
	}
	if html == "" {
		html, err = page.Content(ctx)
		if err != nil {
			return nil, &FetchError{URL: rawURL, Op: "content", Err: err}
		}
	}
	if challenged {
		log.Warn("challenge page still present, returning it as is", zap.Int("attempts", attempts))
	}

	finalURL, err := page.URL(ctx)
	if err != nil || finalURL == "" {
		finalURL = rawURL
	}

	capture := &PageCapture{
		HTML:       html,
		CSS:        f.css.Collect(ctx, html, finalURL),
		FinalURL:   finalURL,
		Challenged: challenged,
		Attempts:   attempts,
		Duration:   time.Since(start),
	}

	log.Info("page fetched",
		zap.Int("htmlLength", len(capture.HTML)),
		zap.Int("cssLength", len(capture.CSS)),
		zap.Bool("challenged", capture.Challenged),
		zap.Duration("duration", capture.Duration))
	return capture, nil
}

// navigate 导航失败只记录日志，页面当前内容仍然可用
func (f *Fetcher) navigate(ctx context.Context, page Page, rawURL string, log *zap.Logger) {
	navCtx := ctx
	if f.cfg.NavigationTimeout > 0 {
		var cancel context.CancelFunc
		navCtx, cancel = context.WithTimeout(ctx, f.cfg.NavigationTimeout)
		defer cancel()
	}
	if err := page.Navigate(navCtx, rawURL); err != nil {
		log.Warn("navigation did not complete, using current page content", zap.Error(err))
	}
}

// waitForChallenge 每次轮询前等待 ChallengeInterval；首次无验证特征时再等 SettleDelay 后重读。
// 读取失败时保留上一次成功读到的内容
func (f *Fetcher) waitForChallenge(ctx context.Context, page Page, log *zap.Logger) (html string, challenged bool, attempts int, err error) {
	for attempts < f.cfg.ChallengeAttempts {
		attempts++
		if err := sleep(ctx, f.cfg.ChallengeInterval); err != nil {
			return html, challenged, attempts, err
		}

		content, err := page.Content(ctx)
		if err != nil {
			log.Warn("failed to read page content", zap.Int("attempt", attempts), zap.Error(err))
			continue
		}
		html = content

		if IsChallengePage(content) {
			challenged = true
			log.Info("challenge page detected, waiting",
				zap.Int("attempt", attempts),
				zap.Int("maxAttempts", f.cfg.ChallengeAttempts))
			continue
		}

		challenged = false
		if err := sleep(ctx, f.cfg.SettleDelay); err != nil {
			return html, challenged, attempts, err
		}
		if settled, err := page.Content(ctx); err == nil {
			html = settled
		} else {
			log.Debug("failed to re-read settled content, keeping previous", zap.Error(err))
		}
		return html, challenged, attempts, nil
	}
	return html, challenged, attempts, nil
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
