// Package transflow 串联页面抓取、HTML 清理、分组翻译与序列化。
package transflow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/nerdneilsfield/go-transflow/internal/config"
	"github.com/nerdneilsfield/go-transflow/internal/document"
	"github.com/nerdneilsfield/go-transflow/internal/fetcher"
	"github.com/nerdneilsfield/go-transflow/internal/glossary"
	"github.com/nerdneilsfield/go-transflow/internal/logger"
	"github.com/nerdneilsfield/go-transflow/internal/translator"
	"github.com/nerdneilsfield/go-transflow/pkg/translation"
)

// ErrNoFetcher 服务未配置抓取器
var ErrNoFetcher = errors.New("page fetcher not configured")

// PageFetcher 页面抓取能力，*fetcher.Fetcher 满足该接口
type PageFetcher interface {
	Fetch(ctx context.Context, rawURL string) (*fetcher.PageCapture, error)
}

// Service 编排服务。每次调用各自构建 DOM、浏览器会话和翻译状态，可并发使用
type Service struct {
	fetcher    PageFetcher
	translator translator.Translator
	glossary   glossary.Lookup
	logger     *zap.Logger
}

// Option 服务选项
type Option func(*Service)

// WithGlossary 设置术语表查找
func WithGlossary(lookup glossary.Lookup) Option {
	return func(s *Service) {
		s.glossary = lookup
	}
}

// WithLogger 设置日志记录器
func WithLogger(log *zap.Logger) Option {
	return func(s *Service) {
		s.logger = log
	}
}

// New 创建编排服务，fetcher 为 nil 时只能使用 TranslateHTMLDirectly
func New(f PageFetcher, t translator.Translator, opts ...Option) *Service {
	s := &Service{fetcher: f, translator: t}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = logger.OrNop(s.logger)
	return s
}

// TranslatePage 抓取页面并翻译，所有错误和 panic 都体现在 Result 中
func (s *Service) TranslatePage(ctx context.Context, req PageRequest) (result *Result) {
	result = &Result{
		RunID:       uuid.NewString(),
		OriginalURL: req.URL,
		SourceLang:  req.SourceLang,
		TargetLang:  req.TargetLang,
		GlossaryID:  req.GlossaryID,
	}
	log := s.logger.With(zap.String("run_id", result.RunID), zap.String("url", req.URL))
	start := time.Now()
	defer s.finish(result, start, log)

	if s.fetcher == nil {
		s.fail(result, translation.WrapError(ErrNoFetcher, translation.ErrCodeConfig, "cannot fetch page"), log)
		return result
	}

	capture, err := s.fetcher.Fetch(ctx, req.URL)
	if err != nil {
		s.fail(result, translation.WrapError(err, translation.ErrCodeFetch, "failed to fetch page"), log)
		return result
	}
	result.OriginalHTML = capture.HTML
	result.CSS = capture.CSS
	result.FinalURL = capture.FinalURL
	result.Challenged = capture.Challenged
	if capture.Challenged {
		log.Warn("page is still behind an anti-bot challenge, continuing with captured content")
	}

	s.process(ctx, result, req.OnProgress, log)
	return result
}

// TranslateHTMLDirectly 翻译调用方提供的 HTML，不经过浏览器
func (s *Service) TranslateHTMLDirectly(ctx context.Context, req HTMLRequest) (result *Result) {
	result = &Result{
		RunID:        uuid.NewString(),
		OriginalURL:  DirectHTMLURL,
		OriginalHTML: req.HTML,
		SourceLang:   req.SourceLang,
		TargetLang:   req.TargetLang,
		GlossaryID:   req.GlossaryID,
	}
	log := s.logger.With(zap.String("run_id", result.RunID), zap.String("url", DirectHTMLURL))
	start := time.Now()
	defer s.finish(result, start, log)

	s.process(ctx, result, req.OnProgress, log)
	return result
}

// FetchText 抓取页面并返回 body 的纯文本
func (s *Service) FetchText(ctx context.Context, rawURL string) (string, error) {
	result := s.TranslatePage(ctx, PageRequest{URL: rawURL, TargetLang: config.NoTranslationSentinel})
	if !result.Success {
		return "", errors.New(result.ErrorMessage)
	}
	return result.OriginalText, nil
}

// process 解析 OriginalHTML，按需翻译并填充结果
func (s *Service) process(ctx context.Context, result *Result, onProgress translator.ProgressCallback, log *zap.Logger) {
	doc, err := document.ParseString(result.OriginalHTML)
	if err != nil {
		s.fail(result, translation.WrapError(err, translation.ErrCodeParse, "failed to parse page"), log)
		return
	}
	result.OriginalText = document.PlainText(doc)

	if config.IsNoTranslation(result.TargetLang) {
		log.Info("no target language, returning original content")
		result.Success = true
		return
	}

	if s.translator == nil {
		s.fail(result, translation.WrapError(translation.ErrNoProvider, translation.ErrCodeConfig, "cannot translate page"), log)
		return
	}

	if result.GlossaryID == "" {
		result.GlossaryID = s.resolveGlossary(ctx, result.SourceLang, result.TargetLang, log)
	}

	document.Sanitize(doc)
	groups := document.GroupByContext(document.CollectTextNodes(doc))
	log.Debug("collected text groups", zap.Int("groups", len(groups)))

	result.Stats = s.translator.TranslateGroups(ctx, groups, translator.Options{
		SourceLang:  result.SourceLang,
		TargetLang:  result.TargetLang,
		GlossaryID:  result.GlossaryID,
		OnGroupDone: onProgress,
	})

	document.Sanitize(doc)
	translated, err := document.Render(doc)
	if err != nil {
		s.fail(result, translation.WrapError(err, translation.ErrCodeRender, "failed to serialize translated page"), log)
		return
	}
	text := document.PlainText(doc)

	result.TranslatedHTML = &translated
	result.TranslatedText = &text
	result.Success = true
}

// resolveGlossary 查询失败只记录日志，翻译继续进行
func (s *Service) resolveGlossary(ctx context.Context, sourceLang, targetLang string, log *zap.Logger) string {
	if s.glossary == nil || sourceLang == "" {
		return ""
	}
	id, err := s.glossary.GlossaryID(ctx, sourceLang, targetLang)
	if err != nil {
		log.Warn("glossary lookup failed", zap.Error(err))
		return ""
	}
	if id != "" {
		log.Debug("using glossary", zap.String("glossaryID", id))
	}
	return id
}

func (s *Service) fail(result *Result, err error, log *zap.Logger) {
	result.Success = false
	result.TranslatedHTML = nil
	result.TranslatedText = nil
	result.ErrorMessage = err.Error()
	log.Error("request failed", zap.Error(err))
}

// finish 回收 panic 并记录耗时
func (s *Service) finish(result *Result, start time.Time, log *zap.Logger) {
	if r := recover(); r != nil {
		s.fail(result, translation.NewTranslationError(translation.ErrCodeUnknown, "unexpected panic", fmt.Errorf("%v", r)), log)
	}
	result.Duration = time.Since(start)
	if result.Success {
		log.Info("request completed",
			zap.Bool("translated", result.Translated()),
			zap.Bool("challenged", result.Challenged),
			zap.Duration("duration", result.Duration))
	}
}
