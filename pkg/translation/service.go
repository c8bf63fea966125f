// Package translation 在翻译提供商之上提供统一的文本翻译服务。
package translation

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/nerdneilsfield/go-transflow/pkg/providers"
)

// Unit 一次翻译请求的最小单元
type Unit struct {
	SourceLang string
	TargetLang string
	GlossaryID string
	Text       string
}

// BatchUnit 批量翻译请求，返回结果与 Texts 一一对应
type BatchUnit struct {
	SourceLang string
	TargetLang string
	GlossaryID string
	Texts      []string
}

// Service 翻译服务，包装一个提供商
type Service struct {
	provider providers.TranslationProvider
	options  serviceOptions
}

// New 创建新的翻译服务
func New(provider providers.TranslationProvider, opts ...Option) (*Service, error) {
	if provider == nil {
		return nil, ErrNoProvider
	}

	options := serviceOptions{}
	for _, opt := range opts {
		opt(&options)
	}
	if options.logger == nil {
		options.logger = zap.NewNop()
	}

	return &Service{
		provider: provider,
		options:  options,
	}, nil
}

// ProviderName 返回底层提供商名称
func (s *Service) ProviderName() string {
	return s.provider.GetName()
}

// Translate 翻译单段文本
func (s *Service) Translate(ctx context.Context, u Unit) (string, error) {
	if strings.TrimSpace(u.Text) == "" {
		return "", WrapError(ErrEmptyText, ErrCodeValidation, "nothing to translate")
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	resp, err := s.provider.Translate(ctx, &providers.ProviderRequest{
		Text:           u.Text,
		SourceLanguage: NormalizeLang(u.SourceLang),
		TargetLanguage: NormalizeLang(u.TargetLang),
		GlossaryID:     s.glossaryID(u.GlossaryID),
	})
	if err != nil {
		return "", s.fail(u, err)
	}
	return resp.Text, nil
}

// TranslateBatch 批量翻译，保持顺序与长度。
// 提供商实现 BatchProvider 时一次请求完成，否则逐条调用
func (s *Service) TranslateBatch(ctx context.Context, b BatchUnit) ([]string, error) {
	if len(b.Texts) == 0 {
		return nil, nil
	}

	batcher, ok := s.provider.(providers.BatchProvider)
	if !ok {
		return s.translateSequential(ctx, b)
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	resp, err := batcher.TranslateBatch(ctx, &providers.BatchRequest{
		Texts:          b.Texts,
		SourceLanguage: NormalizeLang(b.SourceLang),
		TargetLanguage: NormalizeLang(b.TargetLang),
		GlossaryID:     s.glossaryID(b.GlossaryID),
	})
	if err != nil {
		return nil, s.fail(Unit{SourceLang: b.SourceLang, TargetLang: b.TargetLang, GlossaryID: b.GlossaryID}, err)
	}
	if len(resp.Texts) != len(b.Texts) {
		return nil, WrapError(
			fmt.Errorf("%w: got %d, want %d", ErrBatchLengthMismatch, len(resp.Texts), len(b.Texts)),
			ErrCodeProvider, s.provider.GetName()+" batch")
	}
	return resp.Texts, nil
}

func (s *Service) translateSequential(ctx context.Context, b BatchUnit) ([]string, error) {
	out := make([]string, len(b.Texts))
	for i, text := range b.Texts {
		// 空白文本原样保留，避免破坏对应关系
		if strings.TrimSpace(text) == "" {
			out[i] = text
			continue
		}
		translated, err := s.Translate(ctx, Unit{
			SourceLang: b.SourceLang,
			TargetLang: b.TargetLang,
			GlossaryID: b.GlossaryID,
			Text:       text,
		})
		if err != nil {
			return nil, err
		}
		out[i] = translated
	}
	return out, nil
}

// glossaryID 仅在提供商支持术语表时传递
func (s *Service) glossaryID(id string) string {
	if id == "" || !s.provider.SupportsGlossary() {
		return ""
	}
	return id
}

func (s *Service) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.options.requestTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.options.requestTimeout)
}

func (s *Service) fail(u Unit, err error) error {
	code := ErrCodeProvider
	if errors.Is(err, context.DeadlineExceeded) {
		code = ErrCodeTimeout
	}
	wrapped := WrapError(err, code, s.provider.GetName()+" translate")

	s.options.logger.Debug("provider call failed",
		zap.String("provider", s.provider.GetName()),
		zap.String("source_lang", u.SourceLang),
		zap.String("target_lang", u.TargetLang),
		zap.Bool("retryable", wrapped.Retry),
		zap.Error(err))

	if s.options.onError != nil {
		s.options.onError(u, wrapped)
	}
	return wrapped
}
