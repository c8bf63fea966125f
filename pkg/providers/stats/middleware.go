package stats

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/nerdneilsfield/go-transflow/pkg/providers"
)

// StatisticsMiddleware 统计中间件
type StatisticsMiddleware struct {
	next         providers.TranslationProvider
	statsManager *StatsManager
}

// batchStatisticsMiddleware 下游支持批量时使用
type batchStatisticsMiddleware struct {
	*StatisticsMiddleware
	batch providers.BatchProvider
}

// Wrap 为提供商添加统计，保留下游的批量能力
func Wrap(next providers.TranslationProvider, statsManager *StatsManager) providers.TranslationProvider {
	sm := &StatisticsMiddleware{
		next:         next,
		statsManager: statsManager,
	}
	if batch, ok := next.(providers.BatchProvider); ok {
		return &batchStatisticsMiddleware{StatisticsMiddleware: sm, batch: batch}
	}
	return sm
}

// Translate 带统计的翻译方法
func (sm *StatisticsMiddleware) Translate(ctx context.Context, req *providers.ProviderRequest) (*providers.ProviderResponse, error) {
	startTime := time.Now()
	resp, err := sm.next.Translate(ctx, req)

	result := RequestResult{
		Success:      err == nil,
		Latency:      time.Since(startTime),
		CharactersIn: utf8.RuneCountInString(req.Text),
	}
	if err != nil {
		result.ErrorType = classifyError(err)
	} else if resp != nil {
		result.CharactersOut = utf8.RuneCountInString(resp.Text)
		result.TokensIn = resp.TokensIn
		result.TokensOut = resp.TokensOut
	}
	sm.statsManager.RecordRequest(sm.next.GetName(), result)

	return resp, err
}

// TranslateBatch 带统计的批量翻译
func (bm *batchStatisticsMiddleware) TranslateBatch(ctx context.Context, req *providers.BatchRequest) (*providers.BatchResponse, error) {
	startTime := time.Now()
	resp, err := bm.batch.TranslateBatch(ctx, req)

	result := RequestResult{
		Success: err == nil,
		Batch:   true,
		Latency: time.Since(startTime),
	}
	for _, t := range req.Texts {
		result.CharactersIn += utf8.RuneCountInString(t)
	}
	if err != nil {
		result.ErrorType = classifyError(err)
	} else if resp != nil {
		for _, t := range resp.Texts {
			result.CharactersOut += utf8.RuneCountInString(t)
		}
	}
	bm.statsManager.RecordRequest(bm.next.GetName(), result)

	return resp, err
}

// GetName 获取下游提供商名称
func (sm *StatisticsMiddleware) GetName() string {
	return sm.next.GetName()
}

// SupportsGlossary 透传下游能力
func (sm *StatisticsMiddleware) SupportsGlossary() bool {
	return sm.next.SupportsGlossary()
}

// classifyError 分类错误类型
func classifyError(err error) string {
	var perr *providers.Error
	if errors.As(err, &perr) {
		return perr.Code
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return "timeout"
	}
	if errors.Is(err, context.Canceled) {
		return "context_canceled"
	}

	errStr := strings.ToLower(err.Error())
	switch {
	case strings.Contains(errStr, "timeout"):
		return "timeout"
	case strings.Contains(errStr, "rate limit") || strings.Contains(errStr, "rate_limit"):
		return "rate_limit"
	case strings.Contains(errStr, "connection") || strings.Contains(errStr, "network"):
		return "network_error"
	case strings.Contains(errStr, "401") || strings.Contains(errStr, "unauthorized"):
		return "auth_failed"
	case strings.Contains(errStr, "quota"):
		return "quota_exceeded"
	default:
		return "unknown_error"
	}
}
