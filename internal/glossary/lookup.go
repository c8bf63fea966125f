// Package glossary 根据语言对查找 DeepL 术语表 ID。
package glossary

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/nerdneilsfield/go-transflow/internal/config"
	"github.com/nerdneilsfield/go-transflow/internal/logger"
	"github.com/nerdneilsfield/go-transflow/pkg/providers"
)

// Lookup 术语表查找接口，返回空串表示该语言对没有术语表
type Lookup interface {
	GlossaryID(ctx context.Context, sourceLang, targetLang string) (string, error)
}

// Chain 依次查询，第一个非空结果生效；单个查找出错只记录日志
type Chain struct {
	lookups []Lookup
	logger  *zap.Logger
}

var _ Lookup = (*Chain)(nil)

// NewChain 创建查找链
func NewChain(log *zap.Logger, lookups ...Lookup) *Chain {
	return &Chain{lookups: lookups, logger: logger.OrNop(log)}
}

// GlossaryID 实现 Lookup
func (c *Chain) GlossaryID(ctx context.Context, sourceLang, targetLang string) (string, error) {
	for _, l := range c.lookups {
		id, err := l.GlossaryID(ctx, sourceLang, targetLang)
		if err != nil {
			c.logger.Warn("glossary lookup failed",
				zap.String("sourceLang", sourceLang),
				zap.String("targetLang", targetLang),
				zap.Error(err))
			continue
		}
		if id != "" {
			return id, nil
		}
	}
	return "", nil
}

// Len 查找链中的查找器数量
func (c *Chain) Len() int {
	return len(c.lookups)
}

// NewFromConfig 按配置组装查找链：静态映射在前，远程 DeepL 查询在后
func NewFromConfig(cfg *config.Config, log *zap.Logger) (*Chain, error) {
	var lookups []Lookup

	static, err := NewStaticLookup(cfg.Glossary.Static, cfg.Glossary.File)
	if err != nil {
		return nil, err
	}
	if static.Len() > 0 {
		lookups = append(lookups, static)
	}

	if cfg.Glossary.Remote && strings.EqualFold(cfg.Provider.Type, "deepl") && cfg.Provider.APIKey != "" {
		lookups = append(lookups, NewDeepLLookup(DeepLConfig{
			BaseURL:    cfg.Provider.BaseURL,
			APIKey:     cfg.Provider.APIKey,
			UseFreeAPI: cfg.Provider.UseFreeAPI,
			Timeout:    cfg.Provider.Timeout,
		}, log))
	}

	return NewChain(log, lookups...), nil
}

// pairKey 语言对的规范化键，如 "en", "ko" -> "EN:KO"
func pairKey(sourceLang, targetLang string) string {
	return providers.NormalizeCode(sourceLang) + ":" + providers.NormalizeCode(targetLang)
}

// baseKey 去掉地区后的语言对键
func baseKey(sourceLang, targetLang string) string {
	return providers.BaseCode(sourceLang) + ":" + providers.BaseCode(targetLang)
}
