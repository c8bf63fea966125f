package raw

import (
	"context"

	"github.com/nerdneilsfield/go-transflow/pkg/providers"
)

// Config Raw 提供商配置（实际上不需要任何配置）
type Config struct {
	providers.BaseConfig
}

// DefaultConfig 返回默认配置
func DefaultConfig() Config {
	return Config{
		BaseConfig: providers.DefaultConfig(),
	}
}

// Provider Raw 提供商实现（跳过翻译，直接返回原文）
type Provider struct {
	config Config
}

var (
	_ providers.Provider      = (*Provider)(nil)
	_ providers.BatchProvider = (*Provider)(nil)
)

// New 创建新的 Raw 提供商
func New(config Config) *Provider {
	return &Provider{
		config: config,
	}
}

// Translate 执行翻译（直接返回原文）
func (p *Provider) Translate(ctx context.Context, req *providers.ProviderRequest) (*providers.ProviderResponse, error) {
	return &providers.ProviderResponse{
		Text:       req.Text,
		SourceLang: req.SourceLanguage,
		TargetLang: req.TargetLanguage,
	}, nil
}

// TranslateBatch 原样返回所有文本
func (p *Provider) TranslateBatch(ctx context.Context, req *providers.BatchRequest) (*providers.BatchResponse, error) {
	texts := make([]string, len(req.Texts))
	copy(texts, req.Texts)
	return &providers.BatchResponse{
		Texts:      texts,
		SourceLang: req.SourceLanguage,
		TargetLang: req.TargetLanguage,
	}, nil
}

// GetName 获取提供商名称
func (p *Provider) GetName() string {
	return "raw"
}

// SupportsGlossary 术语表对原样输出没有意义
func (p *Provider) SupportsGlossary() bool {
	return false
}

// GetCapabilities 获取提供商能力
func (p *Provider) GetCapabilities() providers.Capabilities {
	return providers.Capabilities{
		MaxTextLength:  1000000, // 无限制
		SupportsBatch:  true,
		RequiresAPIKey: false,
	}
}

// HealthCheck 健康检查
func (p *Provider) HealthCheck(ctx context.Context) error {
	// Raw 提供商总是健康的
	return nil
}
