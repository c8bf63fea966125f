package factory

import (
	"fmt"
	"strings"
	"time"

	"github.com/nerdneilsfield/go-transflow/internal/config"
	"github.com/nerdneilsfield/go-transflow/pkg/providers"
	"github.com/nerdneilsfield/go-transflow/pkg/providers/deepl"
	"github.com/nerdneilsfield/go-transflow/pkg/providers/deeplx"
	"github.com/nerdneilsfield/go-transflow/pkg/providers/google"
	"github.com/nerdneilsfield/go-transflow/pkg/providers/libretranslate"
	"github.com/nerdneilsfield/go-transflow/pkg/providers/openai"
	"github.com/nerdneilsfield/go-transflow/pkg/providers/raw"
)

// ProviderInfo 提供商说明，用于 CLI 展示
type ProviderInfo struct {
	Name           string `json:"name"`
	Description    string `json:"description"`
	RequiresAPIKey bool   `json:"requires_api_key"`
	SupportsBatch  bool   `json:"supports_batch"`
	Glossary       bool   `json:"glossary"`
	MaxTextLength  int    `json:"max_text_length"`
}

// descriptions 按展示顺序排列的提供商说明
var descriptions = []struct{ name, text string }{
	{"deepl", "DeepL API (free or pro)"},
	{"deeplx", "Self-hosted DeepLX endpoint"},
	{"google", "Google Cloud Translation v2"},
	{"libretranslate", "LibreTranslate server"},
	{"openai", "OpenAI compatible chat completion"},
	{"raw", "Pass-through, returns source text"},
}

// ProviderFactory 提供商工厂
type ProviderFactory struct{}

// New 创建新的提供商工厂
func New() *ProviderFactory {
	return &ProviderFactory{}
}

// CreateProvider 根据配置创建提供商
func (f *ProviderFactory) CreateProvider(cfg config.ProviderConfig) (providers.Provider, error) {
	base := baseConfig(cfg)

	switch strings.ToLower(cfg.Type) {
	case "openai":
		c := openai.DefaultConfig()
		c.BaseConfig = base
		if cfg.Model != "" {
			c.Model = cfg.Model
		}
		if cfg.Temperature > 0 {
			c.Temperature = cfg.Temperature
		}
		return openai.New(c), nil
	case "deepl":
		return deepl.New(deepl.Config{BaseConfig: base, UseFreeAPI: cfg.UseFreeAPI}), nil
	case "deeplx":
		return deeplx.New(deeplx.Config{BaseConfig: base, AccessToken: cfg.APIKey}), nil
	case "google":
		return google.New(google.Config{BaseConfig: base}), nil
	case "libretranslate":
		return libretranslate.New(libretranslate.Config{BaseConfig: base}), nil
	case "raw", "none":
		return raw.New(raw.Config{BaseConfig: base}), nil
	default:
		return nil, fmt.Errorf("unsupported provider type: %s", cfg.Type)
	}
}

// baseConfig 将配置文件中的提供商配置转换为基础配置
func baseConfig(cfg config.ProviderConfig) providers.BaseConfig {
	base := providers.DefaultConfig()
	base.APIKey = cfg.APIKey
	base.APIEndpoint = cfg.BaseURL
	if cfg.Timeout > 0 {
		base.Timeout = cfg.Timeout
	}
	if cfg.MaxRetries >= 0 {
		base.MaxRetries = cfg.MaxRetries
	}
	base.RetryDelay = time.Second
	return base
}

// GetSupportedProviders 获取支持的提供商列表，能力信息取自各提供商的 GetCapabilities
func (f *ProviderFactory) GetSupportedProviders() []ProviderInfo {
	infos := make([]ProviderInfo, 0, len(descriptions))
	for _, d := range descriptions {
		p, err := f.CreateProvider(config.ProviderConfig{Type: d.name})
		if err != nil {
			continue
		}
		caps := p.GetCapabilities()
		infos = append(infos, ProviderInfo{
			Name:           d.name,
			Description:    d.text,
			RequiresAPIKey: caps.RequiresAPIKey,
			SupportsBatch:  caps.SupportsBatch,
			Glossary:       p.SupportsGlossary(),
			MaxTextLength:  caps.MaxTextLength,
		})
	}
	return infos
}

// DefaultFactory 全局工厂实例
var DefaultFactory = New()

// CreateProvider 使用默认工厂创建提供商
func CreateProvider(cfg config.ProviderConfig) (providers.Provider, error) {
	return DefaultFactory.CreateProvider(cfg)
}
