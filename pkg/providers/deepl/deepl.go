package deepl

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/nerdneilsfield/go-transflow/pkg/providers"
	"github.com/nerdneilsfield/go-transflow/pkg/providers/retry"
)

const (
	proEndpoint  = "https://api.deepl.com/v2"
	freeEndpoint = "https://api-free.deepl.com/v2"
)

// Config DeepL配置
type Config struct {
	providers.BaseConfig
	UseFreeAPI bool `json:"use_free_api"` // 是否使用免费API
}

// DefaultConfig 返回默认配置
func DefaultConfig() Config {
	config := Config{
		BaseConfig: providers.DefaultConfig(),
		UseFreeAPI: false,
	}
	config.APIEndpoint = proEndpoint
	return config
}

// Provider DeepL提供商
type Provider struct {
	config     Config
	httpClient *http.Client
	retrier    *retry.NetworkRetrier
}

var (
	_ providers.Provider      = (*Provider)(nil)
	_ providers.BatchProvider = (*Provider)(nil)
)

// New 创建新的DeepL提供商
func New(config Config) *Provider {
	if config.APIEndpoint == "" {
		if config.UseFreeAPI {
			config.APIEndpoint = freeEndpoint
		} else {
			config.APIEndpoint = proEndpoint
		}
	}
	config.APIEndpoint = strings.TrimRight(config.APIEndpoint, "/")

	retryConfig := retry.DefaultRetryConfig()
	retryConfig.MaxRetries = config.MaxRetries
	if config.RetryDelay > 0 {
		retryConfig.InitialDelay = config.RetryDelay
	}

	return &Provider{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		retrier: retry.NewNetworkRetrier(retryConfig),
	}
}

// Translate 执行翻译
func (p *Provider) Translate(ctx context.Context, req *providers.ProviderRequest) (*providers.ProviderResponse, error) {
	resp, err := p.translate(ctx, []string{req.Text}, req.SourceLanguage, req.TargetLanguage, req.GlossaryID)
	if err != nil {
		return nil, err
	}

	return &providers.ProviderResponse{
		Text:       resp.Translations[0].Text,
		SourceLang: resp.Translations[0].DetectedSourceLanguage,
		TargetLang: req.TargetLanguage,
	}, nil
}

// TranslateBatch 在一次请求中翻译多段文本
func (p *Provider) TranslateBatch(ctx context.Context, req *providers.BatchRequest) (*providers.BatchResponse, error) {
	if len(req.Texts) == 0 {
		return &providers.BatchResponse{TargetLang: req.TargetLanguage}, nil
	}

	resp, err := p.translate(ctx, req.Texts, req.SourceLanguage, req.TargetLanguage, req.GlossaryID)
	if err != nil {
		return nil, err
	}

	texts := make([]string, len(resp.Translations))
	for i, t := range resp.Translations {
		texts[i] = t.Text
	}
	return &providers.BatchResponse{
		Texts:      texts,
		SourceLang: resp.Translations[0].DetectedSourceLanguage,
		TargetLang: req.TargetLanguage,
	}, nil
}

// GetName 获取提供商名称
func (p *Provider) GetName() string {
	return "deepl"
}

// SupportsGlossary 支持术语表
func (p *Provider) SupportsGlossary() bool {
	return true
}

// GetCapabilities 获取提供商能力
func (p *Provider) GetCapabilities() providers.Capabilities {
	return providers.Capabilities{
		MaxTextLength:    130000, // DeepL Pro限制
		SupportsBatch:    true,
		SupportsGlossary: true,
		RequiresAPIKey:   true,
		RateLimit: &providers.RateLimit{
			CharactersPerDay: 500000, // 免费版限制
		},
	}
}

// HealthCheck 健康检查
func (p *Provider) HealthCheck(ctx context.Context) error {
	// 检查使用量
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.config.APIEndpoint+"/usage", nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "DeepL-Auth-Key "+p.config.APIKey)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return providers.StatusError(p.GetName(), resp)
	}
	resp.Body.Close()
	return nil
}

// translate 执行翻译请求，text 参数可重复出现
func (p *Provider) translate(ctx context.Context, texts []string, sourceLang, targetLang, glossaryID string) (*TranslateResponse, error) {
	params := url.Values{}
	for _, t := range texts {
		params.Add("text", t)
	}
	if sourceLang != "" {
		params.Set("source_lang", normalizeLanguageCode(sourceLang, true))
	}
	params.Set("target_lang", normalizeLanguageCode(targetLang, false))
	if glossaryID != "" {
		params.Set("glossary_id", glossaryID)
	}
	body := params.Encode()

	resp, err := p.retrier.Do(ctx, p.httpClient, func() (*http.Request, error) {
		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
			p.config.APIEndpoint+"/translate", strings.NewReader(body))
		if err != nil {
			return nil, err
		}
		httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		httpReq.Header.Set("Authorization", "DeepL-Auth-Key "+p.config.APIKey)
		for k, v := range p.config.Headers {
			httpReq.Header.Set(k, v)
		}
		return httpReq, nil
	})
	if err != nil {
		return nil, fmt.Errorf("deepl request failed: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, providers.StatusError(p.GetName(), resp)
	}
	defer resp.Body.Close()

	// 解析响应
	var translateResp TranslateResponse
	if err := json.NewDecoder(resp.Body).Decode(&translateResp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if len(translateResp.Translations) != len(texts) {
		return nil, fmt.Errorf("deepl returned %d translations for %d texts",
			len(translateResp.Translations), len(texts))
	}

	return &translateResp, nil
}

// normalizeLanguageCode 标准化语言代码为DeepL格式
func normalizeLanguageCode(lang string, isSource bool) string {
	// 源语言不接受地区变体
	if isSource {
		return providers.BaseCode(lang)
	}

	code := providers.NormalizeCode(lang)

	// 对于英语和葡萄牙语，目标语言需要指定变体
	switch code {
	case "EN":
		return "EN-US" // 默认美式英语
	case "PT":
		return "PT-BR" // 默认巴西葡萄牙语
	}

	return code
}

// TranslateResponse 翻译响应
type TranslateResponse struct {
	Translations []struct {
		DetectedSourceLanguage string `json:"detected_source_language"`
		Text                   string `json:"text"`
	} `json:"translations"`
}
