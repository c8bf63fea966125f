package google

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

const defaultEndpoint = "https://translation.googleapis.com/language/translate/v2"

// Config Google Translate配置
type Config struct {
	providers.BaseConfig
}

// DefaultConfig 返回默认配置
func DefaultConfig() Config {
	config := Config{
		BaseConfig: providers.DefaultConfig(),
	}
	config.APIEndpoint = defaultEndpoint
	return config
}

// Provider Google Translate提供商
type Provider struct {
	config     Config
	httpClient *http.Client
	retrier    *retry.NetworkRetrier
}

var (
	_ providers.Provider      = (*Provider)(nil)
	_ providers.BatchProvider = (*Provider)(nil)
)

// New 创建新的Google Translate提供商
func New(config Config) *Provider {
	if config.APIEndpoint == "" {
		config.APIEndpoint = defaultEndpoint
	}

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
	resp, err := p.translate(ctx, []string{req.Text}, req.SourceLanguage, req.TargetLanguage)
	if err != nil {
		return nil, err
	}

	t := resp.Data.Translations[0]
	return &providers.ProviderResponse{
		Text:       t.TranslatedText,
		SourceLang: t.DetectedSourceLanguage,
		TargetLang: req.TargetLanguage,
	}, nil
}

// TranslateBatch 通过重复的 q 参数一次翻译多段文本
func (p *Provider) TranslateBatch(ctx context.Context, req *providers.BatchRequest) (*providers.BatchResponse, error) {
	if len(req.Texts) == 0 {
		return &providers.BatchResponse{TargetLang: req.TargetLanguage}, nil
	}

	resp, err := p.translate(ctx, req.Texts, req.SourceLanguage, req.TargetLanguage)
	if err != nil {
		return nil, err
	}

	texts := make([]string, len(resp.Data.Translations))
	for i, t := range resp.Data.Translations {
		texts[i] = t.TranslatedText
	}
	return &providers.BatchResponse{
		Texts:      texts,
		TargetLang: req.TargetLanguage,
	}, nil
}

// GetName 获取提供商名称
func (p *Provider) GetName() string {
	return "google"
}

// SupportsGlossary v2 API 不支持术语表
func (p *Provider) SupportsGlossary() bool {
	return false
}

// GetCapabilities 获取提供商能力
func (p *Provider) GetCapabilities() providers.Capabilities {
	return providers.Capabilities{
		MaxTextLength:  5000, // Google Translate v2 API限制
		SupportsBatch:  true,
		RequiresAPIKey: true,
		RateLimit: &providers.RateLimit{
			RequestsPerMinute: 600,    // 取决于配额
			CharactersPerDay:  500000, // 免费层级限制
		},
	}
}

// HealthCheck 健康检查
func (p *Provider) HealthCheck(ctx context.Context) error {
	_, err := p.Translate(ctx, &providers.ProviderRequest{
		Text:           "Hello",
		SourceLanguage: "en",
		TargetLanguage: "es",
	})
	return err
}

// translate 执行翻译请求
func (p *Provider) translate(ctx context.Context, texts []string, sourceLang, targetLang string) (*TranslateResponse, error) {
	params := url.Values{}
	params.Set("key", p.config.APIKey)
	for _, t := range texts {
		params.Add("q", t)
	}
	if sourceLang != "" {
		params.Set("source", normalizeLanguageCode(sourceLang))
	}
	params.Set("target", normalizeLanguageCode(targetLang))
	params.Set("format", "text")
	body := params.Encode()

	resp, err := p.retrier.Do(ctx, p.httpClient, func() (*http.Request, error) {
		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.config.APIEndpoint, strings.NewReader(body))
		if err != nil {
			return nil, err
		}
		httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		for k, v := range p.config.Headers {
			httpReq.Header.Set(k, v)
		}
		return httpReq, nil
	})
	if err != nil {
		return nil, fmt.Errorf("google request failed: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, providers.StatusError(p.GetName(), resp)
	}
	defer resp.Body.Close()

	var translateResp TranslateResponse
	if err := json.NewDecoder(resp.Body).Decode(&translateResp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if len(translateResp.Data.Translations) != len(texts) {
		return nil, fmt.Errorf("google returned %d translations for %d texts",
			len(translateResp.Data.Translations), len(texts))
	}

	return &translateResp, nil
}

// normalizeLanguageCode Google 使用小写语言代码，地区保持大写，如 zh-CN
func normalizeLanguageCode(lang string) string {
	code := providers.NormalizeCode(lang)
	if i := strings.Index(code, "-"); i > 0 {
		return strings.ToLower(code[:i]) + code[i:]
	}
	return strings.ToLower(code)
}

// TranslateResponse 翻译响应
type TranslateResponse struct {
	Data struct {
		Translations []struct {
			TranslatedText         string `json:"translatedText"`
			DetectedSourceLanguage string `json:"detectedSourceLanguage,omitempty"`
		} `json:"translations"`
	} `json:"data"`
}
