package deeplx

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/nerdneilsfield/go-transflow/pkg/providers"
	"github.com/nerdneilsfield/go-transflow/pkg/providers/retry"
)

const defaultEndpoint = "http://localhost:1188/translate"

// Config DeepLX配置
type Config struct {
	providers.BaseConfig
	// DeepLX特定配置
	AccessToken string `json:"access_token,omitempty"` // 可选的访问令牌
}

// DefaultConfig 返回默认配置
func DefaultConfig() Config {
	config := Config{
		BaseConfig: providers.DefaultConfig(),
	}
	// 默认使用本地DeepLX服务
	config.APIEndpoint = defaultEndpoint
	return config
}

// Provider DeepLX提供商
type Provider struct {
	config     Config
	httpClient *http.Client
	retrier    *retry.NetworkRetrier
}

var _ providers.Provider = (*Provider)(nil)

// New 创建新的DeepLX提供商
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
	sourceLang := providers.BaseCode(req.SourceLanguage)
	if sourceLang == "" {
		sourceLang = "auto"
	}

	resp, err := p.translate(ctx, TranslateRequest{
		Text:       req.Text,
		SourceLang: sourceLang,
		TargetLang: providers.NormalizeCode(req.TargetLanguage),
	})
	if err != nil {
		return nil, err
	}

	return &providers.ProviderResponse{
		Text:       resp.Data,
		SourceLang: resp.SourceLang,
		TargetLang: req.TargetLanguage,
	}, nil
}

// GetName 获取提供商名称
func (p *Provider) GetName() string {
	return "deeplx"
}

// SupportsGlossary DeepLX 不支持术语表
func (p *Provider) SupportsGlossary() bool {
	return false
}

// GetCapabilities 获取提供商能力
func (p *Provider) GetCapabilities() providers.Capabilities {
	return providers.Capabilities{
		MaxTextLength:  5000, // 建议限制
		SupportsBatch:  false,
		RequiresAPIKey: false, // DeepLX不需要API密钥
	}
}

// HealthCheck 健康检查
func (p *Provider) HealthCheck(ctx context.Context) error {
	// 尝试翻译一个简单的文本
	_, err := p.Translate(ctx, &providers.ProviderRequest{
		Text:           "Hello",
		SourceLanguage: "EN",
		TargetLanguage: "DE",
	})
	return err
}

// translate 执行翻译请求
func (p *Provider) translate(ctx context.Context, req TranslateRequest) (*TranslateResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	resp, err := p.retrier.Do(ctx, p.httpClient, func() (*http.Request, error) {
		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.config.APIEndpoint, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		httpReq.Header.Set("Content-Type", "application/json")
		if p.config.AccessToken != "" {
			httpReq.Header.Set("Authorization", "Bearer "+p.config.AccessToken)
		}
		for k, v := range p.config.Headers {
			httpReq.Header.Set(k, v)
		}
		return httpReq, nil
	})
	if err != nil {
		return nil, fmt.Errorf("deeplx request failed: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, providers.StatusError(p.GetName(), resp)
	}
	defer resp.Body.Close()

	var translateResp TranslateResponse
	if err := json.NewDecoder(resp.Body).Decode(&translateResp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	// 检查业务错误
	if translateResp.Code != http.StatusOK {
		return nil, providers.NewError("server_error",
			fmt.Sprintf("deeplx: API error %d: %s", translateResp.Code, translateResp.Message))
	}

	return &translateResp, nil
}

// TranslateRequest 翻译请求
type TranslateRequest struct {
	Text       string `json:"text"`
	SourceLang string `json:"source_lang"`
	TargetLang string `json:"target_lang"`
}

// TranslateResponse 翻译响应
type TranslateResponse struct {
	Code       int    `json:"code"`
	Message    string `json:"message,omitempty"`
	Data       string `json:"data"`
	SourceLang string `json:"source_lang,omitempty"`
}
