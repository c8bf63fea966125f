package libretranslate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/nerdneilsfield/go-transflow/pkg/providers"
	"github.com/nerdneilsfield/go-transflow/pkg/providers/retry"
)

const defaultEndpoint = "https://libretranslate.com"

// Config LibreTranslate配置
type Config struct {
	providers.BaseConfig
}

// DefaultConfig 返回默认配置
func DefaultConfig() Config {
	config := Config{
		BaseConfig: providers.DefaultConfig(),
	}
	// 默认使用官方演示服务器
	config.APIEndpoint = defaultEndpoint
	return config
}

// Provider LibreTranslate提供商
type Provider struct {
	config     Config
	httpClient *http.Client
	retrier    *retry.NetworkRetrier
}

var _ providers.Provider = (*Provider)(nil)

// New 创建新的LibreTranslate提供商
func New(config Config) *Provider {
	if config.APIEndpoint == "" {
		config.APIEndpoint = defaultEndpoint
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
	source := strings.ToLower(providers.BaseCode(req.SourceLanguage))
	if source == "" {
		source = "auto"
	}

	resp, err := p.translate(ctx, TranslateRequest{
		Q:      req.Text,
		Source: source,
		Target: strings.ToLower(providers.BaseCode(req.TargetLanguage)),
		Format: "text",
		APIKey: p.config.APIKey,
	})
	if err != nil {
		return nil, err
	}

	out := &providers.ProviderResponse{
		Text:       resp.TranslatedText,
		TargetLang: req.TargetLanguage,
	}
	if resp.DetectedLanguage != nil {
		out.SourceLang = resp.DetectedLanguage.Language
	}
	return out, nil
}

// GetName 获取提供商名称
func (p *Provider) GetName() string {
	return "libretranslate"
}

// SupportsGlossary 不支持术语表
func (p *Provider) SupportsGlossary() bool {
	return false
}

// GetCapabilities 获取提供商能力
func (p *Provider) GetCapabilities() providers.Capabilities {
	return providers.Capabilities{
		MaxTextLength:  5000,
		SupportsBatch:  false,
		RequiresAPIKey: p.config.APIKey != "",
	}
}

// HealthCheck 健康检查
func (p *Provider) HealthCheck(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.config.APIEndpoint+"/languages", nil)
	if err != nil {
		return err
	}

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

// translate 执行翻译请求
func (p *Provider) translate(ctx context.Context, req TranslateRequest) (*TranslateResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	resp, err := p.retrier.Do(ctx, p.httpClient, func() (*http.Request, error) {
		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.config.APIEndpoint+"/translate", bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		httpReq.Header.Set("Content-Type", "application/json")
		for k, v := range p.config.Headers {
			httpReq.Header.Set(k, v)
		}
		return httpReq, nil
	})
	if err != nil {
		return nil, fmt.Errorf("libretranslate request failed: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, providers.StatusError(p.GetName(), resp)
	}
	defer resp.Body.Close()

	var translateResp TranslateResponse
	if err := json.NewDecoder(resp.Body).Decode(&translateResp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &translateResp, nil
}

// TranslateRequest 翻译请求
type TranslateRequest struct {
	Q      string `json:"q"`                 // 要翻译的文本
	Source string `json:"source"`            // 源语言
	Target string `json:"target"`            // 目标语言
	Format string `json:"format"`            // 文本格式
	APIKey string `json:"api_key,omitempty"` // API密钥（如果需要）
}

// TranslateResponse 翻译响应
type TranslateResponse struct {
	TranslatedText   string `json:"translatedText"`
	DetectedLanguage *struct {
		Confidence float64 `json:"confidence"`
		Language   string  `json:"language"`
	} `json:"detectedLanguage,omitempty"`
}
