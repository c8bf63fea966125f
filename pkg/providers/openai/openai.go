package openai

import (
	"context"
	"fmt"
	"strings"

	"github.com/nerdneilsfield/go-transflow/pkg/providers"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

const systemPrompt = "You are a professional translator. Translate accurately while preserving the original meaning and tone. " +
	"Reply with the translated text only, without quotes, notes or explanations."

// Config OpenAI配置（使用官方SDK）
type Config struct {
	providers.BaseConfig
	Model       string  `json:"model"`
	Temperature float64 `json:"temperature"`
	MaxTokens   int     `json:"max_tokens"`
	OrgID       string  `json:"org_id,omitempty"` // 可选的组织ID
}

// DefaultConfig 返回默认配置
func DefaultConfig() Config {
	return Config{
		BaseConfig:  providers.DefaultConfig(),
		Model:       "gpt-4o-mini",
		Temperature: 0.3,
		MaxTokens:   4096,
	}
}

// Provider OpenAI 兼容接口的翻译提供商
type Provider struct {
	config Config
	client openai.Client
}

var _ providers.Provider = (*Provider)(nil)

// New 创建新的OpenAI提供商
func New(config Config) *Provider {
	opts := []option.RequestOption{
		option.WithAPIKey(config.APIKey),
	}

	// 自定义端点，可指向任何 OpenAI 兼容服务
	if config.APIEndpoint != "" {
		opts = append(opts, option.WithBaseURL(config.APIEndpoint))
	}
	if config.OrgID != "" {
		opts = append(opts, option.WithOrganization(config.OrgID))
	}
	for k, v := range config.Headers {
		opts = append(opts, option.WithHeader(k, v))
	}
	if config.Timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(config.Timeout))
	}
	// SDK 自带重试
	opts = append(opts, option.WithMaxRetries(config.MaxRetries))

	return &Provider{
		config: config,
		client: openai.NewClient(opts...),
	}
}

// Translate 执行翻译
func (p *Provider) Translate(ctx context.Context, req *providers.ProviderRequest) (*providers.ProviderResponse, error) {
	params := openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(buildPrompt(req)),
		},
		Model: openai.ChatModel(p.config.Model),
	}
	if p.config.Temperature > 0 {
		params.Temperature = openai.Float(p.config.Temperature)
	}
	if p.config.MaxTokens > 0 {
		params.MaxTokens = openai.Int(int64(p.config.MaxTokens))
	}

	completion, err := p.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("openai chat completion failed: %w", err)
	}
	if len(completion.Choices) == 0 {
		return nil, fmt.Errorf("no choices returned from OpenAI")
	}

	return &providers.ProviderResponse{
		Text:       strings.TrimSpace(completion.Choices[0].Message.Content),
		TargetLang: req.TargetLanguage,
		TokensIn:   int(completion.Usage.PromptTokens),
		TokensOut:  int(completion.Usage.CompletionTokens),
	}, nil
}

// buildPrompt 构造用户消息，源语言为空时让模型自行识别
func buildPrompt(req *providers.ProviderRequest) string {
	if req.SourceLanguage == "" {
		return fmt.Sprintf("Translate the following text to %s:\n\n%s", req.TargetLanguage, req.Text)
	}
	return fmt.Sprintf("Translate the following text from %s to %s:\n\n%s",
		req.SourceLanguage, req.TargetLanguage, req.Text)
}

// GetName 获取提供商名称
func (p *Provider) GetName() string {
	return "openai"
}

// SupportsGlossary 不支持 DeepL 风格的术语表
func (p *Provider) SupportsGlossary() bool {
	return false
}

// GetCapabilities 获取提供商能力
func (p *Provider) GetCapabilities() providers.Capabilities {
	return providers.Capabilities{
		MaxTextLength:  8000, // 取决于模型
		SupportsBatch:  false,
		RequiresAPIKey: true,
		RateLimit: &providers.RateLimit{
			RequestsPerMinute: 60, // 取决于账户类型
		},
	}
}

// HealthCheck 健康检查
func (p *Provider) HealthCheck(ctx context.Context) error {
	_, err := p.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage("Hello"),
		},
		Model:     openai.ChatModel(p.config.Model),
		MaxTokens: openai.Int(10),
	})
	return err
}
