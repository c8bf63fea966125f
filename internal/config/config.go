package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// NoTranslationSentinel 目标语言为该值时只抓取页面，不做翻译
const NoTranslationSentinel = "NONE"

// ProviderConfig 翻译提供商配置
type ProviderConfig struct {
	Type        string        `mapstructure:"type" yaml:"type"`
	APIKey      string        `mapstructure:"api_key" yaml:"api_key"`
	BaseURL     string        `mapstructure:"base_url" yaml:"base_url"`
	Model       string        `mapstructure:"model" yaml:"model"`
	UseFreeAPI  bool          `mapstructure:"use_free_api" yaml:"use_free_api"`
	Timeout     time.Duration `mapstructure:"timeout" yaml:"timeout"`
	MaxRetries  int           `mapstructure:"max_retries" yaml:"max_retries"`
	Temperature float64       `mapstructure:"temperature" yaml:"temperature"`
}

// BrowserConfig 浏览器自动化配置
type BrowserConfig struct {
	Engine         string `mapstructure:"engine" yaml:"engine"`         // rod 或 chromedp
	BinPath        string `mapstructure:"bin_path" yaml:"bin_path"`     // Chrome 可执行文件路径，空则自动查找
	RemoteURL      string `mapstructure:"remote_url" yaml:"remote_url"` // 已运行浏览器的 DevTools 地址（仅 rod）
	Headless       bool   `mapstructure:"headless" yaml:"headless"`
	UserAgent      string `mapstructure:"user_agent" yaml:"user_agent"`
	ViewportWidth  int    `mapstructure:"viewport_width" yaml:"viewport_width"`
	ViewportHeight int    `mapstructure:"viewport_height" yaml:"viewport_height"`
	Locale         string `mapstructure:"locale" yaml:"locale"`
	Timezone       string `mapstructure:"timezone" yaml:"timezone"`
	AcceptLanguage string `mapstructure:"accept_language" yaml:"accept_language"`
}

// FetchConfig 页面抓取配置
type FetchConfig struct {
	NavigationTimeout time.Duration `mapstructure:"navigation_timeout" yaml:"navigation_timeout"`
	ChallengeAttempts int           `mapstructure:"challenge_attempts" yaml:"challenge_attempts"`
	ChallengeInterval time.Duration `mapstructure:"challenge_interval" yaml:"challenge_interval"`
	SettleDelay       time.Duration `mapstructure:"settle_delay" yaml:"settle_delay"`
	CSSTimeout        time.Duration `mapstructure:"css_timeout" yaml:"css_timeout"`
	CSSMaxBytes       int64         `mapstructure:"css_max_bytes" yaml:"css_max_bytes"`
}

// TranslateConfig 分组翻译配置
type TranslateConfig struct {
	Concurrency    int           `mapstructure:"concurrency" yaml:"concurrency"`
	GroupPause     time.Duration `mapstructure:"group_pause" yaml:"group_pause"`
	RequestTimeout time.Duration `mapstructure:"request_timeout" yaml:"request_timeout"`
}

// GlossaryConfig 术语表查询配置
type GlossaryConfig struct {
	Static map[string]string `mapstructure:"static" yaml:"static"` // 形如 "en:ko" -> glossary id
	File   string            `mapstructure:"file" yaml:"file"`     // TOML 术语表映射文件
	Remote bool              `mapstructure:"remote" yaml:"remote"` // 是否向 DeepL 查询
}

// Config 保存 transflow 的所有配置
type Config struct {
	SourceLang string          `mapstructure:"source_lang" yaml:"source_lang"`
	TargetLang string          `mapstructure:"target_lang" yaml:"target_lang"`
	Debug      bool            `mapstructure:"debug" yaml:"debug"`
	Verbose    bool            `mapstructure:"verbose" yaml:"verbose"`
	Provider   ProviderConfig  `mapstructure:"provider" yaml:"provider"`
	Browser    BrowserConfig   `mapstructure:"browser" yaml:"browser"`
	Fetch      FetchConfig     `mapstructure:"fetch" yaml:"fetch"`
	Translate  TranslateConfig `mapstructure:"translate" yaml:"translate"`
	Glossary   GlossaryConfig  `mapstructure:"glossary" yaml:"glossary"`
}

// LoadConfig 从文件加载配置
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()

	// 设置默认值
	setDefaults(v)

	// 如果配置路径已指定，则直接使用
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			v.AddConfigPath(home)
		}
		v.AddConfigPath(".")
		v.SetConfigName(".transflow")
		v.SetConfigType("yaml")
	}

	// 读取环境变量，例如 TRANSFLOW_PROVIDER_API_KEY
	v.SetEnvPrefix("TRANSFLOW")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		// 找不到配置文件时使用默认值
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// NewDefaultConfig 创建一个新的默认配置
func NewDefaultConfig() *Config {
	v := viper.New()
	setDefaults(v)

	var config Config
	// 默认值全部是基础类型，解码不会失败
	_ = v.Unmarshal(&config)
	return &config
}

// setDefaults 设置默认配置值
func setDefaults(v *viper.Viper) {
	v.SetDefault("source_lang", "EN")
	v.SetDefault("target_lang", "KO")
	v.SetDefault("debug", false)
	v.SetDefault("verbose", false)

	v.SetDefault("provider.type", "deepl")
	v.SetDefault("provider.api_key", "")
	v.SetDefault("provider.base_url", "")
	v.SetDefault("provider.use_free_api", true)
	v.SetDefault("provider.timeout", 30*time.Second)
	v.SetDefault("provider.max_retries", 3)
	v.SetDefault("provider.model", "gpt-4o-mini")
	v.SetDefault("provider.temperature", 0.3)

	v.SetDefault("browser.engine", "rod")
	v.SetDefault("browser.bin_path", "")
	v.SetDefault("browser.remote_url", "")
	v.SetDefault("browser.headless", true)
	v.SetDefault("browser.user_agent", "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
	v.SetDefault("browser.viewport_width", 1920)
	v.SetDefault("browser.viewport_height", 1080)
	v.SetDefault("browser.locale", "en-US")
	v.SetDefault("browser.timezone", "America/New_York")
	v.SetDefault("browser.accept_language", "en-US,en;q=0.9")

	v.SetDefault("fetch.navigation_timeout", 60*time.Second)
	v.SetDefault("fetch.challenge_attempts", 6)
	v.SetDefault("fetch.challenge_interval", 5*time.Second)
	v.SetDefault("fetch.settle_delay", 2*time.Second)
	v.SetDefault("fetch.css_timeout", 10*time.Second)
	v.SetDefault("fetch.css_max_bytes", int64(10<<20))

	v.SetDefault("translate.concurrency", 1)
	v.SetDefault("translate.group_pause", 50*time.Millisecond)
	v.SetDefault("translate.request_timeout", 30*time.Second)

	v.SetDefault("glossary.file", "")
	v.SetDefault("glossary.remote", false)
}

// Validate 验证配置
func (c *Config) Validate() error {
	switch strings.ToLower(c.Browser.Engine) {
	case "rod", "chromedp":
	default:
		return fmt.Errorf("unsupported browser engine: %q", c.Browser.Engine)
	}
	if c.Fetch.ChallengeAttempts <= 0 {
		return fmt.Errorf("fetch.challenge_attempts must be positive")
	}
	if c.Translate.Concurrency <= 0 {
		return fmt.Errorf("translate.concurrency must be positive")
	}
	if c.Provider.Type == "" {
		return fmt.Errorf("provider.type must be specified")
	}
	if c.Glossary.File != "" {
		if _, err := os.Stat(c.Glossary.File); err != nil {
			return fmt.Errorf("glossary file: %w", err)
		}
	}
	return nil
}

// IsNoTranslation 判断目标语言是否表示"不翻译"
func IsNoTranslation(targetLang string) bool {
	t := strings.TrimSpace(targetLang)
	return t == "" || strings.EqualFold(t, NoTranslationSentinel)
}

// DefaultConfigPath 返回默认配置文件路径
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".transflow.yaml"
	}
	return filepath.Join(home, ".transflow.yaml")
}
