package glossary

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/nerdneilsfield/go-transflow/internal/logger"
	"github.com/nerdneilsfield/go-transflow/pkg/providers"
	"github.com/nerdneilsfield/go-transflow/pkg/providers/retry"
)

const (
	deeplProBase  = "https://api.deepl.com"
	deeplFreeBase = "https://api-free.deepl.com"
)

// DeepLConfig 远程术语表查询配置
type DeepLConfig struct {
	BaseURL    string // 可以是翻译端点，如 https://api-free.deepl.com/v2/translate
	APIKey     string
	UseFreeAPI bool
	Timeout    time.Duration
}

// DeepLLookup 通过 GET /v3/glossaries 按语言对查找术语表。
// 查询结果在进程内按语言对缓存，包括“没有术语表”
type DeepLLookup struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	retrier    *retry.NetworkRetrier
	logger     *zap.Logger

	mu    sync.Mutex
	cache map[string]string
}

var _ Lookup = (*DeepLLookup)(nil)

// NewDeepLLookup 创建远程查找器
func NewDeepLLookup(cfg DeepLConfig, log *zap.Logger) *DeepLLookup {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	retryConfig := retry.DefaultRetryConfig()
	retryConfig.MaxRetries = 1

	return &DeepLLookup{
		baseURL:    apiBase(cfg.BaseURL, cfg.UseFreeAPI),
		apiKey:     cfg.APIKey,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		retrier:    retry.NewNetworkRetrier(retryConfig),
		logger:     logger.OrNop(log),
		cache:      make(map[string]string),
	}
}

// apiBase 去掉翻译端点的版本路径，得到 API 根地址
func apiBase(baseURL string, free bool) string {
	base := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if base == "" {
		if free {
			return deeplFreeBase
		}
		return deeplProBase
	}
	for _, suffix := range []string{"/v2/translate", "/v2", "/v3"} {
		if strings.HasSuffix(base, suffix) {
			return strings.TrimSuffix(base, suffix)
		}
	}
	return base
}

// glossaryList GET /v3/glossaries 的响应
type glossaryList struct {
	Glossaries []struct {
		GlossaryID   string `json:"glossary_id"`
		Name         string `json:"name"`
		Dictionaries []struct {
			SourceLang string `json:"source_lang"`
			TargetLang string `json:"target_lang"`
			EntryCount int    `json:"entry_count"`
		} `json:"dictionaries"`
	} `json:"glossaries"`
}

// GlossaryID 实现 Lookup
func (d *DeepLLookup) GlossaryID(ctx context.Context, sourceLang, targetLang string) (string, error) {
	source := strings.ToLower(providers.BaseCode(sourceLang))
	target := strings.ToLower(providers.BaseCode(targetLang))
	if source == "" || target == "" {
		return "", nil
	}
	key := source + ":" + target

	d.mu.Lock()
	id, ok := d.cache[key]
	d.mu.Unlock()
	if ok {
		return id, nil
	}

	list, err := d.list(ctx)
	if err != nil {
		return "", err
	}

	id = ""
	for _, g := range list.Glossaries {
		for _, dict := range g.Dictionaries {
			if strings.EqualFold(dict.SourceLang, source) && strings.EqualFold(dict.TargetLang, target) {
				id = g.GlossaryID
				break
			}
		}
		if id != "" {
			break
		}
	}

	d.mu.Lock()
	d.cache[key] = id
	d.mu.Unlock()

	d.logger.Debug("deepl glossary resolved",
		zap.String("sourceLang", source),
		zap.String("targetLang", target),
		zap.String("glossaryID", id))
	return id, nil
}

func (d *DeepLLookup) list(ctx context.Context) (*glossaryList, error) {
	resp, err := d.retrier.Do(ctx, d.httpClient, func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, d.baseURL+"/v3/glossaries", nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", "DeepL-Auth-Key "+d.apiKey)
		req.Header.Set("Accept", "application/json")
		return req, nil
	})
	if err != nil {
		return nil, fmt.Errorf("deepl glossary request failed: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, providers.StatusError("deepl", resp)
	}
	defer resp.Body.Close()

	var list glossaryList
	if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
		return nil, fmt.Errorf("failed to decode glossary list: %w", err)
	}
	return &list, nil
}
