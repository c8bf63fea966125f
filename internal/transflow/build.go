package transflow

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/nerdneilsfield/go-transflow/internal/config"
	"github.com/nerdneilsfield/go-transflow/internal/fetcher"
	"github.com/nerdneilsfield/go-transflow/internal/glossary"
	"github.com/nerdneilsfield/go-transflow/internal/logger"
	"github.com/nerdneilsfield/go-transflow/internal/translator"
	"github.com/nerdneilsfield/go-transflow/pkg/providers"
	"github.com/nerdneilsfield/go-transflow/pkg/providers/factory"
	"github.com/nerdneilsfield/go-transflow/pkg/providers/stats"
	"github.com/nerdneilsfield/go-transflow/pkg/translation"
)

// Runtime 由配置组装出的服务及其可观测部件
type Runtime struct {
	Service      *Service
	Translation  *translation.Service
	Glossary     glossary.Lookup
	ProviderName string
	Stats        *stats.StatsManager
	Errors       *ErrorTally

	// Provider 未经统计包装的提供商，用于健康检查和能力查询
	Provider providers.Provider
}

// NewFromConfig 按配置组装提供商、翻译器、浏览器引擎和术语表查找
func NewFromConfig(cfg *config.Config, log *zap.Logger) (*Runtime, error) {
	log = logger.OrNop(log)

	provider, err := factory.CreateProvider(cfg.Provider)
	if err != nil {
		return nil, fmt.Errorf("failed to create provider: %w", err)
	}

	manager := stats.NewStatsManager()
	tally := NewErrorTally()
	svc, err := translation.New(
		stats.Wrap(provider, manager),
		translation.WithLogger(log.Named("translation")),
		translation.WithRequestTimeout(cfg.Translate.RequestTimeout),
		translation.WithErrorHandler(tally.Record),
	)
	if err != nil {
		return nil, err
	}

	gt := translator.NewGroupTranslator(svc, translator.Config{
		Concurrency: cfg.Translate.Concurrency,
		GroupPause:  cfg.Translate.GroupPause,
	}, log.Named("translator"))

	engine, err := fetcher.NewEngine(cfg.Browser, log.Named("browser"))
	if err != nil {
		return nil, err
	}
	f := fetcher.NewFetcher(engine, cfg.Browser, cfg.Fetch, log.Named("fetcher"))

	lookup, err := glossary.NewFromConfig(cfg, log.Named("glossary"))
	if err != nil {
		return nil, fmt.Errorf("failed to load glossaries: %w", err)
	}

	log.Debug("runtime ready",
		zap.String("provider", provider.GetName()),
		zap.String("engine", engine.Name()),
		zap.Int("glossaryLookups", lookup.Len()))

	return &Runtime{
		Service:      New(f, gt, WithGlossary(lookup), WithLogger(log)),
		Translation:  svc,
		Glossary:     lookup,
		ProviderName: provider.GetName(),
		Stats:        manager,
		Errors:       tally,
		Provider:     provider,
	}, nil
}
