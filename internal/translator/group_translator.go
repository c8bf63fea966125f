package translator

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/nerdneilsfield/go-transflow/internal/document"
	"github.com/nerdneilsfield/go-transflow/internal/logger"
	"github.com/nerdneilsfield/go-transflow/pkg/translation"
)

// GroupTranslator 按上下文组调用提供商，并把译文按比例回填到组内节点
type GroupTranslator struct {
	service UnitTranslator
	config  Config
	logger  *zap.Logger
}

var _ Translator = (*GroupTranslator)(nil)

// groupOutcome 单组处理结果
type groupOutcome struct {
	translated      bool
	fallback        bool
	nodesTranslated int
	nodesFailed     int
}

// NewGroupTranslator 创建分组翻译器
func NewGroupTranslator(service UnitTranslator, cfg Config, log *zap.Logger) *GroupTranslator {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 1
	}
	if cfg.GroupPause < 0 {
		cfg.GroupPause = 0
	}
	return &GroupTranslator{
		service: service,
		config:  cfg,
		logger:  logger.OrNop(log),
	}
}

// TranslateGroups 翻译所有组。每组只写自己的节点，结果按组下标汇总，与完成顺序无关
func (gt *GroupTranslator) TranslateGroups(ctx context.Context, groups []*document.ContextGroup, opts Options) Stats {
	start := time.Now()
	stats := Stats{Groups: len(groups)}
	for _, g := range groups {
		stats.Nodes += len(g.Nodes)
	}

	gt.logger.Info("starting group translation",
		zap.Int("totalNodes", stats.Nodes),
		zap.Int("totalGroups", stats.Groups),
		zap.Int("concurrency", gt.config.Concurrency),
		zap.String("sourceLang", opts.SourceLang),
		zap.String("targetLang", opts.TargetLang))

	outcomes := gt.processGroups(ctx, groups, opts)
	for _, o := range outcomes {
		stats.add(o)
	}

	for _, g := range groups {
		for _, n := range g.Nodes {
			if !n.Changed() {
				stats.Untranslated++
			}
		}
	}
	stats.Duration = time.Since(start)

	if stats.Untranslated > 0 {
		gt.logger.Warn("some nodes kept their original text",
			zap.Int("untranslated", stats.Untranslated),
			zap.Int("totalNodes", stats.Nodes))
	}
	gt.logger.Info("group translation completed", stats.Field())
	return stats
}

// processGroups 工作池并行处理各组
func (gt *GroupTranslator) processGroups(ctx context.Context, groups []*document.ContextGroup, opts Options) []groupOutcome {
	outcomes := make([]groupOutcome, len(groups))
	if len(groups) == 0 {
		return outcomes
	}

	workers := min(gt.config.Concurrency, len(groups))

	// 创建工作队列
	indexChan := make(chan int, len(groups))
	for i := range groups {
		indexChan <- i
	}
	close(indexChan)

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		done int
	)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			for i := range indexChan {
				gt.logger.Debug("worker processing group",
					zap.Int("workerID", workerID),
					zap.Int("groupIndex", i),
					zap.Int("groupSize", len(groups[i].Nodes)))

				outcomes[i] = gt.translateGroup(ctx, groups[i], opts)

				if opts.OnGroupDone != nil {
					mu.Lock()
					done++
					opts.OnGroupDone(done, len(groups))
					mu.Unlock()
				}

				gt.pause(ctx)
			}
		}(w)
	}
	wg.Wait()

	return outcomes
}

// translateGroup 整组翻译，失败时逐节点回退
func (gt *GroupTranslator) translateGroup(ctx context.Context, group *document.ContextGroup, opts Options) groupOutcome {
	var outcome groupOutcome

	joined := document.JoinGroupText(group.Originals())
	if joined == "" {
		return outcome
	}

	res := gt.call(ctx, opts, joined)
	if res.OK() && document.Distribute(group.Nodes, joined, res.Text) {
		outcome.translated = true
		outcome.nodesTranslated = len(group.Nodes)
		return outcome
	}

	gt.logger.Warn("group translation failed, translating nodes individually",
		zap.Int("groupSize", len(group.Nodes)),
		zap.String("text", logger.Preview(joined, 80)),
		zap.Error(res.Err))
	outcome.fallback = true

	for _, node := range group.Nodes {
		r := gt.call(ctx, opts, node.Original)
		if !r.OK() {
			gt.logger.Warn("node translation failed, keeping original",
				zap.Int("nodeIndex", node.Index),
				zap.String("text", logger.Preview(node.Original, 80)),
				zap.Error(r.Err))
			outcome.nodesFailed++
			continue
		}
		node.SetText(document.SlotText(r.Text))
		outcome.nodesTranslated++
	}
	return outcome
}

// call 调用一次提供商，提供商 panic 视为该次调用失败
func (gt *GroupTranslator) call(ctx context.Context, opts Options, text string) (res UnitResult) {
	defer func() {
		if r := recover(); r != nil {
			gt.logger.Error("provider panicked", zap.Any("panic", r))
			res = UnitResult{Err: fmt.Errorf("provider panic: %v", r)}
		}
	}()

	translated, err := gt.service.Translate(ctx, translation.Unit{
		SourceLang: opts.SourceLang,
		TargetLang: opts.TargetLang,
		GlossaryID: opts.GlossaryID,
		Text:       text,
	})
	return UnitResult{Text: translated, Err: err}
}

func (gt *GroupTranslator) pause(ctx context.Context) {
	if gt.config.GroupPause <= 0 {
		return
	}
	select {
	case <-ctx.Done():
	case <-time.After(gt.config.GroupPause):
	}
}
