package translator

import (
	"context"
	"time"

	"github.com/nerdneilsfield/go-transflow/internal/document"
	"github.com/nerdneilsfield/go-transflow/pkg/translation"
)

// Translator 分组翻译器接口
// 负责逐组调用提供商、失败回退和译文回填
type Translator interface {
	// TranslateGroups 翻译所有组并原地修改节点文本，单组失败不会中断整体
	TranslateGroups(ctx context.Context, groups []*document.ContextGroup, opts Options) Stats
}

// UnitTranslator 单段文本翻译能力，*translation.Service 满足该接口
type UnitTranslator interface {
	Translate(ctx context.Context, u translation.Unit) (string, error)
}

// ProgressCallback 进度回调函数
type ProgressCallback func(done, total int)

// Options 单次运行的翻译参数
type Options struct {
	SourceLang  string           // 源语言
	TargetLang  string           // 目标语言
	GlossaryID  string           // 术语表 ID，可为空
	OnGroupDone ProgressCallback // 每完成一组调用一次
}

// Config 翻译器配置
type Config struct {
	Concurrency int           // 并行度
	GroupPause  time.Duration // 每组翻译后的固定停顿
}

// DefaultConfig 返回默认配置
func DefaultConfig() Config {
	return Config{
		Concurrency: 1,
		GroupPause:  50 * time.Millisecond,
	}
}

// UnitResult 一次提供商调用的结果
type UnitResult struct {
	Text string
	Err  error
}

// OK 调用是否成功
func (r UnitResult) OK() bool {
	return r.Err == nil
}
