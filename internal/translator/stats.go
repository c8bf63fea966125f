package translator

import (
	"fmt"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Stats 一次运行的翻译统计
type Stats struct {
	Nodes            int           `json:"nodes"`             // 可翻译节点数
	Groups           int           `json:"groups"`            // 上下文组数
	GroupsTranslated int           `json:"groups_translated"` // 整组翻译成功的组数
	FallbackGroups   int           `json:"fallback_groups"`   // 回退为逐节点翻译的组数
	NodesTranslated  int           `json:"nodes_translated"`  // 写入译文的节点数
	NodesFailed      int           `json:"nodes_failed"`      // 回退时仍失败的节点数
	Untranslated     int           `json:"untranslated"`      // 运行结束后文本仍等于原文的节点数
	Duration         time.Duration `json:"duration"`
}

// add 合并单组结果
func (s *Stats) add(o groupOutcome) {
	if o.translated {
		s.GroupsTranslated++
	}
	if o.fallback {
		s.FallbackGroups++
	}
	s.NodesTranslated += o.nodesTranslated
	s.NodesFailed += o.nodesFailed
}

// SuccessRate 节点成功率（百分比）
func (s Stats) SuccessRate() float64 {
	if s.Nodes == 0 {
		return 0
	}
	return float64(s.Nodes-s.Untranslated) * 100 / float64(s.Nodes)
}

// String 实现 Stringer 接口
func (s Stats) String() string {
	return fmt.Sprintf("nodes=%d groups=%d translated=%d fallback=%d failed=%d untranslated=%d (%.1f%%) in %s",
		s.Nodes, s.Groups, s.GroupsTranslated, s.FallbackGroups, s.NodesFailed,
		s.Untranslated, s.SuccessRate(), s.Duration.Round(time.Millisecond))
}

// MarshalLogObject 实现 zapcore.ObjectMarshaler
func (s Stats) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddInt("nodes", s.Nodes)
	enc.AddInt("groups", s.Groups)
	enc.AddInt("groupsTranslated", s.GroupsTranslated)
	enc.AddInt("fallbackGroups", s.FallbackGroups)
	enc.AddInt("nodesTranslated", s.NodesTranslated)
	enc.AddInt("nodesFailed", s.NodesFailed)
	enc.AddInt("untranslated", s.Untranslated)
	enc.AddDuration("duration", s.Duration)
	return nil
}

var _ zapcore.ObjectMarshaler = Stats{}

// Field 以 zap 字段形式输出统计
func (s Stats) Field() zap.Field {
	return zap.Object("stats", s)
}
