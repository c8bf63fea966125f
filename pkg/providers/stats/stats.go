package stats

import (
	"fmt"
	"sort"
	"sync"
	"time"
)

// ProviderStats Provider调用统计
type ProviderStats struct {
	ProviderName       string           `json:"provider_name"`
	TotalRequests      int64            `json:"total_requests"`
	SuccessfulRequests int64            `json:"successful_requests"`
	FailedRequests     int64            `json:"failed_requests"`
	BatchRequests      int64            `json:"batch_requests"`
	CharactersIn       int64            `json:"characters_in"`
	CharactersOut      int64            `json:"characters_out"`
	TotalTokensIn      int64            `json:"total_tokens_in"`
	TotalTokensOut     int64            `json:"total_tokens_out"`
	AverageLatency     time.Duration    `json:"average_latency"`
	MinLatency         time.Duration    `json:"min_latency"`
	MaxLatency         time.Duration    `json:"max_latency"`
	TotalLatency       time.Duration    `json:"total_latency"`
	ErrorTypes         map[string]int64 `json:"error_types"` // 按错误类型统计
	FirstRequestTime   time.Time        `json:"first_request_time"`
	LastRequestTime    time.Time        `json:"last_request_time"`
}

// SuccessRate 成功率（百分比）
func (ps *ProviderStats) SuccessRate() float64 {
	if ps.TotalRequests == 0 {
		return 0
	}
	return float64(ps.SuccessfulRequests) / float64(ps.TotalRequests) * 100
}

// RequestResult 单次请求结果
type RequestResult struct {
	Success       bool
	Batch         bool
	Latency       time.Duration
	CharactersIn  int
	CharactersOut int
	TokensIn      int
	TokensOut     int
	ErrorType     string
}

// StatsManager 统计管理器，可被多个 goroutine 并发使用
type StatsManager struct {
	mu    sync.Mutex
	stats map[string]*ProviderStats
}

// NewStatsManager 创建统计管理器
func NewStatsManager() *StatsManager {
	return &StatsManager{
		stats: make(map[string]*ProviderStats),
	}
}

// RecordRequest 记录请求结果
func (sm *StatsManager) RecordRequest(provider string, result RequestResult) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	stats, ok := sm.stats[provider]
	if !ok {
		stats = &ProviderStats{
			ProviderName: provider,
			ErrorTypes:   make(map[string]int64),
		}
		sm.stats[provider] = stats
	}

	now := time.Now()
	if stats.FirstRequestTime.IsZero() {
		stats.FirstRequestTime = now
	}
	stats.LastRequestTime = now

	stats.TotalRequests++
	if result.Batch {
		stats.BatchRequests++
	}
	if result.Success {
		stats.SuccessfulRequests++
		stats.CharactersOut += int64(result.CharactersOut)
		stats.TotalTokensIn += int64(result.TokensIn)
		stats.TotalTokensOut += int64(result.TokensOut)
	} else {
		stats.FailedRequests++
		stats.ErrorTypes[result.ErrorType]++
	}
	stats.CharactersIn += int64(result.CharactersIn)

	stats.TotalLatency += result.Latency
	stats.AverageLatency = stats.TotalLatency / time.Duration(stats.TotalRequests)
	if stats.MinLatency == 0 || result.Latency < stats.MinLatency {
		stats.MinLatency = result.Latency
	}
	if result.Latency > stats.MaxLatency {
		stats.MaxLatency = result.Latency
	}
}

// GetStats 获取指定Provider的统计信息副本
func (sm *StatsManager) GetStats(provider string) *ProviderStats {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if stats, ok := sm.stats[provider]; ok {
		return copyStats(stats)
	}
	return nil
}

// GetAllStats 获取所有统计信息，按提供商名称排序
func (sm *StatsManager) GetAllStats() []*ProviderStats {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	result := make([]*ProviderStats, 0, len(sm.stats))
	for _, stats := range sm.stats {
		result = append(result, copyStats(stats))
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].ProviderName < result[j].ProviderName
	})
	return result
}

// String 一行摘要
func (ps *ProviderStats) String() string {
	return fmt.Sprintf("%s: %d requests (%.1f%% ok), %d chars in, avg %s",
		ps.ProviderName, ps.TotalRequests, ps.SuccessRate(), ps.CharactersIn, ps.AverageLatency)
}

func copyStats(stats *ProviderStats) *ProviderStats {
	statsCopy := *stats
	statsCopy.ErrorTypes = make(map[string]int64, len(stats.ErrorTypes))
	for k, v := range stats.ErrorTypes {
		statsCopy.ErrorTypes[k] = v
	}
	return &statsCopy
}
