package cli

import (
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-runewidth"

	"github.com/nerdneilsfield/go-transflow/internal/transflow"
	"github.com/nerdneilsfield/go-transflow/pkg/providers/factory"
	"github.com/nerdneilsfield/go-transflow/pkg/providers/stats"
)

// previewWidth 汇总表中文本预览的显示宽度
const previewWidth = 60

// printSummary 在 stderr 输出本次运行的状态行和汇总表
func printSummary(w io.Writer, result *transflow.Result, providerName string, providerStats []*stats.ProviderStats, errorCounts map[string]int) {
	fmt.Fprintln(w)
	switch {
	case !result.Success:
		color.New(color.FgRed, color.Bold).Fprintf(w, "✗ %s\n", result.ErrorMessage)
	case result.Challenged:
		color.New(color.FgYellow, color.Bold).Fprintln(w, "⚠ page still shows an anti-bot challenge, content may be incomplete")
	case result.Translated() && result.Stats.Untranslated > 0:
		color.New(color.FgYellow).Fprintf(w, "⚠ %d of %d text nodes were left untranslated\n", result.Stats.Untranslated, result.Stats.Nodes)
	default:
		color.New(color.FgGreen, color.Bold).Fprintln(w, "✓ done")
	}

	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.AppendHeader(table.Row{"项", "值"})
	tw.AppendRow(table.Row{"Run ID", result.RunID})
	tw.AppendRow(table.Row{"URL", preview(result.OriginalURL)})
	if result.FinalURL != "" && result.FinalURL != result.OriginalURL {
		tw.AppendRow(table.Row{"Final URL", preview(result.FinalURL)})
	}
	tw.AppendRow(table.Row{"语言", fmt.Sprintf("%s → %s", orDash(result.SourceLang), orDash(result.TargetLang))})
	if result.GlossaryID != "" {
		tw.AppendRow(table.Row{"术语表", result.GlossaryID})
	}
	tw.AppendRow(table.Row{"HTML / CSS", fmt.Sprintf("%d / %d bytes", len(result.OriginalHTML), len(result.CSS))})
	tw.AppendRow(table.Row{"原文", preview(result.OriginalText)})

	if result.Translated() {
		s := result.Stats
		tw.AppendSeparator()
		tw.AppendRow(table.Row{"译文", preview(*result.TranslatedText)})
		tw.AppendRow(table.Row{"节点 / 分组", fmt.Sprintf("%d / %d", s.Nodes, s.Groups)})
		tw.AppendRow(table.Row{"整组成功 / 回退", fmt.Sprintf("%d / %d", s.GroupsTranslated, s.FallbackGroups)})
		tw.AppendRow(table.Row{"节点失败 / 未翻译", fmt.Sprintf("%d / %d", s.NodesFailed, s.Untranslated)})
		tw.AppendRow(table.Row{"成功率", fmt.Sprintf("%.1f%%", s.SuccessRate())})
	}

	for _, ps := range providerStats {
		if ps.TotalRequests == 0 {
			continue
		}
		tw.AppendSeparator()
		tw.AppendRow(table.Row{fmt.Sprintf("%s 请求", ps.ProviderName), fmt.Sprintf("%d (失败 %d, 批量 %d)", ps.TotalRequests, ps.FailedRequests, ps.BatchRequests)})
		tw.AppendRow(table.Row{fmt.Sprintf("%s 字符", ps.ProviderName), fmt.Sprintf("%d → %d", ps.CharactersIn, ps.CharactersOut)})
		tw.AppendRow(table.Row{fmt.Sprintf("%s 平均延迟", ps.ProviderName), formatDuration(ps.AverageLatency)})
	}
	if len(providerStats) == 0 && result.Translated() {
		tw.AppendRow(table.Row{"提供商", providerName})
	}
	if len(errorCounts) > 0 {
		tw.AppendRow(table.Row{"提供商错误", formatErrorCounts(errorCounts)})
	}

	tw.AppendSeparator()
	tw.AppendRow(table.Row{"总耗时", formatDuration(result.Duration)})

	tw.SetStyle(table.StyleLight)
	tw.SetColumnConfigs([]table.ColumnConfig{{Number: 1, Align: text.AlignRight}})
	tw.Render()
}

// renderProviders 输出提供商列表
func renderProviders(w io.Writer, infos []factory.ProviderInfo) {
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.AppendHeader(table.Row{"Name", "Description", "API Key", "Batch", "Glossary", "Max Length"})
	for _, info := range infos {
		tw.AppendRow(table.Row{info.Name, info.Description, yesNo(info.RequiresAPIKey), yesNo(info.SupportsBatch), yesNo(info.Glossary), info.MaxTextLength})
	}
	tw.SetStyle(table.StyleLight)
	tw.Render()
}

// formatErrorCounts 按错误代码排序输出，如 PROVIDER_ERROR×2
func formatErrorCounts(counts map[string]int) string {
	parts := make([]string, 0, len(counts))
	for _, code := range slices.Sorted(maps.Keys(counts)) {
		parts = append(parts, fmt.Sprintf("%s×%d", code, counts[code]))
	}
	return strings.Join(parts, ", ")
}

// preview 按显示宽度截断，CJK 字符占两列
func preview(s string) string {
	if s == "" {
		return "-"
	}
	return runewidth.Truncate(s, previewWidth, "…")
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "-"
}

// formatDuration 格式化时间间隔
func formatDuration(d time.Duration) string {
	switch {
	case d < time.Second:
		return fmt.Sprintf("%dms", d.Milliseconds())
	case d < time.Minute:
		return fmt.Sprintf("%.1fs", d.Seconds())
	default:
		return d.Round(time.Second).String()
	}
}
