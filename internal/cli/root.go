// Package cli 实现 transflow 命令行界面
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/nerdneilsfield/go-transflow/internal/config"
	"github.com/nerdneilsfield/go-transflow/internal/logger"
	"github.com/nerdneilsfield/go-transflow/internal/transflow"
)

var (
	// 全局标志
	cfgFile     string
	debugMode   bool
	verboseMode bool
)

// runFlags 翻译类子命令共用的标志
type runFlags struct {
	from        string
	to          string
	glossary    string
	provider    string
	engine      string
	out         string
	format      string
	concurrency int
	quiet       bool
}

func (f *runFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.from, "from", "s", "", "源语言（默认取配置 source_lang）")
	cmd.Flags().StringVarP(&f.to, "to", "t", "", "目标语言，NONE 表示只抓取（默认取配置 target_lang）")
	cmd.Flags().StringVarP(&f.glossary, "glossary", "g", "", "DeepL 术语表 ID，留空则按语言对查找")
	cmd.Flags().StringVarP(&f.provider, "provider", "p", "", "翻译提供商 (deepl, deeplx, google, libretranslate, openai, raw)")
	cmd.Flags().StringVar(&f.engine, "engine", "", "浏览器引擎 (rod, chromedp)")
	cmd.Flags().StringVarP(&f.out, "out", "o", "", "输出目录，留空则写到标准输出")
	cmd.Flags().StringVarP(&f.format, "format", "f", formatJSON, "输出格式 (json, html, markdown)")
	cmd.Flags().IntVarP(&f.concurrency, "concurrency", "c", 0, "并行翻译的组数")
	cmd.Flags().BoolVarP(&f.quiet, "quiet", "q", false, "不显示进度条和汇总")
}

// NewRootCommand 创建根命令
func NewRootCommand(version, commit, buildDate string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "transflow",
		Short: "抓取网页并在保留 HTML 结构的前提下翻译",
		Long: `transflow 使用无头浏览器抓取网页（自动等待反爬验证页），收集页面样式，
然后按段落上下文分组翻译文本节点，并把译文按比例写回原有的内联标记中。

支持的翻译提供商:
  - deepl: DeepL API（支持术语表和批量）
  - deeplx: 自建 DeepLX 服务
  - google: Google Cloud Translation
  - libretranslate: LibreTranslate
  - openai: OpenAI 兼容接口
  - raw: 原样返回，用于调试`,
		Version:       fmt.Sprintf("%s (commit %s, built %s)", version, commit, buildDate),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "配置文件路径（默认 $HOME/.transflow.yaml）")
	rootCmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "启用调试日志")
	rootCmd.PersistentFlags().BoolVarP(&verboseMode, "verbose", "v", false, "使用开发模式的彩色日志")

	rootCmd.AddCommand(
		newPageCommand(),
		newHTMLCommand(),
		newFetchCommand(),
		newTextCommand(),
		newConfigCommand(),
		newProvidersCommand(),
	)
	return rootCmd
}

// signalContext 收到 Ctrl+C 时取消
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

// loadConfig 加载配置并应用命令行覆盖
func loadConfig(f *runFlags) (*config.Config, error) {
	cfg, err := config.LoadConfig(cfgFile)
	if err != nil {
		return nil, err
	}
	if err := applyFlags(cfg, f); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyFlags 命令行标志优先于配置文件和环境变量
func applyFlags(cfg *config.Config, f *runFlags) error {
	cfg.Debug = cfg.Debug || debugMode
	cfg.Verbose = cfg.Verbose || verboseMode
	if f == nil {
		return nil
	}
	if f.from != "" {
		cfg.SourceLang = f.from
	}
	if f.to != "" {
		cfg.TargetLang = f.to
	}
	if f.provider != "" {
		cfg.Provider.Type = strings.ToLower(f.provider)
	}
	if f.engine != "" {
		cfg.Browser.Engine = strings.ToLower(f.engine)
	}
	if f.concurrency > 0 {
		cfg.Translate.Concurrency = f.concurrency
	}
	if err := validateFormat(f.format); err != nil {
		return err
	}
	return cfg.Validate()
}

// setup 加载配置、创建日志并组装运行时
func setup(f *runFlags) (*config.Config, *zap.Logger, *transflow.Runtime, error) {
	cfg, err := loadConfig(f)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	log := logger.NewLoggerWithVerbose(cfg.Debug, cfg.Verbose)
	rt, err := transflow.NewFromConfig(cfg, log)
	if err != nil {
		_ = log.Sync()
		return nil, nil, nil, err
	}
	return cfg, log, rt, nil
}
