package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/nerdneilsfield/go-transflow/internal/config"
	"github.com/nerdneilsfield/go-transflow/internal/transflow"
	"github.com/nerdneilsfield/go-transflow/pkg/providers/factory"
	"github.com/nerdneilsfield/go-transflow/pkg/translation"
)

// ErrRequestFailed 请求失败，结果与汇总已经输出，只需要非零退出码
var ErrRequestFailed = errors.New("request failed")

func newPageCommand() *cobra.Command {
	flags := &runFlags{}
	cmd := &cobra.Command{
		Use:   "page URL",
		Short: "抓取并翻译网页",
		Example: `  transflow page https://example.com/article --to KO
  transflow page https://example.com/article --to ja -o out --format html`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, rt, err := setup(flags)
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			ctx, cancel := signalContext(cmd.Context())
			defer cancel()

			progress := newGroupProgress(cmd.ErrOrStderr(), flags.quiet)
			result := rt.Service.TranslatePage(ctx, transflow.PageRequest{
				URL:        args[0],
				SourceLang: cfg.SourceLang,
				TargetLang: cfg.TargetLang,
				GlossaryID: flags.glossary,
				OnProgress: progress.Update,
			})
			progress.Stop()

			return finish(cmd, flags, result, rt)
		},
	}
	flags.register(cmd)
	return cmd
}

func newHTMLCommand() *cobra.Command {
	flags := &runFlags{}
	cmd := &cobra.Command{
		Use:     "html FILE",
		Short:   "翻译本地 HTML 文件，- 表示标准输入",
		Example: `  transflow html saved.html --to de --format html > saved.de.html`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			content, err := readInput(cmd, args[0])
			if err != nil {
				return err
			}

			cfg, log, rt, err := setup(flags)
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			ctx, cancel := signalContext(cmd.Context())
			defer cancel()

			progress := newGroupProgress(cmd.ErrOrStderr(), flags.quiet)
			result := rt.Service.TranslateHTMLDirectly(ctx, transflow.HTMLRequest{
				HTML:       content,
				SourceLang: cfg.SourceLang,
				TargetLang: cfg.TargetLang,
				GlossaryID: flags.glossary,
				OnProgress: progress.Update,
			})
			progress.Stop()

			return finish(cmd, flags, result, rt)
		},
	}
	flags.register(cmd)
	return cmd
}

func newFetchCommand() *cobra.Command {
	flags := &runFlags{}
	cmd := &cobra.Command{
		Use:     "fetch URL",
		Short:   "只抓取网页（HTML、CSS 和纯文本），不翻译",
		Example: `  transflow fetch https://example.com -o page --format html`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, log, rt, err := setup(flags)
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			ctx, cancel := signalContext(cmd.Context())
			defer cancel()

			result := rt.Service.TranslatePage(ctx, transflow.PageRequest{
				URL:        args[0],
				TargetLang: config.NoTranslationSentinel,
			})
			return finish(cmd, flags, result, rt)
		},
	}
	flags.register(cmd)
	return cmd
}

func newTextCommand() *cobra.Command {
	flags := &runFlags{}
	cmd := &cobra.Command{
		Use:   "text TEXT...",
		Short: "直接翻译纯文本，多个参数作为一批翻译，每行输出一条",
		Example: `  transflow text --to fr "Hello world"
  transflow text --to de "Good morning" "Good night"`,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, rt, err := setup(flags)
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			ctx, cancel := signalContext(cmd.Context())
			defer cancel()

			glossaryID := flags.glossary
			if glossaryID == "" {
				if glossaryID, err = rt.Glossary.GlossaryID(ctx, cfg.SourceLang, cfg.TargetLang); err != nil {
					log.Warn("glossary lookup failed", zap.Error(err))
				}
			}

			if len(args) == 1 {
				out, err := rt.Translation.Translate(ctx, translation.Unit{
					SourceLang: cfg.SourceLang,
					TargetLang: cfg.TargetLang,
					GlossaryID: glossaryID,
					Text:       args[0],
				})
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), out)
				return nil
			}

			outs, err := rt.Translation.TranslateBatch(ctx, translation.BatchUnit{
				SourceLang: cfg.SourceLang,
				TargetLang: cfg.TargetLang,
				GlossaryID: glossaryID,
				Texts:      args,
			})
			if err != nil {
				return err
			}
			for _, out := range outs {
				fmt.Fprintln(cmd.OutOrStdout(), out)
			}
			return nil
		},
	}
	flags.register(cmd)
	return cmd
}

func newConfigCommand() *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "配置相关命令",
	}
	configCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "以 YAML 显示生效的配置（隐藏 API 密钥）",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(nil)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			return writeConfig(cmd.OutOrStdout(), cfg)
		},
	})
	configCmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "显示默认配置文件路径",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), config.DefaultConfigPath())
		},
	})
	return configCmd
}

func newProvidersCommand() *cobra.Command {
	providersCmd := &cobra.Command{
		Use:   "providers",
		Short: "列出支持的翻译提供商",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			renderProviders(cmd.OutOrStdout(), factory.DefaultFactory.GetSupportedProviders())
		},
	}
	providersCmd.AddCommand(newProvidersCheckCommand())
	return providersCmd
}

func newProvidersCheckCommand() *cobra.Command {
	flags := &runFlags{}
	var timeout time.Duration
	cmd := &cobra.Command{
		Use:     "check",
		Short:   "对配置的提供商做一次健康检查",
		Example: `  transflow providers check --provider deepl`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, log, rt, err := setup(flags)
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			ctx, cancel := signalContext(cmd.Context())
			defer cancel()
			ctx, cancelTimeout := context.WithTimeout(ctx, timeout)
			defer cancelTimeout()

			caps := rt.Provider.GetCapabilities()
			log.Debug("checking provider",
				zap.String("provider", rt.ProviderName),
				zap.Int("maxTextLength", caps.MaxTextLength),
				zap.Bool("batch", caps.SupportsBatch))

			if err := rt.Provider.HealthCheck(ctx); err != nil {
				color.New(color.FgRed, color.Bold).Fprintf(cmd.ErrOrStderr(), "✗ %s: %v\n", rt.ProviderName, err)
				return fmt.Errorf("%w: %s health check", ErrRequestFailed, rt.ProviderName)
			}
			color.New(color.FgGreen, color.Bold).Fprintf(cmd.OutOrStdout(), "✓ %s is healthy\n", rt.ProviderName)
			return nil
		},
	}
	flags.register(cmd)
	cmd.Flags().DurationVar(&timeout, "timeout", 30*time.Second, "健康检查超时")
	return cmd
}

// finish 输出结果和汇总，失败时返回非零退出码
func finish(cmd *cobra.Command, flags *runFlags, result *transflow.Result, rt *transflow.Runtime) error {
	if err := writeResult(cmd.OutOrStdout(), flags, result); err != nil {
		return err
	}
	switch {
	case !flags.quiet:
		printSummary(cmd.ErrOrStderr(), result, rt.ProviderName, rt.Stats.GetAllStats(), rt.Errors.Counts())
	case !result.Success:
		fmt.Fprintln(cmd.ErrOrStderr(), result.ErrorMessage)
	}
	if !result.Success {
		return fmt.Errorf("%w: %s", ErrRequestFailed, result.ErrorMessage)
	}
	return nil
}

func readInput(cmd *cobra.Command, path string) (string, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(cmd.InOrStdin())
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}
	return string(data), nil
}

// writeConfig 以 YAML 输出配置，密钥打码
func writeConfig(w io.Writer, cfg *config.Config) error {
	masked := *cfg
	masked.Provider.APIKey = maskSecret(cfg.Provider.APIKey)

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(&masked); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return enc.Close()
}

func maskSecret(secret string) string {
	if secret == "" {
		return ""
	}
	if len(secret) <= 8 {
		return strings.Repeat("*", len(secret))
	}
	return secret[:4] + strings.Repeat("*", len(secret)-8) + secret[len(secret)-4:]
}
