package main

import (
	"errors"
	"os"

	"github.com/fatih/color"

	"github.com/nerdneilsfield/go-transflow/internal/cli"
)

// Version information
var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)

func main() {
	rootCmd := cli.NewRootCommand(Version, Commit, BuildDate)

	if err := rootCmd.Execute(); err != nil {
		// 请求失败时结果和汇总已经输出
		if !errors.Is(err, cli.ErrRequestFailed) {
			color.New(color.FgRed).Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}
