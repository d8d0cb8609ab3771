package main

import (
	"fmt"
	"os"

	"campaignflow/internal/cli"
	"campaignflow/internal/config"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:           "campaignctl",
	Short:         "campaignflow 命令行客户端",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func main() {
	_, _ = config.LoadEnvFile()
	cli.SetupCLI(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
