// Package main provides the ossgrade CLI entry point.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var g globalOpts

	rootCmd := &cobra.Command{
		Use:   "ossgrade",
		Short: "Grade open source projects against a labeled reference set",
		Long: `ossgrade learns per-grade metric thresholds from projects labeled A to E,
then grades any project's popularity, maintenance and maturity against them.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&g.configPath, "config", "", "Path to config file (default: .ossgrade/config.yaml in this or a parent directory)")
	rootCmd.PersistentFlags().StringVar(&g.dataDir, "data-dir", "", "Override the local storage directory")

	rootCmd.AddCommand(
		newImportCmd(&g),
		newTrainCmd(&g),
		newGradeCmd(&g),
		newCheckCmd(&g),
		newThresholdsCmd(&g),
	)
	return rootCmd
}
