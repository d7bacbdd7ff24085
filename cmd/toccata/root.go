package main

import (
	"github.com/spf13/cobra"

	"github.com/jackzampolin/toccata/internal/api"
	"github.com/jackzampolin/toccata/version"
)

var (
	cfgFile      string
	homeDir      string
	outputFormat string
)

var rootCmd = &cobra.Command{
	Use:   "toccata",
	Short: "Table of contents extraction for scanned book PDFs",
	Long: `Toccata extracts the table of contents from scanned book PDFs using a
two-pass LLM pipeline.

The pipeline includes:
  - Lead page rendering via pdftoppm
  - Chunked discovery pass with a fast vision model
  - Single verification pass on candidate pages with a stronger model
  - Optional reconciliation against externally detected headings`,
	Version: version.GitRelease,
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile, "config", "", "config file (default: ./config.yaml or ~/.toccata/config.yaml)",
	)
	rootCmd.PersistentFlags().StringVar(
		&homeDir, "home", "", "toccata home directory (default: ~/.toccata)",
	)
	rootCmd.PersistentFlags().StringVarP(
		&outputFormat, "output", "o", "yaml", "output format: yaml or json",
	)

	// Set output format before any command runs
	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		api.SetOutputFormat(outputFormat)
	}

	rootCmd.AddCommand(versionCmd)
}
