package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for leakwatch.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "leakwatch",
		Short: "Monitor public paste sites for leaked personal data",
		Long: `leakwatch searches public paste and code-sharing sites for pages that
expose email addresses, phone numbers and credit card numbers.

Findings are stored in a local SQLite database and can be looked up from
the command line or through the read API started by "leakwatch serve".`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")
	cmd.PersistentFlags().StringP("config", "c", "",
		"Configuration file path (default: .leakwatch in current or home directory)")
	cmd.PersistentFlags().Bool("log-json", false, "Write logs as JSON")

	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewCrawlCmd())
	cmd.AddCommand(NewLookupCmd())
	cmd.AddCommand(NewReportCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
