package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nao1215/leakwatch/internal/model"
)

// defaultRecentLimit is the number of recent findings listed by "report".
const defaultRecentLimit = 10

// NewReportCmd creates the report command.
func NewReportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Summarize the stored findings",
		Long: `Report prints store statistics: counts per category, the most productive
search topics and the most recent findings.

Examples:
  leakwatch report
  leakwatch report --markdown -o report.md
  leakwatch report --json --limit 0`,
		Args: cobra.NoArgs,
		RunE: runReportCmd,
	}

	cmd.Flags().IntP("limit", "n", defaultRecentLimit, "Number of recent findings to include (0 for none)")
	addReportFlags(cmd)

	return cmd
}

func runReportCmd(cmd *cobra.Command, _ []string) error {
	limit, err := cmd.Flags().GetInt("limit")
	if err != nil {
		return err
	}
	if limit < 0 {
		return fmt.Errorf("invalid limit %d: must be non-negative", limit)
	}

	writer, closeOutput, err := newReportWriter(cmd)
	if err != nil {
		return err
	}
	defer closeOutput()

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	store, err := openStore(cfg, false)
	if err != nil {
		return err
	}
	defer store.Close()

	ctx := cmd.Context()
	stats, err := store.Stats(ctx)
	if err != nil {
		return err
	}

	var recent []model.Finding
	if limit > 0 {
		if recent, err = store.List(ctx, limit); err != nil {
			return err
		}
	}

	_, err = writer.WriteStats(stats, recent)
	return err
}
