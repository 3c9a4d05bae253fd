package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/nao1215/leakwatch/internal/config"
)

// NewCrawlCmd creates the crawl command.
func NewCrawlCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "crawl",
		Short: "Run one crawl in the foreground",
		Long: `Crawl searches every topic on every allow-listed platform once, fetches
the result pages one at a time and stores pages that expose email
addresses, phone numbers or card numbers.

Examples:
  # Crawl with the configured topics
  leakwatch crawl

  # Crawl a single topic without pauses and print a Markdown summary
  leakwatch crawl --topic "India email leaks" --delay 0s --markdown`,
		Args: cobra.NoArgs,
		RunE: runCrawlCmd,
	}

	cmd.Flags().StringSlice("topic", nil, "Base search phrase (repeatable, replaces configured topics)")
	cmd.Flags().StringSlice("platform", nil, "Allow-listed host (repeatable, replaces configured platforms)")
	cmd.Flags().Int("max-results", 0, "Links collected per search query")
	cmd.Flags().Duration("delay", 0, "Pause after each processed URL")
	cmd.Flags().Duration("timeout", 0, "Per-request timeout")
	cmd.Flags().String("proxy", "", "SOCKS5 proxy address (host:port)")
	addReportFlags(cmd)

	return cmd
}

func runCrawlCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := applyCrawlFlags(cmd, cfg); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	writer, closeOutput, err := newReportWriter(cmd)
	if err != nil {
		return err
	}
	defer closeOutput()

	logger := newLogger(cmd)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := openStore(cfg, true)
	if err != nil {
		return err
	}
	defer store.Close()

	client, err := newHTTPClient(ctx, cfg, logger)
	if err != nil {
		return err
	}

	stats, runErr := newPipeline(cfg, client, store, logger).Run(ctx)
	if _, err := writer.WriteRun(stats); err != nil {
		logger.Error("failed to write run summary", "error", err)
	}
	if runErr != nil {
		return fmt.Errorf("crawl failed: %w", runErr)
	}
	return nil
}

// applyCrawlFlags copies explicitly set flags over the loaded configuration.
func applyCrawlFlags(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()
	var err error
	if flags.Changed("topic") {
		if cfg.Topics, err = flags.GetStringSlice("topic"); err != nil {
			return err
		}
	}
	if flags.Changed("platform") {
		if cfg.Platforms, err = flags.GetStringSlice("platform"); err != nil {
			return err
		}
	}
	if flags.Changed("max-results") {
		if cfg.MaxResults, err = flags.GetInt("max-results"); err != nil {
			return err
		}
	}
	if flags.Changed("delay") {
		if cfg.Delay, err = flags.GetDuration("delay"); err != nil {
			return err
		}
	}
	if flags.Changed("timeout") {
		if cfg.Timeout, err = flags.GetDuration("timeout"); err != nil {
			return err
		}
	}
	if flags.Changed("proxy") {
		if cfg.ProxyAddress, err = flags.GetString("proxy"); err != nil {
			return err
		}
	}
	return nil
}
