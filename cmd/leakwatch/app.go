package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/nao1215/leakwatch/internal/config"
	"github.com/nao1215/leakwatch/internal/crawler"
	"github.com/nao1215/leakwatch/internal/database"
	"github.com/nao1215/leakwatch/internal/extract"
	"github.com/nao1215/leakwatch/internal/log"
	"github.com/nao1215/leakwatch/internal/pipeline"
	"github.com/nao1215/leakwatch/internal/report"
	"github.com/nao1215/leakwatch/internal/transport"
)

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		return false
	}
	return verbose
}

// newLogger builds the redacting logger selected by the global flags.
// Logs go to the command's error stream so that reports on stdout stay clean.
func newLogger(cmd *cobra.Command) *slog.Logger {
	verbose := getVerboseFlag(cmd)
	jsonLogs, err := cmd.Flags().GetBool("log-json")
	if err == nil && jsonLogs {
		return log.NewSecureJSONLogger(cmd.ErrOrStderr(), verbose)
	}
	return log.NewSecureLogger(cmd.ErrOrStderr(), verbose)
}

// loadConfig resolves the effective configuration for cmd: defaults, the
// configuration file, then environment overrides. Command flags are applied
// by the caller.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return cfg, nil
}

// openStore opens the database in cfg.DBDir. Read-only commands pass
// create=false so that a missing database is reported instead of created.
func openStore(cfg *config.Config, create bool) (*database.LeakDB, error) {
	opts := database.DefaultOptions()
	opts.CreateIfNotExists = create

	db, err := database.Open(cfg.DBDir, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return db, nil
}

// newHTTPClient builds the outbound client. A configured proxy is verified
// before it is used.
func newHTTPClient(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*http.Client, error) {
	if cfg.ProxyAddress != "" {
		status := transport.CheckProxy(ctx, cfg.ProxyAddress)
		if status != transport.ProxyStatusOK {
			return nil, fmt.Errorf("proxy check failed for %s: %w", cfg.ProxyAddress, status.Err())
		}
		logger.Info("proxy connection verified", "address", cfg.ProxyAddress)
	}

	client, err := transport.NewHTTPClient(transport.Options{
		ProxyAddress: cfg.ProxyAddress,
		Timeout:      cfg.Timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP client: %w", err)
	}
	return client, nil
}

// newPipeline wires the crawl pipeline from cfg.
func newPipeline(cfg *config.Config, client *http.Client, store pipeline.Store, logger *slog.Logger) *pipeline.Pipeline {
	searcher := crawler.NewSearchClient(client,
		crawler.WithSearchEndpoint(cfg.SearchEndpoint),
		crawler.WithSearchUserAgent(cfg.UserAgent),
		crawler.WithSearchTimeout(cfg.Timeout),
		crawler.WithSearchMaxBodySize(cfg.MaxBodySize),
		crawler.WithSearchInterval(cfg.SearchInterval),
	)
	fetcher := crawler.NewFetcher(client,
		crawler.WithFetcherUserAgent(cfg.UserAgent),
		crawler.WithFetcherTimeout(cfg.Timeout),
		crawler.WithFetcherMaxBodySize(cfg.MaxBodySize),
	)

	return pipeline.New(searcher, fetcher, extract.New(), store,
		pipeline.WithLogger(logger),
		pipeline.WithTopics(cfg.Topics),
		pipeline.WithPlatforms(cfg.Platforms),
		pipeline.WithMaxResults(cfg.MaxResults),
		pipeline.WithDelay(cfg.Delay),
	)
}

// addReportFlags registers the output format flags shared by the
// reporting commands.
func addReportFlags(cmd *cobra.Command) {
	cmd.Flags().BoolP("json", "j", false,
		"Output JSON (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown (mutually exclusive with --json)")
	cmd.Flags().StringP("output", "o", "",
		"Write output to the specified file path (creates directories if needed)")
}

// reportFormat reads the output format flags.
func reportFormat(cmd *cobra.Command) (report.Format, error) {
	jsonReport, err := cmd.Flags().GetBool("json")
	if err != nil {
		return report.FormatText, err
	}
	markdownReport, err := cmd.Flags().GetBool("markdown")
	if err != nil {
		return report.FormatText, err
	}
	if err := config.ValidateReportFormat(jsonReport, markdownReport); err != nil {
		return report.FormatText, err
	}

	switch {
	case jsonReport:
		return report.FormatJSON, nil
	case markdownReport:
		return report.FormatMarkdown, nil
	default:
		return report.FormatText, nil
	}
}

// newReportWriter returns the writer selected by the report flags and a
// function that closes the output file, if one was opened.
func newReportWriter(cmd *cobra.Command) (report.Writer, func() error, error) {
	format, err := reportFormat(cmd)
	if err != nil {
		return nil, nil, err
	}
	path, err := cmd.Flags().GetString("output")
	if err != nil {
		return nil, nil, err
	}

	output, closeFn, err := openOutput(cmd.OutOrStdout(), path)
	if err != nil {
		return nil, nil, err
	}
	return report.New(format, output), closeFn, nil
}

// openOutput returns stdout when path is empty, otherwise the created file.
// Reports hold leaked values, so files are created with 0600.
func openOutput(stdout io.Writer, path string) (io.Writer, func() error, error) {
	if path == "" {
		return stdout, func() error { return nil }, nil
	}

	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600) //nolint:gosec // User-provided output path is intentional
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return f, f.Close, nil
}
