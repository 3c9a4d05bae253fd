package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/nao1215/leakwatch/internal/api"
	"github.com/nao1215/leakwatch/internal/config"
	"github.com/nao1215/leakwatch/internal/lookup"
	"github.com/nao1215/leakwatch/internal/scheduler"
)

// NewServeCmd creates the serve command.
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the read API and the periodic crawler",
		Long: `Serve starts the read API and schedules a crawl every interval
(seven days by default). At most one crawl runs at a time.

API:
  GET /                                          liveness
  GET /search?email=E&phone=P&credit_card=C      findings containing any value

Examples:
  # Serve on the default address (:5000)
  leakwatch serve

  # Crawl once immediately, then daily
  leakwatch serve --run-on-start --interval 24h

  # Crawl every Monday at 03:00 UTC
  leakwatch serve --schedule "0 3 * * 1"`,
		Args: cobra.NoArgs,
		RunE: runServeCmd,
	}

	cmd.Flags().String("addr", config.DefaultAddr, "Read API listen address")
	cmd.Flags().Duration("interval", scheduler.DefaultInterval, "Spacing between crawl runs")
	cmd.Flags().String("schedule", "", "Cron expression replacing --interval")
	cmd.Flags().Bool("run-on-start", false, "Run one crawl immediately")

	return cmd
}

func runServeCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := applyServeFlags(cmd, cfg); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := newLogger(cmd)
	slog.SetDefault(logger)
	gin.SetMode(gin.ReleaseMode)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := openStore(cfg, true)
	if err != nil {
		return err
	}
	defer store.Close()
	logger.Info("database opened", "path", store.Path())

	client, err := newHTTPClient(ctx, cfg, logger)
	if err != nil {
		return err
	}

	sched, err := scheduler.New(newPipeline(cfg, client, store, logger), schedulerOptions(cfg, logger)...)
	if err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	server := api.NewServer(cfg.Addr, lookup.NewService(store), api.WithServerLogger(logger))
	ln, err := server.Listen()
	if err != nil {
		return err
	}

	return serve(ctx, ln, server, sched, logger)
}

// applyServeFlags copies explicitly set flags over the loaded configuration.
func applyServeFlags(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()
	var err error
	if flags.Changed("addr") {
		if cfg.Addr, err = flags.GetString("addr"); err != nil {
			return err
		}
	}
	if flags.Changed("interval") {
		if cfg.Interval, err = flags.GetDuration("interval"); err != nil {
			return err
		}
	}
	if flags.Changed("schedule") {
		if cfg.Schedule, err = flags.GetString("schedule"); err != nil {
			return err
		}
	}
	if flags.Changed("run-on-start") {
		if cfg.RunOnStart, err = flags.GetBool("run-on-start"); err != nil {
			return err
		}
	}
	return nil
}

func schedulerOptions(cfg *config.Config, logger *slog.Logger) []scheduler.Option {
	opts := []scheduler.Option{
		scheduler.WithInterval(cfg.Interval),
		scheduler.WithRunOnStart(cfg.RunOnStart),
		scheduler.WithLogger(logger),
	}
	if cfg.Schedule != "" {
		opts = append(opts, scheduler.WithCronSpec(cfg.Schedule))
	}
	return opts
}

// serve runs the API on ln and the scheduler until ctx is cancelled or the
// server fails, then stops both.
func serve(ctx context.Context, ln net.Listener, server *api.Server, sched *scheduler.Scheduler, logger *slog.Logger) error {
	g, gctx := errgroup.WithContext(ctx)

	if err := sched.Start(gctx); err != nil {
		_ = ln.Close()
		return err
	}

	g.Go(func() error {
		return server.Serve(ln)
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), api.DefaultShutdownTimeout)
		defer cancel()

		return errors.Join(server.Shutdown(shutdownCtx), sched.Stop(shutdownCtx))
	})

	return g.Wait()
}
