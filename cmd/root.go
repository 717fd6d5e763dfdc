// Package cmd defines and implements the CLI commands for the dictcrawler
// executable.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/JakeFAU/dictcrawler/internal/app"
	"github.com/JakeFAU/dictcrawler/internal/config"
	"github.com/JakeFAU/dictcrawler/internal/id/uuid"
	"github.com/JakeFAU/dictcrawler/internal/logging"
)

type appKeyType string

const appKey appKeyType = "app"

type rootOptions struct {
	configPath string
	workers    int
}

// newApp is the application factory. It's a variable so tests can swap in
// a different configuration or logger.
var newApp = func(ctx context.Context, cfg config.Config, logger *zap.Logger) (*app.App, error) {
	return app.New(ctx, cfg, logger)
}

// newLogger is swapped in tests to silence output.
var newLogger = logging.New

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:   "dictcrawler",
		Short: "Crawls dictionary pages for pronunciations and audio.",
		Long: `dictcrawler reads a word list, looks every unprocessed word up on an
online dictionary, downloads the US and UK pronunciation audio and stores one
record per word. Words already stored are skipped, so runs can be repeated.`,
		SilenceUsage: true,

		// Runs before any subcommand: load config, build the logger and the
		// application services, and stash them in the context.
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(opts.configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if cmd.Flags().Changed("workers") {
				if opts.workers <= 0 {
					return fmt.Errorf("--workers must be > 0")
				}
				cfg.Crawler.WorkerCount = opts.workers
			}

			logger, err := newLogger(cfg.Logging.Development)
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}
			runID, err := uuid.New().NewID()
			if err != nil {
				return err
			}
			logger = logging.ForRun(logger, runID)

			appInstance, err := newApp(cmd.Context(), cfg, logger)
			if err != nil {
				return fmt.Errorf("failed to initialize application services: %w", err)
			}
			cmd.SetContext(context.WithValue(cmd.Context(), appKey, appInstance))
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "config file (yaml, json or toml)")
	cmd.PersistentFlags().IntVar(&opts.workers, "workers", 0, "override crawler.worker_count")

	cmd.AddCommand(newCrawlCmd(), newStatsCmd())
	return cmd
}

func resolveApp(ctx context.Context) (*app.App, error) {
	appInstance, ok := ctx.Value(appKey).(*app.App)
	if !ok || appInstance == nil {
		return nil, errors.New("application services not initialized")
	}
	return appInstance, nil
}

// withApp adapts fn into a RunE. The services are released once fn returns,
// whether or not it failed; cobra skips post-run hooks after an error.
func withApp(fn func(cmd *cobra.Command, appInstance *app.App) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		appInstance, err := resolveApp(cmd.Context())
		if err != nil {
			return err
		}
		defer closeApp(appInstance)
		return fn(cmd, appInstance)
	}
}

func closeApp(appInstance *app.App) {
	if err := appInstance.Close(); err != nil {
		appInstance.Logger().Warn("close services", zap.Error(err))
	}
	_ = appInstance.Logger().Sync()
}

// Execute runs the CLI and returns the process exit code. SIGINT and SIGTERM
// cancel the command context so in-flight words can finish.
func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "dictcrawler: %v\n", err)
		return 1
	}
	return 0
}
