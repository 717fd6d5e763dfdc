package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/JakeFAU/dictcrawler/internal/app"
	"github.com/JakeFAU/dictcrawler/internal/metrics"
	"github.com/JakeFAU/dictcrawler/internal/scheduler"
	"github.com/JakeFAU/dictcrawler/internal/workset"
)

func newCrawlCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "crawl",
		Short: "Look up every unprocessed word and store the results",
		Long: `Computes the words in the input file that are not yet stored, then
drains them with a fixed pool of workers. Individual word failures are logged
and do not fail the command.`,
		RunE: withApp(runCrawlCommand),
	}
}

func runCrawlCommand(cmd *cobra.Command, appInstance *app.App) error {
	_, err := crawl(cmd.Context(), appInstance)
	return err
}

func crawl(ctx context.Context, appInstance *app.App) (scheduler.Summary, error) {
	cfg := appInstance.Config()
	logger := appInstance.Logger()

	set, stats, err := workset.Compute(ctx, appInstance.Source(), appInstance.Store())
	if err != nil {
		return scheduler.Summary{}, fmt.Errorf("compute work set: %w", err)
	}
	logger.Info("work set computed",
		zap.Int("words", stats.Pending),
		zap.Int("input", stats.Input),
		zap.Int("processed", stats.Processed),
		zap.String("input_path", appInstance.Source().Path()),
	)

	wordJob, err := appInstance.Pipeline(ctx)
	if err != nil {
		return scheduler.Summary{}, err
	}

	if cfg.Metrics.Enabled {
		srv := metrics.NewServer(cfg.Metrics.Port)
		go func() {
			logger.Info("metrics listening", zap.String("addr", srv.Addr))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("metrics server failed", zap.Error(err))
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	start := time.Now()
	summary := scheduler.New(wordJob, logger).Run(ctx, set, cfg.Crawler.WorkerCount)
	logger.Info("crawl finished",
		zap.Int("processed", summary.Processed),
		zap.Int("failed", summary.Failed),
		zap.Int("remaining", set.Len()),
		zap.Duration("elapsed", time.Since(start)),
		zap.Bool("interrupted", ctx.Err() != nil),
	)
	return summary, nil
}
