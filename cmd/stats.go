package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/JakeFAU/dictcrawler/internal/app"
	"github.com/JakeFAU/dictcrawler/internal/workset"
)

func newStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Print how many words are stored and how many remain",
		RunE: withApp(func(cmd *cobra.Command, appInstance *app.App) error {
			_, stats, err := workset.Compute(cmd.Context(), appInstance.Source(), appInstance.Store())
			if err != nil {
				return fmt.Errorf("compute work set: %w", err)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "input lines:   %d\n", stats.Input)
			fmt.Fprintf(out, "stored words:  %d\n", stats.Processed)
			fmt.Fprintf(out, "pending words: %d\n", stats.Pending)
			return nil
		}),
	}
}
