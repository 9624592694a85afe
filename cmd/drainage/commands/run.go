package commands

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.trai.ch/drainage/internal/app"
	"go.trai.ch/drainage/internal/core/domain"
	"go.trai.ch/drainage/internal/ui/style"
)

func (c *CLI) newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run every stage of the pipeline",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			config, _ := cmd.Flags().GetString("config")
			concurrency, _ := cmd.Flags().GetInt("concurrency")
			outputMode, _ := cmd.Flags().GetString("output-mode")
			engine, _ := cmd.Flags().GetString("engine")
			historyPath, _ := cmd.Flags().GetString("history")
			noHistory, _ := cmd.Flags().GetBool("no-history")

			report, err := c.app.Run(cmd.Context(), app.RunOptions{
				ConfigPath:  config,
				Concurrency: concurrency,
				OutputMode:  outputMode,
				Engine:      engine,
				HistoryPath: historyPath,
				NoHistory:   noHistory,
			})
			if report != nil && !report.Succeeded() {
				printSummary(cmd.ErrOrStderr(), report)
			}
			return err
		},
	}
	cmd.Flags().IntP("concurrency", "j", 0, "Maximum number of stages running at once (default: pipeline setting, then CPU count)")
	cmd.Flags().StringP("output-mode", "o", "auto", "Output mode: auto, tui or linear")
	cmd.Flags().String("engine", app.EngineQGIS, "Processing engine: qgis or dry-run")
	cmd.Flags().String("history", "", "Run history database (default: .drainage/history.db under the pipeline root)")
	cmd.Flags().Bool("no-history", false, "Do not record this run")
	return cmd
}

// printSummary lists every failed and canceled stage by id.
func printSummary(w io.Writer, report *domain.Report) {
	failed, canceled := report.Failed(), report.Canceled()
	_, _ = fmt.Fprintf(w, "\npipeline %s: %d failed, %d canceled\n", report.Outcome(), len(failed), len(canceled))
	for _, t := range failed {
		_, _ = fmt.Fprintf(w, "  %s %s: %v\n", style.Cross, t.ID, t.Cause)
	}
	for _, t := range canceled {
		_, _ = fmt.Fprintf(w, "  %s %s: canceled\n", style.Skip, t.ID)
	}
}
