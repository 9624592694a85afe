package commands

import (
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"go.trai.ch/drainage/internal/app"
)

func (c *CLI) newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List past runs of the pipeline",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			config, _ := cmd.Flags().GetString("config")
			historyPath, _ := cmd.Flags().GetString("history")
			limit, _ := cmd.Flags().GetInt("limit")

			runs, err := c.app.History(cmd.Context(), app.HistoryOptions{
				ConfigPath:  config,
				HistoryPath: historyPath,
				Limit:       limit,
			})
			if err != nil {
				return err
			}
			if len(runs) == 0 {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "no runs recorded")
				return nil
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			_, _ = fmt.Fprintln(w, "EXECUTION\tSTARTED\tDURATION\tOUTCOME\tSTAGES\tFAILED")
			for _, r := range runs {
				_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%s\n",
					r.ExecutionID,
					r.Started.Local().Format(time.DateTime),
					r.Finished.Sub(r.Started).Round(time.Millisecond),
					r.Outcome,
					r.Tasks,
					strings.Join(r.Failed, ","),
				)
			}
			return w.Flush()
		},
	}
	cmd.Flags().String("history", "", "Run history database (default: .drainage/history.db under the pipeline root)")
	cmd.Flags().IntP("limit", "n", 20, "Number of runs to show; 0 shows all")
	return cmd
}
