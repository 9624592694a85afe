package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func (c *CLI) newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check the pipeline and print its execution order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			config, _ := cmd.Flags().GetString("config")
			order, err := c.app.Validate(cmd.Context(), config)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for i, name := range order {
				_, _ = fmt.Fprintf(out, "%3d. %s\n", i+1, name)
			}
			return nil
		},
	}
}
