package cmd

import (
	"strings"

	"github.com/spf13/cobra"
)

func newAskCmd() *cobra.Command {
	var quiet bool

	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: "Run a single turn and print the reply",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			observer := transcriptPrinter(out)
			if quiet {
				observer = nil
			}
			a, err := wireApp(ctx, observer)
			if err != nil {
				return err
			}
			defer a.Close()

			res, err := a.orchestrator.RunTurn(ctx, strings.Join(args, " "))
			if err != nil {
				return err
			}
			printResult(out, res)
			return res.Err()
		},
	}
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "only print the final reply")
	return cmd
}
