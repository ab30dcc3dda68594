package cmd

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var exitWords = map[string]bool{"exit": true, "quit": true, "退出": true}

func newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Start an interactive analysis session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			a, err := wireApp(ctx, transcriptPrinter(out))
			if err != nil {
				return err
			}
			defer a.Close()
			a.serveMetrics(ctx)

			fmt.Fprintln(out, "Financial analysis swarm ready. Type exit to leave.")
			scanner := bufio.NewScanner(cmd.InOrStdin())
			scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
			for {
				fmt.Fprint(out, "\n> ")
				if !scanner.Scan() {
					break
				}
				line := strings.TrimSpace(scanner.Text())
				if line == "" {
					continue
				}
				if exitWords[strings.ToLower(line)] {
					break
				}

				res, err := a.orchestrator.RunTurn(ctx, line)
				if err != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "turn failed: %v\n", err)
					if ctx.Err() != nil {
						return ctx.Err()
					}
					continue
				}
				printResult(out, res)
			}
			return scanner.Err()
		},
	}
}
