package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tanpawarit/Financial-Swarm-Analyst/agent/tool"
	openrouterx "github.com/tanpawarit/Financial-Swarm-Analyst/pkg/openrouter"
)

func newCheckCmd() *cobra.Command {
	var offline bool

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Validate configuration, the worker roster and the model endpoint",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			a, err := wireBase(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			fmt.Fprintf(out, "entry worker: %s\n", a.registry.Entry())
			for _, id := range a.registry.IDs() {
				w, _ := a.registry.Worker(id)
				handoffs := make([]string, len(w.Handoffs))
				for i, h := range w.Handoffs {
					handoffs[i] = string(h)
				}
				fmt.Fprintf(out, "  %s handoffs=[%s] tools=[%s]\n",
					id, strings.Join(handoffs, ", "), strings.Join(w.Tools, ", "))
			}

			listing, err := tool.ListTables(ctx, a.store)
			if err != nil {
				return fmt.Errorf("list tables: %w", err)
			}
			fmt.Fprintln(out, listing)

			if offline {
				return nil
			}
			llmCfg, err := a.loadLLM()
			if err != nil {
				return err
			}
			conf := llmCfg.OpenRouterFor(a.registry.Entry())
			reply, err := openrouterx.Probe(ctx, openrouterx.NewClient(conf), conf.Model)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "model %s replied: %s\n", conf.Model, reply)
			return nil
		},
	}
	cmd.Flags().BoolVar(&offline, "offline", false, "skip the model endpoint probe")
	return cmd
}
