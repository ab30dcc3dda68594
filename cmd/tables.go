package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tanpawarit/Financial-Swarm-Analyst/agent/tool"
)

func newTablesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tables",
		Short: "List the tables of the configured data store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := wireBase(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			listing, err := tool.ListTables(cmd.Context(), a.store)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), listing)
			return err
		},
	}
}
