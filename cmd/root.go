package cmd

import (
	"github.com/spf13/cobra"

	configx "github.com/tanpawarit/Financial-Swarm-Analyst/pkg/config"
	logx "github.com/tanpawarit/Financial-Swarm-Analyst/pkg/logger"
)

func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	var envFile string

	rootCmd := &cobra.Command{
		Use:           "swarm",
		Short:         "Financial analysis swarm: a team of model-backed workers coordinated by handoffs",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			configx.SetEnvFile(envFile)
			logCfg, err := configx.New[logx.Config]("LOG")
			if err != nil {
				return err
			}
			logx.Init(*logCfg)
			return nil
		},
	}
	rootCmd.PersistentFlags().StringVar(&envFile, "env", "", "path to .env file")

	rootCmd.AddCommand(
		newRunCmd(),
		newAskCmd(),
		newCheckCmd(),
		newTablesCmd(),
	)

	return rootCmd
}
