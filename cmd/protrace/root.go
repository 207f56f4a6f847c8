package main

import (
	"github.com/spf13/cobra"
)

func newRootCommand() *cobra.Command {
	var configFlag string
	var jsonFlag bool
	var debugFlag bool

	ctx := newCommandContext(&configFlag, &debugFlag)

	rootCmd := &cobra.Command{
		Use:           "protrace",
		Short:         "Trace PRO numbers and override their stage in the TMS",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "Configuration file path (default $PROTRACE_CONFIG or ./config.toml)")
	rootCmd.PersistentFlags().BoolVar(&jsonFlag, "json", false, "Write the full result as JSON")
	rootCmd.PersistentFlags().BoolVar(&debugFlag, "debug", false, "Log upstream calls and include phase timings")

	rootCmd.AddCommand(newTraceCommand(ctx, &jsonFlag))
	rootCmd.AddCommand(newOverrideCommand(ctx, &jsonFlag))
	rootCmd.AddCommand(newStagesCommand(ctx, &jsonFlag))

	return rootCmd
}
