package main

import (
	"github.com/spf13/cobra"

	"github.com/venturelens/venturelens/internal/config"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "venturelens",
		Short:        "Pitch-deck analysis backend for the VentureLens dashboards",
		SilenceUsage: true,
	}
	root.AddCommand(
		newServeCmd(),
		newNormalizeCmd(),
		newHashPasswordCmd(),
		newTokenCmd(),
		newUserCmd(),
	)
	return root
}

// loadConfig is shared by every command that needs the environment.
func loadConfig() (config.Config, error) {
	return config.FromEnv()
}
