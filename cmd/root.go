package cmd

import (
	"github.com/spf13/cobra"

	"videoindex/config"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "videoindex",
	Short: "Time-aligned multi-modal video index",
	Long: `videoindex fuses a speech transcript and vision-model frame
descriptions into a queryable timeline, and reconstructs the original
context for retrieved text fragments.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		config.InitLogger()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "config.json", "path to the JSON config file")
}

func Execute() error {
	return rootCmd.Execute()
}
