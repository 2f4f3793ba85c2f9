package main

import (
	"os"

	"github.com/spf13/cobra"
)

var configPath string

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "replyctl",
		Short:        "Generate email replies from the command line",
		Long:         "replyctl builds the reply prompt for an email and, optionally, sends it to Gemini.",
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to a YAML config file (default: $CONFIG_FILE)")

	root.AddCommand(promptCmd())
	root.AddCommand(generateCmd())
	root.AddCommand(configCmd())
	return root
}

func resolveConfigPath() string {
	if configPath != "" {
		return configPath
	}
	return os.Getenv("CONFIG_FILE")
}
