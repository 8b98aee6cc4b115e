package main

import (
	"fmt"
	"os"

	"github.com/handiism/tilefetch/internal/config"
	"github.com/handiism/tilefetch/internal/tui"
	"github.com/spf13/cobra"
)

func main() {
	var configPath string

	cmd := &cobra.Command{
		Use:           "tilefetch-tui",
		Short:         "Interactive tile downloader",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := config.Load(configPath)
			if err != nil {
				return err
			}
			return tui.Run(settings)
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", "config.json", "Path to config file (JSON or YAML)")

	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
