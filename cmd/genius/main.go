package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	configPath string
	rootCmd    = &cobra.Command{
		Use:   "genius",
		Short: "Codebase Genius - AI-powered code documentation client",
		Long: `Genius is the terminal client for the Codebase Genius backend.
It submits repositories for analysis, follows the job until the
documentation is generated, and renders or saves the result.

Running it without a subcommand opens the dashboard.`,
		RunE: runDashboard,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file path")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
