// Command stockview looks up a symbol's dashboard from the terminal.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/bobmcallan/stockview/internal/app"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:           "stockview",
	Short:         "Daily prices joined with quarterly fundamentals",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Configuration file path (default: STOCKVIEW_CONFIG or config/stockview.toml)")
	rootCmd.AddCommand(lookupCmd, invalidateCmd, versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// newApp initializes the runtime for a single command.
func newApp() (*app.App, error) {
	return app.NewApp(configPath)
}
