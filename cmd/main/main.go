// mse-observer scrapes Macedonian Stock Exchange quotes and serves them over
// REST, websocket and gRPC health.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	version    = "0.1.0"
	configPath string
)

// -----------------------------------------------------------------------------

func main() {
	rootCmd := &cobra.Command{
		Use:   "mse-observer",
		Short: "Macedonian Stock Exchange quote observer",
		Long: `mse-observer scrapes the public MSE listing, normalizes the figures and
serves them with a live -> database -> cache -> synthetic fallback chain.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "config/default.yaml", "path to config file (empty for built-in defaults)")

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(scrapeCmd())
	rootCmd.AddCommand(seedHistoryCmd())
	rootCmd.AddCommand(versionCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// -----------------------------------------------------------------------------

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("mse-observer version %s\n", version)
		},
	}
}

// -----------------------------------------------------------------------------

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the REST, websocket and gRPC servers with the background refresher",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := bootstrap(contextOf(cmd))
			if err != nil {
				return err
			}
			defer app.Close()
			return runServers(app)
		},
	}
}
