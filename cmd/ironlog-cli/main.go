// Command ironlog-cli reads workouts, insights, charts and the exercise
// library from a running IronLog server.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/meltforce/ironlog/internal/client"
)

var (
	serverURL string
	apiKey    string
	version   = "dev"
)

var rootCmd = &cobra.Command{
	Use:   "ironlog-cli",
	Short: "Query an IronLog server from the terminal",
	Long: `Query an IronLog server from the terminal.

Examples:
  ironlog-cli history --limit 5
  ironlog-cli insights <workout-id>
  ironlog-cli chart weekly_volume --range 90d
  ironlog-cli exercises --muscle Chest`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func newClient() *client.Client {
	return client.New(serverURL, client.WithAPIKey(apiKey))
}

func init() {
	def := os.Getenv("IRONLOG_URL")
	if def == "" {
		def = "http://localhost:8080"
	}
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", def, "IronLog server URL (env IRONLOG_URL)")
	rootCmd.PersistentFlags().StringVar(&apiKey, "api-key", os.Getenv("IRONLOG_API_KEY"), "API key (env IRONLOG_API_KEY)")
	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
