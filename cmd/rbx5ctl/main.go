// Command rbx5ctl is the operator CLI for the RBX5 workflow: it quotes
// quantities and queries the storefront's Roblox routes directly.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"rbxstore-api/internal/logging"
	"rbxstore-api/internal/roblox"
)

var (
	// Global flags
	apiURL  string
	timeout time.Duration
	verbose bool

	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "rbx5ctl",
	Short: "Operate the RBX5 gamepass checkout",
	Long: `rbx5ctl talks to the storefront API the RBX5 checkout depends on.

Available commands:
  quote          - Price a Robux quantity and show the gamepass amount
  lookup         - Resolve a Roblox username
  places         - List the places a Roblox user owns
  check-gamepass - Check a universe for a gamepass at the expected price`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level := "warn"
		if verbose {
			level = "debug"
		}
		l, err := logging.New("development", level)
		if err != nil {
			return err
		}
		logger = l
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	defaultURL := os.Getenv("STOREFRONT_API_URL")
	if defaultURL == "" {
		defaultURL = "http://localhost:3000"
	}
	rootCmd.PersistentFlags().StringVar(&apiURL, "api-url", defaultURL, "storefront base URL")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 10*time.Second, "request timeout")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	rootCmd.AddCommand(quoteCmd, lookupCmd, placesCmd, checkGamepassCmd)
}

func newClient() *roblox.Client {
	return roblox.NewClient(roblox.Config{BaseURL: apiURL, Timeout: timeout}, logger)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
