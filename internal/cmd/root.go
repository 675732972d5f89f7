package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "shop-service",
	Short: "Shop Service - catalog, accounts and orders API",
	Long: `Shop Service is the REST backend of the store: product catalog with
categories and stock, customer accounts with JWT login, order placement
and password recovery with one-time codes.

Run without a subcommand to start the HTTP server.`,
	SilenceUsage: true,
	RunE:         runServe,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
