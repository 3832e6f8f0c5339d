package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "kleind",
		Short: "A demo server for the klein routing layer",
		Long: `kleind serves a small demonstration application built on klein.

It registers a handful of routes (including a branch route and an
asynchronously completed one), exposes Prometheus metrics on an auxiliary
listener, and runs a websocket echo service on another.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(
		serveCmd(),
		versionCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("kleind %s (%s)\n", version, commit)
		},
	}
}
