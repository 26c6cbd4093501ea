package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "tracker",
		Short: "Personal task tracker with urgency ranking and live sync",
		Long: `tracker keeps a user's tasks in sync with the store, ranks them by urgency
and serves the ranked view over HTTP or prints it in the terminal.

Configuration comes from defaults, the YAML file named by TRACKER_CONFIG
and environment variables (PORT, STORE_DRIVER, DATABASE_URL, ...).`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(newServeCmd())
	root.AddCommand(newListCmd())
	root.AddCommand(newAddCmd())
	return root
}
