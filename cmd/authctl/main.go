// Command authctl is the operator tool for the bookings API auth core.
package main

import (
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "authctl",
		Short:        "Operator tool for the bookings API auth core",
		SilenceUsage: true,
	}

	tokenCmd := &cobra.Command{
		Use:   "token",
		Short: "Issue or verify session tokens with the configured secret",
	}
	tokenCmd.AddCommand(newTokenIssueCmd(), newTokenVerifyCmd())

	rootCmd.AddCommand(newConfigCmd(), newCORSCmd(), tokenCmd, newPingCmd())
	return rootCmd
}
