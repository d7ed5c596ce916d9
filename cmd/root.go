// Package cmd contains the nomnoms CLI commands.
package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "nomnoms",
	Short: "NomNoms food delivery backend",
	Long: `NomNoms is a food delivery ordering backend: restaurant catalog,
menus, carts, cost estimates, receipts, DoorDash deliveries and a
conversational ordering agent.

Run 'nomnoms serve' to start the HTTP API server.`,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
