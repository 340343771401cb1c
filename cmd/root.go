/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "mentornet",
	Short: "Backend server for the mentornet exchange",
	Long: `Backend server for the mentornet exchange.

Users post advertisements, answer each other's ads and exchange business
cards. Administrators can export a per-user activity report. Run
"mentornet server" to start the API server or "mentornet migrate up" to
apply database migrations.`,
}

// Execute runs the root command. It is called once from main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
