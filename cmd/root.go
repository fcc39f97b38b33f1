/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "earthquery",
	Short: "Directive gateway for the 3D earth viewer query file",
	Long: "Earthquery listens for structured directive messages (camera moves, searches,\n" +
		"tours, destination changes), translates them into the viewer's textual query\n" +
		"grammar, and durably publishes the text to the query file the viewer polls.",
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}
