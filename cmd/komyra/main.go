// Package main provides the entry point for the Komyra interview CLI and API server.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "komyra",
	Short: "Komyra screening interview engine",
	Long:  "Komyra runs oracle-driven screening interviews: a bounded number of main questions, each with a bounded number of follow-up probes, scored into a hiring report.",
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
