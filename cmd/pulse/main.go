package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "dev"

var noColor bool

var rootCmd = &cobra.Command{
	Use:   "pulse",
	Short: "Customer feedback sentiment analysis and Q&A",
	Long: `pulse ingests customer feedback, classifies its sentiment, and
answers questions about it with retrieval-augmented generation over a
local vector index.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the pulse version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("pulse version %s\n", version)
	},
}

func main() {
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(stopCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(ingestCmd)
	rootCmd.AddCommand(askCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(insightsCmd)
	rootCmd.AddCommand(interactionsCmd)
	rootCmd.AddCommand(configCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
