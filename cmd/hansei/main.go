package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "dev"

var noColor bool

var rootCmd = &cobra.Command{
	Use:   "hansei",
	Short: "AI feedback for daily work reports",
	Long: `hansei turns daily work reports into structured AI feedback.

Submit a report (what went well, what to reflect on) and get back a
rating, positives, improvement areas, and action items. Feedback is
stored per submitter so the next report is reviewed with yesterday's
in mind.`,
	SilenceUsage: true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show hansei version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("hansei version %s\n", version)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")

	rootCmd.AddCommand(startCmd)
	rootCmd.AddCommand(stopCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(submitCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
