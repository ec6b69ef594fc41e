package main

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "newsketch",
	Short: "Streaming analytics over a news article feed",
	Long: `newsketch runs a set of probabilistic sketches over a stream of news
articles: near-duplicate detection, per-category frequencies, distinct
headline counting, second-moment estimation, bounded per-category
sampling, headline tendency clustering and a category transition graph.

Everything runs in bounded memory; every answer is an estimate with a
known error profile.`,
}

func init() {
	rootCmd.AddCommand(newAnalyzeCmd())
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
