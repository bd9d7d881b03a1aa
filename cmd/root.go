package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"ragbot/src/log"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "ragbot",
	Short: "A retrieval augmented question answering bot",
	Long: `ragbot answers questions from a private document collection. Documents are
ingested into a vector index, and an agent decides per question whether to
retrieve passages, grade their relevance, rewrite the question, or answer.

The agent is exposed over an HTTP API, a Telegram bot and a one-shot CLI.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	log.Sync()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	settingDefaultConfig()
}
