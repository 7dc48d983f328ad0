package cmd

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"tonebot/internal/config"
)

var cfg config.Config

var rootCmd = &cobra.Command{
	Use:   "tonebot",
	Short: "Sentiment-aware chat backend with tone personas and GIF replies",
	Long: `Tonebot is a conversational chat backend. It layers tone personas,
lightweight memory extraction, sentiment-aware response framing, and
opportunistic GIF attachment on top of a Groq chat-completion call.`,
	PersistentPreRun: loadRootConfig,
}

func Execute() error {
	return rootCmd.Execute()
}

func loadRootConfig(_ *cobra.Command, _ []string) {
	// Load .env file
	err := godotenv.Load()
	if err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg = config.Load()
}
