package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"ragbot/handler/telegram"
	"ragbot/src/infrastructure/integrations/ollama"
	"ragbot/src/log"
	"ragbot/src/storage/postgres/exchangectrl"
)

var botCmd = &cobra.Command{
	Use:   "bot",
	Short: "Run the Telegram bot",
	Long: `The bot command starts a long-polling Telegram bot that answers questions
with the agent. It requires BOT_TOKEN to be set.`,
	RunE: runBot,
}

func init() {
	rootCmd.AddCommand(botCmd)
}

func runBot(cmd *cobra.Command, args []string) error {
	token := viper.GetString("telegram.token")
	if token == "" {
		return fmt.Errorf("BOT_TOKEN not found in environment variables")
	}

	// Initialize Ollama client and the retrieval backend
	ollamaClient, err := newOllamaClient()
	if err != nil {
		return fmt.Errorf("failed to create ollama client: %v", err)
	}
	embedder := ollama.NewEmbedder(ollamaClient, viper.GetString("ollama.embedding_model"))
	stack, err := newRetrievalStack(embedder)
	if err != nil {
		return err
	}
	engine, err := newEngine(ollamaClient, stack.searcher)
	if err != nil {
		return fmt.Errorf("failed to create agent engine: %v", err)
	}

	opts := []telegram.Option{}
	if timeout, err := time.ParseDuration(viper.GetString("agent.timeout")); err == nil {
		opts = append(opts, telegram.WithQuestionTimeout(timeout))
	}

	// Exchange recording is optional: the bot keeps answering when postgres
	// is unavailable.
	if db, err := openPostgres(); err != nil {
		log.Error(err, "exchange recording disabled")
	} else if exchangeService, err := exchangectrl.NewExchangeService(db); err != nil {
		log.Error(err, "exchange recording disabled")
	} else {
		opts = append(opts, telegram.WithExchangeRecorder(exchangeService))
		if sqlDB, err := db.DB(); err == nil {
			defer sqlDB.Close()
		}
	}

	bot, err := telegram.NewBot(token, engine, opts...)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		log.Info("Shutting down bot...")
		cancel()
	}()

	return bot.Run(ctx)
}
