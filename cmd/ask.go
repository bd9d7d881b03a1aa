package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"ragbot/src/core/agent"
	"ragbot/src/infrastructure/integrations/ollama"
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask the agent a single question",
	Long: `The ask command runs the agent once against the configured retrieval
backend and prints the answer.`,
	Args: cobra.ExactArgs(1),
	RunE: runAsk,
}

func init() {
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
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

	ctx := context.Background()
	if timeout, err := time.ParseDuration(viper.GetString("agent.timeout")); err == nil {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	answer, err := engine.Run(ctx, args[0])
	if err != nil {
		if errors.Is(err, agent.ErrStepLimit) {
			return fmt.Errorf("the question is too complex, try rephrasing it")
		}
		return err
	}

	fmt.Println(answer)
	return nil
}
