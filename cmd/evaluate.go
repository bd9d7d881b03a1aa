package cmd

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"ragbot/src/core/retrieval"
	"ragbot/src/fsutil"
	"ragbot/src/infrastructure/integrations/ollama"
)

// evaluateCmd represents the evaluate command
var evaluateCmd = &cobra.Command{
	Use:   "evaluate",
	Short: "Measure retrieval recall against a golden set",
	Long: `The evaluate command replays questions from a JSONL file against the
configured retrieval backend and reports how many golden chunks were found.

Each line of the input file holds one record:

  {"question": "...", "golden_chunk_ids": ["...", "..."]}`,
	RunE: runEvaluate,
}

func init() {
	rootCmd.AddCommand(evaluateCmd)
	evaluateCmd.Flags().StringP("file", "f", "", "Evaluation JSONL file path")
	evaluateCmd.MarkFlagRequired("file")
	evaluateCmd.Flags().IntP("top", "k", 5, "Number of chunks to retrieve per question")
}

type evalRecord struct {
	Question       string   `json:"question"`
	GoldenChunkIDs []string `json:"golden_chunk_ids"`
}

func runEvaluate(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	evaluatePath, _ := cmd.Flags().GetString("file")
	k, _ := cmd.Flags().GetInt("top")

	// Open evaluation file
	evalFile, err := fsutil.NewLocalFileStore().ReadFileAsStream(evaluatePath)
	if err != nil {
		return fmt.Errorf("failed to open evaluation file: %v", err)
	}
	defer evalFile.Close()

	// Read evaluation file line by line
	scanner := bufio.NewScanner(evalFile)
	const maxCapacity = 4 * 1024 * 1024
	buf := make([]byte, maxCapacity)
	scanner.Buffer(buf, maxCapacity)

	var records []evalRecord
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var record evalRecord
		if err := json.Unmarshal(line, &record); err != nil {
			fmt.Printf("Failed to parse evaluation line: %v\n", err)
			continue
		}
		if record.Question == "" || len(record.GoldenChunkIDs) == 0 {
			continue
		}
		records = append(records, record)
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("error reading evaluation file: %v", err)
	}
	if len(records) == 0 {
		return fmt.Errorf("no evaluation records found in %s", evaluatePath)
	}

	// Initialize Ollama embedder and the retrieval backend it feeds
	ollamaClient, err := newOllamaClient()
	if err != nil {
		return fmt.Errorf("failed to create ollama client: %v", err)
	}
	embedder := ollama.NewEmbedder(ollamaClient, viper.GetString("ollama.embedding_model"))
	stack, err := newRetrievalStack(embedder)
	if err != nil {
		return err
	}

	searchService, err := retrieval.NewService(stack.searcher, retrieval.WithLimit(k))
	if err != nil {
		return fmt.Errorf("failed to create retrieval service: %v", err)
	}

	bar := progressbar.Default(int64(len(records)), "evaluating")

	var totalScore float64
	var totalEvals int
	for _, record := range records {
		results, err := searchService.Search(ctx, record.Question, k)
		if err != nil {
			fmt.Printf("Failed to retrieve chunks for question %q: %v\n", record.Question, err)
			_ = bar.Add(1)
			continue
		}

		golden := make(map[string]bool, len(record.GoldenChunkIDs))
		for _, id := range record.GoldenChunkIDs {
			golden[id] = true
		}

		var matchCount int
		for _, result := range results {
			if golden[result.ChunkID] {
				matchCount++
			}
		}

		totalScore += float64(matchCount) / float64(len(record.GoldenChunkIDs))
		totalEvals++
		_ = bar.Add(1)
	}
	_ = bar.Finish()
	fmt.Println()

	if totalEvals == 0 {
		fmt.Println("No evaluations were processed")
		return nil
	}

	averageScore := (totalScore / float64(totalEvals)) * 100
	fmt.Printf("Evaluation Results:\n")
	fmt.Printf("Total questions: %d\n", totalEvals)
	fmt.Printf("Recall@%d: %.2f%%\n", k, averageScore)
	return nil
}
