package cmd

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"ragbot/src/core/ingest"
	"ragbot/src/fsutil"
	"ragbot/src/infrastructure/integrations/ollama"
	"ragbot/src/log"
)

var ingestResetIndex bool

var ingestCmd = &cobra.Command{
	Use:   "ingest [files or directories...]",
	Short: "Ingest local documents into the retrieval backend",
	Long: `The ingest command reads local files, stores them in object storage and
indexes their chunks so the agent can retrieve them. PDF, text and markdown
files are supported; a directory argument ingests every supported file
directly under it.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runIngest,
}

func init() {
	rootCmd.AddCommand(ingestCmd)
	ingestCmd.Flags().BoolVar(&ingestResetIndex, "reset", false, "Drop the existing index before ingesting")
}

func runIngest(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	// Initialize PostgreSQL connection
	db, err := openPostgres()
	if err != nil {
		return err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying *sql.DB: %v", err)
	}
	defer sqlDB.Close()

	// Initialize MinioService
	minioService, err := newMinioService()
	if err != nil {
		return fmt.Errorf("failed to initialize minio service: %v", err)
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

	if ingestResetIndex {
		log.Info("Dropping existing index", "collection", stack.collection)
		if err := stack.reset(ctx); err != nil {
			return fmt.Errorf("failed to reset index: %v", err)
		}
	}

	// The chunk total is only known after splitting, so the bar is created
	// lazily on the first progress callback of each file.
	var bar *progressbar.ProgressBar
	ingestService, err := newIngestService(db, minioService, stack.indexer,
		ingest.WithProgress(func(completed, total int) {
			if bar == nil {
				bar = progressbar.Default(int64(total), "indexing chunks")
			}
			_ = bar.Set(completed)
		}),
	)
	if err != nil {
		return fmt.Errorf("failed to initialize ingest service: %v", err)
	}

	fs := fsutil.NewLocalFileStore()
	var paths []string
	for _, arg := range args {
		expanded, err := fs.ListDocuments(arg, []string{".pdf", ".txt", ".md"})
		if err != nil {
			return fmt.Errorf("failed to list documents for %s: %v", arg, err)
		}
		paths = append(paths, expanded...)
	}

	for _, path := range paths {
		bar = nil

		content, err := fs.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read %s: %v", path, err)
		}

		summary, err := ingestService.IngestFile(ctx, filepath.Base(path), content)
		if bar != nil {
			_ = bar.Finish()
			fmt.Println()
		}
		if err != nil {
			return fmt.Errorf("failed to ingest %s: %w", path, err)
		}

		fmt.Printf("Ingested %s: document %d, %d chunks\n",
			summary.Document.Filename, summary.Document.ID, summary.ChunkCount)
	}

	return nil
}
