package cmd

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/spf13/viper"
	weaviateclient "github.com/weaviate/weaviate-go-client/v4/weaviate"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"ragbot/src/core/agent"
	"ragbot/src/core/ingest"
	"ragbot/src/core/oracle"
	"ragbot/src/core/retrieval"
	"ragbot/src/core/system"
	"ragbot/src/infrastructure/integrations/ollama"
	"ragbot/src/infrastructure/integrations/unstructured"
	"ragbot/src/storage/elastic"
	"ragbot/src/storage/minioctrl"
	"ragbot/src/storage/postgres/chunkctrl"
	"ragbot/src/storage/postgres/documentctrl"
	"ragbot/src/storage/weaviate"
)

func openPostgres() (*gorm.DB, error) {
	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
		viper.GetString("postgres.host"),
		viper.GetString("postgres.user"),
		viper.GetString("postgres.password"),
		viper.GetString("postgres.db"),
		viper.GetString("postgres.port"))

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %v", err)
	}
	return db, nil
}

func newOllamaClient() (*ollama.Client, error) {
	// LLM calls are bounded by the run context, not a transport timeout.
	return ollama.NewClient(viper.GetString("ollama.url"), &http.Client{})
}

func newMinioService() (*minioctrl.MinioService, error) {
	return minioctrl.NewMinioService(
		viper.GetString("minio.endpoint"),
		viper.GetString("minio.access_key"),
		viper.GetString("minio.secret_key"),
		viper.GetBool("minio.use_ssl"),
	)
}

// retrievalStack bundles everything a retrieval backend contributes: the
// searcher the agent queries, the indexer ingestion writes to, and the
// backend's health check.
type retrievalStack struct {
	searcher    retrieval.Searcher
	indexer     ingest.ChunkIndexer
	healthName  string
	healthCheck system.CheckFunc
	collection  string
	reset       func(ctx context.Context) error
}

func newRetrievalStack(embedder *ollama.Embedder) (*retrievalStack, error) {
	backend := viper.GetString("retrieval.backend")
	collection := viper.GetString("retrieval.collection")

	switch backend {
	case "weaviate":
		client := weaviateclient.New(weaviateclient.Config{
			Host:   viper.GetString("weaviate.url"),
			Scheme: "http",
		})
		sdk := weaviate.NewSDK(client)

		searcher, err := retrieval.NewWeaviateBackend(sdk, embedder, collection, viper.GetBool("retrieval.hybrid"))
		if err != nil {
			return nil, fmt.Errorf("failed to create weaviate backend: %w", err)
		}
		indexer, err := ingest.NewWeaviateIndexer(sdk, embedder, collection)
		if err != nil {
			return nil, fmt.Errorf("failed to create weaviate indexer: %w", err)
		}

		return &retrievalStack{
			searcher:    searcher,
			indexer:     indexer,
			healthName:  "weaviate",
			healthCheck: sdk.Ready,
			collection:  collection,
			reset: func(ctx context.Context) error {
				return sdk.DeleteSchema(ctx, collection)
			},
		}, nil

	case "elasticsearch":
		client, err := elasticsearch.NewClient(elasticsearch.Config{
			Addresses: []string{viper.GetString("elasticsearch.url")},
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create elasticsearch client: %w", err)
		}
		sdk := elastic.NewSDK(client)
		index := strings.ToLower(collection)

		searcher, err := retrieval.NewElasticBackend(sdk, index)
		if err != nil {
			return nil, fmt.Errorf("failed to create elasticsearch backend: %w", err)
		}
		indexer, err := ingest.NewElasticIndexer(sdk, index)
		if err != nil {
			return nil, fmt.Errorf("failed to create elasticsearch indexer: %w", err)
		}

		return &retrievalStack{
			searcher:    searcher,
			indexer:     indexer,
			healthName:  "elasticsearch",
			healthCheck: sdk.Ping,
			collection:  collection,
			reset: func(ctx context.Context) error {
				return sdk.DeleteIndex(ctx, index)
			},
		}, nil

	default:
		return nil, fmt.Errorf("unknown retrieval backend: %s", backend)
	}
}

func newEngine(llm *ollama.Client, searcher retrieval.Searcher) (*agent.Engine, error) {
	provider := ollama.NewProvider(llm, viper.GetString("ollama.model"))
	oracles, err := oracle.NewService(provider)
	if err != nil {
		return nil, err
	}

	retriever, err := retrieval.NewService(searcher, retrieval.WithLimit(viper.GetInt("retrieval.limit")))
	if err != nil {
		return nil, err
	}

	return agent.NewEngine(
		oracles, retriever, oracles, oracles, oracles,
		agent.WithMaxSteps(viper.GetInt("agent.max_steps")),
	)
}

func newIngestService(db *gorm.DB, objects *minioctrl.MinioService, indexer ingest.ChunkIndexer, opts ...ingest.Option) (*ingest.Service, error) {
	documentService, err := documentctrl.NewDocumentService(db)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize document service: %v", err)
	}

	chunkService, err := chunkctrl.NewChunkService(db)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize chunk service: %v", err)
	}

	extractor := unstructured.NewUnstructuredService(viper.GetString("unstructured.url"), &http.Client{})

	allOpts := append([]ingest.Option{
		ingest.WithChunking(viper.GetInt("ingest.chunk_size"), viper.GetInt("ingest.chunk_overlap")),
	}, opts...)

	return ingest.NewService(
		extractor,
		indexer,
		documentService,
		chunkService,
		objects,
		viper.GetString("minio.document_bucket"),
		allOpts...,
	)
}
