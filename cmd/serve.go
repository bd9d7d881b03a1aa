package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-amqp/pkg/amqp"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	httpHdlr "ragbot/handler/http"
	"ragbot/src/core/system"
	"ragbot/src/infrastructure/integrations/ollama"
	"ragbot/src/infrastructure/job"
	"ragbot/src/log"
	"ragbot/src/storage/postgres/documentctrl"
	"ragbot/src/storage/postgres/exchangectrl"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the question answering HTTP server",
	Long: `The serve command starts an HTTP server exposing the agent. It answers
questions, accepts document uploads for background ingestion, and reports the
health of its dependencies.`,
	RunE: runServer,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServer(cmd *cobra.Command, args []string) error {
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

	// Initialize Ollama client and model bindings
	ollamaClient, err := newOllamaClient()
	if err != nil {
		return fmt.Errorf("failed to create ollama client: %v", err)
	}
	embedder := ollama.NewEmbedder(ollamaClient, viper.GetString("ollama.embedding_model"))

	// Initialize the retrieval backend and the agent on top of it
	stack, err := newRetrievalStack(embedder)
	if err != nil {
		return err
	}
	engine, err := newEngine(ollamaClient, stack.searcher)
	if err != nil {
		return fmt.Errorf("failed to create agent engine: %v", err)
	}

	// Initialize MinioService
	minioService, err := newMinioService()
	if err != nil {
		return fmt.Errorf("failed to initialize minio service: %v", err)
	}

	// Initialize storage services
	documentService, err := documentctrl.NewDocumentService(db)
	if err != nil {
		return fmt.Errorf("failed to initialize document service: %v", err)
	}
	exchangeService, err := exchangectrl.NewExchangeService(db)
	if err != nil {
		return fmt.Errorf("failed to initialize exchange service: %v", err)
	}

	// Initialize AMQP publisher for ingest jobs
	logger := watermill.NewStdLogger(false, false)
	amqpPublisher, err := amqp.NewPublisher(
		amqp.NewDurableQueueConfig(viper.GetString("amqp.url")),
		logger,
	)
	if err != nil {
		return fmt.Errorf("failed to create amqp publisher: %v", err)
	}
	defer amqpPublisher.Close()

	jobRepo, err := job.NewPostgresJobRepository(db)
	if err != nil {
		return fmt.Errorf("failed to initialize job repository: %v", err)
	}
	jobService := job.NewJobService(amqpPublisher, jobRepo, logger)

	// Register dependency health checks
	sysService := system.NewService()
	sysService.Register("postgres", sqlDB.PingContext)
	sysService.Register(stack.healthName, stack.healthCheck)
	sysService.Register("minio", minioService.Ping)
	sysService.Register("ollama", func(ctx context.Context) error {
		_, err := ollamaClient.Models(ctx)
		return err
	})

	// Initialize HTTP handler
	handler, err := httpHdlr.NewHandler(
		engine,
		exchangeService,
		documentService,
		jobService,
		minioService,
		viper.GetString("minio.document_bucket"),
		sysService,
	)
	if err != nil {
		return fmt.Errorf("failed to initialize handler: %v", err)
	}

	// Setup gin router
	r := gin.Default()

	// Register routes
	handler.RegisterRoutes(r)

	// Create HTTP server
	srv := &http.Server{
		Addr:    ":" + viper.GetString("server.port"),
		Handler: r,
	}

	// Start server in a goroutine
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error(err, "Failed to start server")
		}
	}()
	log.Info("Server started", "port", viper.GetString("server.port"), "backend", stack.healthName)

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	// Parse shutdown timeout
	timeout, err := time.ParseDuration(viper.GetString("server.shutdown_timeout"))
	if err != nil {
		log.Error(err, "Invalid shutdown timeout, using default 10s")
		timeout = 10 * time.Second
	}

	// Create context with timeout for shutdown
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	// Stop accepting requests before the deferred closes tear down storage
	if err := srv.Shutdown(ctx); err != nil {
		log.Error(err, "Server forced to shutdown")
	}

	log.Info("Server exited")
	return nil
}
