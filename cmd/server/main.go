package main

import (
	"context"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/google/generative-ai-go/genai"
	"github.com/joho/godotenv"
	"github.com/phuslu/log"
	"google.golang.org/api/option"

	"laborlens-backend/config"
	"laborlens-backend/corpus"
	"laborlens-backend/extract"
	"laborlens-backend/handlers"
	"laborlens-backend/index"
	"laborlens-backend/llm"
	"laborlens-backend/pipeline"
	"laborlens-backend/review"
	"laborlens-backend/storage"
)

func main() {
	// Load .env from the working directory or the project root.
	if err := godotenv.Load(); err != nil {
		if err := godotenv.Load("../../.env"); err != nil {
			log.Warn().Msg("no .env file found, using environment variables")
		}
	}

	cfg, err := config.Load("config.yaml")
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	ctx := context.Background()

	// Uploads always live on the local filesystem: extraction tooling
	// (pdfcpu, tesseract) needs real paths.
	localPath := os.Getenv("STORAGE_LOCAL_PATH")
	if localPath == "" {
		localPath = "."
	}
	local, err := storage.NewLocalStore(localPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize local storage")
	}

	artifacts, err := storage.NewFromEnv()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize artifact storage")
	}

	geminiClient, err := genai.NewClient(ctx, option.WithAPIKey(cfg.GeminiAPIKey))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize Gemini client")
	}
	defer geminiClient.Close()

	embedder := llm.NewGeminiEmbedder(cfg.GeminiAPIKey, cfg.EmbeddingModel)
	generator := llm.NewGeminiGenerator(geminiClient, cfg.GenerationModel, cfg.GenerationTimeout)

	// The knowledge base loads (or builds) exactly once, before the server
	// accepts requests; this is the only exclusive write to the index.
	idx := index.New(cfg.IndexDir, cfg.CollectionName, embedder)
	builder := index.NewBuilder(
		corpus.NewLoader(cfg.CorpusDir),
		corpus.NewChunker(cfg.ChunkSize, cfg.ChunkOverlap),
	)
	if err := builder.LoadOrBuild(ctx, idx); err != nil {
		log.Fatal().Err(err).Msg("failed to prepare legal knowledge base")
	}
	log.Info().Int("chunks", idx.Size()).Msg("legal knowledge base ready")

	sessions := pipeline.NewSessionStore()
	orchestrator := pipeline.NewOrchestrator(
		sessions,
		extract.NewRouter(cfg.MinExtractedChars),
		artifacts,
		idx,
		generator,
		cfg.TopK,
		cfg.MaxContractChars,
		review.DefaultPrompts(),
	)

	contractHandler := handlers.NewContractHandler(sessions, orchestrator, local, artifacts)

	r := gin.Default()

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":     "ok",
			"index_size": idx.Size(),
			"collection": cfg.CollectionName,
		})
	})

	api := r.Group("/api")
	{
		api.POST("/contracts/upload", contractHandler.UploadContract)
		api.GET("/contracts/progress/:sessionId", contractHandler.GetProgress)
		api.GET("/contracts/reports", contractHandler.ListReports)
		api.GET("/contracts/download/:filename", contractHandler.DownloadReport)
	}

	log.Info().Str("port", cfg.Port).Msg("server starting")
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatal().Err(err).Msg("server exited")
	}
}
