// Command build-index rebuilds the legal knowledge base from the corpus
// directory, embedding every chunk and overwriting the persisted collection.
package main

import (
	"context"
	"flag"

	"github.com/joho/godotenv"
	"github.com/phuslu/log"

	"laborlens-backend/config"
	"laborlens-backend/corpus"
	"laborlens-backend/index"
	"laborlens-backend/llm"
)

func main() {
	force := flag.Bool("force", false, "rebuild even if a persisted collection exists")
	flag.Parse()

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

	embedder := llm.NewGeminiEmbedder(cfg.GeminiAPIKey, cfg.EmbeddingModel)
	idx := index.New(cfg.IndexDir, cfg.CollectionName, embedder)
	builder := index.NewBuilder(
		corpus.NewLoader(cfg.CorpusDir),
		corpus.NewChunker(cfg.ChunkSize, cfg.ChunkOverlap),
	)

	if !*force {
		if err := idx.Load(); err == nil {
			log.Info().Int("chunks", idx.Size()).Msg("persisted collection already exists, use -force to rebuild")
			return
		}
	}

	chunks, err := builder.ChunkCorpus()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to chunk corpus")
	}
	if err := idx.Build(ctx, chunks); err != nil {
		log.Fatal().Err(err).Msg("failed to build index")
	}

	log.Info().Int("chunks", idx.Size()).Str("collection", cfg.CollectionName).Msg("knowledge base built")
}
