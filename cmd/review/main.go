// Command review runs a batch review over every contract text file in the
// contracts directory and writes a combined plain-text report.
package main

import (
	"context"
	"flag"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"github.com/joho/godotenv"
	"github.com/phuslu/log"
	"google.golang.org/api/option"

	"laborlens-backend/config"
	"laborlens-backend/corpus"
	"laborlens-backend/index"
	"laborlens-backend/llm"
	"laborlens-backend/review"
)

func main() {
	output := flag.String("o", "report.txt", "output report path")
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

	geminiClient, err := genai.NewClient(ctx, option.WithAPIKey(cfg.GeminiAPIKey))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize Gemini client")
	}
	defer geminiClient.Close()

	embedder := llm.NewGeminiEmbedder(cfg.GeminiAPIKey, cfg.EmbeddingModel)
	generator := llm.NewGeminiGenerator(geminiClient, cfg.GenerationModel, cfg.GenerationTimeout)

	idx := index.New(cfg.IndexDir, cfg.CollectionName, embedder)
	builder := index.NewBuilder(
		corpus.NewLoader(cfg.CorpusDir),
		corpus.NewChunker(cfg.ChunkSize, cfg.ChunkOverlap),
	)
	if err := builder.LoadOrBuild(ctx, idx); err != nil {
		log.Fatal().Err(err).Msg("failed to prepare legal knowledge base")
	}

	contracts, err := listContracts(cfg.ContractsDir)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to list contracts")
	}
	if len(contracts) == 0 {
		log.Fatal().Str("dir", cfg.ContractsDir).Msg("no contract text files found")
	}

	reviewer := review.NewReviewer(
		review.WithIndex(idx),
		review.WithGenerator(generator),
		review.WithTopK(cfg.TopK),
		review.WithMaxContractChars(cfg.MaxContractChars),
	)
	prompts := review.DefaultPrompts()

	var rendered []string
	for _, contractPath := range contracts {
		log.Info().Str("contract", contractPath).Msg("reviewing contract")

		data, err := os.ReadFile(contractPath)
		if err != nil {
			log.Error().Err(err).Str("contract", contractPath).Msg("could not read contract, skipping")
			continue
		}

		answers, err := reviewer.Review(ctx, string(data), prompts)
		if err != nil {
			log.Error().Err(err).Str("contract", contractPath).Msg("review failed, skipping")
			continue
		}

		report := review.BuildReport(contractPath, len([]rune(string(data))), answers, time.Now())
		rendered = append(rendered, review.RenderReport(report))

		log.Info().
			Str("contract", contractPath).
			Int("violations", report.Summary.TotalViolations).
			Str("severity", string(report.Summary.SeverityLevel)).
			Msg("contract reviewed")
	}

	if len(rendered) == 0 {
		log.Fatal().Msg("no contract produced a report")
	}

	if err := os.WriteFile(*output, []byte(strings.Join(rendered, "\n\n")), 0o644); err != nil {
		log.Fatal().Err(err).Str("path", *output).Msg("failed to write report")
	}
	log.Info().Str("path", *output).Int("contracts", len(rendered)).Msg("batch review finished")
}

func listContracts(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var paths []string
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".txt" {
			continue
		}
		paths = append(paths, filepath.Join(dir, entry.Name()))
	}
	sort.Strings(paths)
	return paths, nil
}
