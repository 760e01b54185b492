package config

import (
	"errors"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config is the full configuration surface of the review backend.
// Values come from an optional YAML file, overridden by environment
// variables where noted.
type Config struct {
	// Knowledge base
	CorpusDir      string `yaml:"corpus_dir" validate:"required"`
	IndexDir       string `yaml:"index_dir" validate:"required"`
	CollectionName string `yaml:"collection_name" validate:"required"`
	ChunkSize      int    `yaml:"chunk_size" validate:"gt=0"`
	ChunkOverlap   int    `yaml:"chunk_overlap" validate:"gte=0"`

	// Review
	ContractsDir     string `yaml:"contracts_dir" validate:"required"`
	UploadsDir       string `yaml:"uploads_dir" validate:"required"`
	ReportsDir       string `yaml:"reports_dir" validate:"required"`
	TopK             int    `yaml:"top_k" validate:"gt=0"`
	MaxContractChars int    `yaml:"max_contract_chars" validate:"gt=0"`
	MinExtractedChars int   `yaml:"min_extracted_chars" validate:"gt=0"`

	// Providers
	EmbeddingModel    string        `yaml:"embedding_model" validate:"required"`
	GenerationModel   string        `yaml:"generation_model" validate:"required"`
	GeminiAPIKey      string        `yaml:"-"`
	GenerationTimeout time.Duration `yaml:"generation_timeout" validate:"gt=0"`

	// HTTP
	Port string `yaml:"port"`
}

// ErrMissingAPIKey is returned by Validate when no Gemini credential is
// configured. Callers treat this as a precondition failure.
var ErrMissingAPIKey = errors.New("GEMINI_API_KEY is not set")

// Default returns the built-in configuration. Constants follow the
// knowledge-base layout the corpus tooling expects.
func Default() *Config {
	return &Config{
		CorpusDir:         "documents",
		IndexDir:          "lawvector_db",
		CollectionName:    "law_collection",
		ChunkSize:         800,
		ChunkOverlap:      100,
		ContractsDir:      "contracts",
		UploadsDir:        "uploads",
		ReportsDir:        "reports",
		TopK:              5,
		MaxContractChars:  30000,
		MinExtractedChars: 50,
		EmbeddingModel:    "gemini-embedding-001",
		GenerationModel:   "gemini-2.5-flash",
		GenerationTimeout: 300 * time.Second,
		Port:              "8080",
	}
}

// Load reads configuration from path if it exists, applies defaults for
// unset fields and environment overrides on top.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
	} else if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	applyEnvOverrides(cfg)
	applyDefaults(cfg)
	return cfg, nil
}

// Validate checks structural constraints plus the credential precondition.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return err
	}
	if c.GeminiAPIKey == "" {
		return ErrMissingAPIKey
	}
	if c.ChunkOverlap >= c.ChunkSize {
		return errors.New("chunk_overlap must be smaller than chunk_size")
	}
	return nil
}

func applyEnvOverrides(cfg *Config) {
	cfg.GeminiAPIKey = os.Getenv("GEMINI_API_KEY")
	if v := os.Getenv("GEMINI_MODEL_NAME"); v != "" {
		cfg.GenerationModel = v
	}
	if v := os.Getenv("EMBEDDING_MODEL_NAME"); v != "" {
		cfg.EmbeddingModel = v
	}
	if v := os.Getenv("CORPUS_DIR"); v != "" {
		cfg.CorpusDir = v
	}
	if v := os.Getenv("INDEX_DIR"); v != "" {
		cfg.IndexDir = v
	}
	if v := os.Getenv("PORT"); v != "" {
		cfg.Port = v
	}
	if v := os.Getenv("GENERATION_TIMEOUT_SECS"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
			cfg.GenerationTimeout = time.Duration(secs) * time.Second
		}
	}
}

func applyDefaults(cfg *Config) {
	def := Default()
	if cfg.ChunkSize == 0 {
		cfg.ChunkSize = def.ChunkSize
	}
	if cfg.TopK == 0 {
		cfg.TopK = def.TopK
	}
	if cfg.MaxContractChars == 0 {
		cfg.MaxContractChars = def.MaxContractChars
	}
	if cfg.MinExtractedChars == 0 {
		cfg.MinExtractedChars = def.MinExtractedChars
	}
	if cfg.GenerationTimeout == 0 {
		cfg.GenerationTimeout = def.GenerationTimeout
	}
	if cfg.CollectionName == "" {
		cfg.CollectionName = def.CollectionName
	}
	if cfg.Port == "" {
		cfg.Port = def.Port
	}
}
