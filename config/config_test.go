package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "lawvector_db", cfg.IndexDir)
	assert.Equal(t, "law_collection", cfg.CollectionName)
	assert.Equal(t, 800, cfg.ChunkSize)
	assert.Equal(t, 100, cfg.ChunkOverlap)
	assert.Equal(t, 5, cfg.TopK)
	assert.Equal(t, 30000, cfg.MaxContractChars)
	assert.Equal(t, 50, cfg.MinExtractedChars)
	assert.Equal(t, "gemini-embedding-001", cfg.EmbeddingModel)
	assert.Equal(t, "gemini-2.5-flash", cfg.GenerationModel)
	assert.Equal(t, 300*time.Second, cfg.GenerationTimeout)
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))

	require.NoError(t, err)
	assert.Equal(t, Default().ChunkSize, cfg.ChunkSize)
}

func TestLoadYAMLWithEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("chunk_size: 400\nport: \"9999\"\n"), 0o644))

	t.Setenv("GEMINI_API_KEY", "test-key")
	t.Setenv("PORT", "7777")
	t.Setenv("GEMINI_MODEL_NAME", "gemini-exp")

	cfg, err := Load(path)

	require.NoError(t, err)
	assert.Equal(t, 400, cfg.ChunkSize)
	assert.Equal(t, "7777", cfg.Port, "env override wins over YAML")
	assert.Equal(t, "gemini-exp", cfg.GenerationModel)
	assert.Equal(t, "test-key", cfg.GeminiAPIKey)
}

func TestValidateRequiresAPIKey(t *testing.T) {
	cfg := Default()
	cfg.GeminiAPIKey = ""

	assert.ErrorIs(t, cfg.Validate(), ErrMissingAPIKey)

	cfg.GeminiAPIKey = "key"
	assert.NoError(t, cfg.Validate())
}

func TestValidateRejectsOversizedOverlap(t *testing.T) {
	cfg := Default()
	cfg.GeminiAPIKey = "key"
	cfg.ChunkOverlap = cfg.ChunkSize

	assert.Error(t, cfg.Validate())
}
