package index

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"laborlens-backend/models"
)

type stubEmbedder struct {
	vectors map[string][]float64
	query   []float64
}

func (s *stubEmbedder) EmbedDocuments(_ context.Context, texts []string) ([][]float64, error) {
	out := make([][]float64, len(texts))
	for i, text := range texts {
		if v, ok := s.vectors[text]; ok {
			out[i] = v
		} else {
			out[i] = []float64{0, 0, 1}
		}
	}
	return out, nil
}

func (s *stubEmbedder) EmbedQuery(_ context.Context, _ string) ([]float64, error) {
	return s.query, nil
}

func (s *stubEmbedder) Dimension() int { return 3 }

func testChunks() []models.LegalChunk {
	return []models.LegalChunk{
		{ID: uuid.New(), Text: "條文甲", SourceFile: "laws.json"},
		{ID: uuid.New(), Text: "條文乙", SourceFile: "laws.json"},
		{ID: uuid.New(), Text: "條文丙", SourceFile: "laws.json"},
	}
}

func newStub() *stubEmbedder {
	return &stubEmbedder{
		vectors: map[string][]float64{
			"條文甲": {1, 0, 0},
			"條文乙": {0.5, 0.5, 0},
			"條文丙": {0, 1, 0},
		},
		query: []float64{1, 0, 0},
	}
}

func TestBuildAndQueryOrdering(t *testing.T) {
	idx := New(t.TempDir(), "law_collection", newStub())
	require.NoError(t, idx.Build(context.Background(), testChunks()))
	assert.Equal(t, 3, idx.Size())

	hits, err := idx.Query(context.Background(), "扣留證件", 2)

	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "條文甲", hits[0].Chunk.Text)
	assert.Equal(t, "條文乙", hits[1].Chunk.Text)
	assert.Greater(t, hits[0].Score, hits[1].Score)
}

func TestQueryKLargerThanIndex(t *testing.T) {
	idx := New(t.TempDir(), "law_collection", newStub())
	require.NoError(t, idx.Build(context.Background(), testChunks()))

	hits, err := idx.Query(context.Background(), "任何問題", 10)

	require.NoError(t, err)
	assert.Len(t, hits, 3)
}

func TestLoadPersistedCollection(t *testing.T) {
	dir := t.TempDir()
	first := New(dir, "law_collection", newStub())
	require.NoError(t, first.Build(context.Background(), testChunks()))

	second := New(dir, "law_collection", newStub())
	require.NoError(t, second.Load())
	assert.Equal(t, 3, second.Size())

	hits, err := second.Query(context.Background(), "扣留證件", 1)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "條文甲", hits[0].Chunk.Text)
}

func TestLoadMissingCollection(t *testing.T) {
	idx := New(t.TempDir(), "law_collection", newStub())
	assert.ErrorIs(t, idx.Load(), ErrIndexNotFound)
}

func TestBuildOverwritesPreviousCollection(t *testing.T) {
	dir := t.TempDir()
	idx := New(dir, "law_collection", newStub())
	require.NoError(t, idx.Build(context.Background(), testChunks()))

	smaller := []models.LegalChunk{{ID: uuid.New(), Text: "條文甲", SourceFile: "laws.json"}}
	require.NoError(t, idx.Build(context.Background(), smaller))

	reopened := New(dir, "law_collection", newStub())
	require.NoError(t, reopened.Load())
	assert.Equal(t, 1, reopened.Size())
}

func TestBuildRejectsEmptyInput(t *testing.T) {
	idx := New(t.TempDir(), "law_collection", newStub())
	assert.Error(t, idx.Build(context.Background(), nil))
}

func TestQueryUnloadedIndex(t *testing.T) {
	idx := New(t.TempDir(), "law_collection", newStub())
	_, err := idx.Query(context.Background(), "問題", 5)
	assert.Error(t, err)
}
