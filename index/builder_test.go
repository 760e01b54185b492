package index

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"laborlens-backend/corpus"
)

func TestLoadOrBuildBuildsFromCorpus(t *testing.T) {
	corpusDir := t.TempDir()
	require.NoError(t, os.WriteFile(
		filepath.Join(corpusDir, "laws.txt"),
		[]byte("雇主不得扣留受僱人之護照或居留證。"),
		0o644,
	))

	builder := NewBuilder(corpus.NewLoader(corpusDir), corpus.NewChunker(800, 100))

	indexDir := t.TempDir()
	idx := New(indexDir, "law_collection", newStub())
	require.NoError(t, builder.LoadOrBuild(context.Background(), idx))
	assert.Equal(t, 1, idx.Size())

	// Second handle loads the persisted collection without touching the
	// corpus again.
	reopened := New(indexDir, "law_collection", newStub())
	require.NoError(t, builder.LoadOrBuild(context.Background(), reopened))
	assert.Equal(t, 1, reopened.Size())
}

func TestLoadOrBuildFailsOnEmptyCorpus(t *testing.T) {
	builder := NewBuilder(corpus.NewLoader(t.TempDir()), corpus.NewChunker(800, 100))

	idx := New(t.TempDir(), "law_collection", newStub())
	err := builder.LoadOrBuild(context.Background(), idx)

	assert.ErrorIs(t, err, corpus.ErrEmptyCorpus)
}
