package index

import (
	"context"

	"github.com/phuslu/log"

	"laborlens-backend/corpus"
	"laborlens-backend/models"
)

// Builder assembles the full load-or-build startup policy: attempt to load
// the persisted collection, and on ErrIndexNotFound or any structural
// failure rebuild it from the corpus. Intended to run once at process
// initialization so knowledge-base builds are naturally serialized.
type Builder struct {
	loader  *corpus.Loader
	chunker *corpus.Chunker
}

// NewBuilder wires the corpus pipeline used for full rebuilds.
func NewBuilder(loader *corpus.Loader, chunker *corpus.Chunker) *Builder {
	return &Builder{loader: loader, chunker: chunker}
}

// ChunkCorpus loads every document and splits it into indexable chunks.
func (b *Builder) ChunkCorpus() ([]models.LegalChunk, error) {
	documents, err := b.loader.Load()
	if err != nil {
		return nil, err
	}

	var chunks []models.LegalChunk
	for _, doc := range documents {
		chunks = append(chunks, b.chunker.ChunkDocument(doc)...)
	}
	log.Info().Int("documents", len(documents)).Int("chunks", len(chunks)).Msg("corpus chunked")
	return chunks, nil
}

// LoadOrBuild returns a queryable index, paying the embedding cost only
// when no usable persisted collection exists.
func (b *Builder) LoadOrBuild(ctx context.Context, idx *VectorIndex) error {
	if err := idx.Load(); err == nil {
		return nil
	} else {
		log.Warn().Err(err).Msg("could not load persisted index, rebuilding")
	}

	chunks, err := b.ChunkCorpus()
	if err != nil {
		return err
	}
	return idx.Build(ctx, chunks)
}
