// Package index implements the persistent vector collection over the legal
// knowledge base. The collection is directory-backed: the presence of the
// collection file under the configured path is the load-vs-build signal.
package index

import (
	"context"
	"encoding/gob"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/phuslu/log"

	"laborlens-backend/llm"
	"laborlens-backend/models"
)

// ErrIndexNotFound signals that no persisted collection exists at the
// configured path. Callers fall back to a full build.
var ErrIndexNotFound = errors.New("persisted vector index not found")

const collectionFileName = "collection.gob"

// entry pairs one chunk with its embedding. Embeddings are derived from
// chunk text and never edited directly.
type entry struct {
	Chunk  models.LegalChunk
	Vector []float64
}

// collectionFile is the on-disk shape of a persisted collection.
type collectionFile struct {
	Dimension int
	Entries   []entry
}

// VectorIndex maps chunk embeddings to chunk text and provenance. Reads are
// safe for concurrent use; Build is the single exclusive-write operation and
// must not run concurrently with another build of the same collection.
type VectorIndex struct {
	dir        string
	collection string
	embedder   llm.Embedder

	mu      sync.RWMutex
	entries []entry
}

// New creates an index handle for a named collection rooted at dir.
// The handle is empty until Build or Load.
func New(dir, collection string, embedder llm.Embedder) *VectorIndex {
	return &VectorIndex{
		dir:        dir,
		collection: collection,
		embedder:   embedder,
	}
}

func (idx *VectorIndex) collectionPath() string {
	return filepath.Join(idx.dir, idx.collection, collectionFileName)
}

// Build embeds all chunks and persists the collection, overwriting any
// previous collection of the same name. Build is idempotent per collection
// name.
func (idx *VectorIndex) Build(ctx context.Context, chunks []models.LegalChunk) error {
	if len(chunks) == 0 {
		return errors.New("cannot build index from zero chunks")
	}

	texts := make([]string, len(chunks))
	for i, chunk := range chunks {
		texts[i] = chunk.Text
	}

	log.Info().Int("chunks", len(chunks)).Str("collection", idx.collection).Msg("embedding corpus chunks")
	vectors, err := idx.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		return fmt.Errorf("failed to embed corpus: %w", err)
	}
	if len(vectors) != len(chunks) {
		return fmt.Errorf("got %d vectors for %d chunks", len(vectors), len(chunks))
	}

	entries := make([]entry, len(chunks))
	for i := range chunks {
		entries[i] = entry{Chunk: chunks[i], Vector: vectors[i]}
	}

	if err := idx.persist(entries); err != nil {
		return err
	}

	idx.mu.Lock()
	idx.entries = entries
	idx.mu.Unlock()

	log.Info().Int("entries", len(entries)).Str("path", idx.collectionPath()).Msg("vector index built")
	return nil
}

func (idx *VectorIndex) persist(entries []entry) error {
	dir := filepath.Dir(idx.collectionPath())
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create index directory: %w", err)
	}

	// Write to a temp file first so a failed build never leaves a
	// truncated collection behind.
	tmp, err := os.CreateTemp(dir, "collection-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp collection file: %w", err)
	}
	defer os.Remove(tmp.Name())

	file := collectionFile{Dimension: idx.embedder.Dimension(), Entries: entries}
	if err := gob.NewEncoder(tmp).Encode(&file); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to encode collection: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp collection file: %w", err)
	}
	if err := os.Rename(tmp.Name(), idx.collectionPath()); err != nil {
		return fmt.Errorf("failed to persist collection: %w", err)
	}
	return nil
}

// Load reads the persisted collection into memory. Returns ErrIndexNotFound
// when no collection file exists; structural failures are returned as-is so
// the caller can decide to rebuild.
func (idx *VectorIndex) Load() error {
	file, err := os.Open(idx.collectionPath())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrIndexNotFound, idx.collectionPath())
		}
		return fmt.Errorf("failed to open collection: %w", err)
	}
	defer file.Close()

	var data collectionFile
	if err := gob.NewDecoder(file).Decode(&data); err != nil {
		return fmt.Errorf("failed to decode collection: %w", err)
	}
	if len(data.Entries) == 0 {
		return errors.New("persisted collection is empty")
	}

	idx.mu.Lock()
	idx.entries = data.Entries
	idx.mu.Unlock()

	log.Info().Int("entries", len(data.Entries)).Str("collection", idx.collection).Msg("vector index loaded")
	return nil
}

// Query embeds the text and returns up to k chunks ordered by descending
// similarity. Vectors are unit length, so the dot product is the cosine
// similarity.
func (idx *VectorIndex) Query(ctx context.Context, text string, k int) ([]models.ScoredChunk, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	if len(idx.entries) == 0 {
		return nil, errors.New("vector index is not loaded")
	}
	if k <= 0 {
		k = 5
	}

	queryVec, err := idx.embedder.EmbedQuery(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	scored := make([]models.ScoredChunk, len(idx.entries))
	for i, e := range idx.entries {
		scored[i] = models.ScoredChunk{Chunk: e.Chunk, Score: dot(e.Vector, queryVec)}
	}
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	if k > len(scored) {
		k = len(scored)
	}
	return scored[:k], nil
}

// Size returns the number of indexed chunks.
func (idx *VectorIndex) Size() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.entries)
}

func dot(a, b []float64) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var sum float64
	for i := 0; i < n; i++ {
		sum += a[i] * b[i]
	}
	return sum
}
