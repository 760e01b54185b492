package models

import (
	"github.com/google/uuid"
)

// ChunkType distinguishes structured statute records from free-text regulation
// documents in the knowledge base.
type ChunkType string

const (
	ChunkTypeStructured ChunkType = "structured"
	ChunkTypeFreeText   ChunkType = "free_text"
)

// LegalChunk is the unit of indexing and retrieval: a bounded slice of one
// source document from the legal corpus, plus its provenance.
type LegalChunk struct {
	ID            uuid.UUID `json:"id"`
	Text          string    `json:"text"`
	SourceFile    string    `json:"source_file"`
	LawName       *string   `json:"law_name,omitempty"`
	ArticleNumber *string   `json:"article_number,omitempty"`
	ChunkType     ChunkType `json:"chunk_type"`
	ChunkIndex    int       `json:"chunk_index"`
}

// ScoredChunk is a retrieval hit: a chunk with its similarity score,
// higher is more similar.
type ScoredChunk struct {
	Chunk LegalChunk `json:"chunk"`
	Score float64    `json:"score"`
}
