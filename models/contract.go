package models

// ContractDocument is the text extracted from an uploaded contract file.
// Produced by the extraction boundary, consumed read-only by the reviewer.
type ContractDocument struct {
	RawText         string `json:"raw_text"`
	SourcePath      string `json:"source_path"`
	ExtractedLength int    `json:"extracted_length"`
}

// RawAnswer is the generation provider's answer for one review prompt,
// together with the chunks that were retrieved as its context. Answers are
// ordered by prompt index regardless of individual latencies.
type RawAnswer struct {
	PromptIndex    int          `json:"prompt_index"`
	Text           string       `json:"text"`
	SourceChunks   []LegalChunk `json:"source_chunks"`
	LatencySeconds float64      `json:"latency_seconds"`
	Err            error        `json:"-"`
}

// Failed reports whether this prompt's generation call failed. A failed
// answer carries the captured error and an empty text.
func (a RawAnswer) Failed() bool {
	return a.Err != nil
}
