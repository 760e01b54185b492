package review

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/phuslu/log"

	"laborlens-backend/index"
	"laborlens-backend/llm"
	"laborlens-backend/models"
)

// Phase identifies which part of a review prompt is currently running.
type Phase int

const (
	PhaseRetrieve Phase = iota
	PhaseGenerate
)

// Reviewer runs the retrieval-augmented review: for each prompt it retrieves
// the most relevant law chunks, generates an analysis conditioned on them,
// and collects raw answers with their cited sources.
type Reviewer struct {
	index            *index.VectorIndex
	generator        llm.Generator
	topK             int
	maxContractChars int
	progress         func(Phase)
}

// ReviewerOption is a functional option for Reviewer.
type ReviewerOption func(*Reviewer)

// WithIndex sets the vector index used for retrieval.
func WithIndex(idx *index.VectorIndex) ReviewerOption {
	return func(r *Reviewer) {
		r.index = idx
	}
}

// WithGenerator sets the generation provider.
func WithGenerator(gen llm.Generator) ReviewerOption {
	return func(r *Reviewer) {
		r.generator = gen
	}
}

// WithTopK sets the number of chunks retrieved per prompt.
func WithTopK(k int) ReviewerOption {
	return func(r *Reviewer) {
		r.topK = k
	}
}

// WithMaxContractChars sets the contract truncation budget in runes.
func WithMaxContractChars(max int) ReviewerOption {
	return func(r *Reviewer) {
		r.maxContractChars = max
	}
}

// WithProgress sets a callback invoked as each prompt enters its retrieval
// and generation phases. Used for progress reporting; may be nil.
func WithProgress(fn func(Phase)) ReviewerOption {
	return func(r *Reviewer) {
		r.progress = fn
	}
}

// NewReviewer creates a reviewer.
func NewReviewer(opts ...ReviewerOption) *Reviewer {
	r := &Reviewer{
		topK:             5,
		maxContractChars: 30000,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Review processes the prompts sequentially and returns one RawAnswer per
// prompt, in prompt order. A failing prompt yields a failed answer carrying
// the captured error; sibling prompts proceed. Prompts are never run in
// parallel: ordering stays unambiguous and the provider is not hammered
// with concurrent calls.
func (r *Reviewer) Review(ctx context.Context, contractText string, prompts []ReviewPrompt) ([]models.RawAnswer, error) {
	if r.index == nil {
		return nil, errors.New("vector index not set")
	}
	if r.generator == nil {
		return nil, errors.New("generation provider not set")
	}
	if len(prompts) > MaxPrompts {
		prompts = prompts[:MaxPrompts]
	}

	truncated := TruncateContract(contractText, r.maxContractChars)
	if len(truncated) < len(contractText) {
		log.Warn().Int("limit", r.maxContractChars).Msg("contract text truncated for review")
	}

	answers := make([]models.RawAnswer, 0, len(prompts))
	for i, prompt := range prompts {
		answers = append(answers, r.reviewOne(ctx, i, prompt, truncated))
	}
	return answers, nil
}

func (r *Reviewer) reviewOne(ctx context.Context, promptIndex int, prompt ReviewPrompt, contractText string) models.RawAnswer {
	answer := models.RawAnswer{PromptIndex: promptIndex}

	question := prompt.Render(contractText)

	start := time.Now()
	r.notify(PhaseRetrieve)
	hits, err := r.index.Query(ctx, question, r.topK)
	if err != nil {
		log.Error().Err(err).Int("prompt", promptIndex).Msg("retrieval failed")
		answer.Err = err
		answer.LatencySeconds = time.Since(start).Seconds()
		return answer
	}

	contextTexts := make([]string, len(hits))
	answer.SourceChunks = make([]models.LegalChunk, len(hits))
	for i, hit := range hits {
		contextTexts[i] = hit.Chunk.Text
		answer.SourceChunks[i] = hit.Chunk
	}

	r.notify(PhaseGenerate)
	raw, err := r.generator.Generate(ctx, augmentPrompt(contextTexts, question))
	answer.LatencySeconds = time.Since(start).Seconds()
	if err != nil {
		log.Error().Err(err).Int("prompt", promptIndex).Msg("generation failed")
		answer.Err = err
		return answer
	}

	answer.Text = CleanAnswer(raw)
	log.Info().
		Int("prompt", promptIndex).
		Float64("latency_secs", answer.LatencySeconds).
		Int("sources", len(answer.SourceChunks)).
		Msg("review prompt answered")
	return answer
}

func (r *Reviewer) notify(phase Phase) {
	if r.progress != nil {
		r.progress(phase)
	}
}

// scaffoldMarkers are provider/chat-template tokens that occasionally leak
// into answers.
var scaffoldMarkers = []string{"<|im_start|>", "<|im_end|>", "<s>", "</s>"}

// CleanAnswer strips retrieval-chain boilerplate and scaffolding tokens from
// a raw model answer.
func CleanAnswer(answer string) string {
	if strings.Contains(answer, "Use the following pieces of context") {
		if parts := strings.Split(answer, "Helpful Answer:"); len(parts) > 1 {
			answer = parts[len(parts)-1]
		}
	}
	if strings.Contains(answer, "Question:") {
		if parts := strings.Split(answer, "Question:"); len(parts) > 1 {
			answer = parts[0]
		}
	}
	for _, marker := range scaffoldMarkers {
		answer = strings.ReplaceAll(answer, marker, "")
	}
	return strings.TrimSpace(answer)
}
