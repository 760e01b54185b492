package review

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"laborlens-backend/index"
	"laborlens-backend/models"
)

// stubEmbedder returns canned vectors so retrieval order is predictable.
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

// fakeGenerator replays canned answers and errors per call.
type fakeGenerator struct {
	answers []string
	errs    map[int]error
	calls   int
	prompts []string
}

func (f *fakeGenerator) Generate(_ context.Context, prompt string) (string, error) {
	call := f.calls
	f.calls++
	f.prompts = append(f.prompts, prompt)
	if err, ok := f.errs[call]; ok {
		return "", err
	}
	if call < len(f.answers) {
		return f.answers[call], nil
	}
	return "本合約符合現行法規", nil
}

func buildTestIndex(t *testing.T) *index.VectorIndex {
	t.Helper()

	embedder := &stubEmbedder{
		vectors: map[string][]float64{
			"雇主不得扣留受僱人之護照或居留證。": {1, 0, 0},
			"工資不得低於基本工資。":       {0, 1, 0},
		},
		query: []float64{1, 0, 0},
	}

	idx := index.New(t.TempDir(), "law_collection", embedder)
	chunks := []models.LegalChunk{
		{ID: uuid.New(), Text: "雇主不得扣留受僱人之護照或居留證。", SourceFile: "laws.json"},
		{ID: uuid.New(), Text: "工資不得低於基本工資。", SourceFile: "laws.json"},
	}
	require.NoError(t, idx.Build(context.Background(), chunks))
	return idx
}

func TestReviewAnswersInPromptOrder(t *testing.T) {
	idx := buildTestIndex(t)
	gen := &fakeGenerator{answers: []string{"答覆一", "答覆二", "答覆三"}}

	r := NewReviewer(
		WithIndex(idx),
		WithGenerator(gen),
		WithTopK(1),
	)

	prompts := []ReviewPrompt{
		{Index: 1, Template: "第一個審查角度：%s"},
		{Index: 2, Template: "第二個審查角度：%s"},
		{Index: 3, Template: "第三個審查角度：%s"},
	}

	answers, err := r.Review(context.Background(), "契約全文", prompts)

	require.NoError(t, err)
	require.Len(t, answers, 3)
	for i, answer := range answers {
		assert.Equal(t, i, answer.PromptIndex)
		assert.False(t, answer.Failed())
		require.Len(t, answer.SourceChunks, 1)
		assert.Equal(t, "雇主不得扣留受僱人之護照或居留證。", answer.SourceChunks[0].Text)
	}
	assert.Equal(t, []string{"答覆一", "答覆二", "答覆三"},
		[]string{answers[0].Text, answers[1].Text, answers[2].Text})
}

func TestReviewIsolatesFailingPrompt(t *testing.T) {
	idx := buildTestIndex(t)
	outage := errors.New("provider unavailable")
	gen := &fakeGenerator{
		answers: []string{"答覆一", "", "答覆三"},
		errs:    map[int]error{1: outage},
	}

	r := NewReviewer(WithIndex(idx), WithGenerator(gen), WithTopK(1))

	prompts := []ReviewPrompt{
		{Index: 1, Template: "角度一：%s"},
		{Index: 2, Template: "角度二：%s"},
		{Index: 3, Template: "角度三：%s"},
	}

	answers, err := r.Review(context.Background(), "契約全文", prompts)

	require.NoError(t, err)
	require.Len(t, answers, 3)
	assert.False(t, answers[0].Failed())
	assert.True(t, answers[1].Failed())
	assert.ErrorIs(t, answers[1].Err, outage)
	assert.False(t, answers[2].Failed())
	assert.Equal(t, "答覆三", answers[2].Text)
}

func TestReviewTruncatesContractOnce(t *testing.T) {
	idx := buildTestIndex(t)
	gen := &fakeGenerator{}

	r := NewReviewer(WithIndex(idx), WithGenerator(gen), WithTopK(1), WithMaxContractChars(10))

	contract := strings.Repeat("約", 50)
	prompts := []ReviewPrompt{{Index: 1, Template: "審查：%s"}}

	_, err := r.Review(context.Background(), contract, prompts)

	require.NoError(t, err)
	require.Len(t, gen.prompts, 1)
	assert.Contains(t, gen.prompts[0], strings.Repeat("約", 10))
	assert.NotContains(t, gen.prompts[0], strings.Repeat("約", 11))
}

func TestReviewCapsPromptCount(t *testing.T) {
	idx := buildTestIndex(t)
	gen := &fakeGenerator{}

	r := NewReviewer(WithIndex(idx), WithGenerator(gen), WithTopK(1))

	prompts := make([]ReviewPrompt, MaxPrompts+3)
	for i := range prompts {
		prompts[i] = ReviewPrompt{Index: i + 1, Template: "角度：%s"}
	}

	answers, err := r.Review(context.Background(), "契約全文", prompts)

	require.NoError(t, err)
	assert.Len(t, answers, MaxPrompts)
}

func TestReviewRequiresDependencies(t *testing.T) {
	_, err := NewReviewer().Review(context.Background(), "契約", DefaultPrompts())
	assert.Error(t, err)

	_, err = NewReviewer(WithIndex(buildTestIndex(t))).Review(context.Background(), "契約", DefaultPrompts())
	assert.Error(t, err)
}

func TestCleanAnswerStripsScaffolding(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "chain boilerplate",
			in:   "Use the following pieces of context to answer.\ncontext...\nHelpful Answer: 契約有違規。",
			want: "契約有違規。",
		},
		{
			name: "question echo",
			in:   "契約有違規。\nQuestion: 請審查契約",
			want: "契約有違規。",
		},
		{
			name: "template tokens",
			in:   "<s>契約有違規。</s><|im_end|>",
			want: "契約有違規。",
		},
		{
			name: "clean passthrough",
			in:   "  契約有違規。  ",
			want: "契約有違規。",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CleanAnswer(tt.in))
		})
	}
}
