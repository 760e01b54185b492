package pipeline

import (
	"context"
	"errors"
	"os"
	"strings"
	"time"

	"github.com/phuslu/log"

	"laborlens-backend/extract"
	"laborlens-backend/index"
	"laborlens-backend/llm"
	"laborlens-backend/models"
	"laborlens-backend/review"
	"laborlens-backend/storage"
)

// Result is the outcome of one successful review run.
type Result struct {
	Report      models.ReviewReport
	ReportText  string
	ContractKey string
	ReportKey   string
}

// Orchestrator drives one contract review through its stages in order,
// recording progress in the session store. Stages never retry; the first
// failure aborts the run, cleans up partial artifacts and surfaces a single
// classified StageError.
type Orchestrator struct {
	sessions  *SessionStore
	extractor *extract.Router
	artifacts storage.Store
	idx       *index.VectorIndex
	generator llm.Generator

	topK             int
	maxContractChars int
	prompts          []review.ReviewPrompt
}

// NewOrchestrator wires the pipeline.
func NewOrchestrator(
	sessions *SessionStore,
	extractor *extract.Router,
	artifacts storage.Store,
	idx *index.VectorIndex,
	generator llm.Generator,
	topK, maxContractChars int,
	prompts []review.ReviewPrompt,
) *Orchestrator {
	return &Orchestrator{
		sessions:         sessions,
		extractor:        extractor,
		artifacts:        artifacts,
		idx:              idx,
		generator:        generator,
		topK:             topK,
		maxContractChars: maxContractChars,
		prompts:          prompts,
	}
}

// Run reviews one uploaded contract file. The session must already exist in
// the store; it is removed when the run finishes, successfully or not. The
// uploaded file is consumed: deleted after a successful run and on failure.
func (o *Orchestrator) Run(ctx context.Context, sessionID, uploadPath string, startedAt time.Time) (*Result, error) {
	defer o.sessions.Remove(sessionID)

	// Extract text from the upload.
	o.sessions.SetStep(sessionID, StepExtract, models.StepActive)
	text, err := o.extractor.ExtractText(ctx, uploadPath)
	if err != nil {
		kind := KindExtraction
		if errors.Is(err, extract.ErrTextTooShort) || errors.Is(err, extract.ErrUnsupportedFormat) {
			kind = KindPrecondition
		}
		return nil, o.fail(ctx, sessionID, StepExtract, kind, err, uploadPath, "")
	}
	contract := models.ContractDocument{
		RawText:         text,
		SourcePath:      uploadPath,
		ExtractedLength: len([]rune(text)),
	}
	o.sessions.SetStep(sessionID, StepExtract, models.StepComplete)

	// Persist the extracted contract text.
	o.sessions.SetStep(sessionID, StepPersist, models.StepActive)
	contractKey := storage.ContractKey(startedAt)
	if err := o.artifacts.Save(ctx, contractKey, strings.NewReader(contract.RawText)); err != nil {
		return nil, o.fail(ctx, sessionID, StepPersist, KindPersistence, err, uploadPath, "")
	}
	o.sessions.SetStep(sessionID, StepPersist, models.StepComplete)

	// The index is built once at startup; a run only verifies it is usable.
	o.sessions.SetStep(sessionID, StepIndex, models.StepActive)
	if o.idx.Size() == 0 {
		err := errors.New("legal knowledge base is empty")
		return nil, o.fail(ctx, sessionID, StepIndex, KindPrecondition, err, uploadPath, contractKey)
	}
	o.sessions.SetStep(sessionID, StepIndex, models.StepComplete)

	// Retrieval and generation run interleaved per prompt; the reviewer
	// reports phase transitions so both steps show real progress.
	reviewer := review.NewReviewer(
		review.WithIndex(o.idx),
		review.WithGenerator(o.generator),
		review.WithTopK(o.topK),
		review.WithMaxContractChars(o.maxContractChars),
		review.WithProgress(func(phase review.Phase) {
			switch phase {
			case review.PhaseRetrieve:
				o.sessions.SetStep(sessionID, StepRetrieve, models.StepActive)
			case review.PhaseGenerate:
				o.sessions.SetStep(sessionID, StepRetrieve, models.StepComplete)
				o.sessions.SetStep(sessionID, StepGenerate, models.StepActive)
			}
		}),
	)

	answers, err := reviewer.Review(ctx, contract.RawText, o.prompts)
	if err != nil {
		return nil, o.fail(ctx, sessionID, StepGenerate, KindProvider, err, uploadPath, contractKey)
	}
	if err := allFailed(answers); err != nil {
		return nil, o.fail(ctx, sessionID, StepGenerate, KindProvider, err, uploadPath, contractKey)
	}
	o.sessions.SetStep(sessionID, StepRetrieve, models.StepComplete)
	o.sessions.SetStep(sessionID, StepGenerate, models.StepComplete)

	// Structure the answers. Unparseable answers degrade to zero
	// violations rather than failing the run.
	o.sessions.SetStep(sessionID, StepStructure, models.StepActive)
	report := review.BuildReport(contractKey, contract.ExtractedLength, answers, startedAt)
	o.sessions.SetStep(sessionID, StepStructure, models.StepComplete)

	// Render and persist the final report.
	o.sessions.SetStep(sessionID, StepReport, models.StepActive)
	reportText := review.RenderReport(report)
	reportKey := storage.ReportKey(startedAt)
	if err := o.artifacts.Save(ctx, reportKey, strings.NewReader(reportText)); err != nil {
		return nil, o.fail(ctx, sessionID, StepReport, KindPersistence, err, uploadPath, contractKey)
	}
	o.sessions.SetStep(sessionID, StepReport, models.StepComplete)

	if err := os.Remove(uploadPath); err != nil {
		log.Warn().Err(err).Str("path", uploadPath).Msg("could not remove consumed upload")
	}

	log.Info().
		Str("session", sessionID).
		Str("report", reportKey).
		Int("violations", report.Summary.TotalViolations).
		Msg("contract review finished")

	return &Result{
		Report:      report,
		ReportText:  reportText,
		ContractKey: contractKey,
		ReportKey:   reportKey,
	}, nil
}

// fail marks the step failed, removes partial artifacts and wraps the cause.
func (o *Orchestrator) fail(ctx context.Context, sessionID, stepID string, kind FailureKind, cause error, uploadPath, contractKey string) error {
	o.sessions.SetStep(sessionID, stepID, models.StepFailed)

	if uploadPath != "" {
		if err := os.Remove(uploadPath); err != nil && !os.IsNotExist(err) {
			log.Warn().Err(err).Str("path", uploadPath).Msg("could not remove upload after failure")
		}
	}
	if contractKey != "" {
		if err := o.artifacts.Delete(ctx, contractKey); err != nil {
			log.Warn().Err(err).Str("key", contractKey).Msg("could not remove contract artifact after failure")
		}
	}

	stageErr := &StageError{Stage: stepID, Kind: kind, Err: cause}
	log.Error().Err(cause).Str("session", sessionID).Str("stage", stepID).Str("kind", string(kind)).Msg("review pipeline failed")
	return stageErr
}

// allFailed returns the first underlying error when no prompt produced an
// answer; partial failure is tolerated.
func allFailed(answers []models.RawAnswer) error {
	if len(answers) == 0 {
		return errors.New("review produced no answers")
	}
	for _, answer := range answers {
		if !answer.Failed() {
			return nil
		}
	}
	return answers[0].Err
}
