package pipeline

import "fmt"

// FailureKind classifies why a pipeline run failed.
type FailureKind string

const (
	// KindPrecondition covers rejected input: unsupported format, too
	// little extracted text, an unusable knowledge base.
	KindPrecondition FailureKind = "precondition"

	// KindExtraction covers OCR and PDF processing failures.
	KindExtraction FailureKind = "extraction"

	// KindProvider covers embedding and generation provider failures.
	KindProvider FailureKind = "provider"

	// KindPersistence covers artifact write failures.
	KindPersistence FailureKind = "persistence"
)

// StageError is the single error a failed run surfaces: which stage failed,
// how the failure classifies, and the underlying cause.
type StageError struct {
	Stage string
	Kind  FailureKind
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("stage %s failed (%s): %v", e.Stage, e.Kind, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}
