package models

import "github.com/google/uuid"

// Field length caps applied by the structurer. Over-long fields are
// truncated, never rejected.
const (
	MaxOriginalTextLen = 200
	MaxReasonLen       = 300
	MaxSuggestionLen   = 300
	MaxViolatedLaws    = 3
)

// SeverityLevel classifies a report's overall compliance risk. Derived
// solely from the violation count, never from model output.
type SeverityLevel string

const (
	SeverityLow    SeverityLevel = "low"
	SeverityMedium SeverityLevel = "medium"
	SeverityHigh   SeverityLevel = "high"
)

// OverallStatus is the compliant / non-compliant verdict of a report.
type OverallStatus string

const (
	StatusCompliant    OverallStatus = "compliant"
	StatusNonCompliant OverallStatus = "non_compliant"
)

// Violation is one structured finding parsed from a model answer:
// the offending clause, the laws it violates, why, and a suggested fix.
type Violation struct {
	ID           int      `json:"id"`
	OriginalText string   `json:"originalText"`
	ViolatedLaws []string `json:"violatedLaws"`
	Reason       string   `json:"reason"`
	Suggestion   string   `json:"suggestion"`
}

// LawReference is one cited knowledge-base chunk, deduplicated across
// prompts by (source file, chunk id).
type LawReference struct {
	Content    string    `json:"content"`
	SourceFile string    `json:"source"`
	ChunkID    uuid.UUID `json:"chunk_id"`
}

// ReviewSummary aggregates a report's verdict.
type ReviewSummary struct {
	TotalViolations int           `json:"total_violations"`
	SeverityLevel   SeverityLevel `json:"severity_level"`
	OverallStatus   OverallStatus `json:"overall_status"`
}

// ReviewReport is the aggregate result of one contract review. Immutable
// after creation; persisted both as JSON and as the report.txt artifact.
type ReviewReport struct {
	ReviewDate     string         `json:"review_date"`
	ContractPath   string         `json:"contract_file"`
	ContractLength int            `json:"contract_length"`
	Violations     []Violation    `json:"violations"`
	RelatedLaws    []LawReference `json:"related_laws"`
	Summary        ReviewSummary  `json:"summary"`
}

// ClassifySeverity maps a violation count to a severity level. This is a
// fixed policy: 0 is low, 1-2 medium, 3 or more high.
func ClassifySeverity(violationCount int) SeverityLevel {
	switch {
	case violationCount == 0:
		return SeverityLow
	case violationCount <= 2:
		return SeverityMedium
	default:
		return SeverityHigh
	}
}

// ClassifyStatus maps a violation count to the overall verdict.
func ClassifyStatus(violationCount int) OverallStatus {
	if violationCount == 0 {
		return StatusCompliant
	}
	return StatusNonCompliant
}
