package models

import "time"

// StepStatus is the state of one pipeline stage within a session.
type StepStatus string

const (
	StepPending  StepStatus = "pending"
	StepActive   StepStatus = "active"
	StepComplete StepStatus = "complete"
	StepFailed   StepStatus = "failed"
)

// AnalysisStep is one stage descriptor in a session's progress record.
type AnalysisStep struct {
	ID      string     `json:"id"`
	Message string     `json:"message"`
	Status  StepStatus `json:"status"`
}

// AnalysisSession is the transient progress record for one in-flight review
// request. It is created at request start and removed on completion or
// failure; it is never part of the durable report.
type AnalysisSession struct {
	SessionID string         `json:"session_id"`
	Steps     []AnalysisStep `json:"steps"`
	CreatedAt time.Time      `json:"created_at"`
}
