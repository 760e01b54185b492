// Package pipeline runs the contract review end to end and tracks per-stage
// progress for polling clients.
package pipeline

import (
	"sync"
	"time"

	"laborlens-backend/models"
)

// Step identifiers, one per pipeline stage a client can observe.
const (
	StepExtract   = "extract"
	StepPersist   = "persist"
	StepIndex     = "index"
	StepRetrieve  = "retrieve"
	StepGenerate  = "generate"
	StepStructure = "structure"
	StepReport    = "report"
)

// stepOrder fixes the display order and messages of the progress steps.
var stepOrder = []models.AnalysisStep{
	{ID: StepExtract, Message: "正在提取文字..."},
	{ID: StepPersist, Message: "儲存契約文字..."},
	{ID: StepIndex, Message: "載入法規向量資料庫..."},
	{ID: StepRetrieve, Message: "搜尋相關法條..."},
	{ID: StepGenerate, Message: "AI 分析契約內容..."},
	{ID: StepStructure, Message: "生成違規項目列表..."},
	{ID: StepReport, Message: "生成最終報告..."},
}

// SessionStore tracks the progress of in-flight reviews. Sessions exist only
// while their review runs; a finished or failed session is removed, so an
// unknown id and a completed one are indistinguishable to pollers.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*models.AnalysisSession
}

// NewSessionStore creates an empty store.
func NewSessionStore() *SessionStore {
	return &SessionStore{sessions: make(map[string]*models.AnalysisSession)}
}

// Create registers a new session with every step pending.
func (s *SessionStore) Create(sessionID string) {
	steps := make([]models.AnalysisStep, len(stepOrder))
	copy(steps, stepOrder)
	for i := range steps {
		steps[i].Status = models.StepPending
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sessionID] = &models.AnalysisSession{
		SessionID: sessionID,
		Steps:     steps,
		CreatedAt: time.Now(),
	}
}

// Get returns a snapshot of the session, if it exists.
func (s *SessionStore) Get(sessionID string) (models.AnalysisSession, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, ok := s.sessions[sessionID]
	if !ok {
		return models.AnalysisSession{}, false
	}

	snapshot := *session
	snapshot.Steps = make([]models.AnalysisStep, len(session.Steps))
	copy(snapshot.Steps, session.Steps)
	return snapshot, true
}

// SetStep updates the status of one step.
func (s *SessionStore) SetStep(sessionID, stepID string, status models.StepStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[sessionID]
	if !ok {
		return
	}
	for i := range session.Steps {
		if session.Steps[i].ID == stepID {
			session.Steps[i].Status = status
			return
		}
	}
}

// Remove drops the session.
func (s *SessionStore) Remove(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sessionID)
}

// Len returns the number of live sessions.
func (s *SessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
