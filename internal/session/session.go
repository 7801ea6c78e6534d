package session

import (
	"errors"
	"sync"
	"time"

	"github.com/akolanti/PDFChat/internal/domain/commonModels"
	"github.com/akolanti/PDFChat/internal/domain/sessionModel"
	"github.com/akolanti/PDFChat/internal/rag"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionBusy     = errors.New("another request is still running for this session")
	ErrNotReady        = errors.New("no documents have been processed for this session")
	ErrEmptyQuestion   = errors.New("question is empty")
	ErrTooManySessions = errors.New("too many active sessions")
)

// Session is one user's chat. busy allows a single build or question at a time; mu guards the fields.
type Session struct {
	Id string

	busy sync.Mutex
	mu   sync.RWMutex

	mode         commonModels.ProcessingMode
	state        sessionModel.State
	conversation *rag.Conversation
	report       *sessionModel.ProcessReport
	turns        int
	createdAt    time.Time
	lastActive   time.Time
}

func newSession(id string, mode commonModels.ProcessingMode, now time.Time) *Session {
	return &Session{
		Id:         id,
		mode:       mode,
		state:      sessionModel.StateUninitialized,
		createdAt:  now,
		lastActive: now,
	}
}

func (s *Session) Snapshot() sessionModel.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sessionModel.Snapshot{
		Id:         s.Id,
		Mode:       s.mode,
		State:      s.state,
		Report:     s.report,
		Turns:      s.turns,
		CreatedAt:  s.createdAt,
		LastActive: s.lastActive,
	}
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.lastActive = now
	s.mu.Unlock()
}

func (s *Session) idleSince(now time.Time) time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return now.Sub(s.lastActive)
}

// swap installs a freshly built conversation and returns the one it replaces.
func (s *Session) swap(conv *rag.Conversation, report sessionModel.ProcessReport, now time.Time) *rag.Conversation {
	s.mu.Lock()
	defer s.mu.Unlock()
	old := s.conversation
	s.conversation = conv
	s.report = &report
	s.state = sessionModel.StateReady
	s.turns = 0
	s.lastActive = now
	return old
}

func (s *Session) ready() (*rag.Conversation, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.conversation, s.state == sessionModel.StateReady && s.conversation != nil
}
