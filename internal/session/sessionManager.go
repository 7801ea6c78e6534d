package session

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/akolanti/PDFChat/internal/adapter/utils"
	"github.com/akolanti/PDFChat/internal/config"
	"github.com/akolanti/PDFChat/internal/domain/commonModels"
	"github.com/akolanti/PDFChat/internal/domain/sessionModel"
	"github.com/akolanti/PDFChat/internal/metrics"
	"github.com/akolanti/PDFChat/internal/rag"
	"github.com/akolanti/PDFChat/pkg/logger_i"
)

// Manager is the in-memory session registry. Histories live in the ConversationStore, indexes in memory.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session

	service     rag.Service
	store       sessionModel.ConversationStore
	defaultMode commonModels.ProcessingMode
	idleTimeout time.Duration
	maxSessions int
	now         func() time.Time
	logger      *logger_i.Logger
}

type Option func(*Manager)

func WithDefaultMode(mode commonModels.ProcessingMode) Option {
	return func(m *Manager) { m.defaultMode = mode }
}

func WithIdleTimeout(d time.Duration) Option {
	return func(m *Manager) { m.idleTimeout = d }
}

func WithMaxSessions(n int) Option {
	return func(m *Manager) { m.maxSessions = n }
}

func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

func NewManager(service rag.Service, store sessionModel.ConversationStore, opts ...Option) *Manager {
	m := &Manager{
		sessions:    make(map[string]*Session),
		service:     service,
		store:       store,
		defaultMode: commonModels.ModePublic,
		idleTimeout: config.SessionIdleTimeout,
		maxSessions: config.MaxSessions,
		now:         time.Now,
		logger:      logger_i.NewLogger("Session Manager"),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Manager) Create(ctx context.Context) (sessionModel.Snapshot, error) {
	m.evictIdle(ctx)

	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.sessions) >= m.maxSessions {
		return sessionModel.Snapshot{}, ErrTooManySessions
	}
	s := newSession(utils.GetNewUUID(), m.defaultMode, m.now())
	m.sessions[s.Id] = s
	metrics.IncrementActiveSessions()

	m.logger.WithTrace(ctx, config.TRACE_ID_KEY).Info("Created session", "session", s.Id, "mode", s.mode)
	return s.Snapshot(), nil
}

func (m *Manager) Get(ctx context.Context, id string) (sessionModel.Snapshot, error) {
	s, err := m.lookup(id)
	if err != nil {
		return sessionModel.Snapshot{}, err
	}
	return s.Snapshot(), nil
}

// SetMode changes the mode used by the next build. The current index keeps the providers it was built with.
func (m *Manager) SetMode(ctx context.Context, id string, mode commonModels.ProcessingMode) (sessionModel.Snapshot, error) {
	s, err := m.lookup(id)
	if err != nil {
		return sessionModel.Snapshot{}, err
	}
	if !s.busy.TryLock() {
		return sessionModel.Snapshot{}, ErrSessionBusy
	}
	defer s.busy.Unlock()

	s.mu.Lock()
	s.mode = mode
	s.lastActive = m.now()
	s.mu.Unlock()

	m.logger.WithTrace(ctx, config.TRACE_ID_KEY).Info("Changed processing mode", "session", id, "mode", mode)
	return s.Snapshot(), nil
}

// Process builds a new index from uploads. The session only changes when every stage succeeds;
// on success the history is cleared and the previous index closed.
func (m *Manager) Process(ctx context.Context, id string, uploads []commonModels.Upload) (sessionModel.ProcessReport, error) {
	s, err := m.lookup(id)
	if err != nil {
		return sessionModel.ProcessReport{}, err
	}
	if !s.busy.TryLock() {
		return sessionModel.ProcessReport{}, ErrSessionBusy
	}
	defer s.busy.Unlock()

	// a client going away does not abort a build
	ctx = context.WithoutCancel(ctx)
	log := m.logger.WithTrace(ctx, config.TRACE_ID_KEY).With("session", id)

	s.mu.RLock()
	mode := s.mode
	s.mu.RUnlock()

	conv, report, err := m.service.Build(ctx, uploads, mode)
	if err != nil {
		log.Warn("Processing failed, session unchanged", "error", err)
		return report, err
	}

	if err := m.store.ResetHistory(ctx, id); err != nil {
		log.Error("Resetting history failed", "error", err)
		if closeErr := conv.Close(ctx); closeErr != nil {
			log.Error("Closing new index failed", "error", closeErr)
		}
		return report, fmt.Errorf("resetting conversation history: %w", err)
	}

	old := s.swap(conv, report, m.now())
	if old == nil {
		metrics.IncrementReadySessions()
	} else if err := old.Close(ctx); err != nil {
		log.Error("Closing previous index failed", "error", err)
	}

	log.Info("Session ready", "chunks", report.Chunks, "embedding", report.EmbeddingProvider, "generator", report.GeneratorProvider)
	return report, nil
}

// Ask answers one question and appends exactly one turn to the history.
func (m *Manager) Ask(ctx context.Context, id string, question string) (rag.Answer, error) {
	s, err := m.lookup(id)
	if err != nil {
		return rag.Answer{}, err
	}
	question = strings.TrimSpace(question)
	if question == "" {
		return rag.Answer{}, ErrEmptyQuestion
	}
	if !s.busy.TryLock() {
		return rag.Answer{}, ErrSessionBusy
	}
	defer s.busy.Unlock()

	conv, ok := s.ready()
	if !ok {
		return rag.Answer{}, ErrNotReady
	}
	log := m.logger.WithTrace(ctx, config.TRACE_ID_KEY).With("session", id)

	history, err := m.store.GetHistory(ctx, id)
	if err != nil {
		log.Error("Reading history failed", "error", err)
		return rag.Answer{}, fmt.Errorf("reading conversation history: %w", err)
	}

	answer, err := m.service.Answer(ctx, conv, question, history)
	if err != nil {
		s.touch(m.now())
		return answer, err
	}

	turn := commonModels.Turn{Question: question, Answer: answer.Text, CreatedAt: m.now().UTC()}
	if err := m.store.AppendTurn(ctx, id, turn); err != nil {
		log.Error("Saving turn failed", "error", err)
		return answer, fmt.Errorf("saving conversation turn: %w", err)
	}

	s.mu.Lock()
	s.turns++
	s.lastActive = m.now()
	s.mu.Unlock()

	log.Info("Answered question", "provider", answer.Provider, "sources", len(answer.Sources))
	return answer, nil
}

func (m *Manager) History(ctx context.Context, id string) ([]commonModels.Turn, error) {
	if _, err := m.lookup(id); err != nil {
		return nil, err
	}
	return m.store.GetHistory(ctx, id)
}

func (m *Manager) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	s, ok := m.sessions[id]
	if !ok {
		m.mu.Unlock()
		return ErrSessionNotFound
	}
	if !s.busy.TryLock() {
		m.mu.Unlock()
		return ErrSessionBusy
	}
	delete(m.sessions, id)
	m.mu.Unlock()

	m.release(ctx, s)
	s.busy.Unlock()
	m.logger.WithTrace(ctx, config.TRACE_ID_KEY).Info("Deleted session", "session", id)
	return nil
}

// Close releases every session, used on shutdown.
func (m *Manager) Close(ctx context.Context) {
	m.mu.Lock()
	sessions := m.sessions
	m.sessions = make(map[string]*Session)
	m.mu.Unlock()

	for _, s := range sessions {
		m.release(ctx, s)
	}
}

func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

func (m *Manager) lookup(id string) (*Session, error) {
	m.mu.RLock()
	s, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

// evictIdle drops sessions idle past the timeout. Sessions with work in flight are skipped.
func (m *Manager) evictIdle(ctx context.Context) {
	now := m.now()
	var expired []*Session

	m.mu.Lock()
	for id, s := range m.sessions {
		if s.idleSince(now) < m.idleTimeout {
			continue
		}
		if !s.busy.TryLock() {
			continue
		}
		s.busy.Unlock()
		delete(m.sessions, id)
		expired = append(expired, s)
	}
	m.mu.Unlock()

	for _, s := range expired {
		m.logger.Info("Evicting idle session", "session", s.Id)
		m.release(ctx, s)
	}
}

func (m *Manager) release(ctx context.Context, s *Session) {
	s.mu.Lock()
	conv := s.conversation
	wasReady := s.state == sessionModel.StateReady
	s.conversation = nil
	s.state = sessionModel.StateUninitialized
	s.mu.Unlock()

	if conv != nil {
		if err := conv.Close(ctx); err != nil {
			m.logger.Error("Closing index failed", "session", s.Id, "error", err)
		}
	}
	if err := m.store.DeleteSession(ctx, s.Id); err != nil {
		m.logger.Error("Deleting history failed", "session", s.Id, "error", err)
	}
	if wasReady {
		metrics.DecrementReadySessions()
	}
	metrics.DecrementActiveSessions()
}
