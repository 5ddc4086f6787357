package usecases

import (
	"log/slog"
	"sync"
	"time"

	"github.com/facebookgo/clock"
	"github.com/google/uuid"

	"github.com/samirrijal/ipmap/internal/core/domain"
	"github.com/samirrijal/ipmap/internal/core/ports"
	"github.com/samirrijal/ipmap/internal/pkg/metrics"
)

// DefaultMaxSessions caps concurrently open sessions when no limit is configured.
const DefaultMaxSessions = 1000

type sessionEntry struct {
	session *ViewSession
	view    *ReportedView
}

// SessionService owns the open view sessions, keyed by ID.
type SessionService struct {
	snapshot    *ClusterSnapshot
	classifier  *DensityClassifier
	publisher   ports.EventPublisher
	clock       clock.Clock
	cfg         SessionConfig
	maxSessions int
	logger      *slog.Logger

	mu       sync.Mutex
	sessions map[string]*sessionEntry
}

// NewSessionService creates a SessionService. publisher may be nil.
func NewSessionService(snapshot *ClusterSnapshot, classifier *DensityClassifier, publisher ports.EventPublisher, clk clock.Clock, cfg SessionConfig, maxSessions int) *SessionService {
	if clk == nil {
		clk = clock.New()
	}
	if maxSessions <= 0 {
		maxSessions = DefaultMaxSessions
	}
	return &SessionService{
		snapshot:    snapshot,
		classifier:  classifier,
		publisher:   publisher,
		clock:       clk,
		cfg:         cfg,
		maxSessions: maxSessions,
		logger:      slog.Default(),
		sessions:    make(map[string]*sessionEntry),
	}
}

// Open starts a session. onUpdate, when non-nil, receives every visible set the
// session computes.
func (s *SessionService) Open(onUpdate func(*domain.VisibleSet)) (*ViewSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.sessions) >= s.maxSessions {
		return nil, ErrSessionLimit
	}

	id := uuid.NewString()
	view := NewReportedView()
	session := NewViewSession(ViewSessionParams{
		ID:         id,
		Snapshot:   s.snapshot,
		Classifier: s.classifier,
		View:       view,
		Clock:      s.clock,
		Publisher:  s.publisher,
		OnUpdate:   onUpdate,
		Config:     s.cfg,
		Logger:     s.logger,
	})
	s.sessions[id] = &sessionEntry{session: session, view: view}
	metrics.ActiveSessions.Set(float64(len(s.sessions)))

	s.logger.Debug("session opened", "session_id", id)
	return session, nil
}

// Get returns the open session with the given ID.
func (s *SessionService) Get(id string) (*ViewSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return e.session, nil
}

// UpdateView stores the bounds a client reports and notifies its session.
func (s *SessionService) UpdateView(id string, bounds domain.Bounds) error {
	s.mu.Lock()
	e, ok := s.sessions[id]
	s.mu.Unlock()
	if !ok {
		return ErrSessionNotFound
	}
	e.view.Report(RegionFromBounds(bounds))
	e.session.NotifyViewChanged()
	return nil
}

// Close tears a session down.
func (s *SessionService) Close(id string) error {
	s.mu.Lock()
	e, ok := s.sessions[id]
	if ok {
		delete(s.sessions, id)
		metrics.ActiveSessions.Set(float64(len(s.sessions)))
	}
	s.mu.Unlock()
	if !ok {
		return ErrSessionNotFound
	}
	closeEntry(e)
	return nil
}

// ReapIdle closes sessions inactive for longer than maxIdle and returns how many
// were closed.
func (s *SessionService) ReapIdle(maxIdle time.Duration) int {
	cutoff := s.clock.Now().Add(-maxIdle)

	s.mu.Lock()
	var idle []*sessionEntry
	for id, e := range s.sessions {
		if e.session.LastActive().Before(cutoff) {
			idle = append(idle, e)
			delete(s.sessions, id)
		}
	}
	metrics.ActiveSessions.Set(float64(len(s.sessions)))
	s.mu.Unlock()

	for _, e := range idle {
		closeEntry(e)
	}
	if len(idle) > 0 {
		s.logger.Info("reaped idle sessions", "count", len(idle))
	}
	return len(idle)
}

// CloseAll tears every session down, used on shutdown.
func (s *SessionService) CloseAll() {
	s.mu.Lock()
	entries := make([]*sessionEntry, 0, len(s.sessions))
	for _, e := range s.sessions {
		entries = append(entries, e)
	}
	s.sessions = make(map[string]*sessionEntry)
	metrics.ActiveSessions.Set(0)
	s.mu.Unlock()

	for _, e := range entries {
		closeEntry(e)
	}
}

// Len is the number of open sessions.
func (s *SessionService) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

func closeEntry(e *sessionEntry) {
	e.view.Detach()
	e.session.Close()
}
