package api

import (
	"errors"
	"sync"

	"github.com/pbellini/narrastats/internal/dedupe"
	"github.com/pbellini/narrastats/internal/parser"
	"github.com/pbellini/narrastats/internal/session"
	"github.com/pbellini/narrastats/internal/stat"
	"github.com/pbellini/narrastats/internal/storage"
)

// SessionHandler groups all session-related HTTP handlers. Each live
// session is cached in memory behind its own mutex: the engine itself is
// single-threaded by contract, so the adapter serializes concurrent
// requests per session here.
type SessionHandler struct {
	repo        storage.Repository
	seedStats   []stat.Definition
	grammar     parser.Config
	summaryMode session.SummaryMode

	mu       sync.Mutex
	sessions map[string]*sessionEntry
}

type sessionEntry struct {
	mu  sync.Mutex
	ctl *session.Controller
}

// NewSessionHandler creates a SessionHandler with the configured session
// seeds, tag grammar and default summary mode.
func NewSessionHandler(repo storage.Repository, seedStats []stat.Definition, grammar parser.Config, summaryMode session.SummaryMode) *SessionHandler {
	return &SessionHandler{
		repo:        repo,
		seedStats:   seedStats,
		grammar:     grammar,
		summaryMode: summaryMode,
		sessions:    make(map[string]*sessionEntry),
	}
}

var errSessionNotFound = errors.New("session not found")

// entry returns the cached live session, restoring it from the repository
// when absent. Concurrent restores of the same session are deduplicated.
func (h *SessionHandler) entry(sessionID string) (*sessionEntry, error) {
	h.mu.Lock()
	if e, ok := h.sessions[sessionID]; ok {
		h.mu.Unlock()
		return e, nil
	}
	h.mu.Unlock()

	v, err, _ := dedupe.SessionGroup.Do(sessionID, func() (interface{}, error) {
		snapshot, err := h.repo.GetSnapshot(sessionID)
		if err != nil {
			return nil, errSessionNotFound
		}
		st, err := session.Restore(snapshot)
		if err != nil {
			return nil, err
		}
		e := &sessionEntry{ctl: session.NewController(st, h.grammar)}
		h.mu.Lock()
		// Another request may have won the race while we were restoring;
		// keep the first cached entry so there is one controller per session.
		if prior, ok := h.sessions[sessionID]; ok {
			e = prior
		} else {
			h.sessions[sessionID] = e
		}
		h.mu.Unlock()
		return e, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*sessionEntry), nil
}

// install caches a freshly created session.
func (h *SessionHandler) install(ctl *session.Controller) *sessionEntry {
	e := &sessionEntry{ctl: ctl}
	h.mu.Lock()
	h.sessions[ctl.State().ID] = e
	h.mu.Unlock()
	return e
}

// evict drops a session from the in-memory cache.
func (h *SessionHandler) evict(sessionID string) {
	h.mu.Lock()
	delete(h.sessions, sessionID)
	h.mu.Unlock()
}

// persist writes the session snapshot through the repository. This is the
// commit step of every mutating endpoint.
func (h *SessionHandler) persist(ctl *session.Controller) error {
	snapshot, err := ctl.Export()
	if err != nil {
		return err
	}
	st := ctl.State()
	return h.repo.SaveSession(st.ID, st.Name, st.TurnCount, snapshot)
}
