package api

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pbellini/narrastats/internal/constants"
	"github.com/pbellini/narrastats/internal/logging"
	"github.com/pbellini/narrastats/internal/session"
	"github.com/pbellini/narrastats/internal/stat"
)

// CreateSession creates a fresh session seeded with the configured stats
// plus any stats supplied in the request body.
func (h *SessionHandler) CreateSession(c *gin.Context) {
	var body struct {
		Name  string            `json:"name"`
		Stats []stat.Definition `json:"stats"`
	}
	if err := c.ShouldBindJSON(&body); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{constants.JSONKeyError: constants.ErrInvalidRequest})
		return
	}

	st := session.NewState(body.Name)
	for _, def := range h.seedStats {
		st.Stats.Add(stat.New(def))
	}
	for _, def := range body.Stats {
		st.Stats.Add(stat.New(def))
	}
	ctl := session.NewController(st, h.grammar)
	e := h.install(ctl)

	e.mu.Lock()
	defer e.mu.Unlock()
	if err := h.persist(ctl); err != nil {
		h.evict(st.ID)
		c.JSON(http.StatusInternalServerError, gin.H{constants.JSONKeyError: constants.ErrFailedCreateSession})
		return
	}
	logging.Info("session created", logging.Fields{constants.LogFieldSessionID: st.ID})
	c.JSON(http.StatusCreated, ctl.State())
}

// ListSessions returns the persisted sessions, most recently updated first.
func (h *SessionHandler) ListSessions(c *gin.Context) {
	infos, err := h.repo.ListSessions()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{constants.JSONKeyError: constants.ErrFailedListSessions})
		return
	}
	c.JSON(http.StatusOK, infos)
}

// GetSession returns the current snapshot of a session.
func (h *SessionHandler) GetSession(c *gin.Context) {
	e, ok := h.entryOr404(c)
	if !ok {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	c.JSON(http.StatusOK, e.ctl.State())
}

// DeleteSession removes a session from the store and the live cache.
func (h *SessionHandler) DeleteSession(c *gin.Context) {
	sessionID := c.Param("sessionID")
	if sessionID == "" {
		c.JSON(http.StatusBadRequest, gin.H{constants.JSONKeyError: constants.ErrInvalidSessionID})
		return
	}
	if err := h.repo.DeleteSession(sessionID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{constants.JSONKeyError: constants.ErrFailedDeleteSession})
		return
	}
	h.evict(sessionID)
	c.JSON(http.StatusOK, gin.H{constants.JSONKeyStatus: "ok"})
}

// ExportState returns the raw snapshot JSON for external backup.
func (h *SessionHandler) ExportState(c *gin.Context) {
	e, ok := h.entryOr404(c)
	if !ok {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	snapshot, err := e.ctl.Export()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{constants.JSONKeyError: constants.ErrFailedEncodeState})
		return
	}
	c.Data(http.StatusOK, "application/json", snapshot)
}

// ImportState replaces a session's state with the posted snapshot. An
// unparsable payload is rejected without mutating the current state.
func (h *SessionHandler) ImportState(c *gin.Context) {
	e, ok := h.entryOr404(c)
	if !ok {
		return
	}
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{constants.JSONKeyError: constants.ErrInvalidRequest})
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.ctl.Import(body) {
		c.JSON(http.StatusBadRequest, gin.H{constants.JSONKeyError: constants.ErrImportRejected})
		return
	}
	// The snapshot may carry its own ID; re-key the cache so follow-up
	// requests find the controller under the imported identity.
	imported := e.ctl.State().ID
	if imported != c.Param("sessionID") {
		h.evict(c.Param("sessionID"))
		h.mu.Lock()
		h.sessions[imported] = e
		h.mu.Unlock()
	}
	if err := h.persist(e.ctl); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{constants.JSONKeyError: constants.ErrFailedSaveSession})
		return
	}
	c.JSON(http.StatusOK, e.ctl.State())
}

// entryOr404 resolves the session route param to a live entry.
func (h *SessionHandler) entryOr404(c *gin.Context) (*sessionEntry, bool) {
	sessionID := c.Param("sessionID")
	if sessionID == "" {
		c.JSON(http.StatusBadRequest, gin.H{constants.JSONKeyError: constants.ErrInvalidSessionID})
		return nil, false
	}
	e, err := h.entry(sessionID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{constants.JSONKeyError: constants.ErrSessionNotFound})
		return nil, false
	}
	return e, true
}
