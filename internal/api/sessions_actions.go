package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pbellini/narrastats/internal/constants"
	"github.com/pbellini/narrastats/internal/parser"
	"github.com/pbellini/narrastats/internal/session"
	"github.com/pbellini/narrastats/internal/stat"
)

// PostMessage routes narrative text through the command parser and applies
// every extracted command. Per-command failures are reported in the result
// list; they never fail the request.
func (h *SessionHandler) PostMessage(c *gin.Context) {
	e, ok := h.entryOr404(c)
	if !ok {
		return
	}
	var body struct {
		Text string `json:"text"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{constants.JSONKeyError: constants.ErrInvalidRequest})
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	result := e.ctl.ProcessMessage(body.Text)
	if result.Applied > 0 {
		if err := h.persist(e.ctl); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{constants.JSONKeyError: constants.ErrFailedSaveSession})
			return
		}
	}
	c.JSON(http.StatusOK, result)
}

// Tick advances the session's turn counter and ages all modifiers.
func (h *SessionHandler) Tick(c *gin.Context) {
	e, ok := h.entryOr404(c)
	if !ok {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	result := e.ctl.Tick()
	if err := h.persist(e.ctl); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{constants.JSONKeyError: constants.ErrFailedSaveSession})
		return
	}
	c.JSON(http.StatusOK, result)
}

// Reset returns every stat to its base value; the body's reset_turns flag
// chooses whether the turn counter is zeroed as well.
func (h *SessionHandler) Reset(c *gin.Context) {
	e, ok := h.entryOr404(c)
	if !ok {
		return
	}
	var body struct {
		ResetTurns bool `json:"reset_turns"`
	}
	_ = c.ShouldBindJSON(&body)
	e.mu.Lock()
	defer e.mu.Unlock()
	e.ctl.Reset(body.ResetTurns)
	if err := h.persist(e.ctl); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{constants.JSONKeyError: constants.ErrFailedSaveSession})
		return
	}
	c.JSON(http.StatusOK, e.ctl.State())
}

// GetSummary renders the visible stats per the requested mode (defaulting
// to the configured mode when the query param is absent).
func (h *SessionHandler) GetSummary(c *gin.Context) {
	e, ok := h.entryOr404(c)
	if !ok {
		return
	}
	mode := h.summaryMode
	if s := c.Query("mode"); s != "" {
		mode = session.ParseSummaryMode(s)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	c.JSON(http.StatusOK, gin.H{"mode": mode, "summary": e.ctl.Summary(mode)})
}

// UpdateParserConfig replaces the session's tag grammar at runtime.
func (h *SessionHandler) UpdateParserConfig(c *gin.Context) {
	e, ok := h.entryOr404(c)
	if !ok {
		return
	}
	var cfg parser.Config
	if err := c.ShouldBindJSON(&cfg); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{constants.JSONKeyError: constants.ErrInvalidRequest})
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.ctl.Parser().SetConfig(cfg); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{constants.JSONKeyError: constants.ErrInvalidGrammar})
		return
	}
	c.JSON(http.StatusOK, cfg)
}

// AddStat registers a new stat in a live session.
func (h *SessionHandler) AddStat(c *gin.Context) {
	e, ok := h.entryOr404(c)
	if !ok {
		return
	}
	var def stat.Definition
	if err := c.ShouldBindJSON(&def); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{constants.JSONKeyError: constants.ErrInvalidRequest})
		return
	}
	if def.ID == "" && def.Name == "" {
		c.JSON(http.StatusBadRequest, gin.H{constants.JSONKeyError: constants.ErrStatIDRequired})
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	s := stat.New(def)
	e.ctl.State().Stats.Add(s)
	e.ctl.State().Touch()
	if err := h.persist(e.ctl); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{constants.JSONKeyError: constants.ErrFailedSaveSession})
		return
	}
	c.JSON(http.StatusCreated, s)
}

// DeleteStat removes a stat from a live session.
func (h *SessionHandler) DeleteStat(c *gin.Context) {
	e, ok := h.entryOr404(c)
	if !ok {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.ctl.State().Stats.Remove(c.Param("statID")) {
		c.JSON(http.StatusNotFound, gin.H{constants.JSONKeyError: constants.ErrStatNotFound})
		return
	}
	e.ctl.State().Touch()
	if err := h.persist(e.ctl); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{constants.JSONKeyError: constants.ErrFailedSaveSession})
		return
	}
	c.JSON(http.StatusOK, gin.H{constants.JSONKeyStatus: "ok"})
}
