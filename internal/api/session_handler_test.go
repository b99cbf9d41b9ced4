package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/pbellini/narrastats/internal/constants"
	"github.com/pbellini/narrastats/internal/parser"
	"github.com/pbellini/narrastats/internal/session"
	"github.com/pbellini/narrastats/internal/stat"
	"github.com/pbellini/narrastats/internal/storage"
)

type memRepo struct {
	snapshots map[string][]byte
	names     map[string]string
}

func newMemRepo() *memRepo {
	return &memRepo{snapshots: map[string][]byte{}, names: map[string]string{}}
}

func (m *memRepo) SaveSession(sessionID, name string, turnCount int, snapshot []byte) error {
	m.snapshots[sessionID] = snapshot
	m.names[sessionID] = name
	return nil
}

func (m *memRepo) GetSnapshot(sessionID string) ([]byte, error) {
	b, ok := m.snapshots[sessionID]
	if !ok {
		return nil, errors.New("not found")
	}
	return b, nil
}

func (m *memRepo) ListSessions() ([]storage.SessionInfo, error) {
	out := make([]storage.SessionInfo, 0, len(m.snapshots))
	for id := range m.snapshots {
		out = append(out, storage.SessionInfo{SessionID: id, Name: m.names[id]})
	}
	return out, nil
}

func (m *memRepo) DeleteSession(sessionID string) error {
	delete(m.snapshots, sessionID)
	return nil
}

func newTestRouter(repo storage.Repository) *gin.Engine {
	gin.SetMode(gin.TestMode)
	seeds := []stat.Definition{{ID: "hp", Name: "Health", BaseValue: 50}}
	h := NewSessionHandler(repo, seeds, parser.DefaultConfig(), session.SummaryCompact)
	router := gin.New()
	apiRoutes := router.Group(constants.RouteAPIPrefix)
	apiRoutes.GET(constants.RouteHealth, Health)
	apiRoutes.POST(constants.RouteSessions, h.CreateSession)
	apiRoutes.GET(constants.RouteSessionByID, h.GetSession)
	apiRoutes.POST(constants.RouteMessage, h.PostMessage)
	apiRoutes.POST(constants.RouteTick, h.Tick)
	apiRoutes.GET(constants.RouteSummary, h.GetSummary)
	apiRoutes.GET(constants.RouteExport, h.ExportState)
	apiRoutes.POST(constants.RouteImport, h.ImportState)
	return router
}

func do(t *testing.T, router *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func createSession(t *testing.T, router *gin.Engine) string {
	t.Helper()
	w := do(t, router, http.MethodPost, "/api/sessions", `{"name": "tavern run"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("create failed: %d %s", w.Code, w.Body.String())
	}
	var created struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &created); err != nil || created.ID == "" {
		t.Fatalf("bad create payload: %v %s", err, w.Body.String())
	}
	return created.ID
}

func TestCreateMessageSummaryFlow(t *testing.T) {
	repo := newMemRepo()
	router := newTestRouter(repo)
	id := createSession(t, router)

	w := do(t, router, http.MethodPost, "/api/sessions/"+id+"/message", `{"text": "A crossbow bolt thuds home {{hp:-15}} as the crowd gasps {{fame:+2}}."}`)
	if w.Code != http.StatusOK {
		t.Fatalf("message failed: %d %s", w.Code, w.Body.String())
	}
	var batch struct {
		Applied int `json:"applied"`
		Results []struct {
			OK         bool   `json:"ok"`
			Suggestion string `json:"suggestion"`
		} `json:"results"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &batch); err != nil {
		t.Fatalf("bad batch payload: %v", err)
	}
	if batch.Applied != 1 || len(batch.Results) != 2 || batch.Results[1].OK {
		t.Fatalf("expected partial failure, got %s", w.Body.String())
	}

	w = do(t, router, http.MethodGet, "/api/sessions/"+id+"/summary?mode=compact", "")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "Health:35") {
		t.Fatalf("unexpected summary: %d %s", w.Code, w.Body.String())
	}

	// mutations were committed through the repository
	if _, ok := repo.snapshots[id]; !ok {
		t.Fatal("expected snapshot persisted")
	}
}

func TestSessionRestoredFromRepository(t *testing.T) {
	repo := newMemRepo()
	router := newTestRouter(repo)
	id := createSession(t, router)
	do(t, router, http.MethodPost, "/api/sessions/"+id+"/message", `{"text": "{{hp:=12}}"}`)

	// a fresh handler (new process) must restore from the snapshot
	router2 := newTestRouter(repo)
	w := do(t, router2, http.MethodGet, "/api/sessions/"+id, "")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"currentValue":12`) {
		t.Fatalf("restore failed: %d %s", w.Code, w.Body.String())
	}
}

func TestImportRejectsGarbageWithoutMutation(t *testing.T) {
	repo := newMemRepo()
	router := newTestRouter(repo)
	id := createSession(t, router)

	w := do(t, router, http.MethodPost, "/api/sessions/"+id+"/import", `{broken`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	w = do(t, router, http.MethodGet, "/api/sessions/"+id, "")
	if !strings.Contains(w.Body.String(), `"currentValue":50`) {
		t.Fatalf("expected state untouched, got %s", w.Body.String())
	}
}

func TestHealthReportsBuildInfo(t *testing.T) {
	router := newTestRouter(newMemRepo())
	w := do(t, router, http.MethodGet, "/api/health", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var payload map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &payload); err != nil {
		t.Fatalf("bad health payload: %v", err)
	}
	for _, key := range []string{"status", "version", "commit", "built", "dirty"} {
		if _, ok := payload[key]; !ok {
			t.Fatalf("missing key %q in health payload", key)
		}
	}
	if payload["status"] != "ok" {
		t.Fatalf("expected ok status, got %q", payload["status"])
	}
}

func TestUnknownSessionIs404(t *testing.T) {
	router := newTestRouter(newMemRepo())
	w := do(t, router, http.MethodGet, "/api/sessions/nope", "")
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

func TestTickEndpoint(t *testing.T) {
	router := newTestRouter(newMemRepo())
	id := createSession(t, router)
	w := do(t, router, http.MethodPost, "/api/sessions/"+id+"/tick", "")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"turn":1`) {
		t.Fatalf("unexpected tick response: %d %s", w.Code, w.Body.String())
	}
}
