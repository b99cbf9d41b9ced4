package session

import (
	"encoding/json"
	"time"

	"github.com/pbellini/narrastats/internal/logging"
	"github.com/pbellini/narrastats/internal/numutil"
	"github.com/pbellini/narrastats/internal/stat"
)

// State is one simulation state: a turn counter, a stat registry and an
// open metadata bag that the core passes through opaquely on serialization.
type State struct {
	ID        string
	Name      string
	CreatedAt time.Time
	UpdatedAt time.Time
	TurnCount int
	Stats     *stat.Registry
	Metadata  map[string]interface{}
}

// NewState creates a fresh state with an empty registry and a zero turn
// counter.
func NewState(name string) *State {
	now := time.Now().UTC()
	return &State{
		ID:        numutil.NewID("sess"),
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
		TurnCount: 0,
		Stats:     stat.NewRegistry(),
		Metadata:  make(map[string]interface{}),
	}
}

// Touch bumps the updated-at timestamp after a mutation.
func (st *State) Touch() { st.UpdatedAt = time.Now().UTC() }

// Tick advances the turn counter by one and ages every stat's modifier
// stack. The result maps stat IDs to expired modifier IDs.
func (st *State) Tick() map[string][]string {
	st.TurnCount++
	expired := st.Stats.Tick()
	st.Touch()
	return expired
}

// Reset returns every stat to its base value. Whether the turn counter is
// also zeroed is an explicit caller choice: a full simulation reset passes
// true, a stats-only reset passes false and leaves the counter alone.
func (st *State) Reset(resetTurns bool) {
	st.Stats.ResetAll()
	if resetTurns {
		st.TurnCount = 0
	}
	st.Touch()
}

// stateJSON is the stable wire form of a State.
type stateJSON struct {
	ID          string                 `json:"id"`
	Name        string                 `json:"name"`
	CreatedAt   time.Time              `json:"createdAt"`
	UpdatedAt   time.Time              `json:"updatedAt"`
	TurnCount   int                    `json:"turnCount"`
	StatManager statManagerJSON        `json:"statManager"`
	Metadata    map[string]interface{} `json:"metadata"`
}

type statManagerJSON struct {
	Stats []*stat.Stat `json:"stats"`
}

// MarshalJSON serializes the total state, stats in insertion order.
func (st *State) MarshalJSON() ([]byte, error) {
	meta := st.Metadata
	if meta == nil {
		meta = make(map[string]interface{})
	}
	return json.Marshal(stateJSON{
		ID:          st.ID,
		Name:        st.Name,
		CreatedAt:   st.CreatedAt,
		UpdatedAt:   st.UpdatedAt,
		TurnCount:   st.TurnCount,
		StatManager: statManagerJSON{Stats: st.Stats.List()},
		Metadata:    meta,
	})
}

// Restore rebuilds a State from a serialized snapshot. Syntactically
// invalid JSON is an error so callers can refuse the import without
// touching live state. A payload that is valid JSON but not an object at
// some level logs and falls back to defaults for that level instead.
func Restore(data []byte) (*State, error) {
	var probe interface{}
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, err
	}
	top, ok := probe.(map[string]interface{})
	if !ok {
		logging.Error("state payload is not an object, using defaults", nil, nil)
		return NewState(""), nil
	}

	st := NewState("")
	if s, ok := top["id"].(string); ok && s != "" {
		st.ID = s
	}
	if s, ok := top["name"].(string); ok {
		st.Name = s
	}
	if s, ok := top["createdAt"].(string); ok {
		if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
			st.CreatedAt = t
		}
	}
	if s, ok := top["updatedAt"].(string); ok {
		if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
			st.UpdatedAt = t
		}
	}
	st.TurnCount = int(numutil.CoerceFloat(top["turnCount"], 0))
	if st.TurnCount < 0 {
		st.TurnCount = 0
	}
	if m, ok := top["metadata"].(map[string]interface{}); ok {
		st.Metadata = m
	}

	mgr, ok := top["statManager"].(map[string]interface{})
	if !ok {
		if _, present := top["statManager"]; present {
			logging.Error("statManager payload is not an object, using defaults", nil, nil)
		}
		return st, nil
	}
	entries, ok := mgr["stats"].([]interface{})
	if !ok {
		return st, nil
	}
	for _, e := range entries {
		// Round-trip each entry through the tolerant per-stat decoder so a
		// malformed stat degrades to a default one instead of aborting.
		b, err := json.Marshal(e)
		if err != nil {
			continue
		}
		st.Stats.Add(stat.FromJSON(b))
	}
	return st, nil
}
