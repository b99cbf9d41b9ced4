package session

import (
	"encoding/json"
	"testing"

	"github.com/pbellini/narrastats/internal/stat"
)

func TestStateTickAgesModifiers(t *testing.T) {
	st := NewState("s")
	hp := stat.New(stat.Definition{ID: "hp", BaseValue: 50})
	hp.Modifiers().Add(stat.Modifier{ID: "m", Kind: stat.ModifierAdd, Value: 1, Duration: durationOf(2)})
	st.Stats.Add(hp)

	if expired := st.Tick(); len(expired) != 0 {
		t.Fatalf("expected nothing to expire on first tick, got %v", expired)
	}
	expired := st.Tick()
	if ids := expired["hp"]; len(ids) != 1 || ids[0] != "m" {
		t.Fatalf("expected m to expire on second tick, got %v", expired)
	}
	if st.TurnCount != 2 {
		t.Fatalf("expected turn 2, got %d", st.TurnCount)
	}
}

func TestStateResetTurnCounterChoice(t *testing.T) {
	st := NewState("s")
	hp := stat.New(stat.Definition{ID: "hp", BaseValue: 50})
	st.Stats.Add(hp)
	st.Tick()
	st.Tick()
	hp.Set(5)

	// stats-only reset preserves the counter
	st.Reset(false)
	if hp.CurrentValue() != 50 {
		t.Fatalf("expected base restore, got %v", hp.CurrentValue())
	}
	if st.TurnCount != 2 {
		t.Fatalf("expected counter preserved, got %d", st.TurnCount)
	}

	// full reset zeroes it
	hp.Set(5)
	st.Reset(true)
	if st.TurnCount != 0 {
		t.Fatalf("expected counter zeroed, got %d", st.TurnCount)
	}
}

func TestRestoreRejectsInvalidJSON(t *testing.T) {
	if _, err := Restore([]byte("{{{")); err == nil {
		t.Fatal("expected error for invalid JSON")
	}
}

func TestRestoreNonObjectYieldsDefaults(t *testing.T) {
	st, err := Restore([]byte(`"just a string"`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if st == nil || st.TurnCount != 0 || st.Stats.Len() != 0 {
		t.Fatalf("expected fresh default state, got %+v", st)
	}
}

func TestRestoreToleratesMissingAndMalformedFields(t *testing.T) {
	payload := `{
		"id": "sess-1",
		"turnCount": "not a number",
		"statManager": {"stats": [
			{"id": "hp", "baseValue": 40},
			"garbage entry"
		]},
		"metadata": {"scene": "tavern"}
	}`
	st, err := Restore([]byte(payload))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if st.ID != "sess-1" {
		t.Fatalf("expected id kept, got %q", st.ID)
	}
	if st.TurnCount != 0 {
		t.Fatalf("expected defaulted counter, got %d", st.TurnCount)
	}
	if st.Stats.Len() != 2 {
		t.Fatalf("expected 2 stats (one defaulted), got %d", st.Stats.Len())
	}
	hp, ok := st.Stats.Get("hp")
	if !ok || hp.BaseValue() != 40 {
		t.Fatalf("expected hp restored, got %+v", hp)
	}
	if st.Metadata["scene"] != "tavern" {
		t.Fatalf("expected metadata passthrough, got %v", st.Metadata)
	}
}

func TestStateMarshalShape(t *testing.T) {
	st := NewState("shape")
	st.Stats.Add(stat.New(stat.Definition{ID: "hp", BaseValue: 50}))
	b, err := json.Marshal(st)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	var raw map[string]interface{}
	if err := json.Unmarshal(b, &raw); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	for _, key := range []string{"id", "name", "createdAt", "updatedAt", "turnCount", "statManager", "metadata"} {
		if _, ok := raw[key]; !ok {
			t.Fatalf("missing key %q in snapshot", key)
		}
	}
	mgr, ok := raw["statManager"].(map[string]interface{})
	if !ok {
		t.Fatal("statManager must be an object")
	}
	if _, ok := mgr["stats"].([]interface{}); !ok {
		t.Fatal("statManager.stats must be an array")
	}
}
