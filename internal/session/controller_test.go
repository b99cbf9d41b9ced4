package session

import (
	"strings"
	"testing"

	"github.com/pbellini/narrastats/internal/parser"
	"github.com/pbellini/narrastats/internal/stat"
)

func floatOf(v float64) *float64 { return &v }
func durationOf(n int) *int      { return &n }

func newTestController(t *testing.T) *Controller {
	t.Helper()
	st := NewState("test")
	st.Stats.Add(stat.New(stat.Definition{ID: "hp", Name: "Health", BaseValue: 50}))
	st.Stats.Add(stat.New(stat.Definition{ID: "gold", Name: "Gold", BaseValue: 10, MaxValue: floatOf(9999)}))
	return NewController(st, parser.DefaultConfig())
}

func TestProcessMessagePartialFailure(t *testing.T) {
	c := newTestController(t)
	res := c.ProcessMessage("{{hp:-5}} the mage fizzles {{mp:=20}}")
	if len(res.Results) != 2 {
		t.Fatalf("expected 2 outcomes, got %d", len(res.Results))
	}
	if !res.Results[0].OK || res.Results[0].NewValue != 45 {
		t.Fatalf("expected hp applied to 45, got %+v", res.Results[0])
	}
	if res.Results[1].OK || res.Results[1].Error == "" {
		t.Fatalf("expected mp failure entry, got %+v", res.Results[1])
	}
	if res.Applied != 1 {
		t.Fatalf("expected 1 applied, got %d", res.Applied)
	}
	hp, _ := c.State().Stats.Get("hp")
	if hp.CurrentValue() != 45 {
		t.Fatalf("expected hp mutated to 45, got %v", hp.CurrentValue())
	}
	gold, _ := c.State().Stats.Get("gold")
	if gold.CurrentValue() != 10 {
		t.Fatalf("expected gold untouched, got %v", gold.CurrentValue())
	}
}

func TestProcessMessageAppliesInTextualOrder(t *testing.T) {
	c := newTestController(t)
	res := c.ProcessMessage("{{hp:=30}} then {{hp:-10}}")
	if res.Applied != 2 {
		t.Fatalf("expected 2 applied, got %d", res.Applied)
	}
	// the second command must observe the first one's effect
	if res.Results[1].OldValue != 30 || res.Results[1].NewValue != 20 {
		t.Fatalf("expected 30->20, got %+v", res.Results[1])
	}
}

func TestProcessMessageSuggestsNearestStat(t *testing.T) {
	c := newTestController(t)
	res := c.ProcessMessage("{{glod:-3}}")
	if len(res.Results) != 1 || res.Results[0].OK {
		t.Fatalf("expected one failure, got %+v", res.Results)
	}
	if res.Results[0].Suggestion != "gold" {
		t.Fatalf("expected suggestion 'gold', got %q", res.Results[0].Suggestion)
	}
}

func TestProcessMessageCaseSensitivity(t *testing.T) {
	cfg := parser.DefaultConfig()
	cfg.CaseSensitive = true
	st := NewState("cs")
	st.Stats.Add(stat.New(stat.Definition{ID: "hp", BaseValue: 50}))
	c := NewController(st, cfg)

	res := c.ProcessMessage("{{HP:-5}}")
	if res.Applied != 0 {
		t.Fatalf("case-sensitive grammar must miss 'HP', got %+v", res.Results)
	}
	res = c.ProcessMessage("{{hp:-5}}")
	if res.Applied != 1 {
		t.Fatalf("expected exact-case match to apply, got %+v", res.Results)
	}
}

func TestProcessMessageNotifiesListeners(t *testing.T) {
	c := newTestController(t)
	var events []stat.ChangeEvent
	c.State().Stats.OnChange(func(ev stat.ChangeEvent) { events = append(events, ev) })

	c.ProcessMessage("{{hp:-5}} {{gold:+3}}")
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	if events[0].StatID != "hp" || events[1].StatID != "gold" {
		t.Fatalf("unexpected event order: %+v", events)
	}
}

func TestTickAdvancesTurnAndExpiresModifiers(t *testing.T) {
	c := newTestController(t)
	hp, _ := c.State().Stats.Get("hp")
	hp.Modifiers().Add(stat.Modifier{ID: "blessing", Kind: stat.ModifierAdd, Value: 5, Duration: durationOf(1)})

	res := c.Tick()
	if res.Turn != 1 {
		t.Fatalf("expected turn 1, got %d", res.Turn)
	}
	if ids := res.Expired["hp"]; len(ids) != 1 || ids[0] != "blessing" {
		t.Fatalf("expected blessing to expire, got %v", res.Expired)
	}

	res = c.Tick()
	if res.Turn != 2 || len(res.Expired) != 0 {
		t.Fatalf("expected clean second tick, got %+v", res)
	}
}

func TestSummaryModes(t *testing.T) {
	c := newTestController(t)
	c.State().Stats.Add(stat.New(stat.Definition{ID: "secret", BaseValue: 1, DisplayMode: stat.DisplayHidden}))
	c.ProcessMessage("{{hp:-5}}")

	if got := c.Summary(SummaryNone); got != "" {
		t.Fatalf("expected empty summary, got %q", got)
	}

	compact := c.Summary(SummaryCompact)
	if compact != "Health:45 Gold:10" {
		t.Fatalf("unexpected compact summary: %q", compact)
	}
	if strings.Contains(compact, "secret") {
		t.Fatal("hidden stats must never appear")
	}

	verbose := c.Summary(SummaryVerbose)
	if !strings.Contains(verbose, "Health: 45 (-5)") {
		t.Fatalf("expected verbose line with signed change, got %q", verbose)
	}
	lines := strings.Split(verbose, "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 visible lines, got %q", verbose)
	}
}

func TestExportImportRoundTrip(t *testing.T) {
	c := newTestController(t)
	hp, _ := c.State().Stats.Get("hp")
	hp.Modifiers().Add(stat.Modifier{ID: "ward", Kind: stat.ModifierOverride, Value: 60, Duration: durationOf(2)})
	c.ProcessMessage("{{hp:-20}} {{gold:=777}}")
	c.Tick()

	snapshot, err := c.Export()
	if err != nil {
		t.Fatalf("export failed: %v", err)
	}

	restored := NewController(NewState("other"), parser.DefaultConfig())
	if !restored.Import(snapshot) {
		t.Fatal("import failed")
	}
	got := restored.State()
	if got.TurnCount != 1 {
		t.Fatalf("expected turn 1, got %d", got.TurnCount)
	}
	ids := got.Stats.IDs()
	if len(ids) != 2 || ids[0] != "hp" || ids[1] != "gold" {
		t.Fatalf("expected stat order preserved, got %v", ids)
	}
	rhp, _ := got.Stats.Get("hp")
	if rhp.CurrentValue() != 30 || rhp.BaseValue() != 50 {
		t.Fatalf("expected hp 30/base 50, got %v/%v", rhp.CurrentValue(), rhp.BaseValue())
	}
	if rhp.Modifiers().Len() != 1 || rhp.FinalValue() != 60 {
		t.Fatalf("expected ward modifier to survive, got %v", rhp.Modifiers().Modifiers())
	}
	rgold, _ := got.Stats.Get("gold")
	if rgold.CurrentValue() != 777 {
		t.Fatalf("expected gold 777, got %v", rgold.CurrentValue())
	}
}

func TestImportUnparsableLeavesStateUntouched(t *testing.T) {
	c := newTestController(t)
	c.ProcessMessage("{{hp:-5}}")
	if c.Import([]byte("{not json")) {
		t.Fatal("expected import to fail")
	}
	hp, _ := c.State().Stats.Get("hp")
	if hp.CurrentValue() != 45 {
		t.Fatalf("expected state untouched, got %v", hp.CurrentValue())
	}
}
