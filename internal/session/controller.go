package session

import (
	"encoding/json"
	"strings"

	"github.com/agnivade/levenshtein"
	"github.com/pbellini/narrastats/internal/constants"
	"github.com/pbellini/narrastats/internal/logging"
	"github.com/pbellini/narrastats/internal/parser"
	"github.com/pbellini/narrastats/internal/stat"
)

// Controller orchestrates one active simulation state: it routes incoming
// narrative text through the command parser into registry mutations and
// renders outward-facing summaries. It is single-threaded by contract;
// callers exposing it to concurrent use must serialize access externally.
type Controller struct {
	state  *State
	parser *parser.Parser
}

// NewController wraps a state with a parser for the given grammar.
func NewController(st *State, grammar parser.Config) *Controller {
	if st == nil {
		st = NewState("")
	}
	return &Controller{state: st, parser: parser.New(grammar)}
}

// State returns the active simulation state.
func (c *Controller) State() *State { return c.state }

// Parser returns the active command parser.
func (c *Controller) Parser() *parser.Parser { return c.parser }

// Replace installs a new active state. The transition is unconditional from
// any prior state.
func (c *Controller) Replace(st *State) {
	if st == nil {
		st = NewState("")
	}
	c.state = st
}

// CommandResult is the per-command outcome of one processed message.
type CommandResult struct {
	StatID     string             `json:"statId"`
	Kind       parser.CommandKind `json:"kind"`
	Value      float64            `json:"value"`
	OK         bool               `json:"ok"`
	Error      string             `json:"error,omitempty"`
	Suggestion string             `json:"suggestion,omitempty"`
	OldValue   float64            `json:"oldValue,omitempty"`
	NewValue   float64            `json:"newValue,omitempty"`
	WasClamped bool               `json:"wasClamped,omitempty"`
}

// BatchResult aggregates the outcomes of every command found in a message.
type BatchResult struct {
	Results []CommandResult `json:"results"`
	Applied int             `json:"applied"`
}

// ProcessMessage extracts commands from narrative text and applies each one
// against the registry, strictly in textual order so a later command in the
// same message observes the effects of an earlier one. A command naming an
// unknown stat records a failure entry (with a nearest-name suggestion when
// one is close enough) and never aborts the rest of the batch.
func (c *Controller) ProcessMessage(text string) BatchResult {
	cmds := c.parser.ParseValid(text)
	out := BatchResult{Results: make([]CommandResult, 0, len(cmds))}
	for _, cmd := range cmds {
		res := CommandResult{StatID: cmd.StatID, Kind: cmd.Kind, Value: cmd.Value}
		target, ok := c.lookup(cmd.StatID)
		if !ok {
			res.Error = "stat not found"
			res.Suggestion = c.suggest(cmd.StatID)
			out.Results = append(out.Results, res)
			continue
		}

		var before, after float64
		switch cmd.Kind {
		case parser.KindSet:
			r := target.Set(cmd.Value)
			before, after = r.OldValue, r.NewValue
		default:
			r := target.Modify(cmd.Value)
			before, after = r.OldValue, r.NewValue
			res.WasClamped = r.WasClamped
		}
		res.OK = true
		res.OldValue = before
		res.NewValue = after
		out.Applied++
		c.state.Stats.Notify(stat.ChangeEvent{StatID: target.ID(), OldValue: before, NewValue: after})
	}
	if out.Applied > 0 {
		c.state.Touch()
	}
	return out
}

// lookup honors the grammar's case sensitivity: insensitive matching goes
// through the registry's normalizing getter, sensitive matching requires an
// exact key.
func (c *Controller) lookup(id string) (*stat.Stat, bool) {
	if c.parser.Config().CaseSensitive {
		return c.state.Stats.Lookup(id)
	}
	return c.state.Stats.Get(id)
}

// suggest returns the nearest registered stat ID within a length-scaled
// levenshtein distance, or "" when nothing is close.
func (c *Controller) suggest(id string) string {
	id = strings.ToLower(id)
	best := ""
	bestDist := -1
	for _, cand := range c.state.Stats.IDs() {
		dist := levenshtein.ComputeDistance(id, cand)
		if dist > levenshteinLimit(len(cand)) {
			continue
		}
		if bestDist == -1 || dist < bestDist || (dist == bestDist && cand < best) {
			best, bestDist = cand, dist
		}
	}
	return best
}

// levenshteinLimit scales the allowed edit distance with the candidate
// length; a transposed pair in a short id (glod -> gold) still matches.
func levenshteinLimit(length int) int {
	switch {
	case length <= 2:
		return 1
	case length <= 8:
		return 2
	default:
		return 3
	}
}

// TickResult reports one turn advance.
type TickResult struct {
	Turn    int                 `json:"turn"`
	Expired map[string][]string `json:"expired"`
}

// Tick advances the turn counter and ages every stat's modifier stack.
func (c *Controller) Tick() TickResult {
	expired := c.state.Tick()
	if len(expired) > 0 {
		logging.Info("modifiers expired", logging.Fields{constants.LogFieldSessionID: c.state.ID, constants.LogFieldTurn: c.state.TurnCount, "count": len(expired)})
	}
	return TickResult{Turn: c.state.TurnCount, Expired: expired}
}

// Reset returns every stat to its base value; resetTurns additionally
// zeroes the turn counter.
func (c *Controller) Reset(resetTurns bool) {
	c.state.Reset(resetTurns)
}

// Export serializes the active state as a total JSON snapshot.
func (c *Controller) Export() ([]byte, error) {
	return json.Marshal(c.state)
}

// Import replaces the active state with a restored snapshot. An unparsable
// payload reports false and leaves the current state untouched.
func (c *Controller) Import(data []byte) bool {
	st, err := Restore(data)
	if err != nil {
		logging.Error("state import rejected", err, logging.Fields{constants.LogFieldSessionID: c.state.ID})
		return false
	}
	c.state = st
	return true
}
