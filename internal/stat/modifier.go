package stat

import (
	"github.com/pbellini/narrastats/internal/constants"
	"github.com/pbellini/narrastats/internal/logging"
	"github.com/pbellini/narrastats/internal/numutil"
)

// ModifierKind selects how a modifier participates in the effective-value
// computation.
type ModifierKind string

const (
	// ModifierAdd contributes a flat delta.
	ModifierAdd ModifierKind = "add"
	// ModifierMult scales the running total by a factor.
	ModifierMult ModifierKind = "mult"
	// ModifierPercent adds a bonus computed as a percentage of the stat's
	// base value (never the running total; see ModifierStack.ApplyAll).
	ModifierPercent ModifierKind = "percent"
	// ModifierOverride replaces the computed value outright.
	ModifierOverride ModifierKind = "override"
)

// Modifier is a single timed or permanent adjustment applied on top of a
// stat's live value without altering the stored value itself.
type Modifier struct {
	ID    string       `json:"id"`
	Kind  ModifierKind `json:"kind"`
	Value float64      `json:"value"`
	// Duration is the remaining lifetime in turns. Nil means permanent.
	Duration *int `json:"duration"`
	// Source labels where the modifier came from. Display only.
	Source string `json:"source,omitempty"`
}

// Permanent reports whether the modifier has no expiry.
func (m Modifier) Permanent() bool { return m.Duration == nil }

// ModifierStack is the ordered set of modifiers owned by exactly one Stat.
type ModifierStack struct {
	mods []Modifier
}

// Add appends a modifier. A duplicate ID replaces the prior modifier with a
// warning instead of silently accumulating; the replacement counts as the
// most recently added entry for override tie-breaking.
func (s *ModifierStack) Add(m Modifier) {
	if m.ID == "" {
		m.ID = numutil.NewID("mod")
	}
	for i := range s.mods {
		if s.mods[i].ID == m.ID {
			logging.Warn("duplicate modifier id replaced", logging.Fields{constants.LogFieldModID: m.ID})
			s.mods = append(s.mods[:i], s.mods[i+1:]...)
			break
		}
	}
	s.mods = append(s.mods, m)
}

// Remove deletes the modifier with the given ID and reports whether it existed.
func (s *ModifierStack) Remove(id string) bool {
	for i := range s.mods {
		if s.mods[i].ID == id {
			s.mods = append(s.mods[:i], s.mods[i+1:]...)
			return true
		}
	}
	return false
}

// Clear removes every modifier.
func (s *ModifierStack) Clear() { s.mods = nil }

// Len returns the number of live modifiers.
func (s *ModifierStack) Len() int { return len(s.mods) }

// Modifiers returns a copy of the live modifiers in insertion order.
func (s *ModifierStack) Modifiers() []Modifier {
	out := make([]Modifier, len(s.mods))
	copy(out, s.mods)
	return out
}

// ApplyAll computes the effective value for the owning stat. Kinds apply in
// a fixed precedence independent of insertion order so results are
// deterministic no matter how modifiers were added:
//
//  1. an override, when present, wins outright (last added breaks ties)
//  2. flat deltas are summed into the current value
//  3. the total is scaled by the product of all multipliers
//  4. percent bonuses are added, each computed against the unmodified base
//     value so they stay reproducible as the current value moves around.
func (s *ModifierStack) ApplyAll(current, base float64) float64 {
	for i := len(s.mods) - 1; i >= 0; i-- {
		if s.mods[i].Kind == ModifierOverride {
			return s.mods[i].Value
		}
	}

	result := current
	for _, m := range s.mods {
		if m.Kind == ModifierAdd {
			result = numutil.Add(result, m.Value)
		}
	}
	factor := 1.0
	for _, m := range s.mods {
		if m.Kind == ModifierMult {
			factor *= m.Value
		}
	}
	result = numutil.Round(result * factor)
	for _, m := range s.mods {
		if m.Kind == ModifierPercent {
			result = numutil.Add(result, m.Value/100*base)
		}
	}
	return result
}

// Tick ages every finite-duration modifier by one turn, removes those whose
// duration reaches zero and returns their IDs. Durations never go negative
// and permanent modifiers are never reported.
func (s *ModifierStack) Tick() []string {
	var expired []string
	kept := s.mods[:0]
	for _, m := range s.mods {
		if m.Duration == nil {
			kept = append(kept, m)
			continue
		}
		d := *m.Duration - 1
		if d <= 0 {
			expired = append(expired, m.ID)
			continue
		}
		m.Duration = &d
		kept = append(kept, m)
	}
	s.mods = kept
	return expired
}
