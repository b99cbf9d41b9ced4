package stat

import (
	"encoding/json"
	"time"

	"github.com/pbellini/narrastats/internal/constants"
	"github.com/pbellini/narrastats/internal/logging"
	"github.com/pbellini/narrastats/internal/numutil"
)

// DisplayMode selects how a stat value is rendered in summaries.
type DisplayMode string

const (
	DisplayValue    DisplayMode = "value"
	DisplayFraction DisplayMode = "fraction"
	DisplayPercent  DisplayMode = "percentage"
	DisplayBar      DisplayMode = "bar"
	DisplayHidden   DisplayMode = "hidden"
)

const barSegments = 10

// ChangeRecord is one entry of a stat's bounded change history.
type ChangeRecord struct {
	Timestamp time.Time `json:"timestamp"`
	OldValue  float64   `json:"oldValue"`
	NewValue  float64   `json:"newValue"`
	Delta     float64   `json:"delta"`
}

// Definition enumerates every recognized option for constructing a Stat.
// Optional fields use pointers so "absent" is distinguishable from zero.
type Definition struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	BaseValue   float64     `json:"base_value"`
	MinValue    *float64    `json:"min_value"`
	MaxValue    *float64    `json:"max_value"`
	DisplayMode DisplayMode `json:"display_mode"`
	Color       string      `json:"color"`
	Icon        string      `json:"icon"`
	Category    string      `json:"category"`
	ShowInUI    *bool       `json:"show_in_ui"`
}

// Stat is a bounded numeric value with a base value, a live modifier stack,
// display metadata and a bounded change history. Writes always go through
// Set/Modify so the bounds invariant (min <= current,base <= max) holds at
// all times; out-of-range input is clamped, never rejected.
type Stat struct {
	id          string
	name        string
	base        float64
	current     float64
	min         float64
	max         float64
	displayMode DisplayMode
	color       string
	icon        string
	category    string
	showInUI    bool
	mods        ModifierStack
	history     []ChangeRecord
}

// ModifyResult reports the outcome of a relative change. WasClamped is true
// whenever the clamped result differs from the unclamped arithmetic target,
// letting callers distinguish "hit a bound" from "applied in full".
type ModifyResult struct {
	OldValue        float64 `json:"oldValue"`
	NewValue        float64 `json:"newValue"`
	ActualChange    float64 `json:"actualChange"`
	RequestedChange float64 `json:"requestedChange"`
	WasClamped      bool    `json:"wasClamped"`
}

// SetResult reports the outcome of an absolute assignment.
type SetResult struct {
	OldValue float64 `json:"oldValue"`
	NewValue float64 `json:"newValue"`
}

// New constructs a Stat from a definition, normalizing the identifier,
// applying per-field defaults and correcting inverted bounds with a warning.
func New(def Definition) *Stat {
	id := numutil.SanitizeID(def.ID)
	if id == "" && def.Name != "" {
		id = numutil.SanitizeID(def.Name)
	}
	if id == "" {
		id = numutil.NewID("stat")
	}
	name := def.Name
	if name == "" {
		name = def.ID
	}

	min := float64(constants.DefaultMinValue)
	if def.MinValue != nil {
		min = *def.MinValue
	}
	max := float64(constants.DefaultMaxValue)
	if def.MaxValue != nil {
		max = *def.MaxValue
	}
	if min > max {
		logging.Warn("inverted stat bounds swapped", logging.Fields{constants.LogFieldStatID: id, "min": min, "max": max})
		min, max = max, min
	}

	mode := def.DisplayMode
	switch mode {
	case DisplayValue, DisplayFraction, DisplayPercent, DisplayBar, DisplayHidden:
	default:
		mode = DisplayValue
	}
	show := true
	if def.ShowInUI != nil {
		show = *def.ShowInUI
	}

	base := numutil.Clamp(numutil.Round(def.BaseValue), min, max)
	return &Stat{
		id:          id,
		name:        name,
		base:        base,
		current:     base,
		min:         min,
		max:         max,
		displayMode: mode,
		color:       def.Color,
		icon:        def.Icon,
		category:    def.Category,
		showInUI:    show,
	}
}

func (s *Stat) ID() string               { return s.id }
func (s *Stat) Name() string             { return s.name }
func (s *Stat) BaseValue() float64       { return s.base }
func (s *Stat) CurrentValue() float64    { return s.current }
func (s *Stat) MinValue() float64        { return s.min }
func (s *Stat) MaxValue() float64        { return s.max }
func (s *Stat) DisplayMode() DisplayMode { return s.displayMode }
func (s *Stat) Category() string         { return s.category }
func (s *Stat) ShowInUI() bool           { return s.showInUI }
func (s *Stat) Visible() bool            { return s.showInUI && s.displayMode != DisplayHidden }

// Modifiers exposes the stat's modifier stack. The stat retains exclusive
// ownership; callers mutate it only through the stack's own methods.
func (s *Stat) Modifiers() *ModifierStack { return &s.mods }

// History returns a copy of the change records, most recent last.
func (s *Stat) History() []ChangeRecord {
	out := make([]ChangeRecord, len(s.history))
	copy(out, s.history)
	return out
}

// LastChange returns the most recent change record, if any.
func (s *Stat) LastChange() (ChangeRecord, bool) {
	if len(s.history) == 0 {
		return ChangeRecord{}, false
	}
	return s.history[len(s.history)-1], true
}

func (s *Stat) record(old, new float64) {
	s.history = append(s.history, ChangeRecord{
		Timestamp: time.Now().UTC(),
		OldValue:  old,
		NewValue:  new,
		Delta:     numutil.Add(new, -old),
	})
	if len(s.history) > constants.HistoryCapacity {
		s.history = s.history[len(s.history)-constants.HistoryCapacity:]
	}
}

// Modify adds a relative delta to the current value, clamping into bounds.
// Only a value-changing write appends a history record.
func (s *Stat) Modify(delta float64) ModifyResult {
	delta = numutil.CoerceFloat(delta, 0)
	old := s.current
	target := numutil.Add(old, delta)
	clamped := numutil.Clamp(target, s.min, s.max)
	if clamped != old {
		s.current = clamped
		s.record(old, clamped)
	}
	return ModifyResult{
		OldValue:        old,
		NewValue:        clamped,
		ActualChange:    numutil.Add(clamped, -old),
		RequestedChange: delta,
		WasClamped:      clamped != target,
	}
}

// Set assigns the current value absolutely, clamping into bounds.
func (s *Stat) Set(v float64) SetResult {
	v = numutil.Clamp(numutil.Round(numutil.CoerceFloat(v, s.min)), s.min, s.max)
	old := s.current
	if v != old {
		s.current = v
		s.record(old, v)
	}
	return SetResult{OldValue: old, NewValue: v}
}

// Reset returns the current value to the base value.
func (s *Stat) Reset() SetResult { return s.Set(s.base) }

// Fill raises the current value to the maximum bound.
func (s *Stat) Fill() SetResult { return s.Set(s.max) }

// Empty lowers the current value to the minimum bound.
func (s *Stat) Empty() SetResult { return s.Set(s.min) }

// FinalValue is the current value with the modifier stack applied, then
// re-clamped. It never mutates the stored current value.
func (s *Stat) FinalValue() float64 {
	if s.mods.Len() == 0 {
		return s.current
	}
	return numutil.Clamp(numutil.Round(s.mods.ApplyAll(s.current, s.base)), s.min, s.max)
}

// Percentage reports the current value's position within the bounds.
func (s *Stat) Percentage() float64 {
	return numutil.Percent(s.current, s.min, s.max)
}

// SetBounds updates either or both bounds, swapping them with a warning if
// inverted, then re-clamps the current value through the normal setter so a
// value-changing correction shows up in the history.
func (s *Stat) SetBounds(min, max *float64) {
	if min != nil {
		s.min = numutil.Round(*min)
	}
	if max != nil {
		s.max = numutil.Round(*max)
	}
	if s.min > s.max {
		logging.Warn("inverted stat bounds swapped", logging.Fields{constants.LogFieldStatID: s.id, "min": s.min, "max": s.max})
		s.min, s.max = s.max, s.min
	}
	s.base = numutil.Clamp(s.base, s.min, s.max)
	s.Set(s.current)
}

// Tick delegates duration aging to the modifier stack and returns the IDs
// of modifiers that expired this turn.
func (s *Stat) Tick() []string { return s.mods.Tick() }

// statJSON is the stable wire form of a Stat: camelCase keys, modifiers
// embedded.
type statJSON struct {
	ID           string      `json:"id"`
	Name         string      `json:"name"`
	BaseValue    *float64    `json:"baseValue"`
	CurrentValue *float64    `json:"currentValue"`
	MinValue     *float64    `json:"minValue"`
	MaxValue     *float64    `json:"maxValue"`
	DisplayMode  DisplayMode `json:"displayMode"`
	Color        string      `json:"color"`
	Icon         string      `json:"icon"`
	Category     string      `json:"category"`
	ShowInUI     *bool       `json:"showInUI"`
	Modifiers    []Modifier  `json:"modifiers"`
}

// MarshalJSON serializes the stat's total state including its modifiers.
func (s *Stat) MarshalJSON() ([]byte, error) {
	base, current, min, max := s.base, s.current, s.min, s.max
	show := s.showInUI
	return json.Marshal(statJSON{
		ID:           s.id,
		Name:         s.name,
		BaseValue:    &base,
		CurrentValue: &current,
		MinValue:     &min,
		MaxValue:     &max,
		DisplayMode:  s.displayMode,
		Color:        s.color,
		Icon:         s.icon,
		Category:     s.category,
		ShowInUI:     &show,
		Modifiers:    s.mods.Modifiers(),
	})
}

// FromJSON restores a stat from its serialized form. Missing fields default
// per-field; a malformed payload logs and yields a default-constructed stat
// rather than failing.
func FromJSON(data []byte) *Stat {
	var raw statJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		logging.Error("malformed stat payload, using defaults", err, nil)
		return New(Definition{})
	}
	def := Definition{
		ID:          raw.ID,
		Name:        raw.Name,
		MinValue:    raw.MinValue,
		MaxValue:    raw.MaxValue,
		DisplayMode: raw.DisplayMode,
		Color:       raw.Color,
		Icon:        raw.Icon,
		Category:    raw.Category,
		ShowInUI:    raw.ShowInUI,
	}
	if raw.BaseValue != nil {
		def.BaseValue = *raw.BaseValue
	}
	st := New(def)
	if raw.CurrentValue != nil {
		st.current = numutil.Clamp(numutil.Round(*raw.CurrentValue), st.min, st.max)
	}
	for _, m := range raw.Modifiers {
		st.mods.Add(m)
	}
	return st
}

// UnmarshalJSON keeps *Stat usable inside composite snapshot structures.
func (s *Stat) UnmarshalJSON(data []byte) error {
	*s = *FromJSON(data)
	return nil
}
