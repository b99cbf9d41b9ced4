package session

import (
	"strings"

	"github.com/pbellini/narrastats/internal/numutil"
	"github.com/pbellini/narrastats/internal/stat"
)

// SummaryMode selects the outward-facing rendering of current stats.
type SummaryMode string

const (
	// SummaryNone suppresses the summary entirely.
	SummaryNone SummaryMode = "none"
	// SummaryCompact is a single line of name:value pairs.
	SummaryCompact SummaryMode = "compact"
	// SummaryVerbose is a multi-line block with formatted display strings
	// and the signed last change per stat.
	SummaryVerbose SummaryMode = "verbose"
)

// ParseSummaryMode maps a string to a SummaryMode, defaulting to compact.
func ParseSummaryMode(s string) SummaryMode {
	switch SummaryMode(strings.ToLower(strings.TrimSpace(s))) {
	case SummaryNone:
		return SummaryNone
	case SummaryVerbose:
		return SummaryVerbose
	default:
		return SummaryCompact
	}
}

// Summary renders the visible stats. Hidden or UI-suppressed stats are
// always excluded, whatever the mode.
func (c *Controller) Summary(mode SummaryMode) string {
	if mode == SummaryNone {
		return ""
	}
	visible := c.state.Stats.ListFiltered("", true)
	if len(visible) == 0 {
		return ""
	}
	if mode == SummaryCompact {
		pairs := make([]string, 0, len(visible))
		for _, s := range visible {
			pairs = append(pairs, s.Name()+":"+stat.FormatNumber(s.FinalValue()))
		}
		return strings.Join(pairs, " ")
	}

	var b strings.Builder
	for i, s := range visible {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(s.Name())
		b.WriteString(": ")
		b.WriteString(s.FormatValue())
		if last, ok := s.LastChange(); ok {
			b.WriteString(" (")
			b.WriteString(signed(last.Delta))
			b.WriteString(")")
		}
	}
	return b.String()
}

func signed(v float64) string {
	if v >= 0 {
		return "+" + stat.FormatNumber(v)
	}
	return stat.FormatNumber(numutil.Round(v))
}
