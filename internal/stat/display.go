package stat

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// FormatNumber renders a stat value without trailing zero noise.
func FormatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// FormatValue renders the effective (modifier-adjusted) value per the
// stat's display mode. Hidden stats render as an empty string.
func (s *Stat) FormatValue() string {
	v := s.FinalValue()
	switch s.displayMode {
	case DisplayFraction:
		return FormatNumber(v) + "/" + FormatNumber(s.max)
	case DisplayPercent:
		return fmt.Sprintf("%.0f%%", s.Percentage())
	case DisplayBar:
		filled := int(math.Round(s.Percentage() / 100 * barSegments))
		if filled < 0 {
			filled = 0
		}
		if filled > barSegments {
			filled = barSegments
		}
		return "[" + strings.Repeat("#", filled) + strings.Repeat("-", barSegments-filled) + "]"
	case DisplayHidden:
		return ""
	default:
		return FormatNumber(v)
	}
}
