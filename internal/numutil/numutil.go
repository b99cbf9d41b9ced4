// Package numutil centralizes the numeric coercion, clamping and rounding
// policy applied at every external boundary (construction, setters, parser
// literal conversion).
package numutil

import (
	"encoding/json"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// valuePrecision is the fixed decimal precision used by Add. Rounding every
// arithmetic result to this precision keeps repeated +d/-d round-trips exact
// instead of accumulating binary floating-point drift.
const valuePrecision = 6

// CoerceFloat converts an arbitrary value to float64, falling back to def
// for anything that is not a finite number. Strings are parsed as numeric
// literals (surrounding whitespace tolerated).
func CoerceFloat(v interface{}, def float64) float64 {
	switch n := v.(type) {
	case float64:
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return def
		}
		return n
	case float32:
		return CoerceFloat(float64(n), def)
	case int:
		return float64(n)
	case int64:
		return float64(n)
	case uint:
		return float64(n)
	case json.Number:
		return CoerceFloat(string(n), def)
	case string:
		f, ok := ParseFloat(n)
		if !ok {
			return def
		}
		return f
	case bool:
		if n {
			return 1
		}
		return 0
	case nil:
		return def
	default:
		return def
	}
}

// ParseFloat parses a numeric literal, tolerating surrounding whitespace
// and an explicit leading plus sign. It reports false for anything that is
// not a finite number.
func ParseFloat(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "+")
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// Clamp restricts v to the inclusive range [min, max].
func Clamp(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

// Round truncates v to the shared fixed decimal precision.
func Round(v float64) float64 {
	scale := math.Pow10(valuePrecision)
	return math.Round(v*scale) / scale
}

// Add returns a+b rounded to the shared precision so that a sequence of
// additions and subtractions of the same deltas restores the original value.
func Add(a, b float64) float64 {
	return Round(a + b)
}

// Percent returns the position of v within [min, max] as a percentage.
// A degenerate range (min == max) reports 100 to avoid division by zero.
func Percent(v, min, max float64) float64 {
	if min == max {
		return 100
	}
	return (v - min) / (max - min) * 100
}

var idUnsafe = regexp.MustCompile(`[^a-z0-9_-]+`)

// SanitizeID normalizes a stat identifier: lowercase, whitespace and
// punctuation runs collapsed to a single underscore, leading/trailing
// underscores trimmed.
func SanitizeID(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = idUnsafe.ReplaceAllString(s, "_")
	return strings.Trim(s, "_")
}

// NewID generates a unique identifier with the given prefix.
func NewID(prefix string) string {
	id := uuid.NewString()
	if prefix == "" {
		return id
	}
	return prefix + "-" + id
}
