package analysis

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// exprPrefix is what the workflow tool leaves in front of values rendered
// from an expression field.
const exprPrefix = "="

// CleanNumeric coerces a loosely typed webhook value to a float.
// Strings may carry a leading "=" and surrounding spaces. Anything that
// does not yield a finite number is 0.
func CleanNumeric(v any) float64 {
	var f float64
	switch x := v.(type) {
	case float64:
		f = x
	case float32:
		f = float64(x)
	case int:
		f = float64(x)
	case int32:
		f = float64(x)
	case int64:
		f = float64(x)
	case json.Number:
		p, err := x.Float64()
		if err != nil {
			return 0
		}
		f = p
	case string:
		s := strings.TrimSpace(strings.TrimPrefix(x, exprPrefix))
		p, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0
		}
		f = p
	default:
		return 0
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

// CleanText returns the string with one leading "=" removed.
// Non-strings are "".
func CleanText(v any) string {
	s, ok := v.(string)
	if !ok {
		return ""
	}
	return strings.TrimPrefix(s, exprPrefix)
}

// lookup finds key in m, preferring an exact match and falling back to a
// case-insensitive one ("scores" vs "Scores").
func lookup(m map[string]any, key string) (any, bool) {
	if m == nil {
		return nil, false
	}
	if v, ok := m[key]; ok {
		return v, true
	}
	for k, v := range m {
		if strings.EqualFold(k, key) {
			return v, true
		}
	}
	return nil, false
}

// object returns the nested map stored under key, or nil.
func object(m map[string]any, key string) map[string]any {
	v, ok := lookup(m, key)
	if !ok {
		return nil
	}
	o, _ := v.(map[string]any)
	return o
}

func clamp(f, lo, hi float64) float64 {
	if f < lo {
		return lo
	}
	if f > hi {
		return hi
	}
	return f
}

// roundHalfUp rounds to the nearest integer with .5 going up.
func roundHalfUp(f float64) int {
	return int(math.Floor(f + 0.5))
}
