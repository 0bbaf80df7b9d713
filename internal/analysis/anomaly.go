package analysis

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// Claims are the two conflicting statements behind an anomaly.
type Claims struct {
	Deck    string `json:"deck,omitempty"`
	Website string `json:"website,omitempty"`
}

type Anomaly struct {
	ID          string   `json:"id"`
	Category    string   `json:"category"`
	Severity    string   `json:"severity"` // as sent upstream, cleaned
	Priority    Priority `json:"priority"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Claims      Claims   `json:"claims"`
}

var anomalyTitles = map[string]string{
	"market":    "Market Claim Discrepancy",
	"team":      "Team Information Issue",
	"product":   "Product Claim Mismatch",
	"traction":  "Traction Data Inconsistency",
	"moat":      "Competitive Advantage Concern",
	"financial": "Financial Discrepancy",
	"legal":     "Legal/Compliance Flag",
}

// PriorityFromSeverity maps the detector's free-form severity.
func PriorityFromSeverity(severity string) Priority {
	switch strings.ToLower(strings.TrimSpace(severity)) {
	case "high", "critical":
		return PriorityHigh
	case "medium":
		return PriorityMedium
	default:
		return PriorityLow
	}
}

// AnomalyTitle picks a display title for a category, falling back to
// "<Severity> Priority Issue". A blank severity reads as low.
func AnomalyTitle(category, severity string) string {
	if t, ok := anomalyTitles[strings.ToLower(strings.TrimSpace(category))]; ok {
		return t
	}
	sev := strings.ToLower(strings.TrimSpace(severity))
	if sev == "" {
		sev = string(PriorityLow)
	}
	r, size := utf8.DecodeRuneInString(sev)
	return string(unicode.ToUpper(r)) + sev[size:] + " Priority Issue"
}

// MapAnomalies reads {success, anomaly} from the fact-check webhook.
// The detector reports at most one anomaly today; the result is a list so
// callers do not change when it reports more. Never nil.
func MapAnomalies(raw map[string]any) []Anomaly {
	out := []Anomaly{}
	if !succeeded(raw) {
		return out
	}
	a := object(raw, "anomaly")
	if a == nil {
		return out
	}
	return append(out, mapAnomaly(a))
}

func mapAnomaly(a map[string]any) Anomaly {
	text := func(m map[string]any, k string) string {
		v, _ := lookup(m, k)
		return CleanText(v)
	}
	severity := text(a, "severity")
	category := text(a, "category")
	p := PriorityFromSeverity(severity)
	claims := object(a, "claims")
	return Anomaly{
		ID:          text(a, "id"),
		Category:    category,
		Severity:    severity,
		Priority:    p,
		Title:       AnomalyTitle(category, severity),
		Description: text(a, "description"),
		Claims: Claims{
			Deck:    text(claims, "deck"),
			Website: text(claims, "website"),
		},
	}
}

func succeeded(raw map[string]any) bool {
	v, ok := lookup(raw, "success")
	if !ok {
		return false
	}
	switch x := v.(type) {
	case bool:
		return x
	case string:
		return strings.EqualFold(strings.TrimSpace(CleanText(x)), "true")
	}
	return false
}
