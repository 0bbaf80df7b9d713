package analysis

import (
	"encoding/json"
	"fmt"
	"strings"
)

type Category string

const (
	Team     Category = "Team"
	Market   Category = "Market"
	Product  Category = "Product"
	Traction Category = "Traction"
	Moat     Category = "Moat"
)

// Categories lists the evaluation axes in display order.
var Categories = []Category{Team, Market, Product, Traction, Moat}

// ParseCategory accepts any casing of a category name.
func ParseCategory(s string) (Category, error) {
	for _, c := range Categories {
		if strings.EqualFold(string(c), strings.TrimSpace(s)) {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown category %q", s)
}

// upstream key names inside the "scores" and "reasoning" containers
func (c Category) scoreKey() string  { return strings.ToLower(string(c)) + "_score" }
func (c Category) reasonKey() string { return strings.ToLower(string(c)) }

const (
	upstreamScale = 10.0
	maxScore      = 100.0
)

// ScoreSet holds one 0..100 value per category.
type ScoreSet map[Category]float64

// Reasoning holds the explanation text per category.
type Reasoning map[Category]string

// MarshalJSON always emits all five categories.
func (s ScoreSet) MarshalJSON() ([]byte, error) {
	out := make(map[string]float64, len(Categories))
	for _, c := range Categories {
		out[string(c)] = s[c]
	}
	return json.Marshal(out)
}

func (r Reasoning) MarshalJSON() ([]byte, error) {
	out := make(map[string]string, len(Categories))
	for _, c := range Categories {
		out[string(c)] = r[c]
	}
	return json.Marshal(out)
}

// MapScores reads the scoring webhook payload. Missing or malformed fields
// become 0 / "", so the result is always complete.
//
// Container keys are matched in any casing; leaf keys must be the exact
// upstream names (team_score, ..., team, ...). A payload already in
// canonical shape ({"Team": 80}) reads as entirely missing.
func MapScores(raw map[string]any) (ScoreSet, Reasoning) {
	scores := object(raw, "scores")
	reasons := object(raw, "reasoning")

	set := make(ScoreSet, len(Categories))
	why := make(Reasoning, len(Categories))
	for _, c := range Categories {
		set[c] = rescale(CleanNumeric(scores[c.scoreKey()]))
		why[c] = CleanText(reasons[c.reasonKey()])
	}
	return set, why
}

// rescale maps the upstream 0..10 scale onto 0..100.
func rescale(f float64) float64 {
	return clamp(f*upstreamScale, 0, maxScore)
}
