// Package analysis turns the loosely typed JSON returned by the pitch-deck
// webhooks into the canonical scores, trust signal and anomalies.
//
// Everything here is pure. Malformed or partial payloads degrade to zero
// scores, empty text and no anomalies instead of returning errors; only
// DecodeRaw fails, and only when the body is not JSON at all.
package analysis

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"unicode/utf8"
)

// Result is the normalized outcome of one submission.
type Result struct {
	Scores    ScoreSet    `json:"scores"`
	Reasoning Reasoning   `json:"reasoning"`
	Aggregate int         `json:"aggregate"`
	Trust     TrustSignal `json:"trust_signal"`
	Anomalies []Anomaly   `json:"anomalies"`
}

// Normalize runs the score, aggregate and anomaly mappers. Either input may be nil.
func Normalize(scoring, anomalies map[string]any) Result {
	scores, why := MapScores(scoring)
	agg, trust := Aggregate(scoring, scores)
	return Result{
		Scores:    scores,
		Reasoning: why,
		Aggregate: agg,
		Trust:     trust,
		Anomalies: MapAnomalies(anomalies),
	}
}

const excerptLen = 100

// ParseError reports a webhook body that is not JSON.
type ParseError struct {
	Excerpt string
	Err     error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("invalid response from AI: %s...", e.Excerpt)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Excerpt cuts s to at most n runes.
func Excerpt(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n])
}

// DecodeRaw parses a webhook body into a RawAnalysisResponse.
// Workflow tools often wrap the item in an array; the first object is used.
// A valid JSON body that is not an object decodes to an empty map.
func DecodeRaw(body []byte) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, &ParseError{Excerpt: Excerpt(string(body), excerptLen), Err: err}
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		if err == nil {
			err = errors.New("trailing data after JSON value")
		}
		return nil, &ParseError{Excerpt: Excerpt(string(body), excerptLen), Err: err}
	}
	switch x := v.(type) {
	case map[string]any:
		return x, nil
	case []any:
		for _, it := range x {
			if m, ok := it.(map[string]any); ok {
				return m, nil
			}
		}
	}
	return map[string]any{}, nil
}
