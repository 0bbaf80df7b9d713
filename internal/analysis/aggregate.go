package analysis

type TrustSignal string

const (
	TrustStrong   TrustSignal = "strong"
	TrustModerate TrustSignal = "moderate"
	TrustWeak     TrustSignal = "weak"
)

const (
	strongThreshold   = 80
	moderateThreshold = 60
)

// Valid reports whether t is one of the three signals.
func (t TrustSignal) Valid() bool {
	switch t {
	case TrustStrong, TrustModerate, TrustWeak:
		return true
	}
	return false
}

// ClassifyTrust buckets an aggregate score. Lower bounds are inclusive.
func ClassifyTrust(aggregate int) TrustSignal {
	switch {
	case aggregate >= strongThreshold:
		return TrustStrong
	case aggregate >= moderateThreshold:
		return TrustModerate
	default:
		return TrustWeak
	}
}

// Aggregate derives the overall score and its trust signal.
//
// An upstream overall_score (inside "scores" or at the top level) wins when it
// is > 0. Otherwise the zero-valued categories are dropped and the rest are
// averaged: a zero usually means nothing was extracted for that axis.
func Aggregate(raw map[string]any, scores ScoreSet) (int, TrustSignal) {
	if overall, ok := overallScore(raw); ok {
		agg := roundHalfUp(rescale(overall))
		return agg, ClassifyTrust(agg)
	}
	agg := MeanOfScored(scores)
	return agg, ClassifyTrust(agg)
}

// MeanOfScored is the rounded mean of all values > 0, or 0.
func MeanOfScored(scores ScoreSet) int {
	var sum float64
	n := 0
	for _, c := range Categories {
		if v := scores[c]; v > 0 {
			sum += v
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return roundHalfUp(sum / float64(n))
}

func overallScore(raw map[string]any) (float64, bool) {
	for _, m := range []map[string]any{object(raw, "scores"), raw} {
		if f := CleanNumeric(m["overall_score"]); f > 0 {
			return f, true
		}
	}
	return 0, false
}
