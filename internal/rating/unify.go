package rating

import "math"

// Sample is one source's rating contribution.
type Sample struct {
	Score float64
	Votes int64
}

// Unify combines two rating samples into one unified score. A nil sample means
// that source has no rating. Both absent yields ok=false. Exactly one present
// passes that score through unchanged. With both present the result is a
// log10-vote-weighted average, which keeps a source with orders of magnitude
// more votes from completely dominating while still rewarding sample size.
// Non-finite results are reported as absent, never propagated.
func Unify(a, b *Sample) (float64, bool) {
	switch {
	case a == nil && b == nil:
		return 0, false
	case a == nil:
		return finite(b.Score)
	case b == nil:
		return finite(a.Score)
	}

	weightA := math.Log10(math.Max(float64(a.Votes), 1))
	weightB := math.Log10(math.Max(float64(b.Votes), 1))

	if weightA+weightB == 0 {
		return finite((a.Score + b.Score) / 2)
	}
	return finite((a.Score*weightA + b.Score*weightB) / (weightA + weightB))
}

func finite(v float64) (float64, bool) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}
