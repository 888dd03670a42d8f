package identity

import "strings"

const containmentScore = 0.8

// Similarity scores how likely two titles name the same work, in [0, 1].
// Both inputs are lowercased and stripped of non-alphanumerics first. Equal
// folded strings score 1.0, even when folding strips everything (titles
// outside ASCII fold to empty and still match themselves); one string
// containing the other scores 0.8, and anything else falls back to
// normalized edit-distance similarity floored at zero. This is a heuristic,
// not a metric: callers must not assume transitivity.
func Similarity(a, b string) float64 {
	fa := foldAlnum(a)
	fb := foldAlnum(b)
	if fa == fb {
		return 1.0
	}
	if fa == "" || fb == "" {
		return 0
	}
	if strings.Contains(fa, fb) || strings.Contains(fb, fa) {
		return containmentScore
	}

	longer, shorter := fa, fb
	if len(shorter) > len(longer) {
		longer, shorter = shorter, longer
	}
	score := 1.0 - float64(editDistance(longer, shorter))/float64(len(longer))
	if score < 0 {
		return 0
	}
	return score
}

func foldAlnum(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range strings.ToLower(s) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// editDistance computes the Levenshtein distance with a two-row table. Inputs
// are already folded to ASCII alphanumerics, so byte indexing is safe.
func editDistance(a, b string) int {
	if len(b) == 0 {
		return len(a)
	}

	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}
