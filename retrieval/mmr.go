package retrieval

import "math"

// Candidate is a document considered for MMR selection. Relevance is its
// similarity to the query, normalized to [0, 1]; Terms is the set used to
// compare candidates with each other.
type Candidate struct {
	Document  Document
	Relevance float64
	Terms     map[string]struct{}
}

// SelectMMR picks up to k candidates by maximal marginal relevance:
// each step takes the candidate maximizing
//
//	lambda*relevance - (1-lambda)*max(similarity to already selected)
//
// lambda 1 is pure relevance order; lambda 0 is maximal diversity. Ties keep
// candidate order.
func SelectMMR(candidates []Candidate, k int, lambda float64) []Document {
	if k <= 0 || len(candidates) == 0 {
		return []Document{}
	}
	k = min(k, len(candidates))

	selected := make([]int, 0, k)
	used := make([]bool, len(candidates))
	maxSim := make([]float64, len(candidates))

	for len(selected) < k {
		best, bestScore := -1, math.Inf(-1)
		for i, c := range candidates {
			if used[i] {
				continue
			}
			score := lambda*c.Relevance - (1-lambda)*maxSim[i]
			if score > bestScore {
				best, bestScore = i, score
			}
		}

		used[best] = true
		selected = append(selected, best)

		for i, c := range candidates {
			if used[i] {
				continue
			}
			if s := Jaccard(c.Terms, candidates[best].Terms); s > maxSim[i] {
				maxSim[i] = s
			}
		}
	}

	docs := make([]Document, 0, len(selected))
	for _, i := range selected {
		docs = append(docs, candidates[i].Document)
	}
	return docs
}

// Jaccard is |a ∩ b| / |a ∪ b|, 0 when both are empty.
func Jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 0
	}
	if len(a) > len(b) {
		a, b = b, a
	}
	shared := 0
	for t := range a {
		if _, ok := b[t]; ok {
			shared++
		}
	}
	return float64(shared) / float64(len(a)+len(b)-shared)
}
