package vector

import "sort"

// Candidate is a stored vector considered for a nearest-neighbour query.
type Candidate struct {
	ID     string
	Vector []float64
}

// Match is a ranked candidate.
type Match struct {
	ID       string
	Distance float64
	// Index is the candidate's position in the input slice.
	Index int
}

// Nearest returns the k candidates closest to query by cosine distance,
// ascending. Ties keep input order. k <= 0 returns nil.
func Nearest(query []float64, candidates []Candidate, k int) []Match {
	if k <= 0 || len(candidates) == 0 {
		return nil
	}
	matches := make([]Match, len(candidates))
	for i, c := range candidates {
		matches[i] = Match{ID: c.ID, Distance: CosineDistance(query, c.Vector), Index: i}
	}
	sort.SliceStable(matches, func(i, j int) bool { return matches[i].Distance < matches[j].Distance })
	if k > len(matches) {
		k = len(matches)
	}
	return matches[:k]
}
