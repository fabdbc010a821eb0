package search

import (
	"fmt"
	"math"
	"slices"

	"github.com/poiesic/docingest/core"
)

// Candidate is a vector to be ranked against a query.
type Candidate struct {
	ID     string
	Vector []float32
}

// CosineSimilarity returns the cosine of the angle between a and b.
// A zero-norm vector scores 0. Vectors of different lengths yield
// core.ErrDimensionMismatch.
func CosineSimilarity(a, b []float32) (float32, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("%w: %d vs %d", core.ErrDimensionMismatch, len(a), len(b))
	}
	var dot, normA, normB float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		normA += x * x
		normB += y * y
	}
	if normA == 0 || normB == 0 {
		return 0, nil
	}
	return float32(dot / (math.Sqrt(normA) * math.Sqrt(normB))), nil
}

// Rank scores every candidate against query by cosine similarity and
// returns the best topK, highest first. Equal scores keep input order.
// topK <= 0 returns every candidate.
func Rank(query []float32, candidates []Candidate, topK int) ([]core.SimilarityResult, error) {
	results := make([]core.SimilarityResult, len(candidates))
	for i, c := range candidates {
		score, err := CosineSimilarity(query, c.Vector)
		if err != nil {
			return nil, fmt.Errorf("candidate %s: %w", c.ID, err)
		}
		results[i] = core.SimilarityResult{ID: c.ID, Score: score}
	}

	slices.SortStableFunc(results, func(a, b core.SimilarityResult) int {
		switch {
		case a.Score > b.Score:
			return -1
		case a.Score < b.Score:
			return 1
		}
		return 0
	})

	if topK > 0 && len(results) > topK {
		results = results[:topK]
	}
	return results, nil
}
