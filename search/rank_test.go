package search

import (
	"testing"

	"github.com/poiesic/docingest/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b []float32
		want float32
	}{
		{"identical", []float32{1, 2, 3}, []float32{1, 2, 3}, 1},
		{"opposite", []float32{1, 0}, []float32{-1, 0}, -1},
		{"orthogonal", []float32{1, 0}, []float32{0, 1}, 0},
		{"zero norm", []float32{0, 0}, []float32{1, 1}, 0},
		{"scaled", []float32{1, 1}, []float32{5, 5}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CosineSimilarity(tt.a, tt.b)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-6)
		})
	}

	t.Run("length mismatch", func(t *testing.T) {
		_, err := CosineSimilarity([]float32{1, 2}, []float32{1, 2, 3})
		assert.ErrorIs(t, err, core.ErrDimensionMismatch)
	})
}

func TestRank(t *testing.T) {
	query := []float32{1, 0}
	candidates := []Candidate{
		{ID: "far", Vector: []float32{0, 1}},
		{ID: "near", Vector: []float32{0.9, 0.1}},
		{ID: "exact", Vector: []float32{2, 0}},
		{ID: "away", Vector: []float32{-1, 0}},
	}

	t.Run("orders by descending score", func(t *testing.T) {
		results, err := Rank(query, candidates, 0)
		require.NoError(t, err)
		require.Len(t, results, 4)
		assert.Equal(t, "exact", results[0].ID)
		assert.InDelta(t, 1.0, results[0].Score, 1e-6)
		assert.Equal(t, "near", results[1].ID)
		assert.Equal(t, "far", results[2].ID)
		assert.Equal(t, "away", results[3].ID)
	})

	t.Run("truncates to topK", func(t *testing.T) {
		results, err := Rank(query, candidates, 2)
		require.NoError(t, err)
		require.Len(t, results, 2)
		assert.Equal(t, "exact", results[0].ID)
		assert.Equal(t, "near", results[1].ID)
	})

	t.Run("topK larger than candidates", func(t *testing.T) {
		results, err := Rank(query, candidates, 10)
		require.NoError(t, err)
		assert.Len(t, results, 4)
	})

	t.Run("ties keep input order", func(t *testing.T) {
		tied := []Candidate{
			{ID: "b", Vector: []float32{1, 1}},
			{ID: "a", Vector: []float32{1, 1}},
			{ID: "c", Vector: []float32{1, 1}},
		}
		results, err := Rank(query, tied, 0)
		require.NoError(t, err)
		assert.Equal(t, []string{"b", "a", "c"}, []string{results[0].ID, results[1].ID, results[2].ID})
	})

	t.Run("no candidates", func(t *testing.T) {
		results, err := Rank(query, nil, 3)
		require.NoError(t, err)
		assert.Empty(t, results)
	})

	t.Run("dimension mismatch", func(t *testing.T) {
		_, err := Rank(query, []Candidate{{ID: "x", Vector: []float32{1, 0, 0}}}, 0)
		assert.ErrorIs(t, err, core.ErrDimensionMismatch)
	})
}
