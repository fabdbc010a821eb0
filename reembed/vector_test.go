package reembed

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeVector(t *testing.T) {
	invSqrt2 := float32(1 / math.Sqrt(2))
	tests := []struct {
		name     string
		input    []float32
		expected []float32
	}{
		{"unit vector unchanged", []float32{1, 0, 0}, []float32{1, 0, 0}},
		{"3-4-5 triangle", []float32{3, 4}, []float32{0.6, 0.8}},
		{"negative values", []float32{-1, 1}, []float32{-invSqrt2, invSqrt2}},
		{"tiny magnitudes", []float32{1e-20, 1e-20}, []float32{invSqrt2, invSqrt2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := NormalizeVector(tt.input)
			require.Len(t, result, len(tt.expected))
			var sum float64
			for i := range result {
				assert.InDelta(t, tt.expected[i], result[i], 1e-6, "element %d", i)
				sum += float64(result[i]) * float64(result[i])
			}
			assert.InDelta(t, 1.0, math.Sqrt(sum), 1e-6)
		})
	}
}

func TestNormalizeVector_DoesNotModifyInput(t *testing.T) {
	input := []float32{3, 4}
	_ = NormalizeVector(input)
	assert.Equal(t, []float32{3, 4}, input)
}

func TestNormalizeVector_ZeroVector(t *testing.T) {
	result := NormalizeVector([]float32{0, 0, 0})
	assert.Equal(t, []float32{0, 0, 0}, result)
}

func TestNormalizeVector_EmptyVector(t *testing.T) {
	assert.Empty(t, NormalizeVector([]float32{}))
}
