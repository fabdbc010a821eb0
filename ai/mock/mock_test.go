package mock

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockEmbedder_Deterministic(t *testing.T) {
	m := NewMockEmbedder()
	a, err := m.EmbedText(context.Background(), "hello")
	require.NoError(t, err)
	b, err := m.EmbedText(context.Background(), "hello")
	require.NoError(t, err)
	c, err := m.EmbedText(context.Background(), "world")
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Len(t, a, DefaultDimensions)

	var sum float64
	for _, v := range a {
		sum += float64(v) * float64(v)
	}
	assert.InDelta(t, 1.0, math.Sqrt(sum), 1e-5)
	assert.Equal(t, 3, m.CallCount())
}

func TestMockEmbedder_BatchesAndDimensions(t *testing.T) {
	m := &MockEmbedder{Dimensions: 8}
	vectors, err := m.EmbedTexts(context.Background(), []string{"a", "b"})
	require.NoError(t, err)
	require.Len(t, vectors, 2)
	assert.Len(t, vectors[0], 8)
	assert.Equal(t, [][]string{{"a", "b"}}, m.Batches())

	m.Reset()
	assert.Zero(t, m.CallCount())
	assert.Empty(t, m.Batches())
}

func TestMockEmbedder_InjectedError(t *testing.T) {
	boom := errors.New("down")
	m := NewMockEmbedder()
	m.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		return nil, boom
	}
	_, err := m.EmbedTexts(context.Background(), []string{"x"})
	assert.ErrorIs(t, err, boom)
}

func TestMockVisionExtractor_ConcurrentCalls(t *testing.T) {
	m := NewMockVisionExtractor()
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = m.ExtractText(context.Background(), "u")
		}()
	}
	wg.Wait()
	assert.Equal(t, 20, m.CallCount())

	text, err := m.ExtractText(context.Background(), "https://x/p1.png")
	require.NoError(t, err)
	assert.Equal(t, "text of https://x/p1.png", text)
}

func TestMockTranscriber_Default(t *testing.T) {
	m := NewMockTranscriber()
	text, err := m.Transcribe(context.Background(), []byte("x"), "segment-000.wav")
	require.NoError(t, err)
	assert.Equal(t, "transcript of segment-000.wav", text)
	assert.Equal(t, []string{"segment-000.wav"}, m.Files())
}

func TestMockProvider(t *testing.T) {
	provider := NewMockProvider()
	mp := provider.(*MockProvider)

	assert.Same(t, mp.GetMockEmbedder(), provider.Embedder())
	assert.Same(t, mp.GetMockVisionExtractor(), provider.VisionExtractor())
	assert.Same(t, mp.GetMockTranscriber(), provider.Transcriber())

	require.NoError(t, provider.Close())
	assert.True(t, mp.Closed())
}
