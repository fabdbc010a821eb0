package gemini

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/generative-ai-go/genai"
	"github.com/poiesic/docingest/ai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResponseText(t *testing.T) {
	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []genai.Part{
				genai.Text("Page one "),
				genai.Blob{MIMEType: "image/png"},
				genai.Text("continues."),
			}},
		}},
	}
	assert.Equal(t, "Page one continues.", responseText(resp))

	assert.Empty(t, responseText(nil))
	assert.Empty(t, responseText(&genai.GenerateContentResponse{}))
	assert.Empty(t, responseText(&genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{}},
	}))
}

func TestBatchValues(t *testing.T) {
	res := &genai.BatchEmbedContentsResponse{
		Embeddings: []*genai.ContentEmbedding{
			{Values: []float32{1, 0}},
			{Values: []float32{0, 1}},
		},
	}
	got, err := batchValues(res, 2)
	require.NoError(t, err)
	assert.Equal(t, [][]float32{{1, 0}, {0, 1}}, got)

	_, err = batchValues(res, 3)
	assert.ErrorContains(t, err, "want 3 embeddings, got 2")

	_, err = batchValues(&genai.BatchEmbedContentsResponse{
		Embeddings: []*genai.ContentEmbedding{{}},
	}, 1)
	assert.ErrorIs(t, err, errEmptyEmbedding)
}

func TestFetchImage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing.png" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte("\x89PNG"))
	}))
	defer server.Close()

	data, err := fetchImage(context.Background(), server.Client(), server.URL+"/page-1.png")
	require.NoError(t, err)
	assert.Equal(t, []byte("\x89PNG"), data)

	_, err = fetchImage(context.Background(), server.Client(), server.URL+"/missing.png")
	assert.ErrorContains(t, err, "404")
}

func TestNewProvider_RejectsOtherProviders(t *testing.T) {
	_, err := NewProvider(context.Background(), ai.NewConfig())
	assert.ErrorContains(t, err, "gemini provider")
}
