package s3

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/poiesic/docingest/objectstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(endpoint string) Config {
	return Config{
		Endpoint:  endpoint,
		Bucket:    "uploads",
		AccessKey: "access",
		SecretKey: "secretsecret",
		Region:    "us-east-1",
	}
}

func TestNew_RequiresEndpointAndBucket(t *testing.T) {
	_, err := New(Config{Bucket: "b"})
	assert.ErrorIs(t, err, ErrEndpointRequired)

	_, err = New(Config{Endpoint: "localhost:9000"})
	assert.ErrorIs(t, err, ErrBucketRequired)
}

func TestPresign_IsLocal(t *testing.T) {
	s, err := New(testConfig("localhost:9000"))
	require.NoError(t, err)

	raw, err := s.Presign(context.Background(), "images/abc/page-1.png", time.Hour)
	require.NoError(t, err)

	u, err := url.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "localhost:9000", u.Host)
	assert.Equal(t, "/uploads/images/abc/page-1.png", u.Path)
	assert.Equal(t, "3600", u.Query().Get("X-Amz-Expires"))
	assert.NotEmpty(t, u.Query().Get("X-Amz-Signature"))
}

func TestGet_MissingKeyIsNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	s, err := New(testConfig(strings.TrimPrefix(server.URL, "http://")))
	require.NoError(t, err)

	_, err = s.Get(context.Background(), "missing.pdf")
	assert.ErrorIs(t, err, objectstore.ErrObjectNotFound)
}
