package search

import (
	"context"
	"errors"
	"log/slog"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/poiesic/docingest/ai"
	"github.com/poiesic/docingest/core"
	"github.com/poiesic/docingest/storage"
)

// DefaultTopK is the number of results Search returns when topK is zero.
const DefaultTopK = 5

// Searcher answers nearest-chunk queries over embedded chunks.
type Searcher struct {
	chunks      storage.ChunkRepository
	embedder    ai.Embedder
	cache       *lru.Cache[string, []float32]
	cacheSize   int
	defaultTopK int
	logger      *slog.Logger
}

// Option configures a Searcher.
type Option func(*Searcher) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Searcher) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// WithCacheSize sets how many query embeddings are kept. Zero disables caching.
// Default is 256.
func WithCacheSize(n int) Option {
	return func(s *Searcher) error {
		if n < 0 {
			return errors.New("cache size cannot be negative")
		}
		s.cacheSize = n
		return nil
	}
}

// WithDefaultTopK sets the result count used when Search is called with topK == 0.
func WithDefaultTopK(k int) Option {
	return func(s *Searcher) error {
		if k < 1 {
			return errors.New("default topK must be positive")
		}
		s.defaultTopK = k
		return nil
	}
}

// NewSearcher creates a new searcher.
func NewSearcher(chunks storage.ChunkRepository, embedder ai.Embedder, opts ...Option) (*Searcher, error) {
	if chunks == nil {
		return nil, ErrChunkRepositoryRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}

	s := &Searcher{
		chunks:      chunks,
		embedder:    embedder,
		cacheSize:   256,
		defaultTopK: DefaultTopK,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}

	if s.cacheSize > 0 {
		cache, err := lru.New[string, []float32](s.cacheSize)
		if err != nil {
			return nil, err
		}
		s.cache = cache
	}
	s.logger = s.logger.With("component", "search")
	return s, nil
}

// SearchOption narrows a single search.
type SearchOption func(*searchConfig)

type searchConfig struct {
	documentID core.DocumentID
	monitor    SearchMonitor
}

// WithDocument restricts candidates to one document's chunks.
func WithDocument(id core.DocumentID) SearchOption {
	return func(c *searchConfig) {
		c.documentID = id
	}
}

// WithMonitor observes the stages of one search.
func WithMonitor(m SearchMonitor) SearchOption {
	return func(c *searchConfig) {
		if m != nil {
			c.monitor = m
		}
	}
}

// Search returns the topK chunks closest to query by cosine similarity,
// highest first. topK == 0 uses the configured default; topK < 0 returns
// every embedded chunk. Chunks embedded with a different dimensionality
// than the query yield core.ErrDimensionMismatch.
func (s *Searcher) Search(ctx context.Context, query string, topK int, opts ...SearchOption) ([]*core.SearchResult, error) {
	cfg := &searchConfig{monitor: &noopMonitor{}}
	for _, opt := range opts {
		opt(cfg)
	}
	if topK == 0 {
		topK = s.defaultTopK
	}

	query = normalizeQuery(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}
	cfg.monitor.Start(query)

	vector, cached, err := s.embedQuery(ctx, query)
	if err != nil {
		s.logger.Error("error generating embedding for query", "query", query, "err", err)
		return nil, err
	}
	cfg.monitor.AfterQueryEmbedding(len(vector), cached)

	var candidates []Candidate
	byID := make(map[string]*core.Chunk)
	err = s.chunks.ForEachEmbeddedChunk(ctx, cfg.documentID, func(chunk *core.Chunk) error {
		id := chunk.ID.Hex()
		candidates = append(candidates, Candidate{ID: id, Vector: chunk.Embedding})
		byID[id] = chunk
		return nil
	})
	if err != nil {
		s.logger.Error("error scanning chunks", "err", err)
		return nil, err
	}
	cfg.monitor.AfterCandidateScan(len(candidates))

	ranked, err := Rank(vector, candidates, topK)
	if err != nil {
		return nil, err
	}

	results := make([]*core.SearchResult, len(ranked))
	for i, r := range ranked {
		results[i] = &core.SearchResult{Chunk: byID[r.ID], Score: r.Score}
	}
	cfg.monitor.Finish(results)

	s.logger.Debug("search complete", "candidates", len(candidates), "results", len(results))
	return results, nil
}

// BestMatch returns the single chunk closest to query.
// Returns ErrNoResults when there is nothing to compare against.
func (s *Searcher) BestMatch(ctx context.Context, query string, opts ...SearchOption) (*core.SearchResult, error) {
	results, err := s.Search(ctx, query, 1, opts...)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, ErrNoResults
	}
	return results[0], nil
}

// embedQuery embeds query, consulting the cache first.
func (s *Searcher) embedQuery(ctx context.Context, query string) ([]float32, bool, error) {
	if s.cache != nil {
		if v, ok := s.cache.Get(query); ok {
			return v, true, nil
		}
	}
	v, err := s.embedder.EmbedText(ctx, query)
	if err != nil {
		return nil, false, err
	}
	if s.cache != nil {
		s.cache.Add(query, v)
	}
	return v, false, nil
}
