package ingestion

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/poiesic/docingest/ai"
	"github.com/poiesic/docingest/chunker"
	"github.com/poiesic/docingest/core"
	"github.com/poiesic/docingest/extract"
	"github.com/poiesic/docingest/objectstore"
	"github.com/poiesic/docingest/storage"
	"github.com/poiesic/docingest/taskrunner"
	"golang.org/x/sync/errgroup"
)

// Result statuses.
const (
	StatusOK    = "ok"
	StatusError = "error"
)

// Extractor turns a source file into text. *extract.Dispatcher implements it.
type Extractor interface {
	Extract(ctx context.Context, src extract.Source) (extract.Outcome, error)
}

// Result summarizes one ProcessDocument run.
type Result struct {
	RunID      string
	Key        string
	DocumentID core.DocumentID
	FileType   string
	Status     string
	Strategy   string
	ChunkCount int
	// Failures lists page or segment indices that could not be extracted.
	Failures []int
	// Warning carries a partial extraction error on an otherwise
	// successful run.
	Warning error
	Err     error
	Elapsed time.Duration
}

// Pipeline orchestrates the ingestion of uploaded documents.
type Pipeline struct {
	documents   storage.DocumentRepository
	chunks      storage.ChunkRepository
	store       objectstore.Store
	extractor   Extractor
	embeddings  *EmbeddingOrchestrator
	concurrency int
	timeout     time.Duration
	embedOpts   []EmbeddingOption
	now         func() time.Time
	logger      *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithConcurrency sets how many documents ProcessDocuments handles at once.
// Default is 2.
func WithConcurrency(n int) Option {
	return func(p *Pipeline) error {
		if n < 1 {
			n = 1
		}
		p.concurrency = n
		return nil
	}
}

// WithDocumentTimeout bounds each document run in ProcessDocuments.
// Zero disables the deadline.
func WithDocumentTimeout(d time.Duration) Option {
	return func(p *Pipeline) error {
		if d < 0 {
			return errors.New("document timeout cannot be negative")
		}
		p.timeout = d
		return nil
	}
}

// WithEmbeddingOptions passes options to the pipeline's EmbeddingOrchestrator.
func WithEmbeddingOptions(opts ...EmbeddingOption) Option {
	return func(p *Pipeline) error {
		p.embedOpts = append(p.embedOpts, opts...)
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// NewPipeline creates a new ingestion pipeline.
func NewPipeline(
	documents storage.DocumentRepository,
	chunks storage.ChunkRepository,
	store objectstore.Store,
	extractor Extractor,
	embedder ai.Embedder,
	opts ...Option,
) (*Pipeline, error) {
	if documents == nil {
		return nil, ErrDocumentRepositoryRequired
	}
	if chunks == nil {
		return nil, ErrChunkRepositoryRequired
	}
	if store == nil {
		return nil, ErrObjectStoreRequired
	}
	if extractor == nil {
		return nil, ErrExtractorRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}

	p := &Pipeline{
		documents:   documents,
		chunks:      chunks,
		store:       store,
		extractor:   extractor,
		concurrency: 2,
		now:         func() time.Time { return time.Now().UTC() },
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(p); err != nil {
			return nil, err
		}
	}

	embedOpts := append([]EmbeddingOption{WithEmbeddingLogger(p.logger)}, p.embedOpts...)
	embeddings, err := NewEmbeddingOrchestrator(embedder, embedOpts...)
	if err != nil {
		return nil, err
	}
	p.embeddings = embeddings
	p.logger = p.logger.With("component", "pipeline")
	return p, nil
}

// ProcessDocument ingests the object at ref.Key. The returned Result is
// never nil; on failure its Status is StatusError and the error is also
// returned.
//
// Failure handling:
//   - invalid id, unknown document, missing object or unsupported type:
//     nothing is written
//   - no chunkable text: the document is marked failed with empty fulltext
//   - embedding failure: nothing is written, the document keeps its state
//   - chunk write failure: the document keeps its state, chunks may be
//     partially replaced on backends without atomic replacement
//   - document update failure: the new chunks are already stored while the
//     document keeps its previous fulltext and status, so chunks can be
//     newer than the document until the next successful run
func (p *Pipeline) ProcessDocument(ctx context.Context, ref FileRef) (*Result, error) {
	start := time.Now()
	res := &Result{RunID: uuid.NewString(), Key: ref.Key, Status: StatusError}
	logger := p.logger.With("run", res.RunID, "key", ref.Key)

	fail := func(err error) (*Result, error) {
		res.Err = err
		res.Elapsed = time.Since(start)
		logger.Error("document processing failed", "status", StatusCode(err), "err", err)
		return res, err
	}

	docID, err := DocumentIDFromKey(ref.Key)
	if err != nil {
		return fail(err)
	}
	res.DocumentID = docID
	logger = logger.With("document", docID.Hex())

	var obj *objectstore.Object
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		_, err := p.documents.GetDocument(gctx, docID)
		if errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("%w: %s", core.ErrDocumentNotFound, docID.Hex())
		}
		return err
	})
	g.Go(func() error {
		var err error
		obj, err = p.store.Get(gctx, ref.Key)
		if err != nil {
			return fmt.Errorf("fetch object %s: %w", ref.Key, err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return fail(err)
	}

	res.FileType = resolveFileType(ref, obj)
	logger.Info("processing document", "type", res.FileType, "bytes", len(obj.Data))

	outcome, err := p.extractor.Extract(ctx, extract.Source{
		DocumentID: docID,
		FileType:   res.FileType,
		Data:       obj.Data,
		Name:       ref.Key,
	})
	if err != nil {
		return fail(err)
	}
	res.Strategy = outcome.Strategy
	res.Failures = outcome.Failures
	res.Warning = outcome.Err

	digest := core.ContentDigest(obj.Data)
	texts := chunker.Split(outcome.Text)
	if len(texts) == 0 {
		cause := core.ErrNoContentExtracted
		if outcome.Err != nil {
			cause = fmt.Errorf("%w: %w", core.ErrNoContentExtracted, outcome.Err)
		}
		if err := p.documents.UpdateDocument(ctx, docID, "", core.StatusFailed, digest); err != nil {
			return fail(errors.Join(cause, err))
		}
		return fail(cause)
	}

	vectors, err := p.embeddings.Embed(ctx, texts)
	if err != nil {
		return fail(err)
	}

	chunks := core.NewChunks(docID, texts, p.now())
	for i, chunk := range chunks {
		chunk.Embedding = vectors[i]
	}
	if err := p.chunks.ReplaceChunks(ctx, docID, chunks); err != nil {
		return fail(fmt.Errorf("persist chunks: %w", err))
	}
	if err := p.documents.UpdateDocument(ctx, docID, outcome.Text, core.StatusProcessed, digest); err != nil {
		return fail(fmt.Errorf("update document: %w", err))
	}

	res.Status = StatusOK
	res.ChunkCount = len(chunks)
	res.Elapsed = time.Since(start)
	logger.Info("document processed",
		"strategy", res.Strategy,
		"chunks", res.ChunkCount,
		"partial", outcome.Partial(),
		"elapsed", res.Elapsed)
	return res, nil
}

// ProcessDocuments runs ProcessDocument for every ref on a bounded pool.
// Results are in ref order; one document's failure never affects another.
// The returned error reports invalid setup only.
func (p *Pipeline) ProcessDocuments(ctx context.Context, refs []FileRef) ([]*Result, error) {
	opts := []taskrunner.Option{
		taskrunner.WithMaxConcurrency(p.concurrency),
		taskrunner.WithLogger(p.logger),
	}
	if p.timeout > 0 {
		opts = append(opts, taskrunner.WithTimeout(p.timeout))
	}

	runs, err := taskrunner.RunAll(ctx, refs,
		func(ctx context.Context, _ *taskrunner.Scope, _ int, ref FileRef) (*Result, error) {
			return p.ProcessDocument(ctx, ref)
		}, opts...)
	if err != nil {
		return nil, err
	}

	results := make([]*Result, len(runs))
	for i, run := range runs {
		results[i] = run.Value
		if results[i] == nil {
			results[i] = &Result{Key: refs[i].Key, Status: StatusError, Err: run.Err}
		}
	}
	return results, nil
}
