// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
// Package docingest wires configuration, storage, object storage and model
// providers into a running ingestion service.
package docingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path"
	"time"

	"github.com/poiesic/docingest/ai"
	"github.com/poiesic/docingest/ai/gemini"
	"github.com/poiesic/docingest/ai/openai"
	"github.com/poiesic/docingest/config"
	"github.com/poiesic/docingest/core"
	"github.com/poiesic/docingest/extract"
	"github.com/poiesic/docingest/ingestion"
	"github.com/poiesic/docingest/objectstore"
	"github.com/poiesic/docingest/objectstore/s3"
	"github.com/poiesic/docingest/reembed"
	"github.com/poiesic/docingest/search"
	"github.com/poiesic/docingest/storage"
	"github.com/poiesic/docingest/storage/badger"
	"github.com/poiesic/docingest/storage/mongo"
	"golang.org/x/time/rate"
)

var (
	// ErrConfigRequired is returned by New when no configuration is given.
	ErrConfigRequired = errors.New("config required")

	// ErrEmptyUpload is returned by Register for zero-length content.
	ErrEmptyUpload = errors.New("empty upload")
)

// Service owns the long-lived dependencies of the ingestion service.
type Service struct {
	cfg       *config.Config
	documents storage.DocumentRepository
	chunks    storage.ChunkRepository
	store     objectstore.Store
	provider  ai.AIProvider
	closers   []func() error
	// base is handed to components, which tag it with their own component.
	base      *slog.Logger
	logger    *slog.Logger
}

// Option configures a Service.
type Option func(*serviceOptions)

type serviceOptions struct {
	logger   *slog.Logger
	provider ai.AIProvider
	store    objectstore.Store
}

// WithLogger sets the logger handed to every component.
func WithLogger(logger *slog.Logger) Option {
	return func(o *serviceOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithProvider uses provider instead of building one from cfg.AI.
// The Service closes it.
func WithProvider(provider ai.AIProvider) Option {
	return func(o *serviceOptions) {
		o.provider = provider
	}
}

// WithObjectStore uses store instead of connecting to cfg.Objects.
func WithObjectStore(store objectstore.Store) Option {
	return func(o *serviceOptions) {
		o.store = store
	}
}

// New opens storage, the object store and the AI provider described by cfg.
// On error everything opened so far is closed again.
func New(ctx context.Context, cfg *config.Config, opts ...Option) (*Service, error) {
	if cfg == nil {
		return nil, ErrConfigRequired
	}
	options := &serviceOptions{logger: slog.Default()}
	for _, opt := range opts {
		opt(options)
	}

	s := &Service{
		cfg:    cfg,
		base:   options.logger,
		logger: options.logger.With("component", "service"),
	}

	if err := s.openStorage(ctx, options.logger); err != nil {
		s.Close()
		return nil, err
	}

	s.store = options.store
	if s.store == nil {
		store, err := s3.New(s3.Config{
			Endpoint:     cfg.Objects.Endpoint,
			Bucket:       cfg.Objects.Bucket,
			AccessKey:    cfg.Objects.AccessKey,
			SecretKey:    cfg.Objects.SecretKey,
			SessionToken: cfg.Objects.SessionToken,
			Region:       cfg.Objects.Region,
			Secure:       cfg.Objects.Secure,
		}, s3.WithLogger(options.logger))
		if err != nil {
			s.Close()
			return nil, err
		}
		s.store = store
	}

	s.provider = options.provider
	if s.provider == nil {
		provider, err := newProvider(ctx, cfg.AI.Build())
		if err != nil {
			s.Close()
			return nil, err
		}
		s.provider = provider
	}
	s.closers = append(s.closers, s.provider.Close)

	return s, nil
}

func (s *Service) openStorage(ctx context.Context, logger *slog.Logger) error {
	sc := s.cfg.Storage
	switch sc.Driver {
	case config.DriverMongo:
		repo, err := mongo.Connect(ctx, mongo.Config{
			URI:                 sc.URI,
			Database:            sc.Database,
			DocumentsCollection: sc.DocumentsCollection,
			ChunksCollection:    sc.ChunksCollection,
			ConnectTimeout:      sc.ConnectTimeout,
		}, mongo.WithLogger(logger))
		if err != nil {
			return fmt.Errorf("failed to connect to mongo: %w", err)
		}
		s.documents, s.chunks = repo, repo
		s.closers = append(s.closers, repo.Close)

	case config.DriverBadger, "":
		backend, err := badger.OpenBackend(sc.Path, sc.InMemory, badger.WithLogger(logger))
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		s.closers = append(s.closers, backend.Close)
		docs, chunks, err := badger.NewRepositories(backend)
		if err != nil {
			return err
		}
		s.documents, s.chunks = docs, chunks

	default:
		return fmt.Errorf("unknown storage driver %q", sc.Driver)
	}
	return nil
}

func newProvider(ctx context.Context, cfg *ai.Config) (ai.AIProvider, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid AI configuration: %w", err)
	}
	if cfg.Provider == ai.ProviderGemini {
		return gemini.NewProvider(ctx, cfg)
	}
	return openai.NewProvider(cfg)
}

// Close releases everything New opened, newest first. The first error is
// returned; later closers still run.
func (s *Service) Close() error {
	var first error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil {
			s.logger.Error("error closing service dependency", "err", err)
			if first == nil {
				first = err
			}
		}
	}
	s.closers = nil
	return first
}

// Documents returns the document repository.
func (s *Service) Documents() storage.DocumentRepository {
	return s.documents
}

// Chunks returns the chunk repository.
func (s *Service) Chunks() storage.ChunkRepository {
	return s.chunks
}

// ObjectStore returns the object store uploads are read from.
func (s *Service) ObjectStore() objectstore.Store {
	return s.store
}

// Provider returns the AI provider.
func (s *Service) Provider() ai.AIProvider {
	return s.provider
}

// NewDispatcher builds the extraction strategies from the extraction and
// objects sections of the configuration.
func (s *Service) NewDispatcher() (*extract.Dispatcher, error) {
	ec := s.cfg.Extraction

	ocrOpts := []extract.OCROption{
		extract.WithOCRConcurrency(ec.OCRConcurrency),
		extract.WithPresignTTL(s.cfg.Objects.PresignTTL),
		extract.WithImagePrefix(s.cfg.Objects.ImagePrefix),
		extract.WithOCRRetry(ec.Retries, ec.RetryDelay),
		extract.WithOCRLogger(s.base),
	}
	audioOpts := []extract.AudioOption{
		extract.WithAudioConcurrency(ec.AudioConcurrency),
		extract.WithSegmentLength(ec.SegmentLength),
		extract.WithAudioRetry(ec.Retries, ec.RetryDelay),
		extract.WithAudioLogger(s.base),
	}
	if ec.ItemTimeout > 0 {
		ocrOpts = append(ocrOpts, extract.WithOCRTimeout(ec.ItemTimeout))
		audioOpts = append(audioOpts, extract.WithAudioTimeout(ec.ItemTimeout))
	}
	if ec.RateLimit > 0 {
		ocrOpts = append(ocrOpts, extract.WithOCRLimiter(rate.NewLimiter(rate.Limit(ec.RateLimit), ec.RateBurst)))
		audioOpts = append(audioOpts, extract.WithAudioLimiter(rate.NewLimiter(rate.Limit(ec.RateLimit), ec.RateBurst)))
	}

	renderer := extract.PdftoppmRenderer{Path: ec.Pdftoppm, DPI: ec.DPI}
	ocr, err := extract.NewOCRStrategy(s.store, s.provider.VisionExtractor(), renderer, ocrOpts...)
	if err != nil {
		return nil, err
	}
	audio, err := extract.NewAudioStrategy(s.provider.Transcriber(), extract.FFmpeg{Path: ec.FFmpeg}, audioOpts...)
	if err != nil {
		return nil, err
	}
	return extract.NewDispatcher(ocr, audio,
		extract.WithOfficeConverter(extract.LibreOffice{Path: ec.Soffice}),
		extract.WithLogger(s.base),
	)
}

// NewPipeline creates an ingestion pipeline over the service's
// dependencies. opts are applied after the configured defaults.
func (s *Service) NewPipeline(opts ...ingestion.Option) (*ingestion.Pipeline, error) {
	dispatcher, err := s.NewDispatcher()
	if err != nil {
		return nil, err
	}
	ic := s.cfg.Ingestion
	base := []ingestion.Option{
		ingestion.WithConcurrency(ic.Concurrency),
		ingestion.WithEmbeddingOptions(
			ingestion.WithEmbeddingRetry(ic.EmbedRetries, ic.EmbedRetryDelay),
			ingestion.WithEmbeddingLogger(s.base),
		),
		ingestion.WithLogger(s.base),
	}
	if ic.DocumentTimeout > 0 {
		base = append(base, ingestion.WithDocumentTimeout(ic.DocumentTimeout))
	}
	return ingestion.NewPipeline(s.documents, s.chunks, s.store, dispatcher, s.provider.Embedder(), append(base, opts...)...)
}

// NewSearcher creates a searcher over the stored chunks.
func (s *Service) NewSearcher(opts ...search.Option) (*search.Searcher, error) {
	base := []search.Option{
		search.WithCacheSize(s.cfg.Search.CacheSize),
		search.WithDefaultTopK(s.cfg.Search.DefaultTopK),
		search.WithLogger(s.base),
	}
	return search.NewSearcher(s.chunks, s.provider.Embedder(), append(base, opts...)...)
}

// NewReembedder creates a reembedder over the stored chunks.
func (s *Service) NewReembedder(cfg *reembed.Config, progress io.Writer) (*reembed.Reembedder, error) {
	return reembed.NewReembedder(s.chunks, s.provider.Embedder(), cfg, progress)
}

// Register uploads data as a new document and records it as pending.
// The object key is <upload prefix>/<document id>.<file type>, which is
// what ProcessDocument expects.
func (s *Service) Register(ctx context.Context, data []byte, fileType string) (*core.Document, string, error) {
	fileType = core.NormalizeFileType(fileType)
	if fileType == "" {
		return nil, "", core.ErrUnsupportedFileType
	}
	if len(data) == 0 {
		return nil, "", ErrEmptyUpload
	}

	id := core.NewDocumentID()
	key := path.Join(s.cfg.Objects.UploadPrefix, id.Hex()+"."+fileType)
	metadata := map[string]string{objectstore.MetadataFileExt: fileType}
	if err := s.store.Put(ctx, key, data, http.DetectContentType(data), metadata); err != nil {
		return nil, "", fmt.Errorf("upload %s: %w", key, err)
	}

	doc, err := s.documents.CreateDocument(ctx, &core.Document{
		ID:           id,
		Status:       core.StatusPending,
		FileType:     fileType,
		SourceDigest: core.ContentDigest(data),
		CreatedAt:    time.Now().UTC(),
	})
	if err != nil {
		if derr := s.store.Delete(ctx, key); derr != nil {
			s.logger.Warn("failed to remove orphaned upload", "key", key, "err", derr)
		}
		return nil, "", err
	}

	s.logger.Info("document registered", "document", id.Hex(), "key", key, "bytes", len(data))
	return doc, key, nil
}

// RegisterReader is Register for streamed content.
func (s *Service) RegisterReader(ctx context.Context, r io.Reader, fileType string) (*core.Document, string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, "", err
	}
	return s.Register(ctx, data, fileType)
}
