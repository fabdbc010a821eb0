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


package extract

import (
	"context"
	"fmt"
	"log/slog"
	"mime"
	"strings"
	"time"

	"github.com/poiesic/docingest/ai"
	"github.com/poiesic/docingest/core"
	"github.com/poiesic/docingest/objectstore"
	"github.com/poiesic/docingest/taskrunner"
	"golang.org/x/time/rate"
)

const (
	// DefaultOCRConcurrency is the number of pages transcribed at once.
	DefaultOCRConcurrency = 5
	// DefaultPresignTTL is how long a staged page image stays readable.
	DefaultPresignTTL = time.Hour
	// DefaultImagePrefix is the key prefix for staged page images.
	DefaultImagePrefix = "images"
)

// PageRenderer turns a PDF into one PNG image per page, in page order.
type PageRenderer interface {
	Render(ctx context.Context, pdf []byte) ([][]byte, error)
}

// OCRStrategy transcribes page images with a vision model. Each image is
// staged in object storage so the model can fetch it by presigned URL, and
// removed again once its own call has finished.
type OCRStrategy struct {
	store       objectstore.Store
	vision      ai.VisionExtractor
	renderer    PageRenderer
	concurrency int
	presignTTL  time.Duration
	prefix      string
	timeout     time.Duration
	attempts    int
	retryDelay  time.Duration
	limiter     *rate.Limiter
	logger      *slog.Logger
}

// OCROption is a functional option for configuring an OCRStrategy.
type OCROption func(*OCRStrategy) error

// WithOCRConcurrency sets how many pages are in flight at once.
func WithOCRConcurrency(n int) OCROption {
	return func(s *OCRStrategy) error {
		if n < 1 {
			return fmt.Errorf("%w: %d", taskrunner.ErrInvalidConcurrency, n)
		}
		s.concurrency = n
		return nil
	}
}

// WithPresignTTL sets the validity of staged image URLs.
func WithPresignTTL(ttl time.Duration) OCROption {
	return func(s *OCRStrategy) error {
		s.presignTTL = ttl
		return nil
	}
}

// WithImagePrefix sets the key prefix for staged images.
func WithImagePrefix(prefix string) OCROption {
	return func(s *OCRStrategy) error {
		s.prefix = strings.Trim(prefix, "/")
		return nil
	}
}

// WithOCRTimeout bounds the work on a single page.
func WithOCRTimeout(d time.Duration) OCROption {
	return func(s *OCRStrategy) error {
		s.timeout = d
		return nil
	}
}

// WithOCRRetry retries the vision call of a page with exponential backoff.
func WithOCRRetry(attempts int, baseDelay time.Duration) OCROption {
	return func(s *OCRStrategy) error {
		if attempts < 1 {
			return taskrunner.ErrInvalidMaxAttempts
		}
		s.attempts = attempts
		s.retryDelay = baseDelay
		return nil
	}
}

// WithOCRLimiter paces vision calls with a shared limiter.
func WithOCRLimiter(l *rate.Limiter) OCROption {
	return func(s *OCRStrategy) error {
		s.limiter = l
		return nil
	}
}

// WithOCRLogger sets a custom logger.
func WithOCRLogger(logger *slog.Logger) OCROption {
	return func(s *OCRStrategy) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger.With("component", "ocr")
		return nil
	}
}

// NewOCRStrategy creates an OCR strategy.
func NewOCRStrategy(store objectstore.Store, vision ai.VisionExtractor, renderer PageRenderer, opts ...OCROption) (*OCRStrategy, error) {
	if store == nil {
		return nil, objectstore.ErrStoreRequired
	}
	if vision == nil {
		return nil, ErrVisionRequired
	}
	if renderer == nil {
		return nil, ErrRendererRequired
	}

	s := &OCRStrategy{
		store:       store,
		vision:      vision,
		renderer:    renderer,
		concurrency: DefaultOCRConcurrency,
		presignTTL:  DefaultPresignTTL,
		prefix:      DefaultImagePrefix,
		attempts:    1,
		logger:      slog.Default().With("component", "ocr"),
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// ImageKey returns the staging key of page n (1-based) of a document.
func (s *OCRStrategy) ImageKey(docID core.DocumentID, n int, ext string) string {
	return fmt.Sprintf("%s/%s/page-%d.%s", s.prefix, docID.Hex(), n, ext)
}

// ExtractPDF renders pdf and transcribes every page.
func (s *OCRStrategy) ExtractPDF(ctx context.Context, docID core.DocumentID, pdf []byte) (string, []int, error) {
	pages, err := s.renderer.Render(ctx, pdf)
	if err != nil {
		return "", nil, fmt.Errorf("render pages: %w", err)
	}
	if len(pages) == 0 {
		return "", nil, ErrNoPages
	}
	return s.Extract(ctx, docID, pages)
}

// Extract transcribes PNG page images concurrently and joins the page
// texts in page order with "\n". A failed page contributes an empty line
// and its index is returned in failures; the error joins the page causes.
func (s *OCRStrategy) Extract(ctx context.Context, docID core.DocumentID, pages [][]byte) (string, []int, error) {
	return s.run(ctx, docID, pages, "png")
}

// ExtractImage transcribes a single uploaded image with extension ext.
func (s *OCRStrategy) ExtractImage(ctx context.Context, docID core.DocumentID, image []byte, ext string) (string, error) {
	text, _, err := s.run(ctx, docID, [][]byte{image}, ext)
	return text, err
}

func (s *OCRStrategy) run(ctx context.Context, docID core.DocumentID, pages [][]byte, ext string) (string, []int, error) {
	logger := s.logger.With("document", docID.Hex(), "pages", len(pages))
	logger.Debug("transcribing pages")

	contentType := mime.TypeByExtension("." + ext)
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	results, err := taskrunner.RunAll(ctx, pages,
		func(ctx context.Context, scope *taskrunner.Scope, index int, page []byte) (string, error) {
			key := s.ImageKey(docID, index+1, ext)
			if err := s.store.Put(ctx, key, page, contentType, nil); err != nil {
				return "", fmt.Errorf("stage page %d: %w", index+1, err)
			}
			scope.Defer(func(ctx context.Context) error {
				return s.store.Delete(ctx, key)
			})

			url, err := s.store.Presign(ctx, key, s.presignTTL)
			if err != nil {
				return "", fmt.Errorf("presign page %d: %w", index+1, err)
			}

			var text string
			err = taskrunner.Retry(ctx, func() error {
				var callErr error
				text, callErr = s.vision.ExtractText(ctx, url)
				return callErr
			}, s.attempts, s.retryDelay)
			if err != nil {
				return "", fmt.Errorf("transcribe page %d: %w", index+1, err)
			}
			return text, nil
		},
		taskrunner.WithMaxConcurrency(s.concurrency),
		taskrunner.WithTimeout(s.timeout),
		taskrunner.WithLimiter(s.limiter),
		taskrunner.WithLogger(s.logger),
	)
	if err != nil {
		return "", nil, err
	}

	failures := taskrunner.Failed(results)
	if len(failures) > 0 {
		logger.Warn("some pages could not be transcribed", "failed", failures)
	}
	return strings.Join(taskrunner.Values(results), "\n"), failures, taskrunner.Errors(results)
}
