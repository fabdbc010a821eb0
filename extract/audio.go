package extract

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/poiesic/docingest/ai"
	"github.com/poiesic/docingest/taskrunner"
	"golang.org/x/time/rate"
)

const (
	// DefaultAudioConcurrency is the number of segments transcribed at once.
	DefaultAudioConcurrency = 4
	// DefaultSegmentLength is the duration of one transcription clip.
	DefaultSegmentLength = 30 * time.Second
)

// Segmenter splits audio into fixed-length clips on disk.
type Segmenter interface {
	Segment(ctx context.Context, audio []byte, ext string, length time.Duration) (*Segments, error)
}

// AudioExtractor pulls the audio track out of a video container.
type AudioExtractor interface {
	ExtractAudio(ctx context.Context, video []byte, ext string) ([]byte, error)
}

// AudioStrategy transcribes long recordings by splitting them into short
// segments and transcribing those concurrently.
type AudioStrategy struct {
	transcriber   ai.Transcriber
	segmenter     Segmenter
	extractor     AudioExtractor
	concurrency   int
	segmentLength time.Duration
	timeout       time.Duration
	attempts      int
	retryDelay    time.Duration
	limiter       *rate.Limiter
	logger        *slog.Logger
}

// AudioOption is a functional option for configuring an AudioStrategy.
type AudioOption func(*AudioStrategy) error

// WithAudioConcurrency sets how many segments are in flight at once.
func WithAudioConcurrency(n int) AudioOption {
	return func(s *AudioStrategy) error {
		if n < 1 {
			return fmt.Errorf("%w: %d", taskrunner.ErrInvalidConcurrency, n)
		}
		s.concurrency = n
		return nil
	}
}

// WithSegmentLength sets the clip duration.
func WithSegmentLength(d time.Duration) AudioOption {
	return func(s *AudioStrategy) error {
		if d <= 0 {
			return fmt.Errorf("segment length must be positive, got %s", d)
		}
		s.segmentLength = d
		return nil
	}
}

// WithAudioTimeout bounds the work on a single segment.
func WithAudioTimeout(d time.Duration) AudioOption {
	return func(s *AudioStrategy) error {
		s.timeout = d
		return nil
	}
}

// WithAudioRetry retries the transcription of a segment with exponential backoff.
func WithAudioRetry(attempts int, baseDelay time.Duration) AudioOption {
	return func(s *AudioStrategy) error {
		if attempts < 1 {
			return taskrunner.ErrInvalidMaxAttempts
		}
		s.attempts = attempts
		s.retryDelay = baseDelay
		return nil
	}
}

// WithAudioLimiter paces transcription calls with a shared limiter.
func WithAudioLimiter(l *rate.Limiter) AudioOption {
	return func(s *AudioStrategy) error {
		s.limiter = l
		return nil
	}
}

// WithAudioExtractor sets the video-to-audio converter.
func WithAudioExtractor(e AudioExtractor) AudioOption {
	return func(s *AudioStrategy) error {
		s.extractor = e
		return nil
	}
}

// WithAudioLogger sets a custom logger.
func WithAudioLogger(logger *slog.Logger) AudioOption {
	return func(s *AudioStrategy) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger.With("component", "audio")
		return nil
	}
}

// NewAudioStrategy creates an audio strategy. When the segmenter also
// implements AudioExtractor (FFmpeg does) it is used for video sources
// unless WithAudioExtractor says otherwise.
func NewAudioStrategy(transcriber ai.Transcriber, segmenter Segmenter, opts ...AudioOption) (*AudioStrategy, error) {
	if transcriber == nil {
		return nil, ErrTranscriberRequired
	}
	if segmenter == nil {
		return nil, ErrSegmenterRequired
	}

	s := &AudioStrategy{
		transcriber:   transcriber,
		segmenter:     segmenter,
		concurrency:   DefaultAudioConcurrency,
		segmentLength: DefaultSegmentLength,
		attempts:      1,
		logger:        slog.Default().With("component", "audio"),
	}
	if e, ok := segmenter.(AudioExtractor); ok {
		s.extractor = e
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Extract transcribes audio in container ext. Video sources have their
// audio track extracted first. Successful segment transcripts are joined
// in chronological order with a single space; failed segments are left
// out and their indices returned. Segment files are removed on return.
func (s *AudioStrategy) Extract(ctx context.Context, audio []byte, ext string, isVideo bool) (string, []int, error) {
	if isVideo {
		if s.extractor == nil {
			return "", nil, ErrAudioExtractorRequired
		}
		wav, err := s.extractor.ExtractAudio(ctx, audio, ext)
		if err != nil {
			return "", nil, fmt.Errorf("extract audio track: %w", err)
		}
		audio, ext = wav, "wav"
	}

	segments, err := s.segmenter.Segment(ctx, audio, ext, s.segmentLength)
	if err != nil {
		return "", nil, fmt.Errorf("segment audio: %w", err)
	}
	defer func() {
		if err := segments.Close(); err != nil {
			s.logger.Warn("failed to remove audio segments", "err", err)
		}
	}()

	s.logger.Debug("transcribing segments", "segments", len(segments.Paths))

	results, err := taskrunner.RunAll(ctx, segments.Paths,
		func(ctx context.Context, _ *taskrunner.Scope, index int, path string) (string, error) {
			clip, err := os.ReadFile(path)
			if err != nil {
				return "", fmt.Errorf("read segment %d: %w", index, err)
			}

			var text string
			err = taskrunner.Retry(ctx, func() error {
				var callErr error
				text, callErr = s.transcriber.Transcribe(ctx, clip, filepath.Base(path))
				return callErr
			}, s.attempts, s.retryDelay)
			if err != nil {
				return "", fmt.Errorf("transcribe segment %d: %w", index, err)
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

	texts := make([]string, 0, len(results))
	for _, r := range results {
		if r.OK() {
			texts = append(texts, r.Value)
		}
	}

	failures := taskrunner.Failed(results)
	if len(failures) > 0 {
		s.logger.Warn("some segments could not be transcribed", "failed", failures)
	}
	return strings.Join(texts, " "), failures, taskrunner.Errors(results)
}
