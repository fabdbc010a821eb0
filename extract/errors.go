package extract

import "errors"

var (
	// ErrVisionRequired is returned when an OCR strategy has no vision service.
	ErrVisionRequired = errors.New("vision extractor is required")

	// ErrTranscriberRequired is returned when an audio strategy has no transcriber.
	ErrTranscriberRequired = errors.New("transcriber is required")

	// ErrRendererRequired is returned when an OCR strategy has no page renderer.
	ErrRendererRequired = errors.New("page renderer is required")

	// ErrSegmenterRequired is returned when an audio strategy has no segmenter.
	ErrSegmenterRequired = errors.New("audio segmenter is required")

	// ErrAudioExtractorRequired is returned for video sources when no
	// audio extractor is configured.
	ErrAudioExtractorRequired = errors.New("audio extractor is required for video")

	// ErrStrategyRequired is returned when the dispatcher is built without
	// its OCR or audio strategy.
	ErrStrategyRequired = errors.New("extraction strategy is required")

	// ErrNoPages is returned when a renderer produces no page images.
	ErrNoPages = errors.New("document rendered no pages")

	// ErrToolFailed is returned when an external converter exits non-zero.
	ErrToolFailed = errors.New("external tool failed")
)
