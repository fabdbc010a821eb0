package extract

import "github.com/poiesic/docingest/core"

// Strategy names reported in Outcome.Strategy.
const (
	StrategyPDFText      = "pdf-text"
	StrategyOCR          = "ocr"
	StrategyImage        = "image-ocr"
	StrategyAudio        = "audio"
	StrategyVideo        = "video"
	StrategyDocument     = "document"
	StrategySpreadsheet  = "spreadsheet"
	StrategyPresentation = "presentation"
	StrategyText         = "text"
)

// Source is one file to extract text from.
type Source struct {
	DocumentID core.DocumentID
	// FileType is the extension tag, e.g. "pdf" or ".DOCX".
	FileType string
	Data     []byte
	// Name is the original object key, used only in log lines.
	Name string
}

// Outcome is the result of extraction. Text is "" when the strategy failed
// outright; Failures lists the page or segment indices (0-based) that
// failed inside a strategy that otherwise succeeded. Err carries the
// aggregated cause and wraps core.ErrPartialExtraction when set.
type Outcome struct {
	Text     string
	Strategy string
	Failures []int
	Err      error
}

// Partial reports whether some of the content could not be extracted.
func (o Outcome) Partial() bool {
	return o.Err != nil
}
