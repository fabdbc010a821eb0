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
	"strings"

	"github.com/poiesic/docingest/core"
)

// handler is the extraction routine for one file type. Its Outcome.Err is
// the raw cause; Extract wraps it.
type handler func(ctx context.Context, src Source) Outcome

// Dispatcher selects an extraction strategy by file type and turns every
// strategy failure into a degraded Outcome.
type Dispatcher struct {
	ocr        *OCRStrategy
	audio      *AudioStrategy
	office     OfficeConverter
	converters map[string]TextFunc
	handlers   map[string]handler
	logger     *slog.Logger
}

// DispatcherOption is a functional option for configuring a Dispatcher.
type DispatcherOption func(*Dispatcher) error

// WithOfficeConverter sets the converter used for legacy xls and ppt files.
func WithOfficeConverter(conv OfficeConverter) DispatcherOption {
	return func(d *Dispatcher) error {
		d.office = conv
		return nil
	}
}

// WithConverter replaces the direct text extractor for one of the tags
// pdf, doc, docx, xlsx, pptx or txt.
func WithConverter(tag string, fn TextFunc) DispatcherOption {
	return func(d *Dispatcher) error {
		d.converters[core.NormalizeFileType(tag)] = fn
		return nil
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) DispatcherOption {
	return func(d *Dispatcher) error {
		if logger == nil {
			logger = slog.Default()
		}
		d.logger = logger.With("component", "dispatcher")
		return nil
	}
}

// NewDispatcher creates a dispatcher over the OCR and audio strategies.
func NewDispatcher(ocr *OCRStrategy, audio *AudioStrategy, opts ...DispatcherOption) (*Dispatcher, error) {
	if ocr == nil || audio == nil {
		return nil, ErrStrategyRequired
	}

	d := &Dispatcher{
		ocr:    ocr,
		audio:  audio,
		office: LibreOffice{},
		converters: map[string]TextFunc{
			"pdf":  pdfText,
			"doc":  docText,
			"docx": docxText,
			"xlsx": spreadsheetText,
			"pptx": pptxText,
			"txt":  plainText,
		},
		logger: slog.Default().With("component", "dispatcher"),
	}
	for _, opt := range opts {
		if err := opt(d); err != nil {
			return nil, err
		}
	}
	d.handlers = d.routes()
	return d, nil
}

func (d *Dispatcher) routes() map[string]handler {
	audio := d.extractAudio(StrategyAudio, false)
	xls := converted(d.office, "xls", "xlsx", d.converters["xlsx"])
	ppt := converted(d.office, "ppt", "pptx", d.converters["pptx"])

	return map[string]handler{
		"pdf":  d.extractPDF,
		"mp3":  audio,
		"wav":  audio,
		"m4a":  audio,
		"mp4":  d.extractAudio(StrategyVideo, true),
		"doc":  direct(StrategyDocument, d.converters["doc"]),
		"docx": direct(StrategyDocument, d.converters["docx"]),
		"xlsx": direct(StrategySpreadsheet, d.converters["xlsx"]),
		"xls":  direct(StrategySpreadsheet, xls),
		"pptx": direct(StrategyPresentation, d.converters["pptx"]),
		"ppt":  direct(StrategyPresentation, ppt),
		"txt":  direct(StrategyText, d.converters["txt"]),
		"jpg":  d.extractImage,
		"jpeg": d.extractImage,
		"png":  d.extractImage,
		"gif":  d.extractImage,
		"bmp":  d.extractImage,
		"tiff": d.extractImage,
	}
}

// Supported reports whether fileType has an extraction strategy.
func (d *Dispatcher) Supported(fileType string) bool {
	_, ok := d.handlers[core.NormalizeFileType(fileType)]
	return ok
}

// Extract runs the strategy for src.FileType. The only error it returns is
// core.ErrUnsupportedFileType; strategy failures are logged and reported
// through Outcome.Err, which wraps core.ErrPartialExtraction.
func (d *Dispatcher) Extract(ctx context.Context, src Source) (Outcome, error) {
	tag := core.NormalizeFileType(src.FileType)
	run, ok := d.handlers[tag]
	if !ok {
		return Outcome{}, fmt.Errorf("%w: %q", core.ErrUnsupportedFileType, src.FileType)
	}

	logger := d.logger.With("document", src.DocumentID.Hex(), "type", tag)
	logger.Debug("extracting text", "bytes", len(src.Data), "name", src.Name)

	out := run(ctx, src)
	if out.Err == nil {
		return out, nil
	}

	out.Err = fmt.Errorf("%w: %w", core.ErrPartialExtraction, out.Err)
	if len(out.Failures) == 0 {
		// The strategy failed as a whole.
		out.Text = ""
		logger.Error("extraction failed", "strategy", out.Strategy, "err", out.Err)
	} else {
		logger.Warn("extraction incomplete", "strategy", out.Strategy, "failed", out.Failures, "err", out.Err)
	}
	return out, nil
}

func direct(strategy string, fn TextFunc) handler {
	return func(ctx context.Context, src Source) Outcome {
		text, err := fn(ctx, src.Data)
		return Outcome{Text: text, Strategy: strategy, Err: err}
	}
}

// extractPDF uses the text layer when there is one and falls back to
// page-image OCR otherwise.
func (d *Dispatcher) extractPDF(ctx context.Context, src Source) Outcome {
	text, err := d.converters["pdf"](ctx, src.Data)
	if err == nil && strings.TrimSpace(text) != "" {
		return Outcome{Text: strings.TrimSpace(text), Strategy: StrategyPDFText}
	}
	if err != nil {
		d.logger.Debug("pdf text layer unavailable", "err", err)
	}

	text, failures, err := d.ocr.ExtractPDF(ctx, src.DocumentID, src.Data)
	return Outcome{Text: text, Strategy: StrategyOCR, Failures: failures, Err: err}
}

func (d *Dispatcher) extractAudio(strategy string, isVideo bool) handler {
	return func(ctx context.Context, src Source) Outcome {
		text, failures, err := d.audio.Extract(ctx, src.Data, core.NormalizeFileType(src.FileType), isVideo)
		return Outcome{Text: text, Strategy: strategy, Failures: failures, Err: err}
	}
}

func (d *Dispatcher) extractImage(ctx context.Context, src Source) Outcome {
	text, err := d.ocr.ExtractImage(ctx, src.DocumentID, src.Data, core.NormalizeFileType(src.FileType))
	return Outcome{Text: text, Strategy: StrategyImage, Err: err}
}
