package extract

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"code.sajari.com/docconv/v2"
	"github.com/xuri/excelize/v2"
)

// TextFunc extracts plain text from a file's bytes.
type TextFunc func(ctx context.Context, data []byte) (string, error)

// OfficeConverter converts between office formats, e.g. xls to xlsx.
type OfficeConverter interface {
	Convert(ctx context.Context, data []byte, from, to string) ([]byte, error)
}

// pdfText reads the embedded text layer of a PDF.
func pdfText(_ context.Context, data []byte) (string, error) {
	text, _, err := docconv.ConvertPDF(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("pdf text: %w", err)
	}
	return text, nil
}

// docxText concatenates the paragraphs of a Word document.
func docxText(_ context.Context, data []byte) (string, error) {
	text, _, err := docconv.ConvertDocx(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("docx text: %w", err)
	}
	return strings.TrimSpace(text), nil
}

// docText reads a legacy Word document.
func docText(_ context.Context, data []byte) (string, error) {
	text, _, err := docconv.ConvertDoc(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("doc text: %w", err)
	}
	return strings.TrimSpace(text), nil
}

// pptxText reads slide text in slide order.
func pptxText(_ context.Context, data []byte) (string, error) {
	text, _, err := docconv.ConvertPptx(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("pptx text: %w", err)
	}
	return strings.TrimSpace(text), nil
}

// spreadsheetText renders every sheet in workbook order: one line per
// row, cells separated by tabs, blank cells as empty strings.
func spreadsheetText(_ context.Context, data []byte) (string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	var lines []string
	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil {
			return "", fmt.Errorf("read sheet %s: %w", sheet, err)
		}
		for _, row := range rows {
			lines = append(lines, strings.Join(row, "\t"))
		}
	}
	return strings.Join(lines, "\n"), nil
}

// converted adapts fn to a legacy format by converting it with conv first.
func converted(conv OfficeConverter, from, to string, fn TextFunc) TextFunc {
	return func(ctx context.Context, data []byte) (string, error) {
		if conv == nil {
			return "", fmt.Errorf("no converter for %s files", from)
		}
		modern, err := conv.Convert(ctx, data, from, to)
		if err != nil {
			return "", fmt.Errorf("convert %s to %s: %w", from, to, err)
		}
		return fn(ctx, modern)
	}
}
