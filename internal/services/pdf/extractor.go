// Package pdf provides PDF text extraction for uploaded lecture documents.
//
// We use the ledongthuc/pdf library for text extraction.
// It's a pure Go implementation. No CGO or external dependencies required.
// This makes deployment simpler (just a single binary).
package pdf

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// PageBreak separates the text of consecutive pages.
const PageBreak = "\n\n"

// ErrExtraction is wrapped by every error Extract returns, so callers can
// tell a bad document apart from other failures with errors.Is.
var ErrExtraction = errors.New("pdf extraction failed")

// ExtractionResult holds the output from a PDF text extraction.
type ExtractionResult struct {
	Text      string // Page texts in order, each followed by PageBreak
	PageCount int    // Number of pages
	WordCount int    // Word count
}

// Extractor adapts Extract to the text-extraction interface used by the
// study pipeline.
type Extractor struct{}

// ExtractText returns the page-ordered plain text of a PDF document.
func (Extractor) ExtractText(data []byte) (string, error) {
	result, err := Extract(data)
	if err != nil {
		return "", err
	}
	return result.Text, nil
}

// Extract reads a PDF from memory and extracts all text content.
//
// Go Pattern: We accept a byte slice instead of a filename because the data
// comes from an HTTP upload (in memory), not a file on disk. The pdf library
// requires an io.ReaderAt for random access, which bytes.Reader provides.
func Extract(data []byte) (result *ExtractionResult, err error) {
	if !ValidatePDF(data) {
		return nil, fmt.Errorf("%w: missing %%PDF- header", ErrExtraction)
	}

	// The parser panics on some malformed object streams.
	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = fmt.Errorf("%w: %v", ErrExtraction, r)
		}
	}()

	pdfReader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open PDF: %v", ErrExtraction, err)
	}

	pageCount := pdfReader.NumPage()

	var allText strings.Builder
	for i := 1; i <= pageCount; i++ {
		page := pdfReader.Page(i)
		if page.V.IsNull() {
			// Keep one break per page so separators line up with PageCount.
			allText.WriteString(PageBreak)
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			return nil, fmt.Errorf("%w: page %d: %v", ErrExtraction, i, err)
		}

		allText.WriteString(strings.TrimSpace(text))
		allText.WriteString(PageBreak)
	}

	extractedText := allText.String()

	return &ExtractionResult{
		Text:      extractedText,
		PageCount: pageCount,
		WordCount: countWords(extractedText),
	}, nil
}

// countWords counts the number of words in a text string.
func countWords(text string) int {
	return len(strings.Fields(text))
}

// ValidatePDF checks if the data looks like a valid PDF by checking the magic bytes.
func ValidatePDF(data []byte) bool {
	// PDF files start with "%PDF-"
	return len(data) >= 5 && string(data[:5]) == "%PDF-"
}
