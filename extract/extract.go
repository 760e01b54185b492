// Package extract pulls plain text out of uploaded contract files. Each
// supported format has its own extractor; the Router dispatches on file
// extension and enforces the minimum-yield precondition shared by all of
// them.
package extract

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/phuslu/log"
)

var (
	// ErrTextTooShort signals that extraction produced too little text to
	// review. Typically a blank scan or an image OCR could not read.
	ErrTextTooShort = errors.New("extracted text too short")

	// ErrUnsupportedFormat signals a file extension no extractor handles.
	ErrUnsupportedFormat = errors.New("unsupported file format")
)

// TextExtractor pulls plain text out of one file on disk.
type TextExtractor interface {
	ExtractText(ctx context.Context, path string) (string, error)
}

// PlainText passes .txt files through unchanged.
type PlainText struct{}

func (PlainText) ExtractText(_ context.Context, path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read text file: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

// Router dispatches extraction by file extension and rejects results below
// the minimum yield.
type Router struct {
	extractors map[string]TextExtractor
	minChars   int
}

// NewRouter wires the default extractor set: OCR for images, layered
// PDF extraction, passthrough for plain text.
func NewRouter(minChars int) *Router {
	ocr := NewOCR()
	pdf := NewPDF(ocr)
	r := &Router{
		extractors: map[string]TextExtractor{
			".txt":  PlainText{},
			".pdf":  pdf,
			".jpg":  ocr,
			".jpeg": ocr,
			".png":  ocr,
		},
		minChars: minChars,
	}
	return r
}

// Supported reports whether the extension (with leading dot) has an
// extractor.
func (r *Router) Supported(ext string) bool {
	_, ok := r.extractors[strings.ToLower(ext)]
	return ok
}

// ExtractText extracts text from the file and verifies the yield meets the
// configured minimum.
func (r *Router) ExtractText(ctx context.Context, path string) (string, error) {
	ext := strings.ToLower(filepath.Ext(path))
	extractor, ok := r.extractors[ext]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, ext)
	}

	text, err := extractor.ExtractText(ctx, path)
	if err != nil {
		return "", err
	}

	text = strings.TrimSpace(text)
	if got := len([]rune(text)); got < r.minChars {
		return "", fmt.Errorf("%w: got %d chars, need %d", ErrTextTooShort, got, r.minChars)
	}

	log.Info().Str("file", filepath.Base(path)).Int("chars", len([]rune(text))).Msg("text extracted")
	return text, nil
}
