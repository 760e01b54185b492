package extract

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/phuslu/log"
)

// pdfTextLayerMin is the yield below which a PDF is treated as a scan and
// handed to OCR instead.
const pdfTextLayerMin = 100

// PDF extracts the text layer of a PDF with pdfcpu. PDFs without a usable
// text layer (scanned contracts) fall back to rasterizing each page and
// running OCR on it.
type PDF struct {
	ocr *OCR
}

// NewPDF returns a PDF extractor with the given OCR fallback.
func NewPDF(ocr *OCR) *PDF {
	return &PDF{ocr: ocr}
}

// ExtractText extracts text from the PDF, preferring the embedded text layer.
func (p *PDF) ExtractText(ctx context.Context, path string) (string, error) {
	text, err := p.extractTextLayer(path)
	if err != nil {
		log.Warn().Err(err).Str("file", filepath.Base(path)).Msg("pdf text layer extraction failed")
	}
	if len([]rune(strings.TrimSpace(text))) >= pdfTextLayerMin {
		return strings.TrimSpace(text), nil
	}

	log.Info().Str("file", filepath.Base(path)).Msg("pdf has no usable text layer, running ocr")
	return p.ocrPages(ctx, path)
}

// extractTextLayer dumps per-page content streams into a temp directory and
// concatenates them in page order. pdfcpu has no direct text API, so content
// extraction is the closest thing to a text layer read.
func (p *PDF) extractTextLayer(path string) (string, error) {
	outDir, err := os.MkdirTemp("", "pdf-content-*")
	if err != nil {
		return "", fmt.Errorf("failed to create temp dir: %w", err)
	}
	defer os.RemoveAll(outDir)

	conf := model.NewDefaultConfiguration()
	if err := api.ExtractContentFile(path, outDir, nil, conf); err != nil {
		return "", fmt.Errorf("failed to extract pdf content: %w", err)
	}

	entries, err := os.ReadDir(outDir)
	if err != nil {
		return "", fmt.Errorf("failed to read extraction output: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)

	var builder strings.Builder
	for _, name := range names {
		content, err := os.ReadFile(filepath.Join(outDir, name))
		if err != nil {
			continue
		}
		builder.Write(content)
		builder.WriteString("\n")
	}
	return builder.String(), nil
}

// ocrPages rasterizes the PDF with pdftoppm and OCRs each page image in
// order.
func (p *PDF) ocrPages(ctx context.Context, path string) (string, error) {
	imgDir, err := os.MkdirTemp("", "pdf-pages-*")
	if err != nil {
		return "", fmt.Errorf("failed to create temp dir: %w", err)
	}
	defer os.RemoveAll(imgDir)

	if err := rasterize(ctx, path, filepath.Join(imgDir, "page")); err != nil {
		return "", err
	}

	entries, err := os.ReadDir(imgDir)
	if err != nil {
		return "", fmt.Errorf("failed to read page images: %w", err)
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)
	if len(names) == 0 {
		return "", fmt.Errorf("pdf produced no page images")
	}

	var builder strings.Builder
	for i, name := range names {
		pageText, err := p.ocr.ExtractText(ctx, filepath.Join(imgDir, name))
		if err != nil {
			return "", fmt.Errorf("ocr failed on page %d: %w", i+1, err)
		}
		builder.WriteString(pageText)
		builder.WriteString("\n")
	}
	return strings.TrimSpace(builder.String()), nil
}
