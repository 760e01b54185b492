package extract

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/phuslu/log"
)

// OCR shells out to the tesseract binary. Traditional Chinese plus English,
// page segmentation mode 6 (assume a uniform block of text), matching
// scanned employment contracts.
type OCR struct {
	binary    string
	languages string
	psm       string
}

// NewOCR returns an OCR extractor using the tesseract binary on PATH.
func NewOCR() *OCR {
	return &OCR{
		binary:    "tesseract",
		languages: "chi_tra+eng",
		psm:       "6",
	}
}

// ExtractText runs OCR on one image file.
func (o *OCR) ExtractText(ctx context.Context, path string) (string, error) {
	cmd := exec.CommandContext(ctx, o.binary, path, "stdout", "-l", o.languages, "--psm", o.psm)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		log.Error().Err(err).Str("stderr", strings.TrimSpace(stderr.String())).Msg("tesseract failed")
		return "", fmt.Errorf("ocr failed: %w", err)
	}

	return strings.TrimSpace(stdout.String()), nil
}
