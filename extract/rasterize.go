package extract

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/phuslu/log"
)

// rasterize converts each PDF page into a PNG using the poppler pdftoppm
// binary, writing <prefix>-01.png, <prefix>-02.png and so on.
func rasterize(ctx context.Context, pdfPath, outPrefix string) error {
	cmd := exec.CommandContext(ctx, "pdftoppm", "-png", "-r", "200", pdfPath, outPrefix)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		log.Error().Err(err).Str("stderr", strings.TrimSpace(stderr.String())).Msg("pdftoppm failed")
		return fmt.Errorf("failed to rasterize pdf: %w", err)
	}
	return nil
}
