package ocr

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// ConvertPDFFirstPage rasterizes the first page of a PDF to a PNG sibling
// via pdftoppm and returns the PNG path. Pages past the first are ignored;
// bills are single-page documents in practice.
func ConvertPDFFirstPage(ctx context.Context, pdfPath string) (string, error) {
	if _, err := exec.LookPath("pdftoppm"); err != nil {
		return "", fmt.Errorf("pdftoppm not found: %w", err)
	}

	base := strings.TrimSuffix(pdfPath, filepath.Ext(pdfPath))
	cmd := exec.CommandContext(ctx, "pdftoppm",
		"-png", "-f", "1", "-l", "1", "-singlefile", pdfPath, base)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("pdftoppm failed: %w: %s", err, stderr.String())
	}

	outPath := base + ".png"
	if _, err := os.Stat(outPath); err != nil {
		return "", fmt.Errorf("pdftoppm produced no output: %w", err)
	}

	return outPath, nil
}
