package ocr

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
)

// ErrEngineNotFound means the tesseract executable is missing, which is an
// operator configuration problem, not an input problem.
var ErrEngineNotFound = errors.New("tesseract executable not found")

// TesseractEngine recognizes text by shelling out to the tesseract binary.
type TesseractEngine struct {
	command  string
	language string
}

// NewTesseractEngine creates an engine. command may be an absolute path or a
// name resolved via PATH; empty means "tesseract".
func NewTesseractEngine(command, language string) *TesseractEngine {
	if command == "" {
		command = "tesseract"
	}
	if language == "" {
		language = "eng"
	}
	return &TesseractEngine{
		command:  command,
		language: language,
	}
}

// Available reports whether the engine binary can be resolved.
func (t *TesseractEngine) Available() bool {
	_, err := exec.LookPath(t.command)
	return err == nil
}

// Recognize runs OCR on the image file and returns the recognized text.
func (t *TesseractEngine) Recognize(ctx context.Context, imagePath string) (string, error) {
	if _, err := exec.LookPath(t.command); err != nil {
		return "", fmt.Errorf("%w: %s", ErrEngineNotFound, t.command)
	}

	cmd := exec.CommandContext(ctx, t.command, imagePath, "stdout", "-l", t.language)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("tesseract failed: %w: %s", err, stderr.String())
	}

	return stdout.String(), nil
}
