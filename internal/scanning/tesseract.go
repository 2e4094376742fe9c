package scanning

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

const defaultTesseractBin = "tesseract"

// Tesseract implements Scanner by running the tesseract CLI. The image is
// streamed over stdin so nothing touches disk.
type Tesseract struct {
	bin string
}

// NewTesseract creates a Scanner that runs bin, or "tesseract" from PATH
func NewTesseract(bin string) *Tesseract {
	if bin == "" {
		bin = defaultTesseractBin
	}
	return &Tesseract{bin: bin}
}

// DetectText runs tesseract over the image and returns its stdout
func (t *Tesseract) DetectText(ctx context.Context, imageData []byte, contentType string) (string, error) {
	pngData, err := normalizeImage(imageData, contentType)
	if err != nil {
		return "", err
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, t.bin, "stdin", "stdout")
	cmd.Stdin = bytes.NewReader(pngData)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return "", fmt.Errorf("running %s: %w: %s", t.bin, err, msg)
		}
		return "", fmt.Errorf("running %s: %w", t.bin, err)
	}

	return cleanTranscription(stdout.String()), nil
}

// Close is a no-op; each call runs its own process
func (t *Tesseract) Close() error {
	return nil
}
