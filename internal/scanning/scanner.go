package scanning

import "context"

// Scanner reads the text printed in an image
type Scanner interface {
	// DetectText returns the full recognized text of an image, or "" if none
	DetectText(ctx context.Context, imageData []byte, contentType string) (string, error)
	// Close closes the scanner and releases resources
	Close() error
}

// Generator answers text-only prompts with a language model
type Generator interface {
	// Generate returns the model's raw answer to prompt
	Generate(ctx context.Context, prompt string) (string, error)
	// Close closes the generator and releases resources
	Close() error
}

// noTextMarker is what the transcription prompt asks a model to answer when
// an image holds no readable text
const noTextMarker = "NO_TEXT"

// transcriptionPrompt is the shared prompt used by all vision models for OCR
const transcriptionPrompt = `Transcribe all text visible in this image exactly as printed.

Rules:
- Keep the original line breaks. Put each printed line on its own line.
- Copy numbers digit by digit, including barcode digits under a barcode.
- Keep prices, quantities and store names as they appear.
- Do not summarize, translate, correct spelling, or add commentary.
- Do not use markdown code blocks.
- If there is no readable text in the image, respond with exactly ` + noTextMarker
