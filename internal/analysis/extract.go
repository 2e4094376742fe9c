package analysis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// TextDetector is the OCR collaborator
type TextDetector interface {
	// DetectText returns the full recognized text of an image, or "" if none
	DetectText(ctx context.Context, imageData []byte, contentType string) (string, error)
}

// TextGenerator is the text model collaborator used for delegated extraction
type TextGenerator interface {
	// Generate returns free-form model output for a prompt
	Generate(ctx context.Context, prompt string) (string, error)
}

// ProductFinder resolves barcodes against the product catalog.
// A miss is (nil, nil).
type ProductFinder interface {
	FindProductByCode(code string) (*ProductRecord, error)
}

// LineItemExtractor turns receipt text into candidate line items
type LineItemExtractor interface {
	Extract(ctx context.Context, text string) ([]RawLineItem, error)
}

// ExtractorMode selects the line item strategy at startup
type ExtractorMode string

const (
	// ExtractorLLM delegates extraction to a text model
	ExtractorLLM ExtractorMode = "llm"
	// ExtractorLocal parses receipt lines with fixed patterns, offline
	ExtractorLocal ExtractorMode = "local"
)

var (
	errNoText      = errors.New("no text to extract from")
	errNoJSONArray = errors.New("no JSON array found in response")
)

// NewExtractor returns the extractor for mode. generator is required for
// ExtractorLLM and ignored otherwise.
func NewExtractor(mode ExtractorMode, generator TextGenerator) (LineItemExtractor, error) {
	switch mode {
	case ExtractorLLM:
		if generator == nil {
			return nil, fmt.Errorf("extractor %q requires a text generator", mode)
		}
		return NewLLMExtractor(generator), nil
	case ExtractorLocal:
		return NewLocalExtractor(), nil
	default:
		return nil, fmt.Errorf("unknown extractor mode %q", mode)
	}
}

// LLMExtractor delegates line item extraction to a text model. A failed call
// or unparsable output is terminal for the request.
type LLMExtractor struct {
	generator TextGenerator
}

// NewLLMExtractor creates an extractor backed by generator
func NewLLMExtractor(generator TextGenerator) *LLMExtractor {
	return &LLMExtractor{generator: generator}
}

// Extract sends the receipt text to the model and parses the returned array
func (e *LLMExtractor) Extract(ctx context.Context, text string) ([]RawLineItem, error) {
	if strings.TrimSpace(text) == "" {
		return nil, errNoText
	}

	response, err := e.generator.Generate(ctx, BuildExtractionPrompt(text))
	if err != nil {
		return nil, fmt.Errorf("generating line items: %w", err)
	}

	items, err := parseLineItems(response)
	if err != nil {
		return nil, fmt.Errorf("parsing line items: %w", err)
	}
	return items, nil
}

// parseLineItems decodes the first bracket-balanced substring of response
// that parses as an array of line item objects. Surrounding prose and code
// fences are ignored.
func parseLineItems(response string) ([]RawLineItem, error) {
	for start := strings.IndexByte(response, '['); start >= 0; {
		if end := matchingBracket(response, start); end >= 0 {
			var items []RawLineItem
			if err := json.Unmarshal([]byte(response[start:end+1]), &items); err == nil {
				return items, nil
			}
		}

		next := strings.IndexByte(response[start+1:], '[')
		if next < 0 {
			break
		}
		start += next + 1
	}
	return nil, errNoJSONArray
}

// matchingBracket returns the index of the ']' closing the '[' at start,
// skipping brackets inside JSON strings, or -1 if it never closes
func matchingBracket(s string, start int) int {
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '[':
			depth++
		case ']':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}
