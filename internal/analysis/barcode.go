package analysis

import (
	"log/slog"
	"regexp"
	"strings"
	"unicode/utf8"
)

// Standalone filter thresholds
const (
	shortLineLimit   = 30
	lineToCodeFactor = 2
)

// barcodeGuard is the keyword set used to refuse barcode extraction on
// receipt-like text when the extractor is called on its own
var barcodeGuard = newKeywordSet(
	"receipt", "total", "subtotal", "tax", "store", "thank you",
	"cashier", "register", "purchase", "sale", "change",
)

type barcodePattern struct {
	name string
	re   *regexp.Regexp
}

// barcodePatterns are tried in order; the first one with a standalone match wins
var barcodePatterns = []barcodePattern{
	{name: "UPC-A", re: regexp.MustCompile(`\b\d{12}\b`)},
	{name: "EAN-13", re: regexp.MustCompile(`\b\d{13}\b`)},
	{name: "EAN-8", re: regexp.MustCompile(`\b\d{8}\b`)},
	{name: "spaced", re: regexp.MustCompile(`\b\d{5}\s+\d{5}\b`)},
}

// ExtractBarcode finds the most likely product barcode in OCR text.
// Returns nil when the text looks like a receipt or no digit run dominates
// its line.
func ExtractBarcode(text string) *BarcodeCandidate {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	if barcodeGuard.containsAny(foldText(text)) && len(dollarPricePattern.FindAllString(text, -1)) >= minReceiptPrices {
		slog.Debug("Skipping barcode detection, text looks like a receipt")
		return nil
	}

	lines := splitLines(text)
	for _, pattern := range barcodePatterns {
		for _, match := range pattern.re.FindAllString(text, -1) {
			if !standalone(lines, match) {
				continue
			}
			code := collapseSpace(match)
			slog.Debug("Found standalone barcode", "format", pattern.name, "barcode", code)
			return &BarcodeCandidate{Code: code, Confidence: BarcodeConfidence}
		}
	}

	return nil
}

// standalone reports whether some line holding the digit run is mostly that
// run: either the line is short or the run makes up at least half of it
func standalone(lines []string, match string) bool {
	digits := stripSpace(match)
	for _, line := range lines {
		compact := stripSpace(line)
		if !strings.Contains(compact, digits) {
			continue
		}
		if utf8.RuneCountInString(line) < shortLineLimit ||
			utf8.RuneCountInString(compact) < len(digits)*lineToCodeFactor {
			return true
		}
	}
	return false
}
