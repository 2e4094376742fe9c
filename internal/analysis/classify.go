package analysis

import "strings"

// minReceiptPrices is the number of currency amounts that alone qualifies text as a receipt
const minReceiptPrices = 2

// receiptIndicators are the strong receipt keywords checked by the receipt gate
var receiptIndicators = newKeywordSet(
	"receipt", "total", "subtotal", "tax", "thank you", "store",
	"cashier", "register", "transaction", "purchase", "sale",
	"change due", "amount tendered", "visa", "mastercard", "debit",
)

// ReceiptScore holds the signals the receipt gate decides on
type ReceiptScore struct {
	Indicators []string
	PriceCount int
}

// HasStrongIndicator reports whether any strong receipt keyword was found
func (s ReceiptScore) HasStrongIndicator() bool {
	return len(s.Indicators) > 0
}

// HasPrices reports whether enough currency amounts were found
func (s ReceiptScore) HasPrices() bool {
	return s.PriceCount >= minReceiptPrices
}

// Accepted reports whether the text carries enough signal to attempt
// receipt item extraction
func (s ReceiptScore) Accepted() bool {
	return s.HasStrongIndicator() || s.HasPrices()
}

// ScoreReceipt computes the receipt gate signals for OCR text.
// Empty text scores zero without any matching.
func ScoreReceipt(text string) ReceiptScore {
	if strings.TrimSpace(text) == "" {
		return ReceiptScore{}
	}
	return ReceiptScore{
		Indicators: receiptIndicators.matched(foldText(text)),
		PriceCount: countPrices(text),
	}
}

// Classify decides the document type of OCR text. The receipt gate is
// evaluated first and wins over barcode detection.
func Classify(text string) Verdict {
	if strings.TrimSpace(text) == "" {
		return VerdictNone
	}
	if ScoreReceipt(text).Accepted() {
		return VerdictReceipt
	}
	if ExtractBarcode(text) != nil {
		return VerdictBarcode
	}
	return VerdictNone
}
