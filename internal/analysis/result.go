package analysis

import (
	"encoding/json"
	"math"
	"strings"
)

// Verdict is the document type decided for a block of OCR text
type Verdict string

const (
	VerdictNone    Verdict = "none"
	VerdictReceipt Verdict = "receipt"
	VerdictBarcode Verdict = "barcode"
)

// Fixed confidence annotations. These describe pipeline-stage trust, not a
// calibrated probability.
const (
	BarcodeConfidence = 0.9
	ReceiptConfidence = 0.8
)

const (
	// NoDetectionMessage is shown when neither a barcode nor a receipt was found
	NoDetectionMessage = "No barcode or receipt detected. Please try again with better lighting or positioning."

	// ProductNotFoundNote annotates a barcode that the product store did not resolve
	ProductNotFoundNote = "not found in database"
)

// BarcodeCandidate is a digit run accepted by the barcode extractor
type BarcodeCandidate struct {
	Code       string  `json:"barcode"`
	Confidence float64 `json:"confidence"`
}

// RawLineItem is an unvalidated line item as produced by an extractor.
// Category is free text here and may fall outside the food taxonomy.
type RawLineItem struct {
	Name     string   `json:"name"`
	Quantity float64  `json:"quantity"`
	Unit     string   `json:"unit"`
	Price    *float64 `json:"price"`
	Category string   `json:"category"`
}

// UnmarshalJSON decodes model output leniently. Fields of the wrong JSON type
// are left empty (or NaN for quantity) so that Validate drops the item instead
// of failing the whole array.
func (r *RawLineItem) UnmarshalJSON(data []byte) error {
	var wire struct {
		Name     json.RawMessage `json:"name"`
		Quantity json.RawMessage `json:"quantity"`
		Unit     json.RawMessage `json:"unit"`
		Price    json.RawMessage `json:"price"`
		Category json.RawMessage `json:"category"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}

	r.Name = rawString(wire.Name)
	r.Quantity = rawNumber(wire.Quantity)
	r.Unit = rawString(wire.Unit)
	r.Category = rawString(wire.Category)
	r.Price = nil
	if price := rawNumber(wire.Price); !math.IsNaN(price) {
		r.Price = &price
	}
	return nil
}

func rawString(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return strings.TrimSpace(s)
}

func rawNumber(raw json.RawMessage) float64 {
	var f float64
	if err := json.Unmarshal(raw, &f); err != nil {
		return math.NaN()
	}
	return f
}

// LineItem is a RawLineItem that passed Validate
type LineItem RawLineItem

// ProductRecord is a catalog entry resolved from a barcode
type ProductRecord struct {
	UPCCode         string  `json:"upc_code" db:"upc_code"`
	Name            string  `json:"name" db:"name"`
	Description     string  `json:"description,omitempty" db:"description"`
	Category        string  `json:"category" db:"category"`
	Brand           string  `json:"brand,omitempty" db:"brand"`
	Size            string  `json:"size,omitempty" db:"size"`
	Unit            string  `json:"unit" db:"unit"`
	ShelfLifeDays   int     `json:"shelf_life_days" db:"shelf_life_days"`
	StorageType     string  `json:"storage_type" db:"storage_type"`
	TypicalQuantity float64 `json:"typical_quantity" db:"typical_quantity"`
}

// Result is the outcome of one analysis. Type selects which of the remaining
// fields are populated.
type Result struct {
	Type       Verdict        `json:"type"`
	Barcode    string         `json:"barcode,omitempty"`
	Product    *ProductRecord `json:"product,omitempty"`
	Note       string         `json:"note,omitempty"`
	Items      []LineItem     `json:"items,omitempty"`
	Confidence float64        `json:"confidence,omitempty"`
	Message    string         `json:"message,omitempty"`
}

// NoneResult reports that nothing usable was detected
func NoneResult(message string) *Result {
	return &Result{Type: VerdictNone, Message: message}
}

// BarcodeResult wraps an accepted barcode candidate
func BarcodeResult(candidate *BarcodeCandidate) *Result {
	return &Result{
		Type:       VerdictBarcode,
		Barcode:    candidate.Code,
		Confidence: candidate.Confidence,
	}
}

// ReceiptResult wraps validated receipt items
func ReceiptResult(items []LineItem) *Result {
	return &Result{
		Type:       VerdictReceipt,
		Items:      items,
		Confidence: ReceiptConfidence,
	}
}
