package analysis

import (
	"context"
	"log/slog"
	"strings"
)

// Pipeline sequences classification, extraction and validation over OCR text.
// It holds no per-request state and is safe for concurrent use as long as its
// collaborators are.
type Pipeline struct {
	extractor LineItemExtractor
	products  ProductFinder
	metrics   *Metrics
}

// NewPipeline creates a Pipeline. products may be nil, in which case barcode
// results are returned without a catalog lookup.
func NewPipeline(extractor LineItemExtractor, products ProductFinder, metrics *Metrics) *Pipeline {
	return &Pipeline{
		extractor: extractor,
		products:  products,
		metrics:   metrics,
	}
}

// AnalyzeText maps OCR text to one of the three result shapes. Collaborator
// failures never escape; they fold into a none result.
func (p *Pipeline) AnalyzeText(ctx context.Context, text string) *Result {
	result := p.analyze(ctx, text)
	p.metrics.recordResult(result)
	return result
}

func (p *Pipeline) analyze(ctx context.Context, text string) *Result {
	if strings.TrimSpace(text) == "" {
		return NoneResult(NoDetectionMessage)
	}

	score := ScoreReceipt(text)
	if score.Accepted() {
		slog.Info("Receipt gate accepted",
			"indicators", score.Indicators,
			"prices", score.PriceCount,
		)
		return p.receiptPath(ctx, text)
	}
	return p.barcodePath(text)
}

func (p *Pipeline) receiptPath(ctx context.Context, text string) *Result {
	raw, err := p.extractor.Extract(ctx, text)
	if err != nil {
		slog.Warn("Line item extraction failed", "error", err)
		p.metrics.recordExtractionFailure()
		return NoneResult(NoDetectionMessage)
	}
	if len(raw) == 0 {
		slog.Info("Extraction returned no items")
		return NoneResult(NoDetectionMessage)
	}

	items := Validate(raw)
	p.metrics.recordExtraction(len(raw), len(items))
	slog.Info("Extracted receipt items", "extracted", len(raw), "valid", len(items))
	if len(items) == 0 {
		return NoneResult(NoDetectionMessage)
	}
	return ReceiptResult(items)
}

func (p *Pipeline) barcodePath(text string) *Result {
	candidate := ExtractBarcode(text)
	if candidate == nil {
		return NoneResult(NoDetectionMessage)
	}

	result := BarcodeResult(candidate)
	if p.products == nil {
		return result
	}

	product, err := p.products.FindProductByCode(stripSpace(candidate.Code))
	switch {
	case err != nil:
		slog.Warn("Product lookup failed", "barcode", candidate.Code, "error", err)
		p.metrics.recordLookup("error")
		result.Note = ProductNotFoundNote
	case product == nil:
		p.metrics.recordLookup("miss")
		result.Note = ProductNotFoundNote
	default:
		p.metrics.recordLookup("hit")
		result.Product = product
	}
	return result
}
