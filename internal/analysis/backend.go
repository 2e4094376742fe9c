package analysis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"
)

// ErrTextDetection marks a failure of the OCR collaborator. Anything that goes
// wrong after OCR folds into a Result instead of an error.
var ErrTextDetection = errors.New("text detection failed")

// Backend analyzes a captured image. The implementation is chosen once at
// startup.
type Backend interface {
	Analyze(ctx context.Context, imageData []byte, contentType string) (*Result, error)
}

// VisionBackend runs OCR and then the text pipeline
type VisionBackend struct {
	detector TextDetector
	pipeline *Pipeline
	metrics  *Metrics
}

// NewVisionBackend creates a Backend that reads text with detector
func NewVisionBackend(detector TextDetector, pipeline *Pipeline, metrics *Metrics) *VisionBackend {
	return &VisionBackend{
		detector: detector,
		pipeline: pipeline,
		metrics:  metrics,
	}
}

// Analyze detects text in the image and classifies it
func (b *VisionBackend) Analyze(ctx context.Context, imageData []byte, contentType string) (*Result, error) {
	defer b.metrics.observe("vision", time.Now())

	text, err := b.detector.DetectText(ctx, imageData, contentType)
	if err != nil {
		b.metrics.recordDetectionFailure()
		return nil, fmt.Errorf("%w: %w", ErrTextDetection, err)
	}

	slog.Info("Detected text", "chars", len(text), "preview", preview(text, 200))
	return b.pipeline.AnalyzeText(ctx, text), nil
}

var mockBarcodes = []string{"87436 12389", "12345 67890", "98765 43210"}

var mockReceiptItems = []LineItem{
	{Name: "Bananas", Quantity: 6, Unit: "item", Price: floatPtr(2.49), Category: CategoryProduce},
	{Name: "Whole Milk", Quantity: 1, Unit: "item", Price: floatPtr(3.99), Category: CategoryDairy},
	{Name: "Sourdough Bread", Quantity: 1, Unit: "item", Price: floatPtr(4.50), Category: CategoryBakery},
}

func floatPtr(v float64) *float64 { return &v }

// MockBackend returns canned results without calling any collaborator. It is
// used when no OCR service is configured.
type MockBackend struct {
	mu      sync.Mutex
	random  func() float64
	delay   time.Duration
	metrics *Metrics
}

// NewMockBackend creates a MockBackend with a simulated 1-2s latency
func NewMockBackend(metrics *Metrics) *MockBackend {
	return NewMockBackendWithDeps(rand.Float64, time.Second, metrics)
}

// NewMockBackendWithDeps creates a MockBackend with a custom random source and
// base latency for testing
func NewMockBackendWithDeps(random func() float64, delay time.Duration, metrics *Metrics) *MockBackend {
	return &MockBackend{
		random:  random,
		delay:   delay,
		metrics: metrics,
	}
}

// Analyze returns a random barcode (40%), receipt (40%) or none (20%) result
func (b *MockBackend) Analyze(ctx context.Context, _ []byte, _ string) (*Result, error) {
	defer b.metrics.observe("mock", time.Now())
	slog.Info("Using mock analysis")

	b.mu.Lock()
	wait := b.delay + time.Duration(b.random()*float64(b.delay))
	pick := b.random()
	var result *Result
	switch {
	case pick < 0.4:
		code := mockBarcodes[int(b.random()*float64(len(mockBarcodes)))%len(mockBarcodes)]
		result = &Result{
			Type:       VerdictBarcode,
			Barcode:    code,
			Confidence: 0.85 + b.random()*0.14,
		}
	case pick < 0.8:
		result = &Result{
			Type:       VerdictReceipt,
			Items:      b.sampleItems(),
			Confidence: 0.78 + b.random()*0.2,
		}
	default:
		result = NoneResult(NoDetectionMessage)
	}
	b.mu.Unlock()

	if wait > 0 {
		timer := time.NewTimer(wait)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	b.metrics.recordResult(result)
	return result, nil
}

// sampleItems picks 2 to 4 distinct mock items, capped at the list size.
// Must be called with b.mu held.
func (b *MockBackend) sampleItems() []LineItem {
	items := make([]LineItem, len(mockReceiptItems))
	copy(items, mockReceiptItems)
	for i := len(items) - 1; i > 0; i-- {
		j := int(b.random()*float64(i+1)) % (i + 1)
		items[i], items[j] = items[j], items[i]
	}
	n := 2 + int(b.random()*3)
	if n > len(items) {
		n = len(items)
	}
	return items[:n]
}
