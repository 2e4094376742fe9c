package analysis

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the analysis pipeline Prometheus metrics. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	Results            *prometheus.CounterVec
	ExtractionFailures prometheus.Counter
	ItemsExtracted     prometheus.Counter
	ItemsDropped       prometheus.Counter
	ProductLookups     *prometheus.CounterVec
	DetectionFailures  prometheus.Counter
	Duration           *prometheus.HistogramVec
}

// NewMetrics registers the analysis metrics with reg
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Results: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "pantry_analysis_results_total",
			Help: "Completed analyses by result type (barcode, receipt, none)",
		}, []string{"type"}),
		ExtractionFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "pantry_analysis_extraction_failures_total",
			Help: "Receipt extractions that failed or returned unparsable output",
		}),
		ItemsExtracted: factory.NewCounter(prometheus.CounterOpts{
			Name: "pantry_analysis_items_extracted_total",
			Help: "Raw line items returned by the extractor",
		}),
		ItemsDropped: factory.NewCounter(prometheus.CounterOpts{
			Name: "pantry_analysis_items_dropped_total",
			Help: "Line items dropped by category and completeness validation",
		}),
		ProductLookups: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "pantry_analysis_product_lookups_total",
			Help: "Barcode product lookups by outcome (hit, miss, error)",
		}, []string{"outcome"}),
		DetectionFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "pantry_analysis_text_detection_failures_total",
			Help: "OCR collaborator failures",
		}),
		Duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "pantry_analysis_duration_seconds",
			Help:    "Time to analyze one image, including collaborator calls",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"backend"}),
	}
}

func (m *Metrics) recordResult(r *Result) {
	if m == nil {
		return
	}
	m.Results.WithLabelValues(string(r.Type)).Inc()
}

func (m *Metrics) recordExtraction(extracted, kept int) {
	if m == nil {
		return
	}
	m.ItemsExtracted.Add(float64(extracted))
	m.ItemsDropped.Add(float64(extracted - kept))
}

func (m *Metrics) recordExtractionFailure() {
	if m == nil {
		return
	}
	m.ExtractionFailures.Inc()
}

func (m *Metrics) recordLookup(outcome string) {
	if m == nil {
		return
	}
	m.ProductLookups.WithLabelValues(outcome).Inc()
}

func (m *Metrics) recordDetectionFailure() {
	if m == nil {
		return
	}
	m.DetectionFailures.Inc()
}

func (m *Metrics) observe(backend string, start time.Time) {
	if m == nil {
		return
	}
	m.Duration.WithLabelValues(backend).Observe(time.Since(start).Seconds())
}
