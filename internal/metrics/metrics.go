package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Registry holds every collector below. It is private to the process so a
// CLI run can dump it with WriteTextfile without the Go runtime collectors.
var Registry = prometheus.NewRegistry()

var factory = promauto.With(Registry)

var (
	EventsExtracted = factory.NewCounter(
		prometheus.CounterOpts{
			Name: "mmbot_events_extracted_total",
			Help: "Backend events normalized by the extractor",
		},
	)

	ExtractionFailures = factory.NewCounter(
		prometheus.CounterOpts{
			Name: "mmbot_event_extraction_failures_total",
			Help: "Backend frames that were not valid JSON",
		},
	)

	EventsApplied = factory.NewCounter(
		prometheus.CounterOpts{
			Name: "mmbot_events_applied_total",
			Help: "Extracted events folded into an assistant message",
		},
	)

	ParserDetections = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mmbot_parser_detections_total",
			Help: "Message parses by detection strategy (text when none matched)",
		},
		[]string{"strategy"},
	)

	ProductsDropped = factory.NewCounter(
		prometheus.CounterOpts{
			Name: "mmbot_products_dropped_total",
			Help: "Product cards filtered out for missing required fields",
		},
	)

	SessionsSaved = factory.NewCounter(
		prometheus.CounterOpts{
			Name: "mmbot_sessions_saved_total",
			Help: "Session records written to local storage",
		},
	)

	Turns = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mmbot_turns_total",
			Help: "Chat turns by outcome",
		},
		[]string{"outcome"},
	)

	BackendRequests = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mmbot_backend_requests_total",
			Help: "Backend HTTP requests by endpoint and outcome",
		},
		[]string{"endpoint", "outcome"},
	)

	BackendLatency = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mmbot_backend_request_duration_seconds",
			Help:    "Backend HTTP request latency",
			Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"endpoint"},
	)
)

// WriteTextfile writes the registry in the node-exporter textfile format.
func WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, Registry)
}
