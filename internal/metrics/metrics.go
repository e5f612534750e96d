// Package metrics exposes Prometheus instrumentation for the study pipeline.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/Shimizu-Technology/lecture-notes-api/internal/services/llm"
)

// Operation labels.
const (
	OpNotes    = "notes"
	OpQuestion = "question"
)

var (
	generationRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "lecture_notes",
		Name:      "generation_requests_total",
		Help:      "Calls to the text-generation service by operation and outcome.",
	}, []string{"operation", "outcome"})

	generationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "lecture_notes",
		Name:      "generation_duration_seconds",
		Help:      "Latency of text-generation calls.",
		Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 40, 80, 120},
	}, []string{"operation"})

	extractedFiles = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "lecture_notes",
		Name:      "extracted_files_total",
		Help:      "Uploaded files run through text extraction, by outcome.",
	}, []string{"outcome"})

	rejectedBusy = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "lecture_notes",
		Name:      "busy_rejections_total",
		Help:      "Operations rejected because another one was in flight on the same session.",
	})

	activeSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "lecture_notes",
		Name:      "active_sessions",
		Help:      "Study sessions currently held in memory.",
	})
)

// ObserveGeneration records one generation call.
func ObserveGeneration(operation string, err error, elapsed time.Duration) {
	generationRequests.WithLabelValues(operation, Outcome(err)).Inc()
	generationDuration.WithLabelValues(operation).Observe(elapsed.Seconds())
}

// ObserveExtraction records one file extraction.
func ObserveExtraction(err error) {
	if err != nil {
		extractedFiles.WithLabelValues("failed").Inc()
		return
	}
	extractedFiles.WithLabelValues("ok").Inc()
}

// ObserveBusyRejection records an operation refused by the in-flight guard.
func ObserveBusyRejection() { rejectedBusy.Inc() }

// SetActiveSessions updates the session gauge.
func SetActiveSessions(n int) { activeSessions.Set(float64(n)) }

// Outcome maps an error to a low-cardinality label value.
func Outcome(err error) string {
	if err == nil {
		return "ok"
	}
	if se, ok := llm.AsServiceError(err); ok {
		return string(se.Kind)
	}
	return "error"
}
