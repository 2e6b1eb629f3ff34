// Package metrics defines and registers all custom Prometheus metrics for the
// records API. It is the single source of truth for metric names, labels, and
// help strings.
//
// Metrics are registered with the default Prometheus registry on package init
// through promauto, so importing the package is enough.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "records"

// ── Extraction metrics ────────────────────────────────────────────────────────

// OCRRequestsTotal counts calls to the text extraction service.
// Label:
//   - result: "ok", "no_image", "rejected" or "unavailable"
var OCRRequestsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "ocr_requests_total",
		Help:      "Total number of text extraction requests, by result.",
	},
	[]string{"result"},
)

// OCRCacheTotal counts extraction cache lookups.
// Label:
//   - result: "hit" (engine skipped) or "miss"
var OCRCacheTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "ocr_cache_total",
		Help:      "Total number of extraction cache lookups, labelled by result (hit/miss).",
	},
	[]string{"result"},
)

// ExtractionDuration measures calls to the external OCR engine (cache hits excluded).
var ExtractionDuration = promauto.NewHistogram(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "extraction_duration_seconds",
		Help:      "Duration of calls to the external text extraction engine.",
		Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30},
	},
)

// ── Pipeline metrics ──────────────────────────────────────────────────────────

// PipelineStepsTotal counts pipeline step outcomes.
// Labels:
//   - step: "extract" or "summarize"
//   - result: "ok" or "error"
var PipelineStepsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "pipeline_steps_total",
		Help:      "Total number of prescription pipeline steps, by step and result.",
	},
	[]string{"step", "result"},
)

// PipelineQueueDepth tracks the number of jobs waiting in each worker channel.
// Label:
//   - worker_id: numeric worker index (e.g. "0", "1", …)
var PipelineQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "pipeline_queue_depth",
		Help:      "Current number of jobs pending in each pipeline worker channel.",
	},
	[]string{"worker_id"},
)

// PipelineDuration measures one full pipeline run for a prescription.
// Label:
//   - status: the resulting prescription status, or "error" on failure
var PipelineDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "pipeline_duration_seconds",
		Help:      "Duration of a prescription pipeline run from dequeue to persistence.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"status"},
)

// ── Entity metrics ────────────────────────────────────────────────────────────

// PrescriptionsFiledTotal counts prescriptions created from uploads.
var PrescriptionsFiledTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "prescriptions_filed_total",
		Help:      "Total number of prescriptions filed.",
	},
)

// AccountsRegisteredTotal counts new accounts.
// Label:
//   - role: "doctor" or "patient"
var AccountsRegisteredTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "accounts_registered_total",
		Help:      "Total number of accounts registered, by role.",
	},
	[]string{"role"},
)

// AccountsDeletedTotal counts cascade deletions.
var AccountsDeletedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "accounts_deleted_total",
		Help:      "Total number of accounts deleted together with their prescriptions.",
	},
)
