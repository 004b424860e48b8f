// Package metrics exposes pipeline counters on a Prometheus registry.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// FetchErrors counts failed source fetch runs.
	FetchErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "curator_fetch_errors_total",
		Help: "Failed source fetch runs.",
	}, []string{"source"})

	// ItemsIngested counts dedup outcomes per ingestion run.
	ItemsIngested = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "curator_items_ingested_total",
		Help: "Ingested items by dedup outcome (new, duplicate, error).",
	}, []string{"outcome"})

	// SourcesDeactivated counts sources auto-deactivated after
	// consecutive failures.
	SourcesDeactivated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "curator_sources_deactivated_total",
		Help: "Sources auto-deactivated after consecutive fetch failures.",
	})

	// SummaryLevels counts produced summary levels by origin.
	SummaryLevels = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "curator_summary_levels_total",
		Help: "Summary levels produced, by level and origin (ai, fallback).",
	}, []string{"level", "origin"})

	// SummaryJobs counts finished summarization jobs by final status.
	SummaryJobs = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "curator_summary_jobs_total",
		Help: "Summarization jobs by final article status.",
	}, []string{"status"})

	// FeedbackEvents counts accepted feedback events by type.
	FeedbackEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "curator_feedback_events_total",
		Help: "Accepted feedback events by type.",
	}, []string{"type"})

	// FeedbackCoalesced counts duplicate events dropped by the
	// idempotency window.
	FeedbackCoalesced = promauto.NewCounter(prometheus.CounterOpts{
		Name: "curator_feedback_coalesced_total",
		Help: "Duplicate feedback events coalesced inside the idempotency window.",
	})

	// DigestRuns counts assembled digests.
	DigestRuns = promauto.NewCounter(prometheus.CounterOpts{
		Name: "curator_digest_runs_total",
		Help: "Digest runs assembled.",
	})
)

// Handler returns the HTTP handler serving the metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
