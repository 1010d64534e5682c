// SPDX-License-Identifier: AGPL-3.0-only
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
)

var (
	BackendRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "skillboard_backend_requests_total",
		Help: "Backend API requests by endpoint and outcome.",
	}, []string{"endpoint", "outcome"})

	BackendLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "skillboard_backend_request_duration_seconds",
		Help:    "Backend API request latency.",
		Buckets: prometheus.DefBuckets,
	}, []string{"endpoint"})

	ReportsGenerated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "skillboard_reports_generated_total",
		Help: "Generated reports by strategy and outcome.",
	}, []string{"strategy", "outcome"})

	ReportSectionFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "skillboard_report_section_failures_total",
		Help: "Report sections replaced by an error placeholder.",
	}, []string{"section"})

	ReportDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "skillboard_report_duration_seconds",
		Help:    "Time spent rendering a report.",
		Buckets: prometheus.DefBuckets,
	}, []string{"strategy"})

	ArchiveUploads = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "skillboard_report_archive_uploads_total",
		Help: "Report uploads to object storage by outcome.",
	}, []string{"outcome"})
)

func Outcome(err error) string {
	if err != nil {
		return OutcomeError
	}
	return OutcomeOK
}

func ObserveBackend(endpoint string, start time.Time, err error) {
	BackendRequests.WithLabelValues(endpoint, Outcome(err)).Inc()
	BackendLatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
}

func ObserveReport(strategy string, start time.Time, err error) {
	ReportsGenerated.WithLabelValues(strategy, Outcome(err)).Inc()
	ReportDuration.WithLabelValues(strategy).Observe(time.Since(start).Seconds())
}
