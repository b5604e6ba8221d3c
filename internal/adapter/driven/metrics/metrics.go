// Package metrics writes run counters in the Prometheus text exposition
// format, for pickup by a node_exporter textfile collector or a CI artifact.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/ericfisherdev/npm-audit-sync/internal/domain/model"
)

// Metrics holds the collectors describing one run.
type Metrics struct {
	registry *prometheus.Registry

	Advisories      *prometheus.GaugeVec
	Issues          *prometheus.CounterVec
	StatusComments  *prometheus.CounterVec
	CrossReferences prometheus.Counter
	Failures        *prometheus.CounterVec
	Duration        prometheus.Gauge
	LastRun         prometheus.Gauge
}

// NewMetrics creates the collectors on a private registry.
func NewMetrics() *Metrics {
	m := &Metrics{registry: prometheus.NewRegistry()}

	m.Advisories = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "npm_audit_sync_advisories",
			Help: "Advisories reconciled in the last run",
		},
		[]string{"severity"},
	)

	m.Issues = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "npm_audit_sync_issues_total",
			Help: "Issues written by the last run",
		},
		[]string{"action"},
	)

	m.StatusComments = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "npm_audit_sync_status_comments_total",
			Help: "Pull request status comments written by the last run",
		},
		[]string{"action"},
	)

	m.CrossReferences = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "npm_audit_sync_cross_references_total",
			Help: "Issue back-links created by the last run",
		},
	)

	m.Failures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "npm_audit_sync_failures_total",
			Help: "Isolated tracker write failures in the last run",
		},
		[]string{"stage"},
	)

	m.Duration = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "npm_audit_sync_duration_seconds",
			Help: "Wall time of the last sync",
		},
	)

	m.LastRun = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "npm_audit_sync_last_run_timestamp_seconds",
			Help: "Unix time the last run finished",
		},
	)

	m.registry.MustRegister(
		m.Advisories,
		m.Issues,
		m.StatusComments,
		m.CrossReferences,
		m.Failures,
		m.Duration,
		m.LastRun,
	)

	return m
}

// Record loads a run summary into the collectors.
func (m *Metrics) Record(s model.RunSummary) {
	for _, sev := range []model.Severity{model.SeverityInfo, model.SeverityLow, model.SeverityModerate, model.SeverityHigh, model.SeverityCritical} {
		m.Advisories.WithLabelValues(sev.String()).Set(0)
	}
	for _, a := range s.Advisories {
		m.Advisories.WithLabelValues(a.Severity.String()).Inc()
	}

	m.Issues.WithLabelValues("created").Add(float64(s.IssuesCreated))
	m.Issues.WithLabelValues("updated").Add(float64(s.IssuesUpdated))

	for _, action := range []model.StatusCommentAction{model.StatusCommentCreated, model.StatusCommentUpdated, model.StatusCommentDeleted} {
		m.StatusComments.WithLabelValues(string(action)).Add(float64(s.CountStatusComments(action)))
	}

	m.CrossReferences.Add(float64(s.CrossReferencesAdded))

	for _, f := range s.Failures {
		m.Failures.WithLabelValues(f.Stage).Inc()
	}

	m.Duration.Set(s.Duration.Seconds())
	m.LastRun.SetToCurrentTime()
}

// WriteTextfile writes the collectors to path in text exposition format.
func (m *Metrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("writing metrics textfile %s: %w", path, err)
	}
	return nil
}

// Gatherer exposes the registry, for tests and in-process scraping.
func (m *Metrics) Gatherer() prometheus.Gatherer {
	return m.registry
}
