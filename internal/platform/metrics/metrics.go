package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the audit engine.
type Metrics struct {
	RecordsWritten  *prometheus.CounterVec
	EventsDropped   *prometheus.CounterVec
	WriteFailures   prometheus.Counter
	SinkAppends     prometheus.Counter
	SinkFailures    prometheus.Counter
	VerifyCodesSent prometheus.Counter
}

// New creates and registers all metrics against the given registerer. Tests
// pass a fresh prometheus.NewRegistry() to avoid duplicate registration.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		RecordsWritten: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "chronicle_audit_records_written_total",
			Help: "Audit records durably written, by category.",
		}, []string{"category"}),
		EventsDropped: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "chronicle_audit_events_dropped_total",
			Help: "Audit events intentionally not recorded, by reason.",
		}, []string{"reason"}),
		WriteFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "chronicle_audit_write_failures_total",
			Help: "Audit store writes that failed and were swallowed.",
		}),
		SinkAppends: factory.NewCounter(prometheus.CounterOpts{
			Name: "chronicle_audit_sink_appends_total",
			Help: "Lines appended to the secondary sink.",
		}),
		SinkFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "chronicle_audit_sink_failures_total",
			Help: "Secondary sink appends that failed (best-effort, not retried).",
		}),
		VerifyCodesSent: factory.NewCounter(prometheus.CounterOpts{
			Name: "chronicle_verify_codes_sent_total",
			Help: "Verification codes handed to an SMS backend.",
		}),
	}
}
