// Package fanout mirrors newly written records of selected categories to an
// append-only external log sink as serialized structured lines.
//
// The fan-out is an allow-list, not a catch-all: record kinds outside the
// closed category set are ignored. Appends are fire-and-forget; a sink
// failure is never retried and never rolls back the originating write.
package fanout

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	auditmodels "chronicle/internal/audit/models"
	"chronicle/internal/platform/metrics"
	terminalmodels "chronicle/internal/terminal/models"
)

// Category tags a serialized line with the kind of record it mirrors.
type Category string

const (
	CategoryLoginLog          Category = "login_log"
	CategoryFTPLog            Category = "ftp_log"
	CategoryOperationLog      Category = "operation_log"
	CategoryPasswordChangeLog Category = "password_change_log"
	CategoryHostSessionLog    Category = "host_session_log"
	CategorySessionCommandLog Category = "session_command_log"
)

// LineSink is the external append-only destination. The return value is
// consulted only for logging and metrics.
type LineSink interface {
	AppendLine(ctx context.Context, line string) error
}

// FanOut categorizes records and appends one line per record to the sink.
type FanOut struct {
	sink    LineSink
	logger  *slog.Logger
	metrics *metrics.Metrics
	tracer  trace.Tracer
}

// Option configures optional fan-out collaborators.
type Option func(*FanOut)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(f *FanOut) { f.logger = logger }
}

// WithMetrics wires Prometheus counters.
func WithMetrics(m *metrics.Metrics) Option {
	return func(f *FanOut) { f.metrics = m }
}

// New builds a FanOut over the given sink.
func New(sink LineSink, opts ...Option) *FanOut {
	f := &FanOut{
		sink:   sink,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		tracer: otel.Tracer("chronicle/audit/fanout"),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// RecordCreated mirrors a durably created record to the sink. Unknown record
// kinds are ignored; sink failures are logged and counted, nothing more.
func (f *FanOut) RecordCreated(ctx context.Context, record any) {
	category, ok := Categorize(record)
	if !ok {
		return
	}

	ctx, span := f.tracer.Start(ctx, "fanout.append")
	defer span.End()

	data, err := json.Marshal(record)
	if err != nil {
		f.logger.ErrorContext(ctx, "serialize sink record", "category", category, "error", err)
		return
	}
	line := fmt.Sprintf("%s - %s", category, data)

	if err := f.sink.AppendLine(ctx, line); err != nil {
		if f.metrics != nil {
			f.metrics.SinkFailures.Inc()
		}
		f.logger.WarnContext(ctx, "secondary sink append failed", "category", category, "error", err)
		return
	}
	if f.metrics != nil {
		f.metrics.SinkAppends.Inc()
	}
}

// Categorize maps a record to its sink category. ok is false for record kinds
// outside the closed set.
func Categorize(record any) (Category, bool) {
	switch record.(type) {
	case auditmodels.LoginRecord:
		return CategoryLoginLog, true
	case auditmodels.FTPRecord:
		return CategoryFTPLog, true
	case auditmodels.OperateRecord:
		return CategoryOperationLog, true
	case auditmodels.PasswordChangeRecord:
		return CategoryPasswordChangeLog, true
	case terminalmodels.Session:
		return CategoryHostSessionLog, true
	case terminalmodels.Command:
		return CategorySessionCommandLog, true
	default:
		return "", false
	}
}
