// Package service implements the audit recorders: the lifecycle event
// recorder, the relationship change describer, and the password-change and
// authentication recorders. The entity mutation source invokes the On*
// methods synchronously inside the mutating operation; every write happens
// before the response that triggered it is returned.
//
// Recorder failures never escape to the caller. A business operation must not
// abort because auditing failed, so store errors are logged and swallowed.
package service

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"github.com/google/uuid"

	"chronicle/internal/audit/fanout"
	"chronicle/internal/audit/models"
	"chronicle/internal/audit/ports"
	"chronicle/internal/audit/registry"
	"chronicle/internal/platform/metrics"
	"chronicle/pkg/requestcontext"
)

// Instance is the mutated or deleted entity as the mutation source hands it
// over: anything with a stable display-string representation.
type Instance interface {
	DisplayName() string
}

// EntitySaved notifies that an entity was created or updated. ChangedFields
// is only meaningful for updates.
type EntitySaved struct {
	Kind          string
	Instance      Instance
	Created       bool
	ChangedFields []string
}

// EntityDeleting notifies that an entity is about to be removed. It fires
// before deletion, while the instance's display string is still resolvable.
type EntityDeleting struct {
	Kind     string
	Instance Instance
}

// Recorder reacts to lifecycle, relation, password, and authentication
// notifications and appends the corresponding records.
type Recorder struct {
	table     *registry.Table
	operate   ports.OperateStore
	logins    ports.LoginStore
	passwords ports.PasswordChangeStore
	resolver  ports.RelatedResolver
	observer  ports.RecordObserver
	labels    *backendLabels
	metrics   *metrics.Metrics
	logger    *slog.Logger
}

// Option configures optional recorder collaborators.
type Option func(*Recorder)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Recorder) { r.logger = logger }
}

// WithObserver registers the secondary-sink fan-out (or any other observer)
// to be notified after each durable write.
func WithObserver(observer ports.RecordObserver) Option {
	return func(r *Recorder) { r.observer = observer }
}

// WithMetrics wires Prometheus counters.
func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Recorder) { r.metrics = m }
}

// New builds a Recorder. The registry table, all three stores, and the
// related-object resolver are required.
func New(
	table *registry.Table,
	operate ports.OperateStore,
	logins ports.LoginStore,
	passwords ports.PasswordChangeStore,
	resolver ports.RelatedResolver,
	opts ...Option,
) (*Recorder, error) {
	switch {
	case table == nil:
		return nil, errors.New("registry table is required")
	case operate == nil:
		return nil, errors.New("operate store is required")
	case logins == nil:
		return nil, errors.New("login store is required")
	case passwords == nil:
		return nil, errors.New("password change store is required")
	case resolver == nil:
		return nil, errors.New("related resolver is required")
	}

	r := &Recorder{
		table:     table,
		operate:   operate,
		logins:    logins,
		passwords: passwords,
		resolver:  resolver,
		labels:    &backendLabels{},
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// OnEntitySaved handles create and update notifications. Routine
// login-timestamp touches on users are not audit-worthy and are dropped.
func (r *Recorder) OnEntitySaved(ctx context.Context, ev EntitySaved) {
	if ev.Kind == "User" && !ev.Created && lastLoginOnly(ev.ChangedFields) {
		r.drop(ctx, "last_login_touch", ev.Kind)
		return
	}
	action := models.ActionUpdate
	if ev.Created {
		action = models.ActionCreate
	}
	r.createOperateRecord(ctx, ev.Kind, ev.Instance, action)
}

// OnEntityDeleting handles deletion notifications.
func (r *Recorder) OnEntityDeleting(ctx context.Context, ev EntityDeleting) {
	r.createOperateRecord(ctx, ev.Kind, ev.Instance, models.ActionDelete)
}

func (r *Recorder) createOperateRecord(ctx context.Context, kind string, instance Instance, action models.Action) {
	actor, ok := requestcontext.AuthenticatedActor(ctx)
	if !ok {
		r.drop(ctx, "no_actor", kind)
		return
	}
	label, ok := r.table.EntityLabel(kind)
	if !ok {
		r.drop(ctx, "kind_not_audited", kind)
		return
	}

	record := models.OperateRecord{
		ID:           uuid.New(),
		Actor:        actor.Name,
		Action:       action,
		ResourceType: label,
		Resource:     models.Truncate(instance.DisplayName(), models.MaxResourceLen),
		RemoteAddr:   requestcontext.ClientIP(ctx),
		CreatedAt:    requestcontext.Now(ctx),
	}
	if err := r.operate.Create(ctx, record); err != nil {
		r.writeFailed(ctx, "create operate record", err)
		return
	}
	r.written(string(fanout.CategoryOperationLog), 1)
	r.notify(ctx, record)
}

// lastLoginOnly reports whether the changed-field set consists solely of
// last_login.
func lastLoginOnly(fields []string) bool {
	if len(fields) == 0 {
		return false
	}
	for _, f := range fields {
		if f != "last_login" {
			return false
		}
	}
	return true
}

func (r *Recorder) drop(ctx context.Context, reason, kind string) {
	if r.metrics != nil {
		r.metrics.EventsDropped.WithLabelValues(reason).Inc()
	}
	r.logger.DebugContext(ctx, "audit event dropped", "reason", reason, "kind", kind)
}

func (r *Recorder) writeFailed(ctx context.Context, op string, err error) {
	if r.metrics != nil {
		r.metrics.WriteFailures.Inc()
	}
	r.logger.ErrorContext(ctx, "audit write failed", "op", op, "error", err)
}

func (r *Recorder) written(category string, n int) {
	if r.metrics != nil {
		r.metrics.RecordsWritten.WithLabelValues(category).Add(float64(n))
	}
}

func (r *Recorder) notify(ctx context.Context, record any) {
	if r.observer != nil {
		r.observer.RecordCreated(ctx, record)
	}
}
