// Package ports declares the narrow interfaces the audit recorders depend on.
// Stores are append-only multi-writer resources: writers insert, never
// read-modify-write, so no locking beyond the storage engine's row-insertion
// atomicity is required.
package ports

import (
	"context"

	"chronicle/internal/audit/models"
)

// OperateStore persists entity lifecycle and relation-change records.
type OperateStore interface {
	Create(ctx context.Context, record models.OperateRecord) error
	// BulkCreate lands the whole batch in one insert so records from a single
	// relation-change event are never interleaved with a concurrent mutation.
	BulkCreate(ctx context.Context, records []models.OperateRecord) error
	// ListRecent returns the newest records first. A non-empty orgID restricts
	// the result to that organization.
	ListRecent(ctx context.Context, orgID string, limit int) ([]models.OperateRecord, error)
}

// LoginStore persists authentication attempt records.
type LoginStore interface {
	Create(ctx context.Context, record models.LoginRecord) error
	ListRecent(ctx context.Context, limit int) ([]models.LoginRecord, error)
}

// PasswordChangeStore persists password-change records.
type PasswordChangeStore interface {
	Create(ctx context.Context, record models.PasswordChangeRecord) error
	ListRecent(ctx context.Context, limit int) ([]models.PasswordChangeRecord, error)
}

// RelatedResolver resolves the display strings for a set of related-object
// primary keys in one bulk fetch. Stale keys simply resolve to fewer results;
// that is not an error.
type RelatedResolver interface {
	ResolveDisplays(ctx context.Context, kind string, pks []string) ([]string, error)
}

// RecordObserver is notified after a record has been durably created.
// Implementations must be best-effort: they may not fail the write that
// triggered them.
type RecordObserver interface {
	RecordCreated(ctx context.Context, record any)
}

// Session exposes read access to the session of the request that triggered an
// authentication event. Get returns "" for absent keys.
type Session interface {
	Get(key string) string
}
