// Package display resolves related-object display strings for the
// relationship change describer. The entity tables themselves belong to other
// services; this store reads the platform's entity_displays view, which maps
// (kind, pk) to a display string.
package display

import (
	"context"
	"database/sql"
	"fmt"
)

// PostgresResolver resolves display strings with one bulk query per batch.
type PostgresResolver struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed resolver.
func NewPostgres(db *sql.DB) *PostgresResolver {
	return &PostgresResolver{db: db}
}

// ResolveDisplays fetches the display strings for the given primary keys.
// Stale keys are simply absent from the result.
func (r *PostgresResolver) ResolveDisplays(ctx context.Context, kind string, pks []string) ([]string, error) {
	if len(pks) == 0 {
		return nil, nil
	}
	query := `
		SELECT display
		FROM entity_displays
		WHERE kind = $1 AND pk = ANY($2)
	`
	rows, err := r.db.QueryContext(ctx, query, kind, pks)
	if err != nil {
		return nil, fmt.Errorf("query entity displays: %w", err)
	}
	defer rows.Close()

	var displays []string
	for rows.Next() {
		var display string
		if err := rows.Scan(&display); err != nil {
			return nil, fmt.Errorf("scan entity display: %w", err)
		}
		displays = append(displays, display)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate entity displays: %w", err)
	}
	return displays, nil
}

// StaticResolver serves a fixed (kind, pk) → display table. Used by tests and
// by local development setups without a database.
type StaticResolver struct {
	displays map[string]map[string]string
}

// NewStatic builds a resolver over a fixed table keyed by kind then pk.
func NewStatic(displays map[string]map[string]string) *StaticResolver {
	return &StaticResolver{displays: displays}
}

// ResolveDisplays returns the known display strings for pks, in input order,
// skipping unknown keys.
func (r *StaticResolver) ResolveDisplays(_ context.Context, kind string, pks []string) ([]string, error) {
	byPK := r.displays[kind]
	var displays []string
	for _, pk := range pks {
		if display, ok := byPK[pk]; ok {
			displays = append(displays, display)
		}
	}
	return displays, nil
}
