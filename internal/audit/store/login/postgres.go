// Package login persists authentication attempt records.
package login

import (
	"context"
	"database/sql"
	"fmt"

	"chronicle/internal/audit/models"
	txcontext "chronicle/pkg/platform/tx"
)

// PostgresStore persists login records in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed login record store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const loginColumns = `id, username, ip, type, user_agent, backend, mfa_enabled, success, reason, created_at`

// Create inserts one record inside a local atomic unit.
func (s *PostgresStore) Create(ctx context.Context, record models.LoginRecord) error {
	query := `
		INSERT INTO login_records (` + loginColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	return txcontext.Scoped(ctx, s.db, func(ex txcontext.Executor) error {
		_, err := ex.ExecContext(ctx, query,
			record.ID, record.Username, record.IP, record.Type, record.UserAgent,
			record.Backend, record.MFAEnabled, record.Success, record.Reason, record.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("insert login record: %w", err)
		}
		return nil
	})
}

// ListRecent returns the newest records first.
func (s *PostgresStore) ListRecent(ctx context.Context, limit int) ([]models.LoginRecord, error) {
	query := `
		SELECT ` + loginColumns + `
		FROM login_records
		ORDER BY created_at DESC
		LIMIT $1
	`
	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query login records: %w", err)
	}
	defer rows.Close()

	var records []models.LoginRecord
	for rows.Next() {
		var record models.LoginRecord
		err := rows.Scan(
			&record.ID, &record.Username, &record.IP, &record.Type, &record.UserAgent,
			&record.Backend, &record.MFAEnabled, &record.Success, &record.Reason, &record.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan login record: %w", err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate login records: %w", err)
	}
	return records, nil
}
