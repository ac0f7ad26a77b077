// Package password persists password-change records.
package password

import (
	"context"
	"database/sql"
	"fmt"

	"chronicle/internal/audit/models"
	txcontext "chronicle/pkg/platform/tx"
)

// PostgresStore persists password-change records in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed password-change record store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Create inserts one record inside a local atomic unit.
func (s *PostgresStore) Create(ctx context.Context, record models.PasswordChangeRecord) error {
	query := `
		INSERT INTO password_change_records (id, "user", change_by, remote_addr, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	return txcontext.Scoped(ctx, s.db, func(ex txcontext.Executor) error {
		_, err := ex.ExecContext(ctx, query,
			record.ID, record.User, record.ChangeBy, record.RemoteAddr, record.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("insert password change record: %w", err)
		}
		return nil
	})
}

// ListRecent returns the newest records first.
func (s *PostgresStore) ListRecent(ctx context.Context, limit int) ([]models.PasswordChangeRecord, error) {
	query := `
		SELECT id, "user", change_by, remote_addr, created_at
		FROM password_change_records
		ORDER BY created_at DESC
		LIMIT $1
	`
	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query password change records: %w", err)
	}
	defer rows.Close()

	var records []models.PasswordChangeRecord
	for rows.Next() {
		var record models.PasswordChangeRecord
		err := rows.Scan(&record.ID, &record.User, &record.ChangeBy, &record.RemoteAddr, &record.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("scan password change record: %w", err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate password change records: %w", err)
	}
	return records, nil
}
