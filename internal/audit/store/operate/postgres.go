// Package operate persists entity lifecycle and relation-change audit
// records. The table is append-only; there is no update or delete path.
package operate

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"chronicle/internal/audit/models"
	txcontext "chronicle/pkg/platform/tx"
)

// PostgresStore persists operate records in PostgreSQL.
// This store is pure I/O; eligibility rules belong in the recorder service.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed operate record store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const operateColumns = `id, actor, action, resource_type, resource, remote_addr, org_id, created_at`

// Create inserts one record inside a local atomic unit, joining an ambient
// transaction when the triggering operation carries one.
func (s *PostgresStore) Create(ctx context.Context, record models.OperateRecord) error {
	query := `
		INSERT INTO operate_records (` + operateColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	return txcontext.Scoped(ctx, s.db, func(ex txcontext.Executor) error {
		_, err := ex.ExecContext(ctx, query,
			record.ID, record.Actor, string(record.Action), record.ResourceType,
			record.Resource, record.RemoteAddr, nullable(record.OrgID), record.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("insert operate record: %w", err)
		}
		return nil
	})
}

// BulkCreate lands the whole batch in one INSERT statement so the records
// commit together with no interleaving.
func (s *PostgresStore) BulkCreate(ctx context.Context, records []models.OperateRecord) error {
	if len(records) == 0 {
		return nil
	}

	var (
		rows = make([]string, 0, len(records))
		args = make([]any, 0, len(records)*8)
	)
	for i, record := range records {
		base := i * 8
		rows = append(rows, fmt.Sprintf("($%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d)",
			base+1, base+2, base+3, base+4, base+5, base+6, base+7, base+8))
		args = append(args,
			record.ID, record.Actor, string(record.Action), record.ResourceType,
			record.Resource, record.RemoteAddr, nullable(record.OrgID), record.CreatedAt,
		)
	}
	query := `INSERT INTO operate_records (` + operateColumns + `) VALUES ` + strings.Join(rows, ", ")

	return txcontext.Scoped(ctx, s.db, func(ex txcontext.Executor) error {
		if _, err := ex.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("bulk insert operate records: %w", err)
		}
		return nil
	})
}

// ListRecent returns the newest records first, optionally scoped to one
// organization.
func (s *PostgresStore) ListRecent(ctx context.Context, orgID string, limit int) ([]models.OperateRecord, error) {
	var (
		where string
		args  = []any{limit}
	)
	if orgID != "" {
		where = `WHERE org_id = $2`
		args = append(args, orgID)
	}
	query := `
		SELECT ` + operateColumns + `
		FROM operate_records ` + where + `
		ORDER BY created_at DESC
		LIMIT $1
	`
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query operate records: %w", err)
	}
	defer rows.Close()

	var records []models.OperateRecord
	for rows.Next() {
		var (
			record models.OperateRecord
			action string
			orgID  sql.NullString
		)
		err := rows.Scan(
			&record.ID, &record.Actor, &action, &record.ResourceType,
			&record.Resource, &record.RemoteAddr, &orgID, &record.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan operate record: %w", err)
		}
		record.Action = models.Action(action)
		record.OrgID = orgID.String
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate operate records: %w", err)
	}
	return records, nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
