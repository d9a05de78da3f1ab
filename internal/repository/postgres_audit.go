package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/kisscinema/booking-api/internal/domain"
)

// PostgresAuditSink appends audit entries to the audit_log table. It
// implements domain.AuditSink; callers treat it as best-effort.
type PostgresAuditSink struct {
	db *pgxpool.Pool
}

func NewPostgresAuditSink(db *pgxpool.Pool) *PostgresAuditSink {
	return &PostgresAuditSink{
		db: db,
	}
}

func (p *PostgresAuditSink) Record(ctx context.Context, entityType string, entityID int64, action, actor, details string) error {
	query := `
		INSERT INTO audit_log (entity_type, entity_id, action, actor, details)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := p.db.Exec(ctx, query, entityType, entityID, action, actor, details)

	return err
}

func (p *PostgresAuditSink) List(ctx context.Context, entityType string, entityID int64) ([]domain.AuditEntry, error) {
	query := `
		SELECT id, entity_type, entity_id, action, actor, details, created_at
		FROM audit_log
		WHERE entity_type = $1 AND entity_id = $2
		ORDER BY created_at
	`

	rows, err := p.db.Query(ctx, query, entityType, entityID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := make([]domain.AuditEntry, 0)

	for rows.Next() {
		var entry domain.AuditEntry

		err = rows.Scan(
			&entry.ID,
			&entry.EntityType,
			&entry.EntityID,
			&entry.Action,
			&entry.Actor,
			&entry.Details,
			&entry.CreatedAt,
		)
		if err != nil {
			return nil, err
		}

		entries = append(entries, entry)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return entries, nil
}
