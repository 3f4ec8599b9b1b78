package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Dosada05/federation-registry/models"
)

// AuditRepository is append-only: entries are never updated or deleted.
type AuditRepository interface {
	Append(ctx context.Context, exec SQLExecutor, entry *models.AuditLogEntry) error
	ListByRegistration(ctx context.Context, exec SQLExecutor, registrationID int) ([]*models.AuditLogEntry, error)
}

type postgresAuditRepository struct {
	db *sql.DB
}

func NewPostgresAuditRepository(db *sql.DB) AuditRepository {
	return &postgresAuditRepository{db: db}
}

func (r *postgresAuditRepository) Append(ctx context.Context, exec SQLExecutor, entry *models.AuditLogEntry) error {
	query := `
		INSERT INTO registration_audit_log
			(id, registration_id, action, description, actor_id, actor_role, before_data, after_data, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := getExecutor(r.db, exec).ExecContext(ctx, query,
		entry.ID, entry.RegistrationID, entry.Action, entry.Description,
		entry.ActorID, entry.ActorRole, nullableJSON(entry.Before), nullableJSON(entry.After), entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to append audit entry for registration %d: %w", entry.RegistrationID, err)
	}
	return nil
}

func (r *postgresAuditRepository) ListByRegistration(ctx context.Context, exec SQLExecutor, registrationID int) ([]*models.AuditLogEntry, error) {
	query := `
		SELECT id, registration_id, action, description, actor_id, actor_role, before_data, after_data, created_at
		FROM registration_audit_log
		WHERE registration_id = $1
		ORDER BY created_at ASC, seq ASC`

	rows, err := getExecutor(r.db, exec).QueryContext(ctx, query, registrationID)
	if err != nil {
		return nil, fmt.Errorf("failed to list audit log for registration %d: %w", registrationID, err)
	}
	defer rows.Close()

	entries := make([]*models.AuditLogEntry, 0)
	for rows.Next() {
		var e models.AuditLogEntry
		var before, after []byte
		if err := rows.Scan(
			&e.ID, &e.RegistrationID, &e.Action, &e.Description,
			&e.ActorID, &e.ActorRole, &before, &after, &e.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan audit entry: %w", err)
		}
		if len(before) > 0 {
			e.Before = before
		}
		if len(after) > 0 {
			e.After = after
		}
		entries = append(entries, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating audit entries: %w", err)
	}
	return entries, nil
}

// nullableJSON stores empty snapshots as SQL NULL instead of an empty jsonb.
func nullableJSON(raw []byte) interface{} {
	if len(raw) == 0 {
		return nil
	}
	return string(raw)
}
