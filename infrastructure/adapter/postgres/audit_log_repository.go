package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/refferq/refferq/application/port/outbound"
	"github.com/refferq/refferq/domain/entity"
	"github.com/refferq/refferq/infrastructure/service/ids"
)

// AuditLogRepositoryAdapter is append only. actor_id carries no foreign key
// so the trail survives deletion of the acting admin.
type AuditLogRepositoryAdapter struct {
	db *sql.DB
}

func NewAuditLogRepositoryAdapter(db *sql.DB) outbound.AuditLogRepository {
	return &AuditLogRepositoryAdapter{db: db}
}

func (r *AuditLogRepositoryAdapter) Append(ctx context.Context, log *entity.AuditLog) error {
	if log == nil {
		return fmt.Errorf("audit log cannot be nil")
	}
	if log.ID == "" {
		log.ID = ids.NewAt(log.CreatedAt)
	}

	payload, err := json.Marshal(log.Payload)
	if err != nil {
		return fmt.Errorf("failed to encode audit payload: %w", err)
	}

	query := `
		INSERT INTO audit_logs (id, actor_id, action, object_type, object_id, payload, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err = conn(ctx, r.db).ExecContext(ctx, query,
		log.ID,
		log.ActorID,
		log.Action,
		log.ObjectType,
		log.ObjectID,
		payload,
		log.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to append audit log: %w", err)
	}
	return nil
}
