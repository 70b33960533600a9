package outbound

import (
	"context"

	"github.com/refferq/refferq/domain/entity"
)

// AuditLogRepository is append-only.
type AuditLogRepository interface {
	Append(ctx context.Context, log *entity.AuditLog) error
}
