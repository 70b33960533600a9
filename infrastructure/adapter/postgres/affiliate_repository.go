package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/refferq/refferq/application/port/outbound"
	"github.com/refferq/refferq/domain/entity"
)

const affiliateWithOwnerColumns = `
	a.id, a.user_id, a.referral_code, a.created_at,
	u.id, u.email, u.name, u.role, u.status, u.created_at, u.updated_at`

type AffiliateRepositoryAdapter struct {
	db *sql.DB
}

func NewAffiliateRepositoryAdapter(db *sql.DB) outbound.AffiliateRepository {
	return &AffiliateRepositoryAdapter{db: db}
}

func scanAffiliateWithOwner(row interface{ Scan(...interface{}) error }) (*entity.AffiliateWithOwner, error) {
	var out entity.AffiliateWithOwner
	err := row.Scan(
		&out.ID,
		&out.UserID,
		&out.ReferralCode,
		&out.CreatedAt,
		&out.User.ID,
		&out.User.Email,
		&out.User.Name,
		&out.User.Role,
		&out.User.Status,
		&out.User.CreatedAt,
		&out.User.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *AffiliateRepositoryAdapter) Create(ctx context.Context, affiliate *entity.Affiliate) error {
	if affiliate == nil {
		return fmt.Errorf("affiliate cannot be nil")
	}

	query := `
		INSERT INTO affiliates (id, user_id, referral_code, created_at)
		VALUES ($1, $2, $3, $4)
	`

	_, err := conn(ctx, r.db).ExecContext(ctx, query,
		affiliate.ID,
		affiliate.UserID,
		affiliate.ReferralCode,
		affiliate.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return outbound.ErrReferralCodeTaken
		}
		return fmt.Errorf("failed to create affiliate: %w", err)
	}
	return nil
}

func (r *AffiliateRepositoryAdapter) FindByID(ctx context.Context, id string) (*entity.AffiliateWithOwner, error) {
	query := `
		SELECT ` + affiliateWithOwnerColumns + `
		FROM affiliates a
		JOIN users u ON u.id = a.user_id
		WHERE a.id = $1
	`

	out, err := scanAffiliateWithOwner(conn(ctx, r.db).QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, outbound.ErrAffiliateNotFound
		}
		return nil, fmt.Errorf("failed to find affiliate by ID: %w", err)
	}
	return out, nil
}

func (r *AffiliateRepositoryAdapter) FindByUserID(ctx context.Context, userID string) (*entity.Affiliate, error) {
	query := `SELECT id, user_id, referral_code, created_at FROM affiliates WHERE user_id = $1`

	var affiliate entity.Affiliate
	err := conn(ctx, r.db).QueryRowContext(ctx, query, userID).Scan(
		&affiliate.ID,
		&affiliate.UserID,
		&affiliate.ReferralCode,
		&affiliate.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, outbound.ErrAffiliateNotFound
		}
		return nil, fmt.Errorf("failed to find affiliate by user ID: %w", err)
	}
	return &affiliate, nil
}

func (r *AffiliateRepositoryAdapter) ReferralCodeExists(ctx context.Context, code string) (bool, error) {
	var exists bool
	err := conn(ctx, r.db).QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM affiliates WHERE referral_code = $1)`, code).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check referral code: %w", err)
	}
	return exists, nil
}

// FindAll orders newest first. An affiliate's status is its owner's status.
func (r *AffiliateRepositoryAdapter) FindAll(ctx context.Context, offset, limit int, filters outbound.AffiliateFilters) ([]*entity.AffiliateWithOwner, int, error) {
	where := ""
	args := []interface{}{}
	if filters.Status != "" {
		where = "WHERE u.status = $1"
		args = append(args, filters.Status)
	}

	q := conn(ctx, r.db)

	var total int
	countQuery := `SELECT COUNT(*) FROM affiliates a JOIN users u ON u.id = a.user_id ` + where
	if err := q.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count affiliates: %w", err)
	}

	listQuery := fmt.Sprintf(`
		SELECT %s
		FROM affiliates a
		JOIN users u ON u.id = a.user_id
		%s
		ORDER BY a.created_at DESC, a.id DESC
		LIMIT $%d OFFSET $%d
	`, affiliateWithOwnerColumns, where, len(args)+1, len(args)+2)

	rows, err := q.QueryContext(ctx, listQuery, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list affiliates: %w", err)
	}
	defer rows.Close()

	affiliates := make([]*entity.AffiliateWithOwner, 0, limit)
	for rows.Next() {
		item, err := scanAffiliateWithOwner(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan affiliate: %w", err)
		}
		affiliates = append(affiliates, item)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate affiliates: %w", err)
	}
	return affiliates, total, nil
}
