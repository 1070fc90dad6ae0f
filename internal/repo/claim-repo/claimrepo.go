package claimrepo

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/avbochkov/vendobot/internal/domain"
	"github.com/avbochkov/vendobot/internal/pg"
	"go.uber.org/zap"
)

type Repository struct {
	db pg.Database
}

func New(db pg.Database) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Insert(ctx context.Context, claim *domain.Claim) error {
	query := `
        INSERT INTO pending_orders (id, user_id, amount, payment_method, giftcard_code, payer_name, screenshot_id, status)
        VALUES ($1, $2, $3, $4, $5, $6, $7, 'pending')
    `
	_, err := r.db.Exec(ctx, query,
		claim.ID, claim.UserID, claim.Amount, string(claim.Method),
		claim.GiftcardCode, claim.PayerName, claim.ScreenshotID)
	if err != nil {
		zap.L().Error("failed to insert claim", zap.Error(err))
		return err
	}
	return nil
}

func (r *Repository) FindByID(ctx context.Context, claimID string) (*domain.Claim, error) {
	query := `
        SELECT id, user_id, amount, payment_method, giftcard_code, payer_name, screenshot_id, status, created_at
        FROM pending_orders
        WHERE id = $1
    `
	row := r.db.QueryRow(ctx, query, claimID)
	var claim domain.Claim
	err := row.Scan(&claim.ID, &claim.UserID, &claim.Amount, &claim.Method,
		&claim.GiftcardCode, &claim.PayerName, &claim.ScreenshotID, &claim.Status, &claim.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		zap.L().Error("failed to find claim", zap.Error(err))
		return nil, err
	}
	return &claim, nil
}

// Resolve moves a claim out of pending exactly once. The returned bool is
// false when the claim was already resolved (or never existed), which is the
// idempotency guard for repeated operator actions.
func (r *Repository) Resolve(ctx context.Context, claimID string, status domain.ClaimStatus) (bool, error) {
	query := `
        UPDATE pending_orders
        SET status = $2
        WHERE id = $1 AND status = 'pending'
    `
	tag, err := r.db.Exec(ctx, query, claimID, string(status))
	if err != nil {
		zap.L().Error("failed to resolve claim", zap.Error(err))
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}
