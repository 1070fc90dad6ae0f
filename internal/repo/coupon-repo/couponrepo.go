package couponrepo

import (
	"context"

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

func (r *Repository) CountUnused(ctx context.Context, couponType string) (int64, error) {
	query := `
        SELECT COUNT(*)
        FROM coupons
        WHERE type = $1 AND is_used = FALSE
    `
	var count int64
	err := r.db.QueryRow(ctx, query, couponType).Scan(&count)
	if err != nil {
		zap.L().Error("failed to count unused coupons", zap.Error(err))
		return 0, err
	}
	return count, nil
}

func (r *Repository) StockCounts(ctx context.Context) (map[string]int64, error) {
	query := `
        SELECT type, COUNT(*)
        FROM coupons
        WHERE is_used = FALSE
        GROUP BY type
    `
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		zap.L().Error("failed to get stock counts", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int64)
	for rows.Next() {
		var couponType string
		var count int64
		if err := rows.Scan(&couponType, &count); err != nil {
			zap.L().Error("failed to scan stock count row", zap.Error(err))
			return nil, err
		}
		counts[couponType] = count
	}
	return counts, rows.Err()
}

// SelectUnusedForUpdate locks up to limit unconsumed coupons of the given
// type. SKIP LOCKED keeps concurrent allocations from blocking on or
// selecting each other's rows.
func (r *Repository) SelectUnusedForUpdate(ctx context.Context, couponType string, limit int64) ([]domain.Coupon, error) {
	query := `
        SELECT id, code, type
        FROM coupons
        WHERE type = $1 AND is_used = FALSE
        ORDER BY id
        LIMIT $2
        FOR UPDATE SKIP LOCKED
    `
	rows, err := r.db.Query(ctx, query, couponType, limit)
	if err != nil {
		zap.L().Error("failed to select coupons for update", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var coupons []domain.Coupon
	for rows.Next() {
		var coupon domain.Coupon
		if err := rows.Scan(&coupon.ID, &coupon.Code, &coupon.Type); err != nil {
			zap.L().Error("failed to scan coupon row", zap.Error(err))
			return nil, err
		}
		coupons = append(coupons, coupon)
	}
	return coupons, rows.Err()
}

func (r *Repository) MarkUsed(ctx context.Context, couponIDs []int64, userID int64) error {
	query := `
        UPDATE coupons
        SET is_used = TRUE, used_by = $2, used_at = now()
        WHERE id = ANY($1)
    `
	_, err := r.db.Exec(ctx, query, couponIDs, userID)
	if err != nil {
		zap.L().Error("failed to mark coupons used", zap.Error(err))
		return err
	}
	return nil
}

func (r *Repository) DeleteByIDs(ctx context.Context, couponIDs []int64) error {
	query := `
        DELETE FROM coupons
        WHERE id = ANY($1)
    `
	_, err := r.db.Exec(ctx, query, couponIDs)
	if err != nil {
		zap.L().Error("failed to delete coupons", zap.Error(err))
		return err
	}
	return nil
}

func (r *Repository) InsertBatch(ctx context.Context, couponType string, codes []string) (int64, error) {
	query := `
        INSERT INTO coupons (code, type)
        SELECT unnest($1::text[]), $2
        ON CONFLICT (code) DO NOTHING
    `
	tag, err := r.db.Exec(ctx, query, codes, couponType)
	if err != nil {
		zap.L().Error("failed to insert coupons", zap.Error(err))
		return 0, err
	}
	return tag.RowsAffected(), nil
}
