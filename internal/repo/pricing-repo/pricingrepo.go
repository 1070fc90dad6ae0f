package pricingrepo

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

func (r *Repository) GetPrice(ctx context.Context, couponType string) (*domain.PriceEntry, error) {
	query := `
        SELECT type, price, updated_at
        FROM prices
        WHERE type = $1
    `
	row := r.db.QueryRow(ctx, query, couponType)
	var entry domain.PriceEntry
	err := row.Scan(&entry.Type, &entry.Price, &entry.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		zap.L().Error("failed to get price", zap.Error(err))
		return nil, err
	}
	return &entry, nil
}

func (r *Repository) ListPrices(ctx context.Context) ([]domain.PriceEntry, error) {
	query := `
        SELECT type, price, updated_at
        FROM prices
        ORDER BY price
    `
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		zap.L().Error("failed to list prices", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var entries []domain.PriceEntry
	for rows.Next() {
		var entry domain.PriceEntry
		if err := rows.Scan(&entry.Type, &entry.Price, &entry.UpdatedAt); err != nil {
			zap.L().Error("failed to scan price row", zap.Error(err))
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

func (r *Repository) SetPrice(ctx context.Context, couponType string, price int64) error {
	query := `
        INSERT INTO prices (type, price, updated_at)
        VALUES ($1, $2, now())
        ON CONFLICT (type) DO UPDATE SET price = EXCLUDED.price, updated_at = now()
    `
	_, err := r.db.Exec(ctx, query, couponType, price)
	if err != nil {
		zap.L().Error("failed to set price", zap.Error(err))
		return err
	}
	return nil
}

func (r *Repository) GetSetting(ctx context.Context, key string) (string, error) {
	query := `
        SELECT value
        FROM settings
        WHERE key = $1
    `
	var value string
	err := r.db.QueryRow(ctx, query, key).Scan(&value)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", nil
		}
		zap.L().Error("failed to get setting", zap.Error(err))
		return "", err
	}
	return value, nil
}

func (r *Repository) UpsertSetting(ctx context.Context, key, value string) error {
	query := `
        INSERT INTO settings (key, value, updated_at)
        VALUES ($1, $2, now())
        ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()
    `
	_, err := r.db.Exec(ctx, query, key, value)
	if err != nil {
		zap.L().Error("failed to upsert setting", zap.Error(err))
		return err
	}
	return nil
}
