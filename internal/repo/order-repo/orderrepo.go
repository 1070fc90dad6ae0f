package orderrepo

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

func (r *Repository) InsertMany(ctx context.Context, orders []domain.Order) error {
	query := `
        INSERT INTO orders (order_id, user_id, coupon_code, amount)
        VALUES ($1, $2, $3, $4)
    `
	for _, order := range orders {
		_, err := r.db.Exec(ctx, query, order.OrderID, order.UserID, order.CouponCode, order.Amount)
		if err != nil {
			zap.L().Error("can't save order", zap.Error(err))
			return err
		}
	}
	return nil
}

func (r *Repository) FindByUserID(ctx context.Context, userID int64, limit int64) ([]domain.Order, error) {
	query := `
        SELECT id, order_id, user_id, coupon_code, amount, created_at
        FROM orders
        WHERE user_id = $1
        ORDER BY created_at DESC
        LIMIT $2
    `
	rows, err := r.db.Query(ctx, query, userID, limit)
	if err != nil {
		zap.L().Error("can't get orders", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var orders []domain.Order
	for rows.Next() {
		var order domain.Order
		err := rows.Scan(&order.ID, &order.OrderID, &order.UserID, &order.CouponCode, &order.Amount, &order.CreatedAt)
		if err != nil {
			zap.L().Error("can't scan order row", zap.Error(err))
			return nil, err
		}
		orders = append(orders, order)
	}
	return orders, rows.Err()
}

func (r *Repository) FindRecentWithBuyers(ctx context.Context, limit int64) ([]domain.OrderWithBuyer, error) {
	query := `
        SELECT o.id, o.order_id, o.user_id, o.coupon_code, o.amount, o.created_at,
               u.username, u.first_name
        FROM orders o
        JOIN users u ON u.user_id = o.user_id
        ORDER BY o.created_at DESC
        LIMIT $1
    `
	rows, err := r.db.Query(ctx, query, limit)
	if err != nil {
		zap.L().Error("can't get recent orders", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var orders []domain.OrderWithBuyer
	for rows.Next() {
		var order domain.OrderWithBuyer
		err := rows.Scan(&order.ID, &order.OrderID, &order.UserID, &order.CouponCode, &order.Amount, &order.CreatedAt,
			&order.Username, &order.FirstName)
		if err != nil {
			zap.L().Error("can't scan buyer row", zap.Error(err))
			return nil, err
		}
		orders = append(orders, order)
	}
	return orders, rows.Err()
}
