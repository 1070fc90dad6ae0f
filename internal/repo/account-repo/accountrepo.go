package accountrepo

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/avbochkov/vendobot/internal/domain"
	"github.com/avbochkov/vendobot/internal/pg"
	"go.uber.org/zap"
)

// ErrBalanceConstraint means an adjustment targeted a missing account or
// would have driven the balance negative.
var ErrBalanceConstraint = errors.New("balance constraint violated")

type Repository struct {
	db pg.Database
}

func New(db pg.Database) *Repository {
	return &Repository{db: db}
}

func (r *Repository) FindByID(ctx context.Context, userID int64) (*domain.User, error) {
	query := `
        SELECT user_id, username, first_name, last_name, balance, created_at
        FROM users
        WHERE user_id = $1
    `
	row := r.db.QueryRow(ctx, query, userID)
	var user domain.User
	err := row.Scan(&user.ID, &user.Username, &user.FirstName, &user.LastName, &user.Balance, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		zap.L().Error("failed to find user", zap.Error(err))
		return nil, err
	}
	return &user, nil
}

func (r *Repository) Create(ctx context.Context, user *domain.User) (*domain.User, error) {
	query := `
        INSERT INTO users (user_id, username, first_name, last_name, balance)
        VALUES ($1, $2, $3, $4, 0)
        RETURNING user_id, username, first_name, last_name, balance, created_at
    `
	row := r.db.QueryRow(ctx, query, user.ID, user.Username, user.FirstName, user.LastName)
	var created domain.User
	err := row.Scan(&created.ID, &created.Username, &created.FirstName, &created.LastName, &created.Balance, &created.CreatedAt)
	if err != nil {
		zap.L().Error("failed to create user", zap.Error(err))
		return nil, err
	}
	return &created, nil
}

func (r *Repository) GetBalance(ctx context.Context, userID int64) (int64, error) {
	query := `
        SELECT balance
        FROM users
        WHERE user_id = $1
    `
	var balance int64
	err := r.db.QueryRow(ctx, query, userID).Scan(&balance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, nil
		}
		zap.L().Error("failed to get balance", zap.Error(err))
		return 0, err
	}
	return balance, nil
}

// AdjustBalance applies delta atomically. The WHERE guard refuses any update
// that would take the balance below zero; that case surfaces as
// ErrBalanceConstraint with no mutation.
func (r *Repository) AdjustBalance(ctx context.Context, userID int64, delta int64) (int64, error) {
	query := `
        UPDATE users
        SET balance = balance + $1
        WHERE user_id = $2 AND balance + $1 >= 0
        RETURNING balance
    `
	var balance int64
	err := r.db.QueryRow(ctx, query, delta, userID).Scan(&balance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrBalanceConstraint
		}
		zap.L().Error("failed to adjust balance", zap.Error(err))
		return 0, err
	}
	return balance, nil
}
