package walletrepo

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/gigmart/backend/internal/domain"
	"github.com/gigmart/backend/internal/pg"
)

type Repository struct {
	db pg.Database
}

func New(db pg.Database) *Repository {
	return &Repository{
		db: db,
	}
}

const walletColumns = `id, user_id, balance::text, pending_balance::text, deposit::text, currency, updated_at`

func scanWallet(row pgx.Row) (*domain.Wallet, error) {
	var w domain.Wallet
	var balance, pending, deposit string
	err := row.Scan(&w.ID, &w.UserID, &balance, &pending, &deposit, &w.Currency, &w.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if w.Balance, err = decimal.NewFromString(balance); err != nil {
		return nil, fmt.Errorf("parse balance: %w", err)
	}
	if w.PendingBalance, err = decimal.NewFromString(pending); err != nil {
		return nil, fmt.Errorf("parse pending balance: %w", err)
	}
	if w.Deposit, err = decimal.NewFromString(deposit); err != nil {
		return nil, fmt.Errorf("parse deposit: %w", err)
	}
	return &w, nil
}

func (r *Repository) GetByUserID(ctx context.Context, userID int) (*domain.Wallet, error) {
	query := `
        SELECT ` + walletColumns + `
        FROM wallets
        WHERE user_id = $1
    `
	wallet, err := scanWallet(r.db.QueryRow(ctx, query, userID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		zap.L().Error("failed to get wallet", zap.Error(err))
		return nil, err
	}
	return wallet, nil
}

func (r *Repository) Create(ctx context.Context, userID int, currency string) (*domain.Wallet, error) {
	query := `
        INSERT INTO wallets (user_id, balance, pending_balance, deposit, currency)
        VALUES ($1, 0, 0, 0, $2)
        RETURNING ` + walletColumns + `
    `
	wallet, err := scanWallet(r.db.QueryRow(ctx, query, userID, currency))
	if err != nil {
		zap.L().Error("failed to create wallet", zap.Error(err))
		return nil, err
	}
	return wallet, nil
}

// LockForUpdate reads the wallet row with a row-level exclusive lock held
// until the enclosing transaction ends. Must only be called inside a
// transaction started by the TXManager.
func (r *Repository) LockForUpdate(ctx context.Context, walletID int) (*domain.Wallet, error) {
	query := `
        SELECT ` + walletColumns + `
        FROM wallets
        WHERE id = $1
        FOR UPDATE
    `
	wallet, err := scanWallet(r.db.QueryRow(ctx, query, walletID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		zap.L().Error("failed to lock wallet", zap.Int("wallet_id", walletID), zap.Error(err))
		return nil, err
	}
	return wallet, nil
}

// UpdateBalance applies atomic increments to the wallet's buckets. The row
// must already be locked in the current transaction.
func (r *Repository) UpdateBalance(ctx context.Context, walletID int, balanceDelta, pendingDelta, depositDelta decimal.Decimal) (*domain.Wallet, error) {
	query := `
        UPDATE wallets
        SET balance = balance + $1::numeric,
            pending_balance = pending_balance + $2::numeric,
            deposit = deposit + $3::numeric,
            updated_at = now()
        WHERE id = $4
        RETURNING ` + walletColumns + `
    `
	wallet, err := scanWallet(r.db.QueryRow(ctx, query,
		balanceDelta.String(), pendingDelta.String(), depositDelta.String(), walletID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		zap.L().Error("failed to update wallet balance", zap.Int("wallet_id", walletID), zap.Error(err))
		return nil, err
	}
	return wallet, nil
}
