package transactionrepo

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/gigmart/backend/internal/domain"
	"github.com/gigmart/backend/internal/pg"
)

// Repository appends and reads wallet ledger entries. Entries are immutable
// except for the PENDING→COMPLETED status flip when an order settles.
type Repository struct {
	db pg.Database
}

func New(db pg.Database) *Repository {
	return &Repository{
		db: db,
	}
}

func (r *Repository) Create(ctx context.Context, tx *domain.WalletTransaction) (*domain.WalletTransaction, error) {
	query := `
		INSERT INTO wallet_transactions
			(wallet_id, order_id, type, amount, balance_before, balance_after, status, reference, notes, created_by)
		VALUES ($1, $2, $3, $4::numeric, $5::numeric, $6::numeric, $7, $8, $9, $10)
		RETURNING id, created_at
	`
	err := r.db.QueryRow(ctx, query,
		tx.WalletID, tx.OrderID, tx.Type,
		tx.Amount.String(), tx.BalanceBefore.String(), tx.BalanceAfter.String(),
		tx.Status, tx.Reference, tx.Notes, tx.CreatedBy,
	).Scan(&tx.ID, &tx.CreatedAt)
	if err != nil {
		zap.L().Error("can't save wallet transaction", zap.Error(err))
		return nil, err
	}
	return tx, nil
}

// CompletePendingByOrder flips the order's PENDING ledger entries to
// COMPLETED. Correlation is by explicit order id, never by creation time.
func (r *Repository) CompletePendingByOrder(ctx context.Context, orderID int) error {
	query := `
		UPDATE wallet_transactions
		SET status = $1
		WHERE order_id = $2 AND status = $3
	`
	if _, err := r.db.Exec(ctx, query, domain.TransactionCompleted, orderID, domain.TransactionPending); err != nil {
		zap.L().Error("can't complete pending transactions", zap.Int("order_id", orderID), zap.Error(err))
		return err
	}
	return nil
}

func (r *Repository) GetByWalletID(ctx context.Context, walletID int) ([]domain.WalletTransaction, error) {
	query := `
        SELECT id, wallet_id, order_id, type, amount::text, balance_before::text, balance_after::text,
               status, reference, notes, created_by, created_at
        FROM wallet_transactions
        WHERE wallet_id = $1
        ORDER BY created_at DESC
    `
	rows, err := r.db.Query(ctx, query, walletID)
	if err != nil {
		zap.L().Error("failed to fetch wallet transactions", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var txs []domain.WalletTransaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			zap.L().Error("failed to scan wallet transaction row", zap.Error(err))
			return nil, err
		}
		txs = append(txs, *tx)
	}
	return txs, nil
}

func scanTransaction(row pgx.Row) (*domain.WalletTransaction, error) {
	var tx domain.WalletTransaction
	var amount, before, after string
	err := row.Scan(&tx.ID, &tx.WalletID, &tx.OrderID, &tx.Type, &amount, &before, &after,
		&tx.Status, &tx.Reference, &tx.Notes, &tx.CreatedBy, &tx.CreatedAt)
	if err != nil {
		return nil, err
	}
	if tx.Amount, err = decimal.NewFromString(amount); err != nil {
		return nil, fmt.Errorf("parse amount: %w", err)
	}
	if tx.BalanceBefore, err = decimal.NewFromString(before); err != nil {
		return nil, fmt.Errorf("parse balance_before: %w", err)
	}
	if tx.BalanceAfter, err = decimal.NewFromString(after); err != nil {
		return nil, fmt.Errorf("parse balance_after: %w", err)
	}
	return &tx, nil
}
