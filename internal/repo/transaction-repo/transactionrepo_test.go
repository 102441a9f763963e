package transactionrepo

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/gigmart/backend/internal/domain"
)

func NewMock(t *testing.T) (*Repository, pgxmock.PgxPoolIface) {
	mockDB, err := pgxmock.NewPool()
	assert.NoError(t, err)
	repo := New(mockDB)
	t.Cleanup(mockDB.Close)
	return repo, mockDB
}

func TestRepository_Create(t *testing.T) {
	repo, mock := NewMock(t)

	orderID := 1
	entry := &domain.WalletTransaction{
		WalletID:      10,
		OrderID:       &orderID,
		Type:          domain.TransactionPayment,
		Amount:        decimal.RequireFromString("-100"),
		BalanceBefore: decimal.RequireFromString("150"),
		BalanceAfter:  decimal.RequireFromString("150"),
		Status:        domain.TransactionPending,
		Notes:         "order payment escrowed",
		CreatedBy:     1,
	}

	mock.ExpectQuery("INSERT INTO wallet_transactions").
		WithArgs(10, &orderID, domain.TransactionPayment, "-100", "150", "150",
			domain.TransactionPending, "", "order payment escrowed", 1).
		WillReturnRows(pgxmock.NewRows([]string{"id", "created_at"}).AddRow(7, time.Now()))

	created, err := repo.Create(context.Background(), entry)
	assert.NoError(t, err)
	assert.Equal(t, 7, created.ID)
	assert.False(t, created.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_CompletePendingByOrder(t *testing.T) {
	t.Run("Pending entries are settled", func(t *testing.T) {
		repo, mock := NewMock(t)

		mock.ExpectExec("UPDATE wallet_transactions").
			WithArgs(domain.TransactionCompleted, 1, domain.TransactionPending).
			WillReturnResult(pgxmock.NewResult("UPDATE", 3))

		err := repo.CompletePendingByOrder(context.Background(), 1)
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Exec error is propagated", func(t *testing.T) {
		repo, mock := NewMock(t)

		mock.ExpectExec("UPDATE wallet_transactions").
			WithArgs(domain.TransactionCompleted, 1, domain.TransactionPending).
			WillReturnError(errors.New("db error"))

		err := repo.CompletePendingByOrder(context.Background(), 1)
		assert.Error(t, err)
	})
}

func TestRepository_GetByWalletID(t *testing.T) {
	repo, mock := NewMock(t)

	orderID := 1
	rows := pgxmock.NewRows([]string{
		"id", "wallet_id", "order_id", "type", "amount", "balance_before", "balance_after",
		"status", "reference", "notes", "created_by", "created_at",
	}).
		AddRow(2, 10, &orderID, domain.TransactionRelease, "100.00", "150.00", "150.00",
			domain.TransactionCompleted, "", "order escrow released", 1, time.Now()).
		AddRow(1, 10, &orderID, domain.TransactionPayment, "-100.00", "150.00", "150.00",
			domain.TransactionCompleted, "", "order payment escrowed", 1, time.Now())
	mock.ExpectQuery(`(?s)SELECT.+FROM wallet_transactions.+ORDER BY created_at DESC`).
		WithArgs(10).
		WillReturnRows(rows)

	txs, err := repo.GetByWalletID(context.Background(), 10)
	assert.NoError(t, err)
	assert.Len(t, txs, 2)
	assert.Equal(t, domain.TransactionRelease, txs[0].Type)
	assert.True(t, txs[1].Amount.Equal(decimal.RequireFromString("-100")))
	assert.NoError(t, mock.ExpectationsWereMet())
}
