package orderrepo

import (
	"context"
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

var orderRows = []string{
	"id", "sequence_number", "customer_id", "worker_id", "support_id", "service_id",
	"order_value", "deposit_amount", "currency", "status",
	"worker_payout", "support_payout", "system_payout",
	"payout_processed", "job_details",
	"created_at", "assigned_at", "started_at", "completed_at", "confirmed_at", "cancelled_at",
}

func addOrderRow(rows *pgxmock.Rows, id int, seq int64, status domain.OrderStatus) *pgxmock.Rows {
	return rows.AddRow(
		id, seq, 1, nil, nil, nil,
		"100.00", "20.00", "USD", status,
		"80.00", "5.00", "15.00",
		false, "assemble the wardrobe",
		time.Now(), nil, nil, nil, nil, nil,
	)
}

func TestRepository_Create(t *testing.T) {
	repo, mock := NewMock(t)

	order := &domain.Order{
		CustomerID:    1,
		OrderValue:    decimal.RequireFromString("100"),
		DepositAmount: decimal.RequireFromString("20"),
		Currency:      "USD",
		Status:        domain.StatusPending,
		WorkerPayout:  decimal.RequireFromString("80"),
		SupportPayout: decimal.RequireFromString("5"),
		SystemPayout:  decimal.RequireFromString("15"),
		JobDetails:    "assemble the wardrobe",
	}

	rows := addOrderRow(pgxmock.NewRows(orderRows), 1, 1001, domain.StatusPending)
	mock.ExpectQuery("INSERT INTO orders").
		WithArgs(1, (*int)(nil), (*int)(nil), (*int)(nil), "100", "20", "USD", domain.StatusPending,
			"80", "5", "15", "assemble the wardrobe", (*time.Time)(nil)).
		WillReturnRows(rows)

	created, err := repo.Create(context.Background(), order)
	assert.NoError(t, err)
	assert.Equal(t, 1, created.ID)
	assert.Equal(t, int64(1001), created.SequenceNumber)
	assert.True(t, created.OrderValue.Equal(decimal.RequireFromString("100")))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_GetByID(t *testing.T) {
	t.Run("Existing order", func(t *testing.T) {
		repo, mock := NewMock(t)

		rows := addOrderRow(pgxmock.NewRows(orderRows), 5, 1005, domain.StatusInProgress)
		mock.ExpectQuery(`(?s)SELECT.+FROM orders.+WHERE id`).
			WithArgs(5).
			WillReturnRows(rows)

		order, err := repo.GetByID(context.Background(), 5)
		assert.NoError(t, err)
		assert.Equal(t, domain.StatusInProgress, order.Status)
		assert.True(t, order.WorkerPayout.Equal(decimal.RequireFromString("80")))
	})

	t.Run("Missing order returns nil", func(t *testing.T) {
		repo, mock := NewMock(t)

		mock.ExpectQuery(`(?s)SELECT.+FROM orders.+WHERE id`).
			WithArgs(404).
			WillReturnRows(pgxmock.NewRows(orderRows))

		order, err := repo.GetByID(context.Background(), 404)
		assert.NoError(t, err)
		assert.Nil(t, order)
	})
}

func TestRepository_GetByIDForUpdate(t *testing.T) {
	repo, mock := NewMock(t)

	rows := addOrderRow(pgxmock.NewRows(orderRows), 5, 1005, domain.StatusPending)
	mock.ExpectQuery(`(?s)SELECT.+FROM orders.+FOR UPDATE`).
		WithArgs(5).
		WillReturnRows(rows)

	order, err := repo.GetByIDForUpdate(context.Background(), 5)
	assert.NoError(t, err)
	assert.Equal(t, 5, order.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_Update(t *testing.T) {
	repo, mock := NewMock(t)

	workerID := 2
	now := time.Now()
	order := &domain.Order{
		ID:         5,
		WorkerID:   &workerID,
		Status:     domain.StatusInProgress,
		AssignedAt: &now,
		StartedAt:  &now,
	}

	rows := addOrderRow(pgxmock.NewRows(orderRows), 5, 1005, domain.StatusInProgress)
	mock.ExpectQuery("UPDATE orders").
		WithArgs(&workerID, domain.StatusInProgress, false, &now, &now,
			(*time.Time)(nil), (*time.Time)(nil), (*time.Time)(nil), 5).
		WillReturnRows(rows)

	updated, err := repo.Update(context.Background(), order)
	assert.NoError(t, err)
	assert.Equal(t, domain.StatusInProgress, updated.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_List(t *testing.T) {
	t.Run("Status filter with pagination", func(t *testing.T) {
		repo, mock := NewMock(t)

		status := domain.StatusPending
		rows := addOrderRow(pgxmock.NewRows(orderRows), 1, 1001, domain.StatusPending)
		rows = addOrderRow(rows, 2, 1002, domain.StatusPending)
		mock.ExpectQuery(`(?s)SELECT.+FROM orders WHERE status = \$1 ORDER BY created_at ASC LIMIT \$2 OFFSET \$3`).
			WithArgs(status, 20, 0).
			WillReturnRows(rows)

		orders, err := repo.List(context.Background(), domain.OrderFilter{Status: &status})
		assert.NoError(t, err)
		assert.Len(t, orders, 2)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Customer and worker filters combine", func(t *testing.T) {
		repo, mock := NewMock(t)

		customerID, workerID := 1, 2
		rows := addOrderRow(pgxmock.NewRows(orderRows), 1, 1001, domain.StatusCompleted)
		mock.ExpectQuery(`(?s)SELECT.+FROM orders WHERE customer_id = \$1 AND worker_id = \$2`).
			WithArgs(customerID, workerID, 20, 0).
			WillReturnRows(rows)

		orders, err := repo.List(context.Background(), domain.OrderFilter{
			CustomerID: &customerID,
			WorkerID:   &workerID,
		})
		assert.NoError(t, err)
		assert.Len(t, orders, 1)
	})

	t.Run("Empty result", func(t *testing.T) {
		repo, mock := NewMock(t)

		mock.ExpectQuery(`(?s)SELECT.+FROM orders ORDER BY created_at`).
			WithArgs(20, 0).
			WillReturnRows(pgxmock.NewRows(orderRows))

		orders, err := repo.List(context.Background(), domain.OrderFilter{})
		assert.NoError(t, err)
		assert.Empty(t, orders)
	})
}
