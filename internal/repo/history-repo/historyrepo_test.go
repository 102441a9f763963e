package historyrepo

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
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
	t.Run("History row is appended", func(t *testing.T) {
		repo, mock := NewMock(t)

		mock.ExpectQuery("INSERT INTO order_status_history").
			WithArgs(5, domain.StatusPending, domain.StatusAssigned, 2, "order claimed", "").
			WillReturnRows(pgxmock.NewRows([]string{"id", "created_at"}).AddRow(1, time.Now()))

		entry, err := repo.Create(context.Background(), &domain.OrderStatusHistory{
			OrderID:    5,
			FromStatus: domain.StatusPending,
			ToStatus:   domain.StatusAssigned,
			ChangedBy:  2,
			Reason:     "order claimed",
		})
		assert.NoError(t, err)
		assert.Equal(t, 1, entry.ID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Insert error", func(t *testing.T) {
		repo, mock := NewMock(t)

		mock.ExpectQuery("INSERT INTO order_status_history").
			WithArgs(5, domain.StatusPending, domain.StatusAssigned, 2, "", "").
			WillReturnError(errors.New("db error"))

		_, err := repo.Create(context.Background(), &domain.OrderStatusHistory{
			OrderID:    5,
			FromStatus: domain.StatusPending,
			ToStatus:   domain.StatusAssigned,
			ChangedBy:  2,
		})
		assert.Error(t, err)
	})
}

func TestRepository_GetByOrderID(t *testing.T) {
	repo, mock := NewMock(t)

	rows := pgxmock.NewRows([]string{
		"id", "order_id", "from_status", "to_status", "changed_by", "reason", "notes", "created_at",
	}).
		AddRow(1, 5, domain.OrderStatus(""), domain.StatusPending, 1, "order created", "", time.Now()).
		AddRow(2, 5, domain.StatusPending, domain.StatusAssigned, 2, "order claimed", "", time.Now())
	mock.ExpectQuery(`(?s)SELECT.+FROM order_status_history.+ORDER BY created_at ASC`).
		WithArgs(5).
		WillReturnRows(rows)

	history, err := repo.GetByOrderID(context.Background(), 5)
	assert.NoError(t, err)
	assert.Len(t, history, 2)
	assert.Equal(t, domain.StatusPending, history[0].ToStatus)
	assert.Equal(t, domain.StatusAssigned, history[1].ToStatus)
	assert.NoError(t, mock.ExpectationsWereMet())
}
