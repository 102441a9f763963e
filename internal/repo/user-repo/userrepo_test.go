package userrepo

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

var userRows = []string{"id", "login", "chat_handle", "role", "created_at"}

func TestRepository_GetByID(t *testing.T) {
	t.Run("Existing user", func(t *testing.T) {
		repo, mock := NewMock(t)

		rows := pgxmock.NewRows(userRows).
			AddRow(1, "ivan", "@ivan_petrov", domain.RoleCustomer, time.Now())
		mock.ExpectQuery(`(?s)SELECT.+FROM users.+WHERE id`).
			WithArgs(1).
			WillReturnRows(rows)

		user, err := repo.GetByID(context.Background(), 1)
		assert.NoError(t, err)
		assert.Equal(t, domain.RoleCustomer, user.Role)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Missing user returns nil", func(t *testing.T) {
		repo, mock := NewMock(t)

		mock.ExpectQuery(`(?s)SELECT.+FROM users.+WHERE id`).
			WithArgs(99).
			WillReturnRows(pgxmock.NewRows(userRows))

		user, err := repo.GetByID(context.Background(), 99)
		assert.NoError(t, err)
		assert.Nil(t, user)
	})

	t.Run("Query error", func(t *testing.T) {
		repo, mock := NewMock(t)

		mock.ExpectQuery(`(?s)SELECT.+FROM users.+WHERE id`).
			WithArgs(1).
			WillReturnError(errors.New("db error"))

		_, err := repo.GetByID(context.Background(), 1)
		assert.Error(t, err)
	})
}

func TestRepository_GetByChatHandle(t *testing.T) {
	t.Run("Handle resolves to a user", func(t *testing.T) {
		repo, mock := NewMock(t)

		rows := pgxmock.NewRows(userRows).
			AddRow(2, "anna", "@anna_k", domain.RoleWorker, time.Now())
		mock.ExpectQuery(`(?s)SELECT.+FROM users.+WHERE chat_handle`).
			WithArgs("@anna_k").
			WillReturnRows(rows)

		user, err := repo.GetByChatHandle(context.Background(), "@anna_k")
		assert.NoError(t, err)
		assert.Equal(t, 2, user.ID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Unknown handle returns nil", func(t *testing.T) {
		repo, mock := NewMock(t)

		mock.ExpectQuery(`(?s)SELECT.+FROM users.+WHERE chat_handle`).
			WithArgs("@nobody").
			WillReturnRows(pgxmock.NewRows(userRows))

		user, err := repo.GetByChatHandle(context.Background(), "@nobody")
		assert.NoError(t, err)
		assert.Nil(t, user)
	})
}
