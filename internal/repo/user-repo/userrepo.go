package userrepo

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
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

func (r *Repository) GetByID(ctx context.Context, id int) (*domain.User, error) {
	query := `
        SELECT id, login, chat_handle, role, created_at
        FROM users
        WHERE id = $1
    `
	row := r.db.QueryRow(ctx, query, id)
	var user domain.User
	err := row.Scan(&user.ID, &user.Login, &user.ChatHandle, &user.Role, &user.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		zap.L().Error("can't find user", zap.Error(err))
		return nil, err
	}
	return &user, nil
}

func (r *Repository) GetByChatHandle(ctx context.Context, handle string) (*domain.User, error) {
	query := `
        SELECT id, login, chat_handle, role, created_at
        FROM users
        WHERE chat_handle = $1
    `
	row := r.db.QueryRow(ctx, query, handle)
	var user domain.User
	err := row.Scan(&user.ID, &user.Login, &user.ChatHandle, &user.Role, &user.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		zap.L().Error("can't find user by chat handle", zap.Error(err))
		return nil, err
	}
	return &user, nil
}
