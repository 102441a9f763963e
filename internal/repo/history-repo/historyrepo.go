package historyrepo

import (
	"context"

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

func (r *Repository) Create(ctx context.Context, h *domain.OrderStatusHistory) (*domain.OrderStatusHistory, error) {
	query := `
		INSERT INTO order_status_history (order_id, from_status, to_status, changed_by, reason, notes)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`
	err := r.db.QueryRow(ctx, query,
		h.OrderID, h.FromStatus, h.ToStatus, h.ChangedBy, h.Reason, h.Notes,
	).Scan(&h.ID, &h.CreatedAt)
	if err != nil {
		zap.L().Error("can't save status history", zap.Error(err))
		return nil, err
	}
	return h, nil
}

func (r *Repository) GetByOrderID(ctx context.Context, orderID int) ([]domain.OrderStatusHistory, error) {
	query := `
        SELECT id, order_id, from_status, to_status, changed_by, reason, notes, created_at
        FROM order_status_history
        WHERE order_id = $1
        ORDER BY created_at ASC, id ASC
    `
	rows, err := r.db.Query(ctx, query, orderID)
	if err != nil {
		zap.L().Error("failed to fetch status history", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var history []domain.OrderStatusHistory
	for rows.Next() {
		var h domain.OrderStatusHistory
		err := rows.Scan(&h.ID, &h.OrderID, &h.FromStatus, &h.ToStatus, &h.ChangedBy, &h.Reason, &h.Notes, &h.CreatedAt)
		if err != nil {
			zap.L().Error("failed to scan status history row", zap.Error(err))
			return nil, err
		}
		history = append(history, h)
	}
	return history, nil
}
