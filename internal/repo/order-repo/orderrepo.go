package orderrepo

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

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

const orderColumns = `id, sequence_number, customer_id, worker_id, support_id, service_id,
		order_value::text, deposit_amount::text, currency, status,
		worker_payout::text, support_payout::text, system_payout::text,
		payout_processed, job_details,
		created_at, assigned_at, started_at, completed_at, confirmed_at, cancelled_at`

func scanOrder(row pgx.Row) (*domain.Order, error) {
	var o domain.Order
	var value, deposit, workerCut, supportCut, systemCut string
	err := row.Scan(
		&o.ID, &o.SequenceNumber, &o.CustomerID, &o.WorkerID, &o.SupportID, &o.ServiceID,
		&value, &deposit, &o.Currency, &o.Status,
		&workerCut, &supportCut, &systemCut,
		&o.PayoutProcessed, &o.JobDetails,
		&o.CreatedAt, &o.AssignedAt, &o.StartedAt, &o.CompletedAt, &o.ConfirmedAt, &o.CancelledAt,
	)
	if err != nil {
		return nil, err
	}
	for _, field := range []struct {
		dst *decimal.Decimal
		src string
	}{
		{&o.OrderValue, value},
		{&o.DepositAmount, deposit},
		{&o.WorkerPayout, workerCut},
		{&o.SupportPayout, supportCut},
		{&o.SystemPayout, systemCut},
	} {
		if *field.dst, err = decimal.NewFromString(field.src); err != nil {
			return nil, fmt.Errorf("parse order money field: %w", err)
		}
	}
	return &o, nil
}

func (r *Repository) Create(ctx context.Context, order *domain.Order) (*domain.Order, error) {
	query := `
        INSERT INTO orders
			(customer_id, worker_id, support_id, service_id, order_value, deposit_amount, currency,
			 status, worker_payout, support_payout, system_payout, job_details, assigned_at)
        VALUES ($1, $2, $3, $4, $5::numeric, $6::numeric, $7, $8, $9::numeric, $10::numeric, $11::numeric, $12, $13)
        RETURNING ` + orderColumns + `
    `
	created, err := scanOrder(r.db.QueryRow(ctx, query,
		order.CustomerID, order.WorkerID, order.SupportID, order.ServiceID,
		order.OrderValue.String(), order.DepositAmount.String(), order.Currency,
		order.Status, order.WorkerPayout.String(), order.SupportPayout.String(), order.SystemPayout.String(),
		order.JobDetails, order.AssignedAt,
	))
	if err != nil {
		zap.L().Error("can't save order", zap.Error(err))
		return nil, err
	}
	return created, nil
}

func (r *Repository) GetByID(ctx context.Context, id int) (*domain.Order, error) {
	query := `
        SELECT ` + orderColumns + `
        FROM orders
        WHERE id = $1
    `
	order, err := scanOrder(r.db.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		zap.L().Error("can't find order", zap.Error(err))
		return nil, err
	}
	return order, nil
}

// GetByIDForUpdate locks the order row so that concurrent claims on the
// same order serialize; the second locker re-reads the committed state.
func (r *Repository) GetByIDForUpdate(ctx context.Context, id int) (*domain.Order, error) {
	query := `
        SELECT ` + orderColumns + `
        FROM orders
        WHERE id = $1
        FOR UPDATE
    `
	order, err := scanOrder(r.db.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		zap.L().Error("can't lock order", zap.Error(err))
		return nil, err
	}
	return order, nil
}

// Update persists the mutable part of an order: worker assignment, status,
// payout flag and lifecycle timestamps.
func (r *Repository) Update(ctx context.Context, order *domain.Order) (*domain.Order, error) {
	query := `
        UPDATE orders
        SET worker_id = $1,
            status = $2,
            payout_processed = $3,
            assigned_at = $4,
            started_at = $5,
            completed_at = $6,
            confirmed_at = $7,
            cancelled_at = $8
        WHERE id = $9
        RETURNING ` + orderColumns + `
    `
	updated, err := scanOrder(r.db.QueryRow(ctx, query,
		order.WorkerID, order.Status, order.PayoutProcessed,
		order.AssignedAt, order.StartedAt, order.CompletedAt, order.ConfirmedAt, order.CancelledAt,
		order.ID,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		zap.L().Error("failed to update order", zap.Error(err))
		return nil, err
	}
	return updated, nil
}

func (r *Repository) List(ctx context.Context, filter domain.OrderFilter) ([]domain.Order, error) {
	filter.Normalize()

	var conditions []string
	var args []any
	if filter.Status != nil {
		args = append(args, *filter.Status)
		conditions = append(conditions, "status = $"+strconv.Itoa(len(args)))
	}
	if filter.CustomerID != nil {
		args = append(args, *filter.CustomerID)
		conditions = append(conditions, "customer_id = $"+strconv.Itoa(len(args)))
	}
	if filter.WorkerID != nil {
		args = append(args, *filter.WorkerID)
		conditions = append(conditions, "worker_id = $"+strconv.Itoa(len(args)))
	}

	query := `SELECT ` + orderColumns + ` FROM orders`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	if filter.SortDesc {
		query += " ORDER BY created_at DESC"
	} else {
		query += " ORDER BY created_at ASC"
	}
	args = append(args, filter.Limit)
	query += " LIMIT $" + strconv.Itoa(len(args))
	args = append(args, filter.Offset())
	query += " OFFSET $" + strconv.Itoa(len(args))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		zap.L().Error("can't list orders", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var orders []domain.Order
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			zap.L().Error("can't scan order row", zap.Error(err))
			return nil, err
		}
		orders = append(orders, *order)
	}
	return orders, nil
}
