package pg

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sethvargo/go-retry"
	"go.uber.org/zap"
)

// Postgres SQLSTATE codes the coordinator treats as conflict-class.
const (
	codeSerializationFailure = "40001"
	codeDeadlockDetected     = "40P01"
)

const (
	retryBase = 100 * time.Millisecond
	retryCap  = time.Second
	// two retries after the initial attempt, three attempts total
	maxRetries = 2
)

type TXManager interface {
	// Begin runs fn inside a serializable transaction. When the context
	// already carries a transaction, fn joins it instead of opening a
	// nested one.
	Begin(ctx context.Context, fn func(ctx context.Context) error) error
	// BeginWithRetry is Begin plus transparent retry of conflict-class
	// failures (serialization failure, deadlock) with exponential backoff.
	BeginWithRetry(ctx context.Context, fn func(ctx context.Context) error) error
}

type Manager struct {
	pool    Pool
	timeout time.Duration
}

func NewTXManager(pool Pool, timeout time.Duration) *Manager {
	return &Manager{pool: pool, timeout: timeout}
}

func (m *Manager) Begin(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := txFromContext(ctx); ok {
		return fn(ctx)
	}

	if m.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.timeout)
		defer cancel()
	}

	tx, err := m.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable})
	if err != nil {
		return fmt.Errorf("can't begin transaction: %w", err)
	}

	if err := fn(contextWithTx(ctx, tx)); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			zap.L().Error("transaction rollback failed", zap.Error(rbErr))
		}
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("can't commit transaction: %w", err)
	}
	return nil
}

func (m *Manager) BeginWithRetry(ctx context.Context, fn func(ctx context.Context) error) error {
	backoff := retry.WithMaxRetries(maxRetries, retry.WithCappedDuration(retryCap, retry.NewExponential(retryBase)))

	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		err := m.Begin(ctx, fn)
		if err == nil {
			return nil
		}
		if IsConflict(err) {
			zap.L().Warn("transaction conflict, retrying", zap.Error(err))
			return retry.RetryableError(err)
		}
		return err
	})
}

// IsConflict reports whether err is a conflict-class store failure eligible
// for retry. Detection is by SQLSTATE, never by message text.
func IsConflict(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == codeSerializationFailure || pgErr.Code == codeDeadlockDetected
	}
	return false
}
