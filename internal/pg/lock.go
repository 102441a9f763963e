package pg

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrLockNotAcquired is returned when a named lock is held by someone else.
// Acquisition never blocks.
var ErrLockNotAcquired = errors.New("failed to acquire lock")

// Lock is a cross-process coordination primitive for work that spans more
// than one database transaction. The backing mechanism is swappable.
type Lock interface {
	Acquire(ctx context.Context, name string, ttl time.Duration) (owner string, err error)
	Release(ctx context.Context, name string, owner string) error
}

// RowLock implements Lock on a process_locks table: best-effort
// insert-if-absent with a TTL, expired rows are taken over in place.
type RowLock struct {
	db Database
}

func NewRowLock(db Database) *RowLock {
	return &RowLock{db: db}
}

func (l *RowLock) Acquire(ctx context.Context, name string, ttl time.Duration) (string, error) {
	owner := uuid.NewString()
	query := `
		INSERT INTO process_locks (name, owner, expires_at)
		VALUES ($1, $2, now() + $3)
		ON CONFLICT (name) DO UPDATE
		SET owner = EXCLUDED.owner, expires_at = EXCLUDED.expires_at
		WHERE process_locks.expires_at < now()
	`
	tag, err := l.db.Exec(ctx, query, name, owner, ttl)
	if err != nil {
		zap.L().Error("can't acquire lock", zap.String("name", name), zap.Error(err))
		return "", fmt.Errorf("can't acquire lock %q: %w", name, err)
	}
	if tag.RowsAffected() == 0 {
		return "", ErrLockNotAcquired
	}
	return owner, nil
}

func (l *RowLock) Release(ctx context.Context, name string, owner string) error {
	query := `DELETE FROM process_locks WHERE name = $1 AND owner = $2`
	if _, err := l.db.Exec(ctx, query, name, owner); err != nil {
		zap.L().Error("can't release lock", zap.String("name", name), zap.Error(err))
		return fmt.Errorf("can't release lock %q: %w", name, err)
	}
	return nil
}

// StartSweeper deletes expired lock rows periodically until ctx is done.
func (l *RowLock) StartSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			tag, err := l.db.Exec(ctx, `DELETE FROM process_locks WHERE expires_at < now()`)
			if err != nil {
				zap.L().Error("lock sweep failed", zap.Error(err))
				continue
			}
			if n := tag.RowsAffected(); n > 0 {
				zap.L().Debug("swept expired locks", zap.Int64("count", n))
			}
		}
	}
}
