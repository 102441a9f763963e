package walletservice

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/gigmart/backend/internal/domain"
)

var (
	ErrWalletNotFound      = errors.New("wallet not found")
	ErrInsufficientBalance = errors.New("insufficient balance")
)

// InsufficientBalanceError carries the snapshot the failed check was made
// against, so callers can render a precise message.
type InsufficientBalanceError struct {
	Role      domain.UserRole
	Required  decimal.Decimal
	Available decimal.Decimal
	Balance   decimal.Decimal
	Pending   decimal.Decimal
	Deposit   decimal.Decimal
}

func (e *InsufficientBalanceError) Error() string {
	if e.Role == domain.RoleWorker {
		return fmt.Sprintf("insufficient balance: required %s, eligible %s (balance %s, pending %s, deposit %s)",
			e.Required, e.Available, e.Balance, e.Pending, e.Deposit)
	}
	return fmt.Sprintf("insufficient balance: required %s, available %s (balance %s, pending %s)",
		e.Required, e.Available, e.Balance, e.Pending)
}

func (e *InsufficientBalanceError) Is(target error) bool {
	return target == ErrInsufficientBalance
}
