package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/gigmart/backend/internal/domain"
)

type BalanceResponseDTO struct {
	Balance            decimal.Decimal `json:"balance" example:"150"`
	PendingBalance     decimal.Decimal `json:"pendingBalance" example:"100"`
	Deposit            decimal.Decimal `json:"deposit" example:"20"`
	AvailableBalance   decimal.Decimal `json:"availableBalance" example:"50"`
	EligibilityBalance decimal.Decimal `json:"eligibilityBalance" example:"70"`
	Currency           string          `json:"currency" example:"USD"`
}

type TransactionResponseDTO struct {
	ID            int             `json:"id" example:"1"`
	OrderID       *int            `json:"orderId,omitempty" example:"1"`
	Type          string          `json:"type" example:"PAYMENT"`
	Amount        decimal.Decimal `json:"amount" example:"-100"`
	BalanceBefore decimal.Decimal `json:"balanceBefore" example:"150"`
	BalanceAfter  decimal.Decimal `json:"balanceAfter" example:"150"`
	Status        string          `json:"status" example:"PENDING"`
	Reference     string          `json:"reference,omitempty" example:"order #1001 escrow"`
	Notes         string          `json:"notes,omitempty"`
	CreatedAt     time.Time       `json:"createdAt"`
}

func NewTransactionResponse(entries []domain.WalletTransaction) []TransactionResponseDTO {
	out := make([]TransactionResponseDTO, 0, len(entries))
	for _, t := range entries {
		out = append(out, TransactionResponseDTO{
			ID:            t.ID,
			OrderID:       t.OrderID,
			Type:          string(t.Type),
			Amount:        t.Amount,
			BalanceBefore: t.BalanceBefore,
			BalanceAfter:  t.BalanceAfter,
			Status:        string(t.Status),
			Reference:     t.Reference,
			Notes:         t.Notes,
			CreatedAt:     t.CreatedAt,
		})
	}
	return out
}
