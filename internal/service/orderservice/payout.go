package orderservice

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/gigmart/backend/internal/domain"
)

type RefundType string

const (
	RefundFull    RefundType = "full"
	RefundPartial RefundType = "partial"
	RefundNone    RefundType = "none"
)

func ParseRefundType(s string) (RefundType, error) {
	switch RefundType(strings.ToLower(strings.TrimSpace(s))) {
	case RefundFull:
		return RefundFull, nil
	case RefundPartial:
		return RefundPartial, nil
	case RefundNone, "":
		return RefundNone, nil
	}
	return "", fmt.Errorf("%w: unknown refund type %q", ErrValidation, s)
}

// distributePayout runs the six-step fund distribution inside the caller's
// transaction. The payout_processed flag is the sole duplicate-payout
// defense: when it is already set the call is a logged no-op.
func (s *Service) distributePayout(ctx context.Context, order *domain.Order, actorID int) error {
	if order.PayoutProcessed {
		zap.L().Warn("payout already processed, skipping",
			zap.Int("order_id", order.ID),
			zap.Int64("sequence_number", order.SequenceNumber))
		return nil
	}

	customerWallet, err := s.wallets.EnsureWallet(ctx, order.CustomerID, order.Currency)
	if err != nil {
		return err
	}
	if err := s.wallets.ReleaseCustomerEscrow(ctx, customerWallet.ID, order.ID, order.OrderValue, actorID); err != nil {
		return err
	}

	if order.WorkerID != nil {
		workerWallet, err := s.wallets.EnsureWallet(ctx, *order.WorkerID, order.Currency)
		if err != nil {
			return err
		}
		if order.DepositAmount.IsPositive() {
			if err := s.wallets.ReleaseWorkerDeposit(ctx, workerWallet.ID, order.ID, order.DepositAmount, actorID); err != nil {
				return err
			}
		}
		if order.WorkerPayout.IsPositive() {
			if err := s.wallets.Credit(ctx, workerWallet.ID, order.ID, order.WorkerPayout, domain.TransactionEarning, actorID); err != nil {
				return err
			}
		}
	}

	if order.SupportID != nil && order.SupportPayout.IsPositive() {
		supportWallet, err := s.wallets.EnsureWallet(ctx, *order.SupportID, order.Currency)
		if err != nil {
			return err
		}
		if err := s.wallets.Credit(ctx, supportWallet.ID, order.ID, order.SupportPayout, domain.TransactionCommission, actorID); err != nil {
			return err
		}
	}

	// the system share stays on the order record, no wallet movement
	order.PayoutProcessed = true
	if _, err := s.repo.Update(ctx, order); err != nil {
		return err
	}
	return s.wallets.CompleteOrderTransactions(ctx, order.ID)
}

// Cancel terminates an order. While escrow is still held, the worker's
// deposit (if any) is returned in full and the customer's escrow is released
// and refunded per the requested policy. Once the payout has settled only the
// state change is recorded and a refund request is rejected.
func (s *Service) Cancel(ctx context.Context, orderID, actorID int, reason string, refundType RefundType, refundAmount *decimal.Decimal) (*domain.Order, error) {
	var cancelled *domain.Order
	err := s.txManager.BeginWithRetry(ctx, func(ctx context.Context) error {
		order, err := s.repo.GetByIDForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		if order == nil {
			return ErrOrderNotFound
		}
		if err := domain.ValidateTransition(order.Status, domain.StatusCancelled); err != nil {
			return err
		}

		refund, err := resolveRefund(order.OrderValue, refundType, refundAmount)
		if err != nil {
			return err
		}
		if order.PayoutProcessed && refund.IsPositive() {
			return fmt.Errorf("%w: payout already settled, refund requires a manual adjustment", ErrValidation)
		}

		now := time.Now()
		fromStatus := order.Status
		order.Status = domain.StatusCancelled
		order.CancelledAt = &now
		if cancelled, err = s.repo.Update(ctx, order); err != nil {
			return err
		}

		// A settled order has no escrow left: the deposit and the customer's
		// pending value were already released when the payout ran. Cancelling
		// it only records the state change.
		if order.PayoutProcessed {
			zap.L().Warn("order cancelled after payout settled, no funds moved",
				zap.Int("order_id", order.ID),
				zap.Int64("sequence_number", order.SequenceNumber))
			return s.writeHistory(ctx, order.ID, fromStatus, domain.StatusCancelled, actorID, reason, "")
		}

		if order.WorkerID != nil && order.DepositAmount.IsPositive() {
			workerWallet, err := s.wallets.EnsureWallet(ctx, *order.WorkerID, order.Currency)
			if err != nil {
				return err
			}
			if err := s.wallets.ReleaseWorkerDeposit(ctx, workerWallet.ID, order.ID, order.DepositAmount, actorID); err != nil {
				return err
			}
		}

		customerWallet, err := s.wallets.EnsureWallet(ctx, order.CustomerID, order.Currency)
		if err != nil {
			return err
		}
		if refund.IsPositive() {
			if err := s.wallets.Refund(ctx, customerWallet.ID, order.ID, order.OrderValue, refund, actorID); err != nil {
				return err
			}
		} else {
			if err := s.wallets.ReleaseCustomerEscrow(ctx, customerWallet.ID, order.ID, order.OrderValue, actorID); err != nil {
				return err
			}
		}

		if err := s.writeHistory(ctx, order.ID, fromStatus, domain.StatusCancelled, actorID, reason, ""); err != nil {
			return err
		}
		return s.wallets.CompleteOrderTransactions(ctx, order.ID)
	})
	if err != nil {
		return nil, err
	}

	s.notify("order.cancelled", cancelled)
	return cancelled, nil
}

func resolveRefund(orderValue decimal.Decimal, refundType RefundType, refundAmount *decimal.Decimal) (decimal.Decimal, error) {
	switch refundType {
	case RefundFull:
		return orderValue, nil
	case RefundPartial:
		if refundAmount == nil || !refundAmount.IsPositive() {
			return decimal.Zero, fmt.Errorf("%w: partial refund requires a positive refund amount", ErrValidation)
		}
		if refundAmount.GreaterThan(orderValue) {
			return decimal.Zero, fmt.Errorf("%w: refund amount %s exceeds order value %s", ErrValidation, refundAmount, orderValue)
		}
		return *refundAmount, nil
	case RefundNone:
		return decimal.Zero, nil
	}
	return decimal.Zero, fmt.Errorf("%w: unknown refund type %q", ErrValidation, refundType)
}
