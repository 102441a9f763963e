package walletservice

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/gigmart/backend/internal/domain"
)

type WalletRepo interface {
	GetByUserID(ctx context.Context, userID int) (*domain.Wallet, error)
	Create(ctx context.Context, userID int, currency string) (*domain.Wallet, error)
	LockForUpdate(ctx context.Context, walletID int) (*domain.Wallet, error)
	UpdateBalance(ctx context.Context, walletID int, balanceDelta, pendingDelta, depositDelta decimal.Decimal) (*domain.Wallet, error)
}

type TransactionRepo interface {
	Create(ctx context.Context, tx *domain.WalletTransaction) (*domain.WalletTransaction, error)
	CompletePendingByOrder(ctx context.Context, orderID int) error
	GetByWalletID(ctx context.Context, walletID int) ([]domain.WalletTransaction, error)
}

// Service is the wallet ledger: every balance mutation goes through a locked
// row and writes exactly one WalletTransaction carrying the before/after
// snapshot. Mutating methods must run inside a TXManager transaction.
type Service struct {
	walletRepo WalletRepo
	txRepo     TransactionRepo
}

func New(walletRepo WalletRepo, txRepo TransactionRepo) *Service {
	return &Service{
		walletRepo: walletRepo,
		txRepo:     txRepo,
	}
}

// BalanceSnapshot is the read model served to the API.
type BalanceSnapshot struct {
	Balance        decimal.Decimal
	PendingBalance decimal.Decimal
	Deposit        decimal.Decimal
	Available      decimal.Decimal
	Eligibility    decimal.Decimal
	Currency       string
}

func (s *Service) GetBalance(ctx context.Context, userID int) (*BalanceSnapshot, error) {
	wallet, err := s.walletRepo.GetByUserID(ctx, userID)
	if err != nil {
		zap.L().Error("failed to get wallet", zap.Error(err))
		return nil, err
	}
	if wallet == nil {
		return nil, ErrWalletNotFound
	}
	return &BalanceSnapshot{
		Balance:        wallet.Balance,
		PendingBalance: wallet.PendingBalance,
		Deposit:        wallet.Deposit,
		Available:      wallet.Available(),
		Eligibility:    wallet.Eligibility(),
		Currency:       wallet.Currency,
	}, nil
}

func (s *Service) ListTransactions(ctx context.Context, userID int) ([]domain.WalletTransaction, error) {
	wallet, err := s.walletRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if wallet == nil {
		return nil, ErrWalletNotFound
	}
	return s.txRepo.GetByWalletID(ctx, wallet.ID)
}

// EnsureWallet returns the user's wallet, creating an empty one when the
// user has none yet.
func (s *Service) EnsureWallet(ctx context.Context, userID int, currency string) (*domain.Wallet, error) {
	wallet, err := s.walletRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if wallet != nil {
		return wallet, nil
	}
	return s.walletRepo.Create(ctx, userID, currency)
}

// CheckBalanceWithLock locks the wallet row and verifies the wallet can
// cover required for the given role: a customer spends available funds,
// a worker can additionally pledge the deposit. The lock is held until the
// enclosing transaction ends, so the snapshot stays authoritative.
func (s *Service) CheckBalanceWithLock(ctx context.Context, walletID int, required decimal.Decimal, role domain.UserRole) (*domain.Wallet, error) {
	wallet, err := s.walletRepo.LockForUpdate(ctx, walletID)
	if err != nil {
		return nil, err
	}
	if wallet == nil {
		return nil, ErrWalletNotFound
	}

	available := wallet.Available()
	if role == domain.RoleWorker {
		available = wallet.Eligibility()
	}
	if available.LessThan(required) {
		return nil, &InsufficientBalanceError{
			Role:      role,
			Required:  required,
			Available: available,
			Balance:   wallet.Balance,
			Pending:   wallet.PendingBalance,
			Deposit:   wallet.Deposit,
		}
	}
	return wallet, nil
}

// EscrowPayment earmarks the customer's order value: pending grows, balance
// stays. Writes a PENDING PAYMENT ledger entry tied to the order.
func (s *Service) EscrowPayment(ctx context.Context, walletID, orderID int, amount decimal.Decimal, actorID int) error {
	wallet, err := s.walletRepo.LockForUpdate(ctx, walletID)
	if err != nil {
		return err
	}
	if wallet == nil {
		return ErrWalletNotFound
	}
	if wallet.Available().LessThan(amount) {
		return &InsufficientBalanceError{
			Role:      domain.RoleCustomer,
			Required:  amount,
			Available: wallet.Available(),
			Balance:   wallet.Balance,
			Pending:   wallet.PendingBalance,
		}
	}

	updated, err := s.walletRepo.UpdateBalance(ctx, walletID, decimal.Zero, amount, decimal.Zero)
	if err != nil {
		return err
	}
	return s.writeEntry(ctx, wallet, updated, orderID, domain.TransactionPayment,
		amount.Neg(), domain.TransactionPending, actorID, "order payment escrowed")
}

// EscrowWorkerDeposit locks the worker deposit for a claimed order. Funds
// are drawn from the available balance first, any shortfall comes out of
// the security deposit; both end up in the pending bucket.
func (s *Service) EscrowWorkerDeposit(ctx context.Context, walletID, orderID int, amount decimal.Decimal, actorID int) error {
	wallet, err := s.walletRepo.LockForUpdate(ctx, walletID)
	if err != nil {
		return err
	}
	if wallet == nil {
		return ErrWalletNotFound
	}
	if wallet.Eligibility().LessThan(amount) {
		return &InsufficientBalanceError{
			Role:      domain.RoleWorker,
			Required:  amount,
			Available: wallet.Eligibility(),
			Balance:   wallet.Balance,
			Pending:   wallet.PendingBalance,
			Deposit:   wallet.Deposit,
		}
	}

	fromBalance := decimal.Min(wallet.Available(), amount)
	if fromBalance.IsNegative() {
		fromBalance = decimal.Zero
	}
	fromDeposit := amount.Sub(fromBalance)

	updated, err := s.walletRepo.UpdateBalance(ctx, walletID, fromBalance.Neg(), amount, fromDeposit.Neg())
	if err != nil {
		return err
	}
	notes := fmt.Sprintf("deposit escrowed: %s from balance, %s from deposit", fromBalance, fromDeposit)
	return s.writeEntry(ctx, wallet, updated, orderID, domain.TransactionDeposit,
		amount.Neg(), domain.TransactionPending, actorID, notes)
}

// ReleaseCustomerEscrow drops the customer's pending order value; the
// balance itself is untouched.
func (s *Service) ReleaseCustomerEscrow(ctx context.Context, walletID, orderID int, amount decimal.Decimal, actorID int) error {
	wallet, err := s.walletRepo.LockForUpdate(ctx, walletID)
	if err != nil {
		return err
	}
	if wallet == nil {
		return ErrWalletNotFound
	}

	updated, err := s.walletRepo.UpdateBalance(ctx, walletID, decimal.Zero, amount.Neg(), decimal.Zero)
	if err != nil {
		return err
	}
	return s.writeEntry(ctx, wallet, updated, orderID, domain.TransactionRelease,
		amount, domain.TransactionCompleted, actorID, "order escrow released")
}

// ReleaseWorkerDeposit returns the worker's pending deposit into the
// balance in full, including any part originally drawn from the security
// deposit.
func (s *Service) ReleaseWorkerDeposit(ctx context.Context, walletID, orderID int, amount decimal.Decimal, actorID int) error {
	wallet, err := s.walletRepo.LockForUpdate(ctx, walletID)
	if err != nil {
		return err
	}
	if wallet == nil {
		return ErrWalletNotFound
	}

	updated, err := s.walletRepo.UpdateBalance(ctx, walletID, amount, amount.Neg(), decimal.Zero)
	if err != nil {
		return err
	}
	return s.writeEntry(ctx, wallet, updated, orderID, domain.TransactionRelease,
		amount, domain.TransactionCompleted, actorID, "deposit released")
}

// Credit adds amount to the wallet balance; used for EARNING and COMMISSION
// payouts.
func (s *Service) Credit(ctx context.Context, walletID, orderID int, amount decimal.Decimal, txType domain.TransactionType, actorID int) error {
	wallet, err := s.walletRepo.LockForUpdate(ctx, walletID)
	if err != nil {
		return err
	}
	if wallet == nil {
		return ErrWalletNotFound
	}

	updated, err := s.walletRepo.UpdateBalance(ctx, walletID, amount, decimal.Zero, decimal.Zero)
	if err != nil {
		return err
	}
	return s.writeEntry(ctx, wallet, updated, orderID, txType,
		amount, domain.TransactionCompleted, actorID, "order payout")
}

// Refund releases the customer's escrow and credits the refunded part back
// to the balance. escrowAmount and refundAmount differ on partial refunds.
func (s *Service) Refund(ctx context.Context, walletID, orderID int, escrowAmount, refundAmount decimal.Decimal, actorID int) error {
	wallet, err := s.walletRepo.LockForUpdate(ctx, walletID)
	if err != nil {
		return err
	}
	if wallet == nil {
		return ErrWalletNotFound
	}

	updated, err := s.walletRepo.UpdateBalance(ctx, walletID, refundAmount, escrowAmount.Neg(), decimal.Zero)
	if err != nil {
		return err
	}
	notes := "order refund"
	if refundAmount.LessThan(escrowAmount) {
		notes = fmt.Sprintf("partial refund %s of escrowed %s, remainder kept by platform", refundAmount, escrowAmount)
	}
	return s.writeEntry(ctx, wallet, updated, orderID, domain.TransactionRefund,
		refundAmount, domain.TransactionCompleted, actorID, notes)
}

// CompleteOrderTransactions settles the order's PENDING ledger entries.
func (s *Service) CompleteOrderTransactions(ctx context.Context, orderID int) error {
	return s.txRepo.CompletePendingByOrder(ctx, orderID)
}

func (s *Service) writeEntry(ctx context.Context, before, after *domain.Wallet, orderID int,
	txType domain.TransactionType, amount decimal.Decimal, status domain.TransactionStatus, actorID int, notes string) error {
	entry := &domain.WalletTransaction{
		WalletID:      before.ID,
		OrderID:       &orderID,
		Type:          txType,
		Amount:        amount,
		BalanceBefore: before.Balance,
		BalanceAfter:  after.Balance,
		Status:        status,
		Notes:         notes,
		CreatedBy:     actorID,
	}
	if _, err := s.txRepo.Create(ctx, entry); err != nil {
		zap.L().Error("failed to write ledger entry", zap.Error(err))
		return err
	}
	return nil
}
