package orderservice

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/gigmart/backend/internal/domain"
	"github.com/gigmart/backend/internal/pg"
)

type Repo interface {
	Create(ctx context.Context, order *domain.Order) (*domain.Order, error)
	GetByID(ctx context.Context, id int) (*domain.Order, error)
	GetByIDForUpdate(ctx context.Context, id int) (*domain.Order, error)
	Update(ctx context.Context, order *domain.Order) (*domain.Order, error)
	List(ctx context.Context, filter domain.OrderFilter) ([]domain.Order, error)
}

type HistoryRepo interface {
	Create(ctx context.Context, h *domain.OrderStatusHistory) (*domain.OrderStatusHistory, error)
	GetByOrderID(ctx context.Context, orderID int) ([]domain.OrderStatusHistory, error)
}

type UserRepo interface {
	GetByID(ctx context.Context, id int) (*domain.User, error)
}

// WalletLedger is the slice of the wallet service the lifecycle needs. All
// mutating calls assume an enclosing TXManager transaction.
type WalletLedger interface {
	EnsureWallet(ctx context.Context, userID int, currency string) (*domain.Wallet, error)
	CheckBalanceWithLock(ctx context.Context, walletID int, required decimal.Decimal, role domain.UserRole) (*domain.Wallet, error)
	EscrowPayment(ctx context.Context, walletID, orderID int, amount decimal.Decimal, actorID int) error
	EscrowWorkerDeposit(ctx context.Context, walletID, orderID int, amount decimal.Decimal, actorID int) error
	ReleaseCustomerEscrow(ctx context.Context, walletID, orderID int, amount decimal.Decimal, actorID int) error
	ReleaseWorkerDeposit(ctx context.Context, walletID, orderID int, amount decimal.Decimal, actorID int) error
	Credit(ctx context.Context, walletID, orderID int, amount decimal.Decimal, txType domain.TransactionType, actorID int) error
	Refund(ctx context.Context, walletID, orderID int, escrowAmount, refundAmount decimal.Decimal, actorID int) error
	CompleteOrderTransactions(ctx context.Context, orderID int) error
}

// Dispatcher announces order state changes; failures are logged, never
// propagated.
type Dispatcher interface {
	Notify(event string, payload any)
}

type Service struct {
	repo        Repo
	historyRepo HistoryRepo
	userRepo    UserRepo
	wallets     WalletLedger
	txManager   pg.TXManager
	dispatcher  Dispatcher
	shares      domain.PayoutShares
}

func New(repo Repo, historyRepo HistoryRepo, userRepo UserRepo, wallets WalletLedger,
	txManager pg.TXManager, dispatcher Dispatcher, shares domain.PayoutShares) *Service {
	if !shares.Valid() {
		shares = domain.DefaultShares
	}
	return &Service{
		repo:        repo,
		historyRepo: historyRepo,
		userRepo:    userRepo,
		wallets:     wallets,
		txManager:   txManager,
		dispatcher:  dispatcher,
		shares:      shares,
	}
}

var minOrderValue = decimal.RequireFromString("0.01")

const defaultCurrency = "USD"

type CreateOrderParams struct {
	CustomerID    int
	WorkerID      *int
	SupportID     *int
	ServiceID     *int
	OrderValue    decimal.Decimal
	DepositAmount decimal.Decimal
	Currency      string
	JobDetails    string
}

// Create validates the money bounds, escrows the customer's order value
// (and the pre-assigned worker's deposit, when given) and writes the order
// with its payout split fixed, all in one retryable serializable
// transaction.
func (s *Service) Create(ctx context.Context, params CreateOrderParams) (*domain.Order, error) {
	if params.OrderValue.LessThan(minOrderValue) {
		return nil, fmt.Errorf("%w: order value must be at least %s", ErrValidation, minOrderValue)
	}
	if params.DepositAmount.IsNegative() {
		return nil, fmt.Errorf("%w: deposit amount must not be negative", ErrValidation)
	}
	if params.Currency == "" {
		params.Currency = defaultCurrency
	}

	if err := s.mustExist(ctx, params.CustomerID, "customer"); err != nil {
		return nil, err
	}
	if params.WorkerID != nil {
		if *params.WorkerID == params.CustomerID {
			return nil, fmt.Errorf("%w: worker can't be the order customer", ErrValidation)
		}
		if err := s.mustExist(ctx, *params.WorkerID, "worker"); err != nil {
			return nil, err
		}
	}
	if params.SupportID != nil {
		if err := s.mustExist(ctx, *params.SupportID, "support"); err != nil {
			return nil, err
		}
	}

	workerCut, supportCut, systemCut := s.shares.Split(params.OrderValue)

	var created *domain.Order
	err := s.txManager.BeginWithRetry(ctx, func(ctx context.Context) error {
		customerWallet, err := s.wallets.EnsureWallet(ctx, params.CustomerID, params.Currency)
		if err != nil {
			return err
		}
		if _, err := s.wallets.CheckBalanceWithLock(ctx, customerWallet.ID, params.OrderValue, domain.RoleCustomer); err != nil {
			return err
		}

		order := &domain.Order{
			CustomerID:    params.CustomerID,
			WorkerID:      params.WorkerID,
			SupportID:     params.SupportID,
			ServiceID:     params.ServiceID,
			OrderValue:    params.OrderValue,
			DepositAmount: params.DepositAmount,
			Currency:      params.Currency,
			Status:        domain.StatusPending,
			WorkerPayout:  workerCut,
			SupportPayout: supportCut,
			SystemPayout:  systemCut,
			JobDetails:    params.JobDetails,
		}
		if params.WorkerID != nil {
			now := time.Now()
			order.Status = domain.StatusAssigned
			order.AssignedAt = &now
		}

		if created, err = s.repo.Create(ctx, order); err != nil {
			return err
		}

		if err := s.wallets.EscrowPayment(ctx, customerWallet.ID, created.ID, params.OrderValue, params.CustomerID); err != nil {
			return err
		}
		if params.WorkerID != nil && params.DepositAmount.IsPositive() {
			workerWallet, err := s.wallets.EnsureWallet(ctx, *params.WorkerID, params.Currency)
			if err != nil {
				return err
			}
			if err := s.wallets.EscrowWorkerDeposit(ctx, workerWallet.ID, created.ID, params.DepositAmount, *params.WorkerID); err != nil {
				return err
			}
		}

		return s.writeHistory(ctx, created.ID, "", created.Status, params.CustomerID, "order created", "")
	})
	if err != nil {
		return nil, err
	}

	s.notify("order.created", created)
	return created, nil
}

// Claim lets a worker take a PENDING unassigned order. The worker's deposit
// is escrowed and work starts immediately: the order goes through ASSIGNED
// straight to IN_PROGRESS with a history row per hop.
func (s *Service) Claim(ctx context.Context, orderID, workerID int) (*domain.Order, error) {
	if err := s.mustExist(ctx, workerID, "worker"); err != nil {
		return nil, err
	}

	var claimed *domain.Order
	err := s.txManager.BeginWithRetry(ctx, func(ctx context.Context) error {
		order, err := s.repo.GetByIDForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		if order == nil {
			return ErrOrderNotFound
		}
		if order.WorkerID != nil {
			return ErrOrderAlreadyClaimed
		}
		if order.Status != domain.StatusPending {
			return ErrOrderNotAvailable
		}
		if order.CustomerID == workerID {
			return fmt.Errorf("%w: customer can't claim their own order", ErrValidation)
		}

		if order.DepositAmount.IsPositive() {
			workerWallet, err := s.wallets.EnsureWallet(ctx, workerID, order.Currency)
			if err != nil {
				return err
			}
			if err := s.wallets.EscrowWorkerDeposit(ctx, workerWallet.ID, order.ID, order.DepositAmount, workerID); err != nil {
				return err
			}
		}

		now := time.Now()
		order.WorkerID = &workerID
		order.Status = domain.StatusInProgress
		order.AssignedAt = &now
		order.StartedAt = &now
		if claimed, err = s.repo.Update(ctx, order); err != nil {
			return err
		}

		if err := s.writeHistory(ctx, order.ID, domain.StatusPending, domain.StatusAssigned, workerID, "order claimed", ""); err != nil {
			return err
		}
		return s.writeHistory(ctx, order.ID, domain.StatusAssigned, domain.StatusInProgress, workerID, "work started", "")
	})
	if err != nil {
		return nil, err
	}

	s.notify("order.claimed", claimed)
	return claimed, nil
}

// AssignWorker is the support path: same eligibility check as Claim but the
// order only becomes ASSIGNED, work is not auto-started.
func (s *Service) AssignWorker(ctx context.Context, orderID, workerID, assignedByID int, notes string) (*domain.Order, error) {
	if err := s.mustExist(ctx, workerID, "worker"); err != nil {
		return nil, err
	}

	var assigned *domain.Order
	err := s.txManager.BeginWithRetry(ctx, func(ctx context.Context) error {
		order, err := s.repo.GetByIDForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		if order == nil {
			return ErrOrderNotFound
		}
		if order.WorkerID != nil {
			return ErrOrderAlreadyClaimed
		}
		if err := domain.ValidateTransition(order.Status, domain.StatusAssigned); err != nil {
			return err
		}

		if order.DepositAmount.IsPositive() {
			workerWallet, err := s.wallets.EnsureWallet(ctx, workerID, order.Currency)
			if err != nil {
				return err
			}
			if err := s.wallets.EscrowWorkerDeposit(ctx, workerWallet.ID, order.ID, order.DepositAmount, assignedByID); err != nil {
				return err
			}
		}

		now := time.Now()
		fromStatus := order.Status
		order.WorkerID = &workerID
		order.Status = domain.StatusAssigned
		order.AssignedAt = &now
		if assigned, err = s.repo.Update(ctx, order); err != nil {
			return err
		}

		return s.writeHistory(ctx, order.ID, fromStatus, domain.StatusAssigned, assignedByID, "worker assigned", notes)
	})
	if err != nil {
		return nil, err
	}

	s.notify("order.assigned", assigned)
	return assigned, nil
}

// UpdateStatus performs a generic validated transition, stamping the
// lifecycle timestamp matching the target state. It never moves funds;
// money-bearing transitions go through Confirm and Cancel.
func (s *Service) UpdateStatus(ctx context.Context, orderID int, newStatus domain.OrderStatus, actorID int, reason, notes string) (*domain.Order, error) {
	var updated *domain.Order
	err := s.txManager.BeginWithRetry(ctx, func(ctx context.Context) error {
		order, err := s.repo.GetByIDForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		if order == nil {
			return ErrOrderNotFound
		}
		if err := domain.ValidateTransition(order.Status, newStatus); err != nil {
			return err
		}

		fromStatus := order.Status
		order.Status = newStatus
		stampTimestamp(order, newStatus, time.Now())
		if updated, err = s.repo.Update(ctx, order); err != nil {
			return err
		}

		return s.writeHistory(ctx, order.ID, fromStatus, newStatus, actorID, reason, notes)
	})
	if err != nil {
		return nil, err
	}

	s.notify("order.status_changed", updated)
	return updated, nil
}

// Complete is called by the assigned worker when the job is done; the order
// moves to AWAITING_CONFIRM until the customer confirms.
func (s *Service) Complete(ctx context.Context, orderID, workerID int, notes string) (*domain.Order, error) {
	var completed *domain.Order
	err := s.txManager.BeginWithRetry(ctx, func(ctx context.Context) error {
		order, err := s.repo.GetByIDForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		if order == nil {
			return ErrOrderNotFound
		}
		if order.WorkerID == nil || *order.WorkerID != workerID {
			return ErrNotOrderWorker
		}
		if err := domain.ValidateTransition(order.Status, domain.StatusAwaitingConfirm); err != nil {
			return err
		}

		now := time.Now()
		fromStatus := order.Status
		order.Status = domain.StatusAwaitingConfirm
		order.CompletedAt = &now
		if completed, err = s.repo.Update(ctx, order); err != nil {
			return err
		}

		return s.writeHistory(ctx, order.ID, fromStatus, domain.StatusAwaitingConfirm, workerID, "worker completed order", notes)
	})
	if err != nil {
		return nil, err
	}

	s.notify("order.completed", completed)
	return completed, nil
}

// Confirm is called by the customer to accept the completed work. The order
// becomes COMPLETED and the payout is distributed inside the same
// transaction.
func (s *Service) Confirm(ctx context.Context, orderID, customerID int, feedback string) (*domain.Order, error) {
	var confirmed *domain.Order
	var alreadySettled bool
	err := s.txManager.BeginWithRetry(ctx, func(ctx context.Context) error {
		order, err := s.repo.GetByIDForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		if order == nil {
			return ErrOrderNotFound
		}
		if order.CustomerID != customerID {
			return ErrNotOrderCustomer
		}
		// Repeated confirmations return the settled order unchanged.
		if order.Status == domain.StatusCompleted && order.PayoutProcessed {
			zap.L().Warn("order already confirmed, skipping",
				zap.Int("order_id", order.ID),
				zap.Int64("sequence_number", order.SequenceNumber))
			confirmed = order
			alreadySettled = true
			return nil
		}
		if order.Status != domain.StatusAwaitingConfirm {
			return fmt.Errorf("%w: order must be awaiting confirmation, current status %s", ErrValidation, order.Status)
		}

		now := time.Now()
		order.Status = domain.StatusCompleted
		order.ConfirmedAt = &now
		if confirmed, err = s.repo.Update(ctx, order); err != nil {
			return err
		}

		if err := s.writeHistory(ctx, order.ID, domain.StatusAwaitingConfirm, domain.StatusCompleted, customerID, "customer confirmed completion", feedback); err != nil {
			return err
		}

		return s.distributePayout(ctx, confirmed, customerID)
	})
	if err != nil {
		return nil, err
	}
	if alreadySettled {
		return confirmed, nil
	}

	s.notify("order.confirmed", confirmed)
	return confirmed, nil
}

func (s *Service) GetByID(ctx context.Context, orderID int) (*domain.Order, error) {
	order, err := s.repo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

func (s *Service) List(ctx context.Context, filter domain.OrderFilter) ([]domain.Order, error) {
	return s.repo.List(ctx, filter)
}

func (s *Service) GetHistory(ctx context.Context, orderID int) ([]domain.OrderStatusHistory, error) {
	order, err := s.repo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	return s.historyRepo.GetByOrderID(ctx, orderID)
}

func (s *Service) mustExist(ctx context.Context, userID int, who string) error {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if user == nil {
		return fmt.Errorf("%w: %s %d", ErrUserNotFound, who, userID)
	}
	return nil
}

func (s *Service) writeHistory(ctx context.Context, orderID int, from, to domain.OrderStatus, actorID int, reason, notes string) error {
	_, err := s.historyRepo.Create(ctx, &domain.OrderStatusHistory{
		OrderID:    orderID,
		FromStatus: from,
		ToStatus:   to,
		ChangedBy:  actorID,
		Reason:     reason,
		Notes:      notes,
	})
	return err
}

func (s *Service) notify(event string, order *domain.Order) {
	if s.dispatcher == nil || order == nil {
		return
	}
	s.dispatcher.Notify(event, order)
}

func stampTimestamp(order *domain.Order, status domain.OrderStatus, now time.Time) {
	switch status {
	case domain.StatusAssigned:
		order.AssignedAt = &now
	case domain.StatusInProgress:
		order.StartedAt = &now
	case domain.StatusAwaitingConfirm:
		order.CompletedAt = &now
	case domain.StatusCompleted:
		order.ConfirmedAt = &now
	case domain.StatusCancelled:
		order.CancelledAt = &now
	}
}
