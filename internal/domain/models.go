package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type UserRole string

const (
	RoleCustomer UserRole = "customer"
	RoleWorker   UserRole = "worker"
	RoleSupport  UserRole = "support"
)

type User struct {
	ID         int       `db:"id"`
	Login      string    `db:"login"`
	ChatHandle string    `db:"chat_handle"`
	Role       UserRole  `db:"role"`
	CreatedAt  time.Time `db:"created_at"`
}

// Wallet keeps per-user funds. Balance is the spendable total, PendingBalance
// is the escrowed bucket, Deposit is the worker security float. A customer
// can spend Balance-PendingBalance; a worker can additionally pledge Deposit.
type Wallet struct {
	ID             int             `db:"id"`
	UserID         int             `db:"user_id"`
	Balance        decimal.Decimal `db:"balance"`
	PendingBalance decimal.Decimal `db:"pending_balance"`
	Deposit        decimal.Decimal `db:"deposit"`
	Currency       string          `db:"currency"`
	UpdatedAt      time.Time       `db:"updated_at"`
}

func (w *Wallet) Available() decimal.Decimal {
	return w.Balance.Sub(w.PendingBalance)
}

func (w *Wallet) Eligibility() decimal.Decimal {
	return w.Deposit.Add(w.Available())
}

type Order struct {
	ID              int             `db:"id"`
	SequenceNumber  int64           `db:"sequence_number"`
	CustomerID      int             `db:"customer_id"`
	WorkerID        *int            `db:"worker_id"`
	SupportID       *int            `db:"support_id"`
	ServiceID       *int            `db:"service_id"`
	OrderValue      decimal.Decimal `db:"order_value"`
	DepositAmount   decimal.Decimal `db:"deposit_amount"`
	Currency        string          `db:"currency"`
	Status          OrderStatus     `db:"status"`
	WorkerPayout    decimal.Decimal `db:"worker_payout"`
	SupportPayout   decimal.Decimal `db:"support_payout"`
	SystemPayout    decimal.Decimal `db:"system_payout"`
	PayoutProcessed bool            `db:"payout_processed"`
	JobDetails      string          `db:"job_details"`
	CreatedAt       time.Time       `db:"created_at"`
	AssignedAt      *time.Time      `db:"assigned_at"`
	StartedAt       *time.Time      `db:"started_at"`
	CompletedAt     *time.Time      `db:"completed_at"`
	ConfirmedAt     *time.Time      `db:"confirmed_at"`
	CancelledAt     *time.Time      `db:"cancelled_at"`
}

type TransactionType string

const (
	TransactionPayment    TransactionType = "PAYMENT"
	TransactionDeposit    TransactionType = "DEPOSIT"
	TransactionRelease    TransactionType = "RELEASE"
	TransactionEarning    TransactionType = "EARNING"
	TransactionCommission TransactionType = "COMMISSION"
	TransactionRefund     TransactionType = "REFUND"
)

type TransactionStatus string

const (
	TransactionPending   TransactionStatus = "PENDING"
	TransactionCompleted TransactionStatus = "COMPLETED"
)

// WalletTransaction is an append-only ledger entry. The sum of all entry
// amounts for a wallet reconciles to its current balance.
type WalletTransaction struct {
	ID            int               `db:"id"`
	WalletID      int               `db:"wallet_id"`
	OrderID       *int              `db:"order_id"`
	Type          TransactionType   `db:"type"`
	Amount        decimal.Decimal   `db:"amount"`
	BalanceBefore decimal.Decimal   `db:"balance_before"`
	BalanceAfter  decimal.Decimal   `db:"balance_after"`
	Status        TransactionStatus `db:"status"`
	Reference     string            `db:"reference"`
	Notes         string            `db:"notes"`
	CreatedBy     int               `db:"created_by"`
	CreatedAt     time.Time         `db:"created_at"`
}

// OrderStatusHistory is one row per successful transition, never mutated.
// FromStatus is empty on the initial row.
type OrderStatusHistory struct {
	ID         int         `db:"id"`
	OrderID    int         `db:"order_id"`
	FromStatus OrderStatus `db:"from_status"`
	ToStatus   OrderStatus `db:"to_status"`
	ChangedBy  int         `db:"changed_by"`
	Reason     string      `db:"reason"`
	Notes      string      `db:"notes"`
	CreatedAt  time.Time   `db:"created_at"`
}
