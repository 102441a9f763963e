package repo

import (
	"github.com/gigmart/backend/internal/identity"
	"github.com/gigmart/backend/internal/pg"
	historyrepo "github.com/gigmart/backend/internal/repo/history-repo"
	orderrepo "github.com/gigmart/backend/internal/repo/order-repo"
	transactionrepo "github.com/gigmart/backend/internal/repo/transaction-repo"
	userrepo "github.com/gigmart/backend/internal/repo/user-repo"
	walletrepo "github.com/gigmart/backend/internal/repo/wallet-repo"
	"github.com/gigmart/backend/internal/service/orderservice"
	"github.com/gigmart/backend/internal/service/walletservice"
)

type Repositories struct {
	UserRepo        orderservice.UserRepo
	IdentityRepo    identity.UserRepo
	OrderRepo       orderservice.Repo
	HistoryRepo     orderservice.HistoryRepo
	WalletRepo      walletservice.WalletRepo
	TransactionRepo walletservice.TransactionRepo
}

func New(conn pg.Database) *Repositories {
	userRepo := userrepo.New(conn)
	orderRepo := orderrepo.New(conn)
	historyRepo := historyrepo.New(conn)
	walletRepo := walletrepo.New(conn)
	transactionRepo := transactionrepo.New(conn)

	return &Repositories{
		UserRepo:        userRepo,
		IdentityRepo:    userRepo,
		OrderRepo:       orderRepo,
		HistoryRepo:     historyRepo,
		WalletRepo:      walletRepo,
		TransactionRepo: transactionRepo,
	}
}
