package service

import (
	"github.com/gigmart/backend/internal/domain"
	"github.com/gigmart/backend/internal/handlers/orders"
	"github.com/gigmart/backend/internal/handlers/wallet"
	"github.com/gigmart/backend/internal/pg"
	"github.com/gigmart/backend/internal/repo"
	"github.com/gigmart/backend/internal/service/orderservice"
	"github.com/gigmart/backend/internal/service/walletservice"
)

type Services struct {
	OrderService  orders.Service
	WalletService wallet.Service
}

func New(repo *repo.Repositories, txManager pg.TXManager, dispatcher orderservice.Dispatcher, shares domain.PayoutShares) *Services {
	walletService := walletservice.New(repo.WalletRepo, repo.TransactionRepo)
	orderService := orderservice.New(repo.OrderRepo, repo.HistoryRepo, repo.UserRepo, walletService, txManager, dispatcher, shares)

	return &Services{
		OrderService:  orderService,
		WalletService: walletService,
	}
}
