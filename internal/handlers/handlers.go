package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	httpSwagger "github.com/swaggo/http-swagger"

	_ "github.com/gigmart/backend/docs"
	ordershandlers "github.com/gigmart/backend/internal/handlers/orders"
	wallethandlers "github.com/gigmart/backend/internal/handlers/wallet"
	"github.com/gigmart/backend/internal/identity"
	"github.com/gigmart/backend/internal/service"
)

type OrderHandler interface {
	CreateOrder(w http.ResponseWriter, r *http.Request)
	ClaimOrder(w http.ResponseWriter, r *http.Request)
	AssignWorker(w http.ResponseWriter, r *http.Request)
	UpdateStatus(w http.ResponseWriter, r *http.Request)
	CompleteOrder(w http.ResponseWriter, r *http.Request)
	ConfirmOrder(w http.ResponseWriter, r *http.Request)
	CancelOrder(w http.ResponseWriter, r *http.Request)
	GetOrder(w http.ResponseWriter, r *http.Request)
	ListOrders(w http.ResponseWriter, r *http.Request)
	GetOrderHistory(w http.ResponseWriter, r *http.Request)
}

type WalletHandler interface {
	GetBalance(w http.ResponseWriter, r *http.Request)
	GetTransactions(w http.ResponseWriter, r *http.Request)
}

type Handlers struct {
	OrderHandler  OrderHandler
	WalletHandler WalletHandler
}

func New(s *service.Services, resolver identity.Resolver) *Handlers {
	return &Handlers{
		OrderHandler:  ordershandlers.New(s.OrderService, resolver),
		WalletHandler: wallethandlers.New(s.WalletService),
	}
}

func (h *Handlers) InitRoutes(r chi.Router) chi.Router {
	r.Use(
		middleware.RealIP,
		middleware.Recoverer,
		middleware.Logger,
	)
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("doc.json"),
	))
	r.Route("/api/orders", func(r chi.Router) {
		r.Post("/", h.OrderHandler.CreateOrder)
		r.Get("/", h.OrderHandler.ListOrders)

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.OrderHandler.GetOrder)
			r.Get("/history", h.OrderHandler.GetOrderHistory)
			r.Post("/claim", h.OrderHandler.ClaimOrder)
			r.Post("/assign", h.OrderHandler.AssignWorker)
			r.Patch("/status", h.OrderHandler.UpdateStatus)
			r.Post("/complete", h.OrderHandler.CompleteOrder)
			r.Post("/confirm", h.OrderHandler.ConfirmOrder)
			r.Post("/cancel", h.OrderHandler.CancelOrder)
		})
	})
	r.Route("/api/wallets/{userID}", func(r chi.Router) {
		r.Get("/balance", h.WalletHandler.GetBalance)
		r.Get("/transactions", h.WalletHandler.GetTransactions)
	})

	return r
}
