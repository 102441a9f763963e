package orders

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/gigmart/backend/internal/domain"
	"github.com/gigmart/backend/internal/dto"
	"github.com/gigmart/backend/internal/identity"
	orderservice "github.com/gigmart/backend/internal/service/orderservice"
	"github.com/gigmart/backend/internal/service/walletservice"
	"github.com/gigmart/backend/pkg/utils"
)

type Service interface {
	Create(ctx context.Context, params orderservice.CreateOrderParams) (*domain.Order, error)
	Claim(ctx context.Context, orderID, workerID int) (*domain.Order, error)
	AssignWorker(ctx context.Context, orderID, workerID, assignedByID int, notes string) (*domain.Order, error)
	UpdateStatus(ctx context.Context, orderID int, newStatus domain.OrderStatus, actorID int, reason, notes string) (*domain.Order, error)
	Complete(ctx context.Context, orderID, workerID int, notes string) (*domain.Order, error)
	Confirm(ctx context.Context, orderID, customerID int, feedback string) (*domain.Order, error)
	Cancel(ctx context.Context, orderID, actorID int, reason string, refundType orderservice.RefundType, refundAmount *decimal.Decimal) (*domain.Order, error)
	GetByID(ctx context.Context, orderID int) (*domain.Order, error)
	List(ctx context.Context, filter domain.OrderFilter) ([]domain.Order, error)
	GetHistory(ctx context.Context, orderID int) ([]domain.OrderStatusHistory, error)
}

type OrderHandler struct {
	orderService Service
	resolver     identity.Resolver
}

func New(orderService Service, resolver identity.Resolver) *OrderHandler {
	return &OrderHandler{
		orderService: orderService,
		resolver:     resolver,
	}
}

// CreateOrder godoc
//
//	@Summary		Create a new order
//	@Description	Create an order and escrow the customer's funds. The customer may be given by internal id or by chat handle.
//	@Tags			Orders
//	@Accept			json
//	@Produce		json
//	@Param			order	body		dto.CreateOrderRequestDTO	true	"Order to create"
//	@Success		201		{object}	dto.OrderResponseDTO
//	@Failure		400		{object}	utils.Response	"Bad request"
//	@Failure		402		{object}	utils.Response	"Insufficient balance"
//	@Failure		404		{object}	utils.Response	"Customer, worker or support not found"
//	@Failure		500		{object}	utils.Response	"Internal server error"
//	@Router			/api/orders [post]
func (h *OrderHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateOrderRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	customerID := req.CustomerID
	if customerID == 0 && req.CustomerHandle != "" {
		id, err := h.resolver.Resolve(r.Context(), req.CustomerHandle)
		if err != nil {
			if errors.Is(err, identity.ErrUnknownHandle) {
				utils.RespondWithError(w, http.StatusNotFound, "Unknown customer handle")
				return
			}
			utils.RespondWithError(w, http.StatusInternalServerError, "Internal server error")
			return
		}
		customerID = id
	}

	order, err := h.orderService.Create(r.Context(), orderservice.CreateOrderParams{
		CustomerID:    customerID,
		WorkerID:      req.WorkerID,
		SupportID:     req.SupportID,
		ServiceID:     req.ServiceID,
		OrderValue:    req.OrderValue,
		DepositAmount: req.DepositAmount,
		Currency:      req.Currency,
		JobDetails:    req.JobDetails,
	})
	if err != nil {
		respondServiceError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusCreated, dto.NewOrderResponse(order))
}

// ClaimOrder godoc
//
//	@Summary		Claim a pending order
//	@Description	Worker claims an unassigned order. The worker's deposit is escrowed and the order moves straight to IN_PROGRESS.
//	@Tags			Orders
//	@Accept			json
//	@Produce		json
//	@Param			id		path		int						true	"Order ID"
//	@Param			claim	body		dto.ClaimOrderRequestDTO	true	"Claiming worker"
//	@Success		200		{object}	dto.OrderResponseDTO
//	@Failure		400		{object}	utils.Response	"Order not available or already claimed"
//	@Failure		402		{object}	utils.Response	"Insufficient worker balance"
//	@Failure		404		{object}	utils.Response	"Order or worker not found"
//	@Failure		500		{object}	utils.Response	"Internal server error"
//	@Router			/api/orders/{id}/claim [post]
func (h *OrderHandler) ClaimOrder(w http.ResponseWriter, r *http.Request) {
	orderID, ok := orderIDParam(w, r)
	if !ok {
		return
	}
	var req dto.ClaimOrderRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	order, err := h.orderService.Claim(r.Context(), orderID, req.WorkerID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dto.NewOrderResponse(order))
}

// AssignWorker godoc
//
//	@Summary		Assign a worker to an order
//	@Description	Support assigns a worker to a pending order. The worker's deposit is escrowed.
//	@Tags			Orders
//	@Accept			json
//	@Produce		json
//	@Param			id		path		int							true	"Order ID"
//	@Param			assign	body		dto.AssignWorkerRequestDTO	true	"Assignment"
//	@Success		200		{object}	dto.OrderResponseDTO
//	@Failure		400		{object}	utils.Response	"Invalid transition"
//	@Failure		402		{object}	utils.Response	"Insufficient worker balance"
//	@Failure		404		{object}	utils.Response	"Order or worker not found"
//	@Failure		500		{object}	utils.Response	"Internal server error"
//	@Router			/api/orders/{id}/assign [post]
func (h *OrderHandler) AssignWorker(w http.ResponseWriter, r *http.Request) {
	orderID, ok := orderIDParam(w, r)
	if !ok {
		return
	}
	var req dto.AssignWorkerRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	order, err := h.orderService.AssignWorker(r.Context(), orderID, req.WorkerID, req.AssignedByID, req.Notes)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dto.NewOrderResponse(order))
}

// UpdateStatus godoc
//
//	@Summary		Update order status
//	@Description	Move the order along its lifecycle. Transitions that settle money (confirm, cancel) have dedicated endpoints.
//	@Tags			Orders
//	@Accept			json
//	@Produce		json
//	@Param			id		path		int							true	"Order ID"
//	@Param			status	body		dto.UpdateStatusRequestDTO	true	"Target status"
//	@Success		200		{object}	dto.OrderResponseDTO
//	@Failure		400		{object}	utils.Response	"Invalid transition or unknown status"
//	@Failure		404		{object}	utils.Response	"Order not found"
//	@Failure		500		{object}	utils.Response	"Internal server error"
//	@Router			/api/orders/{id}/status [patch]
func (h *OrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	orderID, ok := orderIDParam(w, r)
	if !ok {
		return
	}
	var req dto.UpdateStatusRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	status, err := domain.ParseOrderStatus(req.Status)
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	order, err := h.orderService.UpdateStatus(r.Context(), orderID, status, req.ChangedByID, req.Reason, req.Notes)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dto.NewOrderResponse(order))
}

// CompleteOrder godoc
//
//	@Summary		Mark order work as done
//	@Description	Worker reports the job finished. The order moves to AWAITING_CONFIRM until the customer confirms.
//	@Tags			Orders
//	@Accept			json
//	@Produce		json
//	@Param			id			path		int							true	"Order ID"
//	@Param			complete	body		dto.CompleteOrderRequestDTO	true	"Completion report"
//	@Success		200			{object}	dto.OrderResponseDTO
//	@Failure		400			{object}	utils.Response	"Invalid transition or wrong worker"
//	@Failure		404			{object}	utils.Response	"Order not found"
//	@Failure		500			{object}	utils.Response	"Internal server error"
//	@Router			/api/orders/{id}/complete [post]
func (h *OrderHandler) CompleteOrder(w http.ResponseWriter, r *http.Request) {
	orderID, ok := orderIDParam(w, r)
	if !ok {
		return
	}
	var req dto.CompleteOrderRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	order, err := h.orderService.Complete(r.Context(), orderID, req.WorkerID, req.Notes)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dto.NewOrderResponse(order))
}

// ConfirmOrder godoc
//
//	@Summary		Confirm completed work and release payouts
//	@Description	Customer confirms the finished job. Escrow is released and worker, support and platform payouts are settled atomically.
//	@Tags			Orders
//	@Accept			json
//	@Produce		json
//	@Param			id		path		int							true	"Order ID"
//	@Param			confirm	body		dto.ConfirmOrderRequestDTO	true	"Confirmation"
//	@Success		200		{object}	dto.OrderResponseDTO
//	@Failure		400		{object}	utils.Response	"Order is not awaiting confirmation or wrong customer"
//	@Failure		404		{object}	utils.Response	"Order not found"
//	@Failure		500		{object}	utils.Response	"Internal server error"
//	@Router			/api/orders/{id}/confirm [post]
func (h *OrderHandler) ConfirmOrder(w http.ResponseWriter, r *http.Request) {
	orderID, ok := orderIDParam(w, r)
	if !ok {
		return
	}
	var req dto.ConfirmOrderRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	order, err := h.orderService.Confirm(r.Context(), orderID, req.CustomerID, req.Feedback)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dto.NewOrderResponse(order))
}

// CancelOrder godoc
//
//	@Summary		Cancel an order
//	@Description	Cancel the order, release the worker's deposit and refund the customer per the refund policy (full, partial or none).
//	@Tags			Orders
//	@Accept			json
//	@Produce		json
//	@Param			id		path		int							true	"Order ID"
//	@Param			cancel	body		dto.CancelOrderRequestDTO	true	"Cancellation"
//	@Success		200		{object}	dto.OrderResponseDTO
//	@Failure		400		{object}	utils.Response	"Order cannot be cancelled or bad refund amount"
//	@Failure		404		{object}	utils.Response	"Order not found"
//	@Failure		500		{object}	utils.Response	"Internal server error"
//	@Router			/api/orders/{id}/cancel [post]
func (h *OrderHandler) CancelOrder(w http.ResponseWriter, r *http.Request) {
	orderID, ok := orderIDParam(w, r)
	if !ok {
		return
	}
	var req dto.CancelOrderRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	refundType, err := orderservice.ParseRefundType(req.RefundType)
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	order, err := h.orderService.Cancel(r.Context(), orderID, req.CancelledByID, req.Reason, refundType, req.RefundAmount)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dto.NewOrderResponse(order))
}

// GetOrder godoc
//
//	@Summary	Get order by id
//	@Tags		Orders
//	@Produce	json
//	@Param		id	path		int	true	"Order ID"
//	@Success	200	{object}	dto.OrderResponseDTO
//	@Failure	404	{object}	utils.Response	"Order not found"
//	@Failure	500	{object}	utils.Response	"Internal server error"
//	@Router		/api/orders/{id} [get]
func (h *OrderHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	orderID, ok := orderIDParam(w, r)
	if !ok {
		return
	}
	order, err := h.orderService.GetByID(r.Context(), orderID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dto.NewOrderResponse(order))
}

// ListOrders godoc
//
//	@Summary		List orders
//	@Description	Filter by status, customer or worker. Paginated, sorted by creation time.
//	@Tags			Orders
//	@Produce		json
//	@Param			status		query		string	false	"Order status"
//	@Param			customerId	query		int		false	"Customer ID"
//	@Param			workerId	query		int		false	"Worker ID"
//	@Param			page		query		int		false	"Page number, 1-based"
//	@Param			limit		query		int		false	"Page size, max 100"
//	@Success		200			{array}		dto.OrderResponseDTO
//	@Failure		400			{object}	utils.Response	"Bad filter"
//	@Failure		500			{object}	utils.Response	"Internal server error"
//	@Router			/api/orders [get]
func (h *OrderHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	filter, err := parseFilter(r)
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	list, err := h.orderService.List(r.Context(), filter)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	response := make([]dto.OrderResponseDTO, 0, len(list))
	for i := range list {
		response = append(response, dto.NewOrderResponse(&list[i]))
	}
	utils.RespondWithJSON(w, http.StatusOK, response)
}

// GetOrderHistory godoc
//
//	@Summary	Get order status history
//	@Tags		Orders
//	@Produce	json
//	@Param		id	path		int	true	"Order ID"
//	@Success	200	{array}		dto.OrderHistoryResponseDTO
//	@Failure	404	{object}	utils.Response	"Order not found"
//	@Failure	500	{object}	utils.Response	"Internal server error"
//	@Router		/api/orders/{id}/history [get]
func (h *OrderHandler) GetOrderHistory(w http.ResponseWriter, r *http.Request) {
	orderID, ok := orderIDParam(w, r)
	if !ok {
		return
	}
	entries, err := h.orderService.GetHistory(r.Context(), orderID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dto.NewOrderHistoryResponse(entries))
}

func orderIDParam(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil || id <= 0 {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid order id")
		return 0, false
	}
	return id, true
}

func parseFilter(r *http.Request) (domain.OrderFilter, error) {
	var filter domain.OrderFilter
	q := r.URL.Query()

	if s := q.Get("status"); s != "" {
		status, err := domain.ParseOrderStatus(s)
		if err != nil {
			return filter, err
		}
		filter.Status = &status
	}
	if s := q.Get("customerId"); s != "" {
		id, err := strconv.Atoi(s)
		if err != nil || id <= 0 {
			return filter, errors.New("invalid customerId")
		}
		filter.CustomerID = &id
	}
	if s := q.Get("workerId"); s != "" {
		id, err := strconv.Atoi(s)
		if err != nil || id <= 0 {
			return filter, errors.New("invalid workerId")
		}
		filter.WorkerID = &id
	}
	if s := q.Get("page"); s != "" {
		page, err := strconv.Atoi(s)
		if err != nil || page <= 0 {
			return filter, errors.New("invalid page")
		}
		filter.Page = page
	}
	if s := q.Get("limit"); s != "" {
		limit, err := strconv.Atoi(s)
		if err != nil || limit <= 0 {
			return filter, errors.New("invalid limit")
		}
		filter.Limit = limit
	}
	return filter, nil
}

func respondServiceError(w http.ResponseWriter, err error) {
	var transitionErr *domain.InvalidTransitionError
	switch {
	case errors.Is(err, orderservice.ErrOrderNotFound),
		errors.Is(err, orderservice.ErrUserNotFound),
		errors.Is(err, walletservice.ErrWalletNotFound):
		utils.RespondWithError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, walletservice.ErrInsufficientBalance):
		utils.RespondWithError(w, http.StatusPaymentRequired, err.Error())
	case errors.As(err, &transitionErr),
		errors.Is(err, orderservice.ErrValidation),
		errors.Is(err, orderservice.ErrOrderAlreadyClaimed),
		errors.Is(err, orderservice.ErrOrderNotAvailable),
		errors.Is(err, orderservice.ErrNotOrderWorker),
		errors.Is(err, orderservice.ErrNotOrderCustomer):
		utils.RespondWithError(w, http.StatusBadRequest, err.Error())
	default:
		utils.RespondWithError(w, http.StatusInternalServerError, "Internal server error")
	}
}
