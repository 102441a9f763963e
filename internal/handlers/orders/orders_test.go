package orders

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	gomock "go.uber.org/mock/gomock"

	"github.com/gigmart/backend/internal/domain"
	"github.com/gigmart/backend/internal/dto"
	"github.com/gigmart/backend/internal/identity"
	orderservice "github.com/gigmart/backend/internal/service/orderservice"
	"github.com/gigmart/backend/internal/service/walletservice"
)

func NewMock(t *testing.T) (*OrderHandler, *MockService, *MockResolver) {
	ctrl := gomock.NewController(t)
	service := NewMockService(ctrl)
	resolver := NewMockResolver(ctrl)
	handler := New(service, resolver)
	defer ctrl.Finish()
	return handler, service, resolver
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func newRequest(method, target, body, orderID string) *http.Request {
	var r *http.Request
	if body == "" {
		r = httptest.NewRequest(method, target, nil)
	} else {
		r = httptest.NewRequest(method, target, bytes.NewBufferString(body))
	}
	if orderID != "" {
		rctx := chi.NewRouteContext()
		rctx.URLParams.Add("id", orderID)
		r = r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
	}
	return r
}

func TestCreateOrderHandler(t *testing.T) {
	handler, service, resolver := NewMock(t)

	tests := []struct {
		name          string
		body          string
		prepareMock   func()
		expectedCode  int
		expectedError string
	}{
		{
			name: "Successful creation",
			body: `{"customerId":101,"orderValue":"100","depositAmount":"20"}`,
			prepareMock: func() {
				service.EXPECT().
					Create(gomock.Any(), orderservice.CreateOrderParams{
						CustomerID:    101,
						OrderValue:    dec("100"),
						DepositAmount: dec("20"),
					}).
					Return(&domain.Order{
						ID:         1,
						CustomerID: 101,
						OrderValue: dec("100"),
						Status:     domain.StatusPending,
					}, nil)
			},
			expectedCode: http.StatusCreated,
		},
		{
			name: "Customer given by chat handle",
			body: `{"customerHandle":"@ivan","orderValue":"100","depositAmount":"20"}`,
			prepareMock: func() {
				resolver.EXPECT().
					Resolve(gomock.Any(), "@ivan").
					Return(101, nil)
				service.EXPECT().
					Create(gomock.Any(), orderservice.CreateOrderParams{
						CustomerID:    101,
						OrderValue:    dec("100"),
						DepositAmount: dec("20"),
					}).
					Return(&domain.Order{ID: 1, CustomerID: 101, Status: domain.StatusPending}, nil)
			},
			expectedCode: http.StatusCreated,
		},
		{
			name: "Unknown chat handle",
			body: `{"customerHandle":"@nobody","orderValue":"100"}`,
			prepareMock: func() {
				resolver.EXPECT().
					Resolve(gomock.Any(), "@nobody").
					Return(0, identity.ErrUnknownHandle)
			},
			expectedCode:  http.StatusNotFound,
			expectedError: "Unknown customer handle",
		},
		{
			name:          "Invalid request body",
			body:          `{"customerId":`,
			prepareMock:   func() {},
			expectedCode:  http.StatusBadRequest,
			expectedError: "Invalid request body",
		},
		{
			name: "Customer not found",
			body: `{"customerId":999,"orderValue":"100"}`,
			prepareMock: func() {
				service.EXPECT().
					Create(gomock.Any(), gomock.Any()).
					Return(nil, orderservice.ErrUserNotFound)
			},
			expectedCode:  http.StatusNotFound,
			expectedError: "user not found",
		},
		{
			name: "Insufficient balance",
			body: `{"customerId":101,"orderValue":"100"}`,
			prepareMock: func() {
				service.EXPECT().
					Create(gomock.Any(), gomock.Any()).
					Return(nil, &walletservice.InsufficientBalanceError{
						Role:      domain.RoleCustomer,
						Required:  dec("100"),
						Available: dec("40"),
					})
			},
			expectedCode: http.StatusPaymentRequired,
		},
		{
			name: "Validation error",
			body: `{"customerId":101,"orderValue":"0"}`,
			prepareMock: func() {
				service.EXPECT().
					Create(gomock.Any(), gomock.Any()).
					Return(nil, orderservice.ErrValidation)
			},
			expectedCode: http.StatusBadRequest,
		},
		{
			name: "Internal server error",
			body: `{"customerId":101,"orderValue":"100"}`,
			prepareMock: func() {
				service.EXPECT().
					Create(gomock.Any(), gomock.Any()).
					Return(nil, errors.New("error"))
			},
			expectedCode:  http.StatusInternalServerError,
			expectedError: "Internal server error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.prepareMock()
			r := newRequest(http.MethodPost, "/api/orders", tt.body, "")
			w := httptest.NewRecorder()

			handler.CreateOrder(w, r)

			assert.Equal(t, tt.expectedCode, w.Code)
			if tt.expectedError != "" {
				assert.Contains(t, w.Body.String(), tt.expectedError)
			}
			if tt.expectedCode == http.StatusCreated {
				var body dto.OrderResponseDTO
				_ = json.NewDecoder(w.Body).Decode(&body)
				assert.Equal(t, 1, body.ID)
				assert.Equal(t, 101, body.CustomerID)
			}
		})
	}
}

func TestClaimOrderHandler(t *testing.T) {
	handler, service, _ := NewMock(t)

	tests := []struct {
		name          string
		orderID       string
		body          string
		prepareMock   func()
		expectedCode  int
		expectedError string
	}{
		{
			name:    "Successful claim",
			orderID: "1",
			body:    `{"workerId":202}`,
			prepareMock: func() {
				service.EXPECT().
					Claim(gomock.Any(), 1, 202).
					Return(&domain.Order{ID: 1, Status: domain.StatusInProgress}, nil)
			},
			expectedCode: http.StatusOK,
		},
		{
			name:          "Invalid order id",
			orderID:       "abc",
			body:          `{"workerId":202}`,
			prepareMock:   func() {},
			expectedCode:  http.StatusBadRequest,
			expectedError: "Invalid order id",
		},
		{
			name:    "Order already claimed",
			orderID: "1",
			body:    `{"workerId":202}`,
			prepareMock: func() {
				service.EXPECT().
					Claim(gomock.Any(), 1, 202).
					Return(nil, orderservice.ErrOrderAlreadyClaimed)
			},
			expectedCode:  http.StatusBadRequest,
			expectedError: "already has a worker",
		},
		{
			name:    "Order not available",
			orderID: "1",
			body:    `{"workerId":202}`,
			prepareMock: func() {
				service.EXPECT().
					Claim(gomock.Any(), 1, 202).
					Return(nil, orderservice.ErrOrderNotAvailable)
			},
			expectedCode: http.StatusBadRequest,
		},
		{
			name:    "Worker balance too low",
			orderID: "1",
			body:    `{"workerId":202}`,
			prepareMock: func() {
				service.EXPECT().
					Claim(gomock.Any(), 1, 202).
					Return(nil, &walletservice.InsufficientBalanceError{
						Role:      domain.RoleWorker,
						Required:  dec("20"),
						Available: dec("5"),
					})
			},
			expectedCode: http.StatusPaymentRequired,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.prepareMock()
			r := newRequest(http.MethodPost, "/api/orders/1/claim", tt.body, tt.orderID)
			w := httptest.NewRecorder()

			handler.ClaimOrder(w, r)

			assert.Equal(t, tt.expectedCode, w.Code)
			if tt.expectedError != "" {
				assert.Contains(t, w.Body.String(), tt.expectedError)
			}
		})
	}
}

func TestUpdateStatusHandler(t *testing.T) {
	handler, service, _ := NewMock(t)

	tests := []struct {
		name          string
		body          string
		prepareMock   func()
		expectedCode  int
		expectedError string
	}{
		{
			name: "Successful update",
			body: `{"status":"IN_PROGRESS","changedById":202}`,
			prepareMock: func() {
				service.EXPECT().
					UpdateStatus(gomock.Any(), 1, domain.StatusInProgress, 202, "", "").
					Return(&domain.Order{ID: 1, Status: domain.StatusInProgress}, nil)
			},
			expectedCode: http.StatusOK,
		},
		{
			name:          "Unknown status",
			body:          `{"status":"SHIPPED","changedById":202}`,
			prepareMock:   func() {},
			expectedCode:  http.StatusBadRequest,
			expectedError: "unknown order status",
		},
		{
			name: "Invalid transition",
			body: `{"status":"IN_PROGRESS","changedById":202}`,
			prepareMock: func() {
				service.EXPECT().
					UpdateStatus(gomock.Any(), 1, domain.StatusInProgress, 202, "", "").
					Return(nil, &domain.InvalidTransitionError{
						From: domain.StatusCompleted,
						To:   domain.StatusInProgress,
					})
			},
			expectedCode:  http.StatusBadRequest,
			expectedError: "invalid transition",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.prepareMock()
			r := newRequest(http.MethodPatch, "/api/orders/1/status", tt.body, "1")
			w := httptest.NewRecorder()

			handler.UpdateStatus(w, r)

			assert.Equal(t, tt.expectedCode, w.Code)
			if tt.expectedError != "" {
				assert.Contains(t, w.Body.String(), tt.expectedError)
			}
		})
	}
}

func TestCompleteOrderHandler(t *testing.T) {
	handler, service, _ := NewMock(t)

	tests := []struct {
		name          string
		body          string
		prepareMock   func()
		expectedCode  int
		expectedError string
	}{
		{
			name: "Successful completion",
			body: `{"workerId":202,"notes":"done"}`,
			prepareMock: func() {
				service.EXPECT().
					Complete(gomock.Any(), 1, 202, "done").
					Return(&domain.Order{ID: 1, Status: domain.StatusAwaitingConfirm}, nil)
			},
			expectedCode: http.StatusOK,
		},
		{
			name: "Wrong worker",
			body: `{"workerId":999}`,
			prepareMock: func() {
				service.EXPECT().
					Complete(gomock.Any(), 1, 999, "").
					Return(nil, orderservice.ErrNotOrderWorker)
			},
			expectedCode:  http.StatusBadRequest,
			expectedError: "not the assigned worker",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.prepareMock()
			r := newRequest(http.MethodPost, "/api/orders/1/complete", tt.body, "1")
			w := httptest.NewRecorder()

			handler.CompleteOrder(w, r)

			assert.Equal(t, tt.expectedCode, w.Code)
			if tt.expectedError != "" {
				assert.Contains(t, w.Body.String(), tt.expectedError)
			}
		})
	}
}

func TestConfirmOrderHandler(t *testing.T) {
	handler, service, _ := NewMock(t)

	tests := []struct {
		name          string
		body          string
		prepareMock   func()
		expectedCode  int
		expectedError string
	}{
		{
			name: "Successful confirmation",
			body: `{"customerId":101,"feedback":"great job"}`,
			prepareMock: func() {
				service.EXPECT().
					Confirm(gomock.Any(), 1, 101, "great job").
					Return(&domain.Order{ID: 1, Status: domain.StatusCompleted, PayoutProcessed: true}, nil)
			},
			expectedCode: http.StatusOK,
		},
		{
			name: "Wrong customer",
			body: `{"customerId":999}`,
			prepareMock: func() {
				service.EXPECT().
					Confirm(gomock.Any(), 1, 999, "").
					Return(nil, orderservice.ErrNotOrderCustomer)
			},
			expectedCode:  http.StatusBadRequest,
			expectedError: "not the order customer",
		},
		{
			name: "Order not found",
			body: `{"customerId":101}`,
			prepareMock: func() {
				service.EXPECT().
					Confirm(gomock.Any(), 1, 101, "").
					Return(nil, orderservice.ErrOrderNotFound)
			},
			expectedCode:  http.StatusNotFound,
			expectedError: "order not found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.prepareMock()
			r := newRequest(http.MethodPost, "/api/orders/1/confirm", tt.body, "1")
			w := httptest.NewRecorder()

			handler.ConfirmOrder(w, r)

			assert.Equal(t, tt.expectedCode, w.Code)
			if tt.expectedError != "" {
				assert.Contains(t, w.Body.String(), tt.expectedError)
			}
		})
	}
}

func TestCancelOrderHandler(t *testing.T) {
	handler, service, _ := NewMock(t)

	refund := dec("60")
	tests := []struct {
		name          string
		body          string
		prepareMock   func()
		expectedCode  int
		expectedError string
	}{
		{
			name: "Full refund",
			body: `{"cancelledById":303,"reason":"customer request","refundType":"full"}`,
			prepareMock: func() {
				service.EXPECT().
					Cancel(gomock.Any(), 1, 303, "customer request", orderservice.RefundFull, (*decimal.Decimal)(nil)).
					Return(&domain.Order{ID: 1, Status: domain.StatusRefunded}, nil)
			},
			expectedCode: http.StatusOK,
		},
		{
			name: "Partial refund",
			body: `{"cancelledById":303,"refundType":"partial","refundAmount":"60"}`,
			prepareMock: func() {
				service.EXPECT().
					Cancel(gomock.Any(), 1, 303, "", orderservice.RefundPartial, &refund).
					Return(&domain.Order{ID: 1, Status: domain.StatusRefunded}, nil)
			},
			expectedCode: http.StatusOK,
		},
		{
			name:          "Unknown refund type",
			body:          `{"cancelledById":303,"refundType":"half"}`,
			prepareMock:   func() {},
			expectedCode:  http.StatusBadRequest,
			expectedError: "unknown refund type",
		},
		{
			name: "Order already settled",
			body: `{"cancelledById":303,"refundType":"full"}`,
			prepareMock: func() {
				service.EXPECT().
					Cancel(gomock.Any(), 1, 303, "", orderservice.RefundFull, (*decimal.Decimal)(nil)).
					Return(nil, &domain.InvalidTransitionError{
						From: domain.StatusCompleted,
						To:   domain.StatusCancelled,
					})
			},
			expectedCode:  http.StatusBadRequest,
			expectedError: "invalid transition",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.prepareMock()
			r := newRequest(http.MethodPost, "/api/orders/1/cancel", tt.body, "1")
			w := httptest.NewRecorder()

			handler.CancelOrder(w, r)

			assert.Equal(t, tt.expectedCode, w.Code)
			if tt.expectedError != "" {
				assert.Contains(t, w.Body.String(), tt.expectedError)
			}
		})
	}
}

func TestGetOrderHandler(t *testing.T) {
	handler, service, _ := NewMock(t)

	tests := []struct {
		name          string
		orderID       string
		prepareMock   func()
		expectedCode  int
		expectedError string
	}{
		{
			name:    "Order found",
			orderID: "1",
			prepareMock: func() {
				service.EXPECT().
					GetByID(gomock.Any(), 1).
					Return(&domain.Order{
						ID:         1,
						CustomerID: 101,
						OrderValue: dec("100"),
						Status:     domain.StatusPending,
					}, nil)
			},
			expectedCode: http.StatusOK,
		},
		{
			name:    "Order not found",
			orderID: "42",
			prepareMock: func() {
				service.EXPECT().
					GetByID(gomock.Any(), 42).
					Return(nil, orderservice.ErrOrderNotFound)
			},
			expectedCode:  http.StatusNotFound,
			expectedError: "order not found",
		},
		{
			name:          "Invalid order id",
			orderID:       "0",
			prepareMock:   func() {},
			expectedCode:  http.StatusBadRequest,
			expectedError: "Invalid order id",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.prepareMock()
			r := newRequest(http.MethodGet, "/api/orders/"+tt.orderID, "", tt.orderID)
			w := httptest.NewRecorder()

			handler.GetOrder(w, r)

			assert.Equal(t, tt.expectedCode, w.Code)
			if tt.expectedError != "" {
				assert.Contains(t, w.Body.String(), tt.expectedError)
			}
		})
	}
}

func TestListOrdersHandler(t *testing.T) {
	handler, service, _ := NewMock(t)

	status := domain.StatusPending
	customerID := 101
	tests := []struct {
		name          string
		target        string
		prepareMock   func()
		expectedCode  int
		expectedLen   int
		expectedError string
	}{
		{
			name:   "No filter",
			target: "/api/orders",
			prepareMock: func() {
				service.EXPECT().
					List(gomock.Any(), domain.OrderFilter{}).
					Return([]domain.Order{{ID: 1}, {ID: 2}}, nil)
			},
			expectedCode: http.StatusOK,
			expectedLen:  2,
		},
		{
			name:   "Filter by status and customer",
			target: "/api/orders?status=PENDING&customerId=101&page=2&limit=10",
			prepareMock: func() {
				service.EXPECT().
					List(gomock.Any(), domain.OrderFilter{
						Status:     &status,
						CustomerID: &customerID,
						Page:       2,
						Limit:      10,
					}).
					Return([]domain.Order{{ID: 3}}, nil)
			},
			expectedCode: http.StatusOK,
			expectedLen:  1,
		},
		{
			name:          "Unknown status filter",
			target:        "/api/orders?status=SHIPPED",
			prepareMock:   func() {},
			expectedCode:  http.StatusBadRequest,
			expectedError: "unknown order status",
		},
		{
			name:          "Bad page",
			target:        "/api/orders?page=-1",
			prepareMock:   func() {},
			expectedCode:  http.StatusBadRequest,
			expectedError: "invalid page",
		},
		{
			name:   "Internal server error",
			target: "/api/orders",
			prepareMock: func() {
				service.EXPECT().
					List(gomock.Any(), domain.OrderFilter{}).
					Return(nil, errors.New("error"))
			},
			expectedCode: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.prepareMock()
			r := newRequest(http.MethodGet, tt.target, "", "")
			w := httptest.NewRecorder()

			handler.ListOrders(w, r)

			assert.Equal(t, tt.expectedCode, w.Code)
			if tt.expectedError != "" {
				assert.Contains(t, w.Body.String(), tt.expectedError)
			}
			if tt.expectedCode == http.StatusOK {
				var body []dto.OrderResponseDTO
				_ = json.NewDecoder(w.Body).Decode(&body)
				assert.Len(t, body, tt.expectedLen)
			}
		})
	}
}

func TestGetOrderHistoryHandler(t *testing.T) {
	handler, service, _ := NewMock(t)

	tests := []struct {
		name          string
		prepareMock   func()
		expectedCode  int
		expectedError string
	}{
		{
			name: "History found",
			prepareMock: func() {
				service.EXPECT().
					GetHistory(gomock.Any(), 1).
					Return([]domain.OrderStatusHistory{
						{ID: 1, OrderID: 1, ToStatus: domain.StatusPending},
						{ID: 2, OrderID: 1, FromStatus: domain.StatusPending, ToStatus: domain.StatusInProgress},
					}, nil)
			},
			expectedCode: http.StatusOK,
		},
		{
			name: "Order not found",
			prepareMock: func() {
				service.EXPECT().
					GetHistory(gomock.Any(), 1).
					Return(nil, orderservice.ErrOrderNotFound)
			},
			expectedCode:  http.StatusNotFound,
			expectedError: "order not found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.prepareMock()
			r := newRequest(http.MethodGet, "/api/orders/1/history", "", "1")
			w := httptest.NewRecorder()

			handler.GetOrderHistory(w, r)

			assert.Equal(t, tt.expectedCode, w.Code)
			if tt.expectedError != "" {
				assert.Contains(t, w.Body.String(), tt.expectedError)
			}
			if tt.expectedCode == http.StatusOK {
				var body []dto.OrderHistoryResponseDTO
				_ = json.NewDecoder(w.Body).Decode(&body)
				assert.Len(t, body, 2)
			}
		})
	}
}
