package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/gigmart/backend/internal/domain"
)

type CreateOrderRequestDTO struct {
	CustomerID     int             `json:"customerId" example:"101"`
	CustomerHandle string          `json:"customerHandle,omitempty" example:"@ivan_petrov"`
	WorkerID       *int            `json:"workerId,omitempty" example:"202"`
	SupportID      *int            `json:"supportId,omitempty" example:"303"`
	ServiceID      *int            `json:"serviceId,omitempty" example:"7"`
	OrderValue     decimal.Decimal `json:"orderValue" example:"100"`
	DepositAmount  decimal.Decimal `json:"depositAmount" example:"20"`
	Currency       string          `json:"currency,omitempty" example:"USD"`
	JobDetails     string          `json:"jobDetails,omitempty" example:"Assemble the wardrobe"`
}

type ClaimOrderRequestDTO struct {
	WorkerID int `json:"workerId" example:"202"`
}

type AssignWorkerRequestDTO struct {
	WorkerID     int    `json:"workerId" example:"202"`
	AssignedByID int    `json:"assignedById" example:"303"`
	Notes        string `json:"notes,omitempty" example:"assigned after phone screening"`
}

type UpdateStatusRequestDTO struct {
	Status      string `json:"status" example:"IN_PROGRESS"`
	ChangedByID int    `json:"changedById" example:"202"`
	Reason      string `json:"reason,omitempty" example:"work started"`
	Notes       string `json:"notes,omitempty"`
}

type CompleteOrderRequestDTO struct {
	WorkerID int    `json:"workerId" example:"202"`
	Notes    string `json:"notes,omitempty" example:"photos attached in chat"`
}

type ConfirmOrderRequestDTO struct {
	CustomerID int    `json:"customerId" example:"101"`
	Feedback   string `json:"feedback,omitempty" example:"great job"`
}

type CancelOrderRequestDTO struct {
	CancelledByID int              `json:"cancelledById" example:"303"`
	Reason        string           `json:"reason,omitempty" example:"customer request"`
	RefundType    string           `json:"refundType" example:"full"`
	RefundAmount  *decimal.Decimal `json:"refundAmount,omitempty" example:"60"`
}

type OrderResponseDTO struct {
	ID              int             `json:"id" example:"1"`
	SequenceNumber  int64           `json:"sequenceNumber" example:"1001"`
	CustomerID      int             `json:"customerId" example:"101"`
	WorkerID        *int            `json:"workerId,omitempty" example:"202"`
	SupportID       *int            `json:"supportId,omitempty" example:"303"`
	ServiceID       *int            `json:"serviceId,omitempty" example:"7"`
	OrderValue      decimal.Decimal `json:"orderValue" example:"100"`
	DepositAmount   decimal.Decimal `json:"depositAmount" example:"20"`
	Currency        string          `json:"currency" example:"USD"`
	Status          string          `json:"status" example:"PENDING"`
	WorkerPayout    decimal.Decimal `json:"workerPayout" example:"80"`
	SupportPayout   decimal.Decimal `json:"supportPayout" example:"5"`
	SystemPayout    decimal.Decimal `json:"systemPayout" example:"15"`
	PayoutProcessed bool            `json:"payoutProcessed" example:"false"`
	JobDetails      string          `json:"jobDetails,omitempty"`
	CreatedAt       time.Time       `json:"createdAt"`
	AssignedAt      *time.Time      `json:"assignedAt,omitempty"`
	StartedAt       *time.Time      `json:"startedAt,omitempty"`
	CompletedAt     *time.Time      `json:"completedAt,omitempty"`
	ConfirmedAt     *time.Time      `json:"confirmedAt,omitempty"`
	CancelledAt     *time.Time      `json:"cancelledAt,omitempty"`
}

type OrderHistoryResponseDTO struct {
	FromStatus  string    `json:"fromStatus,omitempty" example:"PENDING"`
	ToStatus    string    `json:"toStatus" example:"ASSIGNED"`
	ChangedByID int       `json:"changedById" example:"303"`
	Reason      string    `json:"reason,omitempty"`
	Notes       string    `json:"notes,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

func NewOrderResponse(o *domain.Order) OrderResponseDTO {
	return OrderResponseDTO{
		ID:              o.ID,
		SequenceNumber:  o.SequenceNumber,
		CustomerID:      o.CustomerID,
		WorkerID:        o.WorkerID,
		SupportID:       o.SupportID,
		ServiceID:       o.ServiceID,
		OrderValue:      o.OrderValue,
		DepositAmount:   o.DepositAmount,
		Currency:        o.Currency,
		Status:          string(o.Status),
		WorkerPayout:    o.WorkerPayout,
		SupportPayout:   o.SupportPayout,
		SystemPayout:    o.SystemPayout,
		PayoutProcessed: o.PayoutProcessed,
		JobDetails:      o.JobDetails,
		CreatedAt:       o.CreatedAt,
		AssignedAt:      o.AssignedAt,
		StartedAt:       o.StartedAt,
		CompletedAt:     o.CompletedAt,
		ConfirmedAt:     o.ConfirmedAt,
		CancelledAt:     o.CancelledAt,
	}
}

func NewOrderHistoryResponse(entries []domain.OrderStatusHistory) []OrderHistoryResponseDTO {
	out := make([]OrderHistoryResponseDTO, 0, len(entries))
	for _, e := range entries {
		out = append(out, OrderHistoryResponseDTO{
			FromStatus:  string(e.FromStatus),
			ToStatus:    string(e.ToStatus),
			ChangedByID: e.ChangedBy,
			Reason:      e.Reason,
			Notes:       e.Notes,
			CreatedAt:   e.CreatedAt,
		})
	}
	return out
}
