package domain

import (
	"fmt"
	"strings"
)

type OrderStatus string

const (
	// StatusPending заказ создан и ждёт исполнителя;
	StatusPending OrderStatus = "PENDING"
	// StatusClaiming исполнитель в процессе отклика;
	StatusClaiming OrderStatus = "CLAIMING"
	// StatusAssigned исполнитель закреплён, работа не начата;
	StatusAssigned OrderStatus = "ASSIGNED"
	// StatusInProgress работа выполняется;
	StatusInProgress OrderStatus = "IN_PROGRESS"
	// StatusAwaitingConfirm исполнитель завершил, ждём подтверждения заказчика;
	StatusAwaitingConfirm OrderStatus = "AWAITING_CONFIRM"
	// StatusCompleted заказ подтверждён, выплаты проведены;
	StatusCompleted OrderStatus = "COMPLETED"
	// StatusCancelled заказ отменён;
	StatusCancelled OrderStatus = "CANCELLED"
	// StatusDisputed открыт спор;
	StatusDisputed OrderStatus = "DISPUTED"
	// StatusRefunded средства возвращены, терминальный статус.
	StatusRefunded OrderStatus = "REFUNDED"
)

var transitions = map[OrderStatus][]OrderStatus{
	StatusPending:         {StatusClaiming, StatusAssigned, StatusCancelled},
	StatusClaiming:        {StatusAssigned, StatusCancelled},
	StatusAssigned:        {StatusInProgress, StatusCancelled},
	StatusInProgress:      {StatusAwaitingConfirm, StatusCancelled, StatusDisputed},
	StatusAwaitingConfirm: {StatusCompleted, StatusDisputed, StatusCancelled},
	StatusCompleted:       {StatusDisputed},
	StatusCancelled:       {StatusRefunded},
	StatusDisputed:        {StatusCompleted, StatusRefunded, StatusCancelled},
	StatusRefunded:        {},
}

func ParseOrderStatus(s string) (OrderStatus, error) {
	status := OrderStatus(strings.ToUpper(strings.TrimSpace(s)))
	if _, ok := transitions[status]; !ok {
		return "", fmt.Errorf("unknown order status: %q", s)
	}
	return status, nil
}

func AllowedTransitions(from OrderStatus) []OrderStatus {
	return transitions[from]
}

func (s OrderStatus) CanTransitionTo(to OrderStatus) bool {
	for _, next := range transitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

func (s OrderStatus) IsTerminal() bool {
	return len(transitions[s]) == 0
}

// InvalidTransitionError names the current state, the requested state and
// the allowed set, so the caller can render a precise message.
type InvalidTransitionError struct {
	From OrderStatus
	To   OrderStatus
}

func (e *InvalidTransitionError) Error() string {
	allowed := AllowedTransitions(e.From)
	names := make([]string, len(allowed))
	for i, s := range allowed {
		names[i] = string(s)
	}
	return fmt.Sprintf("invalid transition from %s to %s, allowed: {%s}",
		e.From, e.To, strings.Join(names, ", "))
}

// ValidateTransition returns an InvalidTransitionError when the move is not
// in the transition table.
func ValidateTransition(from, to OrderStatus) error {
	if !from.CanTransitionTo(to) {
		return &InvalidTransitionError{From: from, To: to}
	}
	return nil
}
