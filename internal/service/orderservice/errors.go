package orderservice

import "errors"

var (
	ErrOrderNotFound       = errors.New("order not found")
	ErrUserNotFound        = errors.New("user not found")
	ErrValidation          = errors.New("bad request")
	ErrOrderAlreadyClaimed = errors.New("order already has a worker assigned")
	ErrOrderNotAvailable   = errors.New("order is not available for claiming")
	ErrNotOrderWorker      = errors.New("caller is not the assigned worker")
	ErrNotOrderCustomer    = errors.New("caller is not the order customer")
)
