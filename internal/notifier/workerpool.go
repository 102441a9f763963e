package notifier

import (
	"context"

	"go.uber.org/zap"
)

// Буфер очереди держит всплеск событий (подтверждение заказа публикует
// несколько событий подряд), не блокируя обработчик запроса.
const queueFactor = 4

type WorkerPoolI interface {
	AddTask(ctx context.Context, task Task) error
	Close()
}

// Task доставляет одно событие всем подписчикам.
type Task func() error

type WorkerPool struct {
	queue chan Task
}

func NewWorkerPool(workers int) *WorkerPool {
	wp := &WorkerPool{
		queue: make(chan Task, workers*queueFactor),
	}
	for i := 0; i < workers; i++ {
		go wp.worker()
	}
	return wp
}

func (wp *WorkerPool) worker() {
	for task := range wp.queue {
		if err := task(); err != nil {
			zap.L().Error("Notification delivery failed", zap.Error(err))
		}
	}
}

func (wp *WorkerPool) AddTask(ctx context.Context, task Task) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case wp.queue <- task:
		return nil
	}
}

func (wp *WorkerPool) Close() {
	select {
	case <-wp.queue:
	default:
		close(wp.queue)
	}
}
