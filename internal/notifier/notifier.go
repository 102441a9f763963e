// Package notifier доставляет события жизненного цикла заказов во
// внешние вебхуки (чат-бот, админка). Доставка асинхронная: события
// ставятся в пул воркеров и не блокируют обработку запроса.
package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	poolSize      = 5
	maxRetries    = 3
	retryInterval = time.Second * 1
)

type HTTPClient interface {
	Post(url string, body []byte, headers http.Header) (statusCode int, respBody []byte, err error)
}

// Event это конверт вебхука: имя события и произвольная полезная
// нагрузка (обычно заказ или его фрагмент).
type Event struct {
	Event      string    `json:"event"`
	OccurredAt time.Time `json:"occurredAt"`
	Payload    any       `json:"payload,omitempty"`
}

type Service struct {
	urls   []string
	client HTTPClient
	pool   WorkerPoolI
}

// New создаёт диспетчер событий. address может содержать несколько
// адресов вебхуков через запятую; пустой address выключает доставку.
func New(address string, client HTTPClient) *Service {
	var urls []string
	for _, u := range strings.Split(address, ",") {
		if u = strings.TrimSpace(u); u != "" {
			urls = append(urls, u)
		}
	}
	return &Service{
		urls:   urls,
		client: client,
		pool:   NewWorkerPool(poolSize),
	}
}

// Notify ставит событие в очередь на доставку всем подписчикам.
// Ошибки доставки логируются и не влияют на вызывающего.
func (s *Service) Notify(event string, payload any) {
	if len(s.urls) == 0 {
		return
	}
	ev := Event{Event: event, OccurredAt: time.Now().UTC(), Payload: payload}

	err := s.pool.AddTask(context.Background(), func() error {
		return s.dispatch(ev)
	})
	if err != nil {
		zap.L().Error("Failed to enqueue notification", zap.String("event", event), zap.Error(err))
	}
}

func (s *Service) dispatch(ev Event) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event %s: %w", ev.Event, err)
	}

	var g errgroup.Group
	for _, url := range s.urls {
		url := url
		g.Go(func() error {
			return s.send(url, ev.Event, body)
		})
	}
	return g.Wait()
}

func (s *Service) send(url, event string, body []byte) error {
	var lastErr error
	for attempt := 1; attempt <= maxRetries; attempt++ {
		status, _, err := s.client.Post(url, body, nil)
		if err == nil && status < http.StatusInternalServerError {
			if status >= http.StatusBadRequest {
				zap.L().Warn("Webhook rejected event",
					zap.String("url", url), zap.String("event", event), zap.Int("status", status))
			}
			return nil
		}
		if err != nil {
			lastErr = err
		} else {
			lastErr = fmt.Errorf("webhook %s returned status %d", url, status)
		}
		time.Sleep(retryInterval)
	}
	return fmt.Errorf("deliver %s to %s: %w", event, url, lastErr)
}

func (s *Service) Close() {
	s.pool.Close()
}
