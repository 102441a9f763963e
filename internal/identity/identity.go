// Package identity резолвит внешние чат-идентификаторы пользователей
// во внутренние идентификаторы. Сначала спрашивает identity-сервис,
// при его недоступности падает обратно на локальную таблицу users.
package identity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"go.uber.org/zap"

	"github.com/gigmart/backend/internal/domain"
)

var ErrUnknownHandle = errors.New("unknown chat handle")

type UserRepo interface {
	GetByChatHandle(ctx context.Context, handle string) (*domain.User, error)
}

type HTTPClient interface {
	Get(url string, headers http.Header) (statusCode int, respBody []byte, respHeaders http.Header, err error)
}

type Resolver interface {
	Resolve(ctx context.Context, handle string) (int, error)
}

type Service struct {
	baseURL string
	client  HTTPClient
	users   UserRepo
}

func New(baseURL string, client HTTPClient, users UserRepo) *Service {
	return &Service{baseURL: baseURL, client: client, users: users}
}

// Resolve возвращает внутренний идентификатор пользователя по его
// чат-хендлу.
func (s *Service) Resolve(ctx context.Context, handle string) (int, error) {
	if handle == "" {
		return 0, ErrUnknownHandle
	}
	if s.baseURL != "" && s.client != nil {
		if id, err := s.resolveRemote(handle); err == nil {
			return id, nil
		} else if !errors.Is(err, ErrUnknownHandle) {
			zap.L().Warn("identity service lookup failed, falling back to local store",
				zap.String("handle", handle), zap.Error(err))
		}
	}

	user, err := s.users.GetByChatHandle(ctx, handle)
	if err != nil {
		return 0, fmt.Errorf("lookup by chat handle: %w", err)
	}
	if user == nil {
		return 0, ErrUnknownHandle
	}
	return user.ID, nil
}

func (s *Service) resolveRemote(handle string) (int, error) {
	endpoint := fmt.Sprintf("%s/api/identity/%s", s.baseURL, url.PathEscape(handle))
	status, body, _, err := s.client.Get(endpoint, nil)
	if err != nil {
		return 0, err
	}
	switch status {
	case http.StatusOK:
		var resp struct {
			UserID int `json:"userId"`
		}
		if err := json.Unmarshal(body, &resp); err != nil {
			return 0, fmt.Errorf("decode identity response: %w", err)
		}
		if resp.UserID == 0 {
			return 0, ErrUnknownHandle
		}
		return resp.UserID, nil
	case http.StatusNotFound:
		return 0, ErrUnknownHandle
	default:
		return 0, fmt.Errorf("identity service returned status %d", status)
	}
}
