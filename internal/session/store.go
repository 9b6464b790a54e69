// Package session хранит сессии вошедших операторов. Хранилище
// взаимозаменяемо: Redis для внешней оболочки, память по умолчанию,
// failover деградирует в память при недоступном Redis.
package session

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Session связывает выданный оболочке токен с сотрудником.
type Session struct {
	Token     string    `json:"token"`
	UserID    int64     `json:"user_id"`
	Name      string    `json:"name"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// NewSession выдает сессию со свежим случайным токеном.
func NewSession(userID int64, name, role string) *Session {
	return &Session{
		Token:     uuid.NewString(),
		UserID:    userID,
		Name:      name,
		Role:      role,
		CreatedAt: time.Now(),
	}
}

// Store — контракт хранилища сессий. Get возвращает nil, nil для
// неизвестного или истекшего токена.
type Store interface {
	Get(ctx context.Context, token string) (*Session, error)
	Set(ctx context.Context, s *Session) error
	Clear(ctx context.Context, token string) error
}
