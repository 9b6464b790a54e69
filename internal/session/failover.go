package session

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

// recoveryInterval — пауза перед повторной попыткой вернуться на primary.
const recoveryInterval = time.Minute

// FailoverStore пишет в primary, а при его отказе прозрачно переключается
// на fallback. Раз в минуту пробует вернуться обратно.
type FailoverStore struct {
	primary  Store
	fallback Store
	logger   *zerolog.Logger

	isDown    atomic.Bool
	downSince atomic.Int64
}

func NewFailoverStore(primary, fallback Store, logger *zerolog.Logger) *FailoverStore {
	return &FailoverStore{
		primary:  primary,
		fallback: fallback,
		logger:   logger,
	}
}

func (s *FailoverStore) markDown() {
	s.isDown.Store(true)
	s.downSince.Store(time.Now().UnixNano())
}

func (s *FailoverStore) shouldRetryPrimary() bool {
	return time.Since(time.Unix(0, s.downSince.Load())) > recoveryInterval
}

func (s *FailoverStore) Get(ctx context.Context, token string) (*Session, error) {
	if !s.isDown.Load() || s.shouldRetryPrimary() {
		sess, err := s.primary.Get(ctx, token)
		if err == nil {
			s.isDown.Store(false)
			return sess, nil
		}
		s.logger.Error().Err(err).Msg("primary session store failed, falling back to memory")
		s.markDown()
	}
	return s.fallback.Get(ctx, token)
}

func (s *FailoverStore) Set(ctx context.Context, sess *Session) error {
	if !s.isDown.Load() || s.shouldRetryPrimary() {
		err := s.primary.Set(ctx, sess)
		if err == nil {
			s.isDown.Store(false)
			return nil
		}
		s.logger.Error().Err(err).Msg("primary session store failed, falling back to memory")
		s.markDown()
	}
	return s.fallback.Set(ctx, sess)
}

func (s *FailoverStore) Clear(ctx context.Context, token string) error {
	if !s.isDown.Load() || s.shouldRetryPrimary() {
		err := s.primary.Clear(ctx, token)
		if err == nil {
			s.isDown.Store(false)
		} else {
			s.logger.Error().Err(err).Msg("primary session store failed, falling back to memory")
			s.markDown()
		}
	}
	// Чистим и fallback: токен мог осесть там во время сбоя
	return s.fallback.Clear(ctx, token)
}
