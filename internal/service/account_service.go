package service

import (
	"context"
	"strings"

	"studiocrm/internal/apperrors"
	"studiocrm/internal/auth"
	"studiocrm/internal/database"
	"studiocrm/internal/models"

	"github.com/rs/zerolog"
)

// Единое сообщение для неизвестного телефона и неверного пароля:
// перечисление учеток по ответам невозможно.
const msgInvalidCredentials = "Неверный телефон или пароль"

// AccountService отвечает за регистрацию, вход и роли сотрудников.
type AccountService struct {
	db          *database.DB
	hasher      auth.Hasher
	minPassword int
	logger      *zerolog.Logger
}

func NewAccountService(db *database.DB, hasher auth.Hasher, minPasswordLength int, logger *zerolog.Logger) *AccountService {
	if minPasswordLength < 1 {
		minPasswordLength = models.DefaultMinPasswordLength
	}
	return &AccountService{
		db:          db,
		hasher:      hasher,
		minPassword: minPasswordLength,
		logger:      logger,
	}
}

// Register создает учетку сотрудника с ролью worker.
func (s *AccountService) Register(ctx context.Context, name, phone, password string) (*models.User, error) {
	name = strings.TrimSpace(name)
	phone = strings.TrimSpace(phone)

	if name == "" {
		return nil, apperrors.New(apperrors.Validation, "Имя не может быть пустым")
	}
	if phone == "" {
		return nil, apperrors.New(apperrors.Validation, "Телефон не может быть пустым")
	}
	if len([]rune(password)) < s.minPassword {
		return nil, apperrors.Newf(apperrors.Validation, "Пароль должен содержать минимум %d символа", s.minPassword)
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.Internal, "Ошибка хеширования пароля", err)
	}

	user, err := s.db.CreateUser(ctx, name, phone, hash)
	if err != nil {
		return nil, err
	}

	s.logger.Info().Int64("user_id", user.ID).Msg("user registered")
	return user, nil
}

// Login проверяет пароль по текущей схеме, а для легаси-дайджеста
// при успехе сразу перекодирует учетку в современную схему. Аккаунты,
// которые больше не входят, остаются на старой схеме — массового
// сброса паролей нет.
func (s *AccountService) Login(ctx context.Context, phone, password string) (*models.User, error) {
	phone = strings.TrimSpace(phone)
	if phone == "" || password == "" {
		return nil, apperrors.New(apperrors.Validation, "Заполните все поля")
	}

	user, stored, err := s.db.GetUserByPhone(ctx, phone)
	if err != nil {
		if apperrors.IsKind(err, apperrors.NotFound) {
			return nil, apperrors.New(apperrors.Auth, msgInvalidCredentials)
		}
		return nil, err
	}

	var valid bool
	switch cred := auth.ParseCredential(stored); cred.Kind {
	case auth.KindModern:
		valid = s.hasher.Verify(password, cred.Value)
	case auth.KindLegacy:
		valid = auth.VerifyLegacy(password, cred.Value)
		if valid {
			if err := s.migrateCredential(ctx, user.ID, stored, password); err != nil {
				return nil, err
			}
		}
	default:
		// Неопознанная кодировка хеша: вход невозможен
		valid = false
	}

	if !valid {
		return nil, apperrors.New(apperrors.Auth, msgInvalidCredentials)
	}

	s.logger.Info().Int64("user_id", user.ID).Msg("user logged in")
	return user, nil
}

func (s *AccountService) migrateCredential(ctx context.Context, userID int64, oldHash, password string) error {
	newHash, err := s.hasher.Hash(password)
	if err != nil {
		return apperrors.Wrap(apperrors.Internal, "Ошибка обновления пароля", err)
	}
	if err := s.db.UpdatePasswordHash(ctx, userID, oldHash, newHash); err != nil {
		return err
	}
	s.logger.Info().Int64("user_id", userID).Msg("legacy credential migrated")
	return nil
}

func (s *AccountService) ListStaff(ctx context.Context) ([]*models.User, error) {
	return s.db.ListStaff(ctx)
}

// PromoteToAdmin не выполняет авторизацию: решение о допуске принимает
// вызывающая сторона.
func (s *AccountService) PromoteToAdmin(ctx context.Context, phone string) error {
	phone = strings.TrimSpace(phone)
	if err := s.db.PromoteToAdmin(ctx, phone); err != nil {
		return err
	}
	s.logger.Info().Str("phone", phone).Msg("user promoted to admin")
	return nil
}
