// Package facade — единственная граница, через которую внешняя оболочка
// (десктопный UI, бот) работает с реестром. Каждая команда один к одному
// ложится на операцию сервисного слоя; фасад добавляет только сессии,
// ограничение частоты входа и допуск к привилегированной команде.
package facade

import (
	"context"
	"sync"

	"studiocrm/internal/apperrors"
	"studiocrm/internal/export"
	"studiocrm/internal/models"
	"studiocrm/internal/service"
	"studiocrm/internal/session"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

type Facade struct {
	accounts *service.AccountService
	bookings *service.BookingService
	reports  *service.ReportService
	sessions session.Store
	exporter *export.Exporter
	logger   *zerolog.Logger

	// Допуск к make_admin решается снаружи: build-режим или явный opt-in
	makeAdminAllowed func() bool

	loginRate  rate.Limit
	loginBurst int
	limiters   sync.Map // phone -> *rate.Limiter
}

func New(
	accounts *service.AccountService,
	bookings *service.BookingService,
	reports *service.ReportService,
	sessions session.Store,
	exporter *export.Exporter,
	makeAdminAllowed func() bool,
	loginRPS float64,
	loginBurst int,
	logger *zerolog.Logger,
) *Facade {
	if loginRPS <= 0 {
		loginRPS = models.DefaultLoginRPS
	}
	if loginBurst <= 0 {
		loginBurst = models.DefaultLoginBurst
	}
	return &Facade{
		accounts:         accounts,
		bookings:         bookings,
		reports:          reports,
		sessions:         sessions,
		exporter:         exporter,
		logger:           logger,
		makeAdminAllowed: makeAdminAllowed,
		loginRate:        rate.Limit(loginRPS),
		loginBurst:       loginBurst,
	}
}

// LoginResult — пользователь и токен сессии для оболочки.
type LoginResult struct {
	User  *models.User `json:"user"`
	Token string       `json:"token"`
}

func (f *Facade) loginLimiter(phone string) *rate.Limiter {
	if v, ok := f.limiters.Load(phone); ok {
		return v.(*rate.Limiter)
	}
	lim := rate.NewLimiter(f.loginRate, f.loginBurst)
	actual, _ := f.limiters.LoadOrStore(phone, lim)
	return actual.(*rate.Limiter)
}

// resolveCreator выбирает автора записи: явный created_by или сотрудник
// из сессии. Протухший токен — ошибка, а не молчаливо анонимная запись.
func (f *Facade) resolveCreator(ctx context.Context, createdBy *int64, token string) (*int64, error) {
	if createdBy != nil {
		return createdBy, nil
	}
	if token == "" {
		return nil, nil
	}
	sess, err := f.sessions.Get(ctx, token)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.Internal, "Ошибка проверки сессии", err)
	}
	if sess == nil {
		return nil, apperrors.New(apperrors.Auth, "Сессия истекла, войдите снова")
	}
	return &sess.UserID, nil
}

func (f *Facade) SaveBooking(ctx context.Context, name, phone, date string, bought int64, createdBy *int64, token string) (string, error) {
	creator, err := f.resolveCreator(ctx, createdBy, token)
	if err != nil {
		return "", err
	}
	if _, err := f.bookings.Create(ctx, name, phone, date, bought, creator); err != nil {
		return "", err
	}
	return "Запись успешно создана", nil
}

func (f *Facade) UpdateStatus(ctx context.Context, id int64, status string) (string, error) {
	if err := f.bookings.UpdateStatus(ctx, id, status); err != nil {
		return "", err
	}
	return "Статус обновлен", nil
}

func (f *Facade) GetBookings(ctx context.Context) ([]*models.Booking, error) {
	return f.bookings.ListAll(ctx)
}

func (f *Facade) DeleteBooking(ctx context.Context, id int64) (string, error) {
	if err := f.bookings.Delete(ctx, id); err != nil {
		return "", err
	}
	return "Запись удалена", nil
}

func (f *Facade) EditBooking(ctx context.Context, id int64, name, phone, date string, bought int64, status string) (string, error) {
	if err := f.bookings.Edit(ctx, id, name, phone, date, bought, status); err != nil {
		return "", err
	}
	return "Запись обновлена", nil
}

func (f *Facade) RegisterUser(ctx context.Context, name, phone, password string) (string, error) {
	if _, err := f.accounts.Register(ctx, name, phone, password); err != nil {
		return "", err
	}
	return "Регистрация успешна", nil
}

func (f *Facade) LoginUser(ctx context.Context, phone, password string) (*LoginResult, error) {
	if !f.loginLimiter(phone).Allow() {
		// Лимит не раскрывает, существует ли учетка
		return nil, apperrors.New(apperrors.Auth, "Слишком много попыток входа, попробуйте позже")
	}

	user, err := f.accounts.Login(ctx, phone, password)
	if err != nil {
		return nil, err
	}

	sess := session.NewSession(user.ID, user.Name, user.Role)
	if err := f.sessions.Set(ctx, sess); err != nil {
		return nil, apperrors.Wrap(apperrors.Internal, "Ошибка создания сессии", err)
	}

	return &LoginResult{User: user, Token: sess.Token}, nil
}

func (f *Facade) LogoutUser(ctx context.Context, token string) (string, error) {
	if err := f.sessions.Clear(ctx, token); err != nil {
		return "", apperrors.Wrap(apperrors.Internal, "Ошибка завершения сессии", err)
	}
	return "Выход выполнен", nil
}

func (f *Facade) GetWorkers(ctx context.Context) ([]*models.User, error) {
	return f.accounts.ListStaff(ctx)
}

func (f *Facade) GetWorkerHistory(ctx context.Context, workerID int64) ([]*models.Booking, error) {
	return f.bookings.ListByCreator(ctx, workerID)
}

func (f *Facade) CheckClientHistory(ctx context.Context, phone string) (*models.ClientHistory, error) {
	return f.reports.ClientHistory(ctx, phone)
}

func (f *Facade) GetStatistics(ctx context.Context) (*models.Statistics, error) {
	return f.reports.Statistics(ctx)
}

func (f *Facade) MakeAdmin(ctx context.Context, phone string) (string, error) {
	if !f.makeAdminAllowed() {
		return "", apperrors.New(apperrors.Auth, "Команда отключена в релизе")
	}
	if err := f.accounts.PromoteToAdmin(ctx, phone); err != nil {
		return "", err
	}
	return "Пользователь теперь администратор", nil
}

func (f *Facade) ExportBookings(ctx context.Context) (string, error) {
	bookings, err := f.bookings.ListAll(ctx)
	if err != nil {
		return "", err
	}
	stats, err := f.reports.Statistics(ctx)
	if err != nil {
		return "", err
	}
	path, err := f.exporter.ExportBookings(bookings, stats)
	if err != nil {
		return "", apperrors.Wrap(apperrors.Internal, "Ошибка экспорта", err)
	}
	return path, nil
}
