package service

import (
	"context"
	"strings"

	"studiocrm/internal/apperrors"
	"studiocrm/internal/database"
	"studiocrm/internal/models"

	"github.com/rs/zerolog"
)

// BookingService валидирует входные данные и транслирует операции
// над записями в хранилище.
type BookingService struct {
	db     *database.DB
	logger *zerolog.Logger
}

func NewBookingService(db *database.DB, logger *zerolog.Logger) *BookingService {
	return &BookingService{db: db, logger: logger}
}

func validateBookingFields(name, phone, date string) error {
	if strings.TrimSpace(name) == "" {
		return apperrors.New(apperrors.Validation, "Имя не может быть пустым")
	}
	if strings.TrimSpace(phone) == "" {
		return apperrors.New(apperrors.Validation, "Телефон не может быть пустым")
	}
	if strings.TrimSpace(date) == "" {
		return apperrors.New(apperrors.Validation, "Дата не может быть пустой")
	}
	return nil
}

func validateStatus(status string) error {
	if !models.ValidStatus(status) {
		return apperrors.New(apperrors.Validation, "Неверный статус")
	}
	return nil
}

// Create заводит новую запись со статусом pending. createdBy опционален.
func (s *BookingService) Create(ctx context.Context, name, phone, date string, bought int64, createdBy *int64) (*models.Booking, error) {
	if err := validateBookingFields(name, phone, date); err != nil {
		return nil, err
	}

	b := &models.Booking{
		Name:      strings.TrimSpace(name),
		Phone:     strings.TrimSpace(phone),
		Date:      date,
		Bought:    bought,
		CreatedBy: createdBy,
	}
	if err := s.db.CreateBooking(ctx, b); err != nil {
		return nil, err
	}

	s.logger.Info().Int64("booking_id", b.ID).Str("date", b.Date).Msg("booking created")
	return b, nil
}

func (s *BookingService) UpdateStatus(ctx context.Context, id int64, status string) error {
	if err := validateStatus(status); err != nil {
		return err
	}
	if err := s.db.UpdateBookingStatus(ctx, id, status); err != nil {
		return err
	}
	s.logger.Info().Int64("booking_id", id).Str("status", status).Msg("booking status updated")
	return nil
}

func (s *BookingService) Edit(ctx context.Context, id int64, name, phone, date string, bought int64, status string) error {
	if err := validateBookingFields(name, phone, date); err != nil {
		return err
	}
	if err := validateStatus(status); err != nil {
		return err
	}

	b := &models.Booking{
		ID:     id,
		Name:   strings.TrimSpace(name),
		Phone:  strings.TrimSpace(phone),
		Date:   date,
		Bought: bought,
		Status: status,
	}
	if err := s.db.EditBooking(ctx, b); err != nil {
		return err
	}
	s.logger.Info().Int64("booking_id", id).Msg("booking edited")
	return nil
}

func (s *BookingService) Delete(ctx context.Context, id int64) error {
	if err := s.db.DeleteBooking(ctx, id); err != nil {
		return err
	}
	s.logger.Info().Int64("booking_id", id).Msg("booking deleted")
	return nil
}

func (s *BookingService) ListAll(ctx context.Context) ([]*models.Booking, error) {
	return s.db.ListBookings(ctx)
}

func (s *BookingService) ListByCreator(ctx context.Context, userID int64) ([]*models.Booking, error) {
	return s.db.ListBookingsByCreator(ctx, userID)
}
