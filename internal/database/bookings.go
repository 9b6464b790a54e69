package database

import (
	"context"
	"database/sql"
	"fmt"

	"studiocrm/internal/apperrors"
	"studiocrm/internal/models"
)

const bookingColumns = `id, name, phone, date, bought, status, created_by, created_at`

// CreateBooking вставляет новую запись со статусом pending. Проверка
// существования создателя и дубликата выполняется в той же транзакции;
// частичный уникальный индекс остается страховкой от гонок.
func (db *DB) CreateBooking(ctx context.Context, b *models.Booking) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return apperrors.Wrap(apperrors.Internal, "Ошибка добавления записи", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if b.CreatedBy != nil {
		var count int
		err := tx.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM users WHERE id = ?`, *b.CreatedBy).Scan(&count)
		if err != nil {
			return apperrors.Wrap(apperrors.Internal, "Ошибка добавления записи", err)
		}
		if count == 0 {
			return apperrors.New(apperrors.NotFound, "Пользователь не найден")
		}
	}

	// Дружелюбное сообщение до вставки, индекс — авторитетная защита
	var pending int
	err = tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM bookings WHERE phone = ? AND date = ? AND status = ?`,
		b.Phone, b.Date, models.StatusPending).Scan(&pending)
	if err != nil {
		return apperrors.Wrap(apperrors.Internal, "Ошибка добавления записи", err)
	}
	if pending > 0 {
		return apperrors.New(apperrors.Conflict, "Запись на это время уже существует")
	}

	b.Status = models.StatusPending
	result, err := tx.ExecContext(ctx,
		`INSERT INTO bookings (name, phone, date, bought, status, created_by)
         VALUES (?, ?, ?, ?, ?, ?)`,
		b.Name, b.Phone, b.Date, b.Bought, b.Status, nullableID(b.CreatedBy))
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.Wrap(apperrors.Conflict, "Запись на это время уже существует", err)
		}
		return apperrors.Wrap(apperrors.Internal, "Ошибка добавления записи", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return apperrors.Wrap(apperrors.Internal, "Ошибка добавления записи", err)
	}

	if err := tx.Commit(); err != nil {
		return apperrors.Wrap(apperrors.Internal, "Ошибка добавления записи", err)
	}

	b.ID = id
	return nil
}

// UpdateBookingStatus меняет статус существующей записи.
// Допустимость значения статуса проверяет сервисный слой.
func (db *DB) UpdateBookingStatus(ctx context.Context, id int64, status string) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	result, err := db.conn.ExecContext(ctx,
		`UPDATE bookings SET status = ? WHERE id = ?`, status, id)
	if err != nil {
		return apperrors.Wrap(apperrors.Internal, "Ошибка обновления статуса", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return apperrors.Wrap(apperrors.Internal, "Ошибка обновления статуса", err)
	}
	if rows == 0 {
		return apperrors.New(apperrors.NotFound, "Запись не найдена")
	}
	return nil
}

// EditBooking перезаписывает все изменяемые поля записи.
func (db *DB) EditBooking(ctx context.Context, b *models.Booking) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	result, err := db.conn.ExecContext(ctx,
		`UPDATE bookings SET name = ?, phone = ?, date = ?, bought = ?, status = ?
         WHERE id = ?`,
		b.Name, b.Phone, b.Date, b.Bought, b.Status, b.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.Wrap(apperrors.Conflict, "Запись на это время уже существует", err)
		}
		return apperrors.Wrap(apperrors.Internal, "Ошибка обновления записи", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return apperrors.Wrap(apperrors.Internal, "Ошибка обновления записи", err)
	}
	if rows == 0 {
		return apperrors.New(apperrors.NotFound, "Запись не найдена")
	}
	return nil
}

func (db *DB) DeleteBooking(ctx context.Context, id int64) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	result, err := db.conn.ExecContext(ctx, `DELETE FROM bookings WHERE id = ?`, id)
	if err != nil {
		return apperrors.Wrap(apperrors.Internal, "Ошибка удаления записи", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return apperrors.Wrap(apperrors.Internal, "Ошибка удаления записи", err)
	}
	if rows == 0 {
		return apperrors.New(apperrors.NotFound, "Запись не найдена")
	}
	return nil
}

// ListBookings возвращает все записи, свежие даты первыми.
func (db *DB) ListBookings(ctx context.Context) ([]*models.Booking, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	query := fmt.Sprintf(`SELECT %s FROM bookings ORDER BY date DESC`, bookingColumns)
	return db.queryBookings(ctx, query)
}

// ListBookingsByCreator возвращает записи, созданные указанным сотрудником.
func (db *DB) ListBookingsByCreator(ctx context.Context, userID int64) ([]*models.Booking, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	query := fmt.Sprintf(`SELECT %s FROM bookings WHERE created_by = ? ORDER BY date DESC`, bookingColumns)
	return db.queryBookings(ctx, query, userID)
}

// GetBooking возвращает запись по id.
func (db *DB) GetBooking(ctx context.Context, id int64) (*models.Booking, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	query := fmt.Sprintf(`SELECT %s FROM bookings WHERE id = ?`, bookingColumns)
	b := &models.Booking{}
	var createdBy sql.NullInt64
	err := db.conn.QueryRowContext(ctx, query, id).Scan(
		&b.ID, &b.Name, &b.Phone, &b.Date, &b.Bought, &b.Status, &createdBy, &b.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, apperrors.New(apperrors.NotFound, "Запись не найдена")
	}
	if err != nil {
		return nil, apperrors.Wrap(apperrors.Internal, "Ошибка чтения записи", err)
	}
	if createdBy.Valid {
		b.CreatedBy = &createdBy.Int64
	}
	return b, nil
}

func (db *DB) queryBookings(ctx context.Context, query string, args ...interface{}) ([]*models.Booking, error) {
	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.Internal, "Ошибка получения записей", err)
	}
	defer rows.Close()

	bookings := []*models.Booking{}
	for rows.Next() {
		b := &models.Booking{}
		var createdBy sql.NullInt64
		err := rows.Scan(&b.ID, &b.Name, &b.Phone, &b.Date, &b.Bought, &b.Status, &createdBy, &b.CreatedAt)
		if err != nil {
			return nil, apperrors.Wrap(apperrors.Internal, "Ошибка получения записей", err)
		}
		if createdBy.Valid {
			b.CreatedBy = &createdBy.Int64
		}
		bookings = append(bookings, b)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(apperrors.Internal, "Ошибка получения записей", err)
	}
	return bookings, nil
}

func nullableID(id *int64) interface{} {
	if id == nil {
		return nil
	}
	return *id
}
