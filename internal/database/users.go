package database

import (
	"context"
	"database/sql"
	"time"

	"studiocrm/internal/apperrors"
	"studiocrm/internal/models"
)

// CreateUser регистрирует нового сотрудника с ролью worker.
// passwordHash приходит уже в современной кодировке.
func (db *DB) CreateUser(ctx context.Context, name, phone, passwordHash string) (*models.User, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.Internal, "Ошибка регистрации", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	var count int
	err = tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM users WHERE phone = ?`, phone).Scan(&count)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.Internal, "Ошибка регистрации", err)
	}
	if count > 0 {
		return nil, apperrors.New(apperrors.Conflict, "Пользователь с таким номером уже существует")
	}

	registeredAt := time.Now()
	result, err := tx.ExecContext(ctx,
		`INSERT INTO users (name, phone, password_hash, role, registered_at)
         VALUES (?, ?, ?, ?, ?)`,
		name, phone, passwordHash, models.RoleWorker, registeredAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, apperrors.Wrap(apperrors.Conflict, "Пользователь с таким номером уже существует", err)
		}
		return nil, apperrors.Wrap(apperrors.Internal, "Ошибка регистрации", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, apperrors.Wrap(apperrors.Internal, "Ошибка регистрации", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, apperrors.Wrap(apperrors.Internal, "Ошибка регистрации", err)
	}

	return &models.User{
		ID:           id,
		Name:         name,
		Phone:        phone,
		Role:         models.RoleWorker,
		RegisteredAt: registeredAt,
	}, nil
}

// GetUserByPhone возвращает сотрудника вместе с сохраненным хешем пароля.
// Хеш отдается отдельно от модели и только слою аутентификации.
func (db *DB) GetUserByPhone(ctx context.Context, phone string) (*models.User, string, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	user := &models.User{}
	var passwordHash string
	err := db.conn.QueryRowContext(ctx,
		`SELECT id, name, phone, role, registered_at, password_hash
         FROM users WHERE phone = ?`, phone).Scan(
		&user.ID, &user.Name, &user.Phone, &user.Role, &user.RegisteredAt, &passwordHash)
	if err == sql.ErrNoRows {
		return nil, "", apperrors.New(apperrors.NotFound, "Пользователь не найден")
	}
	if err != nil {
		return nil, "", apperrors.Wrap(apperrors.Internal, "Ошибка чтения пользователя", err)
	}
	return user, passwordHash, nil
}

// UpdatePasswordHash атомарно заменяет хеш пароля, только если он все еще
// равен прежнему. Так миграция легаси-учетки не затирает параллельную смену.
func (db *DB) UpdatePasswordHash(ctx context.Context, userID int64, oldHash, newHash string) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	result, err := db.conn.ExecContext(ctx,
		`UPDATE users SET password_hash = ? WHERE id = ? AND password_hash = ?`,
		newHash, userID, oldHash)
	if err != nil {
		return apperrors.Wrap(apperrors.Internal, "Ошибка обновления пароля", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return apperrors.Wrap(apperrors.Internal, "Ошибка обновления пароля", err)
	}
	if rows == 0 {
		// Хеш уже сменился — миграция не нужна
		db.logger.Warn().Int64("user_id", userID).Msg("password hash changed underneath migration, skipping")
	}
	return nil
}

// ListStaff возвращает всех сотрудников, недавно зарегистрированные первыми.
func (db *DB) ListStaff(ctx context.Context) ([]*models.User, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, name, phone, role, registered_at
         FROM users WHERE role IN (?, ?)
         ORDER BY registered_at DESC`,
		models.RoleWorker, models.RoleAdmin)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.Internal, "Ошибка получения сотрудников", err)
	}
	defer rows.Close()

	users := []*models.User{}
	for rows.Next() {
		u := &models.User{}
		if err := rows.Scan(&u.ID, &u.Name, &u.Phone, &u.Role, &u.RegisteredAt); err != nil {
			return nil, apperrors.Wrap(apperrors.Internal, "Ошибка получения сотрудников", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(apperrors.Internal, "Ошибка получения сотрудников", err)
	}
	return users, nil
}

// PromoteToAdmin выставляет роль admin. Повторный вызов на администраторе
// успешен: строка совпадает, UPDATE считает ее затронутой.
func (db *DB) PromoteToAdmin(ctx context.Context, phone string) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	result, err := db.conn.ExecContext(ctx,
		`UPDATE users SET role = ? WHERE phone = ?`, models.RoleAdmin, phone)
	if err != nil {
		return apperrors.Wrap(apperrors.Internal, "Ошибка обновления роли", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return apperrors.Wrap(apperrors.Internal, "Ошибка обновления роли", err)
	}
	if rows == 0 {
		return apperrors.New(apperrors.NotFound, "Пользователь не найден")
	}
	return nil
}
