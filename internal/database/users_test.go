package database

import (
	"context"
	"testing"
	"time"

	"studiocrm/internal/apperrors"
	"studiocrm/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateUser(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	ctx := context.Background()

	user, err := db.CreateUser(ctx, "Мария", "79991234567", "$2a$10$hash")
	require.NoError(t, err)
	assert.NotZero(t, user.ID)
	assert.Equal(t, models.RoleWorker, user.Role)
	assert.False(t, user.RegisteredAt.IsZero())

	found, hash, err := db.GetUserByPhone(ctx, "79991234567")
	require.NoError(t, err)
	assert.Equal(t, "Мария", found.Name)
	assert.Equal(t, "$2a$10$hash", hash)
}

func TestCreateUser_DuplicatePhone(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	ctx := context.Background()

	_, err := db.CreateUser(ctx, "Мария", "79991234567", "$2a$10$hash")
	require.NoError(t, err)

	_, err = db.CreateUser(ctx, "Другая", "79991234567", "$2a$10$hash2")
	require.Error(t, err)
	assert.Equal(t, apperrors.Conflict, apperrors.KindOf(err))

	// Строка не добавлена
	staff, err := db.ListStaff(ctx)
	require.NoError(t, err)
	assert.Len(t, staff, 1)
}

func TestGetUserByPhone_NotFound(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	_, _, err := db.GetUserByPhone(context.Background(), "70000000000")
	require.Error(t, err)
	assert.Equal(t, apperrors.NotFound, apperrors.KindOf(err))
}

func TestUpdatePasswordHash(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	ctx := context.Background()

	user, err := db.CreateUser(ctx, "Мария", "79991234567", "oldhash")
	require.NoError(t, err)

	require.NoError(t, db.UpdatePasswordHash(ctx, user.ID, "oldhash", "newhash"))

	_, hash, err := db.GetUserByPhone(ctx, "79991234567")
	require.NoError(t, err)
	assert.Equal(t, "newhash", hash)

	// Несовпадающий прежний хеш — замены нет, но и ошибки нет
	require.NoError(t, db.UpdatePasswordHash(ctx, user.ID, "stale", "other"))
	_, hash, err = db.GetUserByPhone(ctx, "79991234567")
	require.NoError(t, err)
	assert.Equal(t, "newhash", hash)
}

func TestListStaff_OrderedByRegisteredAtDesc(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	ctx := context.Background()

	first, err := db.CreateUser(ctx, "Первый", "1", "h")
	require.NoError(t, err)

	// registered_at должен отличаться, чтобы порядок был детерминирован
	time.Sleep(10 * time.Millisecond)

	second, err := db.CreateUser(ctx, "Второй", "2", "h")
	require.NoError(t, err)

	staff, err := db.ListStaff(ctx)
	require.NoError(t, err)
	require.Len(t, staff, 2)
	assert.Equal(t, second.ID, staff[0].ID)
	assert.Equal(t, first.ID, staff[1].ID)
}

func TestPromoteToAdmin(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	ctx := context.Background()

	_, err := db.CreateUser(ctx, "Мария", "79991234567", "h")
	require.NoError(t, err)

	require.NoError(t, db.PromoteToAdmin(ctx, "79991234567"))

	user, _, err := db.GetUserByPhone(ctx, "79991234567")
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, user.Role)

	// Идемпотентно: повторное повышение не ошибка
	require.NoError(t, db.PromoteToAdmin(ctx, "79991234567"))

	user, _, err = db.GetUserByPhone(ctx, "79991234567")
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, user.Role)
}

func TestPromoteToAdmin_NotFound(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	err := db.PromoteToAdmin(context.Background(), "70000000000")
	require.Error(t, err)
	assert.Equal(t, apperrors.NotFound, apperrors.KindOf(err))
}

func TestDeleteUser_ClearsBookingCreator(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	ctx := context.Background()

	user, err := db.CreateUser(ctx, "Мастер", "70000000002", "h")
	require.NoError(t, err)

	b := &models.Booking{Name: "Анна", Phone: "1", Date: "2026-09-01 14:00", CreatedBy: &user.ID}
	require.NoError(t, db.CreateBooking(ctx, b))

	// Удаление пользователя не входит в контракт хранилища, но внешняя
	// ссылка обязана обнуляться на уровне схемы (ON DELETE SET NULL)
	db.mu.Lock()
	_, err = db.conn.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, user.ID)
	db.mu.Unlock()
	require.NoError(t, err)

	found, err := db.GetBooking(ctx, b.ID)
	require.NoError(t, err)
	assert.Nil(t, found.CreatedBy)
}
