package database

import (
	"context"
	"sync"
	"testing"

	"studiocrm/internal/apperrors"
	"studiocrm/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateBooking(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	ctx := context.Background()

	b := &models.Booking{
		Name:   "Анна",
		Phone:  "79991234567",
		Date:   "2026-09-01 14:00",
		Bought: 1,
	}
	err := db.CreateBooking(ctx, b)
	require.NoError(t, err)
	assert.NotZero(t, b.ID)
	assert.Equal(t, models.StatusPending, b.Status)

	found, err := db.GetBooking(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, "Анна", found.Name)
	assert.Equal(t, models.StatusPending, found.Status)
	assert.Nil(t, found.CreatedBy)
}

func TestCreateBooking_DuplicatePending(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	ctx := context.Background()

	first := &models.Booking{Name: "Анна", Phone: "79991234567", Date: "2026-09-01 14:00"}
	require.NoError(t, db.CreateBooking(ctx, first))

	dup := &models.Booking{Name: "Анна", Phone: "79991234567", Date: "2026-09-01 14:00"}
	err := db.CreateBooking(ctx, dup)
	require.Error(t, err)
	assert.Equal(t, apperrors.Conflict, apperrors.KindOf(err))
	assert.Equal(t, "Запись на это время уже существует", err.Error())

	// После закрытия первой записи слот снова свободен
	require.NoError(t, db.UpdateBookingStatus(ctx, first.ID, models.StatusAttended))
	require.NoError(t, db.CreateBooking(ctx, dup))
}

func TestCreateBooking_ConcurrentDuplicates(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	ctx := context.Background()

	const numGoroutines = 10
	var wg sync.WaitGroup
	wg.Add(numGoroutines)
	results := make(chan error, numGoroutines)

	for i := 0; i < numGoroutines; i++ {
		go func() {
			defer wg.Done()
			b := &models.Booking{Name: "Гонка", Phone: "70000000001", Date: "2026-09-02 10:00"}
			results <- db.CreateBooking(ctx, b)
		}()
	}

	wg.Wait()
	close(results)

	successCount := 0
	for err := range results {
		if err == nil {
			successCount++
		} else {
			assert.Equal(t, apperrors.Conflict, apperrors.KindOf(err))
		}
	}
	assert.Equal(t, 1, successCount, "exactly one pending booking per (phone, date)")
}

func TestCreateBooking_UnknownCreator(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	missing := int64(777)
	b := &models.Booking{Name: "Анна", Phone: "79991234567", Date: "2026-09-01 14:00", CreatedBy: &missing}
	err := db.CreateBooking(context.Background(), b)
	require.Error(t, err)
	assert.Equal(t, apperrors.NotFound, apperrors.KindOf(err))
}

func TestCreateBooking_WithCreator(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	ctx := context.Background()

	user, err := db.CreateUser(ctx, "Мастер", "70000000002", "$2a$10$hash")
	require.NoError(t, err)

	b := &models.Booking{Name: "Анна", Phone: "79991234567", Date: "2026-09-01 14:00", CreatedBy: &user.ID}
	require.NoError(t, db.CreateBooking(ctx, b))

	found, err := db.GetBooking(ctx, b.ID)
	require.NoError(t, err)
	require.NotNil(t, found.CreatedBy)
	assert.Equal(t, user.ID, *found.CreatedBy)
}

func TestUpdateBookingStatus(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	ctx := context.Background()

	b := &models.Booking{Name: "Анна", Phone: "79991234567", Date: "2026-09-01 14:00"}
	require.NoError(t, db.CreateBooking(ctx, b))

	// Между терминальными статусами нет ограничений переходов,
	// принимается любое значение из множества — это сохраненное поведение
	require.NoError(t, db.UpdateBookingStatus(ctx, b.ID, models.StatusAttended))
	require.NoError(t, db.UpdateBookingStatus(ctx, b.ID, models.StatusMissed))

	found, err := db.GetBooking(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusMissed, found.Status)
}

func TestUpdateBookingStatus_NotFound(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	err := db.UpdateBookingStatus(context.Background(), 999, models.StatusAttended)
	require.Error(t, err)
	assert.Equal(t, apperrors.NotFound, apperrors.KindOf(err))
	assert.Equal(t, "Запись не найдена", err.Error())
}

func TestEditBooking(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	ctx := context.Background()

	b := &models.Booking{Name: "Анна", Phone: "79991234567", Date: "2026-09-01 14:00"}
	require.NoError(t, db.CreateBooking(ctx, b))

	b.Name = "Анна Петровна"
	b.Date = "2026-09-03 11:00"
	b.Bought = 1
	b.Status = models.StatusAttended
	require.NoError(t, db.EditBooking(ctx, b))

	found, err := db.GetBooking(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, "Анна Петровна", found.Name)
	assert.Equal(t, "2026-09-03 11:00", found.Date)
	assert.Equal(t, int64(1), found.Bought)
	assert.Equal(t, models.StatusAttended, found.Status)
}

func TestEditBooking_NotFound(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	err := db.EditBooking(context.Background(), &models.Booking{ID: 999, Name: "x", Phone: "1", Date: "2026-01-01", Status: models.StatusPending})
	require.Error(t, err)
	assert.Equal(t, apperrors.NotFound, apperrors.KindOf(err))
}

func TestDeleteBooking(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	ctx := context.Background()

	b := &models.Booking{Name: "Анна", Phone: "79991234567", Date: "2026-09-01 14:00"}
	require.NoError(t, db.CreateBooking(ctx, b))

	require.NoError(t, db.DeleteBooking(ctx, b.ID))

	_, err := db.GetBooking(ctx, b.ID)
	assert.Equal(t, apperrors.NotFound, apperrors.KindOf(err))

	// Повторное удаление — not found, таблица не меняется
	err = db.DeleteBooking(ctx, b.ID)
	assert.Equal(t, apperrors.NotFound, apperrors.KindOf(err))

	all, err := db.ListBookings(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 0)
}

func TestListBookings_OrderedByDateDesc(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	ctx := context.Background()

	// Каноническое поведение последней ревизии — убывание по дате.
	// Ранние ревизии сортировали по возрастанию, выбор зафиксирован здесь.
	dates := []string{"2026-09-01 10:00", "2026-09-03 10:00", "2026-09-02 10:00"}
	for i, d := range dates {
		b := &models.Booking{Name: "Клиент", Phone: string(rune('a' + i)), Date: d}
		require.NoError(t, db.CreateBooking(ctx, b))
	}

	all, err := db.ListBookings(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "2026-09-03 10:00", all[0].Date)
	assert.Equal(t, "2026-09-02 10:00", all[1].Date)
	assert.Equal(t, "2026-09-01 10:00", all[2].Date)
}

func TestListBookingsByCreator(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	ctx := context.Background()

	user, err := db.CreateUser(ctx, "Мастер", "70000000002", "$2a$10$hash")
	require.NoError(t, err)

	mine := &models.Booking{Name: "Анна", Phone: "1", Date: "2026-09-01 14:00", CreatedBy: &user.ID}
	require.NoError(t, db.CreateBooking(ctx, mine))

	other := &models.Booking{Name: "Борис", Phone: "2", Date: "2026-09-01 15:00"}
	require.NoError(t, db.CreateBooking(ctx, other))

	list, err := db.ListBookingsByCreator(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Анна", list[0].Name)

	empty, err := db.ListBookingsByCreator(ctx, 999)
	require.NoError(t, err)
	assert.Len(t, empty, 0)
}
