package database

import (
	"context"

	"studiocrm/internal/apperrors"
	"studiocrm/internal/models"
)

// GetClientHistory агрегирует посещаемость клиента по телефону.
// MAX(name) — намеренное приближение "последнего известного имени",
// унаследованное от исходной схемы отчета.
func (db *DB) GetClientHistory(ctx context.Context, phone string) (*models.ClientHistory, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	history := &models.ClientHistory{}
	err := db.conn.QueryRowContext(ctx, `
        SELECT
            COALESCE(SUM(CASE WHEN status = 'attended' THEN 1 ELSE 0 END), 0),
            COALESCE(SUM(CASE WHEN status = 'missed' THEN 1 ELSE 0 END), 0),
            COALESCE(MAX(name), '')
        FROM bookings WHERE phone = ?`, phone).Scan(
		&history.Attended, &history.Missed, &history.LastName)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.Internal, "Ошибка получения истории клиента", err)
	}
	return history, nil
}

// GetStatistics возвращает сводные счетчики по всем записям.
// bought = 1 считается как булев флаг покупки, прочие значения не суммируются.
func (db *DB) GetStatistics(ctx context.Context) (*models.Statistics, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	stats := &models.Statistics{}
	err := db.conn.QueryRowContext(ctx, `
        SELECT
            COUNT(*),
            COALESCE(SUM(CASE WHEN status = 'attended' THEN 1 ELSE 0 END), 0),
            COALESCE(SUM(CASE WHEN status = 'missed' THEN 1 ELSE 0 END), 0),
            COALESCE(SUM(CASE WHEN status = 'pending' THEN 1 ELSE 0 END), 0),
            COALESCE(SUM(CASE WHEN bought = 1 THEN 1 ELSE 0 END), 0)
        FROM bookings`).Scan(
		&stats.Total, &stats.Attended, &stats.Missed, &stats.Pending, &stats.Bought)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.Internal, "Ошибка получения статистики", err)
	}
	return stats, nil
}
