package service

import (
	"context"
	"strings"

	"studiocrm/internal/database"
	"studiocrm/internal/models"

	"github.com/rs/zerolog"
)

// ReportService — read-only агрегаты поверх данных о записях.
type ReportService struct {
	db     *database.DB
	logger *zerolog.Logger
}

func NewReportService(db *database.DB, logger *zerolog.Logger) *ReportService {
	return &ReportService{db: db, logger: logger}
}

func (s *ReportService) ClientHistory(ctx context.Context, phone string) (*models.ClientHistory, error) {
	return s.db.GetClientHistory(ctx, strings.TrimSpace(phone))
}

func (s *ReportService) Statistics(ctx context.Context) (*models.Statistics, error) {
	return s.db.GetStatistics(ctx)
}
