// Package export формирует Excel-отчет по всем записям и сводной
// статистике. Файл сохраняется локально, внешних сервисов нет.
package export

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"studiocrm/internal/models"

	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"
)

const sheetName = "Записи"

var statusTitles = map[string]string{
	models.StatusPending:  "Ожидается",
	models.StatusAttended: "Пришел",
	models.StatusMissed:   "Не пришел",
}

type Exporter struct {
	path   string
	logger *zerolog.Logger
}

func NewExporter(path string, logger *zerolog.Logger) *Exporter {
	return &Exporter{path: path, logger: logger}
}

// ExportBookings пишет xlsx со всеми записями и блоком статистики,
// возвращает путь к созданному файлу.
func (e *Exporter) ExportBookings(bookings []*models.Booking, stats *models.Statistics) (string, error) {
	if err := os.MkdirAll(e.path, 0o755); err != nil {
		return "", fmt.Errorf("error creating export directory: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(sheetName)
	if err != nil {
		return "", fmt.Errorf("error creating sheet: %w", err)
	}
	f.SetActiveSheet(index)
	_ = f.DeleteSheet("Sheet1")

	headers := []string{"ID", "Имя", "Телефон", "Дата", "Покупка", "Статус"}
	for col, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		_ = f.SetCellValue(sheetName, cell, h)
	}

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
		Font: &excelize.Font{Bold: true},
	})
	_ = f.SetCellStyle(sheetName, "A1", "F1", headerStyle)

	for i, b := range bookings {
		row := i + 2
		status := statusTitles[b.Status]
		if status == "" {
			status = b.Status
		}
		values := []interface{}{b.ID, b.Name, b.Phone, b.Date, b.Bought, status}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			_ = f.SetCellValue(sheetName, cell, v)
		}
	}

	e.writeStatistics(f, stats, len(bookings)+3)

	_ = f.SetColWidth(sheetName, "B", "D", 22)

	fileName := fmt.Sprintf("bookings_%s.xlsx", time.Now().Format("2006-01-02_150405"))
	filePath := filepath.Join(e.path, fileName)
	if err := f.SaveAs(filePath); err != nil {
		return "", fmt.Errorf("error saving file: %w", err)
	}

	e.logger.Info().Str("file_path", filePath).Int("bookings", len(bookings)).Msg("excel export created")
	return filePath, nil
}

func (e *Exporter) writeStatistics(f *excelize.File, stats *models.Statistics, startRow int) {
	titleCell, _ := excelize.CoordinatesToCellName(1, startRow)
	_ = f.SetCellValue(sheetName, titleCell, "Статистика")

	titleStyle, _ := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	_ = f.SetCellStyle(sheetName, titleCell, titleCell, titleStyle)

	rows := []struct {
		label string
		value int64
	}{
		{"Всего записей", stats.Total},
		{"Пришли", stats.Attended},
		{"Не пришли", stats.Missed},
		{"Ожидаются", stats.Pending},
		{"С покупкой", stats.Bought},
	}
	for i, r := range rows {
		labelCell, _ := excelize.CoordinatesToCellName(1, startRow+1+i)
		valueCell, _ := excelize.CoordinatesToCellName(2, startRow+1+i)
		_ = f.SetCellValue(sheetName, labelCell, r.label)
		_ = f.SetCellValue(sheetName, valueCell, r.value)
	}
}
