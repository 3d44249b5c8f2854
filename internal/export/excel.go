package export

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"radiantbloom/internal/domain"
	"radiantbloom/internal/models"

	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"
)

const sheetName = "Bookings"

// Exporter writes booking reports to xlsx files for the back office.
type Exporter struct {
	store  domain.Store
	path   string
	logger *zerolog.Logger
}

func NewExporter(store domain.Store, path string, logger *zerolog.Logger) *Exporter {
	if path == "" {
		path = "exports"
	}
	return &Exporter{store: store, path: path, logger: logger}
}

// BookingsToExcel создает Excel файл с бронированиями за период
func (e *Exporter) BookingsToExcel(ctx context.Context, from, to time.Time) (string, error) {
	if err := os.MkdirAll(e.path, 0o755); err != nil {
		return "", fmt.Errorf("error creating export directory: %v", err)
	}

	bookings, err := e.store.ListBookings(ctx, models.BookingFilter{From: from, To: to})
	if err != nil {
		return "", fmt.Errorf("error getting bookings: %v", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(sheetName)
	if err != nil {
		return "", fmt.Errorf("error creating sheet: %v", err)
	}
	f.SetActiveSheet(index)

	_ = f.SetCellValue(sheetName, "A1", fmt.Sprintf("Период: %s - %s",
		from.Format("02.01.2006"), to.Format("02.01.2006")))

	titleStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 14},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	_ = f.MergeCell(sheetName, "A1", "I1")
	_ = f.SetCellStyle(sheetName, "A1", "A1", titleStyle)

	writeHeaderRow(f)

	for i, booking := range bookings {
		writeBookingRow(f, i+3, booking)
	}

	_ = f.SetColWidth(sheetName, "A", "A", 12)
	_ = f.SetColWidth(sheetName, "B", "I", 20)
	_ = f.DeleteSheet("Sheet1")

	fileName := fmt.Sprintf("bookings_%s_to_%s.xlsx",
		from.Format("2006-01-02"),
		to.Format("2006-01-02"))
	filePath := filepath.Join(e.path, fileName)

	if err := f.SaveAs(filePath); err != nil {
		return "", fmt.Errorf("error saving file: %v", err)
	}

	e.logger.Info().Str("file_path", filePath).Int("bookings", len(bookings)).Msg("Excel file created")
	return filePath, nil
}

func writeHeaderRow(f *excelize.File) {
	headers := []string{"Код", "Услуга", "Мастер", "Статус", "Начало", "Конец", "Клиент", "Email", "Телефон"}

	style, _ := f.NewStyle(&excelize.Style{
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
		Font:      &excelize.Font{Bold: true},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})

	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 2)
		_ = f.SetCellValue(sheetName, cell, header)
		_ = f.SetCellStyle(sheetName, cell, cell, style)
	}
}

func writeBookingRow(f *excelize.File, row int, booking *models.Booking) {
	values := []interface{}{
		booking.ConfirmationCode,
		booking.ServiceName,
		booking.StaffID,
		booking.Status,
		booking.StartTime.Format("02.01.2006 15:04"),
		booking.EndTime.Format("02.01.2006 15:04"),
		booking.CustomerName,
		booking.CustomerEmail,
		booking.CustomerPhone,
	}
	for i, value := range values {
		cell, _ := excelize.CoordinatesToCellName(i+1, row)
		_ = f.SetCellValue(sheetName, cell, value)
	}
}
