package export

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"labportal/internal/models"

	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"
)

const (
	bookingsSheet  = "Bookings"
	conflictsSheet = "Conflicts"
)

var bookingColumns = []string{
	"ID", "Item", "Type", "Requester", "Email", "Start Date", "End Date", "Start Time", "End Time",
	"Status", "Previous Status", "Revoked", "Conflicts", "Submitted At", "Reviewed At", "Admin Note", "Total Cost",
}

var conflictColumns = []string{"Booking", "Conflicts With", "Type", "Snapshot Status", "Start Date", "End Date", "Start Time", "End Time"}

// Exporter writes booking workbooks into a directory.
type Exporter struct {
	dir    string
	logger *zerolog.Logger
}

func NewExporter(dir string, logger *zerolog.Logger) *Exporter {
	return &Exporter{dir: dir, logger: logger}
}

// SaveBookings writes the workbook to disk and returns its path.
func (e *Exporter) SaveBookings(bookings []*models.Booking, now time.Time) (string, error) {
	if err := os.MkdirAll(e.dir, 0o755); err != nil {
		return "", fmt.Errorf("error creating export directory: %w", err)
	}

	f, err := BookingsWorkbook(bookings)
	if err != nil {
		return "", err
	}
	defer f.Close()

	filePath := filepath.Join(e.dir, fmt.Sprintf("bookings_%s.xlsx", now.Format("2006-01-02_15-04-05")))
	if err := f.SaveAs(filePath); err != nil {
		return "", fmt.Errorf("error saving file: %w", err)
	}

	if e.logger != nil {
		e.logger.Info().Str("file_path", filePath).Int("bookings", len(bookings)).Msg("Excel file created")
	}
	return filePath, nil
}

// WriteBookings streams the workbook to w.
func WriteBookings(w io.Writer, bookings []*models.Booking) error {
	f, err := BookingsWorkbook(bookings)
	if err != nil {
		return err
	}
	defer f.Close()
	return f.Write(w)
}

// BookingsWorkbook builds a two-sheet workbook: one row per booking, then one row per conflict link.
func BookingsWorkbook(bookings []*models.Booking) (*excelize.File, error) {
	f := excelize.NewFile()

	if err := f.SetSheetName("Sheet1", bookingsSheet); err != nil {
		f.Close()
		return nil, fmt.Errorf("error renaming sheet: %w", err)
	}
	if _, err := f.NewSheet(conflictsSheet); err != nil {
		f.Close()
		return nil, fmt.Errorf("error creating sheet: %w", err)
	}

	styles, err := newRowStyles(f)
	if err != nil {
		f.Close()
		return nil, err
	}

	writeHeader(f, bookingsSheet, bookingColumns, styles.header)
	writeHeader(f, conflictsSheet, conflictColumns, styles.header)

	conflictRow := 2
	for i, b := range bookings {
		row := i + 2
		writeRow(f, bookingsSheet, row, bookingValues(b))
		last, _ := excelize.CoordinatesToCellName(len(bookingColumns), row)
		_ = f.SetCellStyle(bookingsSheet, fmt.Sprintf("A%d", row), last, styles.forBooking(b))

		for _, c := range b.ConflictingBookings {
			writeRow(f, conflictsSheet, conflictRow, []interface{}{
				b.ID, c.BookingID, string(c.ConflictType), string(c.Status),
				c.StartDate, c.EndDate, c.StartTime, c.EndTime,
			})
			conflictRow++
		}
	}

	_ = f.SetColWidth(bookingsSheet, "A", "A", 38)
	_ = f.SetColWidth(bookingsSheet, "B", "Q", 16)
	_ = f.SetColWidth(bookingsSheet, "M", "M", 40)
	_ = f.SetColWidth(conflictsSheet, "A", "B", 38)
	_ = f.SetColWidth(conflictsSheet, "C", "H", 16)
	f.SetActiveSheet(0)

	return f, nil
}

type rowStyles struct {
	header   int
	approved int
	pending  int
	conflict int
	declined int
}

func newRowStyles(f *excelize.File) (rowStyles, error) {
	var s rowStyles
	var err error
	fill := func(color string) (int, error) {
		return f.NewStyle(&excelize.Style{
			Fill:      excelize.Fill{Type: "pattern", Color: []string{color}, Pattern: 1},
			Alignment: &excelize.Alignment{Vertical: "top", WrapText: true},
		})
	}

	if s.header, err = f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
	}); err != nil {
		return s, fmt.Errorf("error creating style: %w", err)
	}
	for _, st := range []struct {
		dst   *int
		color string
	}{
		{&s.approved, "#C6EFCE"},
		{&s.pending, "#FFFFFF"},
		{&s.conflict, "#FFEB9C"},
		{&s.declined, "#FFC7CE"},
	} {
		if *st.dst, err = fill(st.color); err != nil {
			return s, fmt.Errorf("error creating style: %w", err)
		}
	}
	return s, nil
}

func (s rowStyles) forBooking(b *models.Booking) int {
	switch {
	case b.Status == models.StatusDeclined:
		return s.declined
	case b.Status == models.StatusApproved:
		return s.approved
	case b.HasConflict:
		return s.conflict
	default:
		return s.pending
	}
}

func writeHeader(f *excelize.File, sheet string, columns []string, style int) {
	values := make([]interface{}, len(columns))
	for i, c := range columns {
		values[i] = c
	}
	writeRow(f, sheet, 1, values)
	last, _ := excelize.CoordinatesToCellName(len(columns), 1)
	_ = f.SetCellStyle(sheet, "A1", last, style)
}

func writeRow(f *excelize.File, sheet string, row int, values []interface{}) {
	cell, _ := excelize.CoordinatesToCellName(1, row)
	_ = f.SetSheetRow(sheet, cell, &values)
}

func bookingValues(b *models.Booking) []interface{} {
	ids := make([]string, 0, len(b.ConflictingBookings))
	for _, c := range b.ConflictingBookings {
		ids = append(ids, fmt.Sprintf("%s (%s)", c.BookingID, c.ConflictType))
	}
	reviewed := ""
	if b.ReviewedAt != nil {
		reviewed = b.ReviewedAt.Format("02.01.2006 15:04")
	}
	revoked := ""
	if b.DeclinedAfterApproval {
		revoked = "yes"
	}
	return []interface{}{
		b.ID, b.ItemTitle, string(b.ItemType), b.UserName, b.UserEmail,
		b.StartDate, b.EndDate, b.StartTime, b.EndTime,
		string(b.Status), string(b.PreviousStatus), revoked, strings.Join(ids, "\n"),
		b.SubmittedAt.Format("02.01.2006 15:04"), reviewed, b.AdminNote, b.TotalCost,
	}
}
