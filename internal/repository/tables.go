package repository

import (
	"fmt"
	"time"

	"github.com/hadirq/ledger-api/internal/models"
)

// Wire formats for the ledger tables. Dates are dd/MM/yyyy, times HH:mm,
// both in the school's local timezone.
const (
	DateLayout = "02/01/2006"
	TimeLayout = "15:04"
)

// cell returns the i-th cell or "" when the row is short. Rows coming from
// the store are string-typed and loosely schematized; coercion happens here
// so raw values never leak into business logic.
func cell(cells []string, i int) string {
	if i < 0 || i >= len(cells) {
		return ""
	}
	return cells[i]
}

func studentFromCells(cells []string) models.Student {
	return models.Student{
		NIS:             cell(cells, 0),
		Name:            cell(cells, 1),
		Cohort:          cell(cells, 2),
		GuardianContact: cell(cells, 3),
	}
}

func studentToCells(s models.Student) []string {
	return []string{s.NIS, s.Name, s.Cohort, s.GuardianContact}
}

func eventFromCells(cells []string) models.AttendanceEvent {
	return models.AttendanceEvent{
		Date:         cell(cells, 0),
		NIS:          cell(cells, 1),
		Name:         cell(cells, 2),
		Status:       models.AttendanceStatus(cell(cells, 3)),
		CheckInTime:  cell(cells, 4),
		CheckOutTime: cell(cells, 5),
		Note:         cell(cells, 6),
	}
}

func eventToCells(e models.AttendanceEvent) []string {
	return []string{e.Date, e.NIS, e.Name, string(e.Status), e.CheckInTime, e.CheckOutTime, e.Note}
}

// rowDate extracts the calendar-day portion of a date cell. Cells written by
// this engine are exactly dd/MM/yyyy but imported rows may carry a trailing
// time component.
func rowDate(cells []string) string {
	d := cell(cells, 0)
	if len(d) > 10 {
		d = d[:10]
	}
	return d
}

// ParseEventDate parses a dd/MM/yyyy date cell in the given location.
func ParseEventDate(raw string, loc *time.Location) (time.Time, bool) {
	if len(raw) > 10 {
		raw = raw[:10]
	}
	t, err := time.ParseInLocation(DateLayout, raw, loc)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// PartitionName builds the immutable monthly table name.
func PartitionName(year int, month time.Month) string {
	return fmt.Sprintf("attendance_%04d_%02d", year, int(month))
}

// ParsePartitionName extracts (year, month) from attendance_YYYY_MM.
func ParsePartitionName(name string) (int, time.Month, bool) {
	var year, month int
	if _, err := fmt.Sscanf(name, "attendance_%4d_%2d", &year, &month); err != nil {
		return 0, 0, false
	}
	if month < 1 || month > 12 {
		return 0, 0, false
	}
	return year, time.Month(month), true
}
