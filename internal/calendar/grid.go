// Package calendar lays almanac records out as month grids and provides the
// month navigation, filtering and "today" selection used by the views.
package calendar

import (
	"time"

	"almanac-platform/internal/models"
)

// DaysPerWeek is the grid width. Weeks start on Sunday.
const DaysPerWeek = 7

// Cell is one position in a month grid. DayNumber is 0 for the leading
// padding cells; Entry is nil when no record exists for the date.
type Cell struct {
	DayNumber int               `json:"dayNumber"`
	Date      string            `json:"date,omitempty"`
	Entry     *models.DayRecord `json:"entry"`
}

// IsBlank reports whether the cell is padding
func (c Cell) IsBlank() bool {
	return c.DayNumber == 0
}

// LeadingBlanks returns the weekday index (0=Sunday) of day 1 of the month
func LeadingBlanks(year int, month time.Month) int {
	return int(models.NewCivilDate(year, month, 1).Weekday())
}

// BuildMonthGrid returns leadingBlanks+daysInMonth cells in row-major order.
// Records are matched by exact date string; records for other months are
// ignored and missing dates yield cells without an entry.
func BuildMonthGrid(year int, month time.Month, days []models.DayRecord) []Cell {
	byDate := make(map[string]*models.DayRecord, len(days))
	for i := range days {
		byDate[days[i].Date] = &days[i]
	}

	blanks := LeadingBlanks(year, month)
	daysInMonth := models.DaysIn(year, month)

	cells := make([]Cell, 0, blanks+daysInMonth)
	for i := 0; i < blanks; i++ {
		cells = append(cells, Cell{})
	}
	for day := 1; day <= daysInMonth; day++ {
		date := models.CivilDate{Year: year, Month: month, Day: day}.String()
		cells = append(cells, Cell{
			DayNumber: day,
			Date:      date,
			Entry:     byDate[date],
		})
	}
	return cells
}

// Rows splits cells into weeks. The final week is padded with blank cells
// so every row has DaysPerWeek entries.
func Rows(cells []Cell) [][]Cell {
	var rows [][]Cell
	for start := 0; start < len(cells); start += DaysPerWeek {
		end := start + DaysPerWeek
		row := make([]Cell, DaysPerWeek)
		if end > len(cells) {
			end = len(cells)
		}
		copy(row, cells[start:end])
		rows = append(rows, row)
	}
	return rows
}

// WeekdayLabels are the grid column headers
var WeekdayLabels = [DaysPerWeek]string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}
