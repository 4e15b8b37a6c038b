package calendar

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"almanac-platform/internal/models"
)

// monthRecords builds one minimal record per day of the month
func monthRecords(year int, month time.Month) []models.DayRecord {
	var days []models.DayRecord
	for d := 1; d <= models.DaysIn(year, month); d++ {
		rec := models.DayRecord{
			Date:      models.CivilDate{Year: year, Month: month, Day: d}.String(),
			MoonPhase: models.PhaseWaxingCrescent,
		}
		rec.Normalize()
		days = append(days, rec)
	}
	return days
}

func TestBuildMonthGrid_LeapFebruary(t *testing.T) {
	cells := BuildMonthGrid(2024, time.February, monthRecords(2024, time.February))

	// 2024-02-01 is a Thursday
	blanks := LeadingBlanks(2024, time.February)
	assert.Equal(t, 4, blanks)
	require.Len(t, cells, blanks+29)

	for i := 0; i < blanks; i++ {
		assert.True(t, cells[i].IsBlank())
		assert.Nil(t, cells[i].Entry)
	}

	last := cells[len(cells)-1]
	assert.Equal(t, 29, last.DayNumber)
	require.NotNil(t, last.Entry)
	assert.Equal(t, "2024-02-29", last.Entry.Date)
}

func TestBuildMonthGrid_Shapes(t *testing.T) {
	tests := []struct {
		year      int
		month     time.Month
		blanks    int
		daysInMon int
	}{
		{2025, time.February, 6, 28}, // Saturday start
		{2025, time.June, 0, 30},     // Sunday start
		{2025, time.November, 6, 30},
		{2026, time.March, 0, 31},
		{2026, time.December, 2, 31},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d-%02d", tt.year, tt.month), func(t *testing.T) {
			cells := BuildMonthGrid(tt.year, tt.month, nil)
			assert.Len(t, cells, tt.blanks+tt.daysInMon)
			assert.Equal(t, tt.blanks, LeadingBlanks(tt.year, tt.month))

			for i, c := range cells[tt.blanks:] {
				assert.Equal(t, i+1, c.DayNumber)
				assert.Nil(t, c.Entry)
			}
		})
	}
}

func TestBuildMonthGrid_SparseData(t *testing.T) {
	all := monthRecords(2025, time.March)
	var sparse []models.DayRecord
	missing := map[string]bool{}
	for _, d := range all {
		if d.Date == "2025-03-05" || d.Date == "2025-03-17" || d.Date == "2025-03-31" {
			missing[d.Date] = true
			continue
		}
		sparse = append(sparse, d)
	}

	cells := BuildMonthGrid(2025, time.March, sparse)
	for _, c := range cells {
		if c.IsBlank() {
			continue
		}
		if missing[c.Date] {
			assert.Nil(t, c.Entry, c.Date)
		} else {
			require.NotNil(t, c.Entry, c.Date)
			assert.Equal(t, c.Date, c.Entry.Date)
		}
	}
}

func TestBuildMonthGrid_RoundTrip(t *testing.T) {
	records := monthRecords(2026, time.January)
	// records from neighbouring months are ignored
	input := append([]models.DayRecord{{Date: "2025-12-31"}}, records...)
	input = append(input, models.DayRecord{Date: "2026-02-01"})

	cells := BuildMonthGrid(2026, time.January, input)

	var recovered []models.DayRecord
	for _, c := range cells {
		if c.Entry != nil {
			recovered = append(recovered, *c.Entry)
		}
	}
	if diff := cmp.Diff(records, recovered); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildMonthGrid_Deterministic(t *testing.T) {
	records := monthRecords(2025, time.August)
	a := BuildMonthGrid(2025, time.August, records)
	b := BuildMonthGrid(2025, time.August, records)
	if diff := cmp.Diff(a, b); diff != "" {
		t.Errorf("grid not deterministic (-first +second):\n%s", diff)
	}
}

func TestRows(t *testing.T) {
	cells := BuildMonthGrid(2024, time.February, nil) // 4 blanks + 29 days
	rows := Rows(cells)

	require.Len(t, rows, 5)
	for _, row := range rows {
		assert.Len(t, row, DaysPerWeek)
	}
	assert.Equal(t, 1, rows[0][4].DayNumber)
	assert.Equal(t, 29, rows[4][4].DayNumber)
	assert.True(t, rows[4][5].IsBlank())
	assert.True(t, rows[4][6].IsBlank())

	assert.Empty(t, Rows(nil))
}

func TestSubtitleAndBadge(t *testing.T) {
	holiday := &models.DayRecord{MoonPhase: models.PhaseFull, Holiday: models.StringPtr("Halloween"), MoonName: models.StringPtr("Hunter's Moon")}
	full := &models.DayRecord{MoonPhase: models.PhaseFull, MoonName: models.StringPtr("Beaver Moon")}
	plain := &models.DayRecord{MoonPhase: models.PhaseWaningGibbous}
	unknown := &models.DayRecord{MoonPhase: models.PhaseUnknown}

	assert.Equal(t, "Halloween", Subtitle(holiday))
	assert.Equal(t, "H", Badge(holiday))
	assert.Equal(t, "Beaver Moon", Subtitle(full))
	assert.Equal(t, "●", Badge(full))
	assert.Equal(t, "Waning Gibbous", Subtitle(plain))
	assert.Equal(t, "", Badge(plain))
	assert.Equal(t, "unknown", Subtitle(unknown))
	assert.Equal(t, "", Subtitle(nil))
}
