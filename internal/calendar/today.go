package calendar

import (
	"sort"

	"almanac-platform/internal/models"
)

// PickEntry chooses the record for the "today" strip: the selected date if
// present, otherwise today, otherwise the next future date, otherwise the
// last record. Returns nil for an empty set.
func PickEntry(days []models.DayRecord, selected string, today models.CivilDate) *models.DayRecord {
	if len(days) == 0 {
		return nil
	}

	sorted := make([]models.DayRecord, len(days))
	copy(sorted, days)
	SortByDate(sorted)

	find := func(date string) *models.DayRecord {
		idx := sort.Search(len(sorted), func(i int) bool { return sorted[i].Date >= date })
		if idx < len(sorted) && sorted[idx].Date == date {
			return &sorted[idx]
		}
		return nil
	}

	if selected != "" {
		if match := find(selected); match != nil {
			return match
		}
	}

	todayKey := today.String()
	if match := find(todayKey); match != nil {
		return match
	}

	idx := sort.Search(len(sorted), func(i int) bool { return sorted[i].Date > todayKey })
	if idx < len(sorted) {
		return &sorted[idx]
	}
	return &sorted[len(sorted)-1]
}
