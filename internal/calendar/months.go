package calendar

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"almanac-platform/internal/models"
)

// MonthKey formats a year and month as YYYY-MM
func MonthKey(year int, month time.Month) string {
	return fmt.Sprintf("%04d-%02d", year, int(month))
}

// ParseMonthKey parses a YYYY-MM key
func ParseMonthKey(key string) (int, time.Month, error) {
	invalid := &models.ValidationError{
		Field:   "month",
		Value:   key,
		Message: "invalid month, expected YYYY-MM",
	}

	parts := strings.Split(key, "-")
	if len(parts) != 2 || len(parts[0]) != 4 || len(parts[1]) != 2 {
		return 0, 0, invalid
	}
	year, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, invalid
	}
	month, err := strconv.Atoi(parts[1])
	if err != nil || month < 1 || month > 12 {
		return 0, 0, invalid
	}
	return year, time.Month(month), nil
}

// MonthLabel renders a key as e.g. "November 2025". Invalid keys are
// returned unchanged.
func MonthLabel(key string) string {
	year, month, err := ParseMonthKey(key)
	if err != nil {
		return key
	}
	return fmt.Sprintf("%s %d", month, year)
}

// GroupByMonth buckets records by the YYYY-MM prefix of their date. The
// prefix is taken from the string so grouping never depends on a time zone.
func GroupByMonth(days []models.DayRecord) map[string][]models.DayRecord {
	grouped := make(map[string][]models.DayRecord)
	for _, d := range days {
		if len(d.Date) < 7 {
			continue
		}
		key := d.Date[:7]
		grouped[key] = append(grouped[key], d)
	}
	return grouped
}

// MonthKeys returns the sorted keys of a grouping
func MonthKeys(grouped map[string][]models.DayRecord) []string {
	keys := make([]string, 0, len(grouped))
	for k := range grouped {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Neighbors returns the keys before and after key in the sorted list, or
// empty strings at the edges or when key is absent.
func Neighbors(keys []string, key string) (prev, next string) {
	idx := sort.SearchStrings(keys, key)
	if idx >= len(keys) || keys[idx] != key {
		return "", ""
	}
	if idx > 0 {
		prev = keys[idx-1]
	}
	if idx < len(keys)-1 {
		next = keys[idx+1]
	}
	return prev, next
}

// SortByDate orders records ascending by date in place
func SortByDate(days []models.DayRecord) {
	sort.SliceStable(days, func(i, j int) bool {
		return days[i].Date < days[j].Date
	})
}
