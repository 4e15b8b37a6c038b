package almanac

import (
	"time"

	"almanac-platform/internal/models"
)

// holidayRule recognizes a single holiday on a civil date
type holidayRule struct {
	name  string
	match func(d models.CivilDate) bool
}

func fixedDate(month time.Month, day int) func(models.CivilDate) bool {
	return func(d models.CivilDate) bool {
		return d.Month == month && d.Day == day
	}
}

// holidayRules are evaluated in order; the first match wins
var holidayRules = []holidayRule{
	{"New Year's Day", fixedDate(time.January, 1)},
	{"Independence Day", fixedDate(time.July, 4)},
	{"Halloween", fixedDate(time.October, 31)},
	{"Christmas Day", fixedDate(time.December, 25)},
	// first Monday in September
	{"Labor Day", func(d models.CivilDate) bool {
		return d.Month == time.September && d.Weekday() == time.Monday && d.Day <= 7
	}},
	// fourth Thursday in November
	{"Thanksgiving", func(d models.CivilDate) bool {
		return d.Month == time.November && d.Weekday() == time.Thursday && (d.Day-1)/7+1 == 4
	}},
	// last Monday in May
	{"Memorial Day", func(d models.CivilDate) bool {
		return d.Month == time.May && d.Weekday() == time.Monday && d.Day+7 > 31
	}},
}

// HolidayOf returns the US holiday falling on d, or nil
func HolidayOf(d models.CivilDate) *string {
	for _, rule := range holidayRules {
		if rule.match(d) {
			return models.StringPtr(rule.name)
		}
	}
	return nil
}

// HolidaysIn lists every recognized holiday of a year keyed by YYYY-MM-DD
func HolidaysIn(year int) map[string]string {
	holidays := make(map[string]string)
	for d := models.NewCivilDate(year, time.January, 1); d.Year == year; d = d.AddDays(1) {
		if name := HolidayOf(d); name != nil {
			holidays[d.String()] = *name
		}
	}
	return holidays
}
