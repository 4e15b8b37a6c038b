package calendar

import (
	"almanac-platform/internal/models"
)

// FilterMode narrows the records shown in a month view
type FilterMode string

const (
	FilterAll      FilterMode = "all"
	FilterFarming  FilterMode = "farming"
	FilterBusiness FilterMode = "business"
)

// FilterModes lists the supported modes in display order
var FilterModes = []FilterMode{FilterAll, FilterFarming, FilterBusiness}

// ParseFilterMode validates a mode; empty means all
func ParseFilterMode(s string) (FilterMode, error) {
	switch FilterMode(s) {
	case "", FilterAll:
		return FilterAll, nil
	case FilterFarming, FilterBusiness:
		return FilterMode(s), nil
	default:
		return "", &models.ValidationError{
			Field:   "filter",
			Value:   s,
			Message: "invalid filter, expected all, farming or business",
		}
	}
}

// Label is the button text for a mode
func (m FilterMode) Label() string {
	switch m {
	case FilterFarming:
		return "Farming focus"
	case FilterBusiness:
		return "Business focus"
	default:
		return "All entries"
	}
}

// Filter keeps records that carry guidance for the selected focus
func Filter(days []models.DayRecord, mode FilterMode) []models.DayRecord {
	if mode == FilterAll || mode == "" {
		return days
	}

	filtered := make([]models.DayRecord, 0, len(days))
	for _, d := range days {
		switch mode {
		case FilterFarming:
			if !d.Farming.IsEmpty() {
				filtered = append(filtered, d)
			}
		case FilterBusiness:
			if !d.Business.IsEmpty() {
				filtered = append(filtered, d)
			}
		}
	}
	return filtered
}
