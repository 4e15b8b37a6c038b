package almanac

import (
	"time"

	"almanac-platform/internal/models"
)

// SeasonOf maps a month to its season. The mapping is fixed and not
// hemisphere aware.
func SeasonOf(month time.Month) models.Season {
	switch month {
	case time.December, time.January, time.February:
		return models.SeasonWinter
	case time.March, time.April, time.May:
		return models.SeasonSpring
	case time.June, time.July, time.August:
		return models.SeasonSummer
	default:
		return models.SeasonFall
	}
}
