package almanac

import (
	"strings"
	"time"

	"almanac-platform/internal/models"
)

// PhaseSource names the moon phase at an instant, e.g. "Waxing Gibbous".
// Implementations are expected to be total; unrecognized labels are
// classified as unknown rather than treated as errors.
type PhaseSource interface {
	Phase(t time.Time) string
}

// PhaseFunc adapts a plain function to PhaseSource
type PhaseFunc func(t time.Time) string

// Phase calls f(t)
func (f PhaseFunc) Phase(t time.Time) string {
	return f(t)
}

// phaseLabels maps astronomical phase labels to slugs by exact match
var phaseLabels = map[string]models.PhaseSlug{
	"New":             models.PhaseNew,
	"Waxing Crescent": models.PhaseWaxingCrescent,
	"First Quarter":   models.PhaseFirstQuarter,
	"Waxing Gibbous":  models.PhaseWaxingGibbous,
	"Full":            models.PhaseFull,
	"Waning Gibbous":  models.PhaseWaningGibbous,
	"Last Quarter":    models.PhaseLastQuarter,
	"Waning Crescent": models.PhaseWaningCrescent,
}

// MapPhaseLabel converts a phase label to its slug, or unknown
func MapPhaseLabel(label string) models.PhaseSlug {
	if slug, ok := phaseLabels[label]; ok {
		return slug
	}
	return models.PhaseUnknown
}

// GroupOf coarsens a phase slug. With quarterGroup disabled, first and last
// quarter fall into the other bucket.
func GroupOf(slug models.PhaseSlug, quarterGroup bool) models.PhaseGroup {
	switch {
	case slug == models.PhaseNew:
		return models.GroupNew
	case slug == models.PhaseFull:
		return models.GroupFull
	case slug == models.PhaseFirstQuarter || slug == models.PhaseLastQuarter:
		if quarterGroup {
			return models.GroupQuarter
		}
		return models.GroupOther
	case strings.HasPrefix(string(slug), "waxing"):
		return models.GroupWaxing
	case strings.HasPrefix(string(slug), "waning"):
		return models.GroupWaning
	default:
		return models.GroupOther
	}
}

// fullMoonNames is indexed by month-1
var fullMoonNames = [12]string{
	"Wolf Moon",
	"Snow Moon",
	"Worm Moon",
	"Pink Moon",
	"Flower Moon",
	"Strawberry Moon",
	"Buck Moon",
	"Sturgeon Moon",
	"Harvest Moon",
	"Hunter's Moon",
	"Beaver Moon",
	"Cold Moon",
}

// FullMoonName returns the traditional name of a full moon in month, or nil
// when the phase is not full.
func FullMoonName(month time.Month, slug models.PhaseSlug) *string {
	if slug != models.PhaseFull || month < time.January || month > time.December {
		return nil
	}
	return models.StringPtr(fullMoonNames[month-1])
}
