package calendar

import (
	"almanac-platform/internal/models"
)

var phaseLabels = map[models.PhaseSlug]string{
	models.PhaseNew:            "New Moon",
	models.PhaseWaxingCrescent: "Waxing Crescent",
	models.PhaseFirstQuarter:   "First Quarter",
	models.PhaseWaxingGibbous:  "Waxing Gibbous",
	models.PhaseFull:           "Full Moon",
	models.PhaseWaningGibbous:  "Waning Gibbous",
	models.PhaseLastQuarter:    "Last Quarter",
	models.PhaseWaningCrescent: "Waning Crescent",
}

// PhaseLabel returns the display name of a phase, falling back to the slug
func PhaseLabel(slug models.PhaseSlug) string {
	if label, ok := phaseLabels[slug]; ok {
		return label
	}
	return string(slug)
}

// Subtitle is the short text shown in a grid cell: holiday, then full-moon
// name, then the phase label.
func Subtitle(rec *models.DayRecord) string {
	switch {
	case rec == nil:
		return ""
	case rec.Holiday != nil:
		return *rec.Holiday
	case rec.MoonName != nil:
		return *rec.MoonName
	default:
		return PhaseLabel(rec.MoonPhase)
	}
}

// Badge is the marker in the corner of a cell: "H" for holidays, a dot for
// full moons, empty otherwise.
func Badge(rec *models.DayRecord) string {
	switch {
	case rec == nil:
		return ""
	case rec.Holiday != nil:
		return "H"
	case rec.MoonPhase == models.PhaseFull:
		return "●"
	default:
		return ""
	}
}
