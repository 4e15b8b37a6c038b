package almanac

import (
	"almanac-platform/internal/models"
)

const (
	noteNew     = "Quiet, seed-planting time in both fields and plans; good for intention and setup work."
	noteFull    = "Peak energy and visibility; ideal for harvest, wrapping cycles, and public-facing moves."
	noteQuarter = "Turning point energy; pause, evaluate, and adjust course rather than forcing new starts or endings."
	noteWaxing  = "Energy building; favor starting and growing things."
	noteWaning  = "Energy easing; favor cleanup, harvest, and letting go."
)

// NotesFor picks the guidance sentence. The exact phase wins over the group.
func NotesFor(slug models.PhaseSlug, group models.PhaseGroup) *string {
	switch {
	case slug == models.PhaseNew:
		return models.StringPtr(noteNew)
	case slug == models.PhaseFull:
		return models.StringPtr(noteFull)
	case group == models.GroupQuarter:
		return models.StringPtr(noteQuarter)
	case group == models.GroupWaxing:
		return models.StringPtr(noteWaxing)
	case group == models.GroupWaning:
		return models.StringPtr(noteWaning)
	default:
		return nil
	}
}
