// Package almanac classifies calendar dates into almanac day records:
// moon phase, full-moon name, holiday, season, and farming/business guidance.
package almanac

import (
	"context"
	"errors"
	"fmt"
	"time"

	"almanac-platform/internal/models"
)

// DefaultRegion labels every generated record
const DefaultRegion = "Middle Tennessee / Zone 7a"

// Options controls classification
type Options struct {
	// Region is copied into every record.
	Region string

	// Location is the zone whose local midnight is passed to the phase source.
	// Nil means UTC.
	Location *time.Location

	// QuarterGroup keeps first and last quarter in their own group with a
	// turning-point note. When false they are classified as other.
	QuarterGroup bool
}

// DefaultOptions returns the options used by the published almanac
func DefaultOptions() Options {
	return Options{
		Region:       DefaultRegion,
		Location:     time.UTC,
		QuarterGroup: true,
	}
}

// Stats summarizes a generation pass
type Stats struct {
	Days          int
	UnknownPhases int
	FullMoons     int
	Holidays      int
	UnknownLabels []string
}

// Generator turns a date range into day records
type Generator struct {
	Phases  PhaseSource
	Options Options
}

// NewGenerator creates a generator backed by the given phase source
func NewGenerator(phases PhaseSource, opts Options) *Generator {
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	return &Generator{Phases: phases, Options: opts}
}

// Classify builds the record for a single date
func (g *Generator) Classify(d models.CivilDate) models.DayRecord {
	rec, _ := g.classify(d)
	return rec
}

// classify returns the record together with the raw phase label
func (g *Generator) classify(d models.CivilDate) (models.DayRecord, string) {
	loc := g.Options.Location
	if loc == nil {
		loc = time.UTC
	}

	label := g.Phases.Phase(d.In(loc))
	slug := MapPhaseLabel(label)
	group := GroupOf(slug, g.Options.QuarterGroup)
	season := SeasonOf(d.Month)
	farming, business, crops := GuidanceFor(season, group)

	return models.DayRecord{
		Date:       d.String(),
		MoonPhase:  slug,
		PhaseGroup: group,
		MoonName:   FullMoonName(d.Month, slug),
		Notes:      NotesFor(slug, group),
		Region:     g.Options.Region,
		Holiday:    HolidayOf(d),
		Season:     season,
		Crops:      crops,
		Farming:    farming,
		Business:   business,
	}, label
}

// Generate classifies every date in [start, end] in ascending order
func (g *Generator) Generate(ctx context.Context, start, end models.CivilDate) ([]models.DayRecord, Stats, error) {
	var stats Stats

	if g.Phases == nil {
		return nil, stats, errors.New("almanac generator has no phase source")
	}
	if end.Before(start) {
		return nil, stats, &models.ValidationError{
			Field:   "range",
			Value:   fmt.Sprintf("%s..%s", start, end),
			Message: fmt.Sprintf("invalid range: end %s is before start %s", end, start),
		}
	}

	days := make([]models.DayRecord, 0, start.DaysUntil(end)+1)
	seenLabels := make(map[string]bool)

	for d := start; !d.After(end); d = d.AddDays(1) {
		if err := ctx.Err(); err != nil {
			return nil, stats, err
		}

		rec, label := g.classify(d)
		if rec.MoonPhase == models.PhaseUnknown {
			stats.UnknownPhases++
			if !seenLabels[label] {
				seenLabels[label] = true
				stats.UnknownLabels = append(stats.UnknownLabels, label)
			}
		}
		if rec.MoonName != nil {
			stats.FullMoons++
		}
		if rec.Holiday != nil {
			stats.Holidays++
		}
		days = append(days, rec)
	}

	stats.Days = len(days)
	return days, stats, nil
}

// VerifyContiguous checks that records form an ascending run of consecutive
// dates with no gaps or duplicates.
func VerifyContiguous(days []models.DayRecord) error {
	for i := range days {
		if err := days[i].Validate(); err != nil {
			return err
		}
		if i == 0 {
			continue
		}
		prev, _ := models.ParseCivilDate(days[i-1].Date)
		if want := prev.AddDays(1).String(); days[i].Date != want {
			return &models.ValidationError{
				Field:   "date",
				Value:   days[i].Date,
				Message: fmt.Sprintf("non-contiguous dates: %s follows %s, want %s", days[i].Date, days[i-1].Date, want),
			}
		}
	}
	return nil
}
