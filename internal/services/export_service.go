package services

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/emersion/go-ical"
	"github.com/google/uuid"

	"almanac-platform/internal/calendar"
	"almanac-platform/internal/models"
	"almanac-platform/internal/repository"
	"almanac-platform/pkg/logging"
	"almanac-platform/pkg/metrics"
)

const (
	icsProductID = "-//almanac-platform//Lunar Almanac//EN"
	icsCalName   = "Lunar Almanac"

	propCalScale   = "CALSCALE"
	propXWRCalName = "X-WR-CALNAME"
)

// CSVHeader is the first row of a CSV export
var CSVHeader = []string{
	"date", "moon_phase", "phase_group", "moon_name", "holiday", "season", "notes",
	"crops", "farming_best_for", "farming_avoid", "business_best_for", "business_avoid", "region",
}

// ExportService renders almanac data as iCalendar or CSV
type ExportService struct {
	repo    repository.AlmanacRepository
	clock   Clock
	logger  *logging.StructuredLogger
	metrics *metrics.Collector
}

// NewExportService creates a new export service
func NewExportService(repo repository.AlmanacRepository, clock Clock, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) *ExportService {
	if clock == nil {
		clock = RealClock{}
	}
	return &ExportService{
		repo:    repo,
		clock:   clock,
		logger:  logger,
		metrics: metricsCollector,
	}
}

// eventUID is stable for a given kind and date so re-imports update
// existing events instead of duplicating them.
func eventUID(kind, date string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte("almanac-platform/"+kind+"/"+date)).String() + "@almanac-platform"
}

// BuildCalendar turns holidays and named full moons into all-day events
func (s *ExportService) BuildCalendar(days []models.DayRecord) (*ical.Calendar, int, error) {
	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropProductID, icsProductID)
	cal.Props.SetText(propCalScale, "GREGORIAN")
	cal.Props.SetText(propXWRCalName, icsCalName)

	stamp := s.clock.Now().UTC()
	events := 0

	for _, d := range days {
		date, err := models.ParseCivilDate(d.Date)
		if err != nil {
			return nil, 0, err
		}

		if d.Holiday != nil {
			cal.Children = append(cal.Children, allDayEvent(eventUID("holiday", d.Date), *d.Holiday, "Holiday", date, stamp, d.Notes).Component)
			events++
		}
		if d.MoonName != nil {
			cal.Children = append(cal.Children, allDayEvent(eventUID("full-moon", d.Date), *d.MoonName, "Full Moon", date, stamp, d.Notes).Component)
			events++
		}
	}

	return cal, events, nil
}

func allDayEvent(uid, summary, category string, date models.CivilDate, stamp time.Time, notes *string) *ical.Event {
	event := ical.NewEvent()
	event.Props.SetText(ical.PropUID, uid)
	event.Props.SetText(ical.PropSummary, summary)
	event.Props.SetText(ical.PropCategories, category)
	if notes != nil {
		event.Props.SetText(ical.PropDescription, *notes)
	}

	dtStamp := ical.NewProp(ical.PropDateTimeStamp)
	dtStamp.SetDateTime(stamp)
	event.Props.Set(dtStamp)

	// value=DATE; DTEND is exclusive
	dtStart := ical.NewProp(ical.PropDateTimeStart)
	dtStart.SetDate(date.In(time.UTC))
	event.Props.Set(dtStart)

	dtEnd := ical.NewProp(ical.PropDateTimeEnd)
	dtEnd.SetDate(date.AddDays(1).In(time.UTC))
	event.Props.Set(dtEnd)

	return event
}

// WriteICS writes the matching days as an iCalendar feed
func (s *ExportService) WriteICS(ctx context.Context, w io.Writer, filter repository.DayFilter) error {
	timer := s.metrics.NewTimer(s.metrics.ProcessingTimeMS.WithLabelValues("export_ics"))
	defer timer.ObserveDuration()

	days, _, err := s.repo.ListDays(ctx, filter)
	if err != nil {
		return fmt.Errorf("failed to list days: %w", err)
	}

	cal, events, err := s.BuildCalendar(days)
	if err != nil {
		return err
	}
	if events == 0 {
		return &models.ValidationError{
			Field:   "range",
			Value:   fmt.Sprintf("%d days", len(days)),
			Message: "no holidays or named full moons in the selected range",
		}
	}

	if err := ical.NewEncoder(w).Encode(cal); err != nil {
		return fmt.Errorf("failed to encode calendar: %w", err)
	}

	s.logger.Info(ctx, "[EXPORT_ICS] Calendar exported", logging.Fields{
		"days":   len(days),
		"events": events,
	})
	return nil
}

// WriteCSV writes one row per matching day, narrowed by focus mode
func (s *ExportService) WriteCSV(ctx context.Context, w io.Writer, filter repository.DayFilter, mode calendar.FilterMode) error {
	timer := s.metrics.NewTimer(s.metrics.ProcessingTimeMS.WithLabelValues("export_csv"))
	defer timer.ObserveDuration()

	days, _, err := s.repo.ListDays(ctx, filter)
	if err != nil {
		return fmt.Errorf("failed to list days: %w", err)
	}
	days = calendar.Filter(days, mode)

	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader); err != nil {
		return err
	}
	for _, d := range days {
		if err := cw.Write(csvRow(d)); err != nil {
			return err
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("failed to write csv: %w", err)
	}

	s.logger.Info(ctx, "[EXPORT_CSV] CSV exported", logging.Fields{
		"days":   len(days),
		"filter": string(mode),
	})
	return nil
}

func csvRow(d models.DayRecord) []string {
	return []string{
		d.Date,
		string(d.MoonPhase),
		string(d.PhaseGroup),
		deref(d.MoonName),
		deref(d.Holiday),
		string(d.Season),
		deref(d.Notes),
		strings.Join(d.Crops, "; "),
		strings.Join(d.Farming.BestFor, "; "),
		strings.Join(d.Farming.Avoid, "; "),
		strings.Join(d.Business.BestFor, "; "),
		strings.Join(d.Business.Avoid, "; "),
		d.Region,
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
