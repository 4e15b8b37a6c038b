package services

import (
	"context"
	"fmt"
	"time"

	"almanac-platform/internal/calendar"
	"almanac-platform/internal/models"
	"almanac-platform/internal/repository"
	"almanac-platform/pkg/logging"
	"almanac-platform/pkg/metrics"
)

// AlmanacService serves grouped, filtered and laid out almanac data
type AlmanacService struct {
	repo     repository.AlmanacRepository
	location *time.Location
	clock    Clock
	logger   *logging.StructuredLogger
	metrics  *metrics.Collector
}

// MonthView is one month laid out for display
type MonthView struct {
	Key           string              `json:"key"`
	Label         string              `json:"label"`
	Prev          string              `json:"prev,omitempty"`
	Next          string              `json:"next,omitempty"`
	Filter        calendar.FilterMode `json:"filter"`
	WeekdayLabels []string            `json:"weekdayLabels"`
	Cells         []calendar.Cell     `json:"cells"`
	Rows          [][]calendar.Cell   `json:"-"`
	Days          []models.DayRecord  `json:"-"`
}

// NewAlmanacService creates a new almanac service. "Today" is evaluated in
// loc using clock.
func NewAlmanacService(repo repository.AlmanacRepository, loc *time.Location, clock Clock, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) *AlmanacService {
	if loc == nil {
		loc = time.UTC
	}
	if clock == nil {
		clock = RealClock{}
	}
	return &AlmanacService{
		repo:     repo,
		location: loc,
		clock:    clock,
		logger:   logger,
		metrics:  metricsCollector,
	}
}

// TodayDate returns the current civil date in the almanac time zone
func (s *AlmanacService) TodayDate() models.CivilDate {
	return models.CivilDateOf(s.clock.Now().In(s.location))
}

// Days retrieves records with filtering, narrowed further by focus mode
func (s *AlmanacService) Days(ctx context.Context, filter repository.DayFilter, mode calendar.FilterMode) ([]models.DayRecord, int, error) {
	if mode == calendar.FilterAll || mode == "" {
		return s.repo.ListDays(ctx, filter)
	}

	// Focus filtering happens after the query, so paginate here
	limit, offset := filter.Limit, filter.Offset
	filter.Limit, filter.Offset = 0, 0

	days, _, err := s.repo.ListDays(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	days = calendar.Filter(days, mode)
	total := len(days)

	if limit > 0 {
		if offset > total {
			offset = total
		}
		end := offset + limit
		if end > total {
			end = total
		}
		days = days[offset:end]
	}
	return days, total, nil
}

// Day retrieves one record
func (s *AlmanacService) Day(ctx context.Context, date string) (*models.DayRecord, error) {
	return s.repo.GetDay(ctx, date)
}

// MonthKeys lists every YYYY-MM present in the data set, ascending
func (s *AlmanacService) MonthKeys(ctx context.Context) ([]string, error) {
	days, _, err := s.repo.ListDays(ctx, repository.DayFilter{})
	if err != nil {
		return nil, fmt.Errorf("failed to list days: %w", err)
	}
	return calendar.MonthKeys(calendar.GroupByMonth(days)), nil
}

// MonthView lays out one month. An empty key selects the month of today's
// entry. Days hidden by the filter appear as cells without an entry.
func (s *AlmanacService) MonthView(ctx context.Context, key string, mode calendar.FilterMode) (*MonthView, error) {
	keys, err := s.MonthKeys(ctx)
	if err != nil {
		return nil, err
	}
	if len(keys) == 0 {
		return nil, &repository.NotFoundError{Resource: "almanac_month", ID: key}
	}

	if key == "" {
		key = s.defaultMonth(ctx, keys)
	}

	year, month, err := calendar.ParseMonthKey(key)
	if err != nil {
		return nil, err
	}
	if !containsKey(keys, key) {
		return nil, &repository.NotFoundError{Resource: "almanac_month", ID: key}
	}
	prev, next := calendar.Neighbors(keys, key)

	days, err := s.repo.ListMonth(ctx, year, month)
	if err != nil {
		return nil, err
	}
	days = calendar.Filter(days, mode)

	timer := s.metrics.NewTimer(s.metrics.GridBuildDuration)
	cells := calendar.BuildMonthGrid(year, month, days)
	elapsed := timer.ObserveDuration()

	s.logger.Debug(ctx, "[MONTH_VIEW] Month grid built", logging.Fields{
		"month":       key,
		"filter":      string(mode),
		"entries":     len(days),
		"cells":       len(cells),
		"duration_us": elapsed.Microseconds(),
	})

	return &MonthView{
		Key:           key,
		Label:         calendar.MonthLabel(key),
		Prev:          prev,
		Next:          next,
		Filter:        mode,
		WeekdayLabels: calendar.WeekdayLabels[:],
		Cells:         cells,
		Rows:          calendar.Rows(cells),
		Days:          days,
	}, nil
}

func containsKey(keys []string, key string) bool {
	for _, k := range keys {
		if k == key {
			return true
		}
	}
	return false
}

// defaultMonth picks the month holding today's entry, falling back to the
// first month.
func (s *AlmanacService) defaultMonth(ctx context.Context, keys []string) string {
	entry, err := s.Today(ctx, "")
	if err != nil || len(entry.Date) < 7 {
		return keys[0]
	}
	return entry.Date[:7]
}

// Today picks the entry for the "today" strip: the selected date if it
// exists, today's record, the next future record, or the last record.
func (s *AlmanacService) Today(ctx context.Context, selected string) (*models.DayRecord, error) {
	days, _, err := s.repo.ListDays(ctx, repository.DayFilter{})
	if err != nil {
		return nil, fmt.Errorf("failed to list days: %w", err)
	}

	entry := calendar.PickEntry(days, selected, s.TodayDate())
	if entry == nil {
		return nil, &repository.NotFoundError{Resource: "almanac_day", ID: s.TodayDate().String()}
	}
	return entry, nil
}

// HealthCheck checks the underlying repository
func (s *AlmanacService) HealthCheck(ctx context.Context) error {
	return s.repo.HealthCheck(ctx)
}
