package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"almanac-platform/internal/calendar"
	"almanac-platform/internal/models"
	"almanac-platform/pkg/database"
	"almanac-platform/pkg/logging"
	"almanac-platform/pkg/metrics"
)

// AlmanacRepository provides data access for almanac day records
type AlmanacRepository interface {
	// SaveDays upserts records by date
	SaveDays(ctx context.Context, days []models.DayRecord) error
	GetDay(ctx context.Context, date string) (*models.DayRecord, error)
	// ListDays returns matching records in ascending date order together
	// with the number of matches before pagination.
	ListDays(ctx context.Context, filter DayFilter) ([]models.DayRecord, int, error)
	ListMonth(ctx context.Context, year int, month time.Month) ([]models.DayRecord, error)

	// Utility operations
	HealthCheck(ctx context.Context) error
}

// DayFilter defines filters for querying day records. Offset applies only
// with a positive Limit.
type DayFilter struct {
	Start        *string // inclusive YYYY-MM-DD
	End          *string // inclusive YYYY-MM-DD
	Phase        *models.PhaseSlug
	HolidaysOnly bool
	Limit        int
	Offset       int
}

// Matches reports whether a record satisfies the filter, ignoring pagination
func (f DayFilter) Matches(d *models.DayRecord) bool {
	if f.Start != nil && d.Date < *f.Start {
		return false
	}
	if f.End != nil && d.Date > *f.End {
		return false
	}
	if f.Phase != nil && d.MoonPhase != *f.Phase {
		return false
	}
	if f.HolidaysOnly && d.Holiday == nil {
		return false
	}
	return true
}

// monthFilter covers every date of a month
func monthFilter(year int, month time.Month) DayFilter {
	start := models.NewCivilDate(year, month, 1).String()
	end := models.NewCivilDate(year, month, models.DaysIn(year, month)).String()
	return DayFilter{Start: &start, End: &end}
}

// dayRow is the almanac_days table layout. List fields are JSON text.
type dayRow struct {
	Date       string  `db:"date"`
	MoonPhase  string  `db:"moon_phase"`
	PhaseGroup string  `db:"phase_group"`
	MoonName   *string `db:"moon_name"`
	Holiday    *string `db:"holiday"`
	Season     string  `db:"season"`
	Notes      *string `db:"notes"`
	Region     string  `db:"region"`
	Sign       *string `db:"sign"`
	Eclipse    *string `db:"eclipse"`
	Crops      string  `db:"crops"`
	Farming    string  `db:"farming"`
	Business   string  `db:"business"`
}

const dayColumns = `date, moon_phase, phase_group, moon_name, holiday, season, notes,
		       region, sign, eclipse, crops, farming, business`

func toRow(d models.DayRecord) (dayRow, error) {
	d.Normalize()

	crops, err := json.Marshal(d.Crops)
	if err != nil {
		return dayRow{}, err
	}
	farming, err := json.Marshal(d.Farming)
	if err != nil {
		return dayRow{}, err
	}
	business, err := json.Marshal(d.Business)
	if err != nil {
		return dayRow{}, err
	}

	return dayRow{
		Date:       d.Date,
		MoonPhase:  string(d.MoonPhase),
		PhaseGroup: string(d.PhaseGroup),
		MoonName:   d.MoonName,
		Holiday:    d.Holiday,
		Season:     string(d.Season),
		Notes:      d.Notes,
		Region:     d.Region,
		Sign:       d.Sign,
		Eclipse:    d.Eclipse,
		Crops:      string(crops),
		Farming:    string(farming),
		Business:   string(business),
	}, nil
}

func (r dayRow) toRecord() (models.DayRecord, error) {
	rec := models.DayRecord{
		Date:       r.Date,
		MoonPhase:  models.PhaseSlug(r.MoonPhase),
		PhaseGroup: models.PhaseGroup(r.PhaseGroup),
		MoonName:   r.MoonName,
		Holiday:    r.Holiday,
		Season:     models.Season(r.Season),
		Notes:      r.Notes,
		Region:     r.Region,
		Sign:       r.Sign,
		Eclipse:    r.Eclipse,
	}

	if err := json.Unmarshal([]byte(r.Crops), &rec.Crops); err != nil {
		return rec, fmt.Errorf("invalid crops for %s: %w", r.Date, err)
	}
	if err := json.Unmarshal([]byte(r.Farming), &rec.Farming); err != nil {
		return rec, fmt.Errorf("invalid farming guidance for %s: %w", r.Date, err)
	}
	if err := json.Unmarshal([]byte(r.Business), &rec.Business); err != nil {
		return rec, fmt.Errorf("invalid business guidance for %s: %w", r.Date, err)
	}

	rec.Normalize()
	return rec, nil
}

// almanacRepository implements AlmanacRepository over SQL
type almanacRepository struct {
	db      *database.Database
	logger  *logging.StructuredLogger
	metrics *metrics.Collector
}

// NewAlmanacRepository creates a new SQL backed repository
func NewAlmanacRepository(db *database.Database, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) AlmanacRepository {
	return &almanacRepository{
		db:      db,
		logger:  logger,
		metrics: metricsCollector,
	}
}

// SaveDays upserts records in a single transaction
func (r *almanacRepository) SaveDays(ctx context.Context, days []models.DayRecord) error {
	if len(days) == 0 {
		return nil
	}

	timer := time.Now()
	defer func() {
		duration := time.Since(timer)
		r.metrics.LoadBatchSize.Observe(float64(len(days)))
		r.logger.Debug(ctx, "[REPO_BATCH_UPSERT] Batch upsert completed", logging.Fields{
			"count":       len(days),
			"duration_ms": duration.Milliseconds(),
		})
	}()

	// Begin transaction
	tx, err := r.db.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// Prepare statement
	stmt, err := tx.PrepareContext(ctx, r.db.Rebind(`
		INSERT INTO almanac_days (
			date, moon_phase, phase_group, moon_name, holiday, season, notes,
			region, sign, eclipse, crops, farming, business
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (date) DO UPDATE SET
			moon_phase = EXCLUDED.moon_phase,
			phase_group = EXCLUDED.phase_group,
			moon_name = EXCLUDED.moon_name,
			holiday = EXCLUDED.holiday,
			season = EXCLUDED.season,
			notes = EXCLUDED.notes,
			region = EXCLUDED.region,
			sign = EXCLUDED.sign,
			eclipse = EXCLUDED.eclipse,
			crops = EXCLUDED.crops,
			farming = EXCLUDED.farming,
			business = EXCLUDED.business
	`))
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	// Execute batch
	for _, d := range days {
		if err := d.Validate(); err != nil {
			return err
		}
		row, err := toRow(d)
		if err != nil {
			return fmt.Errorf("failed to encode day %s: %w", d.Date, err)
		}

		_, err = stmt.ExecContext(ctx,
			row.Date,
			row.MoonPhase,
			row.PhaseGroup,
			row.MoonName,
			row.Holiday,
			row.Season,
			row.Notes,
			row.Region,
			row.Sign,
			row.Eclipse,
			row.Crops,
			row.Farming,
			row.Business,
		)
		if err != nil {
			r.metrics.RecordDBError("upsert_error")
			return fmt.Errorf("failed to upsert day %s: %w", d.Date, err)
		}
	}

	// Commit transaction
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// GetDay retrieves the record for one date
func (r *almanacRepository) GetDay(ctx context.Context, date string) (*models.DayRecord, error) {
	if _, err := models.ParseCivilDate(date); err != nil {
		return nil, err
	}

	query := `SELECT ` + dayColumns + ` FROM almanac_days WHERE date = ?`

	var row dayRow
	err := r.db.GetContext(ctx, "get_day", &row, query, date)

	if err == sql.ErrNoRows {
		return nil, &NotFoundError{
			Resource: "almanac_day",
			ID:       date,
		}
	}

	if err != nil {
		return nil, fmt.Errorf("failed to get day: %w", err)
	}

	rec, err := row.toRecord()
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// ListDays retrieves records with filtering and pagination
func (r *almanacRepository) ListDays(ctx context.Context, filter DayFilter) ([]models.DayRecord, int, error) {
	// Build query with filters
	where := ` FROM almanac_days WHERE 1=1`
	args := []interface{}{}

	if filter.Start != nil {
		where += " AND date >= ?"
		args = append(args, *filter.Start)
	}

	if filter.End != nil {
		where += " AND date <= ?"
		args = append(args, *filter.End)
	}

	if filter.Phase != nil {
		where += " AND moon_phase = ?"
		args = append(args, string(*filter.Phase))
	}

	if filter.HolidaysOnly {
		where += " AND holiday IS NOT NULL"
	}

	// Get total count
	var totalCount int
	err := r.db.GetContext(ctx, "count_days", &totalCount, "SELECT COUNT(*)"+where, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count days: %w", err)
	}

	// Add ordering and pagination
	query := "SELECT " + dayColumns + where + " ORDER BY date"
	if filter.Limit > 0 {
		query += " LIMIT ? OFFSET ?"
		args = append(args, filter.Limit, filter.Offset)
	}

	// Execute query
	var rows []dayRow
	err = r.db.SelectContext(ctx, "list_days", &rows, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list days: %w", err)
	}

	days := make([]models.DayRecord, 0, len(rows))
	for _, row := range rows {
		rec, err := row.toRecord()
		if err != nil {
			return nil, 0, err
		}
		days = append(days, rec)
	}

	return days, totalCount, nil
}

// ListMonth retrieves every stored record of a month
func (r *almanacRepository) ListMonth(ctx context.Context, year int, month time.Month) ([]models.DayRecord, error) {
	days, _, err := r.ListDays(ctx, monthFilter(year, month))
	if err != nil {
		return nil, fmt.Errorf("failed to list month %s: %w", calendar.MonthKey(year, month), err)
	}
	return days, nil
}

// HealthCheck performs a repository health check
func (r *almanacRepository) HealthCheck(ctx context.Context) error {
	return r.db.HealthCheck(ctx)
}

// NotFoundError represents a resource not found error
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

func (e *NotFoundError) IsTransient() bool {
	return false
}
