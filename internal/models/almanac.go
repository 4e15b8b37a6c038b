package models

import (
	"fmt"
	"time"
)

// DateLayout is the canonical DayRecord date format. Zero-padded fields make
// lexicographic order equal chronological order.
const DateLayout = "2006-01-02"

// PhaseSlug is the closed vocabulary for moon phases
type PhaseSlug string

const (
	PhaseNew            PhaseSlug = "new"
	PhaseWaxingCrescent PhaseSlug = "waxing_crescent"
	PhaseFirstQuarter   PhaseSlug = "first_quarter"
	PhaseWaxingGibbous  PhaseSlug = "waxing_gibbous"
	PhaseFull           PhaseSlug = "full"
	PhaseWaningGibbous  PhaseSlug = "waning_gibbous"
	PhaseLastQuarter    PhaseSlug = "last_quarter"
	PhaseWaningCrescent PhaseSlug = "waning_crescent"
	PhaseUnknown        PhaseSlug = "unknown"
)

// PhaseSlugs lists the eight recognized phases in lunation order
var PhaseSlugs = []PhaseSlug{
	PhaseNew,
	PhaseWaxingCrescent,
	PhaseFirstQuarter,
	PhaseWaxingGibbous,
	PhaseFull,
	PhaseWaningGibbous,
	PhaseLastQuarter,
	PhaseWaningCrescent,
}

// PhaseGroup is a coarser bucket over phase slugs that drives guidance selection
type PhaseGroup string

const (
	GroupNew     PhaseGroup = "new"
	GroupFull    PhaseGroup = "full"
	GroupQuarter PhaseGroup = "quarter"
	GroupWaxing  PhaseGroup = "waxing"
	GroupWaning  PhaseGroup = "waning"
	GroupOther   PhaseGroup = "other"
)

// Season is derived from the month alone (northern hemisphere, meteorological)
type Season string

const (
	SeasonWinter Season = "winter"
	SeasonSpring Season = "spring"
	SeasonSummer Season = "summer"
	SeasonFall   Season = "fall"
)

// Guidance holds ordered recommendations. Both lists are always non-nil so
// they serialize as [] when empty.
type Guidance struct {
	BestFor []string `json:"bestFor"`
	Avoid   []string `json:"avoid"`
}

// NewGuidance returns a Guidance with empty, non-nil lists
func NewGuidance() Guidance {
	return Guidance{BestFor: []string{}, Avoid: []string{}}
}

// IsEmpty reports whether the guidance carries no entries
func (g Guidance) IsEmpty() bool {
	return len(g.BestFor) == 0 && len(g.Avoid) == 0
}

// DayRecord is the per-date almanac classification, the unit of generated data.
//
// Optional scalars are pointers and serialize as explicit null when absent.
// List fields are never nil and serialize as [] when empty.
type DayRecord struct {
	Date       string     `json:"date"`
	MoonPhase  PhaseSlug  `json:"moonPhase"`
	PhaseGroup PhaseGroup `json:"phaseGroup"`
	MoonName   *string    `json:"moonName"`
	Sign       *string    `json:"sign"`
	Notes      *string    `json:"notes"`
	Region     string     `json:"region"`
	Holiday    *string    `json:"holiday"`
	Eclipse    *string    `json:"eclipse"`
	Season     Season     `json:"season"`
	Crops      []string   `json:"crops"`
	Farming    Guidance   `json:"farming"`
	Business   Guidance   `json:"business"`
}

// Normalize replaces nil lists with empty ones so every record follows the
// same absence convention regardless of where it was loaded from.
func (d *DayRecord) Normalize() {
	if d.Crops == nil {
		d.Crops = []string{}
	}
	if d.Farming.BestFor == nil {
		d.Farming.BestFor = []string{}
	}
	if d.Farming.Avoid == nil {
		d.Farming.Avoid = []string{}
	}
	if d.Business.BestFor == nil {
		d.Business.BestFor = []string{}
	}
	if d.Business.Avoid == nil {
		d.Business.Avoid = []string{}
	}
}

// Validate checks the record invariants that do not depend on its neighbours
func (d *DayRecord) Validate() error {
	if _, err := ParseCivilDate(d.Date); err != nil {
		return err
	}
	if (d.MoonName != nil) != (d.MoonPhase == PhaseFull) {
		return &ValidationError{
			Field:   "moonName",
			Value:   d.Date,
			Message: fmt.Sprintf("moonName must be set only for full moons (date %s, phase %s)", d.Date, d.MoonPhase),
		}
	}
	return nil
}

// StringPtr returns a pointer to s
func StringPtr(s string) *string {
	return &s
}

// CivilDate is a calendar date without time of day or zone. All almanac
// date arithmetic happens on CivilDate so month, weekday and the formatted
// key never drift across a day boundary.
type CivilDate struct {
	Year  int
	Month time.Month
	Day   int
}

// NewCivilDate builds a normalized CivilDate (e.g. Feb 30 becomes Mar 1 or 2)
func NewCivilDate(year int, month time.Month, day int) CivilDate {
	return CivilDateOf(time.Date(year, month, day, 12, 0, 0, 0, time.UTC))
}

// CivilDateOf returns the calendar date of t in t's own location
func CivilDateOf(t time.Time) CivilDate {
	y, m, d := t.Date()
	return CivilDate{Year: y, Month: m, Day: d}
}

// ParseCivilDate parses a YYYY-MM-DD string
func ParseCivilDate(s string) (CivilDate, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return CivilDate{}, &ValidationError{
			Field:   "date",
			Value:   s,
			Message: "invalid date format, expected YYYY-MM-DD",
		}
	}
	return CivilDateOf(t), nil
}

// String formats the date as YYYY-MM-DD
func (c CivilDate) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", c.Year, int(c.Month), c.Day)
}

// noon anchors the date at 12:00 UTC so formatting never crosses midnight
func (c CivilDate) noon() time.Time {
	return time.Date(c.Year, c.Month, c.Day, 12, 0, 0, 0, time.UTC)
}

// In returns local midnight of the date in loc
func (c CivilDate) In(loc *time.Location) time.Time {
	return time.Date(c.Year, c.Month, c.Day, 0, 0, 0, 0, loc)
}

// Weekday returns the day of the week of the date
func (c CivilDate) Weekday() time.Weekday {
	return c.noon().Weekday()
}

// AddDays returns the date n days later (n may be negative)
func (c CivilDate) AddDays(n int) CivilDate {
	return CivilDateOf(c.noon().AddDate(0, 0, n))
}

// Before reports whether c is strictly earlier than other
func (c CivilDate) Before(other CivilDate) bool {
	return c.String() < other.String()
}

// After reports whether c is strictly later than other
func (c CivilDate) After(other CivilDate) bool {
	return c.String() > other.String()
}

// DaysUntil returns the number of days from c to other, inclusive of neither end
func (c CivilDate) DaysUntil(other CivilDate) int {
	return int(other.noon().Sub(c.noon()).Hours() / 24)
}

// DaysIn returns the number of days in the given month (day 0 of the next month)
func DaysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 12, 0, 0, 0, time.UTC).Day()
}

// IsLeapYear reports whether year has a February 29
func IsLeapYear(year int) bool {
	return DaysIn(year, time.February) == 29
}

// ValidationError represents a data validation error
type ValidationError struct {
	Field   string
	Value   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// IsTransient returns false as validation errors are permanent
func (e *ValidationError) IsTransient() bool {
	return false
}
