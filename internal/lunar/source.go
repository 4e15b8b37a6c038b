// Package lunar names the moon phase for an instant using the lunation
// algorithms from Meeus, Astronomical Algorithms (ch. 49).
package lunar

import (
	"math"
	"time"

	"github.com/soniakeys/meeus/v3/julian"
	"github.com/soniakeys/meeus/v3/moonphase"
)

// SynodicMonth is the mean length of a lunation in days
const SynodicMonth = 29.530588853

// Phase labels, in lunation order
const (
	LabelNew            = "New"
	LabelWaxingCrescent = "Waxing Crescent"
	LabelFirstQuarter   = "First Quarter"
	LabelWaxingGibbous  = "Waxing Gibbous"
	LabelFull           = "Full"
	LabelWaningGibbous  = "Waning Gibbous"
	LabelLastQuarter    = "Last Quarter"
	LabelWaningCrescent = "Waning Crescent"
)

var labels = [8]string{
	LabelNew,
	LabelWaxingCrescent,
	LabelFirstQuarter,
	LabelWaxingGibbous,
	LabelFull,
	LabelWaningGibbous,
	LabelLastQuarter,
	LabelWaningCrescent,
}

const (
	j2000        = 2451545.0
	julianYear   = 365.25
	lunationYear = SynodicMonth / julianYear
)

// MeeusSource implements the almanac phase source. The lunation is split
// into eight equal segments centred on the principal phases, so "Full"
// covers roughly 1.85 days either side of the instant of full moon.
type MeeusSource struct{}

// NewMeeusSource creates a phase source
func NewMeeusSource() *MeeusSource {
	return &MeeusSource{}
}

// Phase returns the phase label at t
func (s *MeeusSource) Phase(t time.Time) string {
	return LabelForAge(s.Age(t))
}

// Age returns the days elapsed since the most recent new moon at or before t.
// Meeus returns dynamical time; the ~70s offset to UT is below the
// resolution that matters for daily phase names.
func (s *MeeusSource) Age(t time.Time) float64 {
	jd := julian.TimeToJD(t.UTC())
	year := 2000 + (jd-j2000)/julianYear

	newMoon := moonphase.New(year)
	for i := 0; newMoon > jd && i < 3; i++ {
		year -= lunationYear
		newMoon = moonphase.New(year)
	}
	for i := 0; jd-newMoon >= SynodicMonth && i < 3; i++ {
		year += lunationYear
		next := moonphase.New(year)
		if next > jd {
			break
		}
		newMoon = next
	}
	return jd - newMoon
}

// LabelForAge buckets a lunar age in days into one of the eight labels
func LabelForAge(age float64) string {
	age = math.Mod(age, SynodicMonth)
	if age < 0 {
		age += SynodicMonth
	}
	segment := SynodicMonth / 8
	idx := int(math.Floor((age + segment/2) / segment))
	return labels[idx%8]
}
