package models

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
)

// TestParseCivilDate tests parsing and canonical formatting
func TestParseCivilDate(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    CivilDate
		wantErr bool
	}{
		{
			name:  "regular date",
			input: "2025-11-27",
			want:  CivilDate{Year: 2025, Month: time.November, Day: 27},
		},
		{
			name:  "leap day",
			input: "2024-02-29",
			want:  CivilDate{Year: 2024, Month: time.February, Day: 29},
		},
		{
			name:    "leap day in non-leap year",
			input:   "2025-02-29",
			wantErr: true,
		},
		{
			name:    "compact format",
			input:   "20250115",
			wantErr: true,
		},
		{
			name:    "empty",
			input:   "",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseCivilDate(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseCivilDate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				if _, ok := err.(*ValidationError); !ok {
					t.Errorf("error type = %T, want *ValidationError", err)
				}
				return
			}
			if got != tt.want {
				t.Errorf("ParseCivilDate() = %v, want %v", got, tt.want)
			}
			if got.String() != tt.input {
				t.Errorf("String() = %v, want %v", got.String(), tt.input)
			}
		})
	}
}

// TestCivilDate_Arithmetic covers month, year and leap boundaries
func TestCivilDate_Arithmetic(t *testing.T) {
	tests := []struct {
		name  string
		start CivilDate
		days  int
		want  string
	}{
		{"month boundary", NewCivilDate(2025, time.January, 31), 1, "2025-02-01"},
		{"year boundary", NewCivilDate(2025, time.December, 31), 1, "2026-01-01"},
		{"into leap day", NewCivilDate(2024, time.February, 28), 1, "2024-02-29"},
		{"skip non-leap", NewCivilDate(2025, time.February, 28), 1, "2025-03-01"},
		{"backwards", NewCivilDate(2025, time.March, 1), -1, "2025-02-28"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.start.AddDays(tt.days).String(); got != tt.want {
				t.Errorf("AddDays(%d) = %v, want %v", tt.days, got, tt.want)
			}
		})
	}

	start := NewCivilDate(2025, time.January, 1)
	end := NewCivilDate(2026, time.December, 31)
	if got := start.DaysUntil(end); got != 729 {
		t.Errorf("DaysUntil() = %v, want %v", got, 729)
	}
	if !start.Before(end) || end.Before(start) || !end.After(start) {
		t.Error("Before/After ordering is wrong")
	}
}

// TestCivilDate_Weekday checks weekday derivation is zone independent
func TestCivilDate_Weekday(t *testing.T) {
	if got := NewCivilDate(2024, time.February, 1).Weekday(); got != time.Thursday {
		t.Errorf("Weekday() = %v, want %v", got, time.Thursday)
	}
	if got := NewCivilDate(2025, time.November, 27).Weekday(); got != time.Thursday {
		t.Errorf("Weekday() = %v, want %v", got, time.Thursday)
	}

	loc := time.FixedZone("UTC-14", -14*3600)
	midnight := NewCivilDate(2025, time.July, 4).In(loc)
	if got := CivilDateOf(midnight).String(); got != "2025-07-04" {
		t.Errorf("CivilDateOf(In()) = %v, want %v", got, "2025-07-04")
	}
}

// TestDaysIn tests month lengths including leap years
func TestDaysIn(t *testing.T) {
	tests := []struct {
		year  int
		month time.Month
		want  int
	}{
		{2024, time.February, 29},
		{2025, time.February, 28},
		{1900, time.February, 28},
		{2000, time.February, 29},
		{2025, time.April, 30},
		{2025, time.December, 31},
	}

	for _, tt := range tests {
		if got := DaysIn(tt.year, tt.month); got != tt.want {
			t.Errorf("DaysIn(%d, %v) = %v, want %v", tt.year, tt.month, got, tt.want)
		}
	}

	if !IsLeapYear(2024) || IsLeapYear(2025) {
		t.Error("IsLeapYear() misclassified 2024/2025")
	}
}

// TestDayRecord_JSONAbsenceConvention checks null scalars and [] lists
func TestDayRecord_JSONAbsenceConvention(t *testing.T) {
	rec := DayRecord{
		Date:       "2025-03-10",
		MoonPhase:  PhaseWaxingGibbous,
		PhaseGroup: GroupWaxing,
		Region:     "Middle Tennessee / Zone 7a",
		Season:     SeasonSpring,
	}
	rec.Normalize()

	data, err := json.Marshal(rec)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	out := string(data)

	for _, want := range []string{
		`"moonName":null`,
		`"holiday":null`,
		`"notes":null`,
		`"sign":null`,
		`"eclipse":null`,
		`"crops":[]`,
		`"farming":{"bestFor":[],"avoid":[]}`,
		`"business":{"bestFor":[],"avoid":[]}`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("JSON %s missing %s", out, want)
		}
	}
}

// TestDayRecord_Validate tests the full-moon naming invariant
func TestDayRecord_Validate(t *testing.T) {
	full := DayRecord{Date: "2025-10-07", MoonPhase: PhaseFull, MoonName: StringPtr("Hunter's Moon")}
	if err := full.Validate(); err != nil {
		t.Errorf("Validate() error = %v, want nil", err)
	}

	unnamed := DayRecord{Date: "2025-10-07", MoonPhase: PhaseFull}
	if err := unnamed.Validate(); err == nil {
		t.Error("Validate() should reject a full moon without a name")
	}

	named := DayRecord{Date: "2025-10-08", MoonPhase: PhaseWaningGibbous, MoonName: StringPtr("Hunter's Moon")}
	if err := named.Validate(); err == nil {
		t.Error("Validate() should reject a name on a non-full phase")
	}

	bad := DayRecord{Date: "10/08/2025"}
	if err := bad.Validate(); err == nil {
		t.Error("Validate() should reject a malformed date")
	}
}

// TestValidationError tests error handling
func TestValidationError(t *testing.T) {
	err := &ValidationError{
		Field:   "date",
		Value:   "invalid",
		Message: "invalid date format",
	}

	if err.Error() != "invalid date format" {
		t.Errorf("Error() = %v, want %v", err.Error(), "invalid date format")
	}

	if err.IsTransient() {
		t.Error("ValidationError should not be transient")
	}
}
