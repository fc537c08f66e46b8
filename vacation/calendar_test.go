package vacation_test

import (
	"testing"
	"time"

	"github.com/warp/vacation-tracker/vacation"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func date(year int, month time.Month, day int) vacation.Date {
	return vacation.NewDate(year, month, day)
}

// =============================================================================
// CORPORATE HOLIDAY TESTS
// =============================================================================

func TestCorporateHolidays_KnownYears(t *testing.T) {
	// GIVEN: Years with known floating-holiday dates
	// THEN: Memorial Day, Labor Day, and Thanksgiving land on the right days
	cases := []struct {
		year         int
		memorial     vacation.Date
		labor        vacation.Date
		thanksgiving vacation.Date
	}{
		{2024, date(2024, time.May, 27), date(2024, time.September, 2), date(2024, time.November, 28)},
		{2025, date(2025, time.May, 26), date(2025, time.September, 1), date(2025, time.November, 27)},
		{2026, date(2026, time.May, 25), date(2026, time.September, 7), date(2026, time.November, 26)},
	}

	for _, tc := range cases {
		holidays := vacation.CorporateHolidays(tc.year)
		if len(holidays) != 6 {
			t.Fatalf("year %d: expected 6 holidays, got %d", tc.year, len(holidays))
		}

		byName := make(map[string]vacation.Date)
		for _, h := range holidays {
			byName[h.Name] = h.Date
		}

		if got := byName[vacation.HolidayMemorialDay]; !got.Equal(tc.memorial) {
			t.Errorf("year %d: Memorial Day = %s, want %s", tc.year, got, tc.memorial)
		}
		if got := byName[vacation.HolidayLaborDay]; !got.Equal(tc.labor) {
			t.Errorf("year %d: Labor Day = %s, want %s", tc.year, got, tc.labor)
		}
		if got := byName[vacation.HolidayThanksgiving]; !got.Equal(tc.thanksgiving) {
			t.Errorf("year %d: Thanksgiving = %s, want %s", tc.year, got, tc.thanksgiving)
		}
	}
}

func TestCorporateHolidays_FixedDates(t *testing.T) {
	holidays := vacation.CorporateHolidays(2025)

	byName := make(map[string]vacation.Date)
	for _, h := range holidays {
		byName[h.Name] = h.Date
	}

	if got := byName[vacation.HolidayNewYears]; !got.Equal(date(2025, time.January, 1)) {
		t.Errorf("New Year's Day = %s", got)
	}
	if got := byName[vacation.HolidayIndependence]; !got.Equal(date(2025, time.July, 4)) {
		t.Errorf("Independence Day = %s", got)
	}
	if got := byName[vacation.HolidayChristmas]; !got.Equal(date(2025, time.December, 25)) {
		t.Errorf("Christmas = %s", got)
	}
}

func TestCorporateHolidays_CalendarOrder(t *testing.T) {
	holidays := vacation.CorporateHolidays(2025)
	for i := 1; i < len(holidays); i++ {
		if !holidays[i-1].Date.Before(holidays[i].Date) {
			t.Errorf("holidays out of order: %s (%s) before %s (%s)",
				holidays[i-1].Name, holidays[i-1].Date, holidays[i].Name, holidays[i].Date)
		}
	}
}

// =============================================================================
// BUSINESS DAY TESTS
// =============================================================================

func TestBusinessDays_WeekWithHoliday(t *testing.T) {
	// GIVEN: Mon Jun 30 - Sun Jul 6 2025, containing July 4 (Friday)
	// WHEN: Counting business days
	// THEN: 5 weekdays minus the holiday = 4
	start := date(2025, time.June, 30)
	end := date(2025, time.July, 6)

	got := vacation.BusinessDays(start, end, vacation.HolidaysForRange(start, end))
	if got != 4 {
		t.Errorf("BusinessDays = %d, want 4", got)
	}
}

func TestBusinessDays_WeekendOnly(t *testing.T) {
	start := date(2025, time.July, 5) // Saturday
	end := date(2025, time.July, 6)   // Sunday

	got := vacation.BusinessDays(start, end, vacation.HolidaysForRange(start, end))
	if got != 0 {
		t.Errorf("BusinessDays = %d, want 0", got)
	}
}

func TestBusinessDays_ReversedRangeCountsZero(t *testing.T) {
	got := vacation.BusinessDays(date(2025, time.July, 10), date(2025, time.July, 1), nil)
	if got != 0 {
		t.Errorf("BusinessDays = %d, want 0", got)
	}
}

func TestBusinessDays_SingleBusinessDay(t *testing.T) {
	d := date(2025, time.June, 9) // Monday
	got := vacation.BusinessDays(d, d, vacation.HolidaysForRange(d, d))
	if got != 1 {
		t.Errorf("BusinessDays = %d, want 1", got)
	}
}

func TestBusinessDays_CrossYearRange(t *testing.T) {
	// GIVEN: Mon Dec 29 2025 - Fri Jan 2 2026, spanning New Year's Day
	// THEN: Both years' holidays apply: 5 weekdays minus Jan 1 = 4
	start := date(2025, time.December, 29)
	end := date(2026, time.January, 2)

	got := vacation.BusinessDays(start, end, vacation.HolidaysForRange(start, end))
	if got != 4 {
		t.Errorf("BusinessDays = %d, want 4", got)
	}
}

func TestBusinessDays_NilHolidaySet(t *testing.T) {
	// A nil set means no holidays, weekends still excluded.
	start := date(2025, time.June, 30) // Monday
	end := date(2025, time.July, 4)    // Friday

	if got := vacation.BusinessDays(start, end, nil); got != 5 {
		t.Errorf("BusinessDays = %d, want 5", got)
	}
}

// =============================================================================
// HOLIDAY SET TESTS
// =============================================================================

func TestHolidaySet_InRange(t *testing.T) {
	set := vacation.HolidaysForRange(date(2025, time.November, 1), date(2025, time.December, 31))

	got := set.InRange(date(2025, time.November, 1), date(2025, time.December, 31))
	if len(got) != 2 {
		t.Fatalf("expected 2 holidays in range, got %d", len(got))
	}
	if got[0].Name != vacation.HolidayThanksgiving || got[1].Name != vacation.HolidayChristmas {
		t.Errorf("unexpected holidays: %v, %v", got[0].Name, got[1].Name)
	}
}

func TestHolidaySet_Contains(t *testing.T) {
	set := vacation.NewHolidaySet(vacation.CorporateHolidays(2025)...)

	if !set.Contains(date(2025, time.July, 4)) {
		t.Error("expected July 4 to be a holiday")
	}
	if set.Contains(date(2025, time.July, 3)) {
		t.Error("July 3 should not be a holiday")
	}
}
