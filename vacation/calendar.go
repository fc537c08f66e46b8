/*
calendar.go - Corporate holiday calculation and business-day counting

PURPOSE:
  Pure calendar math. CorporateHolidays derives the six company holidays
  for any year; BusinessDays counts working days in an inclusive range,
  skipping weekends and holidays.

HOLIDAY RULES:
  Fixed:    New Year's Day (Jan 1), Independence Day (Jul 4),
            Christmas (Dec 25)
  Floating: Memorial Day (last Monday in May),
            Labor Day (first Monday in September),
            Thanksgiving (fourth Thursday in November)

SEE ALSO:
  - service.go: Combines holidays across years for range queries
  - accrual.go: Monthly accrual, the other pure calculation
*/
package vacation

import (
	"sort"
	"time"
)

// Canonical holiday names, in calendar order within a year.
const (
	HolidayNewYears     = "New Year's Day"
	HolidayMemorialDay  = "Memorial Day"
	HolidayIndependence = "Independence Day"
	HolidayLaborDay     = "Labor Day"
	HolidayThanksgiving = "Thanksgiving"
	HolidayChristmas    = "Christmas"
)

// CorporateHolidays returns the six corporate holidays for a year, in
// calendar order. It succeeds for any year.
func CorporateHolidays(year int) []Holiday {
	return []Holiday{
		{Name: HolidayNewYears, Date: NewDate(year, time.January, 1)},
		{Name: HolidayMemorialDay, Date: memorialDay(year)},
		{Name: HolidayIndependence, Date: NewDate(year, time.July, 4)},
		{Name: HolidayLaborDay, Date: laborDay(year)},
		{Name: HolidayThanksgiving, Date: thanksgiving(year)},
		{Name: HolidayChristmas, Date: NewDate(year, time.December, 25)},
	}
}

// memorialDay is the last Monday in May: walk back from May 31.
func memorialDay(year int) Date {
	d := NewDate(year, time.May, 31)
	back := (int(d.Weekday()) - int(time.Monday) + 7) % 7
	return d.AddDays(-back)
}

// laborDay is the first Monday in September: walk forward from Sep 1.
func laborDay(year int) Date {
	d := NewDate(year, time.September, 1)
	forward := (int(time.Monday) - int(d.Weekday()) + 7) % 7
	return d.AddDays(forward)
}

// thanksgiving is the fourth Thursday in November: first Thursday plus
// three weeks.
func thanksgiving(year int) Date {
	d := NewDate(year, time.November, 1)
	forward := (int(time.Thursday) - int(d.Weekday()) + 7) % 7
	return d.AddDays(forward + 21)
}

// =============================================================================
// HOLIDAY SET - Membership lookups for business-day counting
// =============================================================================

// HolidaySet indexes holidays by date for O(1) membership checks.
type HolidaySet struct {
	byDate map[Date]Holiday
}

func NewHolidaySet(holidays ...Holiday) *HolidaySet {
	s := &HolidaySet{byDate: make(map[Date]Holiday, len(holidays))}
	for _, h := range holidays {
		s.byDate[h.Date] = h
	}
	return s
}

// HolidaysForRange builds a set covering every year the range [start, end]
// touches.
func HolidaysForRange(start, end Date) *HolidaySet {
	s := NewHolidaySet()
	for year := start.Year(); year <= end.Year(); year++ {
		for _, h := range CorporateHolidays(year) {
			s.byDate[h.Date] = h
		}
	}
	return s
}

func (s *HolidaySet) Contains(d Date) bool {
	_, ok := s.byDate[d]
	return ok
}

// InRange returns the holidays within [start, end], ordered by date.
func (s *HolidaySet) InRange(start, end Date) []Holiday {
	var out []Holiday
	for d, h := range s.byDate {
		if !d.Before(start) && !d.After(end) {
			out = append(out, h)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}

// =============================================================================
// BUSINESS DAYS
// =============================================================================

// BusinessDays counts the days in [start, end] that are neither weekend
// days nor holidays. A reversed range is not an error: it counts zero.
// Linear in the length of the range, which is bounded by realistic
// vacation lengths.
func BusinessDays(start, end Date, holidays *HolidaySet) int {
	if start.After(end) {
		return 0
	}
	count := 0
	for d := start; !d.After(end); d = d.AddDays(1) {
		if d.IsWeekend() {
			continue
		}
		if holidays != nil && holidays.Contains(d) {
			continue
		}
		count++
	}
	return count
}
