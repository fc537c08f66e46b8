/*
accrual.go - Monthly vacation accrual

PURPOSE:
  Employees accrue one vacation day per month of employment, capped at
  twelve per calendar year. Two closely related month counts live here:

  AccruedDays counts months completed since the hire date: a month is
  complete once the reference day-of-month reaches the hire day-of-month.
  Used to recompute a previous year's accrual for carryover.

  MonthsWorked counts months touched by a window within one year,
  crediting the starting partial month once the window-end day-of-month
  reaches the window-start day-of-month. Used by the balance engine for
  the in-year accrual window; with a full January-to-December window it
  reaches the annual cap of twelve.

SEE ALSO:
  - service.go: Applies the annual cap and the accrual window rules
*/
package vacation

// AccruedDays returns the vacation days accrued between the hire date and
// a reference date: one per completed month, floored at zero. Returns 0
// when the hire date is after the reference date. The annual cap of
// twelve is applied by the caller.
func AccruedDays(hireDate, ref Date) int {
	if hireDate.After(ref) {
		return 0
	}
	months := (ref.Year()-hireDate.Year())*12 + int(ref.Month()) - int(hireDate.Month())
	if ref.Day() < hireDate.Day() {
		months--
	}
	if months < 0 {
		return 0
	}
	return months
}

// MonthsWorked returns the months credited for an accrual window within a
// single year. The starting month counts once the end day-of-month
// reaches the start day-of-month, so Jan 1 through Dec 31 credits twelve.
// Returns 0 for a reversed window.
func MonthsWorked(start, end Date) int {
	if start.After(end) {
		return 0
	}
	months := (end.Year()-start.Year())*12 + int(end.Month()) - int(start.Month())
	if end.Day() >= start.Day() {
		months++
	}
	if months < 0 {
		return 0
	}
	return months
}
