package core

import "time"

type windowKind int

const (
	windowCustom windowKind = iota
	windowYearToDate
	windowMonthToDate
	windowWeekToDate
)

// Window selects the time range for daily statistics. A Window can only be
// built through the constructors below, so a single selector is always
// active; there is no way to combine them.
type Window struct {
	kind windowKind
	days int
}

// CustomWindow selects the last n calendar days ending today.
func CustomWindow(days int) (Window, error) {
	if days <= 0 {
		return Window{}, ErrInvalidWindow
	}
	return Window{kind: windowCustom, days: days}, nil
}

// YearToDate selects every day of the current year up to today.
func YearToDate() Window { return Window{kind: windowYearToDate} }

// MonthToDate selects every day of the current month up to today.
func MonthToDate() Window { return Window{kind: windowMonthToDate} }

// WeekToDate selects every day of the current ISO week up to today,
// Monday being day 1 and Sunday day 7.
func WeekToDate() Window { return Window{kind: windowWeekToDate} }

// Length resolves the window to a day count relative to today. Today is
// always included, so the result is at least 1.
func (w Window) Length(today time.Time) int {
	today = today.UTC()
	switch w.kind {
	case windowYearToDate:
		return today.YearDay()
	case windowMonthToDate:
		return today.Day()
	case windowWeekToDate:
		d := int(today.Weekday())
		if d == 0 { // time.Sunday
			d = 7
		}
		return d
	default:
		return w.days
	}
}
