// Package state holds the calendar's two state values, navigation and the
// event collection. Each transition is a method on a value receiver that
// returns the next value; the receiver is never modified. Hosts keep the
// latest value and re-render from it.
package state

import (
	"time"

	"calview/internal/clock"
	"calview/internal/dateutil"
	"calview/internal/model"
)

// Navigation tracks which grid is visible and which day the user picked.
// SelectedDate is only ever set by Select (directly or via the month/year
// jumps); navigating never sets it.
type Navigation struct {
	CurrentDate  time.Time
	View         model.View
	SelectedDate *time.Time
}

// NewNavigation starts at initial with no selection. An invalid view
// falls back to month.
func NewNavigation(initial time.Time, view model.View) Navigation {
	if _, ok := model.ParseView(string(view)); !ok {
		view = model.ViewMonth
	}
	return Navigation{CurrentDate: initial, View: view}
}

func (n Navigation) step(dir dateutil.Direction) Navigation {
	if n.View == model.ViewMonth {
		n.CurrentDate = dateutil.NavigateMonth(n.CurrentDate, dir)
	} else {
		n.CurrentDate = dateutil.NavigateWeek(n.CurrentDate, dir)
	}
	return n
}

// Next advances one month in month view, one week otherwise.
func (n Navigation) Next() Navigation { return n.step(dateutil.Next) }

// Previous is the inverse of Next.
func (n Navigation) Previous() Navigation { return n.step(dateutil.Prev) }

// Today moves CurrentDate to the clock's now. The selection is kept.
func (n Navigation) Today(c clock.Clock) Navigation {
	n.CurrentDate = c.Now()
	return n
}

// SetView switches the layout without moving the anchor or selection.
func (n Navigation) SetView(v model.View) Navigation {
	n.View = v
	return n
}

// Select sets the selected date. A non-nil date also re-anchors the grid
// on it; nil clears the selection and leaves CurrentDate alone.
func (n Navigation) Select(date *time.Time) Navigation {
	if date == nil {
		n.SelectedDate = nil
		return n
	}
	d := *date
	n.SelectedDate = &d
	n.CurrentDate = d
	return n
}

// JumpToMonth selects the 1st of month in the current year.
func (n Navigation) JumpToMonth(month time.Month) Navigation {
	cur := n.CurrentDate
	d := time.Date(cur.Year(), month, 1, 0, 0, 0, 0, cur.Location())
	return n.Select(&d)
}

// JumpToYear selects the 1st of the current month in year.
func (n Navigation) JumpToYear(year int) Navigation {
	cur := n.CurrentDate
	d := time.Date(year, cur.Month(), 1, 0, 0, 0, 0, cur.Location())
	return n.Select(&d)
}

// IsSelected reports whether d is the selected calendar day.
func (n Navigation) IsSelected(d time.Time) bool {
	return n.SelectedDate != nil && dateutil.IsSameDay(*n.SelectedDate, d)
}

// Title is the header label: "January 2025" or "Jan 12 - Jan 18, 2025".
func (n Navigation) Title(g dateutil.Grid) string {
	if n.View == model.ViewMonth {
		return dateutil.MonthLabel(n.CurrentDate)
	}
	return g.WeekRangeLabel(n.CurrentDate)
}

// Grid returns the visible days for the current view.
func (n Navigation) Grid(g dateutil.Grid) []time.Time {
	if n.View == model.ViewMonth {
		return g.MonthGrid(n.CurrentDate)
	}
	return g.WeekDays(n.CurrentDate)
}
