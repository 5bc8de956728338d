// Package view turns navigation state and events into plain view models
// that a host (HTML template, terminal UI, JSON API) can render directly.
// It never looks at window sizes; hosts decide whether the layout is compact.
package view

import (
	"time"

	"calview/internal/dateutil"
	"calview/internal/events"
	"calview/internal/model"
	"calview/internal/state"
)

// Layout names the renderer a host should use.
type Layout string

const (
	LayoutMonth Layout = "month"
	LayoutWeek  Layout = "week"
	// LayoutList is the compact rendering of the week view.
	LayoutList Layout = "list"
)

// Options carry host-supplied rendering settings.
type Options struct {
	Grid dateutil.Grid
	// MaxEvents caps events per month cell; 0 shows all.
	MaxEvents int
	Compact   bool
}

// Cell is one day of the month grid.
type Cell struct {
	Date     time.Time             `json:"date"`
	Day      int                   `json:"day"`
	InMonth  bool                  `json:"in_month"`
	Today    bool                  `json:"today"`
	Selected bool                  `json:"selected"`
	Events   []model.CalendarEvent `json:"events"`
	More     int                   `json:"more"`
	Total    int                   `json:"total"`
}

// Month is the month view: rows of 7 cells.
type Month struct {
	Headers []string `json:"headers"`
	Weeks   [][]Cell `json:"weeks"`
}

// Placed is an event positioned in a week-view column.
type Placed struct {
	Event model.CalendarEvent `json:"event"`
	Block events.Block        `json:"block"`
}

// Column is one day of the week view.
type Column struct {
	Date     time.Time `json:"date"`
	Name     string    `json:"name"`
	Day      int       `json:"day"`
	Today    bool      `json:"today"`
	Selected bool      `json:"selected"`
	Events   []Placed  `json:"events"`
}

// Week is the desktop week view with its hour axis.
type Week struct {
	Slots   []string `json:"slots"`
	Columns []Column `json:"columns"`
}

// ListDay is one day of the compact week list.
type ListDay struct {
	Date   time.Time             `json:"date"`
	Name   string                `json:"name"`
	Label  string                `json:"label"`
	Today  bool                  `json:"today"`
	Events []model.CalendarEvent `json:"events"`
}

// Page is everything a host needs to draw the calendar once.
type Page struct {
	Title        string     `json:"title"`
	View         model.View `json:"view"`
	Layout       Layout     `json:"layout"`
	Compact      bool       `json:"compact"`
	CurrentDate  time.Time  `json:"current_date"`
	SelectedDate *time.Time `json:"selected_date"`
	Month        *Month     `json:"month,omitempty"`
	Week         *Week      `json:"week,omitempty"`
	List         []ListDay  `json:"list,omitempty"`
}

// Build renders the session for the current view.
func Build(s state.Session, opts Options) Page {
	nav := s.Nav
	all := s.Events.All()

	p := Page{
		Title:        nav.Title(opts.Grid),
		View:         nav.View,
		Compact:      opts.Compact,
		CurrentDate:  nav.CurrentDate,
		SelectedDate: nav.SelectedDate,
	}

	switch {
	case nav.View == model.ViewMonth:
		p.Layout = LayoutMonth
		m := BuildMonth(nav, all, opts)
		p.Month = &m
	case opts.Compact:
		p.Layout = LayoutList
		p.List = BuildList(nav, all, opts)
	default:
		p.Layout = LayoutWeek
		w := BuildWeek(nav, all, opts)
		p.Week = &w
	}
	return p
}

// BuildMonth lays the month grid out in rows of 7.
func BuildMonth(nav state.Navigation, all []model.CalendarEvent, opts Options) Month {
	days := opts.Grid.MonthGrid(nav.CurrentDate)
	m := Month{Headers: opts.Grid.WeekdayHeaders()}

	for i := 0; i < len(days); i += 7 {
		row := make([]Cell, 0, 7)
		for _, d := range days[i : i+7] {
			dayEvents := events.SortByStart(events.OnDate(all, d))
			visible, more := events.Limit(dayEvents, opts.MaxEvents)
			row = append(row, Cell{
				Date:     d,
				Day:      d.Day(),
				InMonth:  dateutil.IsSameMonth(d, nav.CurrentDate),
				Today:    opts.Grid.IsToday(d),
				Selected: nav.IsSelected(d),
				Events:   visible,
				More:     more,
				Total:    len(dayEvents),
			})
		}
		m.Weeks = append(m.Weeks, row)
	}
	return m
}

// BuildWeek places each day's events on the 24-hour axis.
func BuildWeek(nav state.Navigation, all []model.CalendarEvent, opts Options) Week {
	w := Week{Slots: dateutil.TimeSlots()}
	for _, d := range opts.Grid.WeekDays(nav.CurrentDate) {
		col := Column{
			Date:     d,
			Name:     dateutil.DayName(d),
			Day:      d.Day(),
			Today:    opts.Grid.IsToday(d),
			Selected: nav.IsSelected(d),
			Events:   make([]Placed, 0),
		}
		for _, e := range events.SortByStart(events.OnDate(all, d)) {
			col.Events = append(col.Events, Placed{Event: e, Block: events.Position(e, d)})
		}
		w.Columns = append(w.Columns, col)
	}
	return w
}

// BuildList is the compact week: one entry per day with all its events.
func BuildList(nav state.Navigation, all []model.CalendarEvent, opts Options) []ListDay {
	out := make([]ListDay, 0, 7)
	for _, d := range opts.Grid.WeekDays(nav.CurrentDate) {
		out = append(out, ListDay{
			Date:   d,
			Name:   dateutil.DayName(d),
			Label:  d.Format("Jan 2"),
			Today:  opts.Grid.IsToday(d),
			Events: events.SortByStart(events.OnDate(all, d)),
		})
	}
	return out
}
