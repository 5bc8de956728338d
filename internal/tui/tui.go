// Package tui is a terminal host for the calendar session, built on tview.
package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"calview/internal/clock"
	"calview/internal/config"
	"calview/internal/dateutil"
	"calview/internal/events"
	appLog "calview/internal/log"
	"calview/internal/model"
	"calview/internal/state"
	"calview/internal/view"
)

const defaultControls = "[n/p] Next/Prev  [t] Today  [m/w] Month/Week  [c] Compact  [Enter] Select  [a] Add  [x] Delete  [q] Quit"

// UI renders a state.Session into a table and applies key presses as
// session transitions.
type UI struct {
	app      *tview.Application
	pages    *tview.Pages
	table    *tview.Table
	title    *tview.TextView
	agenda   *tview.TextView
	controls *tview.TextView

	loc      *time.Location
	clock    clock.Clock
	grid     dateutil.Grid
	maxCell  int
	maxSmall int
	compact  bool

	sess state.Session
}

// New builds the UI for sess. Nothing is drawn until Run.
func New(cfg *config.Config, c clock.Clock, loc *time.Location, sess state.Session) *UI {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if loc == nil {
		loc = time.Local
	}
	if c == nil {
		c = clock.System(loc)
	}

	u := &UI{
		app:      tview.NewApplication(),
		pages:    tview.NewPages(),
		table:    tview.NewTable(),
		title:    tview.NewTextView().SetDynamicColors(true).SetTextAlign(tview.AlignCenter),
		agenda:   tview.NewTextView().SetDynamicColors(true).SetWrap(true),
		controls: tview.NewTextView().SetDynamicColors(true).SetTextAlign(tview.AlignCenter),
		loc:      loc,
		clock:    c,
		grid:     dateutil.New(dateutil.ParseWeekStart(cfg.WeekStart), c),
		maxCell:  cfg.MaxEventsPerCell,
		maxSmall: cfg.CompactMaxEvents,
		sess:     sess,
	}

	u.table.SetBorders(true).SetSelectable(true, true)
	u.table.SetSelectedFunc(func(row, col int) {
		if d, ok := u.cellDate(row, col); ok {
			u.update(func(n state.Navigation) state.Navigation { return n.Select(&d) })
		}
	})
	u.agenda.SetBorder(true).SetTitle(" Day ")

	layout := tview.NewGrid().
		SetRows(1, 0, 8, 1).
		SetColumns(0).
		AddItem(u.title, 0, 0, 1, 1, 0, 0, false).
		AddItem(u.table, 1, 0, 1, 1, 0, 0, true).
		AddItem(u.agenda, 2, 0, 1, 1, 0, 0, false).
		AddItem(u.controls, 3, 0, 1, 1, 0, 0, false)
	layout.SetInputCapture(u.handleKey)

	u.pages.AddPage("main", layout, true, true)
	u.refresh()
	return u
}

// Run starts the application event loop.
func (u *UI) Run() error {
	appLog.Info("starting terminal UI", "events", u.sess.Events.Len(), "view", string(u.sess.Nav.View))
	return u.app.SetRoot(u.pages, true).SetFocus(u.table).Run()
}

// Session returns the current state value.
func (u *UI) Session() state.Session {
	return u.sess
}

func (u *UI) options() view.Options {
	limit := u.maxCell
	if u.compact {
		limit = u.maxSmall
	}
	return view.Options{Grid: u.grid, MaxEvents: limit, Compact: u.compact}
}

func (u *UI) update(fn func(state.Navigation) state.Navigation) {
	u.sess.Nav = fn(u.sess.Nav)
	u.refresh()
}

// handleKey maps keys on the main page to navigation and event actions.
func (u *UI) handleKey(ev *tcell.EventKey) *tcell.EventKey {
	switch ev.Key() {
	case tcell.KeyEscape:
		u.app.Stop()
		return nil
	case tcell.KeyPgDn:
		u.update(state.Navigation.Next)
		return nil
	case tcell.KeyPgUp:
		u.update(state.Navigation.Previous)
		return nil
	case tcell.KeyRune:
	default:
		return ev
	}

	switch ev.Rune() {
	case 'q':
		u.app.Stop()
	case 'n', ']':
		u.update(state.Navigation.Next)
	case 'p', '[':
		u.update(state.Navigation.Previous)
	case 't':
		u.update(func(n state.Navigation) state.Navigation { return n.Today(u.clock) })
	case 'm':
		u.update(func(n state.Navigation) state.Navigation { return n.SetView(model.ViewMonth) })
	case 'w':
		u.update(func(n state.Navigation) state.Navigation { return n.SetView(model.ViewWeek) })
	case 'c':
		u.compact = !u.compact
		u.refresh()
	case 'a':
		u.showAddForm()
	case 'x':
		u.showDeleteForm()
	default:
		return ev
	}
	return nil
}

// focusDate is the day forms act on: the selection, else the anchor.
func (u *UI) focusDate() time.Time {
	if d := u.sess.Nav.SelectedDate; d != nil {
		return *d
	}
	return u.sess.Nav.CurrentDate
}

// refresh redraws every widget from the session.
func (u *UI) refresh() {
	page := view.Build(u.sess, u.options())

	u.title.SetText("[::b]" + page.Title + "[::-]  [gray]" + string(page.View) + " view[-]")
	u.table.Clear()
	switch page.Layout {
	case view.LayoutMonth:
		u.fillMonth(page.Month)
	case view.LayoutWeek:
		u.fillWeek(page.Week)
	default:
		u.fillList(page.List)
	}
	u.fillAgenda()
	u.controls.SetText(defaultControls)
}

func (u *UI) fillMonth(m *view.Month) {
	for col, h := range m.Headers {
		u.table.SetCell(0, col, tview.NewTableCell(h).
			SetAlign(tview.AlignCenter).
			SetTextColor(tcell.ColorGray).
			SetSelectable(false).
			SetExpansion(1))
	}
	for r, week := range m.Weeks {
		for col, c := range week {
			text := fmt.Sprintf("%2d", c.Day)
			for _, e := range c.Events {
				text += " [" + events.ColorOrDefault(e.Color) + "]●[-]"
			}
			if c.More > 0 {
				text += fmt.Sprintf(" +%d", c.More)
			}

			cell := tview.NewTableCell(text).SetExpansion(1).SetReference(c.Date)
			switch {
			case c.Today:
				cell.SetAttributes(tcell.AttrBold).SetTextColor(tcell.ColorDodgerBlue)
			case !c.InMonth:
				cell.SetTextColor(tcell.ColorDimGray)
			}
			u.table.SetCell(r+1, col, cell)
			if c.Selected {
				u.table.Select(r+1, col)
			}
		}
	}
}

func (u *UI) fillWeek(w *view.Week) {
	for col, c := range w.Columns {
		head := fmt.Sprintf("%s %d", c.Name, c.Day)
		cell := tview.NewTableCell(head).SetAlign(tview.AlignCenter).SetExpansion(1).SetReference(c.Date)
		if c.Today {
			cell.SetAttributes(tcell.AttrBold).SetTextColor(tcell.ColorDodgerBlue)
		}
		u.table.SetCell(0, col, cell)
		if c.Selected {
			u.table.Select(0, col)
		}
		for i, p := range c.Events {
			text := "[" + events.ColorOrDefault(p.Event.Color) + "]" + p.Event.StartDate.Format("15:04") + "[-] " + tview.Escape(p.Event.Title)
			u.table.SetCell(i+1, col, tview.NewTableCell(text).SetExpansion(1).SetReference(c.Date))
		}
	}
}

func (u *UI) fillList(days []view.ListDay) {
	row := 0
	for _, d := range days {
		head := tview.NewTableCell(d.Name + " " + d.Label).SetAttributes(tcell.AttrBold).SetReference(d.Date)
		if d.Today {
			head.SetTextColor(tcell.ColorDodgerBlue)
		}
		u.table.SetCell(row, 0, head.SetExpansion(1))
		row++
		for _, e := range d.Events {
			text := "  " + e.StartDate.Format("15:04") + "-" + e.EndDate.Format("15:04") + " " + tview.Escape(e.Title)
			u.table.SetCell(row, 0, tview.NewTableCell(text).SetReference(d.Date))
			row++
		}
	}
}

func (u *UI) fillAgenda() {
	day := u.focusDate()
	list := events.SortByStart(u.sess.Events.OnDate(day))

	var b strings.Builder
	fmt.Fprintf(&b, "[::b]%s, %s[::-]\n", dateutil.DayName(day), day.Format("January 2, 2006"))
	if len(list) == 0 {
		b.WriteString("[gray]No events[-]")
	}
	for _, e := range list {
		fmt.Fprintf(&b, "[%s]●[-] %s-%s %s", events.ColorOrDefault(e.Color), e.StartDate.Format("15:04"), e.EndDate.Format("15:04"), tview.Escape(e.Title))
		if e.Category != "" {
			fmt.Fprintf(&b, " [gray](%s)[-]", e.Category)
		}
		b.WriteString("\n")
	}
	u.agenda.SetText(b.String())
}

// cellDate returns the day a table cell represents.
func (u *UI) cellDate(row, col int) (time.Time, bool) {
	cell := u.table.GetCell(row, col)
	if cell == nil {
		return time.Time{}, false
	}
	d, ok := cell.GetReference().(time.Time)
	return d, ok
}

// showError puts a message in the controls footer until the next refresh.
func (u *UI) showError(msg string) {
	u.controls.SetText("[red]" + tview.Escape(msg) + "[-]")
}
