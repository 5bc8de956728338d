package view

import (
	"testing"
	"time"

	"calview/internal/clock"
	"calview/internal/dateutil"
	"calview/internal/model"
	"calview/internal/state"
)

var now = time.Date(2025, 1, 15, 12, 0, 0, 0, time.UTC)

func session(view model.View, titles ...string) state.Session {
	c := state.Collection{}
	for i, title := range titles {
		start := time.Date(2025, 1, 15, 8+i, 0, 0, 0, time.UTC)
		c, _ = c.Add(model.Draft{Title: title, StartDate: start, EndDate: start.Add(time.Hour)})
	}
	return state.Session{Nav: state.NewNavigation(now, view), Events: c}
}

func opts(compact bool) Options {
	return Options{Grid: dateutil.New(time.Sunday, clock.Fixed(now)), MaxEvents: 3, Compact: compact}
}

func TestBuildMonth(t *testing.T) {
	p := Build(session(model.ViewMonth, "a", "b", "c", "d"), opts(false))

	if p.Layout != LayoutMonth || p.Month == nil || p.Title != "January 2025" {
		t.Fatalf("unexpected page: %+v", p)
	}
	if len(p.Month.Weeks) != 5 || len(p.Month.Headers) != 7 {
		t.Fatalf("weeks=%d headers=%d", len(p.Month.Weeks), len(p.Month.Headers))
	}

	var cell Cell
	for _, row := range p.Month.Weeks {
		for _, c := range row {
			if c.Day == 15 && c.InMonth {
				cell = c
			}
		}
	}
	if !cell.Today {
		t.Error("Jan 15 should be today")
	}
	if len(cell.Events) != 3 || cell.More != 1 || cell.Total != 4 {
		t.Errorf("cell events=%d more=%d total=%d", len(cell.Events), cell.More, cell.Total)
	}
	if cell.Events[0].Title != "a" {
		t.Errorf("events not sorted by start: %v", cell.Events)
	}

	first := p.Month.Weeks[0][0]
	if first.InMonth || first.Date.Month() != time.December {
		t.Errorf("first cell should be a December filler: %+v", first)
	}
}

func TestBuildWeekAndList(t *testing.T) {
	s := session(model.ViewWeek, "a")

	p := Build(s, opts(false))
	if p.Layout != LayoutWeek || p.Week == nil || len(p.Week.Columns) != 7 || len(p.Week.Slots) != 24 {
		t.Fatalf("unexpected week page: %+v", p)
	}
	wed := p.Week.Columns[3]
	if wed.Day != 15 || len(wed.Events) != 1 || wed.Events[0].Block.Top != 8 {
		t.Errorf("wednesday column = %+v", wed)
	}

	compact := Build(s, opts(true))
	if compact.Layout != LayoutList || len(compact.List) != 7 || compact.Week != nil {
		t.Fatalf("unexpected compact page: %+v", compact)
	}
	if compact.List[3].Label != "Jan 15" || len(compact.List[3].Events) != 1 || !compact.List[3].Today {
		t.Errorf("list day = %+v", compact.List[3])
	}
}

func TestCompactMonthStaysMonth(t *testing.T) {
	p := Build(session(model.ViewMonth), opts(true))
	if p.Layout != LayoutMonth || !p.Compact {
		t.Errorf("compact month page = %+v", p)
	}
}

func TestSelectedCell(t *testing.T) {
	s := session(model.ViewMonth)
	sel := time.Date(2025, 1, 20, 0, 0, 0, 0, time.UTC)
	s.Nav = s.Nav.Select(&sel)

	p := Build(s, opts(false))
	count := 0
	for _, row := range p.Month.Weeks {
		for _, c := range row {
			if c.Selected {
				count++
				if c.Day != 20 {
					t.Errorf("wrong cell selected: %+v", c)
				}
			}
		}
	}
	if count != 1 {
		t.Errorf("selected cells = %d", count)
	}
}
