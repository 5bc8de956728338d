// Package dateutil computes calendar grids, navigation steps, and the
// labels shown in a calendar header.
//
// All functions work on the calendar day of the given time.Time in its own
// location; callers that want a specific zone convert with In() first.
// Grid days are returned at the start of the local day: midnight, or the
// first instant after the jump where a zone's clocks skip midnight.
package dateutil

import (
	"fmt"
	"strings"
	"time"

	"github.com/teambition/rrule-go"

	"calview/internal/clock"
)

// Direction selects forward or backward navigation.
type Direction string

const (
	Next Direction = "next"
	Prev Direction = "prev"
)

// ParseDirection accepts "next"/"prev" (and "previous").
func ParseDirection(s string) (Direction, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "next":
		return Next, true
	case "prev", "previous":
		return Prev, true
	}
	return "", false
}

// step is +1 for Next and -1 for Prev. Unknown values move forward.
func (d Direction) step() int {
	if d == Prev {
		return -1
	}
	return 1
}

// Grid carries the week-start and clock settings shared by every
// grid computation.
type Grid struct {
	WeekStart time.Weekday
	Clock     clock.Clock
}

// New returns a Grid; a nil clock falls back to the system clock.
func New(weekStart time.Weekday, c clock.Clock) Grid {
	if c == nil {
		c = clock.System(nil)
	}
	return Grid{WeekStart: weekStart, Clock: c}
}

// Default uses Sunday-start weeks and the local system clock.
var Default = New(time.Sunday, nil)

// ParseWeekStart maps "sunday"/"monday" to a weekday. Anything else is Sunday.
func ParseWeekStart(s string) time.Weekday {
	if strings.EqualFold(strings.TrimSpace(s), "monday") {
		return time.Monday
	}
	return time.Sunday
}

// dayStart returns the first instant of the calendar day y-m-d in loc.
// Out-of-range components normalize as in time.Date. time.Date resolves a
// skipped midnight into the previous day, so step forward until the day
// matches again.
func dayStart(y int, m time.Month, d int, loc *time.Location) time.Time {
	noon := time.Date(y, m, d, 12, 0, 0, 0, loc)
	y, m, d = noon.Date()
	t := time.Date(y, m, d, 0, 0, 0, 0, loc)
	for !IsSameDay(t, noon) {
		t = t.Add(15 * time.Minute)
	}
	return t
}

// StartOfDay returns the start of t's calendar day in t's location.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return dayStart(y, m, d, t.Location())
}

// StartOfNextDay returns the start of the calendar day after t's.
func StartOfNextDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return dayStart(y, m, d+1, t.Location())
}

// StartOfMonth returns the start of the 1st of t's month.
func StartOfMonth(t time.Time) time.Time {
	return dayStart(t.Year(), t.Month(), 1, t.Location())
}

// EndOfMonth returns the start of the last day of t's month.
func EndOfMonth(t time.Time) time.Time {
	return dayStart(t.Year(), t.Month()+1, 0, t.Location())
}

// StartOfWeek returns the start of the first day of the week containing t.
func (g Grid) StartOfWeek(t time.Time) time.Time {
	y, m, d := t.Date()
	offset := (int(t.Weekday()) - int(g.WeekStart) + 7) % 7
	return dayStart(y, m, d-offset, t.Location())
}

// EndOfWeek returns the start of the last day of the week containing t.
func (g Grid) EndOfWeek(t time.Time) time.Time {
	y, m, d := g.StartOfWeek(t).Date()
	return dayStart(y, m, d+6, t.Location())
}

// MonthGrid returns every cell of a full-week-aligned month view for the
// month containing anchor. The length is always a multiple of 7.
func (g Grid) MonthGrid(anchor time.Time) []time.Time {
	return eachDay(g.StartOfWeek(StartOfMonth(anchor)), g.EndOfWeek(EndOfMonth(anchor)))
}

// WeekDays returns the 7 days of the week containing anchor.
func (g Grid) WeekDays(anchor time.Time) []time.Time {
	return eachDay(g.StartOfWeek(anchor), g.EndOfWeek(anchor))
}

// WeekRangeLabel formats the week containing anchor, e.g. "Jan 12 - Jan 18, 2025".
// The year printed is the year of the week's last day.
func (g Grid) WeekRangeLabel(anchor time.Time) string {
	start, end := g.StartOfWeek(anchor), g.EndOfWeek(anchor)
	return start.Format("Jan 2") + " - " + end.Format("Jan 2, 2006")
}

// WeekdayHeaders returns the 7 short day names starting at the week start.
func (g Grid) WeekdayHeaders() []string {
	out := make([]string, 7)
	for i := range out {
		out[i] = time.Weekday((int(g.WeekStart) + i) % 7).String()[:3]
	}
	return out
}

// IsToday reports whether d falls on the clock's current calendar day.
// The answer is only valid at call time; do not cache it across renders.
func (g Grid) IsToday(d time.Time) bool {
	now := g.Clock.Now()
	return IsSameDay(d.In(now.Location()), now)
}

// Today returns the start of the clock's current day.
func (g Grid) Today() time.Time {
	return StartOfDay(g.Clock.Now())
}

// eachDay lists the calendar days from start to end inclusive, each at the
// start of its day. The rule runs at noon, which every day has, and each
// occurrence is mapped back to its day.
func eachDay(start, end time.Time) []time.Time {
	loc := start.Location()
	sy, sm, sd := start.Date()
	ey, em, ed := end.Date()
	from := time.Date(sy, sm, sd, 12, 0, 0, 0, loc)
	until := time.Date(ey, em, ed, 12, 0, 0, 0, loc)

	var noons []time.Time
	r, err := rrule.NewRRule(rrule.ROption{
		Freq:    rrule.DAILY,
		Dtstart: from,
		Until:   until,
	})
	if err == nil {
		noons = r.All()
	} else {
		// Only malformed BY* options fail validation; keep a plain loop
		// so a grid is always produced.
		for i := 0; ; i++ {
			n := time.Date(sy, sm, sd+i, 12, 0, 0, 0, loc)
			if n.After(until) {
				break
			}
			noons = append(noons, n)
		}
	}

	days := make([]time.Time, 0, len(noons))
	for _, n := range noons {
		y, m, d := n.Date()
		days = append(days, dayStart(y, m, d, loc))
	}
	return days
}

// MonthGrid is Default.MonthGrid.
func MonthGrid(anchor time.Time) []time.Time { return Default.MonthGrid(anchor) }

// WeekDays is Default.WeekDays.
func WeekDays(anchor time.Time) []time.Time { return Default.WeekDays(anchor) }

// WeekRangeLabel is Default.WeekRangeLabel.
func WeekRangeLabel(anchor time.Time) string { return Default.WeekRangeLabel(anchor) }

// IsToday is Default.IsToday.
func IsToday(d time.Time) bool { return Default.IsToday(d) }

// NavigateMonth shifts anchor by one calendar month. The day of month is
// clamped to the last valid day of the target month (Jan 31 -> Feb 28/29);
// the time of day is kept.
func NavigateMonth(anchor time.Time, dir Direction) time.Time {
	return AddMonths(anchor, dir.step())
}

// AddMonths shifts t by n months with day-of-month clamping.
func AddMonths(t time.Time, n int) time.Time {
	first := time.Date(t.Year(), t.Month()+time.Month(n), 1,
		t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
	day := t.Day()
	if last := DaysInMonthCount(first); day > last {
		day = last
	}
	return first.AddDate(0, 0, day-1)
}

// NavigateWeek shifts anchor by exactly 7 calendar days.
func NavigateWeek(anchor time.Time, dir Direction) time.Time {
	return anchor.AddDate(0, 0, 7*dir.step())
}

// IsSameDay reports whether a and b share year, month and day.
func IsSameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// IsSameMonth reports whether d lies in monthAnchor's month.
func IsSameMonth(d, monthAnchor time.Time) bool {
	return d.Year() == monthAnchor.Year() && d.Month() == monthAnchor.Month()
}

// MonthLabel formats anchor as "January 2025".
func MonthLabel(anchor time.Time) string {
	return anchor.Format("January 2006")
}

// TimeSlots returns the 24 hour labels "00:00" .. "23:00".
func TimeSlots() []string {
	slots := make([]string, 24)
	for h := range slots {
		slots[h] = fmt.Sprintf("%02d:00", h)
	}
	return slots
}

// FormatDate formats d with a Go layout; an empty layout means "2006-01-02".
func FormatDate(d time.Time, layout string) string {
	if layout == "" {
		layout = time.DateOnly
	}
	return d.Format(layout)
}

// DayName returns the short weekday name, e.g. "Mon".
func DayName(d time.Time) string {
	return d.Format("Mon")
}

// DayNumber returns the day of month.
func DayNumber(d time.Time) int {
	return d.Day()
}

// DaysBetween returns the number of whole 24h periods from start to end,
// rounded toward negative infinity.
func DaysBetween(start, end time.Time) int {
	const day = 24 * time.Hour
	diff := end.Sub(start)
	n := int(diff / day)
	if diff < 0 && diff%day != 0 {
		n--
	}
	return n
}

// DaysInMonthCount returns how many days t's month has.
func DaysInMonthCount(t time.Time) int {
	return EndOfMonth(t).Day()
}

// DaysInMonth lists the start of every day of t's month.
func DaysInMonth(t time.Time) []time.Time {
	return eachDay(StartOfMonth(t), EndOfMonth(t))
}

// MonthOption is a month picker entry; Value is 1-based.
type MonthOption struct {
	Value int    `json:"value"`
	Label string `json:"label"`
}

// MonthsInYear returns the 12 month picker entries.
func MonthsInYear() []MonthOption {
	out := make([]MonthOption, 12)
	for i := range out {
		m := time.Month(i + 1)
		out[i] = MonthOption{Value: int(m), Label: m.String()}
	}
	return out
}

// YearRange returns the years from current-span to current+span inclusive.
func YearRange(current, span int) []int {
	if span < 0 {
		span = 0
	}
	out := make([]int, 0, 2*span+1)
	for y := current - span; y <= current+span; y++ {
		out = append(out, y)
	}
	return out
}
