// Package events filters, validates and prepares CalendarEvent values for
// display. Every function here is pure except GenerateID.
package events

import (
	"sort"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"calview/internal/dateutil"
	"calview/internal/model"
)

const (
	MaxTitleLen       = 100
	MaxDescriptionLen = 500
)

// Validation messages, in the order Validate checks them.
const (
	ErrTitleRequired    = "Title is required"
	ErrTitleTooLong     = "Title must be 100 characters or less"
	ErrDescriptionLong  = "Description must be 500 characters or less"
	ErrStartRequired    = "Start date is required"
	ErrEndRequired      = "End date is required"
	ErrEndNotAfterStart = "End date must be after start date"
)

// OnDate returns the events shown on date's calendar day: those starting on
// that day, plus those whose [StartDate, EndDate) span overlaps it.
// Day boundaries are midnight-to-midnight in date's location, so an event
// ending exactly at midnight does not spill onto the next day.
func OnDate(events []model.CalendarEvent, date time.Time) []model.CalendarEvent {
	dayStart := dateutil.StartOfDay(date)
	dayEnd := dateutil.StartOfNextDay(date)

	out := make([]model.CalendarEvent, 0)
	for _, e := range events {
		if dateutil.IsSameDay(e.StartDate.In(date.Location()), date) ||
			(e.StartDate.Before(dayEnd) && e.EndDate.After(dayStart)) {
			out = append(out, e)
		}
	}
	return out
}

// InRange returns events overlapping [from, to).
func InRange(events []model.CalendarEvent, from, to time.Time) []model.CalendarEvent {
	out := make([]model.CalendarEvent, 0)
	for _, e := range events {
		if e.StartDate.Before(to) && (e.EndDate.After(from) || !e.StartDate.Before(from)) {
			out = append(out, e)
		}
	}
	return out
}

// Validate runs every check and returns all violated rules. An empty
// result means the draft is valid.
func Validate(d model.Draft) []string {
	errs := make([]string, 0)

	if strings.TrimSpace(d.Title) == "" {
		errs = append(errs, ErrTitleRequired)
	}
	if utf8.RuneCountInString(d.Title) > MaxTitleLen {
		errs = append(errs, ErrTitleTooLong)
	}
	if utf8.RuneCountInString(d.Description) > MaxDescriptionLen {
		errs = append(errs, ErrDescriptionLong)
	}
	if d.StartDate.IsZero() {
		errs = append(errs, ErrStartRequired)
	}
	if d.EndDate.IsZero() {
		errs = append(errs, ErrEndRequired)
	}
	if !d.StartDate.IsZero() && !d.EndDate.IsZero() && !d.StartDate.Before(d.EndDate) {
		errs = append(errs, ErrEndNotAfterStart)
	}

	return errs
}

var palette = []string{
	"#3b82f6", // blue
	"#10b981", // green
	"#f59e0b", // yellow
	"#8b5cf6", // purple
	"#ef4444", // red
	"#06b6d4", // cyan
	"#f97316", // orange
	"#84cc16", // lime
}

// DefaultColor is the swatch used when an event has no color.
func DefaultColor() string {
	return palette[0]
}

// ColorPalette returns a copy of the 8 selectable swatches.
func ColorPalette() []string {
	out := make([]string, len(palette))
	copy(out, palette)
	return out
}

// ColorOrDefault returns c, or DefaultColor when c is empty.
func ColorOrDefault(c string) string {
	if c == "" {
		return DefaultColor()
	}
	return c
}

// Category is a selectable event label.
type Category struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// Categories returns the labels offered by the event form.
func Categories() []Category {
	return []Category{
		{Value: "meeting", Label: "Meeting"},
		{Value: "work", Label: "Work"},
		{Value: "personal", Label: "Personal"},
		{Value: "appointment", Label: "Appointment"},
	}
}

// GenerateID returns "evt-<unix millis>-<9 random chars>". Unique enough
// for a collection key within one session; not a security token.
func GenerateID() string {
	r := strings.ReplaceAll(uuid.NewString(), "-", "")
	return "evt-" + strconv.FormatInt(time.Now().UnixMilli(), 10) + "-" + r[:9]
}

// SortByStart orders events by StartDate, then EndDate, then title.
// The input slice is not modified.
func SortByStart(events []model.CalendarEvent) []model.CalendarEvent {
	out := make([]model.CalendarEvent, len(events))
	copy(out, events)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if !a.StartDate.Equal(b.StartDate) {
			return a.StartDate.Before(b.StartDate)
		}
		if !a.EndDate.Equal(b.EndDate) {
			return a.EndDate.Before(b.EndDate)
		}
		return a.Title < b.Title
	})
	return out
}

// Limit returns at most max events and how many were left out.
// A non-positive max shows everything.
func Limit(events []model.CalendarEvent, max int) ([]model.CalendarEvent, int) {
	if max <= 0 || len(events) <= max {
		return events, 0
	}
	return events[:max], len(events) - max
}
