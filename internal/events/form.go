package events

import (
	"strings"
	"time"

	"calview/internal/dateutil"
	"calview/internal/model"
)

const (
	DefaultStartTime = "09:00"
	DefaultEndTime   = "10:00"
)

// FormInput is the raw field set submitted by an event form. Dates are
// "YYYY-MM-DD" and times "HH:MM".
type FormInput struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	StartDate   string `json:"start_date"`
	StartTime   string `json:"start_time"`
	EndDate     string `json:"end_date"`
	EndTime     string `json:"end_time"`
	Color       string `json:"color"`
	Category    string `json:"category"`
}

// NewForm returns the blank form for creating an event on date.
func NewForm(date time.Time) FormInput {
	d := date.Format(time.DateOnly)
	return FormInput{
		StartDate: d,
		StartTime: DefaultStartTime,
		EndDate:   d,
		EndTime:   DefaultEndTime,
		Color:     DefaultColor(),
	}
}

// EditForm pre-fills a form from an existing event.
func EditForm(e model.CalendarEvent) FormInput {
	return FormInput{
		Title:       e.Title,
		Description: e.Description,
		StartDate:   e.StartDate.Format(time.DateOnly),
		StartTime:   e.StartDate.Format("15:04"),
		EndDate:     e.EndDate.Format(time.DateOnly),
		EndTime:     e.EndDate.Format("15:04"),
		Color:       ColorOrDefault(e.Color),
		Category:    e.Category,
	}
}

// Draft converts the form into a Draft in loc. Text fields are trimmed;
// an empty or unparseable date leaves the corresponding timestamp zero so
// that Validate reports it as missing. Missing times use the form defaults.
func (f FormInput) Draft(loc *time.Location) model.Draft {
	if loc == nil {
		loc = time.Local
	}
	return model.Draft{
		Title:       strings.TrimSpace(f.Title),
		Description: strings.TrimSpace(f.Description),
		StartDate:   parseDateTime(f.StartDate, f.StartTime, DefaultStartTime, loc),
		EndDate:     parseDateTime(f.EndDate, f.EndTime, DefaultEndTime, loc),
		Color:       ColorOrDefault(strings.TrimSpace(f.Color)),
		Category:    strings.TrimSpace(f.Category),
	}
}

func parseDateTime(date, clock, fallback string, loc *time.Location) time.Time {
	date = strings.TrimSpace(date)
	if date == "" {
		return time.Time{}
	}
	clock = strings.TrimSpace(clock)
	if clock == "" {
		clock = fallback
	}
	t, err := time.ParseInLocation("2006-01-02 15:04", date+" "+clock, loc)
	if err != nil {
		return time.Time{}
	}
	return t
}

// minBlockHours is the smallest block drawn in the week time grid.
const minBlockHours = 0.375

// Block is an event's vertical placement in a week-view day column,
// measured in hours from midnight.
type Block struct {
	Top    float64 `json:"top"`
	Height float64 `json:"height"`
}

// Position places e in the day column of day. Parts of the event outside
// that day are clipped.
func Position(e model.CalendarEvent, day time.Time) Block {
	dayStart := dateutil.StartOfDay(day)
	dayEnd := dateutil.StartOfNextDay(day)

	start, end := e.StartDate, e.EndDate
	if start.Before(dayStart) {
		start = dayStart
	}
	if end.After(dayEnd) {
		end = dayEnd
	}

	top := start.Sub(dayStart).Hours()
	height := end.Sub(start).Hours()
	if height < minBlockHours {
		height = minBlockHours
	}
	return Block{Top: top, Height: height}
}
