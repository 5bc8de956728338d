package ics

import (
	"io"
	"time"

	ical "github.com/arran4/golang-ical"

	"calview/internal/model"
)

// Export writes events as a PUBLISH VCALENDAR named name. Times are
// written in UTC; the event id becomes the VEVENT UID.
func Export(w io.Writer, name string, evs []model.CalendarEvent, now time.Time) error {
	cal := ical.NewCalendarFor("calview")
	cal.SetMethod(ical.MethodPublish)
	if name != "" {
		cal.SetName(name)
	}

	for _, e := range evs {
		ve := cal.AddEvent(e.ID)
		ve.SetDtStampTime(now)
		ve.SetSummary(e.Title)
		if e.Description != "" {
			ve.SetDescription(e.Description)
		}
		ve.SetStartAt(e.StartDate)
		ve.SetEndAt(e.EndDate)
		if e.Color != "" {
			ve.SetColor(e.Color)
		}
		if e.Category != "" {
			ve.AddCategory(e.Category)
		}
	}

	return cal.SerializeTo(w)
}
