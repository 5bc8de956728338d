package ics

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	ical "github.com/arran4/golang-ical"

	"calview/internal/dateutil"
	"calview/internal/events"
	appLog "calview/internal/log"
	"calview/internal/model"
)

// UntitledEvent replaces a missing or blank SUMMARY.
const UntitledEvent = "(No title)"

// Import parses an iCalendar payload into calendar events.
//
//   - ids come from EventID, so re-importing a feed replaces its earlier
//     events instead of duplicating them
//   - SUMMARY, DESCRIPTION, COLOR and the first CATEGORIES value are mapped
//   - all-day events cover [date 00:00, end date 00:00) in loc; a missing
//     DTEND means one day
//   - RRULE/EXDATE are ignored: only the first instance is imported
//   - a blank SUMMARY becomes UntitledEvent; SUMMARY and DESCRIPTION are
//     cut to the collection's length limits
//
// VEVENTs without UID, or that still fail events.Validate, are logged and
// skipped.
func Import(src Source, body []byte, loc *time.Location) ([]model.CalendarEvent, error) {
	if len(body) == 0 {
		return nil, errors.New("ics: empty body")
	}
	if loc == nil {
		loc = time.Local
	}

	cal, err := ical.ParseCalendar(bytes.NewReader(body))
	if err != nil {
		appLog.Error("ics parse failed", err, "id", src.ID, "url", redactURL(src.URL))
		return nil, fmt.Errorf("ics: parse %s: %w", src.ID, err)
	}

	out := make([]model.CalendarEvent, 0)
	for _, ve := range cal.Events() {
		ev, perr := convertVEvent(src, ve, loc)
		if perr != nil {
			appLog.Warn("ics vevent skipped", "id", src.ID, "reason", perr.Error())
			continue
		}
		out = append(out, ev)
	}

	appLog.Info("ics import completed", "id", src.ID, "event_count", len(out))
	return out, nil
}

func convertVEvent(src Source, ve *ical.VEvent, loc *time.Location) (model.CalendarEvent, error) {
	var out model.CalendarEvent

	uidProp := ve.GetProperty(ical.ComponentPropertyUniqueId)
	if uidProp == nil || uidProp.Value == "" {
		return out, errors.New("missing UID")
	}
	out.ID = EventID(src.ID, uidProp.Value)

	if p := ve.GetProperty(ical.ComponentPropertySummary); p != nil {
		out.Title = p.Value
	}
	if p := ve.GetProperty(ical.ComponentPropertyDescription); p != nil {
		out.Description = p.Value
	}
	if p := ve.GetProperty(ical.ComponentPropertyColor); p != nil {
		out.Color = p.Value
	}
	if p := ve.GetProperty(ical.ComponentPropertyCategories); p != nil {
		// TEXT values arrive unescaped, so a literal comma inside a
		// category name also splits here.
		first, _, _ := strings.Cut(p.Value, ",")
		out.Category = strings.ToLower(strings.TrimSpace(first))
	}

	if isAllDay(ve) {
		start, err := ve.GetAllDayStartAt()
		if err != nil {
			return out, fmt.Errorf("DTSTART: %w", err)
		}
		out.StartDate = localDay(start, loc)
		out.EndDate = dateutil.StartOfNextDay(out.StartDate)
		if end, err := ve.GetEndAt(); err == nil {
			out.EndDate = localDay(end, loc)
		}
	} else {
		start, err := ve.GetStartAt()
		if err != nil {
			return out, fmt.Errorf("DTSTART: %w", err)
		}
		end, err := ve.GetEndAt()
		if err != nil {
			return out, fmt.Errorf("DTEND: %w", err)
		}
		out.StartDate = start.In(loc)
		out.EndDate = end.In(loc)
	}

	if strings.TrimSpace(out.Title) == "" {
		out.Title = UntitledEvent
	}
	out.Title = truncate(out.Title, events.MaxTitleLen)
	out.Description = truncate(out.Description, events.MaxDescriptionLen)

	if errs := events.Validate(out.Draft()); len(errs) > 0 {
		return out, fmt.Errorf("uid %s: %s", uidProp.Value, strings.Join(errs, "; "))
	}
	return out, nil
}

// localDay is the start of d's calendar date in loc.
func localDay(d time.Time, loc *time.Location) time.Time {
	return dateutil.StartOfDay(time.Date(d.Year(), d.Month(), d.Day(), 12, 0, 0, 0, loc))
}

// truncate cuts s to at most n runes.
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

// isAllDay reports whether DTSTART is a DATE value (VALUE=DATE or no time part).
func isAllDay(ve *ical.VEvent) bool {
	p := ve.GetProperty(ical.ComponentPropertyDtStart)
	if p == nil {
		return false
	}
	if vs, ok := p.ICalParameters["VALUE"]; ok && len(vs) > 0 && strings.EqualFold(vs[0], "DATE") {
		return true
	}
	return !strings.Contains(p.Value, "T")
}

// EventID is the collection id of an imported VEVENT. Without a source id
// the UID is used as is, so files written by Export load back unchanged.
func EventID(sourceID, uid string) string {
	if sourceID == "" {
		return uid
	}
	return "ics-" + sourceID + "-" + uid
}
