package web

import (
	"bytes"
	"net/http"
	"time"

	"calview/internal/dateutil"
	"calview/internal/events"
	"calview/internal/ics"
	appLog "calview/internal/log"
	"calview/internal/model"
	"calview/internal/state"
	"calview/internal/view"
)

// handleState returns the rendered page for the current session.
//
// GET /api/state?compact=1
func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, view.Build(s.Session(), s.options(r)))
}

type viewRequest struct {
	View string `json:"view"`
}

type selectRequest struct {
	// Date is "YYYY-MM-DD"; null clears the selection.
	Date *string `json:"date"`
}

type jumpRequest struct {
	Year  int `json:"year"`
	Month int `json:"month"`
}

// handleNav applies one navigation transition and returns the new page.
//
//	POST /api/nav/next
//	POST /api/nav/prev
//	POST /api/nav/today
//	POST /api/nav/view    {"view":"week"}
//	POST /api/nav/select  {"date":"2025-01-15"} | {"date":null}
//	POST /api/nav/jump    {"year":2025,"month":3}
func (s *Server) handleNav(w http.ResponseWriter, r *http.Request) {
	var transition func(state.Navigation) state.Navigation

	switch action := r.PathValue("action"); action {
	case "next":
		transition = state.Navigation.Next
	case "prev":
		transition = state.Navigation.Previous
	case "today":
		transition = func(n state.Navigation) state.Navigation { return n.Today(s.clock) }

	case "view":
		var req viewRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		v, ok := model.ParseView(req.View)
		if !ok {
			writeError(w, http.StatusBadRequest, "view must be month or week")
			return
		}
		transition = func(n state.Navigation) state.Navigation { return n.SetView(v) }

	case "select":
		var req selectRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		var date *time.Time
		if req.Date != nil {
			d, err := time.ParseInLocation(time.DateOnly, *req.Date, s.loc)
			if err != nil {
				writeError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
				return
			}
			date = &d
		}
		transition = func(n state.Navigation) state.Navigation { return n.Select(date) }

	case "jump":
		var req jumpRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		if req.Year < 0 {
			writeError(w, http.StatusBadRequest, "year must not be negative")
			return
		}
		if req.Month < 0 || req.Month > 12 {
			writeError(w, http.StatusBadRequest, "month must be 1-12")
			return
		}
		transition = func(n state.Navigation) state.Navigation {
			if req.Year > 0 {
				n = n.JumpToYear(req.Year)
			}
			if req.Month > 0 {
				n = n.JumpToMonth(time.Month(req.Month))
			}
			return n
		}

	default:
		writeError(w, http.StatusNotFound, "unknown navigation action: "+action)
		return
	}

	sess := s.apply(func(cur state.Session) state.Session {
		cur.Nav = transition(cur.Nav)
		return cur
	})
	appLog.Debug("navigation", "action", r.PathValue("action"), "current", sess.Nav.CurrentDate, "view", string(sess.Nav.View))
	writeJSON(w, http.StatusOK, view.Build(sess, s.options(r)))
}

// metaResponse lists the static choices a client form needs.
type metaResponse struct {
	Palette        []string               `json:"palette"`
	DefaultColor   string                 `json:"default_color"`
	Categories     []events.Category      `json:"categories"`
	TimeSlots      []string               `json:"time_slots"`
	WeekdayHeaders []string               `json:"weekday_headers"`
	Months         []dateutil.MonthOption `json:"months"`
	Years          []int                  `json:"years"`
	Timezone       string                 `json:"timezone"`
}

func (s *Server) handleMeta(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, metaResponse{
		Palette:        events.ColorPalette(),
		DefaultColor:   events.DefaultColor(),
		Categories:     events.Categories(),
		TimeSlots:      dateutil.TimeSlots(),
		WeekdayHeaders: s.grid.WeekdayHeaders(),
		Months:         dateutil.MonthsInYear(),
		Years:          dateutil.YearRange(s.clock.Now().Year(), 5),
		Timezone:       s.loc.String(),
	})
}

type eventsResponse struct {
	Events []model.CalendarEvent `json:"events"`
}

type validationResponse struct {
	Errors []string `json:"errors"`
}

// handleListEvents returns all events, or with ?date=YYYY-MM-DD the events
// shown on that day.
func (s *Server) handleListEvents(w http.ResponseWriter, r *http.Request) {
	sess := s.Session()

	list := sess.Events.All()
	if q := r.URL.Query().Get("date"); q != "" {
		d, err := time.ParseInLocation(time.DateOnly, q, s.loc)
		if err != nil {
			writeError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
			return
		}
		list = events.SortByStart(sess.Events.OnDate(d))
	}
	writeJSON(w, http.StatusOK, eventsResponse{Events: list})
}

// handleAddEvent validates an event form and adds it.
//
// POST /api/events {"title":"...","start_date":"2025-01-15","start_time":"09:00",...}
func (s *Server) handleAddEvent(w http.ResponseWriter, r *http.Request) {
	var form events.FormInput
	if err := decodeJSON(w, r, &form); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	draft := form.Draft(s.loc)
	if errs := events.Validate(draft); len(errs) > 0 {
		writeJSON(w, http.StatusUnprocessableEntity, validationResponse{Errors: errs})
		return
	}

	var added model.CalendarEvent
	s.apply(func(cur state.Session) state.Session {
		cur.Events, added = cur.Events.Add(draft)
		return cur
	})
	appLog.Info("event added", "id", added.ID, "start", added.StartDate)
	writeJSON(w, http.StatusCreated, added)
}

// handleUpdateEvent merges a patch into an event. The merged event must
// still validate.
//
// PATCH /api/events/{id} {"title":"..."}
func (s *Server) handleUpdateEvent(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var patch model.Patch
	if err := decodeJSON(w, r, &patch); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	var (
		updated model.CalendarEvent
		found   bool
		errs    []string
	)
	s.apply(func(cur state.Session) state.Session {
		existing, ok := cur.Events.Get(id)
		if !ok {
			return cur
		}
		found = true
		updated = patch.Apply(existing)
		if errs = events.Validate(updated.Draft()); len(errs) > 0 {
			return cur
		}
		cur.Events = cur.Events.Update(id, patch)
		return cur
	})

	switch {
	case !found:
		writeError(w, http.StatusNotFound, "event not found")
	case len(errs) > 0:
		writeJSON(w, http.StatusUnprocessableEntity, validationResponse{Errors: errs})
	default:
		appLog.Info("event updated", "id", id)
		writeJSON(w, http.StatusOK, updated)
	}
}

// handleDeleteEvent removes an event. Unknown ids still answer 204.
func (s *Server) handleDeleteEvent(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	s.apply(func(cur state.Session) state.Session {
		if s.fromFeed(id) {
			s.hidden[id] = true
		}
		cur.Events = cur.Events.Delete(id)
		return cur
	})
	appLog.Info("event deleted", "id", id)
	w.WriteHeader(http.StatusNoContent)
}

// handleExport serves the collection as an iCalendar file.
func (s *Server) handleExport(w http.ResponseWriter, _ *http.Request) {
	var buf bytes.Buffer
	if err := ics.Export(&buf, "calview", s.Session().Events.All(), s.clock.Now()); err != nil {
		appLog.Error("ics export failed", err)
		writeError(w, http.StatusInternalServerError, "failed to export events")
		return
	}
	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="calview.ics"`)
	_, _ = w.Write(buf.Bytes())
}
