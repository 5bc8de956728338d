package web

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"calview/internal/events"
	appLog "calview/internal/log"
	"calview/internal/view"
)

//go:embed templates/*.html
var templateFS embed.FS

// hourPx is the height of one hour row in the week view.
const hourPx = 48

var calendarTmpl = template.Must(template.New("calendar.html").Funcs(template.FuncMap{
	"clock": func(t time.Time) string { return t.Format("15:04") },
	"px":    func(hours float64) string { return fmt.Sprintf("%.0fpx", hours*hourPx) },
	"color": events.ColorOrDefault,
	"iso":   func(t time.Time) string { return t.Format(time.DateOnly) },
}).ParseFS(templateFS, "templates/calendar.html"))

type calendarData struct {
	Page    view.Page
	Palette []string
}

// handleCalendar renders the current session as a standalone HTML page.
// The root element carries data-ready="true" once rendered, which the
// snapshot capture waits for.
//
// GET /calendar?compact=1
func (s *Server) handleCalendar(w http.ResponseWriter, r *http.Request) {
	data := calendarData{
		Page:    view.Build(s.Session(), s.options(r)),
		Palette: events.ColorPalette(),
	}

	var buf bytes.Buffer
	if err := calendarTmpl.Execute(&buf, data); err != nil {
		appLog.Error("calendar template failed", err)
		http.Error(w, "failed to render calendar", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}
