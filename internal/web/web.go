package web

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"calview/internal/clock"
	"calview/internal/config"
	"calview/internal/dateutil"
	"calview/internal/ics"
	appLog "calview/internal/log"
	"calview/internal/model"
	"calview/internal/state"
	"calview/internal/view"
)

// Server hosts one calendar session over HTTP: a JSON API driving the
// navigation and event state, an iCalendar export, and the server-rendered
// /calendar page used for snapshots.
type Server struct {
	cfg   *config.Config
	loc   *time.Location
	clock clock.Clock
	grid  dateutil.Grid
	mux   *http.ServeMux

	// mu serializes every transition on sess; handlers apply them in
	// arrival order. feeds and hidden are only touched under mu.
	mu     sync.Mutex
	sess   state.Session
	feeds  map[string]map[string]bool // source id -> event ids it delivered
	hidden map[string]bool            // feed event ids the user deleted
}

// NewServer constructs a Server whose session starts at the clock's now,
// in the configured initial view, holding seed.
func NewServer(cfg *config.Config, c clock.Clock, loc *time.Location, seed []model.CalendarEvent) *Server {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if loc == nil {
		loc = time.Local
	}
	if c == nil {
		c = clock.System(loc)
	}

	s := &Server{
		cfg:   cfg,
		loc:   loc,
		clock: c,
		grid:  dateutil.New(dateutil.ParseWeekStart(cfg.WeekStart), c),
		mux:   http.NewServeMux(),
		sess: state.Session{
			Nav:    state.NewNavigation(c.Now(), model.View(cfg.InitialView)),
			Events: state.NewCollection(seed),
		},
	}
	s.registerRoutes()
	return s
}

// Handler returns the underlying http.Handler for this server.
func (s *Server) Handler() http.Handler {
	h := http.Handler(s.mux)
	if s.basicAuthEnabled() {
		appLog.Info("HTTP basic auth enabled", "listen", "http://"+s.cfg.Listen)
		return s.basicAuthMiddleware(h)
	}
	return h
}

// Session returns the current state value.
func (s *Server) Session() state.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sess
}

// apply runs fn on the current session and stores the result.
func (s *Server) apply(fn func(state.Session) state.Session) state.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sess = fn(s.sess)
	return s.sess
}

// SyncFeed replaces the events feed delivered on its previous sync with
// its current ones. Events gone upstream are dropped and feed events the
// user deleted stay deleted. A stale feed only adds and updates, since its
// copy may predate upstream removals.
func (s *Server) SyncFeed(feed ics.Feed) {
	src := feed.Source.ID
	removed := 0
	sess := s.apply(func(cur state.Session) state.Session {
		seen := make(map[string]bool, len(feed.Events))
		for _, e := range feed.Events {
			seen[e.ID] = true
			if !s.hidden[e.ID] {
				cur.Events = cur.Events.Upsert(e)
			}
		}

		prev := s.feeds[src]
		if !feed.Authoritative() {
			for id := range prev {
				seen[id] = true
			}
		} else {
			for id := range prev {
				if seen[id] {
					continue
				}
				cur.Events = cur.Events.Delete(id)
				delete(s.hidden, id)
				removed++
			}
		}
		s.feeds[src] = seen
		return cur
	})
	appLog.Info("feed synced", "id", src, "origin", string(feed.Origin),
		"count", len(feed.Events), "removed", removed, "total", sess.Events.Len())
}

// fromFeed reports whether id was delivered by a synced feed. Callers hold mu.
func (s *Server) fromFeed(id string) bool {
	for _, ids := range s.feeds {
		if ids[id] {
			return true
		}
	}
	return false
}

func (s *Server) basicAuthEnabled() bool {
	if s.cfg.BasicAuth == nil {
		return false
	}
	// Empty credentials disable auth rather than locking everyone out.
	return s.cfg.BasicAuth.Username != "" && s.cfg.BasicAuth.Password != ""
}

// basicAuthMiddleware wraps all handlers except /health with HTTP Basic Auth.
func (s *Server) basicAuthMiddleware(next http.Handler) http.Handler {
	username := s.cfg.BasicAuth.Username
	password := s.cfg.BasicAuth.Password

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}

		u, p, ok := r.BasicAuth()
		if !ok || !secureCompare(u, username) || !secureCompare(p, password) {
			w.Header().Set("WWW-Authenticate", `Basic realm="calview", charset="UTF-8"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// secureCompare compares two strings in constant time.
func secureCompare(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

// StartServer serves s on cfg.Listen until ctx is canceled, then shuts
// down gracefully.
func StartServer(ctx context.Context, s *Server) error {
	hs := &http.Server{
		Addr:              s.cfg.Listen,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		appLog.Info("starting HTTP server", "listen", "http://"+s.cfg.Listen)
		errCh <- hs.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := hs.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	appLog.Info("HTTP server stopped")
	return nil
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /health", s.handleHealth)

	s.mux.HandleFunc("GET /api/state", s.handleState)
	s.mux.HandleFunc("POST /api/nav/{action}", s.handleNav)
	s.mux.HandleFunc("GET /api/meta", s.handleMeta)

	s.mux.HandleFunc("GET /api/events", s.handleListEvents)
	s.mux.HandleFunc("POST /api/events", s.handleAddEvent)
	s.mux.HandleFunc("PATCH /api/events/{id}", s.handleUpdateEvent)
	s.mux.HandleFunc("DELETE /api/events/{id}", s.handleDeleteEvent)

	s.mux.HandleFunc("GET /export.ics", s.handleExport)
	s.mux.HandleFunc("GET /calendar", s.handleCalendar)
	s.mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/calendar", http.StatusFound)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// options returns the view settings for a request. ?compact=1 selects the
// compact layout; the server never guesses it.
func (s *Server) options(r *http.Request) view.Options {
	compact := isTruthy(r.URL.Query().Get("compact"))
	limit := s.cfg.MaxEventsPerCell
	if compact {
		limit = s.cfg.CompactMaxEvents
	}
	return view.Options{Grid: s.grid, MaxEvents: limit, Compact: compact}
}

func isTruthy(v string) bool {
	switch strings.ToLower(v) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		appLog.Error("failed to write JSON response", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	type errResp struct {
		Error string `json:"error"`
	}
	writeJSON(w, status, errResp{Error: msg})
}

// decodeJSON reads a JSON body into v; an empty body leaves v untouched.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}
