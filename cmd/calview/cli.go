package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	"calview/internal/capture"
	"calview/internal/clock"
	"calview/internal/config"
	"calview/internal/ics"
	appLog "calview/internal/log"
	"calview/internal/model"
	"calview/internal/state"
	"calview/internal/tui"
	"calview/internal/web"
)

// options holds CLI flag values shared by all subcommands.
type options struct {
	configPath string
	listen     string
	seed       string
	out        string
	url        string
	compact    bool
}

var commands = []string{"serve", "tui", "snapshot", "export"}

// parseArgs splits an optional subcommand (default "serve") from its flags.
func parseArgs(args []string) (string, options, error) {
	cmd := "serve"
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		cmd, args = args[0], args[1:]
	}

	known := false
	for _, c := range commands {
		known = known || c == cmd
	}
	if !known {
		fmt.Fprintf(os.Stderr, "unknown command %q; expected one of %s\n", cmd, strings.Join(commands, ", "))
		return "", options{}, fmt.Errorf("unknown command %q", cmd)
	}

	var o options
	fs := flag.NewFlagSet(cmd, flag.ContinueOnError)
	fs.StringVar(&o.configPath, "config", "./calview.yaml", "Path to config file (.yaml or .toml)")
	fs.StringVar(&o.listen, "listen", "", "HTTP listen address (overrides config if set)")
	fs.StringVar(&o.seed, "seed", "", "Local .ics file to load at startup (overrides config seed_file)")
	fs.StringVar(&o.out, "out", "", "Output file for snapshot (PNG) or export (ICS; stdout if empty)")
	fs.StringVar(&o.url, "url", "", "Page to snapshot instead of an in-process server")
	fs.BoolVar(&o.compact, "compact", false, "Render the compact layout")
	if err := fs.Parse(args); err != nil {
		return "", options{}, err
	}
	return cmd, o, nil
}

// env is the loaded configuration shared by every subcommand.
type env struct {
	cfg   *config.Config
	loc   *time.Location
	clock clock.Clock
	seed  []model.CalendarEvent
}

func run(ctx context.Context, cmd string, o options) int {
	e, err := loadEnv(o)
	if err != nil {
		appLog.Error("startup failed", err, "config_path", o.configPath)
		return 1
	}

	switch cmd {
	case "tui":
		err = runTUI(ctx, e)
	case "snapshot":
		err = runSnapshot(ctx, e, o)
	case "export":
		err = runExport(ctx, e, o)
	default:
		err = runServe(ctx, e)
	}
	if err != nil {
		appLog.Error(cmd+" failed", err)
		return 1
	}
	return 0
}

func loadEnv(o options) (*env, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, err
	}
	if o.listen != "" {
		cfg.Listen = o.listen
	}
	if lvl, ok := appLog.ParseLevel(cfg.LogLevel); ok {
		appLog.SetLevel(lvl)
	}

	loc := resolveLocationOrLocal(cfg.Timezone)

	appLog.Info("effective config",
		"listen", cfg.Listen,
		"timezone", loc.String(),
		"week_start", cfg.WeekStart,
		"initial_view", cfg.InitialView,
		"ics_count", len(cfg.ICS),
		"refresh", cfg.RefreshCron,
	)

	e := &env{cfg: cfg, loc: loc, clock: clock.System(loc)}

	seedPath := cfg.SeedFile
	if o.seed != "" {
		seedPath = o.seed
	}
	if seedPath != "" {
		evs, err := ics.LoadFile(seedPath, ics.Source{}, loc)
		if err != nil {
			return nil, fmt.Errorf("seed: %w", err)
		}
		e.seed = evs
		appLog.Info("seed loaded", "path", seedPath, "event_count", len(evs))
	}
	return e, nil
}

func resolveLocationOrLocal(name string) *time.Location {
	if name == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		appLog.Error("failed to load timezone; falling back to local", err, "name", name)
		return time.Local
	}
	return loc
}

// feedSources builds ICS sources from config; entries without a URL are skipped.
func feedSources(cfg *config.Config) []ics.Source {
	sources := make([]ics.Source, 0, len(cfg.ICS))
	for _, c := range cfg.ICS {
		if c.URL == "" {
			continue
		}
		id := c.ID
		if id == "" {
			id = c.Name
		}
		sources = append(sources, ics.Source{ID: id, URL: c.URL})
	}
	return sources
}

// syncFeeds syncs every configured feed once. Failing feeds are logged
// and skipped.
func syncFeeds(ctx context.Context, e *env) []ics.Feed {
	sources := feedSources(e.cfg)
	if len(sources) == 0 {
		return nil
	}
	feeds, errs := ics.NewFetcher(e.cfg.CacheDir).SyncAll(ctx, sources, e.loc)
	if len(errs) > 0 {
		appLog.Error("one or more ICS feeds failed", errors.Join(errs...), "error_count", len(errs))
	}
	return feeds
}

// initialEvents is the seed file followed by the feeds.
func initialEvents(ctx context.Context, e *env) []model.CalendarEvent {
	out := append([]model.CalendarEvent{}, e.seed...)
	for _, f := range syncFeeds(ctx, e) {
		out = append(out, f.Events...)
	}
	return out
}

func runServe(ctx context.Context, e *env) error {
	srv := web.NewServer(e.cfg, e.clock, e.loc, e.seed)

	if len(feedSources(e.cfg)) > 0 {
		refresh := func() {
			for _, f := range syncFeeds(ctx, e) {
				srv.SyncFeed(f)
			}
		}
		refresh()

		c := cron.New(cron.WithLocation(e.loc))
		if _, err := c.AddFunc(e.cfg.RefreshCron, refresh); err != nil {
			return fmt.Errorf("refresh schedule %q: %w", e.cfg.RefreshCron, err)
		}
		c.Start()
		defer func() { <-c.Stop().Done() }()
		appLog.Info("ICS refresh scheduled", "spec", e.cfg.RefreshCron)
	}

	return web.StartServer(ctx, srv)
}

func runTUI(ctx context.Context, e *env) error {
	sess := state.Session{
		Nav:    state.NewNavigation(e.clock.Now(), model.View(e.cfg.InitialView)),
		Events: state.NewCollection(initialEvents(ctx, e)),
	}
	// The terminal belongs to tview; keep log lines off it.
	appLog.SetOutput(io.Discard)
	return tui.New(e.cfg, e.clock, e.loc, sess).Run()
}

// runSnapshot captures -url, or /calendar of an in-process server on a
// loopback port.
func runSnapshot(ctx context.Context, e *env, o options) error {
	out := o.out
	if out == "" {
		out = "calendar.png"
	}

	url := o.url
	if url == "" {
		cfg := *e.cfg
		cfg.BasicAuth = nil
		srv := web.NewServer(&cfg, e.clock, e.loc, initialEvents(ctx, e))

		ln, err := net.Listen("tcp", "127.0.0.1:0")
		if err != nil {
			return fmt.Errorf("snapshot: listen: %w", err)
		}
		hs := &http.Server{Handler: srv.Handler(), ReadHeaderTimeout: 10 * time.Second}
		go func() { _ = hs.Serve(ln) }()
		defer hs.Close()

		url = "http://" + ln.Addr().String() + "/calendar"
		if o.compact {
			url += "?compact=1"
		}
	}

	return capture.Snapshot(ctx, capture.OptionsFromConfig(e.cfg, url, out))
}

func runExport(ctx context.Context, e *env, o options) error {
	var w io.Writer = os.Stdout
	if o.out != "" {
		f, err := os.Create(o.out)
		if err != nil {
			return fmt.Errorf("export: %w", err)
		}
		defer f.Close()
		w = f
	}

	evs := state.NewCollection(initialEvents(ctx, e)).All()
	if err := ics.Export(w, "calview", evs, e.clock.Now()); err != nil {
		return fmt.Errorf("export: %w", err)
	}
	appLog.Info("export written", "event_count", len(evs), "out", o.out)
	return nil
}
