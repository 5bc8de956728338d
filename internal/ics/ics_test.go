package ics

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"calview/internal/events"
	appLog "calview/internal/log"
	"calview/internal/model"
)

func init() {
	appLog.SetOutput(io.Discard)
}

const sampleICS = "BEGIN:VCALENDAR\r\n" +
	"VERSION:2.0\r\n" +
	"PRODID:-//test//EN\r\n" +
	"BEGIN:VEVENT\r\n" +
	"UID:standup-1\r\n" +
	"DTSTAMP:20250101T000000Z\r\n" +
	"DTSTART:20250115T090000Z\r\n" +
	"DTEND:20250115T093000Z\r\n" +
	"SUMMARY:Standup\\, daily\r\n" +
	"DESCRIPTION:Team sync\r\n" +
	"COLOR:#10b981\r\n" +
	"CATEGORIES:Meeting,Work\r\n" +
	"END:VEVENT\r\n" +
	"BEGIN:VEVENT\r\n" +
	"UID:holiday-1\r\n" +
	"DTSTAMP:20250101T000000Z\r\n" +
	"DTSTART;VALUE=DATE:20250120\r\n" +
	"SUMMARY:Holiday\r\n" +
	"END:VEVENT\r\n" +
	"BEGIN:VEVENT\r\n" +
	"UID:broken-1\r\n" +
	"DTSTAMP:20250101T000000Z\r\n" +
	"DTSTART:20250115T100000Z\r\n" +
	"DTEND:20250115T090000Z\r\n" +
	"SUMMARY:Backwards\r\n" +
	"END:VEVENT\r\n" +
	"END:VCALENDAR\r\n"

func TestImport(t *testing.T) {
	evs, err := Import(Source{ID: "team"}, []byte(sampleICS), time.UTC)
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if len(evs) != 2 {
		t.Fatalf("expected 2 events (broken one skipped), got %d: %+v", len(evs), evs)
	}

	standup := evs[0]
	if standup.ID != "ics-team-standup-1" || standup.Title != "Standup, daily" {
		t.Errorf("standup = %+v", standup)
	}
	if standup.Color != "#10b981" || standup.Category != "meeting" || standup.Description != "Team sync" {
		t.Errorf("standup extras = %+v", standup)
	}
	if !standup.StartDate.Equal(time.Date(2025, 1, 15, 9, 0, 0, 0, time.UTC)) {
		t.Errorf("standup start = %s", standup.StartDate)
	}

	holiday := evs[1]
	wantStart := time.Date(2025, 1, 20, 0, 0, 0, 0, time.UTC)
	if !holiday.StartDate.Equal(wantStart) || !holiday.EndDate.Equal(wantStart.AddDate(0, 0, 1)) {
		t.Errorf("all-day holiday = %s..%s", holiday.StartDate, holiday.EndDate)
	}
}

func TestImportRepairsTitleAndLengths(t *testing.T) {
	body := "BEGIN:VCALENDAR\r\n" +
		"VERSION:2.0\r\n" +
		"PRODID:-//test//EN\r\n" +
		"BEGIN:VEVENT\r\n" +
		"UID:u1\r\n" +
		"DTSTAMP:20250101T000000Z\r\n" +
		"DTSTART:20250115T090000Z\r\n" +
		"DTEND:20250115T100000Z\r\n" +
		"END:VEVENT\r\n" +
		"BEGIN:VEVENT\r\n" +
		"UID:u2\r\n" +
		"DTSTAMP:20250101T000000Z\r\n" +
		"DTSTART:20250116T090000Z\r\n" +
		"DTEND:20250116T100000Z\r\n" +
		"SUMMARY:" + strings.Repeat("t", 150) + "\r\n" +
		"DESCRIPTION:" + strings.Repeat("d", 600) + "\r\n" +
		"END:VEVENT\r\n" +
		"END:VCALENDAR\r\n"

	evs, err := Import(Source{}, []byte(body), time.UTC)
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if len(evs) != 2 {
		t.Fatalf("got %d events", len(evs))
	}
	if evs[0].Title != UntitledEvent {
		t.Errorf("missing SUMMARY title = %q", evs[0].Title)
	}
	if n := len(evs[1].Title); n != events.MaxTitleLen {
		t.Errorf("title length = %d", n)
	}
	if n := len(evs[1].Description); n != events.MaxDescriptionLen {
		t.Errorf("description length = %d", n)
	}
	for _, e := range evs {
		if errs := events.Validate(e.Draft()); len(errs) > 0 {
			t.Errorf("%s imported invalid: %v", e.ID, errs)
		}
	}

	// An unrelated patch on a repaired event stays valid.
	patched := model.Patch{Color: ptr("#10b981")}.Apply(evs[0])
	if errs := events.Validate(patched.Draft()); len(errs) > 0 {
		t.Errorf("patched event invalid: %v", errs)
	}
}

func ptr(s string) *string { return &s }

func TestImportEmpty(t *testing.T) {
	if _, err := Import(Source{}, nil, time.UTC); err == nil {
		t.Error("expected error for empty body")
	}
}

func TestExportImportRoundTrip(t *testing.T) {
	start := time.Date(2025, 3, 4, 14, 0, 0, 0, time.UTC)
	in := []model.CalendarEvent{
		{ID: "evt-1", Title: "Planning; Q2", Description: "line one\nline two", StartDate: start, EndDate: start.Add(time.Hour), Color: "#8b5cf6", Category: "work"},
		{ID: "evt-2", Title: "Lunch", StartDate: start.Add(-2 * time.Hour), EndDate: start.Add(-time.Hour)},
	}

	var buf bytes.Buffer
	if err := Export(&buf, "My calendar", in, start); err != nil {
		t.Fatalf("Export: %v", err)
	}
	body := buf.String()
	for _, want := range []string{"BEGIN:VCALENDAR", "METHOD:PUBLISH", "UID:evt-1", "DTSTART:20250304T140000Z"} {
		if !strings.Contains(body, want) {
			t.Errorf("export missing %q:\n%s", want, body)
		}
	}

	out, err := Import(Source{}, buf.Bytes(), time.UTC)
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if len(out) != len(in) {
		t.Fatalf("got %d events back", len(out))
	}
	for i := range in {
		got, want := out[i], in[i]
		if got.ID != want.ID || got.Title != want.Title || got.Description != want.Description ||
			got.Color != want.Color || got.Category != want.Category ||
			!got.StartDate.Equal(want.StartDate) || !got.EndDate.Equal(want.EndDate) {
			t.Errorf("round trip %d:\n got  %+v\n want %+v", i, got, want)
		}
	}
}

func TestFetcherCachesAndRevalidates(t *testing.T) {
	hits := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		if r.Header.Get("If-None-Match") == `"v1"` {
			w.WriteHeader(http.StatusNotModified)
			return
		}
		w.Header().Set("ETag", `"v1"`)
		_, _ = w.Write([]byte(sampleICS))
	}))
	defer srv.Close()

	f := NewFetcher(t.TempDir())
	src := Source{ID: "team", URL: srv.URL + "/private.ics"}

	first, err := f.Sync(context.Background(), src, time.UTC)
	if err != nil || first.Origin != OriginNetwork || len(first.Events) != 2 {
		t.Fatalf("first sync: %+v, %v", first, err)
	}
	second, err := f.Sync(context.Background(), src, time.UTC)
	if err != nil || second.Origin != OriginNotModified || !second.Authoritative() {
		t.Fatalf("second sync should revalidate: %+v, %v", second.Origin, err)
	}
	if len(second.Events) != len(first.Events) || second.Events[0].ID != first.Events[0].ID {
		t.Errorf("revalidated events differ: %+v", second.Events)
	}
	if hits != 2 {
		t.Errorf("expected 2 requests, got %d", hits)
	}

	feeds, errs := f.SyncAll(context.Background(), []Source{src, {ID: "bad"}}, time.UTC)
	if len(feeds) != 1 || len(feeds[0].Events) != 2 || len(errs) != 1 {
		t.Errorf("SyncAll = %d feeds, %d errors", len(feeds), len(errs))
	}
}

func TestFetcherFallsBackToCache(t *testing.T) {
	ok := true
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !ok {
			http.Error(w, "down", http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(sampleICS))
	}))
	defer srv.Close()

	f := NewFetcher(t.TempDir())
	src := Source{ID: "team", URL: srv.URL}
	if _, err := f.Sync(context.Background(), src, time.UTC); err != nil {
		t.Fatal(err)
	}

	ok = false
	feed, err := f.Sync(context.Background(), src, time.UTC)
	if err != nil || feed.Origin != OriginStale || feed.Authoritative() {
		t.Errorf("expected stale cached copy, got %+v, %v", feed.Origin, err)
	}
	if len(feed.Events) != 2 {
		t.Errorf("stale feed has %d events", len(feed.Events))
	}

	if _, err := NewFetcher(t.TempDir()).Sync(context.Background(), src, time.UTC); err == nil {
		t.Error("expected error without a cached copy")
	}
}

func TestRedactURL(t *testing.T) {
	if got := redactURL("https://example.com/private/abc.ics?token=1"); got != "https://example.com/...(redacted)" {
		t.Errorf("redactURL = %q", got)
	}
	if got := redactURL("not a url"); got != "ics://...(redacted)" {
		t.Errorf("redactURL = %q", got)
	}
}
