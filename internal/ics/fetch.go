package ics

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"

	appLog "calview/internal/log"
	"calview/internal/model"
)

// Source is a single iCalendar feed.
type Source struct {
	// ID prefixes the ids of imported events; empty keeps raw UIDs.
	ID  string
	URL string
}

// Origin tells where a feed's events came from on the last sync.
type Origin string

const (
	// OriginNetwork is a fresh 200 response.
	OriginNetwork Origin = "network"
	// OriginNotModified is the cached copy confirmed by a 304.
	OriginNotModified Origin = "not-modified"
	// OriginStale is the cached copy served because the feed was unreachable.
	OriginStale Origin = "stale"
)

// Feed is the imported content of one source.
type Feed struct {
	Source Source
	Events []model.CalendarEvent
	Origin Origin
}

// Authoritative reports whether Events is the feed's current content, as
// opposed to a fallback copy that may miss upstream changes.
func (f Feed) Authoritative() bool {
	return f.Origin != OriginStale
}

// Fetcher syncs feeds with conditional requests and keeps the last good
// body of each on disk.
type Fetcher struct {
	client   *http.Client
	cacheDir string
}

// NewFetcher creates a Fetcher caching under cacheDir.
func NewFetcher(cacheDir string) *Fetcher {
	if cacheDir == "" {
		cacheDir = "./var/ics-cache"
	}
	return &Fetcher{
		client:   &http.Client{Timeout: 15 * time.Second},
		cacheDir: cacheDir,
	}
}

// LoadFile reads a local .ics file and imports it.
func LoadFile(path string, src Source, loc *time.Location) ([]model.CalendarEvent, error) {
	body, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("ics: read %s: %w", path, err)
	}
	return Import(src, body, loc)
}

// SyncAll syncs every source in order. A failing source is logged and
// reported in the error slice; the others still produce feeds.
func (f *Fetcher) SyncAll(ctx context.Context, sources []Source, loc *time.Location) ([]Feed, []error) {
	feeds := make([]Feed, 0, len(sources))
	errs := make([]error, 0)
	for _, src := range sources {
		feed, err := f.Sync(ctx, src, loc)
		if err != nil {
			appLog.Error("ics sync failed", err, "id", src.ID, "url", redactURL(src.URL))
			errs = append(errs, err)
			continue
		}
		feeds = append(feeds, feed)
	}
	return feeds, errs
}

// Sync downloads src and imports its events.
func (f *Fetcher) Sync(ctx context.Context, src Source, loc *time.Location) (Feed, error) {
	body, origin, err := f.download(ctx, src)
	if err != nil {
		return Feed{}, err
	}
	evs, err := Import(src, body, loc)
	if err != nil {
		return Feed{}, err
	}
	appLog.Info("ics feed synced", "id", src.ID, "origin", string(origin), "event_count", len(evs))
	return Feed{Source: src, Events: evs, Origin: origin}, nil
}

// download returns the feed body. The cached body stands in for a 304 and
// for network or HTTP failures.
func (f *Fetcher) download(ctx context.Context, src Source) ([]byte, Origin, error) {
	if src.URL == "" {
		return nil, "", fmt.Errorf("ics: source %q has no URL", src.ID)
	}

	cache := f.cacheFor(src.URL)
	if err := os.MkdirAll(cache.dir, 0o700); err != nil {
		return nil, "", err
	}
	val, cached := cache.load()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src.URL, nil)
	if err != nil {
		return nil, "", err
	}
	val.apply(req)

	fallback := func(cause error) ([]byte, Origin, error) {
		if len(cached) == 0 {
			return nil, "", fmt.Errorf("ics: fetch %s: %w", src.ID, cause)
		}
		appLog.Warn("ics feed unavailable, using cached copy", "id", src.ID, "url", redactURL(src.URL), "reason", cause.Error())
		return cached, OriginStale, nil
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return fallback(err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return fallback(err)
		}
		if err := cache.store(validatorsFrom(src.URL, resp), body); err != nil {
			appLog.Error("ics cache write failed", err, "id", src.ID)
		}
		return body, OriginNetwork, nil
	case http.StatusNotModified:
		if len(cached) == 0 {
			return nil, "", fmt.Errorf("ics: %s: 304 without a cached copy", src.ID)
		}
		return cached, OriginNotModified, nil
	default:
		return fallback(errors.New(resp.Status))
	}
}

// validators are the conditional-request headers remembered per URL.
type validators struct {
	URL          string    `json:"url"`
	ETag         string    `json:"etag,omitempty"`
	LastModified string    `json:"last_modified,omitempty"`
	StoredAt     time.Time `json:"stored_at"`
}

func validatorsFrom(rawURL string, resp *http.Response) validators {
	return validators{
		URL:          rawURL,
		ETag:         resp.Header.Get("ETag"),
		LastModified: resp.Header.Get("Last-Modified"),
	}
}

func (v validators) apply(req *http.Request) {
	if v.ETag != "" {
		req.Header.Set("If-None-Match", v.ETag)
	}
	if v.LastModified != "" {
		req.Header.Set("If-Modified-Since", v.LastModified)
	}
}

// feedCache is one URL's cache directory: feed.ics plus validators.json.
type feedCache struct {
	dir string
}

func (f *Fetcher) cacheFor(rawURL string) feedCache {
	sum := sha256.Sum256([]byte(rawURL))
	return feedCache{dir: filepath.Join(f.cacheDir, hex.EncodeToString(sum[:8]))}
}

// load returns whatever is cached; missing or corrupt files read as empty.
func (c feedCache) load() (validators, []byte) {
	var v validators
	if data, err := os.ReadFile(filepath.Join(c.dir, "validators.json")); err == nil {
		if json.Unmarshal(data, &v) != nil {
			v = validators{}
		}
	}
	body, _ := os.ReadFile(filepath.Join(c.dir, "feed.ics"))
	return v, body
}

func (c feedCache) store(v validators, body []byte) error {
	// Body first so the validators never describe a missing body.
	if err := os.WriteFile(filepath.Join(c.dir, "feed.ics"), body, 0o600); err != nil {
		return err
	}
	v.StoredAt = time.Now().UTC()
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(c.dir, "validators.json"), data, 0o600)
}

// redactURL keeps only the scheme and host of a feed URL for logging;
// private feed URLs carry tokens in the path or query.
func redactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return "ics://...(redacted)"
	}
	return u.Scheme + "://" + u.Host + "/...(redacted)"
}
