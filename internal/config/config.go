package config

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// ICSConfig describes an iCalendar feed used to seed the event collection.
type ICSConfig struct {
	// URL is the ICS subscription endpoint.
	URL string `yaml:"url" toml:"url" json:"url"`
	// ID is an internal identifier used for event ids and logging.
	ID string `yaml:"id" toml:"id" json:"id"`
	// Name is a human-friendly label.
	Name string `yaml:"name" toml:"name" json:"name"`
}

// BasicAuthConfig holds HTTP Basic Auth credentials for the Web UI/API.
type BasicAuthConfig struct {
	Username string `yaml:"username" toml:"username" json:"username"`
	Password string `yaml:"password" toml:"password" json:"password"`
}

// SnapshotConfig controls the headless Chromium capture of /calendar.
type SnapshotConfig struct {
	Width      int `yaml:"width" toml:"width" json:"width"`
	Height     int `yaml:"height" toml:"height" json:"height"`
	TimeoutSec int `yaml:"timeout_sec" toml:"timeout_sec" json:"timeout_sec"`
}

// Config is the top-level application configuration.
type Config struct {
	// Listen is the HTTP listen address for the Web UI and API.
	Listen string `yaml:"listen" toml:"listen" json:"listen"`

	// Timezone is the IANA zone whose calendar days the widget shows.
	// Empty means the machine's local zone.
	Timezone string `yaml:"timezone" toml:"timezone" json:"timezone"`

	// WeekStart is the first column of month and week views:
	//   - "sunday" (default)
	//   - "monday"
	WeekStart string `yaml:"week_start" toml:"week_start" json:"week_start"`

	// InitialView is "month" or "week".
	InitialView string `yaml:"initial_view" toml:"initial_view" json:"initial_view"`

	LogLevel string `yaml:"log_level" toml:"log_level" json:"log_level"`

	// MaxEventsPerCell caps the events listed in a month cell before "+N more".
	MaxEventsPerCell int `yaml:"max_events_per_cell" toml:"max_events_per_cell" json:"max_events_per_cell"`
	// CompactMaxEvents is the same cap for the compact layout.
	CompactMaxEvents int `yaml:"compact_max_events" toml:"compact_max_events" json:"compact_max_events"`

	// SeedFile is an optional local .ics file loaded at startup.
	SeedFile string `yaml:"seed_file" toml:"seed_file" json:"seed_file"`

	// ICS feeds are fetched at startup and on RefreshCron.
	ICS         []ICSConfig `yaml:"ics" toml:"ics" json:"ics"`
	RefreshCron string      `yaml:"refresh" toml:"refresh" json:"refresh"`
	CacheDir    string      `yaml:"cache_dir" toml:"cache_dir" json:"cache_dir"`

	// BasicAuth, if set, protects every endpoint except /health.
	BasicAuth *BasicAuthConfig `yaml:"basic_auth,omitempty" toml:"basic_auth,omitempty" json:"basic_auth,omitempty"`

	Snapshot SnapshotConfig `yaml:"snapshot" toml:"snapshot" json:"snapshot"`
}

const (
	defaultListen           = "127.0.0.1:8080"
	defaultWeekStart        = "sunday"
	defaultInitialView      = "month"
	defaultLogLevel         = "info"
	defaultMaxEventsPerCell = 3
	defaultCompactMaxEvents = 1
	defaultRefreshCron      = "*/15 * * * *"
	defaultCacheDir         = "./var/ics-cache"
	defaultSnapshotWidth    = 1280
	defaultSnapshotHeight   = 960
	defaultSnapshotTimeout  = 30
)

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	c := &Config{}
	c.Normalize()
	return c
}

// Normalize fills in missing or invalid values with defaults so that
// partially-filled configs still behave correctly.
func (c *Config) Normalize() {
	if c.Listen == "" {
		c.Listen = defaultListen
	}

	c.WeekStart = strings.ToLower(strings.TrimSpace(c.WeekStart))
	switch c.WeekStart {
	case "sunday", "monday":
	default:
		c.WeekStart = defaultWeekStart
	}

	c.InitialView = strings.ToLower(strings.TrimSpace(c.InitialView))
	switch c.InitialView {
	case "month", "week":
	default:
		c.InitialView = defaultInitialView
	}

	if c.LogLevel == "" {
		c.LogLevel = defaultLogLevel
	}
	if c.MaxEventsPerCell <= 0 {
		c.MaxEventsPerCell = defaultMaxEventsPerCell
	}
	if c.CompactMaxEvents <= 0 {
		c.CompactMaxEvents = defaultCompactMaxEvents
	}
	if c.RefreshCron == "" {
		c.RefreshCron = defaultRefreshCron
	}
	if c.CacheDir == "" {
		c.CacheDir = defaultCacheDir
	}
	if c.ICS == nil {
		c.ICS = []ICSConfig{}
	}
	if c.Snapshot.Width <= 0 {
		c.Snapshot.Width = defaultSnapshotWidth
	}
	if c.Snapshot.Height <= 0 {
		c.Snapshot.Height = defaultSnapshotHeight
	}
	if c.Snapshot.TimeoutSec <= 0 {
		c.Snapshot.TimeoutSec = defaultSnapshotTimeout
	}
}

// isTOML reports whether path should be read and written as TOML.
// Everything else is treated as YAML.
func isTOML(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".toml")
}

// Load loads configuration from path.
//
//   - missing file: write defaults (0600) and return them
//   - ".toml" extension: decode as TOML
//   - anything else: decode as YAML
//
// The result is always normalized.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config: path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				// Hand back the defaults anyway so the caller can decide.
				return cfg, err
			}
			return cfg, nil
		}
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	var cfg Config
	if isTOML(path) {
		if _, err := toml.Decode(string(data), &cfg); err != nil {
			return nil, fmt.Errorf("config: decode toml: %w", err)
		}
	} else {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("config: decode yaml: %w", err)
		}
	}
	cfg.Normalize()

	return &cfg, nil
}

// Save writes cfg to path atomically (temp file + rename) with 0600 perms,
// creating the parent directory (0700) if needed.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config: path is empty")
	}
	if cfg == nil {
		return errors.New("config: config is nil")
	}

	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	var data []byte
	if isTOML(path) {
		var buf bytes.Buffer
		if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
			return fmt.Errorf("config: encode toml: %w", err)
		}
		data = buf.Bytes()
	} else {
		var err error
		data, err = yaml.Marshal(cfg)
		if err != nil {
			return fmt.Errorf("config: encode yaml: %w", err)
		}
	}

	tmp, err := os.CreateTemp(dir, ".calview-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}

// Save is a convenience wrapper around the package-level Save.
func (c *Config) Save(path string) error {
	return Save(path, c)
}
