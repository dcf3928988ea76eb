package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"pubstandards/internal/clock"
)

// SeriesConfig describes the recurring meetup itself.
type SeriesConfig struct {
	// Name prefixes generated titles, e.g. "Pub Standards CLXXIV".
	Name string `yaml:"name" json:"name"`
	// Epoch is the date of the first meetup (YYYY-MM-DD).
	Epoch string `yaml:"epoch" json:"epoch"`
	// Rule is the RRULE body the series follows.
	Rule string `yaml:"rule" json:"rule"`
}

// VenueConfig holds the defaults every event starts from.
type VenueConfig struct {
	Location    string      `yaml:"location" json:"location"`
	Address     string      `yaml:"address" json:"address"`
	Starts      clock.Clock `yaml:"starts" json:"starts"`
	Ends        clock.Clock `yaml:"ends" json:"ends"`
	Description string      `yaml:"description" json:"description"`
}

// HiatusConfig is a window with no generated events. An empty End means
// the hiatus is still ongoing.
type HiatusConfig struct {
	Start time.Time  `yaml:"start" json:"start"`
	End   *time.Time `yaml:"end,omitempty" json:"end,omitempty"`
	Note  string     `yaml:"note,omitempty" json:"note,omitempty"`
}

// ExportConfig controls the static calendar export.
type ExportConfig struct {
	// Dir receives calendar.ics and events.json.
	Dir string `yaml:"dir" json:"dir"`
	// Refresh is a cron-style schedule string (e.g. "*/15 * * * *").
	Refresh string `yaml:"refresh" json:"refresh"`
	// HorizonDays is how many days ahead the export and API cover.
	HorizonDays int `yaml:"horizon_days" json:"horizon_days"`
	// BackfillDays is how many past days the export and API include.
	BackfillDays int `yaml:"backfill_days" json:"backfill_days"`
}

// Config is the top-level application configuration. It is loaded once at
// startup and treated as read-only afterwards.
type Config struct {
	// Listen is the HTTP listen address for the API.
	Listen string `yaml:"listen" json:"listen"`

	// BaseURL is the public site root used to build event links.
	BaseURL string `yaml:"base_url" json:"base_url"`

	// Timezone is the IANA timezone events are held in.
	Timezone string `yaml:"timezone" json:"timezone"`

	// DataFile is the JSON override document, keyed by YYYY-MM-DD.
	DataFile string `yaml:"data_file" json:"data_file"`

	// DataURL, when set, is an upstream copy of the override document that
	// is mirrored into DataFile on the DataRefresh schedule.
	DataURL     string `yaml:"data_url,omitempty" json:"data_url,omitempty"`
	DataRefresh string `yaml:"data_refresh" json:"data_refresh"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level" json:"log_level"`

	Series   SeriesConfig   `yaml:"series" json:"series"`
	Venue    VenueConfig    `yaml:"venue" json:"venue"`
	Hiatuses []HiatusConfig `yaml:"hiatuses" json:"hiatuses"`
	Export   ExportConfig   `yaml:"export" json:"export"`
}

const (
	defaultListen      = "127.0.0.1:8080"
	defaultBaseURL     = "https://pubstandards.com"
	defaultTimezone    = "Europe/London"
	defaultDataFile    = "ps_data.json"
	defaultLogLevel    = "info"
	defaultSeriesName  = "Pub Standards"
	defaultEpoch       = "2005-10-13"
	defaultRule        = "FREQ=MONTHLY;BYDAY=TH;BYMONTHDAY=10,11,12,13,14,15,16"
	defaultLocation    = "The Bricklayers Arms"
	defaultAddress     = "31 Gresse Street, London W1T 1QS"
	defaultDescription = "We'll meet in the upstairs room as usual."
	defaultExportDir   = "./public"
	defaultRefresh     = "*/15 * * * *"
	defaultDataRefresh = "*/10 * * * *"
	defaultHorizonDays = 365
)

var (
	defaultStarts = clock.New(18, 0)
	defaultEnds   = clock.New(23, 30)
)

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		Listen:      defaultListen,
		BaseURL:     defaultBaseURL,
		Timezone:    defaultTimezone,
		DataFile:    defaultDataFile,
		DataRefresh: defaultDataRefresh,
		LogLevel:    defaultLogLevel,
		Series: SeriesConfig{
			Name:  defaultSeriesName,
			Epoch: defaultEpoch,
			Rule:  defaultRule,
		},
		Venue: VenueConfig{
			Location:    defaultLocation,
			Address:     defaultAddress,
			Starts:      defaultStarts,
			Ends:        defaultEnds,
			Description: defaultDescription,
		},
		Hiatuses: []HiatusConfig{
			{
				Start: time.Date(2020, time.February, 14, 0, 0, 0, 0, time.UTC),
				Note:  "COVID-19. The March 2020 event didn't happen.",
			},
		},
		Export: ExportConfig{
			Dir:          defaultExportDir,
			Refresh:      defaultRefresh,
			HorizonDays:  defaultHorizonDays,
			BackfillDays: 0,
		},
	}
}

// Normalize fills in missing/zero values with defaults so that partially
// filled configs still behave correctly. Hiatuses are left as written: an
// empty list legitimately means "no hiatus".
func (c *Config) Normalize() {
	if c.Listen == "" {
		c.Listen = defaultListen
	}
	if c.BaseURL == "" {
		c.BaseURL = defaultBaseURL
	}
	if c.Timezone == "" {
		c.Timezone = defaultTimezone
	}
	if c.DataFile == "" {
		c.DataFile = defaultDataFile
	}
	if c.DataRefresh == "" {
		c.DataRefresh = defaultDataRefresh
	}
	if c.LogLevel == "" {
		c.LogLevel = defaultLogLevel
	}

	if c.Series.Name == "" {
		c.Series.Name = defaultSeriesName
	}
	if c.Series.Epoch == "" {
		c.Series.Epoch = defaultEpoch
	}
	if c.Series.Rule == "" {
		c.Series.Rule = defaultRule
	}

	if c.Venue.Location == "" {
		c.Venue.Location = defaultLocation
	}
	if c.Venue.Address == "" {
		c.Venue.Address = defaultAddress
	}
	// 00:00 is not a plausible meetup time, so a zero clock means unset.
	if c.Venue.Starts == (clock.Clock{}) {
		c.Venue.Starts = defaultStarts
	}
	if c.Venue.Ends == (clock.Clock{}) {
		c.Venue.Ends = defaultEnds
	}
	if c.Venue.Description == "" {
		c.Venue.Description = defaultDescription
	}

	if c.Hiatuses == nil {
		c.Hiatuses = []HiatusConfig{}
	}

	if c.Export.Dir == "" {
		c.Export.Dir = defaultExportDir
	}
	if c.Export.Refresh == "" {
		c.Export.Refresh = defaultRefresh
	}
	if c.Export.HorizonDays <= 0 {
		c.Export.HorizonDays = defaultHorizonDays
	}
	if c.Export.BackfillDays < 0 {
		c.Export.BackfillDays = 0
	}
}

// DataPath resolves DataFile relative to the directory of the config file
// at configPath, unless it is already absolute.
func (c *Config) DataPath(configPath string) string {
	if filepath.IsAbs(c.DataFile) || configPath == "" {
		return c.DataFile
	}
	return filepath.Join(filepath.Dir(configPath), c.DataFile)
}

// Load loads configuration from the given YAML path.
//
// Behavior:
//   - If the file does not exist:
//   - create parent directory if needed
//   - write a default config with 0600 perms
//   - return the default config
//   - If the file exists:
//   - read YAML and unmarshal into Config
//   - normalize defaults
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			// First run: create default config file.
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				// Even if save fails, return cfg with error so caller can decide.
				return cfg, err
			}
			return cfg, nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.Normalize()

	return &cfg, nil
}

// Save writes the given configuration to the specified path.
//
// Implementation details:
//   - Ensures parent directory exists (0700).
//   - Marshals cfg to YAML.
//   - Writes atomically via a temp file + rename.
//   - Ensures final file permissions are 0600.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return WriteFileAtomic(path, data, 0o600)
}

// WriteFileAtomic writes data to a temp file next to path and renames it
// into place, so readers never observe a partial file.
func WriteFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".pubstandards-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	// Ensure we clean up temp file on error.
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}

	// Flush and close before chmod/rename.
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	if err := os.Chmod(tmpName, perm); err != nil {
		return err
	}

	return os.Rename(tmpName, path)
}
