package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"dario.cat/mergo"
	"gopkg.in/yaml.v3"

	"coursesniper/internal/extract"
	"coursesniper/internal/locate"
	"coursesniper/internal/schedule"
	"coursesniper/internal/selectors"
	"coursesniper/internal/timesync"
)

const (
	MinSnipers = 1
	MaxSnipers = 19
)

type Config struct {
	PortalURL string `yaml:"portal_url"`

	Headless           bool   `yaml:"headless"`
	Snipers            int    `yaml:"snipers"`
	BrowserProfilePath string `yaml:"browser_profile_path"`
	BrowserBin         string `yaml:"browser_bin"`

	LocateTimeoutSeconds int `yaml:"locate_timeout_seconds"`
	LocateIntervalMs     int `yaml:"locate_interval_ms"`
	FirePollIntervalMs   int `yaml:"fire_poll_interval_ms"`
	ExtractConcurrency   int `yaml:"extract_concurrency"`
	ResultsWaitSeconds   int `yaml:"results_wait_seconds"`

	// SubmitControl is "validate" or "enroll".
	SubmitControl string `yaml:"submit_control"`
	// RegistrationTime like "9:30 AM" skips the time prompt.
	RegistrationTime string `yaml:"registration_time"`

	TimeSync        bool     `yaml:"time_sync"`
	TimeSyncServers []string `yaml:"time_sync_servers"`

	DebugDir        string `yaml:"debug_dir"`
	DryRun          bool   `yaml:"dry_run"`
	DebugMode       bool   `yaml:"debug_mode"`
	KeepBrowserOpen bool   `yaml:"keep_browser_open"`

	// Selectors replaces catalog patterns by region key, e.g. course_row.
	Selectors map[string]string `yaml:"selectors,omitempty"`
}

// Flags are the command-line values that take precedence over the file.
// Zero values leave the file's setting alone; Snipers is nil when the flag
// was not given.
type Flags struct {
	Detached bool
	Snipers  *int
	At       string
	DryRun   bool
	Debug    bool
}

func DefaultConfig() *Config {
	userDataDir := getUserDataDir()

	return &Config{
		PortalURL:            selectors.Default().PageURL,
		Headless:             false,
		Snipers:              1,
		BrowserProfilePath:   filepath.Join(userDataDir, "browser-profile"),
		LocateTimeoutSeconds: int(locate.DefaultTimeout / time.Second),
		LocateIntervalMs:     0,
		FirePollIntervalMs:   int(schedule.DefaultPollInterval / time.Millisecond),
		ExtractConcurrency:   extract.DefaultConcurrency,
		ResultsWaitSeconds:   10,
		SubmitControl:        selectors.SubmitValidate,
		TimeSync:             false,
		TimeSyncServers:      timesync.DefaultServers,
		DebugDir:             ".",
		KeepBrowserOpen:      false,
	}
}

func LoadConfig(path string) (*Config, error) {
	config := DefaultConfig()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := config.Save(path); err != nil {
			return nil, err
		}
		return config, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	if config.BrowserProfilePath != "" {
		if err := os.MkdirAll(config.BrowserProfilePath, 0755); err != nil {
			return nil, err
		}
	}

	return config, nil
}

func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// ApplyFlags merges the set flags over the file config.
func (c *Config) ApplyFlags(f Flags) error {
	override := Config{
		Headless:         f.Detached,
		RegistrationTime: f.At,
		DryRun:           f.DryRun,
		DebugMode:        f.Debug,
	}
	if err := mergo.Merge(c, override, mergo.WithOverride); err != nil {
		return err
	}
	// An explicit --snipers 0 must reach Validate.
	if f.Snipers != nil {
		c.Snipers = *f.Snipers
	}
	return nil
}

// SelectorSet builds the catalog: defaults, then portal_url, then the
// selectors overrides.
func (c *Config) SelectorSet() (selectors.Set, error) {
	set := selectors.Default()
	if c.PortalURL != "" {
		set.PageURL = c.PortalURL
	}
	return set.Override(c.Selectors)
}

// PresetTime parses RegistrationTime, or returns nil when it is unset.
func (c *Config) PresetTime() (*schedule.RegistrationTime, error) {
	if c.RegistrationTime == "" {
		return nil, nil
	}
	t, err := schedule.ParseRegistrationTime(c.RegistrationTime)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (c *Config) Validate() error {
	if c.Snipers < MinSnipers || c.Snipers > MaxSnipers {
		return fmt.Errorf("snipers must be between %d and %d, got %d", MinSnipers, MaxSnipers, c.Snipers)
	}
	if c.LocateTimeoutSeconds <= 0 {
		return fmt.Errorf("locate_timeout_seconds must be positive, got %d", c.LocateTimeoutSeconds)
	}
	if c.LocateIntervalMs < 0 || c.FirePollIntervalMs < 0 || c.ResultsWaitSeconds < 0 {
		return fmt.Errorf("intervals and waits cannot be negative")
	}
	if _, err := selectors.Default().Submit(c.SubmitControl); err != nil {
		return err
	}
	if _, err := c.PresetTime(); err != nil {
		return err
	}
	set, err := c.SelectorSet()
	if err != nil {
		return err
	}
	return set.Validate()
}

func (c *Config) LocateTimeout() time.Duration {
	return time.Duration(c.LocateTimeoutSeconds) * time.Second
}

func (c *Config) LocateInterval() time.Duration {
	return time.Duration(c.LocateIntervalMs) * time.Millisecond
}

func (c *Config) FirePollInterval() time.Duration {
	return time.Duration(c.FirePollIntervalMs) * time.Millisecond
}

func (c *Config) ResultsWait() time.Duration {
	return time.Duration(c.ResultsWaitSeconds) * time.Second
}
