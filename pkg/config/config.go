package config

import (
	"fmt"
	"net/url"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// DefaultLogLevel is the default logging level.
	DefaultLogLevel = "info"

	// DefaultOutputDir is the default directory for run results.
	DefaultOutputDir = "./results"

	// DefaultPollInterval is the default Slack poll interval.
	DefaultPollInterval = 30 * time.Second

	// DefaultConcurrency is the default number of concurrent crawl sessions.
	DefaultConcurrency = 3
)

// Config is the root configuration for qasync.
type Config struct {
	Global  GlobalConfig  `yaml:"global"`
	Project ProjectConfig `yaml:"project"`
	Run     RunConfig     `yaml:"run"`
	Slack   SlackConfig   `yaml:"slack"`
	API     APIConfig     `yaml:"api"`
}

// GlobalConfig contains global application settings.
type GlobalConfig struct {
	LogLevel string `yaml:"log_level"`
}

// ProjectConfig identifies the project under test.
type ProjectConfig struct {
	Name     string `yaml:"name"`
	SiteURL  string `yaml:"site_url"`
	Scenario string `yaml:"scenario,omitempty"`
	AuthSite string `yaml:"auth_site,omitempty"`
}

// RunConfig contains test execution settings.
type RunConfig struct {
	OutputDir    string `yaml:"output_dir"`
	Headless     *bool  `yaml:"headless,omitempty"`
	ResultsOwner string `yaml:"results_owner,omitempty"`
}

// SlackConfig contains feedback watcher settings.
type SlackConfig struct {
	Token        string `yaml:"token,omitempty"`
	Channel      string `yaml:"channel,omitempty"`
	ThreadTS     string `yaml:"thread_ts,omitempty"`
	PollInterval string `yaml:"poll_interval,omitempty"`
}

// New returns a configuration with defaults applied, for invocations
// that configure everything through flags.
func New() *Config {
	cfg := &Config{}
	cfg.applyDefaults()

	return cfg
}

// Load reads and parses a configuration file from the given path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	cfg.applyDefaults()

	return &cfg, nil
}

// applyDefaults sets default values for unspecified configuration options.
func (c *Config) applyDefaults() {
	if c.Global.LogLevel == "" {
		c.Global.LogLevel = DefaultLogLevel
	}

	if c.Run.OutputDir == "" {
		c.Run.OutputDir = DefaultOutputDir
	}

	if c.Run.Headless == nil {
		headless := true
		c.Run.Headless = &headless
	}

	if c.Slack.PollInterval == "" {
		c.Slack.PollInterval = DefaultPollInterval.String()
	}

	c.API.applyDefaults()
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Project.Name == "" {
		return fmt.Errorf("project name is required")
	}

	if c.Project.SiteURL == "" {
		return fmt.Errorf("project site_url is required")
	}

	u, err := url.Parse(c.Project.SiteURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("project site_url %q is not a valid URL", c.Project.SiteURL)
	}

	if c.Slack.PollInterval != "" {
		if _, err := time.ParseDuration(c.Slack.PollInterval); err != nil {
			return fmt.Errorf("slack poll_interval %q is not a valid duration", c.Slack.PollInterval)
		}
	}

	return c.API.Validate()
}

// SlackPollInterval returns the parsed poll interval, falling back to the
// default when unset or invalid.
func (c *Config) SlackPollInterval() time.Duration {
	d, err := time.ParseDuration(c.Slack.PollInterval)
	if err != nil || d <= 0 {
		return DefaultPollInterval
	}

	return d
}
