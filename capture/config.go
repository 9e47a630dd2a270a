package capture

import (
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all domsnap configuration.
type Config struct {
	Listen    string          `yaml:"listen"`
	DataDir   string          `yaml:"data_dir"`
	Browser   BrowserConfig   `yaml:"browser"`
	Capture   CaptureConfig   `yaml:"capture"`
	Retention RetentionConfig `yaml:"retention"`
	Auth      AuthConfig      `yaml:"auth"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Log       LogConfig       `yaml:"log"`
}

// BrowserConfig controls the headless browser pool.
type BrowserConfig struct {
	ControlURL     string        `yaml:"control_url"`
	Headless       *bool         `yaml:"headless"`
	Stealth        bool          `yaml:"stealth"`
	TabTimeout     time.Duration `yaml:"tab_timeout"`
	BlockResources []string      `yaml:"block_resources"`
}

// CaptureConfig controls capture requests.
type CaptureConfig struct {
	DefaultFormats []string `yaml:"default_formats"`
	AllowPrivate   bool     `yaml:"allow_private"`
	MaxBody        int64    `yaml:"max_body"`
	JPEGQuality    int      `yaml:"jpeg_quality"`
}

// RetentionConfig controls automatic pruning of old captures. A zero
// MaxAge disables retention entirely.
type RetentionConfig struct {
	MaxAge        time.Duration `yaml:"max_age"`
	SweepInterval time.Duration `yaml:"sweep_interval"`
}

// AuthConfig controls API authentication. An empty TokenHash leaves the
// API open; otherwise it holds a bcrypt hash of the bearer token.
type AuthConfig struct {
	TokenHash string `yaml:"token_hash"`
}

// RateLimitConfig controls per-IP request limiting.
type RateLimitConfig struct {
	Enabled     bool          `yaml:"enabled"`
	MaxRequests int           `yaml:"max_requests"`
	Window      time.Duration `yaml:"window"`
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level  string `yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `yaml:"format"` // "json" or "text"
}

func (c *Config) defaults() {
	if c.Listen == "" {
		c.Listen = ":8787"
	}
	if c.DataDir == "" {
		c.DataDir = "domsnap-data"
	}
	if c.Browser.TabTimeout <= 0 {
		c.Browser.TabTimeout = 30 * time.Second
	}
	if len(c.Capture.DefaultFormats) == 0 {
		c.Capture.DefaultFormats = []string{"png"}
	}
	if c.Capture.MaxBody <= 0 {
		c.Capture.MaxBody = 1 << 20
	}
	if c.Capture.JPEGQuality <= 0 || c.Capture.JPEGQuality > 100 {
		c.Capture.JPEGQuality = 85
	}
	if c.Retention.MaxAge > 0 && c.Retention.SweepInterval <= 0 {
		c.Retention.SweepInterval = time.Hour
	}
	if c.RateLimit.MaxRequests <= 0 {
		c.RateLimit.MaxRequests = 60
	}
	if c.RateLimit.Window <= 0 {
		c.RateLimit.Window = time.Minute
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "json"
	}
}

// DBPath returns the SQLite database path under the data directory.
func (c *Config) DBPath() string {
	return filepath.Join(c.DataDir, "domsnap.db")
}

// ArtifactDir returns the directory rendered artifacts are written to.
func (c *Config) ArtifactDir() string {
	return filepath.Join(c.DataDir, "artifacts")
}

// LoadConfigFile reads a YAML config file.
func LoadConfigFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
