package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type RuntimeConfig struct {
	Addr          string
	Region        string
	AssetsBaseURL string
	DataDir       string
	Dev           bool
	MarketDSN     string

	Headless         bool
	CdpURL           string
	ChromeBinary     string
	ChromeExtraFlags string
	NoAnimations     bool
	ActionTimeout    time.Duration
	NavigateTimeout  time.Duration
	ShutdownTimeout  time.Duration
	PollDelay        time.Duration
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envBoolOr(key string, fallback bool) bool {
	v, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}

// envDurationOr accepts Go durations ("1500ms") or plain seconds ("15").
func envDurationOr(key string, fallback time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	if d, err := time.ParseDuration(v); err == nil && d > 0 {
		return d
	}
	if n, err := strconv.Atoi(v); err == nil && n > 0 {
		return time.Duration(n) * time.Second
	}
	return fallback
}

// EventDSN is the event store location. A bare path is accepted as well as
// the "sqlite:" form used in config files.
func (c *RuntimeConfig) EventDSN() string {
	if c.MarketDSN != "" {
		return c.MarketDSN
	}
	return "sqlite:" + filepath.Join(c.DataDir, "market_event.db")
}

// QueryDBPath is the read model database, always local to DataDir.
func (c *RuntimeConfig) QueryDBPath() string {
	return filepath.Join(c.DataDir, "market_query.db")
}

type MarketFileConfig struct {
	DSN string `yaml:"dsn"`
}

type FileConfig struct {
	Addr          string           `yaml:"addr"`
	Region        string           `yaml:"region"`
	AssetsBaseURL string           `yaml:"assets_base_url"`
	DataDir       string           `yaml:"data_dir"`
	Dev           *bool            `yaml:"dev,omitempty"`
	Market        MarketFileConfig `yaml:"market"`
}

// Load builds the configuration from the environment only.
func Load() *RuntimeConfig {
	return &RuntimeConfig{
		Addr:             envOr("MARKET_ADDR", "127.0.0.1:3000"),
		Region:           envOr("MARKET_REGION", "eu-west-3"),
		AssetsBaseURL:    envOr("MARKET_ASSETS_BASE_URL", "/assets"),
		DataDir:          envOr("MARKET_DATA_DIR", "data"),
		Dev:              envBoolOr("MARKET_DEV", false),
		MarketDSN:        os.Getenv("MARKET_MARKET_DSN"),
		Headless:         envBoolOr("MARKET_HEADLESS", true),
		CdpURL:           os.Getenv("CDP_URL"),
		ChromeBinary:     os.Getenv("CHROME_BINARY"),
		ChromeExtraFlags: os.Getenv("CHROME_FLAGS"),
		NoAnimations:     envBoolOr("MARKET_NO_ANIMATIONS", true),
		ActionTimeout:    envDurationOr("MARKET_ACTION_TIMEOUT", 5*time.Second),
		NavigateTimeout:  envDurationOr("MARKET_NAVIGATE_TIMEOUT", 30*time.Second),
		ShutdownTimeout:  10 * time.Second,
		PollDelay:        envDurationOr("MARKET_POLL_DELAY", 300*time.Millisecond),
	}
}

// LoadFile reads a YAML config file on top of the environment defaults.
// Environment variables win over file values.
func LoadFile(path string) (*RuntimeConfig, error) {
	cfg := Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var fc FileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	if fc.Addr != "" && os.Getenv("MARKET_ADDR") == "" {
		cfg.Addr = fc.Addr
	}
	if fc.Region != "" && os.Getenv("MARKET_REGION") == "" {
		cfg.Region = fc.Region
	}
	if fc.AssetsBaseURL != "" && os.Getenv("MARKET_ASSETS_BASE_URL") == "" {
		cfg.AssetsBaseURL = fc.AssetsBaseURL
	}
	if fc.DataDir != "" && os.Getenv("MARKET_DATA_DIR") == "" {
		cfg.DataDir = fc.DataDir
	}
	if fc.Dev != nil && os.Getenv("MARKET_DEV") == "" {
		cfg.Dev = *fc.Dev
	}
	if fc.Market.DSN != "" && os.Getenv("MARKET_MARKET_DSN") == "" {
		cfg.MarketDSN = fc.Market.DSN
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *RuntimeConfig) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("addr is required")
	}
	if c.Region == "" {
		return fmt.Errorf("region is required")
	}
	if c.DataDir == "" {
		return fmt.Errorf("data_dir is required")
	}
	return nil
}

func DefaultFileConfig() FileConfig {
	dev := false
	return FileConfig{
		Addr:          "127.0.0.1:3000",
		Region:        "eu-west-3",
		AssetsBaseURL: "/assets",
		DataDir:       "data",
		Dev:           &dev,
		Market:        MarketFileConfig{DSN: "sqlite:data/market_event.db"},
	}
}

// MarshalDefault renders DefaultFileConfig as YAML, for `market config init`.
func MarshalDefault() ([]byte, error) {
	return yaml.Marshal(DefaultFileConfig())
}
