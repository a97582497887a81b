// Package config loads and validates crawler configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// DefaultUserAgent mimics a desktop browser; job boards reject obvious bots.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 " +
	"(KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"

// Config captures all service configuration knobs loaded via Viper.
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Crawler CrawlerConfig `mapstructure:"crawler"`
	HTTP    HTTPConfig    `mapstructure:"http"`
	Geo     GeoConfig     `mapstructure:"geo"`
	Enrich  EnrichConfig  `mapstructure:"enrich"`
	Output  OutputConfig  `mapstructure:"output"`
	DB      DBConfig      `mapstructure:"db"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// ServerConfig controls HTTP server behavior.
type ServerConfig struct {
	Port              int `mapstructure:"port"`
	RunTimeoutSeconds int `mapstructure:"run_timeout_seconds"`
}

// CrawlerConfig governs fan-out and politeness of listing fetches.
type CrawlerConfig struct {
	Concurrency   int     `mapstructure:"concurrency"`
	PerHostMax    int     `mapstructure:"per_host_max"`
	PerHostRPS    float64 `mapstructure:"per_host_rps"`
	UserAgent     string  `mapstructure:"user_agent"`
	RespectRobots bool    `mapstructure:"respect_robots"`
}

// HTTPConfig configures the shared HTTP client.
type HTTPConfig struct {
	TimeoutSeconds int `mapstructure:"timeout_seconds"`
}

// GeoConfig configures location resolution.
type GeoConfig struct {
	NominatimURL     string `mapstructure:"nominatim_url"`
	GeoIDCSV         string `mapstructure:"geoid_csv"`
	MaxAttempts      int    `mapstructure:"max_attempts"`
	BackoffInitialMs int    `mapstructure:"backoff_initial_ms"`
	BackoffMaxMs     int    `mapstructure:"backoff_max_ms"`
}

// EnrichConfig configures the company enrichment service.
type EnrichConfig struct {
	BaseURL      string `mapstructure:"base_url"`
	SessionToken string `mapstructure:"session_token"`
	MaxRetries   int    `mapstructure:"max_retries"`
	Concurrency  int    `mapstructure:"concurrency"`
}

// OutputConfig sets where the ranked result file is handed off.
type OutputConfig struct {
	Dir       string `mapstructure:"dir"`
	GCSBucket string `mapstructure:"gcs_bucket"`
	Prefix    string `mapstructure:"prefix"`
}

// DBConfig controls access to the optional record store.
type DBConfig struct {
	DSN      string `mapstructure:"dsn"`
	Table    string `mapstructure:"table"`
	MaxConns int32  `mapstructure:"max_conns"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool   `mapstructure:"development"`
	Level       string `mapstructure:"level"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("JOBRADAR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.run_timeout_seconds", 600)
	v.SetDefault("crawler.concurrency", 8)
	v.SetDefault("crawler.per_host_max", 4)
	v.SetDefault("crawler.per_host_rps", 2.0)
	v.SetDefault("crawler.user_agent", DefaultUserAgent)
	v.SetDefault("crawler.respect_robots", false)
	v.SetDefault("http.timeout_seconds", 20)
	v.SetDefault("geo.nominatim_url", "https://nominatim.openstreetmap.org/search")
	v.SetDefault("geo.geoid_csv", "data/processed/geoId.csv")
	v.SetDefault("geo.max_attempts", 3)
	v.SetDefault("geo.backoff_initial_ms", 500)
	v.SetDefault("geo.backoff_max_ms", 4000)
	v.SetDefault("enrich.base_url", "https://www.linkedin.com/company")
	v.SetDefault("enrich.session_token", "")
	v.SetDefault("enrich.max_retries", 2)
	v.SetDefault("enrich.concurrency", 4)
	v.SetDefault("output.dir", "data")
	v.SetDefault("output.gcs_bucket", "")
	v.SetDefault("output.prefix", "runs")
	v.SetDefault("db.dsn", "")
	v.SetDefault("db.table", "jobs")
	v.SetDefault("db.max_conns", 4)
	v.SetDefault("logging.development", true)
	v.SetDefault("logging.level", "info")
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be > 0")
	}
	if c.Server.RunTimeoutSeconds <= 0 {
		return fmt.Errorf("server.run_timeout_seconds must be > 0")
	}
	if c.Crawler.Concurrency <= 0 {
		return fmt.Errorf("crawler.concurrency must be > 0")
	}
	if c.Crawler.PerHostMax <= 0 {
		return fmt.Errorf("crawler.per_host_max must be > 0")
	}
	if c.Crawler.PerHostRPS < 0 {
		return fmt.Errorf("crawler.per_host_rps must be >= 0")
	}
	if strings.TrimSpace(c.Crawler.UserAgent) == "" {
		return fmt.Errorf("crawler.user_agent must be set")
	}
	if c.HTTP.TimeoutSeconds <= 0 {
		return fmt.Errorf("http.timeout_seconds must be > 0")
	}
	if c.Geo.NominatimURL == "" {
		return fmt.Errorf("geo.nominatim_url must be set")
	}
	if c.Geo.MaxAttempts <= 0 || c.Geo.MaxAttempts > 5 {
		return fmt.Errorf("geo.max_attempts must be between 1 and 5")
	}
	if c.Enrich.MaxRetries < 0 || c.Enrich.MaxRetries > 2 {
		return fmt.Errorf("enrich.max_retries must be between 0 and 2")
	}
	if c.Enrich.Concurrency <= 0 {
		return fmt.Errorf("enrich.concurrency must be > 0")
	}
	return nil
}

// RequestTimeout converts the HTTP timeout into a duration.
func (c Config) RequestTimeout() time.Duration {
	return time.Duration(c.HTTP.TimeoutSeconds) * time.Second
}

// RunTimeout bounds one search started over HTTP.
func (c Config) RunTimeout() time.Duration {
	return time.Duration(c.Server.RunTimeoutSeconds) * time.Second
}

// GeoBackoff returns the initial and maximum geocoding backoff.
func (c Config) GeoBackoff() (time.Duration, time.Duration) {
	return time.Duration(c.Geo.BackoffInitialMs) * time.Millisecond,
		time.Duration(c.Geo.BackoffMaxMs) * time.Millisecond
}
