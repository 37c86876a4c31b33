package config

import (
	"fmt"
	"log"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

var validate = validator.New()

type AppConfig struct {
	AppEnv   string     `validate:"oneof=dev prod"`
	LogLevel slog.Level `validate:"-"`

	// FetchInterval is the fixed delay between polls.
	FetchInterval time.Duration `validate:"min=1s"`
	HTTPTimeout   time.Duration `validate:"min=1s"`
	// FetchMaxRetries is the number of in-call retries; 0 leaves retrying to the next tick.
	FetchMaxRetries int `validate:"gte=0,lte=5"`

	CSVLogPath  string `validate:"required"`
	JSONLogPath string `validate:"required,nefield=CSVLogPath"`

	// City skips the interactive prompt when set.
	City string `validate:"max=100"`

	Geocoder     string `validate:"oneof=openmeteo google"`
	GoogleAPIKey string `validate:"required_if=Geocoder google"`

	// DashboardAddr enables the HTTP dashboard when non-empty.
	DashboardAddr string
}

// fileConfig is the YAML overlay. Zero values leave the environment value in place.
type fileConfig struct {
	AppEnv          string `yaml:"app_env"`
	LogLevel        string `yaml:"log_level"`
	FetchInterval   string `yaml:"fetch_interval"`
	HTTPTimeout     string `yaml:"http_timeout"`
	FetchMaxRetries *int   `yaml:"fetch_max_retries"`
	CSVLog          string `yaml:"csv_log"`
	JSONLog         string `yaml:"json_log"`
	City            string `yaml:"city"`
	Geocoder        string `yaml:"geocoder"`
	GoogleAPIKey    string `yaml:"google_api_key"`
	DashboardAddr   string `yaml:"dashboard_addr"`
}

// Load reads configuration from environment with sensible defaults.
// It does not validate; call Validate once all overrides are applied.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("INFO: No .env file found or error loading it: %v", err)
	}
	cfg := &AppConfig{}

	cfg.AppEnv = getenvDefault("APP_ENV", "dev")

	level, err := ParseLogLevel(getenvDefault("LOG_LEVEL", "info"))
	if err != nil {
		return nil, err
	}
	cfg.LogLevel = level

	cfg.FetchInterval, err = time.ParseDuration(getenvDefault("FETCH_INTERVAL", "30s"))
	if err != nil {
		return nil, fmt.Errorf("invalid FETCH_INTERVAL: %w", err)
	}
	cfg.HTTPTimeout, err = time.ParseDuration(getenvDefault("HTTP_TIMEOUT", "10s"))
	if err != nil {
		return nil, fmt.Errorf("invalid HTTP_TIMEOUT: %w", err)
	}
	cfg.FetchMaxRetries = getenvInt("FETCH_MAX_RETRIES", 0)

	cfg.CSVLogPath = getenvDefault("WEATHER_CSV_LOG", "weather_log.csv")
	cfg.JSONLogPath = getenvDefault("WEATHER_JSON_LOG", "weather_log.json")
	cfg.City = strings.TrimSpace(os.Getenv("WEATHER_CITY"))

	cfg.Geocoder = strings.ToLower(getenvDefault("GEOCODER", "openmeteo"))
	cfg.GoogleAPIKey = os.Getenv("GOOGLE_GEOCODING_API_KEY")
	cfg.DashboardAddr = os.Getenv("DASHBOARD_ADDR")

	if path := os.Getenv("WEATHER_CONFIG_FILE"); path != "" {
		if err := cfg.LoadFile(path); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

// LoadFile overlays values from a YAML file onto cfg.
func (c *AppConfig) LoadFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open config file: %w", err)
	}
	defer f.Close()

	var fc fileConfig
	if err := yaml.NewDecoder(f).Decode(&fc); err != nil {
		return fmt.Errorf("decode config file %s: %w", path, err)
	}

	setString(&c.AppEnv, fc.AppEnv)
	setString(&c.CSVLogPath, fc.CSVLog)
	setString(&c.JSONLogPath, fc.JSONLog)
	setString(&c.City, strings.TrimSpace(fc.City))
	setString(&c.Geocoder, strings.ToLower(fc.Geocoder))
	setString(&c.GoogleAPIKey, fc.GoogleAPIKey)
	setString(&c.DashboardAddr, fc.DashboardAddr)

	if fc.LogLevel != "" {
		if c.LogLevel, err = ParseLogLevel(fc.LogLevel); err != nil {
			return err
		}
	}
	if fc.FetchInterval != "" {
		if c.FetchInterval, err = time.ParseDuration(fc.FetchInterval); err != nil {
			return fmt.Errorf("invalid fetch_interval: %w", err)
		}
	}
	if fc.HTTPTimeout != "" {
		if c.HTTPTimeout, err = time.ParseDuration(fc.HTTPTimeout); err != nil {
			return fmt.Errorf("invalid http_timeout: %w", err)
		}
	}
	if fc.FetchMaxRetries != nil {
		c.FetchMaxRetries = *fc.FetchMaxRetries
	}
	return nil
}

// Validate checks the final configuration.
func (c *AppConfig) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// ParseLogLevel maps a level name to a slog level.
func ParseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("invalid LOG_LEVEL %q (allowed: debug, info, warn, error)", s)
	}
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return def
}
