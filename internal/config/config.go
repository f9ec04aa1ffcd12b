package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds the configuration settings for the directory service.
//
// Fields:
// - Env: The current environment (local, development, production).
// - HTTPPort: The port of the public directory API.
// - HealthPort: The port of the monitoring server (/healthz, /metrics).
// - Provider: Which geocoding provider to use and how to reach it.
// - Workers: The number of concurrent backfill workers.
// - Interval: The duration between backfill polls.
// - RegionQualifier: Suffix appended to every location query.
// - GeocodePrecision: Decimal places kept from a geocoding result.
// - QuantizeDeviceLocation: Whether device positions are coarsened like geocoded ones.
// - CORSOrigins: Origins allowed to call the API from a browser.
// - Cache: Geocode cache backend.
// - NATSURL: NATS server for registration events; empty disables publishing.
// - Database: Configuration settings for the PostgreSQL database.
type Config struct {
	Env                    string         `yaml:"env"`
	HTTPPort               int            `yaml:"http_port"`
	HealthPort             int            `yaml:"health_port"`
	Provider               ProviderConfig `yaml:"provider"`
	Workers                int            `yaml:"workers"`
	Interval               time.Duration  `yaml:"interval"`
	RegionQualifier        string         `yaml:"region_qualifier"`
	GeocodePrecision       int            `yaml:"geocode_precision"`
	QuantizeDeviceLocation bool           `yaml:"quantize_device_location"`
	CORSOrigins            []string       `yaml:"cors_origins"`
	Cache                  CacheConfig    `yaml:"cache"`
	NATSURL                string         `yaml:"nats_url"`
	Database               PostgresConfig `yaml:"postgres"`
}

// ProviderConfig selects and configures the geocoding provider.
type ProviderConfig struct {
	Type      string `yaml:"type"`       // google or nominatim
	APIKey    string `yaml:"api_key"`    // Required for Google.
	URL       string `yaml:"url"`        // Nominatim base URL; empty selects the public instance.
	UserAgent string `yaml:"user_agent"` // Nominatim requires an identifying User-Agent.
	RateLimit int    `yaml:"rate_limit"` // Requests per second.
}

// CacheConfig selects the geocode cache backend.
type CacheConfig struct {
	Backend    string        `yaml:"backend"` // memory, valkey or none
	TTL        time.Duration `yaml:"ttl"`
	ValkeyAddr string        `yaml:"valkey_addr"`
}

// PostgresConfig struct holds the configuration details for connecting to a PostgreSQL database.
type PostgresConfig struct {
	Host     string `yaml:"host"`     // Host is the database server address.
	Port     string `yaml:"port"`     // Port is the database server port.
	User     string `yaml:"user"`     // User is the database user.
	Password string `yaml:"password"` // Password is the database user's password.
	Name     string `yaml:"db_name"`  // Name is the name of the database.
}

var envBindings = map[string]string{
	"env":                      "LOCUS_ENV",
	"http_port":                "LOCUS_HTTP_PORT",
	"health_port":              "LOCUS_HEALTH_PORT",
	"provider.type":            "LOCUS_PROVIDER_TYPE",
	"provider.api_key":         "LOCUS_PROVIDER_KEY",
	"provider.url":             "LOCUS_PROVIDER_URL",
	"provider.user_agent":      "LOCUS_USER_AGENT",
	"provider.rate_limit":      "LOCUS_RATE_LIMIT",
	"workers":                  "LOCUS_WORKERS",
	"interval":                 "LOCUS_INTERVAL",
	"region_qualifier":         "LOCUS_REGION_QUALIFIER",
	"geocode_precision":        "LOCUS_GEOCODE_PRECISION",
	"quantize_device_location": "LOCUS_QUANTIZE_DEVICE_LOCATION",
	"cors_origins":             "LOCUS_CORS_ORIGINS",
	"cache.backend":            "CACHE_BACKEND",
	"cache.ttl":                "CACHE_TTL",
	"cache.valkey_addr":        "VALKEY_ADDR",
	"nats_url":                 "NATS_URL",
	"postgres.host":            "DB_HOST",
	"postgres.port":            "DB_PORT",
	"postgres.user":            "DB_USERNAME",
	"postgres.password":        "DB_PASSWORD",
	"postgres.db_name":         "DB_NAME",
}

// MustLoad reads the configuration from the environment (and a .env file when present),
// optionally layered over the YAML file named by LOCUS_CONFIG_FILE. It panics on invalid values.
func MustLoad() *Config {
	_ = godotenv.Load()

	v := viper.New()
	v.SetDefault("env", "production")
	v.SetDefault("http_port", "8000")
	v.SetDefault("health_port", "8080")
	v.SetDefault("provider.type", "nominatim")
	v.SetDefault("provider.rate_limit", "1")
	v.SetDefault("workers", "2")
	v.SetDefault("interval", "10m")
	v.SetDefault("region_qualifier", ", Indiana, USA")
	v.SetDefault("geocode_precision", "3")
	v.SetDefault("quantize_device_location", "true")
	v.SetDefault("cors_origins", "*")
	v.SetDefault("cache.backend", "memory")
	v.SetDefault("cache.ttl", "24h")
	v.SetDefault("postgres.port", "5432")

	for key, env := range envBindings {
		_ = v.BindEnv(key, env)
	}

	if file := os.Getenv("LOCUS_CONFIG_FILE"); file != "" {
		v.SetConfigFile(file)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			panic("failed to read configuration file: " + err.Error())
		}
	}

	cfg := &Config{
		Env:              v.GetString("env"),
		HTTPPort:         mustInt(v, "http_port", "failed to parse port for directory API from configuration"),
		HealthPort:       mustInt(v, "health_port", "failed to parse port for monitoring server from configuration"),
		Workers:          mustInt(v, "workers", "failed to parse workers from configuration, must be an integer types"),
		Interval:         mustDuration(v, "interval", "failed to parse interval from configuration"),
		RegionQualifier:  v.GetString("region_qualifier"),
		GeocodePrecision: mustInt(v, "geocode_precision", "failed to parse geocode precision from configuration"),
		CORSOrigins:      stringList(v, "cors_origins"),
		NATSURL:          v.GetString("nats_url"),
		Provider: ProviderConfig{
			Type:      v.GetString("provider.type"),
			APIKey:    v.GetString("provider.api_key"),
			URL:       v.GetString("provider.url"),
			UserAgent: v.GetString("provider.user_agent"),
			RateLimit: mustInt(v, "provider.rate_limit", "failed to parse rate limit from configuration"),
		},
		Cache: CacheConfig{
			Backend:    strings.ToLower(v.GetString("cache.backend")),
			TTL:        mustDuration(v, "cache.ttl", "failed to parse cache TTL from configuration"),
			ValkeyAddr: v.GetString("cache.valkey_addr"),
		},
		Database: PostgresConfig{
			Host:     v.GetString("postgres.host"),
			Port:     v.GetString("postgres.port"),
			User:     v.GetString("postgres.user"),
			Password: v.GetString("postgres.password"),
			Name:     v.GetString("postgres.db_name"),
		},
	}

	quantize, err := strconv.ParseBool(v.GetString("quantize_device_location"))
	if err != nil {
		panic("failed to parse device location quantization flag from configuration")
	}
	cfg.QuantizeDeviceLocation = quantize

	if cfg.GeocodePrecision < 1 || cfg.GeocodePrecision > 6 {
		panic("geocode precision must be between 1 and 6 decimal places")
	}

	switch cfg.Cache.Backend {
	case "memory", "none":
	case "valkey":
		if cfg.Cache.ValkeyAddr == "" {
			panic("valkey cache backend requires VALKEY_ADDR")
		}
	default:
		panic("unsupported cache backend: " + cfg.Cache.Backend)
	}

	return cfg
}

func mustInt(v *viper.Viper, key, msg string) int {
	value, err := strconv.Atoi(strings.TrimSpace(v.GetString(key)))
	if err != nil {
		panic(msg)
	}

	return value
}

func mustDuration(v *viper.Viper, key, msg string) time.Duration {
	value, err := time.ParseDuration(strings.TrimSpace(v.GetString(key)))
	if err != nil {
		panic(msg)
	}

	return value
}

// stringList accepts a YAML sequence or a comma separated string.
func stringList(v *viper.Viper, key string) []string {
	raw := v.GetString(key)
	if seq, ok := v.Get(key).([]any); ok {
		parts := make([]string, 0, len(seq))
		for _, item := range seq {
			parts = append(parts, fmt.Sprint(item))
		}
		raw = strings.Join(parts, ",")
	}

	var items []string
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}

	return items
}
