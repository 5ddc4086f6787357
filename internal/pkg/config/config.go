package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	NATS      NATSConfig      `mapstructure:"nats"`
	Valkey    ValkeyConfig    `mapstructure:"valkey"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
	Log       LogConfig       `mapstructure:"log"`
	Records   RecordsConfig   `mapstructure:"records"`
	Engine    EngineConfig    `mapstructure:"engine"`
}

type ServerConfig struct {
	Port         int `mapstructure:"port"`
	ReadTimeout  int `mapstructure:"read_timeout"`
	WriteTimeout int `mapstructure:"write_timeout"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
	MaxConns int32  `mapstructure:"max_conns"`
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

type NATSConfig struct {
	URL     string `mapstructure:"url"`
	Enabled bool   `mapstructure:"enabled"`
}

type ValkeyConfig struct {
	Addr    string `mapstructure:"addr"`
	Enabled bool   `mapstructure:"enabled"`
}

type TelemetryConfig struct {
	ServiceName string `mapstructure:"service_name"`
	TempoAddr   string `mapstructure:"tempo_addr"`
	Enabled     bool   `mapstructure:"enabled"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// RecordsConfig selects where observation records are loaded from.
type RecordsConfig struct {
	Source string `mapstructure:"source"` // "file" or "postgres"
	Path   string `mapstructure:"path"`
}

// EngineConfig tunes aggregation, culling, and view sessions.
type EngineConfig struct {
	DebounceWindow     time.Duration `mapstructure:"debounce_window"`
	CrowdingThreshold  int           `mapstructure:"crowding_threshold"`
	SmallBandMax       int           `mapstructure:"small_band_max"`
	MediumBandMax      int           `mapstructure:"medium_band_max"`
	FramingPadding     int           `mapstructure:"framing_padding"`
	FocusZoom          int           `mapstructure:"focus_zoom"`
	FocusRadiusMeters  float64       `mapstructure:"focus_radius_m"`
	TooltipMaxMembers  int           `mapstructure:"tooltip_max_members"`
	MaxSessions        int           `mapstructure:"max_sessions"`
	SessionIdleTimeout time.Duration `mapstructure:"session_idle_timeout"`
	CacheTTL           time.Duration `mapstructure:"cache_ttl"`
}

// Load reads configuration from file and environment variables.
func Load(service string) (*Config, error) {
	v := viper.New()

	// Defaults
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 10)
	v.SetDefault("server.write_timeout", 10)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "ipmap")
	v.SetDefault("database.password", "")
	v.SetDefault("database.dbname", "ipmap")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_conns", 10)
	v.SetDefault("nats.url", "nats://localhost:4222")
	v.SetDefault("nats.enabled", false)
	v.SetDefault("valkey.addr", "localhost:6379")
	v.SetDefault("valkey.enabled", false)
	v.SetDefault("telemetry.service_name", service)
	v.SetDefault("telemetry.tempo_addr", "tempo:4317")
	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("records.source", "file")
	v.SetDefault("records.path", "data/observations.json")
	v.SetDefault("engine.debounce_window", 100*time.Millisecond)
	v.SetDefault("engine.crowding_threshold", 10)
	v.SetDefault("engine.small_band_max", 100)
	v.SetDefault("engine.medium_band_max", 1000)
	v.SetDefault("engine.framing_padding", 50)
	v.SetDefault("engine.focus_zoom", 10)
	v.SetDefault("engine.focus_radius_m", 5000.0)
	v.SetDefault("engine.tooltip_max_members", 20)
	v.SetDefault("engine.max_sessions", 1000)
	v.SetDefault("engine.session_idle_timeout", 30*time.Minute)
	v.SetDefault("engine.cache_ttl", 5*time.Minute)

	// Config file (optional)
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")
	_ = v.ReadInConfig() // OK if missing

	// Environment variables: IPMAP_ENGINE_DEBOUNCE_WINDOW → engine.debounce_window
	v.SetEnvPrefix("IPMAP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks that required configuration fields are present and sane.
func (c *Config) Validate() error {
	var errs []string

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("server.port must be 1-65535, got %d", c.Server.Port))
	}
	if c.Server.ReadTimeout <= 0 {
		errs = append(errs, "server.read_timeout must be positive")
	}
	if c.Server.WriteTimeout <= 0 {
		errs = append(errs, "server.write_timeout must be positive")
	}

	switch c.Records.Source {
	case "file":
		if c.Records.Path == "" {
			errs = append(errs, "records.path is required when records.source is file")
		}
	case "postgres":
		if c.Database.Host == "" {
			errs = append(errs, "database.host is required")
		}
		if c.Database.Port <= 0 || c.Database.Port > 65535 {
			errs = append(errs, fmt.Sprintf("database.port must be 1-65535, got %d", c.Database.Port))
		}
		if c.Database.User == "" {
			errs = append(errs, "database.user is required")
		}
		if c.Database.DBName == "" {
			errs = append(errs, "database.dbname is required")
		}
	default:
		errs = append(errs, fmt.Sprintf("records.source must be file or postgres, got %q", c.Records.Source))
	}

	e := c.Engine
	if e.DebounceWindow <= 0 {
		errs = append(errs, "engine.debounce_window must be positive")
	}
	if e.CrowdingThreshold <= 0 {
		errs = append(errs, "engine.crowding_threshold must be positive")
	}
	if e.SmallBandMax < e.CrowdingThreshold {
		errs = append(errs, "engine.small_band_max must be >= engine.crowding_threshold")
	}
	if e.MediumBandMax <= e.SmallBandMax {
		errs = append(errs, "engine.medium_band_max must be greater than engine.small_band_max")
	}
	if e.FramingPadding < 0 {
		errs = append(errs, "engine.framing_padding must not be negative")
	}
	if e.FocusZoom < 0 || e.FocusZoom > 22 {
		errs = append(errs, fmt.Sprintf("engine.focus_zoom must be 0-22, got %d", e.FocusZoom))
	}
	if e.MaxSessions <= 0 {
		errs = append(errs, "engine.max_sessions must be positive")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
