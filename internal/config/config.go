package config

import (
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Source    SourceConfig    `yaml:"source" mapstructure:"source"`
	Offline   OfflineConfig   `yaml:"offline" mapstructure:"offline"`
	Map       MapConfig       `yaml:"map" mapstructure:"map"`
	Directory DirectoryConfig `yaml:"directory" mapstructure:"directory"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// SourceConfig configures retrieval of the published spreadsheet.
type SourceConfig struct {
	URL                 string  `yaml:"url" mapstructure:"url"`
	Format              string  `yaml:"format" mapstructure:"format"` // csv, xlsx, sheets_json
	SheetName           string  `yaml:"sheet_name" mapstructure:"sheet_name"`
	CacheBustParam      string  `yaml:"cache_bust_param" mapstructure:"cache_bust_param"`
	TimeoutSecs         int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	MaxAttempts         int     `yaml:"max_attempts" mapstructure:"max_attempts"`
	RatePerSec          float64 `yaml:"rate_per_sec" mapstructure:"rate_per_sec"`
	UserAgent           string  `yaml:"user_agent" mapstructure:"user_agent"`
	RefreshIntervalSecs int     `yaml:"refresh_interval_secs" mapstructure:"refresh_interval_secs"` // 0 disables
}

// OfflineConfig configures the offline payload cache.
type OfflineConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"` // sqlite, postgres, memory
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	Slot        string `yaml:"slot" mapstructure:"slot"`
}

// MapConfig holds the map camera defaults.
type MapConfig struct {
	DefaultLat  float64 `yaml:"default_lat" mapstructure:"default_lat"`
	DefaultLng  float64 `yaml:"default_lng" mapstructure:"default_lng"`
	DefaultZoom int     `yaml:"default_zoom" mapstructure:"default_zoom"`
	DetailZoom  int     `yaml:"detail_zoom" mapstructure:"detail_zoom"`
	Padding     float64 `yaml:"padding" mapstructure:"padding"`
}

// DirectoryConfig configures listing ordering and header mapping.
type DirectoryConfig struct {
	Locale      string `yaml:"locale" mapstructure:"locale"`
	AliasesFile string `yaml:"aliases_file" mapstructure:"aliases_file"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Port        int      `yaml:"port" mapstructure:"port"`
	CORSOrigins []string `yaml:"cors_origins" mapstructure:"cors_origins"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from ./config.yaml (optional) and environment.
func Load() (*Config, error) {
	return LoadFrom("")
}

// LoadFrom reads configuration from path, or from ./config.yaml when path is
// empty. An explicit path must exist.
func LoadFrom(path string) (*Config, error) {
	v := viper.New()

	// Config file
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	// Environment
	v.SetEnvPrefix("SHOPMAP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("source.url", "")
	v.SetDefault("source.format", "csv")
	v.SetDefault("source.sheet_name", "")
	v.SetDefault("source.cache_bust_param", "ts")
	v.SetDefault("source.timeout_secs", 30)
	v.SetDefault("source.max_attempts", 1)
	v.SetDefault("source.rate_per_sec", 2.0)
	v.SetDefault("source.user_agent", "shopmap/1.0")
	v.SetDefault("source.refresh_interval_secs", 0)
	v.SetDefault("offline.driver", "sqlite")
	v.SetDefault("offline.database_url", "shopmap.db")
	v.SetDefault("offline.slot", "default")
	v.SetDefault("map.default_lat", 16.8409)
	v.SetDefault("map.default_lng", 96.1735)
	v.SetDefault("map.default_zoom", 12)
	v.SetDefault("map.detail_zoom", 16)
	v.SetDefault("map.padding", 0.2)
	v.SetDefault("directory.locale", "en")
	v.SetDefault("directory.aliases_file", "")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.cors_origins", []string{"*"})
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks the settings a command mode depends on. Modes are
// "serve", "ingest" and "cache".
func (c *Config) Validate(mode string) error {
	var problems []string

	switch mode {
	case "serve":
		problems = append(problems, c.validateSource()...)
		problems = append(problems, c.validateOffline()...)
		problems = append(problems, c.validateMap()...)
		if c.Server.Port <= 0 || c.Server.Port > 65535 {
			problems = append(problems, fmt.Sprintf("server.port must be > 0 and <= 65535, got %d", c.Server.Port))
		}
		if c.Source.RefreshIntervalSecs < 0 {
			problems = append(problems, "source.refresh_interval_secs must be >= 0")
		}
	case "ingest":
		problems = append(problems, c.validateSource()...)
		problems = append(problems, c.validateOffline()...)
		problems = append(problems, c.validateMap()...)
	case "cache":
		problems = append(problems, c.validateOffline()...)
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if len(problems) > 0 {
		return eris.Errorf("config: %s", strings.Join(problems, "; "))
	}
	return nil
}

func (c *Config) validateSource() []string {
	var problems []string
	if strings.TrimSpace(c.Source.URL) == "" {
		problems = append(problems, "source.url is required")
	}
	switch c.Source.Format {
	case "", "csv", "xlsx", "sheets_json":
	default:
		problems = append(problems, fmt.Sprintf("source.format %q is not one of csv, xlsx, sheets_json", c.Source.Format))
	}
	if c.Source.MaxAttempts < 0 {
		problems = append(problems, "source.max_attempts must be >= 0")
	}
	if c.Source.TimeoutSecs < 0 {
		problems = append(problems, "source.timeout_secs must be >= 0")
	}
	return problems
}

func (c *Config) validateOffline() []string {
	switch c.Offline.Driver {
	case "memory":
		return nil
	case "sqlite", "postgres":
		if c.Offline.DatabaseURL == "" {
			return []string{"offline.database_url is required for driver " + c.Offline.Driver}
		}
		return nil
	default:
		return []string{fmt.Sprintf("offline.driver %q is not one of sqlite, postgres, memory", c.Offline.Driver)}
	}
}

func (c *Config) validateMap() []string {
	var problems []string
	if c.Map.Padding < 0 {
		problems = append(problems, "map.padding must be >= 0")
	}
	if c.Map.DefaultLat < -90 || c.Map.DefaultLat > 90 || c.Map.DefaultLng < -180 || c.Map.DefaultLng > 180 {
		problems = append(problems, "map default center is out of range")
	}
	if c.Map.DetailZoom < 0 || c.Map.DefaultZoom < 0 {
		problems = append(problems, "map zoom levels must be >= 0")
	}
	return problems
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
