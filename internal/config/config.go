// Package config loads application configuration from file and environment
// and owns global logger initialization.
package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store  StoreConfig  `yaml:"store" mapstructure:"store"`
	Tiger  TigerConfig  `yaml:"tiger" mapstructure:"tiger"`
	Xwalk  XwalkConfig  `yaml:"xwalk" mapstructure:"xwalk"`
	Match  MatchConfig  `yaml:"match" mapstructure:"match"`
	Walk   WalkConfig   `yaml:"walk" mapstructure:"walk"`
	Server ServerConfig `yaml:"server" mapstructure:"server"`
	Log    LogConfig    `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// TigerConfig configures TIGER/Line shapefile ingestion.
type TigerConfig struct {
	Year           int     `yaml:"year" mapstructure:"year"`
	TempDir        string  `yaml:"temp_dir" mapstructure:"temp_dir"`
	Counties       []string `yaml:"counties" mapstructure:"counties"`
	Concurrency    int     `yaml:"concurrency" mapstructure:"concurrency"`
	RequestsPerSec float64 `yaml:"requests_per_sec" mapstructure:"requests_per_sec"`
	UseFTP         bool    `yaml:"use_ftp" mapstructure:"use_ftp"`
}

// XwalkConfig configures crosswalk construction.
type XwalkConfig struct {
	NameCutoff float64 `yaml:"name_cutoff" mapstructure:"name_cutoff"`
	RoadsOnly  bool    `yaml:"roads_only" mapstructure:"roads_only"`
}

// MatchConfig configures address-to-segment resolution.
type MatchConfig struct {
	Workers int `yaml:"workers" mapstructure:"workers"`
}

// WalkConfig configures the greedy street walk.
type WalkConfig struct {
	Metric string `yaml:"metric" mapstructure:"metric"`
	Seed   int64  `yaml:"seed" mapstructure:"seed"`
}

// ServerConfig configures the results HTTP server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("STREETMATCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "streetmatch.db")
	v.SetDefault("tiger.year", 2017)
	v.SetDefault("tiger.temp_dir", "/tmp/streetmatch-tiger")
	v.SetDefault("tiger.concurrency", 4)
	v.SetDefault("tiger.requests_per_sec", 2.0)
	v.SetDefault("tiger.use_ftp", false)
	v.SetDefault("xwalk.name_cutoff", 0.5)
	v.SetDefault("xwalk.roads_only", true)
	v.SetDefault("match.workers", 4)
	v.SetDefault("walk.metric", "euclidean")
	v.SetDefault("walk.seed", 0)
	v.SetDefault("server.port", 8080)
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
