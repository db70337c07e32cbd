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
	Store     StoreConfig     `yaml:"store" mapstructure:"store"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Rollup    RollupConfig    `yaml:"rollup" mapstructure:"rollup"`
	Reconcile ReconcileConfig `yaml:"reconcile" mapstructure:"reconcile"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	MaxConns    int32  `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns    int32  `yaml:"min_conns" mapstructure:"min_conns"`
	// RetryAttempts bounds reads retried after transient failures; 1 disables retries.
	RetryAttempts  int `yaml:"retry_attempts" mapstructure:"retry_attempts"`
	RetryBackoffMs int `yaml:"retry_backoff_ms" mapstructure:"retry_backoff_ms"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Port              int      `yaml:"port" mapstructure:"port"`
	AllowedOrigins    []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
	RequestsPerSecond float64  `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	Burst             int      `yaml:"burst" mapstructure:"burst"`
}

// RollupConfig configures phase rollup generation.
type RollupConfig struct {
	PrimaryTypeCodes []string `yaml:"primary_type_codes" mapstructure:"primary_type_codes"`
	FetchTimeoutSecs int      `yaml:"fetch_timeout_secs" mapstructure:"fetch_timeout_secs"`
}

// ReconcileConfig configures the reconciliation engine.
type ReconcileConfig struct {
	// WeightTolerance is the allowed distance of the weight sum from 1.0.
	WeightTolerance float64 `yaml:"weight_tolerance" mapstructure:"weight_tolerance"`
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
	v.SetEnvPrefix("UNDERWRITE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "postgres")
	v.SetDefault("store.database_url", "")
	v.SetDefault("store.max_conns", 10)
	v.SetDefault("store.min_conns", 2)
	v.SetDefault("store.retry_attempts", 3)
	v.SetDefault("store.retry_backoff_ms", 200)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("server.requests_per_second", 20)
	v.SetDefault("server.burst", 40)
	v.SetDefault("rollup.primary_type_codes", []string{"SFD", "SFA"})
	v.SetDefault("rollup.fetch_timeout_secs", 30)
	v.SetDefault("reconcile.weight_tolerance", 0.005)

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

// Validate checks the settings required by the given command mode
// ("report", "reconcile", "serve", "import", "migrate").
func (c *Config) Validate(mode string) error {
	var errs []string

	switch c.Store.Driver {
	case "postgres":
		if c.Store.DatabaseURL == "" {
			errs = append(errs, "store.database_url is required for the postgres driver")
		}
	case "sqlite":
	default:
		errs = append(errs, "store.driver must be postgres or sqlite")
	}

	switch mode {
	case "report", "reconcile", "migrate", "import":
	case "serve":
		if c.Server.Port <= 0 {
			errs = append(errs, "server.port must be > 0")
		}
		if c.Server.RequestsPerSecond <= 0 {
			errs = append(errs, "server.requests_per_second must be > 0")
		}
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if len(c.Rollup.PrimaryTypeCodes) == 0 {
		errs = append(errs, "rollup.primary_type_codes must not be empty")
	}
	if c.Reconcile.WeightTolerance <= 0 || c.Reconcile.WeightTolerance >= 1 {
		errs = append(errs, "reconcile.weight_tolerance must be between 0 and 1")
	}

	if len(errs) > 0 {
		return eris.Errorf("config: %s", strings.Join(errs, "; "))
	}
	return nil
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
