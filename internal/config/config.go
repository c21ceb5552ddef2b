// Package config loads the application configuration from config.yaml
// and the environment, and initializes the global logger.
package config

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store     StoreConfig     `yaml:"store" mapstructure:"store"`
	Outlets   OutletsConfig   `yaml:"outlets" mapstructure:"outlets"`
	Identity  IdentityConfig  `yaml:"identity" mapstructure:"identity"`
	Batch     BatchConfig     `yaml:"batch" mapstructure:"batch"`
	Ensemble  EnsembleConfig  `yaml:"ensemble" mapstructure:"ensemble"`
	Reconcile ReconcileConfig `yaml:"reconcile" mapstructure:"reconcile"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the SQLite backend.
type StoreConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// OutletsConfig points at the outlet reference set.
type OutletsConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// IdentityConfig configures review identity resolution.
type IdentityConfig struct {
	// DuplicateThreshold is the critic-slug edit distance at or below
	// which two identities are flagged as candidate duplicates.
	DuplicateThreshold int `yaml:"duplicate_threshold" mapstructure:"duplicate_threshold"`
}

// BatchConfig configures batch processing.
type BatchConfig struct {
	MaxConcurrentProductions int `yaml:"max_concurrent_productions" mapstructure:"max_concurrent_productions"`
}

// EnsembleConfig configures the sentiment scoring ensemble.
type EnsembleConfig struct {
	// Models lists the classifier models, in priority order. One to
	// three models; consensus rules depend on the count.
	Models []ModelConfig `yaml:"models" mapstructure:"models"`

	// MaxConcurrency bounds parallel model calls per review.
	MaxConcurrency int `yaml:"max_concurrency" mapstructure:"max_concurrency"`

	// ModelTimeoutSecs bounds each individual model call.
	ModelTimeoutSecs int `yaml:"model_timeout_secs" mapstructure:"model_timeout_secs"`
}

// ModelConfig configures one classifier model client.
type ModelConfig struct {
	Provider          string  `yaml:"provider" mapstructure:"provider"`
	Key               string  `yaml:"key" mapstructure:"key"`
	Model             string  `yaml:"model" mapstructure:"model"`
	BaseURL           string  `yaml:"base_url" mapstructure:"base_url"`
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	Burst             int     `yaml:"burst" mapstructure:"burst"`
	MaxRetries        int     `yaml:"max_retries" mapstructure:"max_retries"`
}

// ReconcileConfig configures the reconciliation engine's sparse-source
// heuristic.
type ReconcileConfig struct {
	// SparseRatio flags a source as sparse when it carries fewer than
	// this fraction of the canonical review count.
	SparseRatio float64 `yaml:"sparse_ratio" mapstructure:"sparse_ratio"`

	// SparseAgeDays is the minimum production age before sparseness is
	// considered meaningful.
	SparseAgeDays int `yaml:"sparse_age_days" mapstructure:"sparse_age_days"`
}

// SparseAge returns the sparse-age threshold as a duration.
func (c ReconcileConfig) SparseAge() time.Duration {
	return time.Duration(c.SparseAgeDays) * 24 * time.Hour
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
	v.SetEnvPrefix("MARQUEE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.path", "marquee.db")
	v.SetDefault("outlets.path", "outlets.yaml")
	v.SetDefault("identity.duplicate_threshold", 2)
	v.SetDefault("batch.max_concurrent_productions", 4)
	v.SetDefault("ensemble.max_concurrency", 3)
	v.SetDefault("ensemble.model_timeout_secs", 30)
	v.SetDefault("reconcile.sparse_ratio", 0.5)
	v.SetDefault("reconcile.sparse_age_days", 180)
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
