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
	Collect  CollectConfig  `yaml:"collect" mapstructure:"collect"`
	Browser  BrowserConfig  `yaml:"browser" mapstructure:"browser"`
	Validate ValidateConfig `yaml:"validate" mapstructure:"validate"`
	Server   ServerConfig   `yaml:"server" mapstructure:"server"`
	Log      LogConfig      `yaml:"log" mapstructure:"log"`
}

// CollectConfig holds the collection loop's work ceilings and pacing knobs.
// The amplification factors and ceilings were tuned empirically; they are
// configuration, not contract.
type CollectConfig struct {
	// BatchAmplification multiplies the remaining target into a per-batch
	// discovery hint; most raw candidates fail qualification.
	BatchAmplification int `yaml:"batch_amplification" mapstructure:"batch_amplification"`
	BatchFloor         int `yaml:"batch_floor" mapstructure:"batch_floor"`
	// RawAmplification times the target caps total unique candidates for a
	// bounded run; RawFloor is its minimum.
	RawAmplification      int `yaml:"raw_amplification" mapstructure:"raw_amplification"`
	RawFloor              int `yaml:"raw_floor" mapstructure:"raw_floor"`
	MaxCollectionAttempts int `yaml:"max_collection_attempts" mapstructure:"max_collection_attempts"`
	MaxScrollAttempts     int `yaml:"max_scroll_attempts" mapstructure:"max_scroll_attempts"`
	// MaxNoProgress is the consecutive no-new-candidates, no-scroll-growth
	// iteration count treated as surface exhaustion.
	MaxNoProgress     int     `yaml:"max_no_progress" mapstructure:"max_no_progress"`
	ScrollSettleMs    int     `yaml:"scroll_settle_ms" mapstructure:"scroll_settle_ms"`
	FeedWaitSecs      int     `yaml:"feed_wait_secs" mapstructure:"feed_wait_secs"`
	HeadingWaitSecs   int     `yaml:"heading_wait_secs" mapstructure:"heading_wait_secs"`
	NavigationsPerSec float64 `yaml:"navigations_per_sec" mapstructure:"navigations_per_sec"`
}

// ScrollSettle returns the post-scroll settle interval.
func (c CollectConfig) ScrollSettle() time.Duration {
	return time.Duration(c.ScrollSettleMs) * time.Millisecond
}

// FeedWait returns the budget for the results feed to render.
func (c CollectConfig) FeedWait() time.Duration {
	return time.Duration(c.FeedWaitSecs) * time.Second
}

// HeadingWait returns the budget for a listing page's primary heading.
func (c CollectConfig) HeadingWait() time.Duration {
	return time.Duration(c.HeadingWaitSecs) * time.Second
}

// BrowserConfig configures the chromedp allocator.
type BrowserConfig struct {
	Headless  bool   `yaml:"headless" mapstructure:"headless"`
	NoSandbox bool   `yaml:"no_sandbox" mapstructure:"no_sandbox"`
	UserAgent string `yaml:"user_agent" mapstructure:"user_agent"`
}

// ValidateConfig configures contact qualification.
type ValidateConfig struct {
	Country  string `yaml:"country" mapstructure:"country"`
	VerifyMX bool   `yaml:"verify_mx" mapstructure:"verify_mx"`
}

// ServerConfig configures the SSE server.
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
	v.SetEnvPrefix("PROSPECT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("collect.batch_amplification", 5)
	v.SetDefault("collect.batch_floor", 20)
	v.SetDefault("collect.raw_amplification", 15)
	v.SetDefault("collect.raw_floor", 50)
	v.SetDefault("collect.max_collection_attempts", 5)
	v.SetDefault("collect.max_scroll_attempts", 150)
	v.SetDefault("collect.max_no_progress", 7)
	v.SetDefault("collect.scroll_settle_ms", 3000)
	v.SetDefault("collect.feed_wait_secs", 45)
	v.SetDefault("collect.heading_wait_secs", 60)
	v.SetDefault("collect.navigations_per_sec", 0.5)
	v.SetDefault("browser.headless", true)
	v.SetDefault("browser.no_sandbox", true)
	v.SetDefault("browser.user_agent", "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/122.0.0.0 Safari/537.36")
	v.SetDefault("validate.country", "australia")
	v.SetDefault("validate.verify_mx", false)

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
