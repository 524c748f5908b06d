package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config represents the complete application configuration
type Config struct {
	Dataset  DatasetConfig  `mapstructure:"dataset"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Server   ServerConfig   `mapstructure:"server"`
	Chart    ChartConfig    `mapstructure:"chart"`
	Telegram TelegramConfig `mapstructure:"telegram"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// DatasetConfig describes where measurements come from and how to read them
type DatasetConfig struct {
	Source         string        `mapstructure:"source"` // "csv" or "sqlite"
	Path           string        `mapstructure:"path"`   // file path or http(s) URL for csv
	Columns        ColumnsConfig `mapstructure:"columns"`
	DateLayouts    []string      `mapstructure:"date_layouts"`
	FetchTimeout   time.Duration `mapstructure:"fetch_timeout"`
	MaxRetries     int           `mapstructure:"max_retries"`
	RetryDelayBase time.Duration `mapstructure:"retry_delay_base"`
}

// ColumnsConfig maps CSV header names to measurement fields
type ColumnsConfig struct {
	Subject string `mapstructure:"subject"`
	Group   string `mapstructure:"group"`
	Date    string `mapstructure:"date"`
	Weight  string `mapstructure:"weight"`
}

// StorageConfig holds the SQLite dataset store location
type StorageConfig struct {
	DBPath string `mapstructure:"db_path"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	ListenAddr      string        `mapstructure:"listen_addr"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// ChartConfig holds chart text and rendering size
type ChartConfig struct {
	TitleFormat string `mapstructure:"title_format"`
	XAxisTitle  string `mapstructure:"x_axis_title"`
	YAxisTitle  string `mapstructure:"y_axis_title"`
	SegmentDays int    `mapstructure:"segment_days"`
	Width       int    `mapstructure:"width"`
	Height      int    `mapstructure:"height"`
}

// TelegramConfig holds Telegram bot configuration
type TelegramConfig struct {
	BotToken       string        `mapstructure:"bot_token"`
	ChatID         string        `mapstructure:"chat_id"`
	Enabled        bool          `mapstructure:"enabled"`
	MaxRetries     int           `mapstructure:"max_retries"`
	RetryDelayBase time.Duration `mapstructure:"retry_delay_base"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from file and environment variables
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetConfigFile(path)
	setDefaults(v)

	// BODYWEIGHT_DASH_DATASET_PATH overrides dataset.path, and so on
	v.SetEnvPrefix("BODYWEIGHT_DASH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// setDefaults configures default values for all configuration options
func setDefaults(v *viper.Viper) {
	// Dataset defaults
	v.SetDefault("dataset.source", "csv")
	v.SetDefault("dataset.path", "./data/BodyWeightMaster.csv")
	v.SetDefault("dataset.columns.subject", "NAME")
	v.SetDefault("dataset.columns.group", "POS")
	v.SetDefault("dataset.columns.date", "DATE")
	v.SetDefault("dataset.columns.weight", "WEIGHT")
	v.SetDefault("dataset.date_layouts", []string{
		"2006-01-02",
		"1/2/2006",
		"2006-01-02 15:04:05",
		"1/2/2006 15:04",
		time.RFC3339,
	})
	v.SetDefault("dataset.fetch_timeout", "30s")
	v.SetDefault("dataset.max_retries", 3)
	v.SetDefault("dataset.retry_delay_base", "1s")

	// Storage defaults
	v.SetDefault("storage.db_path", "./data/bodyweight.db")

	// Server defaults
	v.SetDefault("server.listen_addr", "127.0.0.1")
	v.SetDefault("server.port", 8050)
	v.SetDefault("server.read_timeout", "10s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.shutdown_timeout", "5s")

	// Chart defaults
	v.SetDefault("chart.title_format", "Body Weight per Month for %s")
	v.SetDefault("chart.x_axis_title", "Date")
	v.SetDefault("chart.y_axis_title", "Weight (lbs)")
	v.SetDefault("chart.segment_days", 30)
	v.SetDefault("chart.width", 1024)
	v.SetDefault("chart.height", 512)

	// Telegram defaults
	v.SetDefault("telegram.enabled", false)
	v.SetDefault("telegram.max_retries", 3)
	v.SetDefault("telegram.retry_delay_base", "1s")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
}

// Validate checks that all configuration values are valid
func (c *Config) Validate() error {
	// Validate Dataset config
	switch c.Dataset.Source {
	case "csv":
		if c.Dataset.Path == "" {
			return fmt.Errorf("dataset.path is required when dataset.source is csv")
		}
	case "sqlite":
		if c.Storage.DBPath == "" {
			return fmt.Errorf("storage.db_path is required when dataset.source is sqlite")
		}
	default:
		return fmt.Errorf("dataset.source must be one of: csv, sqlite")
	}
	cols := c.Dataset.Columns
	if cols.Subject == "" || cols.Group == "" || cols.Date == "" || cols.Weight == "" {
		return fmt.Errorf("dataset.columns must name subject, group, date and weight columns")
	}
	if len(c.Dataset.DateLayouts) == 0 {
		return fmt.Errorf("dataset.date_layouts must contain at least one layout")
	}
	if c.Dataset.MaxRetries < 1 {
		return fmt.Errorf("dataset.max_retries must be at least 1")
	}

	// Validate Server config
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535")
	}

	// Validate Chart config
	if err := checkTitleFormat(c.Chart.TitleFormat); err != nil {
		return fmt.Errorf("chart.title_format: %w", err)
	}
	if c.Chart.SegmentDays < 1 {
		return fmt.Errorf("chart.segment_days must be at least 1")
	}
	if c.Chart.Width < 100 || c.Chart.Height < 100 {
		return fmt.Errorf("chart.width and chart.height must be at least 100")
	}

	// Validate Telegram config
	if c.Telegram.Enabled {
		if c.Telegram.BotToken == "" {
			return fmt.Errorf("telegram.bot_token is required when telegram is enabled")
		}
		if c.Telegram.ChatID == "" {
			return fmt.Errorf("telegram.chat_id is required when telegram is enabled")
		}
	}

	// Validate Logging config
	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("logging.level must be one of: debug, info, warn, error")
	}
	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[c.Logging.Format] {
		return fmt.Errorf("logging.format must be one of: json, text")
	}

	return nil
}

// checkTitleFormat accepts a printf format with exactly one %s verb.
// A literal percent sign must be written as %%.
func checkTitleFormat(format string) error {
	verbs := 0
	for i := 0; i < len(format); i++ {
		if format[i] != '%' {
			continue
		}
		if i+1 == len(format) {
			return fmt.Errorf("trailing %% in %q; write %%%% for a literal percent sign", format)
		}
		i++
		switch format[i] {
		case '%':
		case 's':
			verbs++
		default:
			return fmt.Errorf("unsupported verb %%%c in %q; only %%s is allowed", format[i], format)
		}
	}
	if verbs != 1 {
		return fmt.Errorf("must contain exactly one %%s for the selected target, found %d", verbs)
	}
	return nil
}

// Addr returns the host:port the HTTP server listens on
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.ListenAddr, s.Port)
}
