package config

import (
	"time"
)

type Config struct {
	Database  DatabaseConfig  `mapstructure:"database"`
	Sources   SourcesConfig   `mapstructure:"sources"`
	Sync      SyncConfig      `mapstructure:"sync"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Watch     WatchConfig     `mapstructure:"watch"`
	Server    ServerConfig    `mapstructure:"server"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Assistant AssistantConfig `mapstructure:"assistant"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// DatabaseConfig selects the backing store. Driver is one of "sqlite",
// "mysql" or "postgres"; sqlite only needs Path.
type DatabaseConfig struct {
	Driver       string `mapstructure:"driver"`
	Path         string `mapstructure:"path"`
	DSN          string `mapstructure:"dsn"`
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	User         string `mapstructure:"user"`
	Password     string `mapstructure:"password"`
	Database     string `mapstructure:"database"`
	MaxOpenConns int    `mapstructure:"max_open_conns"`
}

// SourcesConfig holds the CSV file backing each dashboard.
type SourcesConfig struct {
	Incidents string `mapstructure:"incidents"`
	Datasets  string `mapstructure:"datasets"`
	Tickets   string `mapstructure:"tickets"`
}

type SyncConfig struct {
	StrictWatermark      bool     `mapstructure:"strict_watermark"`
	SkipUnchangedContent bool     `mapstructure:"skip_unchanged_content"`
	MissingTokens        []string `mapstructure:"missing_tokens"`
	SyncOnView           bool     `mapstructure:"sync_on_view"`
}

type SchedulerConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Interval string `mapstructure:"interval"`
}

type WatchConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Debounce string `mapstructure:"debounce"`
}

func (w WatchConfig) GetDebounce() time.Duration {
	d, _ := time.ParseDuration(w.Debounce)
	return d
}

type ServerConfig struct {
	Port         int      `mapstructure:"port"`
	Host         string   `mapstructure:"host"`
	ReadTimeout  string   `mapstructure:"read_timeout"`
	WriteTimeout string   `mapstructure:"write_timeout"`
	CorsOrigins  []string `mapstructure:"cors_origins"`
}

func (s ServerConfig) GetReadTimeout() time.Duration {
	d, _ := time.ParseDuration(s.ReadTimeout)
	return d
}

func (s ServerConfig) GetWriteTimeout() time.Duration {
	d, _ := time.ParseDuration(s.WriteTimeout)
	return d
}

type AuthConfig struct {
	SessionTTL string `mapstructure:"session_ttl"`
	BcryptCost int    `mapstructure:"bcrypt_cost"`
}

func (a AuthConfig) GetSessionTTL() time.Duration {
	d, err := time.ParseDuration(a.SessionTTL)
	if err != nil || d <= 0 {
		return 8 * time.Hour
	}
	return d
}

type AssistantConfig struct {
	APIKey      string  `mapstructure:"api_key"`
	BaseURL     string  `mapstructure:"base_url"`
	Model       string  `mapstructure:"model"`
	MaxTokens   int64   `mapstructure:"max_tokens"`
	Temperature float64 `mapstructure:"temperature"`
	Timeout     string  `mapstructure:"timeout"`
}

func (a AssistantConfig) GetTimeout() time.Duration {
	d, err := time.ParseDuration(a.Timeout)
	if err != nil || d <= 0 {
		return 30 * time.Second
	}
	return d
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}
