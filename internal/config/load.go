package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

const envPrefix = "DASHSYNC"

func setDefaults(v *viper.Viper) {
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.path", "data/app.db")
	v.SetDefault("database.dsn", "")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 0)
	v.SetDefault("database.user", "")
	v.SetDefault("database.password", "")
	v.SetDefault("database.database", "")
	v.SetDefault("database.max_open_conns", 0)

	v.SetDefault("sources.incidents", "data/cyber_incidents.csv")
	v.SetDefault("sources.datasets", "data/datasets.csv")
	v.SetDefault("sources.tickets", "data/it_tickets.csv")

	v.SetDefault("sync.strict_watermark", true)
	v.SetDefault("sync.skip_unchanged_content", false)
	v.SetDefault("sync.missing_tokens", []string{"", "na", "n/a", "nan"})
	v.SetDefault("sync.sync_on_view", true)

	v.SetDefault("scheduler.enabled", false)
	v.SetDefault("scheduler.interval", "@every 1m")

	v.SetDefault("watch.enabled", false)
	v.SetDefault("watch.debounce", "500ms")

	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "60s")
	v.SetDefault("server.cors_origins", []string{"*"})

	v.SetDefault("auth.session_ttl", "8h")
	v.SetDefault("auth.bcrypt_cost", 12)

	v.SetDefault("assistant.api_key", "")
	v.SetDefault("assistant.base_url", "")
	v.SetDefault("assistant.model", "gpt-3.5-turbo")
	v.SetDefault("assistant.max_tokens", 500)
	v.SetDefault("assistant.temperature", 0.2)
	v.SetDefault("assistant.timeout", "30s")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}

// LoadConfig reads the YAML file at path and applies DASHSYNC_* environment
// overrides. A missing file is not an error; defaults and env still apply.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("assistant.api_key", envPrefix+"_ASSISTANT_API_KEY", "OPENAI_API_KEY"); err != nil {
		return nil, err
	}

	if strings.TrimSpace(path) != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("failed to read config %s: %w", path, err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	c.Database.Driver = strings.ToLower(strings.TrimSpace(c.Database.Driver))
	switch c.Database.Driver {
	case "sqlite", "mysql", "postgres":
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}
	if c.Database.Driver == "sqlite" && strings.TrimSpace(c.Database.Path) == "" && strings.TrimSpace(c.Database.DSN) == "" {
		return errors.New("database.path is required for sqlite")
	}
	if c.Scheduler.Enabled && strings.TrimSpace(c.Scheduler.Interval) == "" {
		return errors.New("scheduler.interval is required when the scheduler is enabled")
	}
	if c.Auth.BcryptCost < 4 || c.Auth.BcryptCost > 31 {
		return fmt.Errorf("auth.bcrypt_cost %d out of range [4,31]", c.Auth.BcryptCost)
	}
	return nil
}
