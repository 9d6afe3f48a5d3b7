package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// Config is the full gateway configuration.
type Config struct {
	Gateway   GatewayConfig   `mapstructure:"gateway"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Log       LogConfig       `mapstructure:"log"`
	Clinic    ClinicConfig    `mapstructure:"clinic"`
	Templates TemplatesConfig `mapstructure:"templates"`
	Telegram  TelegramConfig  `mapstructure:"telegram"`
}

// GatewayConfig configures the HTTP listener.
type GatewayConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
	Mode string `mapstructure:"mode"` // local, production
}

// DatabaseConfig selects the storage backend.
type DatabaseConfig struct {
	Type string `mapstructure:"type"` // sqlite, postgres
	DSN  string `mapstructure:"dsn"`
}

// LogConfig configures logging output.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// ClinicConfig holds the clinic identity and booking grid.
type ClinicConfig struct {
	Name        string `mapstructure:"name"`
	Timezone    string `mapstructure:"timezone"`
	OpenHour    int    `mapstructure:"open_hour"`
	CloseHour   int    `mapstructure:"close_hour"`
	SlotMinutes int    `mapstructure:"slot_minutes"`
}

// Location resolves the clinic timezone.
func (c ClinicConfig) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid clinic timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// TemplatesConfig locates the reply template file.
// An empty path resolves to templates.yaml inside the home dir.
type TemplatesConfig struct {
	Path      string `mapstructure:"path"`
	HotReload bool   `mapstructure:"hot_reload"`
}

// TelegramConfig configures the optional Telegram channel.
// An empty bot token disables it.
type TelegramConfig struct {
	BotToken string  `mapstructure:"bot_token"`
	AllowIDs []int64 `mapstructure:"allow_ids"`
	DMPolicy string  `mapstructure:"dm_policy"` // open, allowlist, disabled
}

// Load reads the layered configuration.
// Precedence (low to high): defaults → global ~/.odontoflow/config.yaml →
// project-local config → ODONTOFLOW_* environment variables.
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")

	// Layer 1: global config (clinic identity, telegram token, database)
	v.AddConfigPath(HomeDir())
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read global config: %w", err)
		}
	}

	// Layer 2: project-local overrides, first match wins
	for _, localDir := range []string{"./config", "."} {
		localPath := filepath.Join(localDir, "config.yaml")
		if _, err := os.Stat(localPath); err == nil {
			v2 := viper.New()
			v2.SetConfigFile(localPath)
			if err := v2.ReadInConfig(); err == nil {
				_ = v.MergeConfigMap(v2.AllSettings())
			}
			break
		}
	}

	// Layer 3: environment overrides, e.g. ODONTOFLOW_TELEGRAM.BOT_TOKEN
	v.SetEnvPrefix("ODONTOFLOW")
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if cfg.Templates.Path == "" {
		cfg.Templates.Path = filepath.Join(HomeDir(), "templates.yaml")
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("gateway.host", "0.0.0.0")
	v.SetDefault("gateway.port", 8000)
	v.SetDefault("gateway.mode", "local")

	v.SetDefault("database.type", "sqlite")
	v.SetDefault("database.dsn", "odontoflow.db")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("clinic.name", "OdontoFlow")
	v.SetDefault("clinic.timezone", "America/Sao_Paulo")
	v.SetDefault("clinic.open_hour", 9)
	v.SetDefault("clinic.close_hour", 18)
	v.SetDefault("clinic.slot_minutes", 60)

	v.SetDefault("templates.hot_reload", true)

	v.SetDefault("telegram.dm_policy", "open")
}
