package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// AppConfig holds all configuration for the application
type AppConfig struct {
	Discord struct {
		AppID    string `koanf:"app_id" yaml:"app_id"`
		BotToken string `koanf:"bot_token" yaml:"bot_token"`
		GuildID  string `koanf:"guild_id" yaml:"guild_id"`
		Activity string `koanf:"activity" yaml:"activity"`
	} `koanf:"discord" yaml:"discord"`

	Counters struct {
		ConfigPath   string        `koanf:"config_path" yaml:"config_path"`
		Interval     time.Duration `koanf:"interval" yaml:"interval"`
		FetchTimeout time.Duration `koanf:"fetch_timeout" yaml:"fetch_timeout"`
	} `koanf:"counters" yaml:"counters"`

	HTTP struct {
		Port    int  `koanf:"port" yaml:"port"`
		Metrics bool `koanf:"metrics" yaml:"metrics"`
	} `koanf:"http" yaml:"http"`

	Log struct {
		Level string `koanf:"level" yaml:"level"`
		UTC   bool   `koanf:"utc" yaml:"utc"`
	} `koanf:"log" yaml:"log"`
}

// Global singleton config instance
var (
	cfg  *AppConfig
	once sync.Once
)

// DefaultLocations are searched in order; the first existing file is loaded.
var DefaultLocations = []string{
	"/etc/app/config.yaml",            // Standard system location
	"/config/config.yaml",             // Docker mounted volume location
	filepath.Join(".", "config.yaml"), // Local file in current directory
}

// legacyEnv maps the variable names used by earlier deployments of the bot.
var legacyEnv = map[string]string{
	"DISCORD_TOKEN": "discord.bot_token",
	"GUILD_ID":      "discord.guild_id",
	"PORT":          "http.port",
}

// Get returns the global AppConfig instance
func Get() *AppConfig {
	once.Do(func() {
		if err := godotenv.Load(); err != nil {
			slog.Debug("no .env file loaded", "error", err)
		}
		var err error
		cfg, err = Load(DefaultLocations)
		if err != nil {
			slog.Error("Failed to load configuration", "error", err)
			os.Exit(1)
		}
	})
	return cfg
}

// Load configuration from defaults, the first config file found in locations,
// legacy environment variables and APP_ environment variables, in that order.
func Load(locations []string) (*AppConfig, error) {
	k := koanf.New(".")

	defaultConfig := map[string]interface{}{
		"discord.activity":       "pourtoi",
		"counters.config_path":   "./config.json",
		"counters.interval":      "5m",
		"counters.fetch_timeout": "30s",
		"http.port":              3000,
		"http.metrics":           false,
		"log.level":              "info",
	}
	if err := k.Load(confmap.Provider(defaultConfig, "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load default config: %w", err)
	}

	configLoaded := false
	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			slog.Info("Loading configuration file", "path", loc)
			if err := k.Load(file.Provider(loc), yaml.Parser()); err != nil {
				return nil, fmt.Errorf("error loading config file %s: %w", loc, err)
			}
			configLoaded = true
			break
		}
	}

	if !configLoaded {
		slog.Warn("No config file found in any of the expected locations",
			"searched_locations", locations)
	}

	legacy := make(map[string]interface{})
	for name, key := range legacyEnv {
		if v, ok := os.LookupEnv(name); ok && v != "" {
			legacy[key] = v
		}
	}
	if len(legacy) > 0 {
		if err := k.Load(confmap.Provider(legacy, "."), nil); err != nil {
			return nil, fmt.Errorf("error loading legacy environment variables: %w", err)
		}
	}

	// Environment variables (highest priority)
	// Format: APP_DISCORD_BOT_TOKEN -> discord.bot_token
	// Only the first underscore after the section is a separator, so
	// APP_COUNTERS_CONFIG_PATH -> counters.config_path.
	callback := func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), "app_")
		return strings.Replace(s, "_", ".", 1)
	}

	if err := k.Load(env.Provider("APP_", ".", callback), nil); err != nil {
		return nil, fmt.Errorf("error loading environment variables: %w", err)
	}

	var out AppConfig
	decoderConfig := koanf.UnmarshalConf{
		DecoderConfig: &mapstructure.DecoderConfig{
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				mapstructure.StringToTimeDurationHookFunc(),
			),
			WeaklyTypedInput: true,
			Result:           &out,
		},
	}

	if err := k.UnmarshalWithConf("", &out, decoderConfig); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	slog.Debug("Configuration loaded",
		"discord_app_id", out.Discord.AppID,
		"discord_guild_id", out.Discord.GuildID,
		"bot_token_present", out.Discord.BotToken != "",
		"counters_config_path", out.Counters.ConfigPath,
		"counters_interval", out.Counters.Interval,
		"http_port", out.HTTP.Port)

	if out.Discord.BotToken == "" {
		return nil, fmt.Errorf("discord.bot_token is required")
	}

	// The scheduler fires on whole seconds.
	if out.Counters.Interval < time.Second {
		return nil, fmt.Errorf("counters.interval must be at least 1s, got %s", out.Counters.Interval)
	}

	if out.HTTP.Port <= 0 || out.HTTP.Port > 65535 {
		return nil, fmt.Errorf("http.port out of range: %d", out.HTTP.Port)
	}

	return &out, nil
}
