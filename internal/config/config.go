package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const EnvPrefix = "PHONEBOOK"

type Config struct {
	Server ServerConfig `mapstructure:"server"`
	Data   DataConfig   `mapstructure:"data"`
	Auth   AuthConfig   `mapstructure:"auth"`
	Log    LogConfig    `mapstructure:"log"`
	Cache  CacheConfig  `mapstructure:"cache"`
}

type ServerConfig struct {
	Port      int    `mapstructure:"port"`
	StaticDir string `mapstructure:"static_dir"`
	IndexFile string `mapstructure:"index_file"`
}

type DataConfig struct {
	Dir string `mapstructure:"dir"`
}

type AuthConfig struct {
	JWTSecret  string        `mapstructure:"jwt_secret"`
	BaseURL    string        `mapstructure:"base_url"`
	LinkTTL    time.Duration `mapstructure:"link_ttl"`
	SessionTTL time.Duration `mapstructure:"session_ttl"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Pretty bool   `mapstructure:"pretty"`
	File   string `mapstructure:"file"`
}

type CacheConfig struct {
	TTLSeconds int `mapstructure:"ttl_seconds"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 2025)
	v.SetDefault("server.static_dir", "./static")
	v.SetDefault("server.index_file", "./templates/index.html")
	v.SetDefault("data.dir", "./data")
	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.base_url", "")
	v.SetDefault("auth.link_ttl", "24h")
	v.SetDefault("auth.session_ttl", "2160h")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", false)
	v.SetDefault("log.file", "")
	v.SetDefault("cache.ttl_seconds", 600)
}

// Load reads configuration from defaults, an optional YAML file and
// PHONEBOOK_* environment variables, later sources winning. A .env file in
// the working directory is loaded into the environment first without
// overriding variables that are already set. An empty path looks for
// phonebook.yaml in the working directory and ./config.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(".env"); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("error reading .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("phonebook")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server.port %d", c.Server.Port)
	}
	if c.Data.Dir == "" {
		return errors.New("data.dir is required")
	}
	if c.Auth.LinkTTL <= 0 || c.Auth.SessionTTL <= 0 {
		return errors.New("auth.link_ttl and auth.session_ttl must be positive")
	}
	return nil
}
