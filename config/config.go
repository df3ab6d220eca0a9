// Package config loads the crawler's runtime settings.
package config

import (
	"log"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

// Config holds all configuration for the crawler.
type Config struct {
	Symbols  []string      `mapstructure:"symbols" validate:"required,min=1,dive,required"`
	Variant  string        `mapstructure:"variant" validate:"oneof=full minimal"`
	Schedule string        `mapstructure:"schedule"`
	Fetch    FetchConfig   `mapstructure:"fetch"`
	Browser  BrowserConfig `mapstructure:"browser"`
	Sign     SignConfig    `mapstructure:"sign"`
	Table    TableConfig   `mapstructure:"table"`
	Cache    CacheConfig   `mapstructure:"cache"`
	Server   ServerConfig  `mapstructure:"server"`
	Logger   LoggerConfig  `mapstructure:"logger"`
}

type FetchConfig struct {
	Mode        string            `mapstructure:"mode" validate:"oneof=http browser"`
	URLTemplate string            `mapstructure:"url_template" validate:"required,contains=%s"`
	UserAgent   string            `mapstructure:"user_agent" validate:"required"`
	Headers     map[string]string `mapstructure:"headers"`
	Timeout     time.Duration     `mapstructure:"timeout" validate:"gt=0"`
}

type BrowserConfig struct {
	Size int `mapstructure:"size" validate:"min=1"`
}

// SignConfig picks the sign used when the trend arrow has an unknown colour.
type SignConfig struct {
	Unmatched string `mapstructure:"unmatched" validate:"omitempty,oneof=+ -"`
}

type TableConfig struct {
	Path string `mapstructure:"path" validate:"required"`
}

// CacheConfig enables the Redis page cache when Addr is set.
type CacheConfig struct {
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	TTL      time.Duration `mapstructure:"ttl"`
}

type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

type LoggerConfig struct {
	Level string `mapstructure:"level" validate:"oneof=debug info warn error"`
	Env   string `mapstructure:"env"` // "local" or "prod"
}

// RequestHeaders returns the headers sent with every fetch, User-Agent included.
func (c FetchConfig) RequestHeaders() map[string]string {
	headers := make(map[string]string, len(c.Headers)+1)
	for k, v := range c.Headers {
		if strings.EqualFold(k, "User-Agent") {
			continue
		}
		headers[k] = v
	}
	headers["User-Agent"] = c.UserAgent
	return headers
}

// LoadConfig reads configuration from defaults, an optional file, a .env file
// and environment variables, in increasing precedence.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()

	if err := godotenv.Load(); err != nil {
		log.Println("Note: No .env file found, relying on System Env Vars")
	}

	v.SetDefault("symbols", []string{"2330", "2317", "2454", "2603", "2882", "2886"})
	v.SetDefault("variant", "full")
	v.SetDefault("schedule", "")

	v.SetDefault("fetch.mode", "http")
	v.SetDefault("fetch.url_template", "https://tw.stock.yahoo.com/quote/%s")
	v.SetDefault("fetch.user_agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/133.0.0.0 Safari/537.36")
	v.SetDefault("fetch.headers", map[string]string{})
	v.SetDefault("fetch.timeout", 30*time.Second)

	v.SetDefault("browser.size", 1)
	v.SetDefault("sign.unmatched", "")
	v.SetDefault("table.path", "yahoo_stock_data.xlsx")

	v.SetDefault("cache.addr", "")
	v.SetDefault("cache.password", "")
	v.SetDefault("cache.db", 0)
	v.SetDefault("cache.ttl", time.Minute)

	v.SetDefault("server.addr", ":8000")

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.env", "local")

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(err, "failed to read config file %s", path)
		}
	}

	// "fetch.timeout" -> "FETCH_TIMEOUT"
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	bindEnv(v, "symbols", "variant", "schedule")
	bindEnv(v, "fetch.mode", "fetch.url_template", "fetch.user_agent", "fetch.timeout")
	bindEnv(v, "browser.size", "sign.unmatched", "table.path")
	bindEnv(v, "cache.addr", "cache.password", "cache.db", "cache.ttl")
	bindEnv(v, "server.addr", "logger.level", "logger.env")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "unable to decode config into struct")
	}

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, errors.Wrap(err, "invalid config")
	}

	return &cfg, nil
}

// bindEnv is a helper to bind multiple keys at once
func bindEnv(v *viper.Viper, keys ...string) {
	for _, key := range keys {
		if err := v.BindEnv(key); err != nil {
			log.Printf("Could not bind env var for key %s: %v", key, err)
		}
	}
}
