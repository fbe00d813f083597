package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"
)

// DefaultPath is used when CONFIG_PATH is not set.
const DefaultPath = "configs/config.yaml"

// Config holds all application configuration.
type Config struct {
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	Providers struct {
		FinnhubAPIKey    string `yaml:"finnhub_api_key"`
		CoinGeckoAPIKey  string `yaml:"coingecko_api_key"`
		YahooBaseURL     string `yaml:"yahoo_base_url"`
		FinnhubBaseURL   string `yaml:"finnhub_base_url"`
		BinanceBaseURL   string `yaml:"binance_base_url"`
		CoinGeckoBaseURL string `yaml:"coingecko_base_url"`
		RatePerMinute    int    `yaml:"rate_per_minute"`
		FilterCalendar   *bool  `yaml:"filter_calendar"`
	} `yaml:"providers"`
	Network struct {
		Timeout            time.Duration `yaml:"timeout"`
		ItemTimeout        time.Duration `yaml:"item_timeout"`
		ConcurrentRequests int           `yaml:"concurrent_requests"`
		Proxy              string        `yaml:"proxy"`
	} `yaml:"network"`
	Watchlist struct {
		File     string `yaml:"file"`
		RedisURL string `yaml:"redis_url"`
		RedisKey string `yaml:"redis_key"`
	} `yaml:"watchlist"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	Schedule struct {
		CheckCron  string `yaml:"check_cron"`
		RunOnStart bool   `yaml:"run_on_start"`
	} `yaml:"schedule"`
	Server struct {
		Addr string `yaml:"addr"`
	} `yaml:"server"`
	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`
}

// TelegramEnabled reports whether alerts go to Telegram instead of the log.
func (c *Config) TelegramEnabled() bool {
	return c.Telegram.BotToken != "" && c.Telegram.ChatID != ""
}

// CalendarFilter reports whether equity bars are filtered by exchange calendar.
func (c *Config) CalendarFilter() bool {
	return c.Providers.FilterCalendar == nil || *c.Providers.FilterCalendar
}

// Path returns CONFIG_PATH or the default location.
func Path() string {
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		return v
	}
	return DefaultPath
}

// Load reads an optional .env file, the YAML config at path, then applies
// environment variable overrides and defaults.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyEnv() error {
	str := map[string]*string{
		"TELEGRAM_BOT_TOKEN": &c.Telegram.BotToken,
		"TELEGRAM_CHAT_ID":   &c.Telegram.ChatID,
		"FINNHUB_API_KEY":    &c.Providers.FinnhubAPIKey,
		"COINGECKO_API_KEY":  &c.Providers.CoinGeckoAPIKey,
		"BINANCE_BASE_URL":   &c.Providers.BinanceBaseURL,
		"HTTPS_PROXY":        &c.Network.Proxy,
		"REDIS_URL":          &c.Watchlist.RedisURL,
		"WATCHLIST_FILE":     &c.Watchlist.File,
		"SQLITE_PATH":        &c.Database.SQLitePath,
		"HTTP_ADDR":          &c.Server.Addr,
		"LOG_LEVEL":          &c.Log.Level,
	}
	for key, dst := range str {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}

	// An explicitly empty CHECK_CRON disables the schedule.
	if v, ok := os.LookupEnv("CHECK_CRON"); ok {
		c.Schedule.CheckCron = v
		if v == "" {
			c.Schedule.CheckCron = "-"
		}
	}
	if v := os.Getenv("RUN_ON_START"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("RUN_ON_START: %w", err)
		}
		c.Schedule.RunOnStart = b
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.Providers.RatePerMinute == 0 {
		c.Providers.RatePerMinute = 60
	}
	if c.Network.Timeout == 0 {
		c.Network.Timeout = 10 * time.Second
	}
	if c.Network.ItemTimeout == 0 {
		c.Network.ItemTimeout = 30 * time.Second
	}
	if c.Network.ConcurrentRequests == 0 {
		c.Network.ConcurrentRequests = 4
	}
	if c.Watchlist.File == "" {
		c.Watchlist.File = "data/watchlist.json"
	}
	if c.Database.SQLitePath == "" {
		c.Database.SQLitePath = "data/signalsentinel.db"
	}
	if c.Watchlist.RedisKey == "" {
		c.Watchlist.RedisKey = "watchlist"
	}
	switch c.Schedule.CheckCron {
	case "":
		c.Schedule.CheckCron = "0 30 16 * * 1-5"
	case "-":
		c.Schedule.CheckCron = ""
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
}

// Validate checks that configured values are usable.
func (c *Config) Validate() error {
	if (c.Telegram.BotToken == "") != (c.Telegram.ChatID == "") {
		return fmt.Errorf("telegram.bot_token and telegram.chat_id must be set together")
	}
	if c.Network.Timeout < 0 || c.Network.ItemTimeout < 0 {
		return fmt.Errorf("network timeouts must be positive")
	}
	if c.Network.ConcurrentRequests < 0 {
		return fmt.Errorf("network.concurrent_requests must be positive")
	}
	if c.Schedule.CheckCron != "" {
		parser := cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
		if _, err := parser.Parse(c.Schedule.CheckCron); err != nil {
			return fmt.Errorf("schedule.check_cron: %w", err)
		}
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("log.format must be text or json, got %q", c.Log.Format)
	}
	return nil
}
