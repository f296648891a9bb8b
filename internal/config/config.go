package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	FetchHTTP    = "http"
	FetchBrowser = "browser"

	BackendFile     = "file"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"

	ChannelConsole  = "console"
	ChannelEmail    = "email"
	ChannelTelegram = "telegram"
)

// Config is read once at startup and never mutated afterwards.
type Config struct {
	TargetURL        string        `yaml:"target_url"`
	ListingSelector  string        `yaml:"listing_selector"`
	FetchMode        string        `yaml:"fetch_mode"`
	FetchPages       int           `yaml:"fetch_pages"`
	FetchTimeout     time.Duration `yaml:"fetch_timeout"`
	BrowserWait      time.Duration `yaml:"browser_wait"`
	BrowserRemoteURL string        `yaml:"browser_remote_url"`

	SnapshotBackend string `yaml:"snapshot_backend"`
	SnapshotDir     string `yaml:"snapshot_dir"`
	SnapshotPrefix  string `yaml:"snapshot_prefix"`
	SQLitePath      string `yaml:"sqlite_path"`

	DBHost     string `yaml:"db_host"`
	DBPort     string `yaml:"db_port"`
	DBUser     string `yaml:"db_username"`
	DBPassword string `yaml:"db_password"`
	DBName     string `yaml:"db_database"`
	DBSSLMode  string `yaml:"db_sslmode"`

	NotifyChannels []string `yaml:"notify_channels"`
	Recipient      string   `yaml:"recipient"`

	SMTPHost     string `yaml:"smtp_host"`
	SMTPPort     string `yaml:"smtp_port"`
	SMTPUsername string `yaml:"smtp_username"`
	SMTPPassword string `yaml:"smtp_password"`
	SMTPFrom     string `yaml:"smtp_from"`

	TelegramToken    string `yaml:"telegram_token"`
	TelegramChat     string `yaml:"telegram_chat_id"`
	TelegramThreadID *int   `yaml:"telegram_chat_thread_id"`

	HTTPPort string `yaml:"http_port"`
	CronSpec string `yaml:"check_cron"`
}

func Defaults() Config {
	return Config{
		ListingSelector: ".jss-g13",
		FetchMode:       FetchHTTP,
		FetchPages:      1,
		FetchTimeout:    15 * time.Second,
		BrowserWait:     10 * time.Second,
		SnapshotBackend: BackendFile,
		SnapshotDir:     "snapshots",
		SnapshotPrefix:  "job_listings_",
		SQLitePath:      "jobwatch.db",
		DBHost:          "localhost",
		DBPort:          "5432",
		DBUser:          "postgres",
		DBPassword:      "postgres",
		DBName:          "jobwatch",
		DBSSLMode:       "disable",
		NotifyChannels:  []string{ChannelConsole},
		SMTPPort:        "587",
		HTTPPort:        "3000",
		CronSpec:        "@every 5m",
	}
}

// Load reads .env, then the optional YAML file named by CONFIG_FILE, then
// environment variables. Later sources win.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Defaults()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := loadYAML(path, &cfg); err != nil {
			return cfg, err
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return cfg, err
	}

	return cfg, cfg.Validate()
}

func loadYAML(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Config) error {
	cfg.TargetURL = envOrDefault("TARGET_URL", envOrDefault("URL", cfg.TargetURL))
	cfg.ListingSelector = envOrDefault("LISTING_SELECTOR", cfg.ListingSelector)
	cfg.FetchMode = strings.ToLower(envOrDefault("FETCH_MODE", cfg.FetchMode))
	cfg.BrowserRemoteURL = envOrDefault("BROWSER_REMOTE_URL", cfg.BrowserRemoteURL)

	cfg.SnapshotBackend = strings.ToLower(envOrDefault("SNAPSHOT_BACKEND", cfg.SnapshotBackend))
	cfg.SnapshotDir = envOrDefault("SNAPSHOT_DIR", cfg.SnapshotDir)
	cfg.SnapshotPrefix = envOrDefault("SNAPSHOT_PREFIX", cfg.SnapshotPrefix)
	cfg.SQLitePath = envOrDefault("SQLITE_PATH", cfg.SQLitePath)

	cfg.DBHost = envOrDefault("DB_HOST", cfg.DBHost)
	cfg.DBPort = envOrDefault("DB_PORT", cfg.DBPort)
	cfg.DBUser = envOrDefault("DB_USERNAME", cfg.DBUser)
	cfg.DBPassword = envOrDefault("DB_PASSWORD", cfg.DBPassword)
	cfg.DBName = envOrDefault("DB_DATABASE", cfg.DBName)
	cfg.DBSSLMode = envOrDefault("DB_SSLMODE", cfg.DBSSLMode)

	if channels := os.Getenv("NOTIFY_CHANNELS"); channels != "" {
		cfg.NotifyChannels = splitList(channels)
	}
	cfg.Recipient = envOrDefault("MY_EMAIL", cfg.Recipient)

	cfg.SMTPHost = envOrDefault("SMTP_HOST", cfg.SMTPHost)
	cfg.SMTPPort = envOrDefault("SMTP_PORT", cfg.SMTPPort)
	cfg.SMTPUsername = envOrDefault("SMTP_USERNAME", cfg.SMTPUsername)
	cfg.SMTPPassword = envOrDefault("SMTP_PASSWORD", cfg.SMTPPassword)
	cfg.SMTPFrom = envOrDefault("SMTP_FROM", cfg.SMTPFrom)

	cfg.TelegramToken = envOrDefault("TELEGRAM_BOT_TOKEN", cfg.TelegramToken)
	cfg.TelegramChat = envOrDefault("TELEGRAM_CHAT_ID", cfg.TelegramChat)

	cfg.HTTPPort = envOrDefault("HTTP_PORT", cfg.HTTPPort)
	cfg.CronSpec = envOrDefault("CHECK_CRON", cfg.CronSpec)

	var err error
	if cfg.FetchPages, err = envOrInt("FETCH_PAGES", cfg.FetchPages); err != nil {
		return err
	}
	if cfg.FetchTimeout, err = envOrDuration("FETCH_TIMEOUT", cfg.FetchTimeout); err != nil {
		return err
	}
	if cfg.BrowserWait, err = envOrDuration("BROWSER_WAIT", cfg.BrowserWait); err != nil {
		return err
	}

	threadID, err := envOrIntPtr("TELEGRAM_CHAT_THREAD_ID")
	if err != nil {
		return err
	}
	if threadID != nil {
		cfg.TelegramThreadID = threadID
	}
	return nil
}

func (c Config) Validate() error {
	if c.TargetURL == "" {
		return errors.New("missing TARGET_URL")
	}

	switch c.FetchMode {
	case FetchHTTP, FetchBrowser:
	default:
		return fmt.Errorf("unknown FETCH_MODE %q", c.FetchMode)
	}

	switch c.SnapshotBackend {
	case BackendFile:
		if c.SnapshotDir == "" {
			return errors.New("missing SNAPSHOT_DIR")
		}
	case BackendSQLite:
		if c.SQLitePath == "" {
			return errors.New("missing SQLITE_PATH")
		}
	case BackendPostgres:
		if c.DBHost == "" || c.DBUser == "" || c.DBName == "" {
			return errors.New("missing database configuration")
		}
	default:
		return fmt.Errorf("unknown SNAPSHOT_BACKEND %q", c.SnapshotBackend)
	}

	if len(c.NotifyChannels) == 0 {
		return errors.New("NOTIFY_CHANNELS is empty")
	}
	for _, channel := range c.NotifyChannels {
		switch channel {
		case ChannelConsole:
		case ChannelEmail:
			if c.SMTPHost == "" || c.Recipient == "" {
				return errors.New("email channel needs SMTP_HOST and MY_EMAIL")
			}
		case ChannelTelegram:
			if c.TelegramToken == "" || c.TelegramChat == "" {
				return errors.New("missing TELEGRAM_BOT_TOKEN or TELEGRAM_CHAT_ID")
			}
		default:
			return fmt.Errorf("unknown notify channel %q", channel)
		}
	}
	return nil
}

func (c Config) PostgresDSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s", c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName, c.DBSSLMode)
}

func envOrDefault(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func envOrInt(key string, fallback int) (int, error) {
	val := os.Getenv(key)
	if val == "" {
		return fallback, nil
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback, fmt.Errorf("invalid %s: %w", key, err)
	}
	return parsed, nil
}

func envOrDuration(key string, fallback time.Duration) (time.Duration, error) {
	val := os.Getenv(key)
	if val == "" {
		return fallback, nil
	}
	parsed, err := time.ParseDuration(val)
	if err != nil {
		return fallback, fmt.Errorf("invalid %s: %w", key, err)
	}
	return parsed, nil
}

func envOrIntPtr(key string) (*int, error) {
	val := os.Getenv(key)
	if val == "" {
		return nil, nil
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return nil, fmt.Errorf("invalid %s: %w", key, err)
	}
	return &parsed, nil
}

func splitList(val string) []string {
	var out []string
	for _, part := range strings.Split(val, ",") {
		if part = strings.ToLower(strings.TrimSpace(part)); part != "" {
			out = append(out, part)
		}
	}
	return out
}
