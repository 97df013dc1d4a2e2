package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Store drivers
const (
	DriverFirestore = "firestore"
	DriverSQLite    = "sqlite"
	DriverMemory    = "memory"
)

// StoreConfig selects and connects the persistence backend
type StoreConfig struct {
	Driver                string `env:"STORE_DRIVER" envDefault:"firestore"`
	ServiceAccountKeyPath string `env:"FIREBASE_SERVICE_ACCOUNT_KEY_PATH"`
	ProjectID             string `env:"FIREBASE_PROJECT_ID"`
	SQLitePath            string `env:"SQLITE_PATH" envDefault:"questionnaire.db"`
}

type WhatsAppConfig struct {
	VerifyToken string `env:"WHATSAPP_VERIFY_TOKEN"`
	AccessToken string `env:"WHATSAPP_ACCESS_TOKEN"`
	APIURL      string `env:"WHATSAPP_API_URL" envDefault:"https://graph.facebook.com/v22.0"`
	AppSecret   string `env:"WHATSAPP_APP_SECRET"`
}

type MailConfig struct {
	User       string   `env:"EMAIL_USER"`
	Password   string   `env:"EMAIL_PASS"`
	SMTPHost   string   `env:"SMTP_HOST" envDefault:"smtp.gmail.com"`
	SMTPPort   int      `env:"SMTP_PORT" envDefault:"587"`
	Recipients []string `env:"NOTIFY_EMAILS" envSeparator:","`
}

type Config struct {
	Store            StoreConfig
	WhatsApp         WhatsAppConfig
	Mail             MailConfig
	Port             string        `env:"PORT" envDefault:"3000"`
	TelegramBotToken string        `env:"TELEGRAM_BOT_TOKEN"`
	CatalogCacheTTL  time.Duration `env:"CATALOG_CACHE_TTL" envDefault:"30s"`
	DispatchTimeout  time.Duration `env:"DISPATCH_TIMEOUT" envDefault:"15s"`
	LogLevel         string        `env:"LOG_LEVEL" envDefault:"info"`
}

// LoadDotEnv reads .env into the process environment when the file exists
func LoadDotEnv() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}
	return nil
}

// Load parses the process environment
func Load() (Config, error) {
	return parse(env.Options{})
}

// LoadFrom parses the given variables instead of the process environment
func LoadFrom(vars map[string]string) (Config, error) {
	return parse(env.Options{Environment: vars})
}

func parse(opts env.Options) (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	cfg.Mail.Recipients = cleanList(cfg.Mail.Recipients)
	cfg.Store.Driver = strings.ToLower(strings.TrimSpace(cfg.Store.Driver))
	return cfg, nil
}

// ValidateStore checks the settings every command needs
func (c Config) ValidateStore() error {
	switch c.Store.Driver {
	case DriverFirestore:
		if c.Store.ServiceAccountKeyPath == "" && c.Store.ProjectID == "" {
			return errors.New("FIREBASE_SERVICE_ACCOUNT_KEY_PATH or FIREBASE_PROJECT_ID must be set")
		}
	case DriverSQLite:
		if strings.TrimSpace(c.Store.SQLitePath) == "" {
			return errors.New("SQLITE_PATH must be set")
		}
	case DriverMemory:
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.Store.Driver)
	}
	return nil
}

// ValidateServe checks everything the server needs at start
func (c Config) ValidateServe() error {
	var errs []error
	if err := c.ValidateStore(); err != nil {
		errs = append(errs, err)
	}
	required := []struct {
		name, value string
	}{
		{"WHATSAPP_VERIFY_TOKEN", c.WhatsApp.VerifyToken},
		{"WHATSAPP_ACCESS_TOKEN", c.WhatsApp.AccessToken},
		{"EMAIL_USER", c.Mail.User},
		{"EMAIL_PASS", c.Mail.Password},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			errs = append(errs, fmt.Errorf("%s must be set", r.name))
		}
	}
	return errors.Join(errs...)
}

// ListenAddr is the address for net/http
func (c Config) ListenAddr() string {
	if strings.Contains(c.Port, ":") {
		return c.Port
	}
	return ":" + c.Port
}

func cleanList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
