package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config contém as configurações da aplicação
type Config struct {
	DatabasePath string
	ServerPort   string
	LogLevel     string

	AdminEmail    string
	SessionMaxAge time.Duration
	CookieSecure  bool
	LoginRate     int

	CheckInterval     time.Duration
	FetchTimeout      time.Duration
	FetchMaxSize      int64
	FetchAllowPrivate bool

	MailgunAPIKey  string
	MailgunDomain  string
	MailgunAPIBase string
	MailFrom       string

	TelegramBotToken string
	TelegramChatID   int64
}

// Load carrega as configurações das variáveis de ambiente. Valores numéricos
// inválidos caem no padrão.
func Load() (*Config, error) {
	cfg := &Config{
		DatabasePath: getEnvString("DATABASE_PATH", "./pricing.db"),
		ServerPort:   getEnvString("SERVER_PORT", "8080"),
		LogLevel:     getEnvString("LOG_LEVEL", "info"),

		AdminEmail:    strings.TrimSpace(os.Getenv("ADMIN_EMAIL")),
		SessionMaxAge: time.Duration(getEnvInt("SESSION_MAX_AGE", 86400)) * time.Second,
		CookieSecure:  getEnvBool("COOKIE_SECURE", false),
		LoginRate:     getEnvInt("LOGIN_RATE_PER_MIN", 10),

		CheckInterval:     getEnvDuration("CHECK_INTERVAL", 30*time.Minute),
		FetchTimeout:      getEnvDuration("FETCH_TIMEOUT", 15*time.Second),
		FetchMaxSize:      getEnvInt64("FETCH_MAX_SIZE", 5<<20),
		FetchAllowPrivate: getEnvBool("FETCH_ALLOW_PRIVATE", false),

		MailgunAPIKey:  os.Getenv("MAILGUN_API_KEY"),
		MailgunDomain:  os.Getenv("MAILGUN_DOMAIN"),
		MailgunAPIBase: getEnvString("MAILGUN_API_BASE", "https://api.mailgun.net/v3"),

		TelegramBotToken: os.Getenv("TELEGRAM_BOT_TOKEN"),
	}
	cfg.MailFrom = getEnvString("MAIL_FROM", "Pricing Service <do-not-reply@"+orDefault(cfg.MailgunDomain, "localhost")+">")

	if cfg.CheckInterval <= 0 {
		return nil, fmt.Errorf("CHECK_INTERVAL must be positive, got %s", cfg.CheckInterval)
	}
	if cfg.FetchTimeout <= 0 {
		return nil, fmt.Errorf("FETCH_TIMEOUT must be positive, got %s", cfg.FetchTimeout)
	}

	// Chat ID só é obrigatório quando o bot está ligado
	if chatIDStr := os.Getenv("TELEGRAM_CHAT_ID"); chatIDStr != "" {
		chatID, err := strconv.ParseInt(chatIDStr, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid TELEGRAM_CHAT_ID %q: %w", chatIDStr, err)
		}
		cfg.TelegramChatID = chatID
	}
	if cfg.TelegramBotToken != "" && cfg.TelegramChatID == 0 {
		return nil, fmt.Errorf("TELEGRAM_CHAT_ID is required when TELEGRAM_BOT_TOKEN is set")
	}

	return cfg, nil
}

// MailgunEnabled diz se há credenciais para enviar email.
func (c *Config) MailgunEnabled() bool {
	return c.MailgunAPIKey != "" && c.MailgunDomain != ""
}

// TelegramEnabled diz se o bot deve ser iniciado.
func (c *Config) TelegramEnabled() bool {
	return c.TelegramBotToken != ""
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func getEnvString(key, defaultVal string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil && v > 0 {
		return v
	}
	return defaultVal
}

func getEnvInt64(key string, defaultVal int64) int64 {
	if v, err := strconv.ParseInt(os.Getenv(key), 10, 64); err == nil && v > 0 {
		return v
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if v, err := strconv.ParseBool(os.Getenv(key)); err == nil {
		return v
	}
	return defaultVal
}

// getEnvDuration aceita "30m" ou um número puro de segundos.
func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return defaultVal
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if n, err := strconv.Atoi(v); err == nil {
		return time.Duration(n) * time.Second
	}
	return defaultVal
}
