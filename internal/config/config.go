package config

import (
	"log/slog"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config содержит конфигурацию приложения
type Config struct {
	DBPath string

	// Адреса трёх портов брокера
	ConfigAddr  string
	SignalAddr  string
	PublishAddr string

	// Адрес HTTP-сервера веб-консоли
	HTTPAddr string

	TelegramToken string // пустой = бот выключен, оповещения идут в лог
	AdminID       int64

	JWTSecret    string
	StoreWorkers int
}

// Load загружает конфигурацию из переменных окружения (.env опционален)
func Load(logger *slog.Logger) *Config {
	_ = godotenv.Load()

	cfg := &Config{
		DBPath:        getenv("DB_PATH", "trade_copier.db"),
		ConfigAddr:    getenv("CONFIG_ADDR", ":5557"),
		SignalAddr:    getenv("SIGNAL_ADDR", ":5555"),
		PublishAddr:   getenv("PUBLISH_ADDR", ":5556"),
		HTTPAddr:      getenv("HTTP_ADDR", ":8080"),
		TelegramToken: os.Getenv("TELEGRAM_BOT_TOKEN"),
		JWTSecret:     os.Getenv("JWT_SECRET"),
		StoreWorkers:  4,
	}

	if cfg.TelegramToken == "" {
		logger.Warn("⚠️  TELEGRAM_BOT_TOKEN not set - alerts will go to the log only")
	}

	if adminID := os.Getenv("ADMIN_ID"); adminID != "" {
		id, err := strconv.ParseInt(adminID, 10, 64)
		if err != nil {
			logger.Error("❌ ADMIN_ID is not a number", slog.String("value", adminID))
			os.Exit(1)
		}
		cfg.AdminID = id
	} else if cfg.TelegramToken != "" {
		logger.Error("❌ ADMIN_ID is required when the Telegram bot is enabled")
		os.Exit(1)
	}

	if cfg.JWTSecret == "" {
		cfg.JWTSecret = "default-secret-change-me-in-production"

		logger.Warn("⚠️  JWT_SECRET not set, using default (insecure!)")
	}

	if workers := os.Getenv("STORE_WORKERS"); workers != "" {
		n, err := strconv.Atoi(workers)
		if err != nil || n <= 0 {
			logger.Error("❌ STORE_WORKERS must be a positive number", slog.String("value", workers))
			os.Exit(1)
		}
		cfg.StoreWorkers = n
	}

	return cfg
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}

	return fallback
}
