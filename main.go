package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tradecopier/internal/api"
	"tradecopier/internal/auth"
	"tradecopier/internal/broker"
	"tradecopier/internal/config"
	"tradecopier/internal/telegram"
	"tradecopier/storage"

	"github.com/lmittmann/tint"
)

func main() {
	// Конфигурация slog для вывода в файл и stdout
	logFile, err := os.OpenFile("trade_copier.log", os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o666)
	if err != nil {
		log.Fatal("Failed to open log file:", err)
	}
	defer logFile.Close()

	// Pretty handler для stdout с цветами
	prettyHandler := tint.NewHandler(os.Stdout, &tint.Options{
		Level:      slog.LevelDebug,
		TimeFormat: time.Kitchen, // "3:04PM"
		AddSource:  false,
		NoColor:    false,
	})

	// Обычный текстовый handler для файла
	fileHandler := slog.NewTextHandler(logFile, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	})

	// Мультиплексируем логи в оба handler'а
	logger := slog.New(&multiHandler{
		handlers: []slog.Handler{prettyHandler, fileHandler},
	})

	logger.Info("=== Trade Copier Signal Broker ===")

	// Загрузка конфигурации
	cfg := config.Load(logger)

	// Инициализация хранилища
	store, err := storage.New(cfg.DBPath, logger)
	if err != nil {
		logger.Error("Failed to initialize storage", slog.Any("error", err))
		os.Exit(1)
	}
	defer store.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Очередь оповещений: брокер пишет, отправщик читает
	alerts := broker.NewAlertQueue()

	// Инициализация брокера сигналов
	b := broker.New(broker.Config{
		ConfigAddr:   cfg.ConfigAddr,
		SignalAddr:   cfg.SignalAddr,
		PublishAddr:  cfg.PublishAddr,
		StoreWorkers: cfg.StoreWorkers,
	}, store, alerts, logger)

	if err := b.Listen(); err != nil {
		logger.Error("Failed to bind broker ports", slog.Any("error", err))
		os.Exit(1)
	}

	go b.Serve(ctx)

	// Telegram бот опционален: без токена оповещения уходят в лог
	if cfg.TelegramToken != "" {
		tgService, err := telegram.New(cfg.TelegramToken, logger)
		if err != nil {
			logger.Error("Failed to initialize Telegram service", slog.Any("error", err))
			os.Exit(1)
		}

		go tgService.RunAlertSender(ctx, alerts, cfg.AdminID)

		handler := telegram.NewHandler(store, tgService, cfg.AdminID, logger)

		go func() {
			updates := tgService.GetUpdatesChan()

			for update := range updates {
				// Обработка каждого обновления в отдельной горутине
				go handler.HandleUpdate(update)
			}
		}()
	} else {
		go drainAlertsToLog(ctx, alerts, logger)
	}

	// HTTP-сервер веб-консоли
	authService := auth.NewService(cfg.JWTSecret, 24*time.Hour)
	apiHandler := api.New(store, b, authService, logger)

	httpServer := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: apiHandler.SetupRouter(),
	}

	go func() {
		logger.Info("🌐 Web console listening", slog.String("addr", cfg.HTTPAddr))

		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server failed", slog.Any("error", err))
		}
	}()

	logger.Info("🚀 Broker is running",
		slog.String("config_addr", b.ConfigAddr()),
		slog.String("signal_addr", b.SignalAddr()),
		slog.String("publish_addr", b.PublishAddr()))

	<-ctx.Done()

	logger.Info("⏳ Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP shutdown failed", slog.Any("error", err))
	}

	logger.Info("👋 Bye")
}

// drainAlertsToLog пишет оповещения в лог, когда бот не настроен
func drainAlertsToLog(ctx context.Context, alerts *broker.AlertQueue, logger *slog.Logger) {
	for {
		msg, err := alerts.Get(ctx)
		if err != nil {
			return
		}

		logger.Info("🔔 Alert", slog.String("text", msg))
	}
}

// multiHandler отправляет логи в несколько handlers одновременно
type multiHandler struct {
	handlers []slog.Handler
}

func (m *multiHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range m.handlers {
		if h.Enabled(ctx, level) {
			return true
		}
	}

	return false
}

func (m *multiHandler) Handle(ctx context.Context, record slog.Record) error {
	for _, h := range m.handlers {
		if err := h.Handle(ctx, record); err != nil {
			return err
		}
	}

	return nil
}

func (m *multiHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	handlers := make([]slog.Handler, len(m.handlers))
	for i, h := range m.handlers {
		handlers[i] = h.WithAttrs(attrs)
	}

	return &multiHandler{handlers: handlers}
}

func (m *multiHandler) WithGroup(name string) slog.Handler {
	handlers := make([]slog.Handler, len(m.handlers))
	for i, h := range m.handlers {
		handlers[i] = h.WithGroup(name)
	}

	return &multiHandler{handlers: handlers}
}
