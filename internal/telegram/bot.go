package telegram

import (
	"context"
	"log/slog"

	"tradecopier/internal/broker"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Service управляет Telegram ботом
type Service struct {
	bot    *tgbotapi.BotAPI
	logger *slog.Logger
}

// New создает новый Telegram сервис
func New(token string, logger *slog.Logger) (*Service, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}

	logger.Info("✅ Bot authorized", slog.String("username", bot.Self.UserName))

	// Устанавливаем команды для меню
	commands := []tgbotapi.BotCommand{
		{Command: "start", Description: "Начать работу"},
		{Command: "status", Description: "Отчет по копи-аккаунтам"},
		{Command: "stats", Description: "Статистика сделок [today|7d|all]"},
		{Command: "trades", Description: "Последние сделки [limit]"},
		{Command: "add_source", Description: "Добавить сорс-аккаунт"},
		{Command: "del_source", Description: "Удалить сорс-аккаунт"},
		{Command: "add_copy", Description: "Добавить копи-аккаунт"},
		{Command: "del_copy", Description: "Удалить копи-аккаунт"},
		{Command: "enable", Description: "Включить копи-аккаунт"},
		{Command: "disable", Description: "Отключить копи-аккаунт"},
		{Command: "map", Description: "Подписать копи на сорс"},
		{Command: "unmap", Description: "Отписать копи от сорса"},
		{Command: "set_map", Description: "Изменить настройку подписки"},
		{Command: "set_copy", Description: "Изменить настройку аккаунта"},
		{Command: "reset_dd", Description: "Сбросить дневную просадку"},
		{Command: "help", Description: "Помощь"},
	}

	cfg := tgbotapi.NewSetMyCommands(commands...)
	_, err = bot.Request(cfg)
	if err != nil {
		logger.Error("Failed to set commands", slog.Any("error", err))
	} else {
		logger.Info("✅ Bot commands set")
	}

	return &Service{
		bot:    bot,
		logger: logger,
	}, nil
}

// GetUpdatesChan возвращает канал обновлений
func (s *Service) GetUpdatesChan() tgbotapi.UpdatesChannel {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	return s.bot.GetUpdatesChan(u)
}

// SendMessage отправляет текстовое сообщение
func (s *Service) SendMessage(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	_, err := s.bot.Send(msg)

	return err
}

// RunAlertSender пересылает алерты брокера админу до отмены контекста.
// Ошибка отправки не останавливает цикл, алерт при этом теряется.
func (s *Service) RunAlertSender(ctx context.Context, alerts *broker.AlertQueue, adminID int64) {
	for {
		text, err := alerts.Get(ctx)
		if err != nil {
			return
		}

		if err := s.SendMessage(adminID, text); err != nil {
			s.logger.Error("Failed to send alert",
				slog.Int64("chat_id", adminID),
				slog.Any("error", err))
		}
	}
}
