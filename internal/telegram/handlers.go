package telegram

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"tradecopier/internal/models"
	"tradecopier/storage"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Handler обрабатывает команды бота
type Handler struct {
	store    *storage.Storage
	telegram *Service
	adminID  int64
	logger   *slog.Logger
}

// NewHandler создает новый обработчик
func NewHandler(store *storage.Storage, telegram *Service, adminID int64, logger *slog.Logger) *Handler {
	return &Handler{
		store:    store,
		telegram: telegram,
		adminID:  adminID,
		logger:   logger,
	}
}

// HandleUpdate обрабатывает обновление от Telegram
func (h *Handler) HandleUpdate(update tgbotapi.Update) {
	if update.Message == nil || !update.Message.IsCommand() {
		return
	}

	chatID := update.Message.Chat.ID

	// Бот обслуживает только админа
	if chatID != h.adminID {
		h.logger.Warn("Command from unknown chat", slog.Int64("chat_id", chatID))
		h.telegram.SendMessage(chatID, "⛔ Доступ запрещен")

		return
	}

	cmd := update.Message.Command()
	args := strings.Fields(update.Message.CommandArguments())

	h.logger.Info("Command received",
		slog.Int64("chat_id", chatID),
		slog.String("command", cmd),
		slog.Any("args", args))

	var response string

	switch cmd {
	case "start", "help":
		response = h.handleHelp()
	case "status":
		response = h.handleStatus()
	case "stats":
		response = h.handleStats(args)
	case "trades":
		response = h.handleTrades(args)
	case "add_source":
		response = h.handleAddSource(args)
	case "del_source":
		response = h.handleDelSource(args)
	case "add_copy":
		response = h.handleAddCopy(args)
	case "del_copy":
		response = h.handleDelCopy(args)
	case "enable":
		response = h.handleSetActive(args, true)
	case "disable":
		response = h.handleSetActive(args, false)
	case "map":
		response = h.handleMap(args)
	case "unmap":
		response = h.handleUnmap(args)
	case "set_map":
		response = h.handleSetMap(args)
	case "set_copy":
		response = h.handleSetCopy(args)
	case "reset_dd":
		response = h.handleResetDD(args)
	default:
		response = "❌ Неизвестная команда. /help"
	}

	h.telegram.SendMessage(chatID, response)
}

func (h *Handler) handleHelp() string {
	return `📡 Trade Copier Bot

📋 Аккаунты:
/add_source <name> - Добавить сорс-аккаунт
/del_source <S_id> - Удалить сорс-аккаунт
/add_copy <name> <copy_id> [daily_dd%] [alert_dd%]
/del_copy <copy_id> - Удалить копи-аккаунт
/enable <copy_id> - Включить
/disable <copy_id> - Отключить

🔗 Подписки:
/map <copy_id> <S_id> <MULTIPLIER|FIXED> <value> [ALL|GOLD_ONLY|SYMBOLS] [symbols]
/unmap <copy_id> <S_id>
/set_map <copy_id> <S_id> <field> <value>
/set_copy <copy_id> <field> <value>
/reset_dd <copy_id> - Одноразовый сброс дневной просадки

📈 Информация:
/status - Отчет по копи-аккаунтам
/stats [today|7d|all] - Статистика сделок
/trades [limit] - Последние сделки
/help - Помощь`
}

func (h *Handler) handleStatus() string {
	report, err := h.store.ListReport()
	if err != nil {
		return fmt.Sprintf("❌ Ошибка: %v", err)
	}

	if len(report) == 0 {
		return "📝 Нет копи-аккаунтов. /add_copy"
	}

	var lines []string
	lines = append(lines, "📋 КОПИ-АККАУНТЫ:\n")

	for _, copyAcc := range report {
		stateIcon := "🛑"
		if copyAcc.IsActive {
			stateIcon = "✅"
		}

		lines = append(lines, fmt.Sprintf("%s %s (%s)\n▫️ Daily DD: %.1f%%, Alert DD: %.1f%%",
			stateIcon, copyAcc.Name, copyAcc.CopyIDStr,
			copyAcc.Settings.DailyDrawdownPercent, copyAcc.Settings.AlertDrawdownPercent))

		if copyAcc.Settings.ResetDDFlag {
			lines = append(lines, "▫️ Ожидает сброс просадки")
		}

		if len(copyAcc.Mappings) == 0 {
			lines = append(lines, "▫️ Подписок нет\n")
			continue
		}

		for _, m := range copyAcc.Mappings {
			mapIcon := "🔗"
			if !m.IsEnabled {
				mapIcon = "⛓️‍💥"
			}

			lines = append(lines, fmt.Sprintf("%s %s (%s): %s %.2f",
				mapIcon, m.SourceName, m.SourceIDStr, m.VolumeType, m.VolumeValue))
		}

		lines = append(lines, "")
	}

	return strings.Join(lines, "\n")
}

func (h *Handler) handleStats(args []string) string {
	window := "all"
	if len(args) > 0 {
		window = args[0]
	}

	stats, err := h.store.Stats(window)
	if err != nil {
		return fmt.Sprintf("❌ Ошибка: %v", err)
	}

	winRate := 0.0
	if stats.Trades > 0 {
		winRate = float64(stats.Wins) / float64(stats.Trades) * 100
	}

	return fmt.Sprintf(`📊 СТАТИСТИКА (%s)

▫️ Сделок: %d
▫️ Прибыльных: %d
▫️ Убыточных: %d
▫️ Win rate: %.1f%%
▫️ Итого: %.2f`,
		window, stats.Trades, stats.Wins, stats.Losses, winRate, stats.TotalProfit)
}

func (h *Handler) handleTrades(args []string) string {
	limit := 10
	if len(args) > 0 {
		if n, err := strconv.Atoi(args[0]); err == nil {
			limit = n
		}
	}

	trades, err := h.store.RecentTrades(limit)
	if err != nil {
		return fmt.Sprintf("❌ Ошибка: %v", err)
	}

	if len(trades) == 0 {
		return "📝 История пуста"
	}

	var lines []string
	lines = append(lines, "📜 ПОСЛЕДНИЕ СДЕЛКИ:\n")

	for _, t := range trades {
		icon := "✅"
		if t.Profit < 0 {
			icon = "🔻"
		}

		lines = append(lines, fmt.Sprintf("%s %s  %s  %.2f  #%d",
			icon, t.Timestamp.Format("02.01 15:04"), t.Symbol, t.Profit, t.SourceTicket))
	}

	return strings.Join(lines, "\n")
}

func (h *Handler) handleAddSource(args []string) string {
	if len(args) < 1 {
		return "❌ Формат: /add_source <name>"
	}

	acc, err := h.store.AddSource(strings.Join(args, " "))
	if err != nil {
		return fmt.Sprintf("❌ Ошибка: %v", err)
	}

	return fmt.Sprintf(`✅ Сорс-аккаунт добавлен

▫️ Имя: %s
▫️ ID: %s

Пропиши %s в мастер-эксперте.`, acc.Name, acc.SourceIDStr, acc.SourceIDStr)
}

func (h *Handler) handleDelSource(args []string) string {
	if len(args) < 1 {
		return "❌ Формат: /del_source <S_id>"
	}

	existed, err := h.store.DeleteSource(args[0])
	if err != nil {
		return fmt.Sprintf("❌ Ошибка: %v", err)
	}
	if !existed {
		return fmt.Sprintf("❌ Сорс %s не найден", args[0])
	}

	return fmt.Sprintf("✅ Сорс %s удален, подписки сняты", args[0])
}

func (h *Handler) handleAddCopy(args []string) string {
	if len(args) < 2 {
		return "❌ Формат: /add_copy <name> <copy_id> [daily_dd%] [alert_dd%]"
	}

	ddPercent, alertPercent := 5.0, 4.0

	var err1, err2 error
	if len(args) > 2 {
		ddPercent, err1 = strconv.ParseFloat(args[2], 64)
	}
	if len(args) > 3 {
		alertPercent, err2 = strconv.ParseFloat(args[3], 64)
	}
	if err1 != nil || err2 != nil {
		return "❌ Проценты просадки должны быть числами"
	}

	acc, err := h.store.AddCopy(args[0], args[1], ddPercent, alertPercent)
	if err != nil {
		return fmt.Sprintf("❌ Ошибка: %v", err)
	}

	return fmt.Sprintf(`✅ Копи-аккаунт добавлен

▫️ Имя: %s
▫️ ID: %s

Дальше: /map %s <S_id> ...`, acc.Name, acc.CopyIDStr, acc.CopyIDStr)
}

func (h *Handler) handleDelCopy(args []string) string {
	if len(args) < 1 {
		return "❌ Формат: /del_copy <copy_id>"
	}

	existed, err := h.store.DeleteCopy(args[0])
	if err != nil {
		return fmt.Sprintf("❌ Ошибка: %v", err)
	}
	if !existed {
		return fmt.Sprintf("❌ Копи-аккаунт %s не найден", args[0])
	}

	return fmt.Sprintf("✅ Копи-аккаунт %s удален, история сделок сохранена", args[0])
}

func (h *Handler) handleSetActive(args []string, active bool) string {
	if len(args) < 1 {
		if active {
			return "❌ Формат: /enable <copy_id>"
		}

		return "❌ Формат: /disable <copy_id>"
	}

	if err := h.store.SetCopyActive(args[0], active); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return fmt.Sprintf("❌ Копи-аккаунт %s не найден", args[0])
		}

		return fmt.Sprintf("❌ Ошибка: %v", err)
	}

	if active {
		return fmt.Sprintf("✅ Копи-аккаунт %s включен", args[0])
	}

	return fmt.Sprintf("🛑 Копи-аккаунт %s отключен, конфиг выдаваться не будет", args[0])
}

func (h *Handler) handleMap(args []string) string {
	if len(args) < 4 {
		return "❌ Формат: /map <copy_id> <S_id> <MULTIPLIER|FIXED> <value> [ALL|GOLD_ONLY|SYMBOLS] [symbols]"
	}

	value, err := strconv.ParseFloat(args[3], 64)
	if err != nil {
		return "❌ Значение объема должно быть числом"
	}

	copyMode := models.CopyModeAll
	if len(args) > 4 {
		copyMode = strings.ToUpper(args[4])
	}

	symbols := ""
	if len(args) > 5 {
		symbols = strings.ToUpper(args[5])
	}

	err = h.store.CreateMapping(storage.CreateMappingParams{
		CopyIDStr:      args[0],
		SourceIDStr:    args[1],
		VolumeType:     strings.ToUpper(args[2]),
		VolumeValue:    value,
		CopyMode:       copyMode,
		AllowedSymbols: symbols,
	})
	if err != nil {
		return fmt.Sprintf("❌ Ошибка: %v", err)
	}

	return fmt.Sprintf("✅ Подписка %s → %s создана", args[0], args[1])
}

func (h *Handler) handleUnmap(args []string) string {
	if len(args) < 2 {
		return "❌ Формат: /unmap <copy_id> <S_id>"
	}

	existed, err := h.store.DeleteMapping(args[0], args[1])
	if err != nil {
		return fmt.Sprintf("❌ Ошибка: %v", err)
	}
	if !existed {
		return fmt.Sprintf("❌ Подписка %s → %s не найдена", args[0], args[1])
	}

	return fmt.Sprintf("✅ Подписка %s → %s удалена", args[0], args[1])
}

func (h *Handler) handleSetMap(args []string) string {
	if len(args) < 4 {
		return `❌ Формат: /set_map <copy_id> <S_id> <field> <value>

Поля: is_enabled, copy_mode, allowed_symbols, volume_type,
volume_value, max_lot_size, max_concurrent_trades, source_drawdown_limit`
	}

	fields := map[string]any{args[2]: strings.Join(args[3:], " ")}

	if err := h.store.UpdateMappingSettings(args[0], args[1], fields); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return fmt.Sprintf("❌ Подписка %s → %s не найдена", args[0], args[1])
		}

		return fmt.Sprintf("❌ Ошибка: %v", err)
	}

	return fmt.Sprintf("✅ %s обновлено для %s → %s", args[2], args[0], args[1])
}

func (h *Handler) handleSetCopy(args []string) string {
	if len(args) < 3 {
		return `❌ Формат: /set_copy <copy_id> <field> <value>

Поля: daily_drawdown_percent, alert_drawdown_percent, reset_dd_flag`
	}

	fields := map[string]any{args[1]: args[2]}

	if err := h.store.UpdateCopySettings(args[0], fields); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return fmt.Sprintf("❌ Копи-аккаунт %s не найден", args[0])
		}

		return fmt.Sprintf("❌ Ошибка: %v", err)
	}

	return fmt.Sprintf("✅ %s обновлено для %s", args[1], args[0])
}

func (h *Handler) handleResetDD(args []string) string {
	if len(args) < 1 {
		return "❌ Формат: /reset_dd <copy_id>"
	}

	if err := h.store.SetResetDDFlag(args[0]); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return fmt.Sprintf("❌ Копи-аккаунт %s не найден", args[0])
		}

		return fmt.Sprintf("❌ Ошибка: %v", err)
	}

	return fmt.Sprintf("✅ Флаг сброса просадки для %s взведен, снимется при следующей выдаче конфига", args[0])
}
