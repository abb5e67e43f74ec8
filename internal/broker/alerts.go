package broker

import (
	"fmt"

	"tradecopier/internal/models"
)

// Форматирование оповещений для операторского канала.
// Тексты уходят админу как есть, поэтому они человекочитаемые.

func formatMasterAlert(event models.Event) string {
	switch e := event.(type) {
	case models.TradeOpen:
		side := "BUY"
		if e.PositionType != 0 {
			side = "SELL"
		}

		return fmt.Sprintf("✅ Сигнал: открытие позиции\n\n▫️ Сорс: %s\n▫️ Символ: %s\n▫️ Тип: %s\n▫️ Тикет сорса: %d",
			e.SourceIDStr, e.Symbol, side, e.PositionID)
	case models.TradeModify:
		return fmt.Sprintf("✏️ Сигнал: изменение SL/TP\n\n▫️ Сорс: %s\n▫️ Символ: %s\n▫️ SL: %.2f\n▫️ TP: %.2f",
			e.SourceIDStr, e.Symbol, e.PositionSL, e.PositionTP)
	case models.TradeCloseMaster:
		return fmt.Sprintf("☑️ Сигнал: закрытие (мастер)\n\n▫️ Сорс: %s\n▫️ Символ: %s\n▫️ Профит: %.2f\n▫️ Тикет сорса: %d",
			e.SourceIDStr, e.Symbol, e.Profit, e.PositionID)
	case models.TradePartialClose:
		return fmt.Sprintf("◽️ Сигнал: частичное закрытие (мастер)\n\n▫️ Сорс: %s\n▫️ Символ: %s\n▫️ Закрытый объём: %.2f\n▫️ Профит: %.2f",
			e.SourceIDStr, e.Symbol, e.VolumeClosed, e.Profit)
	}

	return ""
}

func formatCopyClosedAlert(e models.TradeClosedCopy) string {
	emoji := "✅"
	if e.Profit < 0 {
		emoji = "🔻"
	}

	return fmt.Sprintf("%s Скопированная сделка закрыта\n\n▫️ Копи-аккаунт: %s\n▫️ Сорс: %s\n▫️ Символ: %s\n▫️ Профит/убыток: %.2f\n▫️ Тикет сорса: %d",
		emoji, e.CopyIDStr, e.SourceIDStr, e.Symbol, e.Profit, e.SourceTicket)
}

func formatStoreFailureAlert(e models.TradeClosedCopy, err error) string {
	return fmt.Sprintf("⚠️ Не удалось сохранить историю сделки\n\n▫️ Копи-аккаунт: %s\n▫️ Символ: %s\n▫️ Ошибка: %v",
		e.CopyIDStr, e.Symbol, err)
}

func formatEAErrorAlert(e models.EAError) string {
	eaID := e.EAID
	if eaID == "" {
		eaID = "EA"
	}

	return fmt.Sprintf("🚨 Ошибка эксперта\n\n%s:\n%s", eaID, e.Message)
}

func formatUnknownAlert(kind string) string {
	if kind == "" {
		kind = "<пусто>"
	}

	return fmt.Sprintf("❓ Нераспознанное событие: %s", kind)
}

func formatPanicAlert(v any) string {
	return fmt.Sprintf("🚨 Внутренняя ошибка обработчика сигналов: %v", v)
}
