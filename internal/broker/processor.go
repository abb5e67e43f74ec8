package broker

import (
	"context"
	"log/slog"

	"tradecopier/internal/models"
)

// runProcessor - единственный потребитель очереди обработки.
// Забирает сигналы строго по порядку поступления и классифицирует их.
func (b *Broker) runProcessor(ctx context.Context) {
	b.logger.Info("⚙️ Signal processor started")

	for {
		sig, err := b.processing.Get(ctx)
		if err != nil {
			return
		}

		b.processOne(ctx, sig)
	}
}

// processOne обрабатывает один сигнал. Определяющее свойство конвейера -
// изоляция сбоев: ошибка хранилища или паника на одном сообщении
// логируется, по возможности уходит оповещением, и цикл продолжает
// со следующего сообщения.
func (b *Broker) processOne(ctx context.Context, sig *models.Signal) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("🚨 Panic while processing signal",
				slog.Any("panic", r),
				slog.String("payload", string(sig.Raw)))
			b.alerts.Put(formatPanicAlert(r))
		}
	}()

	switch e := sig.Event.(type) {
	case models.Ping:
		b.logger.Debug("Ping from master", slog.String("source_id", e.SourceIDStr))

	case models.PingCopy:
		b.logger.Debug("Ping from copy", slog.String("copy_id", e.CopyIDStr))

	case models.TradeOpen, models.TradeModify, models.TradeCloseMaster, models.TradePartialClose:
		// мастер-событие: в очередь публикации без изменений + оповещение
		if err := b.publish.Put(ctx, sig); err != nil {
			return
		}
		b.alerts.Put(formatMasterAlert(sig.Event))

	case models.TradeClosedCopy:
		err := b.pool.Do(ctx, func() error {
			return b.store.SaveTradeHistory(e.CopyIDStr, e.SourceIDStr, e.Symbol, e.Profit, e.SourceTicket)
		})
		if err != nil {
			// событие теряется: ни ретрая, ни dead-letter, только оповещение
			b.logger.Error("Failed to save trade history",
				slog.String("copy_id", e.CopyIDStr),
				slog.String("symbol", e.Symbol),
				slog.Any("error", err))
			b.alerts.Put(formatStoreFailureAlert(e, err))
		}

		// оповещение о профите/убытке уходит независимо от исхода записи
		b.alerts.Put(formatCopyClosedAlert(e))

	case models.EAError:
		b.logger.Warn("EA error reported",
			slog.String("ea_id", e.EAID),
			slog.String("message", e.Message))
		b.alerts.Put(formatEAErrorAlert(e))

	default:
		b.logger.Warn("Unknown event type received",
			slog.String("event", sig.Event.Kind()),
			slog.String("payload", string(sig.Raw)))
		b.alerts.Put(formatUnknownAlert(sig.Event.Kind()))
	}
}
