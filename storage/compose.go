package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"tradecopier/internal/models"
)

// ComposeConfig собирает полный конфиг для слейв-эксперта: глобальные
// настройки и все включённые подписки. Выключенные mappings опускаются
// молча. Если взведён reset_dd_flag, он возвращается как true и гасится
// в той же транзакции: повторный запрос увидит false.
func (s *Storage) ComposeConfig(copyIDStr string) (*models.EAConfig, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var (
		copyAccountID int64
		isActive      bool
		cfg           = &models.EAConfig{CopyIDStr: copyIDStr, Mappings: []models.MappingConfig{}}
	)

	err = tx.QueryRow(`
		SELECT ca.id, ca.is_active,
		       cs.daily_drawdown_percent, cs.alert_drawdown_percent, cs.reset_dd_flag
		FROM copy_accounts ca
		JOIN copy_settings cs ON cs.copy_account_id = ca.id
		WHERE ca.copy_id_str = ?
	`, copyIDStr).Scan(&copyAccountID, &isActive,
		&cfg.GlobalSettings.DailyDrawdownPercent,
		&cfg.GlobalSettings.AlertDrawdownPercent,
		&cfg.GlobalSettings.ResetDDFlag)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("copy account %q: %w", copyIDStr, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}

	if !isActive {
		return nil, fmt.Errorf("copy account %q: %w", copyIDStr, ErrDisabled)
	}

	// JOIN с source_accounts отсекает подписки на уже удалённые сорсы
	rows, err := tx.Query(`
		SELECT sa.source_id_str, m.copy_mode, m.allowed_symbols,
		       m.volume_type, m.volume_value,
		       m.max_lot_size, m.max_concurrent_trades, m.source_drawdown_limit
		FROM source_copy_mappings m
		JOIN source_accounts sa ON sa.id = m.source_account_id
		WHERE m.copy_account_id = ? AND m.is_enabled = 1
		ORDER BY m.id
	`, copyAccountID)
	if err != nil {
		return nil, err
	}

	for rows.Next() {
		var m models.MappingConfig
		err := rows.Scan(&m.SourceTopicID, &m.CopyMode, &m.AllowedSymbols,
			&m.VolumeType, &m.VolumeValue,
			&m.MaxLotSize, &m.MaxConcurrentTrades, &m.SourceDrawdownLimit)
		if err != nil {
			rows.Close()
			return nil, err
		}
		cfg.Mappings = append(cfg.Mappings, m)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// одноразовый флаг: выдать и погасить атомарно
	if cfg.GlobalSettings.ResetDDFlag {
		if _, err := tx.Exec(
			`UPDATE copy_settings SET reset_dd_flag = 0 WHERE copy_account_id = ?`,
			copyAccountID,
		); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// SaveTradeHistory добавляет запись о закрытой копи-сделке.
// Неизвестный copy_id_str - ошибка; неизвестный (удалённый) сорс -
// запись сохраняется со ссылкой NULL.
func (s *Storage) SaveTradeHistory(copyIDStr, sourceIDStr, symbol string, profit float64, sourceTicket int64) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	copyID, err := lookupID(tx, `SELECT id FROM copy_accounts WHERE copy_id_str = ?`, copyIDStr)
	if errors.Is(err, ErrNotFound) {
		return fmt.Errorf("%w: %q", ErrCopyNotFound, copyIDStr)
	}
	if err != nil {
		return err
	}

	var sourceID sql.NullInt64
	if sourceIDStr != "" {
		id, err := lookupID(tx, `SELECT id FROM source_accounts WHERE source_id_str = ?`, sourceIDStr)
		if err == nil {
			sourceID = sql.NullInt64{Int64: id, Valid: true}
		} else if !errors.Is(err, ErrNotFound) {
			return err
		}
	}

	_, err = tx.Exec(`
		INSERT INTO trade_history (copy_account_id, source_account_id, symbol, profit, source_ticket)
		VALUES (?, ?, ?, ?, ?)
	`, copyID, sourceID, symbol, profit, sourceTicket)
	if err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	s.logger.Info("💾 Trade history saved",
		slog.String("copy_id", copyIDStr),
		slog.String("symbol", symbol),
		slog.Float64("profit", profit))

	return nil
}
