package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"tradecopier/internal/models"

	_ "modernc.org/sqlite"
)

var (
	// ErrNotFound - аккаунт или mapping не найден
	ErrNotFound = errors.New("not found")

	// ErrDisabled - копи-аккаунт выключен (is_active = false)
	ErrDisabled = errors.New("copy account is disabled")

	// ErrCopyNotFound - отчёт о сделке ссылается на несуществующий копи-аккаунт
	ErrCopyNotFound = errors.New("copy account not found")

	// ErrValidation - входные данные не прошли проверку, запись не менялась
	ErrValidation = errors.New("validation failed")
)

// Storage управляет базой данных. Каждая операция открывает собственную
// транзакцию и либо коммитит её целиком, либо откатывает.
type Storage struct {
	db     *sql.DB
	logger *slog.Logger
}

// New открывает базу и создаёт таблицы
func New(dbPath string, logger *slog.Logger) (*Storage, error) {
	// pragma включает контроль внешних ключей на каждом соединении
	db, err := sql.Open("sqlite", dbPath+"?_pragma=foreign_keys(1)")
	if err != nil {
		return nil, err
	}

	s := &Storage{
		db:     db,
		logger: logger,
	}

	if err := s.init(); err != nil {
		db.Close()
		return nil, err
	}

	return s, nil
}

// init инициализирует таблицы БД.
// У trade_history нет FK на copy_accounts: история переживает удаление
// аккаунта. Ссылка на сорс обнуляется при удалении сорса.
func (s *Storage) init() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS source_accounts (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL,
			source_id_str TEXT NOT NULL UNIQUE,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);

		CREATE TABLE IF NOT EXISTS copy_accounts (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL,
			copy_id_str TEXT NOT NULL UNIQUE,
			is_active INTEGER NOT NULL DEFAULT 1,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);

		CREATE TABLE IF NOT EXISTS copy_settings (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			copy_account_id INTEGER NOT NULL UNIQUE
				REFERENCES copy_accounts(id) ON DELETE CASCADE,
			daily_drawdown_percent REAL NOT NULL DEFAULT 5.0,
			alert_drawdown_percent REAL NOT NULL DEFAULT 4.0,
			reset_dd_flag INTEGER NOT NULL DEFAULT 0
		);

		CREATE TABLE IF NOT EXISTS source_copy_mappings (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			copy_account_id INTEGER NOT NULL
				REFERENCES copy_accounts(id) ON DELETE CASCADE,
			source_account_id INTEGER NOT NULL
				REFERENCES source_accounts(id) ON DELETE CASCADE,
			is_enabled INTEGER NOT NULL DEFAULT 1,
			copy_mode TEXT NOT NULL DEFAULT 'ALL',
			allowed_symbols TEXT NOT NULL DEFAULT '',
			volume_type TEXT NOT NULL DEFAULT 'MULTIPLIER',
			volume_value REAL NOT NULL DEFAULT 1.0,
			max_lot_size REAL NOT NULL DEFAULT 0,
			max_concurrent_trades INTEGER NOT NULL DEFAULT 0,
			source_drawdown_limit REAL NOT NULL DEFAULT 0,
			UNIQUE(copy_account_id, source_account_id)
		);

		CREATE TABLE IF NOT EXISTS trade_history (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			copy_account_id INTEGER NOT NULL,
			source_account_id INTEGER
				REFERENCES source_accounts(id) ON DELETE SET NULL,
			symbol TEXT NOT NULL,
			profit REAL NOT NULL,
			source_ticket INTEGER NOT NULL DEFAULT 0
		);

		CREATE INDEX IF NOT EXISTS idx_trade_history_ticket
			ON trade_history(source_ticket);

		CREATE TABLE IF NOT EXISTS users (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			username TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
	`)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}

	s.logger.Info("✅ Database initialized")

	return nil
}

// AddSource добавляет сорс-аккаунт и выделяет ему следующий свободный
// идентификатор S<n>: сканируется наибольший занятый числовой суффикс,
// при коллизии на вставке сканирование повторяется.
func (s *Storage) AddSource(name string) (*models.SourceAccount, error) {
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("%w: name is empty", ErrValidation)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var acc *models.SourceAccount
	for attempt := 0; attempt < 10; attempt++ {
		sourceID, err := nextSourceID(tx)
		if err != nil {
			return nil, err
		}

		res, err := tx.Exec(
			`INSERT INTO source_accounts (name, source_id_str) VALUES (?, ?)`,
			name, sourceID,
		)
		if err != nil {
			if isUniqueViolation(err) {
				continue
			}
			return nil, err
		}

		id, _ := res.LastInsertId()
		acc = &models.SourceAccount{ID: id, Name: name, SourceIDStr: sourceID}
		break
	}

	if acc == nil {
		return nil, fmt.Errorf("failed to allocate source id for %q", name)
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	s.logger.Info("✅ Source account added",
		slog.String("name", name),
		slog.String("source_id", acc.SourceIDStr))

	return acc, nil
}

// nextSourceID возвращает S<n+1>, где n - наибольший занятый суффикс
func nextSourceID(tx *sql.Tx) (string, error) {
	rows, err := tx.Query(`SELECT source_id_str FROM source_accounts`)
	if err != nil {
		return "", err
	}
	defer rows.Close()

	highest := 0
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return "", err
		}

		n, err := strconv.Atoi(strings.TrimPrefix(id, "S"))
		if err != nil || !strings.HasPrefix(id, "S") {
			continue
		}
		if n > highest {
			highest = n
		}
	}
	if err := rows.Err(); err != nil {
		return "", err
	}

	return fmt.Sprintf("S%d", highest+1), nil
}

// AddCopy добавляет копи-аккаунт вместе со строкой настроек (атомарно)
func (s *Storage) AddCopy(name, copyIDStr string, ddPercent, alertPercent float64) (*models.CopyAccount, error) {
	if strings.TrimSpace(name) == "" || strings.TrimSpace(copyIDStr) == "" {
		return nil, fmt.Errorf("%w: name and copy_id_str are required", ErrValidation)
	}
	if ddPercent < 0 || alertPercent < 0 {
		return nil, fmt.Errorf("%w: drawdown percentages must be non-negative", ErrValidation)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	res, err := tx.Exec(
		`INSERT INTO copy_accounts (name, copy_id_str, is_active) VALUES (?, ?, 1)`,
		name, copyIDStr,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%w: copy_id_str %q already exists", ErrValidation, copyIDStr)
		}
		return nil, err
	}

	id, _ := res.LastInsertId()

	_, err = tx.Exec(
		`INSERT INTO copy_settings (copy_account_id, daily_drawdown_percent, alert_drawdown_percent)
		 VALUES (?, ?, ?)`,
		id, ddPercent, alertPercent,
	)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	s.logger.Info("✅ Copy account added",
		slog.String("name", name),
		slog.String("copy_id", copyIDStr))

	return &models.CopyAccount{ID: id, Name: name, CopyIDStr: copyIDStr, IsActive: true}, nil
}

// DeleteSource удаляет сорс. Каскадом удаляются его mappings; строки
// trade_history остаются, их ссылка на сорс обнуляется (FK SET NULL).
// Возвращает false, если такого сорса не было.
func (s *Storage) DeleteSource(sourceIDStr string) (bool, error) {
	res, err := s.db.Exec(`DELETE FROM source_accounts WHERE source_id_str = ?`, sourceIDStr)
	if err != nil {
		return false, err
	}

	rows, _ := res.RowsAffected()
	if rows == 0 {
		return false, nil
	}

	s.logger.Info("🗑 Source account deleted", slog.String("source_id", sourceIDStr))

	return true, nil
}

// DeleteCopy удаляет копи-аккаунт. Каскадом удаляются настройки и mappings,
// история сделок остаётся. Возвращает false, если аккаунта не было.
func (s *Storage) DeleteCopy(copyIDStr string) (bool, error) {
	res, err := s.db.Exec(`DELETE FROM copy_accounts WHERE copy_id_str = ?`, copyIDStr)
	if err != nil {
		return false, err
	}

	rows, _ := res.RowsAffected()
	if rows == 0 {
		return false, nil
	}

	s.logger.Info("🗑 Copy account deleted", slog.String("copy_id", copyIDStr))

	return true, nil
}

// CreateMappingParams - параметры новой подписки. Нулевые CopyMode и
// VolumeType заменяются значениями по умолчанию (ALL / MULTIPLIER).
type CreateMappingParams struct {
	CopyIDStr           string
	SourceIDStr         string
	VolumeType          string
	VolumeValue         float64
	CopyMode            string
	AllowedSymbols      string
	MaxLotSize          float64
	MaxConcurrentTrades int
	SourceDrawdownLimit float64
}

// CreateMapping создаёт подписку копи-аккаунта на сорс.
// Повторная подписка на ту же пару - ошибка, вторая строка не создаётся.
func (s *Storage) CreateMapping(p CreateMappingParams) error {
	if p.CopyMode == "" {
		p.CopyMode = models.CopyModeAll
	}
	if p.VolumeType == "" {
		p.VolumeType = models.VolumeTypeMultiplier
	}

	if p.VolumeType != models.VolumeTypeMultiplier && p.VolumeType != models.VolumeTypeFixed {
		return fmt.Errorf("%w: unknown volume_type %q", ErrValidation, p.VolumeType)
	}
	if p.VolumeValue <= 0 {
		return fmt.Errorf("%w: volume_value must be positive", ErrValidation)
	}
	if p.CopyMode != models.CopyModeAll && p.CopyMode != models.CopyModeGoldOnly && p.CopyMode != models.CopyModeSymbols {
		return fmt.Errorf("%w: unknown copy_mode %q", ErrValidation, p.CopyMode)
	}
	if p.MaxLotSize < 0 || p.MaxConcurrentTrades < 0 || p.SourceDrawdownLimit < 0 {
		return fmt.Errorf("%w: risk limits must be non-negative", ErrValidation)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	copyID, err := lookupID(tx, `SELECT id FROM copy_accounts WHERE copy_id_str = ?`, p.CopyIDStr)
	if err != nil {
		return fmt.Errorf("copy account %q: %w", p.CopyIDStr, err)
	}

	sourceID, err := lookupID(tx, `SELECT id FROM source_accounts WHERE source_id_str = ?`, p.SourceIDStr)
	if err != nil {
		return fmt.Errorf("source account %q: %w", p.SourceIDStr, err)
	}

	_, err = tx.Exec(`
		INSERT INTO source_copy_mappings
			(copy_account_id, source_account_id, copy_mode, allowed_symbols,
			 volume_type, volume_value, max_lot_size, max_concurrent_trades, source_drawdown_limit)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, copyID, sourceID, p.CopyMode, p.AllowedSymbols,
		p.VolumeType, p.VolumeValue, p.MaxLotSize, p.MaxConcurrentTrades, p.SourceDrawdownLimit)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: mapping %s -> %s already exists", ErrValidation, p.CopyIDStr, p.SourceIDStr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	s.logger.Info("🔗 Mapping created",
		slog.String("copy_id", p.CopyIDStr),
		slog.String("source_id", p.SourceIDStr))

	return nil
}

// DeleteMapping удаляет подписку. Возвращает false, если её не было.
func (s *Storage) DeleteMapping(copyIDStr, sourceIDStr string) (bool, error) {
	res, err := s.db.Exec(`
		DELETE FROM source_copy_mappings
		WHERE copy_account_id = (SELECT id FROM copy_accounts WHERE copy_id_str = ?)
		  AND source_account_id = (SELECT id FROM source_accounts WHERE source_id_str = ?)
	`, copyIDStr, sourceIDStr)
	if err != nil {
		return false, err
	}

	rows, _ := res.RowsAffected()

	return rows > 0, nil
}

// UpdateMappingSettings обновляет поля подписки по явному списку разрешённых.
// Неизвестные поля пропускаются; значение с неправильным типом или
// отрицательным лимитом - ошибка без частичной записи; пустой итог - ошибка.
func (s *Storage) UpdateMappingSettings(copyIDStr, sourceIDStr string, fields map[string]any) error {
	set := make([]string, 0, len(fields))
	args := make([]any, 0, len(fields))

	for name, value := range fields {
		switch name {
		case "is_enabled":
			b, ok := toBool(value)
			if !ok {
				return fmt.Errorf("%w: is_enabled must be a boolean", ErrValidation)
			}
			set, args = append(set, "is_enabled = ?"), append(args, b)
		case "copy_mode":
			mode, _ := value.(string)
			if mode != models.CopyModeAll && mode != models.CopyModeGoldOnly && mode != models.CopyModeSymbols {
				return fmt.Errorf("%w: unknown copy_mode %v", ErrValidation, value)
			}
			set, args = append(set, "copy_mode = ?"), append(args, mode)
		case "allowed_symbols":
			symbols, ok := value.(string)
			if !ok {
				return fmt.Errorf("%w: allowed_symbols must be a string", ErrValidation)
			}
			set, args = append(set, "allowed_symbols = ?"), append(args, symbols)
		case "volume_type":
			vt, _ := value.(string)
			if vt != models.VolumeTypeMultiplier && vt != models.VolumeTypeFixed {
				return fmt.Errorf("%w: unknown volume_type %v", ErrValidation, value)
			}
			set, args = append(set, "volume_type = ?"), append(args, vt)
		case "volume_value":
			f, ok := toFloat(value)
			if !ok || f <= 0 {
				return fmt.Errorf("%w: volume_value must be a positive number", ErrValidation)
			}
			set, args = append(set, "volume_value = ?"), append(args, f)
		case "max_lot_size":
			f, ok := toFloat(value)
			if !ok || f < 0 {
				return fmt.Errorf("%w: max_lot_size must be non-negative", ErrValidation)
			}
			set, args = append(set, "max_lot_size = ?"), append(args, f)
		case "max_concurrent_trades":
			n, ok := toInt(value)
			if !ok || n < 0 {
				return fmt.Errorf("%w: max_concurrent_trades must be a non-negative integer", ErrValidation)
			}
			set, args = append(set, "max_concurrent_trades = ?"), append(args, n)
		case "source_drawdown_limit":
			f, ok := toFloat(value)
			if !ok || f < 0 {
				return fmt.Errorf("%w: source_drawdown_limit must be non-negative", ErrValidation)
			}
			set, args = append(set, "source_drawdown_limit = ?"), append(args, f)
		default:
			s.logger.Debug("Unknown mapping field skipped", slog.String("field", name))
		}
	}

	if len(set) == 0 {
		return fmt.Errorf("%w: no valid fields to update", ErrValidation)
	}

	query := `
		UPDATE source_copy_mappings SET ` + strings.Join(set, ", ") + `
		WHERE copy_account_id = (SELECT id FROM copy_accounts WHERE copy_id_str = ?)
		  AND source_account_id = (SELECT id FROM source_accounts WHERE source_id_str = ?)
	`
	args = append(args, copyIDStr, sourceIDStr)

	res, err := s.db.Exec(query, args...)
	if err != nil {
		return err
	}

	rows, _ := res.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("mapping %s -> %s: %w", copyIDStr, sourceIDStr, ErrNotFound)
	}

	return nil
}

// UpdateCopySettings обновляет настройки копи-аккаунта по списку разрешённых полей
func (s *Storage) UpdateCopySettings(copyIDStr string, fields map[string]any) error {
	set := make([]string, 0, len(fields))
	args := make([]any, 0, len(fields))

	for name, value := range fields {
		switch name {
		case "daily_drawdown_percent":
			f, ok := toFloat(value)
			if !ok || f < 0 {
				return fmt.Errorf("%w: daily_drawdown_percent must be non-negative", ErrValidation)
			}
			set, args = append(set, "daily_drawdown_percent = ?"), append(args, f)
		case "alert_drawdown_percent":
			f, ok := toFloat(value)
			if !ok || f < 0 {
				return fmt.Errorf("%w: alert_drawdown_percent must be non-negative", ErrValidation)
			}
			set, args = append(set, "alert_drawdown_percent = ?"), append(args, f)
		case "reset_dd_flag":
			b, ok := toBool(value)
			if !ok {
				return fmt.Errorf("%w: reset_dd_flag must be a boolean", ErrValidation)
			}
			set, args = append(set, "reset_dd_flag = ?"), append(args, b)
		default:
			s.logger.Debug("Unknown settings field skipped", slog.String("field", name))
		}
	}

	if len(set) == 0 {
		return fmt.Errorf("%w: no valid fields to update", ErrValidation)
	}

	query := `
		UPDATE copy_settings SET ` + strings.Join(set, ", ") + `
		WHERE copy_account_id = (SELECT id FROM copy_accounts WHERE copy_id_str = ?)
	`
	args = append(args, copyIDStr)

	res, err := s.db.Exec(query, args...)
	if err != nil {
		return err
	}

	rows, _ := res.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("copy account %s: %w", copyIDStr, ErrNotFound)
	}

	return nil
}

// SetCopyActive включает/выключает копи-аккаунт
func (s *Storage) SetCopyActive(copyIDStr string, active bool) error {
	res, err := s.db.Exec(`UPDATE copy_accounts SET is_active = ? WHERE copy_id_str = ?`, active, copyIDStr)
	if err != nil {
		return err
	}

	rows, _ := res.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("copy account %s: %w", copyIDStr, ErrNotFound)
	}

	s.logger.Info("Copy account state changed",
		slog.String("copy_id", copyIDStr),
		slog.Bool("active", active))

	return nil
}

// SetResetDDFlag взводит одноразовый флаг сброса дневной просадки.
// Флаг будет выдан эксперту один раз при следующем запросе конфига.
func (s *Storage) SetResetDDFlag(copyIDStr string) error {
	return s.UpdateCopySettings(copyIDStr, map[string]any{"reset_dd_flag": true})
}

// ListSources возвращает все сорс-аккаунты
func (s *Storage) ListSources() ([]models.SourceAccount, error) {
	rows, err := s.db.Query(`SELECT id, name, source_id_str, created_at FROM source_accounts ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sources []models.SourceAccount
	for rows.Next() {
		var acc models.SourceAccount
		if err := rows.Scan(&acc.ID, &acc.Name, &acc.SourceIDStr, &acc.CreatedAt); err != nil {
			return nil, err
		}
		sources = append(sources, acc)
	}

	return sources, rows.Err()
}

// ListReport собирает полный отчёт о состоянии системы для консолей:
// все копи-аккаунты с настройками и подписками
func (s *Storage) ListReport() ([]models.CopyReport, error) {
	rows, err := s.db.Query(`
		SELECT ca.id, ca.name, ca.copy_id_str, ca.is_active,
		       cs.daily_drawdown_percent, cs.alert_drawdown_percent, cs.reset_dd_flag
		FROM copy_accounts ca
		JOIN copy_settings cs ON cs.copy_account_id = ca.id
		ORDER BY ca.id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var report []models.CopyReport
	ids := make([]int64, 0)
	for rows.Next() {
		var (
			id int64
			r  models.CopyReport
		)
		err := rows.Scan(&id, &r.Name, &r.CopyIDStr, &r.IsActive,
			&r.Settings.DailyDrawdownPercent, &r.Settings.AlertDrawdownPercent, &r.Settings.ResetDDFlag)
		if err != nil {
			return nil, err
		}
		report = append(report, r)
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i, id := range ids {
		mappings, err := s.mappingReport(id)
		if err != nil {
			return nil, err
		}
		report[i].Mappings = mappings
	}

	return report, nil
}

func (s *Storage) mappingReport(copyAccountID int64) ([]models.MappingReport, error) {
	rows, err := s.db.Query(`
		SELECT sa.name, sa.source_id_str, m.is_enabled, m.volume_type, m.volume_value
		FROM source_copy_mappings m
		JOIN source_accounts sa ON sa.id = m.source_account_id
		WHERE m.copy_account_id = ?
		ORDER BY m.id
	`, copyAccountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var mappings []models.MappingReport
	for rows.Next() {
		var m models.MappingReport
		if err := rows.Scan(&m.SourceName, &m.SourceIDStr, &m.IsEnabled, &m.VolumeType, &m.VolumeValue); err != nil {
			return nil, err
		}
		mappings = append(mappings, m)
	}

	return mappings, rows.Err()
}

// Stats считает сводку по истории сделок.
// window: "today", "7d" или "all" (всё остальное = all).
func (s *Storage) Stats(window string) (*models.Stats, error) {
	where := ""
	switch window {
	case "today":
		where = `WHERE timestamp >= datetime('now', 'start of day')`
	case "7d":
		where = `WHERE timestamp >= datetime('now', '-7 days')`
	}

	var stats models.Stats
	err := s.db.QueryRow(`
		SELECT COUNT(*),
		       COALESCE(SUM(CASE WHEN profit > 0 THEN 1 ELSE 0 END), 0),
		       COALESCE(SUM(CASE WHEN profit < 0 THEN 1 ELSE 0 END), 0),
		       COALESCE(SUM(profit), 0)
		FROM trade_history ` + where,
	).Scan(&stats.Trades, &stats.Wins, &stats.Losses, &stats.TotalProfit)
	if err != nil {
		return nil, err
	}

	return &stats, nil
}

// RecentTrades возвращает последние записи истории (новые первыми)
func (s *Storage) RecentTrades(limit int) ([]models.TradeHistory, error) {
	if limit <= 0 || limit > 500 {
		limit = 50
	}

	rows, err := s.db.Query(`
		SELECT id, timestamp, copy_account_id, source_account_id, symbol, profit, source_ticket
		FROM trade_history
		ORDER BY id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var trades []models.TradeHistory
	for rows.Next() {
		var (
			t        models.TradeHistory
			sourceID sql.NullInt64
		)
		if err := rows.Scan(&t.ID, &t.Timestamp, &t.CopyAccountID, &sourceID, &t.Symbol, &t.Profit, &t.SourceTicket); err != nil {
			return nil, err
		}
		if sourceID.Valid {
			t.SourceAccountID = &sourceID.Int64
		}
		trades = append(trades, t)
	}

	return trades, rows.Err()
}

// CreateUser регистрирует пользователя веб-консоли
func (s *Storage) CreateUser(username, passwordHash string) error {
	_, err := s.db.Exec(`INSERT INTO users (username, password_hash) VALUES (?, ?)`, username, passwordHash)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: username %q already exists", ErrValidation, username)
		}
		return err
	}

	return nil
}

// GetUserByUsername возвращает пользователя веб-консоли
func (s *Storage) GetUserByUsername(username string) (*models.User, error) {
	var u models.User
	err := s.db.QueryRow(
		`SELECT id, username, password_hash, created_at FROM users WHERE username = ?`,
		username,
	).Scan(&u.ID, &u.Username, &u.PasswordHash, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	return &u, nil
}

// Close закрывает соединение с БД
func (s *Storage) Close() error {
	return s.db.Close()
}

func lookupID(tx *sql.Tx, query string, arg any) (int64, error) {
	var id int64
	err := tx.QueryRow(query, arg).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrNotFound
	}

	return id, err
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func toBool(v any) (bool, bool) {
	switch x := v.(type) {
	case bool:
		return x, true
	case string:
		b, err := strconv.ParseBool(x)
		return b, err == nil
	}

	return false, false
}

func toFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int:
		return float64(x), true
	case int64:
		return float64(x), true
	case string:
		f, err := strconv.ParseFloat(x, 64)
		return f, err == nil
	}

	return 0, false
}

func toInt(v any) (int, bool) {
	switch x := v.(type) {
	case int:
		return x, true
	case int64:
		return int(x), true
	case float64:
		if x != float64(int(x)) {
			return 0, false
		}
		return int(x), true
	case string:
		n, err := strconv.Atoi(x)
		return n, err == nil
	}

	return 0, false
}
