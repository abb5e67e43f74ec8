package models

import "time"

// Режимы копирования символов для mapping'а
const (
	CopyModeAll      = "ALL"
	CopyModeGoldOnly = "GOLD_ONLY"
	CopyModeSymbols  = "SYMBOLS"
)

// Типы расчёта объёма копируемой сделки
const (
	VolumeTypeMultiplier = "MULTIPLIER"
	VolumeTypeFixed      = "FIXED"
)

// SourceAccount - мастер-аккаунт (источник сигналов).
// source_id_str назначается хранилищем (S1, S2, ...) и одновременно
// служит топиком публикации.
type SourceAccount struct {
	ID          int64
	Name        string
	SourceIDStr string
	CreatedAt   time.Time
}

// CopyAccount - слейв-аккаунт (получатель сигналов)
type CopyAccount struct {
	ID        int64
	Name      string
	CopyIDStr string // идентификатор, который слейв-эксперт присылает сам
	IsActive  bool
	CreatedAt time.Time
}

// CopySettings - глобальные настройки риска одного копи-аккаунта.
// Ровно одна запись на аккаунт, создаётся вместе с ним.
type CopySettings struct {
	ID                   int64
	CopyAccountID        int64
	DailyDrawdownPercent float64
	AlertDrawdownPercent float64
	ResetDDFlag          bool // одноразовый флаг, сбрасывается при выдаче конфига
}

// SourceCopyMapping - подписка копи-аккаунта на сорс.
// Пара (copy, source) уникальна. 0 в лимитах = без ограничений.
type SourceCopyMapping struct {
	ID                  int64
	CopyAccountID       int64
	SourceAccountID     int64
	IsEnabled           bool
	CopyMode            string
	AllowedSymbols      string // "EURUSD;GBPUSD", имеет смысл при CopyMode=SYMBOLS
	VolumeType          string
	VolumeValue         float64
	MaxLotSize          float64
	MaxConcurrentTrades int
	SourceDrawdownLimit float64
}

// TradeHistory - запись о закрытой копи-сделке. Только добавляется.
// SourceAccountID может быть nil, если сорс к этому моменту удалён.
type TradeHistory struct {
	ID              int64     `json:"id"`
	Timestamp       time.Time `json:"timestamp"`
	CopyAccountID   int64     `json:"copy_account_id"`
	SourceAccountID *int64    `json:"source_account_id"`
	Symbol          string    `json:"symbol"`
	Profit          float64   `json:"profit"`
	SourceTicket    int64     `json:"source_ticket"`
}

// EAConfig - полный конфиг, который слейв-эксперт забирает с config-порта
type EAConfig struct {
	CopyIDStr      string          `json:"copy_id_str"`
	GlobalSettings GlobalSettings  `json:"global_settings"`
	Mappings       []MappingConfig `json:"mappings"`
}

// GlobalSettings - настройки риска в составе EAConfig
type GlobalSettings struct {
	DailyDrawdownPercent float64 `json:"daily_drawdown_percent"`
	AlertDrawdownPercent float64 `json:"alert_drawdown_percent"`
	ResetDDFlag          bool    `json:"reset_dd_flag"`
}

// MappingConfig - один mapping в составе EAConfig
type MappingConfig struct {
	SourceTopicID       string  `json:"source_topic_id"`
	CopyMode            string  `json:"copy_mode"`
	AllowedSymbols      string  `json:"allowed_symbols"`
	VolumeType          string  `json:"volume_type"`
	VolumeValue         float64 `json:"volume_value"`
	MaxLotSize          float64 `json:"max_lot_size"`
	MaxConcurrentTrades int     `json:"max_concurrent_trades"`
	SourceDrawdownLimit float64 `json:"source_drawdown_limit"`
}

// CopyReport - строка отчёта /status для консолей
type CopyReport struct {
	Name      string          `json:"name"`
	CopyIDStr string          `json:"copy_id_str"`
	IsActive  bool            `json:"is_active"`
	Settings  GlobalSettings  `json:"settings"`
	Mappings  []MappingReport `json:"mappings"`
}

// MappingReport - mapping в составе отчёта
type MappingReport struct {
	SourceName  string  `json:"source_name"`
	SourceIDStr string  `json:"source_id_str"`
	IsEnabled   bool    `json:"is_enabled"`
	VolumeType  string  `json:"volume_type"`
	VolumeValue float64 `json:"volume_value"`
}

// Stats - сводка по истории сделок
type Stats struct {
	Trades      int     `json:"trades"`
	Wins        int     `json:"wins"`
	Losses      int     `json:"losses"`
	TotalProfit float64 `json:"total_profit"`
}

// User - пользователь веб-консоли
type User struct {
	ID           int64
	Username     string
	PasswordHash string
	CreatedAt    time.Time
}
