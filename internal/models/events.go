package models

import (
	"encoding/json"
	"fmt"
)

// Значения поля "event" сигнального порта
const (
	EventPing              = "PING"
	EventPingCopy          = "PING_COPY"
	EventTradeOpen         = "TRADE_OPEN"
	EventTradeModify       = "TRADE_MODIFY"
	EventTradeCloseMaster  = "TRADE_CLOSE_MASTER"
	EventTradePartialClose = "TRADE_PARTIAL_CLOSE_MASTER"
	EventTradeClosedCopy   = "TRADE_CLOSED_COPY"
	EventEAError           = "EA_ERROR"
)

// Event - закрытый набор типов событий. Сырые JSON-объекты разбираются
// ровно один раз на входе (ParseSignal); всё, что дальше по конвейеру,
// работает с типизированными значениями, а не с map[string]any.
type Event interface {
	Kind() string
}

// Signal - разобранное событие вместе с исходными байтами.
// Паблишер отправляет тело подписчикам без перекодирования.
type Signal struct {
	Event Event
	Raw   []byte
}

// Ping - heartbeat мастер-эксперта
type Ping struct {
	SourceIDStr string
}

// PingCopy - heartbeat слейв-эксперта
type PingCopy struct {
	CopyIDStr string
}

// TradeOpen - мастер открыл позицию
type TradeOpen struct {
	SourceIDStr  string
	Symbol       string
	PositionID   int64
	PositionType int // 0 = BUY, иначе SELL
}

// TradeModify - мастер изменил SL/TP позиции
type TradeModify struct {
	SourceIDStr string
	Symbol      string
	PositionID  int64
	PositionSL  float64
	PositionTP  float64
}

// TradeCloseMaster - мастер закрыл позицию
type TradeCloseMaster struct {
	SourceIDStr string
	Symbol      string
	PositionID  int64
	Profit      float64
}

// TradePartialClose - мастер частично закрыл позицию
type TradePartialClose struct {
	SourceIDStr  string
	Symbol       string
	PositionID   int64
	VolumeClosed float64
	Profit       float64
}

// TradeClosedCopy - отчёт слейва о закрытой скопированной сделке
type TradeClosedCopy struct {
	CopyIDStr    string
	SourceIDStr  string
	Symbol       string
	Profit       float64
	SourceTicket int64
}

// EAError - эксперт сообщил об ошибке
type EAError struct {
	EAID    string
	Message string
}

// Unknown - событие с нераспознанным значением "event".
// Не отбрасывается на входе: процессор логирует и шлёт оповещение.
type Unknown struct {
	Event string
}

func (Ping) Kind() string              { return EventPing }
func (PingCopy) Kind() string          { return EventPingCopy }
func (TradeOpen) Kind() string         { return EventTradeOpen }
func (TradeModify) Kind() string       { return EventTradeModify }
func (TradeCloseMaster) Kind() string  { return EventTradeCloseMaster }
func (TradePartialClose) Kind() string { return EventTradePartialClose }
func (TradeClosedCopy) Kind() string   { return EventTradeClosedCopy }
func (EAError) Kind() string           { return EventEAError }
func (u Unknown) Kind() string         { return u.Event }

// SourceTopic реализуют только мастер-события: их значение - топик публикации
func (e TradeOpen) SourceTopic() string         { return e.SourceIDStr }
func (e TradeModify) SourceTopic() string       { return e.SourceIDStr }
func (e TradeCloseMaster) SourceTopic() string  { return e.SourceIDStr }
func (e TradePartialClose) SourceTopic() string { return e.SourceIDStr }

// wireSignal - суперпозиция всех полей сигнального порта
type wireSignal struct {
	Event        string  `json:"event"`
	SourceIDStr  string  `json:"source_id_str"`
	CopyIDStr    string  `json:"copy_id_str"`
	Symbol       string  `json:"symbol"`
	PositionID   int64   `json:"position_id"`
	PositionType int     `json:"position_type"`
	PositionSL   float64 `json:"position_sl"`
	PositionTP   float64 `json:"position_tp"`
	Profit       float64 `json:"profit"`
	VolumeClosed float64 `json:"volume_closed"`
	SourceTicket int64   `json:"source_ticket"`
	Message      string  `json:"message"`
	EAID         string  `json:"ea_id"`
}

// ParseSignal разбирает одну строку сигнального порта. Ошибка означает
// некорректный JSON: такое сообщение отбрасывается коллектором и в очередь
// не попадает. Нераспознанный тип события ошибкой не является.
func ParseSignal(data []byte) (*Signal, error) {
	var w wireSignal
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("malformed signal: %w", err)
	}

	// bufio.Scanner переиспользует буфер, копируем
	raw := make([]byte, len(data))
	copy(raw, data)

	var event Event
	switch w.Event {
	case EventPing:
		event = Ping{SourceIDStr: w.SourceIDStr}
	case EventPingCopy:
		event = PingCopy{CopyIDStr: w.CopyIDStr}
	case EventTradeOpen:
		event = TradeOpen{
			SourceIDStr:  w.SourceIDStr,
			Symbol:       w.Symbol,
			PositionID:   w.PositionID,
			PositionType: w.PositionType,
		}
	case EventTradeModify:
		event = TradeModify{
			SourceIDStr: w.SourceIDStr,
			Symbol:      w.Symbol,
			PositionID:  w.PositionID,
			PositionSL:  w.PositionSL,
			PositionTP:  w.PositionTP,
		}
	case EventTradeCloseMaster:
		event = TradeCloseMaster{
			SourceIDStr: w.SourceIDStr,
			Symbol:      w.Symbol,
			PositionID:  w.PositionID,
			Profit:      w.Profit,
		}
	case EventTradePartialClose:
		event = TradePartialClose{
			SourceIDStr:  w.SourceIDStr,
			Symbol:       w.Symbol,
			PositionID:   w.PositionID,
			VolumeClosed: w.VolumeClosed,
			Profit:       w.Profit,
		}
	case EventTradeClosedCopy:
		event = TradeClosedCopy{
			CopyIDStr:    w.CopyIDStr,
			SourceIDStr:  w.SourceIDStr,
			Symbol:       w.Symbol,
			Profit:       w.Profit,
			SourceTicket: w.SourceTicket,
		}
	case EventEAError:
		event = EAError{EAID: w.EAID, Message: w.Message}
	default:
		event = Unknown{Event: w.Event}
	}

	return &Signal{Event: event, Raw: raw}, nil
}
