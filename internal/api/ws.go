package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

type feedMessage struct {
	Topic  string          `json:"topic"`
	Signal json.RawMessage `json:"signal"`
}

// HandleSignalFeed транслирует публикуемые сигналы веб-клиенту через
// websocket. Токен передаётся в query (заголовки для ws недоступны
// из браузера). Доставка как у TCP-фида: отстающий клиент пропускает.
func (h *Handler) HandleSignalFeed(w http.ResponseWriter, r *http.Request) {
	if _, err := h.auth.ValidateToken(r.URL.Query().Get("token")); err != nil {
		http.Error(w, "Invalid token", http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("Websocket upgrade failed", slog.Any("error", err))
		return
	}

	clientID := uuid.New().String()
	signals, cancel := h.broker.Monitor()

	h.logger.Info("➕ Signal feed client connected", slog.String("id", clientID))

	done := make(chan struct{})

	// читатель нужен только чтобы заметить закрытие со стороны клиента
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	go func() {
		defer func() {
			cancel()
			conn.Close()
			h.logger.Info("➖ Signal feed client disconnected", slog.String("id", clientID))
		}()

		for {
			select {
			case <-done:
				return
			case sig, ok := <-signals:
				if !ok {
					return
				}

				msg := feedMessage{Topic: sig.Topic, Signal: json.RawMessage(sig.Body)}
				if err := conn.WriteJSON(msg); err != nil {
					return
				}
			}
		}
	}()
}
