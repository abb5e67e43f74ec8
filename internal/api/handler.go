package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"tradecopier/internal/auth"
	"tradecopier/internal/broker"
	"tradecopier/storage"
)

// Handler обрабатывает запросы веб-консоли
type Handler struct {
	store  *storage.Storage
	broker *broker.Broker
	auth   *auth.Service
	logger *slog.Logger
}

// New создает новый обработчик
func New(store *storage.Storage, b *broker.Broker, authService *auth.Service, logger *slog.Logger) *Handler {
	return &Handler{
		store:  store,
		broker: b,
		auth:   authService,
		logger: logger,
	}
}

type apiResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

func (h *Handler) respondSuccess(w http.ResponseWriter, message string, data any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(apiResponse{Success: true, Message: message, Data: data})
}

func (h *Handler) respondError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(apiResponse{Success: false, Message: message})
}

// HandleHealth возвращает статус здоровья сервиса
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	h.respondSuccess(w, "OK", map[string]string{
		"status": "healthy",
	})
}
