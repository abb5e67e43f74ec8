package api

import (
	"tradecopier/internal/middleware"

	"github.com/gorilla/mux"
)

// SetupRouter настраивает роутинг веб-консоли
func (h *Handler) SetupRouter() *mux.Router {
	r := mux.NewRouter()

	r.Use(middleware.CORS)

	// Публичные маршруты
	r.HandleFunc("/api/auth/login", h.HandleLogin).Methods("POST", "OPTIONS")
	r.HandleFunc("/api/auth/register", h.HandleRegister).Methods("POST", "OPTIONS")
	r.HandleFunc("/health", h.HandleHealth).Methods("GET")

	// Живой поток публикуемых сигналов (токен в query)
	r.HandleFunc("/ws/signals", h.HandleSignalFeed).Methods("GET")

	// Защищенные маршруты
	api := r.PathPrefix("/api").Subrouter()
	api.Use(middleware.Auth(h.auth))

	// Сорс-аккаунты
	api.HandleFunc("/sources", h.HandleGetSources).Methods("GET")
	api.HandleFunc("/sources", h.HandleAddSource).Methods("POST")
	api.HandleFunc("/sources/{sourceID}", h.HandleDeleteSource).Methods("DELETE")

	// Копи-аккаунты
	api.HandleFunc("/copies", h.HandleGetCopies).Methods("GET")
	api.HandleFunc("/copies", h.HandleAddCopy).Methods("POST")
	api.HandleFunc("/copies/{copyID}", h.HandleDeleteCopy).Methods("DELETE")
	api.HandleFunc("/copies/{copyID}/settings", h.HandleUpdateCopySettings).Methods("PUT")
	api.HandleFunc("/copies/{copyID}/active", h.HandleSetCopyActive).Methods("PUT")

	// Подписки
	api.HandleFunc("/mappings", h.HandleCreateMapping).Methods("POST")
	api.HandleFunc("/mappings", h.HandleDeleteMapping).Methods("DELETE")
	api.HandleFunc("/mappings/settings", h.HandleUpdateMappingSettings).Methods("PUT")

	// История и статистика
	api.HandleFunc("/trades", h.HandleGetTrades).Methods("GET")
	api.HandleFunc("/stats", h.HandleGetStats).Methods("GET")

	return r
}
