package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"tradecopier/internal/middleware"
	"tradecopier/storage"

	"github.com/gorilla/mux"
)

// HandleGetSources возвращает все сорс-аккаунты
func (h *Handler) HandleGetSources(w http.ResponseWriter, r *http.Request) {
	sources, err := h.store.ListSources()
	if err != nil {
		h.logger.Error("Failed to list sources", slog.Any("error", err))
		h.respondError(w, http.StatusInternalServerError, "failed to list sources")
		return
	}

	type sourceView struct {
		Name        string `json:"name"`
		SourceIDStr string `json:"source_id_str"`
	}

	views := make([]sourceView, 0, len(sources))
	for _, s := range sources {
		views = append(views, sourceView{Name: s.Name, SourceIDStr: s.SourceIDStr})
	}

	h.respondSuccess(w, "", views)
}

// HandleAddSource добавляет сорс-аккаунт; идентификатор назначает хранилище
func (h *Handler) HandleAddSource(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	acc, err := h.store.AddSource(req.Name)
	if err != nil {
		h.storeError(w, err)
		return
	}

	if username, ok := middleware.Username(r.Context()); ok {
		h.logger.Info("Source added via web console",
			slog.String("user", username),
			slog.String("source_id", acc.SourceIDStr))
	}

	h.respondSuccess(w, "source created", map[string]string{
		"name":          acc.Name,
		"source_id_str": acc.SourceIDStr,
	})
}

// HandleDeleteSource удаляет сорс-аккаунт (каскадом подписки)
func (h *Handler) HandleDeleteSource(w http.ResponseWriter, r *http.Request) {
	sourceID := mux.Vars(r)["sourceID"]

	existed, err := h.store.DeleteSource(sourceID)
	if err != nil {
		h.storeError(w, err)
		return
	}
	if !existed {
		h.respondError(w, http.StatusNotFound, "source not found")
		return
	}

	h.respondSuccess(w, "source deleted", nil)
}

// HandleGetCopies возвращает отчёт по всем копи-аккаунтам
func (h *Handler) HandleGetCopies(w http.ResponseWriter, r *http.Request) {
	report, err := h.store.ListReport()
	if err != nil {
		h.logger.Error("Failed to build report", slog.Any("error", err))
		h.respondError(w, http.StatusInternalServerError, "failed to build report")
		return
	}

	h.respondSuccess(w, "", report)
}

// HandleAddCopy добавляет копи-аккаунт вместе с настройками
func (h *Handler) HandleAddCopy(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name                 string  `json:"name"`
		CopyIDStr            string  `json:"copy_id_str"`
		DailyDrawdownPercent float64 `json:"daily_drawdown_percent"`
		AlertDrawdownPercent float64 `json:"alert_drawdown_percent"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	acc, err := h.store.AddCopy(req.Name, req.CopyIDStr, req.DailyDrawdownPercent, req.AlertDrawdownPercent)
	if err != nil {
		h.storeError(w, err)
		return
	}

	h.respondSuccess(w, "copy account created", map[string]string{
		"name":        acc.Name,
		"copy_id_str": acc.CopyIDStr,
	})
}

// HandleDeleteCopy удаляет копи-аккаунт (история сделок остаётся)
func (h *Handler) HandleDeleteCopy(w http.ResponseWriter, r *http.Request) {
	copyID := mux.Vars(r)["copyID"]

	existed, err := h.store.DeleteCopy(copyID)
	if err != nil {
		h.storeError(w, err)
		return
	}
	if !existed {
		h.respondError(w, http.StatusNotFound, "copy account not found")
		return
	}

	h.respondSuccess(w, "copy account deleted", nil)
}

// HandleUpdateCopySettings обновляет настройки копи-аккаунта
func (h *Handler) HandleUpdateCopySettings(w http.ResponseWriter, r *http.Request) {
	copyID := mux.Vars(r)["copyID"]

	var fields map[string]any
	if err := json.NewDecoder(r.Body).Decode(&fields); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.store.UpdateCopySettings(copyID, fields); err != nil {
		h.storeError(w, err)
		return
	}

	h.respondSuccess(w, "settings updated", nil)
}

// HandleSetCopyActive включает/выключает копи-аккаунт
func (h *Handler) HandleSetCopyActive(w http.ResponseWriter, r *http.Request) {
	copyID := mux.Vars(r)["copyID"]

	var req struct {
		IsActive bool `json:"is_active"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.store.SetCopyActive(copyID, req.IsActive); err != nil {
		h.storeError(w, err)
		return
	}

	h.respondSuccess(w, "state updated", nil)
}

// HandleCreateMapping создаёт подписку копи-аккаунта на сорс
func (h *Handler) HandleCreateMapping(w http.ResponseWriter, r *http.Request) {
	var req struct {
		CopyIDStr           string  `json:"copy_id_str"`
		SourceIDStr         string  `json:"source_id_str"`
		VolumeType          string  `json:"volume_type"`
		VolumeValue         float64 `json:"volume_value"`
		CopyMode            string  `json:"copy_mode"`
		AllowedSymbols      string  `json:"allowed_symbols"`
		MaxLotSize          float64 `json:"max_lot_size"`
		MaxConcurrentTrades int     `json:"max_concurrent_trades"`
		SourceDrawdownLimit float64 `json:"source_drawdown_limit"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	err := h.store.CreateMapping(storage.CreateMappingParams{
		CopyIDStr:           req.CopyIDStr,
		SourceIDStr:         req.SourceIDStr,
		VolumeType:          req.VolumeType,
		VolumeValue:         req.VolumeValue,
		CopyMode:            req.CopyMode,
		AllowedSymbols:      req.AllowedSymbols,
		MaxLotSize:          req.MaxLotSize,
		MaxConcurrentTrades: req.MaxConcurrentTrades,
		SourceDrawdownLimit: req.SourceDrawdownLimit,
	})
	if err != nil {
		h.storeError(w, err)
		return
	}

	h.respondSuccess(w, "mapping created", nil)
}

// HandleDeleteMapping удаляет подписку
func (h *Handler) HandleDeleteMapping(w http.ResponseWriter, r *http.Request) {
	copyID := r.URL.Query().Get("copy_id_str")
	sourceID := r.URL.Query().Get("source_id_str")
	if copyID == "" || sourceID == "" {
		h.respondError(w, http.StatusBadRequest, "copy_id_str and source_id_str are required")
		return
	}

	existed, err := h.store.DeleteMapping(copyID, sourceID)
	if err != nil {
		h.storeError(w, err)
		return
	}
	if !existed {
		h.respondError(w, http.StatusNotFound, "mapping not found")
		return
	}

	h.respondSuccess(w, "mapping deleted", nil)
}

// HandleUpdateMappingSettings обновляет поля подписки
func (h *Handler) HandleUpdateMappingSettings(w http.ResponseWriter, r *http.Request) {
	copyID := r.URL.Query().Get("copy_id_str")
	sourceID := r.URL.Query().Get("source_id_str")
	if copyID == "" || sourceID == "" {
		h.respondError(w, http.StatusBadRequest, "copy_id_str and source_id_str are required")
		return
	}

	var fields map[string]any
	if err := json.NewDecoder(r.Body).Decode(&fields); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.store.UpdateMappingSettings(copyID, sourceID, fields); err != nil {
		h.storeError(w, err)
		return
	}

	h.respondSuccess(w, "mapping updated", nil)
}

// HandleGetTrades возвращает последние записи истории
func (h *Handler) HandleGetTrades(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	trades, err := h.store.RecentTrades(limit)
	if err != nil {
		h.logger.Error("Failed to load trades", slog.Any("error", err))
		h.respondError(w, http.StatusInternalServerError, "failed to load trades")
		return
	}

	h.respondSuccess(w, "", trades)
}

// HandleGetStats возвращает сводку по истории (range: today|7d|all)
func (h *Handler) HandleGetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.store.Stats(r.URL.Query().Get("range"))
	if err != nil {
		h.logger.Error("Failed to compute stats", slog.Any("error", err))
		h.respondError(w, http.StatusInternalServerError, "failed to compute stats")
		return
	}

	h.respondSuccess(w, "", stats)
}

// storeError переводит ошибки хранилища в HTTP-статусы
func (h *Handler) storeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, storage.ErrValidation):
		h.respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, storage.ErrNotFound):
		h.respondError(w, http.StatusNotFound, err.Error())
	default:
		h.logger.Error("Storage operation failed", slog.Any("error", err))
		h.respondError(w, http.StatusInternalServerError, "internal error")
	}
}
