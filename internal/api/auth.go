package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"tradecopier/storage"
)

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// HandleLogin выдаёт JWT токен по логину/паролю
func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var creds credentials
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := h.store.GetUserByUsername(creds.Username)
	if errors.Is(err, storage.ErrNotFound) {
		h.respondError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}
	if err != nil {
		h.logger.Error("Login failed", slog.Any("error", err))
		h.respondError(w, http.StatusInternalServerError, "internal error")
		return
	}

	if err := h.auth.VerifyPassword(user.PasswordHash, creds.Password); err != nil {
		h.respondError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	token, err := h.auth.GenerateToken(user.ID, user.Username)
	if err != nil {
		h.logger.Error("Token generation failed", slog.Any("error", err))
		h.respondError(w, http.StatusInternalServerError, "internal error")
		return
	}

	h.respondSuccess(w, "", map[string]string{"token": token})
}

// HandleRegister регистрирует пользователя веб-консоли
func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var creds credentials
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if creds.Username == "" || len(creds.Password) < 8 {
		h.respondError(w, http.StatusBadRequest, "username is required, password must be at least 8 characters")
		return
	}

	hash, err := h.auth.HashPassword(creds.Password)
	if err != nil {
		h.logger.Error("Password hashing failed", slog.Any("error", err))
		h.respondError(w, http.StatusInternalServerError, "internal error")
		return
	}

	if err := h.store.CreateUser(creds.Username, hash); err != nil {
		h.storeError(w, err)
		return
	}

	h.logger.Info("✅ Web user registered", slog.String("username", creds.Username))

	h.respondSuccess(w, "user created", nil)
}
