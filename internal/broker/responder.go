package broker

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net"

	"tradecopier/internal/models"
	"tradecopier/storage"
)

type configRequest struct {
	Command   string `json:"command"`
	CopyIDStr string `json:"copy_id_str"`
}

type configResponse struct {
	Status  string           `json:"status"`
	Config  *models.EAConfig `json:"config,omitempty"`
	Message string           `json:"message,omitempty"`
}

// runResponder обслуживает config-порт: строка запроса - строка ответа.
// На каждый запрос уходит ровно один ответ, на любом пути исполнения.
func (b *Broker) runResponder(ctx context.Context) {
	b.acceptLoop(ctx, b.configLn, b.respondTo)
}

func (b *Broker) respondTo(ctx context.Context, conn net.Conn) {
	defer conn.Close()

	scanner := bufio.NewScanner(conn)
	for scanner.Scan() {
		line := scanner.Bytes()

		resp := b.handleConfigRequest(ctx, line)

		data, err := json.Marshal(resp)
		if err != nil {
			// не должно случаться на этих типах
			b.logger.Error("Failed to encode config response", slog.Any("error", err))
			data = []byte(`{"status":"ERROR","message":"internal error"}`)
		}

		if _, err := conn.Write(append(data, '\n')); err != nil {
			b.logger.Debug("Config reply failed",
				slog.String("remote", conn.RemoteAddr().String()),
				slog.Any("error", err))
			return
		}
	}
}

// handleConfigRequest валидирует запрос и собирает конфиг. Вызов
// хранилища - блокирующий, поэтому уходит через пул, а не из цикла сокета.
func (b *Broker) handleConfigRequest(ctx context.Context, line []byte) configResponse {
	var req configRequest
	if err := json.Unmarshal(line, &req); err != nil {
		b.logger.Warn("Malformed config request", slog.String("payload", string(line)))
		return configResponse{Status: "ERROR", Message: "malformed request"}
	}

	b.logger.Info("Config request received",
		slog.String("command", req.Command),
		slog.String("copy_id", req.CopyIDStr))

	if req.Command != "GET_CONFIG" {
		return configResponse{Status: "ERROR", Message: "unknown command"}
	}
	if req.CopyIDStr == "" {
		return configResponse{Status: "ERROR", Message: "copy_id_str is missing"}
	}

	var cfg *models.EAConfig
	err := b.pool.Do(ctx, func() error {
		var composeErr error
		cfg, composeErr = b.store.ComposeConfig(req.CopyIDStr)
		return composeErr
	})
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrNotFound):
			return configResponse{Status: "ERROR", Message: "no copy account with id " + req.CopyIDStr}
		case errors.Is(err, storage.ErrDisabled):
			return configResponse{Status: "ERROR", Message: "copy account " + req.CopyIDStr + " is disabled"}
		default:
			b.logger.Error("Config composition failed",
				slog.String("copy_id", req.CopyIDStr),
				slog.Any("error", err))
			return configResponse{Status: "ERROR", Message: "internal error"}
		}
	}

	b.logger.Info("Sending config", slog.String("copy_id", req.CopyIDStr))

	return configResponse{Status: "OK", Config: cfg}
}
