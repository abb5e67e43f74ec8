package api

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"tradecopier/internal/auth"
	"tradecopier/internal/broker"
	"tradecopier/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	store, err := storage.New(filepath.Join(t.TempDir(), "test.db"), logger)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	alerts := broker.NewAlertQueue()
	b := broker.New(broker.Config{StoreWorkers: 2}, store, alerts, logger)

	authService := auth.NewService("test-secret", time.Hour)
	handler := New(store, b, authService, logger)

	srv := httptest.NewServer(handler.SetupRouter())
	t.Cleanup(srv.Close)

	return srv
}

func postJSON(t *testing.T, url string, body any, token string) *http.Response {
	t.Helper()

	data, err := json.Marshal(body)
	require.NoError(t, err)

	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(data))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })

	return resp
}

func decodeResponse(t *testing.T, resp *http.Response) apiResponse {
	t.Helper()

	var out apiResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))

	return out
}

// Регистрация, логин и доступ к защищенному маршруту по токену
func TestAuthFlow(t *testing.T) {
	srv := newTestServer(t)

	creds := map[string]string{"username": "admin", "password": "long-enough-password"}

	resp := postJSON(t, srv.URL+"/api/auth/register", creds, "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = postJSON(t, srv.URL+"/api/auth/login", creds, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	out := decodeResponse(t, resp)
	require.True(t, out.Success)

	data, ok := out.Data.(map[string]any)
	require.True(t, ok)
	token, _ := data["token"].(string)
	require.NotEmpty(t, token)

	// без токена закрыто
	req, _ := http.NewRequest(http.MethodGet, srv.URL+"/api/sources", nil)
	raw, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	raw.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, raw.StatusCode)

	// с токеном открыто
	req.Header.Set("Authorization", "Bearer "+token)
	raw, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer raw.Body.Close()
	assert.Equal(t, http.StatusOK, raw.StatusCode)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	srv := newTestServer(t)

	creds := map[string]string{"username": "admin", "password": "long-enough-password"}
	postJSON(t, srv.URL+"/api/auth/register", creds, "")

	resp := postJSON(t, srv.URL+"/api/auth/login",
		map[string]string{"username": "admin", "password": "wrong"}, "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = postJSON(t, srv.URL+"/api/auth/login",
		map[string]string{"username": "nobody", "password": "whatever"}, "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestRegisterValidation(t *testing.T) {
	srv := newTestServer(t)

	resp := postJSON(t, srv.URL+"/api/auth/register",
		map[string]string{"username": "admin", "password": "short"}, "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	creds := map[string]string{"username": "admin", "password": "long-enough-password"}
	resp = postJSON(t, srv.URL+"/api/auth/register", creds, "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// повторная регистрация того же имени
	resp = postJSON(t, srv.URL+"/api/auth/register", creds, "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAccountManagement(t *testing.T) {
	srv := newTestServer(t)

	creds := map[string]string{"username": "admin", "password": "long-enough-password"}
	postJSON(t, srv.URL+"/api/auth/register", creds, "")
	resp := postJSON(t, srv.URL+"/api/auth/login", creds, "")
	out := decodeResponse(t, resp)
	token := out.Data.(map[string]any)["token"].(string)

	// создание сорса: идентификатор назначает сервер
	resp = postJSON(t, srv.URL+"/api/sources", map[string]string{"name": "Master"}, token)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	out = decodeResponse(t, resp)
	assert.Equal(t, "S1", out.Data.(map[string]any)["source_id_str"])

	// создание копи-аккаунта
	resp = postJSON(t, srv.URL+"/api/copies", map[string]any{
		"name": "Slave", "copy_id_str": "copy-1",
		"daily_drawdown_percent": 5, "alert_drawdown_percent": 3,
	}, token)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// подписка
	resp = postJSON(t, srv.URL+"/api/mappings", map[string]any{
		"copy_id_str": "copy-1", "source_id_str": "S1",
		"volume_type": "MULTIPLIER", "volume_value": 2.0,
	}, token)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// невалидная подписка - 400
	resp = postJSON(t, srv.URL+"/api/mappings", map[string]any{
		"copy_id_str": "copy-1", "source_id_str": "S1",
		"volume_type": "MULTIPLIER", "volume_value": 2.0,
	}, token)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// несуществующий сорс - 404
	resp = postJSON(t, srv.URL+"/api/mappings", map[string]any{
		"copy_id_str": "copy-1", "source_id_str": "S99",
		"volume_type": "MULTIPLIER", "volume_value": 1.0,
	}, token)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
