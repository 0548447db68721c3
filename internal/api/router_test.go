package api_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/baharkarakas/point-service/internal/api"
	"github.com/baharkarakas/point-service/internal/config"
	"github.com/baharkarakas/point-service/internal/models"
	"github.com/baharkarakas/point-service/internal/repository/memory"
	"github.com/baharkarakas/point-service/internal/services"
)

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	store := memory.NewStore()
	ledger := services.NewLedgerService(store.Balances(), store.Histories(), nil, nil)
	srv := httptest.NewServer(api.NewRouter(config.Config{Env: "test", RateRPS: 0}, ledger))
	t.Cleanup(srv.Close)
	return srv
}

func doJSON(t *testing.T, method, url, body string) (*http.Response, []byte) {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, data
}

func TestChargeAndReadBalance(t *testing.T) {
	srv := newServer(t)

	resp, body := doJSON(t, http.MethodPatch, srv.URL+"/api/v1/points/1/charge", `{"amount":500}`)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

	var b models.Balance
	require.NoError(t, json.Unmarshal(body, &b))
	assert.Equal(t, int64(500), b.Amount)

	resp, body = doJSON(t, http.MethodGet, srv.URL+"/api/v1/points/1", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(body, &b))
	assert.Equal(t, int64(500), b.Amount)
}

func TestBalanceUnknownAccountIs404(t *testing.T) {
	srv := newServer(t)
	resp, _ := doJSON(t, http.MethodGet, srv.URL+"/api/v1/points/99", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestNonNumericIDIsRejected(t *testing.T) {
	srv := newServer(t)
	resp, body := doJSON(t, http.MethodPatch, srv.URL+"/api/v1/points/abc/charge", `{"amount":100}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, string(body), "INVALID_ID")
}

func TestNegativeAmountIsRejected(t *testing.T) {
	srv := newServer(t)
	resp, body := doJSON(t, http.MethodPatch, srv.URL+"/api/v1/points/1/charge", `{"amount":-500}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, string(body), "INVALID_AMOUNT")
}

func TestUseBeyondBalanceIs422(t *testing.T) {
	srv := newServer(t)

	resp, _ := doJSON(t, http.MethodPatch, srv.URL+"/api/v1/points/1/charge", `{"amount":1000}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body := doJSON(t, http.MethodPatch, srv.URL+"/api/v1/points/1/use", `{"amount":2000}`)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Contains(t, string(body), "INSUFFICIENT_BALANCE")
}

func TestHistoriesEndpoint(t *testing.T) {
	srv := newServer(t)

	resp, _ := doJSON(t, http.MethodPatch, srv.URL+"/api/v1/points/1/charge", `{"amount":700}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp, _ = doJSON(t, http.MethodPatch, srv.URL+"/api/v1/points/1/use", `{"amount":200}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body := doJSON(t, http.MethodGet, srv.URL+"/api/v1/points/1/histories", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var entries []models.HistoryEntry
	require.NoError(t, json.Unmarshal(body, &entries))
	require.Len(t, entries, 2)
	assert.Equal(t, models.KindCharge, entries[0].Kind)
	assert.Equal(t, models.KindUse, entries[1].Kind)
}

func TestHistoriesUnknownAccountIs404(t *testing.T) {
	srv := newServer(t)
	resp, _ := doJSON(t, http.MethodGet, srv.URL+"/api/v1/points/5/histories", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestIdempotencyKeyReplay(t *testing.T) {
	srv := newServer(t)

	req, err := http.NewRequest(http.MethodPatch, srv.URL+"/api/v1/points/1/charge", strings.NewReader(`{"amount":300}`))
	require.NoError(t, err)
	req.Header.Set("Idempotency-Key", "abc-123")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	req, err = http.NewRequest(http.MethodPatch, srv.URL+"/api/v1/points/1/charge", strings.NewReader(`{"amount":300}`))
	require.NoError(t, err)
	req.Header.Set("Idempotency-Key", "abc-123")
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body := doJSON(t, http.MethodGet, srv.URL+"/api/v1/points/1", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var b models.Balance
	require.NoError(t, json.Unmarshal(body, &b))
	assert.Equal(t, int64(300), b.Amount, "the replayed charge must apply once")
}

func TestHealth(t *testing.T) {
	srv := newServer(t)
	resp, body := doJSON(t, http.MethodGet, srv.URL+"/health", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", string(body))
}
