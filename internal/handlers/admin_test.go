package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"leadcheck/internal/models"
)

func adminRequest(method, path string, body []byte) *http.Request {
	var req *http.Request
	if body != nil {
		req = httptest.NewRequest(method, path, bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	req.Header.Set("Authorization", "Bearer "+testAdminToken)
	return req
}

func TestAdminTokenGate(t *testing.T) {
	env := newTestEnv(t, nil)

	w := env.do(httptest.NewRequest(http.MethodGet, "/admin/keys", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	req := httptest.NewRequest(http.MethodGet, "/admin/keys", nil)
	req.Header.Set("Authorization", "Bearer wrong-token")
	w = env.do(req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = env.do(adminRequest(http.MethodGet, "/admin/keys", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestDeviceKeyLifecycle(t *testing.T) {
	env := newTestEnv(t, nil)

	// Generate.
	w := env.do(adminRequest(http.MethodPost, "/admin/generate-key", nil))
	require.Equal(t, http.StatusCreated, w.Code)
	var created models.DeviceKeyResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.NotEmpty(t, created.Key)
	assert.Equal(t, models.DeviceKeyActive, created.Status)

	// The generated key passes the gate.
	req := httptest.NewRequest(http.MethodGet, "/leads/task-status/none", nil)
	req.Header.Set(deviceKeyHeader, created.Key)
	w = env.do(req)
	assert.Equal(t, http.StatusNotFound, w.Code, "gate passed, task genuinely unknown")

	// Disable.
	body, _ := json.Marshal(models.DeviceKeyUpdateRequest{Status: models.DeviceKeyInactive})
	w = env.do(adminRequest(http.MethodPatch, "/admin/keys/1", body))
	require.Equal(t, http.StatusOK, w.Code)

	// Disabled key is rejected at the gate.
	req = httptest.NewRequest(http.MethodGet, "/leads/task-status/none", nil)
	req.Header.Set(deviceKeyHeader, created.Key)
	w = env.do(req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// List.
	w = env.do(adminRequest(http.MethodGet, "/admin/keys", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var keys []models.DeviceKeyResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &keys))
	assert.Len(t, keys, 1)

	// Delete.
	w = env.do(adminRequest(http.MethodDelete, "/admin/keys/1", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	w = env.do(adminRequest(http.MethodDelete, "/admin/keys/1", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestUpdateKeyValidation(t *testing.T) {
	env := newTestEnv(t, nil)

	w := env.do(adminRequest(http.MethodPatch, "/admin/keys/not-a-number", []byte(`{"status":"active"}`)))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(adminRequest(http.MethodPatch, "/admin/keys/1", []byte(`{"status":"banana"}`)))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(adminRequest(http.MethodPatch, "/admin/keys/99", []byte(`{"status":"inactive"}`)))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestLeadsByDate(t *testing.T) {
	env := newTestEnv(t, nil)
	now := time.Now().UTC()
	env.store.byDate = []models.FreshLead{
		{Email: "a@x.com", CreatedAt: now.AddDate(0, 0, -2)},
		{Email: "b@y.com", CreatedAt: now.AddDate(0, 0, -1)},
		{Email: "c@z.com", CreatedAt: now.AddDate(0, 0, -10)},
	}

	from := now.AddDate(0, 0, -3).Format("2006-01-02")
	to := now.Format("2006-01-02")
	w := env.do(adminRequest(http.MethodGet, "/admin/leads-by-date?from_date="+from+"&to_date="+to, nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "a@x.com\nb@y.com\n", w.Body.String())
}

// A bare to_date covers the whole day; an explicit midnight datetime is
// a literal cutoff.
func TestLeadsByDateMidnightCutoff(t *testing.T) {
	env := newTestEnv(t, nil)
	env.store.byDate = []models.FreshLead{
		{Email: "a@x.com", CreatedAt: time.Date(2026, 1, 2, 10, 0, 0, 0, time.UTC)},
	}

	w := env.do(adminRequest(http.MethodGet,
		"/admin/leads-by-date?from_date=2026-01-01&to_date=2026-01-02T00:00:00Z", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.do(adminRequest(http.MethodGet,
		"/admin/leads-by-date?from_date=2026-01-01&to_date=2026-01-02", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "a@x.com\n", w.Body.String())
}

func TestLeadsByDateEmptyRange(t *testing.T) {
	env := newTestEnv(t, nil)
	w := env.do(adminRequest(http.MethodGet, "/admin/leads-by-date?from_date=2001-01-01&to_date=2001-01-02", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestLeadsByDateBadParams(t *testing.T) {
	env := newTestEnv(t, nil)
	w := env.do(adminRequest(http.MethodGet, "/admin/leads-by-date?from_date=nope&to_date=2024-01-01", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(adminRequest(http.MethodGet, "/admin/leads-by-date", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestStats(t *testing.T) {
	env := newTestEnv(t, nil)
	_, err := env.store.CreateDeviceKey()
	require.NoError(t, err)

	w := env.do(adminRequest(http.MethodGet, "/admin/stats", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var stats models.StatsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stats))
	assert.Equal(t, int64(1), stats.DeviceKeys.Total)
	assert.Equal(t, int64(1), stats.DeviceKeys.Active)
}
