package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dispenser-monitor/config"
	"dispenser-monitor/internal/db"
	"dispenser-monitor/internal/store"
)

func init() {
	gin.SetMode(gin.TestMode)
}

var dbSeq int64

type fakeNotifier struct {
	mu  sync.Mutex
	ids []int64
}

func (f *fakeNotifier) Dispatch(alertID int64) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ids = append(f.ids, alertID)
	return true
}

func setupRouter(t *testing.T) (*gin.Engine, *fakeNotifier) {
	t.Helper()
	dsn := fmt.Sprintf("file:api_test_%d?mode=memory&cache=shared&_foreign_keys=on", atomic.AddInt64(&dbSeq, 1))
	gormDB, err := db.Init(&config.DatabaseConfig{Driver: "sqlite", DSN: dsn})
	require.NoError(t, err)
	t.Cleanup(func() {
		sqlDB, _ := gormDB.DB()
		sqlDB.Close()
	})

	notifier := &fakeNotifier{}
	h := NewHandler(store.NewGormStore(gormDB), notifier,
		&webpush.Options{VAPIDPublicKey: "BPublicKey"},
		map[string]string{"Resumen": "https://reports.example/embed/resumen"})
	r, err := NewRouter(h, config.ServerConfig{RateLimitPerSec: 1000, RateLimitBurst: 1000})
	require.NoError(t, err)
	return r, notifier
}

func do(r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &m), w.Body.String())
	return m
}

func decodeList(t *testing.T, w *httptest.ResponseRecorder) []map[string]any {
	t.Helper()
	var l []map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &l), w.Body.String())
	return l
}

func createDevice(t *testing.T, r http.Handler, serial string) int64 {
	t.Helper()
	w := do(r, http.MethodPost, "/api/devices", gin.H{
		"name": "Dispenser " + serial, "location": "Hall", "serial": serial, "category": "water",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return int64(decode(t, w)["id"].(float64))
}

func TestDevices_CreateGetList(t *testing.T) {
	r, _ := setupRouter(t)

	w := do(r, http.MethodPost, "/api/devices", gin.H{
		"name": "D1", "location": "Floor 1", "serial": "SN-001", "category": "water", "capacity_liters": 20,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode(t, w)
	assert.Equal(t, "active", created["status"])
	assert.Nil(t, created["last_maintenance_at"])
	assert.Equal(t, true, created["active"])
	id := int64(created["id"].(float64))

	w = do(r, http.MethodPost, "/api/devices", gin.H{
		"name": "D2", "location": "Floor 2", "serial": "SN-001", "category": "water",
	})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = do(r, http.MethodGet, fmt.Sprintf("/api/devices/%d", id), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, created, decode(t, w))

	createDevice(t, r, "SN-002")
	w = do(r, http.MethodPost, fmt.Sprintf("/api/devices/%d/deactivate", id), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "inactive", decode(t, w)["status"])

	all := decodeList(t, do(r, http.MethodGet, "/api/devices", nil))
	assert.Len(t, all, 2)
	active := decodeList(t, do(r, http.MethodGet, "/api/devices?active=true", nil))
	require.Len(t, active, 1)
	assert.Equal(t, "SN-002", active[0]["serial"])
	inactive := decodeList(t, do(r, http.MethodGet, "/api/devices?status=inactive", nil))
	assert.Len(t, inactive, 1)
}

func TestDevices_BadInput(t *testing.T) {
	r, _ := setupRouter(t)
	id := createDevice(t, r, "SN-BAD")

	testCases := []struct {
		name   string
		method string
		path   string
		body   any
		want   int
	}{
		{"missing name", http.MethodPost, "/api/devices", gin.H{"location": "L", "serial": "S", "category": "c"}, http.StatusBadRequest},
		{"fill level out of range", http.MethodPost, "/api/devices", gin.H{"name": "n", "location": "L", "serial": "S", "category": "c", "fill_level": 150}, http.StatusBadRequest},
		{"unknown status on create", http.MethodPost, "/api/devices", gin.H{"name": "n", "location": "L", "serial": "S", "category": "c", "status": "asleep"}, http.StatusBadRequest},
		{"non-numeric id", http.MethodGet, "/api/devices/abc", nil, http.StatusBadRequest},
		{"missing device", http.MethodGet, "/api/devices/9999", nil, http.StatusNotFound},
		{"unknown status", http.MethodPut, fmt.Sprintf("/api/devices/%d/status", id), gin.H{"status": "asleep"}, http.StatusBadRequest},
		{"status on missing device", http.MethodPut, "/api/devices/9999/status", gin.H{"status": "alert"}, http.StatusNotFound},
		{"reading for missing device", http.MethodPost, "/api/devices/9999/readings", gin.H{"fill_level": 10}, http.StatusNotFound},
		{"alert for missing device", http.MethodPost, "/api/devices/9999/alerts", gin.H{"type": "low_level"}, http.StatusNotFound},
		{"unknown severity", http.MethodPost, fmt.Sprintf("/api/devices/%d/alerts", id), gin.H{"type": "low_level", "severity": "doom"}, http.StatusBadRequest},
		{"maintenance for missing device", http.MethodPost, "/api/devices/9999/maintenance", gin.H{"type": "repair"}, http.StatusNotFound},
		{"bad hours", http.MethodGet, fmt.Sprintf("/api/devices/%d/readings?hours=zero", id), nil, http.StatusBadRequest},
		{"bad resolved flag", http.MethodGet, "/api/alerts?resolved=perhaps", nil, http.StatusBadRequest},
		{"resolve missing alert", http.MethodPost, "/api/alerts/9999/resolve", nil, http.StatusNotFound},
		{"close missing record", http.MethodPost, "/api/maintenance/9999/close", nil, http.StatusNotFound},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			w := do(r, tc.method, tc.path, tc.body)
			assert.Equal(t, tc.want, w.Code, w.Body.String())
			assert.Contains(t, decode(t, w), "error")
		})
	}
}

func TestDevices_StatusTransitions(t *testing.T) {
	r, _ := setupRouter(t)
	id := createDevice(t, r, "SN-ST")

	for _, status := range []string{"active", "inactive", "alert", "critical", "maintenance"} {
		w := do(r, http.MethodPut, fmt.Sprintf("/api/devices/%d/status", id), gin.H{"status": status})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.Equal(t, status, decode(t, w)["status"])
	}
}

func TestReadings_RecordAndList(t *testing.T) {
	r, _ := setupRouter(t)
	id := createDevice(t, r, "SN-R")
	path := fmt.Sprintf("/api/devices/%d/readings", id)

	w := do(r, http.MethodPost, path, gin.H{"fill_level": 55.5, "temperature": 8.25})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	reading := decode(t, w)
	assert.Equal(t, 55.5, reading["fill_level"])
	assert.Nil(t, reading["pressure"])

	w = do(r, http.MethodPost, path, gin.H{"fill_level": 54.0, "timestamp": "2001-01-01T00:00:00Z"})
	require.Equal(t, http.StatusCreated, w.Code)

	recent := decodeList(t, do(r, http.MethodGet, path+"?hours=1", nil))
	require.Len(t, recent, 1)
	assert.Equal(t, reading["id"], recent[0]["id"])

	w = do(r, http.MethodPost, path, gin.H{"fill_level": -3})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAlerts_RaiseResolve(t *testing.T) {
	r, notifier := setupRouter(t)
	id := createDevice(t, r, "SN-AL")

	w := do(r, http.MethodPost, fmt.Sprintf("/api/devices/%d/alerts", id), gin.H{"type": "low_level", "description": "under 10%"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	alert := decode(t, w)
	assert.Equal(t, "medium", alert["severity"])
	assert.Equal(t, false, alert["resolved"])
	alertID := int64(alert["id"].(float64))
	assert.Equal(t, []int64{alertID}, notifier.ids)

	pending := decodeList(t, do(r, http.MethodGet, "/api/alerts?resolved=false", nil))
	assert.Len(t, pending, 1)

	w = do(r, http.MethodPost, fmt.Sprintf("/api/alerts/%d/resolve", alertID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	resolved := decode(t, w)
	assert.Equal(t, true, resolved["resolved"])
	assert.NotNil(t, resolved["resolved_at"])

	w = do(r, http.MethodPost, fmt.Sprintf("/api/alerts/%d/resolve", alertID), nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	pending = decodeList(t, do(r, http.MethodGet, "/api/alerts?resolved=false", nil))
	assert.Empty(t, pending)
	forDevice := decodeList(t, do(r, http.MethodGet, fmt.Sprintf("/api/devices/%d/alerts", id), nil))
	assert.Len(t, forDevice, 1)
}

func TestMaintenance_OpenCloseAndDelete(t *testing.T) {
	r, _ := setupRouter(t)
	serviced := createDevice(t, r, "SN-M1")
	plain := createDevice(t, r, "SN-M2")

	w := do(r, http.MethodPost, fmt.Sprintf("/api/devices/%d/maintenance", serviced), gin.H{"type": "cleaning", "responsible": "Luis"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	record := decode(t, w)
	assert.Nil(t, record["ended_at"])
	recordID := int64(record["id"].(float64))

	w = do(r, http.MethodPost, fmt.Sprintf("/api/maintenance/%d/close", recordID), gin.H{"cost": 30.5, "observations": "ok"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	closed := decode(t, w)
	assert.NotNil(t, closed["ended_at"])
	assert.Equal(t, 30.5, closed["cost"])

	w = do(r, http.MethodPost, fmt.Sprintf("/api/maintenance/%d/close", recordID), nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	device := decode(t, do(r, http.MethodGet, fmt.Sprintf("/api/devices/%d", serviced), nil))
	assert.Equal(t, closed["ended_at"], device["last_maintenance_at"])

	history := decodeList(t, do(r, http.MethodGet, fmt.Sprintf("/api/devices/%d/maintenance", serviced), nil))
	assert.Len(t, history, 1)

	w = do(r, http.MethodDelete, fmt.Sprintf("/api/devices/%d", serviced), nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	do(r, http.MethodPost, fmt.Sprintf("/api/devices/%d/readings", plain), gin.H{"fill_level": 5})
	do(r, http.MethodPost, fmt.Sprintf("/api/devices/%d/alerts", plain), gin.H{"type": "low_level"})
	w = do(r, http.MethodDelete, fmt.Sprintf("/api/devices/%d", plain), nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, http.StatusNotFound, do(r, http.MethodGet, fmt.Sprintf("/api/devices/%d", plain), nil).Code)
	assert.Empty(t, decodeList(t, do(r, http.MethodGet, "/api/alerts", nil)))
}

func TestStats_CachedUntilWrite(t *testing.T) {
	r, _ := setupRouter(t)

	w := do(r, http.MethodGet, "/api/stats", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "MISS", w.Header().Get("X-Cache"))
	assert.Equal(t, float64(0), decode(t, w)["total_devices"])

	w = do(r, http.MethodGet, "/api/stats", nil)
	assert.Equal(t, "HIT", w.Header().Get("X-Cache"))

	createDevice(t, r, "SN-STATS")
	w = do(r, http.MethodGet, "/api/stats", nil)
	assert.Equal(t, "MISS", w.Header().Get("X-Cache"))
	assert.Equal(t, float64(1), decode(t, w)["total_devices"])
	assert.Equal(t, float64(1), decode(t, w)["active_devices"])
}

func TestStatus(t *testing.T) {
	r, _ := setupRouter(t)
	w := do(r, http.MethodGet, "/api/status", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "ok", body["database"])
}

func TestPages(t *testing.T) {
	r, _ := setupRouter(t)

	pages := map[string]string{
		"/":               "Monitoreo de dispensadoras",
		"/paneles":        "/panel/Temporal",
		"/panel/Resumen":  "https://reports.example/embed/resumen",
		"/panel/Analisis": "todavía no tiene un informe",
		"/panel/Temporal": "Temporal",
		"/panel/reportes": "Reportes",
		"/acerca-de":      "Acerca de",
	}
	for path, want := range pages {
		t.Run(path, func(t *testing.T) {
			w := do(r, http.MethodGet, path, nil)
			require.Equal(t, http.StatusOK, w.Code)
			assert.Contains(t, w.Header().Get("Content-Type"), "text/html")
			assert.Contains(t, w.Body.String(), want)
		})
	}

	assert.Equal(t, http.StatusNotFound, do(r, http.MethodGet, "/panel/otro", nil).Code)
}

func TestIndex_RendersCounters(t *testing.T) {
	r, _ := setupRouter(t)

	w := do(r, http.MethodGet, "/", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `data-key="total_devices">0</dd>`)

	id := createDevice(t, r, "SN-HOME")
	w = do(r, http.MethodPost, fmt.Sprintf("/api/devices/%d/alerts", id), gin.H{"type": "low_level"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = do(r, http.MethodGet, "/", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "MISS", w.Header().Get("X-Cache"))
	body := w.Body.String()
	assert.Contains(t, body, `data-key="total_devices">1</dd>`)
	assert.Contains(t, body, `data-key="active_devices">1</dd>`)
	assert.Contains(t, body, `data-key="pending_alerts">1</dd>`)
	assert.Contains(t, body, `data-key="open_maintenance">0</dd>`)
}

func TestSubscriptions(t *testing.T) {
	r, _ := setupRouter(t)
	id := createDevice(t, r, "SN-SUB")
	endpoint := "https://push.example/send/abc+def"

	w := do(r, http.MethodPut, "/api/subscriptions", gin.H{
		"endpoint": endpoint, "p256dh": "key", "auth": "auth", "subscribed_devices": []int64{id},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = do(r, http.MethodGet, "/api/subscriptions?endpoint="+endpoint, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.JSONEq(t, fmt.Sprintf(`{"subscribed_devices":[%d]}`, id), w.Body.String())

	w = do(r, http.MethodDelete, "/api/subscriptions", gin.H{"endpoint": endpoint})
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = do(r, http.MethodGet, "/api/subscriptions?endpoint="+endpoint, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	assert.Equal(t, http.StatusBadRequest, do(r, http.MethodGet, "/api/subscriptions", nil).Code)
}

func TestPutSubscription_InvalidRequest(t *testing.T) {
	router := gin.New()
	handler := NewHandler(nil, nil, nil, nil)
	router.PUT("/api/subscriptions", handler.PutSubscription)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPut, "/api/subscriptions", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"invalid request"}`, w.Body.String())
}

func TestGetVAPIDPublicKey(t *testing.T) {
	r, _ := setupRouter(t)
	w := do(r, http.MethodGet, "/api/vapid_public_key", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"public_key":"BPublicKey"}`, w.Body.String())

	router := gin.New()
	router.GET("/k", NewHandler(nil, nil, nil, nil).GetVAPIDPublicKey)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/k", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
