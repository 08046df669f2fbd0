package api

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"cmms-backend/config"
	"cmms-backend/internal/backup"
	"cmms-backend/internal/db"
	"cmms-backend/internal/maint"
	"cmms-backend/internal/model"
	"cmms-backend/internal/service"
	"cmms-backend/internal/store"
)

var plant = time.FixedZone("WIB", 7*3600)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubDigest struct {
	digest maint.Digest
	calls  int
}

func (s *stubDigest) RunOnce(context.Context) (*maint.Digest, error) {
	s.calls++
	return &s.digest, nil
}

func testServerConfig() config.ServerConfig {
	return config.ServerConfig{
		RateLimitPerSec: 1000,
		RateLimitBurst:  1000,
		CacheTTLSeconds: 60,
		Location:        plant,
	}
}

func newTestRouter(t *testing.T, digest DigestRunner) *gin.Engine {
	t.Helper()
	gormDB, err := db.OpenSQLite(filepath.Join(t.TempDir(), "api.db"), "silent")
	require.NoError(t, err)
	t.Cleanup(func() {
		sqlDB, _ := gormDB.DB()
		sqlDB.Close()
	})

	now := time.Date(2024, 3, 5, 9, 0, 0, 0, plant)
	svc := service.New(store.NewGormStore(gormDB), plant, zap.NewNop(), service.WithClock(func() time.Time { return now }))
	backups := backup.NewManager(t.TempDir(), "cmms-backup", nil, zap.NewNop())
	h := NewHandler(svc, backups, digest, &webpush.Options{VAPIDPublicKey: "public-key"}, zap.NewNop())
	return NewRouter(h, testServerConfig(), true, zap.NewNop())
}

func do(r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func itoa(id int64) string { return strconv.FormatInt(id, 10) }

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func TestHealth(t *testing.T) {
	r := newTestRouter(t, nil)

	assert.Equal(t, http.StatusOK, do(r, http.MethodGet, "/health/live", nil).Code)
	assert.Equal(t, http.StatusOK, do(r, http.MethodGet, "/health/ready", nil).Code)
}

func TestDegradedMode(t *testing.T) {
	h := NewHandler(nil, nil, nil, nil, zap.NewNop())
	r := NewRouter(h, testServerConfig(), false, zap.NewNop())

	assert.Equal(t, http.StatusOK, do(r, http.MethodGet, "/health/live", nil).Code)
	assert.Equal(t, http.StatusServiceUnavailable, do(r, http.MethodGet, "/health/ready", nil).Code)

	w := do(r, http.MethodGet, "/api/assets", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.JSONEq(t, `{"error":"database is not configured"}`, w.Body.String())

	w = do(r, http.MethodGet, "/api/vapid_public_key", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.JSONEq(t, `{"error":"push notifications are disabled"}`, w.Body.String())
}

func TestErrorMapping(t *testing.T) {
	r := newTestRouter(t, nil)

	w := do(r, http.MethodPost, "/api/assets", map[string]any{"code": "PMP-01"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decode[map[string]string](t, w)["error"], "name is required")

	assert.Equal(t, http.StatusBadRequest, do(r, http.MethodGet, "/api/assets/abc", nil).Code)
	assert.Equal(t, http.StatusNotFound, do(r, http.MethodGet, "/api/assets/42", nil).Code)

	require.Equal(t, http.StatusCreated, do(r, http.MethodPost, "/api/assets", map[string]any{"code": "PMP-01", "name": "Feed pump"}).Code)
	w = do(r, http.MethodPost, "/api/assets", map[string]any{"code": "PMP-01", "name": "Other pump"})
	assert.Equal(t, http.StatusConflict, w.Code)

	assert.Equal(t, http.StatusBadRequest, do(r, http.MethodGet, "/api/work-orders?asset_id=x", nil).Code)
	assert.Equal(t, http.StatusBadRequest, do(r, http.MethodGet, "/api/export/machines", nil).Code)
	assert.Equal(t, http.StatusBadRequest, do(r, http.MethodGet, "/api/export/assets?format=docx", nil).Code)
}

func TestBindingErrorsNameJSONFields(t *testing.T) {
	r := newTestRouter(t, nil)

	w := do(r, http.MethodPut, "/api/spare-parts", map[string]any{"minimum_stock": -1})
	require.Equal(t, http.StatusBadRequest, w.Code)
	msg := decode[map[string]string](t, w)["error"]
	assert.Contains(t, msg, "kode_barang is required")
	assert.Contains(t, msg, "nama_barang is required")
	assert.Contains(t, msg, "minimum_stock must be at least 0")

	w = do(r, http.MethodPut, "/api/subscriptions", map[string]any{"endpoint": "not a url", "p256dh": "k", "auth": "a"})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decode[map[string]string](t, w)["error"], "endpoint must be a valid URL")

	req := httptest.NewRequest(http.MethodPost, "/api/assets", strings.NewReader("{not json"))
	req.Header.Set("Content-Type", "application/json")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(r, http.MethodPost, "/api/assets", nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decode[map[string]string](t, w)["error"], "request body is required")
}

func TestWorkOrderLifecycle(t *testing.T) {
	r := newTestRouter(t, nil)

	w := do(r, http.MethodPost, "/api/assets", map[string]any{"code": "CMP-01", "name": "Air compressor"})
	require.Equal(t, http.StatusCreated, w.Code)
	asset := decode[model.Asset](t, w)

	w = do(r, http.MethodPut, "/api/spare-parts", map[string]any{
		"kode_barang": "BRG-001", "nama_barang": "V-belt", "minimum_stock": 2, "opening_stock": 5,
	})
	require.Equal(t, http.StatusCreated, w.Code)
	part := decode[service.SaveResult](t, w).Part
	assert.Equal(t, 5, part.AvailableStock)

	w = do(r, http.MethodGet, "/api/work-orders/next-number", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "WO-20240305-001", decode[map[string]string](t, w)["wo_no"])

	w = do(r, http.MethodPost, "/api/work-orders", map[string]any{"title": "Belt slipping", "asset_id": asset.ID})
	require.Equal(t, http.StatusCreated, w.Code)
	wo := decode[model.WorkOrder](t, w)
	assert.Equal(t, "WO-20240305-001", wo.WONo)
	assert.Equal(t, model.StatusOpen, wo.Status)

	w = do(r, http.MethodPost, "/api/work-orders/"+itoa(wo.ID)+"/parts", map[string]any{"part_id": part.ID, "qty": 2})
	require.Equal(t, http.StatusCreated, w.Code)
	consumed := decode[service.ConsumeResult](t, w)
	assert.Equal(t, 3, consumed.Part.AvailableStock)
	assert.Equal(t, model.TxnOut, consumed.Transaction.TxnType)

	w = do(r, http.MethodPut, "/api/work-orders/"+itoa(wo.ID), map[string]any{
		"status": "Closed", "priority": "High",
		"start_time": "2024-03-05 08:00", "end_time": "2024-03-05 08:20", "cost": "150.555",
	})
	require.Equal(t, http.StatusOK, w.Code)
	closed := decode[model.WorkOrder](t, w)
	assert.Equal(t, model.StatusClosed, closed.Status)
	assert.InDelta(t, 0.33, closed.DowntimeHours, 0.001)
	assert.Equal(t, "150.56", closed.Cost.StringFixed(2))

	w = do(r, http.MethodPut, "/api/work-orders/"+itoa(wo.ID), map[string]any{"status": "Closed", "priority": "High", "cost": "99,95"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "99.95", decode[model.WorkOrder](t, w).Cost.StringFixed(2))

	w = do(r, http.MethodPut, "/api/work-orders/"+itoa(wo.ID), map[string]any{"status": "Closed", "priority": "High", "cost": "ten"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "unable to parse amount")

	w = do(r, http.MethodGet, "/api/work-orders/"+itoa(wo.ID)+"/parts", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]model.WOPart](t, w), 1)

	w = do(r, http.MethodGet, "/api/stock-transactions?work_order_id="+itoa(wo.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]model.StockTxn](t, w), 1)

	w = do(r, http.MethodGet, "/api/work-orders?status=Closed", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]model.WorkOrder](t, w), 1)

	assert.Equal(t, http.StatusNoContent, do(r, http.MethodDelete, "/api/work-orders/"+itoa(wo.ID), nil).Code)
	assert.Equal(t, http.StatusNotFound, do(r, http.MethodGet, "/api/work-orders/"+itoa(wo.ID), nil).Code)
}

func TestStockAdjustmentClamps(t *testing.T) {
	r := newTestRouter(t, nil)

	w := do(r, http.MethodPut, "/api/spare-parts", map[string]any{"kode_barang": "BRG-002", "nama_barang": "Bearing", "minimum_stock": 2, "opening_stock": 1})
	require.Equal(t, http.StatusCreated, w.Code)
	part := decode[service.SaveResult](t, w).Part

	w = do(r, http.MethodPost, "/api/spare-parts/"+itoa(part.ID)+"/stock", map[string]any{"txn_type": "OUT", "qty": 4})
	require.Equal(t, http.StatusCreated, w.Code)
	res := decode[service.StockResult](t, w)
	assert.Equal(t, 0, res.Part.AvailableStock)
	assert.Equal(t, 4, res.Transaction.Qty)
	assert.Equal(t, 1, res.Transaction.AppliedQty)

	w = do(r, http.MethodPost, "/api/spare-parts/"+itoa(part.ID)+"/stock", map[string]any{"txn_type": "MOVE", "qty": 1})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(r, http.MethodGet, "/api/spare-parts?low_stock=true", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]model.SparePart](t, w), 1)
}

func TestImportParts(t *testing.T) {
	r := newTestRouter(t, nil)

	csvBody := "kode_barang,nama_barang,satuan,available_stock,minimum_stock\n" +
		"BRG-010,Oil filter,pcs,12 pcs,3\n" +
		",Missing code,pcs,1,1\n"

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", "parts.csv")
	require.NoError(t, err)
	_, err = fw.Write([]byte(csvBody))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/spare-parts/import", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	report := decode[service.ImportReport](t, w)
	assert.Equal(t, 1, report.Created)
	require.Len(t, report.Errors, 1)
	assert.Equal(t, 3, report.Errors[0].Row)

	w = do(r, http.MethodGet, "/api/spare-parts?search=filter", nil)
	parts := decode[[]model.SparePart](t, w)
	require.Len(t, parts, 1)
	assert.Equal(t, 12, parts[0].AvailableStock)

	req = httptest.NewRequest(http.MethodPost, "/api/spare-parts/import", strings.NewReader(""))
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestExportFormats(t *testing.T) {
	r := newTestRouter(t, nil)
	require.Equal(t, http.StatusCreated, do(r, http.MethodPost, "/api/assets", map[string]any{"code": "GEN-01", "name": "Generator"}).Code)

	w := do(r, http.MethodGet, "/api/export/assets", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), `filename="assets_`)
	assert.Contains(t, w.Body.String(), "GEN-01")

	w = do(r, http.MethodGet, "/api/export/assets?format=xlsx", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte("PK")))

	w = do(r, http.MethodGet, "/api/export/work_orders?format=pdf", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte("%PDF")))
}

func TestBackups(t *testing.T) {
	r := newTestRouter(t, nil)
	require.Equal(t, http.StatusCreated, do(r, http.MethodPost, "/api/suppliers", map[string]any{"name": "PT Sumber Teknik"}).Code)

	w := do(r, http.MethodPost, "/api/backups/suppliers", nil)
	require.Equal(t, http.StatusCreated, w.Code)
	res := decode[backup.Result](t, w)
	assert.Equal(t, 1, res.Rows)
	assert.Empty(t, res.Object)

	w = do(r, http.MethodGet, "/api/backups", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]backup.File](t, w), 1)

	w = do(r, http.MethodGet, "/api/backups/"+res.File, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "PT Sumber Teknik")

	assert.Equal(t, http.StatusNotFound, do(r, http.MethodGet, "/api/backups/missing.csv", nil).Code)
	assert.Equal(t, http.StatusBadRequest, do(r, http.MethodPost, "/api/backups/nope", nil).Code)
}

func TestMetaIsCached(t *testing.T) {
	r := newTestRouter(t, nil)

	w := do(r, http.MethodGet, "/api/meta", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "MISS", w.Header().Get("X-Cache"))
	meta := decode[map[string]any](t, w)
	assert.Equal(t, "WIB", meta["timezone"])

	w = do(r, http.MethodGet, "/api/meta", nil)
	assert.Equal(t, "HIT", w.Header().Get("X-Cache"))
}

func TestSendDigest(t *testing.T) {
	stub := &stubDigest{digest: maint.Digest{OpenWorkOrders: []model.WorkOrder{{WONo: "WO-20240305-001"}}}}
	r := newTestRouter(t, stub)

	w := do(r, http.MethodPost, "/api/notifications/digest", nil)
	require.Equal(t, http.StatusAccepted, w.Code)
	body := decode[map[string]any](t, w)
	assert.Equal(t, true, body["queued"])
	assert.EqualValues(t, 1, body["open_work_orders"])
	assert.Equal(t, 1, stub.calls)

	r = newTestRouter(t, nil)
	assert.Equal(t, http.StatusServiceUnavailable, do(r, http.MethodPost, "/api/notifications/digest", nil).Code)
}

func TestSubscriptions(t *testing.T) {
	r := newTestRouter(t, nil)
	endpoint := "https://push.example.com/send/abc%3D%3D"
	sub := map[string]any{"endpoint": endpoint, "p256dh": "key", "auth": "secret"}

	assert.Equal(t, http.StatusCreated, do(r, http.MethodPut, "/api/subscriptions", sub).Code)
	// Replacing keys for the same endpoint is an upsert.
	sub["auth"] = "rotated"
	assert.Equal(t, http.StatusCreated, do(r, http.MethodPut, "/api/subscriptions", sub).Code)

	w := do(r, http.MethodGet, "/api/subscriptions?endpoint="+endpoint, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, endpoint, decode[map[string]any](t, w)["endpoint"])

	assert.Equal(t, http.StatusBadRequest, do(r, http.MethodGet, "/api/subscriptions", nil).Code)
	assert.Equal(t, http.StatusBadRequest, do(r, http.MethodPut, "/api/subscriptions", map[string]any{"endpoint": "not a url"}).Code)

	assert.Equal(t, http.StatusNoContent, do(r, http.MethodDelete, "/api/subscriptions", map[string]any{"endpoint": endpoint}).Code)
	assert.Equal(t, http.StatusNotFound, do(r, http.MethodGet, "/api/subscriptions?endpoint="+endpoint, nil).Code)

	w = do(r, http.MethodGet, "/api/vapid_public_key", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"public_key":"public-key"}`, w.Body.String())
	assert.Equal(t, "public, max-age=3600", w.Header().Get("Cache-Control"))
}

func TestRawQueryParam(t *testing.T) {
	v, ok := rawQueryParam("a=1&endpoint=https%3A%2F%2Fx", "endpoint")
	assert.True(t, ok)
	assert.Equal(t, "https%3A%2F%2Fx", v)

	_, ok = rawQueryParam("a=1", "endpoint")
	assert.False(t, ok)
}
