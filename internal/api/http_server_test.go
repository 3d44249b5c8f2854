package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"

	"radiantbloom/internal/availability"
	"radiantbloom/internal/config"
	"radiantbloom/internal/database"
	"radiantbloom/internal/export"
	"radiantbloom/internal/models"
	"radiantbloom/internal/repository"
	"radiantbloom/internal/service"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Понедельник без праздников, чтобы расчёт слотов был детерминированным.
const apiTestDate = "2030-06-17"

const (
	adminKey  = "admin-secret"
	readerKey = "reader-secret"
)

type serverFixture struct {
	handler http.Handler
	db      *database.DB
}

func boolPtr(v bool) *bool { return &v }

func testAPIConfig() config.APIConfig {
	return config.APIConfig{
		HTTP: config.APIHTTPConfig{Port: 0},
		Auth: config.APIAuthConfig{
			Enabled:      boolPtr(true),
			HeaderAPIKey: "x-api-key",
			APIKeys: []config.APIClientKey{
				{Key: adminKey, Name: "back-office"},
				{Key: readerKey, Name: "dashboard", Permissions: []string{"read:bookings"}},
			},
		},
		RateLimit:       config.APIRateLimitConfig{RPS: 100, Burst: 100},
		PublicRateLimit: config.PublicRateConfig{Requests: 100, WindowSeconds: 60},
	}
}

func setupServer(t *testing.T, cfg config.APIConfig) *serverFixture {
	t.Helper()
	logger := zerolog.Nop()

	db, err := database.NewDB(":memory:", &logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	ctx := context.Background()
	require.NoError(t, db.CreateService(ctx, &models.Service{
		Slug:            "glow-facial",
		Name:            "Glow Facial",
		DurationMinutes: 60,
		PriceCents:      9000,
		Active:          true,
	}))
	for _, name := range []string{"Amelie", "Bree"} {
		require.NoError(t, db.CreateStaff(ctx, &models.Staff{DisplayName: name, Active: true}))
	}

	builder := availability.NewBuilder(db, &logger)
	locker := repository.NewMemorySlotLocker()

	bookingSvc := service.NewBookingService(db, builder, locker, nil, nil, &logger)
	catalogSvc := service.NewCatalogService(db, nil, &logger)
	require.NoError(t, catalogSvc.Refresh(ctx))
	scheduleSvc := service.NewScheduleService(db, &logger)
	exporter := export.NewExporter(db, t.TempDir(), &logger)

	srv := NewHTTPServer(cfg, catalogSvc, bookingSvc, scheduleSvc, exporter, locker, &logger)
	return &serverFixture{handler: srv.Handler(), db: db}
}

func (fx *serverFixture) do(t *testing.T, method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	rec := httptest.NewRecorder()
	fx.handler.ServeHTTP(rec, req)
	return rec
}

func adminHeaders() map[string]string {
	return map[string]string{"x-api-key": adminKey}
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var payload map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	return payload
}

func validBookingBody() map[string]any {
	return map[string]any{
		"service_slug":   "glow-facial",
		"date":           apiTestDate,
		"time":           "10:00",
		"customer_name":  "Chloe Martin",
		"customer_email": "chloe@example.com",
	}
}

func TestPublicServices(t *testing.T) {
	fx := setupServer(t, testAPIConfig())

	rec := fx.do(t, http.MethodGet, "/api/public/services", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	payload := decodeBody(t, rec)
	services, ok := payload["services"].([]any)
	require.True(t, ok)
	require.Len(t, services, 1)
	first := services[0].(map[string]any)
	assert.Equal(t, "glow-facial", first["slug"])
}

func TestPublicAvailability(t *testing.T) {
	fx := setupServer(t, testAPIConfig())

	path := fmt.Sprintf("/api/public/availability/glow-facial?from=%s&to=%s", apiTestDate, apiTestDate)
	rec := fx.do(t, http.MethodGet, path, nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	payload := decodeBody(t, rec)
	matrix, ok := payload["availability"].(map[string]any)
	require.True(t, ok)
	day, ok := matrix[apiTestDate].(map[string]any)
	require.True(t, ok)

	staff, ok := day["10:00"].([]any)
	require.True(t, ok)
	assert.Len(t, staff, 2)

	window := payload["window"].(map[string]any)
	assert.NotEmpty(t, window["from"])
	assert.NotEmpty(t, window["to"])
}

func TestPublicAvailabilityErrors(t *testing.T) {
	fx := setupServer(t, testAPIConfig())

	rec := fx.do(t, http.MethodGet, "/api/public/availability/no-such-service", nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = fx.do(t, http.MethodGet, "/api/public/availability/glow-facial?from=17.06.2030", nil, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = fx.do(t, http.MethodGet, "/api/public/availability/", nil, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateBookingEndpoint(t *testing.T) {
	fx := setupServer(t, testAPIConfig())

	rec := fx.do(t, http.MethodPost, "/api/public/bookings", validBookingBody(), nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	payload := decodeBody(t, rec)
	assert.Regexp(t, regexp.MustCompile(`^RB-[0-9A-F]{6}$`), payload["confirmation_code"])
	assert.NotEmpty(t, payload["public_token"])
	assert.Equal(t, "Glow Facial", payload["service_name"])
	assert.Equal(t, models.StatusPending, payload["status"])
}

func TestCreateBookingEndpointErrors(t *testing.T) {
	fx := setupServer(t, testAPIConfig())

	// Неизвестное поле отклоняется на декодере.
	body := validBookingBody()
	body["unexpected"] = true
	rec := fx.do(t, http.MethodPost, "/api/public/bookings", body, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	body = validBookingBody()
	body["service_slug"] = "no-such-service"
	rec = fx.do(t, http.MethodPost, "/api/public/bookings", body, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	body = validBookingBody()
	body["customer_email"] = ""
	rec = fx.do(t, http.MethodPost, "/api/public/bookings", body, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateBookingConflictTaxonomy(t *testing.T) {
	fx := setupServer(t, testAPIConfig())

	// Два мастера закрывают два одинаковых слота, третий запрос получает 409.
	for i := 0; i < 2; i++ {
		body := validBookingBody()
		body["customer_email"] = fmt.Sprintf("guest%d@example.com", i)
		rec := fx.do(t, http.MethodPost, "/api/public/bookings", body, nil)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	}

	rec := fx.do(t, http.MethodPost, "/api/public/bookings", validBookingBody(), nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestNewsletterEndpoint(t *testing.T) {
	fx := setupServer(t, testAPIConfig())

	rec := fx.do(t, http.MethodPost, "/api/public/newsletter", map[string]string{"email": "Chloe@Example.com"}, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = fx.do(t, http.MethodPost, "/api/public/newsletter", map[string]string{"email": "not-an-email"}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPublicRateLimit(t *testing.T) {
	cfg := testAPIConfig()
	cfg.PublicRateLimit.Requests = 2
	fx := setupServer(t, cfg)

	body := map[string]string{"email": "chloe@example.com"}
	for i := 0; i < 2; i++ {
		rec := fx.do(t, http.MethodPost, "/api/public/newsletter", body, nil)
		require.Equal(t, http.StatusOK, rec.Code)
	}

	rec := fx.do(t, http.MethodPost, "/api/public/newsletter", body, nil)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestAdminBookingLifecycle(t *testing.T) {
	fx := setupServer(t, testAPIConfig())

	rec := fx.do(t, http.MethodPost, "/api/public/bookings", validBookingBody(), nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = fx.do(t, http.MethodGet, "/api/admin/bookings", nil, adminHeaders())
	require.Equal(t, http.StatusOK, rec.Code)
	payload := decodeBody(t, rec)
	bookings := payload["bookings"].([]any)
	require.Len(t, bookings, 1)
	first := bookings[0].(map[string]any)
	id := int64(first["id"].(float64))

	patch := map[string]any{"status": models.StatusConfirmed, "version": 1, "internal_note": "called back"}
	rec = fx.do(t, http.MethodPatch, fmt.Sprintf("/api/admin/bookings/%d", id), patch, adminHeaders())
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	updated := decodeBody(t, rec)
	assert.Equal(t, models.StatusConfirmed, updated["status"])
	assert.Equal(t, float64(2), updated["version"])

	// Устаревшая версия отклоняется.
	patch = map[string]any{"status": models.StatusCompleted, "version": 1}
	rec = fx.do(t, http.MethodPatch, fmt.Sprintf("/api/admin/bookings/%d", id), patch, adminHeaders())
	assert.Equal(t, http.StatusConflict, rec.Code)

	// Недопустимый переход статуса.
	patch = map[string]any{"status": models.StatusPending, "version": 2}
	rec = fx.do(t, http.MethodPatch, fmt.Sprintf("/api/admin/bookings/%d", id), patch, adminHeaders())
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAdminBookingFilters(t *testing.T) {
	fx := setupServer(t, testAPIConfig())

	rec := fx.do(t, http.MethodPost, "/api/public/bookings", validBookingBody(), nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = fx.do(t, http.MethodGet, "/api/admin/bookings?status=cancelled", nil, adminHeaders())
	require.Equal(t, http.StatusOK, rec.Code)
	payload := decodeBody(t, rec)
	assert.Empty(t, payload["bookings"])

	rec = fx.do(t, http.MethodGet, "/api/admin/bookings?from=bad-date", nil, adminHeaders())
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAdminSchedule(t *testing.T) {
	fx := setupServer(t, testAPIConfig())

	rec := fx.do(t, http.MethodGet, "/api/admin/schedule", nil, adminHeaders())
	require.Equal(t, http.StatusOK, rec.Code)
	payload := decodeBody(t, rec)
	assert.Equal(t, models.DefaultOpenTime, payload["open_time"])

	update := models.OperatingSettings{OpenTime: "10:00", CloseTime: "20:00", Timezone: "Europe/Paris"}
	rec = fx.do(t, http.MethodPut, "/api/admin/schedule", update, adminHeaders())
	require.Equal(t, http.StatusOK, rec.Code)
	payload = decodeBody(t, rec)
	assert.Equal(t, "20:00", payload["close_time"])

	// Перевёрнутое окно не сохраняется.
	update = models.OperatingSettings{OpenTime: "20:00", CloseTime: "10:00", Timezone: "Europe/Paris"}
	rec = fx.do(t, http.MethodPut, "/api/admin/schedule", update, adminHeaders())
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAdminClosures(t *testing.T) {
	fx := setupServer(t, testAPIConfig())

	rec := fx.do(t, http.MethodPost, "/api/admin/closures",
		map[string]string{"closed_on": apiTestDate, "reason": "renovation"}, adminHeaders())
	require.Equal(t, http.StatusCreated, rec.Code)
	created := decodeBody(t, rec)
	id := created["id"].(string)
	require.NotEmpty(t, id)

	// Закрытый день пропадает из матрицы доступности.
	path := fmt.Sprintf("/api/public/availability/glow-facial?from=%s&to=%s", apiTestDate, apiTestDate)
	rec = fx.do(t, http.MethodGet, path, nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	payload := decodeBody(t, rec)
	matrix := payload["availability"].(map[string]any)
	assert.NotContains(t, matrix, apiTestDate)

	rec = fx.do(t, http.MethodGet, "/api/admin/closures", nil, adminHeaders())
	require.Equal(t, http.StatusOK, rec.Code)
	payload = decodeBody(t, rec)
	assert.Len(t, payload["closed_days"], 1)

	rec = fx.do(t, http.MethodDelete, "/api/admin/closures/"+id, nil, adminHeaders())
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = fx.do(t, http.MethodGet, "/api/admin/closures", nil, adminHeaders())
	payload = decodeBody(t, rec)
	assert.Empty(t, payload["closed_days"])
}

func TestAdminExport(t *testing.T) {
	fx := setupServer(t, testAPIConfig())

	rec := fx.do(t, http.MethodPost, "/api/public/bookings", validBookingBody(), nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = fx.do(t, http.MethodGet, "/api/admin/export?from=2030-06-01&to=2030-06-30", nil, adminHeaders())
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "bookings_")
	assert.NotZero(t, rec.Body.Len())

	rec = fx.do(t, http.MethodGet, "/api/admin/export?from=bad", nil, adminHeaders())
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAdminServices(t *testing.T) {
	fx := setupServer(t, testAPIConfig())

	svc := map[string]any{"slug": "hot-stone", "name": "Hot Stone Massage", "duration_minutes": 90, "price_cents": 12000}
	rec := fx.do(t, http.MethodPost, "/api/admin/services", svc, adminHeaders())
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = fx.do(t, http.MethodGet, "/api/public/services", nil, nil)
	payload := decodeBody(t, rec)
	assert.Len(t, payload["services"], 2)
}
