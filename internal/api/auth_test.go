package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"radiantbloom/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdminAuthRequired(t *testing.T) {
	fx := setupServer(t, testAPIConfig())

	rec := fx.do(t, http.MethodGet, "/api/admin/bookings", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = fx.do(t, http.MethodGet, "/api/admin/bookings", nil, map[string]string{"x-api-key": "wrong-key"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = fx.do(t, http.MethodGet, "/api/admin/bookings", nil, adminHeaders())
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAdminAuthPermissions(t *testing.T) {
	fx := setupServer(t, testAPIConfig())
	readerHeaders := map[string]string{"x-api-key": readerKey}

	// Ключ только на чтение видит список, но не меняет записи.
	rec := fx.do(t, http.MethodGet, "/api/admin/bookings", nil, readerHeaders)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = fx.do(t, http.MethodPatch, "/api/admin/bookings/1", map[string]any{"status": "confirmed", "version": 1}, readerHeaders)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = fx.do(t, http.MethodPut, "/api/admin/schedule", nil, readerHeaders)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// Пустой список разрешений означает полный доступ.
	rec = fx.do(t, http.MethodGet, "/api/admin/schedule", nil, adminHeaders())
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAdminAuthRateLimit(t *testing.T) {
	cfg := testAPIConfig()
	cfg.RateLimit.RPS = 0.001
	cfg.RateLimit.Burst = 2
	fx := setupServer(t, cfg)

	for i := 0; i < 2; i++ {
		rec := fx.do(t, http.MethodGet, "/api/admin/bookings", nil, adminHeaders())
		require.Equal(t, http.StatusOK, rec.Code)
	}

	rec := fx.do(t, http.MethodGet, "/api/admin/bookings", nil, adminHeaders())
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestAdminAuthDisabled(t *testing.T) {
	cfg := testAPIConfig()
	cfg.Auth.Enabled = boolPtr(false)
	fx := setupServer(t, cfg)

	rec := fx.do(t, http.MethodGet, "/api/admin/bookings", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRequiredPermissionMapping(t *testing.T) {
	cases := []struct {
		method string
		path   string
		want   string
	}{
		{http.MethodGet, "/api/admin/bookings", permReadBookings},
		{http.MethodPatch, "/api/admin/bookings/7", permWriteBookings},
		{http.MethodPut, "/api/admin/schedule", permManageSchedule},
		{http.MethodPost, "/api/admin/closures", permManageSchedule},
		{http.MethodPost, "/api/admin/blocks", permManageSchedule},
		{http.MethodPost, "/api/admin/services", permManageCatalog},
		{http.MethodGet, "/api/admin/export", permExport},
	}

	for _, tc := range cases {
		req := httptest.NewRequest(tc.method, tc.path, nil)
		assert.Equal(t, tc.want, requiredPermission(req), "%s %s", tc.method, tc.path)
	}
}

func TestHasPermission(t *testing.T) {
	open := config.APIClientKey{Key: "k"}
	assert.True(t, hasPermission(open, permExport))

	scoped := config.APIClientKey{Key: "k", Permissions: []string{"read:bookings", " export:bookings "}}
	assert.True(t, hasPermission(scoped, permReadBookings))
	assert.True(t, hasPermission(scoped, permExport))
	assert.False(t, hasPermission(scoped, permManageCatalog))
}
