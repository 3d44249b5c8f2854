package api

import (
	"crypto/subtle"
	"net/http"
	"strings"
	"sync"

	"radiantbloom/internal/config"

	"golang.org/x/time/rate"
)

const (
	apiKeyHeaderDefault = "x-api-key"
	permReadBookings    = "read:bookings"
	permWriteBookings   = "write:bookings"
	permManageSchedule  = "manage:schedule"
	permManageCatalog   = "manage:catalog"
	permExport          = "export:bookings"
)

// HTTPAuth guards the admin routes with API-key auth and a per-key
// token bucket.
type HTTPAuth struct {
	cfg      config.APIConfig
	limiters sync.Map
}

func NewHTTPAuth(cfg config.APIConfig) *HTTPAuth {
	return &HTTPAuth{cfg: cfg}
}

func (a *HTTPAuth) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if a.cfg.Auth.IsEnabled() {
			client, ok := a.authenticate(r)
			if !ok {
				writeError(w, http.StatusUnauthorized, "invalid api key")
				return
			}
			if !hasPermission(client, requiredPermission(r)) {
				writeError(w, http.StatusForbidden, "permission denied")
				return
			}
			if !a.allow(client.Key) {
				writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
				return
			}
		}

		next.ServeHTTP(w, r)
	})
}

func (a *HTTPAuth) authenticate(r *http.Request) (config.APIClientKey, bool) {
	header := strings.TrimSpace(a.cfg.Auth.HeaderAPIKey)
	if header == "" {
		header = apiKeyHeaderDefault
	}

	presented := strings.TrimSpace(r.Header.Get(header))
	if presented == "" {
		return config.APIClientKey{}, false
	}

	// Сравниваем со всеми ключами, чтобы время ответа не зависело от
	// наличия ключа в конфиге.
	var match config.APIClientKey
	found := false
	for _, client := range a.cfg.Auth.APIKeys {
		if subtle.ConstantTimeCompare([]byte(client.Key), []byte(presented)) == 1 {
			match = client
			found = true
		}
	}
	return match, found
}

// requiredPermission maps an admin route to the permission it needs.
// Unknown paths fall back to the booking read scope.
func requiredPermission(r *http.Request) string {
	path := r.URL.Path
	switch {
	case strings.HasPrefix(path, "/api/admin/bookings"):
		if r.Method == http.MethodGet {
			return permReadBookings
		}
		return permWriteBookings
	case strings.HasPrefix(path, "/api/admin/schedule"),
		strings.HasPrefix(path, "/api/admin/closures"),
		strings.HasPrefix(path, "/api/admin/blocks"):
		return permManageSchedule
	case strings.HasPrefix(path, "/api/admin/services"):
		return permManageCatalog
	case strings.HasPrefix(path, "/api/admin/export"):
		return permExport
	default:
		return permReadBookings
	}
}

// An empty permissions list means the key is allowed everywhere.
func hasPermission(client config.APIClientKey, required string) bool {
	if len(client.Permissions) == 0 {
		return true
	}
	for _, p := range client.Permissions {
		if strings.TrimSpace(p) == required {
			return true
		}
	}
	return false
}

func (a *HTTPAuth) allow(key string) bool {
	if a.cfg.RateLimit.RPS <= 0 {
		return true
	}
	return a.getLimiter(key).Allow()
}

func (a *HTTPAuth) getLimiter(key string) *rate.Limiter {
	if v, ok := a.limiters.Load(key); ok {
		if lim, ok := v.(*rate.Limiter); ok {
			return lim
		}
	}

	burst := a.cfg.RateLimit.Burst
	if burst <= 0 {
		burst = 5
	}

	lim := rate.NewLimiter(rate.Limit(a.cfg.RateLimit.RPS), burst)
	actual, loaded := a.limiters.LoadOrStore(key, lim)
	if loaded {
		if actualLim, ok := actual.(*rate.Limiter); ok {
			return actualLim
		}
	}
	return lim
}
