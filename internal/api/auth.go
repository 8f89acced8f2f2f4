package api

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"

	"labportal/internal/config"
)

const (
	permBookings = "admin:bookings"
	permItems    = "admin:items"
	permExport   = "admin:export"
)

var (
	errMissingToken     = errors.New("missing admin token")
	errInvalidToken     = errors.New("invalid admin token")
	errPermissionDenied = errors.New("permission denied")
)

// AdminAuth guards the admin routes with static tokens sent in a header.
type AdminAuth struct {
	enabled bool
	header  string
	tokens  []config.APIClientKey
}

func NewAdminAuth(cfg config.APIAuthConfig) *AdminAuth {
	header := strings.ToLower(strings.TrimSpace(cfg.HeaderToken))
	if header == "" {
		header = "x-admin-token"
	}
	return &AdminAuth{enabled: cfg.Enabled, header: header, tokens: cfg.Tokens}
}

// Require wraps next so it only runs for a token holding perm.
func (a *AdminAuth) Require(perm string, next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := a.check(r, perm); err != nil {
			status := http.StatusUnauthorized
			if errors.Is(err, errPermissionDenied) {
				status = http.StatusForbidden
			}
			writeError(w, status, err.Error())
			return
		}
		next(w, r)
	})
}

func (a *AdminAuth) check(r *http.Request, perm string) error {
	if !a.enabled {
		return nil
	}
	token := strings.TrimSpace(r.Header.Get(a.header))
	if token == "" {
		return errMissingToken
	}
	client, ok := a.lookup(token)
	if !ok {
		return errInvalidToken
	}
	return checkPermission(client, perm)
}

// lookup compares against every configured token so the time taken does not
// depend on which one matched.
func (a *AdminAuth) lookup(token string) (config.APIClientKey, bool) {
	var found config.APIClientKey
	matched := 0
	for _, k := range a.tokens {
		if subtle.ConstantTimeCompare([]byte(k.Key), []byte(token)) == 1 {
			found = k
			matched = 1
		}
	}
	return found, matched == 1
}

// An empty permission list grants everything.
func checkPermission(client config.APIClientKey, perm string) error {
	if perm == "" || len(client.Permissions) == 0 {
		return nil
	}
	for _, p := range client.Permissions {
		if strings.TrimSpace(p) == perm {
			return nil
		}
	}
	return errPermissionDenied
}
