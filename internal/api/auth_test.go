package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"labportal/internal/config"

	"github.com/stretchr/testify/assert"
)

func TestAdminAuth(t *testing.T) {
	auth := NewAdminAuth(config.APIAuthConfig{
		Enabled:     true,
		HeaderToken: "X-Admin-Token",
		Tokens: []config.APIClientKey{
			{Key: "root", Name: "ops"},
			{Key: "clerk", Name: "front desk", Permissions: []string{permItems}},
		},
	})
	ok := func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusNoContent) }

	tests := []struct {
		name  string
		token string
		perm  string
		want  int
	}{
		{"missing token", "", permBookings, http.StatusUnauthorized},
		{"unknown token", "guess", permBookings, http.StatusUnauthorized},
		{"allow-all token", "root", permExport, http.StatusNoContent},
		{"scoped token allowed", "clerk", permItems, http.StatusNoContent},
		{"scoped token denied", "clerk", permBookings, http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/export", nil)
			if tt.token != "" {
				req.Header.Set("x-admin-token", tt.token)
			}
			rec := httptest.NewRecorder()
			auth.Require(tt.perm, ok).ServeHTTP(rec, req)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestAdminAuthDisabled(t *testing.T) {
	auth := NewAdminAuth(config.APIAuthConfig{})
	rec := httptest.NewRecorder()
	auth.Require(permBookings, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
}
