package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shop-accounts-api/internal/domain"
	jwtinfra "github.com/shop-accounts-api/internal/infrastructure/jwt"
	"github.com/stretchr/testify/assert"
)

func requestWithRole(role string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/v1/users", nil)
	if role == "" {
		return req
	}
	claims := &jwtinfra.AccessClaims{UserID: "u1", Role: role}
	return req.WithContext(context.WithValue(req.Context(), ClaimsKey, claims))
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestRequireRoleAllows(t *testing.T) {
	h := RequireRole(domain.RoleAdmin)(okHandler())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, requestWithRole(domain.RoleAdmin))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRequireRoleAllowsAnyListedRole(t *testing.T) {
	h := RequireRole(domain.RoleAdmin, domain.RoleVendor)(okHandler())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, requestWithRole(domain.RoleVendor))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRequireRoleForbidsOtherRoles(t *testing.T) {
	h := RequireRole(domain.RoleAdmin)(okHandler())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, requestWithRole(domain.RoleCustomer))
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRequireRoleWithoutClaims(t *testing.T) {
	h := RequireRole(domain.RoleAdmin)(okHandler())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, requestWithRole(""))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
