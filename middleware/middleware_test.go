package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"boutique/globals"
	"boutique/models"

	"github.com/julienschmidt/httprouter"
	"github.com/stretchr/testify/assert"
)

func TestHasRole(t *testing.T) {
	cases := []struct {
		role    string
		allowed []string
		want    bool
	}{
		{"admin", []string{models.RoleAdmin, models.RoleSuperAdmin}, true},
		{"Admin", []string{models.RoleAdmin}, true},
		{"super admin", []string{models.RoleAdmin, models.RoleSuperAdmin}, true},
		{"Super Admin", []string{models.RoleSuperAdmin}, true},
		{"user", []string{models.RoleAdmin, models.RoleSuperAdmin}, false},
		{"", []string{models.RoleAdmin}, false},
		{"superadmin", []string{models.RoleSuperAdmin}, false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, HasRole(tc.role, tc.allowed...), "role=%q allowed=%v", tc.role, tc.allowed)
	}
}

func TestRequireRolesRejectsMissingRole(t *testing.T) {
	called := false
	h := RequireRoles(func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		called = true
	}, models.RoleAdmin)

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	h(w, r, nil)

	assert.False(t, called)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestRequireRolesAllowsMatchingRole(t *testing.T) {
	called := false
	h := RequireRoles(func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		called = true
	}, models.RoleAdmin)

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r = r.WithContext(context.WithValue(r.Context(), globals.RoleKey, "admin"))
	h(w, r, nil)

	assert.True(t, called)
}

func TestAuthenticateRejectsBadTokens(t *testing.T) {
	h := Authenticate(func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		t.Fatal("handler must not run")
	})

	for _, header := range []string{"", "garbage", "Bearer not-a-jwt"} {
		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		if header != "" {
			r.Header.Set("Authorization", header)
		}
		h(w, r, nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code, "header=%q", header)
	}
}

func TestOptionalAuthPassesAnonymous(t *testing.T) {
	called := false
	h := OptionalAuth(func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		called = true
		role, _ := r.Context().Value(globals.RoleKey).(string)
		assert.Empty(t, role)
	})

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	h(w, r, nil)
	assert.True(t, called)
}
