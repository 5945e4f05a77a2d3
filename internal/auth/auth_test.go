package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func echoIdentity(t *testing.T) (http.Handler, *Identity) {
	t.Helper()
	var got Identity
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := IdentityFrom(r.Context())
		require.True(t, ok)
		got = id
		w.WriteHeader(http.StatusOK)
	})
	return h, &got
}

func TestMiddleware_ValidToken(t *testing.T) {
	v := NewStaticVerifier(map[string]Identity{
		"tok-1": {Email: "a@x.io", Name: "A", Role: "user"},
	})
	inner, got := echoIdentity(t)
	h := Middleware(v, nil)(inner)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer tok-1")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "a@x.io", got.Email)
}

func TestMiddleware_RoleResolverOverridesTokenRole(t *testing.T) {
	v := NewStaticVerifier(map[string]Identity{"tok-1": {Email: "a@x.io", Role: "user"}})
	inner, got := echoIdentity(t)
	resolve := func(ctx context.Context, email string) (string, error) { return "admin", nil }
	h := Middleware(v, resolve)(inner)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer tok-1")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, "admin", got.Role)
}

func TestMiddleware_MissingOrBadToken(t *testing.T) {
	v := NewStaticVerifier(nil)
	h := Middleware(v, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not be reached")
	}))

	for _, header := range []string{"", "Basic abc", "Bearer ", "Bearer unknown"} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		require.Equal(t, http.StatusUnauthorized, rec.Code, "header %q", header)
	}
}

func TestRequireRole(t *testing.T) {
	v := NewStaticVerifier(map[string]Identity{
		"admin-tok": {Email: "adm@x.io", Role: "admin"},
		"user-tok":  {Email: "u@x.io", Role: "user"},
	})
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	h := Middleware(v, nil)(RequireRole("admin")(inner))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer admin-tok")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer user-tok")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusForbidden, rec.Code)
}
