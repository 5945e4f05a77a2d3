package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/pkg/errors"
)

// Identity — проверенная личность из внешнего auth-провайдера.
// Роль берётся из нашей users-таблицы, не из токена.
type Identity struct {
	Email string
	Name  string
	Role  string
}

// TokenVerifier проверяет bearer-токен у внешнего провайдера.
// Сам сервис токены не выпускает и не разбирает.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (Identity, error)
}

// RoleResolver подменяет роль из токена ролью из БД (источник истины
// для авторизации — users-таблица).
type RoleResolver func(ctx context.Context, email string) (string, error)

type ctxKey struct{}

var ErrUnauthenticated = errors.New("auth: missing or invalid token")

func IdentityFrom(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(ctxKey{}).(Identity)
	return id, ok
}

func withIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// Middleware извлекает bearer-токен, проверяет его и кладёт Identity
// в контекст запроса. 401 при любой ошибке проверки.
func Middleware(verifier TokenVerifier, resolveRole RoleResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				unauthorized(w)
				return
			}

			id, err := verifier.Verify(r.Context(), token)
			if err != nil {
				unauthorized(w)
				return
			}

			if resolveRole != nil {
				role, err := resolveRole(r.Context(), id.Email)
				if err == nil && role != "" {
					id.Role = role
				}
			}

			next.ServeHTTP(w, r.WithContext(withIdentity(r.Context(), id)))
		})
	}
}

// RequireRole — гейт поверх Middleware: 403, если роль не совпала.
func RequireRole(role string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, ok := IdentityFrom(r.Context())
			if !ok {
				unauthorized(w)
				return
			}
			if id.Role != role {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusForbidden)
				_, _ = w.Write([]byte(`{"error":"forbidden"}`))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	if !strings.HasPrefix(h, "Bearer ") {
		return "", false
	}
	token := strings.TrimPrefix(h, "Bearer ")
	return token, token != ""
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"error":"unauthorized"}`))
}
