package tokenmiddleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/AshikurRahmanMunna/intertools-server/internal/storage"
	"github.com/AshikurRahmanMunna/intertools-server/internal/token"
)

type contextKey string

const EmailKey contextKey = "email"

// Authenticate проверяет bearer-токен из заголовка Authorization.
// Нет заголовка — 401; заголовок есть, но токен битый, просроченный
// или не по схеме "Bearer <token>" — 403.
func Authenticate(tokens *token.Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				http.Error(w, "missing token", http.StatusUnauthorized)
				return
			}

			parts := strings.Fields(authHeader)
			if len(parts) != 2 || parts[0] != "Bearer" {
				http.Error(w, "invalid token format", http.StatusForbidden)
				return
			}

			email, err := tokens.Verify(parts[1])
			if err != nil {
				http.Error(w, "invalid token", http.StatusForbidden)
				return
			}

			// Проверенный email становится identity запроса
			ctx := context.WithValue(r.Context(), EmailKey, email)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAdmin пускает дальше только пользователей с ролью admin.
// Должен стоять после Authenticate.
func RequireAdmin(log *slog.Logger, users storage.UserStorage) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			email, ok := FromContext(r.Context())
			if !ok {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			user, err := users.GetUserByEmail(r.Context(), email)
			if err != nil {
				if errors.Is(err, storage.ErrUserNotFound) {
					http.Error(w, "forbidden", http.StatusForbidden)
					return
				}
				log.Error("failed to load caller role", slog.Any("error", err))
				http.Error(w, "internal server error", http.StatusInternalServerError)
				return
			}

			if !user.IsAdmin() {
				http.Error(w, "forbidden", http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// FromContext извлекает проверенный email из контекста.
func FromContext(ctx context.Context) (string, bool) {
	email, ok := ctx.Value(EmailKey).(string)
	return email, ok
}
