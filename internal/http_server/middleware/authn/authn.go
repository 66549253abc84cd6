package authn

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	resp "curve_service/internal/lib/api/response"
	"curve_service/internal/lib/jwt"
	sl "curve_service/internal/lib/logger"

	"github.com/go-chi/render"
	"github.com/google/uuid"
)

type ctxKey struct{}

// New returns middleware that validates the bearer session credential
// and stores the caller's account id in the request context.
func New(log *slog.Logger, sessionSecret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const op = "middleware.authn.New"

			log := log.With(slog.String("op", op))

			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, resp.Error("missing credentials"))

				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, resp.Error("missing credentials"))

				return
			}

			accountID, err := jwt.ParseToken(parts[1], sessionSecret)
			if err != nil {
				log.Warn("invalid session token", sl.Err(err))

				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, resp.Error("invalid credentials"))

				return
			}

			ctx := context.WithValue(r.Context(), ctxKey{}, accountID)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// AccountID extracts the authenticated caller from the request context.
func AccountID(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(ctxKey{}).(uuid.UUID)
	return id, ok
}
